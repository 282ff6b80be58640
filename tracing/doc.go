// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tracing wraps OpenTelemetry tracing for the dispatch core.
//
// A [Tracer] owns a tracer provider built from one of the exporters
// (stdout, OTLP over gRPC or HTTP, or none) or supplied by the caller.
// The dispatcher opens one span per dispatch and records every stage
// transition as a span event; [Middleware] opens the enclosing HTTP server
// span and continues traces propagated by the client.
//
//	tracer := tracing.MustNew(
//	    tracing.WithServiceName("lecture"),
//	    tracing.WithOTLPHTTP("http://localhost:4318"),
//	)
//	defer tracer.Shutdown(context.Background())
//
// A nil *Tracer is valid and records nothing.
package tracing
