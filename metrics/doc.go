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

// Package metrics records dispatch metrics with OpenTelemetry.
//
// A [Recorder] owns a meter provider and the instruments of the dispatch
// core:
//
//   - mvc.dispatch.duration: histogram of dispatch time in seconds
//   - mvc.dispatch.count: dispatches by route, verb and result
//   - mvc.dispatch.failures: failed dispatches by stage and error kind
//   - mvc.dispatch.active: dispatches in flight
//   - http.server.request.duration: recorded by [Middleware]
//
// The default provider is Prometheus with a private registry, served by
// [Recorder.Handler]. OTLP and stdout exporters are available, as is any
// caller-supplied meter provider:
//
//	recorder := metrics.MustNew(metrics.WithServiceName("lecture"))
//	mux.Handle("/metrics", recorder.Handler())
//
// A nil *Recorder is valid and records nothing.
package metrics
