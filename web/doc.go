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

// Package web serves a dispatcher over net/http.
//
// [Handler] turns each HTTP request into a request.Request, dispatches it
// and writes the resulting directive:
//
//   - Render directives run the configured [Renderer]. [TemplateRenderer]
//     maps the view "menu/list" to templates/menu/list.html.
//   - Redirect directives answer with a Location header and the
//     directive's status.
//   - Unmatched paths are answered with RFC 9457 problem details, 404 for
//     an unknown path and 405 with an Allow header for a verb mismatch.
//
// The session lives in a cookie, SESSIONID by default, which the handler
// issues when a dispatch created a session and clears when the session
// was invalidated. Every response carries a request id, taken from the
// client or generated as a ULID.
//
// A typical stack:
//
//	h := web.MustNew(d, web.WithRenderer(templates))
//	stack := web.Chain(h,
//	    tracing.Middleware(tracer),
//	    metrics.Middleware(recorder),
//	    web.Compress(),
//	)
//	err := web.NewServer(stack, web.WithH2C()).Run(ctx)
package web
