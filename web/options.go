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

package web

import (
	"log/slog"
	"net/http"

	mvcerrors "rivaas.dev/mvc/errors"
)

// Option configures a [Handler].
type Option func(*Handler)

// WithRenderer sets the renderer of forward directives. The default
// writes JSON.
func WithRenderer(r Renderer) Option {
	return func(h *Handler) {
		h.renderer = r
	}
}

// WithProblemFormatter sets the formatter of routing and transport
// errors. The default formats RFC 9457 problem details.
func WithProblemFormatter(f mvcerrors.Formatter) Option {
	return func(h *Handler) {
		h.problems = f
	}
}

// WithSessionCookie sets the name of the session cookie. The default is
// "SESSIONID".
func WithSessionCookie(name string) Option {
	return func(h *Handler) {
		h.cookieName = name
	}
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie() Option {
	return func(h *Handler) {
		h.cookieSecure = true
	}
}

// WithBodyLimit caps the request body in bytes. Larger bodies are
// answered with 413. The default is 1 MiB.
func WithBodyLimit(limit int64) Option {
	return func(h *Handler) {
		h.bodyLimit = limit
	}
}

// WithRequestIDHeader sets the header carrying request ids.
func WithRequestIDHeader(name string) Option {
	return func(h *Handler) {
		h.requestIDHeader = name
	}
}

// WithRequestIDGenerator replaces the ULID generator.
func WithRequestIDGenerator(gen func() string) Option {
	return func(h *Handler) {
		h.newRequestID = gen
	}
}

// WithClientRequestID controls whether a request id sent by the client is
// kept. It is kept by default.
func WithClientRequestID(allow bool) Option {
	return func(h *Handler) {
		h.allowClientID = allow
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithSameSite sets the SameSite mode of the session cookie. The default
// is Lax.
func WithSameSite(mode http.SameSite) Option {
	return func(h *Handler) {
		h.sameSite = mode
	}
}
