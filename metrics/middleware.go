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

package metrics

import (
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MiddlewareOption configures [Middleware].
type MiddlewareOption func(*middlewareConfig)

// middlewareConfig holds the predicates of paths left unmeasured.
type middlewareConfig struct {
	skip []func(path string) bool
}

// WithExcludePaths skips exact paths.
func WithExcludePaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skip = append(c.skip, func(p string) bool { return slices.Contains(paths, p) })
	}
}

// WithExcludePrefixes skips paths with one of the prefixes.
func WithExcludePrefixes(prefixes ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skip = append(c.skip, func(p string) bool {
			return slices.ContainsFunc(prefixes, func(prefix string) bool { return strings.HasPrefix(p, prefix) })
		})
	}
}

// WithExcludePatterns skips paths matching one of the regular
// expressions. Invalid patterns panic.
func WithExcludePatterns(patterns ...string) MiddlewareOption {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}

	return func(c *middlewareConfig) {
		c.skip = append(c.skip, func(p string) bool {
			return slices.ContainsFunc(res, func(re *regexp.Regexp) bool { return re.MatchString(p) })
		})
	}
}

func (c *middlewareConfig) excluded(path string) bool {
	return slices.ContainsFunc(c.skip, func(skip func(string) bool) bool { return skip(path) })
}

// Middleware records http.server.request.duration for every request not
// excluded by opts. A nil recorder yields a pass-through middleware.
func Middleware(recorder *Recorder, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if cfg.excluded(req.URL.Path) {
				next.ServeHTTP(w, req)
				return
			}

			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, req)

			recorder.requestDuration.Record(req.Context(), time.Since(start).Seconds(), metric.WithAttributes(
				recorder.serviceAttr,
				attribute.String("http.request.method", req.Method),
				attribute.String("http.response.status_code", strconv.Itoa(rw.status)),
			))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
