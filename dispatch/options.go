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

package dispatch

import (
	"log/slog"
	"time"

	"rivaas.dev/mvc/binding"
	"rivaas.dev/mvc/container"
	"rivaas.dev/mvc/exception"
	"rivaas.dev/mvc/metrics"
	"rivaas.dev/mvc/session"
	"rivaas.dev/mvc/tracing"
)

// Option configures a [Dispatcher].
type Option func(*Dispatcher)

// WithBinder sets the parameter binder.
func WithBinder(b *binding.Binder) Option {
	return func(d *Dispatcher) {
		d.binder = b
	}
}

// WithStore sets the session store. The default is an in-memory store
// without idle expiry.
func WithStore(s *session.Store) Option {
	return func(d *Dispatcher) {
		d.store = s
	}
}

// WithMapper sets the exception mapper whose global table applies to
// every handler group.
func WithMapper(m *exception.Mapper) Option {
	return func(d *Dispatcher) {
		d.mapper = m
	}
}

// WithExceptionMappings adds name-keyed mappings to the global table of
// the mapper. Keys are error kind or Go type names, values view names.
//
// Example:
//
//	dispatch.WithExceptionMappings(map[string]string{
//	    "HandlerError": "error/default",
//	})
func WithExceptionMappings(names map[string]string) Option {
	return func(d *Dispatcher) {
		d.exceptionNames = names
	}
}

// WithRedirectStatus sets the status of redirect directives. The default
// is 302.
func WithRedirectStatus(status int) Option {
	return func(d *Dispatcher) {
		d.redirectStatus = status
	}
}

// WithDeadline bounds handler invocation. Zero, the default, disables
// the deadline.
func WithDeadline(deadline time.Duration) Option {
	return func(d *Dispatcher) {
		d.deadline = deadline
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics records dispatch metrics.
func WithMetrics(r *metrics.Recorder) Option {
	return func(d *Dispatcher) {
		d.metrics = r
	}
}

// WithTracer opens one span per dispatch.
func WithTracer(t *tracing.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// WithContainer exposes c to handlers as [Call.Beans].
func WithContainer(c *container.Container) Option {
	return func(d *Dispatcher) {
		d.beans = c
	}
}
