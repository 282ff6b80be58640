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
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"rivaas.dev/mvc/container"
	"rivaas.dev/mvc/request"
	"rivaas.dev/mvc/router"
	"rivaas.dev/mvc/session"
	"rivaas.dev/mvc/view"
)

// Handler is an application handler. It receives the bound arguments in
// call.Args, in the order of the specs it was registered with.
type Handler func(ctx context.Context, call *Call) (view.Outcome, error)

// Call is the state one dispatch exposes to handlers and interceptors.
// It is owned by a single dispatch and must not be retained.
type Call struct {
	// Request is a copy of the dispatched request with path variables set.
	Request *request.Request

	// Route is the matched route.
	Route *router.Route

	// Args holds the bound arguments.
	Args []any

	// Model is the request-scoped model. It starts with the promoted flash
	// values and the declared session attributes; a Forward outcome is
	// rendered with Model overlaid by the outcome's own model.
	Model map[string]any

	// Flash holds the flash values promoted for this dispatch.
	Flash map[string]any

	// Session is the working copy of the session, committed when the
	// dispatch succeeds.
	Session *session.Scope

	// Beans looks up application components. It may be nil.
	Beans *container.Container

	// Logger carries the dispatch attributes.
	Logger *slog.Logger
}

// Arg returns the i-th bound argument as T. It panics when the index is
// out of range or the argument is not a T, like a failed type assertion
// would. Such a panic is reported as a handler error.
func Arg[T any](call *Call, i int) T {
	if i < 0 || i >= len(call.Args) {
		panic(fmt.Sprintf("dispatch: argument %d out of range [0,%d)", i, len(call.Args)))
	}
	v, ok := call.Args[i].(T)
	if !ok {
		panic(fmt.Sprintf("dispatch: argument %d is %T, not %v", i, call.Args[i], reflect.TypeFor[T]()))
	}

	return v
}

// Put sets a model attribute.
func (c *Call) Put(key string, value any) {
	c.Model[key] = value
}
