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

// Package dispatch drives one request through the MVC core: route
// resolution, parameter binding, handler invocation, view resolution and,
// on failure, exception mapping.
//
// A dispatch moves through the stages
//
//	ReceivedRequest -> RouteResolved -> ParametersBound -> HandlerInvoked
//	    -> OutcomeResolved -> ResponseReady
//
// and fails from any of the first four into the exception mapper, which
// always yields a directive. Only a path that matches no route is returned
// to the caller as an error.
//
// Handlers are plain functions registered with their binding specs:
//
//	d := dispatch.MustNew(dispatch.WithDeadline(2 * time.Second))
//
//	order := d.Group("/order")
//	order.Handle([]string{"GET"}, []string{"/detail/{orderNo}"},
//	    func(ctx context.Context, call *dispatch.Call) (view.Outcome, error) {
//	        orderNo := dispatch.Arg[int](call, 0)
//	        return view.ForwardTo("order/detail", map[string]any{"orderNo": orderNo}), nil
//	    },
//	    binding.Path[int]("orderNo"),
//	)
//	order.Exceptions().On(exception.KindOf(errors.KindHandler), "error/order")
//
//	dir, err := d.Dispatch(ctx, request.New("GET", "/order/detail/42"))
//
// Interceptors wrap handler invocation, globally or per group, optionally
// restricted to path patterns. Each may short-circuit by not calling next,
// or rewrite the outcome it returns.
//
// Session attributes are read through a working copy that is committed
// only when the dispatch reaches ResponseReady. Flash values of the
// session are promoted into the model before binding and cleared, so each
// is visible to exactly one dispatch.
package dispatch
