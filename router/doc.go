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

// Package router provides the route registry of the dispatch core.
//
// A [Registry] maps (path, verb) pairs to handler references. Patterns are
// made of literal segments and named variables:
//
//	/order/regist
//	/order/detail/{orderNo}
//
// A variable matches exactly one non-empty path segment and is captured
// under its name. When several patterns match a path, the one with a
// literal at the first position where they differ wins, so /order/regist
// beats /order/{id} for the path /order/regist.
//
// # Registration
//
// Routes are registered with an explicit verb set. An empty set matches
// every verb; on the same pattern a route declaring the verb beats the
// any-verb route. Registering the same (verb, pattern) pair twice fails
// with errors.ErrDuplicateRoute. Variable names are ignored when patterns
// are compared, so /a/{x} and /a/{y} collide.
//
// A [Group] carries a path prefix that is concatenated into every pattern
// at registration time, which keeps resolution uniform:
//
//	reg := router.New()
//	order := reg.Group("/order")
//	order.Register([]string{"GET"}, "/detail/{orderNo}", detailHandler)
//	order.Register([]string{"GET"}, "", otherRequest) // matches /order
//
// # Resolution
//
// Call [Registry.Freeze] once registration is complete. A frozen registry
// is read-only and serves [Registry.Resolve] without taking locks, so it
// can be shared by any number of concurrent dispatches.
//
// Resolve fails with errors.ErrNoRouteFound when no pattern matches. When
// a pattern matches but no route accepts the verb, the returned
// *errors.Error lists the allowed verbs.
package router
