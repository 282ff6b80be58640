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

package router

// Group registers routes under a common path prefix, the analogue of a
// class-level request mapping. The prefix is concatenated into each
// pattern when the route is registered.
//
// Example:
//
//	order := reg.Group("/order")
//	order.Register([]string{"POST"}, "/modify", h) // /order/modify
//	order.Register(nil, "", h)                     // /order, any verb
type Group struct {
	registry   *Registry
	prefix     string
	namePrefix string
}

// Prefix returns the group's path prefix.
func (g *Group) Prefix() string {
	return g.prefix
}

// Group creates a nested group. Prefix and name prefix are inherited.
func (g *Group) Group(prefix string) *Group {
	return &Group{
		registry:   g.registry,
		prefix:     joinPath(g.prefix, prefix),
		namePrefix: g.namePrefix,
	}
}

// SetNamePrefix appends prefix to the name prefix of the group and
// returns the group for chaining.
func (g *Group) SetNamePrefix(prefix string) *Group {
	g.namePrefix += prefix
	return g
}

// Register registers a route whose pattern is the group prefix joined with
// pattern. An empty pattern registers the prefix itself.
func (g *Group) Register(verbs []string, pattern string, handler any, opts ...RouteOption) (*Route, error) {
	if g.namePrefix != "" {
		opts = append(opts, func(r *Route) {
			if r.name != "" {
				r.name = g.namePrefix + r.name
			}
		})
	}

	return g.registry.Register(verbs, joinPath(g.prefix, pattern), handler, opts...)
}
