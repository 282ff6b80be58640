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
	"errors"
	"fmt"
	"slices"

	"rivaas.dev/mvc/binding"
	"rivaas.dev/mvc/exception"
	"rivaas.dev/mvc/router"
	"rivaas.dev/mvc/view"
)

// Group registers handlers under a common path prefix. Interceptors of a
// group wrap its own handlers and those of nested groups; its exception
// table applies to its own handlers only.
type Group struct {
	d            *Dispatcher
	parent       *Group
	routes       *router.Group
	interceptors []interceptorEntry
	exceptions   *exception.Table
	sessionAttrs []string
}

type endpoint struct {
	handler Handler
	specs   []binding.Spec
	group   *Group
}

// Handle registers h for every pattern under the group prefix. An empty
// verbs slice accepts any verb. specs describe the arguments of h in
// order.
//
// Example:
//
//	menu.Handle([]string{"POST"}, []string{"/regist"}, registMenu,
//	    binding.Query[string]("name"),
//	    binding.Query[int]("price"),
//	)
func (g *Group) Handle(verbs, patterns []string, h Handler, specs ...binding.Spec) error {
	if h == nil {
		return ErrNilHandler
	}
	if len(patterns) == 0 {
		return ErrNoPatterns
	}
	if err := binding.Validate(specs); err != nil {
		return fmt.Errorf("dispatch: handle %v: %w", patterns, err)
	}

	g.d.mu.Lock()
	defer g.d.mu.Unlock()
	if g.d.frozen.Load() {
		return ErrFrozen
	}

	ep := &endpoint{handler: h, specs: slices.Clone(specs), group: g}
	var errs []error
	for _, p := range patterns {
		route, err := g.routes.Register(verbs, p, ep)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		g.d.logger.Debug("handler registered", "route", route.String())
	}

	return errors.Join(errs...)
}

// Get registers h for GET on one pattern.
func (g *Group) Get(pattern string, h Handler, specs ...binding.Spec) error {
	return g.Handle([]string{"GET"}, []string{pattern}, h, specs...)
}

// Post registers h for POST on one pattern.
func (g *Group) Post(pattern string, h Handler, specs ...binding.Spec) error {
	return g.Handle([]string{"POST"}, []string{pattern}, h, specs...)
}

// Group creates a nested group. Declared session attributes are
// inherited; the exception table starts empty.
func (g *Group) Group(prefix string) *Group {
	return &Group{
		d:            g.d,
		parent:       g,
		routes:       g.routes.Group(prefix),
		exceptions:   exception.NewTable(),
		sessionAttrs: slices.Clone(g.sessionAttrs),
	}
}

// Use appends an interceptor. With patterns, it only wraps dispatches
// whose path matches one of them; see [Dispatcher.Use] for the syntax.
func (g *Group) Use(ic Interceptor, patterns ...string) error {
	if ic == nil {
		return ErrNilInterceptor
	}
	if err := validatePatterns(patterns); err != nil {
		return err
	}

	g.d.mu.Lock()
	defer g.d.mu.Unlock()
	if g.d.frozen.Load() {
		return ErrFrozen
	}
	g.interceptors = append(g.interceptors, interceptorEntry{ic: ic, patterns: slices.Clone(patterns)})

	return nil
}

// Exceptions returns the local exception table of the group. Its
// mappings are consulted before the global ones for failures of the
// group's handlers. Configure it before the first dispatch.
func (g *Group) Exceptions() *exception.Table {
	return g.exceptions
}

// SessionAttributes declares model attributes that the group keeps in
// the session between dispatches. They are copied from the session into
// the model before invocation and back after it, until a handler calls
// Complete on the session scope.
func (g *Group) SessionAttributes(names ...string) error {
	g.d.mu.Lock()
	defer g.d.mu.Unlock()
	if g.d.frozen.Load() {
		return ErrFrozen
	}
	for _, n := range names {
		if !slices.Contains(g.sessionAttrs, n) {
			g.sessionAttrs = append(g.sessionAttrs, n)
		}
	}

	return nil
}

// Prefix returns the path prefix of the group.
func (g *Group) Prefix() string {
	return g.routes.Prefix()
}

// chain wraps h with the interceptors of g and its ancestors that apply
// to path, outermost first from the root.
func (g *Group) chain(path string, h Handler) Handler {
	var groups []*Group
	for grp := g; grp != nil; grp = grp.parent {
		groups = append(groups, grp)
	}

	for _, grp := range groups {
		for i := len(grp.interceptors) - 1; i >= 0; i-- {
			e := grp.interceptors[i]
			if !e.matches(path) {
				continue
			}
			next := h
			h = func(ctx context.Context, call *Call) (view.Outcome, error) {
				return e.ic(ctx, call, next)
			}
		}
	}

	return h
}
