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

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	mvcerrors "rivaas.dev/mvc/errors"
	"rivaas.dev/mvc/request"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report registrations.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// RouteOption configures a single route at registration.
type RouteOption func(*Route)

// WithName names the route for introspection.
func WithName(name string) RouteOption {
	return func(r *Route) {
		r.name = name
	}
}

// shape groups the routes that share a pattern once variable names are erased.
type shape struct {
	key      string
	segments []segment
	byVerb   map[string]*Route
	anyVerb  *Route
	static   bool
}

// route picks the route for verb: an explicit verb beats the any-verb route.
func (s *shape) route(verb string) *Route {
	if r, ok := s.byVerb[verb]; ok {
		return r
	}

	return s.anyVerb
}

// allowed returns the verbs accepted by the shape, sorted.
func (s *shape) allowed() []string {
	verbs := make([]string, 0, len(s.byVerb))
	for v := range s.byVerb {
		verbs = append(verbs, v)
	}
	slices.Sort(verbs)

	return verbs
}

// matches reports whether the split path fits the shape.
func (s *shape) matches(parts []string) bool {
	if len(parts) != len(s.segments) {
		return false
	}
	for i, seg := range s.segments {
		if seg.isVar() {
			if parts[i] == "" {
				return false
			}
			continue
		}
		if seg.literal != parts[i] {
			return false
		}
	}

	return true
}

// moreSpecific orders shapes so that the one with a literal at the first
// differing position comes first. Shapes that agree on every shared
// position are ordered by length, which keeps the order total.
func moreSpecific(a, b *shape) int {
	n := min(len(a.segments), len(b.segments))
	for i := range n {
		av, bv := a.segments[i].isVar(), b.segments[i].isVar()
		if av != bv {
			if !av {
				return -1
			}
			return 1
		}
	}

	return cmp.Compare(len(a.segments), len(b.segments))
}

// Registry stores route bindings and resolves incoming (path, verb) pairs.
//
// Static patterns live in a map keyed by path; patterns with variables are
// kept in a slice ordered by specificity. After [Registry.Freeze] the
// registry is read-only and Resolve takes no locks.
type Registry struct {
	static  map[string]*shape
	dynamic []*shape
	routes  []*Route

	frozen atomic.Bool
	mu     sync.RWMutex // Guards registration before Freeze

	logger *slog.Logger
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		static: make(map[string]*shape, 32),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register binds verbs and pattern to handler. An empty verb set, or the
// single verb "*", matches every verb. It fails with errors.ErrDuplicateRoute
// when any (verb, pattern) pair is already taken; in that case nothing is
// registered.
func (r *Registry) Register(verbs []string, pattern string, handler any, opts ...RouteOption) (*Route, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilHandler, pattern)
	}

	normalized, segments, vars, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	route := &Route{
		verbs:    normalizeVerbs(verbs),
		pattern:  normalized,
		handler:  handler,
		segments: segments,
		vars:     vars,
	}
	for _, opt := range opts {
		opt(route)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return nil, fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, route)
	}

	key := shapeKey(segments)
	s := r.lookupShape(key)
	if s != nil {
		if err := s.conflict(route); err != nil {
			return nil, err
		}
	} else {
		s = &shape{
			key:      key,
			segments: segments,
			byVerb:   make(map[string]*Route, 2),
			static:   len(vars) == 0,
		}
		if s.static {
			r.static[normalized] = s
		} else {
			r.dynamic = append(r.dynamic, s)
			slices.SortStableFunc(r.dynamic, moreSpecific)
		}
	}

	if route.AnyVerb() {
		s.anyVerb = route
	}
	for _, v := range route.verbs {
		s.byVerb[v] = route
	}
	r.routes = append(r.routes, route)

	r.logger.Debug("route registered", "route", route.String(), "name", route.name)

	return route, nil
}

// conflict reports a DuplicateRoute error when route overlaps a registered one.
func (s *shape) conflict(route *Route) error {
	if route.AnyVerb() && s.anyVerb != nil {
		return duplicate(route.pattern, "*", s.anyVerb)
	}
	for _, v := range route.verbs {
		if existing, ok := s.byVerb[v]; ok {
			return duplicate(route.pattern, v, existing)
		}
	}

	return nil
}

func duplicate(pattern, verb string, existing *Route) error {
	return mvcerrors.New(mvcerrors.KindDuplicateRoute, "register",
		fmt.Sprintf("%s %s conflicts with %s", verb, pattern, existing))
}

func (r *Registry) lookupShape(key string) *shape {
	if s, ok := r.static[key]; ok {
		return s
	}
	for _, s := range r.dynamic {
		if s.key == key {
			return s
		}
	}

	return nil
}

// Freeze ends registration. Later Register calls fail with ErrRegistryFrozen.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Match is the result of a successful resolution.
type Match struct {
	Route *Route
	Vars  map[string]string
}

// Resolve finds the route for path and verb.
//
// Shapes are tried from the most specific to the least specific; the first
// one holding a route for verb wins. When shapes matched the path but none
// accepted the verb, the *errors.Error carries the allowed verbs.
func (r *Registry) Resolve(path, verb string) (Match, error) {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	verb = strings.ToUpper(verb)
	normalized := cleanPath(path)
	parts := splitPath(normalized)

	var allowed []string

	if s, ok := r.static[normalized]; ok {
		if route := s.route(verb); route != nil {
			return Match{Route: route, Vars: map[string]string{}}, nil
		}
		allowed = append(allowed, s.allowed()...)
	}

	for _, s := range r.dynamic {
		if !s.matches(parts) {
			continue
		}
		if route := s.route(verb); route != nil {
			return Match{Route: route, Vars: route.extract(parts)}, nil
		}
		allowed = append(allowed, s.allowed()...)
	}

	err := mvcerrors.New(mvcerrors.KindNoRouteFound, "resolve", verb+" "+normalized)
	if len(allowed) > 0 {
		slices.Sort(allowed)
		err.Allowed = slices.Compact(allowed)
	}

	return Match{}, err
}

// ResolveRequest resolves req and fills req.PathVars with the captured
// variables.
func (r *Registry) ResolveRequest(req *request.Request) (*Route, error) {
	m, err := r.Resolve(req.Path, req.Verb)
	if err != nil {
		return nil, err
	}
	req.PathVars = m.Vars

	return m.Route, nil
}

// Routes returns every registered route in registration order.
func (r *Registry) Routes() []*Route {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	return slices.Clone(r.routes)
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	return len(r.routes)
}

// Group returns a group that prefixes every pattern with prefix.
func (r *Registry) Group(prefix string) *Group {
	return &Group{registry: r, prefix: cleanPath(prefix)}
}
