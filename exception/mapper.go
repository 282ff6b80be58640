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

package exception

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	mvcerrors "rivaas.dev/mvc/errors"
	"rivaas.dev/mvc/view"
)

const (
	// DefaultView is the view of the built-in fallback.
	DefaultView = "error/unhandled"

	// DefaultAttribute is the model attribute holding the error.
	DefaultAttribute = "exception"
)

// Fallback produces the outcome for a matched error. Returning nil passes
// the error on to the next mapping.
type Fallback func(err error) view.Outcome

// ToView returns a Fallback forwarding to name.
func ToView(name string) Fallback {
	return func(error) view.Outcome {
		return view.Name(name)
	}
}

// Mapping pairs a matcher with its fallback.
type Mapping struct {
	Matcher  Matcher
	Fallback Fallback
}

// Table is an ordered list of mappings. Build it before dispatching
// starts; a Table is read-only afterwards.
type Table struct {
	mappings []Mapping
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Handle appends a mapping.
func (t *Table) Handle(m Matcher, fb Fallback) *Table {
	if m == nil || fb == nil {
		panic("exception: Handle with nil matcher or fallback")
	}
	t.mappings = append(t.mappings, Mapping{Matcher: m, Fallback: fb})

	return t
}

// On appends a mapping forwarding to the view name.
func (t *Table) On(m Matcher, viewName string) *Table {
	return t.Handle(m, ToView(viewName))
}

// MapNames appends one mapping per entry. Keys are error kind names such
// as "HandlerError" or, failing that, Go type names such as
// "*strconv.NumError". Entries are added in key order.
func (t *Table) MapNames(names map[string]string) *Table {
	for _, key := range slices.Sorted(maps.Keys(names)) {
		if kind, err := mvcerrors.ParseKind(key); err == nil {
			t.On(KindOf(kind), names[key])
			continue
		}
		t.On(TypeName(key), names[key])
	}

	return t
}

// Len returns the number of mappings.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.mappings)
}

// lookup finds the most specific mapping for err and runs it.
func (t *Table) lookup(err error) (view.Outcome, Mapping, bool) {
	if t == nil || len(t.mappings) == 0 {
		return nil, Mapping{}, false
	}

	links := chain(err)
	for i := len(links) - 1; i >= 0; i-- {
		for _, m := range t.mappings {
			if _, isAny := m.Matcher.(anyMatcher); isAny || !m.Matcher.Match(links[i]) {
				continue
			}
			if out := m.Fallback(err); out != nil {
				return out, m, true
			}
		}
	}
	for _, m := range t.mappings {
		if _, isAny := m.Matcher.(anyMatcher); !isAny {
			continue
		}
		if out := m.Fallback(err); out != nil {
			return out, m, true
		}
	}

	return nil, Mapping{}, false
}

// Origin tells which layer produced a mapped outcome.
type Origin int

const (
	// OriginLocal is a handler-group table.
	OriginLocal Origin = iota + 1

	// OriginGlobal is the mapper's global table.
	OriginGlobal

	// OriginDefault is the built-in fallback.
	OriginDefault
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginGlobal:
		return "global"
	case OriginDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Result is the mapped outcome of an error.
type Result struct {
	Outcome view.Outcome
	Status  int
	Origin  Origin
}

// Option configures a [Mapper].
type Option func(*Mapper)

// WithGlobal sets the global table.
func WithGlobal(t *Table) Option {
	return func(m *Mapper) {
		m.global = t
	}
}

// WithDefaultView replaces the view of the built-in fallback.
func WithDefaultView(name string) Option {
	return func(m *Mapper) {
		m.defaultView = name
	}
}

// WithAttribute sets the model attribute holding the error.
func WithAttribute(name string) Option {
	return func(m *Mapper) {
		m.attribute = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Mapper resolves errors against local, global and default mappings.
// It is safe for concurrent use once its tables are built.
type Mapper struct {
	global      *Table
	defaultView string
	attribute   string
	logger      *slog.Logger
}

// New creates a Mapper.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		global:      NewTable(),
		defaultView: DefaultView,
		attribute:   DefaultAttribute,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.global == nil {
		m.global = NewTable()
	}

	return m
}

// Global returns the global table for registration.
func (m *Mapper) Global() *Table {
	return m.global
}

// Map returns the outcome for err, consulting local first. local may be nil.
func (m *Mapper) Map(local *Table, err error) Result {
	status := mvcerrors.StatusOf(err, http.StatusInternalServerError)

	if out, mapping, ok := local.lookup(err); ok {
		m.logger.Debug("error mapped", "origin", OriginLocal, "matcher", mapping.Matcher.String(), "error", err)
		return Result{Outcome: m.attach(out, err), Status: status, Origin: OriginLocal}
	}
	if out, mapping, ok := m.global.lookup(err); ok {
		m.logger.Debug("error mapped", "origin", OriginGlobal, "matcher", mapping.Matcher.String(), "error", err)
		return Result{Outcome: m.attach(out, err), Status: status, Origin: OriginGlobal}
	}

	m.logger.Debug("error unmapped", "view", m.defaultView, "error", err)

	return m.Fallback(err)
}

// Fallback returns the built-in default result for err, skipping both
// tables.
func (m *Mapper) Fallback(err error) Result {
	return Result{
		Outcome: m.attach(view.ForwardTo(m.defaultView, nil), err),
		Status:  mvcerrors.StatusOf(err, http.StatusInternalServerError),
		Origin:  OriginDefault,
	}
}

// attach puts err into the model of a forward outcome unless the fallback
// already set the attribute.
func (m *Mapper) attach(out view.Outcome, err error) view.Outcome {
	f, ok := out.(view.Forward)
	if !ok {
		return out
	}
	if _, set := f.Model[m.attribute]; set {
		return f
	}

	return f.With(m.attribute, err)
}

// String describes the mapper for logs.
func (m *Mapper) String() string {
	return fmt.Sprintf("exception.Mapper{global: %d, default: %q}", m.global.Len(), m.defaultView)
}
