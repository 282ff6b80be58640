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

package session

import (
	"maps"
	"slices"
)

// Scope is a working copy of one session for the duration of a dispatch.
// Reads see the committed attributes overlaid with local writes. Nothing
// reaches the store until [Scope.Commit].
//
// A Scope is not safe for concurrent use; it belongs to a single dispatch.
type Scope struct {
	store       *Store
	id          string
	base        map[string]any
	sets        map[string]any
	deletes     map[string]struct{}
	invalidated bool
	declared    []string
	completed   bool
	next        string
}

// Open returns a working copy of the session id. An empty id opens a scope
// with no backing session; one is created on commit if anything was set.
func (s *Store) Open(id string) *Scope {
	sc := &Scope{
		store:   s,
		id:      id,
		sets:    map[string]any{},
		deletes: map[string]struct{}{},
	}
	if id != "" {
		sc.base = s.Snapshot(id)
	}

	return sc
}

// ID returns the session id, empty until one exists.
func (sc *Scope) ID() string {
	return sc.id
}

// Get returns an attribute as seen by this dispatch.
func (sc *Scope) Get(key string) (any, bool) {
	if v, ok := sc.sets[key]; ok {
		return v, true
	}
	if _, ok := sc.deletes[key]; ok || sc.invalidated {
		return nil, false
	}
	v, ok := sc.base[key]

	return v, ok
}

// Set records an attribute write.
func (sc *Scope) Set(key string, value any) {
	delete(sc.deletes, key)
	sc.sets[key] = value
}

// Delete records an attribute removal.
func (sc *Scope) Delete(key string) {
	delete(sc.sets, key)
	sc.deletes[key] = struct{}{}
}

// Invalidate drops the session on commit. Writes recorded after the call
// start a fresh session under a new id.
func (sc *Scope) Invalidate() {
	sc.invalidated = true
	clear(sc.sets)
	clear(sc.deletes)
}

// Invalidated reports whether Invalidate was called.
func (sc *Scope) Invalidated() bool {
	return sc.invalidated
}

// Attributes returns the attributes as seen by this dispatch.
func (sc *Scope) Attributes() map[string]any {
	out := map[string]any{}
	if !sc.invalidated {
		maps.Copy(out, sc.base)
	}
	for k := range sc.deletes {
		delete(out, k)
	}
	maps.Copy(out, sc.sets)

	return out
}

// Dirty reports whether the scope holds uncommitted changes.
func (sc *Scope) Dirty() bool {
	return sc.invalidated || len(sc.sets) > 0 || len(sc.deletes) > 0
}

// Declare names the attributes a handler group keeps in the session
// between dispatches.
func (sc *Scope) Declare(names ...string) {
	for _, n := range names {
		if !slices.Contains(sc.declared, n) {
			sc.declared = append(sc.declared, n)
		}
	}
}

// Declared returns the declared attribute names.
func (sc *Scope) Declared() []string {
	return slices.Clone(sc.declared)
}

// Complete marks the conversation held in declared attributes as finished
// and removes them.
func (sc *Scope) Complete() {
	sc.completed = true
	for _, n := range sc.declared {
		sc.Delete(n)
	}
}

// Completed reports whether Complete was called.
func (sc *Scope) Completed() bool {
	return sc.completed
}

// Reserve returns the id the session will have after commit, allocating
// one when the scope has none or was invalidated. Data written to the store
// under a reserved id, such as flash values, survives a commit of a scope
// that holds no attributes.
func (sc *Scope) Reserve() string {
	if sc.id != "" && !sc.invalidated {
		return sc.id
	}
	if sc.next == "" {
		sc.next = sc.store.NewID()
	}

	return sc.next
}

// Commit applies the recorded changes to the store in one step and returns
// the session id. The id is new when the scope had none or was invalidated
// and then either written to or reserved. Committing a clean scope does
// nothing.
func (sc *Scope) Commit() string {
	s := sc.store
	if sc.invalidated && sc.id != "" {
		s.Invalidate(sc.id)
		sc.id = ""
		sc.base = nil
	}
	if sc.id == "" {
		sc.id = sc.next
		if sc.id == "" && len(sc.sets) > 0 {
			sc.id = s.NewID()
		}
	}
	sc.next = ""
	if sc.id == "" || (len(sc.sets) == 0 && len(sc.deletes) == 0) {
		sc.reset()
		return sc.id
	}

	sh := s.shard(sc.id)
	sh.mu.Lock()
	e := s.ensure(sh, sc.id)
	for k := range sc.deletes {
		delete(e.attrs, k)
	}
	maps.Copy(e.attrs, sc.sets)
	sc.base = maps.Clone(e.attrs)
	sh.mu.Unlock()

	sc.reset()

	return sc.id
}

// Discard drops the recorded changes.
func (sc *Scope) Discard() {
	sc.next = ""
	sc.reset()
}

func (sc *Scope) reset() {
	clear(sc.sets)
	clear(sc.deletes)
	sc.invalidated = false
}
