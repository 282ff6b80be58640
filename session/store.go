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
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const shardCount = 32

// Option configures a [Store].
type Option func(*Store)

// WithIdleTimeout expires sessions not touched for d. Zero disables expiry.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.idle = d
	}
}

// WithLogger sets the logger used by the janitor.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

type entry struct {
	attrs   map[string]any
	flash   map[string]any
	touched time.Time
}

type idLock struct {
	ch   chan struct{}
	refs int
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*entry
	locks    map[string]*idLock
}

// Store is a sharded in-memory session and flash store.
// It is safe for concurrent use.
type Store struct {
	shards [shardCount]*shard
	idle   time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i := range s.shards {
		s.shards[i] = &shard{
			sessions: map[string]*entry{},
			locks:    map[string]*idLock{},
		}
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewID returns a fresh random session id.
func (s *Store) NewID() string {
	return uuid.NewString()
}

func (s *Store) shard(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))

	return s.shards[h.Sum32()%shardCount]
}

// live returns the entry for id, dropping it when it has expired.
// The shard lock must be held.
func (s *Store) live(sh *shard, id string) *entry {
	e, ok := sh.sessions[id]
	if !ok {
		return nil
	}
	if s.expired(e) {
		delete(sh.sessions, id)
		return nil
	}
	e.touched = s.now()

	return e
}

func (s *Store) expired(e *entry) bool {
	return s.idle > 0 && s.now().Sub(e.touched) > s.idle
}

// ensure returns the entry for id, creating it when absent.
// The shard lock must be held.
func (s *Store) ensure(sh *shard, id string) *entry {
	if e := s.live(sh, id); e != nil {
		return e
	}
	e := &entry{attrs: map[string]any{}, flash: map[string]any{}, touched: s.now()}
	sh.sessions[id] = e

	return e
}

// Exists reports whether a live session exists for id.
func (s *Store) Exists(id string) bool {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	return s.live(sh, id) != nil
}

// Get returns a session attribute.
func (s *Store) Get(id, key string) (any, bool) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.live(sh, id)
	if e == nil {
		return nil, false
	}
	v, ok := e.attrs[key]

	return v, ok
}

// Set stores a session attribute, creating the session if needed.
func (s *Store) Set(id, key string, value any) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s.ensure(sh, id).attrs[key] = value
}

// Delete removes a session attribute.
func (s *Store) Delete(id, key string) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e := s.live(sh, id); e != nil {
		delete(e.attrs, key)
	}
}

// Invalidate drops the session with its attributes and flash scope.
func (s *Store) Invalidate(id string) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.sessions, id)
}

// Snapshot returns a copy of the session attributes, or nil when there is
// no live session.
func (s *Store) Snapshot(id string) map[string]any {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.live(sh, id)
	if e == nil {
		return nil
	}

	return maps.Clone(e.attrs)
}

// SetFlash stores a flash value for the next dispatch of id.
func (s *Store) SetFlash(id, key string, value any) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s.ensure(sh, id).flash[key] = value
}

// PutFlash stores several flash values in one step.
func (s *Store) PutFlash(id string, values map[string]any) {
	if len(values) == 0 {
		return
	}
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	maps.Copy(s.ensure(sh, id).flash, values)
}

// TakeFlash returns the flash scope of id and clears it. The result is
// never nil.
func (s *Store) TakeFlash(id string) map[string]any {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.live(sh, id)
	if e == nil || len(e.flash) == 0 {
		return map[string]any{}
	}
	out := e.flash
	e.flash = map[string]any{}

	return out
}

// Len returns the number of sessions held, expired ones included until
// they are swept.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}

	return n
}

// Acquire takes the dispatch lock of id, waiting until it is free or ctx
// is done. Locks of different ids are independent. The returned release
// function is idempotent.
func (s *Store) Acquire(ctx context.Context, id string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("session: acquire: %w", err)
	}

	sh := s.shard(id)
	sh.mu.Lock()
	l := sh.locks[id]
	if l == nil {
		l = &idLock{ch: make(chan struct{}, 1)}
		sh.locks[id] = l
	}
	l.refs++
	sh.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				s.unref(sh, id, l)
			})
		}, nil
	case <-ctx.Done():
		s.unref(sh, id, l)
		return nil, fmt.Errorf("session: acquire: %w", ctx.Err())
	}
}

func (s *Store) unref(sh *shard, id string, l *idLock) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(sh.locks, id)
	}
}

// Sweep removes expired sessions that no dispatch holds and returns how
// many were removed.
func (s *Store) Sweep() int {
	if s.idle <= 0 {
		return 0
	}

	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.sessions {
			if _, busy := sh.locks[id]; busy {
				continue
			}
			if s.expired(e) {
				delete(sh.sessions, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}

	return removed
}

// StartJanitor sweeps expired sessions every interval until ctx is done.
// Intervals under a second are rounded up to one second.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.idle <= 0 {
		return
	}

	c := cron.New()
	c.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Debug("expired sessions removed", "count", n, "remaining", s.Len())
		}
	}))
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
}
