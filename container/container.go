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

// Package container is a minimal bean registry: named singletons looked
// up by name or by type.
//
// It covers only what controllers observe of a dependency-injection
// container. There is no scanning and no wiring by reflection; beans are
// registered explicitly, either as instances or as lazy providers:
//
//	c := container.New()
//	c.Register("menuService", NewMenuService())
//	c.Provide("orderService", func(c *container.Container) (any, error) {
//	    menus, err := container.Get[*MenuService](c, "menuService")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewOrderService(menus), nil
//	})
//
//	orders := container.MustByType[*OrderService](c)
package container

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Lookup errors.
var (
	ErrNotFound      = errors.New("container: bean not found")
	ErrAmbiguous     = errors.New("container: more than one bean of type")
	ErrWrongType     = errors.New("container: bean has a different type")
	ErrDuplicateName = errors.New("container: bean name already registered")
)

// Provider builds a bean on first lookup. Providers must not depend on
// each other in a cycle.
type Provider func(c *Container) (any, error)

type bean struct {
	once     sync.Once
	provider Provider
	instance any
	err      error
}

func (b *bean) get(c *Container) (any, error) {
	b.once.Do(func() {
		if b.provider != nil {
			b.instance, b.err = b.provider(c)
		}
	})

	return b.instance, b.err
}

// Container holds named singletons. It is safe for concurrent use.
type Container struct {
	mu    sync.RWMutex
	beans map[string]*bean
	order []string
}

// New returns an empty container.
func New() *Container {
	return &Container{beans: map[string]*bean{}}
}

func (c *Container) add(name string, b *bean) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.beans[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	c.beans[name] = b
	c.order = append(c.order, name)

	return nil
}

// Register adds a ready instance under name.
func (c *Container) Register(name string, instance any) error {
	b := &bean{instance: instance}
	b.once.Do(func() {})

	return c.add(name, b)
}

// Provide adds a lazily built singleton under name.
func (c *Container) Provide(name string, p Provider) error {
	if p == nil {
		return fmt.Errorf("container: nil provider for %q", name)
	}

	return c.add(name, &bean{provider: p})
}

// Has reports whether a bean is registered under name.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.beans[name]

	return ok
}

// Names returns the bean names in registration order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.order)
}

// Lookup returns the bean registered under name, building it if needed.
func (c *Container) Lookup(name string) (any, error) {
	c.mu.RLock()
	b, ok := c.beans[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	v, err := b.get(c)
	if err != nil {
		return nil, fmt.Errorf("container: building %q: %w", name, err)
	}

	return v, nil
}

// Get returns the bean named name as a T.
func Get[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Lookup(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, not %T", ErrWrongType, name, v, zero)
	}

	return t, nil
}

// ByType returns the only bean assignable to T. Every bean is built to
// learn its type.
func ByType[T any](c *Container) (T, error) {
	var (
		zero  T
		found []string
		match T
	)
	for _, name := range c.Names() {
		v, err := c.Lookup(name)
		if err != nil {
			return zero, err
		}
		if t, ok := v.(T); ok {
			found = append(found, name)
			match = t
		}
	}

	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%w: type %T", ErrNotFound, (*T)(nil))
	case 1:
		return match, nil
	default:
		return zero, fmt.Errorf("%w %T: %v", ErrAmbiguous, (*T)(nil), found)
	}
}

// MustByType is like [ByType] but panics on error.
func MustByType[T any](c *Container) T {
	v, err := ByType[T](c)
	if err != nil {
		panic(err)
	}

	return v
}
