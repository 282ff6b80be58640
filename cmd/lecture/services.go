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
package main

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Menu is a menu item, bound from the registration form.
type Menu struct {
	Name      string `param:"name" validate:"required,max=30"`
	Price     int    `param:"price" validate:"gt=0"`
	Category  int    `param:"categoryCode" validate:"gte=0"`
	Orderable bool   `param:"orderableStatus"`
}

// MenuRegistError rejects a menu registration.
type MenuRegistError struct {
	Name   string
	Reason string
}

func (e *MenuRegistError) Error() string {
	return fmt.Sprintf("menu %q rejected: %s", e.Name, e.Reason)
}

// MemberRegistError rejects a member registration.
type MemberRegistError struct {
	Message string
}

func (e *MemberRegistError) Error() string {
	return e.Message
}

var validate = newValidate()

// newValidate reports fields under their form names.
func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("param")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

func rejection(errs validator.ValidationErrors) string {
	reasons := make([]string, len(errs))
	for i, e := range errs {
		reasons[i] = fmt.Sprintf("%s failed %s", e.Field(), e.Tag())
		if e.Param() != "" {
			reasons[i] += "=" + e.Param()
		}
	}

	return strings.Join(reasons, "; ")
}

// MenuService keeps the menu in memory.
type MenuService struct {
	mu    sync.RWMutex
	menus []Menu
}

// NewMenuService returns a service seeded with menus.
func NewMenuService(seed ...Menu) *MenuService {
	return &MenuService{menus: slices.Clone(seed)}
}

// Register adds m. Names are unique, case-insensitively.
func (s *MenuService) Register(m Menu) error {
	m.Name = strings.TrimSpace(m.Name)
	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &MenuRegistError{Name: m.Name, Reason: rejection(verrs)}
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.menus, func(x Menu) bool { return strings.EqualFold(x.Name, m.Name) }) {
		return &MenuRegistError{Name: m.Name, Reason: "already registered"}
	}
	s.menus = append(s.menus, m)

	return nil
}

// List returns the menus sorted by name.
func (s *MenuService) List() []Menu {
	s.mu.RLock()
	out := slices.Clone(s.menus)
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Menu) int { return cmp.Compare(a.Name, b.Name) })

	return out
}

// Order is a placed order.
type Order struct {
	No    int
	Menus []string
	Total int
}

// OrderService resolves orders by number.
type OrderService struct {
	orders map[int]Order
}

// NewOrderService returns a read-only order book.
func NewOrderService(orders ...Order) *OrderService {
	s := &OrderService{orders: make(map[int]Order, len(orders))}
	for _, o := range orders {
		s.orders[o.No] = o
	}

	return s
}

// Find returns the order numbered no.
func (s *OrderService) Find(no int) (Order, bool) {
	o, ok := s.orders[no]
	return o, ok
}
