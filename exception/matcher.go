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
	"reflect"

	mvcerrors "rivaas.dev/mvc/errors"
)

// Matcher decides whether a mapping applies to one link of an error chain.
type Matcher interface {
	Match(link error) bool
	String() string
}

type sentinelMatcher struct{ target error }

// Sentinel matches a link that is target or reports Is(target).
func Sentinel(target error) Matcher {
	return sentinelMatcher{target: target}
}

func (m sentinelMatcher) Match(link error) bool {
	if link == m.target {
		return true
	}
	if x, ok := link.(interface{ Is(error) bool }); ok {
		return x.Is(m.target)
	}

	return false
}

func (m sentinelMatcher) String() string {
	return fmt.Sprintf("sentinel(%v)", m.target)
}

type typeMatcher[T error] struct{}

// TypeOf matches a link of the concrete type T.
func TypeOf[T error]() Matcher {
	return typeMatcher[T]{}
}

func (typeMatcher[T]) Match(link error) bool {
	_, ok := link.(T)
	return ok
}

func (typeMatcher[T]) String() string {
	return "type(" + reflect.TypeFor[T]().String() + ")"
}

type typeNameMatcher struct{ name string }

// TypeName matches a link whose dynamic type prints as name, for example
// "*strconv.NumError".
func TypeName(name string) Matcher {
	return typeNameMatcher{name: name}
}

func (m typeNameMatcher) Match(link error) bool {
	return fmt.Sprintf("%T", link) == m.name
}

func (m typeNameMatcher) String() string {
	return "type(" + m.name + ")"
}

type kindMatcher struct{ kind mvcerrors.Kind }

// KindOf matches a link classified with kind.
func KindOf(kind mvcerrors.Kind) Matcher {
	return kindMatcher{kind: kind}
}

func (m kindMatcher) Match(link error) bool {
	if e, ok := link.(*mvcerrors.Error); ok {
		return e.Kind == m.kind
	}
	if k, ok := link.(interface{ Kind() mvcerrors.Kind }); ok {
		return k.Kind() == m.kind
	}

	return false
}

func (m kindMatcher) String() string {
	return "kind(" + m.kind.String() + ")"
}

type anyMatcher struct{}

// Any matches every error. It is the least specific matcher.
func Any() Matcher {
	return anyMatcher{}
}

func (anyMatcher) Match(error) bool { return true }

func (anyMatcher) String() string { return "any" }

// chain returns the links of err, outermost first. Joined errors are
// expanded depth first.
func chain(err error) []error {
	var links []error
	var walk func(error)
	walk = func(e error) {
		for e != nil {
			links = append(links, e)
			switch x := e.(type) {
			case interface{ Unwrap() []error }:
				for _, inner := range x.Unwrap() {
					walk(inner)
				}
				return
			case interface{ Unwrap() error }:
				e = x.Unwrap()
			default:
				return
			}
		}
	}
	walk(err)

	return links
}
