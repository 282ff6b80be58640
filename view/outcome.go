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

package view

import (
	"maps"
	"strings"
)

// RedirectPrefix marks a view name as a redirect target.
const RedirectPrefix = "redirect:"

// Outcome is the result of a handler. The set of outcomes is closed:
// [Forward], [Redirect] and [RedirectWithFlash].
type Outcome interface {
	outcome()
}

// Forward renders View with Model.
type Forward struct {
	View  string
	Model map[string]any
}

// Redirect sends the client to Path.
type Redirect struct {
	Path string
}

// RedirectWithFlash sends the client to Path and makes Flash visible to
// its next request.
type RedirectWithFlash struct {
	Path  string
	Flash map[string]any
}

func (Forward) outcome()           {}
func (Redirect) outcome()          {}
func (RedirectWithFlash) outcome() {}

// Name parses a view name. Names starting with "redirect:" become a
// [Redirect]; anything else forwards to the named view with an empty model.
func Name(name string) Outcome {
	if path, ok := strings.CutPrefix(name, RedirectPrefix); ok {
		return Redirect{Path: path}
	}

	return Forward{View: name, Model: map[string]any{}}
}

// ForwardTo forwards to view with a copy of model.
func ForwardTo(view string, model map[string]any) Forward {
	m := maps.Clone(model)
	if m == nil {
		m = map[string]any{}
	}

	return Forward{View: view, Model: m}
}

// With returns a copy of f with one more model attribute.
func (f Forward) With(key string, value any) Forward {
	out := ForwardTo(f.View, f.Model)
	out.Model[key] = value

	return out
}

// WithFlash turns a redirect into a flash redirect carrying one value.
func (r Redirect) WithFlash(key string, value any) RedirectWithFlash {
	return RedirectWithFlash{Path: r.Path, Flash: map[string]any{key: value}}
}

// With returns a copy of r with one more flash value.
func (r RedirectWithFlash) With(key string, value any) RedirectWithFlash {
	flash := maps.Clone(r.Flash)
	if flash == nil {
		flash = map[string]any{}
	}
	flash[key] = value

	return RedirectWithFlash{Path: r.Path, Flash: flash}
}
