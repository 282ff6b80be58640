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
	"fmt"
	"path"
	"slices"
	"strings"
)

// segment is one compiled element of a route pattern.
type segment struct {
	literal string // Literal text; empty for variables
	name    string // Variable name; empty for literals
}

func (s segment) isVar() bool {
	return s.name != ""
}

// Route is a registered binding of verbs and a pattern to a handler.
// Routes are immutable after registration.
type Route struct {
	verbs   []string // Sorted, upper-case; empty = any verb
	pattern string   // Normalized pattern, group prefix included
	handler any
	name    string

	segments []segment
	vars     []string // Variable names in pattern order
}

// Pattern returns the normalized pattern, including any group prefix.
func (r *Route) Pattern() string {
	return r.pattern
}

// Verbs returns the verbs the route accepts. An empty result means any verb.
func (r *Route) Verbs() []string {
	return slices.Clone(r.verbs)
}

// AnyVerb reports whether the route accepts every verb.
func (r *Route) AnyVerb() bool {
	return len(r.verbs) == 0
}

// Accepts reports whether the route accepts verb.
func (r *Route) Accepts(verb string) bool {
	return r.AnyVerb() || slices.Contains(r.verbs, strings.ToUpper(verb))
}

// Handler returns the handler reference supplied at registration.
func (r *Route) Handler() any {
	return r.handler
}

// Name returns the route name, if one was set.
func (r *Route) Name() string {
	return r.name
}

// Vars returns the variable names of the pattern in order.
func (r *Route) Vars() []string {
	return slices.Clone(r.vars)
}

// String returns "VERBS pattern", e.g. "GET,POST /menu/regist" or "* /main".
func (r *Route) String() string {
	verbs := "*"
	if !r.AnyVerb() {
		verbs = strings.Join(r.verbs, ",")
	}

	return verbs + " " + r.pattern
}

// extract captures the variables of r from the split path segments.
// The caller guarantees that the pattern matched.
func (r *Route) extract(parts []string) map[string]string {
	vars := make(map[string]string, len(r.vars))
	for i, seg := range r.segments {
		if seg.isVar() {
			vars[seg.name] = parts[i]
		}
	}

	return vars
}

// compilePattern normalizes a pattern and splits it into segments.
// It rejects empty variable names, duplicate variable names and segments
// mixing literal text with a variable.
func compilePattern(pattern string) (string, []segment, []string, error) {
	normalized := cleanPath(pattern)
	parts := splitPath(normalized)

	segments := make([]segment, 0, len(parts))
	vars := make([]string, 0, len(parts)/2)
	for _, part := range parts {
		open := strings.IndexByte(part, '{')
		closing := strings.IndexByte(part, '}')

		switch {
		case open < 0 && closing < 0:
			if part == "" {
				return "", nil, nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPattern, pattern)
			}
			segments = append(segments, segment{literal: part})

		case open == 0 && closing == len(part)-1:
			name := strings.TrimSpace(part[1:closing])
			if name == "" {
				return "", nil, nil, fmt.Errorf("%w: %q has an unnamed variable", ErrInvalidPattern, pattern)
			}
			if slices.Contains(vars, name) {
				return "", nil, nil, fmt.Errorf("%w: %q repeats variable %q", ErrInvalidPattern, pattern, name)
			}
			vars = append(vars, name)
			segments = append(segments, segment{name: name})

		default:
			return "", nil, nil, fmt.Errorf("%w: segment %q of %q must be a literal or a whole {variable}",
				ErrInvalidPattern, part, pattern)
		}
	}

	return normalized, segments, vars, nil
}

// shapeKey erases variable names so that /a/{x} and /a/{y} compare equal.
func shapeKey(segments []segment) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		if seg.isVar() {
			b.WriteString("{}")
		} else {
			b.WriteString(seg.literal)
		}
	}

	return b.String()
}

// cleanPath returns the canonical form of p: rooted, no trailing slash
// except for the root, no dot segments.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}

	return path.Clean(p)
}

// splitPath splits a cleaned path into segments. The root has none.
func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "/")
}

// joinPath concatenates a group prefix and a route path.
func joinPath(prefix, p string) string {
	switch {
	case p == "" || p == "/":
		return cleanPath(prefix)
	case prefix == "" || prefix == "/":
		return cleanPath(p)
	default:
		return cleanPath(strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(p, "/"))
	}
}

// normalizeVerbs upper-cases, de-duplicates and sorts verbs.
func normalizeVerbs(verbs []string) []string {
	out := make([]string, 0, len(verbs))
	for _, v := range verbs {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" || v == "*" {
			continue
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)

	return out
}
