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

package binding

import (
	"reflect"
)

// Source identifies where a handler argument is read from.
type Source int

const (
	// SourceUnknown is an unspecified source.
	SourceUnknown Source = iota

	// SourceQuery reads one parameter from the merged query and form space.
	SourceQuery

	// SourcePath reads one path variable captured by the router.
	SourcePath

	// SourceBody reads the request body.
	SourceBody

	// SourceHeader reads one header. Names are case-insensitive.
	SourceHeader

	// SourceCookie reads one cookie.
	SourceCookie

	// SourceSession reads one session attribute.
	SourceSession

	// SourceAll collects every query and form parameter into a map.
	SourceAll

	// SourceModel binds a struct from the parameter space.
	SourceModel

	// SourceFile reads one uploaded file of a multipart body.
	SourceFile
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceQuery:
		return "query"
	case SourcePath:
		return "path"
	case SourceBody:
		return "body"
	case SourceHeader:
		return "header"
	case SourceCookie:
		return "cookie"
	case SourceSession:
		return "session"
	case SourceAll:
		return "all"
	case SourceModel:
		return "model"
	case SourceFile:
		return "file"
	default:
		return "unknown"
	}
}

// Spec describes one handler argument.
//
// A Spec with a default is never required: an absent value is replaced by
// the default, converted like any other raw value. An absent optional value
// without a default yields the zero value of Type.
type Spec struct {
	Source     Source
	Name       string
	Required   bool
	Default    string
	HasDefault bool
	Type       reflect.Type
}

// SpecOption adjusts a Spec built by one of the helpers.
type SpecOption func(*Spec)

// Optional marks the argument as not required.
func Optional() SpecOption {
	return func(s *Spec) {
		s.Required = false
	}
}

// Required marks the argument as required.
func Required() SpecOption {
	return func(s *Spec) {
		if !s.HasDefault {
			s.Required = true
		}
	}
}

// Default sets the raw value used when the argument is absent.
func Default(value string) SpecOption {
	return func(s *Spec) {
		s.Default = value
		s.HasDefault = true
		s.Required = false
	}
}

func newSpec[T any](source Source, name string, required bool, opts []SpecOption) Spec {
	s := Spec{
		Source:   source,
		Name:     name,
		Required: required,
		Type:     reflect.TypeFor[T](),
	}
	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// Query describes a required parameter from the merged query and form space.
func Query[T any](name string, opts ...SpecOption) Spec {
	return newSpec[T](SourceQuery, name, true, opts)
}

// Path describes a required path variable.
func Path[T any](name string, opts ...SpecOption) Spec {
	return newSpec[T](SourcePath, name, true, opts)
}

// Header describes a required header.
func Header[T any](name string, opts ...SpecOption) Spec {
	return newSpec[T](SourceHeader, name, true, opts)
}

// Cookie describes a required cookie.
func Cookie[T any](name string, opts ...SpecOption) Spec {
	return newSpec[T](SourceCookie, name, true, opts)
}

// Body describes a required request body decoded into T.
func Body[T any](opts ...SpecOption) Spec {
	return newSpec[T](SourceBody, "body", true, opts)
}

// Session describes an optional session attribute.
func Session[T any](name string, opts ...SpecOption) Spec {
	return newSpec[T](SourceSession, name, false, opts)
}

// Model describes a struct bound from the parameter space. The name is the
// model attribute the value is published under.
func Model[T any](name string, opts ...SpecOption) Spec {
	return newSpec[T](SourceModel, name, false, opts)
}

// File describes a required uploaded file. T is [request.File],
// *[request.File] or []byte for the bare content.
func File[T any](name string, opts ...SpecOption) Spec {
	return newSpec[T](SourceFile, name, true, opts)
}

// All describes a map of every query and form parameter.
func All() Spec {
	return Spec{Source: SourceAll, Name: "all", Type: reflect.TypeFor[map[string]string]()}
}
