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

// Package binding turns the raw data of a [request.Request] into the typed
// arguments of a handler.
//
// Each handler argument is described by a [Spec]: where the value comes
// from, under which name, whether it is required, an optional default and
// the Go type to produce. Specs are built with the generic helpers:
//
//	specs := []binding.Spec{
//	    binding.Path[int]("orderNo"),
//	    binding.Query[string]("name", binding.Default("XXX")),
//	    binding.Cookie[string]("SESSIONID", binding.Optional()),
//	    binding.Model[MenuDTO]("menu"),
//	}
//
//	args, err := binder.Bind(req, specs, scope)
//
// Specs are independent. A required value that is absent fails with a
// [*Error] matching [errors.ErrMissingParameter] before the handler runs,
// even when another spec also fails to convert. A value that cannot be
// converted fails with one matching [errors.ErrTypeConversion].
//
// # Parameter space
//
// Query parameters and form parameters from the body, urlencoded or
// multipart, share one parameter space. When a key appears in both, the
// form value wins.
//
// # Files
//
// A [SourceFile] spec binds an uploaded file of a multipart body as a
// [request.File], a *[request.File] or its bare []byte content. Struct
// fields of type [request.File] bound through [SourceModel] are filled
// from the upload of the same name.
//
// # Bodies
//
// A [SourceBody] spec with a string or []byte target receives the raw body.
// Other targets are decoded by content type: JSON, XML, YAML, TOML,
// MessagePack and Protocol Buffers are registered by default, and
// [WithDecoder] adds more. Urlencoded form bodies bind structs the same way
// [SourceModel] does.
//
// # Converters
//
// [WithConverter] registers a conversion for a target type. Converters run
// before the built-in rules, so they can accept input the defaults reject:
//
//	binder := binding.MustNew(
//	    binding.WithConverter(func(s string) (int, error) {
//	        if s == "" {
//	            return 0, nil
//	        }
//	        return strconv.Atoi(s)
//	    }),
//	)
package binding
