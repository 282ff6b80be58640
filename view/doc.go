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

// Package view defines handler outcomes and resolves them into response
// directives.
//
// A handler returns one of three outcomes:
//
//	view.Forward{View: "order/detail", Model: model}
//	view.Redirect{Path: "/menu/list"}
//	view.RedirectWithFlash{Path: "/", Flash: map[string]any{"message": "saved"}}
//
// or a view name, parsed by [Name] the way a template-based framework would:
//
//	return view.Name("redirect:/"), nil
//
// The [Resolver] turns an outcome into a [Directive] the transport can
// emit. Forward keeps its model and renders with status 200. Redirects
// never carry a model. A flash redirect writes its flash values to the
// session store before the directive is returned.
package view
