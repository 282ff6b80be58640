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

// Package exception maps runtime dispatch errors to fallback outcomes.
//
// Mappings live in ordered [Table]s. A handler group may carry its own
// table; the [Mapper] holds the global one. For a failed dispatch the
// mapper consults, in order:
//
//  1. the group table,
//  2. the global table,
//  3. the built-in default, a forward to "error/unhandled".
//
// Within one table the most specific mapping wins. The error chain is
// walked from its innermost cause outwards; for each link the first
// mapping whose matcher accepts that link is used. Mappings built with
// [Any] are only tried once no link matched.
//
//	global := exception.NewTable().
//	    On(exception.KindOf(errors.KindHandler), "error/default").
//	    On(exception.TypeOf[*strconv.NumError](), "error/number")
//	mapper := exception.New(exception.WithGlobal(global))
//
// Forward outcomes produced by a mapping carry the error in their model
// under the "exception" attribute.
package exception
