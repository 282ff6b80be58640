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

// Package errors defines the error kinds raised by the dispatch core and
// formats routing errors for HTTP responses.
//
// Every failure produced by the router, the binder and the dispatcher
// carries one of six kinds:
//
//   - [KindNoRouteFound] and [KindDuplicateRoute] are configuration-time or
//     routing errors. They are returned to the caller of Register/Resolve
//     and never reach an exception mapper.
//   - [KindMissingParameter], [KindTypeConversion], [KindHandler] and
//     [KindTimeout] are runtime dispatch errors. The dispatcher always
//     hands them to the exception mapper.
//
// Kinds are matched with the standard library:
//
//	if errors.Is(err, errors.ErrMissingParameter) {
//	    // ...
//	}
//
//	var e *errors.Error
//	if errors.As(err, &e) && e.Kind == errors.KindTimeout {
//	    // ...
//	}
//
// # Formatting
//
// The [RFC9457] formatter turns an error into an RFC 9457 Problem Details
// response. Errors may implement [ErrorType], [ErrorCode] and
// [ErrorDetails] to control the status, the problem type and the
// extension members. [*Error] implements all three.
package errors
