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

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a dispatch failure.
type Kind int

const (
	// KindUnknown is the zero Kind. It never appears on errors built by this module.
	KindUnknown Kind = iota

	// KindNoRouteFound means no registered route matched the path and verb.
	KindNoRouteFound

	// KindDuplicateRoute means a (verb, pattern) pair was registered twice.
	KindDuplicateRoute

	// KindMissingParameter means a required binding source was absent.
	KindMissingParameter

	// KindTypeConversion means a raw value could not be converted to the target type.
	KindTypeConversion

	// KindHandler wraps any error or panic raised by the handler itself.
	KindHandler

	// KindTimeout means the per-dispatch deadline expired or the dispatch was cancelled.
	KindTimeout
)

// kindNames holds the canonical names, also accepted by [ParseKind].
var kindNames = map[Kind]string{
	KindNoRouteFound:     "NoRouteFound",
	KindDuplicateRoute:   "DuplicateRoute",
	KindMissingParameter: "MissingParameter",
	KindTypeConversion:   "TypeConversionError",
	KindHandler:          "HandlerError",
	KindTimeout:          "Timeout",
}

// String returns the canonical name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "Unknown"
}

// Runtime reports whether errors of this kind flow through the exception mapper.
func (k Kind) Runtime() bool {
	switch k {
	case KindMissingParameter, KindTypeConversion, KindHandler, KindTimeout:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the default HTTP status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNoRouteFound:
		return http.StatusNotFound
	case KindMissingParameter, KindTypeConversion:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ParseKind resolves a kind from its canonical name. Matching ignores case.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}

	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Sentinel errors, one per kind. Every [*Error] reports [errors.Is] true
// for the sentinel of its kind.
var (
	ErrNoRouteFound     = errors.New("no route found")
	ErrDuplicateRoute   = errors.New("duplicate route")
	ErrMissingParameter = errors.New("missing parameter")
	ErrTypeConversion   = errors.New("type conversion error")
	ErrHandler          = errors.New("handler error")
	ErrTimeout          = errors.New("dispatch timeout")

	// ErrUnknownKind is returned by ParseKind for unrecognised names.
	ErrUnknownKind = errors.New("unknown error kind")
)

// Sentinel returns the sentinel error for a kind, or nil for KindUnknown.
func (k Kind) Sentinel() error {
	switch k {
	case KindNoRouteFound:
		return ErrNoRouteFound
	case KindDuplicateRoute:
		return ErrDuplicateRoute
	case KindMissingParameter:
		return ErrMissingParameter
	case KindTypeConversion:
		return ErrTypeConversion
	case KindHandler:
		return ErrHandler
	case KindTimeout:
		return ErrTimeout
	default:
		return nil
	}
}

// Error is the carrier for every classified failure of the dispatch core.
//
// Use [errors.As] to inspect it:
//
//	var e *errors.Error
//	if errors.As(err, &e) {
//	    fmt.Println(e.Kind, e.Op)
//	}
type Error struct {
	Kind   Kind   // Classification
	Op     string // Operation that failed, e.g. "resolve", "bind", "invoke"
	Detail string // Human-readable context, optional
	Err    error  // Underlying cause, optional

	// Allowed lists the verbs registered for a path when a NoRouteFound
	// error was caused by a verb mismatch.
	Allowed []string
}

// New builds an *Error of the given kind.
func New(kind Kind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// Wrap builds an *Error of the given kind around cause.
// An existing *Error of the same kind is returned unchanged.
func Wrap(kind Kind, op string, cause error) *Error {
	var existing *Error
	if errors.As(cause, &existing) && existing.Kind == kind {
		return existing
	}

	return &Error{Kind: kind, Op: op, Err: cause}
}

// Error returns a formatted message.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if s := e.Kind.Sentinel(); s != nil {
		b.WriteString(s.Error())
	} else {
		b.WriteString("unclassified error")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// HTTPStatus implements [ErrorType]. A verb mismatch reports 405.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindNoRouteFound && len(e.Allowed) > 0 {
		return http.StatusMethodNotAllowed
	}

	return e.Kind.HTTPStatus()
}

// Code implements [ErrorCode].
func (e *Error) Code() string {
	return codeFor(e.Kind)
}

// Details implements [ErrorDetails].
func (e *Error) Details() any {
	if len(e.Allowed) == 0 {
		return nil
	}

	return map[string]any{"allowed": e.Allowed}
}

// KindOf returns the kind of the outermost *Error in err's chain,
// or KindUnknown when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

func codeFor(k Kind) string {
	switch k {
	case KindNoRouteFound:
		return "no_route_found"
	case KindDuplicateRoute:
		return "duplicate_route"
	case KindMissingParameter:
		return "missing_parameter"
	case KindTypeConversion:
		return "type_conversion"
	case KindHandler:
		return "handler_error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
