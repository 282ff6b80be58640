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
	"errors"
	"fmt"
	"net/http"
	"reflect"

	mvcerrors "rivaas.dev/mvc/errors"
)

// Static errors for binding operations.
var (
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrUnsupportedType        = errors.New("unsupported type")
	ErrInvalidBooleanValue    = errors.New("invalid boolean value")
	ErrInvalidSpec            = errors.New("invalid binding spec")
	ErrNotProtoMessage        = errors.New("target does not implement proto.Message")
)

// Error describes a failed binding with field-level context.
// It reports [errors.Is] true for [mvcerrors.ErrMissingParameter] or
// [mvcerrors.ErrTypeConversion], depending on its kind.
//
//	var bindErr *binding.Error
//	if errors.As(err, &bindErr) {
//	    fmt.Printf("field %s from %s\n", bindErr.Field, bindErr.Source)
//	}
type Error struct {
	Field   string       // Parameter name
	Source  Source       // Where the value was looked up
	Value   string       // The raw value that failed conversion
	Type    reflect.Type // Target type
	Missing bool         // True when the value was absent
	Err     error        // Underlying cause, optional
}

func missing(spec Spec) *Error {
	return &Error{Field: spec.Name, Source: spec.Source, Type: spec.Type, Missing: true}
}

func conversion(spec Spec, value string, cause error) *Error {
	return &Error{Field: spec.Name, Source: spec.Source, Value: value, Type: spec.Type, Err: cause}
}

// Error returns a formatted message.
func (e *Error) Error() string {
	if e.Missing {
		return fmt.Sprintf("binding %q (%s): required value is missing", e.Field, e.Source)
	}

	typeName := "unknown"
	if e.Type != nil {
		typeName = e.Type.String()
	}
	msg := fmt.Sprintf("binding %q (%s): cannot convert %q to %s", e.Field, e.Source, e.Value, typeName)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Kind returns the dispatch error kind of the failure.
func (e *Error) Kind() mvcerrors.Kind {
	if e.Missing {
		return mvcerrors.KindMissingParameter
	}

	return mvcerrors.KindTypeConversion
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind().Sentinel()
}

// HTTPStatus implements [mvcerrors.ErrorType].
func (e *Error) HTTPStatus() int {
	return http.StatusBadRequest
}
