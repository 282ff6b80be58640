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

package dispatch

import (
	"errors"
	"fmt"

	mvcerrors "rivaas.dev/mvc/errors"
)

var (
	// ErrFrozen is returned when configuring a dispatcher that has
	// started dispatching.
	ErrFrozen = errors.New("dispatcher is frozen")

	// ErrNilHandler is returned by Handle for a nil handler.
	ErrNilHandler = errors.New("handler is nil")

	// ErrNilInterceptor is returned by Use for a nil interceptor.
	ErrNilInterceptor = errors.New("interceptor is nil")

	// ErrNoPatterns is returned by Handle without patterns.
	ErrNoPatterns = errors.New("no route patterns")
)

// PanicError carries a value recovered from a panicking handler or
// interceptor.
type PanicError struct {
	Value any
	Stack []byte
}

// Error returns a formatted message.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}

// FailureError describes where a dispatch failed. It is set as
// [view.Directive.Failure] of mapped directives.
type FailureError struct {
	Stage Stage
	Kind  mvcerrors.Kind
	Err   error
}

// Error returns a formatted message.
func (e *FailureError) Error() string {
	return fmt.Sprintf("dispatch failed at %s (%s): %v", e.Stage, e.Kind, e.Err)
}

// Unwrap returns the classified error.
func (e *FailureError) Unwrap() error {
	return e.Err
}

// KindOf classifies err. It understands *errors.Error as well as errors
// exposing a Kind method, such as binding errors, and reports
// KindHandler for anything else.
func KindOf(err error) mvcerrors.Kind {
	if k := mvcerrors.KindOf(err); k != mvcerrors.KindUnknown {
		return k
	}
	var kinded interface{ Kind() mvcerrors.Kind }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}

	return mvcerrors.KindHandler
}
