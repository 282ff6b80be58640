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

import "errors"

var (
	// ErrInvalidPattern indicates that a route pattern is malformed.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrRegistryFrozen indicates that a route was registered after Freeze.
	ErrRegistryFrozen = errors.New("route registry is frozen")

	// ErrNilHandler indicates that a route was registered without a handler.
	ErrNilHandler = errors.New("route handler is nil")
)
