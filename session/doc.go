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

// Package session provides the in-memory session and flash store used by
// the dispatcher.
//
// A [Store] holds, per opaque session id, a set of attributes and a flash
// scope. Flash values written during one dispatch are visible to the next
// dispatch that carries the same id and are then discarded, read or not.
//
// The store is sharded by id and every id has its own dispatch lock, so
// dispatches for different sessions never wait on each other:
//
//	release, err := store.Acquire(ctx, id)
//	if err != nil {
//	    return err // ctx cancelled while waiting
//	}
//	defer release()
//
//	scope := store.Open(id)
//	scope.Set("visits", n+1)
//	scope.Commit()
//
// A [Scope] is a working copy. Writes stay local until [Scope.Commit]
// applies them in one step, so a failed dispatch discards them by simply
// not committing.
package session
