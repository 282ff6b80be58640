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

// Package config loads the settings of an MVC application.
//
// Sources are merged in order, later sources overriding earlier ones.
// Keys are case-insensitive. Files are decoded by extension (YAML, TOML or
// JSON) and environment variables are read under a prefix, each underscore
// opening a nesting level:
//
//	cfg := config.MustNew(
//	    config.WithFile("mvc.yaml"),
//	    config.WithEnv("MVC_"), // MVC_DISPATCH_DEADLINE -> dispatch.deadline
//	)
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	deadline := config.GetOr(cfg, "dispatch.deadline", 5*time.Second)
//
// Merged values can be checked against a JSON Schema and bound to a struct
// tagged with `config:"..."`. Zero fields with a `default:"..."` tag receive
// their default after binding, and a bound struct implementing [Validator]
// is validated before Load commits.
//
// [LoadSettings] does all of this for [Settings], the structure consumed by
// the dispatcher, the session store and the web adapter.
package config
