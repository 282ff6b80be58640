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

// Package logging builds the structured loggers used across the module.
//
// It wraps [log/slog] with three output formats (JSON, key=value text and a
// coloured console format for development), fixed service attributes and
// redaction of credential-like keys:
//
//	logger := logging.MustNew(
//	    logging.WithConsoleHandler(),
//	    logging.WithServiceName("lecture"),
//	    logging.WithDebugLevel(),
//	)
//	d := dispatch.MustNew(dispatch.WithLogger(logger.Logger()))
//
// Every component of the module accepts a plain *slog.Logger and falls back
// to a discard logger, so this package is optional.
//
// [WithTrace] adds the trace and span ids of the active span in a context,
// correlating log lines with the spans of the tracing package.
package logging
