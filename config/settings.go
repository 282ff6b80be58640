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

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	mvcerrors "rivaas.dev/mvc/errors"
	"rivaas.dev/mvc/logging"
)

// EnvPrefix is the prefix of environment overrides read by [LoadSettings].
const EnvPrefix = "MVC_"

//go:embed schema.json
var settingsSchema []byte

// Settings configures an MVC application.
type Settings struct {
	Dispatch DispatchSettings `config:"dispatch"`
	View     ViewSettings     `config:"view"`
	Session  SessionSettings  `config:"session"`
	Server   ServerSettings   `config:"server"`
	Logging  LoggingSettings  `config:"logging"`
	Metrics  MetricsSettings  `config:"metrics"`
	Tracing  TracingSettings  `config:"tracing"`

	// Exceptions maps error kind names to view names, e.g.
	// handlererror: error/default.
	Exceptions map[string]string `config:"exceptions"`
}

// DispatchSettings configures the dispatcher.
type DispatchSettings struct {
	// Deadline bounds each dispatch. Zero disables it.
	Deadline time.Duration `config:"deadline"`
}

// ViewSettings configures view resolution and rendering.
type ViewSettings struct {
	Prefix   string `config:"prefix" default:"templates/"`
	Suffix   string `config:"suffix" default:".html"`
	Redirect int    `config:"redirect" default:"302"`
	Fallback string `config:"fallback" default:"error/unhandled"`
}

// SessionSettings configures the session store and cookie.
type SessionSettings struct {
	Cookie string        `config:"cookie" default:"SESSIONID"`
	Idle   time.Duration `config:"idle" default:"30m"`
	Sweep  time.Duration `config:"sweep" default:"1m"`
}

// ServerSettings configures the HTTP server.
type ServerSettings struct {
	Addr       string        `config:"addr" default:":8080"`
	BodyLimit  int64         `config:"bodylimit" default:"1048576"`
	Compress   bool          `config:"compress"`
	H2C        bool          `config:"h2c"`
	RateLimit  float64       `config:"ratelimit"` // Requests per second per client; zero disables
	Burst      int           `config:"burst" default:"20"`
	Shutdown   time.Duration `config:"shutdown" default:"10s"`
	ReadHeader time.Duration `config:"readheader" default:"5s"`
	Templates  string        `config:"templates"`
	Uploads    string        `config:"uploads"` // Directory for stored uploads; empty uses a temp directory
}

// LoggingSettings configures the logger.
type LoggingSettings struct {
	Level  string `config:"level" default:"info"`
	Format string `config:"format" default:"json"`
}

// MetricsSettings configures the metrics recorder. An empty provider
// disables metrics.
type MetricsSettings struct {
	Provider string `config:"provider"`
	Endpoint string `config:"endpoint"`
	Path     string `config:"path" default:"/metrics"`
}

// TracingSettings configures the tracer. A zero sample rate is read as 1.
type TracingSettings struct {
	Provider string  `config:"provider" default:"noop"`
	Endpoint string  `config:"endpoint"`
	Sample   float64 `config:"sample" default:"1"`
}

// Validate implements [Validator].
func (s *Settings) Validate() error {
	var errs []error
	if s.Dispatch.Deadline < 0 {
		errs = append(errs, fmt.Errorf("dispatch.deadline must not be negative, got %s", s.Dispatch.Deadline))
	}
	switch s.View.Redirect {
	case 301, 302, 303, 307, 308:
	default:
		errs = append(errs, fmt.Errorf("view.redirect must be a redirect status, got %d", s.View.Redirect))
	}
	if s.Session.Idle <= 0 {
		errs = append(errs, fmt.Errorf("session.idle must be positive, got %s", s.Session.Idle))
	}
	if s.Server.RateLimit < 0 || s.Server.Burst <= 0 {
		errs = append(errs, fmt.Errorf("server.ratelimit must not be negative and server.burst must be positive, got %v and %d", s.Server.RateLimit, s.Server.Burst))
	}
	if s.Server.BodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("server.bodylimit must be positive, got %d", s.Server.BodyLimit))
	}
	if _, err := logging.ParseLevel(s.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseHandlerType(s.Logging.Format); err != nil {
		errs = append(errs, err)
	}
	if s.Tracing.Sample < 0 || s.Tracing.Sample > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample must be between 0 and 1, got %v", s.Tracing.Sample))
	}
	for name := range s.Exceptions {
		kind, err := mvcerrors.ParseKind(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("exceptions: %w", err))
			continue
		}
		if !kind.Runtime() {
			errs = append(errs, fmt.Errorf("exceptions: %s never reaches the exception mapper", kind))
		}
	}

	return errors.Join(errs...)
}

// LoadSettings reads the given files in order, then the MVC_ environment,
// validates the result against the settings schema and binds it.
func LoadSettings(ctx context.Context, files ...string) (*Settings, error) {
	opts := make([]Option, 0, len(files)+3)
	for _, f := range files {
		opts = append(opts, WithFile(f))
	}

	return loadSettings(ctx, append(opts, WithEnv(EnvPrefix))...)
}

func loadSettings(ctx context.Context, opts ...Option) (*Settings, error) {
	s := &Settings{}
	cfg, err := New(append(opts, WithJSONSchema(settingsSchema), WithBinding(s))...)
	if err != nil {
		return nil, err
	}
	if err = cfg.Load(ctx); err != nil {
		return nil, err
	}

	return s, nil
}
