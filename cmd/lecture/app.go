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
package main

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"rivaas.dev/mvc/config"
	"rivaas.dev/mvc/container"
	"rivaas.dev/mvc/dispatch"
	"rivaas.dev/mvc/exception"
	"rivaas.dev/mvc/logging"
	"rivaas.dev/mvc/metrics"
	"rivaas.dev/mvc/session"
	"rivaas.dev/mvc/tracing"
	"rivaas.dev/mvc/web"
)

const serviceName = "lecture"

//go:embed templates
var templates embed.FS

// application is the wired lecture server.
type application struct {
	settings   *config.Settings
	logger     *slog.Logger
	recorder   *metrics.Recorder
	tracer     *tracing.Tracer
	store      *session.Store
	dispatcher *dispatch.Dispatcher
	handler    http.Handler
}

// newApplication builds every component from s. Logs go to out.
func newApplication(s *config.Settings, out io.Writer) (*application, error) {
	a := &application{settings: s}

	if err := a.initLogger(out); err != nil {
		return nil, err
	}
	if err := a.initObservability(); err != nil {
		return nil, err
	}

	a.store = session.New(
		session.WithIdleTimeout(s.Session.Idle),
		session.WithLogger(a.logger),
	)

	beans := container.New()
	uploads := s.Server.Uploads
	if uploads == "" {
		uploads = filepath.Join(os.TempDir(), serviceName+"-uploads")
	}
	if err := provideServices(beans, uploads); err != nil {
		return nil, fmt.Errorf("lecture: services: %w", err)
	}

	d, err := dispatch.New(
		dispatch.WithStore(a.store),
		dispatch.WithMapper(exception.New(
			exception.WithDefaultView(s.View.Fallback),
			exception.WithLogger(a.logger),
		)),
		dispatch.WithExceptionMappings(s.Exceptions),
		dispatch.WithRedirectStatus(s.View.Redirect),
		dispatch.WithDeadline(s.Dispatch.Deadline),
		dispatch.WithLogger(a.logger),
		dispatch.WithMetrics(a.recorder),
		dispatch.WithTracer(a.tracer),
		dispatch.WithContainer(beans),
	)
	if err != nil {
		return nil, err
	}
	if err = registerRoutes(d, a.logger); err != nil {
		return nil, fmt.Errorf("lecture: routes: %w", err)
	}
	d.Freeze()
	a.dispatcher = d

	if err = a.initHandler(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *application) initLogger(out io.Writer) error {
	level, err := logging.ParseLevel(a.settings.Logging.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseHandlerType(a.settings.Logging.Format)
	if err != nil {
		return err
	}

	l, err := logging.New(
		logging.WithHandlerType(format),
		logging.WithLevel(level),
		logging.WithOutput(out),
		logging.WithServiceName(serviceName),
	)
	if err != nil {
		return fmt.Errorf("lecture: logging: %w", err)
	}
	a.logger = l.Logger()

	return nil
}

func (a *application) initObservability() error {
	m := a.settings.Metrics
	if m.Provider != "" {
		opts := []metrics.Option{metrics.WithServiceName(serviceName), metrics.WithLogger(a.logger)}
		switch metrics.Provider(m.Provider) {
		case metrics.OTLPProvider:
			opts = append(opts, metrics.WithOTLP(m.Endpoint))
		case metrics.StdoutProvider:
			opts = append(opts, metrics.WithStdout())
		default:
			opts = append(opts, metrics.WithPrometheus())
		}
		r, err := metrics.New(opts...)
		if err != nil {
			return fmt.Errorf("lecture: metrics: %w", err)
		}
		a.recorder = r
	}

	t := a.settings.Tracing
	opts := []tracing.Option{
		tracing.WithServiceName(serviceName),
		tracing.WithSampleRate(t.Sample),
		tracing.WithLogger(a.logger),
	}
	switch tracing.Provider(t.Provider) {
	case tracing.StdoutProvider:
		opts = append(opts, tracing.WithStdout())
	case tracing.OTLPProvider:
		opts = append(opts, tracing.WithOTLP(t.Endpoint, true))
	case tracing.OTLPHTTPProvider:
		opts = append(opts, tracing.WithOTLPHTTP(t.Endpoint))
	default:
		opts = append(opts, tracing.WithNoop())
	}
	tr, err := tracing.New(opts...)
	if err != nil {
		return fmt.Errorf("lecture: tracing: %w", err)
	}
	a.tracer = tr

	return nil
}

// templateFS serves the embedded templates unless a directory is configured.
func (a *application) templateFS() fs.FS {
	if dir := a.settings.Server.Templates; dir != "" {
		return os.DirFS(dir)
	}

	return templates
}

func (a *application) initHandler() error {
	s := a.settings

	renderer, err := web.NewTemplateRenderer(a.templateFS(), web.WithPrefix(s.View.Prefix), web.WithSuffix(s.View.Suffix))
	if err != nil {
		return fmt.Errorf("lecture: templates: %w", err)
	}
	a.logger.Debug("templates loaded", "views", renderer.Views())

	h, err := web.New(a.dispatcher,
		web.WithRenderer(renderer),
		web.WithSessionCookie(s.Session.Cookie),
		web.WithBodyLimit(s.Server.BodyLimit),
		web.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	mws := []func(http.Handler) http.Handler{tracing.Middleware(a.tracer)}
	if s.Server.RateLimit > 0 {
		mws = append(mws, web.RateLimit(
			web.WithRequestsPerSecond(s.Server.RateLimit),
			web.WithBurst(s.Server.Burst),
			web.WithRateLimitLogger(a.logger),
		))
	}
	if a.recorder != nil {
		mws = append(mws, metrics.Middleware(a.recorder, metrics.WithExcludePaths(s.Metrics.Path)))
	}
	if s.Server.Compress {
		mws = append(mws, web.Compress(web.WithCompressLogger(a.logger)))
	}

	mux := http.NewServeMux()
	if a.recorder != nil && metrics.Provider(s.Metrics.Provider) == metrics.PrometheusProvider {
		mux.Handle(s.Metrics.Path, a.recorder.Handler())
	}
	mux.Handle("/", web.Chain(h, mws...))
	a.handler = mux

	return nil
}

// server returns the HTTP server for the application.
func (a *application) server() *web.Server {
	s := a.settings.Server
	opts := []web.ServerOption{
		web.WithAddr(s.Addr),
		web.WithReadHeaderTimeout(s.ReadHeader),
		web.WithShutdownTimeout(s.Shutdown),
		web.WithServerLogger(a.logger),
		web.OnShutdown(a.tracer.Shutdown),
	}
	if a.recorder != nil {
		opts = append(opts, web.OnShutdown(a.recorder.Shutdown))
	}
	if s.H2C {
		opts = append(opts, web.WithH2C())
	}

	return web.NewServer(a.handler, opts...)
}

// run serves until ctx is cancelled, sweeping idle sessions meanwhile.
func (a *application) run(ctx context.Context) error {
	a.store.StartJanitor(ctx, a.settings.Session.Sweep)

	return a.server().Run(ctx)
}
