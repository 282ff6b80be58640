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

package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"rivaas.dev/mvc/logging"
)

// ServerOption configures a [Server].
type ServerOption func(*Server)

// WithAddr sets the listen address. The default is ":8080".
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithH2C serves HTTP/2 over cleartext next to HTTP/1.1. Enable it only
// in development or behind a load balancer that speaks h2c.
func WithH2C() ServerOption {
	return func(s *Server) {
		s.h2c = true
	}
}

// WithReadHeaderTimeout bounds reading request headers.
func WithReadHeaderTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.readHeaderTimeout = d
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// WithServerLogger sets the logger of lifecycle events.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// OnShutdown registers a hook run after the server stopped accepting
// requests, such as flushing metrics or traces. Hooks run in reverse
// registration order.
func OnShutdown(hook func(context.Context) error) ServerOption {
	return func(s *Server) {
		s.hooks = append(s.hooks, hook)
	}
}

// Server runs an http.Handler until its context ends, then shuts down
// gracefully.
type Server struct {
	handler           http.Handler
	addr              string
	h2c               bool
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
	hooks             []func(context.Context) error
}

// NewServer creates a Server for handler.
func NewServer(handler http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		handler:           handler,
		addr:              ":8080",
		readHeaderTimeout: 5 * time.Second,
		shutdownTimeout:   10 * time.Second,
		logger:            logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run listens on the configured address and serves until ctx is done.
// Callers wire OS signals through signal.NotifyContext.
//
// Example:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	if err := web.NewServer(h).Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", s.addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	h := s.handler
	protocol := "HTTP/1.1"
	if s.h2c {
		h = h2c.NewHandler(h, &http2.Server{})
		protocol = "h2c"
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: s.readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", ln.Addr().String(), "protocol", protocol)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("web: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("server shutting down", "reason", context.Cause(ctx))
	}

	// ctx is already done; shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("web: shutdown: %w", err))
	}
	for i := len(s.hooks) - 1; i >= 0; i-- {
		if err := s.hooks[i](shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Info("server exited")

	return errors.Join(errs...)
}

// Chain wraps h with middleware; the first middleware is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}
