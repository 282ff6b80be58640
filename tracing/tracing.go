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

package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "rivaas.dev/mvc"

// EventType represents the severity of an internal operational event.
type EventType int

const (
	// EventError indicates an error event (e.g., failed to export spans).
	EventError EventType = iota
	// EventWarning indicates a warning event.
	EventWarning
	// EventInfo indicates an informational event (e.g., tracing initialized).
	EventInfo
	// EventDebug indicates a debug event.
	EventDebug
)

// Event is an internal operational event of the tracing package.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events.
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler logging to logger.
// A nil logger discards events.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}

	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

const (
	// DefaultServiceName is used when none is configured.
	DefaultServiceName = "mvc"

	// DefaultServiceVersion is used when none is configured.
	DefaultServiceVersion = "0.0.0"
)

// Provider names a built-in exporter.
type Provider string

const (
	// NoopProvider records spans without exporting them (default).
	NoopProvider Provider = "noop"
	// StdoutProvider prints spans.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports over OTLP gRPC.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider exports over OTLP HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

// Tracer holds the tracer provider and propagator.
// All methods are safe for concurrent use.
type Tracer struct {
	tracer               trace.Tracer
	tracerProvider       trace.TracerProvider
	sdkProvider          *sdktrace.TracerProvider
	customTracerProvider bool
	registerGlobal       bool
	provider             Provider
	otlpEndpoint         string
	otlpInsecure         bool
	serviceName          string
	serviceVersion       string
	sampleRate           float64
	propagator           propagation.TextMapPropagator
	eventHandler         EventHandler
}

// New creates a Tracer.
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		provider:       NoopProvider,
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultServiceVersion,
		sampleRate:     1.0,
		propagator:     propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
		eventHandler:   func(Event) {},
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid tracing configuration: %w", err)
	}
	if err := t.initializeProvider(context.Background()); err != nil {
		return nil, err
	}
	t.tracer = t.tracerProvider.Tracer(instrumentationName)
	if t.registerGlobal {
		otel.SetTracerProvider(t.tracerProvider)
		otel.SetTextMapPropagator(t.propagator)
	}

	return t, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("tracing.MustNew: %v", err))
	}

	return t
}

func (t *Tracer) validate() error {
	var errs []error
	if t.customTracerProvider && t.tracerProvider == nil {
		errs = append(errs, errors.New("custom tracer provider is nil"))
	}
	if t.serviceName == "" {
		errs = append(errs, errors.New("service name cannot be empty"))
	}
	if t.sampleRate < 0 || t.sampleRate > 1 {
		errs = append(errs, fmt.Errorf("sample rate must be between 0 and 1, got %v", t.sampleRate))
	}
	if t.propagator == nil {
		errs = append(errs, errors.New("propagator cannot be nil"))
	}
	if t.eventHandler == nil {
		errs = append(errs, errors.New("event handler cannot be nil"))
	}

	return errors.Join(errs...)
}

func (t *Tracer) initializeProvider(ctx context.Context) error {
	if t.customTracerProvider {
		t.emit(EventDebug, "using caller-supplied tracer provider")
		return nil
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(t.serviceName),
			semconv.ServiceVersion(t.serviceVersion),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	}

	switch t.provider {
	case NoopProvider:

	case StdoutProvider:
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))

	case OTLPProvider:
		var grpcOpts []otlptracegrpc.Option
		if t.otlpEndpoint != "" {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(t.otlpEndpoint))
		}
		if t.otlpInsecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))

	case OTLPHTTPProvider:
		var httpOpts []otlptracehttp.Option
		if t.otlpEndpoint != "" {
			u, err := url.Parse(t.otlpEndpoint)
			if err == nil && u.Host != "" {
				httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(u.Host))
				if u.Scheme == "http" {
					httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
				}
			} else {
				httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(t.otlpEndpoint))
			}
		}
		exporter, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))

	default:
		return fmt.Errorf("unsupported tracing provider: %s", t.provider)
	}

	t.sdkProvider = sdktrace.NewTracerProvider(opts...)
	t.tracerProvider = t.sdkProvider
	t.emit(EventInfo, "tracing initialized", "provider", string(t.provider), "service", t.serviceName)

	return nil
}

func (t *Tracer) emit(et EventType, msg string, args ...any) {
	t.eventHandler(Event{Type: et, Message: msg, Args: args})
}

// Start opens a span. On a nil Tracer it returns ctx and the span already
// in ctx, which is a non-recording span when there is none.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return t.tracer.Start(ctx, name, opts...)
}

// Extract continues a trace propagated in header.
func (t *Tracer) Extract(ctx context.Context, header http.Header) context.Context {
	if t == nil {
		return ctx
	}

	return t.propagator.Extract(ctx, propagation.HeaderCarrier(header))
}

// Inject writes the trace context of ctx into header.
func (t *Tracer) Inject(ctx context.Context, header http.Header) {
	if t == nil {
		return
	}
	t.propagator.Inject(ctx, propagation.HeaderCarrier(header))
}

// TracerProvider returns the provider backing the tracer.
func (t *Tracer) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// Shutdown flushes and stops a built-in provider. Caller-supplied
// providers are left alone.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.sdkProvider == nil {
		return nil
	}
	if err := t.sdkProvider.Shutdown(ctx); err != nil {
		t.emit(EventError, "tracing shutdown failed", "error", err)
		return fmt.Errorf("tracing shutdown: %w", err)
	}

	return nil
}
