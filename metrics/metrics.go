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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultDurationBuckets are histogram boundaries in seconds.
var DefaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

const meterName = "rivaas.dev/mvc"

// EventType represents the severity of an internal operational event.
type EventType int

const (
	// EventError indicates an error event (e.g., failed to export metrics).
	EventError EventType = iota
	// EventWarning indicates a warning event.
	EventWarning
	// EventInfo indicates an informational event.
	EventInfo
	// EventDebug indicates a debug event.
	EventDebug
)

// Event is an internal operational event of the metrics package.
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

// Provider names a built-in exporter.
type Provider string

const (
	// PrometheusProvider exposes metrics for scraping (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes metrics over OTLP HTTP.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints metrics, for development.
	StdoutProvider Provider = "stdout"
)

// Recorder holds the meter provider and instruments.
// All methods are safe for concurrent use.
type Recorder struct {
	meterProvider       metric.MeterProvider
	sdkProvider         *sdkmetric.MeterProvider
	customMeterProvider bool
	provider            Provider
	otlpEndpoint        string
	exportInterval      time.Duration
	durationBuckets     []float64
	serviceName         string
	eventHandler        EventHandler

	prometheusRegistry *promclient.Registry
	prometheusHandler  http.Handler

	serviceAttr attribute.KeyValue

	dispatchDuration metric.Float64Histogram
	dispatchCount    metric.Int64Counter
	dispatchFailures metric.Int64Counter
	dispatchActive   metric.Int64UpDownCounter
	requestDuration  metric.Float64Histogram
}

// New creates a Recorder.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		provider:        PrometheusProvider,
		exportInterval:  30 * time.Second,
		durationBuckets: DefaultDurationBuckets,
		serviceName:     "mvc",
		eventHandler:    func(Event) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := r.initializeProvider(); err != nil {
		return nil, err
	}
	if err := r.initializeInstruments(); err != nil {
		return nil, err
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("metrics.MustNew: %v", err))
	}

	return r
}

func (r *Recorder) validate() error {
	var errs []error
	if r.customMeterProvider && r.meterProvider == nil {
		errs = append(errs, errors.New("custom meter provider is nil"))
	}
	if r.serviceName == "" {
		errs = append(errs, errors.New("service name cannot be empty"))
	}
	if r.exportInterval <= 0 {
		errs = append(errs, errors.New("export interval must be positive"))
	}
	if len(r.durationBuckets) == 0 {
		errs = append(errs, errors.New("duration buckets cannot be empty"))
	}
	if r.provider == OTLPProvider && r.otlpEndpoint != "" {
		if _, err := url.Parse(r.otlpEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("invalid OTLP endpoint: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (r *Recorder) initializeProvider() error {
	if r.customMeterProvider {
		r.emit(EventDebug, "using caller-supplied meter provider")
		return nil
	}

	var reader sdkmetric.Reader
	switch r.provider {
	case PrometheusProvider:
		r.prometheusRegistry = promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(r.prometheusRegistry))
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		r.prometheusHandler = promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
		reader = exporter

	case OTLPProvider:
		var opts []otlpmetrichttp.Option
		if r.otlpEndpoint != "" {
			u, _ := url.Parse(r.otlpEndpoint)
			if u.Host != "" {
				opts = append(opts, otlpmetrichttp.WithEndpoint(u.Host))
				if u.Scheme == "http" {
					opts = append(opts, otlpmetrichttp.WithInsecure())
				}
			} else {
				opts = append(opts, otlpmetrichttp.WithEndpoint(r.otlpEndpoint))
			}
		}
		exporter, err := otlpmetrichttp.New(context.Background(), opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))

	case StdoutProvider:
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))

	default:
		return fmt.Errorf("unsupported metrics provider: %s", r.provider)
	}

	r.sdkProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r.meterProvider = r.sdkProvider
	r.emit(EventDebug, "metrics provider initialized", "provider", string(r.provider))

	return nil
}

func (r *Recorder) initializeInstruments() error {
	meter := r.meterProvider.Meter(meterName)
	r.serviceAttr = attribute.String("service.name", r.serviceName)

	var err error
	if r.dispatchDuration, err = meter.Float64Histogram(
		"mvc.dispatch.duration",
		metric.WithDescription("Time spent dispatching a request"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	); err != nil {
		return fmt.Errorf("creating dispatch duration histogram: %w", err)
	}
	if r.dispatchCount, err = meter.Int64Counter(
		"mvc.dispatch.count",
		metric.WithDescription("Dispatched requests"),
	); err != nil {
		return fmt.Errorf("creating dispatch counter: %w", err)
	}
	if r.dispatchFailures, err = meter.Int64Counter(
		"mvc.dispatch.failures",
		metric.WithDescription("Failed dispatches by stage and error kind"),
	); err != nil {
		return fmt.Errorf("creating failure counter: %w", err)
	}
	if r.dispatchActive, err = meter.Int64UpDownCounter(
		"mvc.dispatch.active",
		metric.WithDescription("Dispatches in flight"),
	); err != nil {
		return fmt.Errorf("creating active gauge: %w", err)
	}
	if r.requestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	); err != nil {
		return fmt.Errorf("creating request duration histogram: %w", err)
	}

	return nil
}

func (r *Recorder) emit(t EventType, msg string, args ...any) {
	r.eventHandler(Event{Type: t, Message: msg, Args: args})
}

// Handler serves the Prometheus registry. It responds 404 when another
// provider is in use.
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.prometheusHandler == nil {
		return http.NotFoundHandler()
	}

	return r.prometheusHandler
}

// MeterProvider returns the provider backing the recorder.
func (r *Recorder) MeterProvider() metric.MeterProvider {
	return r.meterProvider
}

// Shutdown flushes and stops a built-in provider. Caller-supplied
// providers are left alone.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r == nil || r.sdkProvider == nil {
		return nil
	}
	if err := r.sdkProvider.Shutdown(ctx); err != nil {
		r.emit(EventError, "metrics shutdown failed", "error", err)
		return fmt.Errorf("metrics shutdown: %w", err)
	}

	return nil
}
