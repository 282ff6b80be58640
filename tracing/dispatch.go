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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span attribute keys set on dispatch spans.
const (
	AttrVerb      = "mvc.verb"
	AttrPath      = "mvc.path"
	AttrRoute     = "mvc.route"
	AttrRequestID = "mvc.request_id"
	AttrStage     = "mvc.stage"
	AttrKind      = "mvc.error.kind"
	AttrView      = "mvc.view"
	AttrLocation  = "mvc.location"
)

// DispatchSpan is the span of one dispatch.
type DispatchSpan struct {
	span trace.Span
}

// StartDispatch opens the span of a dispatch. On a nil Tracer the span is
// a no-op and never touches a span already in ctx.
func (t *Tracer) StartDispatch(ctx context.Context, verb, path, requestID string) (context.Context, *DispatchSpan) {
	if t == nil {
		return ctx, &DispatchSpan{span: noop.Span{}}
	}
	ctx, span := t.Start(ctx, "mvc.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrVerb, verb),
			attribute.String(AttrPath, path),
			attribute.String(AttrRequestID, requestID),
		),
	)

	return ctx, &DispatchSpan{span: span}
}

// Stage records a stage transition.
func (s *DispatchSpan) Stage(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Route records the matched pattern and renames the span after it.
func (s *DispatchSpan) Route(pattern string) {
	s.span.SetAttributes(attribute.String(AttrRoute, pattern))
	s.span.SetName("mvc.dispatch " + pattern)
}

// Fail records a failure at stage.
func (s *DispatchSpan) Fail(stage, kind string, err error) {
	s.span.RecordError(err, trace.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String(AttrKind, kind),
	))
	s.span.SetStatus(codes.Error, kind)
}

// SetAttributes adds attributes to the span.
func (s *DispatchSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// End closes the span.
func (s *DispatchSpan) End() {
	s.span.End()
}
