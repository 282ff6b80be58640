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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys of the dispatch instruments.
const (
	AttrRoute  = "mvc.route"
	AttrVerb   = "mvc.verb"
	AttrResult = "mvc.result"
	AttrStage  = "mvc.stage"
	AttrKind   = "mvc.error.kind"
)

// Dispatch tracks one in-flight dispatch.
type Dispatch struct {
	start time.Time
}

// Start counts a dispatch as active and starts its timer. It returns nil
// on a nil Recorder.
func (r *Recorder) Start(ctx context.Context) *Dispatch {
	if r == nil {
		return nil
	}
	r.dispatchActive.Add(ctx, 1, metric.WithAttributes(r.serviceAttr))

	return &Dispatch{start: time.Now()}
}

// Finish records the duration and result of a dispatch started with Start.
// route is the matched pattern, or empty when nothing matched.
func (r *Recorder) Finish(ctx context.Context, d *Dispatch, route, verb, result string) {
	if r == nil || d == nil {
		return
	}
	if route == "" {
		route = "_unmatched"
	}

	attrs := metric.WithAttributes(
		r.serviceAttr,
		attribute.String(AttrRoute, route),
		attribute.String(AttrVerb, verb),
		attribute.String(AttrResult, result),
	)
	r.dispatchActive.Add(ctx, -1, metric.WithAttributes(r.serviceAttr))
	r.dispatchCount.Add(ctx, 1, attrs)
	r.dispatchDuration.Record(ctx, time.Since(d.start).Seconds(), attrs)
}

// RecordFailure counts a failed dispatch.
func (r *Recorder) RecordFailure(ctx context.Context, stage, kind string) {
	if r == nil {
		return
	}
	r.dispatchFailures.Add(ctx, 1, metric.WithAttributes(
		r.serviceAttr,
		attribute.String(AttrStage, stage),
		attribute.String(AttrKind, kind),
	))
}
