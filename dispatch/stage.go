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

package dispatch

import "log/slog"

// Stage is a state of the dispatch state machine.
type Stage int

const (
	StageReceivedRequest Stage = iota
	StageRouteResolved
	StageParametersBound
	StageHandlerInvoked
	StageOutcomeResolved
	StageResponseReady
)

var stageNames = [...]string{
	StageReceivedRequest: "ReceivedRequest",
	StageRouteResolved:   "RouteResolved",
	StageParametersBound: "ParametersBound",
	StageHandlerInvoked:  "HandlerInvoked",
	StageOutcomeResolved: "OutcomeResolved",
	StageResponseReady:   "ResponseReady",
}

// String returns the name of the stage.
func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}

	return "Unknown"
}

// LogValue implements [slog.LogValuer].
func (s Stage) LogValue() slog.Value {
	return slog.StringValue(s.String())
}
