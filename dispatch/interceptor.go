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

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"rivaas.dev/mvc/view"
)

// Interceptor runs around handler invocation. It calls next to proceed,
// or returns its own outcome to short-circuit. It may rewrite the outcome
// or the error next returned.
//
// Example:
//
//	func requireLogin(ctx context.Context, call *dispatch.Call, next dispatch.Handler) (view.Outcome, error) {
//	    if _, ok := call.Session.Get("member"); !ok {
//	        return view.Redirect{Path: "/member/login"}, nil
//	    }
//	    return next(ctx, call)
//	}
type Interceptor func(ctx context.Context, call *Call, next Handler) (view.Outcome, error)

type interceptorEntry struct {
	ic       Interceptor
	patterns []string
}

// matches reports whether the entry applies to p. A pattern ending in
// "/**" matches its prefix and everything below it; any other pattern
// uses [path.Match].
func (e interceptorEntry) matches(p string) bool {
	if len(e.patterns) == 0 {
		return true
	}
	for _, pat := range e.patterns {
		if prefix, ok := strings.CutSuffix(pat, "/**"); ok {
			if p == prefix || strings.HasPrefix(p, prefix+"/") || prefix == "" {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pat, p); ok {
			return true
		}
	}

	return false
}

func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		pat, _ = strings.CutSuffix(pat, "/**")
		if _, err := path.Match(pat, ""); err != nil {
			return fmt.Errorf("dispatch: interceptor pattern %q: %w", pat, err)
		}
	}

	return nil
}

// Before runs fn ahead of the handler. A non-nil error short-circuits.
func Before(fn func(ctx context.Context, call *Call) error) Interceptor {
	return func(ctx context.Context, call *Call, next Handler) (view.Outcome, error) {
		if err := fn(ctx, call); err != nil {
			return nil, err
		}
		return next(ctx, call)
	}
}

// AfterReturning runs fn with the outcome of a successful handler.
func AfterReturning(fn func(ctx context.Context, call *Call, out view.Outcome)) Interceptor {
	return func(ctx context.Context, call *Call, next Handler) (view.Outcome, error) {
		out, err := next(ctx, call)
		if err == nil {
			fn(ctx, call, out)
		}
		return out, err
	}
}

// AfterThrowing runs fn with the error of a failed handler.
func AfterThrowing(fn func(ctx context.Context, call *Call, err error)) Interceptor {
	return func(ctx context.Context, call *Call, next Handler) (view.Outcome, error) {
		out, err := next(ctx, call)
		if err != nil {
			fn(ctx, call, err)
		}
		return out, err
	}
}

// LoggingInterceptor logs entry, result and duration of every handler it
// wraps.
func LoggingInterceptor(logger *slog.Logger) Interceptor {
	return func(ctx context.Context, call *Call, next Handler) (view.Outcome, error) {
		route := call.Route.String()
		logger.DebugContext(ctx, "before handler", "route", route, "args", len(call.Args))

		start := time.Now()
		out, err := next(ctx, call)
		elapsed := time.Since(start)

		if err != nil {
			logger.WarnContext(ctx, "handler failed", "route", route, "duration", elapsed, "error", err)
			return out, err
		}
		logger.InfoContext(ctx, "handler returned", "route", route, "duration", elapsed, "outcome", describe(out))

		return out, nil
	}
}

func describe(out view.Outcome) string {
	switch o := out.(type) {
	case view.Forward:
		return "forward:" + o.View
	case view.Redirect:
		return view.RedirectPrefix + o.Path
	case view.RedirectWithFlash:
		return view.RedirectPrefix + o.Path + " (flash)"
	default:
		return fmt.Sprintf("%T", out)
	}
}
