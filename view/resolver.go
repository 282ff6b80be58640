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

package view

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strings"
)

// Resolution errors.
var (
	ErrNilOutcome     = errors.New("view: nil outcome")
	ErrEmptyView      = errors.New("view: empty view name")
	ErrEmptyLocation  = errors.New("view: empty redirect location")
	ErrNoSession      = errors.New("view: flash redirect without a session id")
	ErrNoFlashStore   = errors.New("view: flash redirect without a flash store")
	ErrInvalidStatus  = errors.New("view: redirect status must be 3xx")
	ErrUnknownOutcome = errors.New("view: unknown outcome")
)

// Kind tells the transport what to emit.
type Kind int

const (
	// KindRender renders a view with a model.
	KindRender Kind = iota + 1

	// KindRedirect redirects the client.
	KindRedirect
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Directive is the transport-neutral description of a response.
type Directive struct {
	Kind     Kind
	View     string
	Model    map[string]any
	Location string
	Status   int

	// SessionID is the session the response belongs to. The transport
	// issues or clears its session cookie from it.
	SessionID string

	// Failure is the runtime error a mapped directive was produced for.
	Failure error
}

// Redirecting reports whether d redirects the client.
func (d Directive) Redirecting() bool {
	return d.Kind == KindRedirect
}

// FlashWriter receives flash values of a redirect.
type FlashWriter interface {
	PutFlash(sessionID string, values map[string]any)
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithRedirectStatus sets the status used for redirects. The default is 302.
func WithRedirectStatus(status int) Option {
	return func(r *Resolver) {
		r.redirectStatus = status
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver turns outcomes into directives.
// It is safe for concurrent use.
type Resolver struct {
	flash          FlashWriter
	redirectStatus int
	logger         *slog.Logger
}

// NewResolver creates a Resolver writing flash values to flash, which may
// be nil when no handler redirects with flash.
func NewResolver(flash FlashWriter, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		flash:          flash,
		redirectStatus: http.StatusFound,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.redirectStatus < 300 || r.redirectStatus > 399 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, r.redirectStatus)
	}

	return r, nil
}

// MustNewResolver is like [NewResolver] but panics on error.
func MustNewResolver(flash FlashWriter, opts ...Option) *Resolver {
	r, err := NewResolver(flash, opts...)
	if err != nil {
		panic(fmt.Sprintf("view.MustNewResolver: %v", err))
	}

	return r
}

// Resolve turns outcome into a directive for the session sessionID.
// A Forward whose view name carries the redirect prefix is treated as a
// redirect.
func (r *Resolver) Resolve(sessionID string, outcome Outcome) (Directive, error) {
	switch o := outcome.(type) {
	case nil:
		return Directive{}, ErrNilOutcome

	case Forward:
		if path, ok := strings.CutPrefix(o.View, RedirectPrefix); ok {
			return r.redirect(sessionID, path)
		}
		if o.View == "" {
			return Directive{}, ErrEmptyView
		}
		model := maps.Clone(o.Model)
		if model == nil {
			model = map[string]any{}
		}
		return Directive{
			Kind:      KindRender,
			View:      o.View,
			Model:     model,
			Status:    http.StatusOK,
			SessionID: sessionID,
		}, nil

	case Redirect:
		return r.redirect(sessionID, o.Path)

	case RedirectWithFlash:
		if o.Path == "" {
			return Directive{}, ErrEmptyLocation
		}
		if len(o.Flash) > 0 {
			if r.flash == nil {
				return Directive{}, ErrNoFlashStore
			}
			if sessionID == "" {
				return Directive{}, ErrNoSession
			}
			r.flash.PutFlash(sessionID, maps.Clone(o.Flash))
			r.logger.Debug("flash stored", "session", sessionID, "keys", len(o.Flash))
		}
		return r.redirect(sessionID, o.Path)

	default:
		return Directive{}, fmt.Errorf("%w: %T", ErrUnknownOutcome, outcome)
	}
}

func (r *Resolver) redirect(sessionID, path string) (Directive, error) {
	if path == "" {
		return Directive{}, ErrEmptyLocation
	}

	return Directive{
		Kind:      KindRedirect,
		Location:  path,
		Status:    r.redirectStatus,
		SessionID: sessionID,
	}, nil
}
