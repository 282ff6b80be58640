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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"rivaas.dev/mvc/dispatch"
	mvcerrors "rivaas.dev/mvc/errors"
	"rivaas.dev/mvc/logging"
	"rivaas.dev/mvc/request"
	"rivaas.dev/mvc/view"
)

// Defaults of the adapter.
const (
	DefaultSessionCookie = "SESSIONID"
	DefaultBodyLimit     = 1 << 20
)

// Transport errors, formatted as problem details.
var (
	ErrNilDispatcher = errors.New("web: dispatcher is nil")
	ErrBodyTooLarge  = errors.New("web: request body too large")
	ErrReadBody      = errors.New("web: cannot read request body")
	ErrRender        = errors.New("web: render failed")
	ErrRateLimited   = errors.New("web: rate limit exceeded")
)

// statusError gives a transport error its status and problem code.
type statusError struct {
	status int
	code   string
	err    error
}

func (e *statusError) Error() string   { return e.err.Error() }
func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }
func (e *statusError) Code() string    { return e.code }

// Handler serves a [dispatch.Dispatcher] over net/http.
//
// For every request it builds a [request.Request], dispatches it, keeps
// the session cookie in step with the directive and emits the directive:
// a rendered view, a redirect, or for unmatched paths a problem response
// with status 404 or 405.
type Handler struct {
	dispatcher      *dispatch.Dispatcher
	renderer        Renderer
	problems        mvcerrors.Formatter
	logger          *slog.Logger
	cookieName      string
	cookieSecure    bool
	sameSite        http.SameSite
	bodyLimit       int64
	requestIDHeader string
	newRequestID    func() string
	allowClientID   bool
}

// New creates a Handler for d.
func New(d *dispatch.Dispatcher, opts ...Option) (*Handler, error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	h := &Handler{
		dispatcher:      d,
		renderer:        JSONRenderer{},
		problems:        mvcerrors.NewRFC9457(""),
		logger:          logging.Discard(),
		cookieName:      DefaultSessionCookie,
		sameSite:        http.SameSiteLaxMode,
		bodyLimit:       DefaultBodyLimit,
		requestIDHeader: DefaultRequestIDHeader,
		newRequestID:    NewULID,
		allowClientID:   true,
	}
	for _, opt := range opts {
		opt(h)
	}

	var errs []error
	if h.renderer == nil {
		errs = append(errs, errors.New("web: nil renderer"))
	}
	if h.problems == nil {
		errs = append(errs, errors.New("web: nil problem formatter"))
	}
	if h.logger == nil {
		errs = append(errs, errors.New("web: nil logger"))
	}
	if h.cookieName == "" {
		errs = append(errs, errors.New("web: empty session cookie name"))
	}
	if h.bodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("web: body limit must be positive, got %d", h.bodyLimit))
	}
	if h.newRequestID == nil {
		errs = append(errs, errors.New("web: nil request id generator"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return h, nil
}

// MustNew is like [New] but panics on error.
func MustNew(d *dispatch.Dispatcher, opts ...Option) *Handler {
	h, err := New(d, opts...)
	if err != nil {
		panic(fmt.Sprintf("web.MustNew: %v", err))
	}

	return h
}

// ServeHTTP implements [http.Handler].
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := ""
	if h.allowClientID {
		requestID = r.Header.Get(h.requestIDHeader)
	}
	if requestID == "" {
		requestID = h.newRequestID()
	}
	w.Header().Set(h.requestIDHeader, requestID)

	req, err := h.buildRequest(w, r, requestID)
	if err != nil {
		h.problem(w, r, err)
		return
	}

	dir, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		h.problem(w, r, err)
		return
	}

	h.syncCookie(w, req.SessionID, dir.SessionID)

	switch dir.Kind {
	case view.KindRedirect:
		http.Redirect(w, r, dir.Location, dir.Status)
	default:
		h.render(w, r, dir)
	}
}

func (h *Handler) buildRequest(w http.ResponseWriter, r *http.Request, requestID string) (*request.Request, error) {
	req := request.New(r.Method, r.URL.RequestURI())
	req.Path = r.URL.Path
	req.RequestID = requestID
	req.Remote = r.RemoteAddr

	for k, vs := range r.Header {
		if len(vs) > 0 {
			req.WithHeader(k, vs[len(vs)-1])
		}
	}
	for _, c := range r.Cookies() {
		req.WithCookie(c.Name, c.Value)
	}
	if c, err := r.Cookie(h.cookieName); err == nil {
		req.SessionID = c.Value
	}

	if r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.bodyLimit))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, &statusError{
					status: http.StatusRequestEntityTooLarge,
					code:   "body_too_large",
					err:    fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, tooLarge.Limit),
				}
			}
			return nil, &statusError{
				status: http.StatusBadRequest,
				code:   "bad_body",
				err:    fmt.Errorf("%w: %w", ErrReadBody, err),
			}
		}
		req.Body = body
	}

	if req.MediaType() == request.ContentTypeMultipart {
		if err := req.ParseMultipart(); err != nil {
			return nil, &statusError{
				status: http.StatusBadRequest,
				code:   "bad_multipart",
				err:    fmt.Errorf("%w: %w", ErrReadBody, err),
			}
		}
	}

	return req, nil
}

// syncCookie issues the session cookie for a new session and clears it
// when the session ended.
func (h *Handler) syncCookie(w http.ResponseWriter, incoming, outgoing string) {
	switch {
	case outgoing != "" && outgoing != incoming:
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName,
			Value:    outgoing,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: h.sameSite,
		})
	case outgoing == "" && incoming != "":
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: h.sameSite,
		})
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, dir view.Directive) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, dir.View, dir.Model); err != nil {
		h.logger.Error("render failed", "view", dir.View, "error", err)
		h.problem(w, r, &statusError{
			status: http.StatusInternalServerError,
			code:   "render_failed",
			err:    fmt.Errorf("%w: %w", ErrRender, err),
		})
		return
	}

	w.Header().Set("Content-Type", h.renderer.ContentType())
	w.WriteHeader(dir.Status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Debug("write failed", "error", err)
	}
}

func (h *Handler) problem(w http.ResponseWriter, r *http.Request, err error) {
	writeProblem(w, r, h.problems, err, h.logger)
}

func writeProblem(w http.ResponseWriter, r *http.Request, f mvcerrors.Formatter, err error, logger *slog.Logger) {
	resp := f.Format(r, err)
	for k, vs := range resp.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	if encErr := json.NewEncoder(w).Encode(resp.Body); encErr != nil {
		logger.Debug("write failed", "error", encErr)
	}
}
