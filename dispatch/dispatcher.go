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
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"rivaas.dev/mvc/binding"
	"rivaas.dev/mvc/container"
	mvcerrors "rivaas.dev/mvc/errors"
	"rivaas.dev/mvc/exception"
	"rivaas.dev/mvc/logging"
	"rivaas.dev/mvc/metrics"
	"rivaas.dev/mvc/request"
	"rivaas.dev/mvc/router"
	"rivaas.dev/mvc/session"
	"rivaas.dev/mvc/tracing"
	"rivaas.dev/mvc/view"
)

// Dispatch results recorded in metrics.
const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultNoRoute = "no_route"
)

// Dispatcher orchestrates dispatches. Handlers, interceptors and groups
// are registered first; the first call to Dispatch freezes the
// configuration. Dispatch is safe for concurrent use.
type Dispatcher struct {
	mu     sync.Mutex
	once   sync.Once
	frozen atomic.Bool

	registry *router.Registry
	root     *Group

	binder         *binding.Binder
	store          *session.Store
	mapper         *exception.Mapper
	resolver       *view.Resolver
	redirectStatus int
	exceptionNames map[string]string
	deadline       time.Duration
	logger         *slog.Logger
	metrics        *metrics.Recorder
	tracer         *tracing.Tracer
	beans          *container.Container
}

// New creates a Dispatcher.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		redirectStatus: http.StatusFound,
		logger:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	if d.binder == nil {
		d.binder = binding.MustNew()
	}
	if d.store == nil {
		d.store = session.New(session.WithLogger(d.logger))
	}
	if d.mapper == nil {
		d.mapper = exception.New(exception.WithLogger(d.logger))
	}
	if len(d.exceptionNames) > 0 {
		d.mapper.Global().MapNames(d.exceptionNames)
	}

	resolver, err := view.NewResolver(d.store,
		view.WithRedirectStatus(d.redirectStatus),
		view.WithLogger(d.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	d.resolver = resolver

	d.registry = router.New(router.WithLogger(d.logger))
	d.root = &Group{d: d, routes: d.registry.Group("")}

	return d, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Dispatcher {
	d, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("dispatch.MustNew: %v", err))
	}

	return d
}

func (d *Dispatcher) validate() error {
	var errs []error
	if d.deadline < 0 {
		errs = append(errs, fmt.Errorf("dispatch: negative deadline %s", d.deadline))
	}
	if d.logger == nil {
		errs = append(errs, errors.New("dispatch: nil logger"))
	}

	return errors.Join(errs...)
}

// Handle registers h at the root. See [Group.Handle].
func (d *Dispatcher) Handle(verbs, patterns []string, h Handler, specs ...binding.Spec) error {
	return d.root.Handle(verbs, patterns, h, specs...)
}

// Get registers h for GET on one pattern.
func (d *Dispatcher) Get(pattern string, h Handler, specs ...binding.Spec) error {
	return d.root.Get(pattern, h, specs...)
}

// Post registers h for POST on one pattern.
func (d *Dispatcher) Post(pattern string, h Handler, specs ...binding.Spec) error {
	return d.root.Post(pattern, h, specs...)
}

// Group creates a handler group, the analogue of a controller with a
// class-level path prefix.
func (d *Dispatcher) Group(prefix string) *Group {
	return d.root.Group(prefix)
}

// Use appends a global interceptor. Global interceptors run before the
// interceptors of any group, in registration order.
//
// Patterns restrict the interceptor to matching paths. "/member/**"
// matches /member and everything below it; other patterns follow
// [path.Match], so "/order/*" matches /order/list but not
// /order/detail/1.
func (d *Dispatcher) Use(ic Interceptor, patterns ...string) error {
	return d.root.Use(ic, patterns...)
}

// Exceptions returns the global exception table.
func (d *Dispatcher) Exceptions() *exception.Table {
	return d.mapper.Global()
}

// Store returns the session store.
func (d *Dispatcher) Store() *session.Store {
	return d.store
}

// Routes returns the registered routes.
func (d *Dispatcher) Routes() []*router.Route {
	return d.registry.Routes()
}

// Freeze ends configuration. Dispatch calls it implicitly.
func (d *Dispatcher) Freeze() {
	d.once.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.registry.Freeze()
		d.frozen.Store(true)
		d.logger.Info("dispatcher frozen", "routes", d.registry.Len())
	})
}

// Frozen reports whether the configuration is frozen.
func (d *Dispatcher) Frozen() bool {
	return d.frozen.Load()
}

// Dispatch runs req through the state machine.
//
// A path without a matching route returns an error of kind NoRouteFound
// and no directive. Every other failure is mapped to a directive by the
// exception mapper, with the failure recorded in [view.Directive.Failure],
// and a nil error.
func (d *Dispatcher) Dispatch(ctx context.Context, req *request.Request) (view.Directive, error) {
	d.Freeze()

	ctx, span := d.tracer.StartDispatch(ctx, req.Verb, req.Path, req.RequestID)
	defer span.End()
	rec := d.metrics.Start(ctx)

	logger := logging.WithTrace(ctx, d.logger).With("verb", req.Verb, "path", req.Path)
	if req.RequestID != "" {
		logger = logger.With("request_id", req.RequestID)
	}
	logger.Debug("dispatch received", "stage", StageReceivedRequest)

	match, err := d.registry.Resolve(req.Path, req.Verb)
	if err != nil {
		kind := KindOf(err).String()
		span.Fail(StageRouteResolved.String(), kind, err)
		d.metrics.RecordFailure(ctx, StageRouteResolved.String(), kind)
		d.metrics.Finish(ctx, rec, "", req.Verb, resultNoRoute)
		logger.Info("no route", "error", err)

		return view.Directive{}, err
	}

	ep, ok := match.Route.Handler().(*endpoint)
	if !ok {
		// Routes are only registered through Handle.
		panic(fmt.Sprintf("dispatch: route %s has handler %T", match.Route, match.Route.Handler()))
	}
	span.Route(match.Route.Pattern())
	span.Stage(StageRouteResolved.String())
	logger = logger.With("route", match.Route.Pattern())
	logger.Debug("route resolved", "stage", StageRouteResolved)

	r := &run{
		d:      d,
		ep:     ep,
		route:  match.Route,
		span:   span,
		logger: logger,
	}
	r.req = req.Clone()
	r.req.PathVars = match.Vars

	dir := r.execute(ctx)
	if dir.Failure != nil {
		d.metrics.Finish(ctx, rec, match.Route.Pattern(), req.Verb, resultFailed)
	} else {
		d.metrics.Finish(ctx, rec, match.Route.Pattern(), req.Verb, resultOK)
	}

	return dir, nil
}

// run is the state of one dispatch past route resolution.
type run struct {
	d      *Dispatcher
	ep     *endpoint
	route  *router.Route
	req    *request.Request
	span   *tracing.DispatchSpan
	logger *slog.Logger

	scope     *session.Scope
	abandoned bool
}

func (r *run) execute(ctx context.Context) view.Directive {
	d := r.d
	if d.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.deadline)
		defer cancel()
	}

	sid := r.req.SessionID
	if sid != "" {
		release, err := d.store.Acquire(ctx, sid)
		if err != nil {
			return r.fail(ctx, StageParametersBound, mvcerrors.Wrap(mvcerrors.KindTimeout, "acquire session", err))
		}
		defer release()
	}

	flash := map[string]any{}
	if sid != "" {
		flash = d.store.TakeFlash(sid)
	}
	r.scope = d.store.Open(sid)
	r.scope.Declare(r.ep.group.sessionAttrs...)

	model := maps.Clone(flash)
	for _, name := range r.scope.Declared() {
		if _, set := model[name]; set {
			continue
		}
		if v, ok := r.scope.Get(name); ok {
			model[name] = v
		}
	}
	if len(flash) > 0 {
		r.logger.Debug("flash promoted", "keys", len(flash))
	}

	args, err := d.binder.Bind(r.req, r.ep.specs, r.scope)
	if err != nil {
		return r.fail(ctx, StageParametersBound, err)
	}
	for i, spec := range r.ep.specs {
		if spec.Source == binding.SourceModel && spec.Name != "" {
			model[spec.Name] = args[i]
		}
	}
	r.span.Stage(StageParametersBound.String(), attribute.Int("mvc.args", len(args)))
	r.logger.Debug("parameters bound", "stage", StageParametersBound, "args", len(args))

	call := &Call{
		Request: r.req,
		Route:   r.route,
		Args:    args,
		Model:   model,
		Flash:   flash,
		Session: r.scope,
		Beans:   d.beans,
		Logger:  r.logger,
	}

	out, err := r.invoke(ctx, call)
	if err != nil {
		return r.fail(ctx, StageHandlerInvoked, err)
	}
	r.span.Stage(StageHandlerInvoked.String())
	r.logger.Debug("handler invoked", "stage", StageHandlerInvoked)

	attrs := call.Model
	if f, ok := out.(view.Forward); ok {
		merged := maps.Clone(call.Model)
		maps.Copy(merged, f.Model)
		out = view.Forward{View: f.View, Model: merged}
		attrs = merged
	}
	if !r.scope.Completed() {
		for _, name := range r.scope.Declared() {
			if v, ok := attrs[name]; ok {
				r.scope.Set(name, v)
			}
		}
	}

	target := r.scope.ID()
	if rf, ok := out.(view.RedirectWithFlash); ok && len(rf.Flash) > 0 {
		target = r.scope.Reserve()
	}
	dir, err := d.resolver.Resolve(target, out)
	if err != nil {
		return r.fail(ctx, StageHandlerInvoked, mvcerrors.Wrap(mvcerrors.KindHandler, "resolve outcome", err))
	}
	r.span.Stage(StageOutcomeResolved.String(), attribute.String(tracing.AttrView, dir.View), attribute.String(tracing.AttrLocation, dir.Location))
	r.logger.Debug("outcome resolved", "stage", StageOutcomeResolved, "kind", dir.Kind.String())

	dir.SessionID = r.scope.Commit()
	r.span.Stage(StageResponseReady.String())
	r.logger.Info("dispatch complete", "stage", StageResponseReady, "kind", dir.Kind.String(), "status", dir.Status)

	return dir
}

// invoke calls the handler chain once. Under a deadline the chain runs on
// its own goroutine so that an expired deadline ends the dispatch even if
// the handler never returns; the scope it holds is then abandoned.
func (r *run) invoke(ctx context.Context, call *Call) (view.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, mvcerrors.Wrap(mvcerrors.KindTimeout, "invoke", err)
	}

	h := r.ep.group.chain(r.req.Path, once(r.ep.handler))
	if ctx.Done() == nil {
		out, err := protect(ctx, call, h)
		return out, classify(ctx, err)
	}

	type result struct {
		out view.Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := protect(ctx, call, h)
		done <- result{out, err}
	}()

	select {
	case res := <-done:
		return res.out, classify(ctx, res.err)
	case <-ctx.Done():
		r.abandoned = true
		return nil, mvcerrors.Wrap(mvcerrors.KindTimeout, "invoke", ctx.Err())
	}
}

// once guards at-most-once invocation: a second call through the chain
// returns the first result.
func once(h Handler) Handler {
	var (
		called bool
		out    view.Outcome
		err    error
	)

	return func(ctx context.Context, call *Call) (view.Outcome, error) {
		if !called {
			called = true
			out, err = h(ctx, call)
		}
		return out, err
	}
}

func protect(ctx context.Context, call *Call, h Handler) (out view.Outcome, err error) {
	defer func() {
		if v := recover(); v != nil {
			out, err = nil, &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()

	return h(ctx, call)
}

func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return mvcerrors.Wrap(mvcerrors.KindTimeout, "invoke", err)
	}

	return mvcerrors.Wrap(mvcerrors.KindHandler, "invoke", err)
}

// fail moves the dispatch to Failed(stage, kind) and maps err to a
// directive. Session changes of the dispatch are dropped.
func (r *run) fail(ctx context.Context, stage Stage, err error) view.Directive {
	d := r.d
	kind := KindOf(err)
	if r.scope != nil && !r.abandoned {
		r.scope.Discard()
	}

	r.span.Fail(stage.String(), kind.String(), err)
	d.metrics.RecordFailure(ctx, stage.String(), kind.String())
	r.logger.Warn("dispatch failed", "stage", stage, "kind", kind.String(), "error", err)

	res := d.mapper.Map(r.ep.group.exceptions, err)

	sid := r.req.SessionID
	if rf, ok := res.Outcome.(view.RedirectWithFlash); ok && len(rf.Flash) > 0 && sid == "" {
		sid = d.store.NewID()
	}
	dir, rerr := d.resolver.Resolve(sid, res.Outcome)
	if rerr != nil {
		r.logger.Error("mapped outcome unresolvable", "origin", res.Origin.String(), "error", rerr)
		res = d.mapper.Fallback(err)
		dir, rerr = d.resolver.Resolve(sid, res.Outcome)
		if rerr != nil {
			dir = view.Directive{
				Kind:      view.KindRender,
				View:      exception.DefaultView,
				Model:     map[string]any{exception.DefaultAttribute: err},
				SessionID: sid,
			}
		}
	}
	if dir.Kind == view.KindRender {
		dir.Status = res.Status
	}
	dir.Failure = &FailureError{Stage: stage, Kind: kind, Err: err}
	r.logger.Info("dispatch complete", "stage", StageResponseReady, "origin", res.Origin.String(), "kind", dir.Kind.String(), "status", dir.Status)

	return dir
}
