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

//go:build !integration

package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/mvc/binding"
	"rivaas.dev/mvc/container"
	mvcerrors "rivaas.dev/mvc/errors"
	"rivaas.dev/mvc/exception"
	"rivaas.dev/mvc/logging"
	"rivaas.dev/mvc/metrics"
	"rivaas.dev/mvc/request"
	"rivaas.dev/mvc/session"
	"rivaas.dev/mvc/tracing"
	"rivaas.dev/mvc/view"
)

func forward(viewName string) Handler {
	return func(context.Context, *Call) (view.Outcome, error) {
		return view.Name(viewName), nil
	}
}

func failure(t *testing.T, dir view.Directive) *FailureError {
	t.Helper()

	var fe *FailureError
	require.ErrorAs(t, dir.Failure, &fe)

	return fe
}

func TestDispatch_PathVariable(t *testing.T) {
	t.Parallel()

	d := MustNew()
	order := d.Group("/order")
	require.NoError(t, order.Get("/detail/{orderNo}", func(_ context.Context, call *Call) (view.Outcome, error) {
		return view.ForwardTo("order/detail", map[string]any{"orderNo": Arg[int](call, 0)}), nil
	}, binding.Path[int]("orderNo")))

	dir, err := d.Dispatch(context.Background(), request.New("GET", "/order/detail/42"))
	require.NoError(t, err)
	assert.Nil(t, dir.Failure)
	assert.Equal(t, view.KindRender, dir.Kind)
	assert.Equal(t, "order/detail", dir.View)
	assert.Equal(t, http.StatusOK, dir.Status)
	assert.Equal(t, 42, dir.Model["orderNo"])
}

func TestDispatch_FormBinding(t *testing.T) {
	t.Parallel()

	var name string
	var price int
	d := MustNew()
	menu := d.Group("/menu")
	require.NoError(t, menu.Post("/regist", func(_ context.Context, call *Call) (view.Outcome, error) {
		name = Arg[string](call, 0)
		price = Arg[int](call, 1)
		return view.Name("redirect:/menu/list"), nil
	}, binding.Query[string]("name"), binding.Query[int]("price")))

	req := request.New("POST", "/menu/regist").WithForm(url.Values{"name": {"Tea"}, "price": {"10"}})
	dir, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, view.KindRedirect, dir.Kind)
	assert.Equal(t, "/menu/list", dir.Location)
	assert.Equal(t, http.StatusFound, dir.Status)
	assert.Equal(t, "Tea", name)
	assert.Equal(t, 10, price)
}

func TestDispatch_NoRouteReturnedToCaller(t *testing.T) {
	t.Parallel()

	d := MustNew()
	require.NoError(t, d.Get("/main", forward("main")))

	dir, err := d.Dispatch(context.Background(), request.New("GET", "/missing"))
	require.ErrorIs(t, err, mvcerrors.ErrNoRouteFound)
	assert.Zero(t, dir)

	_, err = d.Dispatch(context.Background(), request.New("DELETE", "/main"))
	var e *mvcerrors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"GET"}, e.Allowed)
	assert.Equal(t, http.StatusMethodNotAllowed, e.HTTPStatus())
}

func TestDispatch_GlobalHandlerError(t *testing.T) {
	t.Parallel()

	d := MustNew(WithExceptionMappings(map[string]string{"HandlerError": "error/default"}))
	boom := errors.New("boom")
	require.NoError(t, d.Get("/fail", func(context.Context, *Call) (view.Outcome, error) {
		return nil, boom
	}))

	dir, err := d.Dispatch(context.Background(), request.New("GET", "/fail"))
	require.NoError(t, err)
	assert.Equal(t, view.KindRender, dir.Kind)
	assert.Equal(t, "error/default", dir.View)
	assert.Equal(t, http.StatusInternalServerError, dir.Status)
	assert.ErrorIs(t, dir.Model[exception.DefaultAttribute].(error), boom)

	fe := failure(t, dir)
	assert.Equal(t, StageHandlerInvoked, fe.Stage)
	assert.Equal(t, mvcerrors.KindHandler, fe.Kind)
	assert.ErrorIs(t, dir.Failure, boom)
	assert.ErrorIs(t, dir.Failure, mvcerrors.ErrHandler)
}

func TestDispatch_LocalMappingBeatsGlobal(t *testing.T) {
	t.Parallel()

	d := MustNew(WithExceptionMappings(map[string]string{"HandlerError": "error/default"}))
	failing := func(context.Context, *Call) (view.Outcome, error) {
		return nil, errors.New("boom")
	}

	order := d.Group("/order")
	order.Exceptions().On(exception.KindOf(mvcerrors.KindHandler), "error/order")
	require.NoError(t, order.Get("/fail", failing))

	nested := order.Group("/nested")
	require.NoError(t, nested.Get("/fail", failing))

	require.NoError(t, d.Get("/fail", failing))

	tests := []struct {
		path string
		view string
	}{
		{"/order/fail", "error/order"},
		{"/order/nested/fail", "error/default"},
		{"/fail", "error/default"},
	}
	for _, tt := range tests {
		dir, err := d.Dispatch(context.Background(), request.New("GET", tt.path))
		require.NoError(t, err)
		assert.Equal(t, tt.view, dir.View, tt.path)
	}
}

func TestDispatch_MissingParameterSkipsHandler(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := MustNew()
	require.NoError(t, d.Post("/menu/regist", func(context.Context, *Call) (view.Outcome, error) {
		calls.Add(1)
		return view.Name("menu/list"), nil
	}, binding.Query[string]("name"), binding.Query[int]("price")))

	req := request.New("POST", "/menu/regist").WithForm(url.Values{"name": {"Tea"}})
	dir, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, calls.Load())
	assert.Equal(t, exception.DefaultView, dir.View)
	assert.Equal(t, http.StatusBadRequest, dir.Status)

	fe := failure(t, dir)
	assert.Equal(t, StageParametersBound, fe.Stage)
	assert.Equal(t, mvcerrors.KindMissingParameter, fe.Kind)
	assert.ErrorIs(t, dir.Failure, mvcerrors.ErrMissingParameter)
}

func TestDispatch_TypeConversion(t *testing.T) {
	t.Parallel()

	d := MustNew()
	require.NoError(t, d.Get("/order/detail/{orderNo}", forward("order/detail"), binding.Path[int]("orderNo")))

	dir, err := d.Dispatch(context.Background(), request.New("GET", "/order/detail/abc"))
	require.NoError(t, err)
	assert.Equal(t, mvcerrors.KindTypeConversion, failure(t, dir).Kind)
	assert.Equal(t, http.StatusBadRequest, dir.Status)
}

func TestDispatch_FlashVisibleExactlyOnce(t *testing.T) {
	t.Parallel()

	var seen []map[string]any
	d := MustNew()
	require.NoError(t, d.Post("/menu/regist", func(context.Context, *Call) (view.Outcome, error) {
		return view.Redirect{Path: "/menu/list"}.WithFlash("message", "registered"), nil
	}))
	require.NoError(t, d.Get("/menu/list", func(_ context.Context, call *Call) (view.Outcome, error) {
		seen = append(seen, call.Flash)
		return view.Name("menu/list"), nil
	}))
	require.NoError(t, d.Get("/main", forward("main")))

	ctx := context.Background()
	dir, err := d.Dispatch(ctx, request.New("POST", "/menu/regist"))
	require.NoError(t, err)
	require.Equal(t, view.KindRedirect, dir.Kind)
	require.NotEmpty(t, dir.SessionID, "a flash redirect allocates a session")
	sid := dir.SessionID

	// N+1 never reads the flash, N+2 must not see it either.
	_, err = d.Dispatch(ctx, request.New("GET", "/main").WithSession(sid))
	require.NoError(t, err)
	dir, err = d.Dispatch(ctx, request.New("GET", "/menu/list").WithSession(sid))
	require.NoError(t, err)
	assert.NotContains(t, dir.Model, "message")

	_, err = d.Dispatch(ctx, request.New("POST", "/menu/regist").WithSession(sid))
	require.NoError(t, err)
	dir, err = d.Dispatch(ctx, request.New("GET", "/menu/list").WithSession(sid))
	require.NoError(t, err)
	assert.Equal(t, "registered", dir.Model["message"])
	assert.Equal(t, sid, dir.SessionID)

	dir, err = d.Dispatch(ctx, request.New("GET", "/menu/list").WithSession(sid))
	require.NoError(t, err)
	assert.NotContains(t, dir.Model, "message")

	require.Len(t, seen, 3)
	assert.Empty(t, seen[0])
	assert.Equal(t, map[string]any{"message": "registered"}, seen[1])
	assert.Empty(t, seen[2])
}

func TestDispatch_RedirectDropsModel(t *testing.T) {
	t.Parallel()

	d := MustNew()
	require.NoError(t, d.Get("/a", func(_ context.Context, call *Call) (view.Outcome, error) {
		call.Put("secret", 1)
		return view.Redirect{Path: "/b"}, nil
	}))
	require.NoError(t, d.Get("/c", func(_ context.Context, call *Call) (view.Outcome, error) {
		return view.ForwardTo("redirect:/b", map[string]any{"secret": 2}), nil
	}))
	require.NoError(t, d.Get("/b", forward("b")))

	ctx := context.Background()
	for _, p := range []string{"/a", "/c"} {
		dir, err := d.Dispatch(ctx, request.New("GET", p))
		require.NoError(t, err)
		assert.Equal(t, view.KindRedirect, dir.Kind)
		assert.Nil(t, dir.Model)
		assert.Empty(t, dir.SessionID)
	}

	dir, err := d.Dispatch(ctx, request.New("GET", "/b"))
	require.NoError(t, err)
	assert.Empty(t, dir.Model)
}

func TestDispatch_SessionCommittedOnlyOnSuccess(t *testing.T) {
	t.Parallel()

	store := session.New()
	sid := store.NewID()
	store.Set(sid, "seed", true)

	d := MustNew(WithStore(store))
	require.NoError(t, d.Post("/ok", func(_ context.Context, call *Call) (view.Outcome, error) {
		call.Session.Set("member", "kim")
		return view.Name("ok"), nil
	}))
	require.NoError(t, d.Post("/fail", func(_ context.Context, call *Call) (view.Outcome, error) {
		call.Session.Set("order", 7)
		call.Session.Delete("seed")
		return nil, errors.New("boom")
	}))

	ctx := context.Background()
	dir, err := d.Dispatch(ctx, request.New("POST", "/fail").WithSession(sid))
	require.NoError(t, err)
	require.NotNil(t, dir.Failure)
	assert.Equal(t, sid, dir.SessionID)
	_, ok := store.Get(sid, "order")
	assert.False(t, ok)
	_, ok = store.Get(sid, "seed")
	assert.True(t, ok)

	dir, err = d.Dispatch(ctx, request.New("POST", "/ok").WithSession(sid))
	require.NoError(t, err)
	assert.Equal(t, sid, dir.SessionID)
	v, ok := store.Get(sid, "member")
	require.True(t, ok)
	assert.Equal(t, "kim", v)
}

func TestDispatch_SessionCreatedOnFirstWrite(t *testing.T) {
	t.Parallel()

	d := MustNew()
	require.NoError(t, d.Post("/member/login", func(_ context.Context, call *Call) (view.Outcome, error) {
		call.Session.Set("member", Arg[string](call, 0))
		return view.Name("redirect:/"), nil
	}, binding.Query[string]("id")))
	require.NoError(t, d.Get("/member/mypage", func(_ context.Context, call *Call) (view.Outcome, error) {
		return view.ForwardTo("member/mypage", nil), nil
	}, binding.Session[string]("member")))
	require.NoError(t, d.Post("/member/logout", func(_ context.Context, call *Call) (view.Outcome, error) {
		call.Session.Invalidate()
		return view.Name("redirect:/"), nil
	}))

	ctx := context.Background()
	req := request.New("POST", "/member/login").WithForm(url.Values{"id": {"user01"}})
	dir, err := d.Dispatch(ctx, req)
	require.NoError(t, err)
	sid := dir.SessionID
	require.NotEmpty(t, sid)

	dir, err = d.Dispatch(ctx, request.New("GET", "/member/mypage").WithSession(sid))
	require.NoError(t, err)
	assert.Nil(t, dir.Failure)

	dir, err = d.Dispatch(ctx, request.New("POST", "/member/logout").WithSession(sid))
	require.NoError(t, err)
	assert.Empty(t, dir.SessionID)
	assert.False(t, d.Store().Exists(sid))

	dir, err = d.Dispatch(ctx, request.New("GET", "/member/mypage").WithSession(sid))
	require.NoError(t, err)
	assert.Equal(t, mvcerrors.KindMissingParameter, failure(t, dir).Kind)
}

func TestDispatch_SessionAttributes(t *testing.T) {
	t.Parallel()

	d := MustNew()
	order := d.Group("/order")
	require.NoError(t, order.SessionAttributes("cart"))
	require.NoError(t, order.Post("/start", func(_ context.Context, call *Call) (view.Outcome, error) {
		call.Put("cart", []string{"tea"})
		return view.Name("order/step1"), nil
	}))
	require.NoError(t, order.Get("/step2", func(_ context.Context, call *Call) (view.Outcome, error) {
		return view.ForwardTo("order/step2", nil), nil
	}))
	require.NoError(t, order.Post("/complete", func(_ context.Context, call *Call) (view.Outcome, error) {
		call.Session.Complete()
		return view.Name("order/done"), nil
	}))

	ctx := context.Background()
	dir, err := d.Dispatch(ctx, request.New("POST", "/order/start"))
	require.NoError(t, err)
	sid := dir.SessionID
	require.NotEmpty(t, sid)

	dir, err = d.Dispatch(ctx, request.New("GET", "/order/step2").WithSession(sid))
	require.NoError(t, err)
	assert.Equal(t, []string{"tea"}, dir.Model["cart"])

	_, err = d.Dispatch(ctx, request.New("POST", "/order/complete").WithSession(sid))
	require.NoError(t, err)
	_, ok := d.Store().Get(sid, "cart")
	assert.False(t, ok)

	dir, err = d.Dispatch(ctx, request.New("GET", "/order/step2").WithSession(sid))
	require.NoError(t, err)
	assert.NotContains(t, dir.Model, "cart")
}

func TestDispatch_ModelAttributePublished(t *testing.T) {
	t.Parallel()

	type menuDTO struct {
		Name  string `param:"name"`
		Price int    `param:"price"`
	}

	d := MustNew()
	require.NoError(t, d.Post("/menu/regist", func(_ context.Context, call *Call) (view.Outcome, error) {
		return view.Name("menu/result"), nil
	}, binding.Model[menuDTO]("menu")))

	req := request.New("POST", "/menu/regist").WithForm(url.Values{"name": {"Tea"}, "price": {"10"}})
	dir, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, menuDTO{Name: "Tea", Price: 10}, dir.Model["menu"])
}

func TestDispatch_Deadline(t *testing.T) {
	t.Parallel()

	store := session.New()
	sid := store.NewID()
	store.Set(sid, "seed", true)

	unblock := make(chan struct{})
	t.Cleanup(func() { close(unblock) })

	d := MustNew(WithStore(store), WithDeadline(20*time.Millisecond))
	require.NoError(t, d.Get("/slow", func(_ context.Context, call *Call) (view.Outcome, error) {
		call.Session.Set("late", true)
		<-unblock
		return view.Name("slow"), nil
	}))
	require.NoError(t, d.Get("/fast", forward("fast")))

	ctx := context.Background()
	dir, err := d.Dispatch(ctx, request.New("GET", "/slow").WithSession(sid))
	require.NoError(t, err)
	fe := failure(t, dir)
	assert.Equal(t, StageHandlerInvoked, fe.Stage)
	assert.Equal(t, mvcerrors.KindTimeout, fe.Kind)
	assert.Equal(t, http.StatusGatewayTimeout, dir.Status)

	// The session lock was released.
	dir, err = d.Dispatch(ctx, request.New("GET", "/fast").WithSession(sid))
	require.NoError(t, err)
	assert.Nil(t, dir.Failure)
	_, ok := store.Get(sid, "late")
	assert.False(t, ok)
}

func TestDispatch_CancelledWhileWaitingForSession(t *testing.T) {
	t.Parallel()

	store := session.New()
	sid := store.NewID()
	release, err := store.Acquire(context.Background(), sid)
	require.NoError(t, err)
	defer release()

	d := MustNew(WithStore(store))
	require.NoError(t, d.Get("/x", forward("x")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	dir, err := d.Dispatch(ctx, request.New("GET", "/x").WithSession(sid))
	require.NoError(t, err)
	fe := failure(t, dir)
	assert.Equal(t, mvcerrors.KindTimeout, fe.Kind)
	assert.Equal(t, StageParametersBound, fe.Stage)
}

func TestDispatch_PanicBecomesHandlerError(t *testing.T) {
	t.Parallel()

	d := MustNew()
	require.NoError(t, d.Get("/panic", func(context.Context, *Call) (view.Outcome, error) {
		panic("boom")
	}))
	require.NoError(t, d.Get("/badarg", func(_ context.Context, call *Call) (view.Outcome, error) {
		return view.Name(Arg[string](call, 0)), nil
	}, binding.Query[int]("n")))

	for _, req := range []*request.Request{
		request.New("GET", "/panic"),
		request.New("GET", "/badarg?n=1"),
	} {
		dir, err := d.Dispatch(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, mvcerrors.KindHandler, failure(t, dir).Kind)
		var pe *PanicError
		require.ErrorAs(t, dir.Failure, &pe)
		assert.NotEmpty(t, pe.Stack)
	}
}

func TestDispatch_InvalidOutcomeIsHandlerError(t *testing.T) {
	t.Parallel()

	d := MustNew()
	require.NoError(t, d.Get("/nil", func(context.Context, *Call) (view.Outcome, error) {
		return nil, nil
	}))

	dir, err := d.Dispatch(context.Background(), request.New("GET", "/nil"))
	require.NoError(t, err)
	assert.ErrorIs(t, dir.Failure, view.ErrNilOutcome)
	assert.Equal(t, mvcerrors.KindHandler, failure(t, dir).Kind)
}

func TestDispatch_MappedFlashRedirectWithoutSession(t *testing.T) {
	t.Parallel()

	d := MustNew()
	d.Exceptions().Handle(exception.KindOf(mvcerrors.KindHandler), func(err error) view.Outcome {
		return view.Redirect{Path: "/main"}.WithFlash("error", err.Error())
	})
	require.NoError(t, d.Get("/fail", func(context.Context, *Call) (view.Outcome, error) {
		return nil, errors.New("boom")
	}))
	require.NoError(t, d.Get("/main", forward("main")))

	ctx := context.Background()
	dir, err := d.Dispatch(ctx, request.New("GET", "/fail"))
	require.NoError(t, err)
	require.Equal(t, view.KindRedirect, dir.Kind)
	require.NotEmpty(t, dir.SessionID)

	dir, err = d.Dispatch(ctx, request.New("GET", "/main").WithSession(dir.SessionID))
	require.NoError(t, err)
	assert.Contains(t, dir.Model["error"], "boom")
}

func TestDispatch_UnresolvableMappingFallsBack(t *testing.T) {
	t.Parallel()

	d := MustNew(WithExceptionMappings(map[string]string{"HandlerError": "redirect:"}))
	require.NoError(t, d.Get("/fail", func(context.Context, *Call) (view.Outcome, error) {
		return nil, errors.New("boom")
	}))

	dir, err := d.Dispatch(context.Background(), request.New("GET", "/fail"))
	require.NoError(t, err)
	assert.Equal(t, exception.DefaultView, dir.View)
	assert.Equal(t, http.StatusInternalServerError, dir.Status)
}

func TestDispatch_SameSessionNoLostUpdate(t *testing.T) {
	t.Parallel()

	store := session.New()
	sid := store.NewID()
	store.Set(sid, "count", 0)

	d := MustNew(WithStore(store))
	require.NoError(t, d.Post("/count", func(_ context.Context, call *Call) (view.Outcome, error) {
		v, _ := call.Session.Get("count")
		n, _ := v.(int)
		time.Sleep(time.Microsecond)
		call.Session.Set("count", n+1)
		return view.Name("count"), nil
	}))

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			dir, err := d.Dispatch(context.Background(), request.New("POST", "/count").WithSession(sid))
			assert.NoError(t, err)
			assert.Nil(t, dir.Failure)
		})
	}
	wg.Wait()

	v, ok := store.Get(sid, "count")
	require.True(t, ok)
	assert.Equal(t, workers, v)
}

func TestDispatch_IndependentSessions(t *testing.T) {
	t.Parallel()

	store := session.New()
	first, second := store.NewID(), store.NewID()
	store.Set(first, "n", 0)
	store.Set(second, "n", 0)

	hold := make(chan struct{})
	entered := make(chan struct{})
	d := MustNew(WithStore(store))
	require.NoError(t, d.Post("/hold", func(context.Context, *Call) (view.Outcome, error) {
		close(entered)
		<-hold
		return view.Name("held"), nil
	}))
	require.NoError(t, d.Post("/quick", forward("quick")))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.Dispatch(context.Background(), request.New("POST", "/hold").WithSession(first))
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	dir, err := d.Dispatch(ctx, request.New("POST", "/quick").WithSession(second))
	require.NoError(t, err)
	assert.Nil(t, dir.Failure)

	close(hold)
	<-done
}

func TestDispatch_ContainerExposed(t *testing.T) {
	t.Parallel()

	type menuService struct{ names []string }

	beans := container.New()
	require.NoError(t, beans.Register("menuService", &menuService{names: []string{"tea", "coffee"}}))

	d := MustNew(WithContainer(beans))
	require.NoError(t, d.Get("/menu/list", func(_ context.Context, call *Call) (view.Outcome, error) {
		svc := container.MustByType[*menuService](call.Beans)
		return view.ForwardTo("menu/list", map[string]any{"menus": svc.names}), nil
	}))

	dir, err := d.Dispatch(context.Background(), request.New("GET", "/menu/list"))
	require.NoError(t, err)
	assert.Equal(t, []string{"tea", "coffee"}, dir.Model["menus"])
}

func TestDispatcher_Registration(t *testing.T) {
	t.Parallel()

	d := MustNew()
	h := forward("x")

	assert.ErrorIs(t, d.Handle(nil, []string{"/x"}, nil), ErrNilHandler)
	assert.ErrorIs(t, d.Handle(nil, nil, h), ErrNoPatterns)
	assert.ErrorIs(t, d.Use(nil), ErrNilInterceptor)
	assert.Error(t, d.Use(func(ctx context.Context, call *Call, next Handler) (view.Outcome, error) {
		return next(ctx, call)
	}, "/[a"))

	require.NoError(t, d.Handle([]string{"GET"}, []string{"/", "/main"}, h))
	assert.ErrorIs(t, d.Get("/main", h), mvcerrors.ErrDuplicateRoute)
	assert.Len(t, d.Routes(), 2)

	assert.False(t, d.Frozen())
	_, err := d.Dispatch(context.Background(), request.New("GET", "/"))
	require.NoError(t, err)
	assert.True(t, d.Frozen())

	assert.ErrorIs(t, d.Get("/late", h), ErrFrozen)
	assert.ErrorIs(t, d.Use(func(ctx context.Context, call *Call, next Handler) (view.Outcome, error) {
		return next(ctx, call)
	}), ErrFrozen)
	assert.ErrorIs(t, d.Group("/g").SessionAttributes("x"), ErrFrozen)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(WithDeadline(-time.Second))
	require.Error(t, err)

	_, err = New(WithRedirectStatus(http.StatusOK))
	require.ErrorIs(t, err, view.ErrInvalidStatus)

	d, err := New(WithRedirectStatus(http.StatusSeeOther))
	require.NoError(t, err)
	require.NoError(t, d.Get("/r", forward("redirect:/x")))
	dir, err := d.Dispatch(context.Background(), request.New("GET", "/r"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, dir.Status)

	assert.Panics(t, func() { MustNew(WithDeadline(-time.Second)) })
}

func TestDispatch_Observability(t *testing.T) {
	t.Parallel()

	recorder, reader := metrics.TestingRecorder(t)
	tracer, spans := tracing.TestingTracer(t)
	logs := logging.NewTestHelper(t)

	d := MustNew(
		WithMetrics(recorder),
		WithTracer(tracer),
		WithLogger(logs.Logger.Logger()),
	)
	require.NoError(t, d.Get("/order/detail/{orderNo}", forward("order/detail"), binding.Path[int]("orderNo")))

	ctx := context.Background()
	_, err := d.Dispatch(ctx, request.New("GET", "/order/detail/1"))
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, request.New("GET", "/order/detail/x"))
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, request.New("GET", "/nowhere"))
	require.Error(t, err)

	count, ok := metrics.Collect(t, reader, "mvc.dispatch.count")
	require.True(t, ok)
	assert.Equal(t, int64(3), metrics.Sum(count))
	failures, ok := metrics.Collect(t, reader, "mvc.dispatch.failures")
	require.True(t, ok)
	assert.Equal(t, int64(2), metrics.Sum(failures))

	ended := spans.Ended()
	require.Len(t, ended, 3)
	assert.Equal(t, "mvc.dispatch /order/detail/{orderNo}", ended[0].Name())
	var events []string
	for _, e := range ended[0].Events() {
		events = append(events, e.Name)
	}
	assert.Equal(t, []string{
		StageRouteResolved.String(),
		StageParametersBound.String(),
		StageHandlerInvoked.String(),
		StageOutcomeResolved.String(),
		StageResponseReady.String(),
	}, events)

	assert.True(t, logs.ContainsLog("dispatch complete"))
	failed := logs.Find("dispatch failed")
	require.Len(t, failed, 1)
	assert.Equal(t, "ParametersBound", failed[0].Attrs["stage"])
	assert.Equal(t, "TypeConversionError", failed[0].Attrs["kind"])
	assert.True(t, logs.ContainsLog("no route"))
}

func TestStage_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ReceivedRequest", StageReceivedRequest.String())
	assert.Equal(t, "ResponseReady", StageResponseReady.String())
	assert.Equal(t, "Unknown", Stage(42).String())
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, mvcerrors.KindTimeout, KindOf(mvcerrors.New(mvcerrors.KindTimeout, "op", "")))
	assert.Equal(t, mvcerrors.KindHandler, KindOf(errors.New("plain")))
}
