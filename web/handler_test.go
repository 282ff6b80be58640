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

package web

import (
	"context"
	"encoding/json"
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/mvc/binding"
	"rivaas.dev/mvc/dispatch"
	"rivaas.dev/mvc/request"
	"rivaas.dev/mvc/view"
)

func lectureDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()

	d := dispatch.MustNew(dispatch.WithExceptionMappings(map[string]string{"HandlerError": "error/default"}))
	order := d.Group("/order")
	require.NoError(t, order.Get("/detail/{orderNo}", func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		return view.ForwardTo("order/detail", map[string]any{"orderNo": dispatch.Arg[int](call, 0)}), nil
	}, binding.Path[int]("orderNo")))

	menu := d.Group("/menu")
	require.NoError(t, menu.Post("/regist", func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		return view.Redirect{Path: "/menu/list"}.WithFlash("message", dispatch.Arg[string](call, 0)+" registered"), nil
	}, binding.Query[string]("name"), binding.Query[int]("price")))
	require.NoError(t, menu.Get("/list", func(context.Context, *dispatch.Call) (view.Outcome, error) {
		return view.Name("menu/list"), nil
	}))
	require.NoError(t, menu.Post("/echo", func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		return view.ForwardTo("menu/echo", map[string]any{"body": dispatch.Arg[string](call, 0)}), nil
	}, binding.Body[string]()))

	file := d.Group("/file")
	require.NoError(t, file.Post("/single", func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		f := dispatch.Arg[request.File](call, 0)
		return view.ForwardTo("file/result", map[string]any{
			"originFileName":  f.Filename,
			"size":            f.Size,
			"fileDescription": dispatch.Arg[string](call, 1),
		}), nil
	}, binding.File[request.File]("singleFile"), binding.Query[string]("singleFileDescription")))

	member := d.Group("/member")
	require.NoError(t, member.Post("/login", func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		call.Session.Set("member", dispatch.Arg[string](call, 0))
		return view.Name("redirect:/"), nil
	}, binding.Query[string]("id")))
	require.NoError(t, member.Post("/logout", func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		call.Session.Invalidate()
		return view.Name("redirect:/"), nil
	}))

	require.NoError(t, d.Get("/fail", func(context.Context, *dispatch.Call) (view.Outcome, error) {
		return nil, errors.New("boom")
	}))

	return d
}

type rendered struct {
	View  string         `json:"view"`
	Model map[string]any `json:"model"`
}

func decodeRendered(t *testing.T, rec *httptest.ResponseRecorder) rendered {
	t.Helper()

	var out rendered
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultSessionCookie {
			return c
		}
	}

	return nil
}

func TestHandler_Render(t *testing.T) {
	t.Parallel()

	h := MustNew(lectureDispatcher(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/detail/42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Len(t, rec.Header().Get(DefaultRequestIDHeader), 26)
	out := decodeRendered(t, rec)
	assert.Equal(t, "order/detail", out.View)
	assert.InDelta(t, 42, out.Model["orderNo"], 0)
}

func TestHandler_FlashRedirectAndCookie(t *testing.T) {
	t.Parallel()

	h := MustNew(lectureDispatcher(t))

	form := url.Values{"name": {"Tea"}, "price": {"10"}}
	req := httptest.NewRequest(http.MethodPost, "/menu/regist", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/menu/list", rec.Header().Get("Location"))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	req = httptest.NewRequest(http.MethodGet, "/menu/list", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tea registered", decodeRendered(t, rec).Model["message"])
	assert.Nil(t, sessionCookie(rec), "an unchanged session is not re-issued")

	req = httptest.NewRequest(http.MethodGet, "/menu/list", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotContains(t, decodeRendered(t, rec).Model, "message")
}

func TestHandler_LogoutClearsCookie(t *testing.T) {
	t.Parallel()

	h := MustNew(lectureDispatcher(t))
	req := httptest.NewRequest(http.MethodPost, "/member/login?id=user01", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	req = httptest.NewRequest(http.MethodPost, "/member/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Empty(t, cleared.Value)
}

func TestHandler_NoRouteProblems(t *testing.T) {
	t.Parallel()

	h := MustNew(lectureDispatcher(t))

	tests := []struct {
		name   string
		method string
		path   string
		status int
		allow  string
		code   string
	}{
		{"unknown path", http.MethodGet, "/nowhere", http.StatusNotFound, "", "no_route_found"},
		{"verb mismatch", http.MethodDelete, "/menu/list", http.StatusMethodNotAllowed, "GET", "no_route_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.allow, rec.Header().Get("Allow"))

			var problem map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.InDelta(t, tt.status, problem["status"], 0)
			assert.Equal(t, tt.code, problem["code"])
			assert.Equal(t, tt.path, problem["instance"])
		})
	}
}

func TestHandler_MappedFailureRendersErrorView(t *testing.T) {
	t.Parallel()

	h := MustNew(lectureDispatcher(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	out := decodeRendered(t, rec)
	assert.Equal(t, "error/default", out.View)
	assert.Contains(t, out.Model["exception"], "boom")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/detail/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_BodyLimit(t *testing.T) {
	t.Parallel()

	h := MustNew(lectureDispatcher(t), WithBodyLimit(8))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/menu/echo", strings.NewReader("short")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "short", decodeRendered(t, rec).Model["body"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/menu/echo", strings.NewReader("far too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "body_too_large")
}

func TestHandler_FormKeepsWellFormedPairs(t *testing.T) {
	t.Parallel()

	h := MustNew(lectureDispatcher(t))

	req := httptest.NewRequest(http.MethodPost, "/menu/regist", strings.NewReader("name=Tea&price=10&note=50%off"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/menu/list", rec.Header().Get("Location"))
}

func TestHandler_MultipartUpload(t *testing.T) {
	t.Parallel()

	h := MustNew(lectureDispatcher(t))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("singleFileDescription", "profile"))
	part, err := w.CreateFormFile("singleFile", "cat.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("12345"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/file/single", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeRendered(t, rec)
	assert.Equal(t, "file/result", out.View)
	assert.Equal(t, "cat.png", out.Model["originFileName"])
	assert.InDelta(t, 5, out.Model["size"], 0)
	assert.Equal(t, "profile", out.Model["fileDescription"])
}

func TestHandler_MalformedMultipart(t *testing.T) {
	t.Parallel()

	h := MustNew(lectureDispatcher(t))

	req := httptest.NewRequest(http.MethodPost, "/file/single", strings.NewReader("--x\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nva"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_multipart")
}

func TestHandler_RequestID(t *testing.T) {
	t.Parallel()

	d := lectureDispatcher(t)

	h := MustNew(d)
	req := httptest.NewRequest(http.MethodGet, "/menu/list", nil)
	req.Header.Set(DefaultRequestIDHeader, "client-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-id", rec.Header().Get(DefaultRequestIDHeader))

	h = MustNew(d, WithClientRequestID(false), WithRequestIDGenerator(func() string { return "generated" }))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "generated", rec.Header().Get(DefaultRequestIDHeader))
}

func TestHandler_TemplateRenderer(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"templates/order/detail.html": {Data: []byte(`<p>order {{.orderNo}}</p>`)},
	}
	renderer, err := NewTemplateRenderer(fsys)
	require.NoError(t, err)

	h := MustNew(lectureDispatcher(t), WithRenderer(renderer))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/detail/7", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<p>order 7</p>", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu/list", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "render_failed")
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilDispatcher)

	d := dispatch.MustNew()
	_, err = New(d, WithBodyLimit(0), WithSessionCookie(""), WithRenderer(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "body limit")
	assert.Contains(t, err.Error(), "cookie")
	assert.Contains(t, err.Error(), "renderer")

	assert.Panics(t, func() { MustNew(nil) })
}
