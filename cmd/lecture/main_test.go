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

package main

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/mvc/config"
)

const testSettings = `
view:
  fallback: error/unhandled
server:
  compress: true
logging:
  level: debug
  format: text
metrics:
  provider: prometheus
exceptions:
  Timeout: error/default
`

func newTestApp(t *testing.T) *application {
	t.Helper()

	file := filepath.Join(t.TempDir(), "lecture.yaml")
	require.NoError(t, os.WriteFile(file, []byte(testSettings), 0o600))

	settings, err := config.LoadSettings(context.Background(), file)
	require.NoError(t, err)
	settings.Server.Uploads = t.TempDir()

	app, err := newApplication(settings, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.recorder.Shutdown(context.Background()) })

	return app
}

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	app := newTestApp(t)
	srv := httptest.NewServer(app.handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return srv, &http.Client{Jar: jar}
}

func fetch(t *testing.T, resp *http.Response, err error) (int, string) {
	t.Helper()
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestLecture_Main(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	for _, p := range []string{"/", "/main"} {
		status, body := fetch(t, client.Get(srv.URL+p))
		assert.Equal(t, http.StatusOK, status, p)
		assert.Contains(t, body, "<h1>main</h1>", p)
	}
}

func TestLecture_MenuRegistFlash(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	status, body := fetch(t, client.PostForm(srv.URL+"/menu/regist", url.Values{
		"name":            {"Latte"},
		"price":           {"4000"},
		"categoryCode":    {"1"},
		"orderableStatus": {"true"},
	}))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<p class="flash">Latte registered</p>`)
	assert.Contains(t, body, "<td>Latte</td><td>4000</td>")
	assert.Contains(t, body, `class="interval"`)

	_, body = fetch(t, client.Get(srv.URL+"/menu/list"))
	assert.NotContains(t, body, "registered", "flash is shown once")
	assert.Contains(t, body, "<td>Latte</td>")
}

func TestLecture_MenuRegistRejected(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	status, body := fetch(t, client.PostForm(srv.URL+"/menu/regist", url.Values{
		"name":  {"Americano"},
		"price": {"3000"},
	}))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "already registered")
	assert.Contains(t, body, `<form action="/menu/regist"`)

	status, body = fetch(t, client.PostForm(srv.URL+"/menu/regist", url.Values{
		"name":  {" "},
		"price": {"0"},
	}))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "name failed required; price failed gt=0")

	status, _ = fetch(t, client.PostForm(srv.URL+"/menu/regist", url.Values{
		"name":  {"Mocha"},
		"price": {"cheap"},
	}))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLecture_FileUpload(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	srv := httptest.NewServer(app.handler)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("singleFileDescription", "menu photo"))
	part, err := w.CreateFormFile("singleFile", "latte.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	status, body := fetch(t, client.Post(srv.URL+"/file/single-file", w.FormDataContentType(), &buf))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<dd>latte.png</dd>")
	assert.Contains(t, body, "<dd>menu photo</dd>")

	saved := regexp.MustCompile(`<dt>saved as</dt><dd>([^<]+)</dd>`).FindStringSubmatch(body)
	require.Len(t, saved, 2)
	assert.NotEqual(t, "latte.png", saved[1])
	assert.Equal(t, ".png", filepath.Ext(saved[1]))
	content, err := os.ReadFile(filepath.Join(app.settings.Server.Uploads, saved[1]))
	require.NoError(t, err)
	assert.Equal(t, "not really a png", string(content))

	_, body = fetch(t, client.Get(srv.URL+"/file/result"))
	assert.Contains(t, body, "nothing uploaded", "flash is shown once")
}

func TestLecture_FileUploadRejected(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("singleFileDescription", "nothing attached"))
	require.NoError(t, w.Close())

	status, body := fetch(t, client.Post(srv.URL+"/file/single-file", w.FormDataContentType(), &buf))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "no file selected")
	assert.Contains(t, body, `enctype="multipart/form-data"`)
}

func TestLecture_OrderDetail(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	status, body := fetch(t, client.Get(srv.URL+"/order/detail/42"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h1>order 42</h1>")
	assert.Contains(t, body, "total 6500")

	status, body = fetch(t, client.Get(srv.URL+"/order/detail/7"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "order not found")

	status, _ = fetch(t, client.Get(srv.URL+"/order/detail/abc"))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLecture_MemberSession(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	_, body := fetch(t, client.Get(srv.URL+"/member/mypage"))
	assert.Contains(t, body, `<form action="/member/login"`, "anonymous visitors are sent to login")

	_, body = fetch(t, client.PostForm(srv.URL+"/member/login", url.Values{}))
	assert.Contains(t, body, "enter a member id")

	status, body := fetch(t, client.PostForm(srv.URL+"/member/login", url.Values{"id": {"hong"}}))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "welcome hong")

	_, body = fetch(t, client.Get(srv.URL+"/member/mypage"))
	assert.Contains(t, body, "welcome hong")

	_, body = fetch(t, client.PostForm(srv.URL+"/member/logout", url.Values{}))
	assert.Contains(t, body, "<h1>main</h1>")

	_, body = fetch(t, client.Get(srv.URL+"/member/mypage"))
	assert.Contains(t, body, `<form action="/member/login"`)
}

func TestLecture_ExceptionHandlers(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	tests := []struct {
		path string
		view string
		text string
	}{
		{"/exception/controller-null", "error/nullPointer", "nil pointer dereference"},
		{"/exception/controller-user", "error/memberRegist", "we cannot accept you as a member"},
		{"/other-controller-null", "error/nullPointer", "nil pointer dereference"},
		{"/other-controller-user", "error/memberRegist", "we cannot accept you as a member"},
		{"/other-controller-parse", "error/default", "invalid syntax"},
	}

	for _, tt := range tests {
		status, body := fetch(t, client.Get(srv.URL+tt.path))
		assert.Equal(t, http.StatusInternalServerError, status, tt.path)
		assert.Contains(t, body, `<h1 class="view">`+tt.view+`</h1>`, tt.path)
		assert.Contains(t, body, tt.text, tt.path)
	}
}

func TestLecture_NoRouteAndMetrics(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	resp, err := client.Get(srv.URL + "/nowhere")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")

	status, body := fetch(t, client.Get(srv.URL+"/metrics"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "mvc_dispatch")
}

func TestPrintBanner(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	var buf bytes.Buffer
	printBanner(&buf, ":8080", app.dispatcher.Routes())

	out := buf.String()
	assert.Contains(t, out, "listening on")
	assert.Contains(t, out, ":8080")
	assert.Contains(t, out, "/order/detail/{orderNo}")
	assert.Contains(t, out, "orderNo")
	assert.Contains(t, out, "POST")
	assert.NotContains(t, out, "\x1b[", "no colors when not writing to a terminal")
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	err := run([]string{"-nope"}, io.Discard, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "-nope")

	err = run([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, io.Discard, io.Discard)
	require.Error(t, err)
}
