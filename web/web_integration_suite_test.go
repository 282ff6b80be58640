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

//go:build integration

package web_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/mvc/binding"
	"rivaas.dev/mvc/dispatch"
	"rivaas.dev/mvc/metrics"
	"rivaas.dev/mvc/tracing"
	"rivaas.dev/mvc/view"
	"rivaas.dev/mvc/web"
)

var templates = fstest.MapFS{
	"templates/menu/list.html":     {Data: []byte(`{{with .message}}<p class="flash">{{.}}</p>{{end}}<ul>{{range .menus}}<li>{{.}}</li>{{end}}</ul>`)},
	"templates/error/default.html": {Data: []byte(`<h1>error</h1>`)},
}

var _ = Describe("Web Integration", func() {
	var (
		base     string
		client   *http.Client
		cancel   context.CancelFunc
		done     chan error
		recorder *metrics.Recorder
	)

	BeforeEach(func() {
		var err error
		recorder, err = metrics.New(metrics.WithPrometheus(), metrics.WithServiceName("lecture"))
		Expect(err).NotTo(HaveOccurred())
		tracer := tracing.MustNew(tracing.WithNoop())

		menus := []string{"americano"}
		d := dispatch.MustNew(
			dispatch.WithMetrics(recorder),
			dispatch.WithTracer(tracer),
			dispatch.WithExceptionMappings(map[string]string{"HandlerError": "error/default"}),
		)
		menu := d.Group("/menu")
		Expect(menu.Get("/list", func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
			return view.ForwardTo("menu/list", map[string]any{"menus": menus}), nil
		})).To(Succeed())
		Expect(menu.Post("/regist", func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
			name := dispatch.Arg[string](call, 0)
			menus = append(menus, name)
			return view.Redirect{Path: "/menu/list"}.WithFlash("message", name+" registered"), nil
		}, binding.Query[string]("name"), binding.Query[int]("price"))).To(Succeed())

		renderer, err := web.NewTemplateRenderer(templates)
		Expect(err).NotTo(HaveOccurred())

		mux := http.NewServeMux()
		mux.Handle("/metrics", recorder.Handler())
		mux.Handle("/", web.Chain(web.MustNew(d, web.WithRenderer(renderer)),
			tracing.Middleware(tracer),
			metrics.Middleware(recorder, metrics.WithExcludePaths("/metrics")),
			web.Compress(),
		))

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		base = "http://" + ln.Addr().String()

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() {
			done <- web.NewServer(mux, web.WithH2C(), web.OnShutdown(recorder.Shutdown)).Serve(ctx, ln)
		}()

		jar, err := cookiejar.New(nil)
		Expect(err).NotTo(HaveOccurred())
		client = &http.Client{Jar: jar, Timeout: 5 * time.Second}
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("shows a flash message exactly once after registering a menu", func() {
		resp, err := client.PostForm(base+"/menu/regist", url.Values{"name": {"latte"}, "price": {"5000"}})
		Expect(err).NotTo(HaveOccurred())
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Request.URL.Path).To(Equal("/menu/list"))
		Expect(string(body)).To(ContainSubstring(`<p class="flash">latte registered</p>`))
		Expect(string(body)).To(ContainSubstring("<li>latte</li>"))

		resp, err = client.Get(base + "/menu/list")
		Expect(err).NotTo(HaveOccurred())
		body, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		Expect(string(body)).NotTo(ContainSubstring("flash"))
	})

	It("renders the mapped error view for a bad parameter", func() {
		resp, err := client.PostForm(base+"/menu/regist", url.Values{"name": {"latte"}, "price": {"free"}})
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("answers unknown paths with problem details", func() {
		resp, err := client.Get(base + "/nowhere")
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		Expect(resp.Header.Get("Content-Type")).To(HavePrefix("application/problem+json"))
	})

	It("exposes dispatch metrics", func() {
		resp, err := client.Get(base + "/menu/list")
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()

		resp, err = client.Get(base + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		Expect(strings.Contains(string(body), "mvc_dispatch_count")).To(BeTrue())
	})
})

//nolint:paralleltest // Ginkgo test suite manages its own parallelization
func TestWebIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	RegisterFailHandler(Fail)
	RunSpecs(t, "Web Integration Suite")
}
