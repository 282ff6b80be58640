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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	limit := RateLimit(WithRequestsPerSecond(1), WithBurst(2), func(c *rateLimitConfig) {
		c.now = func() time.Time { return now }
	})
	h := limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/menu/list", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, serve("192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, serve("192.0.2.1:1001").Code)

	rec := serve("192.0.2.1:1002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	assert.Contains(t, rec.Body.String(), "rate_limited")

	assert.Equal(t, http.StatusNoContent, serve("192.0.2.2:1000").Code, "clients are limited independently")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, serve("192.0.2.1:1003").Code, "tokens refill")
}

func TestRateLimit_CustomKeyAndPrune(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	limit := RateLimit(
		WithRequestsPerSecond(0.001),
		WithBurst(1),
		WithLimiterTTL(time.Minute),
		WithRateLimitKey(func(r *http.Request) string { return r.Header.Get("X-Client") }),
		func(c *rateLimitConfig) { c.now = func() time.Time { return now } },
	)
	h := limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve("a"))
	assert.Equal(t, http.StatusTooManyRequests, serve("a"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusNoContent, serve("a"), "an idle client starts with a full bucket")
}

func TestRemoteIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", RemoteIP(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", RemoteIP(req))
}
