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
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	mvcerrors "rivaas.dev/mvc/errors"
)

// RateLimitOption configures [RateLimit].
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	rps      float64
	burst    int
	ttl      time.Duration
	key      func(*http.Request) string
	problems mvcerrors.Formatter
	logger   *slog.Logger
	now      func() time.Time
}

// WithRequestsPerSecond sets the sustained rate per client. Default: 100.
func WithRequestsPerSecond(rps float64) RateLimitOption {
	return func(c *rateLimitConfig) {
		if rps > 0 {
			c.rps = rps
		}
	}
}

// WithBurst sets how many requests a client may make at once. Default: 20.
func WithBurst(burst int) RateLimitOption {
	return func(c *rateLimitConfig) {
		if burst > 0 {
			c.burst = burst
		}
	}
}

// WithLimiterTTL forgets clients idle for d. Default: 5m.
func WithLimiterTTL(d time.Duration) RateLimitOption {
	return func(c *rateLimitConfig) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithRateLimitKey derives the client key. Default: the remote IP.
func WithRateLimitKey(fn func(*http.Request) string) RateLimitOption {
	return func(c *rateLimitConfig) {
		if fn != nil {
			c.key = fn
		}
	}
}

// WithRateLimitLogger sets the logger for rejected requests.
func WithRateLimitLogger(logger *slog.Logger) RateLimitOption {
	return func(c *rateLimitConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// RemoteIP returns the host part of r.RemoteAddr.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

type clientLimiter struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimit returns middleware applying a token bucket per client.
// Rejected requests get 429 with a Retry-After header and a problem body.
func RateLimit(opts ...RateLimitOption) func(http.Handler) http.Handler {
	cfg := &rateLimitConfig{
		rps:      100,
		burst:    20,
		ttl:      5 * time.Minute,
		key:      RemoteIP,
		problems: mvcerrors.NewRFC9457(""),
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var (
		mu      sync.Mutex
		clients = map[string]*clientLimiter{}
		pruned  = cfg.now()
	)

	reserve := func(key string, now time.Time) *rate.Reservation {
		mu.Lock()
		defer mu.Unlock()

		if now.Sub(pruned) >= cfg.ttl {
			for k, c := range clients {
				if now.Sub(c.seen) >= cfg.ttl {
					delete(clients, k)
				}
			}
			pruned = now
		}

		c, ok := clients[key]
		if !ok {
			c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.rps), cfg.burst)}
			clients[key] = c
		}
		c.seen = now

		return c.limiter.ReserveN(now, 1)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := cfg.now()
			key := cfg.key(r)
			res := reserve(key, now)
			if delay := res.DelayFrom(now); delay > 0 {
				res.CancelAt(now)
				cfg.logger.Debug("rate limit exceeded", "client", key, "retry_after", delay)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				writeProblem(w, r, cfg.problems, &statusError{
					status: http.StatusTooManyRequests,
					code:   "rate_limited",
					err:    ErrRateLimited,
				}, cfg.logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
