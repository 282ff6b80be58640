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
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// CompressOption configures [Compress].
type CompressOption func(*compressConfig)

type compressConfig struct {
	logger              *slog.Logger
	gzipLevel           int
	brotliLevel         int
	enableGzip          bool
	enableBrotli        bool
	excludePaths        map[string]bool
	excludeContentTypes map[string]bool
}

func defaultCompressConfig() *compressConfig {
	return &compressConfig{
		gzipLevel:           gzip.DefaultCompression,
		brotliLevel:         4,
		enableGzip:          true,
		enableBrotli:        true,
		excludePaths:        map[string]bool{},
		excludeContentTypes: map[string]bool{},
	}
}

// WithGzipLevel sets the gzip level, from 0 to 9.
func WithGzipLevel(level int) CompressOption {
	return func(cfg *compressConfig) {
		cfg.gzipLevel = max(gzip.HuffmanOnly, min(level, gzip.BestCompression))
	}
}

// WithBrotliLevel sets the Brotli level, clamped to [0, 11]. Rendered
// pages are dynamic content, so levels above 5 rarely pay off.
func WithBrotliLevel(level int) CompressOption {
	return func(cfg *compressConfig) {
		cfg.brotliLevel = max(0, min(level, 11))
	}
}

// WithBrotliDisabled compresses with gzip only.
func WithBrotliDisabled() CompressOption {
	return func(cfg *compressConfig) {
		cfg.enableBrotli = false
	}
}

// WithGzipDisabled compresses with Brotli only.
func WithGzipDisabled() CompressOption {
	return func(cfg *compressConfig) {
		cfg.enableGzip = false
	}
}

// WithCompressExcludePaths leaves responses of the given paths alone.
//
// Example:
//
//	web.Compress(web.WithCompressExcludePaths("/metrics"))
func WithCompressExcludePaths(paths ...string) CompressOption {
	return func(cfg *compressConfig) {
		for _, p := range paths {
			cfg.excludePaths[p] = true
		}
	}
}

// WithCompressExcludeContentTypes leaves responses of the given content
// types alone.
func WithCompressExcludeContentTypes(contentTypes ...string) CompressOption {
	return func(cfg *compressConfig) {
		for _, ct := range contentTypes {
			cfg.excludeContentTypes[strings.ToLower(ct)] = true
		}
	}
}

// WithCompressLogger sets the logger for compression errors.
func WithCompressLogger(logger *slog.Logger) CompressOption {
	return func(cfg *compressConfig) {
		cfg.logger = logger
	}
}

// Compress returns middleware compressing responses with Brotli or gzip,
// chosen from the Accept-Encoding header of the request.
func Compress(opts ...CompressOption) func(http.Handler) http.Handler {
	cfg := defaultCompressConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.excludePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			encoding := chooseEncoding(r.Header.Get("Accept-Encoding"), cfg)
			if encoding == "" {
				next.ServeHTTP(w, r)
				return
			}

			var pool *sync.Pool
			if encoding == "br" {
				pool = brotliWriterPool(cfg.brotliLevel)
			} else {
				pool = gzipWriterPool(cfg.gzipLevel)
			}

			cw := &compressWriter{
				ResponseWriter:      w,
				pool:                pool,
				encoding:            encoding,
				excludeContentTypes: cfg.excludeContentTypes,
				statusCode:          http.StatusOK,
			}
			defer func() {
				if err := cw.Close(); err != nil && cfg.logger != nil {
					cfg.logger.Error("compression close failed", "encoding", encoding, "error", err)
				}
			}()

			next.ServeHTTP(cw, r)
		})
	}
}

// compressWriter compresses everything written after the status line,
// unless the status or content type rule compression out.
type compressWriter struct {
	http.ResponseWriter
	writer              io.WriteCloser
	pool                *sync.Pool
	encoding            string
	excludeContentTypes map[string]bool

	statusCode  int
	headersSent bool
	decided     bool
	compress    bool
}

// WriteHeader records the status and decides whether to compress.
func (cw *compressWriter) WriteHeader(code int) {
	if cw.headersSent {
		return
	}
	cw.statusCode = code
	cw.decide()
}

// Write compresses data when compression was chosen.
func (cw *compressWriter) Write(data []byte) (int, error) {
	if !cw.decided {
		cw.decide()
	}
	if cw.compress {
		return cw.writer.Write(data)
	}

	return cw.ResponseWriter.Write(data)
}

// Unwrap returns the underlying writer for [http.ResponseController].
func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

func (cw *compressWriter) decide() {
	cw.decided = true
	h := cw.ResponseWriter.Header()
	if skipStatus(cw.statusCode) || h.Get("Content-Encoding") != "" ||
		skipContentType(h.Get("Content-Type"), cw.excludeContentTypes) {
		cw.compress = false
		cw.ResponseWriter.WriteHeader(cw.statusCode)
		cw.headersSent = true

		return
	}

	cw.compress = true
	h.Del("Content-Length")
	h.Set("Content-Encoding", cw.encoding)
	h.Add("Vary", "Accept-Encoding")
	cw.ResponseWriter.WriteHeader(cw.statusCode)
	cw.headersSent = true

	switch cw.encoding {
	case "br":
		w := cw.pool.Get().(*brotli.Writer)
		w.Reset(cw.ResponseWriter)
		cw.writer = w
	case "gzip":
		w := cw.pool.Get().(*gzip.Writer)
		w.Reset(cw.ResponseWriter)
		cw.writer = w
	}
}

// Close flushes the compressor and returns it to its pool. A response
// without a body gets its status line here.
func (cw *compressWriter) Close() error {
	if !cw.decided {
		cw.decided = true
		if !cw.headersSent {
			cw.ResponseWriter.WriteHeader(cw.statusCode)
			cw.headersSent = true
		}

		return nil
	}
	if !cw.compress || cw.writer == nil {
		return nil
	}

	err := cw.writer.Close()
	switch w := cw.writer.(type) {
	case *brotli.Writer:
		w.Reset(nil)
	case *gzip.Writer:
		w.Reset(nil)
	}
	cw.pool.Put(cw.writer)
	cw.writer = nil

	return err
}

func skipStatus(code int) bool {
	return code < http.StatusOK ||
		code == http.StatusNoContent ||
		code == http.StatusNotModified ||
		code == http.StatusPartialContent
}

func skipContentType(ct string, excludes map[string]bool) bool {
	if ct == "" {
		return false
	}
	lower := strings.ToLower(ct)
	if strings.Contains(lower, "text/event-stream") ||
		strings.Contains(lower, "application/octet-stream") ||
		strings.HasPrefix(lower, "image/") {
		return true
	}
	for excluded := range excludes {
		if strings.Contains(lower, excluded) {
			return true
		}
	}

	return false
}

var (
	gzipWriterPools   = map[int]*sync.Pool{}
	brotliWriterPools = map[int]*sync.Pool{}
	poolsMu           sync.Mutex
)

func gzipWriterPool(level int) *sync.Pool {
	poolsMu.Lock()
	defer poolsMu.Unlock()

	pool, ok := gzipWriterPools[level]
	if !ok {
		pool = &sync.Pool{New: func() any {
			w, _ := gzip.NewWriterLevel(io.Discard, level)
			return w
		}}
		gzipWriterPools[level] = pool
	}

	return pool
}

func brotliWriterPool(level int) *sync.Pool {
	poolsMu.Lock()
	defer poolsMu.Unlock()

	pool, ok := brotliWriterPools[level]
	if !ok {
		pool = &sync.Pool{New: func() any {
			return brotli.NewWriterLevel(io.Discard, level)
		}}
		brotliWriterPools[level] = pool
	}

	return pool
}

// chooseEncoding picks Brotli over gzip at equal quality. An explicit
// q=0 rules an encoding out.
func chooseEncoding(acceptEncoding string, cfg *compressConfig) string {
	if acceptEncoding == "" {
		return ""
	}
	ae := strings.ToLower(acceptEncoding)
	brQ := qValue(ae, "br")
	gzipQ := qValue(ae, "gzip")

	if cfg.enableBrotli && brQ > 0 && brQ >= gzipQ {
		return "br"
	}
	if cfg.enableGzip && gzipQ > 0 {
		return "gzip"
	}

	return ""
}

// qValue returns -1 when encoding is absent, else its quality.
func qValue(accept, encoding string) float64 {
	for part := range strings.SplitSeq(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(name) != encoding {
			continue
		}
		for param := range strings.SplitSeq(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || k != "q" {
				continue
			}
			q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return 1
			}
			return q
		}
		return 1
	}

	return -1
}
