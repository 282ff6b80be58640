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

// Package request defines the Request value the dispatch core consumes.
//
// A Request is built by the embedding transport (see package web) and is
// the only way data enters the core. It is created per incoming call and
// discarded once dispatch completes.
package request

import (
	"maps"
	"mime"
	"net/textproto"
	"net/url"
	"strings"
)

// Content types recognised when reading parameters from the body.
const (
	ContentTypeForm      = "application/x-www-form-urlencoded"
	ContentTypeJSON      = "application/json"
	ContentTypeMultipart = "multipart/form-data"
)

// Request is one incoming call.
//
// Query holds one value per key; when a key repeats, the last value wins.
// Header keys are canonicalized, so lookups through [Request.HeaderValue]
// are case-insensitive. PathVars is filled by the router during matching.
// Fields and Files hold the parts of a multipart body once
// [Request.ParseMultipart] has run.
type Request struct {
	Verb      string
	Path      string
	Query     map[string]string
	PathVars  map[string]string
	Body      []byte
	Fields    map[string]string
	Files     map[string]File
	Header    map[string]string
	Cookies   map[string]string
	SessionID string
	RequestID string
	Remote    string
}

// New creates a Request for verb and target. The target may carry a query
// string, which is parsed with last-value-wins semantics.
func New(verb, target string) *Request {
	r := &Request{
		Verb:     strings.ToUpper(verb),
		Query:    map[string]string{},
		PathVars: map[string]string{},
		Header:   map[string]string{},
		Cookies:  map[string]string{},
	}

	path, rawQuery, _ := strings.Cut(target, "?")
	r.Path = path
	if rawQuery != "" {
		// Malformed pairs are dropped; the well-formed ones are kept.
		values, _ := url.ParseQuery(rawQuery)
		r.Query = LastValues(values)
	}

	return r
}

// WithHeader sets a header and returns r for chaining.
func (r *Request) WithHeader(key, value string) *Request {
	if r.Header == nil {
		r.Header = map[string]string{}
	}
	r.Header[textproto.CanonicalMIMEHeaderKey(key)] = value

	return r
}

// WithCookie sets a cookie and returns r for chaining.
func (r *Request) WithCookie(name, value string) *Request {
	if r.Cookies == nil {
		r.Cookies = map[string]string{}
	}
	r.Cookies[name] = value

	return r
}

// WithBody sets the body and its content type and returns r for chaining.
func (r *Request) WithBody(contentType string, body []byte) *Request {
	r.Body = body
	if contentType != "" {
		r.WithHeader("Content-Type", contentType)
	}

	return r
}

// WithForm encodes values as an urlencoded body.
func (r *Request) WithForm(values url.Values) *Request {
	return r.WithBody(ContentTypeForm, []byte(values.Encode()))
}

// WithSession sets the session id and returns r for chaining.
func (r *Request) WithSession(id string) *Request {
	r.SessionID = id
	return r
}

// HeaderValue returns the header value for key, ignoring case.
func (r *Request) HeaderValue(key string) (string, bool) {
	v, ok := r.Header[textproto.CanonicalMIMEHeaderKey(key)]
	if ok {
		return v, true
	}
	// Headers set directly on the map may not be canonical.
	for k, v := range r.Header {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}

	return "", false
}

// MediaType returns the Content-Type without parameters, lower-cased.
func (r *Request) MediaType() string {
	ct, ok := r.HeaderValue("Content-Type")
	if !ok || ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}

	return mt
}

// Params returns the merged parameter space: query parameters overlaid
// with form parameters from the body, urlencoded or multipart. Form values
// win over query values for the same key. The result is a fresh map.
func (r *Request) Params() map[string]string {
	params := make(map[string]string, len(r.Query))
	maps.Copy(params, r.Query)
	maps.Copy(params, r.Form())

	return params
}

// Form returns the form parameters carried by the body. An urlencoded body
// is parsed when the content type is the form type, or when no content
// type is set on a request that carries a body; malformed pairs are
// dropped and the rest kept. A multipart body yields its non-file fields.
// Anything else yields an empty map.
func (r *Request) Form() map[string]string {
	if r.Fields != nil {
		return maps.Clone(r.Fields)
	}
	if len(r.Body) == 0 {
		return map[string]string{}
	}

	switch r.MediaType() {
	case ContentTypeForm, "":
		values, _ := url.ParseQuery(string(r.Body))
		return LastValues(values)
	case ContentTypeMultipart:
		fields, _, err := r.readMultipart()
		if err != nil {
			return map[string]string{}
		}
		return fields
	default:
		return map[string]string{}
	}
}

// Clone returns a deep copy of r.
func (r *Request) Clone() *Request {
	c := *r
	c.Query = maps.Clone(r.Query)
	c.PathVars = maps.Clone(r.PathVars)
	c.Header = maps.Clone(r.Header)
	c.Cookies = maps.Clone(r.Cookies)
	c.Fields = maps.Clone(r.Fields)
	if r.Files != nil {
		c.Files = make(map[string]File, len(r.Files))
		for k, f := range r.Files {
			f.Content = append([]byte(nil), f.Content...)
			c.Files[k] = f
		}
	}
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}

	return &c
}

// LastValues flattens url.Values keeping the last value of each key.
func LastValues(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[len(vs)-1]
		}
	}

	return out
}
