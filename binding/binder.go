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

package binding

import (
	"errors"
	"fmt"
	"maps"
	"reflect"

	"rivaas.dev/mvc/request"
)

// SessionReader exposes session attributes to [SourceSession] specs.
type SessionReader interface {
	Get(key string) (any, bool)
}

// Binder converts request data into handler arguments.
//
// Use [New] or [MustNew] to create one. A Binder is safe for concurrent
// use by multiple goroutines and never mutates the request.
type Binder struct {
	cfg *config
}

// New creates a [Binder] with the given options.
func New(opts ...Option) (*Binder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Binder{cfg: cfg}, nil
}

// MustNew creates a [Binder] with the given options.
// Panics if configuration is invalid.
func MustNew(opts ...Option) *Binder {
	b, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("binding.MustNew: %v", err))
	}

	return b
}

// Validate reports the first spec that can never bind.
func Validate(specs []Spec) error {
	for i, s := range specs {
		if s.Type == nil {
			return fmt.Errorf("%w: spec %d (%s %q) has no type", ErrInvalidSpec, i, s.Source, s.Name)
		}
		switch s.Source {
		case SourceQuery, SourcePath, SourceHeader, SourceCookie, SourceSession, SourceFile:
			if s.Name == "" {
				return fmt.Errorf("%w: spec %d (%s) has no name", ErrInvalidSpec, i, s.Source)
			}
		case SourceBody, SourceAll, SourceModel:
		default:
			return fmt.Errorf("%w: spec %d has unknown source", ErrInvalidSpec, i)
		}
	}

	return nil
}

// Bind produces one argument per spec, in order. sess may be nil when no
// spec reads the session. Every spec is evaluated: a missing required
// value is reported ahead of any conversion failure, whatever the spec
// order. Otherwise the first failure in spec order is returned.
func (b *Binder) Bind(req *request.Request, specs []Spec, sess SessionReader) ([]any, error) {
	args := make([]any, len(specs))
	var params map[string]string
	paramSpace := func() map[string]string {
		if params == nil {
			params = req.Params()
		}
		return params
	}

	var failed error
	for i, spec := range specs {
		v, err := b.bindOne(req, spec, sess, paramSpace)
		if err != nil {
			var bindErr *Error
			if errors.As(err, &bindErr) && bindErr.Missing {
				return nil, err
			}
			if failed == nil {
				failed = err
			}
			continue
		}
		args[i] = v
	}
	if failed != nil {
		return nil, failed
	}

	return args, nil
}

func (b *Binder) bindOne(req *request.Request, spec Spec, sess SessionReader, params func() map[string]string) (any, error) {
	if spec.Type == nil {
		return nil, conversion(spec, "", ErrInvalidSpec)
	}

	switch spec.Source {
	case SourceAll:
		return maps.Clone(params()), nil

	case SourceModel:
		space := maps.Clone(req.PathVars)
		if space == nil {
			space = map[string]string{}
		}
		maps.Copy(space, params())
		v, err := b.cfg.bindStruct(spec, space, req.File)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil

	case SourceFile:
		f, ok := req.File(spec.Name)
		if !ok {
			if spec.Required {
				return nil, missing(spec)
			}
			return reflect.Zero(spec.Type).Interface(), nil
		}
		return fileValue(spec, f)

	case SourceBody:
		return b.bindBody(req, spec)

	case SourceSession:
		var (
			value any
			ok    bool
		)
		if sess != nil {
			value, ok = sess.Get(spec.Name)
		}
		if !ok {
			return b.absent(spec)
		}
		v, err := b.cfg.convertValue(value, spec.Type)
		if err != nil {
			return nil, conversion(spec, fmt.Sprint(value), err)
		}
		return v.Interface(), nil
	}

	raw, ok := lookup(req, spec, params)
	if !ok || (raw == "" && spec.HasDefault) {
		return b.absent(spec)
	}

	return b.fromString(spec, raw)
}

func lookup(req *request.Request, spec Spec, params func() map[string]string) (string, bool) {
	switch spec.Source {
	case SourceQuery:
		v, ok := params()[spec.Name]
		return v, ok
	case SourcePath:
		v, ok := req.PathVars[spec.Name]
		return v, ok
	case SourceHeader:
		return req.HeaderValue(spec.Name)
	case SourceCookie:
		v, ok := req.Cookies[spec.Name]
		return v, ok
	default:
		return "", false
	}
}

func (b *Binder) absent(spec Spec) (any, error) {
	switch {
	case spec.HasDefault:
		return b.fromString(spec, spec.Default)
	case spec.Required:
		return nil, missing(spec)
	default:
		return reflect.Zero(spec.Type).Interface(), nil
	}
}

func (b *Binder) fromString(spec Spec, raw string) (any, error) {
	v, err := b.cfg.convert(raw, spec.Type)
	if err != nil {
		return nil, conversion(spec, raw, err)
	}

	return v.Interface(), nil
}

var (
	fileType    = reflect.TypeFor[request.File]()
	filePtrType = reflect.TypeFor[*request.File]()
	bytesType   = reflect.TypeFor[[]byte]()
	stringType  = reflect.TypeFor[string]()
	paramsType  = reflect.TypeFor[map[string]string]()
)

func fileValue(spec Spec, f request.File) (any, error) {
	switch spec.Type {
	case fileType:
		return f, nil
	case filePtrType:
		return &f, nil
	case bytesType:
		return f.Content, nil
	default:
		return nil, conversion(spec, f.Filename, ErrUnsupportedType)
	}
}

func (b *Binder) bindBody(req *request.Request, spec Spec) (any, error) {
	if len(req.Body) == 0 {
		return b.absent(spec)
	}

	switch spec.Type {
	case stringType:
		return string(req.Body), nil
	case bytesType:
		return append([]byte(nil), req.Body...), nil
	}

	mt := req.MediaType()
	if mt == "" || mt == request.ContentTypeForm || mt == request.ContentTypeMultipart {
		if spec.Type == paramsType {
			return req.Form(), nil
		}
		v, err := b.cfg.bindStruct(spec, req.Form(), req.File)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}

	dec, ok := b.cfg.decoderFor(mt)
	if !ok {
		return nil, conversion(spec, mt, ErrUnsupportedContentType)
	}

	t := spec.Type
	if t.Kind() == reflect.Pointer {
		p := reflect.New(t.Elem())
		if err := dec(req.Body, p.Interface()); err != nil {
			return nil, conversion(spec, "", err)
		}
		return p.Interface(), nil
	}

	p := reflect.New(t)
	if err := dec(req.Body, p.Interface()); err != nil {
		return nil, conversion(spec, "", err)
	}

	return p.Elem().Interface(), nil
}
