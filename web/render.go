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
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
)

// ErrViewNotFound is returned when no template exists for a view.
var ErrViewNotFound = errors.New("web: view not found")

// Renderer writes a view with its model.
type Renderer interface {
	Render(w io.Writer, view string, model map[string]any) error
	ContentType() string
}

// TemplateOption configures a [TemplateRenderer].
type TemplateOption func(*TemplateRenderer)

// WithPrefix sets the prefix joined to view names. The default is
// "templates/".
func WithPrefix(prefix string) TemplateOption {
	return func(r *TemplateRenderer) {
		r.prefix = prefix
	}
}

// WithSuffix sets the suffix joined to view names. The default is ".html".
func WithSuffix(suffix string) TemplateOption {
	return func(r *TemplateRenderer) {
		r.suffix = suffix
	}
}

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) TemplateOption {
	return func(r *TemplateRenderer) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

// TemplateRenderer renders html/template files. The view "menu/list"
// renders the file prefix+"menu/list"+suffix of its file system.
type TemplateRenderer struct {
	prefix string
	suffix string
	funcs  template.FuncMap
	views  map[string]*template.Template
}

// NewTemplateRenderer parses every file under the prefix of fsys that
// carries the suffix. Each file is a separate template set, so files may
// define blocks of the same name.
func NewTemplateRenderer(fsys fs.FS, opts ...TemplateOption) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		prefix: "templates/",
		suffix: ".html",
		funcs:  template.FuncMap{},
		views:  map[string]*template.Template{},
	}
	for _, opt := range opts {
		opt(r)
	}

	root := strings.TrimSuffix(r.prefix, "/")
	if root == "" {
		root = "."
	}
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, r.suffix) {
			return nil
		}
		name := strings.TrimSuffix(p, r.suffix)
		if root != "." {
			name = strings.TrimPrefix(name, root+"/")
		}
		t, err := template.New(d.Name()).Funcs(r.funcs).ParseFS(fsys, p)
		if err != nil {
			return fmt.Errorf("web: parse %s: %w", p, err)
		}
		r.views[name] = t

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Render executes the template of view with model as its data.
func (r *TemplateRenderer) Render(w io.Writer, view string, model map[string]any) error {
	t, ok := r.views[view]
	if !ok {
		return fmt.Errorf("%w: %s (%s%s%s)", ErrViewNotFound, view, r.prefix, view, r.suffix)
	}

	return t.Execute(w, model)
}

// ContentType returns the HTML content type.
func (r *TemplateRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Views returns the number of parsed views.
func (r *TemplateRenderer) Views() int {
	return len(r.views)
}

// JSONRenderer writes the view name and model as JSON. Error values in
// the model are written as their messages.
type JSONRenderer struct{}

// Render encodes {"view": view, "model": model}.
func (JSONRenderer) Render(w io.Writer, view string, model map[string]any) error {
	out := make(map[string]any, len(model))
	for k, v := range model {
		if err, ok := v.(error); ok {
			out[k] = err.Error()
			continue
		}
		out[k] = v
	}

	return json.NewEncoder(w).Encode(map[string]any{"view": view, "model": out})
}

// ContentType returns the JSON content type.
func (JSONRenderer) ContentType() string {
	return "application/json; charset=utf-8"
}
