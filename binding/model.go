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
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"

	"rivaas.dev/mvc/request"
)

// TagParam names the struct tag read by model binding. A tag of "-"
// skips the field; an untagged exported field binds under its name with
// the first letter lower-cased ("OriginFileName" binds "originFileName").
const TagParam = "param"

type fieldInfo struct {
	index []int
	name  string
	typ   reflect.Type
}

// fieldCache maps a struct type to its bindable fields.
var fieldCache sync.Map

func structFields(t reflect.Type) []fieldInfo {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	fields := collectFields(t, nil)
	actual, _ := fieldCache.LoadOrStore(t, fields)

	return actual.([]fieldInfo)
}

func collectFields(t reflect.Type, parent []int) []fieldInfo {
	var fields []fieldInfo
	for i := range t.NumField() {
		f := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get(TagParam) == "" {
			fields = append(fields, collectFields(f.Type, index)...)
			continue
		}
		if !f.IsExported() {
			continue
		}

		name := f.Tag.Get(TagParam)
		switch name {
		case "-":
			continue
		case "":
			name = lowerFirst(f.Name)
		}
		fields = append(fields, fieldInfo{index: index, name: name, typ: f.Type})
	}

	return fields
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToLower(r)) + s[size:]
}

// bindStruct builds a value of type t, a struct or pointer to struct, from
// params. Fields of type [request.File] or *[request.File] are looked up
// through file when it is non-nil. Fields without a matching parameter
// keep their zero value.
func (c *config) bindStruct(spec Spec, params map[string]string, file func(string) (request.File, bool)) (reflect.Value, error) {
	t := spec.Type
	isPtr := t.Kind() == reflect.Pointer
	if isPtr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return reflect.Value{}, conversion(spec, "", ErrUnsupportedType)
	}

	p := reflect.New(t)
	target := p.Elem()
	for _, f := range structFields(t) {
		if f.typ == fileType || f.typ == filePtrType {
			if file == nil {
				continue
			}
			if upload, ok := file(f.name); ok {
				v, _ := fileValue(Spec{Type: f.typ}, upload)
				target.FieldByIndex(f.index).Set(reflect.ValueOf(v))
			}
			continue
		}
		raw, ok := params[f.name]
		if !ok {
			continue
		}
		val, err := c.convert(raw, f.typ)
		if err != nil {
			return reflect.Value{}, &Error{
				Field:  spec.Name + "." + f.name,
				Source: spec.Source,
				Value:  raw,
				Type:   f.typ,
				Err:    err,
			}
		}
		target.FieldByIndex(f.index).Set(val)
	}

	if isPtr {
		return p, nil
	}

	return target, nil
}
