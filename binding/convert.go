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
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

func (c *config) findConverter(t reflect.Type) (TypeConverter, bool) {
	if conv, ok := c.converters[t]; ok {
		return conv, false
	}
	if t.Kind() == reflect.Pointer {
		if conv, ok := c.converters[t.Elem()]; ok {
			return conv, true
		}
	}

	return nil, false
}

// convert turns a raw string into a value of type t.
func (c *config) convert(raw string, t reflect.Type) (reflect.Value, error) {
	if conv, wrap := c.findConverter(t); conv != nil {
		return fromConverter(conv, raw, t, wrap)
	}

	if t.Kind() == reflect.Pointer {
		if raw == "" {
			return reflect.Zero(t), nil
		}
		elem, err := c.convert(raw, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)

		return p, nil
	}

	switch t {
	case timeType:
		return c.parseTime(raw)
	case durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)

	case reflect.Bool:
		switch strings.ToLower(raw) {
		case "true":
			v.SetBool(true)
		case "false":
			v.SetBool(false)
		default:
			return reflect.Value{}, fmt.Errorf("%w: %q", ErrInvalidBooleanValue, raw)
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return reflect.Value{}, fmt.Errorf("%q is not a finite number", raw)
		}
		v.SetFloat(f)

	case reflect.Slice:
		parts := strings.Split(raw, ",")
		s := reflect.MakeSlice(t, 0, len(parts))
		for _, part := range parts {
			elem, err := c.convert(strings.TrimSpace(part), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			s = reflect.Append(s, elem)
		}
		v.Set(s)

	default:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	return v, nil
}

func fromConverter(conv TypeConverter, raw string, t reflect.Type, wrap bool) (reflect.Value, error) {
	out, err := conv(raw)
	if err != nil {
		return reflect.Value{}, err
	}

	target := t
	if wrap {
		target = t.Elem()
	}
	rv := reflect.ValueOf(out)
	if !rv.IsValid() {
		return reflect.Zero(t), nil
	}
	if !rv.Type().AssignableTo(target) {
		return reflect.Value{}, fmt.Errorf("%w: converter returned %s for %s", ErrUnsupportedType, rv.Type(), target)
	}
	if wrap {
		p := reflect.New(target)
		p.Elem().Set(rv)
		return p, nil
	}

	return rv, nil
}

func (c *config) parseTime(raw string) (reflect.Value, error) {
	var lastErr error
	for _, layout := range c.timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return reflect.ValueOf(t), nil
		}
		lastErr = err
	}

	return reflect.Value{}, fmt.Errorf("unable to parse time %q: %w", raw, lastErr)
}

// convertValue adapts a session attribute of any type to t.
func (c *config) convertValue(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if s, ok := value.(string); ok {
		return c.convert(s, t)
	}

	v := reflect.New(t).Elem()
	switch {
	case t == timeType:
		tm, err := cast.ToTimeE(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(tm), nil

	case t == durationType:
		d, err := cast.ToDurationE(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}

	switch t.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(value)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetString(s)

	case reflect.Bool:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(value)
		if err != nil {
			return reflect.Value{}, err
		}
		if v.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s", n, t)
		}
		v.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(value)
		if err != nil {
			return reflect.Value{}, err
		}
		if v.OverflowUint(n) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s", n, t)
		}
		v.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)

	default:
		return reflect.Value{}, fmt.Errorf("%w: cannot assign %T to %s", ErrUnsupportedType, value, t)
	}

	return v, nil
}
