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
	"fmt"
	"reflect"
	"strings"
	"time"
)

// TypeConverter converts a raw string to a value of a registered type.
type TypeConverter func(string) (any, error)

// Decoder decodes a request body into out, which is a non-nil pointer.
type Decoder func(body []byte, out any) error

// Option configures a [Binder].
type Option func(*config)

type config struct {
	converters  map[reflect.Type]TypeConverter
	decoders    map[string]Decoder
	timeLayouts []string
}

var defaultTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
}

func defaultConfig() *config {
	return &config{
		converters:  map[reflect.Type]TypeConverter{},
		decoders:    defaultDecoders(),
		timeLayouts: defaultTimeLayouts,
	}
}

func (c *config) validate() error {
	for t, conv := range c.converters {
		if t == nil || conv == nil {
			return fmt.Errorf("%w: nil converter registration", ErrInvalidSpec)
		}
	}
	for mt, dec := range c.decoders {
		if mt == "" || dec == nil {
			return fmt.Errorf("%w: decoder for %q", ErrInvalidSpec, mt)
		}
	}
	if len(c.timeLayouts) == 0 {
		return fmt.Errorf("%w: no time layouts", ErrInvalidSpec)
	}

	return nil
}

// WithConverter registers a conversion from a raw string to T. It takes
// precedence over the built-in conversion rules, for T and for *T.
//
//	binding.WithConverter(uuid.Parse)
func WithConverter[T any](fn func(string) (T, error)) Option {
	return func(c *config) {
		if fn == nil {
			c.converters[reflect.TypeFor[T]()] = nil
			return
		}
		c.converters[reflect.TypeFor[T]()] = func(s string) (any, error) {
			return fn(s)
		}
	}
}

// WithTypeConverter registers a non-generic converter for targetType.
func WithTypeConverter(targetType reflect.Type, converter TypeConverter) Option {
	return func(c *config) {
		c.converters[targetType] = converter
	}
}

// WithDecoder registers a body decoder for a media type, replacing any
// existing one.
func WithDecoder(mediaType string, dec Decoder) Option {
	return func(c *config) {
		c.decoders[strings.ToLower(mediaType)] = dec
	}
}

// WithTimeLayouts sets the layouts tried, in order, when converting to
// time.Time.
func WithTimeLayouts(layouts ...string) Option {
	return func(c *config) {
		c.timeLayouts = layouts
	}
}
