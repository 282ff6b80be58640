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

package codec

import (
	"encoding/json"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

const (
	TypeYAML Type = "yaml"
	TypeTOML Type = "toml"
	TypeJSON Type = "json"
)

func init() {
	RegisterDecoder(TypeYAML, YAMLCodec{})
	RegisterDecoder(TypeTOML, TOMLCodec{})
	RegisterDecoder(TypeJSON, JSONCodec{})
	RegisterDecoder(TypeEnvVar, EnvVarCodec{})
}

// YAMLCodec decodes YAML.
type YAMLCodec struct{}

// Decode decodes the YAML-encoded data into v.
func (YAMLCodec) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// TOMLCodec decodes TOML.
type TOMLCodec struct{}

// Decode decodes the TOML-encoded data into v.
func (TOMLCodec) Decode(data []byte, v any) error {
	return toml.Unmarshal(data, v)
}

// JSONCodec decodes JSON.
type JSONCodec struct{}

// Decode decodes the JSON-encoded data into v.
func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
