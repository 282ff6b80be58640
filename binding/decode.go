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
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// Media types with a registered body decoder.
const (
	MediaTypeJSON     = "application/json"
	MediaTypeXML      = "application/xml"
	MediaTypeYAML     = "application/yaml"
	MediaTypeTOML     = "application/toml"
	MediaTypeMsgPack  = "application/msgpack"
	MediaTypeProtobuf = "application/protobuf"
)

func defaultDecoders() map[string]Decoder {
	return map[string]Decoder{
		MediaTypeJSON:                     json.Unmarshal,
		"text/json":                       json.Unmarshal,
		MediaTypeXML:                      xml.Unmarshal,
		"text/xml":                        xml.Unmarshal,
		MediaTypeYAML:                     yaml.Unmarshal,
		"application/x-yaml":              yaml.Unmarshal,
		"text/yaml":                       yaml.Unmarshal,
		MediaTypeTOML:                     toml.Unmarshal,
		MediaTypeMsgPack:                  msgpack.Unmarshal,
		"application/x-msgpack":           msgpack.Unmarshal,
		"application/vnd.msgpack":         msgpack.Unmarshal,
		MediaTypeProtobuf:                 decodeProto,
		"application/x-protobuf":          decodeProto,
		"application/vnd.google.protobuf": decodeProto,
	}
}

func decodeProto(body []byte, out any) error {
	msg, ok := out.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotProtoMessage, out)
	}

	return proto.Unmarshal(body, msg)
}

// decoderFor finds the decoder for a media type. Structured syntax
// suffixes such as "+json" fall back to the base format.
func (c *config) decoderFor(mediaType string) (Decoder, bool) {
	if dec, ok := c.decoders[mediaType]; ok {
		return dec, true
	}
	if i := strings.LastIndexByte(mediaType, '+'); i >= 0 {
		if dec, ok := c.decoders["application/"+mediaType[i+1:]]; ok {
			return dec, true
		}
	}

	return nil, false
}
