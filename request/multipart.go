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
package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Multipart errors.
var (
	ErrNotMultipart       = errors.New("request: body is not multipart/form-data")
	ErrMalformedMultipart = errors.New("request: malformed multipart body")
)

// File is one uploaded file of a multipart body. It describes the upload
// as received; storing it is up to the handler.
type File struct {
	Field string

	// Filename is the client's name for the file, reduced to its base
	// name so it never carries directory components.
	Filename string

	// ContentType defaults to application/octet-stream.
	ContentType string

	Size    int64
	Content []byte
}

// Reader returns a reader over the file content.
func (f File) Reader() io.Reader {
	return bytes.NewReader(f.Content)
}

// Ext returns the filename extension, "" when there is none.
func (f File) Ext() string {
	return filepath.Ext(f.Filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")

	return strings.ReplaceAll(name, "\\", "_")
}

// ParseMultipart splits a multipart/form-data body into Fields and Files.
// Parts without a form name are skipped. When a name repeats, the last
// part wins.
func (r *Request) ParseMultipart() error {
	fields, files, err := r.readMultipart()
	if err != nil {
		return err
	}
	r.Fields, r.Files = fields, files

	return nil
}

// File returns the uploaded file for a form field.
func (r *Request) File(field string) (File, bool) {
	if r.Files == nil && r.MediaType() == ContentTypeMultipart {
		if _, files, err := r.readMultipart(); err == nil {
			f, ok := files[field]
			return f, ok
		}
	}
	f, ok := r.Files[field]

	return f, ok
}

func (r *Request) readMultipart() (map[string]string, map[string]File, error) {
	ct, _ := r.HeaderValue("Content-Type")
	mt, params, err := mime.ParseMediaType(ct)
	if err != nil || mt != ContentTypeMultipart {
		return nil, nil, ErrNotMultipart
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, nil, fmt.Errorf("%w: missing boundary", ErrMalformedMultipart)
	}

	fields := map[string]string{}
	files := map[string]File{}
	mr := multipart.NewReader(bytes.NewReader(r.Body), boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformedMultipart, err)
		}

		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformedMultipart, err)
		}

		name := part.FormName()
		switch {
		case name == "":
			continue
		case part.FileName() != "":
			contentType := part.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			files[name] = File{
				Field:       name,
				Filename:    sanitizeFilename(part.FileName()),
				ContentType: contentType,
				Size:        int64(len(data)),
				Content:     data,
			}
		default:
			fields[name] = string(data)
		}
	}

	return fields, files, nil
}
