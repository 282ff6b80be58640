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
//go:build !integration

package request

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (string, []byte) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+filename+`"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return w.FormDataContentType(), buf.Bytes()
}

func TestRequest_ParseMultipart(t *testing.T) {
	t.Parallel()

	ct, body := multipartBody(t,
		map[string]string{"singleFileDescription": "profile"},
		"singleFile", "cat.png", []byte("\x89PNG"))
	r := New("POST", "/single-file?page=1").WithBody(ct, body)

	require.NoError(t, r.ParseMultipart())

	assert.Equal(t, map[string]string{"singleFileDescription": "profile"}, r.Fields)
	f, ok := r.File("singleFile")
	require.True(t, ok)
	assert.Equal(t, "singleFile", f.Field)
	assert.Equal(t, "cat.png", f.Filename)
	assert.Equal(t, "image/png", f.ContentType)
	assert.EqualValues(t, 4, f.Size)
	assert.Equal(t, []byte("\x89PNG"), f.Content)

	assert.Equal(t, map[string]string{"page": "1", "singleFileDescription": "profile"}, r.Params())
}

func TestRequest_MultipartWithoutExplicitParse(t *testing.T) {
	t.Parallel()

	ct, body := multipartBody(t, map[string]string{"name": "Tea"}, "menuImage", "tea.png", []byte("img"))
	r := New("POST", "/menu/regist").WithBody(ct, body)

	assert.Equal(t, map[string]string{"name": "Tea"}, r.Form())
	f, ok := r.File("menuImage")
	require.True(t, ok)
	assert.Equal(t, "tea.png", f.Filename)
	assert.Nil(t, r.Files)
}

func TestRequest_ParseMultipartErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{
			name: "urlencoded body",
			req:  New("POST", "/x").WithForm(nil),
			want: ErrNotMultipart,
		},
		{
			name: "missing boundary",
			req:  New("POST", "/x").WithBody(ContentTypeMultipart, []byte("--x\r\n")),
			want: ErrMalformedMultipart,
		},
		{
			name: "truncated body",
			req:  New("POST", "/x").WithBody(ContentTypeMultipart+"; boundary=x", []byte("--x\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nva")),
			want: ErrMalformedMultipart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.req.ParseMultipart(), tt.want)
			assert.Empty(t, tt.req.Form())
		})
	}
}

func TestRequest_MultipartFileDefaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="doc"; filename="..\\reports\\q1.tar.gz"`)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("gz"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := New("POST", "/upload").WithBody(w.FormDataContentType(), buf.Bytes())
	require.NoError(t, r.ParseMultipart())

	f, ok := r.File("doc")
	require.True(t, ok)
	assert.NotContains(t, f.Filename, "\\")
	assert.NotContains(t, f.Filename, "/")
	assert.Equal(t, ".gz", f.Ext())
	assert.Equal(t, "application/octet-stream", f.ContentType)
}

func TestRequest_CloneCopiesFiles(t *testing.T) {
	t.Parallel()

	ct, body := multipartBody(t, map[string]string{"a": "1"}, "f", "a.txt", []byte("abc"))
	r := New("POST", "/x").WithBody(ct, body)
	require.NoError(t, r.ParseMultipart())

	c := r.Clone()
	c.Fields["a"] = "2"
	c.Files["f"].Content[0] = 'z'

	assert.Equal(t, "1", r.Fields["a"])
	assert.Equal(t, []byte("abc"), r.Files["f"].Content)
}
