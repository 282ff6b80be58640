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

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"rivaas.dev/mvc/config/codec"
)

type FileSourceTestSuite struct {
	suite.Suite
	path string
}

func (s *FileSourceTestSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "mvc.json")
	s.Require().NoError(os.WriteFile(s.path, []byte(`{"view": {"suffix": ".html"}}`), 0o600))
}

func TestFileSourceTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(FileSourceTestSuite))
}

func (s *FileSourceTestSuite) TestLoad_ValidFile() {
	conf, err := NewFile(s.path, codec.JSONCodec{}).Load(context.Background())
	s.Require().NoError(err)
	s.Equal(map[string]any{"view": map[string]any{"suffix": ".html"}}, conf)
}

func (s *FileSourceTestSuite) TestLoad_MissingFile() {
	_, err := NewFile(filepath.Join(s.T().TempDir(), "absent.json"), codec.JSONCodec{}).Load(context.Background())
	s.ErrorIs(err, os.ErrNotExist)
}

func (s *FileSourceTestSuite) TestLoad_InvalidContent() {
	_, err := NewFileContent([]byte("{"), codec.JSONCodec{}).Load(context.Background())
	s.Error(err)
}

func (s *FileSourceTestSuite) TestLoad_Content() {
	conf, err := NewFileContent([]byte("dispatch:\n  deadline: 2s\n"), codec.YAMLCodec{}).Load(context.Background())
	s.Require().NoError(err)
	s.Equal(map[string]any{"dispatch": map[string]any{"deadline": "2s"}}, conf)
}

func TestOSEnvVar_FiltersByPrefix(t *testing.T) {
	t.Parallel()

	src := NewOSEnvVar("MVC_")
	src.environ = func() []string {
		return []string{"MVC_VIEW_PREFIX=templates/", "HOME=/root", "MVCX_OTHER=1", "MVC_DISPATCH_DEADLINE=1s"}
	}

	conf, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"view":     map[string]any{"prefix": "templates/"},
		"dispatch": map[string]any{"deadline": "1s"},
	}, conf)
}
