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
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"rivaas.dev/mvc/request"
)

// UploadForm is the single file upload form.
type UploadForm struct {
	SingleFile            request.File
	SingleFileDescription string
}

// FileDTO describes a stored upload, not its content.
type FileDTO struct {
	OriginFileName  string
	SavedName       string
	FilePath        string
	FileDescription string
}

// FileUploadError rejects an upload.
type FileUploadError struct {
	Reason string
}

func (e *FileUploadError) Error() string {
	return "upload rejected: " + e.Reason
}

// FileService stores uploads under dir with generated names.
type FileService struct {
	dir string
}

// NewFileService returns a service storing into dir.
func NewFileService(dir string) *FileService {
	return &FileService{dir: dir}
}

// Save writes the uploaded file of form and describes where it went.
func (s *FileService) Save(form UploadForm) (FileDTO, error) {
	f := form.SingleFile
	if f.Filename == "" {
		return FileDTO{}, &FileUploadError{Reason: "no file selected"}
	}
	if f.Size == 0 {
		return FileDTO{}, &FileUploadError{Reason: fmt.Sprintf("%s is empty", f.Filename)}
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return FileDTO{}, fmt.Errorf("upload dir: %w", err)
	}
	saved := uuid.NewString() + f.Ext()
	if err := os.WriteFile(filepath.Join(s.dir, saved), f.Content, 0o640); err != nil {
		return FileDTO{}, fmt.Errorf("store %s: %w", f.Filename, err)
	}

	return FileDTO{
		OriginFileName:  f.Filename,
		SavedName:       saved,
		FilePath:        s.dir,
		FileDescription: form.SingleFileDescription,
	}, nil
}
