// Copyright 2025 ViralPod Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file defines the remote file service abstraction. The Gemini File
// API requires media to be uploaded and processed server side before a
// model can reference it, so the pipeline talks to a small FileService
// interface and the production implementation maps it onto client.Files.
// Tests substitute a scripted fake.
package cloud

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/genai"
)

// RemoteFileState is the processing state of a file held by the remote
// service.
type RemoteFileState int

const (
	RemoteFilePending RemoteFileState = iota
	RemoteFileProcessing
	RemoteFileActive
	RemoteFileFailed
)

// String returns a short name for the state, used in logs.
func (s RemoteFileState) String() string {
	switch s {
	case RemoteFilePending:
		return "pending"
	case RemoteFileProcessing:
		return "processing"
	case RemoteFileActive:
		return "active"
	case RemoteFileFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RemoteFile is the pipeline's view of a file held by the remote service.
type RemoteFile struct {
	ID       string // Service-assigned resource name.
	URI      string // URI the model uses to reference the file.
	MIMEType string
	State    RemoteFileState
}

// FileService is the capability the pipeline needs from the remote file
// store: upload a stream, poll its processing state, and delete it.
type FileService interface {
	Upload(ctx context.Context, r io.Reader, displayName string, mimeType string) (*RemoteFile, error)
	GetState(ctx context.Context, id string) (*RemoteFile, error)
	Delete(ctx context.Context, id string) error
}

// RemoteProcessingError indicates the remote service could not process the
// uploaded media, usually because the file is corrupt or of an unsupported
// type.
type RemoteProcessingError struct {
	FileID string
	Reason string
}

func (e *RemoteProcessingError) Error() string {
	return fmt.Sprintf("remote processing failed for %s: %s", e.FileID, e.Reason)
}

// GeminiFileService implements FileService over the Gemini File API.
type GeminiFileService struct {
	client *genai.Client
}

// NewGeminiFileService creates a FileService backed by the given client.
func NewGeminiFileService(client *genai.Client) *GeminiFileService {
	return &GeminiFileService{client: client}
}

// Upload streams the media to the File API and returns the service's handle
// for it. The returned file is usually still in the processing state.
func (s *GeminiFileService) Upload(ctx context.Context, r io.Reader, displayName string, mimeType string) (*RemoteFile, error) {
	file, err := s.client.Files.Upload(ctx, r, &genai.UploadFileConfig{
		DisplayName: displayName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to remote service: %w", err)
	}
	return toRemoteFile(file), nil
}

// GetState fetches the current processing state of an uploaded file.
func (s *GeminiFileService) GetState(ctx context.Context, id string) (*RemoteFile, error) {
	file, err := s.client.Files.Get(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get remote file state: %w", err)
	}
	return toRemoteFile(file), nil
}

// Delete removes the file from the remote service.
func (s *GeminiFileService) Delete(ctx context.Context, id string) error {
	if _, err := s.client.Files.Delete(ctx, id, nil); err != nil {
		return fmt.Errorf("failed to delete remote file %s: %w", id, err)
	}
	return nil
}

func toRemoteFile(file *genai.File) *RemoteFile {
	return &RemoteFile{
		ID:       file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
		State:    toRemoteState(file.State),
	}
}

func toRemoteState(state genai.FileState) RemoteFileState {
	switch state {
	case genai.FileStateProcessing:
		return RemoteFileProcessing
	case genai.FileStateActive:
		return RemoteFileActive
	case genai.FileStateFailed:
		return RemoteFileFailed
	default:
		return RemoteFilePending
	}
}
