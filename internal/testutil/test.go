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

// Package testutil provides shared helpers for the test suite: a
// programmatic test configuration and scripted fakes for the remote file
// service and the generative models, so the full pipeline can run without
// network access or external binaries.
package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"google.golang.org/genai"

	"github.com/viralpod/viralpod/internal/cloud"
)

// NewTestConfig builds a config in memory instead of loading TOML files, so
// package tests are independent of the working directory. Polling is fast
// and the prompts are minimal but carry the same template parameters as the
// real ones.
func NewTestConfig(workspaceDir string) *cloud.Config {
	config := cloud.NewConfig()
	config.Application.Name = "viralpod-test"
	config.Application.WorkspaceDir = workspaceDir
	config.Intake.HTTPChunkSizeBytes = 64 * 1024
	config.Intake.UploadChunkSizeBytes = 64 * 1024
	config.Remote.PollIntervalMs = 1
	config.Remote.ProcessingTimeoutSeconds = 2
	config.PromptTemplates.Creative = "Find promotional clips. Silence threshold {{.SILENCE_SECONDS}}s. Example: {{.EXAMPLE_JSON}}"
	config.PromptTemplates.Technical = "Find production issues. Silence threshold {{.SILENCE_SECONDS}}s. Example: {{.EXAMPLE_JSON}}"
	config.AgentModels["creative"] = cloud.GeminiAgentModel{Model: "test-model", RateLimit: 100}
	config.AgentModels["technical"] = cloud.GeminiAgentModel{Model: "test-model", RateLimit: 100}
	return config
}

// FakeFileService is a scripted FileService. Upload returns the first state
// in States and each GetState call returns the next one, holding the last
// state once the script runs out.
type FakeFileService struct {
	mu           sync.Mutex
	States       []cloud.RemoteFileState
	UploadErr    error
	GetErr       error
	next         int
	UploadCalls  int
	GetCalls     int
	DeleteCalls  int
	UploadedName string
	UploadedMIME string
}

// Upload records the call and returns a handle in the scripted initial
// state.
func (f *FakeFileService) Upload(_ context.Context, r io.Reader, displayName string, mimeType string) (*cloud.RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UploadCalls++
	f.UploadedName = displayName
	f.UploadedMIME = mimeType
	if f.UploadErr != nil {
		return nil, f.UploadErr
	}
	// Drain the stream the way a real upload would.
	_, _ = io.Copy(io.Discard, r)
	state := cloud.RemoteFileActive
	if len(f.States) > 0 {
		state = f.States[0]
		f.next = 1
	}
	return f.remoteFile(state), nil
}

// GetState returns the next scripted state.
func (f *FakeFileService) GetState(_ context.Context, _ string) (*cloud.RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	state := cloud.RemoteFileActive
	if len(f.States) > 0 {
		if f.next >= len(f.States) {
			state = f.States[len(f.States)-1]
		} else {
			state = f.States[f.next]
			f.next++
		}
	}
	return f.remoteFile(state), nil
}

// Delete records the call and always succeeds.
func (f *FakeFileService) Delete(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	return nil
}

func (f *FakeFileService) remoteFile(state cloud.RemoteFileState) *cloud.RemoteFile {
	return &cloud.RemoteFile{
		ID:       "files/test-media",
		URI:      "https://files.example.com/test-media",
		MIMEType: "audio/mp3",
		State:    state,
	}
}

// FakeGenerator is a ContentGenerator returning a canned text response.
type FakeGenerator struct {
	Response string
	Err      error
	Calls    int
	mu       sync.Mutex
}

// GenerateContent returns the canned response wrapped the way the real SDK
// would deliver it.
func (f *FakeGenerator) GenerateContent(_ context.Context, _ []*genai.Content) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.Calls++
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: f.Response}}}},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 20,
		},
	}, nil
}

// FakeExtractor satisfies the extractor interface by writing a small file
// into the workspace instead of shelling out.
type FakeExtractor struct {
	Err      error
	Filename string
	Content  []byte
	Calls    int
}

// Extract writes the configured file and returns its path.
func (f *FakeExtractor) Extract(_ context.Context, _ string, dir string) (string, error) {
	f.Calls++
	if f.Err != nil {
		return "", f.Err
	}
	name := f.Filename
	if name == "" {
		name = "episode.mp3"
	}
	path := fmt.Sprintf("%s/%s", dir, name)
	content := f.Content
	if content == nil {
		content = []byte("fake audio")
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
