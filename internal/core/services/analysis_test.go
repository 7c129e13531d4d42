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

package services_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/commands"
	"github.com/viralpod/viralpod/internal/core/model"
	"github.com/viralpod/viralpod/internal/core/services"
	"github.com/viralpod/viralpod/internal/core/workflow"
	"github.com/viralpod/viralpod/internal/testutil"
)

func newService(t *testing.T, files *testutil.FakeFileService, creative, technical *testutil.FakeGenerator, extractor *testutil.FakeExtractor) (*services.AnalysisService, *cloud.Config) {
	t.Helper()
	config := testutil.NewTestConfig(t.TempDir())
	clients := &cloud.ServiceClients{
		Files: files,
		AgentModels: map[string]cloud.ContentGenerator{
			commands.AgentCreative:  creative,
			commands.AgentTechnical: technical,
		},
	}
	wf := workflow.NewAnalysisWorkflow(config, clients, extractor, nil)
	return services.NewAnalysisService(config, wf), config
}

func TestAnalyzeHappyPath(t *testing.T) {
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileActive}}
	creative := &testutil.FakeGenerator{Response: `{"viral_shorts": [{"start":"5:00","end":"5:30","text":"spike","title":"Spike","virality_score":8}]}`}
	technical := &testutil.FakeGenerator{Response: `{"mistakes_log": []}`}
	svc, _ := newService(t, files, creative, technical, &testutil.FakeExtractor{Filename: "episode.mp3"})

	progress := &commands.Progress{}
	result, err := svc.Analyze(context.Background(), &model.IntakeRequest{URL: "https://youtu.be/abc123"}, progress)

	assert.Nil(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, len(result.ShortClips))
	assert.Equal(t, "Spike", result.ShortClips[0].Title)
	assert.NotNil(t, result.Issues)
	assert.Equal(t, 100, progress.Get())
}

func TestAnalyzeNilProgressTolerated(t *testing.T) {
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileActive}}
	creative := &testutil.FakeGenerator{Response: `{"cold_open_clips": []}`}
	technical := &testutil.FakeGenerator{Response: `{"mistakes_log": []}`}
	svc, _ := newService(t, files, creative, technical, &testutil.FakeExtractor{Filename: "episode.mp3"})

	result, err := svc.Analyze(context.Background(), &model.IntakeRequest{URL: "https://youtu.be/abc123"}, nil)

	assert.Nil(t, err)
	assert.NotNil(t, result)
}

func TestAnalyzeReturnsEarliestStageError(t *testing.T) {
	files := &testutil.FakeFileService{}
	creative := &testutil.FakeGenerator{Response: `{}`}
	technical := &testutil.FakeGenerator{Response: `{}`}
	extractor := &testutil.FakeExtractor{Err: errors.New("extractor exploded")}
	svc, _ := newService(t, files, creative, technical, extractor)

	_, err := svc.Analyze(context.Background(), &model.IntakeRequest{URL: "ftp://nope"}, nil)

	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, model.ErrUnresolvableSource))
}

func TestAnalyzeRemovesWorkspace(t *testing.T) {
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileActive}}
	creative := &testutil.FakeGenerator{Response: `{"cold_open_clips": []}`}
	technical := &testutil.FakeGenerator{Response: `{"mistakes_log": []}`}
	svc, config := newService(t, files, creative, technical, &testutil.FakeExtractor{Filename: "episode.mp3"})

	_, err := svc.Analyze(context.Background(), &model.IntakeRequest{URL: "https://youtu.be/abc123"}, nil)
	assert.Nil(t, err)

	entries, readErr := os.ReadDir(config.Application.WorkspaceDir)
	assert.Nil(t, readErr)
	assert.Equal(t, 0, len(entries))
}
