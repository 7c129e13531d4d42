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

package workflow_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/commands"
	"github.com/viralpod/viralpod/internal/core/cor"
	"github.com/viralpod/viralpod/internal/core/model"
	"github.com/viralpod/viralpod/internal/core/workflow"
	"github.com/viralpod/viralpod/internal/testutil"
)

const tName = "github.com/viralpod/viralpod/tests/workflow"

var logger = otelslog.NewLogger(tName)

// TestMain runs the full-pipeline tests with a shared logger so suite
// lifecycle messages flow through the same bridge the commands log to.
func TestMain(m *testing.M) {
	logger.Info("starting workflow test suite")
	exitCode := m.Run()
	logger.Info("workflow test suite finished")
	os.Exit(exitCode)
}

const creativeJSON = `{
  "cold_open_clips": [
    {"start": "1:05", "end": "1:25", "text": "the moment everything clicked", "reason": "strong hook"}
  ],
  "trailer_structure": [
    {"start": "0:10", "end": "0:30", "text": "setup", "reason": "context", "narrative_role": "hook"}
  ],
  "viral_shorts": [
    {"start": "12:00", "end": "12:45", "text": "hot take", "title": "The Hot Take", "virality_score": "9/10"}
  ]
}`

const technicalJSON = `{
  "mistakes_log": [
    {"start": "3:00", "end": "3:12", "category": "silence", "description": "12 seconds of dead air"}
  ]
}`

func newClients(files *testutil.FakeFileService, creative, technical *testutil.FakeGenerator) *cloud.ServiceClients {
	return &cloud.ServiceClients{
		Files: files,
		AgentModels: map[string]cloud.ContentGenerator{
			commands.AgentCreative:  creative,
			commands.AgentTechnical: technical,
		},
	}
}

func runWorkflow(t *testing.T, wf *workflow.AnalysisWorkflow, req *model.IntakeRequest, progress *commands.Progress) cor.Context {
	t.Helper()
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, req)
	chainCtx.Add(commands.GetWorkspaceDirParameterName(), t.TempDir())
	chainCtx.Add(commands.GetProgressParameterName(), progress)
	t.Cleanup(chainCtx.Close)
	wf.Execute(chainCtx)
	return chainCtx
}

func TestWorkflowEndToEndStreamingSource(t *testing.T) {
	config := testutil.NewTestConfig(t.TempDir())
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileActive}}
	creative := &testutil.FakeGenerator{Response: creativeJSON}
	technical := &testutil.FakeGenerator{Response: technicalJSON}
	extractor := &testutil.FakeExtractor{Filename: "episode.mp3"}

	wf := workflow.NewAnalysisWorkflow(config, newClients(files, creative, technical), extractor, nil)

	progress := &commands.Progress{}
	chainCtx := runWorkflow(t, wf, &model.IntakeRequest{URL: "https://www.youtube.com/watch?v=abc123"}, progress)

	assert.False(t, chainCtx.HasErrors())

	result, ok := chainCtx.Get(workflow.ResultParamName).(*model.ResultModel)
	assert.True(t, ok)
	assert.Equal(t, 1, len(result.TeaserClips))
	assert.Equal(t, "the moment everything clicked", result.TeaserClips[0].Transcript)
	assert.Equal(t, 1, len(result.TrailerClips))
	assert.Equal(t, "hook", result.TrailerClips[0].Role)
	assert.Equal(t, 1, len(result.ShortClips))
	assert.Equal(t, 9, result.ShortClips[0].ViralityScore)
	assert.Equal(t, 1, len(result.Issues))
	assert.Equal(t, "silence", result.Issues[0].Category)

	assert.Equal(t, 1, extractor.Calls)
	assert.Equal(t, 1, files.UploadCalls)
	assert.Equal(t, "episode.mp3", files.UploadedName)
	assert.NotEmpty(t, files.UploadedMIME)
	// The remote copy is removed once analysis completes.
	assert.Equal(t, 1, files.DeleteCalls)
	assert.Equal(t, 100, progress.Get())
}

func TestWorkflowEndToEndUploadSource(t *testing.T) {
	config := testutil.NewTestConfig(t.TempDir())
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileActive}}
	creative := &testutil.FakeGenerator{Response: creativeJSON}
	technical := &testutil.FakeGenerator{Response: technicalJSON}
	extractor := &testutil.FakeExtractor{}

	wf := workflow.NewAnalysisWorkflow(config, newClients(files, creative, technical), extractor, nil)

	req := &model.IntakeRequest{
		Upload:   strings.NewReader("uploaded audio bytes"),
		Filename: "interview.mp3",
	}
	chainCtx := runWorkflow(t, wf, req, &commands.Progress{})

	assert.False(t, chainCtx.HasErrors())
	_, ok := chainCtx.Get(workflow.ResultParamName).(*model.ResultModel)
	assert.True(t, ok)
	// Uploads never touch the extractor.
	assert.Equal(t, 0, extractor.Calls)
	assert.Equal(t, "interview.mp3", files.UploadedName)
	assert.Equal(t, 1, files.DeleteCalls)
}

func TestWorkflowOneAgentFailingStillProducesResult(t *testing.T) {
	config := testutil.NewTestConfig(t.TempDir())
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileActive}}
	creative := &testutil.FakeGenerator{Response: "not json at all"}
	technical := &testutil.FakeGenerator{Response: technicalJSON}
	extractor := &testutil.FakeExtractor{Filename: "episode.mp3"}

	wf := workflow.NewAnalysisWorkflow(config, newClients(files, creative, technical), extractor, nil)

	chainCtx := runWorkflow(t, wf, &model.IntakeRequest{URL: "https://youtu.be/abc123"}, &commands.Progress{})

	assert.False(t, chainCtx.HasErrors())
	result := chainCtx.Get(workflow.ResultParamName).(*model.ResultModel)
	assert.Equal(t, 0, len(result.TeaserClips))
	assert.Equal(t, 0, len(result.ShortClips))
	assert.Equal(t, 1, len(result.Issues))
	assert.Equal(t, 1, files.DeleteCalls)
}

func TestWorkflowRemoteFailureStopsChainAndCleansUp(t *testing.T) {
	config := testutil.NewTestConfig(t.TempDir())
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileFailed}}
	creative := &testutil.FakeGenerator{Response: creativeJSON}
	technical := &testutil.FakeGenerator{Response: technicalJSON}
	extractor := &testutil.FakeExtractor{Filename: "episode.mp3"}

	wf := workflow.NewAnalysisWorkflow(config, newClients(files, creative, technical), extractor, nil)

	chainCtx := runWorkflow(t, wf, &model.IntakeRequest{URL: "https://youtu.be/abc123"}, &commands.Progress{})

	assert.True(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(workflow.ResultParamName))
	// No model calls follow a failed upload.
	assert.Equal(t, 0, creative.Calls)
	assert.Equal(t, 0, technical.Calls)
	assert.Equal(t, 1, files.DeleteCalls)
}

func TestWorkflowPostUploadFailureDeletesRemoteFile(t *testing.T) {
	config := testutil.NewTestConfig(t.TempDir())
	// Parses fine, fails at render time, so the chain breaks after the
	// upload stage and never reaches the cleanup stage.
	config.PromptTemplates.Technical = `{{template "missing"}}`
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileActive}}
	extractor := &testutil.FakeExtractor{Filename: "episode.mp3"}

	wf := workflow.NewAnalysisWorkflow(config, newClients(files,
		&testutil.FakeGenerator{Response: creativeJSON},
		&testutil.FakeGenerator{Response: technicalJSON}), extractor, nil)

	chainCtx := runWorkflow(t, wf, &model.IntakeRequest{URL: "https://youtu.be/abc123"}, &commands.Progress{})

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 1, files.UploadCalls)
	// The workflow reaps the remote file the broken chain left behind.
	assert.Equal(t, 1, files.DeleteCalls)
	assert.Nil(t, chainCtx.Get(commands.GetRemoteFileParameterName()))
}

func TestWorkflowUnresolvableSourceFailsFast(t *testing.T) {
	config := testutil.NewTestConfig(t.TempDir())
	files := &testutil.FakeFileService{}
	extractor := &testutil.FakeExtractor{}

	wf := workflow.NewAnalysisWorkflow(config, newClients(files,
		&testutil.FakeGenerator{Response: creativeJSON},
		&testutil.FakeGenerator{Response: technicalJSON}), extractor, nil)

	chainCtx := runWorkflow(t, wf, &model.IntakeRequest{URL: "ftp://example.com/file.mp3"}, &commands.Progress{})

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 0, extractor.Calls)
	assert.Equal(t, 0, files.UploadCalls)
}
