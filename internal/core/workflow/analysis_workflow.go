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

// Package workflow assembles the pipeline commands into the end-to-end
// media analysis chain: resolve the source, acquire the media, normalize
// the audio, upload it to the remote service, run both analysis agents,
// merge their reports, and clean up the remote file.
package workflow

import (
	"context"
	"log/slog"
	"net/http"
	"text/template"
	"time"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/commands"
	"github.com/viralpod/viralpod/internal/core/cor"
)

// ResultParamName is the context key holding the final *model.ResultModel
// after the chain completes.
const ResultParamName = "__result_output__"

// AnalysisWorkflow orchestrates a full media analysis run.
type AnalysisWorkflow struct {
	cor.BaseCommand
	config          *cloud.Config
	files           cloud.FileService
	agentModels     map[string]cloud.ContentGenerator
	extractor       commands.Extractor
	httpClient      *http.Client
	numberOfWorkers int
	creativeTmpl    *template.Template
	technicalTmpl   *template.Template
	chain           cor.Chain
}

// Execute runs the analysis by invoking the underlying chain. When the
// chain breaks after the upload stage, the cleanup stage never runs, so
// any remote file still registered on the context is deleted here on a
// best effort basis.
func (m *AnalysisWorkflow) Execute(chCtx cor.Context) {
	m.chain.Execute(chCtx)

	if !chCtx.HasErrors() {
		return
	}
	remote, ok := chCtx.Get(commands.GetRemoteFileParameterName()).(*cloud.RemoteFile)
	if !ok {
		return
	}
	// Deletion still has to reach the service after a cancellation.
	cleanupCtx := context.WithoutCancel(chCtx.GetContext())
	if err := m.files.Delete(cleanupCtx, remote.ID); err != nil {
		slog.WarnContext(cleanupCtx, "failed to delete orphaned remote file",
			"id", remote.ID, "error", err)
	}
	chCtx.Remove(commands.GetRemoteFileParameterName())
}

// initializeChain builds the command sequence for this workflow.
func (m *AnalysisWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	out.AddCommand(commands.NewSourceResolve("resolve-source"))

	out.AddCommand(commands.NewMediaAcquire("acquire-media", m.extractor, m.httpClient, m.config))

	out.AddCommand(commands.NewAudioNormalize("normalize-audio", m.config.Tools.FfmpegPath))

	out.AddCommand(commands.NewRemoteUpload(
		"remote-upload",
		m.files,
		time.Duration(m.config.Remote.PollIntervalMs)*time.Millisecond,
		time.Duration(m.config.Remote.ProcessingTimeoutSeconds)*time.Second))

	out.AddCommand(commands.NewAgentAnalysis(
		"analyze-agents",
		m.config,
		m.agentModels,
		m.creativeTmpl,
		m.technicalTmpl,
		m.numberOfWorkers))

	out.AddCommand(commands.NewReportMerge("merge-report", ResultParamName))

	out.AddCommand(commands.NewRemoteCleanup("remote-cleanup", m.files))

	m.chain = out
}

// NewAnalysisWorkflow constructs the workflow from the loaded configuration
// and service clients. A nil extractor defaults to the configured yt-dlp
// binary and a nil httpClient to http.DefaultClient; tests pass fakes.
func NewAnalysisWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	extractor commands.Extractor,
	httpClient *http.Client) *AnalysisWorkflow {

	creativeTmpl, err := template.New("creative-template").Parse(config.PromptTemplates.Creative)
	if err != nil {
		panic(err)
	}
	technicalTmpl, err := template.New("technical-template").Parse(config.PromptTemplates.Technical)
	if err != nil {
		panic(err)
	}

	if extractor == nil {
		extractor = commands.NewYtDlpExtractor(config.Tools.YtDlpPath)
	}

	pipeline := &AnalysisWorkflow{
		BaseCommand:     *cor.NewBaseCommand("media-analysis-pipeline"),
		config:          config,
		files:           serviceClients.Files,
		agentModels:     serviceClients.AgentModels,
		extractor:       extractor,
		httpClient:      httpClient,
		numberOfWorkers: config.Application.ThreadPoolSize,
		creativeTmpl:    creativeTmpl,
		technicalTmpl:   technicalTmpl,
	}
	pipeline.initializeChain()
	return pipeline
}
