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

// This file defines the analysis stage. Two agents, creative and technical,
// examine the same remote media file with different prompts. The agents are
// independent, so their requests fan out to a worker pool and run
// concurrently. A single agent failing or returning unparseable JSON
// degrades that agent's report to an empty one rather than failing the run;
// partial results are more useful than none.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/cor"
	"github.com/viralpod/viralpod/internal/core/model"
	"google.golang.org/genai"
)

// Agent names double as the AgentModels config keys.
const (
	AgentCreative  = "creative"
	AgentTechnical = "technical"
)

// agentJob is one agent request handed to the worker pool.
type agentJob struct {
	index    int // Position in the results slice, keeps merge order stable.
	name     string
	model    cloud.ContentGenerator
	prompt   string
	remote   *cloud.RemoteFile
	chainCtx cor.Context
}

// agentResponse is one agent's parsed report, or the error that prevented
// it.
type agentResponse struct {
	index  int
	name   string
	report model.PartialReport
	err    error
}

// AgentAnalysis fans the creative and technical prompts out against the
// remote media file and collects both partial reports.
type AgentAnalysis struct {
	cor.BaseCommand
	config                   *cloud.Config
	agentModels              map[string]cloud.ContentGenerator
	creativeTemplate         *template.Template
	technicalTemplate        *template.Template
	numberOfWorkers          int
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
	geminiRetryCounter       metric.Int64Counter
}

// NewAgentAnalysis creates the analysis command. numberOfWorkers below one
// is raised to one.
func NewAgentAnalysis(
	name string,
	config *cloud.Config,
	agentModels map[string]cloud.ContentGenerator,
	creativeTemplate *template.Template,
	technicalTemplate *template.Template,
	numberOfWorkers int) *AgentAnalysis {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	out := &AgentAnalysis{
		BaseCommand:       *cor.NewBaseCommand(name),
		config:            config,
		agentModels:       agentModels,
		creativeTemplate:  creativeTemplate,
		technicalTemplate: technicalTemplate,
		numberOfWorkers:   numberOfWorkers,
	}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.geminiRetryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.retry", out.GetName()))

	return out
}

// IsExecutable requires the remote file handle in addition to the default
// input.
func (s *AgentAnalysis) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(GetRemoteFileParameterName()) != nil &&
		context.GetContext() != nil
}

// Execute renders both prompts, runs them through the worker pool, and
// emits the partial reports in agent order (creative first).
func (s *AgentAnalysis) Execute(context cor.Context) {
	remote := context.Get(GetRemoteFileParameterName()).(*cloud.RemoteFile)

	creativePrompt, err := s.renderPrompt(s.creativeTemplate, model.GetExampleCreativeReport())
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("failed to execute creative prompt template: %w", err))
		return
	}
	technicalPrompt, err := s.renderPrompt(s.technicalTemplate, model.GetExampleTechnicalReport())
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("failed to execute technical prompt template: %w", err))
		return
	}

	pending := []agentJob{
		{index: 0, name: AgentCreative, model: s.agentModels[AgentCreative], prompt: creativePrompt, remote: remote, chainCtx: context},
		{index: 1, name: AgentTechnical, model: s.agentModels[AgentTechnical], prompt: technicalPrompt, remote: remote, chainCtx: context},
	}

	var wg sync.WaitGroup
	jobs := make(chan agentJob, len(pending))
	results := make(chan agentResponse, len(pending))

	for w := 0; w < s.numberOfWorkers; w++ {
		wg.Add(1)
		go s.agentWorker(jobs, results, &wg)
	}

	for _, job := range pending {
		jobs <- job
	}
	close(jobs)
	wg.Wait()
	close(results)

	reports := make([]model.PartialReport, len(pending))
	for r := range results {
		if r.err != nil {
			// Degrade to an empty report so the merge still runs.
			slog.WarnContext(context.GetContext(), "agent analysis degraded",
				"agent", r.name, "error", r.err)
			s.GetErrorCounter().Add(context.GetContext(), 1)
			reports[r.index] = model.PartialReport{}
			continue
		}
		reports[r.index] = r.report
	}

	if progress, ok := context.Get(GetProgressParameterName()).(*Progress); ok {
		progress.Set(90)
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), reports)
}

// agentWorker drains the jobs channel, issuing one model request per job.
func (s *AgentAnalysis) agentWorker(jobs <-chan agentJob, results chan<- agentResponse, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		results <- s.runAgent(job)
	}
}

func (s *AgentAnalysis) runAgent(job agentJob) agentResponse {
	if job.model == nil {
		return agentResponse{index: job.index, name: job.name,
			err: fmt.Errorf("no model configured for agent %q", job.name)}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(job.prompt),
			cloud.NewFilePart(job.remote.URI, job.remote.MIMEType),
		}, genai.RoleUser),
	}

	raw, err := cloud.GenerateMultiModalResponse(
		job.chainCtx.GetContext(),
		s.geminiInputTokenCounter,
		s.geminiOutputTokenCounter,
		s.geminiRetryCounter,
		0,
		job.model,
		contents)
	if err != nil {
		return agentResponse{index: job.index, name: job.name, err: err}
	}

	report, err := model.ParsePartialReport(raw)
	if err != nil {
		return agentResponse{index: job.index, name: job.name,
			err: fmt.Errorf("unparseable agent output: %w", err)}
	}
	return agentResponse{index: job.index, name: job.name, report: report}
}

// renderPrompt executes a prompt template with the silence threshold and the
// agent's few-shot example bound in.
func (s *AgentAnalysis) renderPrompt(tmpl *template.Template, example model.PartialReport) (string, error) {
	exampleJSON, err := json.Marshal(example)
	if err != nil {
		return "", err
	}
	params := map[string]interface{}{
		"SILENCE_SECONDS": s.config.Analysis.SilenceThresholdSeconds,
		"EXAMPLE_JSON":    string(exampleJSON),
	}
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, params); err != nil {
		return "", err
	}
	return buffer.String(), nil
}
