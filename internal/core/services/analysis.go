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

// Package services exposes the analysis pipeline as a synchronous call.
// AnalysisService owns the per-run lifecycle: it creates an isolated
// scratch directory, runs the workflow chain against it, extracts the
// result, and tears the directory down whether the run succeeded or not.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/commands"
	"github.com/viralpod/viralpod/internal/core/cor"
	"github.com/viralpod/viralpod/internal/core/model"
	"github.com/viralpod/viralpod/internal/core/workflow"
)

// pipelineOrder lists the chain's command names in execution order so the
// first failure can be reported even though context errors are a map.
var pipelineOrder = []string{
	"resolve-source",
	"acquire-media",
	"normalize-audio",
	"remote-upload",
	"analyze-agents",
	"merge-report",
	"remote-cleanup",
}

// AnalysisService runs full media analyses.
type AnalysisService struct {
	config   *cloud.Config
	workflow *workflow.AnalysisWorkflow
}

// NewAnalysisService creates the service around a constructed workflow.
func NewAnalysisService(config *cloud.Config, wf *workflow.AnalysisWorkflow) *AnalysisService {
	return &AnalysisService{config: config, workflow: wf}
}

// Analyze runs the pipeline for one intake request and returns the merged
// result. The run gets its own workspace subdirectory, removed on return
// along with every temp file the chain tracked. The optional progress
// tracker is live while the call is in flight.
func (s *AnalysisService) Analyze(ctx context.Context, req *model.IntakeRequest, progress *commands.Progress) (*model.ResultModel, error) {
	workspaceDir := filepath.Join(s.config.Application.WorkspaceDir, uuid.NewString())
	if err := os.MkdirAll(workspaceDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workspaceDir); err != nil {
			slog.Warn("failed to remove workspace", "dir", workspaceDir, "error", err)
		}
	}()

	if progress == nil {
		progress = &commands.Progress{}
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, req)
	chainCtx.Add(commands.GetWorkspaceDirParameterName(), workspaceDir)
	chainCtx.Add(commands.GetProgressParameterName(), progress)
	defer chainCtx.Close()

	s.workflow.Execute(chainCtx)

	if chainCtx.HasErrors() {
		return nil, firstPipelineError(chainCtx.GetErrors())
	}

	result, ok := chainCtx.Get(workflow.ResultParamName).(*model.ResultModel)
	if !ok {
		return nil, fmt.Errorf("pipeline completed without producing a result")
	}
	return result, nil
}

// firstPipelineError picks the error of the earliest failed stage.
func firstPipelineError(errs map[string]error) error {
	for _, name := range pipelineOrder {
		if err, ok := errs[name]; ok {
			return err
		}
	}
	for _, err := range errs {
		return err
	}
	return nil
}
