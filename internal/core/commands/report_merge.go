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

// This file defines the merge stage, which folds the agents' partial
// reports into the canonical result model. The agents write to disjoint
// sections, so merge order only matters if a prompt regression makes them
// overlap; in that case the later report (technical) wins per key.
package commands

import (
	"log/slog"

	"github.com/viralpod/viralpod/internal/core/cor"
	"github.com/viralpod/viralpod/internal/core/model"
)

// ReportMerge combines the partial agent reports into a ResultModel.
type ReportMerge struct {
	cor.BaseCommand
}

// NewReportMerge creates the merge command writing its result under
// outputParamName in addition to the default output.
func NewReportMerge(name string, outputParamName string) *ReportMerge {
	out := &ReportMerge{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return out
}

// Execute merges the []model.PartialReport input and emits the coerced
// *model.ResultModel.
func (c *ReportMerge) Execute(context cor.Context) {
	reports := context.Get(c.GetInputParam()).([]model.PartialReport)

	merged := model.MergePartialReports(reports...)
	result := model.BuildResult(merged)

	slog.InfoContext(context.GetContext(), "merged agent reports",
		"teaser_clips", len(result.TeaserClips),
		"trailer_clips", len(result.TrailerClips),
		"short_clips", len(result.ShortClips),
		"issues", len(result.Issues))

	if progress, ok := context.Get(GetProgressParameterName()).(*Progress); ok {
		progress.Complete()
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), result)
	context.Add(cor.CtxOut, result)
}
