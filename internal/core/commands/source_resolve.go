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

// Package commands provides the concrete pipeline stages of the media
// analysis workflow. Each command reads its input from the shared chain
// context, does one unit of work, and writes its output back for the next
// stage. This file defines the first stage: classifying the raw intake
// request into a resolved source descriptor.
package commands

import (
	"log/slog"

	"github.com/viralpod/viralpod/internal/core/cor"
	"github.com/viralpod/viralpod/internal/core/model"
)

// SourceResolve classifies the intake request into an acquisition strategy.
type SourceResolve struct {
	cor.BaseCommand
}

// NewSourceResolve creates the source resolution command.
func NewSourceResolve(name string) *SourceResolve {
	return &SourceResolve{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute resolves the *model.IntakeRequest found in the input parameter and
// emits the *model.SourceDescriptor. An unresolvable request fails the run.
func (c *SourceResolve) Execute(context cor.Context) {
	request := context.Get(c.GetInputParam()).(*model.IntakeRequest)

	descriptor, err := model.ResolveSource(request)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	slog.InfoContext(context.GetContext(), "resolved media source",
		"kind", descriptor.Kind.String())

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), descriptor)
}
