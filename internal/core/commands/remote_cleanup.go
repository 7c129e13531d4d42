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

// This file defines the final pipeline stage, which deletes the analyzed
// media from the remote service. Cleanup is best effort: the result is
// already produced by the time this runs, so a delete failure is logged
// and never fails the run.
package commands

import (
	"log/slog"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/cor"
)

// RemoteCleanup removes the remote media file once analysis is complete.
type RemoteCleanup struct {
	cor.BaseCommand
	files cloud.FileService
}

// NewRemoteCleanup creates the cleanup command.
func NewRemoteCleanup(name string, files cloud.FileService) *RemoteCleanup {
	return &RemoteCleanup{BaseCommand: *cor.NewBaseCommand(name), files: files}
}

// IsExecutable only requires the remote file handle. The default input
// check would skip cleanup whenever an upstream stage left no output.
func (c *RemoteCleanup) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(GetRemoteFileParameterName()) != nil &&
		context.GetContext() != nil
}

// Execute deletes the remote file and passes the input through untouched.
func (c *RemoteCleanup) Execute(context cor.Context) {
	remote := context.Get(GetRemoteFileParameterName()).(*cloud.RemoteFile)

	if err := c.files.Delete(context.GetContext(), remote.ID); err != nil {
		slog.WarnContext(context.GetContext(), "failed to delete remote file",
			"id", remote.ID, "error", err)
		c.GetErrorCounter().Add(context.GetContext(), 1)
	} else {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
	}

	// Preserve the merged result for the chain's caller.
	if result := context.Get(c.GetInputParam()); result != nil {
		context.Add(c.GetOutputParam(), result)
	}
}
