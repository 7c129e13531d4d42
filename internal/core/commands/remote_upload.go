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

// This file defines the remote upload stage. The remote service processes
// uploaded media asynchronously, so after the upload call this command
// polls the file state until it becomes active, the run context is
// cancelled, or the processing deadline passes. If the command gives up it
// attempts to delete the remote file so nothing leaks on the service side.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/cor"
)

// GetRemoteFileParameterName returns the canonical context key holding the
// active *cloud.RemoteFile handle.
func GetRemoteFileParameterName() string {
	return "__REMOTE_FILE__"
}

// RemoteUpload pushes the normalized media to the remote file service and
// waits for it to become active.
type RemoteUpload struct {
	cor.BaseCommand
	files        cloud.FileService
	pollInterval time.Duration
	timeout      time.Duration
}

// NewRemoteUpload creates the upload command with the given poll interval
// and processing deadline.
func NewRemoteUpload(name string, files cloud.FileService, pollInterval time.Duration, timeout time.Duration) *RemoteUpload {
	return &RemoteUpload{
		BaseCommand:  *cor.NewBaseCommand(name),
		files:        files,
		pollInterval: pollInterval,
		timeout:      timeout,
	}
}

// Execute uploads the input file and polls until it is active, emitting the
// remote file handle under both the canonical key and the output parameter.
func (c *RemoteUpload) Execute(context cor.Context) {
	localPath := context.Get(c.GetInputParam()).(string)
	mimeType, _ := context.Get(GetMediaMIMEParameterName()).(string)
	if mimeType == "" {
		mimeType = "audio/mp3"
	}
	progress, _ := context.Get(GetProgressParameterName()).(*Progress)

	file, err := os.Open(localPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	defer func() { _ = file.Close() }()

	remote, err := c.files.Upload(context.GetContext(), file, filepath.Base(localPath), mimeType)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	if progress != nil {
		progress.Set(40)
	}

	deadline := time.Now().Add(c.timeout)
	pollProgress := 40
	for remote.State == cloud.RemoteFileProcessing || remote.State == cloud.RemoteFilePending {
		if time.Now().After(deadline) {
			c.fail(context, remote.ID, fmt.Errorf("remote processing timed out after %s", c.timeout))
			return
		}
		select {
		case <-context.GetContext().Done():
			c.fail(context, remote.ID, context.GetContext().Err())
			return
		case <-time.After(c.pollInterval):
		}
		remote, err = c.files.GetState(context.GetContext(), remote.ID)
		if err != nil {
			c.fail(context, remote.ID, err)
			return
		}
		// Synthetic signal only; it creeps toward the next stage so the
		// caller sees movement while the service processes.
		if progress != nil && pollProgress < 49 {
			pollProgress++
			progress.Set(pollProgress)
		}
	}

	if remote.State == cloud.RemoteFileFailed {
		c.fail(context, remote.ID, &cloud.RemoteProcessingError{
			FileID: remote.ID,
			Reason: "media could not be processed, the file may be unsupported or corrupt",
		})
		return
	}

	slog.InfoContext(context.GetContext(), "remote file active", "id", remote.ID)

	if progress != nil {
		progress.Set(50)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetRemoteFileParameterName(), remote)
	context.Add(c.GetOutputParam(), remote)
}

// fail records the error and makes a best effort attempt to remove the
// orphaned remote file.
func (c *RemoteUpload) fail(chCtx cor.Context, remoteID string, err error) {
	c.GetErrorCounter().Add(chCtx.GetContext(), 1)
	chCtx.AddError(c.GetName(), err)
	// Cleanup still has to reach the service after a cancellation.
	cleanupCtx := context.WithoutCancel(chCtx.GetContext())
	if delErr := c.files.Delete(cleanupCtx, remoteID); delErr != nil {
		slog.WarnContext(cleanupCtx, "failed to delete abandoned remote file",
			"id", remoteID, "error", delErr)
	}
}
