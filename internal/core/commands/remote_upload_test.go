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

package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/commands"
	"github.com/viralpod/viralpod/internal/core/cor"
	"github.com/viralpod/viralpod/internal/testutil"
)

// newUploadContext primes a chain context with a real media file path.
func newUploadContext(t *testing.T) cor.Context {
	t.Helper()
	path := filepath.Join(t.TempDir(), "episode.mp3")
	assert.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, path)
	chainCtx.Add(commands.GetMediaMIMEParameterName(), "audio/mp3")
	return chainCtx
}

func TestRemoteUploadPollsUntilActive(t *testing.T) {
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{
		cloud.RemoteFileProcessing,
		cloud.RemoteFileProcessing,
		cloud.RemoteFileActive,
	}}
	cmd := commands.NewRemoteUpload("remote-upload", files, time.Millisecond, time.Second)

	chainCtx := newUploadContext(t)
	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	remote := chainCtx.Get(commands.GetRemoteFileParameterName()).(*cloud.RemoteFile)
	assert.Equal(t, cloud.RemoteFileActive, remote.State)
	assert.Equal(t, 1, files.UploadCalls)
	// Upload returned processing twice, so exactly two polls happen.
	assert.Equal(t, 2, files.GetCalls)
	assert.Equal(t, "episode.mp3", files.UploadedName)
	assert.Equal(t, "audio/mp3", files.UploadedMIME)
}

func TestRemoteUploadImmediatelyActiveSkipsPolling(t *testing.T) {
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileActive}}
	cmd := commands.NewRemoteUpload("remote-upload", files, time.Millisecond, time.Second)

	chainCtx := newUploadContext(t)
	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 0, files.GetCalls)
}

func TestRemoteUploadAdvancesProgressPerPoll(t *testing.T) {
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{
		cloud.RemoteFileProcessing,
		cloud.RemoteFileFailed,
	}}
	cmd := commands.NewRemoteUpload("remote-upload", files, time.Millisecond, time.Second)

	progress := &commands.Progress{}
	chainCtx := newUploadContext(t)
	chainCtx.Add(commands.GetProgressParameterName(), progress)
	cmd.Execute(chainCtx)

	// Upload sets 40 and the single completed poll nudges the signal, even
	// though the run ends in failure. It must never reach 100 here.
	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 41, progress.Get())
}

func TestRemoteUploadGetStateErrorDeletesRemoteFile(t *testing.T) {
	files := &testutil.FakeFileService{
		States: []cloud.RemoteFileState{cloud.RemoteFileProcessing},
		GetErr: errors.New("state lookup failed"),
	}
	cmd := commands.NewRemoteUpload("remote-upload", files, time.Millisecond, time.Second)

	chainCtx := newUploadContext(t)
	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 1, files.DeleteCalls)
}

func TestRemoteUploadFailedState(t *testing.T) {
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileFailed}}
	cmd := commands.NewRemoteUpload("remote-upload", files, time.Millisecond, time.Second)

	chainCtx := newUploadContext(t)
	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	var remoteErr *cloud.RemoteProcessingError
	assert.True(t, errors.As(chainCtx.GetErrors()["remote-upload"], &remoteErr))
	assert.Equal(t, 1, files.DeleteCalls)
}

func TestRemoteUploadTimeoutDeletesRemoteFile(t *testing.T) {
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileProcessing}}
	cmd := commands.NewRemoteUpload("remote-upload", files, time.Millisecond, 10*time.Millisecond)

	chainCtx := newUploadContext(t)
	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 1, files.DeleteCalls)
}

func TestRemoteUploadCancelledContextDeletesRemoteFile(t *testing.T) {
	files := &testutil.FakeFileService{States: []cloud.RemoteFileState{cloud.RemoteFileProcessing}}
	cmd := commands.NewRemoteUpload("remote-upload", files, time.Hour, time.Hour)

	chainCtx := newUploadContext(t)
	ctx, cancel := context.WithCancel(context.Background())
	chainCtx.SetContext(ctx)
	cancel()

	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 1, files.DeleteCalls)
}

func TestRemoteUploadErrorSurfaces(t *testing.T) {
	files := &testutil.FakeFileService{UploadErr: errors.New("quota exhausted")}
	cmd := commands.NewRemoteUpload("remote-upload", files, time.Millisecond, time.Second)

	chainCtx := newUploadContext(t)
	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 0, files.DeleteCalls)
}
