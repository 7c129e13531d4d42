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

// This file defines the acquisition stage, which turns a resolved source
// descriptor into a local media file inside the run's workspace directory.
// Each source kind has its own strategy and every strategy is chunked so
// large media never has to fit in memory. A failed acquisition removes any
// partial file before reporting the error, so the workspace holds either
// one complete media file or nothing.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/cor"
	"github.com/viralpod/viralpod/internal/core/model"
)

// DriveExportEndpoint is the direct-download endpoint for drive share links.
const DriveExportEndpoint = "https://drive.google.com/uc?export=download&id=%s"

var unsafeFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// AcquisitionError indicates media could not be fetched from its source.
type AcquisitionError struct {
	Kind   model.SourceKind
	Reason string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("failed to acquire %s media: %s", e.Kind, e.Reason)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// GetWorkspaceDirParameterName returns the canonical context key holding the
// run's scratch directory path.
func GetWorkspaceDirParameterName() string {
	return "__WORKSPACE_DIR__"
}

// MediaAcquire fetches the media described by a source descriptor into the
// workspace directory.
type MediaAcquire struct {
	cor.BaseCommand
	extractor Extractor
	client    *http.Client
	config    *cloud.Config
}

// NewMediaAcquire creates the acquisition command. A nil client defaults to
// http.DefaultClient.
func NewMediaAcquire(name string, extractor Extractor, client *http.Client, config *cloud.Config) *MediaAcquire {
	if client == nil {
		client = http.DefaultClient
	}
	return &MediaAcquire{
		BaseCommand: *cor.NewBaseCommand(name),
		extractor:   extractor,
		client:      client,
		config:      config,
	}
}

// Execute dispatches on the source kind and emits the local file path.
func (c *MediaAcquire) Execute(context cor.Context) {
	descriptor := context.Get(c.GetInputParam()).(*model.SourceDescriptor)
	workspace := context.Get(GetWorkspaceDirParameterName()).(string)

	var localPath string
	var err error

	switch descriptor.Kind {
	case model.YouTubeLike:
		localPath, err = c.acquireStreaming(context, descriptor, workspace)
	case model.CloudDriveShare:
		target := filepath.Join(workspace, fmt.Sprintf("drive_%s.mp4", descriptor.FileID))
		localPath, err = c.fetchURL(context, fmt.Sprintf(DriveExportEndpoint, descriptor.FileID), target)
	case model.DropboxShare, model.DirectURL:
		target := filepath.Join(workspace, "direct_download.mp4")
		localPath, err = c.fetchURL(context, descriptor.Locator, target)
	case model.LocalUpload:
		localPath, err = c.saveUpload(descriptor, workspace)
	default:
		err = model.ErrUnresolvableSource
	}

	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &AcquisitionError{Kind: descriptor.Kind, Reason: err.Error(), Err: err})
		return
	}

	slog.InfoContext(context.GetContext(), "acquired media",
		"kind", descriptor.Kind.String(), "file", filepath.Base(localPath))

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.AddTempFile(localPath)
	context.Add(c.GetOutputParam(), localPath)
}

// acquireStreaming runs the extractor tool and, when the locator is a plain
// URL, falls back to a raw streamed download if the tool fails.
func (c *MediaAcquire) acquireStreaming(context cor.Context, descriptor *model.SourceDescriptor, workspace string) (string, error) {
	path, err := c.extractor.Extract(context.GetContext(), descriptor.Locator, workspace)
	if err == nil {
		return path, nil
	}

	if strings.HasPrefix(descriptor.Locator, "http") {
		slog.WarnContext(context.GetContext(), "media extractor failed, falling back to raw download", "error", err)
		target := filepath.Join(workspace, "direct_download.mp4")
		return c.fetchURL(context, descriptor.Locator, target)
	}
	return "", err
}

// fetchURL streams the response body to target in fixed-size chunks. On any
// failure the partial file is removed.
func (c *MediaAcquire) fetchURL(context cor.Context, url string, target string) (string, error) {
	req, err := http.NewRequestWithContext(context.GetContext(), http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching media", resp.StatusCode)
	}

	out, err := os.Create(target)
	if err != nil {
		return "", err
	}

	if _, _, err = ChunkedCopy(out, resp.Body, c.config.Intake.HTTPChunkSizeBytes); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return "", err
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return target, nil
}

// saveUpload writes the uploaded stream to the workspace under a sanitized
// version of its original filename. Uploads can be large, so the copy is
// chunked and a GC cycle runs afterwards to return the buffers promptly.
func (c *MediaAcquire) saveUpload(descriptor *model.SourceDescriptor, workspace string) (string, error) {
	name := unsafeFilenameChars.ReplaceAllString(filepath.Base(descriptor.Name), "_")
	if name == "" || name == "." {
		name = "upload.bin"
	}
	target := filepath.Join(workspace, name)

	out, err := os.Create(target)
	if err != nil {
		return "", err
	}

	if _, _, err = ChunkedCopy(out, descriptor.Upload, c.config.Intake.UploadChunkSizeBytes); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return "", err
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(target)
		return "", err
	}

	runtime.GC()
	return target, nil
}

// ChunkedCopy copies src to dst in chunks of chunkSize bytes and returns the
// bytes copied and the number of write calls made. A non-positive chunkSize
// defaults to 1 MiB.
func ChunkedCopy(dst io.Writer, src io.Reader, chunkSize int) (int64, int, error) {
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}
	buf := make([]byte, chunkSize)
	var written int64
	var writes int
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			writes++
			if writeErr != nil {
				return written, writes, writeErr
			}
			if wn < n {
				return written, writes, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, writes, nil
		}
		if readErr != nil {
			return written, writes, readErr
		}
	}
}
