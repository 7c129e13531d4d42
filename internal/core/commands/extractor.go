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

// This file defines the media extractor abstraction over the yt-dlp tool.
// An interface keeps the acquisition command testable without the binary
// installed.
package commands

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor downloads media from a streaming site URL into dir and returns
// the path of the downloaded file.
type Extractor interface {
	Extract(ctx context.Context, url string, dir string) (string, error)
}

// YtDlpExtractor shells out to the yt-dlp binary. The audio-only format
// selector keeps downloads small since only the audio track is analyzed.
type YtDlpExtractor struct {
	commandPath string
}

// NewYtDlpExtractor creates an extractor using the given binary path.
func NewYtDlpExtractor(commandPath string) *YtDlpExtractor {
	return &YtDlpExtractor{commandPath: commandPath}
}

// Extract runs yt-dlp and returns the final path of the downloaded file,
// read from the tool's after-move filepath output.
func (e *YtDlpExtractor) Extract(ctx context.Context, url string, dir string) (string, error) {
	args := []string{
		"-f", "bestaudio/worst",
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		"--no-simulate",
		"--print", "after_move:filepath",
		"-o", fmt.Sprintf("%s/%%(title)s.%%(ext)s", dir),
		url,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.commandPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running media extractor: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", fmt.Errorf("media extractor produced no output file for %s", url)
	}
	return path, nil
}
