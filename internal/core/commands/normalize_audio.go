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

// This file defines the normalization stage, which converts the acquired
// media into a low-bitrate mp3 before the remote upload. The conversion is
// a cost optimization, remote analysis only needs the audio track, so a
// conversion failure is never fatal: the stage logs it and passes the
// original file through unchanged.
package commands

import (
	"log/slog"
	"mime"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/viralpod/viralpod/internal/core/cor"
)

// audioExtractArgs builds the ffmpeg argument list that strips the video
// track and re-encodes the audio as 64k mp3, the cheapest format the remote
// models accept. Paths are discrete arguments; extractor output is named
// after the media title and routinely contains spaces.
func audioExtractArgs(inputPath, outputPath string) []string {
	return []string{"-y", "-hide_banner", "-i", inputPath, "-vn", "-b:a", "64k", "-f", "mp3", outputPath}
}

// audioExtensions are formats already suitable for remote analysis; files
// with these extensions skip conversion entirely.
var audioExtensions = map[string]bool{
	".mp3": true,
	".m4a": true,
	".wav": true,
}

// GetMediaMIMEParameterName returns the canonical context key holding the
// MIME type of the normalized media file.
func GetMediaMIMEParameterName() string {
	return "__MEDIA_MIME_TYPE__"
}

// AudioNormalize converts acquired media to a compact audio file.
type AudioNormalize struct {
	cor.BaseCommand
	commandPath string
}

// NewAudioNormalize creates the normalization command using the given
// ffmpeg binary path.
func NewAudioNormalize(name string, commandPath string) *AudioNormalize {
	return &AudioNormalize{BaseCommand: *cor.NewBaseCommand(name), commandPath: commandPath}
}

// Execute converts the input file to mp3 when it is not already an audio
// format, deletes the original on success, and emits the resulting path. A
// failed conversion emits the original path instead of an error.
func (c *AudioNormalize) Execute(context cor.Context) {
	inputPath := context.Get(c.GetInputParam()).(string)

	if audioExtensions[strings.ToLower(filepath.Ext(inputPath))] {
		context.Add(GetMediaMIMEParameterName(), detectMIMEType(inputPath))
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(c.GetOutputParam(), inputPath)
		return
	}

	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".mp3"

	cmd := exec.CommandContext(context.GetContext(), c.commandPath, audioExtractArgs(inputPath, outputPath)...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		slog.WarnContext(context.GetContext(), "audio conversion failed, using original media",
			"file", filepath.Base(inputPath), "error", err)
		_ = os.Remove(outputPath)
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.Add(GetMediaMIMEParameterName(), detectMIMEType(inputPath))
		context.Add(c.GetOutputParam(), inputPath)
		return
	}

	// The original is no longer needed once the compact copy exists.
	if err := os.Remove(inputPath); err != nil {
		slog.WarnContext(context.GetContext(), "failed to remove original media", "error", err)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.AddTempFile(outputPath)
	context.Add(GetMediaMIMEParameterName(), "audio/mp3")
	context.Add(c.GetOutputParam(), outputPath)
}

// detectMIMEType resolves a file's MIME type from its extension, falling
// back to content sniffing and finally a generic audio type.
func detectMIMEType(path string) string {
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}
	if file, err := os.Open(path); err == nil {
		defer func() { _ = file.Close() }()
		head := make([]byte, 261)
		if n, err := file.Read(head); err == nil {
			if kind, err := filetype.Match(head[:n]); err == nil && kind != filetype.Unknown {
				return kind.MIME.Value
			}
		}
	}
	return "audio/mp3"
}
