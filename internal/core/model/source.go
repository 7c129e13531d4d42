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

// Package model defines the data structures that flow through the analysis
// pipeline: intake requests, resolved source descriptors, the partial agent
// reports, and the canonical result model. This file covers source
// resolution, the pure classification step that maps a raw intake request
// onto a concrete acquisition strategy.
package model

import (
	"errors"
	"io"
	"net/url"
	"regexp"
	"strings"
)

// SourceKind enumerates the acquisition strategies the pipeline knows
// how to execute.
type SourceKind int

const (
	// YouTubeLike sources are fetched through the media extractor tool.
	YouTubeLike SourceKind = iota
	// CloudDriveShare sources are fetched through the drive export endpoint.
	CloudDriveShare
	// DropboxShare sources are fetched as a rewritten direct download.
	DropboxShare
	// DirectURL sources are fetched with a plain streamed HTTP GET.
	DirectURL
	// LocalUpload sources arrive as a byte stream in the request itself.
	LocalUpload
)

// String returns a short stable name for the kind, used in logs and traces.
func (k SourceKind) String() string {
	switch k {
	case YouTubeLike:
		return "youtube"
	case CloudDriveShare:
		return "drive"
	case DropboxShare:
		return "dropbox"
	case DirectURL:
		return "direct"
	case LocalUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// ErrUnresolvableSource indicates the intake request matched no known
// acquisition strategy, for example a drive link with no recognizable
// file id or a request with neither a URL nor an upload stream.
var ErrUnresolvableSource = errors.New("source could not be resolved to an acquisition strategy")

// IntakeRequest is the raw description of what the caller wants analyzed.
// Exactly one of URL or Upload should be populated.
type IntakeRequest struct {
	URL      string    // A link to remote media, empty for uploads.
	Upload   io.Reader // The uploaded byte stream, nil for links.
	Filename string    // Original filename of the upload.
	Size     int64     // Declared upload size in bytes, 0 when unknown.
}

// SourceDescriptor is the resolved form of an intake request. Locator holds
// the URL to fetch, already rewritten where the kind calls for it.
type SourceDescriptor struct {
	Kind    SourceKind
	Locator string
	FileID  string    // Drive file id, populated for CloudDriveShare only.
	Upload  io.Reader // Upload stream, populated for LocalUpload only.
	Name    string    // Original filename, populated for LocalUpload only.
}

var (
	driveIDQueryRe = regexp.MustCompile(`[?&]id=([\w-]+)`)
	driveIDPathRe  = regexp.MustCompile(`/d/([\w-]+)`)
)

// ResolveSource classifies an intake request into a source descriptor. It is
// a pure function: same request, same answer. A request that matches no
// strategy returns ErrUnresolvableSource. Host matching is case insensitive
// and precedence is upload, then recognized share hosts, then any other
// http(s) URL.
func ResolveSource(req *IntakeRequest) (*SourceDescriptor, error) {
	if req == nil {
		return nil, ErrUnresolvableSource
	}
	if req.Upload != nil {
		return &SourceDescriptor{
			Kind:   LocalUpload,
			Upload: req.Upload,
			Name:   req.Filename,
		}, nil
	}

	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		return nil, ErrUnresolvableSource
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, ErrUnresolvableSource
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case isYouTubeHost(host):
		return &SourceDescriptor{Kind: YouTubeLike, Locator: raw}, nil
	case isDriveHost(host):
		id := extractDriveID(raw)
		if id == "" {
			return nil, ErrUnresolvableSource
		}
		return &SourceDescriptor{Kind: CloudDriveShare, Locator: raw, FileID: id}, nil
	case isDropboxHost(host):
		return &SourceDescriptor{Kind: DropboxShare, Locator: rewriteDropboxURL(raw)}, nil
	default:
		return &SourceDescriptor{Kind: DirectURL, Locator: raw}, nil
	}
}

func isYouTubeHost(host string) bool {
	return host == "youtube.com" || host == "www.youtube.com" ||
		host == "m.youtube.com" || host == "youtu.be"
}

func isDriveHost(host string) bool {
	return host == "drive.google.com" || host == "docs.google.com"
}

func isDropboxHost(host string) bool {
	return host == "dropbox.com" || host == "www.dropbox.com" ||
		strings.HasSuffix(host, ".dropbox.com")
}

// extractDriveID pulls the file id out of either the query form
// (open?id=<id>) or the path form (/file/d/<id>/view).
func extractDriveID(raw string) string {
	if m := driveIDQueryRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := driveIDPathRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// rewriteDropboxURL turns a share page link into a direct download link by
// flipping the dl flag.
func rewriteDropboxURL(raw string) string {
	if strings.Contains(raw, "dl=0") {
		return strings.Replace(raw, "dl=0", "dl=1", 1)
	}
	if strings.Contains(raw, "dl=1") {
		return raw
	}
	if strings.Contains(raw, "?") {
		return raw + "&dl=1"
	}
	return raw + "?dl=1"
}
