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
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viralpod/viralpod/internal/core/commands"
	"github.com/viralpod/viralpod/internal/core/cor"
	"github.com/viralpod/viralpod/internal/core/model"
	"github.com/viralpod/viralpod/internal/testutil"
)

// newAcquireContext builds a chain context primed with a workspace and the
// descriptor under the default input key.
func newAcquireContext(t *testing.T, descriptor *model.SourceDescriptor) (cor.Context, string) {
	t.Helper()
	workspace := t.TempDir()
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, descriptor)
	chainCtx.Add(commands.GetWorkspaceDirParameterName(), workspace)
	return chainCtx, workspace
}

func TestAcquireStreamingSource(t *testing.T) {
	extractor := &testutil.FakeExtractor{Filename: "my episode.mp3", Content: []byte("audio")}
	cmd := commands.NewMediaAcquire("acquire-media", extractor, nil, testutil.NewTestConfig(t.TempDir()))

	chainCtx, workspace := newAcquireContext(t, &model.SourceDescriptor{
		Kind:    model.YouTubeLike,
		Locator: "https://www.youtube.com/watch?v=abc",
	})
	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	path := chainCtx.Get(cor.CtxOut).(string)
	assert.Equal(t, workspace, filepath.Dir(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Contains(t, chainCtx.GetTempFiles(), path)
}

func TestAcquireStreamingFallsBackToRawDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("raw media bytes"))
	}))
	defer server.Close()

	extractor := &testutil.FakeExtractor{Err: errors.New("site not supported")}
	cmd := commands.NewMediaAcquire("acquire-media", extractor, server.Client(), testutil.NewTestConfig(t.TempDir()))

	chainCtx, _ := newAcquireContext(t, &model.SourceDescriptor{
		Kind:    model.YouTubeLike,
		Locator: server.URL,
	})
	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	path := chainCtx.Get(cor.CtxOut).(string)
	assert.Equal(t, "direct_download.mp4", filepath.Base(path))
	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "raw media bytes", string(content))
}

func TestAcquireDirectURL(t *testing.T) {
	payload := bytes.Repeat([]byte("pcm"), 100_000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	cmd := commands.NewMediaAcquire("acquire-media", &testutil.FakeExtractor{}, server.Client(), testutil.NewTestConfig(t.TempDir()))

	chainCtx, _ := newAcquireContext(t, &model.SourceDescriptor{
		Kind:    model.DirectURL,
		Locator: server.URL,
	})
	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	path := chainCtx.Get(cor.CtxOut).(string)
	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, int64(len(payload)), info.Size())
}

func TestAcquireFailureLeavesNoPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cmd := commands.NewMediaAcquire("acquire-media", &testutil.FakeExtractor{}, server.Client(), testutil.NewTestConfig(t.TempDir()))

	chainCtx, workspace := newAcquireContext(t, &model.SourceDescriptor{
		Kind:    model.DirectURL,
		Locator: server.URL,
	})
	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	var acquisitionErr *commands.AcquisitionError
	assert.True(t, errors.As(chainCtx.GetErrors()["acquire-media"], &acquisitionErr))

	entries, err := os.ReadDir(workspace)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(entries))
}

func TestAcquireDriveShare(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.String()
		_, _ = w.Write([]byte("drive bytes"))
	}))
	defer server.Close()

	// Point the drive fetch at the local server by rewriting the client
	// transport target.
	client := &http.Client{Transport: rewriteHost(server)}
	cmd := commands.NewMediaAcquire("acquire-media", &testutil.FakeExtractor{}, client, testutil.NewTestConfig(t.TempDir()))

	chainCtx, _ := newAcquireContext(t, &model.SourceDescriptor{
		Kind:    model.CloudDriveShare,
		Locator: "https://drive.google.com/file/d/1A2b3C/view",
		FileID:  "1A2b3C",
	})
	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	path := chainCtx.Get(cor.CtxOut).(string)
	assert.Equal(t, "drive_1A2b3C.mp4", filepath.Base(path))
	assert.Contains(t, requestedPath, "id=1A2b3C")
	assert.Contains(t, requestedPath, "export=download")
}

// rewriteHost returns a transport that redirects every request to the test
// server while preserving the request path and query.
func rewriteHost(server *httptest.Server) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		target := server.URL + req.URL.RequestURI()
		redirected, err := http.NewRequestWithContext(req.Context(), req.Method, target, req.Body)
		if err != nil {
			return nil, err
		}
		return http.DefaultTransport.RoundTrip(redirected)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestAcquireUploadSanitizesFilename(t *testing.T) {
	cmd := commands.NewMediaAcquire("acquire-media", &testutil.FakeExtractor{}, nil, testutil.NewTestConfig(t.TempDir()))

	chainCtx, _ := newAcquireContext(t, &model.SourceDescriptor{
		Kind:   model.LocalUpload,
		Upload: strings.NewReader("uploaded audio"),
		Name:   `ep: 12 "the? one"`,
	})
	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	path := chainCtx.Get(cor.CtxOut).(string)
	base := filepath.Base(path)
	for _, forbidden := range []string{`\`, `/`, `*`, `?`, `:`, `"`, `<`, `>`, `|`} {
		assert.False(t, strings.Contains(base, forbidden), "filename %q contains %q", base, forbidden)
	}
	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "uploaded audio", string(content))
}

func TestChunkedCopyWriteCount(t *testing.T) {
	const chunk = 4 << 20
	payload := make([]byte, 50<<20)

	var out bytes.Buffer
	written, writes, err := commands.ChunkedCopy(&out, bytes.NewReader(payload), chunk)

	assert.NoError(t, err)
	assert.Equal(t, int64(len(payload)), written)
	// 12 full chunks plus one half chunk.
	assert.Equal(t, 13, writes)
	assert.Equal(t, len(payload), out.Len())
}

func TestChunkedCopyEmptyInput(t *testing.T) {
	var out bytes.Buffer
	written, writes, err := commands.ChunkedCopy(&out, bytes.NewReader(nil), 1<<20)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), written)
	assert.Equal(t, 0, writes)
}
