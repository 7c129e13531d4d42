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

// Package api exposes the analysis pipeline over HTTP. A single POST
// endpoint accepts either a JSON body with a media URL or a multipart
// upload, runs the full pipeline synchronously, and returns the merged
// result. The optional view query parameter narrows the response to the
// creative or technical sections.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/commands"
	"github.com/viralpod/viralpod/internal/core/model"
	"github.com/viralpod/viralpod/internal/core/services"
)

// ViewMode selects which sections of the result a caller wants back.
type ViewMode string

const (
	ViewAll       ViewMode = ""
	ViewCreative  ViewMode = "creative"
	ViewTechnical ViewMode = "technical"
)

// analyzeRequest is the JSON body for link-based analysis.
type analyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

// AnalyzeRouter registers the analysis endpoint on the given route group.
func AnalyzeRouter(r *gin.RouterGroup, config *cloud.Config, analysis *services.AnalysisService) {
	r.POST("/analyze", func(c *gin.Context) {
		req, err := buildIntakeRequest(c, config)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := analysis.Analyze(c.Request.Context(), req, &commands.Progress{})
		if err != nil {
			status := statusForError(err)
			slog.ErrorContext(c.Request.Context(), "analysis failed", "status", status, "error", err)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, applyView(result, ViewMode(c.Query("view"))))
	})
}

// buildIntakeRequest maps the HTTP request onto an intake request. Multipart
// requests carry the media in a "file" field; everything else is treated as
// a JSON link submission.
func buildIntakeRequest(c *gin.Context, config *cloud.Config) (*model.IntakeRequest, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, errors.New("multipart request missing file field")
		}
		if !acceptedMediaType(config, fileHeader.Filename) {
			return nil, errors.New("unsupported media type: " + filepath.Ext(fileHeader.Filename))
		}
		if config.Intake.MaxUploadSizeBytes > 0 && fileHeader.Size > config.Intake.MaxUploadSizeBytes {
			return nil, errors.New("upload exceeds the size limit")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, err
		}
		return &model.IntakeRequest{
			Upload:   file,
			Filename: fileHeader.Filename,
			Size:     fileHeader.Size,
		}, nil
	}

	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, errors.New("request must include a url or a file upload")
	}
	return &model.IntakeRequest{URL: body.URL}, nil
}

func acceptedMediaType(config *cloud.Config, filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, accepted := range config.Intake.AcceptedMediaTypes {
		if ext == accepted {
			return true
		}
	}
	return false
}

// statusForError maps pipeline failures onto HTTP statuses. Unresolvable
// sources are the caller's fault; acquisition and remote processing
// failures are upstream problems.
func statusForError(err error) int {
	var acquisitionErr *commands.AcquisitionError
	var remoteErr *cloud.RemoteProcessingError
	switch {
	case errors.Is(err, model.ErrUnresolvableSource):
		return http.StatusUnprocessableEntity
	case errors.As(err, &acquisitionErr), errors.As(err, &remoteErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// applyView filters the result down to the requested sections. Unknown view
// values return the full result.
func applyView(result *model.ResultModel, view ViewMode) *model.ResultModel {
	switch view {
	case ViewCreative:
		filtered := model.NewResultModel()
		filtered.TeaserClips = result.TeaserClips
		filtered.TrailerClips = result.TrailerClips
		filtered.ShortClips = result.ShortClips
		return filtered
	case ViewTechnical:
		filtered := model.NewResultModel()
		filtered.Issues = result.Issues
		return filtered
	default:
		return result
	}
}
