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

// Package cloud holds the application configuration structures, the GenAI
// client wiring, and the remote file service used for media analysis. This
// file centralizes every configurable parameter, loaded from TOML files by
// LoadConfig in utils.go.
package cloud

import (
	"os"

	"google.golang.org/genai"
)

// DefaultSafetySettings defines non-restrictive content safety thresholds for
// the agent models. Podcast audio is trusted input and blocked responses
// would silently drop whole report sections.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// PromptTemplates holds the text templates rendered into the agent prompts.
type PromptTemplates struct {
	Creative  string `toml:"creative"`  // Template for the creative agent prompt.
	Technical string `toml:"technical"` // Template for the technical agent prompt.
}

// GeminiAgentModel represents the configuration for one analysis agent.
type GeminiAgentModel struct {
	Model              string  `toml:"model"`               // The Gemini model name.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the agent.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter.
	TopP               float32 `toml:"top_p"`               // The top_p parameter.
	TopK               float32 `toml:"top_k"`               // The top_k parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // Maximum output tokens.
	OutputFormat       string  `toml:"output_format"`       // Response MIME type, e.g. application/json.
	RateLimit          int     `toml:"rate_limit"`          // Requests per second allowed for this agent.
}

// Intake holds the settings for source acquisition and uploads.
type Intake struct {
	AcceptedMediaTypes   []string `toml:"accepted_media_types"`    // File extensions accepted for upload.
	HTTPChunkSizeBytes   int      `toml:"http_chunk_size_bytes"`   // Copy chunk size for streamed downloads.
	UploadChunkSizeBytes int      `toml:"upload_chunk_size_bytes"` // Copy chunk size for saving uploads.
	MaxUploadSizeBytes   int64    `toml:"max_upload_size_bytes"`   // Upload size limit, 0 for unlimited.
}

// Remote holds the settings for the remote file processing service.
type Remote struct {
	APIKeyFile               string `toml:"api_key_file"`               // Path to a file containing the API key.
	PollIntervalMs           int    `toml:"poll_interval_ms"`           // Delay between remote state polls.
	ProcessingTimeoutSeconds int    `toml:"processing_timeout_seconds"` // Deadline for remote processing.
}

// Analysis holds tuning knobs rendered into the agent prompts.
type Analysis struct {
	SilenceThresholdSeconds int `toml:"silence_threshold_seconds"` // Minimum gap length reported as a silence issue.
}

// Tools holds the paths to the external binaries the pipeline shells out to.
type Tools struct {
	YtDlpPath  string `toml:"yt_dlp_path"`
	FfmpegPath string `toml:"ffmpeg_path"`
}

// Config is the root container for all application settings, loaded from
// TOML files.
type Config struct {
	Application struct {
		Name           string `toml:"name"`             // The name of the application.
		ThreadPoolSize int    `toml:"thread_pool_size"` // Worker pool size for parallel agent calls.
		WorkspaceDir   string `toml:"workspace_dir"`    // Root directory for per-run scratch space.
	} `toml:"application"`
	Intake          Intake                      `toml:"intake"`
	Remote          Remote                      `toml:"remote"`
	Analysis        Analysis                    `toml:"analysis"`
	Tools           Tools                       `toml:"tools"`
	PromptTemplates PromptTemplates             `toml:"prompt_templates"`
	AgentModels     map[string]GeminiAgentModel `toml:"agent_models"` // Agent models keyed by logical name (e.g. "creative").
}

// NewConfig creates a Config with map fields initialized and the defaults
// that hold when a TOML file leaves a setting out.
func NewConfig() *Config {
	config := &Config{
		AgentModels: make(map[string]GeminiAgentModel),
	}
	config.Application.ThreadPoolSize = 2
	config.Application.WorkspaceDir = os.TempDir()
	config.Intake.AcceptedMediaTypes = []string{".mp4", ".mov", ".mp3", ".wav", ".m4a"}
	config.Intake.HTTPChunkSizeBytes = 1 << 20
	config.Intake.UploadChunkSizeBytes = 10 << 20
	config.Remote.PollIntervalMs = 500
	config.Remote.ProcessingTimeoutSeconds = 300
	config.Analysis.SilenceThresholdSeconds = 8
	config.Tools.YtDlpPath = "yt-dlp"
	config.Tools.FfmpegPath = "ffmpeg"
	return config
}
