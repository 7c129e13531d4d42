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

// This file contains the supporting utilities for the cloud package:
// hierarchical TOML configuration loading, API key resolution, and a
// resilient wrapper for generative model calls that retries transient
// failures and records token usage metrics.
package cloud

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

const (
	ConfigFileBaseName  = ".env"                    // Base name for configuration files.
	ConfigFileExtension = ".toml"                   // Extension for configuration files.
	ConfigSeparator     = "."                       // Separator in override file names (e.g. ".env.test.toml").
	EnvConfigFilePrefix = "VIRALPOD_CONFIG_PREFIX"  // Environment variable naming the config directory.
	EnvConfigRuntime    = "VIRALPOD_RUNTIME"        // Environment variable naming the runtime (e.g. "local", "test").
	EnvAPIKey           = "GOOGLE_API_KEY"          // Environment variable holding the GenAI API key.
	MaxRetries          = 3                         // Maximum attempts for a generative model call.
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from TOML files using a hierarchical
// scheme: the base file (.env.toml) is read first, then an optional
// runtime-specific file (.env.<runtime>.toml) overwrites its values. The
// config directory and runtime name come from environment variables, with a
// "test" runtime default.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// ResolveAPIKey locates the GenAI API key. Lookup order: the secret file
// named in the config, the GOOGLE_API_KEY environment variable (after
// loading a .env file when present), and finally an interactive prompt on
// stdin for local development.
func ResolveAPIKey(cfg *Config) (string, error) {
	if cfg.Remote.APIKeyFile != "" && fileExists(cfg.Remote.APIKeyFile) {
		data, err := os.ReadFile(cfg.Remote.APIKeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read api key file %s: %w", cfg.Remote.APIKeyFile, err)
		}
		if key := strings.TrimSpace(string(data)); key != "" {
			return key, nil
		}
	}

	// Ignore the error, a .env file is optional.
	_ = godotenv.Load()
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key, nil
	}

	fmt.Print("Enter your Gemini API key: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("no api key available: %w", err)
	}
	if key := strings.TrimSpace(line); key != "" {
		return key, nil
	}
	return "", errors.New("no api key available")
}

// GenerateMultiModalResponse executes a multi-modal request against a
// generative model with retries and token usage telemetry. It returns the
// concatenated text of all candidates, with any JSON markdown fence
// stripped.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	tryCount int,
	model ContentGenerator,
	content []*genai.Content) (value string, err error) {
	resp, err := model.GenerateContent(ctx, content)

	if err != nil {
		if tryCount < MaxRetries {
			retryCounter.Add(ctx, 1)
			return GenerateMultiModalResponse(ctx, inputTokenCounter, outputTokenCounter, retryCounter, tryCount+1, model, content)
		}
		return "", err
	}

	if resp.UsageMetadata != nil {
		inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	value = ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				value += fmt.Sprint(part.Text)
			}
		}
	}
	value = strings.TrimPrefix(strings.TrimSpace(value), "```json")
	value = strings.TrimSuffix(value, "```")
	return value, nil
}

// NewFilePart is a factory for a part referencing a remotely hosted file.
func NewFilePart(uri string, mimeType string) *genai.Part {
	return genai.NewPartFromURI(uri, mimeType)
}
