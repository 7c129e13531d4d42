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

// This file initializes and holds the external service clients. It acts as
// a dependency injection container: NewCloudServiceClients builds the GenAI
// client, the remote file service, and one rate-limited model per configured
// agent, and the resulting ServiceClients struct is shared across the API
// handlers and the analysis pipeline.
package cloud

import (
	"context"

	"google.golang.org/genai"
)

// ServiceClients is the container for every external service connection the
// application holds. The Files and AgentModels fields are interfaces so
// tests can run the full pipeline against fakes.
type ServiceClients struct {
	GenAIClient *genai.Client               // The underlying GenAI client.
	Files       FileService                 // Remote file store for media uploads.
	AgentModels map[string]ContentGenerator // Configured agent models keyed by logical name.
}

// NewCloudServiceClients initializes the GenAI client and wires up the file
// service and agent models described by the configuration.
func NewCloudServiceClients(ctx context.Context, config *Config, apiKey string) (*ServiceClients, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	agentModels := make(map[string]ContentGenerator)
	for amKey, values := range config.AgentModels {
		model := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
		}
		agentModels[amKey] = NewQuotaAwareModel(model, values.Model, gc.Models, values.RateLimit)
	}

	return &ServiceClients{
		GenAIClient: gc,
		Files:       NewGeminiFileService(gc),
		AgentModels: agentModels,
	}, nil
}
