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

// This file wraps the GenAI model client with a rate-limiting decorator.
// Gemini enforces per-minute request quotas, and a run fires both agents
// concurrently, so every model call goes through a limiter instead of
// hitting the API directly.
package cloud

import (
	"context"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the capability the pipeline needs from a generative
// model. The production implementation is QuotaAwareGenerativeAIModel; tests
// substitute fakes.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel decorates the GenAI models client with a rate
// limiter so concurrent agent calls stay inside the per-model quota.
type QuotaAwareGenerativeAIModel struct {
	GenerateConfig *genai.GenerateContentConfig // Generation parameters for this agent.
	ModelName      string
	Models         *genai.Models // The underlying models API handle.
	RateLimit      *rate.Limiter
}

// NewQuotaAwareModel creates a rate-limited model wrapper allowing at most
// requestsPerSecond calls, with an equal burst.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, models *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerateConfig: config,
		ModelName:      name,
		Models:         models,
		RateLimit:      rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// GenerateContent blocks until the limiter grants a slot, then forwards the
// request to the underlying model.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	return q.Models.GenerateContent(ctx, q.ModelName, content, q.GenerateConfig)
}
