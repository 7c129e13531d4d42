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

// This file provides factory functions for hardcoded example reports. The
// examples are embedded into the agent prompts as few-shot guidance so the
// models return JSON that is consistent, correctly keyed and parsable.
package model

import "encoding/json"

// GetExampleCreativeReport creates a sample creative agent report. Embedding
// it in the creative prompt shows the model the expected section keys and
// clip field names, including the "M:SS" timestamp form and the "N/10"
// virality score style it may use.
func GetExampleCreativeReport() PartialReport {
	return PartialReport{
		KeyTeaserClips: json.RawMessage(`[
  {"start": "2:15", "end": "2:40", "text": "I lost everything in one afternoon, and that was the best thing that ever happened to me.", "reason": "A raw confession that hooks the listener immediately."}
]`),
		KeyTrailerClips: json.RawMessage(`[
  {"start": "0:45", "end": "1:05", "text": "Nobody tells you what founding a company actually feels like.", "narrative_role": "hook", "reason": "Frames the whole episode as insider knowledge."},
  {"start": "12:30", "end": "12:55", "text": "We were three weeks from missing payroll.", "narrative_role": "build", "reason": "Raises the stakes with a concrete crisis."},
  {"start": "41:10", "end": "41:35", "text": "And then the deal closed.", "narrative_role": "payoff", "reason": "Resolves the tension set up by the build clip."}
]`),
		KeyShortClips: json.RawMessage(`[
  {"start": "18:05", "end": "18:50", "text": "The one email template that got me every investor meeting.", "title": "The Cold Email That Raised Millions", "virality_score": "9/10", "reason": "Actionable tactic with a concrete payoff in under a minute."}
]`),
	}
}

// GetExampleTechnicalReport creates a sample technical agent report showing
// the issues section format, with timestamped spans and short categories.
func GetExampleTechnicalReport() PartialReport {
	return PartialReport{
		KeyIssues: json.RawMessage(`[
  {"start": "5:12", "end": "5:24", "category": "silence", "description": "Dead air of roughly twelve seconds after the guest finishes."},
  {"start": "22:40", "end": "22:43", "category": "cough", "description": "Host coughs over the guest's answer."},
  {"start": "37:58", "end": "38:10", "category": "mistake", "description": "Speaker says the wrong year and corrects themselves."}
]`),
	}
}
