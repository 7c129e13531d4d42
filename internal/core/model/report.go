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

// This file handles the raw agent output side of the pipeline: parsing the
// JSON each agent returns into a PartialReport, merging partial reports, and
// building the canonical ResultModel out of the merged map. Agents are
// language models, so everything here is defensive. A report that fails to
// parse degrades to an empty map, unknown keys are ignored, and individual
// entries that cannot be coerced are dropped rather than failing the run.
package model

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrNoJSONObject indicates the model output contained no JSON object at all.
var ErrNoJSONObject = errors.New("no JSON object found in model output")

// Wire-level keys the agents are prompted to emit.
const (
	KeyTeaserClips  = "cold_open_clips"
	KeyTrailerClips = "trailer_structure"
	KeyShortClips   = "viral_shorts"
	KeyIssues       = "mistakes_log"
)

// PartialReport is one agent's raw output, keyed by the wire-level section
// names. Values stay raw until BuildResult coerces them.
type PartialReport map[string]json.RawMessage

// ParsePartialReport extracts a JSON object from raw model output. Markdown
// code fences and any text surrounding the outermost braces are stripped
// first. Output with no parseable object yields an empty report and the
// parse error, so callers can log and continue.
func ParsePartialReport(text string) (PartialReport, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return PartialReport{}, ErrNoJSONObject
	}
	cleaned = cleaned[start : end+1]

	report := PartialReport{}
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return PartialReport{}, err
	}
	return report, nil
}

// MergePartialReports combines reports in order, later reports winning on
// key conflicts.
func MergePartialReports(reports ...PartialReport) PartialReport {
	merged := PartialReport{}
	for _, report := range reports {
		for key, value := range report {
			merged[key] = value
		}
	}
	return merged
}

// rawClip is the loosely typed shape agents actually emit. It tolerates the
// alternate field names seen in practice and accepts scores as numbers,
// plain strings or "N/10" strings.
type rawClip struct {
	Start         string          `json:"start"`
	End           string          `json:"end"`
	Text          string          `json:"text"`
	Reason        string          `json:"reason"`
	Wisdom        string          `json:"wisdom"`
	NarrativeRole string          `json:"narrative_role"`
	Title         string          `json:"title"`
	ViralityScore json.RawMessage `json:"virality_score"`
	Score         json.RawMessage `json:"score"`
	ErrorType     string          `json:"error_type"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
}

// BuildResult coerces a merged report into the canonical ResultModel.
// Entries with timestamps that do not parse are dropped; entries with start
// after end are swapped. Missing optional fields get placeholder values.
func BuildResult(merged PartialReport) *ResultModel {
	result := NewResultModel()

	for _, raw := range decodeSection(merged, KeyTeaserClips) {
		clip, ok := coerceClip(raw)
		if !ok {
			continue
		}
		result.TeaserClips = append(result.TeaserClips, clip)
	}

	for _, raw := range decodeSection(merged, KeyTrailerClips) {
		clip, ok := coerceClip(raw)
		if !ok {
			continue
		}
		role := strings.TrimSpace(raw.NarrativeRole)
		if role == "" {
			role = PlaceholderRole
		}
		result.TrailerClips = append(result.TrailerClips, NarrativeClip{Clip: clip, Role: role})
	}

	for _, raw := range decodeSection(merged, KeyShortClips) {
		clip, ok := coerceClip(raw)
		if !ok {
			continue
		}
		title := strings.TrimSpace(raw.Title)
		if title == "" {
			title = PlaceholderTitle
		}
		result.ShortClips = append(result.ShortClips, ShortClip{
			Clip:          clip,
			Title:         title,
			ViralityScore: coerceScore(raw.ViralityScore, raw.Score),
		})
	}

	for _, raw := range decodeSection(merged, KeyIssues) {
		start, end, ok := coerceSpan(raw.Start, raw.End)
		if !ok {
			continue
		}
		category := strings.TrimSpace(raw.Category)
		if category == "" {
			category = strings.TrimSpace(raw.ErrorType)
		}
		if category == "" {
			category = "unspecified"
		}
		result.Issues = append(result.Issues, Issue{
			Start:       start,
			End:         end,
			Category:    category,
			Description: strings.TrimSpace(raw.Description),
		})
	}

	return result
}

// decodeSection unmarshals one section of the merged report. A missing or
// malformed section yields nil.
func decodeSection(merged PartialReport, key string) []rawClip {
	value, ok := merged[key]
	if !ok {
		return nil
	}
	var clips []rawClip
	if err := json.Unmarshal(value, &clips); err != nil {
		return nil
	}
	return clips
}

// coerceSpan validates and orders a start/end timestamp pair.
func coerceSpan(start, end string) (Timestamp, Timestamp, bool) {
	s := Timestamp(strings.TrimSpace(start))
	e := Timestamp(strings.TrimSpace(end))
	if !s.Valid() || !e.Valid() {
		return "", "", false
	}
	if s.Seconds() > e.Seconds() {
		s, e = e, s
	}
	return s, e, true
}

func coerceClip(raw rawClip) (Clip, bool) {
	start, end, ok := coerceSpan(raw.Start, raw.End)
	if !ok {
		return Clip{}, false
	}
	rationale := strings.TrimSpace(raw.Reason)
	if rationale == "" {
		rationale = strings.TrimSpace(raw.Wisdom)
	}
	if rationale == "" {
		rationale = PlaceholderRationale
	}
	return Clip{
		Start:      start,
		End:        end,
		Transcript: strings.TrimSpace(raw.Text),
		Rationale:  rationale,
	}, true
}

// coerceScore normalizes a virality score to the 0 to 10 scale. Accepts a
// bare number, a numeric string, or an "N/10" style string under either the
// virality_score or score key. Scores above 10 are assumed to be on a 0 to
// 100 scale and divided down. Anything unparseable scores 0.
func coerceScore(primary, fallback json.RawMessage) int {
	raw := primary
	if len(raw) == 0 {
		raw = fallback
	}
	if len(raw) == 0 {
		return 0
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return clampScore(number)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0
	}
	text = strings.TrimSpace(text)
	if slash := strings.Index(text, "/"); slash >= 0 {
		text = text[:slash]
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return clampScore(parsed)
}

func clampScore(score float64) int {
	if score > 10 {
		score = score / 10
	}
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return int(score)
}
