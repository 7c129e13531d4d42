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

// This file defines the canonical result model produced by merging the
// creative and technical agent reports. Every slice in ResultModel is always
// non-nil so consumers can range without nil checks.
package model

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder values substituted during merge when an agent omits an
// optional field.
const (
	PlaceholderRationale = "No rationale provided"
	PlaceholderRole      = "Clip"
	PlaceholderTitle     = "Untitled Clip"
)

var timestampRe = regexp.MustCompile(`^\d+:[0-5]\d$`)

// Timestamp is a media position in "M:SS" or "MM:SS" form, minutes unbounded.
type Timestamp string

// Valid reports whether the timestamp matches the canonical form.
func (t Timestamp) Valid() bool {
	return timestampRe.MatchString(string(t))
}

// Seconds converts the timestamp to a second count. Invalid timestamps
// return 0.
func (t Timestamp) Seconds() int {
	parts := strings.SplitN(string(t), ":", 2)
	if len(parts) != 2 {
		return 0
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return minutes*60 + seconds
}

// Clip is a time-bounded excerpt of the analyzed media.
type Clip struct {
	Start      Timestamp `json:"start"`
	End        Timestamp `json:"end"`
	Transcript string    `json:"text"`
	Rationale  string    `json:"reason"`
}

// NarrativeClip is a clip with an assigned role in a trailer narrative, such
// as hook, build or payoff.
type NarrativeClip struct {
	Clip
	Role string `json:"narrative_role"`
}

// ShortClip is a clip proposed as a standalone short, scored for virality on
// a 0 to 10 scale.
type ShortClip struct {
	Clip
	Title         string `json:"title"`
	ViralityScore int    `json:"virality_score"`
}

// Issue is a production problem found in the media, such as a long silence,
// background noise, a cough or a speaker mistake.
type Issue struct {
	Start       Timestamp `json:"start"`
	End         Timestamp `json:"end"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
}

// ResultModel is the merged output of the creative and technical agents.
type ResultModel struct {
	TeaserClips  []Clip          `json:"teaser_clips"`
	TrailerClips []NarrativeClip `json:"trailer_clips"`
	ShortClips   []ShortClip     `json:"short_clips"`
	Issues       []Issue         `json:"issues"`
}

// NewResultModel creates an empty result with all slices initialized.
func NewResultModel() *ResultModel {
	return &ResultModel{
		TeaserClips:  make([]Clip, 0),
		TrailerClips: make([]NarrativeClip, 0),
		ShortClips:   make([]ShortClip, 0),
		Issues:       make([]Issue, 0),
	}
}
