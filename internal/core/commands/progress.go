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

// This file defines the progress tracker shared across pipeline stages.
// Long-running stages bump it so callers polling a run can show a percent
// complete. Progress only moves forward; a stale update can never make the
// reported value go backwards.
package commands

import "sync/atomic"

// GetProgressParameterName returns the canonical context key holding the
// run's *Progress tracker.
func GetProgressParameterName() string {
	return "__ANALYSIS_PROGRESS__"
}

// Progress is a monotonic percent-complete counter, safe for concurrent use.
type Progress struct {
	value atomic.Int64
}

// Set raises the progress to percent, capped at 100. Values below the
// current progress are ignored.
func (p *Progress) Set(percent int) {
	if percent > 100 {
		percent = 100
	}
	for {
		current := p.value.Load()
		if int64(percent) <= current {
			return
		}
		if p.value.CompareAndSwap(current, int64(percent)) {
			return
		}
	}
}

// Complete marks the run finished.
func (p *Progress) Complete() {
	p.Set(100)
}

// Get returns the current percent complete.
func (p *Progress) Get() int {
	return int(p.value.Load())
}
