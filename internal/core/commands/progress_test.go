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
	"sync"
	"testing"

	"github.com/zeebo/assert"

	"github.com/viralpod/viralpod/internal/core/commands"
)

func TestProgressMonotonic(t *testing.T) {
	var p commands.Progress
	p.Set(40)
	p.Set(25)
	assert.Equal(t, 40, p.Get())

	p.Set(150)
	assert.Equal(t, 100, p.Get())
}

func TestProgressComplete(t *testing.T) {
	var p commands.Progress
	p.Complete()
	assert.Equal(t, 100, p.Get())
}

func TestProgressConcurrentUpdates(t *testing.T) {
	var p commands.Progress
	var wg sync.WaitGroup
	for i := 0; i <= 100; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			p.Set(v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, p.Get())
}
