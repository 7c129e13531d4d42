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

// Package cor (Chain of Responsibility) provides the building blocks used to
// assemble the intake and analysis pipeline as a sequence of commands. This
// file defines the interfaces the rest of the framework implements. The
// pipeline stages stay interchangeable as long as they satisfy Command, and a
// Chain is itself a Command so pipelines can be nested.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the context keys used by BaseChain to pipe the output
// of one command into the input of the next.
const (
	// CtxIn is the default key a command reads its primary input from.
	CtxIn = "__IN__"
	// CtxOut is the default key a command writes its primary output to. The
	// chain moves this value to CtxIn before the next command runs.
	CtxOut = "__OUT__"
)

// Context is the shared state for one pipeline execution. It carries the
// data produced by each stage, any errors the stages recorded, and the list
// of temporary artifacts that must be removed when the request finishes.
type Context interface {
	// SetContext sets the standard Go context used for cancellation and for
	// propagating trace information into commands.
	SetContext(context context.Context)

	// GetContext returns the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records a fatal error, keyed by the command that produced it.
	AddError(key string, err error)

	// GetErrors returns all errors recorded during the execution.
	GetErrors() map[string]error

	// Get retrieves a value by key, or nil when absent.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddTempFile registers a local artifact for end-of-request cleanup.
	AddTempFile(file string)

	// GetTempFiles returns all registered artifact paths.
	GetTempFiles() []string

	// Close removes registered artifacts. Cleanup is best-effort: a failed
	// removal is logged, never surfaced as a request error.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	// Execute runs the unit of work, reading inputs from and writing outputs
	// to the supplied Context.
	Execute(context Context)
}

// Command is an atomic, independently testable unit of pipeline work.
type Command interface {
	Executable

	// GetName returns the command name used for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key the command reads its input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its output to.
	GetOutputParam() string

	// IsExecutable reports whether the command's preconditions hold for the
	// current context state.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for this command.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps executing commands
	// after one of them records an error. The pipeline default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
