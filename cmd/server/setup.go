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

// This file holds the application state setup: configuration loading, the
// cloud client container, and the analysis service wiring. A single
// StateManager instance keeps the shared dependencies together instead of
// scattering them across globals.
package main

import (
	"context"
	"log"
	"os"

	"github.com/viralpod/viralpod/internal/cloud"
	"github.com/viralpod/viralpod/internal/core/services"
	"github.com/viralpod/viralpod/internal/core/workflow"
)

// StateManager holds the shared dependencies for the server process.
type StateManager struct {
	config          *cloud.Config
	cloud           *cloud.ServiceClients
	analysisService *services.AnalysisService
}

var state = &StateManager{}

// SetupOS points the configuration loader at the configs directory and the
// local runtime overrides.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig loads the application configuration once and caches it.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// InitState creates the cloud clients and the analysis service.
func InitState(ctx context.Context) {
	config := GetConfig()

	apiKey, err := cloud.ResolveAPIKey(config)
	if err != nil {
		panic(err)
	}

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config, apiKey)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	wf := workflow.NewAnalysisWorkflow(config, cloudClients, nil, nil)
	state.analysisService = services.NewAnalysisService(config, wf)
}
