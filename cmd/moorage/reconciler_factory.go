// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/config"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/infra/process"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/runtime"
)

// =============================================================================
// INTERFACES
// =============================================================================

// ReconcilerFactory creates Reconciler instances with all required
// dependencies.
//
// This interface enables dependency injection for testing - production
// code uses DefaultReconcilerFactory, while tests can provide mock
// implementations.
type ReconcilerFactory interface {
	// CreateReconciler builds a fully configured Reconciler.
	//
	// # Inputs
	//
	//   - cfg: The global Moorage configuration.
	//
	// # Outputs
	//
	//   - *Reconciler: Ready-to-use reconciler with the process manager
	//     and podman client wired.
	//   - error: Non-nil when the runtime is unavailable.
	CreateReconciler(cfg config.MoorageConfig) (*Reconciler, error)
}

// =============================================================================
// STRUCTS
// =============================================================================

// DefaultReconcilerFactory is the production implementation of
// ReconcilerFactory.
type DefaultReconcilerFactory struct{}

// Compile-time interface check.
var _ ReconcilerFactory = (*DefaultReconcilerFactory)(nil)

// NewDefaultReconcilerFactory creates a new DefaultReconcilerFactory
// instance.
func NewDefaultReconcilerFactory() *DefaultReconcilerFactory {
	return &DefaultReconcilerFactory{}
}

// =============================================================================
// METHODS
// =============================================================================

// CreateReconciler builds a Reconciler over a real podman client.
func (f *DefaultReconcilerFactory) CreateReconciler(cfg config.MoorageConfig) (*Reconciler, error) {
	proc := process.NewDefaultManager()
	client, err := runtime.NewPodmanClient(runtime.PodmanClientOptions{
		PodmanBinary:  cfg.Runtime.PodmanBinary,
		ComposeBinary: cfg.Runtime.ComposeBinary,
		ProjectName:   cfg.Stack.ProjectName,
		ComposeFile:   cfg.ComposePath(),
		WorkDir:       cfg.Stack.Dir,
	}, proc)
	if err != nil {
		return nil, err
	}
	return NewReconciler(cfg, client), nil
}

// reconcilerFactory is the process-wide factory; tests swap it for a
// mock.
var reconcilerFactory ReconcilerFactory = NewDefaultReconcilerFactory()
