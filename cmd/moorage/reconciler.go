// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package main provides the Moorage CLI and its Reconciler coordinator.

Reconciler is the orchestrator that runs one reconciliation pass:

	┌────────────────────────────────────────────────────────────┐
	│                        Reconciler                          │
	├────────────────────────────────────────────────────────────┤
	│  Reconcile sequence:                                       │
	│    1. registry.LoadCatalog()     // validated catalog      │
	│    2. state.LoadOrEmpty()        // declared intent        │
	│    3. graph.Resolver.Resolve()   // service closure        │
	│    4. render.Renderer.RenderAll()// canonical bytes+hashes │
	│    5. observe.Observer.Snapshot()// actual state           │
	│    6. plan.Diff()                // drift report + plan    │
	│    7. apply.Executor.Apply()     // (apply/watch only)     │
	└────────────────────────────────────────────────────────────┘

Plan and status stop after step 6 and never mutate anything. Apply
additionally serializes against concurrent reconciles with a stack-dir
file lock, persists the rendered compose document, hash sidecar, and a
plan audit record before the first container is touched.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/config"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/apply"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/graph"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/infra/process"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/observe"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/plan"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/registry"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/render"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/runtime"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/state"
)

// ReconcileOptions tunes one reconciliation pass.
type ReconcileOptions struct {
	// Prune plans removal of extra managed containers.
	Prune bool

	// Parallelism bounds concurrent actions per wave (apply only).
	Parallelism int
}

// PlanOutcome is everything a dry run produces.
type PlanOutcome struct {
	Report   plan.Report
	Plan     plan.Plan
	Catalog  *registry.Catalog
	Desired  plan.Desired
	Rendered []render.RenderedService
}

// ApplyOutcome is a plan outcome plus the execution result.
type ApplyOutcome struct {
	PlanOutcome
	Result apply.Result
}

// Reconciler coordinates one reconciliation pass end to end.
//
// # Thread Safety
//
// A Reconciler may be shared, but concurrent Apply calls on the same
// stack directory serialize on the reconcile lock; the loser fails
// fast with process.ErrLockHeld.
type Reconciler struct {
	cfg      config.MoorageConfig
	client   runtime.Client
	observer *observe.Observer
}

// NewReconciler wires a Reconciler over a runtime client.
func NewReconciler(cfg config.MoorageConfig, client runtime.Client) *Reconciler {
	return &Reconciler{
		cfg:      cfg,
		client:   client,
		observer: observe.NewObserver(client),
	}
}

// BuildPlan runs the read-only half of a reconcile.
//
// # Outputs
//
//   - PlanOutcome: Drift report, ordered plan, and the inputs that
//     produced them
//   - error: Fatal resolution/render/observe failures; drift is not an
//     error
func (r *Reconciler) BuildPlan(ctx context.Context, opts ReconcileOptions) (PlanOutcome, error) {
	catalog, err := registry.LoadCatalog(r.cfg.RegistryPath())
	if err != nil {
		return PlanOutcome{}, fmt.Errorf("loading service registry: %w", err)
	}
	intent, err := state.LoadOrEmpty(r.cfg.StatePath())
	if err != nil {
		return PlanOutcome{}, fmt.Errorf("loading desired state: %w", err)
	}

	resolution, err := graph.NewResolver(catalog).Resolve(intent.EnabledPacks, intent.EnabledExtensions)
	if err != nil {
		return PlanOutcome{}, err
	}

	rendered, failures := render.NewRenderer(catalog).RenderAll(ctx, resolution.Services)
	if len(failures) > 0 {
		// Planning against a partial render would mistake unrendered
		// services for missing ones.
		return PlanOutcome{}, fmt.Errorf("rendering desired state: %w", errors.Join(failures...))
	}

	actual, err := r.observer.Snapshot(ctx)
	if err != nil {
		return PlanOutcome{}, err
	}

	desired := plan.NewDesired(resolution, rendered)
	report, p := plan.Diff(desired, actual, plan.Options{
		Prune:        opts.Prune,
		Dependencies: catalog.ServiceDependencies,
	})
	return PlanOutcome{
		Report:   report,
		Plan:     p,
		Catalog:  catalog,
		Desired:  desired,
		Rendered: rendered,
	}, nil
}

// Apply runs a full reconcile under the stack lock.
//
// # Description
//
// Re-plans under the lock (another reconcile may have run since any
// earlier dry run), persists the rendered compose document, the hash
// sidecar, and the plan audit record, then executes the plan wave by
// wave. A failed action leaves its dependents unattempted; the outcome
// reports exactly what happened.
func (r *Reconciler) Apply(ctx context.Context, opts ReconcileOptions) (ApplyOutcome, error) {
	lock, err := process.NewReconcileLock(r.cfg.Stack.Dir)
	if err != nil {
		return ApplyOutcome{}, err
	}
	if err := lock.Acquire(); err != nil {
		return ApplyOutcome{}, err
	}
	defer lock.Release()

	outcome, err := r.BuildPlan(ctx, opts)
	if err != nil {
		return ApplyOutcome{}, err
	}

	if err := r.persistRendered(outcome); err != nil {
		return ApplyOutcome{PlanOutcome: outcome}, err
	}

	if outcome.Plan.Empty() {
		return ApplyOutcome{PlanOutcome: outcome}, nil
	}

	if err := r.writeAudit(outcome.Plan); err != nil {
		return ApplyOutcome{PlanOutcome: outcome}, err
	}

	exec := apply.NewExecutor(r.client, outcome.Catalog.ServiceDependencies, apply.Options{
		Parallelism:   opts.Parallelism,
		ActionTimeout: r.cfg.Reconcile.ActionTimeout.Std(),
	})
	result, execErr := exec.Apply(ctx, outcome.Plan)
	return ApplyOutcome{PlanOutcome: outcome, Result: result}, execErr
}

// Logs streams one service's container logs to w.
func (r *Reconciler) Logs(ctx context.Context, service string, w io.Writer, follow bool) error {
	return r.client.Logs(ctx, service, w, follow)
}

// persistRendered writes the compose document and hash sidecar the
// runtime client creates containers from.
func (r *Reconciler) persistRendered(outcome PlanOutcome) error {
	rendered := outcome.Rendered
	doc, docHash, err := render.ComposeDocument(r.cfg.Stack.ProjectName, rendered)
	if err != nil {
		return err
	}
	manifest, err := render.NewHashManifest(docHash, rendered).MarshalIndent()
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.cfg.ComposePath())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating rendered directory %s: %w", dir, err)
	}
	if err := os.WriteFile(r.cfg.ComposePath(), doc, 0644); err != nil {
		return fmt.Errorf("writing compose document: %w", err)
	}
	if err := os.WriteFile(r.cfg.ManifestPath(), manifest, 0644); err != nil {
		return fmt.Errorf("writing hash manifest: %w", err)
	}
	return nil
}

// writeAudit records the plan about to execute so a crashed apply can
// be reconstructed afterwards.
func (r *Reconciler) writeAudit(p plan.Plan) error {
	data, err := p.MarshalIndent()
	if err != nil {
		return err
	}
	path := filepath.Join(r.cfg.Stack.Dir, "last_plan.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing plan audit record: %w", err)
	}
	return nil
}
