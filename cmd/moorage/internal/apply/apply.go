// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package apply executes a plan against the container runtime.
//
// # Overview
//
// The executor walks the plan wave by wave: actions within a wave are
// independent and run concurrently on a bounded pool; a wave only
// starts once the previous wave finished. A failed action does not
// abort the run, but every later action that depends (transitively) on
// the failed service is skipped rather than attempted against a broken
// prerequisite. The executor reports exactly what succeeded, failed,
// and was skipped; partial convergence is a normal outcome, not an
// error.
package apply

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/plan"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/runtime"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/util"
)

// DefaultParallelism bounds concurrent actions within a wave.
const DefaultParallelism = 4

// Failure records one action that could not be executed.
type Failure struct {
	// Service is the action's target.
	Service string

	// Action is the mutation that failed.
	Action plan.ActionType

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Action, f.Service, f.Err)
}

// Result summarizes one apply run.
type Result struct {
	// RunID uniquely identifies this run in logs and audit records.
	RunID string

	// Succeeded lists services whose actions completed, in execution
	// order.
	Succeeded []string

	// Skipped lists services skipped because a prerequisite failed,
	// sorted by name.
	Skipped []string

	// Failures holds one entry per failed action, sorted by service.
	Failures []Failure
}

// FullyApplied reports whether every planned action ran successfully.
func (r Result) FullyApplied() bool {
	return len(r.Failures) == 0 && len(r.Skipped) == 0
}

// Options tunes executor behavior.
type Options struct {
	// Parallelism bounds concurrent actions per wave. Values below 1
	// fall back to DefaultParallelism.
	Parallelism int

	// ActionTimeout bounds each individual action. Zero falls back to
	// the runtime client's own defaults.
	ActionTimeout time.Duration
}

// Executor runs plans against a runtime client.
//
// # Thread Safety
//
// An Executor may be reused, but a single Apply call owns its result;
// do not run Apply concurrently on one Executor with a shared client
// that is not itself safe.
type Executor struct {
	client runtime.Client
	deps   func(string) []string
	opts   Options
}

// NewExecutor returns an Executor.
//
// deps returns the direct dependencies of a service; the executor uses
// it to decide which pending actions a failure poisons. A nil deps
// disables skip propagation.
func NewExecutor(client runtime.Client, deps func(string) []string, opts Options) *Executor {
	if opts.Parallelism < 1 {
		opts.Parallelism = DefaultParallelism
	}
	return &Executor{client: client, deps: deps, opts: opts}
}

// Apply executes the plan.
//
// # Description
//
// Waves execute in order; within a wave actions run concurrently up to
// the parallelism bound. Before each action the executor checks ctx and
// whether any transitive dependency already failed or was skipped this
// run. Cancellation stops scheduling new actions but lets in-flight
// ones finish.
//
// # Outputs
//
//   - Result: What ran, what failed, what was skipped
//   - error: Only ctx errors; action failures live in Result.Failures
func (e *Executor) Apply(ctx context.Context, p plan.Plan) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	poisoned := make(map[string]bool)
	var mu sync.Mutex

	for _, wave := range p.Waves() {
		if err := ctx.Err(); err != nil {
			e.skipRemaining(&res, p, &mu)
			return res, err
		}

		g := new(errgroup.Group)
		g.SetLimit(e.opts.Parallelism)

		for _, action := range wave {
			action := action
			mu.Lock()
			blocked := action.Type != plan.ActionRemove && e.hasPoisonedDep(action.Service, poisoned)
			if blocked {
				poisoned[action.Service] = true
				res.Skipped = append(res.Skipped, action.Service)
			}
			mu.Unlock()
			if blocked {
				continue
			}

			g.Go(func() error {
				err := e.run(ctx, action)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					poisoned[action.Service] = true
					res.Failures = append(res.Failures, Failure{
						Service: action.Service,
						Action:  action.Type,
						Err:     err,
					})
					return nil
				}
				res.Succeeded = append(res.Succeeded, action.Service)
				return nil
			})
		}
		// Workers never return errors; failures are collected above.
		_ = g.Wait()
	}

	sort.Strings(res.Skipped)
	sort.Slice(res.Failures, func(i, j int) bool {
		return res.Failures[i].Service < res.Failures[j].Service
	})
	return res, nil
}

// run dispatches one action to the client under the per-action timeout.
func (e *Executor) run(ctx context.Context, a plan.Action) error {
	if e.opts.ActionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = util.ContextWithTimeout(ctx, e.opts.ActionTimeout)
		defer cancel()
	}

	switch a.Type {
	case plan.ActionCreate:
		return e.client.Create(ctx, a.Service)
	case plan.ActionStart:
		return e.client.Start(ctx, a.Service)
	case plan.ActionRecreate:
		return e.client.Recreate(ctx, a.Service)
	case plan.ActionRemove:
		return e.client.Remove(ctx, a.Service)
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}

// hasPoisonedDep reports whether service transitively depends on any
// poisoned service. Caller holds the result mutex.
func (e *Executor) hasPoisonedDep(service string, poisoned map[string]bool) bool {
	if e.deps == nil || len(poisoned) == 0 {
		return false
	}
	seen := map[string]bool{service: true}
	queue := append([]string(nil), e.deps(service)...)
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		if seen[d] {
			continue
		}
		seen[d] = true
		if poisoned[d] {
			return true
		}
		queue = append(queue, e.deps(d)...)
	}
	return false
}

// skipRemaining marks every not-yet-executed action as skipped after
// cancellation.
func (e *Executor) skipRemaining(res *Result, p plan.Plan, mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()

	done := make(map[string]bool, len(res.Succeeded)+len(res.Skipped)+len(res.Failures))
	for _, s := range res.Succeeded {
		done[s] = true
	}
	for _, s := range res.Skipped {
		done[s] = true
	}
	for _, f := range res.Failures {
		done[f.Service] = true
	}
	for _, a := range p.Actions {
		if !done[a.Service] {
			res.Skipped = append(res.Skipped, a.Service)
			done[a.Service] = true
		}
	}
	sort.Strings(res.Skipped)
}
