// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observe captures the actual state of the managed stack.
//
// Observation is read-only and fail-fast: when the runtime cannot be
// reached the whole reconcile aborts, because an empty snapshot would
// be indistinguishable from "everything is missing" and would plan a
// full recreate of a possibly healthy stack.
package observe

import (
	"context"
	"fmt"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/runtime"
)

// ObserverError wraps a failure to capture the actual state.
type ObserverError struct {
	// Wrapped is the underlying runtime error.
	Wrapped error
}

// Error implements the error interface.
func (e *ObserverError) Error() string {
	return fmt.Sprintf("observing actual state: %v", e.Wrapped)
}

// Unwrap supports errors.Is/As against the underlying cause.
func (e *ObserverError) Unwrap() error {
	return e.Wrapped
}

var _ error = (*ObserverError)(nil)

// Snapshot is the actual state keyed by service name.
type Snapshot map[string]runtime.ActualServiceRecord

// Observer captures snapshots through a runtime client.
type Observer struct {
	client runtime.Client
}

// NewObserver returns an Observer over the given client.
func NewObserver(client runtime.Client) *Observer {
	return &Observer{client: client}
}

// Snapshot returns the current actual state.
//
// # Description
//
// Lists every managed container and keys the result by service name.
// When two containers claim the same service (a crashed recreate can
// leave one behind), the running one wins so the diff sees the live
// container's hash.
//
// # Outputs
//
//   - Snapshot: Actual state keyed by service name
//   - error: *ObserverError wrapping runtime.ErrRuntimeUnavailable or
//     any other listing failure
func (o *Observer) Snapshot(ctx context.Context) (Snapshot, error) {
	records, err := o.client.ListManaged(ctx)
	if err != nil {
		return nil, &ObserverError{Wrapped: err}
	}

	snap := make(Snapshot, len(records))
	for _, rec := range records {
		if existing, ok := snap[rec.Name]; ok && existing.Running && !rec.Running {
			continue
		}
		snap[rec.Name] = rec
	}
	return snap, nil
}
