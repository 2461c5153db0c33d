// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package util

import (
	"context"
	"time"
)

// =============================================================================
// Constants
// =============================================================================

// Timeout constants define minimum and default values for runtime operations.
//
// These constants prevent accidental infinite hangs by ensuring all
// operations have a reasonable timeout even if misconfigured. Every call
// that touches the container runtime goes through one of these.
const (
	// MinRuntimeTimeout is the absolute minimum for any runtime call.
	// Prevents accidental infinite hangs from zero timeouts.
	MinRuntimeTimeout = 1 * time.Second

	// DefaultObserveTimeout is the standard timeout for listing
	// managed services.
	DefaultObserveTimeout = 30 * time.Second

	// DefaultActionTimeout is the standard timeout for a single
	// create/start/recreate/remove action.
	DefaultActionTimeout = 2 * time.Minute

	// DefaultApplyTimeout is the standard timeout for an entire
	// apply run.
	DefaultApplyTimeout = 10 * time.Minute
)

// EnforceMinTimeout returns at least the minimum timeout.
//
// # Description
//
// Ensures a timeout is never below the specified minimum. If the requested
// timeout is zero, negative, or below the minimum, returns the minimum
// instead. This prevents misconfiguration from causing infinite hangs.
//
// # Inputs
//
//   - requested: The timeout value requested by the caller
//   - minimum: The absolute minimum acceptable timeout
//
// # Outputs
//
//   - time.Duration: The requested timeout if valid, otherwise the minimum
func EnforceMinTimeout(requested, minimum time.Duration) time.Duration {
	if requested <= 0 || requested < minimum {
		return minimum
	}
	return requested
}

// EnforceDefaultTimeout returns the default if the requested is zero or negative.
//
// Unlike EnforceMinTimeout, this only applies the default when the value
// is explicitly zero or negative. Useful when you want to allow any
// positive value but provide a sensible default.
func EnforceDefaultTimeout(requested, def time.Duration) time.Duration {
	if requested <= 0 {
		return def
	}
	return requested
}

// ContextWithTimeout derives a context bounded by the requested timeout,
// clamped to at least MinRuntimeTimeout.
//
// Every runtime call wraps its context through this so a zero or
// misconfigured timeout can never hang a reconcile forever.
func ContextWithTimeout(ctx context.Context, requested time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, EnforceMinTimeout(requested, MinRuntimeTimeout))
}
