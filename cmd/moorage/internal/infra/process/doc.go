// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package process provides abstractions for external process execution and
inter-process synchronization.

# Overview

This package contains two main components:

  - Manager: Abstracts external process execution for testability
  - ReconcileLock: File-based locking to serialize reconciliation cycles

# Manager

Manager enables testable interaction with the operating system's process
management capabilities. All exec.Command calls should go through this
interface to enable mocking in unit tests.

	pm := process.NewDefaultManager()
	stdout, stderr, code, err := pm.RunInDir(ctx, "", nil, "podman", "ps")
	if err != nil {
	    return fmt.Errorf("failed to list containers: %w", err)
	}

For testing, use MockManager:

	mock := &process.MockManager{
	    RunInDirFunc: func(ctx context.Context, dir string, env map[string]string, name string, args ...string) (string, string, int, error) {
	        return "mock output", "", 0, nil
	    },
	}

# ReconcileLock

ReconcileLock prevents multiple reconciliation cycles from running
simultaneously, avoiding races that could interleave apply actions.
Uses flock(2) for advisory file locking.

	lock := process.NewReconcileLock(stackDir)
	if err := lock.Acquire(); err != nil {
	    fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	    os.Exit(2)
	}
	defer lock.Release()

# Thread Safety

  - Manager implementations are safe for concurrent use
  - ReconcileLock is NOT safe for concurrent use from multiple goroutines

# Limitations

  - ReconcileLock uses advisory locks - other processes can ignore it
  - ReconcileLock requires OS support for flock(2)
*/
package process
