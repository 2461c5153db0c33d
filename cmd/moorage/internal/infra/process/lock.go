// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// =============================================================================
// Error Definitions
// =============================================================================

var (
	// ErrLockHeld is returned when another process holds the reconcile lock.
	ErrLockHeld = errors.New("another reconciliation is already running")

	// ErrLockAcquireFailed is returned when the lock cannot be acquired
	// for reasons other than contention.
	ErrLockAcquireFailed = errors.New("failed to acquire reconcile lock")

	// ErrEmptyLockDir is returned when the lock directory is empty.
	ErrEmptyLockDir = errors.New("lock directory must not be empty")
)

// LockFileName is the reconcile lock file created inside the stack directory.
const LockFileName = ".reconcile.lock"

// =============================================================================
// ReconcileLock
// =============================================================================

// ReconcileLock provides advisory file locking to serialize reconciliation.
//
// # Description
//
// The engine assumes single-operator, single-run-at-a-time usage; the CLI
// enforces that assumption by holding this lock for the whole cycle
// (observe through apply). A second invocation fails fast with ErrLockHeld
// instead of racing the first.
//
// # Thread Safety
//
// ReconcileLock is NOT safe for concurrent use. Each goroutine should have
// its own instance.
//
// # Platform Support
//
// Uses flock(2) on Unix systems.
type ReconcileLock struct {
	path string
	file *os.File
}

// NewReconcileLock creates a lock rooted at the given stack directory.
//
// # Description
//
// The lock file is created at {stackDir}/.reconcile.lock. The stack
// directory is created if it doesn't exist.
//
// # Inputs
//
//   - stackDir: Absolute path to the stack directory. Must not be empty.
//
// # Outputs
//
//   - *ReconcileLock: The lock instance (not yet acquired).
//   - error: ErrEmptyLockDir if stackDir is empty.
func NewReconcileLock(stackDir string) (*ReconcileLock, error) {
	if stackDir == "" {
		return nil, ErrEmptyLockDir
	}
	return &ReconcileLock{path: filepath.Join(stackDir, LockFileName)}, nil
}

// Acquire attempts to acquire an exclusive lock.
//
// # Description
//
// Creates the lock file and attempts to acquire an exclusive advisory
// lock without blocking. If the lock is already held by another process,
// returns ErrLockHeld.
//
// # Outputs
//
//   - error: ErrLockHeld if held elsewhere, or other error on failure.
//
// # Limitations
//
//   - Advisory lock only - other processes can ignore it.
//   - Must call Release() to free the lock.
func (l *ReconcileLock) Acquire() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: creating lock directory: %v", ErrLockAcquireFailed, err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening lock file: %v", ErrLockAcquireFailed, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK {
			return ErrLockHeld
		}
		return fmt.Errorf("%w: flock: %v", ErrLockAcquireFailed, err)
	}

	// Write PID to lock file for debugging. Failures here are non-fatal;
	// the lock is already held.
	_ = file.Truncate(0)
	_, _ = file.Seek(0, 0)
	content := fmt.Sprintf("pid=%d\ntime=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	_, _ = file.WriteString(content)

	l.file = file
	return nil
}

// Release releases the lock and closes the lock file.
//
// Safe to call multiple times or on an unacquired lock.
func (l *ReconcileLock) Release() error {
	if l.file == nil {
		return nil
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.file.Close()
		l.file = nil
		return fmt.Errorf("releasing lock: %w", err)
	}

	err := l.file.Close()
	l.file = nil
	return err
}

// Path returns the lock file path.
func (l *ReconcileLock) Path() string {
	return l.path
}
