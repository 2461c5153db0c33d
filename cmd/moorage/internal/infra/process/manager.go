// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/util"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Manager handles external process operations.
//
// # Description
//
// This interface abstracts all interaction with the operating system's
// process management, enabling testable code that doesn't require real
// process execution.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use from multiple goroutines.
//
// # Context Handling
//
// All methods accept a context.Context for cancellation and timeout support.
// Long-running processes must respect context cancellation.
type Manager interface {
	// RunInDir executes a command in a working directory with extra
	// environment variables.
	//
	// # Description
	//
	// Executes the specified command and waits for completion. The extra
	// environment is merged over the parent process environment with
	// deterministic ordering. An empty dir runs in the current directory.
	//
	// # Inputs
	//
	//   - ctx: Context for cancellation/timeout
	//   - dir: Working directory ("" = inherit)
	//   - env: Extra environment variables (may be nil)
	//   - name: The executable name or path
	//   - args: Command arguments (variadic)
	//
	// # Outputs
	//
	//   - string: Captured stdout
	//   - string: Captured stderr
	//   - int: Process exit code (-1 if the process never ran)
	//   - error: Non-nil if the command failed or was cancelled
	RunInDir(ctx context.Context, dir string, env map[string]string, name string, args ...string) (string, string, int, error)

	// RunStreaming executes a command and streams combined output to w.
	//
	// # Description
	//
	// Used for long-running commands whose output should reach the user
	// as it is produced (e.g. log following). Blocks until the command
	// exits or the context is cancelled.
	//
	// # Inputs
	//
	//   - ctx: Context for cancellation (terminates the process)
	//   - dir: Working directory ("" = inherit)
	//   - w: Writer receiving stdout and stderr
	//   - name: The executable name or path
	//   - args: Command arguments (variadic)
	//
	// # Outputs
	//
	//   - error: Non-nil if the command fails to start or exits non-zero
	RunStreaming(ctx context.Context, dir string, w io.Writer, name string, args ...string) error

	// LookPath reports whether an executable is available in PATH.
	LookPath(name string) (string, error)
}

// =============================================================================
// Default Implementation
// =============================================================================

// DefaultManager implements Manager using os/exec.
type DefaultManager struct{}

// NewDefaultManager creates a Manager backed by real process execution.
func NewDefaultManager() *DefaultManager {
	return &DefaultManager{}
}

// RunInDir executes a command in a working directory with extra environment.
func (m *DefaultManager) RunInDir(ctx context.Context, dir string, env map[string]string, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = mergeEnvironment(env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := exitCodeOf(cmd, err)

	if err != nil {
		cmdStr := fmt.Sprintf("%s %v", name, args)
		return stdout.String(), stderr.String(), exitCode,
			util.NewCommandError(cmdStr, exitCode, stderr.String(), err)
	}
	return stdout.String(), stderr.String(), exitCode, nil
}

// RunStreaming executes a command and streams combined output to w.
func (m *DefaultManager) RunStreaming(ctx context.Context, dir string, w io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Run(); err != nil {
		// Context cancellation is the normal way to end a follow; do not
		// report it as a command failure.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cmdStr := fmt.Sprintf("%s %v", name, args)
		return util.NewCommandError(cmdStr, exitCodeOf(cmd, err), "", err)
	}
	return nil
}

// LookPath reports whether an executable is available in PATH.
func (m *DefaultManager) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Compile-time interface check
var _ Manager = (*DefaultManager)(nil)

// =============================================================================
// Helpers
// =============================================================================

// mergeEnvironment merges extra variables over the parent environment.
//
// Extra keys are appended in sorted order so the resulting command
// environment is deterministic, which keeps logged command context stable.
func mergeEnvironment(extra map[string]string) []string {
	env := os.Environ()
	if len(extra) == 0 {
		return env
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, extra[k]))
	}
	return env
}

// exitCodeOf extracts the process exit code, or -1 if unavailable.
func exitCodeOf(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}
