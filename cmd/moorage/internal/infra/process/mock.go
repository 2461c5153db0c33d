// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package process

import (
	"context"
	"io"
	"sync"
)

// MockManager is a configurable mock implementation of Manager for testing.
//
// # Description
//
// Provides a mock whose behavior is configured through function fields.
// Records every invocation so tests can verify which commands were run.
//
// # Thread Safety
//
// Call recording is protected by a mutex, so MockManager may be used from
// concurrent test code.
//
// # Example
//
//	mock := &process.MockManager{
//	    RunInDirFunc: func(ctx context.Context, dir string, env map[string]string, name string, args ...string) (string, string, int, error) {
//	        return "[]", "", 0, nil
//	    },
//	}
type MockManager struct {
	// RunInDirFunc overrides RunInDir behavior (default: success, empty output).
	RunInDirFunc func(ctx context.Context, dir string, env map[string]string, name string, args ...string) (string, string, int, error)

	// RunStreamingFunc overrides RunStreaming behavior (default: success).
	RunStreamingFunc func(ctx context.Context, dir string, w io.Writer, name string, args ...string) error

	// LookPathFunc overrides LookPath behavior (default: name found as-is).
	LookPathFunc func(name string) (string, error)

	// Calls records each invocation as the command name followed by args.
	Calls [][]string

	mu sync.Mutex
}

// RunInDir records the call and delegates to RunInDirFunc.
func (m *MockManager) RunInDir(ctx context.Context, dir string, env map[string]string, name string, args ...string) (string, string, int, error) {
	m.record(name, args)
	if m.RunInDirFunc != nil {
		return m.RunInDirFunc(ctx, dir, env, name, args...)
	}
	return "", "", 0, nil
}

// RunStreaming records the call and delegates to RunStreamingFunc.
func (m *MockManager) RunStreaming(ctx context.Context, dir string, w io.Writer, name string, args ...string) error {
	m.record(name, args)
	if m.RunStreamingFunc != nil {
		return m.RunStreamingFunc(ctx, dir, w, name, args...)
	}
	return nil
}

// LookPath records the call and delegates to LookPathFunc.
func (m *MockManager) LookPath(name string) (string, error) {
	m.record("LookPath:"+name, nil)
	if m.LookPathFunc != nil {
		return m.LookPathFunc(name)
	}
	return name, nil
}

// CallCount returns the number of recorded invocations.
func (m *MockManager) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockManager) record(name string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := append([]string{name}, args...)
	m.Calls = append(m.Calls, call)
}

// Compile-time interface check
var _ Manager = (*MockManager)(nil)
