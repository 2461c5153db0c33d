// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runtime

import (
	"context"
	"io"
	"sync"
)

// MockClient is a configurable Client for tests.
//
// Each method delegates to its corresponding func field when set and
// succeeds as a no-op otherwise. Every call is recorded as
// [operation, service] (ListManaged records [ListManaged]).
type MockClient struct {
	ListManagedFunc func(ctx context.Context) ([]ActualServiceRecord, error)
	CreateFunc      func(ctx context.Context, service string) error
	StartFunc       func(ctx context.Context, service string) error
	RecreateFunc    func(ctx context.Context, service string) error
	RemoveFunc      func(ctx context.Context, service string) error
	LogsFunc        func(ctx context.Context, service string, w io.Writer, follow bool) error

	mu    sync.Mutex
	Calls [][]string
}

// Compile-time interface check.
var _ Client = (*MockClient)(nil)

func (m *MockClient) record(call ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// CallCount returns the number of recorded calls.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// CallsFor returns the service names passed to the given operation, in
// call order.
func (m *MockClient) CallsFor(op string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, call := range m.Calls {
		if len(call) == 2 && call[0] == op {
			out = append(out, call[1])
		}
	}
	return out
}

// ListManaged implements Client.
func (m *MockClient) ListManaged(ctx context.Context) ([]ActualServiceRecord, error) {
	m.record("ListManaged")
	if m.ListManagedFunc != nil {
		return m.ListManagedFunc(ctx)
	}
	return nil, nil
}

// Create implements Client.
func (m *MockClient) Create(ctx context.Context, service string) error {
	m.record("Create", service)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, service)
	}
	return nil
}

// Start implements Client.
func (m *MockClient) Start(ctx context.Context, service string) error {
	m.record("Start", service)
	if m.StartFunc != nil {
		return m.StartFunc(ctx, service)
	}
	return nil
}

// Recreate implements Client.
func (m *MockClient) Recreate(ctx context.Context, service string) error {
	m.record("Recreate", service)
	if m.RecreateFunc != nil {
		return m.RecreateFunc(ctx, service)
	}
	return nil
}

// Remove implements Client.
func (m *MockClient) Remove(ctx context.Context, service string) error {
	m.record("Remove", service)
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, service)
	}
	return nil
}

// Logs implements Client.
func (m *MockClient) Logs(ctx context.Context, service string, w io.Writer, follow bool) error {
	m.record("Logs", service)
	if m.LogsFunc != nil {
		return m.LogsFunc(ctx, service, w, follow)
	}
	return nil
}
