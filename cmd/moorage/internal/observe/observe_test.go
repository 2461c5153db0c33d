// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observe

import (
	"context"
	"errors"
	"testing"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/runtime"
)

func TestSnapshotKeysByService(t *testing.T) {
	mock := &runtime.MockClient{
		ListManagedFunc: func(ctx context.Context) ([]runtime.ActualServiceRecord, error) {
			return []runtime.ActualServiceRecord{
				{Name: "vectordb", Running: true, LastAppliedHash: "aaaaaaaaaaaa", RuntimeID: "c1"},
				{Name: "embedder", Running: false, LastAppliedHash: "bbbbbbbbbbbb", RuntimeID: "c2"},
			}, nil
		},
	}

	snap, err := NewObserver(mock).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snap))
	}
	if rec := snap["vectordb"]; !rec.Running || rec.LastAppliedHash != "aaaaaaaaaaaa" {
		t.Errorf("vectordb record = %+v", rec)
	}
	if rec := snap["embedder"]; rec.Running {
		t.Errorf("embedder should be stopped: %+v", rec)
	}
}

func TestSnapshotRunningContainerWinsDuplicate(t *testing.T) {
	tests := []struct {
		name    string
		records []runtime.ActualServiceRecord
	}{
		{
			name: "running first",
			records: []runtime.ActualServiceRecord{
				{Name: "svc", Running: true, RuntimeID: "live"},
				{Name: "svc", Running: false, RuntimeID: "stale"},
			},
		},
		{
			name: "running second",
			records: []runtime.ActualServiceRecord{
				{Name: "svc", Running: false, RuntimeID: "stale"},
				{Name: "svc", Running: true, RuntimeID: "live"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &runtime.MockClient{
				ListManagedFunc: func(ctx context.Context) ([]runtime.ActualServiceRecord, error) {
					return tt.records, nil
				},
			}
			snap, err := NewObserver(mock).Snapshot(context.Background())
			if err != nil {
				t.Fatalf("Snapshot failed: %v", err)
			}
			if snap["svc"].RuntimeID != "live" {
				t.Errorf("kept container %s, want live", snap["svc"].RuntimeID)
			}
		})
	}
}

func TestSnapshotFailFast(t *testing.T) {
	mock := &runtime.MockClient{
		ListManagedFunc: func(ctx context.Context) ([]runtime.ActualServiceRecord, error) {
			return nil, runtime.ErrRuntimeUnavailable
		},
	}

	_, err := NewObserver(mock).Snapshot(context.Background())
	var oe *ObserverError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want *ObserverError", err)
	}
	if !errors.Is(err, runtime.ErrRuntimeUnavailable) {
		t.Errorf("ObserverError must wrap ErrRuntimeUnavailable, got %v", err)
	}
}

func TestSnapshotEmptyStack(t *testing.T) {
	snap, err := NewObserver(&runtime.MockClient{}).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("snapshot = %v, want empty", snap)
	}
}
