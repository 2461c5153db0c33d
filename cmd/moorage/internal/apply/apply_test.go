// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package apply

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/plan"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/runtime"
)

// chainDeps models vectordb <- embedder <- query-api.
func chainDeps(name string) []string {
	switch name {
	case "embedder":
		return []string{"vectordb"}
	case "query-api":
		return []string{"embedder"}
	default:
		return nil
	}
}

func chainPlan() plan.Plan {
	return plan.Plan{Actions: []plan.Action{
		{Type: plan.ActionCreate, Service: "vectordb", Rank: 0},
		{Type: plan.ActionCreate, Service: "embedder", Rank: 1},
		{Type: plan.ActionCreate, Service: "query-api", Rank: 2},
	}}
}

func TestApplyAllSucceed(t *testing.T) {
	mock := &runtime.MockClient{}
	exec := NewExecutor(mock, chainDeps, Options{})

	res, err := exec.Apply(context.Background(), chainPlan())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !res.FullyApplied() {
		t.Errorf("result = %+v, want fully applied", res)
	}
	if res.RunID == "" {
		t.Error("RunID must be set")
	}
	if got := mock.CallsFor("Create"); !reflect.DeepEqual(got, []string{"vectordb", "embedder", "query-api"}) {
		t.Errorf("create order = %v, want dependency order", got)
	}
}

func TestApplyEmptyPlanIsNoOp(t *testing.T) {
	mock := &runtime.MockClient{}
	res, err := NewExecutor(mock, nil, Options{}).Apply(context.Background(), plan.Plan{})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !res.FullyApplied() || mock.CallCount() != 0 {
		t.Errorf("empty plan must touch nothing: %+v, %d calls", res, mock.CallCount())
	}
}

func TestApplyFailureSkipsDependents(t *testing.T) {
	mock := &runtime.MockClient{
		CreateFunc: func(ctx context.Context, service string) error {
			if service == "vectordb" {
				return errors.New("image pull failed")
			}
			return nil
		},
	}
	res, err := NewExecutor(mock, chainDeps, Options{}).Apply(context.Background(), chainPlan())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if len(res.Failures) != 1 || res.Failures[0].Service != "vectordb" {
		t.Errorf("Failures = %+v, want vectordb only", res.Failures)
	}
	if !reflect.DeepEqual(res.Skipped, []string{"embedder", "query-api"}) {
		t.Errorf("Skipped = %v, want transitive dependents", res.Skipped)
	}
	if got := mock.CallsFor("Create"); !reflect.DeepEqual(got, []string{"vectordb"}) {
		t.Errorf("Create calls = %v, want only vectordb attempted", got)
	}
}

func TestApplyIndependentServicesUnaffectedByFailure(t *testing.T) {
	p := plan.Plan{Actions: []plan.Action{
		{Type: plan.ActionCreate, Service: "vectordb", Rank: 0},
		{Type: plan.ActionCreate, Service: "model-runtime", Rank: 0},
		{Type: plan.ActionCreate, Service: "embedder", Rank: 1},
	}}
	mock := &runtime.MockClient{
		CreateFunc: func(ctx context.Context, service string) error {
			if service == "vectordb" {
				return errors.New("boom")
			}
			return nil
		},
	}
	res, err := NewExecutor(mock, chainDeps, Options{}).Apply(context.Background(), p)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	succeeded := append([]string(nil), res.Succeeded...)
	sort.Strings(succeeded)
	if !reflect.DeepEqual(succeeded, []string{"model-runtime"}) {
		t.Errorf("Succeeded = %v, want model-runtime", succeeded)
	}
	if !reflect.DeepEqual(res.Skipped, []string{"embedder"}) {
		t.Errorf("Skipped = %v, want [embedder]", res.Skipped)
	}
}

func TestApplyRemoveNotBlockedByFailures(t *testing.T) {
	// Removing an extra container has no prerequisites; a failed
	// create elsewhere must not skip it.
	p := plan.Plan{Actions: []plan.Action{
		{Type: plan.ActionCreate, Service: "vectordb", Rank: 0},
		{Type: plan.ActionRemove, Service: "stale-svc", Rank: 0},
	}}
	mock := &runtime.MockClient{
		CreateFunc: func(ctx context.Context, service string) error {
			return errors.New("boom")
		},
	}
	res, err := NewExecutor(mock, chainDeps, Options{}).Apply(context.Background(), p)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := mock.CallsFor("Remove"); !reflect.DeepEqual(got, []string{"stale-svc"}) {
		t.Errorf("Remove calls = %v, want stale-svc", got)
	}
	if !reflect.DeepEqual(res.Succeeded, []string{"stale-svc"}) {
		t.Errorf("Succeeded = %v", res.Succeeded)
	}
}

func TestApplyDispatchesAllActionTypes(t *testing.T) {
	p := plan.Plan{Actions: []plan.Action{
		{Type: plan.ActionCreate, Service: "a", Rank: 0},
		{Type: plan.ActionStart, Service: "b", Rank: 0},
		{Type: plan.ActionRecreate, Service: "c", Rank: 0},
		{Type: plan.ActionRemove, Service: "z", Rank: 0},
	}}
	mock := &runtime.MockClient{}
	res, err := NewExecutor(mock, nil, Options{}).Apply(context.Background(), p)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !res.FullyApplied() {
		t.Errorf("result = %+v", res)
	}
	for _, op := range []string{"Create", "Start", "Recreate", "Remove"} {
		if len(mock.CallsFor(op)) != 1 {
			t.Errorf("%s called %d times, want 1", op, len(mock.CallsFor(op)))
		}
	}
}

func TestApplyCancellationSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var once sync.Once
	mock := &runtime.MockClient{
		CreateFunc: func(_ context.Context, service string) error {
			// Cancel while the first wave is executing.
			once.Do(cancel)
			return nil
		},
	}
	res, err := NewExecutor(mock, chainDeps, Options{}).Apply(ctx, chainPlan())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !reflect.DeepEqual(res.Succeeded, []string{"vectordb"}) {
		t.Errorf("Succeeded = %v, want [vectordb]", res.Succeeded)
	}
	if !reflect.DeepEqual(res.Skipped, []string{"embedder", "query-api"}) {
		t.Errorf("Skipped = %v, want later waves skipped", res.Skipped)
	}
}

func TestApplyWaveParallelismBounded(t *testing.T) {
	p := plan.Plan{Actions: []plan.Action{
		{Type: plan.ActionCreate, Service: "s1", Rank: 0},
		{Type: plan.ActionCreate, Service: "s2", Rank: 0},
		{Type: plan.ActionCreate, Service: "s3", Rank: 0},
		{Type: plan.ActionCreate, Service: "s4", Rank: 0},
	}}

	var mu sync.Mutex
	inFlight, peak := 0, 0
	gate := make(chan struct{})
	mock := &runtime.MockClient{
		CreateFunc: func(ctx context.Context, service string) error {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			<-gate
			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := NewExecutor(mock, nil, Options{Parallelism: 2}).Apply(context.Background(), p); err != nil {
			t.Errorf("Apply failed: %v", err)
		}
	}()

	// Release workers one at a time until all four actions finish.
	for i := 0; i < 4; i++ {
		gate <- struct{}{}
	}
	<-done

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}
