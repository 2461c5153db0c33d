// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package plan

import (
	"reflect"
	"testing"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/graph"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/observe"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/runtime"
)

// testDesired builds a three-service chain: vectordb <- embedder, plus
// an independent model-runtime.
func testDesired() Desired {
	return Desired{
		Resolution: graph.Resolution{
			Services: []string{"embedder", "model-runtime", "vectordb"},
			Order:    []string{"model-runtime", "vectordb", "embedder"},
			Ranks:    map[string]int{"vectordb": 0, "model-runtime": 0, "embedder": 1},
		},
		Hashes: map[string]string{
			"vectordb":      "aaaaaaaaaaaa",
			"embedder":      "bbbbbbbbbbbb",
			"model-runtime": "cccccccccccc",
		},
	}
}

func inSyncSnapshot() observe.Snapshot {
	return observe.Snapshot{
		"vectordb":      {Name: "vectordb", Running: true, LastAppliedHash: "aaaaaaaaaaaa"},
		"embedder":      {Name: "embedder", Running: true, LastAppliedHash: "bbbbbbbbbbbb"},
		"model-runtime": {Name: "model-runtime", Running: true, LastAppliedHash: "cccccccccccc"},
	}
}

func TestDiffConvergedProducesEmptyPlan(t *testing.T) {
	report, p := Diff(testDesired(), inSyncSnapshot(), Options{})
	if !report.Converged() {
		t.Errorf("report not converged: %+v", report)
	}
	if !p.Empty() {
		t.Errorf("plan not empty: %+v", p)
	}
	if report.Count(InSync) != 3 {
		t.Errorf("InSync count = %d, want 3", report.Count(InSync))
	}
}

func TestDiffEmptyRuntimeCreatesEverything(t *testing.T) {
	report, p := Diff(testDesired(), observe.Snapshot{}, Options{})
	if report.Converged() {
		t.Error("report should not be converged")
	}
	if report.Count(Missing) != 3 {
		t.Errorf("Missing count = %d, want 3", report.Count(Missing))
	}

	var types []ActionType
	var names []string
	for _, a := range p.Actions {
		types = append(types, a.Type)
		names = append(names, a.Service)
	}
	if !reflect.DeepEqual(types, []ActionType{ActionCreate, ActionCreate, ActionCreate}) {
		t.Errorf("types = %v", types)
	}
	// Rank 0 first (name tie-break), then rank 1.
	if !reflect.DeepEqual(names, []string{"model-runtime", "vectordb", "embedder"}) {
		t.Errorf("order = %v", names)
	}
}

func TestDiffStoppedStartsInPlace(t *testing.T) {
	snap := inSyncSnapshot()
	rec := snap["embedder"]
	rec.Running = false
	snap["embedder"] = rec

	report, p := Diff(testDesired(), snap, Options{})
	if report.Count(Stopped) != 1 {
		t.Errorf("Stopped count = %d, want 1", report.Count(Stopped))
	}
	if len(p.Actions) != 1 || p.Actions[0].Type != ActionStart || p.Actions[0].Service != "embedder" {
		t.Errorf("plan = %+v, want single Start(embedder)", p.Actions)
	}
}

func TestDiffHashDriftRecreates(t *testing.T) {
	snap := inSyncSnapshot()
	rec := snap["vectordb"]
	rec.LastAppliedHash = "000000000000"
	snap["vectordb"] = rec

	report, p := Diff(testDesired(), snap, Options{})
	if report.Count(HashDrift) != 1 {
		t.Errorf("HashDrift count = %d, want 1", report.Count(HashDrift))
	}
	if len(p.Actions) != 1 {
		t.Fatalf("plan = %+v, want single action", p.Actions)
	}
	a := p.Actions[0]
	if a.Type != ActionRecreate || a.OldHash != "000000000000" || a.NewHash != "aaaaaaaaaaaa" {
		t.Errorf("action = %+v", a)
	}
}

func TestDiffStoppedWithDriftRecreates(t *testing.T) {
	// Starting a stopped container with stale config would resurrect
	// the old configuration; it must recreate instead.
	snap := inSyncSnapshot()
	rec := snap["embedder"]
	rec.Running = false
	rec.LastAppliedHash = "000000000000"
	snap["embedder"] = rec

	_, p := Diff(testDesired(), snap, Options{})
	if len(p.Actions) != 1 || p.Actions[0].Type != ActionRecreate {
		t.Errorf("plan = %+v, want single Recreate", p.Actions)
	}
}

func TestDiffMissingHashLabelRecreates(t *testing.T) {
	snap := inSyncSnapshot()
	rec := snap["vectordb"]
	rec.LastAppliedHash = ""
	snap["vectordb"] = rec

	report, p := Diff(testDesired(), snap, Options{})
	if report.Count(HashDrift) != 1 {
		t.Errorf("HashDrift count = %d, want 1", report.Count(HashDrift))
	}
	if len(p.Actions) != 1 || p.Actions[0].Type != ActionRecreate {
		t.Errorf("plan = %+v, want single Recreate", p.Actions)
	}
}

func TestDiffExtraWithoutPrune(t *testing.T) {
	snap := inSyncSnapshot()
	snap["stale-svc"] = runtime.ActualServiceRecord{Name: "stale-svc", Running: true, LastAppliedHash: "ffffffffffff"}

	report, p := Diff(testDesired(), snap, Options{})
	if report.Count(Extra) != 1 {
		t.Errorf("Extra count = %d, want 1", report.Count(Extra))
	}
	// Extras are drift but not actions unless pruning.
	if report.Converged() {
		t.Error("extras must count as drift")
	}
	if !p.Empty() {
		t.Errorf("plan = %+v, want empty without prune", p.Actions)
	}
}

func TestDiffExtraWithPrune(t *testing.T) {
	snap := inSyncSnapshot()
	snap["stale-b"] = runtime.ActualServiceRecord{Name: "stale-b"}
	snap["stale-a"] = runtime.ActualServiceRecord{Name: "stale-a"}

	_, p := Diff(testDesired(), snap, Options{Prune: true})
	var names []string
	for _, a := range p.Actions {
		if a.Type != ActionRemove {
			t.Errorf("unexpected action %+v", a)
		}
		names = append(names, a.Service)
	}
	if !reflect.DeepEqual(names, []string{"stale-a", "stale-b"}) {
		t.Errorf("remove order = %v, want name order", names)
	}
}

func TestDiffPruneRemovesDependentsBeforeDependencies(t *testing.T) {
	// Disabling a pack leaves its services defined in the catalog, so
	// their dependency edges are still known at prune time: embedder
	// must go before the vectordb it depends on, in separate waves.
	snap := observe.Snapshot{
		"vectordb": {Name: "vectordb", Running: true, LastAppliedHash: "aaaaaaaaaaaa"},
		"embedder": {Name: "embedder", Running: true, LastAppliedHash: "bbbbbbbbbbbb"},
	}
	deps := func(name string) []string {
		if name == "embedder" {
			return []string{"vectordb"}
		}
		return nil
	}

	_, p := Diff(Desired{}, snap, Options{Prune: true, Dependencies: deps})

	var names []string
	for _, a := range p.Actions {
		if a.Type != ActionRemove {
			t.Errorf("unexpected action %+v", a)
		}
		names = append(names, a.Service)
	}
	if !reflect.DeepEqual(names, []string{"embedder", "vectordb"}) {
		t.Errorf("remove order = %v, want dependent first", names)
	}
	if waves := p.Waves(); len(waves) != 2 {
		t.Errorf("waves = %d, want sequential removes", len(waves))
	}
}

func TestDiffPruneUncatalogedExtrasKeepNameOrder(t *testing.T) {
	snap := observe.Snapshot{
		"stale-b": {Name: "stale-b"},
		"stale-a": {Name: "stale-a"},
	}
	// The catalog no longer knows these services at all.
	deps := func(name string) []string { return nil }

	_, p := Diff(testDesired(), snap, Options{Prune: true, Dependencies: deps})
	var names []string
	for _, a := range p.Actions {
		names = append(names, a.Service)
	}
	if !reflect.DeepEqual(names, []string{"stale-a", "stale-b"}) {
		t.Errorf("remove order = %v, want name order", names)
	}
}

func TestDiffRemovesFollowForwardActions(t *testing.T) {
	snap := observe.Snapshot{
		"stale-svc": {Name: "stale-svc"},
	}
	_, p := Diff(testDesired(), snap, Options{Prune: true})

	if len(p.Actions) != 4 {
		t.Fatalf("plan = %+v, want 4 actions", p.Actions)
	}
	if p.Actions[len(p.Actions)-1].Type != ActionRemove {
		t.Errorf("removes must come last: %+v", p.Actions)
	}
}

func TestDiffDeterministic(t *testing.T) {
	snap := observe.Snapshot{
		"stale-b":  {Name: "stale-b"},
		"stale-a":  {Name: "stale-a"},
		"embedder": {Name: "embedder", Running: false, LastAppliedHash: "bbbbbbbbbbbb"},
	}
	firstReport, firstPlan := Diff(testDesired(), snap, Options{Prune: true})
	for i := 0; i < 20; i++ {
		report, p := Diff(testDesired(), snap, Options{Prune: true})
		if !reflect.DeepEqual(report, firstReport) || !reflect.DeepEqual(p, firstPlan) {
			t.Fatal("diff output differs between runs")
		}
	}
}

func TestPlanWaves(t *testing.T) {
	p := Plan{Actions: []Action{
		{Type: ActionCreate, Service: "a", Rank: 0},
		{Type: ActionCreate, Service: "b", Rank: 0},
		{Type: ActionRecreate, Service: "c", Rank: 1},
		{Type: ActionRemove, Service: "z", Rank: 0},
	}}
	waves := p.Waves()
	if len(waves) != 3 {
		t.Fatalf("waves = %d, want 3", len(waves))
	}
	if len(waves[0]) != 2 || len(waves[1]) != 1 || len(waves[2]) != 1 {
		t.Errorf("wave sizes = %d/%d/%d", len(waves[0]), len(waves[1]), len(waves[2]))
	}
	if waves[2][0].Type != ActionRemove {
		t.Errorf("last wave must be removes: %+v", waves[2])
	}
}
