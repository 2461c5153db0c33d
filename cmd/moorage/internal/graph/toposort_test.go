// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"errors"
	"reflect"
	"testing"
)

func depsFrom(edges map[string][]string) func(string) []string {
	return func(n string) []string { return edges[n] }
}

func TestTopoSortLinearChain(t *testing.T) {
	edges := map[string][]string{
		"c": {"b"},
		"b": {"a"},
	}
	order, ranks, err := TopoSort([]string{"a", "b", "c"}, depsFrom(edges))
	if err != nil {
		t.Fatalf("TopoSort failed: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Errorf("order = %v, want [a b c]", order)
	}
	want := map[string]int{"a": 0, "b": 1, "c": 2}
	if !reflect.DeepEqual(ranks, want) {
		t.Errorf("ranks = %v, want %v", ranks, want)
	}
}

func TestTopoSortNameTieBreak(t *testing.T) {
	// No edges at all: order must fall back to pure name order.
	nodes := []string{"zeta", "alpha", "mid"}
	order, _, err := TopoSort(nodes, depsFrom(nil))
	if err != nil {
		t.Fatalf("TopoSort failed: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("order = %v, want alphabetical", order)
	}
}

func TestTopoSortDiamond(t *testing.T) {
	edges := map[string][]string{
		"left":  {"root"},
		"right": {"root"},
		"sink":  {"left", "right"},
	}
	order, ranks, err := TopoSort([]string{"sink", "right", "left", "root"}, depsFrom(edges))
	if err != nil {
		t.Fatalf("TopoSort failed: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"root", "left", "right", "sink"}) {
		t.Errorf("order = %v", order)
	}
	if ranks["sink"] != 2 {
		t.Errorf("rank(sink) = %d, want 2", ranks["sink"])
	}
	if ranks["left"] != 1 || ranks["right"] != 1 {
		t.Errorf("left/right ranks = %d/%d, want 1/1", ranks["left"], ranks["right"])
	}
}

func TestTopoSortIgnoresOutOfSetEdges(t *testing.T) {
	edges := map[string][]string{
		"b": {"a", "excluded"},
	}
	order, ranks, err := TopoSort([]string{"a", "b"}, depsFrom(edges))
	if err != nil {
		t.Fatalf("TopoSort failed: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a", "b"}) {
		t.Errorf("order = %v", order)
	}
	if ranks["b"] != 1 {
		t.Errorf("rank(b) = %d, want 1", ranks["b"])
	}
}

func TestTopoSortCycle(t *testing.T) {
	edges := map[string][]string{
		"a": {"c"},
		"b": {"a"},
		"c": {"b"},
	}
	_, _, err := TopoSort([]string{"a", "b", "c"}, depsFrom(edges))
	var ge *GraphError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want *GraphError", err)
	}
	if ge.Kind != CycleDetected {
		t.Fatalf("Kind = %v, want CycleDetected", ge.Kind)
	}
	if len(ge.Path) < 4 || ge.Path[0] != ge.Path[len(ge.Path)-1] {
		t.Errorf("Path = %v, want closed cycle path", ge.Path)
	}
}

func TestTopoSortSelfLoop(t *testing.T) {
	edges := map[string][]string{"a": {"a"}}
	_, _, err := TopoSort([]string{"a"}, depsFrom(edges))
	var ge *GraphError
	if !errors.As(err, &ge) || ge.Kind != CycleDetected {
		t.Fatalf("err = %v, want CycleDetected", err)
	}
	if !reflect.DeepEqual(ge.Path, []string{"a", "a"}) {
		t.Errorf("Path = %v, want [a a]", ge.Path)
	}
}
