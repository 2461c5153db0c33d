// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import "sort"

// TopoSort orders nodes so every node follows its dependencies.
//
// # Description
//
// Kahn's algorithm restricted to the given node set: edges pointing
// outside the set are ignored (the caller already closed the set, so
// any such edge targets a node that is deliberately excluded). Among
// nodes that become ready simultaneously, names sort lexicographically,
// making the output a pure function of the inputs.
//
// # Inputs
//
//   - nodes: The node set to order
//   - deps: Returns the dependency names of a node
//
// # Outputs
//
//   - []string: Nodes in dependency order (dependencies first)
//   - map[string]int: Rank per node; a node's rank is one greater than
//     the maximum rank of its in-set dependencies
//   - error: *GraphError with CycleDetected when ordering is impossible
func TopoSort(nodes []string, deps func(string) []string) ([]string, map[string]int, error) {
	inSet := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		inSet[n] = true
	}

	// indegree counts in-set dependencies; dependents is the reverse
	// edge map used to decrement them.
	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		indegree[n] = 0
	}
	for _, n := range nodes {
		for _, d := range deps(n) {
			if !inSet[d] {
				continue
			}
			indegree[n]++
			dependents[d] = append(dependents[d], n)
		}
	}

	ready := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(nodes))
	ranks := make(map[string]int, len(nodes))

	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		rank := 0
		for _, d := range deps(n) {
			if !inSet[d] {
				continue
			}
			if r := ranks[d] + 1; r > rank {
				rank = r
			}
		}
		ranks[n] = rank

		released := false
		for _, dep := range dependents[n] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
				released = true
			}
		}
		if released {
			sort.Strings(ready)
		}
	}

	if len(order) != len(nodes) {
		// Remaining nodes with nonzero indegree form at least one
		// cycle; walk dependency edges from any of them to report it.
		return nil, nil, &GraphError{Kind: CycleDetected, Path: findCyclePath(nodes, inSet, indegree, deps)}
	}

	return order, ranks, nil
}

// findCyclePath walks depends_on edges among still-blocked nodes until a
// node repeats, then returns the closed cycle path. Blocked nodes all
// sit on or lead into a cycle, so the walk always terminates.
func findCyclePath(nodes []string, inSet map[string]bool, indegree map[string]int, deps func(string) []string) []string {
	blocked := make([]string, 0)
	for _, n := range nodes {
		if indegree[n] > 0 {
			blocked = append(blocked, n)
		}
	}
	sort.Strings(blocked)
	if len(blocked) == 0 {
		return nil
	}

	blockedSet := make(map[string]bool, len(blocked))
	for _, n := range blocked {
		blockedSet[n] = true
	}

	seen := make(map[string]int)
	var path []string
	node := blocked[0]
	for {
		if i, ok := seen[node]; ok {
			return append(append([]string(nil), path[i:]...), node)
		}
		seen[node] = len(path)
		path = append(path, node)

		ds := append([]string(nil), deps(node)...)
		sort.Strings(ds)
		next := ""
		for _, d := range ds {
			if inSet[d] && blockedSet[d] {
				next = d
				break
			}
		}
		if next == "" {
			return path
		}
		node = next
	}
}
