// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package graph resolves operator intent into the concrete service set.
//
// # Overview
//
// Resolution is a pure function of the catalog and the enabled
// pack/extension names: expand enabled packs through their pack
// dependency closure, union in the services each pack and extension
// requires, then close over service-level depends_on edges. The result
// is the exact set of services that should exist, with a deterministic
// topological ordering for safe create/remove sequencing.
//
// Resolution never touches the container runtime and never mutates the
// catalog; the same inputs always produce the same Resolution.
package graph

import (
	"sort"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/registry"
)

// Resolution is the fully expanded desired service set.
type Resolution struct {
	// Services holds the resolved service names in sorted order.
	Services []string

	// Packs holds the enabled packs plus their transitive pack
	// dependencies, sorted.
	Packs []string

	// Order holds the resolved services in dependency order
	// (dependencies first, name tie-break).
	Order []string

	// Ranks maps each resolved service to its dependency depth: a
	// service's rank is one greater than the maximum rank of its
	// dependencies, zero when it has none. Services sharing a rank
	// have no ordering constraint between them.
	Ranks map[string]int
}

// Contains reports whether name is part of the resolved service set.
func (r Resolution) Contains(name string) bool {
	i := sort.SearchStrings(r.Services, name)
	return i < len(r.Services) && r.Services[i] == name
}

// Resolver expands enabled packs and extensions against a catalog.
//
// # Thread Safety
//
// Resolver holds only an immutable catalog reference and is safe for
// concurrent use.
type Resolver struct {
	catalog *registry.Catalog
}

// NewResolver returns a Resolver over the given catalog.
func NewResolver(catalog *registry.Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve expands the enabled names into the full service set.
//
// # Description
//
// Three phases: BFS over pack depends_on edges to find the pack
// closure, union of the service lists of every closed pack and every
// enabled extension, then BFS over service depends_on edges to close
// the service set. Finally the set is topologically ordered.
//
// # Inputs
//
//   - enabledPacks: Pack names from the desired-state document
//   - enabledExtensions: Extension names from the desired-state document
//
// # Outputs
//
//   - Resolution: The expanded, ordered service set
//   - error: *GraphError on unknown references or cycles
//
// # Edge Cases
//
//   - No enabled packs or extensions resolves to an empty (valid)
//     Resolution; the diff phase then treats every managed container
//     as extra.
//   - A service required by several packs appears exactly once.
func (r *Resolver) Resolve(enabledPacks, enabledExtensions []string) (Resolution, error) {
	packClosure, err := r.closePacks(enabledPacks)
	if err != nil {
		return Resolution{}, err
	}

	seed := make(map[string]bool)
	for _, packName := range packClosure {
		pack, _ := r.catalog.Pack(packName)
		for _, svc := range pack.Services {
			seed[svc] = true
		}
	}
	for _, extName := range sortUnique(enabledExtensions) {
		ext, ok := r.catalog.Extension(extName)
		if !ok {
			return Resolution{}, &GraphError{Kind: UnknownReference, Name: extName}
		}
		for _, svc := range ext.Services {
			seed[svc] = true
		}
	}

	services, err := r.closeServices(seed)
	if err != nil {
		return Resolution{}, err
	}

	order, ranks, err := TopoSort(services, r.catalog.ServiceDependencies)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Services: services,
		Packs:    packClosure,
		Order:    order,
		Ranks:    ranks,
	}, nil
}

// closePacks returns the sorted transitive closure of the enabled packs
// over pack depends_on edges.
func (r *Resolver) closePacks(enabled []string) ([]string, error) {
	visited := make(map[string]bool)
	queue := sortUnique(enabled)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		pack, ok := r.catalog.Pack(name)
		if !ok {
			return nil, &GraphError{Kind: UnknownReference, Name: name}
		}
		visited[name] = true
		queue = append(queue, pack.DependsOn...)
	}

	return sortedNames(visited), nil
}

// closeServices returns the sorted transitive closure of the seed set
// over service depends_on edges.
func (r *Resolver) closeServices(seed map[string]bool) ([]string, error) {
	visited := make(map[string]bool)
	queue := sortedNames(seed)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		if _, ok := r.catalog.Service(name); !ok {
			return nil, &GraphError{Kind: UnknownReference, Name: name}
		}
		visited[name] = true
		queue = append(queue, r.catalog.ServiceDependencies(name)...)
	}

	return sortedNames(visited), nil
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortUnique(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := append([]string(nil), names...)
	sort.Strings(out)
	dst := out[:1]
	for _, n := range out[1:] {
		if n != dst[len(dst)-1] {
			dst = append(dst, n)
		}
	}
	return dst
}
