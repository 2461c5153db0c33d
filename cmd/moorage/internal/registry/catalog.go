// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Catalog
// =============================================================================

// Catalog is the validated, in-memory service registry.
//
// # Description
//
// Built once per reconciliation run from a CatalogDocument. All lookups
// are by name; list accessors return names in sorted order so callers
// iterate deterministically.
//
// # Thread Safety
//
// Catalog is immutable after construction and safe for concurrent reads.
type Catalog struct {
	services   map[string]ServiceDefinition
	packs      map[string]PackDefinition
	extensions map[string]ExtensionDefinition
}

// fieldValidator performs struct-tag validation on catalog entries.
var fieldValidator = validator.New()

// NewCatalog builds and validates a Catalog from a document.
//
// # Description
//
// Validates field-level constraints on every definition, uniqueness of
// names within each kind, referential integrity of all edges, and
// acyclicity of both the service and the pack dependency graphs.
//
// # Inputs
//
//   - doc: The parsed registry document
//
// # Outputs
//
//   - *Catalog: Validated catalog
//   - error: Wrapping ErrInvalidDefinition, ErrDuplicateName,
//     ErrUnknownReference, or ErrDependencyCycle
func NewCatalog(doc CatalogDocument) (*Catalog, error) {
	c := &Catalog{
		services:   make(map[string]ServiceDefinition, len(doc.Services)),
		packs:      make(map[string]PackDefinition, len(doc.Packs)),
		extensions: make(map[string]ExtensionDefinition, len(doc.Extensions)),
	}

	for _, svc := range doc.Services {
		if err := fieldValidator.Struct(svc); err != nil {
			return nil, fmt.Errorf("%w: service %q: %v", ErrInvalidDefinition, svc.Name, err)
		}
		if _, exists := c.services[svc.Name]; exists {
			return nil, fmt.Errorf("%w: service %q", ErrDuplicateName, svc.Name)
		}
		c.services[svc.Name] = svc
	}

	for _, pack := range doc.Packs {
		if err := fieldValidator.Struct(pack); err != nil {
			return nil, fmt.Errorf("%w: pack %q: %v", ErrInvalidDefinition, pack.Name, err)
		}
		if _, exists := c.packs[pack.Name]; exists {
			return nil, fmt.Errorf("%w: pack %q", ErrDuplicateName, pack.Name)
		}
		c.packs[pack.Name] = pack
	}

	for _, ext := range doc.Extensions {
		if err := fieldValidator.Struct(ext); err != nil {
			return nil, fmt.Errorf("%w: extension %q: %v", ErrInvalidDefinition, ext.Name, err)
		}
		if _, exists := c.extensions[ext.Name]; exists {
			return nil, fmt.Errorf("%w: extension %q", ErrDuplicateName, ext.Name)
		}
		c.extensions[ext.Name] = ext
	}

	if err := c.validateReferences(); err != nil {
		return nil, err
	}
	if err := c.validateAcyclic(); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadCatalog reads and validates the registry document at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry document: %w", err)
	}

	var doc CatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing registry document %s: %w", path, err)
	}

	return NewCatalog(doc)
}

// =============================================================================
// Lookups
// =============================================================================

// Service returns the service definition for name.
func (c *Catalog) Service(name string) (ServiceDefinition, bool) {
	svc, ok := c.services[name]
	return svc, ok
}

// Pack returns the pack definition for name.
func (c *Catalog) Pack(name string) (PackDefinition, bool) {
	pack, ok := c.packs[name]
	return pack, ok
}

// Extension returns the extension definition for name.
func (c *Catalog) Extension(name string) (ExtensionDefinition, bool) {
	ext, ok := c.extensions[name]
	return ext, ok
}

// ServiceNames returns all service names in sorted order.
func (c *Catalog) ServiceNames() []string {
	return sortedKeys(c.services)
}

// PackNames returns all pack names in sorted order.
func (c *Catalog) PackNames() []string {
	return sortedKeys(c.packs)
}

// ExtensionNames returns all extension names in sorted order.
func (c *Catalog) ExtensionNames() []string {
	return sortedKeys(c.extensions)
}

// ServiceDependencies returns the sorted depends_on edges for a service.
//
// Returns nil for unknown services; the catalog guarantees known
// services only reference existing names.
func (c *Catalog) ServiceDependencies(name string) []string {
	svc, ok := c.services[name]
	if !ok {
		return nil
	}
	deps := append([]string(nil), svc.DependsOn...)
	sort.Strings(deps)
	return deps
}

// =============================================================================
// Validation
// =============================================================================

// validateReferences checks every edge points at an existing name.
func (c *Catalog) validateReferences() error {
	for _, name := range sortedKeys(c.services) {
		for _, dep := range c.services[name].DependsOn {
			if _, ok := c.services[dep]; !ok {
				return fmt.Errorf("%w: service %q depends on unknown service %q",
					ErrUnknownReference, name, dep)
			}
		}
	}

	for _, name := range sortedKeys(c.packs) {
		pack := c.packs[name]
		for _, svc := range pack.Services {
			if _, ok := c.services[svc]; !ok {
				return fmt.Errorf("%w: pack %q requires unknown service %q",
					ErrUnknownReference, name, svc)
			}
		}
		for _, dep := range pack.DependsOn {
			if _, ok := c.packs[dep]; !ok {
				return fmt.Errorf("%w: pack %q depends on unknown pack %q",
					ErrUnknownReference, name, dep)
			}
		}
	}

	for _, name := range sortedKeys(c.extensions) {
		for _, svc := range c.extensions[name].Services {
			if _, ok := c.services[svc]; !ok {
				return fmt.Errorf("%w: extension %q requires unknown service %q",
					ErrUnknownReference, name, svc)
			}
		}
	}

	return nil
}

// validateAcyclic rejects cycles in the service and pack dependency graphs.
func (c *Catalog) validateAcyclic() error {
	serviceEdges := make(map[string][]string, len(c.services))
	for name, svc := range c.services {
		serviceEdges[name] = svc.DependsOn
	}
	if path := findCycle(serviceEdges); path != nil {
		return fmt.Errorf("%w: services %s", ErrDependencyCycle, strings.Join(path, " -> "))
	}

	packEdges := make(map[string][]string, len(c.packs))
	for name, pack := range c.packs {
		packEdges[name] = pack.DependsOn
	}
	if path := findCycle(packEdges); path != nil {
		return fmt.Errorf("%w: packs %s", ErrDependencyCycle, strings.Join(path, " -> "))
	}

	return nil
}

// findCycle runs a DFS with three-color marking and returns the first
// cycle found as a path (closed: first element repeated at the end),
// or nil if the graph is acyclic. Nodes are visited in sorted order so
// the reported cycle is deterministic.
func findCycle(edges map[string][]string) []string {
	const (
		white = 0 // unvisited
		grey  = 1 // in progress
		black = 2 // done
	)
	color := make(map[string]int, len(edges))
	var stack []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		color[node] = grey
		stack = append(stack, node)

		deps := append([]string(nil), edges[node]...)
		sort.Strings(deps)
		for _, dep := range deps {
			switch color[dep] {
			case grey:
				// Found it: slice the stack from the first occurrence.
				for i, n := range stack {
					if n == dep {
						cycle = append(append([]string(nil), stack[i:]...), dep)
						return true
					}
				}
			case white:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[node] = black
		return false
	}

	for _, node := range sortedKeys(edges) {
		if color[node] == white {
			if visit(node) {
				return cycle
			}
		}
	}
	return nil
}

// sortedKeys returns map keys in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
