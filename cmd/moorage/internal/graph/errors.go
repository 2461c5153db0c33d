// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"fmt"
	"strings"
)

// ErrorKind classifies resolution failures.
type ErrorKind int

const (
	// UnknownReference means an enabled pack/extension, or an edge
	// reachable from one, names an entry the catalog does not have.
	UnknownReference ErrorKind = iota

	// CycleDetected means ordering the resolved services hit a
	// dependency cycle.
	CycleDetected
)

// String returns the kind name for logs and error text.
func (k ErrorKind) String() string {
	switch k {
	case UnknownReference:
		return "unknown reference"
	case CycleDetected:
		return "cycle detected"
	default:
		return fmt.Sprintf("graph error kind %d", int(k))
	}
}

// GraphError is a structured resolution failure.
//
// # Description
//
// Carries enough context to print an actionable message: the failing
// name for unknown references, or the full cycle path (closed, first
// node repeated at the end) for cycles. Resolution failures are fatal;
// the engine never plans against a partial graph.
type GraphError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Name is the unresolvable reference (UnknownReference only).
	Name string

	// Path is the closed cycle path (CycleDetected only).
	Path []string
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	switch e.Kind {
	case UnknownReference:
		return fmt.Sprintf("graph resolution: unknown reference %q", e.Name)
	case CycleDetected:
		return fmt.Sprintf("graph resolution: dependency cycle %s", strings.Join(e.Path, " -> "))
	default:
		return fmt.Sprintf("graph resolution: %s", e.Kind)
	}
}

// Compile-time interface check.
var _ error = (*GraphError)(nil)
