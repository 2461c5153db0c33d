// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package runtime is the engine's only boundary to the container
// runtime.
//
// # Overview
//
// Everything above this package works on pure data; everything below it
// is podman. The Client interface exposes exactly the operations the
// apply executor needs (list, create, start, recreate, remove), and the
// PodmanClient implementation shells out through the process manager so
// tests can substitute a mock at either layer.
//
// Observation reads the actual state from container labels stamped at
// create time. The engine never inspects image IDs or recomputes hashes
// from running containers; the label is the single source of truth for
// "what configuration was this container created from".
package runtime

import (
	"context"
	"errors"
	"io"
)

// ErrRuntimeUnavailable is returned when the container runtime cannot
// be reached at all (binary missing, socket down). Observation treats
// this as fatal rather than reporting an empty actual state.
var ErrRuntimeUnavailable = errors.New("container runtime unavailable")

// ActualServiceRecord is one managed container as the runtime sees it.
type ActualServiceRecord struct {
	// Name is the stack service name the container belongs to.
	Name string

	// Running reports whether the container is currently running.
	Running bool

	// LastAppliedHash is the rendered-config hash label stamped when
	// the container was created. Empty when the label is missing.
	LastAppliedHash string

	// RuntimeID is the container ID.
	RuntimeID string
}

// Client is the runtime operation surface used by observe and apply.
//
// # Description
//
// Create and Recreate bring a service up from the rendered compose
// document (Recreate forces replacement of the existing container).
// Start resumes a stopped container in place. Remove deletes a
// container. ListManaged returns every container carrying the managed
// label, running or not.
//
// All operations honor ctx for cancellation and deadlines.
type Client interface {
	// ListManaged returns all managed containers, including stopped ones.
	ListManaged(ctx context.Context) ([]ActualServiceRecord, error)

	// Create brings the named service up from the rendered document.
	Create(ctx context.Context, service string) error

	// Start resumes the stopped container for the named service.
	Start(ctx context.Context, service string) error

	// Recreate replaces the container for the named service with one
	// built from the current rendered document.
	Recreate(ctx context.Context, service string) error

	// Remove force-removes the container for the named service.
	Remove(ctx context.Context, service string) error

	// Logs streams the named service's container logs to w. With follow
	// set it blocks until ctx is cancelled or the container exits.
	Logs(ctx context.Context, service string, w io.Writer, follow bool) error
}
