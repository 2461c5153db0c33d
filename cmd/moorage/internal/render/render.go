// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package render turns resolved service definitions into canonical
// runtime configuration with stable content hashes.
//
// # Overview
//
// Rendering is the hash boundary of the engine: two service definitions
// are "the same" exactly when their canonical bytes are the same. To
// make that hold, every list in the canonical form is sorted, the
// environment is emitted as sorted KEY=VALUE entries instead of a map,
// and struct fields marshal in fixed declaration order. The hash is
// SHA-256 over the canonical bytes, truncated to 12 hex characters.
//
// Provenance labels are attached after hashing, never inside the hashed
// bytes, so the hash a container carries always matches the hash of the
// definition that produced it.
package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/registry"
)

// HashLength is the number of hex characters kept from the SHA-256
// digest. 48 bits is plenty for distinguishing revisions of a few dozen
// services while staying readable in container labels and logs.
const HashLength = 12

// renderParallelism bounds concurrent per-service rendering.
const renderParallelism = 8

// RenderError reports a single service that could not be rendered.
//
// Rendering is per-service: one bad definition does not abort the
// others, so callers can report every failure in one pass.
type RenderError struct {
	// Service is the failing service name.
	Service string

	// Reason describes what was wrong with the definition.
	Reason string
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering service %q: %s", e.Service, e.Reason)
}

var _ error = (*RenderError)(nil)

// RenderedService is one service in canonical form.
type RenderedService struct {
	// Name is the service name.
	Name string

	// Body holds the canonical YAML bytes the hash was computed over.
	Body []byte

	// Hash is the truncated SHA-256 of Body.
	Hash string
}

// canonicalService is the fixed-order shape that gets hashed.
//
// yaml.v3 marshals struct fields in declaration order, so field order
// here is part of the hash contract. Do not reorder.
type canonicalService struct {
	Image       string   `yaml:"image"`
	Command     []string `yaml:"command,omitempty"`
	Ports       []string `yaml:"ports,omitempty"`
	Volumes     []string `yaml:"volumes,omitempty"`
	Environment []string `yaml:"environment,omitempty"`
	DependsOn   []string `yaml:"depends_on,omitempty"`
}

// Renderer renders catalog definitions into canonical form.
//
// # Thread Safety
//
// Renderer holds only an immutable catalog reference and is safe for
// concurrent use.
type Renderer struct {
	catalog *registry.Catalog
}

// NewRenderer returns a Renderer over the given catalog.
func NewRenderer(catalog *registry.Catalog) *Renderer {
	return &Renderer{catalog: catalog}
}

// RenderService renders a single service.
//
// # Outputs
//
//   - RenderedService: Canonical bytes plus hash
//   - error: *RenderError for malformed definitions, or an unknown-name
//     error when the service is not in the catalog
func (r *Renderer) RenderService(name string) (RenderedService, error) {
	svc, ok := r.catalog.Service(name)
	if !ok {
		return RenderedService{}, &RenderError{Service: name, Reason: "not in catalog"}
	}

	canon, err := canonicalize(svc)
	if err != nil {
		return RenderedService{}, err
	}

	body, err := yaml.Marshal(canon)
	if err != nil {
		return RenderedService{}, &RenderError{Service: name, Reason: err.Error()}
	}

	return RenderedService{
		Name: name,
		Body: body,
		Hash: HashBytes(body),
	}, nil
}

// RenderAll renders every named service concurrently.
//
// # Description
//
// Services render independently on a bounded worker pool. All failures
// are collected; the returned slice contains every service that did
// render, sorted by name, even when err is non-nil.
//
// # Inputs
//
//   - ctx: Cancels outstanding renders
//   - names: Service names to render
//
// # Outputs
//
//   - []RenderedService: Successful renders, sorted by name
//   - []error: One *RenderError per failed service, sorted by name
func (r *Renderer) RenderAll(ctx context.Context, names []string) ([]RenderedService, []error) {
	var mu sync.Mutex
	rendered := make([]RenderedService, 0, len(names))
	var failures []error

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(renderParallelism)

	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rs, err := r.RenderService(name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return nil
			}
			rendered = append(rendered, rs)
			return nil
		})
	}
	// Workers only return ctx errors; per-service failures are collected
	// above. A cancelled render is incomplete and must not look clean.
	if err := g.Wait(); err != nil {
		failures = append(failures, err)
	}

	sort.Slice(rendered, func(i, j int) bool { return rendered[i].Name < rendered[j].Name })
	sort.Slice(failures, func(i, j int) bool { return failures[i].Error() < failures[j].Error() })
	return rendered, failures
}

// canonicalize converts a definition into its fixed-order, fully
// sorted canonical shape.
func canonicalize(svc registry.ServiceDefinition) (canonicalService, error) {
	env := make([]string, 0, len(svc.Env))
	for k, v := range svc.Env {
		if k == "" {
			return canonicalService{}, &RenderError{Service: svc.Name, Reason: "empty environment key"}
		}
		if strings.ContainsAny(k, "=\n") {
			return canonicalService{}, &RenderError{
				Service: svc.Name,
				Reason:  fmt.Sprintf("environment key %q contains reserved characters", k),
			}
		}
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	ports := make([]string, 0, len(svc.Ports))
	for _, p := range svc.Ports {
		ports = append(ports, p.String())
	}
	sort.Strings(ports)

	volumes := make([]string, 0, len(svc.Volumes))
	for _, v := range svc.Volumes {
		volumes = append(volumes, v.String())
	}
	sort.Strings(volumes)

	deps := append([]string(nil), svc.DependsOn...)
	sort.Strings(deps)

	return canonicalService{
		Image:       svc.Image,
		Command:     append([]string(nil), svc.Command...),
		Ports:       ports,
		Volumes:     volumes,
		Environment: env,
		DependsOn:   deps,
	}, nil
}

// HashBytes returns the truncated SHA-256 hex digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:HashLength]
}
