// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/infra/process"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/render"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/util"
)

// composeServiceLabel is the label podman-compose stamps with the
// compose service name. Observation uses it to map containers back to
// stack services.
const composeServiceLabel = "com.docker.compose.service"

// PodmanClientOptions configures a PodmanClient.
type PodmanClientOptions struct {
	// PodmanBinary is the podman executable name or path.
	PodmanBinary string

	// ComposeBinary is the podman-compose executable name or path.
	ComposeBinary string

	// ProjectName is the compose project name scoping the stack.
	ProjectName string

	// ComposeFile is the path of the rendered compose document.
	ComposeFile string

	// WorkDir is the directory commands run in.
	WorkDir string
}

// PodmanClient implements Client by shelling out to podman and
// podman-compose.
//
// # Thread Safety
//
// PodmanClient is stateless after construction and safe for concurrent
// use; concurrency limits are the executor's concern.
type PodmanClient struct {
	opts PodmanClientOptions
	proc process.Manager
}

// Compile-time interface check.
var _ Client = (*PodmanClient)(nil)

// NewPodmanClient returns a PodmanClient using the given process
// manager.
//
// Returns ErrRuntimeUnavailable when the podman binary cannot be found
// on PATH, so misconfiguration surfaces before the first reconcile
// rather than halfway through an apply.
func NewPodmanClient(opts PodmanClientOptions, proc process.Manager) (*PodmanClient, error) {
	if opts.PodmanBinary == "" {
		opts.PodmanBinary = "podman"
	}
	if opts.ComposeBinary == "" {
		opts.ComposeBinary = "podman-compose"
	}
	if _, err := proc.LookPath(opts.PodmanBinary); err != nil {
		return nil, fmt.Errorf("%w: %s not found: %v", ErrRuntimeUnavailable, opts.PodmanBinary, err)
	}
	return &PodmanClient{opts: opts, proc: proc}, nil
}

// psEntry is the subset of `podman ps --format json` output we read.
type psEntry struct {
	ID     string            `json:"Id"`
	Names  []string          `json:"Names"`
	State  string            `json:"State"`
	Labels map[string]string `json:"Labels"`
}

// ListManaged returns every container carrying the managed label.
func (c *PodmanClient) ListManaged(ctx context.Context) ([]ActualServiceRecord, error) {
	ctx, cancel := util.ContextWithTimeout(ctx, util.DefaultObserveTimeout)
	defer cancel()

	stdout, _, _, err := c.proc.RunInDir(ctx, c.opts.WorkDir, nil,
		c.opts.PodmanBinary, "ps", "-a",
		"--filter", "label="+render.ManagedLabel+"=true",
		"--format", "json")
	if err != nil {
		return nil, fmt.Errorf("%w: listing containers: %v", ErrRuntimeUnavailable, err)
	}

	stdout = strings.TrimSpace(stdout)
	if stdout == "" || stdout == "null" {
		return nil, nil
	}

	var entries []psEntry
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		return nil, fmt.Errorf("parsing container list: %w", err)
	}

	records := make([]ActualServiceRecord, 0, len(entries))
	for _, e := range entries {
		name := e.Labels[composeServiceLabel]
		if name == "" && len(e.Names) > 0 {
			// Containers created outside compose fall back to their
			// container name.
			name = e.Names[0]
		}
		records = append(records, ActualServiceRecord{
			Name:            name,
			Running:         strings.EqualFold(e.State, "running"),
			LastAppliedHash: e.Labels[render.ConfigHashLabel],
			RuntimeID:       e.ID,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// Create brings the named service up from the rendered document.
func (c *PodmanClient) Create(ctx context.Context, service string) error {
	return c.composeUp(ctx, service, false)
}

// Recreate replaces the named service's container.
func (c *PodmanClient) Recreate(ctx context.Context, service string) error {
	return c.composeUp(ctx, service, true)
}

func (c *PodmanClient) composeUp(ctx context.Context, service string, forceRecreate bool) error {
	ctx, cancel := util.ContextWithTimeout(ctx, util.DefaultActionTimeout)
	defer cancel()

	args := []string{"-p", c.opts.ProjectName, "-f", c.opts.ComposeFile, "up", "-d"}
	if forceRecreate {
		args = append(args, "--force-recreate")
	}
	args = append(args, service)

	if _, _, _, err := c.proc.RunInDir(ctx, c.opts.WorkDir, nil, c.opts.ComposeBinary, args...); err != nil {
		verb := "creating"
		if forceRecreate {
			verb = "recreating"
		}
		return fmt.Errorf("%s service %s: %w", verb, service, err)
	}
	return nil
}

// Start resumes the stopped container for the named service.
func (c *PodmanClient) Start(ctx context.Context, service string) error {
	ctx, cancel := util.ContextWithTimeout(ctx, util.DefaultActionTimeout)
	defer cancel()

	if _, _, _, err := c.proc.RunInDir(ctx, c.opts.WorkDir, nil,
		c.opts.PodmanBinary, "start", c.containerName(service)); err != nil {
		return fmt.Errorf("starting service %s: %w", service, err)
	}
	return nil
}

// Remove force-removes the container for the named service.
func (c *PodmanClient) Remove(ctx context.Context, service string) error {
	ctx, cancel := util.ContextWithTimeout(ctx, util.DefaultActionTimeout)
	defer cancel()

	if _, _, _, err := c.proc.RunInDir(ctx, c.opts.WorkDir, nil,
		c.opts.PodmanBinary, "rm", "-f", c.containerName(service)); err != nil {
		return fmt.Errorf("removing service %s: %w", service, err)
	}
	return nil
}

// Logs streams container logs for the named service to w.
//
// No timeout is applied: a follow runs until the caller cancels ctx,
// and cancellation ends the stream as ctx.Err() rather than a command
// failure.
func (c *PodmanClient) Logs(ctx context.Context, service string, w io.Writer, follow bool) error {
	args := []string{"logs"}
	if follow {
		args = append(args, "--follow")
	}
	args = append(args, c.containerName(service))

	if err := c.proc.RunStreaming(ctx, c.opts.WorkDir, w, c.opts.PodmanBinary, args...); err != nil {
		return fmt.Errorf("streaming logs for service %s: %w", service, err)
	}
	return nil
}

// containerName returns the podman-compose container name for a
// service (first replica).
func (c *PodmanClient) containerName(service string) string {
	return fmt.Sprintf("%s_%s_1", c.opts.ProjectName, service)
}
