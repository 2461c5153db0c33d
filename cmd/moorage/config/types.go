// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that round-trips through YAML as a
// human-readable string ("90s", "2m").
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value.Value))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

type MoorageConfig struct {
	// Stack: where the stack documents live and how the project is named
	Stack StackConfig `yaml:"stack"`

	// Runtime: container runtime binaries
	Runtime RuntimeConfig `yaml:"runtime"`

	// Reconcile: apply behavior knobs
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

type StackConfig struct {
	Dir         string `yaml:"dir"`          // e.g. ~/.moorage/stack
	ProjectName string `yaml:"project_name"` // compose project, e.g. mooragelocal
	Registry    string `yaml:"registry"`     // registry document name
	State       string `yaml:"state"`        // desired-state document name
}

type RuntimeConfig struct {
	PodmanBinary  string `yaml:"podman_binary"`  // e.g. podman
	ComposeBinary string `yaml:"compose_binary"` // e.g. podman-compose
}

type ReconcileConfig struct {
	// Prune removes extra managed containers during apply.
	Prune bool `yaml:"prune"`

	// Parallelism bounds concurrent actions per dependency wave.
	Parallelism int `yaml:"parallelism"`

	// ActionTimeout bounds one create/start/recreate/remove.
	ActionTimeout Duration `yaml:"action_timeout"`

	// WatchInterval is the periodic reconcile period in watch mode.
	WatchInterval Duration `yaml:"watch_interval"`
}

// RegistryPath returns the absolute path of the registry document.
func (c MoorageConfig) RegistryPath() string {
	return filepath.Join(c.Stack.Dir, c.Stack.Registry)
}

// StatePath returns the absolute path of the desired-state document.
func (c MoorageConfig) StatePath() string {
	return filepath.Join(c.Stack.Dir, c.Stack.State)
}

// ComposePath returns where the rendered compose document is written.
func (c MoorageConfig) ComposePath() string {
	return filepath.Join(c.Stack.Dir, "rendered", "compose.yaml")
}

// ManifestPath returns where the hash sidecar is written.
func (c MoorageConfig) ManifestPath() string {
	return filepath.Join(c.Stack.Dir, "rendered", "hashes.json")
}

func DefaultConfig() MoorageConfig {
	stackDir := "stack"
	if home, err := os.UserHomeDir(); err == nil {
		stackDir = filepath.Join(home, ".moorage", "stack")
	}
	return MoorageConfig{
		Stack: StackConfig{
			Dir:         stackDir,
			ProjectName: "mooragelocal",
			Registry:    "registry.yaml",
			State:       "desired_state.yaml",
		},
		Runtime: RuntimeConfig{
			PodmanBinary:  "podman",
			ComposeBinary: "podman-compose",
		},
		Reconcile: ReconcileConfig{
			Prune:         false,
			Parallelism:   4,
			ActionTimeout: Duration(2 * time.Minute),
			WatchInterval: Duration(5 * time.Minute),
		},
	}
}
