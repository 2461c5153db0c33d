// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "mooragelocal", cfg.Stack.ProjectName)
	assert.Equal(t, "podman", cfg.Runtime.PodmanBinary)
	assert.Equal(t, "podman-compose", cfg.Runtime.ComposeBinary)
	assert.False(t, cfg.Reconcile.Prune, "prune must default to off")
	assert.GreaterOrEqual(t, cfg.Reconcile.Parallelism, 1)
}

func TestLoadFromOverridesDefaults(t *testing.T) {
	content := `
stack:
  dir: /opt/moorage/stack
  project_name: customproj
reconcile:
  prune: true
  parallelism: 8
  action_timeout: 90s
`
	path := filepath.Join(t.TempDir(), "moorage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/moorage/stack", cfg.Stack.Dir)
	assert.Equal(t, "customproj", cfg.Stack.ProjectName)
	assert.True(t, cfg.Reconcile.Prune)
	assert.Equal(t, 8, cfg.Reconcile.Parallelism)
	assert.Equal(t, 90*time.Second, cfg.Reconcile.ActionTimeout.Std())

	// Unset keys keep defaults.
	assert.Equal(t, "podman", cfg.Runtime.PodmanBinary)
	assert.Equal(t, "registry.yaml", cfg.Stack.Registry)
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	out, err := Duration(90 * time.Second).MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", out)

	var d Duration
	require.NoError(t, yaml.Unmarshal([]byte("2m"), &d))
	assert.Equal(t, 2*time.Minute, d.Std())

	require.Error(t, yaml.Unmarshal([]byte("soon"), &d))
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stack.Dir = "/stack"
	assert.Equal(t, filepath.Join("/stack", "registry.yaml"), cfg.RegistryPath())
	assert.Equal(t, filepath.Join("/stack", "desired_state.yaml"), cfg.StatePath())
	assert.Equal(t, filepath.Join("/stack", "rendered", "compose.yaml"), cfg.ComposePath())
	assert.Equal(t, filepath.Join("/stack", "rendered", "hashes.json"), cfg.ManifestPath())
}
