// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	require.ErrorIs(t, err, ErrStateNotFound)
}

func TestLoadOrEmptyMissingFile(t *testing.T) {
	ds, err := LoadOrEmpty(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)
	assert.Empty(t, ds.EnabledPacks)
	assert.Empty(t, ds.EnabledExtensions)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	ds := DesiredState{
		EnabledPacks:      []string{"chat", "rag", "chat"},
		EnabledExtensions: []string{"audit-log"},
	}

	require.NoError(t, Save(path, ds))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "rag"}, loaded.EnabledPacks,
		"duplicates must be dropped and order normalized")
	assert.Equal(t, []string{"audit-log"}, loaded.EnabledExtensions)
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", DefaultFileName)
	require.NoError(t, Save(path, DesiredState{EnabledPacks: []string{"rag"}}))

	_, err := os.Stat(path)
	require.NoError(t, err, "state file not created")
}

func TestLoadCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("enabled_packs: {not: a list}"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnableDisablePack(t *testing.T) {
	var ds DesiredState

	assert.True(t, ds.EnablePack("rag"), "first enable must report a change")
	assert.False(t, ds.EnablePack("rag"), "repeat enable must be a no-op")
	ds.EnablePack("chat")
	assert.Equal(t, []string{"chat", "rag"}, ds.EnabledPacks)

	assert.True(t, ds.DisablePack("rag"))
	assert.False(t, ds.DisablePack("rag"), "repeat disable must be a no-op")
	assert.Equal(t, []string{"chat"}, ds.EnabledPacks)
}

func TestEnableDisableExtension(t *testing.T) {
	var ds DesiredState

	assert.True(t, ds.EnableExtension("audit-log"))
	assert.True(t, ds.DisableExtension("audit-log"))
	assert.Empty(t, ds.EnabledExtensions)
}
