// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package state persists the operator's declared intent.
//
// The desired-state document records which packs and extensions the
// operator has enabled, nothing more. It is the single input that
// distinguishes "what should be running" from "what the registry knows
// about". Plan and apply never mutate it; only the enable and disable
// commands write it back.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the desired-state document name inside the stack
// directory.
const DefaultFileName = "desired_state.yaml"

// ErrStateNotFound is returned by Load when no document exists yet.
var ErrStateNotFound = errors.New("desired state document not found")

// DesiredState is the operator's declared intent.
//
// # Description
//
// Lists the enabled packs and extensions by name. Resolution expands
// these into the full service set; this document never names services
// directly.
//
// # Thread Safety
//
// DesiredState is a plain value; callers must not share a single
// instance across goroutines while mutating it.
type DesiredState struct {
	// EnabledPacks names the feature packs the operator turned on.
	EnabledPacks []string `yaml:"enabled_packs"`

	// EnabledExtensions names the add-on extensions the operator turned on.
	EnabledExtensions []string `yaml:"enabled_extensions"`
}

// Load reads the desired-state document at path.
//
// Returns ErrStateNotFound when the file does not exist so callers can
// distinguish "never configured" from a corrupt document.
func Load(path string) (DesiredState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DesiredState{}, fmt.Errorf("%w: %s", ErrStateNotFound, path)
		}
		return DesiredState{}, fmt.Errorf("reading desired state: %w", err)
	}

	var ds DesiredState
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return DesiredState{}, fmt.Errorf("parsing desired state %s: %w", path, err)
	}

	ds.normalize()
	return ds, nil
}

// LoadOrEmpty reads the document at path, returning an empty state when
// the file does not exist yet.
func LoadOrEmpty(path string) (DesiredState, error) {
	ds, err := Load(path)
	if errors.Is(err, ErrStateNotFound) {
		return DesiredState{}, nil
	}
	return ds, err
}

// Save writes the document atomically via a sibling temp file.
func Save(path string, ds DesiredState) error {
	ds.normalize()

	data, err := yaml.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encoding desired state: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".desired_state-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing desired state %s: %w", path, err)
	}
	return nil
}

// EnablePack adds name to the enabled pack set. Returns true when the
// state changed.
func (d *DesiredState) EnablePack(name string) bool {
	return addName(&d.EnabledPacks, name)
}

// DisablePack removes name from the enabled pack set. Returns true when
// the state changed.
func (d *DesiredState) DisablePack(name string) bool {
	return removeName(&d.EnabledPacks, name)
}

// EnableExtension adds name to the enabled extension set. Returns true
// when the state changed.
func (d *DesiredState) EnableExtension(name string) bool {
	return addName(&d.EnabledExtensions, name)
}

// DisableExtension removes name from the enabled extension set. Returns
// true when the state changed.
func (d *DesiredState) DisableExtension(name string) bool {
	return removeName(&d.EnabledExtensions, name)
}

// normalize sorts and deduplicates both name lists so the on-disk
// document and all downstream iteration are deterministic.
func (d *DesiredState) normalize() {
	d.EnabledPacks = sortUnique(d.EnabledPacks)
	d.EnabledExtensions = sortUnique(d.EnabledExtensions)
}

func addName(list *[]string, name string) bool {
	for _, n := range *list {
		if n == name {
			return false
		}
	}
	*list = sortUnique(append(*list, name))
	return true
}

func removeName(list *[]string, name string) bool {
	out := (*list)[:0]
	removed := false
	for _, n := range *list {
		if n == name {
			removed = true
			continue
		}
		out = append(out, n)
	}
	*list = out
	return removed
}

func sortUnique(names []string) []string {
	if len(names) == 0 {
		return names
	}
	sort.Strings(names)
	out := names[:1]
	for _, n := range names[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}
