// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/config"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/registry"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/state"
	"github.com/MoorageAI/MoorageLocal/pkg/ux"
)

func runEnable(cmd *cobra.Command, args []string) {
	toggleIntent(args[0], true)
}

func runDisable(cmd *cobra.Command, args []string) {
	toggleIntent(args[0], false)
}

// toggleIntent validates the name against the catalog, flips it in the
// desired-state document, and saves. It never touches the runtime;
// the operator runs apply (or watch does) to act on the new intent.
func toggleIntent(name string, enable bool) {
	catalog, err := registry.LoadCatalog(config.Global.RegistryPath())
	if err != nil {
		OutputError(jsonOutput, "Loading the service registry", err)
		exitCode = CLIExitError
		return
	}

	if extensionFlag {
		if _, ok := catalog.Extension(name); !ok {
			OutputError(jsonOutput, "Unknown extension", fmt.Errorf("%q is not in the registry", name))
			exitCode = CLIExitError
			return
		}
	} else {
		if _, ok := catalog.Pack(name); !ok {
			OutputError(jsonOutput, "Unknown pack", fmt.Errorf("%q is not in the registry", name))
			exitCode = CLIExitError
			return
		}
	}

	statePath := config.Global.StatePath()
	intent, err := state.LoadOrEmpty(statePath)
	if err != nil {
		OutputError(jsonOutput, "Loading desired state", err)
		exitCode = CLIExitError
		return
	}

	var changed bool
	switch {
	case extensionFlag && enable:
		changed = intent.EnableExtension(name)
	case extensionFlag && !enable:
		changed = intent.DisableExtension(name)
	case enable:
		changed = intent.EnablePack(name)
	default:
		changed = intent.DisablePack(name)
	}

	if !changed {
		fmt.Printf("%s %s already %s\n", ux.IconBullet, name, verb(enable))
		return
	}
	if err := state.Save(statePath, intent); err != nil {
		OutputError(jsonOutput, "Saving desired state", err)
		exitCode = CLIExitError
		return
	}
	fmt.Printf("%s %s %s; run 'moorage stack apply' to converge\n",
		ux.IconSuccess.Render(), name, verb(enable))
}

func verb(enable bool) string {
	if enable {
		return "enabled"
	}
	return "disabled"
}

// intentListing is the JSON shape of list output.
type intentListing struct {
	Packs      []intentEntry `json:"packs"`
	Extensions []intentEntry `json:"extensions"`
}

type intentEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Services    []string `json:"services"`
	Enabled     bool     `json:"enabled"`
}

func runList(cmd *cobra.Command, args []string) {
	catalog, err := registry.LoadCatalog(config.Global.RegistryPath())
	if err != nil {
		OutputError(jsonOutput, "Loading the service registry", err)
		exitCode = CLIExitError
		return
	}
	intent, err := state.LoadOrEmpty(config.Global.StatePath())
	if err != nil {
		OutputError(jsonOutput, "Loading desired state", err)
		exitCode = CLIExitError
		return
	}

	enabledPacks := toSet(intent.EnabledPacks)
	enabledExts := toSet(intent.EnabledExtensions)

	var listing intentListing
	for _, name := range catalog.PackNames() {
		p, _ := catalog.Pack(name)
		listing.Packs = append(listing.Packs, intentEntry{
			Name: name, Description: p.Description,
			Services: sortedCopy(p.Services), Enabled: enabledPacks[name],
		})
	}
	for _, name := range catalog.ExtensionNames() {
		e, _ := catalog.Extension(name)
		listing.Extensions = append(listing.Extensions, intentEntry{
			Name: name, Description: e.Description,
			Services: sortedCopy(e.Services), Enabled: enabledExts[name],
		})
	}

	if jsonOutput {
		_ = OutputJSON(listing)
		return
	}

	fmt.Println(ux.Render(ux.Styles.Title, "Packs"))
	printEntries(listing.Packs)
	fmt.Println(ux.Render(ux.Styles.Title, "Extensions"))
	printEntries(listing.Extensions)
}

func printEntries(entries []intentEntry) {
	if len(entries) == 0 {
		fmt.Println(ux.Render(ux.Styles.Muted, "  (none)"))
		return
	}
	for _, e := range entries {
		mark := ux.IconPending.Render()
		if e.Enabled {
			mark = ux.IconSuccess.Render()
		}
		fmt.Printf("  %s %-16s %s\n", mark, e.Name,
			ux.Render(ux.Styles.Muted, e.Description))
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
