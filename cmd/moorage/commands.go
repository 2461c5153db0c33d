// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"time"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath    string
	jsonOutput    bool
	pruneFlag     bool
	parallelFlag  int
	yesFlag       bool
	intervalFlag  time.Duration
	extensionFlag bool
	followFlag    bool

	// exitCode is set by command run functions and applied in main.
	exitCode int

	rootCmd = &cobra.Command{
		Use:   "moorage",
		Short: "A cli to reconcile your local Moorage AI stack",
		Long: `Moorage keeps a local multi-service AI stack converged with the
				operator's declared intent: enable packs, let the engine plan
				the minimal set of container actions, and apply them.`,
	}

	// --- Stack Reconciliation ---
	stackCmd = &cobra.Command{
		Use:   "stack",
		Short: "Manage the local Moorage stack on your machine",
	}
	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Show what apply would change, without touching the runtime",
		Run:   runPlan, // Defined in cmd_stack.go
	}
	applyCmd = &cobra.Command{
		Use:   "apply",
		Short: "Converge the running stack to the declared intent",
		Run:   runApply, // Defined in cmd_stack.go
	}
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Report drift between declared intent and the running stack",
		Run:   runStatus, // Defined in cmd_stack.go
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Reconcile continuously on document changes and a timer",
		Run:   runWatch, // Defined in cmd_stack.go
	}
	logsCmd = &cobra.Command{
		Use:   "logs [service]",
		Short: "Print a service's container logs",
		Args:  cobra.ExactArgs(1),
		Run:   runLogs, // Defined in cmd_stack.go
	}

	// --- Intent Management ---
	enableCmd = &cobra.Command{
		Use:   "enable [name]",
		Short: "Enable a feature pack (or extension with --extension)",
		Args:  cobra.ExactArgs(1),
		Run:   runEnable, // Defined in cmd_intent.go
	}
	disableCmd = &cobra.Command{
		Use:   "disable [name]",
		Short: "Disable a feature pack (or extension with --extension)",
		Args:  cobra.ExactArgs(1),
		Run:   runDisable, // Defined in cmd_intent.go
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List known packs and extensions and their enabled state",
		Run:   runList, // Defined in cmd_intent.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an alternate moorage.yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON output")

	planCmd.Flags().BoolVar(&pruneFlag, "prune", false, "Plan removal of extra managed containers")
	applyCmd.Flags().BoolVar(&pruneFlag, "prune", false, "Remove extra managed containers")
	applyCmd.Flags().IntVar(&parallelFlag, "parallel", 0, "Max concurrent actions per dependency wave")
	applyCmd.Flags().BoolVar(&yesFlag, "yes", false, "Skip the confirmation prompt for destructive actions")
	watchCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "Periodic reconcile interval (default from config)")
	watchCmd.Flags().BoolVar(&pruneFlag, "prune", false, "Remove extra managed containers on each reconcile")
	logsCmd.Flags().BoolVarP(&followFlag, "follow", "f", false, "Follow log output until interrupted")

	enableCmd.Flags().BoolVar(&extensionFlag, "extension", false, "Treat the name as an extension")
	disableCmd.Flags().BoolVar(&extensionFlag, "extension", false, "Treat the name as an extension")

	rootCmd.AddCommand(stackCmd)
	stackCmd.AddCommand(planCmd)
	stackCmd.AddCommand(applyCmd)
	stackCmd.AddCommand(statusCmd)
	stackCmd.AddCommand(watchCmd)
	stackCmd.AddCommand(logsCmd)

	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(listCmd)
}
