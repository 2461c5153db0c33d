// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/config"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/plan"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/util"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/watch"
	"github.com/MoorageAI/MoorageLocal/pkg/logging"
	"github.com/MoorageAI/MoorageLocal/pkg/ux"
)

// reconcileOpts derives per-run options from config plus flags.
func reconcileOpts() ReconcileOptions {
	opts := ReconcileOptions{
		Prune:       config.Global.Reconcile.Prune || pruneFlag,
		Parallelism: config.Global.Reconcile.Parallelism,
	}
	if parallelFlag > 0 {
		opts.Parallelism = parallelFlag
	}
	return opts
}

// planPayload is the JSON shape of plan/status output.
type planPayload struct {
	Report plan.Report `json:"report"`
	Plan   *plan.Plan  `json:"plan,omitempty"`
}

func runPlan(cmd *cobra.Command, args []string) {
	r, err := reconcilerFactory.CreateReconciler(config.Global)
	if err != nil {
		OutputError(jsonOutput, "Setting up the reconciler", err)
		exitCode = CLIExitError
		return
	}

	outcome, err := r.BuildPlan(cmd.Context(), reconcileOpts())
	if err != nil {
		OutputError(jsonOutput, "Planning", err)
		exitCode = CLIExitError
		return
	}

	if jsonOutput {
		_ = OutputJSON(planPayload{Report: outcome.Report, Plan: &outcome.Plan})
	} else {
		printReport(outcome.Report)
		printPlan(outcome.Plan)
	}
	if !outcome.Report.Converged() {
		exitCode = CLIExitDrift
	}
}

func runStatus(cmd *cobra.Command, args []string) {
	r, err := reconcilerFactory.CreateReconciler(config.Global)
	if err != nil {
		OutputError(jsonOutput, "Setting up the reconciler", err)
		exitCode = CLIExitError
		return
	}

	outcome, err := r.BuildPlan(cmd.Context(), ReconcileOptions{})
	if err != nil {
		OutputError(jsonOutput, "Observing the stack", err)
		exitCode = CLIExitError
		return
	}

	if jsonOutput {
		_ = OutputJSON(planPayload{Report: outcome.Report})
	} else {
		printReport(outcome.Report)
	}
	if !outcome.Report.Converged() {
		exitCode = CLIExitDrift
	}
}

func runApply(cmd *cobra.Command, args []string) {
	r, err := reconcilerFactory.CreateReconciler(config.Global)
	if err != nil {
		OutputError(jsonOutput, "Setting up the reconciler", err)
		exitCode = CLIExitError
		return
	}
	opts := reconcileOpts()

	// Show the plan first so the confirmation is informed.
	preview, err := r.BuildPlan(cmd.Context(), opts)
	if err != nil {
		OutputError(jsonOutput, "Planning", err)
		exitCode = CLIExitError
		return
	}
	if !jsonOutput {
		printReport(preview.Report)
		printPlan(preview.Plan)
	}

	if hasDestructive(preview.Plan) && !yesFlag {
		if !confirm("The plan removes or recreates containers. Continue?") {
			fmt.Println("Aborted.")
			exitCode = CLIExitDrift
			return
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), util.DefaultApplyTimeout)
	defer cancel()

	outcome, err := r.Apply(ctx, opts)
	if err != nil {
		OutputError(jsonOutput, "Applying", err)
		exitCode = CLIExitError
		return
	}

	if jsonOutput {
		_ = OutputJSON(struct {
			Report plan.Report `json:"report"`
			Plan   plan.Plan   `json:"plan"`
			Result any         `json:"result"`
		}{outcome.Report, outcome.Plan, outcome.Result})
	} else if outcome.Plan.Empty() {
		fmt.Println(ux.Render(ux.Styles.Success, "Nothing to do."))
	} else {
		printApplyResult(outcome.Result)
	}

	switch {
	case !outcome.Result.FullyApplied():
		exitCode = CLIExitDrift
	case outcome.Report.Count(plan.Extra) > 0 && !opts.Prune:
		// Unpruned extras stay behind as drift.
		exitCode = CLIExitDrift
	default:
		exitCode = CLIExitConverged
	}
}

func runWatch(cmd *cobra.Command, args []string) {
	r, err := reconcilerFactory.CreateReconciler(config.Global)
	if err != nil {
		OutputError(jsonOutput, "Setting up the reconciler", err)
		exitCode = CLIExitError
		return
	}
	opts := reconcileOpts()

	interval := config.Global.Reconcile.WatchInterval.Std()
	if intervalFlag > 0 {
		interval = intervalFlag
	}

	logger := logging.New(logging.Config{
		Service: "moorage",
		LogDir:  "~/.moorage/logs",
		JSON:    jsonOutput,
	})
	defer logger.Close()

	trigger := func(ctx context.Context, reason string) error {
		logger.Info("reconciling", "reason", reason)
		outcome, err := r.Apply(ctx, opts)
		if err != nil {
			return err
		}
		if outcome.Plan.Empty() {
			logger.Info("in sync", "services", len(outcome.Report.Entries))
			return nil
		}
		logger.Info("reconcile complete",
			"run_id", outcome.Result.RunID,
			"applied", len(outcome.Result.Succeeded),
			"failed", len(outcome.Result.Failures),
			"skipped", len(outcome.Result.Skipped))
		return nil
	}

	w, err := watch.New(
		[]string{config.Global.RegistryPath(), config.Global.StatePath()},
		trigger,
		watch.Options{
			Interval: interval,
			OnError:  func(e error) { logger.Error("reconcile failed", "error", e) },
		},
	)
	if err != nil {
		OutputError(jsonOutput, "Setting up the watcher", err)
		exitCode = CLIExitError
		return
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching stack documents", "dir", config.Global.Stack.Dir, "interval", interval.String())
	if err := w.Run(ctx); err != nil {
		OutputError(jsonOutput, "Watching", err)
		exitCode = CLIExitError
	}
}

func runLogs(cmd *cobra.Command, args []string) {
	r, err := reconcilerFactory.CreateReconciler(config.Global)
	if err != nil {
		OutputError(jsonOutput, "Setting up the reconciler", err)
		exitCode = CLIExitError
		return
	}

	// Ctrl-C ends a follow cleanly rather than as a failure.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.Logs(ctx, args[0], os.Stdout, followFlag); err != nil && !errors.Is(err, context.Canceled) {
		OutputError(jsonOutput, "Streaming logs", err)
		exitCode = CLIExitError
	}
}

// hasDestructive reports whether the plan removes or recreates
// anything.
func hasDestructive(p plan.Plan) bool {
	for _, a := range p.Actions {
		if a.Type == plan.ActionRemove || a.Type == plan.ActionRecreate {
			return true
		}
	}
	return false
}

// confirm asks a y/N question on the terminal. Non-interactive stdin
// counts as "no"; scripted callers use --yes.
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
