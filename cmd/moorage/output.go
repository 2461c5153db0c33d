// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/apply"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/plan"
	"github.com/MoorageAI/MoorageLocal/pkg/ux"
)

// Exit codes for CLI commands.
const (
	CLIExitConverged = 0 // Stack matches declared intent
	CLIExitDrift     = 1 // Drift found, or apply left work undone
	CLIExitError     = 2 // Fatal: bad registry, unresolvable graph, runtime unreachable
)

// OutputJSON writes structured data as indented JSON to stdout.
func OutputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// OutputError writes an error in the appropriate format.
func OutputError(jsonMode bool, msg string, err error) {
	if jsonMode {
		_ = OutputJSON(map[string]string{"error": fmt.Sprintf("%s: %v", msg, err)})
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", ux.IconError.Render(), msg, err)
}

// statusIcon maps a drift status to its terminal glyph.
func statusIcon(s plan.DriftStatus) string {
	switch s {
	case plan.InSync:
		return ux.IconSuccess.Render()
	case plan.Missing, plan.HashDrift, plan.Stopped:
		return ux.IconWarning.Render()
	case plan.Extra:
		return ux.IconPending.Render()
	default:
		return string(ux.IconBullet)
	}
}

// printReport renders the drift report as a human-readable table.
func printReport(report plan.Report) {
	fmt.Println(ux.Render(ux.Styles.Title, "Stack status"))
	if len(report.Entries) == 0 {
		fmt.Println(ux.Render(ux.Styles.Muted, "  nothing enabled, nothing running"))
		return
	}

	for _, e := range report.Entries {
		line := fmt.Sprintf("  %s %-24s %s", statusIcon(e.Status), e.Service, e.Status)
		if e.Status == plan.HashDrift {
			line += fmt.Sprintf("  %s -> %s", orNone(e.ObservedHash), e.DesiredHash)
		}
		fmt.Println(line)
	}

	if report.Converged() {
		fmt.Println(ux.Render(ux.Styles.Success, "In sync."))
		return
	}
	fmt.Println(ux.Render(ux.Styles.Warning, fmt.Sprintf(
		"Drift: %d missing, %d stopped, %d changed, %d extra",
		report.Count(plan.Missing), report.Count(plan.Stopped),
		report.Count(plan.HashDrift), report.Count(plan.Extra))))
}

// printPlan renders the ordered action list.
func printPlan(p plan.Plan) {
	if p.Empty() {
		fmt.Println(ux.Render(ux.Styles.Success, "No actions to take."))
		return
	}
	fmt.Println(ux.Render(ux.Styles.Title, fmt.Sprintf("Plan: %d actions", len(p.Actions))))
	for _, a := range p.Actions {
		detail := ""
		switch a.Type {
		case plan.ActionRecreate:
			detail = fmt.Sprintf("  %s -> %s", orNone(a.OldHash), a.NewHash)
		case plan.ActionCreate:
			detail = "  " + a.NewHash
		}
		fmt.Printf("  %s %-9s %s%s\n", string(ux.IconArrow), a.Type, a.Service, detail)
	}
}

// printApplyResult renders the outcome of an apply run.
func printApplyResult(res apply.Result) {
	fmt.Println(ux.Render(ux.Styles.Title, "Apply "+res.RunID))
	if len(res.Succeeded) > 0 {
		fmt.Printf("  %s applied: %s\n", ux.IconSuccess.Render(), strings.Join(res.Succeeded, ", "))
	}
	for _, f := range res.Failures {
		fmt.Printf("  %s failed: %s %s: %v\n", ux.IconError.Render(), f.Action, f.Service, f.Err)
	}
	if len(res.Skipped) > 0 {
		fmt.Printf("  %s skipped (failed prerequisite): %s\n",
			ux.IconPending.Render(), strings.Join(res.Skipped, ", "))
	}
	if res.FullyApplied() {
		fmt.Println(ux.Render(ux.Styles.Success, "Converged."))
	} else {
		fmt.Println(ux.Render(ux.Styles.Warning, "Partially converged; re-run apply after fixing failures."))
	}
}

func orNone(hash string) string {
	if hash == "" {
		return "(none)"
	}
	return hash
}
