// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package plan compares desired and actual state and produces the
// ordered action plan that closes the gap.
//
// # Overview
//
// The diff is pure: desired state (resolved services with rendered
// hashes and topological ranks) in, actual state (the observed
// snapshot) in, drift report and plan out. Nothing here touches the
// runtime, so plan output can be shown, serialized, and audited before
// anything changes.
//
// Planning is minimal by construction: a service only appears in the
// plan when its classification demands it, and an in-sync stack always
// produces an empty plan.
package plan

import "encoding/json"

// DriftStatus classifies one service's desired-versus-actual gap.
type DriftStatus string

const (
	// Missing means the service is desired but no container exists.
	Missing DriftStatus = "missing"

	// Stopped means the container exists with the desired hash but is
	// not running.
	Stopped DriftStatus = "stopped"

	// HashDrift means the container was created from a different
	// configuration than the one currently rendered.
	HashDrift DriftStatus = "hash-drift"

	// Extra means a managed container exists for a service that is no
	// longer desired.
	Extra DriftStatus = "extra"

	// InSync means the container exists, runs, and carries the desired
	// hash.
	InSync DriftStatus = "in-sync"
)

// ActionType names a runtime mutation.
type ActionType string

const (
	// ActionCreate brings up a service that has no container.
	ActionCreate ActionType = "create"

	// ActionStart resumes a stopped container in place.
	ActionStart ActionType = "start"

	// ActionRecreate replaces a container whose configuration drifted.
	ActionRecreate ActionType = "recreate"

	// ActionRemove deletes a container that is no longer desired.
	ActionRemove ActionType = "remove"
)

// Action is one planned runtime mutation.
type Action struct {
	// Type is the mutation kind.
	Type ActionType `json:"type"`

	// Service is the target service name.
	Service string `json:"service"`

	// Rank is the service's topological depth; actions within a rank
	// have no ordering constraint between them.
	Rank int `json:"rank"`

	// OldHash is the hash the existing container carries (empty for
	// creates).
	OldHash string `json:"old_hash,omitempty"`

	// NewHash is the hash being applied (empty for removes).
	NewHash string `json:"new_hash,omitempty"`
}

// DriftEntry is one service's classification in the drift report.
type DriftEntry struct {
	// Service is the service name.
	Service string `json:"service"`

	// Status is the drift classification.
	Status DriftStatus `json:"status"`

	// DesiredHash is the currently rendered hash (empty for extras).
	DesiredHash string `json:"desired_hash,omitempty"`

	// ObservedHash is the hash the container carries (empty when
	// missing).
	ObservedHash string `json:"observed_hash,omitempty"`
}

// Report is the full drift report, one entry per service, sorted by
// name.
type Report struct {
	// Entries holds one classification per desired or extra service.
	Entries []DriftEntry `json:"entries"`
}

// Converged reports whether every entry is in sync. Extras count as
// drift whether or not pruning is enabled; they are still divergence
// from declared intent.
func (r Report) Converged() bool {
	for _, e := range r.Entries {
		if e.Status != InSync {
			return false
		}
	}
	return true
}

// Count returns how many entries carry the given status.
func (r Report) Count(status DriftStatus) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Plan is the ordered list of mutations that converges the stack.
//
// Actions are ordered for safe execution: creates, starts, and
// recreates in forward dependency order, then removes in reverse
// dependency order. An empty plan means the stack is converged (or
// drift is limited to unpruned extras).
type Plan struct {
	// Actions holds the mutations in execution order.
	Actions []Action `json:"actions"`
}

// Empty reports whether the plan contains no mutations.
func (p Plan) Empty() bool {
	return len(p.Actions) == 0
}

// Waves groups actions into execution waves.
//
// Forward actions (create/start/recreate) form one wave per rank in
// ascending order; removes follow, one wave per rank in descending
// order. Actions within a wave are independent and may run
// concurrently.
func (p Plan) Waves() [][]Action {
	var waves [][]Action
	var current []Action

	flush := func() {
		if len(current) > 0 {
			waves = append(waves, current)
			current = nil
		}
	}

	for _, a := range p.Actions {
		if len(current) > 0 {
			prev := current[len(current)-1]
			sameWave := prev.Rank == a.Rank &&
				(prev.Type == ActionRemove) == (a.Type == ActionRemove)
			if !sameWave {
				flush()
			}
		}
		current = append(current, a)
	}
	flush()
	return waves
}

// MarshalIndent returns the plan as indented JSON for audit output.
func (p Plan) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
