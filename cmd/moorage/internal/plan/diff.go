// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package plan

import (
	"sort"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/graph"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/observe"
	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/render"
)

// Options tunes diff behavior.
type Options struct {
	// Prune plans removal of extra containers. Off by default: extras
	// are reported as drift but left alone unless the operator opts in.
	Prune bool

	// Dependencies reports a service's declared dependencies. Pruned
	// extras whose definitions are still in the catalog (the usual case
	// after disabling a pack) use these edges to remove dependents
	// before the services they depend on. May be nil; services without
	// known edges order by name.
	Dependencies func(service string) []string
}

// Desired bundles the resolved and rendered desired state.
type Desired struct {
	// Resolution is the expanded service set with ordering.
	Resolution graph.Resolution

	// Hashes maps each resolved service to its rendered hash.
	Hashes map[string]string
}

// NewDesired pairs a resolution with its rendered services.
func NewDesired(res graph.Resolution, rendered []render.RenderedService) Desired {
	hashes := make(map[string]string, len(rendered))
	for _, rs := range rendered {
		hashes[rs.Name] = rs.Hash
	}
	return Desired{Resolution: res, Hashes: hashes}
}

// Diff classifies every service and derives the ordered plan.
//
// # Description
//
// Classification per desired service:
//
//   - no container                  -> Missing   -> Create
//   - container, hash differs      -> HashDrift -> Recreate
//   - container, hash matches, not
//     running                      -> Stopped   -> Start
//   - container, hash matches,
//     running                      -> InSync    -> (no action)
//
// A stopped container whose hash also drifted recreates: starting it
// would resurrect stale configuration. Managed containers for services
// outside the desired set are Extra and plan a Remove only when
// opts.Prune is set; removes run after the forward phase in reverse
// dependency order (see Options.Dependencies).
//
// # Edge Cases
//
//   - A container with an empty hash label counts as HashDrift; its
//     provenance is unknown, so it cannot be trusted to match.
//   - Empty desired set with a populated runtime reports every
//     container as Extra.
//
// Diff is pure and deterministic: entries sort by name, actions by
// (phase, rank, name).
func Diff(desired Desired, actual observe.Snapshot, opts Options) (Report, Plan) {
	var report Report
	var forward, removes []Action

	for _, name := range desired.Resolution.Services {
		wantHash := desired.Hashes[name]
		rank := desired.Resolution.Ranks[name]
		rec, exists := actual[name]

		entry := DriftEntry{Service: name, DesiredHash: wantHash}
		switch {
		case !exists:
			entry.Status = Missing
			forward = append(forward, Action{
				Type: ActionCreate, Service: name, Rank: rank, NewHash: wantHash,
			})
		case rec.LastAppliedHash != wantHash:
			entry.Status = HashDrift
			entry.ObservedHash = rec.LastAppliedHash
			forward = append(forward, Action{
				Type: ActionRecreate, Service: name, Rank: rank,
				OldHash: rec.LastAppliedHash, NewHash: wantHash,
			})
		case !rec.Running:
			entry.Status = Stopped
			entry.ObservedHash = rec.LastAppliedHash
			forward = append(forward, Action{
				Type: ActionStart, Service: name, Rank: rank,
				OldHash: rec.LastAppliedHash, NewHash: wantHash,
			})
		default:
			entry.Status = InSync
			entry.ObservedHash = rec.LastAppliedHash
		}
		report.Entries = append(report.Entries, entry)
	}

	var extras []string
	for name, rec := range actual {
		if desired.Resolution.Contains(name) {
			continue
		}
		report.Entries = append(report.Entries, DriftEntry{
			Service:      name,
			Status:       Extra,
			ObservedHash: rec.LastAppliedHash,
		})
		if opts.Prune {
			extras = append(extras, name)
		}
	}

	extraRanks := rankExtras(extras, opts.Dependencies)
	for _, name := range extras {
		removes = append(removes, Action{
			Type: ActionRemove, Service: name,
			Rank:    extraRanks[name],
			OldHash: actual[name].LastAppliedHash,
		})
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		return report.Entries[i].Service < report.Entries[j].Service
	})

	// Forward phase ascends ranks; removal phase descends them.
	sort.Slice(forward, func(i, j int) bool {
		if forward[i].Rank != forward[j].Rank {
			return forward[i].Rank < forward[j].Rank
		}
		return forward[i].Service < forward[j].Service
	})
	sort.Slice(removes, func(i, j int) bool {
		if removes[i].Rank != removes[j].Rank {
			return removes[i].Rank > removes[j].Rank
		}
		return removes[i].Service < removes[j].Service
	})

	return report, Plan{Actions: append(forward, removes...)}
}

// rankExtras ranks pruned extras by their dependency edges so the
// descending removal sort deletes dependents before the services they
// depend on. Edges leaving the extra set are ignored: those services
// stay. Unknown services carry no edges and keep rank 0.
func rankExtras(extras []string, deps func(string) []string) map[string]int {
	if deps == nil || len(extras) < 2 {
		return nil
	}
	sort.Strings(extras)
	_, ranks, err := graph.TopoSort(extras, deps)
	if err != nil {
		// The catalog is validated acyclic, so this only triggers on an
		// inconsistent deps func; degrade to name ordering.
		return nil
	}
	return ranks
}
