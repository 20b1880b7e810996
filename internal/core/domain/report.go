package domain

import (
	"sort"
	"time"
)

// SourceReport summarises a completed sourcing run.
type SourceReport struct {
	// Families lists the families that were sourced.
	Families []ContentFamily

	// Nodes counts created nodes by node type.
	Nodes map[string]int

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is the wall time of the run.
	Duration time.Duration
}

// Total returns the number of nodes created across all types.
func (r *SourceReport) Total() int {
	total := 0
	for _, n := range r.Nodes {
		total += n
	}
	return total
}

// Count returns the created-node count for a kind.
func (r *SourceReport) Count(kind NodeKind) int {
	return r.Nodes[kind.TypeName()]
}

// Types returns the node types present in the report, sorted.
func (r *SourceReport) Types() []string {
	out := make([]string, 0, len(r.Nodes))
	for t := range r.Nodes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
