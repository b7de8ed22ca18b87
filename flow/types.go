package flow

import (
	"context"
	"fmt"
)

// ErrSourceNotFound is returned when the specified source vertex is missing.
var ErrSourceNotFound = fmt.Errorf("flow: %w", errSourceNotFound)
var errSourceNotFound = fmt.Errorf("source vertex not found")

// ErrSinkNotFound is returned when the specified sink vertex is missing.
var ErrSinkNotFound = fmt.Errorf("flow: %w", errSinkNotFound)
var errSinkNotFound = fmt.Errorf("sink vertex not found")

// EdgeError is returned when an edge has a negative capacity.
type EdgeError struct {
	From, To string
	Cap      float64
}

func (e EdgeError) Error() string {
	return fmt.Sprintf("flow: negative capacity on edge %q→%q: %g", e.From, e.To, e.Cap)
}

// FlowOptions configures Dinic.
//   - Ctx: governs cancellation; Dinic checks it between augmentations.
//   - Epsilon: treat capacities ≤ Epsilon as zero (default 1e-9).
//   - Verbose: if true, logs each augmentation when possible.
//   - LevelRebuildInterval: for Dinic, rebuild level graph every N augmentations.
type FlowOptions struct {
	Ctx                  context.Context
	Epsilon              float64
	Verbose              bool
	LevelRebuildInterval int
}

// DefaultOptions returns production-safe defaults: a background context,
// an epsilon tight enough to only absorb floating-point noise, and no
// forced level-graph rebuilds.
func DefaultOptions() FlowOptions {
	return FlowOptions{Ctx: context.Background(), Epsilon: 1e-9}
}

// normalize fills in a nil Ctx and a zero Epsilon with their defaults;
// Dinic calls this once up front so the rest of the algorithm can assume
// both fields are always populated.
func (o *FlowOptions) normalize() {
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.Epsilon == 0 {
		o.Epsilon = 1e-9
	}
}
