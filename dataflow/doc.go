// Package dataflow holds the compiler's input graph: task instances,
// external-port stubs, async-mmap engines, and control logic (Vertex),
// connected by stream/AXI/async-mmap/buffer channels (Edge).
//
// The graph itself is stored as a *core.Graph arena of vertex/edge
// records addressed by stable string IDs (per DESIGN NOTES §9: "avoid
// owning references in both directions; derive adjacency lists on
// demand"); this package layers typed vertex/edge categories and area/
// bit-width attributes on top in side-tables keyed by ID, dispatching on
// a fixed tag set rather than using inheritance.
package dataflow
