// Package route implements the global router of §4.3: given a vertex→slot
// assignment from floorplan and the slot grid, it computes for every
// dataflow edge a simple slot-by-slot path from the producer's slot to
// the consumer's slot, subject to a per-slot wire-capacity budget.
//
// Routing is grounded on two distinct teacher/pack algorithms rather
// than being driven through the general solver.BranchAndBound (whose
// tsp.bbEngine ancestry fits small combinatorial search, not a
// capacitated-shortest-path problem with dozens of slots and hundreds of
// stream edges):
//
//   - flow.Dinic pre-checks, per edge, whether a unit of flow can still
//     reach the consumer slot given the current residual wire capacity —
//     exactly the router's feasibility question, phrased as a max-flow
//     query instead of re-deriving reachability by hand.
//   - bfs.BFS then reconstructs the actual path once feasibility holds;
//     a breadth-first tree is simple by construction, satisfying §4.3's
//     secondary no-cycle constraint for free.
//
// Edges claim capacity in dataflow.Graph.Edges()'s lexicographic name
// order, so contention resolves the same way on every run; edges are not
// reordered by the distance between their producer and consumer slots.
package route
