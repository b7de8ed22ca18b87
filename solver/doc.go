// Package solver abstracts the MILP-solver boundary described in
// DESIGN NOTES §9: declare an integer variable with bounds, add a
// linear constraint (≤, =, ≥), set the objective, solve with a time
// limit, query a variable's value, and report a status of optimal,
// infeasible, or timeout.
//
// The one concrete implementation, BranchAndBound, restructures the
// teacher's tsp.bbEngine — a dense-buffer, deterministically-branching,
// sparsely-deadline-checked depth-first search — away from Hamiltonian
// tours and towards arbitrary bounded-integer decision variables under
// linear constraints, which lets partial assignments be pruned by a
// running partial-sum bound (computed per-term by coefficient sign, see
// bbsolver.go's remainingBounds) without needing a full LP relaxation.
//
// The objective, unlike constraints, must use non-negative coefficients:
// the search prunes a subtree once its partial objective already meets
// or exceeds the incumbent, which is only sound if every unassigned
// variable can only add to, never subtract from, that partial value.
package solver
