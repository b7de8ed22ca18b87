package solver

import (
	"context"
	"time"
)

// BranchAndBound is the sole concrete solver.Model engine: a
// deterministic depth-first branch-and-bound search restructured from
// tsp.bbEngine (dense per-step state, sparse deadline checks, stable
// branch ordering) generalized from "next city in the tour" branching
// to "next value for the next declared 0/1 (or bounded-integer)
// variable" branching.
type BranchAndBound struct {
	model *Model

	best     map[string]int64
	bestObj  float64
	haveBest bool

	steps    int
	deadline time.Time
	useDL    bool
}

// NewBranchAndBound returns a solver bound to model. The same model may
// only be solved by one BranchAndBound at a time.
func NewBranchAndBound(m *Model) *BranchAndBound {
	return &BranchAndBound{model: m}
}

// Solve runs the search, honoring ctx cancellation and timeLimit (a
// timeLimit <= 0 means no wall-clock limit beyond ctx).
func (b *BranchAndBound) Solve(ctx context.Context, timeLimit time.Duration) (Status, error) {
	b.haveBest = false
	b.steps = 0
	if timeLimit > 0 {
		b.deadline = time.Now().Add(timeLimit)
		b.useDL = true
	} else {
		b.useDL = false
	}

	assigned := make(map[string]int64, len(b.model.order))
	partial := make([]float64, len(b.model.constrs))

	timedOut := b.search(ctx, 0, assigned, partial, 0)

	if timedOut {
		return StatusTimeout, nil
	}
	if !b.haveBest {
		return StatusInfeasible, nil
	}
	b.model.values = b.best
	return StatusOptimal, nil
}

// deadlineHit performs a rare wall-clock check (every 2048 node events),
// mirroring tsp.bbEngine.deadlineCheck's sparse-polling pattern.
func (b *BranchAndBound) deadlineHit(ctx context.Context) bool {
	b.steps++
	if b.steps&2047 != 0 {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
	}
	return b.useDL && time.Now().After(b.deadline)
}

// search assigns model.order[depth] to each feasible value in ascending
// order, pruning via the running partial-sum bound on every constraint
// and the current incumbent on the objective. Returns true if the
// deadline was hit before the search completed.
func (b *BranchAndBound) search(ctx context.Context, depth int, assigned map[string]int64, partial []float64, objSoFar float64) bool {
	if b.deadlineHit(ctx) {
		return true
	}

	if depth == len(b.model.order) {
		if !b.haveBest || objSoFar < b.bestObj {
			b.bestObj = objSoFar
			b.best = make(map[string]int64, len(assigned))
			for k, v := range assigned {
				b.best[k] = v
			}
			b.haveBest = true
		}
		return false
	}

	// Bound: if even the best-case completion of the objective cannot
	// beat the incumbent, prune this whole subtree.
	if b.haveBest && objSoFar >= b.bestObj {
		return false
	}

	name := b.model.order[depth]
	v := b.model.vars[name]

	for val := v.lo; val <= v.hi; val++ {
		assigned[name] = val
		nextPartial := make([]float64, len(partial))
		copy(nextPartial, partial)

		feasible := true
		for i, c := range b.model.constrs {
			delta := 0.0
			for _, t := range c.Terms {
				if t.Var == name {
					delta += t.Coef * float64(val)
				}
			}
			nextPartial[i] += delta
			if !b.constraintStillViable(i, c, nextPartial[i], depth+1) {
				feasible = false
				break
			}
		}

		objDelta := 0.0
		for _, t := range b.model.objective.Terms {
			if t.Var == name {
				objDelta += t.Coef * float64(val)
			}
		}

		if feasible {
			if timedOut := b.search(ctx, depth+1, assigned, nextPartial, objSoFar+objDelta); timedOut {
				delete(assigned, name)
				return true
			}
		}
		delete(assigned, name)
	}
	return false
}

// constraintStillViable reports whether constraint i can still be
// satisfied given its running partial sum so far (over the first
// assignedDepth variables) and the best- and worst-case remaining
// contribution from variables not yet assigned.
//
// Most constraints this module builds carry only non-negative
// coefficients, for which remainingMin is always zero and this reduces
// to a plain running-sum check. Linearized indicator constraints (e.g.
// floorplan's crossing-width bound) introduce negative coefficients, so
// both bounds are computed per-term by sign rather than assuming hi is
// always the maximizing bound.
func (b *BranchAndBound) constraintStillViable(i int, c Constraint, partialSum float64, assignedDepth int) bool {
	remainingMin, remainingMax := b.remainingBounds(i, c, assignedDepth)
	const eps = 1e-9
	switch c.Sense {
	case LE:
		return partialSum+remainingMin <= c.RHS+eps
	case GE:
		return partialSum+remainingMax >= c.RHS-eps
	case EQ:
		return partialSum+remainingMin <= c.RHS+eps && partialSum+remainingMax >= c.RHS-eps
	default:
		return true
	}
}

// remainingBounds returns the minimum and maximum additional contribution
// constraint i can still receive from variables declared at or after
// assignedDepth, accounting for the sign of each term's coefficient.
func (b *BranchAndBound) remainingBounds(i int, c Constraint, assignedDepth int) (min, max float64) {
	assignedSet := make(map[string]bool, assignedDepth)
	for d := 0; d < assignedDepth; d++ {
		assignedSet[b.model.order[d]] = true
	}
	for _, t := range c.Terms {
		if assignedSet[t.Var] {
			continue
		}
		v := b.model.vars[t.Var]
		lo, hi := t.Coef*float64(v.lo), t.Coef*float64(v.hi)
		if lo > hi {
			lo, hi = hi, lo
		}
		min += lo
		max += hi
	}
	return min, max
}
