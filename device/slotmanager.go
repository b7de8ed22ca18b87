package device

import (
	"fmt"
	"sort"

	"github.com/sfu-hiaccel/fprbridge/core"
)

// SlotManager owns the root slot of one chip and caches the recursive
// bisection tree. It does not mutate slots (they are values); it only
// enumerates and relates them.
//
// Bisection alternates axis: an X-bisection splits a slot wider than tall
// (or square) into left/right halves; a Y-bisection splits a taller slot
// into low/high halves. This mirrors how a real floorplan bisects a chip
// into balanced halves regardless of its aspect ratio.
type SlotManager struct {
	chip ChipSpec
	root Slot

	// leavesByDepth[d] caches LeavesAt(d) in deterministic row-major order.
	leavesByDepth map[int][]Slot
}

// NewSlotManager builds the root slot for chip and its SlotManager.
func NewSlotManager(chip ChipSpec) *SlotManager {
	root := Slot{
		X0: 0, Y0: 0, X1: chip.Width, Y1: chip.Height,
		Capacity: chip.UnitCap.ScaleBy(float64(chip.Width * chip.Height)),
		SLR:      -1, // spans potentially multiple SLRs
	}
	return &SlotManager{chip: chip, root: root, leavesByDepth: map[int][]Slot{}}
}

// Root returns the chip's outer slot.
func (sm *SlotManager) Root() Slot { return sm.root }

// Chip returns the ChipSpec this manager was built from.
func (sm *SlotManager) Chip() ChipSpec { return sm.chip }

// Split bisects parent into its two children, in X or Y depending on
// which axis is currently longer (ties broken by X). Returns
// ErrNotBisectable if parent is already a leaf.
func (sm *SlotManager) Split(parent Slot) (low, high Slot, err error) {
	if parent.IsLeaf() {
		return Slot{}, Slot{}, ErrNotBisectable
	}
	if parent.Width() >= parent.Height() {
		mid := parent.X0 + (parent.Width()+1)/2
		low = sm.mkSlot(parent.X0, parent.Y0, mid, parent.Y1)
		high = sm.mkSlot(mid, parent.Y0, parent.X1, parent.Y1)
	} else {
		mid := parent.Y0 + (parent.Height()+1)/2
		low = sm.mkSlot(parent.X0, parent.Y0, parent.X1, mid)
		high = sm.mkSlot(parent.X0, mid, parent.X1, parent.Y1)
	}
	return low, high, nil
}

// mkSlot derives a child slot's capacity (proportional to its area), SLR
// index, and HBM-half markers from the chip spec.
func (sm *SlotManager) mkSlot(x0, y0, x1, y1 int) Slot {
	s := Slot{X0: x0, Y0: y0, X1: x1, Y1: y1}
	area := (x1 - x0) * (y1 - y0)
	s.Capacity = sm.chip.UnitCap.ScaleBy(float64(area))

	lowSLR := sm.chip.SLRIndexOf(y0)
	hiSLR := sm.chip.SLRIndexOf(y1 - 1)
	if lowSLR == hiSLR {
		s.SLR = lowSLR
	} else {
		s.SLR = -1 // straddles — only valid transiently above leaf granularity
	}

	if sm.chip.HasHBM && s.SLR == sm.chip.HBMSLRRow {
		mid := sm.chip.Width / 2
		switch {
		case x1 <= mid:
			s.Half = LeftHalf
		case x0 >= mid:
			s.Half = RightHalf
		}
	}
	return s
}

// StraddlesSLR reports whether a slot spans more than one SLR band —
// such a slot must never be a leaf (invariant from §4.1).
func (sm *SlotManager) StraddlesSLR(s Slot) bool {
	return sm.chip.SLRIndexOf(s.Y0) != sm.chip.SLRIndexOf(s.Y1-1)
}

// LeavesAt returns every leaf at the given bisection depth (0 = root),
// in deterministic row-major order (by Y0 then X0). A negative depth
// returns ErrInvalidGranularity; a slot that cannot be split further is
// carried unchanged into deeper levels, so depths past the last split
// return the unit leaves.
func (sm *SlotManager) LeavesAt(depth int) ([]Slot, error) {
	if cached, ok := sm.leavesByDepth[depth]; ok {
		return cached, nil
	}
	if depth < 0 {
		return nil, ErrInvalidGranularity
	}
	frontier := []Slot{sm.root}
	for d := 0; d < depth; d++ {
		next := make([]Slot, 0, len(frontier)*2)
		for _, s := range frontier {
			if s.IsLeaf() {
				next = append(next, s)
				continue
			}
			low, high, err := sm.Split(s)
			if err != nil {
				next = append(next, s)
				continue
			}
			next = append(next, low, high)
		}
		frontier = next
	}
	sort.Slice(frontier, func(i, j int) bool {
		if frontier[i].Y0 != frontier[j].Y0 {
			return frontier[i].Y0 < frontier[j].Y0
		}
		return frontier[i].X0 < frontier[j].X0
	})
	sm.leavesByDepth[depth] = frontier
	return frontier, nil
}

// MaxLeafDepth returns the bisection depth at which every slot is a
// single bisection unit (a true leaf per IsLeaf).
func (sm *SlotManager) MaxLeafDepth() int {
	d := 0
	w, h := sm.root.Width(), sm.root.Height()
	for w > 1 || h > 1 {
		if w >= h {
			w = (w + 1) / 2
		} else {
			h = (h + 1) / 2
		}
		d++
	}
	return d
}

// ParentOf returns the slot one bisection level up from s, found by
// searching the cached tree; it is used by callers walking the tree
// bottom-up (e.g. to compute a coarser utilization rollup).
func (sm *SlotManager) ParentOf(s Slot, depth int) (Slot, error) {
	if depth <= 0 {
		return Slot{}, fmt.Errorf("device: slot at depth %d has no parent", depth)
	}
	parents, err := sm.LeavesAt(depth - 1)
	if err != nil {
		return Slot{}, err
	}
	for _, p := range parents {
		if p.contains(s) {
			return p, nil
		}
	}
	return Slot{}, fmt.Errorf("device: no parent found for %s at depth %d", s.Name(), depth)
}

// ChildrenOf returns s's two bisection children (same as Split, exposed
// as a named operation per §4.1's "children_of").
func (sm *SlotManager) ChildrenOf(s Slot) (low, high Slot, err error) {
	return sm.Split(s)
}

// AggregateCapacity returns the elementwise sum of capacities of every
// leaf in leaves — used when a caller wants the capacity of a non-leaf
// as the sum of its descendant leaves (§4.1 "Capacity for a non-leaf").
func AggregateCapacity(leaves []Slot) Resources {
	var total Resources
	for _, l := range leaves {
		total = total.Add(l.Capacity)
	}
	return total
}

// AdjacencyGraph builds the grid-adjacency graph G_R over leaves: one
// vertex per slot (named by Slot.Name), one undirected unit-weight edge
// per von-Neumann-adjacent pair. This is the same cell->graph conversion
// gridgraph.GridGraph.ToCoreGraph performs over a 2-D integer grid,
// generalized from uniform grid cells to bisection-tree leaf slots of
// possibly differing sizes compared pairwise by boundary adjacency.
func AdjacencyGraph(leaves []Slot) *core.Graph {
	g := core.NewGraph(core.WithWeighted())
	for _, s := range leaves {
		_ = g.AddVertex(s.Name())
	}
	for i := range leaves {
		for j := i + 1; j < len(leaves); j++ {
			if leaves[i].adjacent(leaves[j]) {
				_, _ = g.AddEdge(leaves[i].Name(), leaves[j].Name(), 1)
				_, _ = g.AddEdge(leaves[j].Name(), leaves[i].Name(), 1)
			}
		}
	}
	return g
}
