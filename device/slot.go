package device

import "fmt"

// HalfKind distinguishes a half-SLR slot's HBM port binding side.
type HalfKind int

const (
	// NotHalf marks a slot that does not straddle an HBM half boundary.
	NotHalf HalfKind = iota
	// LeftHalf marks the low-channel half of an HBM-capable SLR.
	LeftHalf
	// RightHalf marks the high-channel half of an HBM-capable SLR.
	RightHalf
)

// Slot is a rectangular placement region, identified by its down-left and
// up-right coordinates. Slots are immutable values: two slots are equal
// iff their coordinates are equal.
type Slot struct {
	X0, Y0 int // down-left corner
	X1, Y1 int // up-right corner

	Capacity Resources
	SLR      int
	Half     HalfKind
}

// Name returns the deterministic, coordinate-derived identifier used both
// as the RTL module/pblock name and as the map key throughout the engine.
func (s Slot) Name() string {
	return fmt.Sprintf("slot_%d_%d_%d_%d", s.X0, s.Y0, s.X1, s.Y1)
}

// Width and Height report the slot's extent in bisection units.
func (s Slot) Width() int  { return s.X1 - s.X0 }
func (s Slot) Height() int { return s.Y1 - s.Y0 }

// IsLeaf reports whether s cannot be further bisected (unit rectangle).
func (s Slot) IsLeaf() bool { return s.Width() <= 1 && s.Height() <= 1 }

// IsHalfSLRSlot reports whether s straddles an HBM half boundary.
func (s Slot) IsHalfSLRSlot() bool { return s.Half != NotHalf }

// IsLeftHalf / IsRightHalf report the HBM half side.
func (s Slot) IsLeftHalf() bool  { return s.Half == LeftHalf }
func (s Slot) IsRightHalf() bool { return s.Half == RightHalf }

// PblockTCL renders the opaque placement directive string the downstream
// toolchain consumes (§6); the exact template is an external-collaborator
// concern, so this is a minimal, deterministic rendering.
func (s Slot) PblockTCL() string {
	return fmt.Sprintf("create_pblock pblock_%s; resize_pblock pblock_%s -add {SLICE_X%dY%d:SLICE_X%dY%d}",
		s.Name(), s.Name(), s.X0, s.Y0, s.X1, s.Y1)
}

// contains reports whether o is fully inside s (used for pre-assignment
// region containment checks).
func (s Slot) contains(o Slot) bool {
	return s.X0 <= o.X0 && s.Y0 <= o.Y0 && s.X1 >= o.X1 && s.Y1 >= o.Y1
}

// Contains is the exported form of contains, for callers outside this
// package that need to test region containment (e.g. resolving a
// pre-assignment region against a bisection child).
func (s Slot) Contains(o Slot) bool { return s.contains(o) }

// adjacent reports whether s and o share a boundary edge (von Neumann
// neighborhood on the bisection grid at matching granularity).
func (s Slot) adjacent(o Slot) bool {
	if s == o {
		return false
	}
	xTouch := s.X1 == o.X0 || o.X1 == s.X0
	yOverlap := s.Y0 < o.Y1 && o.Y0 < s.Y1
	if xTouch && yOverlap {
		return true
	}
	yTouch := s.Y1 == o.Y0 || o.Y1 == s.Y0
	xOverlap := s.X0 < o.X1 && o.X0 < s.X1
	return yTouch && xOverlap
}
