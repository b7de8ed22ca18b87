package floorplan

import (
	"sort"

	"github.com/sfu-hiaccel/fprbridge/device"
)

// hbmPlacement pairs an HBM port vertex with the slot it landed on.
type hbmPlacement struct {
	vertex string
	slot   device.Slot
}

// adjustHBMBinding renumbers HBM port channels after floorplanning, per
// the original tool's left_curr/right_curr walk: ports whose assigned
// slot falls on the chip's left HBM half get consecutive channels
// starting at 0, ports on the right half get consecutive channels
// starting at ChipSpec.HBMChanLow, in increasing-X deterministic order
// within each half. A port landing on a slot not marked as either half
// (HasHBM false, or placed outside the HBM SLR row) is left unbound and
// omitted from the result.
func adjustHBMBinding(sm *device.SlotManager, assignment Assignment, hbmPortVertices []string) map[string]int {
	var left, right []hbmPlacement
	for _, vName := range hbmPortVertices {
		slot, ok := assignment[vName]
		if !ok {
			continue
		}
		switch {
		case slot.IsLeftHalf():
			left = append(left, hbmPlacement{vName, slot})
		case slot.IsRightHalf():
			right = append(right, hbmPlacement{vName, slot})
		}
	}

	order := func(ps []hbmPlacement) {
		sort.Slice(ps, func(i, j int) bool {
			if ps[i].slot.X0 != ps[j].slot.X0 {
				return ps[i].slot.X0 < ps[j].slot.X0
			}
			if ps[i].slot.Y0 != ps[j].slot.Y0 {
				return ps[i].slot.Y0 < ps[j].slot.Y0
			}
			return ps[i].vertex < ps[j].vertex
		})
	}
	order(left)
	order(right)

	chip := sm.Chip()
	binding := make(map[string]int, len(left)+len(right))
	leftCur, rightCur := 0, chip.HBMChanLow
	for _, p := range left {
		binding[p.vertex] = leftCur
		leftCur++
	}
	for _, p := range right {
		binding[p.vertex] = rightCur
		rightCur++
	}
	return binding
}
