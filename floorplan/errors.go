package floorplan

import "errors"

// ErrInfeasibleFloorplan is returned when the bisection MILP is
// infeasible even at the configured maximum utilization/crossing ratios
// (§7 InfeasibleFloorplan). The caller maps this to
// OutputConfig.FloorplanStatus == "FAILED" rather than aborting.
var ErrInfeasibleFloorplan = errors.New("floorplan: infeasible at maximum ratios")

// ErrUnknownPreassignRegion indicates floorplan_pre_assignments names a
// region slot that does not exist at any bisection depth.
var ErrUnknownPreassignRegion = errors.New("floorplan: pre-assignment region not found")
