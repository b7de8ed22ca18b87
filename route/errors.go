package route

import (
	"errors"
	"fmt"
)

// ErrUnroutableDesign is returned when no slot-to-slot path respecting
// residual wire capacity exists for some dataflow edge. Wrapped with the
// offending edge and its producer and consumer slots.
var ErrUnroutableDesign = errors.New("route: design is not routable under current wire-capacity limits")

// CapacityError reports the edge that could not be routed and the
// producer and consumer slots it had to connect.
type CapacityError struct {
	Edge     string
	FromSlot string
	ToSlot   string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("route: edge %q has no capacity-respecting path %s -> %s", e.Edge, e.FromSlot, e.ToSlot)
}

func (e *CapacityError) Unwrap() error { return ErrUnroutableDesign }
