package latency

import (
	"errors"
	"fmt"
)

// ErrCyclicDataflow is returned when the stream-edge subgraph contains a
// cycle — the front-end is expected never to produce one.
var ErrCyclicDataflow = errors.New("latency: stream edges form a cycle")

// CycleError names one detected stream-edge cycle.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("latency: cyclic stream path %v", e.Cycle)
}

func (e *CycleError) Unwrap() error { return ErrCyclicDataflow }
