package dataflow

import "errors"

// ErrInvalidConfig is the general malformed-input sentinel from §7:
// dangling edge endpoint, duplicate vertex name, or an invalid category.
var ErrInvalidConfig = errors.New("dataflow: invalid config")

// ErrDuplicatePort indicates a task vertex has more than one producer on
// the same named port (§3 Graph invariant).
var ErrDuplicatePort = errors.New("dataflow: task vertex has duplicate producer port")

// ErrSelfLoop indicates an edge whose producer equals its consumer.
var ErrSelfLoop = errors.New("dataflow: self-loop is not allowed")
