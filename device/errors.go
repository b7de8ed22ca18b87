package device

import "errors"

// ErrUnsupportedDevice indicates a part_num with no device model entry.
// Fatal per spec §7: the caller must abort the compile.
var ErrUnsupportedDevice = errors.New("device: unsupported part number")

// ErrNotBisectable indicates an attempt to split a leaf slot further.
var ErrNotBisectable = errors.New("device: slot is already a leaf")

// ErrInvalidGranularity indicates LeavesAt was asked for a negative depth.
var ErrInvalidGranularity = errors.New("device: granularity does not evenly bisect the root slot")
