package dataflow

import "github.com/sfu-hiaccel/fprbridge/device"

// VertexCategory tags the fixed set of vertex kinds (§3 Vertex).
type VertexCategory int

const (
	// TaskVertex is a task instance carrying an area vector.
	TaskVertex VertexCategory = iota
	// PortVertex is an external memory controller stub (DDR/HBM/PLRAM).
	PortVertex
	// AsyncMmapVertex is a generated memory-access engine.
	AsyncMmapVertex
	// CtrlVertex is the top-level AXI-Lite control logic.
	CtrlVertex
)

func (c VertexCategory) String() string {
	switch c {
	case TaskVertex:
		return "TASK_VERTEX"
	case PortVertex:
		return "PORT_VERTEX"
	case AsyncMmapVertex:
		return "ASYNC_MMAP_VERTEX"
	case CtrlVertex:
		return "CTRL_VERTEX"
	default:
		return "UNKNOWN_VERTEX"
	}
}

// PortCategory is only meaningful for PortVertex.
type PortCategory int

const (
	NoPort PortCategory = iota
	DDR
	HBM
	PLRAM
)

// Vertex is one node of the dataflow graph. Name is globally unique and
// is also used as the underlying core.Graph vertex ID.
type Vertex struct {
	Name     string
	Category VertexCategory
	Module   string
	Area     device.Resources

	// Port-vertex-only fields.
	PortCat    PortCategory
	PortID     int
	TopArgName string
}

// EdgeCategory tags the fixed set of channel kinds (§3 Edge).
type EdgeCategory int

const (
	FIFO EdgeCategory = iota
	AXI
	ASYNC_MMAP
	BUFFER
)

func (c EdgeCategory) String() string {
	switch c {
	case FIFO:
		return "FIFO"
	case AXI:
		return "AXI"
	case ASYNC_MMAP:
		return "ASYNC_MMAP"
	case BUFFER:
		return "BUFFER"
	default:
		return "UNKNOWN_EDGE"
	}
}

// IsStream reports whether edges of this category are subject to latency
// balancing (§4.4: only FIFO/stream edges are).
func (c EdgeCategory) IsStream() bool { return c == FIFO }

// InfiniteWidth is the sentinel bit-width async-mmap edges carry so the
// floorplanner's grouping pre-pass glues their endpoints into one slot.
const InfiniteWidth = 1 << 30

// Edge is one directed channel of the dataflow graph.
type Edge struct {
	Name         string
	Producer     string
	Consumer     string
	Width        int
	NominalDepth int
	Category     EdgeCategory
}
