package dataflow

import (
	"fmt"
	"sort"

	"github.com/sfu-hiaccel/fprbridge/core"
	"github.com/sfu-hiaccel/fprbridge/dfs"
)

// Graph is the dataflow multigraph of §3. It embeds a *core.Graph for
// storage, adjacency, and cloning, and keeps the typed vertex/edge
// records in side-tables keyed by name — this keeps the domain model
// statically typed while reusing core's thread-safe arena rather than
// re-deriving one.
type Graph struct {
	g *core.Graph

	vertices map[string]*Vertex
	edges    map[string]*Edge // keyed by edge Name, not core edge ID
	coreID   map[string]string // edge Name -> core.Graph edge ID
}

// NewGraph returns an empty, directed, weighted, multi-edge dataflow
// graph (multi-edge because two task instances may be connected by more
// than one stream).
func NewGraph() *Graph {
	return &Graph{
		g:        core.NewGraph(core.WithDirected(true), core.WithWeighted(), core.WithMultiEdges()),
		vertices: map[string]*Vertex{},
		edges:    map[string]*Edge{},
		coreID:   map[string]string{},
	}
}

// AddVertex registers v. Returns ErrInvalidConfig if v.Name is empty, a
// vertex with that name already exists, or the area vector is negative.
func (gr *Graph) AddVertex(v Vertex) error {
	if v.Name == "" {
		return fmt.Errorf("%w: empty vertex name", ErrInvalidConfig)
	}
	if _, exists := gr.vertices[v.Name]; exists {
		return fmt.Errorf("%w: duplicate vertex %q", ErrInvalidConfig, v.Name)
	}
	if !v.Area.NonNegative() {
		return fmt.Errorf("%w: vertex %q has a negative area dimension", ErrInvalidConfig, v.Name)
	}
	if err := gr.g.AddVertex(v.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	vCopy := v
	gr.vertices[v.Name] = &vCopy
	return nil
}

// AddEdge registers e. Returns ErrInvalidConfig if either endpoint does
// not exist or e.Name is a duplicate, ErrSelfLoop for a self-loop.
func (gr *Graph) AddEdge(e Edge) error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty edge name", ErrInvalidConfig)
	}
	if _, exists := gr.edges[e.Name]; exists {
		return fmt.Errorf("%w: duplicate edge %q", ErrInvalidConfig, e.Name)
	}
	if _, ok := gr.vertices[e.Producer]; !ok {
		return fmt.Errorf("%w: edge %q producer %q does not exist", ErrInvalidConfig, e.Name, e.Producer)
	}
	if _, ok := gr.vertices[e.Consumer]; !ok {
		return fmt.Errorf("%w: edge %q consumer %q does not exist", ErrInvalidConfig, e.Name, e.Consumer)
	}
	if e.Producer == e.Consumer {
		return fmt.Errorf("%w: edge %q", ErrSelfLoop, e.Name)
	}
	if gr.vertices[e.Consumer].Category == TaskVertex {
		for _, existing := range gr.edges {
			if existing.Consumer == e.Consumer && existing.Producer == e.Producer {
				return fmt.Errorf("%w: %q already produces into %q", ErrDuplicatePort, e.Producer, e.Consumer)
			}
		}
	}
	weight := int64(e.Width)
	if e.Category == ASYNC_MMAP {
		weight = InfiniteWidth
	}
	cid, err := gr.g.AddEdge(e.Producer, e.Consumer, weight)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	eCopy := e
	gr.edges[e.Name] = &eCopy
	gr.coreID[e.Name] = cid
	return nil
}

// Vertex looks up a vertex by name.
func (gr *Graph) Vertex(name string) (*Vertex, bool) {
	v, ok := gr.vertices[name]
	return v, ok
}

// Edge looks up an edge by name.
func (gr *Graph) Edge(name string) (*Edge, bool) {
	e, ok := gr.edges[name]
	return e, ok
}

// Vertices returns every vertex name in deterministic (lexicographic)
// order, matching core.Graph.Vertices' sorted contract.
func (gr *Graph) Vertices() []string {
	return gr.g.Vertices()
}

// Edges returns every edge name in deterministic order.
func (gr *Graph) Edges() []string {
	names := make([]string, 0, len(gr.edges))
	for name := range gr.edges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutEdges returns the names of edges produced by vertex name, in
// deterministic order.
func (gr *Graph) OutEdges(name string) []string {
	var out []string
	for _, eName := range gr.Edges() {
		if gr.edges[eName].Producer == name {
			out = append(out, eName)
		}
	}
	return out
}

// InEdges returns the names of edges consumed by vertex name, in
// deterministic order.
func (gr *Graph) InEdges(name string) []string {
	var in []string
	for _, eName := range gr.Edges() {
		if gr.edges[eName].Consumer == name {
			in = append(in, eName)
		}
	}
	return in
}

// StreamSubgraph returns a *core.Graph containing only FIFO (stream)
// edges, collapsing async-mmap/AXI co-location (both endpoints are kept
// as vertices, but only stream edges are added) — the shape
// latency.Balance and CyclicDataflow detection both operate on.
func (gr *Graph) StreamSubgraph() *core.Graph {
	sg := core.NewGraph(core.WithDirected(true), core.WithWeighted(), core.WithMultiEdges())
	for _, name := range gr.Vertices() {
		_ = sg.AddVertex(name)
	}
	for _, eName := range gr.Edges() {
		e := gr.edges[eName]
		if e.Category.IsStream() {
			_, _ = sg.AddEdge(e.Producer, e.Consumer, int64(e.Width))
		}
	}
	return sg
}

// Validate checks the Graph invariant of §3: after collapsing async-mmap
// sinks the graph must be acyclic. The front-end is expected to
// guarantee this; Validate lets the core verify it per CyclicDataflow
// (§7) by delegating to dfs.DetectCycles on the full producer-consumer
// graph (async-mmap edges included — they still must not form a true
// cycle of task execution order).
func (gr *Graph) Validate() error {
	hasCycle, cycles, err := dfs.DetectCycles(gr.g)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if hasCycle {
		return fmt.Errorf("dataflow: cyclic dataflow graph, e.g. %v", cycles[0])
	}
	return nil
}

// Core exposes the underlying *core.Graph for packages (floorplan,
// route) that need raw adjacency rather than the typed view.
func (gr *Graph) Core() *core.Graph { return gr.g }
