package latency

import (
	"fmt"
	"sort"

	"github.com/sfu-hiaccel/fprbridge/core"
	"github.com/sfu-hiaccel/fprbridge/dataflow"
	"github.com/sfu-hiaccel/fprbridge/device"
	"github.com/sfu-hiaccel/fprbridge/dfs"
)

// coLocation merges the endpoints of every non-stream edge (AXI,
// ASYNC_MMAP, BUFFER) into one potential group: these channels are not
// balanced, but their endpoints still influence each other's arrival
// time through co-location, per §4.4. Union-find with path compression,
// the same structure floorplan.clusterSet already applies to grouping
// constraints, repurposed here over the latency potential instead of
// floorplan area.
type coLocation struct {
	parent map[string]string
}

func newCoLocation(vertices []string) *coLocation {
	cl := &coLocation{parent: make(map[string]string, len(vertices))}
	for _, v := range vertices {
		cl.parent[v] = v
	}
	return cl
}

func (cl *coLocation) find(u string) string {
	for cl.parent[u] != u {
		cl.parent[u] = cl.parent[cl.parent[u]]
		u = cl.parent[u]
	}
	return u
}

func (cl *coLocation) union(u, v string) {
	ru, rv := cl.find(u), cl.find(v)
	if ru != rv {
		cl.parent[ru] = rv
	}
}

// Balance computes the adjusted depth of every stream (FIFO) edge in
// graph. paths is the router's output: the slot-by-slot path realized
// for each edge, whose length minus one gives the edge's hop count.
func Balance(graph *dataflow.Graph, paths map[string][]device.Slot) (map[string]int, error) {
	streamSub := graph.StreamSubgraph()
	if cyclic, cycles, err := dfs.DetectCycles(streamSub); err != nil {
		return nil, fmt.Errorf("latency: detecting cycles: %w", err)
	} else if cyclic {
		var cycle []string
		if len(cycles) > 0 {
			cycle = cycles[0]
		}
		return nil, &CycleError{Cycle: cycle}
	}

	cl := newCoLocation(graph.Vertices())
	for _, eName := range graph.Edges() {
		e, _ := graph.Edge(eName)
		if !e.Category.IsStream() {
			cl.union(e.Producer, e.Consumer)
		}
	}

	hops := make(map[string]int, len(graph.Edges()))
	groupGraph := core.NewGraph(core.WithDirected(true), core.WithWeighted(), core.WithMultiEdges())
	order := make([]string, 0, len(graph.Vertices()))
	for _, v := range graph.Vertices() {
		g := cl.find(v)
		if !groupGraph.HasVertex(g) {
			_ = groupGraph.AddVertex(g)
			order = append(order, g)
		}
	}
	sort.Strings(order)

	var streamEdges []string
	for _, eName := range graph.Edges() {
		e, _ := graph.Edge(eName)
		if !e.Category.IsStream() {
			continue
		}
		streamEdges = append(streamEdges, eName)
		path, ok := paths[eName]
		if !ok {
			return nil, fmt.Errorf("latency: stream edge %q has no routed path", eName)
		}
		h := len(path) - 1
		hops[eName] = h

		from, to := cl.find(e.Producer), cl.find(e.Consumer)
		if from == to {
			continue
		}
		if _, err := groupGraph.AddEdge(from, to, int64(h+1)); err != nil {
			return nil, fmt.Errorf("latency: building potential graph: %w", err)
		}
	}

	topo, err := dfs.TopologicalSort(groupGraph)
	if err != nil {
		return nil, fmt.Errorf("latency: %w: stream graph is not acyclic after co-location merge", ErrCyclicDataflow)
	}

	potential := make(map[string]int, len(order))
	for _, g := range order {
		potential[g] = 0
	}
	for _, g := range topo {
		neighbors, err := groupGraph.Neighbors(g)
		if err != nil {
			return nil, fmt.Errorf("latency: %w", err)
		}
		for _, e := range neighbors {
			if cand := potential[g] + int(e.Weight); cand > potential[e.To] {
				potential[e.To] = cand
			}
		}
	}

	depths := make(map[string]int, len(streamEdges))
	for _, eName := range streamEdges {
		e, _ := graph.Edge(eName)
		base := hops[eName] + 1 // §4.4: depth >= hop-count + 1, one register per hop
		from, to := cl.find(e.Producer), cl.find(e.Consumer)
		slack := potential[to] - potential[from] - base
		if slack < 0 {
			slack = 0
		}
		depth := base + slack
		if depth < e.NominalDepth {
			depth = e.NominalDepth
		}
		depths[eName] = depth
	}
	return depths, nil
}
