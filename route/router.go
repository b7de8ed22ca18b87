package route

import (
	"context"
	"fmt"
	"sort"

	"github.com/sfu-hiaccel/fprbridge/bfs"
	"github.com/sfu-hiaccel/fprbridge/core"
	"github.com/sfu-hiaccel/fprbridge/dataflow"
	"github.com/sfu-hiaccel/fprbridge/device"
	"github.com/sfu-hiaccel/fprbridge/flow"
	"github.com/sfu-hiaccel/fprbridge/floorplan"
	"github.com/sirupsen/logrus"
)

// Router holds the grid-adjacency graph G_R over a fixed set of leaf
// slots, plus the residual wire capacity available at each slot. LUT
// count is reused as the wire-resource proxy, the same convention the
// floorplanner's crossing constraints already use (channelCap).
type Router struct {
	adjacency *core.Graph
	slots     map[string]device.Slot
	residual  map[string]float64
	log       *logrus.Entry
}

// NewRouter builds G_R from leaves and seeds residual wire capacity at
// each slot as its LUT capacity minus whatever logic the floorplanner
// already committed there (floorplanUsage).
func NewRouter(leaves []device.Slot, floorplanUsage map[string]device.Resources) *Router {
	slots := make(map[string]device.Slot, len(leaves))
	residual := make(map[string]float64, len(leaves))
	for _, s := range leaves {
		slots[s.Name()] = s
		used := floorplanUsage[s.Name()]
		residual[s.Name()] = float64(s.Capacity.LUT - used.LUT)
	}
	return &Router{
		adjacency: device.AdjacencyGraph(leaves),
		slots:     slots,
		residual:  residual,
		log:       logrus.WithField("component", "router"),
	}
}

// RouteDesign computes a simple slot path for every dataflow edge,
// charging each hop's bit-width against the residual capacity of the
// slot the hop originates from (§4.3's outflow formulation). Edges are
// processed in the graph's deterministic name order so that capacity
// contention resolves the same way on every run.
func (r *Router) RouteDesign(ctx context.Context, graph *dataflow.Graph, assignment floorplan.Assignment) (map[string][]device.Slot, error) {
	paths := make(map[string][]device.Slot, len(graph.Edges()))
	for _, eName := range graph.Edges() {
		edge, ok := graph.Edge(eName)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fromSlot, ok := assignment[edge.Producer]
		if !ok {
			return nil, fmt.Errorf("route: producer %q of edge %q has no floorplan assignment", edge.Producer, eName)
		}
		toSlot, ok := assignment[edge.Consumer]
		if !ok {
			return nil, fmt.Errorf("route: consumer %q of edge %q has no floorplan assignment", edge.Consumer, eName)
		}

		if fromSlot.Name() == toSlot.Name() {
			paths[eName] = []device.Slot{fromSlot}
			continue
		}

		path, err := r.routeEdge(ctx, eName, fromSlot, toSlot, float64(edge.Width))
		if err != nil {
			return nil, err
		}
		paths[eName] = path

		for _, s := range path[:len(path)-1] {
			r.residual[s.Name()] -= float64(edge.Width)
		}
	}
	return paths, nil
}

// routeEdge pre-checks feasibility with a max-flow query over a
// capacity-filtered subgraph, then reconstructs the actual path with a
// breadth-first search so the hop count is minimal and the path is
// simple by construction.
func (r *Router) routeEdge(ctx context.Context, edgeName string, from, to device.Slot, width float64) ([]device.Slot, error) {
	sub := r.capacityFilteredSubgraph(width)

	maxFlow, _, err := flow.Dinic(sub, from.Name(), to.Name(), flow.DefaultOptions())
	if err != nil || maxFlow < 1 {
		r.log.WithFields(logrus.Fields{"edge": edgeName, "from": from.Name(), "to": to.Name(), "width": width}).
			Warn("no capacity-respecting path between producer and consumer slots")
		return nil, &CapacityError{Edge: edgeName, FromSlot: from.Name(), ToSlot: to.Name()}
	}

	result, err := bfs.BFS(sub, from.Name(), bfs.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("route: edge %q: %w", edgeName, err)
	}
	hops, err := result.PathTo(to.Name())
	if err != nil {
		return nil, &CapacityError{Edge: edgeName, FromSlot: from.Name(), ToSlot: to.Name()}
	}

	path := make([]device.Slot, len(hops))
	for i, name := range hops {
		path[i] = r.slots[name]
	}
	return path, nil
}

// capacityFilteredSubgraph returns the directed view of G_R containing
// only a->b hops whose origin slot a still has at least width residual
// wire capacity.
func (r *Router) capacityFilteredSubgraph(width float64) *core.Graph {
	sub := core.NewGraph(core.WithWeighted(), core.WithDirected(true))
	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_ = sub.AddVertex(name)
	}
	for _, name := range names {
		if r.residual[name] < width {
			continue
		}
		neighbors, _ := r.adjacency.NeighborIDs(name)
		for _, nb := range neighbors {
			_, _ = sub.AddEdge(name, nb, 1)
		}
	}
	return sub
}
