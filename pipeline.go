package fprbridge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sfu-hiaccel/fprbridge/config"
	"github.com/sfu-hiaccel/fprbridge/dataflow"
	"github.com/sfu-hiaccel/fprbridge/device"
	"github.com/sfu-hiaccel/fprbridge/floorplan"
	"github.com/sfu-hiaccel/fprbridge/latency"
	"github.com/sfu-hiaccel/fprbridge/route"
)

// Compile runs the four core stages over in and returns the annotated
// OutputConfig. A non-fatal stage failure (InfeasibleFloorplan,
// UnroutableDesign) is reported via OutputConfig.FloorplanStatus rather
// than as an error; a fatal condition (UnsupportedDevice, InvalidConfig,
// CyclicDataflow) is returned as an error. A solver timeout is counted
// as an infeasible attempt by the floorplanner, so it ends as
// InfeasibleFloorplan.
func Compile(ctx context.Context, in config.InputConfig) (config.OutputConfig, error) {
	spec, err := device.Lookup(in.PartNum)
	if err != nil {
		return config.OutputConfig{}, err
	}
	sm := device.NewSlotManager(spec)

	graph, err := buildGraph(in)
	if err != nil {
		return config.OutputConfig{}, err
	}
	if err := graph.Validate(); err != nil {
		return config.OutputConfig{}, err
	}

	fpCfg, err := buildFloorplanConfig(in)
	if err != nil {
		return config.OutputConfig{}, err
	}

	result, err := floorplan.GetFloorplan(ctx, graph, sm, in.GroupingConstraints, in.FloorplanPreAssignments, fpCfg)
	if err != nil {
		if isNonFatal(err, floorplan.ErrInfeasibleFloorplan) {
			logrus.WithError(err).Warn("fprbridge: floorplan infeasible")
			return failedOutput(in), nil
		}
		return config.OutputConfig{}, err
	}

	router := route.NewRouter(result.Leaves, slotUsage(graph, result.Assignment))
	paths, err := router.RouteDesign(ctx, graph, result.Assignment)
	if err != nil {
		if isNonFatal(err, route.ErrUnroutableDesign) {
			logrus.WithError(err).Warn("fprbridge: design not routable")
			return failedOutput(in), nil
		}
		return config.OutputConfig{}, err
	}

	depths, err := latency.Balance(graph, paths)
	if err != nil {
		return config.OutputConfig{}, err
	}

	return buildOutput(in, graph, result, paths, depths), nil
}

// failedOutput builds the OutputConfig for a non-fatal stage failure:
// the input, verbatim, with no floorplan/route/balance annotations and
// FloorplanStatus set to FAILED (§8 invariant 10).
func failedOutput(in config.InputConfig) config.OutputConfig {
	vertices := make(map[string]config.OutputVertex, len(in.Vertices))
	for name, vc := range in.Vertices {
		vertices[name] = config.OutputVertex{VertexConfig: vc}
	}
	edges := make(map[string]config.OutputEdge, len(in.Edges))
	for name, ec := range in.Edges {
		edges[name] = config.OutputEdge{EdgeConfig: ec}
	}
	return config.OutputConfig{
		PartNum:                 in.PartNum,
		Vertices:                vertices,
		Edges:                   edges,
		GroupingConstraints:     in.GroupingConstraints,
		FloorplanPreAssignments: in.FloorplanPreAssignments,
		FloorplanStatus:         config.StatusFailed,
	}
}

// isNonFatal reports whether err wraps sentinel — used to distinguish
// the two documented recoverable failure modes from everything else.
func isNonFatal(err, sentinel error) bool {
	for e := err; e != nil; {
		if e == sentinel {
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}

func buildGraph(in config.InputConfig) (*dataflow.Graph, error) {
	g := dataflow.NewGraph()

	names := make([]string, 0, len(in.Vertices))
	for name := range in.Vertices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		vc := in.Vertices[name]
		v, err := toVertex(name, vc)
		if err != nil {
			return nil, err
		}
		if err := g.AddVertex(v); err != nil {
			return nil, err
		}
	}

	eNames := make([]string, 0, len(in.Edges))
	for name := range in.Edges {
		eNames = append(eNames, name)
	}
	sort.Strings(eNames)
	for _, name := range eNames {
		ec := in.Edges[name]
		e, err := toEdge(name, ec)
		if err != nil {
			return nil, err
		}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func toVertex(name string, vc config.VertexConfig) (dataflow.Vertex, error) {
	cat, err := parseVertexCategory(vc.Category)
	if err != nil {
		return dataflow.Vertex{}, fmt.Errorf("%w: vertex %q: %v", dataflow.ErrInvalidConfig, name, err)
	}
	area := device.Resources{
		LUT:  int64(vc.Area["LUT"]),
		FF:   int64(vc.Area["FF"]),
		BRAM: int64(vc.Area["BRAM"]),
		DSP:  int64(vc.Area["DSP"]),
		URAM: int64(vc.Area["URAM"]),
	}
	portCat, err := parsePortCategory(vc.PortCat)
	if err != nil {
		return dataflow.Vertex{}, fmt.Errorf("%w: vertex %q: %v", dataflow.ErrInvalidConfig, name, err)
	}
	return dataflow.Vertex{
		Name:       name,
		Category:   cat,
		Module:     vc.Module,
		Area:       area,
		PortCat:    portCat,
		PortID:     vc.PortID,
		TopArgName: vc.TopArgName,
	}, nil
}

func toEdge(name string, ec config.EdgeConfig) (dataflow.Edge, error) {
	cat, err := parseEdgeCategory(ec.Category)
	if err != nil {
		return dataflow.Edge{}, fmt.Errorf("%w: edge %q: %v", dataflow.ErrInvalidConfig, name, err)
	}
	return dataflow.Edge{
		Name:         name,
		Producer:     ec.ProducedBy,
		Consumer:     ec.ConsumedBy,
		Width:        ec.Width,
		NominalDepth: ec.Depth,
		Category:     cat,
	}, nil
}

func parseVertexCategory(s string) (dataflow.VertexCategory, error) {
	for _, c := range []dataflow.VertexCategory{dataflow.TaskVertex, dataflow.PortVertex, dataflow.AsyncMmapVertex, dataflow.CtrlVertex} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown vertex category %q", s)
}

func parseEdgeCategory(s string) (dataflow.EdgeCategory, error) {
	for _, c := range []dataflow.EdgeCategory{dataflow.FIFO, dataflow.AXI, dataflow.ASYNC_MMAP, dataflow.BUFFER} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown edge category %q", s)
}

func parsePortCategory(s string) (dataflow.PortCategory, error) {
	switch s {
	case "":
		return dataflow.NoPort, nil
	case "DDR":
		return dataflow.DDR, nil
	case "HBM":
		return dataflow.HBM, nil
	case "PLRAM":
		return dataflow.PLRAM, nil
	default:
		return 0, fmt.Errorf("unknown port_cat %q", s)
	}
}

func buildFloorplanConfig(in config.InputConfig) (floorplan.Config, error) {
	cfg := floorplan.DefaultConfig()

	if in.FloorplanStrategy != "" {
		switch in.FloorplanStrategy {
		case "EXHAUSTIVE":
			cfg.Strategy = floorplan.Exhaustive
		case "QUICK":
			cfg.Strategy = floorplan.Quick
		case "SLR_LEVEL_ONLY":
			cfg.Strategy = floorplan.SLRLevelOnly
		default:
			return floorplan.Config{}, fmt.Errorf("%w: unknown floorplan_strategy %q", dataflow.ErrInvalidConfig, in.FloorplanStrategy)
		}
	}
	if in.FloorplanOptPriority != "" {
		switch in.FloorplanOptPriority {
		case "AREA":
			cfg.OptPriority = floorplan.PriorityArea
		case "SLR_CROSSING":
			cfg.OptPriority = floorplan.PrioritySLRCrossing
		default:
			return floorplan.Config{}, fmt.Errorf("%w: unknown floorplan_opt_priority %q", dataflow.ErrInvalidConfig, in.FloorplanOptPriority)
		}
	}
	if in.MinAreaLimit != 0 || in.MaxAreaLimit != 0 {
		cfg.MinAreaLimit, cfg.MaxAreaLimit = in.MinAreaLimit, in.MaxAreaLimit
	}
	if in.MinSLRWidthLimit != 0 || in.MaxSLRWidthLimit != 0 {
		cfg.MinSLRWidthLimit, cfg.MaxSLRWidthLimit = in.MinSLRWidthLimit, in.MaxSLRWidthLimit
	}
	if in.MaxSearchTime != 0 {
		cfg.MaxSearchTime = time.Duration(in.MaxSearchTime * float64(time.Second))
	}
	if in.EnableHBMBindingAdjustment {
		cfg.EnableHBMBindingAdjustment = true
		cfg.HBMPortVertices = portVertexNames(in)
	}
	return cfg, nil
}

func portVertexNames(in config.InputConfig) []string {
	var names []string
	for name, vc := range in.Vertices {
		if vc.PortCat == "HBM" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// slotUsage sums assigned vertex areas per leaf slot, the residual wire
// capacity route.NewRouter seeds its per-slot budget from.
func slotUsage(graph *dataflow.Graph, assignment floorplan.Assignment) map[string]device.Resources {
	usage := make(map[string]device.Resources, len(assignment))
	for _, vName := range graph.Vertices() {
		v, _ := graph.Vertex(vName)
		slot := assignment[vName]
		usage[slot.Name()] = usage[slot.Name()].Add(v.Area)
	}
	return usage
}

func buildOutput(in config.InputConfig, graph *dataflow.Graph, result floorplan.Result, paths map[string][]device.Slot, depths map[string]int) config.OutputConfig {
	out := config.OutputConfig{
		PartNum:                  in.PartNum,
		Vertices:                 make(map[string]config.OutputVertex, len(in.Vertices)),
		Edges:                    make(map[string]config.OutputEdge, len(in.Edges)),
		GroupingConstraints:      in.GroupingConstraints,
		FloorplanPreAssignments:  in.FloorplanPreAssignments,
		FloorplanRegionPblockTCL: make(map[string]string, len(result.Leaves)),
		SlotResourceUsage:        make(map[string]map[string]float64, len(result.Leaves)),
		FloorplanStatus:          config.StatusSucceed,
		NewHBMBinding:            result.HBMBinding,
	}

	usage := slotUsage(graph, result.Assignment)
	for _, leaf := range result.Leaves {
		out.FloorplanRegionPblockTCL[leaf.Name()] = leaf.PblockTCL()
		out.SlotResourceUsage[leaf.Name()] = usage[leaf.Name()].Utilization(leaf.Capacity)
	}

	for name, vc := range in.Vertices {
		slot := result.Assignment[name]
		out.Vertices[name] = config.OutputVertex{VertexConfig: vc, FloorplanRegion: slot.Name(), SLR: slot.SLR}
	}
	for name, ec := range in.Edges {
		path := paths[name]
		slotNames := make([]string, len(path))
		for i, s := range path {
			slotNames[i] = s.Name()
		}
		out.Edges[name] = config.OutputEdge{EdgeConfig: ec, Path: slotNames, AdjustedDepth: depths[name]}
	}

	out.ActualAreaUsage = totalAreaUsage(graph, result.Leaves)
	out.ActualSLRWidthUsage = slrCrossingUsage(graph, result.Assignment, result.Leaves)
	return out
}

// totalAreaUsage reports per-resource-dimension utilization across the
// whole chip: total assigned vertex area over total leaf capacity.
func totalAreaUsage(graph *dataflow.Graph, leaves []device.Slot) map[string]float64 {
	var used, total device.Resources
	for _, vName := range graph.Vertices() {
		v, _ := graph.Vertex(vName)
		used = used.Add(v.Area)
	}
	total = device.AggregateCapacity(leaves)
	return used.Utilization(total)
}

// slrCrossingUsage reports, per pair of SLRs, the total stream-edge
// bit-width crossing that boundary relative to the combined LUT capacity
// of both SLRs' leaves — the same LUT-as-wire-capacity proxy
// floorplan's own crossing constraints use, generalized from a single
// bisection step to the whole finished assignment.
func slrCrossingUsage(graph *dataflow.Graph, assignment floorplan.Assignment, leaves []device.Slot) map[string]float64 {
	slrCap := map[int]int64{}
	for _, l := range leaves {
		slrCap[l.SLR] += l.Capacity.LUT
	}

	crossing := map[string]int64{}
	for _, eName := range graph.Edges() {
		e, _ := graph.Edge(eName)
		from, to := assignment[e.Producer].SLR, assignment[e.Consumer].SLR
		if from == to {
			continue
		}
		key := slrPairKey(from, to)
		crossing[key] += int64(e.Width)
	}

	keys := make([]string, 0, len(crossing))
	for k := range crossing {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]float64, len(keys))
	for _, key := range keys {
		a, b := splitSLRPair(key)
		capacity := slrCap[a] + slrCap[b]
		if capacity == 0 {
			continue
		}
		out[key] = float64(crossing[key]) / float64(capacity)
	}
	return out
}

func slrPairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}

func splitSLRPair(key string) (a, b int) {
	fmt.Sscanf(key, "%d-%d", &a, &b)
	return a, b
}
