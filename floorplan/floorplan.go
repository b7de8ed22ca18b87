package floorplan

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/sfu-hiaccel/fprbridge/dataflow"
	"github.com/sfu-hiaccel/fprbridge/device"
	"github.com/sfu-hiaccel/fprbridge/solver"
)

// Assignment is the total vertex -> leaf slot map produced by GetFloorplan.
type Assignment map[string]device.Slot

// Result bundles everything downstream stages (route, latency, config
// rendering) need out of one floorplan run.
type Result struct {
	Assignment Assignment
	Leaves     []device.Slot
	// HBMBinding maps a vertex name to its newly assigned HBM channel
	// number, present only when Config.EnableHBMBindingAdjustment is set.
	HBMBinding map[string]int
}

// GetFloorplan computes Assignment for graph on the chip managed by sm,
// honoring groupingConstraints and preassign (vertex name -> pinned
// region slot name), per §4.2's iterative-bisection algorithm.
func GetFloorplan(
	ctx context.Context,
	graph *dataflow.Graph,
	sm *device.SlotManager,
	groupingConstraints [][]string,
	preassign map[string]string,
	cfg Config,
) (Result, error) {
	cs := buildClusters(graph, groupingConstraints)
	reps, memberOf := cs.clusters()

	pinnedRegion := make(map[string]device.Slot) // cluster rep -> pinned slot
	for vName, regionName := range preassign {
		rep := memberOf[vName]
		region, err := resolveRegion(sm, regionName)
		if err != nil {
			return Result{}, err
		}
		if existing, ok := pinnedRegion[rep]; ok && existing != region {
			return Result{}, fmt.Errorf("%w: cluster containing %q pinned to two different regions", ErrUnknownPreassignRegion, vName)
		}
		pinnedRegion[rep] = region
	}

	targetDepth := sm.MaxLeafDepth()
	if cfg.Strategy == SLRLevelOnly {
		targetDepth = slrBoundaryDepth(sm)
	}

	// clusterSlot tracks each cluster's current slot through the bisection.
	root := sm.Root()
	clusterSlot := make(map[string]device.Slot, len(reps))
	for _, rep := range reps {
		clusterSlot[rep] = root
	}

	if cfg.Strategy == Quick {
		leaves, err := sm.LeavesAt(targetDepth)
		if err != nil {
			return Result{}, err
		}
		if err := solveFlat(ctx, graph, reps, memberOf, clusterSlot, leaves, pinnedRegion, cfg); err != nil {
			return Result{}, err
		}
	} else {
		for depth := 0; depth < targetDepth; depth++ {
			if err := bisectStep(ctx, graph, sm, reps, memberOf, clusterSlot, pinnedRegion, cfg); err != nil {
				return Result{}, err
			}
		}
	}

	assignment := make(Assignment, len(graph.Vertices()))
	for _, vName := range graph.Vertices() {
		assignment[vName] = clusterSlot[memberOf[vName]]
	}

	leaves, err := sm.LeavesAt(targetDepth)
	if err != nil {
		return Result{}, err
	}

	result := Result{Assignment: assignment, Leaves: leaves}
	if cfg.EnableHBMBindingAdjustment {
		result.HBMBinding = adjustHBMBinding(sm, assignment, cfg.HBMPortVertices)
	}

	logrus.WithField("vertices", len(assignment)).Info("floorplan: assignment complete")
	return result, nil
}

// resolveRegion looks up a region name against every bisection depth's
// leaf set, returning the first exact Slot.Name() match.
func resolveRegion(sm *device.SlotManager, name string) (device.Slot, error) {
	for depth := 0; depth <= sm.MaxLeafDepth(); depth++ {
		leaves, err := sm.LeavesAt(depth)
		if err != nil {
			continue
		}
		for _, s := range leaves {
			if s.Name() == name {
				return s, nil
			}
		}
	}
	return device.Slot{}, fmt.Errorf("%w: %q", ErrUnknownPreassignRegion, name)
}

// slrBoundaryDepth finds the shallowest bisection depth at which every
// slot belongs to exactly one SLR.
func slrBoundaryDepth(sm *device.SlotManager) int {
	for depth := 0; depth <= sm.MaxLeafDepth(); depth++ {
		leaves, err := sm.LeavesAt(depth)
		if err != nil {
			continue
		}
		ok := true
		for _, s := range leaves {
			if sm.StraddlesSLR(s) {
				ok = false
				break
			}
		}
		if ok {
			return depth
		}
	}
	return sm.MaxLeafDepth()
}

// bisectStep re-assigns every cluster currently on a non-leaf slot to one
// of that slot's two children, building one MILP per distinct current
// slot (crossing constraints only apply between clusters sharing a
// parent, since clusters already split apart never recombine).
func bisectStep(
	ctx context.Context,
	graph *dataflow.Graph,
	sm *device.SlotManager,
	reps []string,
	memberOf map[string]string,
	clusterSlot map[string]device.Slot,
	pinnedRegion map[string]device.Slot,
	cfg Config,
) error {
	bySlot := map[device.Slot][]string{}
	for _, rep := range reps {
		s := clusterSlot[rep]
		if s.IsLeaf() {
			continue
		}
		bySlot[s] = append(bySlot[s], rep)
	}

	slotsInOrder := make([]device.Slot, 0, len(bySlot))
	for s := range bySlot {
		slotsInOrder = append(slotsInOrder, s)
	}
	sort.Slice(slotsInOrder, func(i, j int) bool { return slotsInOrder[i].Name() < slotsInOrder[j].Name() })

	for _, parent := range slotsInOrder {
		clusterReps := bySlot[parent]
		sort.Strings(clusterReps)

		low, high, err := sm.Split(parent)
		if err != nil {
			return err
		}
		straddles := sm.StraddlesSLR(parent)

		decisions, err := solveBisection(ctx, graph, clusterReps, memberOf, low, high, straddles, pinnedRegion, cfg)
		if err != nil {
			return err
		}
		for rep, child := range decisions {
			clusterSlot[rep] = child
		}
	}
	return nil
}

// solveBisection builds and solves (with ratio loosening) the MILP for
// one bisection step over one parent slot's clusters, per §4.2.
func solveBisection(
	ctx context.Context,
	graph *dataflow.Graph,
	clusterReps []string,
	memberOf map[string]string,
	low, high device.Slot,
	straddlesSLR bool,
	pinnedRegion map[string]device.Slot,
	cfg Config,
) (map[string]device.Slot, error) {
	ratio := cfg.MinAreaLimit
	crossingRatio := cfg.MinSLRWidthLimit
	step := (cfg.MaxAreaLimit - cfg.MinAreaLimit) / float64(maxInt(cfg.RatioSteps, 1))
	crossStep := (cfg.MaxSLRWidthLimit - cfg.MinSLRWidthLimit) / float64(maxInt(cfg.RatioSteps, 1))

	for attempt := 0; attempt <= cfg.RatioSteps; attempt++ {
		m, varFor := buildBisectionModel(graph, clusterReps, memberOf, low, high, straddlesSLR, ratio, crossingRatio, pinnedRegion, cfg.OptPriority)
		bb := solver.NewBranchAndBound(m)
		status, err := bb.Solve(ctx, cfg.MaxSearchTime)
		if err != nil {
			return nil, err
		}
		if status == solver.StatusOptimal {
			out := make(map[string]device.Slot, len(clusterReps))
			for _, rep := range clusterReps {
				if m.Value(varFor(rep, low)) == 1 {
					out[rep] = low
				} else {
					out[rep] = high
				}
			}
			return out, nil
		}
		logrus.WithFields(logrus.Fields{"ratio": ratio, "crossingRatio": crossingRatio, "status": status.String()}).
			Debug("floorplan: bisection MILP infeasible at current ratio, loosening")
		ratio += step
		crossingRatio += crossStep
	}
	return nil, fmt.Errorf("%w: parent slot %s/%s", ErrInfeasibleFloorplan, low.Name(), high.Name())
}

// buildBisectionModel constructs the MILP of §4.2 for one parent split.
// It returns the model and a helper to recover the x_{cluster,child}
// variable name for a given (cluster, child) pair.
func buildBisectionModel(
	graph *dataflow.Graph,
	clusterReps []string,
	memberOf map[string]string,
	low, high device.Slot,
	straddlesSLR bool,
	areaRatio, crossingRatio float64,
	pinnedRegion map[string]device.Slot,
	priority OptPriority,
) (*solver.Model, func(rep string, child device.Slot) string) {
	m := solver.NewModel()
	varFor := func(rep string, child device.Slot) string {
		return fmt.Sprintf("x_%s_%s", rep, child.Name())
	}

	for _, rep := range clusterReps {
		m.NewBinary(varFor(rep, low))
		m.NewBinary(varFor(rep, high))
		// Exactly one child per cluster.
		_ = m.AddConstraint(solver.Constraint{
			Name:  "one-child-" + rep,
			Terms: []solver.Term{{Var: varFor(rep, low), Coef: 1}, {Var: varFor(rep, high), Coef: 1}},
			Sense: solver.EQ,
			RHS:   1,
		})

		if region, pinned := pinnedRegion[rep]; pinned {
			if low.Contains(region) {
				forceChild(m, varFor(rep, low))
			} else if high.Contains(region) {
				forceChild(m, varFor(rep, high))
			}
		}
	}

	// Area constraints per child/resource.
	addAreaConstraint(m, graph, clusterReps, memberOf, varFor, low, areaRatio)
	addAreaConstraint(m, graph, clusterReps, memberOf, varFor, high, areaRatio)

	// Crossing constraint (only meaningful when this split is an SLR
	// boundary cut, per §4.2). The s_e indicator variables it declares
	// are also the only ones the crossing objective terms may reference.
	var crossingTerms []solver.Term
	if straddlesSLR {
		addCrossingConstraint(m, graph, clusterReps, memberOf, varFor, low, high, crossingRatio)
		crossingTerms = crossingObjectiveTerms(graph, clusterReps, memberOf, varFor, low, high)
	}
	areaSlackVar := addAreaSlackObjective(m, graph, clusterReps, memberOf, varFor, []device.Slot{low, high}, areaRatio)

	// Objective: lexicographic ordering of crossing width and area slack
	// per cfg.OptPriority, plus a tiny deterministic tie-breaker.
	terms := lexObjectiveTerms(priority, areaSlackVar, crossingTerms)
	for i, rep := range clusterReps {
		terms = append(terms, solver.Term{Var: varFor(rep, high), Coef: float64(i+1) * lexTieWeight})
	}
	m.SetObjective(solver.Objective{Terms: terms, Minimize: true})

	return m, varFor
}

// Lexicographic objective weights: scale the primary term far above the
// worst-case magnitude of the secondary term, and the secondary term far
// above the deterministic tie-breaker, so minimizing the weighted sum
// reproduces a strict priority order rather than a blend of the two.
const (
	lexPrimaryWeight   = 1e9
	lexSecondaryWeight = 1e3
	lexTieWeight       = 1e-6

	// areaUtilScale is the integer resolution of the u_area_slack
	// variable: 1 unit == 1/areaUtilScale of a dimension's ratio-limited
	// capacity.
	areaUtilScale = 1_000_000
)

// areaSlackVarName names the scalar area-slack variable declared by
// addAreaSlackObjective.
const areaSlackVarName = "u_area_slack"

// addAreaSlackObjective declares the integer variable areaSlackVarName
// and constrains it, for every resource dimension and every child slot,
// to be at least that dimension's utilization against its ratio-scaled
// limit (the same bound addAreaConstraint/flat-area constraints
// enforce). Minimizing it therefore maximizes the slack of whichever
// (dimension, child) pair binds tightest — §4.2's area-priority
// objective.
func addAreaSlackObjective(
	m *solver.Model,
	graph *dataflow.Graph,
	reps []string,
	memberOf map[string]string,
	varFor func(string, device.Slot) string,
	children []device.Slot,
	ratio float64,
) string {
	m.NewIntVar(areaSlackVarName, 0, areaUtilScale)

	dims := []struct {
		name string
		get  func(device.Resources) int64
		cap  func(device.Slot) int64
	}{
		{"LUT", func(r device.Resources) int64 { return r.LUT }, func(s device.Slot) int64 { return s.Capacity.LUT }},
		{"FF", func(r device.Resources) int64 { return r.FF }, func(s device.Slot) int64 { return s.Capacity.FF }},
		{"BRAM", func(r device.Resources) int64 { return r.BRAM }, func(s device.Slot) int64 { return s.Capacity.BRAM }},
		{"DSP", func(r device.Resources) int64 { return r.DSP }, func(s device.Slot) int64 { return s.Capacity.DSP }},
		{"URAM", func(r device.Resources) int64 { return r.URAM }, func(s device.Slot) int64 { return s.Capacity.URAM }},
	}

	for _, child := range children {
		for _, dim := range dims {
			limit := float64(dim.cap(child)) * ratio
			if limit <= 0 {
				continue
			}
			var terms []solver.Term
			for _, rep := range reps {
				area := clusterArea(graph, memberOf, rep)
				coef := float64(dim.get(area))
				if coef == 0 {
					continue
				}
				terms = append(terms, solver.Term{Var: varFor(rep, child), Coef: coef})
			}
			if len(terms) == 0 {
				continue
			}
			terms = append(terms, solver.Term{Var: areaSlackVarName, Coef: -limit / areaUtilScale})
			_ = m.AddConstraint(solver.Constraint{
				Name:  fmt.Sprintf("area-slack-%s-%s", dim.name, child.Name()),
				Terms: terms,
				Sense: solver.LE,
				RHS:   0,
			})
		}
	}
	return areaSlackVarName
}

// lexObjectiveTerms composes the final weighted objective from the
// area-slack term and the crossing-width terms, ordered according to
// priority, plus a tiny deterministic tie-breaker appended last.
func lexObjectiveTerms(priority OptPriority, areaSlackVar string, crossingTerms []solver.Term) []solver.Term {
	var terms []solver.Term
	switch priority {
	case PriorityArea:
		terms = append(terms, solver.Term{Var: areaSlackVar, Coef: lexPrimaryWeight})
		for _, t := range crossingTerms {
			terms = append(terms, solver.Term{Var: t.Var, Coef: t.Coef * lexSecondaryWeight})
		}
	default: // PrioritySLRCrossing
		for _, t := range crossingTerms {
			terms = append(terms, solver.Term{Var: t.Var, Coef: t.Coef * lexPrimaryWeight})
		}
		terms = append(terms, solver.Term{Var: areaSlackVar, Coef: lexSecondaryWeight})
	}
	return terms
}

func forceChild(m *solver.Model, varName string) {
	_ = m.AddConstraint(solver.Constraint{
		Name:  "pin-" + varName,
		Terms: []solver.Term{{Var: varName, Coef: 1}},
		Sense: solver.EQ,
		RHS:   1,
	})
}

func addAreaConstraint(
	m *solver.Model,
	graph *dataflow.Graph,
	clusterReps []string,
	memberOf map[string]string,
	varFor func(string, device.Slot) string,
	child device.Slot,
	ratio float64,
) {
	dims := []struct {
		name string
		get  func(device.Resources) int64
		cap  int64
	}{
		{"LUT", func(r device.Resources) int64 { return r.LUT }, child.Capacity.LUT},
		{"FF", func(r device.Resources) int64 { return r.FF }, child.Capacity.FF},
		{"BRAM", func(r device.Resources) int64 { return r.BRAM }, child.Capacity.BRAM},
		{"DSP", func(r device.Resources) int64 { return r.DSP }, child.Capacity.DSP},
		{"URAM", func(r device.Resources) int64 { return r.URAM }, child.Capacity.URAM},
	}
	for _, dim := range dims {
		var terms []solver.Term
		for _, rep := range clusterReps {
			area := clusterArea(graph, memberOf, rep)
			coef := float64(dim.get(area))
			if coef == 0 {
				continue
			}
			terms = append(terms, solver.Term{Var: varFor(rep, child), Coef: coef})
		}
		if len(terms) == 0 {
			continue
		}
		_ = m.AddConstraint(solver.Constraint{
			Name:  fmt.Sprintf("area-%s-%s", dim.name, child.Name()),
			Terms: terms,
			Sense: solver.LE,
			RHS:   float64(dim.cap) * ratio,
		})
	}
}

// addCrossingConstraint linearizes s_e >= x_{u,low}+x_{v,high}-1 (and the
// symmetric case) for every edge whose endpoints are both in this
// parent's clusters, and bounds total crossing bit-width.
func addCrossingConstraint(
	m *solver.Model,
	graph *dataflow.Graph,
	clusterReps []string,
	memberOf map[string]string,
	varFor func(string, device.Slot) string,
	low, high device.Slot,
	crossingRatio float64,
) {
	inStep := make(map[string]bool, len(clusterReps))
	for _, rep := range clusterReps {
		inStep[rep] = true
	}

	var terms []solver.Term
	var channelCap float64 = float64(low.Capacity.LUT + high.Capacity.LUT) // proxy channel capacity
	for _, eName := range graph.Edges() {
		e, _ := graph.Edge(eName)
		ru, rv := memberOf[e.Producer], memberOf[e.Consumer]
		if ru == rv || !inStep[ru] || !inStep[rv] {
			continue
		}
		sVar := "s_" + eName
		m.NewBinary(sVar)
		// s_e >= x_{u,low}+x_{v,high}-1
		_ = m.AddConstraint(solver.Constraint{
			Name:  "cross-lb1-" + eName,
			Terms: []solver.Term{{Var: sVar, Coef: 1}, {Var: varFor(ru, low), Coef: -1}, {Var: varFor(rv, high), Coef: -1}},
			Sense: solver.GE,
			RHS:   -1,
		})
		_ = m.AddConstraint(solver.Constraint{
			Name:  "cross-lb2-" + eName,
			Terms: []solver.Term{{Var: sVar, Coef: 1}, {Var: varFor(ru, high), Coef: -1}, {Var: varFor(rv, low), Coef: -1}},
			Sense: solver.GE,
			RHS:   -1,
		})
		terms = append(terms, solver.Term{Var: sVar, Coef: float64(e.Width)})
	}
	if len(terms) == 0 {
		return
	}
	_ = m.AddConstraint(solver.Constraint{
		Name:  "slr-crossing-" + low.Name() + "-" + high.Name(),
		Terms: terms,
		Sense: solver.LE,
		RHS:   channelCap * crossingRatio,
	})
}

func crossingObjectiveTerms(
	graph *dataflow.Graph,
	clusterReps []string,
	memberOf map[string]string,
	varFor func(string, device.Slot) string,
	low, high device.Slot,
) []solver.Term {
	inStep := make(map[string]bool, len(clusterReps))
	for _, rep := range clusterReps {
		inStep[rep] = true
	}
	var terms []solver.Term
	for _, eName := range graph.Edges() {
		e, _ := graph.Edge(eName)
		ru, rv := memberOf[e.Producer], memberOf[e.Consumer]
		if ru == rv || !inStep[ru] || !inStep[rv] {
			continue
		}
		// Re-derive the same s_e variable name addCrossingConstraint used,
		// if it was declared (it always is, for any pair sharing the parent).
		terms = append(terms, solver.Term{Var: "s_" + eName, Coef: float64(e.Width)})
	}
	return terms
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
