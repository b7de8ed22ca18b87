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

// solveFlat implements Config.Strategy == Quick: a single MILP assigns
// every cluster directly to a leaf slot, skipping the recursive
// bisection of bisectStep. It mutates clusterSlot in place.
func solveFlat(
	ctx context.Context,
	graph *dataflow.Graph,
	reps []string,
	memberOf map[string]string,
	clusterSlot map[string]device.Slot,
	leaves []device.Slot,
	pinnedRegion map[string]device.Slot,
	cfg Config,
) error {
	ratio := cfg.MinAreaLimit
	crossingRatio := cfg.MinSLRWidthLimit
	step := (cfg.MaxAreaLimit - cfg.MinAreaLimit) / float64(maxInt(cfg.RatioSteps, 1))
	crossStep := (cfg.MaxSLRWidthLimit - cfg.MinSLRWidthLimit) / float64(maxInt(cfg.RatioSteps, 1))

	for attempt := 0; attempt <= cfg.RatioSteps; attempt++ {
		m, varFor := buildFlatModel(graph, reps, memberOf, leaves, pinnedRegion, ratio, crossingRatio, cfg.OptPriority)
		bb := solver.NewBranchAndBound(m)
		status, err := bb.Solve(ctx, cfg.MaxSearchTime)
		if err != nil {
			return err
		}
		if status == solver.StatusOptimal {
			for _, rep := range reps {
				for _, leaf := range leaves {
					if m.Value(varFor(rep, leaf)) == 1 {
						clusterSlot[rep] = leaf
						break
					}
				}
			}
			return nil
		}
		logrus.WithFields(logrus.Fields{"ratio": ratio, "crossingRatio": crossingRatio, "status": status.String()}).
			Debug("floorplan: flat MILP infeasible at current ratio, loosening")
		ratio += step
		crossingRatio += crossStep
	}
	return fmt.Errorf("%w: flat assignment over %d leaves", ErrInfeasibleFloorplan, len(leaves))
}

func buildFlatModel(
	graph *dataflow.Graph,
	reps []string,
	memberOf map[string]string,
	leaves []device.Slot,
	pinnedRegion map[string]device.Slot,
	areaRatio, crossingRatio float64,
	priority OptPriority,
) (*solver.Model, func(rep string, leaf device.Slot) string) {
	m := solver.NewModel()
	varFor := func(rep string, leaf device.Slot) string {
		return fmt.Sprintf("y_%s_%s", rep, leaf.Name())
	}

	for _, rep := range reps {
		terms := make([]solver.Term, 0, len(leaves))
		for _, leaf := range leaves {
			m.NewBinary(varFor(rep, leaf))
			terms = append(terms, solver.Term{Var: varFor(rep, leaf), Coef: 1})
		}
		_ = m.AddConstraint(solver.Constraint{
			Name:  "one-leaf-" + rep,
			Terms: terms,
			Sense: solver.EQ,
			RHS:   1,
		})
		if region, pinned := pinnedRegion[rep]; pinned {
			for _, leaf := range leaves {
				if leaf == region {
					forceChild(m, varFor(rep, leaf))
				}
			}
		}
	}

	for _, leaf := range leaves {
		dims := []struct {
			name string
			get  func(device.Resources) int64
			cap  int64
		}{
			{"LUT", func(r device.Resources) int64 { return r.LUT }, leaf.Capacity.LUT},
			{"FF", func(r device.Resources) int64 { return r.FF }, leaf.Capacity.FF},
			{"BRAM", func(r device.Resources) int64 { return r.BRAM }, leaf.Capacity.BRAM},
			{"DSP", func(r device.Resources) int64 { return r.DSP }, leaf.Capacity.DSP},
			{"URAM", func(r device.Resources) int64 { return r.URAM }, leaf.Capacity.URAM},
		}
		for _, dim := range dims {
			var terms []solver.Term
			for _, rep := range reps {
				area := clusterArea(graph, memberOf, rep)
				coef := float64(dim.get(area))
				if coef == 0 {
					continue
				}
				terms = append(terms, solver.Term{Var: varFor(rep, leaf), Coef: coef})
			}
			if len(terms) == 0 {
				continue
			}
			_ = m.AddConstraint(solver.Constraint{
				Name:  fmt.Sprintf("flat-area-%s-%s", dim.name, leaf.Name()),
				Terms: terms,
				Sense: solver.LE,
				RHS:   float64(dim.cap) * areaRatio,
			})
		}
	}

	addFlatCrossingConstraints(m, graph, reps, memberOf, varFor, leaves, crossingRatio)
	crossingTerms := flatCrossingObjectiveTerms(graph, memberOf, leaves)
	areaSlackVar := addAreaSlackObjective(m, graph, reps, memberOf, varFor, leaves, areaRatio)

	objTerms := lexObjectiveTerms(priority, areaSlackVar, crossingTerms)
	for i, rep := range reps {
		for j, leaf := range leaves {
			objTerms = append(objTerms, solver.Term{Var: varFor(rep, leaf), Coef: float64(i*len(leaves)+j+1) * lexTieWeight})
		}
	}
	m.SetObjective(solver.Objective{Terms: objTerms, Minimize: true})

	return m, varFor
}

// addFlatCrossingConstraints bounds, for every pair of leaves in
// different SLRs, the total crossing bit-width of edges whose endpoints land one
// in each leaf.
func addFlatCrossingConstraints(
	m *solver.Model,
	graph *dataflow.Graph,
	reps []string,
	memberOf map[string]string,
	varFor func(string, device.Slot) string,
	leaves []device.Slot,
	crossingRatio float64,
) {
	type pair struct{ a, b device.Slot }
	var boundaries []pair
	for i := range leaves {
		for j := i + 1; j < len(leaves); j++ {
			if leaves[i].SLR != leaves[j].SLR {
				boundaries = append(boundaries, pair{leaves[i], leaves[j]})
			}
		}
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].a.Name() < boundaries[j].a.Name() })

	for _, b := range boundaries {
		var terms []solver.Term
		channelCap := float64(b.a.Capacity.LUT + b.b.Capacity.LUT)
		for _, eName := range graph.Edges() {
			e, _ := graph.Edge(eName)
			ru, rv := memberOf[e.Producer], memberOf[e.Consumer]
			if ru == rv {
				continue
			}
			sVar := fmt.Sprintf("t_%s_%s_%s", eName, b.a.Name(), b.b.Name())
			m.NewBinary(sVar)
			_ = m.AddConstraint(solver.Constraint{
				Terms: []solver.Term{{Var: sVar, Coef: 1}, {Var: varFor(ru, b.a), Coef: -1}, {Var: varFor(rv, b.b), Coef: -1}},
				Sense: solver.GE,
				RHS:   -1,
			})
			_ = m.AddConstraint(solver.Constraint{
				Terms: []solver.Term{{Var: sVar, Coef: 1}, {Var: varFor(ru, b.b), Coef: -1}, {Var: varFor(rv, b.a), Coef: -1}},
				Sense: solver.GE,
				RHS:   -1,
			})
			terms = append(terms, solver.Term{Var: sVar, Coef: float64(e.Width)})
		}
		if len(terms) == 0 {
			continue
		}
		_ = m.AddConstraint(solver.Constraint{
			Name:  "flat-crossing-" + b.a.Name() + "-" + b.b.Name(),
			Terms: terms,
			Sense: solver.LE,
			RHS:   channelCap * crossingRatio,
		})
	}
}

// flatCrossingObjectiveTerms reconstructs the same t_<edge>_<a>_<b>
// variable names addFlatCrossingConstraints declares, weighted by edge
// width, for use in the crossing-priority objective.
func flatCrossingObjectiveTerms(
	graph *dataflow.Graph,
	memberOf map[string]string,
	leaves []device.Slot,
) []solver.Term {
	type pair struct{ a, b device.Slot }
	var boundaries []pair
	for i := range leaves {
		for j := i + 1; j < len(leaves); j++ {
			if leaves[i].SLR != leaves[j].SLR {
				boundaries = append(boundaries, pair{leaves[i], leaves[j]})
			}
		}
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].a.Name() < boundaries[j].a.Name() })

	var terms []solver.Term
	for _, b := range boundaries {
		for _, eName := range graph.Edges() {
			e, _ := graph.Edge(eName)
			ru, rv := memberOf[e.Producer], memberOf[e.Consumer]
			if ru == rv {
				continue
			}
			sVar := fmt.Sprintf("t_%s_%s_%s", eName, b.a.Name(), b.b.Name())
			terms = append(terms, solver.Term{Var: sVar, Coef: float64(e.Width)})
		}
	}
	return terms
}
