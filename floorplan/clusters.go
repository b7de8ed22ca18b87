package floorplan

import (
	"sort"

	"github.com/sfu-hiaccel/fprbridge/dataflow"
	"github.com/sfu-hiaccel/fprbridge/device"
)

// clusterSet resolves grouping constraints and async-mmap edges (whose
// sentinel-huge width effectively forces their endpoints together, per
// §4.2) into disjoint vertex clusters using the same union-find —
// iterative find with path compression, union by rank — the teacher's
// Kruskal implementation uses to merge MST components, repurposed here
// to merge co-located vertices instead of accumulating tree weight.
type clusterSet struct {
	parent map[string]string
	rank   map[string]int
}

func newClusterSet(vertices []string) *clusterSet {
	cs := &clusterSet{parent: map[string]string{}, rank: map[string]int{}}
	for _, v := range vertices {
		cs.parent[v] = v
		cs.rank[v] = 0
	}
	return cs
}

func (cs *clusterSet) find(u string) string {
	for cs.parent[u] != u {
		cs.parent[u] = cs.parent[cs.parent[u]]
		u = cs.parent[u]
	}
	return u
}

func (cs *clusterSet) union(u, v string) {
	ru, rv := cs.find(u), cs.find(v)
	if ru == rv {
		return
	}
	if cs.rank[ru] < cs.rank[rv] {
		cs.parent[ru] = rv
	} else {
		cs.parent[rv] = ru
		if cs.rank[ru] == cs.rank[rv] {
			cs.rank[ru]++
		}
	}
}

// clusters returns the deterministic (sorted) list of cluster
// representative IDs and a vertex->representative map.
func (cs *clusterSet) clusters() (reps []string, memberOf map[string]string) {
	memberOf = make(map[string]string, len(cs.parent))
	seen := map[string]bool{}
	for v := range cs.parent {
		r := cs.find(v)
		memberOf[v] = r
		if !seen[r] {
			seen[r] = true
			reps = append(reps, r)
		}
	}
	sort.Strings(reps)
	return reps, memberOf
}

// buildClusters merges groupingConstraints (explicit grouping sets) and
// async-mmap edge endpoints into union-find clusters over graph's
// vertices. Each cluster is floorplanned as a single unit: all its
// members share one leaf slot (§4.2 "grouping adds equality... async-mmap
// edges... effectively force their endpoints together").
func buildClusters(graph *dataflow.Graph, groupingConstraints [][]string) *clusterSet {
	cs := newClusterSet(graph.Vertices())
	for _, group := range groupingConstraints {
		for i := 1; i < len(group); i++ {
			cs.union(group[0], group[i])
		}
	}
	for _, eName := range graph.Edges() {
		e, _ := graph.Edge(eName)
		if e.Category == dataflow.ASYNC_MMAP {
			cs.union(e.Producer, e.Consumer)
		}
	}
	return cs
}

// clusterArea sums the area of every vertex mapped to representative rep.
func clusterArea(graph *dataflow.Graph, memberOf map[string]string, rep string) device.Resources {
	var area device.Resources
	for _, vName := range graph.Vertices() {
		if memberOf[vName] != rep {
			continue
		}
		v, _ := graph.Vertex(vName)
		area = area.Add(v.Area)
	}
	return area
}

// membersOf returns the sorted vertex names belonging to representative rep.
func membersOf(memberOf map[string]string, rep string) []string {
	var out []string
	for v, r := range memberOf {
		if r == rep {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
