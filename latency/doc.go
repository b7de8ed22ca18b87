// Package latency implements the latency balancer of §4.4: it assigns
// every stream edge a depth at least as large as its routed hop count
// plus one and its configured nominal depth, chosen so that any two streams
// paths reconverging on the same task instance arrive in lockstep.
//
// The reduction the spec describes — non-negative integer arrival-time
// potentials t_v per vertex, t_v = t_u + hops(e) + 1 + slack_e, minimize
// total slack — collapses to the classic longest-path (critical-path)
// computation over the stream-edge DAG: setting t_v to the maximum
// t_u+hops(e)+1 over incoming stream edges makes every slack as small as
// it can be while staying non-negative, which is the LP's optimum.
// dfs.TopologicalSort (the same topological pass the teacher already
// exposes) gives the visit order the single forward DP pass needs.
package latency
