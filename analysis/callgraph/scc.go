package callgraph

import (
	ybgraph "github.com/yourbasic/graph"

	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// mappedGraph adapts a set of MappedCallEdge into the yourbasic/graph
// Iterator interface, the same "int-indexed adjacency map" adapter shape as
// the teacher's internal/graphutil.CGraph over a *callgraph.Graph.
type mappedGraph struct {
	order int
	edges map[int]map[int]bool
}

func (g *mappedGraph) Order() int { return g.order }

func (g *mappedGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for w := range g.edges[v] {
		if do(w, 1) {
			return true
		}
	}
	return false
}

// StronglyConnectedComponents reports, for every FuncId reachable in mapped,
// whether it participates in a call cycle: membership in a strongly
// connected component of size >= 2, or a size-1 component with a direct
// self-call. This is supplemental diagnostic information only — spec.md §9
// already establishes the fixpoint worklist needs no SCC pre-pass to
// converge — used to annotate witness output with a per-step withinCycle
// flag.
func StronglyConnectedComponents(mapped []MappedCallEdge) map[ids.FuncId]bool {
	var funcs []ids.FuncId
	index := map[ids.FuncId]int{}
	nodeOf := func(f ids.FuncId) int {
		if i, ok := index[f]; ok {
			return i
		}
		i := len(funcs)
		index[f] = i
		funcs = append(funcs, f)
		return i
	}

	edges := map[int]map[int]bool{}
	for _, e := range mapped {
		u := nodeOf(e.CallerFuncId)
		v := nodeOf(e.CalleeFuncId)
		if edges[u] == nil {
			edges[u] = map[int]bool{}
		}
		edges[u][v] = true
	}

	g := &mappedGraph{order: len(funcs), edges: edges}
	components := ybgraph.StrongComponents(g)

	within := map[ids.FuncId]bool{}
	for _, comp := range components {
		if len(comp) >= 2 {
			for _, n := range comp {
				within[funcs[n]] = true
			}
			continue
		}
		n := comp[0]
		if edges[n][n] {
			within[funcs[n]] = true
		}
	}
	return within
}
