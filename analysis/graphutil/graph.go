// Package graphutil adapts the flow-fact node algebra to gonum's graph
// interfaces, generalizing the teacher's internal/graphutil.CGraph
// (originally an IDMap/int64 adapter over a golang.org/x/tools callgraph)
// to a local, per-function dependency graph over flow.Node labels.
package graphutil

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/jsflow-dev/jsflow/analysis/flow"
)

// labelNode is the minimal graph.Node implementation gonum's simple graph
// requires; the actual flow.Node label lives in LocalGraph's side tables,
// keyed by the same int64 id.
type labelNode struct{ id int64 }

func (n labelNode) ID() int64 { return n.id }

// LocalGraph is a per-function directed graph over flow.Node vertices,
// seeded from a FuncSummary's edges and then grown with synthetic edges
// lifted from callee effects (spec.md §4.9).
type LocalGraph struct {
	g      *simple.DirectedGraph
	idOf   map[string]int64
	nodeOf map[int64]flow.Node
	next   int64
}

// NewLocalGraph returns an empty LocalGraph.
func NewLocalGraph() *LocalGraph {
	return &LocalGraph{
		g:      simple.NewDirectedGraph(),
		idOf:   map[string]int64{},
		nodeOf: map[int64]flow.Node{},
	}
}

func (lg *LocalGraph) idFor(n flow.Node) int64 {
	k := n.Key()
	if id, ok := lg.idOf[k]; ok {
		return id
	}
	id := lg.next
	lg.next++
	lg.idOf[k] = id
	lg.nodeOf[id] = n
	lg.g.AddNode(labelNode{id: id})
	return id
}

// AddEdge records a directed edge from -> to, adding either endpoint as a
// node first if it has not been seen.
func (lg *LocalGraph) AddEdge(from, to flow.Node) {
	u := lg.idFor(from)
	v := lg.idFor(to)
	if u == v {
		return
	}
	lg.g.SetEdge(simple.Edge{F: labelNode{id: u}, T: labelNode{id: v}})
}

// Reachable performs a visited-set breadth-first search from src and
// returns every distinct node reachable from it, excluding src itself. It
// returns nil if src was never added via AddEdge.
func (lg *LocalGraph) Reachable(src flow.Node) []flow.Node {
	id, ok := lg.idOf[src.Key()]
	if !ok {
		return nil
	}
	var out []flow.Node
	seen := map[int64]bool{id: true}
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			nid := n.ID()
			if !seen[nid] {
				seen[nid] = true
				out = append(out, lg.nodeOf[nid])
			}
		},
	}
	bf.Walk(lg.g, labelNode{id: id}, func(graph.Node, int) bool { return false })
	return out
}
