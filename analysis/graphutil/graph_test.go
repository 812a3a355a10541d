package graphutil_test

import (
	"testing"

	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/graphutil"
	"github.com/jsflow-dev/jsflow/analysis/ids"
)

func TestReachableFollowsTransitiveChain(t *testing.T) {
	lg := graphutil.NewLocalGraph()
	p0 := flow.VarNode(ids.Param(0))
	v0 := flow.VarNode(ids.Local(0))
	ret := flow.ReturnNode()
	lg.AddEdge(p0, v0)
	lg.AddEdge(v0, ret)

	reached := lg.Reachable(p0)
	if len(reached) != 2 {
		t.Fatalf("expected 2 reachable nodes, got %d: %v", len(reached), reached)
	}
	var sawReturn bool
	for _, n := range reached {
		if n.Equal(ret) {
			sawReturn = true
		}
	}
	if !sawReturn {
		t.Fatalf("expected return to be reachable from p0, got %v", reached)
	}
}

func TestReachableUnknownSourceIsNil(t *testing.T) {
	lg := graphutil.NewLocalGraph()
	if got := lg.Reachable(flow.ReturnNode()); got != nil {
		t.Fatalf("expected nil for an unregistered source, got %v", got)
	}
}
