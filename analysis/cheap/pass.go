package cheap

import (
	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/ir"
)

// Result is the output of running the cheap pass over one function: its
// baseline dependency edges and the final heap-anchor table (consulted by
// the fixpoint when lifting a callee's effects into a caller, spec.md
// §4.9).
type Result struct {
	FuncID  ids.FuncId
	Edges   []flow.Edge
	Anchors *AnchorTable
}

// Run computes the baseline edges and heap anchors for f, per the rules in
// spec.md §4.5. f is assumed to already be normalized (ir.Validate passed,
// ir.Canonicalize applied): statements are walked in ascending StmtId order,
// which for a single function coincides with source order, so anchor
// propagation sees each definition before its uses.
func Run(f *ir.FuncIR) *Result {
	anchors := NewAnchorTable(f.FuncID, f.Params, f.Locals)
	var edges []flow.Edge

	for _, s := range f.Stmts {
		edges = append(edges, stepEdges(f.FuncID, anchors, s)...)
	}

	edges = dedupSort(edges)
	return &Result{FuncID: f.FuncID, Edges: edges, Anchors: anchors}
}

func stepEdges(funcID ids.FuncId, anchors *AnchorTable, s ir.Stmt) []flow.Edge {
	var out []flow.Edge
	switch s.Kind {
	case ir.StmtAssign:
		if s.Src.IsVar() {
			anchors.PropagateFrom(s.Dst, s.Src.Var)
			out = append(out, flow.Edge{From: flow.VarNode(s.Src.Var), To: flow.VarNode(s.Dst)})
		} else {
			anchors.Set(s.Dst, s.Anchor)
		}

	case ir.StmtReturn:
		if s.HasValue && s.Value.IsVar() {
			out = append(out, flow.Edge{From: flow.VarNode(s.Value.Var), To: flow.ReturnNode()})
		}

	case ir.StmtCall:
		for i, a := range s.Args {
			if a.IsVar() {
				out = append(out, flow.Edge{From: flow.VarNode(a.Var), To: flow.CallArgNode(s.Anchor, i)})
			}
		}
		if s.HasDst {
			anchors.Set(s.Dst, s.Anchor)
		}

	case ir.StmtAwait:
		if s.HasDst {
			anchors.Set(s.Dst, s.Anchor)
		}

	case ir.StmtAlloc:
		anchors.Set(s.Dst, s.Anchor)

	case ir.StmtMemberRead:
		var heapEdge flow.Edge
		hasHeapEdge := false
		if s.Object.IsVar() {
			if objAnchor, ok := anchors.Get(s.Object.Var); ok {
				heap := ids.NewHeapId(objAnchor, propertyOf(s.PropertyIsDynamic, s.PropertyName))
				heapEdge, hasHeapEdge = flow.Edge{From: flow.HeapReadNode(heap), To: flow.VarNode(s.Dst)}, true
			}
		}
		anchors.Set(s.Dst, s.Anchor)
		if hasHeapEdge {
			out = append(out, heapEdge)
		}

	case ir.StmtMemberWrite:
		if s.Object.IsVar() && s.Src.IsVar() {
			if objAnchor, ok := anchors.Get(s.Object.Var); ok {
				heap := ids.NewHeapId(objAnchor, propertyOf(s.PropertyIsDynamic, s.PropertyName))
				out = append(out, flow.Edge{From: flow.VarNode(s.Src.Var), To: flow.HeapWriteNode(heap)})
			}
		}

	case ir.StmtSelect:
		anchors.Set(s.Dst, s.Anchor)

	case ir.StmtShortCircuit:
		anchors.Set(s.Dst, s.Anchor)
	}
	return out
}

func propertyOf(dynamic bool, name string) string {
	if dynamic {
		return ids.DynamicProperty
	}
	return name
}

func dedupSort(edges []flow.Edge) []flow.Edge {
	if len(edges) == 0 {
		return nil
	}
	sorted := canon.StableSort(edges, func(a, b flow.Edge) bool { return a.Compare(b) < 0 })
	out := sorted[:0:0]
	var lastKey string
	for i, e := range sorted {
		k := e.Key()
		if i == 0 || k != lastKey {
			out = append(out, e)
			lastKey = k
		}
	}
	return out
}
