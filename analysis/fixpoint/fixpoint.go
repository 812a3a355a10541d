// Package fixpoint implements the interprocedural propagation described in
// spec.md §4.9: per-function local graphs seeded from FuncSummary edges,
// grown with synthetic edges lifted across callsites from callee effects,
// converged by a canonical FIFO worklist over the mapped call graph.
package fixpoint

import (
	"container/list"
	"errors"
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/callgraph"
	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/cheap"
	"github.com/jsflow-dev/jsflow/analysis/config"
	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/graphutil"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/ir"
	"github.com/jsflow-dev/jsflow/analysis/summary"
)

// Failure modes, spec.md §4.9/§7: any node in the mapped graph without an IR
// or summary is fatal.
var (
	ErrMissingIR        = errors.New("fixpoint: missing IR for a function in the mapped call graph")
	ErrMissingSummary   = errors.New("fixpoint: missing summary for a function in the mapped call graph")
	ErrMaxStepsExceeded = errors.New("fixpoint: maxSteps exceeded before convergence")
)

// FuncState is the currently computed local fact set for one function: each
// entry is a (source, target) pair where source ∈ {var(param), heap_read}
// and target ∈ {return, call_arg, heap_write}, reachable from source in the
// function's local graph including synthetic lifted edges. Facts is kept
// sorted and de-duplicated so two states can be compared by key list alone.
type FuncState struct {
	FuncID ids.FuncId
	Facts  []flow.Edge
}

func (s *FuncState) keys() []string {
	out := make([]string, len(s.Facts))
	for i, f := range s.Facts {
		out[i] = f.Key()
	}
	return out
}

func sameFacts(a, b *FuncState) bool {
	ak, bk := a.keys(), b.keys()
	if len(ak) != len(bk) {
		return false
	}
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
	}
	return true
}

// Inputs bundles the immutable per-function artifacts the fixpoint reads.
// Every function named by a node in Mapped must have an entry in both IRs
// and Summaries.
type Inputs struct {
	Mapped    []callgraph.MappedCallEdge
	IRs       map[ids.FuncId]*ir.FuncIR
	Summaries map[ids.FuncId]*summary.FuncSummary
	Baselines map[ids.FuncId]*cheap.Result
	Cfg       *config.AnalysisConfig
}

// Result is the fixpoint's converged output.
type Result struct {
	States map[ids.FuncId]*FuncState
	Steps  int
}

// Run executes the worklist until every function's fact-key list stabilizes
// or MaxSteps is exceeded (spec.md §4.9: monotone fact-set growth over a
// finite lattice guarantees termination within bounds).
func Run(in *Inputs) (*Result, error) {
	cfg := in.Cfg
	if cfg == nil {
		cfg = config.Default()
	}

	funcSet := map[ids.FuncId]bool{}
	for f := range in.Summaries {
		funcSet[f] = true
	}
	for _, e := range in.Mapped {
		funcSet[e.CallerFuncId] = true
		funcSet[e.CalleeFuncId] = true
	}
	var funcs []ids.FuncId
	for f := range funcSet {
		funcs = append(funcs, f)
	}
	funcs = canon.StableSort(funcs, func(a, b ids.FuncId) bool { return a.Compare(b) < 0 })

	for _, f := range funcs {
		if _, ok := in.IRs[f]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingIR, f)
		}
		if _, ok := in.Summaries[f]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSummary, f)
		}
	}

	calleesOf := groupCallees(in.Mapped)
	callersByCallee := groupCallers(in.Mapped)

	states := make(map[ids.FuncId]*FuncState, len(funcs))
	for _, f := range funcs {
		states[f] = &FuncState{FuncID: f}
	}

	queued := make(map[ids.FuncId]bool, len(funcs))
	q := list.New()
	for _, f := range funcs {
		q.PushBack(f)
		queued[f] = true
	}

	maxSteps := cfg.EffectiveMaxSteps()
	steps := 0
	for q.Len() > 0 {
		if steps >= maxSteps {
			return nil, fmt.Errorf("%w: after %d steps", ErrMaxStepsExceeded, steps)
		}
		steps++

		front := q.Front()
		q.Remove(front)
		f := front.Value.(ids.FuncId)
		queued[f] = false

		newState, err := recompute(f, in.IRs[f], in.Summaries[f], in.Baselines[f], calleesOf, states)
		if err != nil {
			return nil, err
		}

		if !sameFacts(states[f], newState) {
			states[f] = newState
			for _, caller := range callersByCallee[f] {
				if !queued[caller] {
					q.PushBack(caller)
					queued[caller] = true
				}
			}
		}
	}

	return &Result{States: states, Steps: steps}, nil
}

func recompute(f ids.FuncId, fir *ir.FuncIR, fsum *summary.FuncSummary, baseline *cheap.Result,
	calleesOf map[ids.CallsiteId][]ids.FuncId, states map[ids.FuncId]*FuncState) (*FuncState, error) {

	lg := graphutil.NewLocalGraph()
	all := make([]flow.Edge, 0, len(fsum.Edges))
	for _, e := range fsum.Edges {
		lg.AddEdge(e.From, e.To)
		all = append(all, e)
	}

	for _, s := range fir.Stmts {
		if s.Kind != ir.StmtCall {
			continue
		}
		for _, g := range calleesOf[s.Anchor] {
			gState := states[g]
			if gState == nil {
				continue
			}
			all = append(all, liftCallEffects(f, s, g, gState, baseline, lg)...)
		}
	}

	sources := candidateSources(all)
	var facts []flow.Edge
	for _, src := range sources {
		for _, v := range lg.Reachable(src) {
			if v.Kind == flow.NodeReturn || v.Kind == flow.NodeCallArg || v.Kind == flow.NodeHeapWrite {
				facts = append(facts, flow.Edge{From: src, To: v})
			}
		}
	}

	return &FuncState{FuncID: f, Facts: dedupSortEdges(facts)}, nil
}

// liftCallEffects applies the four lifting rules of spec.md §4.9 for one
// callsite s in caller f whose callee g's currently computed state is
// gState, adding the resulting synthetic edges to lg and returning them for
// the caller's candidate-source scan.
func liftCallEffects(f ids.FuncId, s ir.Stmt, g ids.FuncId, gState *FuncState, baseline *cheap.Result, lg *graphutil.LocalGraph) []flow.Edge {
	var lifted []flow.Edge
	add := func(e flow.Edge) {
		lg.AddEdge(e.From, e.To)
		lifted = append(lifted, e)
	}

	if s.HasDst {
		dst := flow.VarNode(s.Dst)
		for i := range paramReturn(gState) {
			if i < len(s.Args) {
				add(flow.Edge{From: flow.CallArgNode(s.Anchor, i), To: dst})
			}
		}
		for _, hrr := range heapReadReturns(g, gState) {
			if anchor, ok := callerArgAnchor(s, hrr.anchorParam, baseline); ok {
				add(flow.Edge{From: flow.HeapReadNode(ids.NewHeapId(anchor, hrr.prop)), To: dst})
			}
		}
	}

	for _, phw := range paramHeapWrites(g, gState) {
		if anchor, ok := callerArgAnchor(s, phw.anchorParam, baseline); ok {
			add(flow.Edge{From: flow.CallArgNode(s.Anchor, phw.srcParam), To: flow.HeapWriteNode(ids.NewHeapId(anchor, phw.prop))})
		}
	}

	for _, hrw := range heapReadHeapWrites(g, gState) {
		rAnchor, rok := callerArgAnchor(s, hrw.readParam, baseline)
		wAnchor, wok := callerArgAnchor(s, hrw.writeParam, baseline)
		if rok && wok {
			add(flow.Edge{From: flow.HeapReadNode(ids.NewHeapId(rAnchor, hrw.readProp)), To: flow.HeapWriteNode(ids.NewHeapId(wAnchor, hrw.writeProp))})
		}
	}

	return lifted
}

// callerArgAnchor returns the caller's current heap anchor for the argument
// variable at position argIndex of callsite s, i.e. anchor_F(a_k).
func callerArgAnchor(s ir.Stmt, argIndex int, baseline *cheap.Result) (ids.StmtId, bool) {
	if argIndex < 0 || argIndex >= len(s.Args) {
		return ids.StmtId{}, false
	}
	a := s.Args[argIndex]
	if !a.IsVar() {
		return ids.StmtId{}, false
	}
	return baseline.Anchors.Get(a.Var)
}

// isSeedSource reports whether n is one of the two source kinds spec.md
// §4.9 seeds local reachability from: a parameter var node or a heap-read
// node. A local var node (e.g. the v0 the cheap pass emits var(v0)→return
// from for `return v`) satisfies flow.Node.CanBeSource (it's a legal edge
// endpoint) but is not itself a fact source — only params and heap reads
// are.
func isSeedSource(n flow.Node) bool {
	if n.Kind == flow.NodeVar {
		return n.Var.IsParam
	}
	return n.Kind == flow.NodeHeapRead
}

func candidateSources(edges []flow.Edge) []flow.Node {
	seen := map[string]flow.Node{}
	for _, e := range edges {
		if isSeedSource(e.From) {
			seen[e.From.Key()] = e.From
		}
	}
	out := make([]flow.Node, 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	return canon.StableSort(out, func(a, b flow.Node) bool { return a.Compare(b) < 0 })
}

func dedupSortEdges(edges []flow.Edge) []flow.Edge {
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

func groupCallees(mapped []callgraph.MappedCallEdge) map[ids.CallsiteId][]ids.FuncId {
	out := map[ids.CallsiteId][]ids.FuncId{}
	for _, e := range mapped {
		out[e.CallsiteId] = append(out[e.CallsiteId], e.CalleeFuncId)
	}
	for k, v := range out {
		out[k] = canon.StableSort(v, func(a, b ids.FuncId) bool { return a.Compare(b) < 0 })
	}
	return out
}

func groupCallers(mapped []callgraph.MappedCallEdge) map[ids.FuncId][]ids.FuncId {
	raw := map[ids.FuncId][]ids.FuncId{}
	for _, e := range mapped {
		raw[e.CalleeFuncId] = append(raw[e.CalleeFuncId], e.CallerFuncId)
	}
	out := make(map[ids.FuncId][]ids.FuncId, len(raw))
	for callee, callers := range raw {
		seen := map[ids.FuncId]bool{}
		var dedup []ids.FuncId
		for _, c := range callers {
			if !seen[c] {
				seen[c] = true
				dedup = append(dedup, c)
			}
		}
		out[callee] = canon.StableSort(dedup, func(a, b ids.FuncId) bool { return a.Compare(b) < 0 })
	}
	return out
}
