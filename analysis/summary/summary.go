// Package summary implements the FuncSummary schema and normalizer
// described in spec.md §4.6: validation, de-duplication, canonical sorting,
// bounds enforcement and the baseline-coverage invariant that lets an
// optional LLM extractor add edges but never drop the cheap pass's own
// findings.
package summary

import (
	"errors"
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/cheap"
	"github.com/jsflow-dev/jsflow/analysis/config"
	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/ir"
)

// Failure modes, spec.md §4.6/§7. All are fatal for the summary under
// construction; a hybrid (LLM-assisted) caller may retry with feedback.
var (
	ErrInvalidSchema           = errors.New("summary: invalid schema")
	ErrUndeclaredId            = errors.New("summary: undeclared id")
	ErrOutOfRangeIndex         = errors.New("summary: call_arg index out of range")
	ErrMisplacedNode           = errors.New("summary: node in wrong edge position")
	ErrBoundsExceeded          = errors.New("summary: bounds exceeded")
	ErrBaselineCoverageMissing = errors.New("summary: baseline coverage missing")
)

// SchemaVersion is the current FuncSummary schema version.
const SchemaVersion = 1

// FuncSummary is a normalized set of edges scoped to one function's IR.
type FuncSummary struct {
	SchemaVersion int
	FuncID        ids.FuncId
	Edges         []flow.Edge

	// BaselineCoverage is always "ok": the normalizer fails outright on
	// missing baseline coverage, so by the time a FuncSummary exists this
	// field can only ever hold its one value. Kept as a derived field
	// rather than removed so the explain bundle has somewhere to put it
	// (spec.md §9 design note).
	BaselineCoverage string
}

// callFacts collects, from a FuncIR, the argument count at every callsite —
// needed to bounds-check call_arg.index. The HeapIds a summary may name are
// taken from the baseline edges instead (baselineHeapIds).
type callFacts struct {
	argCount map[ids.CallsiteId]int
}

func collectCallFacts(f *ir.FuncIR) callFacts {
	cf := callFacts{argCount: map[ids.CallsiteId]int{}}
	for _, s := range f.Stmts {
		if s.Kind == ir.StmtCall {
			cf.argCount[s.Anchor] = len(s.Args)
		}
	}
	return cf
}

// Normalize validates candidateEdges against f and baseline, then produces
// the normalized, bounds-enforced FuncSummary. baseline is the cheap pass's
// own result for f; every one of its edges must survive into the returned
// summary (the baseline coverage invariant). cfg supplies maxEdges and
// maxFanoutPerSource; a zero cfg falls back to spec.md's defaults.
func Normalize(f *ir.FuncIR, baseline *cheap.Result, candidateEdges []flow.Edge, cfg *config.AnalysisConfig) (*FuncSummary, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	declared := declaredVars(f)
	cf := collectCallFacts(f)
	baselineHeap := baselineHeapIds(baseline.Edges)

	seen := map[string]flow.Edge{}
	for _, e := range candidateEdges {
		if err := validateEdge(f.FuncID, declared, cf, baselineHeap, e); err != nil {
			return nil, err
		}
		seen[e.Key()] = e
	}

	for _, be := range baseline.Edges {
		if _, ok := seen[be.Key()]; !ok {
			return nil, fmt.Errorf("%w: baseline edge %s missing from candidate summary for %s", ErrBaselineCoverageMissing, be.Key(), f.FuncID)
		}
	}

	edges := make([]flow.Edge, 0, len(seen))
	for _, e := range seen {
		edges = append(edges, e)
	}
	edges = canon.StableSort(edges, func(a, b flow.Edge) bool { return a.Compare(b) < 0 })

	if err := enforceBounds(f.FuncID, edges, cfg); err != nil {
		return nil, err
	}

	return &FuncSummary{
		SchemaVersion:    SchemaVersion,
		FuncID:           f.FuncID,
		Edges:            edges,
		BaselineCoverage: "ok",
	}, nil
}

func declaredVars(f *ir.FuncIR) map[ids.VarId]bool {
	d := make(map[ids.VarId]bool, len(f.Params)+len(f.Locals))
	for _, p := range f.Params {
		d[p] = true
	}
	for _, l := range f.Locals {
		d[l] = true
	}
	return d
}

func baselineHeapIds(edges []flow.Edge) map[ids.HeapId]bool {
	set := map[ids.HeapId]bool{}
	for _, e := range edges {
		if e.From.Kind == flow.NodeHeapRead {
			set[e.From.Heap] = true
		}
		if e.To.Kind == flow.NodeHeapWrite {
			set[e.To.Heap] = true
		}
	}
	return set
}

func validateEdge(funcID ids.FuncId, declared map[ids.VarId]bool, cf callFacts, baselineHeap map[ids.HeapId]bool, e flow.Edge) error {
	if !e.Valid() {
		return fmt.Errorf("%w: edge %s has a node in an illegal position", ErrMisplacedNode, e.Key())
	}
	if err := validateNode(funcID, declared, cf, baselineHeap, e.From); err != nil {
		return err
	}
	return validateNode(funcID, declared, cf, baselineHeap, e.To)
}

func validateNode(funcID ids.FuncId, declared map[ids.VarId]bool, cf callFacts, baselineHeap map[ids.HeapId]bool, n flow.Node) error {
	switch n.Kind {
	case flow.NodeVar:
		if !declared[n.Var] {
			return fmt.Errorf("%w: %s not declared in %s", ErrUndeclaredId, n.Var, funcID)
		}
	case flow.NodeCallArg:
		argc, ok := cf.argCount[n.Callsite]
		if !ok {
			return fmt.Errorf("%w: %s is not a call statement in %s", ErrInvalidSchema, n.Callsite, funcID)
		}
		if n.ArgIndex < 0 || n.ArgIndex >= argc {
			return fmt.Errorf("%w: index %d at callsite %s (argCount=%d)", ErrOutOfRangeIndex, n.ArgIndex, n.Callsite, argc)
		}
	case flow.NodeHeapRead, flow.NodeHeapWrite:
		if !n.Heap.Anchor.Func.Equal(funcID) {
			return fmt.Errorf("%w: heap anchor %s does not belong to %s", ErrInvalidSchema, n.Heap, funcID)
		}
		if !baselineHeap[n.Heap] {
			return fmt.Errorf("%w: heap id %s not reachable by the cheap pass in %s", ErrInvalidSchema, n.Heap, funcID)
		}
	case flow.NodeReturn:
		// no further checks
	default:
		return fmt.Errorf("%w: unrecognized node kind %d", ErrInvalidSchema, n.Kind)
	}
	return nil
}

func enforceBounds(funcID ids.FuncId, edges []flow.Edge, cfg *config.AnalysisConfig) error {
	maxEdges := cfg.EffectiveMaxEdges()
	if len(edges) > maxEdges {
		return fmt.Errorf("%w: %s has %d edges, exceeds maxEdges=%d", ErrBoundsExceeded, funcID, len(edges), maxEdges)
	}
	maxFanout := cfg.EffectiveMaxFanoutPerSource()
	fanout := map[string]int{}
	for _, e := range edges {
		k := e.From.Key()
		fanout[k]++
		if fanout[k] > maxFanout {
			return fmt.Errorf("%w: source %s exceeds maxFanoutPerSource=%d in %s", ErrBoundsExceeded, k, maxFanout, funcID)
		}
	}
	return nil
}
