package pipeline_test

import (
	"testing"

	"github.com/jsflow-dev/jsflow/analysis/cache"
	"github.com/jsflow-dev/jsflow/analysis/callgraph"
	"github.com/jsflow-dev/jsflow/analysis/config"
	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/frontend"
	"github.com/jsflow-dev/jsflow/analysis/pipeline"
)

func buildTwoHopProgramAndGraph() (*frontend.Program, *callgraph.ExternalGraph) {
	prog := &frontend.Program{Files: []*frontend.SourceFile{{
		FilePath: "src/main.ts",
		Funcs: []*frontend.FuncNode{
			{
				Span:   frontend.Span{Start: 0, End: 90},
				Name:   "a",
				Params: []string{"x"},
				Body: []*frontend.StmtNode{
					{Span: frontend.Span{Start: 10, End: 20}, Kind: frontend.KindAssign, TargetName: "v", IsDeclaration: true,
						Value: &frontend.ExprNode{Kind: frontend.KindCallExpr, Callee: ident("b"), Args: []*frontend.ExprNode{ident("x")}}},
					{Span: frontend.Span{Start: 30, End: 40}, Kind: frontend.KindReturn, Value: ident("v")},
				},
			},
			{
				Span:   frontend.Span{Start: 100, End: 190},
				Name:   "b",
				Params: []string{"y"},
				Body:   []*frontend.StmtNode{{Kind: frontend.KindReturn, Value: ident("y")}},
			},
		},
	}}}

	cg := &callgraph.ExternalGraph{
		SchemaVersion: 1,
		Nodes: []callgraph.ExternalNode{
			{ID: "a", ExternalSpan: callgraph.ExternalSpan{FilePath: "src/main.ts", StartOffset: 0, EndOffset: 90}},
			{ID: "b", ExternalSpan: callgraph.ExternalSpan{FilePath: "src/main.ts", StartOffset: 100, EndOffset: 190}},
		},
		Edges: []callgraph.ExternalEdge{
			{CallerID: "a", CalleeID: "b", Kind: "call", Callsite: callgraph.ExternalSpan{FilePath: "src/main.ts", StartOffset: 10, EndOffset: 20}},
		},
	}
	return prog, cg
}

func ident(name string) *frontend.ExprNode {
	return &frontend.ExprNode{Kind: frontend.KindIdentifier, Name: name}
}

// Scenario 4 of spec.md §8: function g(obj){ const v = obj?.value ?? "d";
// return v; }. The `??`'s left operand is a member access, so it lowers to
// a member_read rather than degrading to unknown; the cheap pass emits
// heap_read(synth(g,0),"value")→var(v0) and var(v0)→return(g), and the run
// yields the single fact heap_read(synth(g,0),"value")→return(g).
func TestRunOptionalChainNullishCoalesceProducesHeapReadReturnFact(t *testing.T) {
	prog := &frontend.Program{Files: []*frontend.SourceFile{{
		FilePath: "src/main.ts",
		Funcs: []*frontend.FuncNode{{
			Span:   frontend.Span{Start: 0, End: 90},
			Name:   "g",
			Params: []string{"obj"},
			Body: []*frontend.StmtNode{
				{
					Span: frontend.Span{Start: 10, End: 40}, Kind: frontend.KindAssign,
					TargetName: "v", IsDeclaration: true,
					Value: &frontend.ExprNode{
						Kind: frontend.KindNullishCoalesce,
						Lhs: &frontend.ExprNode{
							Kind: frontend.KindMemberAccess, Object: ident("obj"),
							PropertyName: "value", Optional: true,
						},
						Rhs: &frontend.ExprNode{Kind: frontend.KindStringLiteral, StringValue: "d"},
					},
				},
				{Span: frontend.Span{Start: 50, End: 60}, Kind: frontend.KindReturn, Value: ident("v")},
			},
		}},
	}}}

	cg := &callgraph.ExternalGraph{
		SchemaVersion: 1,
		Nodes: []callgraph.ExternalNode{
			{ID: "g", ExternalSpan: callgraph.ExternalSpan{FilePath: "src/main.ts", StartOffset: 0, EndOffset: 90}},
		},
	}

	cfg := config.Default()
	log := config.NewLogGroup(cfg)
	defer log.Sync()

	result, err := pipeline.Run(cfg, log, cache.NewMemStore(), prog, cg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Diagnostics.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", result.Diagnostics.Sorted())
	}

	sorted := result.Facts.Sorted()
	if len(sorted) != 1 {
		t.Fatalf("expected exactly 1 fact (heap_read(value)->return), got %d: %v", len(sorted), sorted)
	}
	if sorted[0].From.Kind != flow.NodeHeapRead || sorted[0].To.Kind != flow.NodeReturn {
		t.Fatalf("expected heap_read->return fact, got %+v", sorted[0])
	}
	if sorted[0].From.Heap.Property != "value" {
		t.Fatalf("expected heap read on property %q, got %q", "value", sorted[0].From.Heap.Property)
	}
}

// Scenario 2 of spec.md §8, run end-to-end through the pipeline: function
// b(y){return y;} and function a(x){ const v=b(x); return v; }.
func TestRunTwoHopParamPropagation(t *testing.T) {
	prog, cg := buildTwoHopProgramAndGraph()

	cfg := config.Default()
	log := config.NewLogGroup(cfg)
	defer log.Sync()

	result, err := pipeline.Run(cfg, log, cache.NewMemStore(), prog, cg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Diagnostics.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", result.Diagnostics.Sorted())
	}

	sorted := result.Facts.Sorted()
	if len(sorted) != 3 {
		t.Fatalf("expected 3 facts (2 from a, 1 from b), got %d: %v", len(sorted), sorted)
	}

	if len(result.Witnesses) != 1 {
		t.Fatalf("expected 1 witness record, got %d", len(result.Witnesses))
	}
	if len(result.Explain) != 2 {
		t.Fatalf("expected 2 explain entries, got %d", len(result.Explain))
	}
}

// Scenario 6 of spec.md §8: re-running with a warm, disk-backed cache
// produces byte-identical facts, since a cache hit skips re-running the
// normalizer entirely and the normalizer is itself deterministic.
func TestRunIsDeterministicAcrossCacheBackedReruns(t *testing.T) {
	cfg := config.Default()
	log := config.NewLogGroup(cfg)
	defer log.Sync()

	store := cache.NewDiskStore(t.TempDir())

	prog1, cg1 := buildTwoHopProgramAndGraph()
	first, err := pipeline.Run(cfg, log, store, prog1, cg1)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}

	prog2, cg2 := buildTwoHopProgramAndGraph()
	second, err := pipeline.Run(cfg, log, store, prog2, cg2)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	firstSorted, secondSorted := first.Facts.Sorted(), second.Facts.Sorted()
	if len(firstSorted) != len(secondSorted) {
		t.Fatalf("fact count differs across runs: %d vs %d", len(firstSorted), len(secondSorted))
	}
	for i := range firstSorted {
		if firstSorted[i].Key() != secondSorted[i].Key() {
			t.Fatalf("fact %d differs across runs: %s vs %s", i, firstSorted[i].Key(), secondSorted[i].Key())
		}
	}
	if first.Steps != second.Steps {
		t.Fatalf("fixpoint step count differs across runs: %d vs %d", first.Steps, second.Steps)
	}
}
