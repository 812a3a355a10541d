package fixpoint_test

import (
	"testing"

	"github.com/jsflow-dev/jsflow/analysis/callgraph"
	"github.com/jsflow-dev/jsflow/analysis/cheap"
	"github.com/jsflow-dev/jsflow/analysis/config"
	"github.com/jsflow-dev/jsflow/analysis/fixpoint"
	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/frontend"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/ir"
	"github.com/jsflow-dev/jsflow/analysis/summary"
)

func ident(name string) *frontend.ExprNode {
	return &frontend.ExprNode{Kind: frontend.KindIdentifier, Name: name}
}

func buildIR(t *testing.T, file string, start, end int, fn *frontend.FuncNode) *ir.FuncIR {
	t.Helper()
	fid, err := ids.NewFuncId(file, start, end)
	if err != nil {
		t.Fatalf("NewFuncId: %v", err)
	}
	got, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ir.Validate(got); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return ir.Canonicalize(got)
}

func summarize(t *testing.T, f *ir.FuncIR, baseline *cheap.Result) *summary.FuncSummary {
	t.Helper()
	s, err := summary.Normalize(f, baseline, baseline.Edges, config.Default())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return s
}

func hasFact(facts []flow.Edge, want flow.Edge) bool {
	for _, f := range facts {
		if f.Equal(want) {
			return true
		}
	}
	return false
}

// scenario 2 of spec.md §8: function b(y){return y;} and
// function a(x){ const v=b(x); return v; }
func TestTwoHopParamPropagation(t *testing.T) {
	bIR := buildIR(t, "a.ts", 100, 200, &frontend.FuncNode{
		Params: []string{"y"},
		Body:   []*frontend.StmtNode{{Kind: frontend.KindReturn, Value: ident("y")}},
	})
	aIR := buildIR(t, "a.ts", 0, 90, &frontend.FuncNode{
		Params: []string{"x"},
		Body: []*frontend.StmtNode{
			{Kind: frontend.KindAssign, TargetName: "v", IsDeclaration: true,
				Value: &frontend.ExprNode{Kind: frontend.KindCallExpr, Callee: ident("b"), Args: []*frontend.ExprNode{ident("x")}}},
			{Kind: frontend.KindReturn, Value: ident("v")},
		},
	})

	bBaseline := cheap.Run(bIR)
	aBaseline := cheap.Run(aIR)
	bSummary := summarize(t, bIR, bBaseline)
	aSummary := summarize(t, aIR, aBaseline)

	csA0 := aIR.Stmts[0].Anchor
	mapped := []callgraph.MappedCallEdge{
		{CallerFuncId: aIR.FuncID, CalleeFuncId: bIR.FuncID, CallsiteId: csA0},
	}

	result, err := fixpoint.Run(&fixpoint.Inputs{
		Mapped:    mapped,
		IRs:       map[ids.FuncId]*ir.FuncIR{aIR.FuncID: aIR, bIR.FuncID: bIR},
		Summaries: map[ids.FuncId]*summary.FuncSummary{aIR.FuncID: aSummary, bIR.FuncID: bSummary},
		Baselines: map[ids.FuncId]*cheap.Result{aIR.FuncID: aBaseline, bIR.FuncID: bBaseline},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	bFacts := result.States[bIR.FuncID].Facts
	if len(bFacts) != 1 || !hasFact(bFacts, flow.Edge{From: flow.VarNode(ids.Param(0)), To: flow.ReturnNode()}) {
		t.Fatalf("expected b's only fact to be p0->return, got %v", bFacts)
	}

	aFacts := result.States[aIR.FuncID].Facts
	wantCallArg := flow.Edge{From: flow.VarNode(ids.Param(0)), To: flow.CallArgNode(csA0, 0)}
	wantReturn := flow.Edge{From: flow.VarNode(ids.Param(0)), To: flow.ReturnNode()}
	if len(aFacts) != 2 || !hasFact(aFacts, wantCallArg) || !hasFact(aFacts, wantReturn) {
		t.Fatalf("expected a's facts to be exactly {p0->call_arg(csA0,0), p0->return}, got %v", aFacts)
	}
}

// scenario 5 of spec.md §8: caller a(x,y){ setX(x,y); }, callee
// setX(obj,val){ obj.x = val; }
func TestHeapLiftingAcrossCallsite(t *testing.T) {
	setXIR := buildIR(t, "a.ts", 100, 200, &frontend.FuncNode{
		Params: []string{"obj", "val"},
		Body: []*frontend.StmtNode{
			{Kind: frontend.KindMemberWrite, Object: ident("obj"), PropertyName: "x", Value: ident("val")},
		},
	})
	aIR := buildIR(t, "a.ts", 0, 90, &frontend.FuncNode{
		Params: []string{"x", "y"},
		Body: []*frontend.StmtNode{
			{Kind: frontend.KindBareCall, Callee: ident("setX"), Args: []*frontend.ExprNode{ident("x"), ident("y")}},
		},
	})

	setXBaseline := cheap.Run(setXIR)
	aBaseline := cheap.Run(aIR)
	setXSummary := summarize(t, setXIR, setXBaseline)
	aSummary := summarize(t, aIR, aBaseline)

	csA0 := aIR.Stmts[0].Anchor
	mapped := []callgraph.MappedCallEdge{
		{CallerFuncId: aIR.FuncID, CalleeFuncId: setXIR.FuncID, CallsiteId: csA0},
	}

	result, err := fixpoint.Run(&fixpoint.Inputs{
		Mapped:    mapped,
		IRs:       map[ids.FuncId]*ir.FuncIR{aIR.FuncID: aIR, setXIR.FuncID: setXIR},
		Summaries: map[ids.FuncId]*summary.FuncSummary{aIR.FuncID: aSummary, setXIR.FuncID: setXSummary},
		Baselines: map[ids.FuncId]*cheap.Result{aIR.FuncID: aBaseline, setXIR.FuncID: setXBaseline},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	aFacts := result.States[aIR.FuncID].Facts
	wantAnchor := cheap.ParamAnchor(aIR.FuncID, 0)
	want := flow.Edge{From: flow.VarNode(ids.Param(1)), To: flow.HeapWriteNode(ids.NewHeapId(wantAnchor, "x"))}
	if !hasFact(aFacts, want) {
		t.Fatalf("expected a to have the lifted fact p1->heap_write(synth(a,0),\"x\"), got %v", aFacts)
	}
}
