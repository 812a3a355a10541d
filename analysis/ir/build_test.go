package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jsflow-dev/jsflow/analysis/frontend"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/ir"
)

func mustFuncId(t *testing.T, path string, start, end int) ids.FuncId {
	t.Helper()
	id, err := ids.NewFuncId(path, start, end)
	if err != nil {
		t.Fatalf("NewFuncId: %v", err)
	}
	return id
}

func ident(name string) *frontend.ExprNode {
	return &frontend.ExprNode{Kind: frontend.KindIdentifier, Name: name}
}

func TestBuildIdentityReturn(t *testing.T) {
	fid := mustFuncId(t, "a.ts", 0, 40)
	fn := &frontend.FuncNode{
		Span:   frontend.Span{Start: 0, End: 40},
		Params: []string{"x"},
		Body: []*frontend.StmtNode{
			{Kind: frontend.KindReturn, Value: ident("x")},
		},
	}
	got, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ir.Validate(got); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := &ir.FuncIR{
		SchemaVersion: ir.SchemaVersion,
		FuncID:        fid,
		Params:        []ids.VarId{ids.Param(0)},
		Stmts: []ir.Stmt{
			{
				Anchor:   ids.MustParseStmtId(mustStmtId(t, fid, 0)),
				Kind:     ir.StmtReturn,
				HasValue: true,
				Value:    ir.Var(ids.Param(0)),
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected FuncIR (-want +got):\n%s", diff)
	}
}

func mustStmtId(t *testing.T, f ids.FuncId, idx int) string {
	t.Helper()
	id, err := ids.NewStmtId(f, idx)
	if err != nil {
		t.Fatalf("NewStmtId: %v", err)
	}
	return id.String()
}

func TestBuildCallWithDestination(t *testing.T) {
	fid := mustFuncId(t, "a.ts", 0, 40)
	fn := &frontend.FuncNode{
		Params: []string{"x"},
		Body: []*frontend.StmtNode{
			{
				Kind:          frontend.KindAssign,
				TargetName:    "v",
				IsDeclaration: true,
				Value: &frontend.ExprNode{
					Kind:   frontend.KindCallExpr,
					Callee: ident("b"),
					Args:   []*frontend.ExprNode{ident("x")},
				},
			},
			{Kind: frontend.KindReturn, Value: ident("v")},
		},
	}
	got, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ir.Validate(got); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(got.Locals) != 1 || got.Locals[0] != ids.Local(0) {
		t.Fatalf("expected one local v0, got %v", got.Locals)
	}
	call := got.Stmts[0]
	if call.Kind != ir.StmtCall || !call.HasDst || call.Dst != ids.Local(0) {
		t.Fatalf("unexpected call statement: %+v", call)
	}
	if call.Callee.Kind != ir.RVUnknown || len(call.Args) != 1 || !call.Args[0].IsVar() || call.Args[0].Var != ids.Param(0) {
		t.Fatalf("unexpected call shape: %+v", call)
	}
	ret := got.Stmts[1]
	if ret.Kind != ir.StmtReturn || !ret.Value.IsVar() || ret.Value.Var != ids.Local(0) {
		t.Fatalf("unexpected return statement: %+v", ret)
	}
}

func TestBuildFlattenedReturnOfCallUsesTemp(t *testing.T) {
	// `return f(x);` arrives pre-flattened by the frontend as a temp
	// assignment followed by a plain return, per analysis/frontend's
	// contract; the builder never special-cases a call directly inside a
	// return.
	fid := mustFuncId(t, "a.ts", 0, 40)
	fn := &frontend.FuncNode{
		Params: []string{"x"},
		Body: []*frontend.StmtNode{
			{
				Kind: frontend.KindAssign, TargetName: "%t0", IsDeclaration: true,
				Value: &frontend.ExprNode{Kind: frontend.KindCallExpr, Callee: ident("f"), Args: []*frontend.ExprNode{ident("x")}},
			},
			{Kind: frontend.KindReturn, Value: ident("%t0")},
		},
	}
	got, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ir.Validate(got); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.Stmts[0].Kind != ir.StmtCall || got.Stmts[1].Kind != ir.StmtReturn {
		t.Fatalf("unexpected statement kinds: %v, %v", got.Stmts[0].Kind, got.Stmts[1].Kind)
	}
	if got.Stmts[1].Value.Var != got.Stmts[0].Dst {
		t.Fatalf("expected return to read the call's temp destination")
	}
}

func TestBuildMemberWriteAndDynamicKey(t *testing.T) {
	fid := mustFuncId(t, "a.ts", 0, 40)
	fn := &frontend.FuncNode{
		Params: []string{"obj", "key", "val"},
		Body: []*frontend.StmtNode{
			{
				Kind:   frontend.KindMemberWrite,
				Object: ident("obj"),
				PropertyName: "", PropertyIsDynamic: true,
				Value: ident("val"),
			},
		},
	}
	got, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ir.Validate(got); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	w := got.Stmts[0]
	if w.Kind != ir.StmtMemberWrite || !w.PropertyIsDynamic || !w.Object.IsVar() || !w.Src.IsVar() {
		t.Fatalf("unexpected member write: %+v", w)
	}
}

func TestBuildConditionalAndShortCircuit(t *testing.T) {
	fid := mustFuncId(t, "a.ts", 0, 40)
	fn := &frontend.FuncNode{
		Params: []string{"a", "b", "c"},
		Body: []*frontend.StmtNode{
			{
				Kind: frontend.KindAssign, TargetName: "s", IsDeclaration: true,
				Value: &frontend.ExprNode{Kind: frontend.KindConditional, Cond: ident("a"), Then: ident("b"), ElseExpr: ident("c")},
			},
			{
				Kind: frontend.KindAssign, TargetName: "n", IsDeclaration: true,
				Value: &frontend.ExprNode{Kind: frontend.KindNullishCoalesce, Lhs: ident("a"), Rhs: ident("b")},
			},
		},
	}
	got, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ir.Validate(got); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.Stmts[0].Kind != ir.StmtSelect {
		t.Fatalf("expected select, got %v", got.Stmts[0].Kind)
	}
	if got.Stmts[1].Kind != ir.StmtShortCircuit || got.Stmts[1].Op != "??" {
		t.Fatalf("expected ?? short_circuit, got %+v", got.Stmts[1])
	}
}

func TestBuildNullishCoalesceOverMemberAccessLowersToMemberRead(t *testing.T) {
	// `function g(obj){ const v = obj?.value ?? "d"; return v; }` — spec.md
	// §4.4/§8 scenario 4: a `??` whose left operand is a member access peels
	// to a member_read of the optional access, not a short_circuit over a
	// degraded-to-unknown operand.
	fid := mustFuncId(t, "g.ts", 0, 40)
	fn := &frontend.FuncNode{
		Params: []string{"obj"},
		Body: []*frontend.StmtNode{
			{
				Kind: frontend.KindAssign, TargetName: "v", IsDeclaration: true,
				Value: &frontend.ExprNode{
					Kind: frontend.KindNullishCoalesce,
					Lhs: &frontend.ExprNode{
						Kind: frontend.KindMemberAccess, Object: ident("obj"),
						PropertyName: "value", Optional: true,
					},
					Rhs: &frontend.ExprNode{Kind: frontend.KindStringLiteral, StringValue: "d"},
				},
			},
			{Kind: frontend.KindReturn, Value: ident("v")},
		},
	}
	got, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ir.Validate(got); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	read := got.Stmts[0]
	if read.Kind != ir.StmtMemberRead {
		t.Fatalf("expected member_read, got %v", read.Kind)
	}
	if !read.Object.IsVar() || read.Object.Var != ids.Param(0) {
		t.Fatalf("expected member_read object to be param obj, got %+v", read.Object)
	}
	if read.PropertyName != "value" || read.PropertyIsDynamic {
		t.Fatalf("unexpected property: %q dynamic=%v", read.PropertyName, read.PropertyIsDynamic)
	}
	if !read.Optional {
		t.Fatalf("expected Optional to carry the `?.` through")
	}
	if read.Dst != ids.Local(0) {
		t.Fatalf("expected dst local v0, got %v", read.Dst)
	}
}

func TestBuildNestedCallArgumentDegradesToUnknown(t *testing.T) {
	fid := mustFuncId(t, "a.ts", 0, 40)
	fn := &frontend.FuncNode{
		Params: []string{"x"},
		Body: []*frontend.StmtNode{
			{
				Kind: frontend.KindBareCall,
				Callee: ident("f"),
				Args: []*frontend.ExprNode{
					{Kind: frontend.KindCallExpr, Callee: ident("g"), Args: []*frontend.ExprNode{ident("x")}},
				},
			},
		},
	}
	got, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got.Stmts[0].Args[0].Kind != ir.RVUnknown {
		t.Fatalf("expected nested call argument to degrade to unknown, got %+v", got.Stmts[0].Args[0])
	}
}

func TestValidateRejectsForeignAnchor(t *testing.T) {
	fidA := mustFuncId(t, "a.ts", 0, 40)
	fidB := mustFuncId(t, "a.ts", 50, 90)
	bad := &ir.FuncIR{
		SchemaVersion: ir.SchemaVersion,
		FuncID:        fidA,
		Stmts: []ir.Stmt{
			{Anchor: ids.MustParseStmtId(mustStmtId(t, fidB, 0)), Kind: ir.StmtReturn},
		},
	}
	if err := ir.Validate(bad); err == nil {
		t.Fatalf("expected error for statement anchored to a foreign function")
	}
}

func TestValidateRejectsUndeclaredVarReference(t *testing.T) {
	fid := mustFuncId(t, "a.ts", 0, 40)
	bad := &ir.FuncIR{
		SchemaVersion: ir.SchemaVersion,
		FuncID:        fid,
		Stmts: []ir.Stmt{
			{Anchor: ids.MustParseStmtId(mustStmtId(t, fid, 0)), Kind: ir.StmtReturn, HasValue: true, Value: ir.Var(ids.Local(0))},
		},
	}
	if err := ir.Validate(bad); err == nil {
		t.Fatalf("expected error for reference to undeclared local")
	}
}
