package ir

import (
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/frontend"
	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// builder lowers one function's flattened statement stream into a FuncIR.
// Variable names are resolved against a single flat scope: the frontend does
// not expose block structure, and spec.md's fact generator is not control-
// flow or scope sensitive, so shadowing is not modeled.
type builder struct {
	funcID ids.FuncId
	names  map[string]ids.VarId
	locals []ids.VarId
	thisID ids.VarId
	hasThis bool
}

// Build lowers fn's body into a FuncIR anchored at funcID. It never returns
// an error for malformed input short of an id-space overflow: anything the
// lowering rules cannot resolve degrades to RVUnknown per the rvalue algebra
// (spec.md §9 design note — prefer degraded facts over a crash).
func Build(funcID ids.FuncId, fn *frontend.FuncNode) (*FuncIR, error) {
	b := &builder{
		funcID: funcID,
		names:  make(map[string]ids.VarId, len(fn.Params)+len(fn.Body)),
	}

	params := make([]ids.VarId, 0, len(fn.Params))
	for i, name := range fn.Params {
		v := ids.Param(i)
		params = append(params, v)
		if name != "" {
			b.names[name] = v
		}
	}

	stmts := make([]Stmt, 0, len(fn.Body))
	for i, n := range fn.Body {
		anchor, err := ids.NewStmtId(funcID, i)
		if err != nil {
			return nil, fmt.Errorf("ir: invalid statement anchor in %s: %w", funcID, err)
		}
		s, ok := b.lowerStmt(anchor, n)
		if ok {
			stmts = append(stmts, s)
		}
	}

	return &FuncIR{
		SchemaVersion: SchemaVersion,
		FuncID:        funcID,
		Params:        params,
		Locals:        b.locals,
		Stmts:         stmts,
	}, nil
}

// declare binds name to a freshly allocated local, unless it already denotes
// a param or an earlier local (a redeclaration; harmless, keeps the earlier
// binding).
func (b *builder) declare(name string) ids.VarId {
	if v, ok := b.names[name]; ok {
		return v
	}
	v := ids.Local(len(b.locals))
	b.locals = append(b.locals, v)
	if name != "" {
		b.names[name] = v
	}
	return v
}

// resolveTarget returns the VarId an assignment/declaration target name
// binds to, allocating a defensive fresh local for a reassignment to a name
// the builder has not seen declared (should not occur for a conforming
// frontend, but the builder never fails on it).
func (b *builder) resolveTarget(name string, isDeclaration bool) ids.VarId {
	if isDeclaration {
		return b.declare(name)
	}
	if v, ok := b.names[name]; ok {
		return v
	}
	return b.declare(name)
}

// thisVar returns the single receiver local for `this`, allocating it on
// first use: unlike every other local, it has no source declaration site to
// key off of.
func (b *builder) thisVar() ids.VarId {
	if !b.hasThis {
		b.thisID = ids.Local(len(b.locals))
		b.locals = append(b.locals, b.thisID)
		b.hasThis = true
	}
	return b.thisID
}

// lowerStmt lowers one flattened statement site. ok is false for sites that
// consume a StmtId but produce no IR statement (spec.md's control-flow
// wrapper sites).
func (b *builder) lowerStmt(anchor ids.StmtId, n *frontend.StmtNode) (Stmt, bool) {
	switch n.Kind {
	case frontend.KindAssign:
		return b.lowerAssign(anchor, n)
	case frontend.KindBareCall:
		return Stmt{
			Anchor: anchor,
			Kind:   StmtCall,
			HasDst: false,
			Callee: b.rvalue(n.Callee),
			Args:   b.rvalues(n.Args),
		}, true
	case frontend.KindBareAwait:
		return Stmt{
			Anchor: anchor,
			Kind:   StmtAwait,
			HasDst: false,
			Src:    b.rvalue(n.Value),
		}, true
	case frontend.KindReturn:
		return Stmt{
			Anchor:   anchor,
			Kind:     StmtReturn,
			HasValue: n.Value != nil,
			Value:    b.rvalue(n.Value),
		}, true
	case frontend.KindMemberWrite:
		return Stmt{
			Anchor:            anchor,
			Kind:              StmtMemberWrite,
			Object:            b.rvalue(n.Object),
			PropertyName:      n.PropertyName,
			PropertyIsDynamic: n.PropertyIsDynamic,
			Src:               b.rvalue(n.Value),
		}, true
	default:
		// KindOtherStatement and anything unrecognized: anchors a statement
		// index slot, lowers to no IR statement.
		return Stmt{}, false
	}
}

// lowerAssign dispatches on the shape of the right-hand side. Per the
// lowering table (spec.md §4.4), only `return f(...)` and `await f(...)` get
// explicit temp+call treatment, and the frontend is responsible for
// flattening those into a temp assignment followed by a plain return/await
// before this package ever sees them; every other call/new/literal/member/
// conditional/logical shape reachable directly as an assign's RHS lowers
// here.
func (b *builder) lowerAssign(anchor ids.StmtId, n *frontend.StmtNode) (Stmt, bool) {
	dst := b.resolveTarget(n.TargetName, n.IsDeclaration)
	v := n.Value
	if v == nil {
		return Stmt{Anchor: anchor, Kind: StmtAssign, Dst: dst, Src: Undef()}, true
	}
	switch v.Kind {
	case frontend.KindCallExpr:
		return Stmt{
			Anchor: anchor,
			Kind:   StmtCall,
			Dst:    dst,
			HasDst: true,
			Callee: b.rvalue(v.Callee),
			Args:   b.rvalues(v.Args),
		}, true
	case frontend.KindNewExpr:
		return Stmt{
			Anchor:         anchor,
			Kind:           StmtAlloc,
			Dst:            dst,
			AllocKindValue: AllocNew,
			Ctor:           b.rvalue(v.Callee),
			HasCtor:        true,
			Args:           b.rvalues(v.Args),
		}, true
	case frontend.KindObjectLiteral:
		return Stmt{Anchor: anchor, Kind: StmtAlloc, Dst: dst, AllocKindValue: AllocObjectLiteral}, true
	case frontend.KindArrayLiteral:
		return Stmt{Anchor: anchor, Kind: StmtAlloc, Dst: dst, AllocKindValue: AllocArrayLiteral}, true
	case frontend.KindMemberAccess, frontend.KindIndexAccess:
		return Stmt{
			Anchor:            anchor,
			Kind:              StmtMemberRead,
			Dst:               dst,
			Object:            b.rvalue(v.Object),
			PropertyName:      v.PropertyName,
			PropertyIsDynamic: v.PropertyIsDynamic,
			Optional:          v.Optional,
		}, true
	case frontend.KindConditional:
		return Stmt{
			Anchor: anchor,
			Kind:   StmtSelect,
			Dst:    dst,
			Cond:   b.rvalue(v.Cond),
			Then:   b.rvalue(v.Then),
			Else:   b.rvalue(v.ElseExpr),
		}, true
	case frontend.KindLogicalAnd:
		return b.shortCircuit(anchor, dst, "&&", v), true
	case frontend.KindLogicalOr:
		return b.shortCircuit(anchor, dst, "||", v), true
	case frontend.KindNullishCoalesce:
		// `x = obj?.p ?? d`: spec.md §4.4 peels a `??` whose left operand is
		// a member/index access into a member_read rather than degrading
		// the access to unknown inside a short_circuit rvalue — the `?.`
		// optionality, if present, carries onto the read.
		if lhs := v.Lhs; lhs != nil && (lhs.Kind == frontend.KindMemberAccess || lhs.Kind == frontend.KindIndexAccess) {
			return Stmt{
				Anchor:            anchor,
				Kind:              StmtMemberRead,
				Dst:               dst,
				Object:            b.rvalue(lhs.Object),
				PropertyName:      lhs.PropertyName,
				PropertyIsDynamic: lhs.PropertyIsDynamic,
				Optional:          lhs.Optional,
			}, true
		}
		return b.shortCircuit(anchor, dst, "??", v), true
	case frontend.KindAwaitExpr:
		return Stmt{
			Anchor: anchor,
			Kind:   StmtAwait,
			Dst:    dst,
			HasDst: true,
			Src:    b.rvalue(v.Awaited),
		}, true
	default:
		return Stmt{Anchor: anchor, Kind: StmtAssign, Dst: dst, Src: b.rvalue(v)}, true
	}
}

func (b *builder) shortCircuit(anchor ids.StmtId, dst ids.VarId, op string, v *frontend.ExprNode) Stmt {
	return Stmt{
		Anchor: anchor,
		Kind:   StmtShortCircuit,
		Dst:    dst,
		Op:     op,
		Lhs:    b.rvalue(v.Lhs),
		Rhs:    b.rvalue(v.Rhs),
	}
}

func (b *builder) rvalues(exprs []*frontend.ExprNode) []RValue {
	if len(exprs) == 0 {
		return nil
	}
	out := make([]RValue, len(exprs))
	for i, e := range exprs {
		out[i] = b.rvalue(e)
	}
	return out
}

// rvalue converts an expression appearing in a non-table-recognized position
// (a call/alloc argument, a select branch, a short-circuit operand) to the
// closed rvalue algebra: a direct identifier or `this` becomes var(), a
// literal becomes the matching lit, and everything else — including a
// nested call, since spec.md's lowering table does not recurse into
// argument positions — degrades to unknown.
func (b *builder) rvalue(e *frontend.ExprNode) RValue {
	if e == nil {
		return Undef()
	}
	switch e.Kind {
	case frontend.KindIdentifier:
		if v, ok := b.names[e.Name]; ok {
			return Var(v)
		}
		return Unknown()
	case frontend.KindThis:
		return Var(b.thisVar())
	case frontend.KindStringLiteral:
		return LitString(e.StringValue)
	case frontend.KindNumberLiteral:
		return LitNumber(e.NumberValue)
	case frontend.KindBoolLiteral:
		return LitBool(e.BoolValue)
	case frontend.KindNullLiteral:
		return LitNull()
	case frontend.KindUndefinedLiteral:
		return Undef()
	default:
		return Unknown()
	}
}
