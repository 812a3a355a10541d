// Package frontend defines the minimal contract a JS/TS parser frontend must
// satisfy to feed this analysis core. Parsing source text into these shapes
// is explicitly out of scope for the core (spec.md §1); this package only
// types the seam. A conforming frontend produces one Program per analysis
// run, built once and treated as read-only for the remainder of the run.
//
// FuncNode.Body is already the complete, deterministically source-ordered
// flattening of every statement site spec.md §4.3 defines for that function:
// general statement nodes, and every call/new/object-literal/array-literal/
// await expression found anywhere in the body, including nested ones (e.g.
// inside a `return` or a condition) — each gets its own entry with its own
// span, exactly as if the frontend had walked the syntax tree pre-order and
// recorded a site every time the indexing rule fires. Destructuring
// declarations (`const {a, b} = obj`) are pre-flattened by the frontend into
// one member-access-shaped, per-binding statement per bound name, each with
// the bound identifier's own span — the core never sees a destructuring
// pattern directly.
package frontend

// Span is a byte-offset range into a source file, excluding leading trivia
// (matching the call-graph input's span convention).
type Span struct {
	Start int
	End   int
}

// NodeKind tags the syntactic shape of a statement site or expression that
// the IR builder dispatches on. The set is closed; every consumer switches
// exhaustively over it (spec.md §9 design note).
type NodeKind int

const (
	// Statement-site kinds: analysis/index assigns a StmtId to each Body
	// entry regardless of Kind; only these carry dataflow meaning to the IR
	// builder. KindOtherStatement covers control-flow and declaration
	// wrapper nodes that consume a statement index slot but lower to no IR
	// statement (spec.md is not control-flow sensitive; see analysis/ir).
	KindOtherStatement NodeKind = iota
	KindAssign      // x = <Value>, or const/let x = <Value> when IsDeclaration
	KindBareCall    // f(...) used as a statement, no assignment
	KindBareAwait   // await y; used as a statement, no assignment
	KindReturn      // return; or return <Value>;
	KindMemberWrite // obj.p = <Value> / obj[e] = <Value>

	// Expression kinds, populated on ExprNode and consulted while lowering
	// an already-identified statement site.
	KindIdentifier
	KindThis
	KindCallExpr
	KindNewExpr
	KindObjectLiteral
	KindArrayLiteral
	KindAwaitExpr
	KindMemberAccess
	KindIndexAccess
	KindConditional
	KindLogicalAnd
	KindLogicalOr
	KindNullishCoalesce
	KindStringLiteral
	KindNumberLiteral
	KindBoolLiteral
	KindNullLiteral
	KindUndefinedLiteral
	KindSpread
	KindOther
)

// SourceFile is one file in the program.
type SourceFile struct {
	// FilePath is repo-relative, "/"-separated, with no "."/".." segments.
	FilePath string
	// Funcs are the function-like nodes with a body in this file, in source
	// order (including nested ones; each has its own FuncNode/FuncId).
	Funcs []*FuncNode
}

// FuncNode is a function-like node (function declaration/expression, method,
// arrow function) that has a body.
type FuncNode struct {
	Span   Span
	Name   string // for diagnostics only; not part of any identifier
	Params []string
	Body   []*StmtNode
}

// StmtNode is one statement site as defined by spec.md §4.3.
type StmtNode struct {
	Span Span
	Kind NodeKind

	// KindAssign / KindMemberWrite: the bound name (KindAssign) is empty
	// when unused; IsDeclaration marks a fresh `const`/`let` binding versus
	// a reassignment of an already-declared name.
	TargetName    string
	IsDeclaration bool

	// KindAssign / KindReturn / KindBareAwait: the right-hand side or the
	// returned/awaited expression. Nil for a bare `return;`.
	Value *ExprNode

	// KindBareCall.
	Callee *ExprNode
	Args   []*ExprNode

	// KindMemberWrite.
	Object            *ExprNode
	PropertyName      string
	PropertyIsDynamic bool
}

// ExprNode is a (possibly nested) expression. Only the fields relevant to
// Kind are populated. Type/paren/non-null/as-cast wrapper nodes must already
// be stripped by the frontend before they reach the core (spec.md §4.4).
type ExprNode struct {
	Span Span
	Kind NodeKind

	Name string // KindIdentifier

	StringValue string  // KindStringLiteral
	NumberValue float64 // KindNumberLiteral
	BoolValue   bool    // KindBoolLiteral

	// KindMemberAccess / KindIndexAccess.
	Object            *ExprNode
	PropertyName      string
	PropertyIsDynamic bool
	Optional          bool // true for `?.`

	// KindCallExpr / KindNewExpr.
	Callee *ExprNode
	Args   []*ExprNode

	// KindConditional.
	Cond, Then, ElseExpr *ExprNode

	// KindLogicalAnd / KindLogicalOr / KindNullishCoalesce.
	Lhs, Rhs *ExprNode

	// KindAwaitExpr.
	Awaited *ExprNode

	// KindSpread: the spread source expression.
	Inner *ExprNode
}

// Program is the complete parsed input for one analysis run.
type Program struct {
	Files []*SourceFile
}
