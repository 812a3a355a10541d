// Package ir lowers a function's statement stream into the Normalized
// FuncIR described in spec.md §3/§4.4: explicit assign, return, call, await,
// alloc, member_read, member_write, select and short_circuit statement
// forms over a small closed rvalue algebra.
package ir

import (
	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// RVKind tags the closed rvalue sum type: var | lit(str|num|bool|null) |
// undef | unknown.
type RVKind int

const (
	RVVar RVKind = iota
	RVLitString
	RVLitNumber
	RVLitBool
	RVLitNull
	RVUndef
	RVUnknown
)

// RValue is an IR rvalue. Only the field matching Kind is meaningful.
type RValue struct {
	Kind      RVKind
	Var       ids.VarId
	LitString string
	LitNumber float64
	LitBool   bool
}

// Var constructs a var(VarId) rvalue.
func Var(v ids.VarId) RValue { return RValue{Kind: RVVar, Var: v} }

// LitString constructs a string literal rvalue.
func LitString(s string) RValue { return RValue{Kind: RVLitString, LitString: s} }

// LitNumber constructs a number literal rvalue.
func LitNumber(n float64) RValue { return RValue{Kind: RVLitNumber, LitNumber: n} }

// LitBool constructs a boolean literal rvalue.
func LitBool(b bool) RValue { return RValue{Kind: RVLitBool, LitBool: b} }

// LitNull constructs the null literal rvalue.
func LitNull() RValue { return RValue{Kind: RVLitNull} }

// Undef constructs the undef rvalue.
func Undef() RValue { return RValue{Kind: RVUndef} }

// Unknown constructs the unknown rvalue: anything the lowering rules could
// not resolve to a direct variable reference degrades to this, never a
// crash (spec.md §9 design note).
func Unknown() RValue { return RValue{Kind: RVUnknown} }

// IsVar reports whether the rvalue is a direct variable reference.
func (r RValue) IsVar() bool { return r.Kind == RVVar }

// StmtKind tags the closed IR statement sum type.
type StmtKind int

const (
	StmtAssign StmtKind = iota
	StmtReturn
	StmtCall
	StmtAwait
	StmtAlloc
	StmtMemberRead
	StmtMemberWrite
	StmtSelect
	StmtShortCircuit
)

func (k StmtKind) String() string {
	switch k {
	case StmtAssign:
		return "assign"
	case StmtReturn:
		return "return"
	case StmtCall:
		return "call"
	case StmtAwait:
		return "await"
	case StmtAlloc:
		return "alloc"
	case StmtMemberRead:
		return "member_read"
	case StmtMemberWrite:
		return "member_write"
	case StmtSelect:
		return "select"
	case StmtShortCircuit:
		return "short_circuit"
	default:
		return "unknown"
	}
}

// AllocKind tags what an `alloc` statement constructs.
type AllocKind int

const (
	AllocNew AllocKind = iota
	AllocObjectLiteral
	AllocArrayLiteral
)

// Stmt is one lowered IR statement. It carries its anchor StmtId (a
// CallsiteId for StmtCall) and a closed set of fields; only the fields
// relevant to Kind are populated. This mirrors the flat, kind-tagged
// instruction shape the teacher dispatches on in
// single_function_instruction_ops.go, adapted from an SSA instruction set
// to spec.md's IR form set.
type Stmt struct {
	Anchor ids.StmtId
	Kind   StmtKind

	// StmtAssign: Dst = Src.
	Dst ids.VarId
	Src RValue

	// StmtReturn: Value is the returned rvalue; HasValue is false for a
	// bare `return`.
	Value    RValue
	HasValue bool

	// StmtCall: Dst/HasDst is the assigned destination (nil for a bare
	// call statement); Callee and Args are rvalues.
	HasDst bool
	Callee RValue
	Args   []RValue

	// StmtAwait: Dst/HasDst mirrors StmtCall; Src is the awaited rvalue
	// (itself never a call — `await f()` first lowers a StmtCall into a
	// temp, then a StmtAwait reading that temp, per the lowering table).

	// StmtAlloc: Dst is the allocated temp; AllocKindValue selects the
	// literal/constructor shape; Ctor is set only for AllocNew; Args are
	// the constructor arguments.
	AllocKindValue AllocKind
	Ctor           RValue
	HasCtor        bool

	// StmtMemberRead / StmtMemberWrite.
	Object            RValue
	PropertyName      string
	PropertyIsDynamic bool
	Optional          bool // StmtMemberRead only

	// StmtSelect: Dst = Cond ? Then : Else.
	Cond RValue
	Then RValue
	Else RValue

	// StmtShortCircuit: Dst = Lhs <Op> Rhs, Op in {"&&","||","??"}.
	Op  string
	Lhs RValue
	Rhs RValue
}

// FuncIR is the normalized intermediate representation of one function's
// body, per spec.md §3.
type FuncIR struct {
	SchemaVersion int
	FuncID        ids.FuncId
	Params        []ids.VarId
	Locals        []ids.VarId
	Stmts         []Stmt
}

// SchemaVersion is the current FuncIR schema version.
const SchemaVersion = 1
