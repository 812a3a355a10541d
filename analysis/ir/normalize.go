package ir

import (
	"errors"
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// ErrInvalidFuncIR is returned (wrapped) by Validate when a FuncIR violates
// one of the normalized-IR invariants: contiguous param/local indexing,
// unique statement anchors scoped to the right function, and every
// referenced VarId actually declared.
var ErrInvalidFuncIR = errors.New("ir: invalid FuncIR")

// Validate checks the structural invariants a FuncIR must hold regardless of
// whether it was just built or deserialized from the content cache: params
// are p0..pN-1 in order, locals are v0..vM-1 in order, every statement's
// anchor belongs to FuncID, anchors are unique, and every variable reference
// resolves to a declared param or local.
func Validate(f *FuncIR) error {
	if f.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d", ErrInvalidFuncIR, f.SchemaVersion)
	}
	declared := make(map[ids.VarId]bool, len(f.Params)+len(f.Locals))
	for i, p := range f.Params {
		if !p.IsParam || p.Index != i {
			return fmt.Errorf("%w: params not contiguous from p0 (got %s at position %d)", ErrInvalidFuncIR, p, i)
		}
		if declared[p] {
			return fmt.Errorf("%w: duplicate param %s", ErrInvalidFuncIR, p)
		}
		declared[p] = true
	}
	for i, l := range f.Locals {
		if l.IsParam || l.Index != i {
			return fmt.Errorf("%w: locals not contiguous from v0 (got %s at position %d)", ErrInvalidFuncIR, l, i)
		}
		if declared[l] {
			return fmt.Errorf("%w: duplicate local %s", ErrInvalidFuncIR, l)
		}
		declared[l] = true
	}

	seenAnchor := make(map[ids.StmtId]bool, len(f.Stmts))
	for _, s := range f.Stmts {
		if !s.Anchor.Func.Equal(f.FuncID) {
			return fmt.Errorf("%w: statement anchor %s does not belong to function %s", ErrInvalidFuncIR, s.Anchor, f.FuncID)
		}
		if seenAnchor[s.Anchor] {
			return fmt.Errorf("%w: duplicate statement anchor %s", ErrInvalidFuncIR, s.Anchor)
		}
		seenAnchor[s.Anchor] = true
		if err := validateStmt(declared, s); err != nil {
			return err
		}
	}
	return nil
}

func validateStmt(declared map[ids.VarId]bool, s Stmt) error {
	check := func(label string, v ids.VarId) error {
		if !declared[v] {
			return fmt.Errorf("%w: statement %s references undeclared %s %s", ErrInvalidFuncIR, s.Anchor, label, v)
		}
		return nil
	}
	checkR := func(label string, r RValue) error {
		if r.IsVar() {
			return check(label, r.Var)
		}
		return nil
	}
	switch s.Kind {
	case StmtAssign:
		if err := check("dst", s.Dst); err != nil {
			return err
		}
		return checkR("src", s.Src)
	case StmtReturn:
		return checkR("value", s.Value)
	case StmtCall:
		if s.HasDst {
			if err := check("dst", s.Dst); err != nil {
				return err
			}
		}
		if err := checkR("callee", s.Callee); err != nil {
			return err
		}
		for _, a := range s.Args {
			if err := checkR("arg", a); err != nil {
				return err
			}
		}
	case StmtAwait:
		if s.HasDst {
			if err := check("dst", s.Dst); err != nil {
				return err
			}
		}
		return checkR("src", s.Src)
	case StmtAlloc:
		if err := check("dst", s.Dst); err != nil {
			return err
		}
		if s.HasCtor {
			if err := checkR("ctor", s.Ctor); err != nil {
				return err
			}
		}
		for _, a := range s.Args {
			if err := checkR("arg", a); err != nil {
				return err
			}
		}
	case StmtMemberRead:
		if err := check("dst", s.Dst); err != nil {
			return err
		}
		return checkR("object", s.Object)
	case StmtMemberWrite:
		if err := checkR("object", s.Object); err != nil {
			return err
		}
		return checkR("src", s.Src)
	case StmtSelect:
		if err := check("dst", s.Dst); err != nil {
			return err
		}
		if err := checkR("cond", s.Cond); err != nil {
			return err
		}
		if err := checkR("then", s.Then); err != nil {
			return err
		}
		return checkR("else", s.Else)
	case StmtShortCircuit:
		if err := check("dst", s.Dst); err != nil {
			return err
		}
		if s.Op != "&&" && s.Op != "||" && s.Op != "??" {
			return fmt.Errorf("%w: statement %s has invalid short_circuit op %q", ErrInvalidFuncIR, s.Anchor, s.Op)
		}
		if err := checkR("lhs", s.Lhs); err != nil {
			return err
		}
		return checkR("rhs", s.Rhs)
	default:
		return fmt.Errorf("%w: statement %s has unrecognized kind %d", ErrInvalidFuncIR, s.Anchor, s.Kind)
	}
	return nil
}

// Canonicalize returns f with Params, Locals and Stmts each sorted into
// their canonical order (params/locals by VarId, statements by Anchor),
// ties broken by original position — the same stable-sort discipline every
// enumerable output in this module follows.
func Canonicalize(f *FuncIR) *FuncIR {
	out := &FuncIR{
		SchemaVersion: f.SchemaVersion,
		FuncID:        f.FuncID,
		Params:        canon.StableSort(f.Params, func(a, b ids.VarId) bool { return a.Compare(b) < 0 }),
		Locals:        canon.StableSort(f.Locals, func(a, b ids.VarId) bool { return a.Compare(b) < 0 }),
		Stmts:         canon.StableSort(f.Stmts, func(a, b Stmt) bool { return a.Anchor.Compare(b.Anchor) < 0 }),
	}
	return out
}
