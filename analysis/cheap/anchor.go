// Package cheap implements the cheap static pass (spec.md §4.5): baseline
// dependency edges over a FuncIR plus the coarse per-variable heap anchor
// that gives every value a stable, alias-free allocation identity.
package cheap

import (
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// Anchor base offsets. The exact numbers are arbitrary (spec.md §9 open
// question); what matters is that they sit far above any statement count a
// real function could have, so a synthetic anchor never collides with a
// real StmtId in the same function.
const (
	ParamAnchorBase = 1_000_000_000
	LocalAnchorBase = 1_500_000_000
)

// SynthAnchor returns the synthetic StmtId a parameter or local is
// initially anchored to: synth(funcId, ParamAnchorBase+i) for the i-th
// parameter, synth(funcId, LocalAnchorBase+i) for the i-th local.
func SynthAnchor(funcID ids.FuncId, n int) ids.StmtId {
	id, err := ids.NewStmtId(funcID, n)
	if err != nil {
		// n is always non-negative by construction (a base plus a
		// non-negative index); this can only fire on programmer error.
		panic(fmt.Sprintf("cheap: invalid synthetic anchor index %d: %v", n, err))
	}
	return id
}

// ParamAnchor returns the initial synthetic anchor for parameter i.
func ParamAnchor(funcID ids.FuncId, i int) ids.StmtId { return SynthAnchor(funcID, ParamAnchorBase+i) }

// LocalAnchor returns the initial synthetic anchor for local i.
func LocalAnchor(funcID ids.FuncId, i int) ids.StmtId { return SynthAnchor(funcID, LocalAnchorBase+i) }

// AnchorTable tracks the current heap anchor of every declared variable in
// one function, per the propagation rules in spec.md §4.5.
type AnchorTable struct {
	funcID ids.FuncId
	byVar  map[ids.VarId]ids.StmtId
}

// NewAnchorTable seeds every param and local with its initial synthetic
// anchor.
func NewAnchorTable(funcID ids.FuncId, params, locals []ids.VarId) *AnchorTable {
	t := &AnchorTable{funcID: funcID, byVar: make(map[ids.VarId]ids.StmtId, len(params)+len(locals))}
	for i, p := range params {
		t.byVar[p] = ParamAnchor(funcID, i)
	}
	for i, l := range locals {
		t.byVar[l] = LocalAnchor(funcID, i)
	}
	return t
}

// Get returns the current anchor of v. Ok is false if v was never declared.
func (t *AnchorTable) Get(v ids.VarId) (ids.StmtId, bool) {
	a, ok := t.byVar[v]
	return a, ok
}

// Set records dst's current anchor.
func (t *AnchorTable) Set(dst ids.VarId, anchor ids.StmtId) { t.byVar[dst] = anchor }

// PropagateFrom sets anchor(dst) := anchor(src), the `dst := var(src)` rule.
// If src has no recorded anchor (should not happen for a validated IR),
// dst's anchor is left unset.
func (t *AnchorTable) PropagateFrom(dst, src ids.VarId) {
	if a, ok := t.Get(src); ok {
		t.Set(dst, a)
	}
}
