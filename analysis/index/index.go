// Package index builds the function, statement and callsite indexes
// described in spec.md §4.3 from a frontend.Program. Indexes are built once
// per analysis run and are immutable for the remainder of the run.
package index

import (
	"errors"
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/frontend"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/zeebo/xxh3"
)

// ErrDuplicateSpan is returned when two function or statement sites claim
// the same span.
var ErrDuplicateSpan = errors.New("index: duplicate span")

// spanKey is an internal, non-canonical lookup key. It is hashed with xxh3
// purely for fast in-memory map lookups; it never appears in any emitted
// output, where analysis/ids' canonical strings remain the source of truth.
type spanKey uint64

func hashSpan(filePath string, start, end int) spanKey {
	h := xxh3.New()
	_, _ = h.WriteString(filePath)
	_, _ = h.Write([]byte{0})
	writeVarint(h, uint64(start))
	writeVarint(h, uint64(end))
	return spanKey(h.Sum64())
}

func writeVarint(h *xxh3.Hasher, v uint64) {
	var buf [10]byte
	n := 0
	for v >= 0x80 {
		buf[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	buf[n] = byte(v)
	n++
	_, _ = h.Write(buf[:n])
}

// FuncEntry is one indexed function.
type FuncEntry struct {
	ID   ids.FuncId
	Node *frontend.FuncNode
	File string
}

// FunctionIndex maps functions to their FuncId and back, and supports span
// lookup.
type FunctionIndex struct {
	byID   map[ids.FuncId]*FuncEntry
	bySpan map[spanKey]*FuncEntry
	all    []*FuncEntry
}

// BuildFunctionIndex visits each function-like node with a body in the
// program, sorted by cmpFuncId once complete.
func BuildFunctionIndex(prog *frontend.Program) (*FunctionIndex, error) {
	idx := &FunctionIndex{
		byID:   map[ids.FuncId]*FuncEntry{},
		bySpan: map[spanKey]*FuncEntry{},
	}
	for _, f := range prog.Files {
		for _, fn := range f.Funcs {
			fid, err := ids.NewFuncId(f.FilePath, fn.Span.Start, fn.Span.End)
			if err != nil {
				return nil, fmt.Errorf("index: invalid function span in %s: %w", f.FilePath, err)
			}
			if _, exists := idx.byID[fid]; exists {
				return nil, fmt.Errorf("%w: function %s", ErrDuplicateSpan, fid)
			}
			entry := &FuncEntry{ID: fid, Node: fn, File: f.FilePath}
			idx.byID[fid] = entry
			idx.bySpan[hashSpan(f.FilePath, fn.Span.Start, fn.Span.End)] = entry
			idx.all = append(idx.all, entry)
		}
	}
	idx.all = canon.StableSort(idx.all, func(a, b *FuncEntry) bool { return a.ID.Compare(b.ID) < 0 })
	return idx, nil
}

// ByID looks up a function by its FuncId.
func (idx *FunctionIndex) ByID(id ids.FuncId) (*FuncEntry, bool) {
	e, ok := idx.byID[id]
	return e, ok
}

// BySpan looks up a function by its raw (filePath, start, end) span.
func (idx *FunctionIndex) BySpan(filePath string, start, end int) (*FuncEntry, bool) {
	e, ok := idx.bySpan[hashSpan(filePath, start, end)]
	return e, ok
}

// All returns every indexed function, sorted by cmpFuncId.
func (idx *FunctionIndex) All() []*FuncEntry { return idx.all }

// StmtEntry is one indexed statement site.
type StmtEntry struct {
	ID   ids.StmtId
	Func ids.FuncId
	Node *frontend.StmtNode
}

// StatementIndex maps statement sites to their StmtId and back.
type StatementIndex struct {
	byID     map[ids.StmtId]*StmtEntry
	bySpan   map[spanKey]*StmtEntry
	byFunc   map[ids.FuncId][]*StmtEntry
	all      []*StmtEntry
	callsite map[ids.StmtId]*StmtEntry
}

// isCallExpr reports whether a statement site's own node is a call
// expression (the basis of the callsite index projection, spec.md §4.3):
// a bare call statement, or an assignment/return whose right-hand side is
// directly a call expression. A bare await statement is not a callsite.
func isCallExpr(n *frontend.StmtNode) bool {
	switch n.Kind {
	case frontend.KindBareCall:
		return true
	case frontend.KindAssign, frontend.KindReturn:
		return n.Value != nil && n.Value.Kind == frontend.KindCallExpr
	default:
		return false
	}
}

// BuildStatementIndex walks each function's body in source order, assigning
// statementIndex = 0,1,... to each statement site. Nested function-like
// nodes are not descended into here: they were already collected as
// separate FuncNodes by the frontend.
func BuildStatementIndex(funcIdx *FunctionIndex) (*StatementIndex, error) {
	idx := &StatementIndex{
		byID:     map[ids.StmtId]*StmtEntry{},
		bySpan:   map[spanKey]*StmtEntry{},
		byFunc:   map[ids.FuncId][]*StmtEntry{},
		callsite: map[ids.StmtId]*StmtEntry{},
	}
	for _, fe := range funcIdx.All() {
		for i, stmt := range fe.Node.Body {
			sid, err := ids.NewStmtId(fe.ID, i)
			if err != nil {
				return nil, fmt.Errorf("index: invalid statement index in %s: %w", fe.ID, err)
			}
			if _, exists := idx.byID[sid]; exists {
				return nil, fmt.Errorf("%w: statement %s", ErrDuplicateSpan, sid)
			}
			entry := &StmtEntry{ID: sid, Func: fe.ID, Node: stmt}
			idx.byID[sid] = entry
			idx.bySpan[hashSpan(fe.ID.FilePath, stmt.Span.Start, stmt.Span.End)] = entry
			idx.byFunc[fe.ID] = append(idx.byFunc[fe.ID], entry)
			idx.all = append(idx.all, entry)
			if isCallExpr(stmt) {
				idx.callsite[sid] = entry
			}
		}
	}
	idx.all = canon.StableSort(idx.all, func(a, b *StmtEntry) bool { return a.ID.Compare(b.ID) < 0 })
	for f, list := range idx.byFunc {
		idx.byFunc[f] = canon.StableSort(list, func(a, b *StmtEntry) bool { return a.ID.Compare(b.ID) < 0 })
	}
	return idx, nil
}

// ByID looks up a statement by its StmtId.
func (idx *StatementIndex) ByID(id ids.StmtId) (*StmtEntry, bool) {
	e, ok := idx.byID[id]
	return e, ok
}

// BySpan looks up a statement by its raw span.
func (idx *StatementIndex) BySpan(filePath string, start, end int) (*StmtEntry, bool) {
	e, ok := idx.bySpan[hashSpan(filePath, start, end)]
	return e, ok
}

// ByFunc returns all statement sites for a function, sorted by StmtId.
func (idx *StatementIndex) ByFunc(f ids.FuncId) []*StmtEntry { return idx.byFunc[f] }

// All returns every indexed statement, sorted by StmtId.
func (idx *StatementIndex) All() []*StmtEntry { return idx.all }

// CallsiteIndex is a projection of the statement index to call-expression
// sites; by construction CallsiteId == StmtId for those sites.
type CallsiteIndex struct {
	stmts *StatementIndex
}

// BuildCallsiteIndex wraps an already-built StatementIndex.
func BuildCallsiteIndex(stmts *StatementIndex) *CallsiteIndex {
	return &CallsiteIndex{stmts: stmts}
}

// ByID looks up a callsite by its CallsiteId (== StmtId).
func (idx *CallsiteIndex) ByID(id ids.CallsiteId) (*StmtEntry, bool) {
	e, ok := idx.stmts.callsite[id]
	return e, ok
}

// ByFunc returns all callsites within a function, sorted by CallsiteId.
func (idx *CallsiteIndex) ByFunc(f ids.FuncId) []*StmtEntry {
	var out []*StmtEntry
	for _, e := range idx.stmts.ByFunc(f) {
		if isCallExpr(e.Node) {
			out = append(out, e)
		}
	}
	return out
}

// BySpan looks up a callsite by its raw span, failing if the span exists in
// the statement index but is not itself a call-expression site.
func (idx *CallsiteIndex) BySpan(filePath string, start, end int) (*StmtEntry, bool) {
	e, ok := idx.stmts.BySpan(filePath, start, end)
	if !ok || !isCallExpr(e.Node) {
		return nil, false
	}
	return e, true
}

// All returns every indexed callsite, sorted by CallsiteId.
func (idx *CallsiteIndex) All() []*StmtEntry {
	out := make([]*StmtEntry, 0, len(idx.stmts.callsite))
	for _, e := range idx.stmts.all {
		if isCallExpr(e.Node) {
			out = append(out, e)
		}
	}
	return out
}

// Indexes bundles all three indexes, built together from one Program.
type Indexes struct {
	Funcs     *FunctionIndex
	Stmts     *StatementIndex
	Callsites *CallsiteIndex
}

// Build constructs all three indexes in dependency order.
func Build(prog *frontend.Program) (*Indexes, error) {
	fIdx, err := BuildFunctionIndex(prog)
	if err != nil {
		return nil, err
	}
	sIdx, err := BuildStatementIndex(fIdx)
	if err != nil {
		return nil, err
	}
	return &Indexes{Funcs: fIdx, Stmts: sIdx, Callsites: BuildCallsiteIndex(sIdx)}, nil
}
