package callgraph

import (
	"fmt"
	"path"
	"strings"

	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/config"
	"github.com/jsflow-dev/jsflow/analysis/diagnostics"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/index"
)

// MappedCallEdge is a call-graph edge resolved to internal identifiers,
// spec.md §3: the callsite must belong to the caller's span.
type MappedCallEdge struct {
	CallerFuncId ids.FuncId
	CalleeFuncId ids.FuncId
	CallsiteId   ids.CallsiteId
}

// Mapper resolves an ExternalGraph's opaque node/edge ids to internal
// FuncId/CallsiteId values, per spec.md §4.8.
type Mapper struct {
	funcs     *index.FunctionIndex
	callsites *index.CallsiteIndex
	mode      config.ResolutionMode
	paths     []string // distinct indexed file paths
}

// NewMapper builds a Mapper over an already-built set of indexes.
func NewMapper(idx *index.Indexes, mode config.ResolutionMode) *Mapper {
	seen := map[string]bool{}
	var paths []string
	for _, fe := range idx.Funcs.All() {
		if !seen[fe.File] {
			seen[fe.File] = true
			paths = append(paths, fe.File)
		}
	}
	paths = canon.StableSort(paths, func(a, b string) bool { return a < b })
	return &Mapper{funcs: idx.Funcs, callsites: idx.Callsites, mode: mode, paths: paths}
}

// Map resolves every "call" edge in g. In ResolutionStrict mode, any
// resolution failure is collected and, if non-empty, returned as a single
// fatal error; ResolutionLenient mode returns the diagnostics alongside
// whatever edges did resolve, per spec.md §4.8: "Strict mode elevates any
// error to a fatal with a summary of all failures."
func (m *Mapper) Map(g *ExternalGraph) ([]MappedCallEdge, *diagnostics.Bag, error) {
	diags := diagnostics.NewBag()
	nodeFunc := map[string]ids.FuncId{}
	for _, n := range g.Nodes {
		resolved, ok := m.resolvePath(n.FilePath, n.ID, diags)
		if !ok {
			continue
		}
		fe, ok := m.funcs.BySpan(resolved, n.StartOffset, n.EndOffset)
		if !ok {
			diags.Add(diagnostics.Diagnostic{
				FilePath: resolved, Start: n.StartOffset, End: n.EndOffset,
				SubjectID: n.ID, Level: diagnostics.LevelError,
				Message: fmt.Sprintf("no indexed function at %s:%d:%d", resolved, n.StartOffset, n.EndOffset),
			})
			continue
		}
		nodeFunc[n.ID] = fe.ID
	}

	var mapped []MappedCallEdge
	for _, e := range g.Edges {
		if e.Kind != "call" {
			continue
		}
		callerID, ok := nodeFunc[e.CallerID]
		if !ok {
			diags.Add(diagnostics.Diagnostic{SubjectID: e.CallerID, Level: diagnostics.LevelError,
				Message: fmt.Sprintf("caller node %q did not resolve to a function", e.CallerID)})
			continue
		}
		calleeID, ok := nodeFunc[e.CalleeID]
		if !ok {
			diags.Add(diagnostics.Diagnostic{SubjectID: e.CalleeID, Level: diagnostics.LevelError,
				Message: fmt.Sprintf("callee node %q did not resolve to a function", e.CalleeID)})
			continue
		}
		resolved, ok := m.resolvePath(e.Callsite.FilePath, e.CallerID+"->"+e.CalleeID, diags)
		if !ok {
			continue
		}
		cs, ok := m.callsites.BySpan(resolved, e.Callsite.StartOffset, e.Callsite.EndOffset)
		if !ok {
			diags.Add(diagnostics.Diagnostic{
				FilePath: resolved, Start: e.Callsite.StartOffset, End: e.Callsite.EndOffset,
				SubjectID: e.CallerID, Level: diagnostics.LevelError,
				Message: fmt.Sprintf("%v at %s:%d:%d", ErrCallsiteNoSpan, resolved, e.Callsite.StartOffset, e.Callsite.EndOffset),
			})
			continue
		}
		if !cs.Func.Equal(callerID) {
			diags.Add(diagnostics.Diagnostic{
				FilePath: resolved, Start: e.Callsite.StartOffset, End: e.Callsite.EndOffset,
				SubjectID: e.CallerID, Level: diagnostics.LevelError,
				Message: fmt.Sprintf("%v: callsite belongs to %s, edge claims caller %s", ErrForeignCallsite, cs.Func, callerID),
			})
			continue
		}
		mapped = append(mapped, MappedCallEdge{CallerFuncId: callerID, CalleeFuncId: calleeID, CallsiteId: cs.ID})
	}

	if m.mode == config.ResolutionStrict && diags.HasErrors() {
		return nil, diags, fmt.Errorf("callgraph: %d resolution failure(s) in strict mode", diags.Len())
	}
	return mapped, diags, nil
}

// resolvePath resolves an external file path against the indexed source
// set. Strict mode requires an exact match; lenient mode applies
// normalization and suffix-match fallbacks, each recording a warning.
func (m *Mapper) resolvePath(raw, subjectID string, diags *diagnostics.Bag) (string, bool) {
	for _, p := range m.paths {
		if p == raw {
			return p, true
		}
	}
	if m.mode == config.ResolutionStrict {
		diags.Add(diagnostics.Diagnostic{
			FilePath: raw, SubjectID: subjectID, Level: diagnostics.LevelError,
			Message: fmt.Sprintf("%v: %q", ErrPathMissing, raw),
		})
		return "", false
	}

	norm := normalizePath(raw)
	for _, p := range m.paths {
		if normalizePath(p) == norm {
			diags.Add(diagnostics.Diagnostic{FilePath: raw, SubjectID: subjectID, Level: diagnostics.LevelWarn,
				Message: fmt.Sprintf("path %q matched %q after normalization", raw, p)})
			return p, true
		}
	}
	lower := strings.ToLower(norm)
	for _, p := range m.paths {
		if strings.ToLower(normalizePath(p)) == lower {
			diags.Add(diagnostics.Diagnostic{FilePath: raw, SubjectID: subjectID, Level: diagnostics.LevelWarn,
				Message: fmt.Sprintf("path %q matched %q case-insensitively", raw, p)})
			return p, true
		}
	}

	base := path.Base(norm)
	var candidates []string
	for _, p := range m.paths {
		if path.Base(normalizePath(p)) == base && strings.HasSuffix(normalizePath(p), norm) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 1 {
		diags.Add(diagnostics.Diagnostic{FilePath: raw, SubjectID: subjectID, Level: diagnostics.LevelWarn,
			Message: fmt.Sprintf("path %q matched %q by unique suffix", raw, candidates[0])})
		return candidates[0], true
	}
	if len(candidates) > 1 {
		diags.Add(diagnostics.Diagnostic{FilePath: raw, SubjectID: subjectID, Level: diagnostics.LevelError,
			Message: fmt.Sprintf("%v: %q matches %d indexed files by suffix", ErrPathAmbiguous, raw, len(candidates))})
		return "", false
	}
	diags.Add(diagnostics.Diagnostic{FilePath: raw, SubjectID: subjectID, Level: diagnostics.LevelError,
		Message: fmt.Sprintf("%v: %q", ErrPathMissing, raw)})
	return "", false
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return p
}
