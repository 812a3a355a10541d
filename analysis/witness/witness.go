// Package witness emits the function-level call-chain witnesses spec.md §6
// describes: one JSONL record per mapped call edge, in canonical order,
// each annotated with whether its caller and its callee both take part in
// a cycle of the mapped call graph (spec.md §9's supplemental withinCycle
// flag — never consulted by the fixpoint itself). The two endpoints need
// not lie on the same cycle: the flag does not compare their components.
package witness

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsflow-dev/jsflow/analysis/callgraph"
	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// SchemaVersion is the current witness output schema version.
const SchemaVersion = 1

// Step is one hop of a call-chain witness.
type Step struct {
	CallerFuncId ids.FuncId     `json:"callerFuncId"`
	CallsiteId   ids.CallsiteId `json:"callsiteId"`
	CalleeFuncId ids.FuncId     `json:"calleeFuncId"`
	WithinCycle  bool           `json:"withinCycle"`
}

// Record is one witness JSONL line.
type Record struct {
	SchemaVersion int    `json:"schemaVersion"`
	Kind          string `json:"kind"`
	Steps         []Step `json:"steps"`
}

// Build renders one Record per mapped call edge, sorted by
// (CallerFuncId, CallsiteId, CalleeFuncId), each carrying a single step
// flagged against within, the set of functions StronglyConnectedComponents
// found to participate in a cycle.
func Build(mapped []callgraph.MappedCallEdge, within map[ids.FuncId]bool) []Record {
	sorted := canon.StableSort(mapped, func(a, b callgraph.MappedCallEdge) bool {
		if c := a.CallerFuncId.Compare(b.CallerFuncId); c != 0 {
			return c < 0
		}
		if c := a.CallsiteId.Compare(b.CallsiteId); c != 0 {
			return c < 0
		}
		return a.CalleeFuncId.Compare(b.CalleeFuncId) < 0
	})

	out := make([]Record, 0, len(sorted))
	for _, e := range sorted {
		withinCycle := within[e.CallerFuncId] && within[e.CalleeFuncId]
		out = append(out, Record{
			SchemaVersion: SchemaVersion,
			Kind:          "call_chain",
			Steps: []Step{{
				CallerFuncId: e.CallerFuncId,
				CallsiteId:   e.CallsiteId,
				CalleeFuncId: e.CalleeFuncId,
				WithinCycle:  withinCycle,
			}},
		})
	}
	return out
}

// WriteTo writes records as canonical JSONL to dst, one object per line.
func WriteTo(dst *bufio.Writer, records []Record) error {
	for _, r := range records {
		steps := make([]canon.Value, len(r.Steps))
		for i, s := range r.Steps {
			steps[i] = canon.Object(map[string]canon.Value{
				"callerFuncId": canon.String(s.CallerFuncId.String()), "callsiteId": canon.String(s.CallsiteId.String()),
				"calleeFuncId": canon.String(s.CalleeFuncId.String()), "withinCycle": canon.Bool(s.WithinCycle),
			})
		}
		b, err := canon.MarshalCanonical(canon.Object(map[string]canon.Value{
			"schemaVersion": canon.Int(r.SchemaVersion),
			"kind":          canon.String(r.Kind),
			"steps":         canon.Array(steps...),
		}))
		if err != nil {
			return fmt.Errorf("witness: encoding record: %w", err)
		}
		dst.Write(append(b, '\n'))
	}
	return dst.Flush()
}

// WriteFile writes records to path atomically, via a temp file next to
// path renamed into place, matching analysis/facts.WriteFile.
func WriteFile(path string, records []Record) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".witness-*.tmp")
	if err != nil {
		return fmt.Errorf("witness: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = WriteTo(bw, records); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("witness: closing temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("witness: renaming into place: %w", err)
	}
	return nil
}
