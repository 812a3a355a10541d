// Package facts renders converged fixpoint output as the canonical
// flow-fact JSONL stream spec.md §4.10 defines: one from→to edge per line,
// promoted to carry an explicit funcId on its var/return endpoints, de-duped
// by composite key, sorted by (fromKind, fromFields, toKind, toFields).
//
// The streaming-write shape is grounded on
// analysis/dataflow/inter_procedural.go's openSummaries, which opens its
// report file with os.CreateTemp rather than writing in place.
package facts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsflow-dev/jsflow/analysis/canon"
	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// Writer accumulates flow facts from one or more functions and flushes them
// as a single canonically ordered JSONL stream.
type Writer struct {
	seen  map[string]bool
	edges []flow.Edge
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{seen: map[string]bool{}}
}

// Add stages a fact local to funcID, promoting its var/return endpoints to
// carry funcID explicitly (spec.md §3: a FlowFact's var/return nodes are
// globally scoped, unlike a FuncSummary's). Duplicate from→to keys across
// every Add call, including across functions, are dropped silently.
func (w *Writer) Add(funcID ids.FuncId, e flow.Edge) {
	e = flow.Edge{From: promote(funcID, e.From), To: promote(funcID, e.To)}
	k := e.Key()
	if w.seen[k] {
		return
	}
	w.seen[k] = true
	w.edges = append(w.edges, e)
}

// AddAll stages every fact in edges, in order.
func (w *Writer) AddAll(funcID ids.FuncId, edges []flow.Edge) {
	for _, e := range edges {
		w.Add(funcID, e)
	}
}

func promote(funcID ids.FuncId, n flow.Node) flow.Node {
	switch n.Kind {
	case flow.NodeVar:
		return flow.VarNodeIn(funcID, n.Var)
	case flow.NodeReturn:
		return flow.ReturnNodeIn(funcID)
	default:
		return n
	}
}

// Sorted returns the staged facts in canonical (fromKind, fromFields,
// toKind, toFields) order, i.e. flow.Edge.Compare order.
func (w *Writer) Sorted() []flow.Edge {
	return canon.StableSort(w.edges, func(a, b flow.Edge) bool { return a.Compare(b) < 0 })
}

// SchemaVersion is the current flow-facts output schema version (spec.md §6).
const SchemaVersion = 1

// factWire is the wire shape of one flow-facts output line: the edge plus
// an explicit schemaVersion, distinct from flow.EdgeWire (used for the
// summary cache, which versions the whole FuncSummary rather than each edge).
type factWire struct {
	From          flow.Node `json:"from"`
	SchemaVersion int       `json:"schemaVersion"`
	To            flow.Node `json:"to"`
}

// WriteTo writes every staged fact as one canonical JSON object per line to
// dst. An empty fact set writes nothing, so the resulting stream is
// zero-length.
func (w *Writer) WriteTo(dst *bufio.Writer) error {
	enc := json.NewEncoder(dst)
	for _, e := range w.Sorted() {
		fw := factWire{SchemaVersion: SchemaVersion, From: e.From, To: e.To}
		if err := enc.Encode(fw); err != nil {
			return fmt.Errorf("facts: encoding %s: %w", e.Key(), err)
		}
	}
	return dst.Flush()
}

// WriteFile writes w's staged facts to path atomically: it stages the
// output in a temp file next to path and renames it into place, so a
// concurrent reader never observes a partially written file.
func WriteFile(path string, w *Writer) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".facts-*.tmp")
	if err != nil {
		return fmt.Errorf("facts: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = w.WriteTo(bw); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("facts: closing temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("facts: renaming into place: %w", err)
	}
	return nil
}
