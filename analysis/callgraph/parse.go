package callgraph

import (
	"encoding/json"
	"fmt"
)

// Parse validates data against the v1 call-graph schema, then decodes it
// into an ExternalGraph.
func Parse(data []byte) (*ExternalGraph, error) {
	if err := ValidateInput(data); err != nil {
		return nil, err
	}
	var w wireGraph
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	g := &ExternalGraph{SchemaVersion: w.SchemaVersion}
	for _, n := range w.Nodes {
		g.Nodes = append(g.Nodes, ExternalNode{
			ID:   n.ID,
			Name: n.Name,
			ExternalSpan: ExternalSpan{
				FilePath:    n.FilePath,
				StartOffset: n.StartOffset,
				EndOffset:   n.EndOffset,
			},
		})
	}
	for _, e := range w.Edges {
		kind := e.Kind
		if kind == "" {
			kind = "call"
		}
		g.Edges = append(g.Edges, ExternalEdge{
			CallerID: e.CallerID,
			CalleeID: e.CalleeID,
			Kind:     kind,
			Callsite: ExternalSpan{
				FilePath:    e.Callsite.FilePath,
				StartOffset: e.Callsite.StartOffset,
				EndOffset:   e.Callsite.EndOffset,
			},
		})
	}
	return g, nil
}
