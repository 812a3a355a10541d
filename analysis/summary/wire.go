package summary

import (
	"encoding/json"
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/ids"
)

type wireSummary struct {
	SchemaVersion    int            `json:"schemaVersion"`
	FuncID           string         `json:"funcId"`
	Edges            []flow.EdgeWire `json:"edges"`
	BaselineCoverage string         `json:"baselineCoverage"`
}

// MarshalJSON renders s in its on-disk cache form.
func (s *FuncSummary) MarshalJSON() ([]byte, error) {
	edges := make([]flow.EdgeWire, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = e.ToWire()
	}
	return json.Marshal(wireSummary{
		SchemaVersion:    s.SchemaVersion,
		FuncID:           s.FuncID.String(),
		Edges:            edges,
		BaselineCoverage: s.BaselineCoverage,
	})
}

// UnmarshalJSON parses a cached summary back into s.
func (s *FuncSummary) UnmarshalJSON(data []byte) error {
	var w wireSummary
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	fid, err := ids.ParseFuncId(w.FuncID)
	if err != nil {
		return fmt.Errorf("summary: parsing funcId: %w", err)
	}
	edges := make([]flow.Edge, len(w.Edges))
	for i, e := range w.Edges {
		edges[i] = e.FromWire()
	}
	*s = FuncSummary{
		SchemaVersion:    w.SchemaVersion,
		FuncID:           fid,
		Edges:            edges,
		BaselineCoverage: w.BaselineCoverage,
	}
	return nil
}
