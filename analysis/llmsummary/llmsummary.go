// Package llmsummary types and validates the request/response documents
// for the optional external LLM function-summary extractor described in
// SPEC_FULL.md §3.6: the core never calls an LLM itself, it only defines
// the wire contract a future extractor must honor and validates whatever
// comes back before handing it to analysis/summary.Normalize, which still
// enforces baseline coverage regardless of what the LLM proposes. Grounded
// on analysis/callgraph/schema.go's embedded-JSON-Schema-plus-Validate
// shape for an external, untrusted-until-validated document.
package llmsummary

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// SchemaVersion is the current request/response schema version.
const SchemaVersion = 1

// Request is sent to the extractor: the function's normalized IR, already
// in the canonical JSON shape analysis/ir.FuncIR.CanonicalValue produces.
type Request struct {
	SchemaVersion int             `json:"schemaVersion"`
	FuncID        string          `json:"funcId"`
	NormalizedIR  json.RawMessage `json:"normalizedIR"`
}

// NewRequest builds the request document for fid's normalized IR.
func NewRequest(fid ids.FuncId, normalizedIR json.RawMessage) Request {
	return Request{SchemaVersion: SchemaVersion, FuncID: fid.String(), NormalizedIR: normalizedIR}
}

// Response is the extractor's proposed edges for one function, in the same
// wire shape analysis/flow.Edge uses (from/to node with the same five kinds
// spec.md §3 defines). The core validates every edge the same way it
// validates a baseline or a cached edge: a response proposing an edge
// analysis/summary.validateEdge rejects is a schema-valid but semantically
// invalid document (SPEC_FULL.md §3.6), caught at Normalize time, not here.
type Response struct {
	SchemaVersion int             `json:"schemaVersion"`
	FuncID        string          `json:"funcId"`
	WireEdges     []flow.EdgeWire `json:"edges"`
}

const requestSchemaJSON = `{
  "type": "object",
  "required": ["schemaVersion", "funcId", "normalizedIR"],
  "properties": {
    "schemaVersion": {"type": "integer", "const": 1},
    "funcId": {"type": "string"},
    "normalizedIR": {}
  }
}`

const responseSchemaJSON = `{
  "type": "object",
  "required": ["schemaVersion", "funcId", "edges"],
  "properties": {
    "schemaVersion": {"type": "integer", "const": 1},
    "funcId": {"type": "string"},
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["from", "to"],
        "properties": {
          "from": {"type": "object"},
          "to": {"type": "object"}
        }
      }
    }
  }
}`

var (
	once            sync.Once
	resolvedRequest *jsonschema.Resolved
	resolvedResp    *jsonschema.Resolved
	resolveErr      error
)

func resolveSchemas() {
	once.Do(func() {
		var rq, rs jsonschema.Schema
		if err := json.Unmarshal([]byte(requestSchemaJSON), &rq); err != nil {
			resolveErr = fmt.Errorf("llmsummary: parsing request schema: %w", err)
			return
		}
		if err := json.Unmarshal([]byte(responseSchemaJSON), &rs); err != nil {
			resolveErr = fmt.Errorf("llmsummary: parsing response schema: %w", err)
			return
		}
		if resolvedRequest, resolveErr = rq.Resolve(nil); resolveErr != nil {
			resolveErr = fmt.Errorf("llmsummary: resolving request schema: %w", resolveErr)
			return
		}
		if resolvedResp, resolveErr = rs.Resolve(nil); resolveErr != nil {
			resolveErr = fmt.Errorf("llmsummary: resolving response schema: %w", resolveErr)
		}
	})
}

// ValidateRequest checks a raw request document against the v1 schema.
func ValidateRequest(data []byte) error {
	resolveSchemas()
	if resolveErr != nil {
		return resolveErr
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("llmsummary: parsing request: %w", err)
	}
	if err := resolvedRequest.Validate(v); err != nil {
		return fmt.Errorf("llmsummary: request failed schema validation: %w", err)
	}
	return nil
}

// ValidateResponse checks a raw response document against the v1 schema.
// A schema-valid response may still be semantically rejected later, by
// analysis/summary.Normalize, if it omits a baseline edge (the baseline
// coverage invariant) or names a node the function doesn't declare.
func ValidateResponse(data []byte) (Response, error) {
	resolveSchemas()
	if resolveErr != nil {
		return Response{}, resolveErr
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Response{}, fmt.Errorf("llmsummary: parsing response: %w", err)
	}
	if err := resolvedResp.Validate(v); err != nil {
		return Response{}, fmt.Errorf("llmsummary: response failed schema validation: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, fmt.Errorf("llmsummary: decoding response: %w", err)
	}
	if resp.FuncID == "" {
		return Response{}, fmt.Errorf("llmsummary: response missing funcId")
	}
	return resp, nil
}

// Edges decodes resp's wire edges into flow.Edge values for
// analysis/summary.Normalize to validate alongside the baseline set.
func (r Response) Edges() []flow.Edge {
	out := make([]flow.Edge, 0, len(r.WireEdges))
	for _, ew := range r.WireEdges {
		out = append(out, ew.FromWire())
	}
	return out
}
