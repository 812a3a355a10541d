package callgraph

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// inputSchemaJSON is the JSON Schema for the external call-graph input
// document, spec.md §6: `{ schemaVersion:1, nodes:[...], edges:[...] }`.
const inputSchemaJSON = `{
  "type": "object",
  "required": ["schemaVersion", "nodes", "edges"],
  "properties": {
    "schemaVersion": {"type": "integer", "const": 1},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "filePath", "startOffset", "endOffset"],
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"},
          "filePath": {"type": "string"},
          "startOffset": {"type": "integer", "minimum": 0},
          "endOffset": {"type": "integer", "minimum": 0}
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["callerId", "calleeId", "callsite"],
        "properties": {
          "callerId": {"type": "string"},
          "calleeId": {"type": "string"},
          "kind": {"type": "string", "enum": ["call", "construct"]},
          "callsite": {
            "type": "object",
            "required": ["filePath", "startOffset", "endOffset"],
            "properties": {
              "filePath": {"type": "string"},
              "startOffset": {"type": "integer", "minimum": 0},
              "endOffset": {"type": "integer", "minimum": 0}
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	resolvedSchema *jsonschema.Resolved
	schemaErr      error
)

func resolvedInputSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		var s jsonschema.Schema
		if err := json.Unmarshal([]byte(inputSchemaJSON), &s); err != nil {
			schemaErr = fmt.Errorf("callgraph: parsing embedded schema: %w", err)
			return
		}
		resolvedSchema, schemaErr = s.Resolve(nil)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("callgraph: resolving embedded schema: %w", schemaErr)
		}
	})
	return resolvedSchema, schemaErr
}

// ValidateInput checks raw call-graph input JSON bytes against the v1
// schema without fully parsing it into ExternalGraph, so a schema
// violation is reported before any field-level decoding is attempted.
func ValidateInput(data []byte) error {
	resolved, err := resolvedInputSchema()
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return nil
}
