package frontend

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// Decode parses a pre-parsed program document into a Program. The core
// never parses JS/TS source itself (spec.md §1); cmd/jsflow instead reads
// this wire format from the path given to --repo/--tsconfig, produced by
// whatever frontend ran ahead of it. Grounded on analysis/callgraph's own
// external-input handling: a versioned JSON Schema gate ahead of field
// decoding, string-named enums instead of bare integers on the wire.
const programSchemaJSON = `{
  "type": "object",
  "required": ["schemaVersion", "files"],
  "properties": {
    "schemaVersion": {"type": "integer", "const": 1},
    "files": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["filePath", "funcs"],
        "properties": {
          "filePath": {"type": "string"},
          "funcs": {"type": "array", "items": {"$ref": "#/$defs/func"}}
        }
      }
    }
  },
  "$defs": {
    "span": {
      "type": "object",
      "required": ["start", "end"],
      "properties": {"start": {"type": "integer"}, "end": {"type": "integer"}}
    },
    "func": {
      "type": "object",
      "required": ["span", "params", "body"],
      "properties": {
        "span": {"$ref": "#/$defs/span"},
        "name": {"type": "string"},
        "params": {"type": "array", "items": {"type": "string"}},
        "body": {"type": "array", "items": {"$ref": "#/$defs/stmt"}}
      }
    },
    "stmt": {
      "type": "object",
      "required": ["span", "kind"],
      "properties": {
        "span": {"$ref": "#/$defs/span"},
        "kind": {"type": "string"},
        "targetName": {"type": "string"},
        "isDeclaration": {"type": "boolean"},
        "value": {"$ref": "#/$defs/expr"},
        "callee": {"$ref": "#/$defs/expr"},
        "args": {"type": "array", "items": {"$ref": "#/$defs/expr"}},
        "object": {"$ref": "#/$defs/expr"},
        "propertyName": {"type": "string"},
        "propertyIsDynamic": {"type": "boolean"}
      }
    },
    "expr": {
      "type": "object",
      "required": ["span", "kind"],
      "properties": {
        "span": {"$ref": "#/$defs/span"},
        "kind": {"type": "string"},
        "name": {"type": "string"},
        "stringValue": {"type": "string"},
        "numberValue": {"type": "number"},
        "boolValue": {"type": "boolean"},
        "object": {"$ref": "#/$defs/expr"},
        "propertyName": {"type": "string"},
        "propertyIsDynamic": {"type": "boolean"},
        "optional": {"type": "boolean"},
        "callee": {"$ref": "#/$defs/expr"},
        "args": {"type": "array", "items": {"$ref": "#/$defs/expr"}},
        "cond": {"$ref": "#/$defs/expr"},
        "then": {"$ref": "#/$defs/expr"},
        "else": {"$ref": "#/$defs/expr"},
        "lhs": {"$ref": "#/$defs/expr"},
        "rhs": {"$ref": "#/$defs/expr"},
        "awaited": {"$ref": "#/$defs/expr"},
        "inner": {"$ref": "#/$defs/expr"}
      }
    }
  }
}`

var (
	programSchemaOnce     sync.Once
	resolvedProgramSchema *jsonschema.Resolved
	programSchemaErr      error
)

func resolvedProgramInputSchema() (*jsonschema.Resolved, error) {
	programSchemaOnce.Do(func() {
		var s jsonschema.Schema
		if err := json.Unmarshal([]byte(programSchemaJSON), &s); err != nil {
			programSchemaErr = fmt.Errorf("frontend: parsing embedded schema: %w", err)
			return
		}
		resolvedProgramSchema, programSchemaErr = s.Resolve(nil)
		if programSchemaErr != nil {
			programSchemaErr = fmt.Errorf("frontend: resolving embedded schema: %w", programSchemaErr)
		}
	})
	return resolvedProgramSchema, programSchemaErr
}

// ValidateInput checks raw program document bytes against the v1 schema.
func ValidateInput(data []byte) error {
	resolved, err := resolvedProgramInputSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("frontend: parsing program document: %w", err)
	}
	if err := resolved.Validate(v); err != nil {
		return fmt.Errorf("frontend: program document failed schema validation: %w", err)
	}
	return nil
}

var kindNames = map[NodeKind]string{
	KindOtherStatement:   "otherStatement",
	KindAssign:           "assign",
	KindBareCall:         "bareCall",
	KindBareAwait:        "bareAwait",
	KindReturn:           "return",
	KindMemberWrite:      "memberWrite",
	KindIdentifier:       "identifier",
	KindThis:             "this",
	KindCallExpr:         "callExpr",
	KindNewExpr:          "newExpr",
	KindObjectLiteral:    "objectLiteral",
	KindArrayLiteral:     "arrayLiteral",
	KindAwaitExpr:        "awaitExpr",
	KindMemberAccess:     "memberAccess",
	KindIndexAccess:      "indexAccess",
	KindConditional:      "conditional",
	KindLogicalAnd:       "logicalAnd",
	KindLogicalOr:        "logicalOr",
	KindNullishCoalesce:  "nullishCoalesce",
	KindStringLiteral:    "stringLiteral",
	KindNumberLiteral:    "numberLiteral",
	KindBoolLiteral:      "boolLiteral",
	KindNullLiteral:      "nullLiteral",
	KindUndefinedLiteral: "undefinedLiteral",
	KindSpread:           "spread",
	KindOther:            "other",
}

var namesToKind = func() map[string]NodeKind {
	m := make(map[string]NodeKind, len(kindNames))
	for k, v := range kindNames {
		m[v] = k
	}
	return m
}()

func parseKind(s string) (NodeKind, error) {
	k, ok := namesToKind[s]
	if !ok {
		return 0, fmt.Errorf("frontend: unknown node kind %q", s)
	}
	return k, nil
}

type spanWire struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s spanWire) toSpan() Span { return Span{Start: s.Start, End: s.End} }

type exprWire struct {
	Span              spanWire  `json:"span"`
	Kind              string    `json:"kind"`
	Name              string    `json:"name,omitempty"`
	StringValue       string    `json:"stringValue,omitempty"`
	NumberValue       float64   `json:"numberValue,omitempty"`
	BoolValue         bool      `json:"boolValue,omitempty"`
	Object            *exprWire `json:"object,omitempty"`
	PropertyName      string    `json:"propertyName,omitempty"`
	PropertyIsDynamic bool      `json:"propertyIsDynamic,omitempty"`
	Optional          bool      `json:"optional,omitempty"`
	Callee            *exprWire `json:"callee,omitempty"`
	Args              []exprWire `json:"args,omitempty"`
	Cond              *exprWire `json:"cond,omitempty"`
	Then              *exprWire `json:"then,omitempty"`
	Else              *exprWire `json:"else,omitempty"`
	Lhs               *exprWire `json:"lhs,omitempty"`
	Rhs               *exprWire `json:"rhs,omitempty"`
	Awaited           *exprWire `json:"awaited,omitempty"`
	Inner             *exprWire `json:"inner,omitempty"`
}

func (e *exprWire) toExpr() (*ExprNode, error) {
	if e == nil {
		return nil, nil
	}
	kind, err := parseKind(e.Kind)
	if err != nil {
		return nil, err
	}
	n := &ExprNode{
		Span:              e.Span.toSpan(),
		Kind:              kind,
		Name:              e.Name,
		StringValue:       e.StringValue,
		NumberValue:       e.NumberValue,
		BoolValue:         e.BoolValue,
		PropertyName:      e.PropertyName,
		PropertyIsDynamic: e.PropertyIsDynamic,
		Optional:          e.Optional,
	}
	var convErr error
	conv := func(w *exprWire) *ExprNode {
		r, err := w.toExpr()
		if err != nil && convErr == nil {
			convErr = err
		}
		return r
	}
	n.Object = conv(e.Object)
	n.Callee = conv(e.Callee)
	n.Cond = conv(e.Cond)
	n.Then = conv(e.Then)
	n.ElseExpr = conv(e.Else)
	n.Lhs = conv(e.Lhs)
	n.Rhs = conv(e.Rhs)
	n.Awaited = conv(e.Awaited)
	n.Inner = conv(e.Inner)
	if convErr != nil {
		return nil, convErr
	}
	for i := range e.Args {
		a, err := e.Args[i].toExpr()
		if err != nil {
			return nil, err
		}
		n.Args = append(n.Args, a)
	}
	return n, nil
}

type stmtWire struct {
	Span              spanWire   `json:"span"`
	Kind              string     `json:"kind"`
	TargetName        string     `json:"targetName,omitempty"`
	IsDeclaration     bool       `json:"isDeclaration,omitempty"`
	Value             *exprWire  `json:"value,omitempty"`
	Callee            *exprWire  `json:"callee,omitempty"`
	Args              []exprWire `json:"args,omitempty"`
	Object            *exprWire  `json:"object,omitempty"`
	PropertyName      string     `json:"propertyName,omitempty"`
	PropertyIsDynamic bool       `json:"propertyIsDynamic,omitempty"`
}

func (s *stmtWire) toStmt() (*StmtNode, error) {
	kind, err := parseKind(s.Kind)
	if err != nil {
		return nil, err
	}
	value, err := s.Value.toExpr()
	if err != nil {
		return nil, err
	}
	callee, err := s.Callee.toExpr()
	if err != nil {
		return nil, err
	}
	object, err := s.Object.toExpr()
	if err != nil {
		return nil, err
	}
	n := &StmtNode{
		Span:              s.Span.toSpan(),
		Kind:              kind,
		TargetName:        s.TargetName,
		IsDeclaration:     s.IsDeclaration,
		Value:             value,
		Callee:            callee,
		Object:            object,
		PropertyName:      s.PropertyName,
		PropertyIsDynamic: s.PropertyIsDynamic,
	}
	for i := range s.Args {
		a, err := s.Args[i].toExpr()
		if err != nil {
			return nil, err
		}
		n.Args = append(n.Args, a)
	}
	return n, nil
}

type funcWire struct {
	Span   spanWire   `json:"span"`
	Name   string     `json:"name,omitempty"`
	Params []string   `json:"params"`
	Body   []stmtWire `json:"body"`
}

func (f *funcWire) toFunc() (*FuncNode, error) {
	n := &FuncNode{Span: f.Span.toSpan(), Name: f.Name, Params: f.Params}
	for i := range f.Body {
		s, err := f.Body[i].toStmt()
		if err != nil {
			return nil, fmt.Errorf("func %s, statement %d: %w", f.Name, i, err)
		}
		n.Body = append(n.Body, s)
	}
	return n, nil
}

type fileWire struct {
	FilePath string     `json:"filePath"`
	Funcs    []funcWire `json:"funcs"`
}

type programWire struct {
	SchemaVersion int        `json:"schemaVersion"`
	Files         []fileWire `json:"files"`
}

// Decode validates and parses a program document produced by an external
// frontend into a Program ready for analysis/index.Build.
func Decode(data []byte) (*Program, error) {
	if err := ValidateInput(data); err != nil {
		return nil, err
	}
	var pw programWire
	if err := json.Unmarshal(data, &pw); err != nil {
		return nil, fmt.Errorf("frontend: decoding program document: %w", err)
	}
	prog := &Program{}
	for _, fw := range pw.Files {
		sf := &SourceFile{FilePath: fw.FilePath}
		for i := range fw.Funcs {
			fn, err := fw.Funcs[i].toFunc()
			if err != nil {
				return nil, fmt.Errorf("frontend: file %s: %w", fw.FilePath, err)
			}
			sf.Funcs = append(sf.Funcs, fn)
		}
		prog.Files = append(prog.Files, sf)
	}
	return prog, nil
}
