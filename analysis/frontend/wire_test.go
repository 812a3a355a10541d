package frontend_test

import (
	"testing"

	"github.com/jsflow-dev/jsflow/analysis/frontend"
)

const twoHopDoc = `{
  "schemaVersion": 1,
  "files": [{
    "filePath": "src/main.ts",
    "funcs": [
      {
        "span": {"start": 0, "end": 90},
        "name": "a",
        "params": ["x"],
        "body": [
          {"span": {"start": 10, "end": 20}, "kind": "assign", "targetName": "v", "isDeclaration": true,
           "value": {"span": {"start": 10, "end": 20}, "kind": "callExpr",
                     "callee": {"span": {"start": 10, "end": 11}, "kind": "identifier", "name": "b"},
                     "args": [{"span": {"start": 12, "end": 13}, "kind": "identifier", "name": "x"}]}},
          {"span": {"start": 30, "end": 40}, "kind": "return",
           "value": {"span": {"start": 37, "end": 38}, "kind": "identifier", "name": "v"}}
        ]
      },
      {
        "span": {"start": 100, "end": 190},
        "name": "b",
        "params": ["y"],
        "body": [
          {"span": {"start": 110, "end": 120}, "kind": "return",
           "value": {"span": {"start": 117, "end": 118}, "kind": "identifier", "name": "y"}}
        ]
      }
    ]
  }]
}`

func TestDecodeTwoHopProgram(t *testing.T) {
	prog, err := frontend.Decode([]byte(twoHopDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(prog.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(prog.Files))
	}
	sf := prog.Files[0]
	if sf.FilePath != "src/main.ts" || len(sf.Funcs) != 2 {
		t.Fatalf("unexpected file: %+v", sf)
	}
	a := sf.Funcs[0]
	if a.Name != "a" || len(a.Body) != 2 {
		t.Fatalf("unexpected func a: %+v", a)
	}
	assign := a.Body[0]
	if assign.Kind != frontend.KindAssign || assign.TargetName != "v" || !assign.IsDeclaration {
		t.Fatalf("unexpected assign stmt: %+v", assign)
	}
	if assign.Value.Kind != frontend.KindCallExpr || assign.Value.Callee.Name != "b" {
		t.Fatalf("unexpected call value: %+v", assign.Value)
	}
	if len(assign.Value.Args) != 1 || assign.Value.Args[0].Name != "x" {
		t.Fatalf("unexpected call args: %+v", assign.Value.Args)
	}
	ret := a.Body[1]
	if ret.Kind != frontend.KindReturn || ret.Value.Name != "v" {
		t.Fatalf("unexpected return stmt: %+v", ret)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	doc := `{"schemaVersion":1,"files":[{"filePath":"a.ts","funcs":[{"span":{"start":0,"end":1},"params":[],"body":[{"span":{"start":0,"end":1},"kind":"bogus"}]}]}]}`
	if _, err := frontend.Decode([]byte(doc)); err == nil {
		t.Fatalf("expected an error for an unknown statement kind")
	}
}

func TestDecodeRejectsMissingSchemaVersion(t *testing.T) {
	doc := `{"files":[]}`
	if _, err := frontend.Decode([]byte(doc)); err == nil {
		t.Fatalf("expected a schema validation error for a missing schemaVersion")
	}
}
