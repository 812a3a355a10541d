package explain_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsflow-dev/jsflow/analysis/cheap"
	"github.com/jsflow-dev/jsflow/analysis/config"
	"github.com/jsflow-dev/jsflow/analysis/explain"
	"github.com/jsflow-dev/jsflow/analysis/frontend"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/ir"
	"github.com/jsflow-dev/jsflow/analysis/summary"
)

func buildEntry(t *testing.T) explain.FunctionEntry {
	t.Helper()
	fid, err := ids.NewFuncId("a.ts", 0, 50)
	if err != nil {
		t.Fatalf("NewFuncId: %v", err)
	}
	fn := &frontend.FuncNode{
		Params: []string{"x"},
		Body:   []*frontend.StmtNode{{Kind: frontend.KindReturn, Value: &frontend.ExprNode{Kind: frontend.KindIdentifier, Name: "x"}}},
	}
	fir, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	fir = ir.Canonicalize(fir)
	baseline := cheap.Run(fir)
	fsum, err := summary.Normalize(fir, baseline, baseline.Edges, config.Default())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return explain.FunctionEntry{FuncID: fid, IR: fir, Summary: fsum}
}

func TestWriteBundleProducesManifestAndFunctionFile(t *testing.T) {
	dir := t.TempDir()
	entry := buildEntry(t)

	if err := explain.WriteBundle(dir, config.Default(), []explain.FunctionEntry{entry}); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	manifestBytes, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("reading manifest.json: %v", err)
	}
	var manifest map[string]any
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		t.Fatalf("unmarshaling manifest: %v", err)
	}
	if manifest["functionCount"].(float64) != 1 {
		t.Fatalf("expected functionCount 1, got %v", manifest["functionCount"])
	}

	hash := explain.FuncHash(entry.FuncID)
	bundleBytes, err := os.ReadFile(filepath.Join(dir, "functions", hash+".json"))
	if err != nil {
		t.Fatalf("reading function bundle: %v", err)
	}
	var bundle map[string]any
	if err := json.Unmarshal(bundleBytes, &bundle); err != nil {
		t.Fatalf("unmarshaling bundle: %v", err)
	}
	if bundle["baselineCoverage"] != "ok" {
		t.Fatalf("expected baselineCoverage ok, got %v", bundle["baselineCoverage"])
	}
	if bundle["funcId"] != entry.FuncID.String() {
		t.Fatalf("expected funcId %s, got %v", entry.FuncID, bundle["funcId"])
	}
}

func TestWriteBundleClearsStaleFunctionFiles(t *testing.T) {
	dir := t.TempDir()
	functionsDir := filepath.Join(dir, "functions")
	if err := os.MkdirAll(functionsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	stale := filepath.Join(functionsDir, "stale.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := explain.WriteBundle(dir, config.Default(), nil); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale function file to be cleared, stat err = %v", err)
	}
}
