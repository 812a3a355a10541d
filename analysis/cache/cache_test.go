package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsflow-dev/jsflow/analysis/cache"
	"github.com/jsflow-dev/jsflow/analysis/frontend"
	"github.com/jsflow-dev/jsflow/analysis/ids"
	"github.com/jsflow-dev/jsflow/analysis/ir"
)

func buildSample(t *testing.T) *ir.FuncIR {
	t.Helper()
	fid, err := ids.NewFuncId("a.ts", 0, 10)
	if err != nil {
		t.Fatalf("NewFuncId: %v", err)
	}
	fn := &frontend.FuncNode{
		Params: []string{"x"},
		Body:   []*frontend.StmtNode{{Kind: frontend.KindReturn, Value: &frontend.ExprNode{Kind: frontend.KindIdentifier, Name: "x"}}},
	}
	f, err := ir.Build(fid, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ir.Canonicalize(f)
}

func TestKeyDeterministic(t *testing.T) {
	f := buildSample(t)
	k1, err := cache.Key(1, f)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	k2, err := cache.Key(1, f)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if k1 != k2 {
		t.Fatalf("expected deterministic key, got %s vs %s", k1, k2)
	}
	k3, _ := cache.Key(2, f)
	if k1 == k3 {
		t.Fatalf("expected different config version to change the key")
	}
}

func TestDiskStorePutIsImmutable(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewDiskStore(dir)
	if err := store.Put("abcd1234", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put("abcd1234", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, err := store.Get("abcd1234")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("expected immutable first write to survive, got %s", got)
	}
	want := filepath.Join(dir, "func_summaries", "ab", "cd", "abcd1234.json")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected sharded path %s to exist: %v", want, err)
	}
}

func TestMemStoreNotFound(t *testing.T) {
	m := cache.NewMemStore()
	if _, err := m.Get("missing"); err != cache.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
