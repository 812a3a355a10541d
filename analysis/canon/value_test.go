package canon_test

import (
	"testing"

	"github.com/jsflow-dev/jsflow/analysis/canon"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	v := canon.Object(map[string]canon.Value{
		"b": canon.Int(2),
		"a": canon.Int(1),
	})
	b, err := canon.MarshalCanonical(v)
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}
	if string(b) != `{"a":1,"b":2}` {
		t.Fatalf("unexpected output: %s", b)
	}
}

func TestMarshalCanonicalElidesUndefinedInObjects(t *testing.T) {
	v := canon.Object(map[string]canon.Value{
		"a": canon.Int(1),
		"b": canon.Undefined(),
	})
	b, _ := canon.MarshalCanonical(v)
	if string(b) != `{"a":1}` {
		t.Fatalf("expected undefined field elided, got %s", b)
	}
}

func TestMarshalCanonicalNullsUndefinedInArrays(t *testing.T) {
	v := canon.Array(canon.Int(1), canon.Undefined(), canon.Int(3))
	b, _ := canon.MarshalCanonical(v)
	if string(b) != `[1,null,3]` {
		t.Fatalf("expected undefined element nulled, got %s", b)
	}
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	nan := canon.Number(nanValue())
	if _, err := canon.MarshalCanonical(nan); err == nil {
		t.Fatalf("expected error for NaN")
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestHashDeterministic(t *testing.T) {
	v1 := canon.Object(map[string]canon.Value{"a": canon.Int(1), "b": canon.Int(2)})
	v2 := canon.Object(map[string]canon.Value{"b": canon.Int(2), "a": canon.Int(1)})
	h1, err := canon.Hash(v1)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := canon.Hash(v2)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected identical hashes regardless of construction key order")
	}
}

func TestStableSortPreservesTiesInOriginalOrder(t *testing.T) {
	type item struct {
		key string
		orig int
	}
	in := []item{{"a", 0}, {"a", 1}, {"b", 2}, {"a", 3}}
	out := canon.StableSort(in, func(a, b item) bool { return a.key < b.key })
	var origOfA []int
	for _, it := range out {
		if it.key == "a" {
			origOfA = append(origOfA, it.orig)
		}
	}
	if len(origOfA) != 3 || origOfA[0] != 0 || origOfA[1] != 1 || origOfA[2] != 3 {
		t.Fatalf("expected stable tie order [0 1 3], got %v", origOfA)
	}
}
