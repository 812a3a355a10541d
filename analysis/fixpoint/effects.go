package fixpoint

import (
	"github.com/jsflow-dev/jsflow/analysis/cheap"
	"github.com/jsflow-dev/jsflow/analysis/flow"
	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// paramIndexOfAnchor reports whether anchor is the initial synthetic anchor
// of one of funcID's own parameters, returning its index. This is the test
// spec.md §4.9 calls "synthetic anchors belonging to G's parameters" —
// excludes any anchor belonging to a local allocation, which never survives
// into a caller's effects.
func paramIndexOfAnchor(funcID ids.FuncId, anchor ids.StmtId) (int, bool) {
	if !anchor.Func.Equal(funcID) {
		return 0, false
	}
	if anchor.Index < cheap.ParamAnchorBase || anchor.Index >= cheap.LocalAnchorBase {
		return 0, false
	}
	return anchor.Index - cheap.ParamAnchorBase, true
}

// paramReturn returns the set of parameter indices i of gState's function
// for which a param(i) -> return fact currently holds (rule 1).
func paramReturn(gState *FuncState) map[int]bool {
	out := map[int]bool{}
	for _, f := range gState.Facts {
		if f.From.Kind == flow.NodeVar && f.From.Var.IsParam && f.To.Kind == flow.NodeReturn {
			out[f.From.Var.Index] = true
		}
	}
	return out
}

// paramHeapWrite records that param(srcParam) -> heap_write(anchor(anchorParam), prop)
// currently holds in the callee (rule 2).
type paramHeapWrite struct {
	srcParam    int
	anchorParam int
	prop        string
}

func paramHeapWrites(g ids.FuncId, gState *FuncState) []paramHeapWrite {
	var out []paramHeapWrite
	for _, f := range gState.Facts {
		if f.From.Kind != flow.NodeVar || !f.From.Var.IsParam || f.To.Kind != flow.NodeHeapWrite {
			continue
		}
		if k, ok := paramIndexOfAnchor(g, f.To.Heap.Anchor); ok {
			out = append(out, paramHeapWrite{srcParam: f.From.Var.Index, anchorParam: k, prop: f.To.Heap.Property})
		}
	}
	return out
}

// heapReadReturn records that heap_read(anchor(anchorParam), prop) -> return
// currently holds in the callee (rule 3).
type heapReadReturn struct {
	anchorParam int
	prop        string
}

func heapReadReturns(g ids.FuncId, gState *FuncState) []heapReadReturn {
	var out []heapReadReturn
	for _, f := range gState.Facts {
		if f.From.Kind != flow.NodeHeapRead || f.To.Kind != flow.NodeReturn {
			continue
		}
		if k, ok := paramIndexOfAnchor(g, f.From.Heap.Anchor); ok {
			out = append(out, heapReadReturn{anchorParam: k, prop: f.From.Heap.Property})
		}
	}
	return out
}

// heapReadHeapWrite records that heap_read(anchor(readParam), readProp) ->
// heap_write(anchor(writeParam), writeProp) currently holds in the callee
// (rule 4).
type heapReadHeapWrite struct {
	readParam  int
	readProp   string
	writeParam int
	writeProp  string
}

func heapReadHeapWrites(g ids.FuncId, gState *FuncState) []heapReadHeapWrite {
	var out []heapReadHeapWrite
	for _, f := range gState.Facts {
		if f.From.Kind != flow.NodeHeapRead || f.To.Kind != flow.NodeHeapWrite {
			continue
		}
		ri, rok := paramIndexOfAnchor(g, f.From.Heap.Anchor)
		wi, wok := paramIndexOfAnchor(g, f.To.Heap.Anchor)
		if rok && wok {
			out = append(out, heapReadHeapWrite{readParam: ri, readProp: f.From.Heap.Property, writeParam: wi, writeProp: f.To.Heap.Property})
		}
	}
	return out
}
