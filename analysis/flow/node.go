// Package flow defines the FuncSummary/FlowFact node and edge algebra
// shared by the cheap static pass, the summary schema, the fixpoint and the
// fact emitter (spec.md §3): var | call_arg | heap_read | heap_write |
// return.
package flow

import (
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// NodeKind tags the closed node sum type.
type NodeKind int

const (
	NodeVar NodeKind = iota
	NodeCallArg
	NodeHeapRead
	NodeHeapWrite
	NodeReturn
)

// String names the node kind as it appears in canonical JSON output.
func (k NodeKind) String() string {
	switch k {
	case NodeVar:
		return "var"
	case NodeCallArg:
		return "call_arg"
	case NodeHeapRead:
		return "heap_read"
	case NodeHeapWrite:
		return "heap_write"
	case NodeReturn:
		return "return"
	default:
		return "unknown"
	}
}

// Node is one endpoint of a FuncSummary or FlowFact edge. Only the fields
// matching Kind are meaningful. FuncID is populated only when a node is
// promoted to a FlowFact (spec.md §3: the global var/return node variants
// carry an explicit FuncId, unlike their FuncSummary-scoped counterparts,
// where it is implicit); it is the zero FuncId for every FuncSummary edge,
// which is harmless since a summary's nodes all share the same implicit
// function.
type Node struct {
	Kind NodeKind

	FuncID   ids.FuncId     // NodeVar, NodeReturn (FlowFact scope only)
	Var      ids.VarId      // NodeVar
	Callsite ids.CallsiteId // NodeCallArg
	ArgIndex int            // NodeCallArg
	Heap     ids.HeapId     // NodeHeapRead, NodeHeapWrite
}

// VarNode constructs a var(VarId) node scoped to the implicit function of
// the summary/edge it appears in.
func VarNode(v ids.VarId) Node { return Node{Kind: NodeVar, Var: v} }

// VarNodeIn constructs a var(FuncId,VarId) node for FlowFact emission.
func VarNodeIn(funcID ids.FuncId, v ids.VarId) Node {
	return Node{Kind: NodeVar, FuncID: funcID, Var: v}
}

// ReturnNodeIn constructs a return(FuncId) node for FlowFact emission.
func ReturnNodeIn(funcID ids.FuncId) Node { return Node{Kind: NodeReturn, FuncID: funcID} }

// CallArgNode constructs a call_arg(CallsiteId,index) node.
func CallArgNode(c ids.CallsiteId, index int) Node {
	return Node{Kind: NodeCallArg, Callsite: c, ArgIndex: index}
}

// HeapReadNode constructs a heap_read(HeapId) node.
func HeapReadNode(h ids.HeapId) Node { return Node{Kind: NodeHeapRead, Heap: h} }

// HeapWriteNode constructs a heap_write(HeapId) node.
func HeapWriteNode(h ids.HeapId) Node { return Node{Kind: NodeHeapWrite, Heap: h} }

// ReturnNode constructs the return pseudo-node.
func ReturnNode() Node { return Node{Kind: NodeReturn} }

// CanBeSource reports whether the node kind is legal as an edge's `from`
// (spec.md §3: `from` ∈ {var, heap_read}).
func (n Node) CanBeSource() bool { return n.Kind == NodeVar || n.Kind == NodeHeapRead }

// CanBeTarget reports whether the node kind is legal as an edge's `to`
// (spec.md §3: `to` ∈ {var, call_arg, heap_write, return}).
func (n Node) CanBeTarget() bool {
	switch n.Kind {
	case NodeVar, NodeCallArg, NodeHeapWrite, NodeReturn:
		return true
	default:
		return false
	}
}

// Compare implements the total order (kind, then structural fields) that
// every comparator table in this module reduces to for node ordering.
func (n Node) Compare(other Node) int {
	if n.Kind != other.Kind {
		return cmpInt(int(n.Kind), int(other.Kind))
	}
	switch n.Kind {
	case NodeVar:
		if c := n.FuncID.Compare(other.FuncID); c != 0 {
			return c
		}
		return n.Var.Compare(other.Var)
	case NodeCallArg:
		if c := n.Callsite.Compare(other.Callsite); c != 0 {
			return c
		}
		return cmpInt(n.ArgIndex, other.ArgIndex)
	case NodeHeapRead, NodeHeapWrite:
		return n.Heap.Compare(other.Heap)
	case NodeReturn:
		return n.FuncID.Compare(other.FuncID)
	default:
		return 0
	}
}

// Equal reports structural equality.
func (n Node) Equal(other Node) bool { return n.Compare(other) == 0 }

// Key returns a string uniquely identifying the node, used to de-duplicate
// edges and facts by composite key (spec.md §4.10).
func (n Node) Key() string {
	switch n.Kind {
	case NodeVar:
		return "var:" + n.FuncID.String() + ":" + n.Var.String()
	case NodeCallArg:
		return fmt.Sprintf("call_arg:%s:%d", n.Callsite.String(), n.ArgIndex)
	case NodeHeapRead:
		return "heap_read:" + n.Heap.String()
	case NodeHeapWrite:
		return "heap_write:" + n.Heap.String()
	case NodeReturn:
		return "return:" + n.FuncID.String()
	default:
		return "unknown"
	}
}

// Edge is a (from, to) pair. FuncSummary and FlowFact are both, at their
// core, sets of Edge values scoped to a function.
type Edge struct {
	From Node
	To   Node
}

// Compare orders edges by (From, To), the ordering the spec calls
// "(kind, source, target)" for the cheap pass and "(fromKind, fromFields,
// toKind, toFields)" for the fact emitter — the same total order either way.
func (e Edge) Compare(other Edge) int {
	if c := e.From.Compare(other.From); c != 0 {
		return c
	}
	return e.To.Compare(other.To)
}

// Equal reports structural equality.
func (e Edge) Equal(other Edge) bool { return e.From.Equal(other.From) && e.To.Equal(other.To) }

// Key returns the composite "from→to" de-duplication key (spec.md §4.10).
func (e Edge) Key() string { return e.From.Key() + "->" + e.To.Key() }

// Valid reports whether the edge's endpoints occupy legal positions.
func (e Edge) Valid() bool { return e.From.CanBeSource() && e.To.CanBeTarget() }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
