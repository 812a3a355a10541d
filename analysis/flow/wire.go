package flow

import (
	"encoding/json"
	"fmt"

	"github.com/jsflow-dev/jsflow/analysis/ids"
)

// MarshalJSON renders n in the wire shape spec.md §6 shows for flow-fact
// nodes. encoding/json sorts map keys, so the field order in the literal
// examples ("funcId","id","kind" etc., alphabetical) falls out for free.
func (n Node) MarshalJSON() ([]byte, error) {
	m := map[string]any{"kind": n.Kind.String()}
	switch n.Kind {
	case NodeVar:
		if n.FuncID.FilePath != "" {
			m["funcId"] = n.FuncID.String()
		}
		m["id"] = n.Var.String()
	case NodeCallArg:
		m["callsiteId"] = n.Callsite.String()
		m["index"] = n.ArgIndex
	case NodeHeapRead, NodeHeapWrite:
		m["heapId"] = n.Heap.String()
	case NodeReturn:
		if n.FuncID.FilePath != "" {
			m["funcId"] = n.FuncID.String()
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON parses the wire shape back into a Node.
func (n *Node) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	kind, _ := m["kind"].(string)
	switch kind {
	case "var":
		v, err := ids.ParseVarId(str(m["id"]))
		if err != nil {
			return fmt.Errorf("flow: parsing var node: %w", err)
		}
		*n = Node{Kind: NodeVar, Var: v}
		if fid, ok := m["funcId"]; ok {
			f, err := ids.ParseFuncId(str(fid))
			if err != nil {
				return fmt.Errorf("flow: parsing var node funcId: %w", err)
			}
			n.FuncID = f
		}
	case "call_arg":
		cs, err := ids.ParseStmtId(str(m["callsiteId"]))
		if err != nil {
			return fmt.Errorf("flow: parsing call_arg node: %w", err)
		}
		idx, _ := m["index"].(float64)
		*n = Node{Kind: NodeCallArg, Callsite: cs, ArgIndex: int(idx)}
	case "heap_read", "heap_write":
		h, err := ids.ParseHeapId(str(m["heapId"]))
		if err != nil {
			return fmt.Errorf("flow: parsing %s node: %w", kind, err)
		}
		k := NodeHeapRead
		if kind == "heap_write" {
			k = NodeHeapWrite
		}
		*n = Node{Kind: k, Heap: h}
	case "return":
		*n = Node{Kind: NodeReturn}
		if fid, ok := m["funcId"]; ok {
			f, err := ids.ParseFuncId(str(fid))
			if err != nil {
				return fmt.Errorf("flow: parsing return node funcId: %w", err)
			}
			n.FuncID = f
		}
	default:
		return fmt.Errorf("flow: unrecognized node kind %q", kind)
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// EdgeWire is the JSON-friendly mirror of Edge, used to marshal/unmarshal
// FuncSummary edges for the on-disk cache.
type EdgeWire struct {
	From Node `json:"from"`
	To   Node `json:"to"`
}

// ToWire converts e to its JSON-friendly form.
func (e Edge) ToWire() EdgeWire { return EdgeWire{From: e.From, To: e.To} }

// FromWire converts a wire edge back to an Edge.
func (w EdgeWire) FromWire() Edge { return Edge{From: w.From, To: w.To} }
