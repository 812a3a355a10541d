package ir

import "github.com/jsflow-dev/jsflow/analysis/canon"

// CanonicalValue renders f as a canon.Value suitable for canonical hashing
// (spec.md §4.7's cache key: hash of `(analysisConfigVersion, normalizedIR)`)
// and for byte-stable serialization generally. f is assumed already
// normalized (Validate passed, Canonicalize applied).
func (f *FuncIR) CanonicalValue() canon.Value {
	params := make([]canon.Value, len(f.Params))
	for i, p := range f.Params {
		params[i] = canon.String(p.String())
	}
	locals := make([]canon.Value, len(f.Locals))
	for i, l := range f.Locals {
		locals[i] = canon.String(l.String())
	}
	stmts := make([]canon.Value, len(f.Stmts))
	for i, s := range f.Stmts {
		stmts[i] = stmtValue(s)
	}
	return canon.Object(map[string]canon.Value{
		"schemaVersion": canon.Int(f.SchemaVersion),
		"funcId":        canon.String(f.FuncID.String()),
		"params":        canon.Array(params...),
		"locals":        canon.Array(locals...),
		"stmts":         canon.Array(stmts...),
	})
}

func rvalueValue(r RValue) canon.Value {
	switch r.Kind {
	case RVVar:
		return canon.Object(map[string]canon.Value{"kind": canon.String("var"), "id": canon.String(r.Var.String())})
	case RVLitString:
		return canon.Object(map[string]canon.Value{"kind": canon.String("lit_string"), "value": canon.String(r.LitString)})
	case RVLitNumber:
		return canon.Object(map[string]canon.Value{"kind": canon.String("lit_number"), "value": canon.Number(r.LitNumber)})
	case RVLitBool:
		return canon.Object(map[string]canon.Value{"kind": canon.String("lit_bool"), "value": canon.Bool(r.LitBool)})
	case RVLitNull:
		return canon.Object(map[string]canon.Value{"kind": canon.String("lit_null")})
	case RVUndef:
		return canon.Object(map[string]canon.Value{"kind": canon.String("undef")})
	default:
		return canon.Object(map[string]canon.Value{"kind": canon.String("unknown")})
	}
}

func rvaluesValue(rs []RValue) canon.Value {
	out := make([]canon.Value, len(rs))
	for i, r := range rs {
		out[i] = rvalueValue(r)
	}
	return canon.Array(out...)
}

func stmtValue(s Stmt) canon.Value {
	fields := map[string]canon.Value{
		"anchor": canon.String(s.Anchor.String()),
		"kind":   canon.String(s.Kind.String()),
	}
	switch s.Kind {
	case StmtAssign:
		fields["dst"] = canon.String(s.Dst.String())
		fields["src"] = rvalueValue(s.Src)
	case StmtReturn:
		fields["hasValue"] = canon.Bool(s.HasValue)
		if s.HasValue {
			fields["value"] = rvalueValue(s.Value)
		}
	case StmtCall:
		fields["hasDst"] = canon.Bool(s.HasDst)
		if s.HasDst {
			fields["dst"] = canon.String(s.Dst.String())
		}
		fields["callee"] = rvalueValue(s.Callee)
		fields["args"] = rvaluesValue(s.Args)
	case StmtAwait:
		fields["hasDst"] = canon.Bool(s.HasDst)
		if s.HasDst {
			fields["dst"] = canon.String(s.Dst.String())
		}
		fields["src"] = rvalueValue(s.Src)
	case StmtAlloc:
		fields["dst"] = canon.String(s.Dst.String())
		fields["allocKind"] = canon.Int(int(s.AllocKindValue))
		fields["hasCtor"] = canon.Bool(s.HasCtor)
		if s.HasCtor {
			fields["ctor"] = rvalueValue(s.Ctor)
		}
		fields["args"] = rvaluesValue(s.Args)
	case StmtMemberRead:
		fields["dst"] = canon.String(s.Dst.String())
		fields["object"] = rvalueValue(s.Object)
		fields["propertyName"] = canon.String(s.PropertyName)
		fields["propertyIsDynamic"] = canon.Bool(s.PropertyIsDynamic)
		fields["optional"] = canon.Bool(s.Optional)
	case StmtMemberWrite:
		fields["object"] = rvalueValue(s.Object)
		fields["propertyName"] = canon.String(s.PropertyName)
		fields["propertyIsDynamic"] = canon.Bool(s.PropertyIsDynamic)
		fields["src"] = rvalueValue(s.Src)
	case StmtSelect:
		fields["dst"] = canon.String(s.Dst.String())
		fields["cond"] = rvalueValue(s.Cond)
		fields["then"] = rvalueValue(s.Then)
		fields["else"] = rvalueValue(s.Else)
	case StmtShortCircuit:
		fields["dst"] = canon.String(s.Dst.String())
		fields["op"] = canon.String(s.Op)
		fields["lhs"] = rvalueValue(s.Lhs)
		fields["rhs"] = rvalueValue(s.Rhs)
	}
	return canon.Object(fields)
}
