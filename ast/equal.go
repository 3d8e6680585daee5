package ast

import "reflect"

// Equal reports whether a and b are structurally equal: same node kind,
// same payload values, and the same #key:val attribute map. Where and the
// lval/to_call/survey flags are deliberately ignored, since two
// independently-parsed occurrences of the same source text should compare
// equal regardless of where they appear in a larger tree or what role a
// caller has flagged them for (§8 "Parse round-trip").
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !attrsEqual(a.Attrs(), b.Attrs()) {
		return false
	}
	switch x := a.(type) {
	case *Integer:
		return x.Value == b.(*Integer).Value
	case *Decimal:
		return x.Value == b.(*Decimal).Value
	case *Boolean:
		return x.Value == b.(*Boolean).Value
	case *String:
		return x.Value == b.(*String).Value
	case *RawString:
		return x.Value == b.(*RawString).Value
	case *Variable:
		return x.Name == b.(*Variable).Name
	case *PreVariable:
		return x.Name == b.(*PreVariable).Name
	case *Identifier:
		return x.Name == b.(*Identifier).Name
	case *StructKey:
		y := b.(*StructKey)
		return x.Name == y.Name && x.IsOperator == y.IsOperator
	case *AttributeVal:
		return x.Value == b.(*AttributeVal).Value
	case *Array:
		return exprSliceEqual(x.Elems, b.(*Array).Elems)
	case *ArgList:
		return exprSliceEqual(x.Args, b.(*ArgList).Args)
	case *Structure:
		y := b.(*Structure)
		if len(x.Fields) != len(y.Fields) {
			return false
		}
		for i, f := range x.Fields {
			g := y.Fields[i]
			if f.Key.Name != g.Key.Name || f.Key.IsOperator != g.Key.IsOperator {
				return false
			}
			if !Equal(f.Value, g.Value) {
				return false
			}
		}
		return true
	case *Function:
		y := b.(*Function)
		if len(x.Params) != len(y.Params) {
			return false
		}
		for i, p := range x.Params {
			if p.Name != y.Params[i].Name {
				return false
			}
		}
		return exprSliceEqual(x.Body, y.Body)
	case *Scope:
		return exprSliceEqual(x.Body, b.(*Scope).Body)
	case *Operator:
		y := b.(*Operator)
		return x.Tag == y.Tag && exprSliceEqual(x.Operands, y.Operands)
	default:
		return false
	}
}

func exprSliceEqual(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func attrsEqual(a, b *Attr) bool {
	if len(a.Attributes) != len(b.Attributes) {
		return false
	}
	for k, v := range a.Attributes {
		if bv, ok := b.Attributes[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
