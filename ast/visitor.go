package ast

// Children returns e's immediate sub-expressions in left-to-right order.
// Used by the survey visitor and by generic tree walks; the translator
// itself dispatches by concrete type rather than going through Children,
// but keeping one authoritative enumeration here avoids every walker
// re-deriving which fields are sub-expressions.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *Array:
		return n.Elems
	case *ArgList:
		return n.Args
	case *Structure:
		out := make([]Expr, 0, len(n.Fields))
		for _, fld := range n.Fields {
			out = append(out, fld.Value)
		}
		return out
	case *Function:
		return n.Body
	case *Scope:
		return n.Body
	case *Operator:
		return n.Operands
	default:
		return nil
	}
}

// Clone makes a shallow copy of e: a new node of the same concrete type,
// same payload, and a *copy* of the Attr block (so mutating the clone's
// lval/to_call/survey flags never affects the original). Sub-expression
// slices are copied (not deep-cloned) since the parser only needs Clone to
// produce a second, independently-flaggable occurrence of a leaf or
// shallow expression (e.g. the increment/decrement rewrite).
func Clone(e Expr) Expr {
	switch n := e.(type) {
	case *Integer:
		c := *n
		return &c
	case *Decimal:
		c := *n
		return &c
	case *Boolean:
		c := *n
		return &c
	case *String:
		c := *n
		return &c
	case *RawString:
		c := *n
		return &c
	case *Variable:
		c := *n
		return &c
	case *PreVariable:
		c := *n
		c.Attributes = cloneAttrMap(n.Attributes)
		return &c
	case *Identifier:
		c := *n
		return &c
	case *StructKey:
		c := *n
		return &c
	case *AttributeVal:
		c := *n
		return &c
	case *Array:
		c := *n
		c.Elems = append([]Expr(nil), n.Elems...)
		return &c
	case *ArgList:
		c := *n
		c.Args = append([]Expr(nil), n.Args...)
		return &c
	case *Structure:
		c := *n
		c.Fields = append([]StructField(nil), n.Fields...)
		return &c
	case *Function:
		c := *n
		c.Params = append([]*Identifier(nil), n.Params...)
		c.Body = append([]Expr(nil), n.Body...)
		return &c
	case *Scope:
		c := *n
		c.Body = append([]Expr(nil), n.Body...)
		return &c
	case *Operator:
		c := *n
		c.Operands = append([]Expr(nil), n.Operands...)
		return &c
	default:
		return e
	}
}

func cloneAttrMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SetLval is the non-recursive setter_visitor for the lval attribute: it
// toggles the flag on e alone, never on its children.
func SetLval(e Expr, v bool) { e.Attrs().Lval = v }

// SetToCall is the non-recursive setter_visitor for the to_call attribute.
func SetToCall(e Expr, v bool) { e.Attrs().ToCall = v }

// SetSurvey is the setter_recursive_visitor for the survey attribute: it
// sets survey=true on e and recursively on every reachable sub-expression,
// so a dry translation pass never accidentally emits IR for a part of the
// tree it missed (§8 "Attribute propagation").
func SetSurvey(e Expr) {
	if e == nil || e.Attrs().Survey {
		return
	}
	e.Attrs().Survey = true
	for _, c := range Children(e) {
		SetSurvey(c)
	}
}

// Walk calls visit on e and then recursively on every sub-expression,
// depth-first, left-to-right. visit returning false prunes that subtree.
func Walk(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, visit)
	}
}
