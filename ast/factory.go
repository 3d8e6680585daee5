package ast

// Factory centralizes AST node creation so every node gets its Where set
// consistently, and so the parser's rewrite rules (increment/decrement
// expansion, lval/to_call marking) live in one place instead of being
// re-derived at each call site. Mirrors the teacher's ast.Factory.
type Factory struct{}

// NewFactory returns a new Factory.
func NewFactory() *Factory { return &Factory{} }

func attr(where Where) Attr { return Attr{Where: where} }

func (f *Factory) Integer(where Where, v int32) *Integer { return &Integer{Attr: attr(where), Value: v} }
func (f *Factory) Decimal(where Where, v float64) *Decimal {
	return &Decimal{Attr: attr(where), Value: v}
}
func (f *Factory) Boolean(where Where, v bool) *Boolean { return &Boolean{Attr: attr(where), Value: v} }
func (f *Factory) String(where Where, v string) *String { return &String{Attr: attr(where), Value: v} }
func (f *Factory) RawString(where Where, v string) *RawString {
	return &RawString{Attr: attr(where), Value: v}
}
func (f *Factory) Variable(where Where, name string) *Variable {
	return &Variable{Attr: attr(where), Name: name}
}
func (f *Factory) PreVariable(where Where, name string) *PreVariable {
	return &PreVariable{Attr: attr(where), Name: name}
}
func (f *Factory) Identifier(where Where, name string) *Identifier {
	return &Identifier{Attr: attr(where), Name: name}
}
func (f *Factory) StructKey(where Where, name string, isOp bool) *StructKey {
	return &StructKey{Attr: attr(where), Name: name, IsOperator: isOp}
}
func (f *Factory) AttributeVal(where Where, v string) *AttributeVal {
	return &AttributeVal{Attr: attr(where), Value: v}
}
func (f *Factory) Array(where Where, elems []Expr) *Array {
	return &Array{Attr: attr(where), Elems: elems}
}
func (f *Factory) ArgList(where Where, args []Expr) *ArgList {
	return &ArgList{Attr: attr(where), Args: args}
}
func (f *Factory) Structure(where Where, fields []StructField) *Structure {
	return &Structure{Attr: attr(where), Fields: fields}
}
func (f *Factory) Function(where Where, params []*Identifier, body []Expr) *Function {
	return &Function{Attr: attr(where), Params: params, Body: body}
}
func (f *Factory) Scope(where Where, body []Expr) *Scope {
	return &Scope{Attr: attr(where), Body: body}
}

// Op builds an N-ary operator node.
func (f *Factory) Op(where Where, tag OpTag, operands ...Expr) *Operator {
	return &Operator{Attr: attr(where), Tag: tag, Operands: operands}
}

// Assign marks lhs as an lval and builds `lhs = rhs`.
func (f *Factory) Assign(where Where, lhs, rhs Expr) *Operator {
	lhs.Attrs().Lval = true
	return f.Op(where, OpAssign, lhs, rhs)
}

// Call marks callee.ToCall and builds `callee(args)`.
func (f *Factory) Call(where Where, callee Expr, args Expr) *Operator {
	callee.Attrs().ToCall = true
	return f.Op(where, OpCall, callee, args)
}

// ExpandIncDec performs the parser's `++E`/`E++` → `E = E + 1` (and `--`
// analogously) rewrite (§4.1 "Rewrites performed by the parser"). The
// synthesized `assign`/`add`/`1` nodes inherit where's source range. The
// left occurrence of E is lval-flagged; the right occurrence is a fresh
// shallow clone so flagging the former doesn't leak into the latter.
func (f *Factory) ExpandIncDec(where Where, operand Expr, isInc bool) *Operator {
	tag := OpAdd
	if !isInc {
		tag = OpSub
	}
	one := f.Integer(where, 1)
	rhs := f.Op(where, tag, Clone(operand), one)
	return f.Assign(where, operand, rhs)
}
