package ast

// Integer is a signed 32-bit integer literal.
type Integer struct {
	Attr
	Value int32
}

func (*Integer) node() {}
func (*Integer) expr() {}

// Decimal is a double-precision floating point literal.
type Decimal struct {
	Attr
	Value float64
}

func (*Decimal) node() {}
func (*Decimal) expr() {}

// Boolean is a true/false literal.
type Boolean struct {
	Attr
	Value bool
}

func (*Boolean) node() {}
func (*Boolean) expr() {}

// String is a double-quoted, escape-decoded string literal.
type String struct {
	Attr
	Value string
}

func (*String) node() {}
func (*String) expr() {}

// RawString is a single-quoted, verbatim string literal.
type RawString struct {
	Attr
	Value string
}

func (*RawString) node() {}
func (*RawString) expr() {}

// Variable is an identifier used as an r-value or l-value target.
type Variable struct {
	Attr
	Name string
}

func (*Variable) node() {}
func (*Variable) expr() {}

// PreVariable is an identifier prefixed with '@' (@import, @self, ...).
// Always carries an attribute map (possibly empty) since its meaning comes
// entirely from the attached #key:val pairs.
type PreVariable struct {
	Attr
	Name string
}

func (*PreVariable) node() {}
func (*PreVariable) expr() {}

// Identifier is a formal parameter name, distinct from Variable so the
// parser/translator never confuse a binding occurrence with a use.
type Identifier struct {
	Attr
	Name string
}

func (*Identifier) node() {}
func (*Identifier) expr() {}

// StructKey is a field selector following a dot: either a plain identifier
// or an operator symbol such as "+", "[]", "()" used for customizable
// operator overloads (§4.5.1).
type StructKey struct {
	Attr
	Name       string
	IsOperator bool
}

func (*StructKey) node() {}
func (*StructKey) expr() {}

// AttributeVal is the right-hand side of a #key:val pair.
type AttributeVal struct {
	Attr
	Value string
}

func (*AttributeVal) node() {}
func (*AttributeVal) expr() {}

// Array is an ordered sequence of expressions: [e1, e2, ...].
type Array struct {
	Attr
	Elems []Expr
}

func (*Array) node() {}
func (*Array) expr() {}

// ArgList is an ordered sequence of expressions that only ever appears as
// the right operand of a call operator.
type ArgList struct {
	Attr
	Args []Expr
}

func (*ArgList) node() {}
func (*ArgList) expr() {}

// StructField is one key:value entry of a Structure literal.
type StructField struct {
	Key   *StructKey
	Value Expr
}

// Structure is a mapping from StructKey to Expr. Insertion order does not
// matter semantically but is preserved for deterministic printing.
type Structure struct {
	Attr
	Fields []StructField
}

func (*Structure) node() {}
func (*Structure) expr() {}

// Function is a pair of (formal parameters, body) — a lazy callable unless
// every parameter and the return carry explicit #type/#rettype attributes
// (§4.4 "Function literal").
type Function struct {
	Attr
	Params []*Identifier
	Body   []Expr
}

func (*Function) node() {}
func (*Function) expr() {}

// Scope is an ordered sequence of expressions forming a parameterless lazy
// block, realized into basic blocks only at a call or branch site.
type Scope struct {
	Attr
	Body []Expr
}

func (*Scope) node() {}
func (*Scope) expr() {}
