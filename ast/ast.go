// Package ast defines the attributed abstract syntax tree produced by the
// parser: a small sum type of value leaves plus a family of N-ary operator
// nodes, each carrying a shared attribute block (source position, the
// #key:val attribute map, and the lval/to_call/survey flags).
//
// The node interfaces follow the teacher's node()/expr() marker-method
// idiom (github.com/rubiojr/rugo's ast.Node/ast.Expr): every node embeds
// Attr and implements the unexported marker so only this package can add
// new node kinds.
package ast

// Node is the interface implemented by every AST node.
type Node interface {
	node()
}

// Expr is every node in this language — there is no separate statement
// tree; a source file is a single top-level function literal, and blocks
// are ordered sequences of Expr.
type Expr interface {
	Node
	expr()
	// Attrs returns the node's shared attribute block so visitors can
	// read or mutate lval/to_call/survey and the #key:val map in place.
	Attrs() *Attr
}

// Where is a source location. Zero value means synthesized (a node
// introduced by a parser rewrite); synthesized nodes inherit the Where of
// the expression that triggered the rewrite, so this should rarely be the
// zero value in practice.
type Where struct {
	File string
	Line int
	Col  int
}

func (w Where) IsZero() bool { return w.File == "" && w.Line == 0 && w.Col == 0 }

// Attr is the attribute block embedded in every node.
type Attr struct {
	Where      Where
	Attributes map[string]string // #key:val, keyed by identifier
	Lval       bool              // marks an assignment target
	ToCall     bool              // marks a value that will be invoked
	Survey     bool              // asks the translator to run a dry pass
}

func (a *Attr) Attrs() *Attr { return a }

// Attribute looks up a #key:val attribute by name.
func (a *Attr) Attribute(key string) (string, bool) {
	if a.Attributes == nil {
		return "", false
	}
	v, ok := a.Attributes[key]
	return v, ok
}

// SetAttribute attaches a #key:val attribute, allocating the map on first use.
func (a *Attr) SetAttribute(key, val string) {
	if a.Attributes == nil {
		a.Attributes = make(map[string]string)
	}
	a.Attributes[key] = val
}
