package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Printer produces a deterministic textual dump of an Expr tree, used by
// the `--type ast` CLI output (§6) and by the parser round-trip property
// test (§8). Mirrors the teacher's codeGen: a strings.Builder plus an
// indent counter bookmarked across recursive calls.
type Printer struct {
	sb     strings.Builder
	indent int
}

// Print renders e as a single-line, re-parseable textual form.
func Print(e Expr) string {
	p := &Printer{}
	p.expr(e)
	return p.sb.String()
}

// Dump renders e as an indented multi-line tree, used for debugging and
// for `--type ast`.
func Dump(e Expr) string {
	p := &Printer{}
	p.dump(e)
	return p.sb.String()
}

func (p *Printer) expr(e Expr) {
	switch n := e.(type) {
	case *Integer:
		fmt.Fprintf(&p.sb, "%d", n.Value)
	case *Decimal:
		fmt.Fprintf(&p.sb, "%s", strconv.FormatFloat(n.Value, 'g', -1, 64))
	case *Boolean:
		fmt.Fprintf(&p.sb, "%t", n.Value)
	case *String:
		fmt.Fprintf(&p.sb, "%q", n.Value)
	case *RawString:
		fmt.Fprintf(&p.sb, "'%s'", n.Value)
	case *Variable:
		p.sb.WriteString(n.Name)
	case *PreVariable:
		p.sb.WriteString("@" + n.Name)
	case *Identifier:
		p.sb.WriteString(n.Name)
	case *StructKey:
		p.sb.WriteString(n.Name)
	case *AttributeVal:
		p.sb.WriteString(n.Value)
	case *Array:
		p.sb.WriteString("[")
		p.exprList(n.Elems)
		p.sb.WriteString("]")
	case *ArgList:
		p.exprList(n.Args)
	case *Structure:
		p.sb.WriteString("[")
		for i, fld := range n.Fields {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(fld.Key.Name)
			p.sb.WriteString(": ")
			p.expr(fld.Value)
		}
		p.sb.WriteString("]")
	case *Function:
		p.sb.WriteString("(")
		for i, prm := range n.Params {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(prm.Name)
		}
		p.sb.WriteString(") {")
		p.exprStmts(n.Body)
		p.sb.WriteString("}")
	case *Scope:
		p.sb.WriteString("{")
		p.exprStmts(n.Body)
		p.sb.WriteString("}")
	case *Operator:
		p.operator(n)
	default:
		p.sb.WriteString("<?>")
	}
	p.attrs(e.Attrs())
}

func (p *Printer) attrs(a *Attr) {
	if len(a.Attributes) == 0 {
		return
	}
	keys := make([]string, 0, len(a.Attributes))
	for k := range a.Attributes {
		keys = append(keys, k)
	}
	sortStrings(keys)
	for _, k := range keys {
		fmt.Fprintf(&p.sb, "#%s:%s", k, a.Attributes[k])
	}
}

func (p *Printer) operator(o *Operator) {
	switch o.Tag {
	case OpRet:
		p.sb.WriteString("|> ")
		p.expr(o.Operands[0])
	case OpCond:
		p.expr(o.Operands[0])
		p.sb.WriteString(" ? ")
		p.expr(o.Operands[1])
		p.sb.WriteString(" : ")
		p.expr(o.Operands[2])
	case OpLnot, OpInot:
		p.sb.WriteString(o.Symbol())
		p.expr(o.Operands[0])
	case OpCall:
		p.expr(o.Operands[0])
		p.sb.WriteString("(")
		p.expr(o.Operands[1])
		p.sb.WriteString(")")
	case OpAt:
		p.expr(o.Operands[0])
		p.sb.WriteString("[")
		p.expr(o.Operands[1])
		p.sb.WriteString("]")
	case OpDot, OpOdot, OpAdot:
		p.expr(o.Operands[0])
		p.sb.WriteString(o.Symbol())
		p.expr(o.Operands[1])
	default:
		p.expr(o.Operands[0])
		p.sb.WriteString(" " + o.Symbol() + " ")
		p.expr(o.Operands[1])
	}
}

func (p *Printer) exprList(es []Expr) {
	for i, e := range es {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.expr(e)
	}
}

func (p *Printer) exprStmts(es []Expr) {
	for _, e := range es {
		p.expr(e)
		p.sb.WriteString("; ")
	}
}

func (p *Printer) dump(e Expr) {
	p.sb.WriteString(strings.Repeat("  ", p.indent))
	if e == nil {
		p.sb.WriteString("<nil>\n")
		return
	}
	p.sb.WriteString(nodeLabel(e))
	p.sb.WriteString("\n")
	p.indent++
	for _, c := range Children(e) {
		p.dump(c)
	}
	p.indent--
}

func nodeLabel(e Expr) string {
	switch n := e.(type) {
	case *Operator:
		return fmt.Sprintf("Operator(%s)", n.Symbol())
	default:
		return fmt.Sprintf("%T: %s", e, Print(e))
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
