package parser

import (
	"testing"

	"github.com/rubiojr/scopc/ast"
)

func mustParse(t *testing.T, src string) ast.Expr {
	t.Helper()
	e, err := Parse("t.scp", src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return e
}

func TestParsePrecedenceMulOverAdd(t *testing.T) {
	e := mustParse(t, "1 + 2 * 3")
	op, ok := e.(*ast.Operator)
	if !ok || op.Tag != ast.OpAdd {
		t.Fatalf("expected top-level +, got %#v", e)
	}
	rhs, ok := op.Operands[1].(*ast.Operator)
	if !ok || rhs.Tag != ast.OpMul {
		t.Fatalf("expected rhs of + to be *, got %#v", op.Operands[1])
	}
}

func TestParsePrecedenceCompareOverLogical(t *testing.T) {
	e := mustParse(t, "a < b && c > d")
	op := e.(*ast.Operator)
	if op.Tag != ast.OpLand {
		t.Fatalf("expected top-level &&, got %v", op.Tag)
	}
	if lhs, ok := op.Operands[0].(*ast.Operator); !ok || lhs.Tag != ast.OpLt {
		t.Fatalf("expected lhs of && to be <, got %#v", op.Operands[0])
	}
}

func TestParseAssignRightAssociative(t *testing.T) {
	e := mustParse(t, "a = b = 1")
	outer := e.(*ast.Operator)
	if outer.Tag != ast.OpAssign {
		t.Fatalf("expected top-level assign, got %v", outer.Tag)
	}
	if !outer.Operands[0].Attrs().Lval {
		t.Fatal("expected lhs to be marked lval")
	}
	inner, ok := outer.Operands[1].(*ast.Operator)
	if !ok || inner.Tag != ast.OpAssign {
		t.Fatalf("expected rhs to be nested assign, got %#v", outer.Operands[1])
	}
}

func TestParseCallMarksToCall(t *testing.T) {
	e := mustParse(t, "foo(1, 2)")
	op := e.(*ast.Operator)
	if op.Tag != ast.OpCall {
		t.Fatalf("expected call operator, got %v", op.Tag)
	}
	if !op.Operands[0].Attrs().ToCall {
		t.Fatal("expected callee to be marked ToCall")
	}
	args := op.Operands[1].(*ast.ArgList)
	if len(args.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args.Args))
	}
}

func TestParseIndexAndDotChain(t *testing.T) {
	// A dot binds tighter than indexing, so an indexed value needs
	// parentheses before a member access can follow it.
	e := mustParse(t, "(a[0]).b")
	dot := e.(*ast.Operator)
	if dot.Tag != ast.OpDot {
		t.Fatalf("expected top-level dot, got %v", dot.Tag)
	}
	at, ok := dot.Operands[0].(*ast.Operator)
	if !ok || at.Tag != ast.OpAt {
		t.Fatalf("expected lhs of dot to be index, got %#v", dot.Operands[0])
	}
}

func TestParseAttributeAttachesToExpr(t *testing.T) {
	e := mustParse(t, "x#type:i32")
	v, ok := e.(*ast.Variable)
	if !ok {
		t.Fatalf("expected Variable, got %#v", e)
	}
	val, ok := v.Attribute("type")
	if !ok || val != "i32" {
		t.Fatalf("expected #type:i32 attribute, got %q (ok=%v)", val, ok)
	}
}

func TestParseIncDecExpandsToAssign(t *testing.T) {
	e := mustParse(t, "x++")
	assign, ok := e.(*ast.Operator)
	if !ok || assign.Tag != ast.OpAssign {
		t.Fatalf("expected x++ to expand to assign, got %#v", e)
	}
	add := assign.Operands[1].(*ast.Operator)
	if add.Tag != ast.OpAdd {
		t.Fatalf("expected rhs to be add, got %v", add.Tag)
	}
}

func TestParseFunctionLiteralVsParenExpr(t *testing.T) {
	fn := mustParse(t, "(a, b) { a + b; }")
	f, ok := fn.(*ast.Function)
	if !ok {
		t.Fatalf("expected Function, got %#v", fn)
	}
	if len(f.Params) != 2 || f.Params[0].Name != "a" || f.Params[1].Name != "b" {
		t.Fatalf("unexpected params: %#v", f.Params)
	}
	if len(f.Body) != 1 {
		t.Fatalf("expected single-statement body, got %d", len(f.Body))
	}

	paren := mustParse(t, "(1 + 2)")
	op, ok := paren.(*ast.Operator)
	if !ok || op.Tag != ast.OpAdd {
		t.Fatalf("expected parenthesized add expression, got %#v", paren)
	}
}

func TestParseEmptyFunctionLiteral(t *testing.T) {
	fn := mustParse(t, "() { 1; }")
	f, ok := fn.(*ast.Function)
	if !ok {
		t.Fatalf("expected Function, got %#v", fn)
	}
	if len(f.Params) != 0 {
		t.Fatalf("expected no params, got %#v", f.Params)
	}
}

func TestParseScope(t *testing.T) {
	e := mustParse(t, "{ 1; 2; }")
	s, ok := e.(*ast.Scope)
	if !ok {
		t.Fatalf("expected Scope, got %#v", e)
	}
	if len(s.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(s.Body))
	}
}

func TestParseArrayLiteral(t *testing.T) {
	e := mustParse(t, "[1, 2, 3]")
	arr, ok := e.(*ast.Array)
	if !ok {
		t.Fatalf("expected Array, got %#v", e)
	}
	if len(arr.Elems) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elems))
	}
}

func TestParseEmptyArrayLiteral(t *testing.T) {
	e := mustParse(t, "[]")
	arr, ok := e.(*ast.Array)
	if !ok || len(arr.Elems) != 0 {
		t.Fatalf("expected empty Array, got %#v", e)
	}
}

func TestParseStructureLiteral(t *testing.T) {
	e := mustParse(t, "[x: 1, y: 2]")
	s, ok := e.(*ast.Structure)
	if !ok {
		t.Fatalf("expected Structure, got %#v", e)
	}
	if len(s.Fields) != 2 || s.Fields[0].Key.Name != "x" || s.Fields[1].Key.Name != "y" {
		t.Fatalf("unexpected fields: %#v", s.Fields)
	}
}

func TestParseStructureWithOperatorKey(t *testing.T) {
	e := mustParse(t, "[+: (a, b) { a + b; }]")
	s, ok := e.(*ast.Structure)
	if !ok || len(s.Fields) != 1 {
		t.Fatalf("expected single-field Structure, got %#v", e)
	}
	if !s.Fields[0].Key.IsOperator || s.Fields[0].Key.Name != "+" {
		t.Fatalf("expected operator key '+', got %#v", s.Fields[0].Key)
	}
}

func TestParseDotColonAndDotEqVariants(t *testing.T) {
	e := mustParse(t, "s.:get")
	op := e.(*ast.Operator)
	if op.Tag != ast.OpOdot {
		t.Fatalf("expected .: to parse as OpOdot, got %v", op.Tag)
	}

	e2 := mustParse(t, "s.=addr")
	op2 := e2.(*ast.Operator)
	if op2.Tag != ast.OpAdot {
		t.Fatalf("expected .= to parse as OpAdot, got %v", op2.Tag)
	}
}

func TestParseReturnExpr(t *testing.T) {
	e := mustParse(t, "|> 1 + 2")
	op := e.(*ast.Operator)
	if op.Tag != ast.OpRet {
		t.Fatalf("expected top-level ret, got %v", op.Tag)
	}
}

func TestParseConditional(t *testing.T) {
	e := mustParse(t, "a ? 1 : 2")
	op := e.(*ast.Operator)
	if op.Tag != ast.OpCond || len(op.Operands) != 3 {
		t.Fatalf("expected ternary cond, got %#v", e)
	}
}

func TestParsePreVariable(t *testing.T) {
	e := mustParse(t, "@self")
	pv, ok := e.(*ast.PreVariable)
	if !ok || pv.Name != "self" {
		t.Fatalf("expected PreVariable self, got %#v", e)
	}
}

func TestParseRawStringKeepsEscapesLiteral(t *testing.T) {
	e := mustParse(t, `'a\nb'`)
	rs, ok := e.(*ast.RawString)
	if !ok {
		t.Fatalf("expected RawString, got %#v", e)
	}
	if rs.Value != `a\nb` {
		t.Fatalf("expected raw string to preserve backslash, got %q", rs.Value)
	}
}

func TestParseStringDecodesEscapes(t *testing.T) {
	e := mustParse(t, `"a\nb"`)
	s, ok := e.(*ast.String)
	if !ok {
		t.Fatalf("expected String, got %#v", e)
	}
	if s.Value != "a\nb" {
		t.Fatalf("expected decoded newline, got %q", s.Value)
	}
}

func TestParseRoundTripViaPrinter(t *testing.T) {
	srcs := []string{
		"1 + 2 * 3",
		"foo(1, 2)",
		"a = b",
		"a ? 1 : 2",
	}
	for _, src := range srcs {
		e := mustParse(t, src)
		printed := ast.Print(e)
		reparsed, err := Parse("t.scp", printed)
		if err != nil {
			t.Fatalf("re-parsing printed form %q: %v", printed, err)
		}
		if !ast.Equal(e, reparsed) {
			t.Fatalf("round-trip mismatch for %q: printed %q reparsed differently", src, printed)
		}
	}
}

func TestParseUnexpectedTrailingTokenIsError(t *testing.T) {
	if _, err := Parse("t.scp", "1 2"); err == nil {
		t.Fatal("expected error for trailing token after expression")
	}
}

func TestParseUnterminatedStringIsError(t *testing.T) {
	if _, err := Parse("t.scp", `"abc`); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}
