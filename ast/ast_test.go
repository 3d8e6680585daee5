package ast

import "testing"

func TestSetSurveyPropagatesToChildren(t *testing.T) {
	f := NewFactory()
	where := Where{File: "t.scp", Line: 1, Col: 1}
	leaf := f.Integer(where, 1)
	add := f.Op(where, OpAdd, leaf, f.Integer(where, 2))
	call := f.Call(where, f.Variable(where, "foo"), f.ArgList(where, []Expr{add}))

	SetSurvey(call)

	var check func(Expr)
	check = func(e Expr) {
		if !e.Attrs().Survey {
			t.Fatalf("expected survey=true on %T", e)
		}
		for _, c := range Children(e) {
			check(c)
		}
	}
	check(call)
}

func TestEqualIgnoresWhereAndFlags(t *testing.T) {
	f := NewFactory()
	a := f.Op(Where{File: "a.scp", Line: 1}, OpAdd, f.Integer(Where{Line: 1}, 1), f.Integer(Where{Line: 1}, 2))
	b := f.Op(Where{File: "b.scp", Line: 99}, OpAdd, f.Integer(Where{Line: 5}, 1), f.Integer(Where{Line: 6}, 2))
	b.Attrs().Survey = true

	if !Equal(a, b) {
		t.Fatal("expected structural equality regardless of Where/Survey")
	}

	c := f.Op(Where{}, OpSub, f.Integer(Where{}, 1), f.Integer(Where{}, 2))
	if Equal(a, c) {
		t.Fatal("expected inequality for different operator tags")
	}
}

func TestEqualComparesAttributeMap(t *testing.T) {
	f := NewFactory()
	a := f.Identifier(Where{}, "x")
	a.SetAttribute("type", "i32")
	b := f.Identifier(Where{}, "x")

	if Equal(a, b) {
		t.Fatal("expected inequality when attribute maps differ")
	}
	b.SetAttribute("type", "i32")
	if !Equal(a, b) {
		t.Fatal("expected equality once attribute maps match")
	}
}

func TestIncDecExpansionDoesNotShareLvalFlag(t *testing.T) {
	f := NewFactory()
	where := Where{Line: 1}
	v := f.Variable(where, "x")
	assign := f.ExpandIncDec(where, v, true)

	if !assign.Operands[0].Attrs().Lval {
		t.Fatal("expected lhs occurrence to be lval-flagged")
	}
	rhsAdd := assign.Operands[1].(*Operator)
	if rhsAdd.Operands[0].Attrs().Lval {
		t.Fatal("rhs occurrence of E must not inherit the lval flag")
	}
}

func TestIsaUnpack(t *testing.T) {
	f := NewFactory()
	var e Expr = f.Integer(Where{}, 7)
	if !Isa[*Integer](e) {
		t.Fatal("expected Isa[*Integer] true")
	}
	v, ok := Unpack[*Integer](e)
	if !ok || v.Value != 7 {
		t.Fatal("expected Unpack to recover the Integer node")
	}
}
