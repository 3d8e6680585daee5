package translate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/rubiojr/scopc/ast"
)

// translateOperator dispatches an *ast.Operator node by tag, routing
// customizable operators through structure-receiver dispatch first
// (§4.5.1) before falling back to primitive lowering (§4.5.2).
func (t *Translator) translateOperator(n *ast.Operator) (*Value, error) {
	switch n.Tag {
	case ast.OpAssign:
		return t.translateAssign(n)
	case ast.OpCall:
		return t.translateCustomizableOrFallback(n, t.translateCall)
	case ast.OpAt:
		return t.translateCustomizableOrFallback(n, t.translateAt)
	case ast.OpDot:
		return t.translateCustomizableOrFallback(n, t.translateDot)
	case ast.OpOdot:
		return t.translateDotVariant(n, true, false)
	case ast.OpAdot:
		return t.translateDotVariant(n, false, true)
	case ast.OpRet:
		return t.translateRet(n)
	case ast.OpCond:
		return t.translateCond(n)
	case ast.OpLand, ast.OpLor:
		return t.translateLogical(n)
	case ast.OpLnot:
		return t.translateLnot(n)
	case ast.OpInot:
		return t.translateInot(n)
	default:
		if n.IsCustomizable() {
			return t.translateCustomizableOrFallback(n, t.translateArithmeticOrCompare)
		}
		receiver, err := t.Translate(n.Operands[0])
		if err != nil {
			return nil, err
		}
		return t.translateArithmeticOrCompare(n, receiver)
	}
}

// translateCustomizableOrFallback implements §4.5.1: if the receiver
// (operands[0]) is a structure with a method named by the operator symbol,
// rewrite the operator into a method call; otherwise defer to primitive,
// passing along the already-translated receiver so it is never evaluated
// twice (the receiver may have side effects, e.g. a nested call).
func (t *Translator) translateCustomizableOrFallback(n *ast.Operator, primitive func(*ast.Operator, *Value) (*Value, error)) (*Value, error) {
	receiver, err := t.Translate(n.Operands[0])
	if err != nil {
		return nil, err
	}
	if receiver.Fields == nil && receiver.Symbols == nil {
		return primitive(n, receiver)
	}
	method, ok := receiver.Symbols[n.Symbol()]
	if !ok {
		return primitive(n, receiver)
	}

	var args []*Value
	for _, operand := range n.Operands[1:] {
		if al, ok := operand.(*ast.ArgList); ok {
			unpacked, err := t.translateArgList(al)
			if err != nil {
				return nil, err
			}
			args = append(args, unpacked...)
			continue
		}
		v, err := t.Translate(operand)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	args = append(args, receiver)

	result, err := t.evaluateCallable(n, method, args)
	if err != nil {
		return nil, err
	}
	if result.RetTable != nil {
		result.Symbols = result.RetTable.Symbols
		result.Fields = result.RetTable.Fields
	}
	return result, nil
}

// translateArithmeticOrCompare implements §4.5.2's primitive lowering for
// every binary operator that isn't control flow, access, or logical. lhs is
// the already-translated receiver operand.
func (t *Translator) translateArithmeticOrCompare(n *ast.Operator, lhs *Value) (*Value, error) {
	rhs, err := t.Translate(n.Operands[1])
	if err != nil {
		return nil, err
	}

	_, lf := lhs.Type.(*types.FloatType)
	_, rf := rhs.Type.(*types.FloatType)
	isFloat := lf || rf
	if isFloat {
		lhs = t.promoteToFloat(lhs)
		rhs = t.promoteToFloat(rhs)
	}

	switch n.Tag {
	case ast.OpAdd:
		if isFloat {
			return t.wrap(t.block.NewFAdd(lhs.IR, rhs.IR), types.Double), nil
		}
		return t.wrap(t.block.NewAdd(lhs.IR, rhs.IR), types.I32), nil
	case ast.OpSub:
		if isFloat {
			return t.wrap(t.block.NewFSub(lhs.IR, rhs.IR), types.Double), nil
		}
		return t.wrap(t.block.NewSub(lhs.IR, rhs.IR), types.I32), nil
	case ast.OpMul:
		if isFloat {
			return t.wrap(t.block.NewFMul(lhs.IR, rhs.IR), types.Double), nil
		}
		return t.wrap(t.block.NewMul(lhs.IR, rhs.IR), types.I32), nil
	case ast.OpDiv:
		if isFloat {
			return t.wrap(t.block.NewFDiv(lhs.IR, rhs.IR), types.Double), nil
		}
		return t.wrap(t.block.NewSDiv(lhs.IR, rhs.IR), types.I32), nil
	case ast.OpRem:
		if isFloat {
			return t.wrap(t.block.NewFRem(lhs.IR, rhs.IR), types.Double), nil
		}
		return t.wrap(t.block.NewSRem(lhs.IR, rhs.IR), types.I32), nil
	case ast.OpPow:
		return t.translatePow(n, lhs, rhs, isFloat)
	case ast.OpShl:
		return t.requireInt2(n, lhs, rhs, t.block.NewShl)
	case ast.OpShr:
		return t.requireInt2(n, lhs, rhs, t.block.NewAShr)
	case ast.OpIand:
		return t.requireInt2(n, lhs, rhs, t.block.NewAnd)
	case ast.OpIor:
		return t.requireInt2(n, lhs, rhs, t.block.NewOr)
	case ast.OpIxor:
		return t.requireInt2(n, lhs, rhs, t.block.NewXor)
	case ast.OpEeq, ast.OpNeq, ast.OpGt, ast.OpLt, ast.OpGtq, ast.OpLtq:
		return t.translateCompare(n, lhs, rhs, isFloat)
	default:
		return nil, t.bugf(n, "unhandled primitive operator %v", n.Tag)
	}
}

func (t *Translator) promoteToFloat(v *Value) *Value {
	if _, ok := v.Type.(*types.FloatType); ok {
		return v
	}
	conv := t.block.NewSIToFP(v.IR, types.Double)
	return t.wrap(conv, types.Double)
}

func (t *Translator) wrap(iv value.Value, typ types.Type) *Value {
	return &Value{IR: iv, Type: typ}
}

func (t *Translator) requireInt2(n *ast.Operator, lhs, rhs *Value, build func(x, y value.Value) *ir.InstBinary) (*Value, error) {
	if _, ok := lhs.Type.(*types.IntType); !ok {
		return nil, t.errorf(n, "bitwise operator requires integer operands")
	}
	if _, ok := rhs.Type.(*types.IntType); !ok {
		return nil, t.errorf(n, "bitwise operator requires integer operands")
	}
	return t.wrap(build(lhs.IR, rhs.IR), types.I32), nil
}

// translatePow implements §4.5.2: pow always calls one of the back-end's
// pow intrinsics and links libm. When either operand is a double, both are
// promoted and `llvm.pow.f64` is called, giving a double. When both are
// integers, the base is converted to double with sitofp,
// `llvm.powi.f64.i32` is called with the i32 exponent, and the result is
// converted back to i32 with fptosi. There is no software fallback loop.
func (t *Translator) translatePow(n *ast.Operator, lhs, rhs *Value, isFloat bool) (*Value, error) {
	t.linkLibm()
	if isFloat {
		powFn := t.intrinsic("llvm.pow.f64", types.Double, types.Double, types.Double)
		call := t.block.NewCall(powFn, lhs.IR, rhs.IR)
		return t.wrap(call, types.Double), nil
	}

	base := t.promoteToFloat(lhs)
	powi := t.intrinsic("llvm.powi.f64.i32", types.Double, types.Double, types.I32)
	call := t.block.NewCall(powi, base.IR, rhs.IR)
	trunc := t.block.NewFPToSI(call, types.I32)
	return t.wrap(trunc, types.I32), nil
}

// linkLibm records libm as a link dependency exactly once per module,
// mirroring how a first heap allocation marks gcUsed (gc.go).
func (t *Translator) linkLibm() {
	for _, lib := range t.linkLibs {
		if lib == "m" {
			return
		}
	}
	t.linkLibs = append(t.linkLibs, "m")
}

func (t *Translator) translateCompare(n *ast.Operator, lhs, rhs *Value, isFloat bool) (*Value, error) {
	if isFloat {
		pred := map[ast.OpTag]enum.FPred{
			ast.OpEeq: enum.FPredOEQ, ast.OpNeq: enum.FPredONE,
			ast.OpGt: enum.FPredOGT, ast.OpLt: enum.FPredOLT,
			ast.OpGtq: enum.FPredOGE, ast.OpLtq: enum.FPredOLE,
		}[n.Tag]
		return t.wrap(t.block.NewFCmp(pred, lhs.IR, rhs.IR), types.I1), nil
	}
	pred := map[ast.OpTag]enum.IPred{
		ast.OpEeq: enum.IPredEQ, ast.OpNeq: enum.IPredNE,
		ast.OpGt: enum.IPredSGT, ast.OpLt: enum.IPredSLT,
		ast.OpGtq: enum.IPredSGE, ast.OpLtq: enum.IPredSLE,
	}[n.Tag]
	return t.wrap(t.block.NewICmp(pred, lhs.IR, rhs.IR), types.I1), nil
}

// translateLogical implements §4.5.2 land/lor: coerce both sides to
// non-zero then bitwise and/or.
func (t *Translator) translateLogical(n *ast.Operator) (*Value, error) {
	lhs, err := t.Translate(n.Operands[0])
	if err != nil {
		return nil, err
	}
	rhs, err := t.Translate(n.Operands[1])
	if err != nil {
		return nil, err
	}
	lb := t.toBool(lhs)
	rb := t.toBool(rhs)
	if n.Tag == ast.OpLand {
		return t.wrap(t.block.NewAnd(lb, rb), types.I1), nil
	}
	return t.wrap(t.block.NewOr(lb, rb), types.I1), nil
}

func (t *Translator) toBool(v *Value) value.Value {
	if v.Type == types.I1 {
		return v.IR
	}
	zero := zeroOf(v.Type)
	return t.block.NewICmp(enum.IPredNE, v.IR, zero)
}

func zeroOf(typ types.Type) value.Value {
	switch typ := typ.(type) {
	case *types.IntType:
		return constant.NewInt(typ, 0)
	case *types.FloatType:
		return constant.NewFloat(typ, 0)
	default:
		return constant.NewNull(typ.(*types.PointerType))
	}
}

// translateLnot is xor-with-1 after compare-ne (§4.5.2).
func (t *Translator) translateLnot(n *ast.Operator) (*Value, error) {
	v, err := t.Translate(n.Operands[0])
	if err != nil {
		return nil, err
	}
	b := t.toBool(v)
	return t.wrap(t.block.NewXor(b, constant.NewInt(types.I1, 1)), types.I1), nil
}

func (t *Translator) translateInot(n *ast.Operator) (*Value, error) {
	v, err := t.Translate(n.Operands[0])
	if err != nil {
		return nil, err
	}
	if _, ok := v.Type.(*types.IntType); !ok {
		return nil, t.errorf(n, "bitwise not requires an integer operand")
	}
	allOnes := constant.NewInt(v.Type.(*types.IntType), -1)
	return t.wrap(t.block.NewXor(v.IR, allOnes), v.Type), nil
}

func (t *Translator) blockName(prefix string) string {
	globalSeq++
	return prefix + "." + itoa(globalSeq)
}

func (t *Translator) intrinsic(name string, ret types.Type, params ...types.Type) *ir.Func {
	if f, ok := t.intrinsics[name]; ok {
		return f
	}
	var ps []*ir.Param
	for i, p := range params {
		ps = append(ps, ir.NewParam(paramName(i), p))
	}
	f := t.mod.NewFunc(name, ret, ps...)
	t.intrinsics[name] = f
	return f
}

func paramName(i int) string { return "p" + itoa(i) }
