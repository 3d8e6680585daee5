package translate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/rubiojr/scopc/ast"
)

// translateArgList evaluates each expression of an arglist in textual
// order, per §5 ordering guarantees.
func (t *Translator) translateArgList(al *ast.ArgList) ([]*Value, error) {
	args := make([]*Value, 0, len(al.Args))
	for _, a := range al.Args {
		v, err := t.Translate(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// translateCall implements §4.5.4's primitive (non-structure-override)
// call dispatch. receiver is the already-translated callee.
func (t *Translator) translateCall(n *ast.Operator, receiver *Value) (*Value, error) {
	al, ok := n.Operands[1].(*ast.ArgList)
	if !ok {
		return nil, t.bugf(n, "call's right operand must be an arglist")
	}

	if _, ok := receiver.asBlock(); ok || (receiver.IsLazy && isScopeNode(receiver.Node)) {
		if len(al.Args) != 0 {
			return nil, t.errorf(n, "a scope value takes no arguments")
		}
		if receiver.OdotReceiver != nil || receiver.AdotReceiver != nil {
			return nil, t.errorf(n, "a scope value cannot be called through odot/adot")
		}
		return t.evaluateScope(receiver)
	}

	args, err := t.translateArgList(al)
	if err != nil {
		return nil, err
	}
	// §4.5.4: a callee looked up through odot appends the struct receiver
	// as a trailing argument.
	if receiver.OdotReceiver != nil {
		args = append(args, receiver.OdotReceiver)
	}

	var result *Value
	if receiver.IsLazy {
		result, err = t.evaluateCallable(n, receiver, args)
		if err != nil {
			return nil, err
		}
	} else {
		// Non-lazy function pointer: validate arity, emit call.
		fn, ok := receiver.IR.(*ir.Func)
		if !ok {
			return nil, t.errorf(n, "cannot call a non-function value")
		}
		if !fn.Sig.Variadic && len(fn.Params) != len(args) {
			return nil, t.errorf(n, "function %q expects %d arguments, got %d", fn.Name(), len(fn.Params), len(args))
		}
		for i, p := range fn.Params {
			if i >= len(args) {
				break
			}
			if !types.Equal(p.Typ, args[i].Type) {
				return nil, t.errorf(n, "argument %d type mismatch for %q", i+1, fn.Name())
			}
		}
		argVals := make([]value.Value, len(args))
		for i, a := range args {
			argVals[i] = a.IR
		}
		call := t.block.NewCall(fn, argVals...)
		if fn.Sig.RetType == types.Void {
			result = voidValue()
		} else {
			result = t.wrap(call, fn.Sig.RetType)
		}
	}

	// §4.5.4/§9(b): a callee looked up through adot writes the call's
	// result back into the struct receiver after the call fires.
	if receiver.AdotReceiver != nil {
		return t.translateAssignValue(n, receiver.AdotReceiver, result)
	}
	return result, nil
}

// translateAt implements §4.5.5 (primitive, non-overridden path).
// receiver is the already-translated lhs.
func (t *Translator) translateAt(n *ast.Operator, receiver *Value) (*Value, error) {
	ptr, ok := receiver.Type.(*types.PointerType)
	if !ok {
		return nil, t.errorf(n, "subscript requires a pointer operand")
	}
	idxExpr := n.Operands[1]
	idx, err := t.Translate(idxExpr)
	if err != nil {
		return nil, err
	}
	if _, ok := idx.Type.(*types.IntType); !ok {
		return nil, t.errorf(n, "subscript index must be an integer")
	}

	if lit, ok := ast.Unpack[*ast.Integer](idxExpr); ok {
		key := itoa(int(lit.Value))
		if child, ok := receiver.Symbols[key]; ok {
			return t.loadOrCopy(child, n.Attrs().Lval), nil
		}
	}

	zero := constant.NewInt(types.I32, 0)
	gep := t.block.NewGetElementPtr(ptr.ElemType, receiver.IR, zero, idx.IR)
	gv := &Value{IR: gep, Type: types.NewPointer(elemOf(ptr.ElemType)), Parent: receiver}
	return t.loadOrCopy(gv, n.Attrs().Lval), nil
}

func elemOf(t types.Type) types.Type {
	if at, ok := t.(*types.ArrayType); ok {
		return at.ElemType
	}
	return t
}

func (t *Translator) loadOrCopy(v *Value, lval bool) *Value {
	if lval || v.IsLazy || !v.IsFundamental() {
		return v.Copy()
	}
	loaded := t.block.NewLoad(v.Type, v.IR)
	return v.CopyWithNewLLVMValue(loaded, v.Type)
}

// translateDot implements §4.5.6's primitive dot path (receiver not a
// customizable-overriding structure, or the key isn't a method).
func (t *Translator) translateDot(n *ast.Operator, receiver *Value) (*Value, error) {
	return t.dotLookup(n, receiver)
}

// translateDotVariant handles odot (isOdot) and adot (isAdot): both are
// identical to dot at lookup time (§4.5.6), but tag the looked-up method
// value with the struct receiver so the enclosing call (translateCall) can
// append it as a trailing argument (odot) or write the call's result back
// into it (adot, §9(b)) once the call actually fires.
func (t *Translator) translateDotVariant(n *ast.Operator, isOdot, isAdot bool) (*Value, error) {
	receiver, err := t.Translate(n.Operands[0])
	if err != nil {
		return nil, err
	}
	v, err := t.dotLookup(n, receiver)
	if err != nil {
		return nil, err
	}
	tagged := v.Copy()
	if isOdot {
		tagged.OdotReceiver = receiver
	}
	if isAdot {
		tagged.AdotReceiver = receiver
	}
	return tagged, nil
}

func (t *Translator) dotLookup(n *ast.Operator, receiver *Value) (*Value, error) {
	key, ok := n.Operands[1].(*ast.StructKey)
	if !ok {
		return nil, t.bugf(n, "dot's right operand must be a struct key")
	}
	ptr, isPtr := receiver.Type.(*types.PointerType)
	if !isPtr {
		return nil, t.errorf(n, "dot requires a pointer receiver")
	}
	target := receiver
	if inner, ok := ptr.ElemType.(*types.PointerType); ok {
		loaded := t.block.NewLoad(ptr.ElemType, receiver.IR)
		target = &Value{IR: loaded, Type: inner, Symbols: receiver.Symbols, Fields: receiver.Fields}
	}

	v, ok := target.Symbols[key.Name]
	if !ok {
		return nil, t.errorf(n, "missing field %q", key.Name)
	}
	if v.IsLazy {
		return v, nil
	}
	idx, ok := target.Fields[key.Name]
	if !ok {
		return nil, t.bugf(n, "field %q has no struct index", key.Name)
	}
	zero := constant.NewInt(types.I32, 0)
	fi := constant.NewInt(types.I32, int64(idx))
	structType := target.IR.Type().(*types.PointerType).ElemType
	gep := t.block.NewGetElementPtr(structType, target.IR, zero, fi)
	fieldType := structType.(*types.StructType).Fields[idx]
	gv := &Value{IR: gep, Type: types.NewPointer(fieldType), Parent: target}
	return t.loadOrCopy(gv, n.Attrs().Lval), nil
}

func isScopeNode(e ast.Expr) bool {
	_, ok := e.(*ast.Scope)
	return ok
}
