package translate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/rubiojr/scopc/ast"
)

// translateAssign implements §4.5.3.
func (t *Translator) translateAssign(n *ast.Operator) (*Value, error) {
	lhs, err := t.Translate(n.Operands[0])
	if err != nil {
		return nil, err
	}
	rhs, err := t.Translate(n.Operands[1])
	if err != nil {
		return nil, err
	}
	return t.translateAssignValue(n, lhs, rhs)
}

// translateAssignValue performs copyFull(rhs, lhs), allocating storage for
// lhs on first use. Shared by translateAssign and the adot write-back
// (§9(b)).
func (t *Translator) translateAssignValue(n *ast.Operator, lhs, rhs *Value) (*Value, error) {
	if rhs.IsVoid {
		return nil, t.errorf(n, "cannot assign a void value")
	}
	if lhs.IR == nil {
		heap := false
		if v, ok := n.Operands[0].(*ast.Variable); ok {
			if _, ok := v.Attribute("heap"); ok {
				heap = true
			}
		}
		if heap {
			t.gcUsed = true
			lhs.IR = t.gcMalloc(rhs.Type)
		} else {
			lhs.IR = t.fn.Blocks[0].NewAlloca(rhs.Type)
		}
		lhs.Type = types.NewPointer(rhs.Type)
	}
	if err := t.copyFull(n, rhs, lhs); err != nil {
		return nil, err
	}
	return lhs, nil
}

// copyFull implements §4.5.3's copyFull: store for fundamental rhs, memcpy
// for aggregates, and a bare symbol-table rehoming for lazy rhs (no memory
// op is ever emitted for a lazy value).
func (t *Translator) copyFull(n ast.Expr, rhs, lhs *Value) error {
	if rhs.IsLazy {
		lhs.IsLazy = true
		lhs.Node = rhs.Node
		lhs.Symbols = rhs.Symbols
		lhs.Fields = rhs.Fields
		return nil
	}
	ptr, ok := lhs.Type.(*types.PointerType)
	if !ok {
		return t.errorf(n, "assignment target has no storage")
	}
	if !types.Equal(ptr.ElemType, rhs.Type) {
		return t.errorf(n, "type mismatch in assignment")
	}
	if rhs.IsFundamental() {
		t.block.NewStore(rhs.IR, lhs.IR)
		return nil
	}
	lhs.Symbols, lhs.Fields = rhs.Symbols, rhs.Fields
	size := t.sizeOf(rhs.Type)
	memcpy := t.intrinsic("llvm.memcpy.p0.p0.i64", types.Void, types.NewPointer(types.I8), types.NewPointer(types.I8), types.I64, types.I1)
	t.block.NewCall(memcpy, lhs.IR, rhs.IR, size, constant.NewInt(types.I1, 0))
	return nil
}

// sizeOf computes byte size via the null-GEP trick (§4.4 "Array literal").
func (t *Translator) sizeOf(typ types.Type) value.Value {
	null := constant.NewNull(types.NewPointer(typ))
	one := constant.NewInt(types.I32, 1)
	gep := constant.NewGetElementPtr(typ, null, one)
	return constant.NewPtrToInt(gep, types.I64)
}

func (t *Translator) gcMalloc(typ types.Type) value.Value {
	decl := t.gcMallocDecl()
	size := t.sizeOf(typ)
	return t.block.NewCall(decl, size)
}

// translateRet implements §4.5.7.
func (t *Translator) translateRet(n *ast.Operator) (*Value, error) {
	v, err := t.Translate(n.Operands[0])
	if err != nil {
		return nil, err
	}
	if v.IsVoid || v.IR == nil {
		t.block.NewRet(nil)
	} else {
		t.block.NewRet(v.IR)
	}
	result := voidValue()
	result.RetTable = &RetTable{
		Symbols: cloneValueMap(t.thisScope.Symbols),
		Fields:  cloneIntMap(t.thisScope.Fields),
	}
	return result, nil
}

// translateCond implements §4.5.8.
func (t *Translator) translateCond(n *ast.Operator) (*Value, error) {
	cond, err := t.Translate(n.Operands[0])
	if err != nil {
		return nil, err
	}
	condBool := t.toBool(cond)

	thenVal, err := t.Translate(n.Operands[1])
	if err != nil {
		return nil, err
	}
	elseVal, err := t.Translate(n.Operands[2])
	if err != nil {
		return nil, err
	}

	if thenVal.IsLazy && isScopeNode(thenVal.Node) && elseVal.IsLazy && isScopeNode(elseVal.Node) {
		return t.translateCondScopeBranches(n, condBool, thenVal, elseVal)
	}
	return t.translateCondValueBranches(n, condBool, thenVal, elseVal)
}

// translateCondScopeBranches realizes both scope arms into basic blocks and
// branches between them, per §4.5.8's "Scope branches" shape. Result is
// void.
func (t *Translator) translateCondScopeBranches(n *ast.Operator, condBool value.Value, thenVal, elseVal *Value) (*Value, error) {
	thenBB := t.fn.NewBlock(t.blockName("cond.then"))
	elseBB := t.fn.NewBlock(t.blockName("cond.else"))
	mergeBB := t.fn.NewBlock(t.blockName("cond.merge"))

	t.block.NewCondBr(condBool, thenBB, elseBB)

	thenFell, err := t.realizeScopeInto(thenVal, thenBB, mergeBB)
	if err != nil {
		return nil, err
	}
	elseFell, err := t.realizeScopeInto(elseVal, elseBB, mergeBB)
	if err != nil {
		return nil, err
	}

	if !thenFell && !elseFell {
		// Neither arm falls through: the merge block is unreachable and
		// must not survive in the function (§8 "Branch well-formedness").
		mergeBB.Term = nil
		t.removeBlock(mergeBB)
		t.block = elseBB // unreachable past this point; kept for callers that inspect t.block
		return voidValue(), nil
	}
	t.block = mergeBB
	return voidValue(), nil
}

func (t *Translator) removeBlock(b *ir.Block) {
	for i, bb := range t.fn.Blocks {
		if bb == b {
			t.fn.Blocks = append(t.fn.Blocks[:i], t.fn.Blocks[i+1:]...)
			return
		}
	}
}

// translateCondValueBranches implements §4.5.8's "Value branches" shape.
func (t *Translator) translateCondValueBranches(n *ast.Operator, condBool value.Value, thenVal, elseVal *Value) (*Value, error) {
	if !types.Equal(thenVal.Type, elseVal.Type) {
		return nil, t.errorf(n, "conditional arms have mismatched types")
	}
	slot := t.fn.Blocks[0].NewAlloca(thenVal.Type)

	thenBB := t.fn.NewBlock(t.blockName("cond.then"))
	elseBB := t.fn.NewBlock(t.blockName("cond.else"))
	mergeBB := t.fn.NewBlock(t.blockName("cond.merge"))

	t.block.NewCondBr(condBool, thenBB, elseBB)

	t.block = thenBB
	t.block.NewStore(thenVal.IR, slot)
	t.block.NewBr(mergeBB)

	t.block = elseBB
	t.block.NewStore(elseVal.IR, slot)
	t.block.NewBr(mergeBB)

	t.block = mergeBB
	if n.Attrs().Lval {
		return &Value{IR: slot, Type: types.NewPointer(thenVal.Type)}, nil
	}
	loaded := t.block.NewLoad(thenVal.Type, slot)
	return t.wrap(loaded, thenVal.Type), nil
}

// realizeScopeInto translates a scope value's body into bb, branching to
// nb at the end unless the body already terminated (ret/br). Returns
// whether control fell through to nb.
func (t *Translator) realizeScopeInto(scopeVal *Value, bb, nb *ir.Block) (bool, error) {
	scopeNode := scopeVal.Node.(*ast.Scope)
	savedBlock, savedScope := t.block, t.thisScope
	t.block = bb
	t.thisScope = &Value{Symbols: cloneValueMap(scopeVal.Symbols), Fields: cloneIntMap(scopeVal.Fields)}

	for _, stmt := range scopeNode.Body {
		if _, err := t.Translate(stmt); err != nil {
			t.block, t.thisScope = savedBlock, savedScope
			return false, err
		}
	}
	fellThrough := bb.Term == nil
	if fellThrough {
		bb.NewBr(nb)
	}
	t.block, t.thisScope = savedBlock, savedScope
	return fellThrough, nil
}
