package translate

import (
	"strings"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/rubiojr/scopc/ast"
)

// translateArray implements §4.4 "Array literal": the element type is
// learned from the first element, storage is a single [T x N] alloca, and
// each element is written with copyFull so aggregate elements get a memcpy
// while lazy elements are recorded only in Symbols (no storage at all).
func (t *Translator) translateArray(n *ast.Array) (*Value, error) {
	if err := t.rejectLvalOrToCall(n, "array literal"); err != nil {
		return nil, err
	}
	if len(n.Elems) == 0 {
		return nil, t.errorf(n, "array literal must have at least one element")
	}

	elems := make([]*Value, len(n.Elems))
	var elemType types.Type
	for i, e := range n.Elems {
		v, err := t.Translate(e)
		if err != nil {
			return nil, err
		}
		elems[i] = v
		if !v.IsLazy {
			if elemType == nil {
				elemType = v.Type
			} else if !types.Equal(elemType, v.Type) {
				return nil, t.errorf(n, "array elements must share a single type")
			}
		}
	}

	result := &Value{Symbols: make(map[string]*Value)}
	allLazy := elemType == nil
	if allLazy {
		for i, v := range elems {
			result.Symbols[itoa(i)] = v
		}
		return result, nil
	}

	arrType := types.NewArray(uint64(len(elems)), elemType)
	alloca := t.fn.Blocks[0].NewAlloca(arrType)
	result.IR = alloca
	result.Type = types.NewPointer(arrType)

	zero := constant.NewInt(types.I32, 0)
	for i, v := range elems {
		idx := constant.NewInt(types.I32, int64(i))
		if v.IsLazy {
			result.Symbols[itoa(i)] = v
			continue
		}
		gep := t.block.NewGetElementPtr(arrType, alloca, zero, idx)
		slot := &Value{IR: gep, Type: types.NewPointer(elemType)}
		if err := t.copyFull(n, v, slot); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// translateStructure implements §4.4 "Structure literal": non-lazy fields
// are laid out in a named struct type deduplicated by field-layout identity
// (same field names, same order, same types share one IR struct); lazy
// fields (methods, nested functions/scopes) live only in Symbols.
func (t *Translator) translateStructure(n *ast.Structure) (*Value, error) {
	if err := t.rejectLvalOrToCall(n, "structure literal"); err != nil {
		return nil, err
	}

	fieldVals := make([]*Value, len(n.Fields))
	for i, f := range n.Fields {
		v, err := t.Translate(f.Value)
		if err != nil {
			return nil, err
		}
		fieldVals[i] = v
	}

	result := &Value{Symbols: make(map[string]*Value), Fields: make(map[string]int)}

	var layoutKey strings.Builder
	var memberTypes []types.Type
	var memberIdx []int
	for i, f := range n.Fields {
		v := fieldVals[i]
		if v.IsLazy {
			result.Symbols[f.Key.Name] = v
			continue
		}
		layoutKey.WriteString(f.Key.Name)
		layoutKey.WriteByte(':')
		layoutKey.WriteString(v.Type.String())
		layoutKey.WriteByte(';')
		memberIdx = append(memberIdx, i)
		memberTypes = append(memberTypes, v.Type)
	}

	if len(memberTypes) == 0 {
		return result, nil
	}

	structType := t.internStructType(layoutKey.String(), memberTypes)
	alloca := t.fn.Blocks[0].NewAlloca(structType)
	result.IR = alloca
	result.Type = types.NewPointer(structType)

	zero := constant.NewInt(types.I32, 0)
	for fieldIdx, i := range memberIdx {
		f := n.Fields[i]
		result.Symbols[f.Key.Name] = fieldVals[i]
		result.Fields[f.Key.Name] = fieldIdx
		fi := constant.NewInt(types.I32, int64(fieldIdx))
		gep := t.block.NewGetElementPtr(structType, alloca, zero, fi)
		slot := &Value{IR: gep, Type: types.NewPointer(memberTypes[fieldIdx])}
		if err := t.copyFull(n, fieldVals[i], slot); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// internStructType deduplicates named struct types by layout identity
// (§4.4 "Structure literal"), so two structurally identical literals share
// one IR type and are mutually assignable.
func (t *Translator) internStructType(layoutKey string, members []types.Type) *types.StructType {
	if st, ok := t.structCache[layoutKey]; ok {
		return st
	}
	t.structSeq++
	st := types.NewStruct(members...)
	st.TypeName = "struct." + itoa(t.structSeq)
	t.mod.TypeDefs = append(t.mod.TypeDefs, st)
	t.structCache[layoutKey] = st
	return st
}

// translateFunction implements §4.4 "Function literal". A function is
// materialized eagerly, right here, only when every parameter and the
// return are fully typed via #type/#typeof/#rettype/#rettypeof and the
// literal isn't marked #lazy; otherwise it stays a lazy value carrying its
// own AST, instantiated later per call site by the two-pass protocol
// (§4.6).
func (t *Translator) translateFunction(n *ast.Function) (*Value, error) {
	if err := t.rejectLvalOrToCall(n, "function literal"); err != nil {
		return nil, err
	}
	if _, lazy := n.Attribute("lazy"); lazy {
		return t.lazyFunctionValue(n), nil
	}

	paramTypes := make([]types.Type, len(n.Params))
	for i, p := range n.Params {
		if tn, ok := p.Attribute("type"); ok {
			paramTypes[i] = parseTypeAttr(tn)
			continue
		}
		if name, ok := p.Attribute("typeof"); ok {
			v, ok := t.thisScope.Symbols[name]
			if !ok {
				return t.lazyFunctionValue(n), nil
			}
			paramTypes[i] = v.Type
			continue
		}
		return t.lazyFunctionValue(n), nil
	}

	var retType types.Type
	if tn, ok := n.Attribute("rettype"); ok {
		retType = parseTypeAttr(tn)
	} else if name, ok := n.Attribute("rettypeof"); ok {
		v, ok := t.thisScope.Symbols[name]
		if !ok {
			return t.lazyFunctionValue(n), nil
		}
		retType = v.Type
	} else {
		return t.lazyFunctionValue(n), nil
	}

	fn, _, err := t.materializeFunction(n, paramTypes, retType)
	if err != nil {
		return nil, err
	}
	return &Value{IR: fn, Type: types.NewPointer(fn.Sig)}, nil
}

// lazyFunctionValue wraps a function literal as a lazy runtime value; it is
// instantiated later, once per distinct argument-type signature, by
// instantiateFunction (§4.6).
func (t *Translator) lazyFunctionValue(n *ast.Function) *Value {
	return &Value{Node: n, IsLazy: true, Symbols: make(map[string]*Value)}
}

// translateScope implements §4.4 "Scope literal": always lazy, a
// parameterless block realized into actual basic blocks only when called or
// used as a conditional branch (§4.5.8, §4.6 apply_bb). The snapshot of the
// enclosing scope's Symbols lets the body see outer locals when it is
// eventually realized.
func (t *Translator) translateScope(n *ast.Scope) (*Value, error) {
	if err := t.rejectLvalOrToCall(n, "scope literal"); err != nil {
		return nil, err
	}
	return &Value{
		Node:    n,
		IsLazy:  true,
		Symbols: cloneValueMap(t.thisScope.Symbols),
		Fields:  cloneIntMap(t.thisScope.Fields),
	}, nil
}
