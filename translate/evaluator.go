package translate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/rubiojr/scopc/ast"
	"github.com/rubiojr/scopc/errs"
)

// evaluateCallable implements §4.6: a lazy value (function or scope)
// applied to a concrete argument vector.
func (t *Translator) evaluateCallable(callSite ast.Expr, callee *Value, args []*Value) (*Value, error) {
	if !callee.IsLazy {
		return nil, t.bugf(callSite, "evaluateCallable called on a non-lazy value")
	}
	if isScopeNode(callee.Node) {
		if len(args) != 0 {
			return nil, t.errorf(callSite, "a scope value takes no arguments")
		}
		return t.evaluateScope(callee)
	}
	fnNode, ok := callee.Node.(*ast.Function)
	if !ok {
		return nil, t.bugf(callSite, "lazy value wraps neither a function nor a scope")
	}
	return t.instantiateFunction(callSite, fnNode, args)
}

// instantiateFunction runs the two-pass protocol of §4.6.
func (t *Translator) instantiateFunction(callSite ast.Expr, fnNode *ast.Function, args []*Value) (*Value, error) {
	paramTypes, err := t.resolveParamTypes(callSite, fnNode, args)
	if err != nil {
		return nil, err
	}

	if fnNode.Attrs().Survey {
		// The caller is itself inside a dry pass: only the externally
		// linked prototype is needed (§4.6 "Real pass (skipped if survey
		// was already set by the caller)").
		proto := t.declarePrototype(fnNode, types.Void, paramTypes)
		return &Value{IR: proto, Type: types.NewPointer(proto.Sig)}, nil
	}

	retType, retTable, err := t.surveyReturnType(fnNode, paramTypes)
	if err != nil {
		return nil, err
	}

	fn, last, err := t.materializeFunction(fnNode, paramTypes, retType)
	if err != nil {
		return nil, err
	}
	_ = last

	argVals := make([]value.Value, len(paramTypes))
	for i := range paramTypes {
		if i < len(args) {
			argVals[i] = args[i].IR
		}
	}
	call := t.block.NewCall(fn, argVals...)
	if retType == types.Void {
		result := voidValue()
		result.RetTable = retTable
		return result, nil
	}
	result := t.wrap(call, retType)
	result.RetTable = retTable
	return result, nil
}

// resolveParamTypes applies §4.6's "Type checks performed per parameter":
// #type/#typeof pin the expected type and are checked against the
// caller-supplied value; otherwise the parameter's type is inferred from
// the corresponding non-lazy argument's IR type.
func (t *Translator) resolveParamTypes(callSite ast.Expr, fnNode *ast.Function, args []*Value) ([]types.Type, error) {
	out := make([]types.Type, len(fnNode.Params))
	for i, p := range fnNode.Params {
		if tn, ok := p.Attribute("type"); ok {
			expected := parseTypeAttr(tn)
			if i < len(args) && args[i].IR != nil && !types.Equal(expected, args[i].Type) {
				return nil, t.errorf(callSite, "argument %d type mismatch: expected %s", i+1, tn)
			}
			out[i] = expected
			continue
		}
		if name, ok := p.Attribute("typeof"); ok {
			v, ok := t.thisScope.Symbols[name]
			if !ok {
				return nil, t.errorf(callSite, "#typeof:%s: %q has not declared in this scope", name, name)
			}
			out[i] = v.Type
			continue
		}
		if i >= len(args) {
			return nil, t.errorf(callSite, "too few arguments: parameter %d has no inferable type", i+1)
		}
		out[i] = args[i].Type
	}
	return out, nil
}

// surveyReturnType is the dry pass: build a throwaway void-returning
// function, translate the body with survey=true, and learn the return type
// from the Ret instructions encountered. The function is discarded
// afterward — the dry pass must never leak definitions into the final
// module (§9 "Two-pass function instantiation").
func (t *Translator) surveyReturnType(fnNode *ast.Function, paramTypes []types.Type) (types.Type, *RetTable, error) {
	ast.SetSurvey(fnNode)
	defer clearSurveyTree(fnNode)

	dry := t.mod.NewFunc(t.freshFuncName("survey"), types.Void, buildParams(paramTypes)...)
	entry := dry.NewBlock("entry")

	savedFn, savedBlock, savedScope := t.fn, t.block, t.thisScope
	t.fn, t.block = dry, entry
	t.thisScope = t.bindParamScope(fnNode, dry, paramTypes)

	var retType types.Type = types.Void
	var retTable *RetTable
	sawRet := false
	for _, stmt := range fnNode.Body {
		v, err := t.Translate(stmt)
		if err != nil {
			t.fn, t.block, t.thisScope = savedFn, savedBlock, savedScope
			t.removeFunc(dry)
			return nil, nil, err
		}
		if op, ok := stmt.(*ast.Operator); ok && op.Tag == ast.OpRet {
			inferred := retTypeOfRet(op, t)
			if sawRet && !types.Equal(inferred, retType) {
				t.fn, t.block, t.thisScope = savedFn, savedBlock, savedScope
				t.removeFunc(dry)
				return nil, nil, errs.Translatef(errs.Pos{}, "disagreeing return types across ret statements")
			}
			retType = inferred
			if !sawRet {
				retTable = v.RetTable
			}
			sawRet = true
		}
	}
	for _, b := range dry.Blocks {
		if ret, ok := b.Term.(*ir.TermRet); ok && ret.X != nil {
			if sawRet && !types.Equal(ret.X.Type(), retType) {
				t.fn, t.block, t.thisScope = savedFn, savedBlock, savedScope
				t.removeFunc(dry)
				return nil, nil, errs.Translatef(errs.Pos{}, "disagreeing return types across ret statements")
			}
			retType, sawRet = ret.X.Type(), true
		}
	}
	t.fn, t.block, t.thisScope = savedFn, savedBlock, savedScope
	t.removeFunc(dry)
	return retType, retTable, nil
}

// retTypeOfRet re-derives the type a ret instruction returned by looking
// at the block's terminator, since translateRet itself only returns a void
// marker Value.
func retTypeOfRet(op *ast.Operator, t *Translator) types.Type {
	// The ret's operand was already translated once as part of the dry
	// pass body walk; re-translating it here would double-emit, so this
	// inspects the just-emitted terminator instead.
	term := t.block.Term
	if ret, ok := term.(*ir.TermRet); ok && ret.X != nil {
		return ret.X.Type()
	}
	return types.Void
}

// clearSurveyTree undoes SetSurvey after a dry pass completes, so a later
// real pass over the same literal (e.g. a second call site with different
// argument types) runs un-surveyed.
func clearSurveyTree(e ast.Expr) {
	e.Attrs().Survey = false
	for _, c := range ast.Children(e) {
		clearSurveyTree(c)
	}
}

// materializeFunction is the real pass: recreate the function with the
// inferred return type and a fresh body translation.
func (t *Translator) materializeFunction(fnNode *ast.Function, paramTypes []types.Type, retType types.Type) (*ir.Func, *Value, error) {
	fn := t.mod.NewFunc(t.freshFuncName("fn"), retType, buildParams(paramTypes)...)
	entry := fn.NewBlock("entry")

	savedFn, savedBlock, savedScope := t.fn, t.block, t.thisScope
	t.fn, t.block = fn, entry
	t.thisScope = t.bindParamScope(fnNode, fn, paramTypes)

	var last *Value
	var err error
	for _, stmt := range fnNode.Body {
		last, err = t.Translate(stmt)
		if err != nil {
			t.fn, t.block, t.thisScope = savedFn, savedBlock, savedScope
			return nil, nil, err
		}
	}
	if t.block.Term == nil {
		t.block.NewRet(nil)
	}
	t.fn, t.block, t.thisScope = savedFn, savedBlock, savedScope
	return fn, last, nil
}

func (t *Translator) bindParamScope(fnNode *ast.Function, fn *ir.Func, paramTypes []types.Type) *Value {
	scope := &Value{Symbols: make(map[string]*Value)}
	for i, p := range fnNode.Params {
		scope.Symbols[p.Name] = &Value{IR: fn.Params[i], Type: paramTypes[i]}
	}
	return scope
}

func (t *Translator) declarePrototype(fnNode *ast.Function, retType types.Type, paramTypes []types.Type) *ir.Func {
	return t.mod.NewFunc(t.freshFuncName("proto"), retType, buildParams(paramTypes)...)
}

func buildParams(paramTypes []types.Type) []*ir.Param {
	out := make([]*ir.Param, len(paramTypes))
	for i, pt := range paramTypes {
		out[i] = ir.NewParam(paramName(i), pt)
	}
	return out
}

var funcSeq int

func (t *Translator) freshFuncName(prefix string) string {
	funcSeq++
	return prefix + "." + itoa(funcSeq)
}

func (t *Translator) removeFunc(fn *ir.Func) {
	for i, f := range t.mod.Funcs {
		if f == fn {
			t.mod.Funcs = append(t.mod.Funcs[:i], t.mod.Funcs[i+1:]...)
			return
		}
	}
}

// evaluateScope implements §4.6 "Scope evaluation" / apply_bb.
func (t *Translator) evaluateScope(scopeVal *Value) (*Value, error) {
	fellThrough, last, err := t.applyBB(scopeVal)
	if err != nil {
		return nil, err
	}
	_ = fellThrough
	if last == nil {
		return voidValue(), nil
	}
	return last, nil
}

// applyBB is the reusable helper of §4.6: translate a scope's body into a
// fresh block reached by branch from the current block, returning whether
// control fell through to the successor and the last statement's value.
func (t *Translator) applyBB(scopeVal *Value) (bool, *Value, error) {
	scopeNode := scopeVal.Node.(*ast.Scope)
	savedBlock := t.block
	theBlock := t.fn.NewBlock(t.blockName("scope.body"))
	nb := t.fn.NewBlock(t.blockName("scope.next"))

	savedBlock.NewBr(theBlock)

	savedScope := t.thisScope
	t.thisScope = &Value{Symbols: cloneValueMap(scopeVal.Symbols), Fields: cloneIntMap(scopeVal.Fields)}
	t.block = theBlock

	var last *Value
	var err error
	for _, stmt := range scopeNode.Body {
		last, err = t.Translate(stmt)
		if err != nil {
			t.block, t.thisScope = savedBlock, savedScope
			return false, nil, err
		}
	}

	fellThrough := theBlock.Term == nil
	if fellThrough {
		theBlock.NewBr(nb)
		t.block = nb
	} else {
		t.removeBlock(nb)
		t.block = theBlock
	}
	t.thisScope = savedScope
	return fellThrough, last, nil
}
