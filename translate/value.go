// Package translate implements the bidirectional, laziness-aware translator
// (§4.4-4.6): the central IR-emitting visitor over ast.Expr, its operator
// dispatch, and the two-pass function/scope evaluator. Grounded in the
// teacher's compiler.codeGen: a stateful struct bookmarking builder state
// across recursive descent, split across per-concern files the same way
// codegen.go/codegen_expr.go/codegen_func.go/codegen_scope.go are split.
package translate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/rubiojr/scopc/ast"
)

// RetTable is the (symbols, fields) snapshot captured at a ret instruction
// and transplanted onto a caller's result Value so dot/at addressing on a
// call result can see the callee's accessor map (§3 "ret_table", GLOSSARY).
type RetTable struct {
	Symbols map[string]*Value
	Fields  map[string]int
}

// Value is the translator's runtime value: either a concrete IR value or a
// lazy AST node awaiting evaluation (§3 "Runtime (translator) value").
type Value struct {
	// IR is the concrete IR value handle, nil for a value that is lazy or
	// otherwise has no materialized storage yet (a fresh l-value
	// declaration before its first assign).
	IR value.Value
	// Type is IR.Type() cached at construction, since IR may become an
	// alloca pointer while the logical type is its pointee.
	Type types.Type

	// Parent is the structure/array this value was addressed out of, used
	// only to recompute a sibling GEP; never owning.
	Parent *Value

	// Node is the originating AST node, kept so a lazy value can be
	// re-evaluated against different argument types at each call site.
	Node ast.Expr

	// Symbols maps names to runtime values in this value's own namespace
	// (a scope's locals, or a structure's lazy members).
	Symbols map[string]*Value
	// Fields maps a structure member name to its IR struct field index;
	// only non-lazy members are laid out, so this is a strict subset of
	// Symbols' keys for structure values.
	Fields map[string]int

	// Name is the value's binding name, set when a variable is declared by
	// its first assignment.
	Name string

	// RetTable is set on the void marker a ret returns, and on the result
	// of a call to a lazy function whose dry pass saw a ret (§3 invariant).
	RetTable *RetTable

	IsLazy bool
	IsVoid bool

	// OdotReceiver is non-nil when this value is a method looked up through
	// odot (`.:`): the enclosing call must append it as a trailing argument
	// (§4.5.4, §4.5.6).
	OdotReceiver *Value
	// AdotReceiver is non-nil when this value is a method looked up through
	// adot (`.=`): the enclosing call must write its result back into this
	// receiver after the call fires (§4.5.4, §4.5.6, §9(b)).
	AdotReceiver *Value
}

func voidValue() *Value { return &Value{IsVoid: true} }

// Copy performs the copy-on-use sharing described in §3 "Lifecycle": a
// shallow copy that keeps the same IR handle and Node but detaches Symbols/
// Fields maps so downstream mutation (binding a fresh local) doesn't leak
// into the original value.
func (v *Value) Copy() *Value {
	cp := *v
	cp.Symbols = cloneValueMap(v.Symbols)
	cp.Fields = cloneIntMap(v.Fields)
	return &cp
}

// CopyWithNewLLVMValue rehomes onto a different IR handle (e.g. after a
// load), keeping everything else about the value (lazy AST, symbol/field
// maps) intact.
func (v *Value) CopyWithNewLLVMValue(iv value.Value, t types.Type) *Value {
	cp := v.Copy()
	cp.IR = iv
	cp.Type = t
	return cp
}

func cloneValueMap(m map[string]*Value) map[string]*Value {
	if m == nil {
		return nil
	}
	out := make(map[string]*Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsFundamental reports whether v's type is a scalar the translator can
// store/load in one instruction, as opposed to an aggregate requiring
// memcpy-style copying (§4.5.3 copyFull).
func (v *Value) IsFundamental() bool {
	switch v.Type.(type) {
	case *types.IntType, *types.FloatType, *types.PointerType:
		return true
	default:
		return false
	}
}

// asBlock asserts v wraps a *ir.Block (a scope value, §3 "Scope
// value"), returning it or (nil, false).
func (v *Value) asBlock() (*ir.Block, bool) {
	b, ok := v.IR.(*ir.Block)
	return b, ok
}
