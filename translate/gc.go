package translate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// gcMallocDecl declares (once per module) the external GC_malloc symbol
// the back-end's conservative collector provides (§1 non-goals: "garbage
// collection design relies on an external conservative GC"; §4.5.3).
func (t *Translator) gcMallocDecl() *ir.Func {
	if t.gcMallocFn != nil {
		return t.gcMallocFn
	}
	f := t.mod.NewFunc("GC_malloc", types.NewPointer(types.I8), ir.NewParam("size", types.I64))
	t.gcMallocFn = f
	return f
}

func (t *Translator) gcInitDecl() *ir.Func {
	if t.gcInitFn != nil {
		return t.gcInitFn
	}
	f := t.mod.NewFunc("GC_init", types.Void)
	t.gcInitFn = f
	return f
}

// gcPrelude emits exactly one `call void @GC_init()` into the synthetic
// entry's first block, guarded by gcUsed, reproducing the original's
// single-prepend idempotency rather than a per-allocation-site check
// (§E.3 "GC prelude idempotency").
func (t *Translator) gcPrelude(entry *ir.Block) {
	if !t.gcUsed {
		return
	}
	entry.Insts = append([]ir.Instruction{ir.NewCall(t.gcInitDecl())}, entry.Insts...)
}
