// Package translate also exposes the module façade (§4.3): the thing a CLI
// driver actually calls. Module owns one *ir.Module plus the link-library
// hints gathered during translation, the way the teacher's compiler.Compiler
// owns one *token.FileSet plus its build directory.
package translate

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/rubiojr/scopc/ast"
)

// Module wraps one back-end module plus the link-library hints collected
// from `@import … #link:<lib>` nodes (§4.3, §6 "obj" pipeline).
type Module struct {
	ir *ir.Module
	// LinkLibs are the -l<name> hints gathered from imports, surfaced to
	// the CLI's linker invocation.
	LinkLibs []string
}

// Create implements §4.3 create(ast, ctx, name): build the synthetic
// top-level entry, translate the program's top-level function literal, then
// evaluate it with the entry's own (argc, argv) arguments.
func Create(file string, program ast.Expr) (*Module, error) {
	mod := ir.NewModule()
	mod.SourceFilename = file

	argvType := types.NewPointer(types.NewPointer(types.I8))
	entry := mod.NewFunc("main", types.I32, ir.NewParam("argc", types.I32), ir.NewParam("argv", argvType))
	entryBlock := entry.NewBlock("entry")

	t := newTranslator(mod, file)
	t.fn = entry
	t.block = entryBlock
	t.thisScope = &Value{Symbols: make(map[string]*Value)}

	top, err := t.Translate(program)
	if err != nil {
		return nil, err
	}

	var result *Value
	if top.IsLazy {
		args := []*Value{
			{IR: entry.Params[0], Type: types.I32},
			{IR: entry.Params[1], Type: argvType},
		}
		result, err = t.evaluateCallable(program, top, args)
		if err != nil {
			return nil, err
		}
	} else {
		result = top
	}

	t.gcPrelude(entryBlock)

	if entryBlock.Term == nil {
		if result != nil && !result.IsVoid && result.IR != nil {
			if _, ok := result.Type.(*types.IntType); ok {
				entryBlock.NewRet(result.IR)
			} else {
				entryBlock.NewRet(constant.NewInt(types.I32, 0))
			}
		} else {
			entryBlock.NewRet(constant.NewInt(types.I32, 0))
		}
	}

	return &Module{ir: mod, LinkLibs: append([]string(nil), t.linkLibs...)}, nil
}

// Irgen implements §4.3 irgen() → text: the module's textual LLVM IR, via
// the collaborator's own String() printer.
func (m *Module) Irgen() string {
	return m.ir.String()
}

// Verify implements §4.3 verify(): shell out to the back-end's own verifier
// the way the teacher's compiler shells out to `go build` (compiler.Build),
// since the IR-builder collaborator itself performs no verification.
func (m *Module) Verify() error {
	return runTextThroughOpt(m.ir.String(), []string{"-passes=verify", "-disable-output"})
}

// Optimize implements §4.3 optimize(level, sizeLevel): pipe the textual IR
// through the back-end optimizer at the requested pass level and re-parse
// is not attempted — scopc treats the optimizer as a terminal transform
// applied just before emission (§6 "asm"/"obj" pipeline), not as a
// round-trip back into *ir.Module.
func (m *Module) Optimize(level, sizeLevel int) (string, error) {
	passes := fmt.Sprintf("default<O%d>", level)
	if sizeLevel > 0 {
		passes = fmt.Sprintf("default<Os>")
	}
	return runTextThroughOptCapture(m.ir.String(), []string{"-passes=" + passes})
}
