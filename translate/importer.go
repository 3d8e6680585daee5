package translate

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/rubiojr/scopc/ast"
	"github.com/rubiojr/scopc/parser"
)

// translateImport implements §4.4's "Pre-variable: @import" branch. The
// pre-variable node carries one of the `m`/`ir`/`c` attributes naming the
// resolution strategy, plus an optional `link` attribute recording a
// library to pass to the final linker invocation.
func (t *Translator) translateImport(n *ast.PreVariable) (*Value, error) {
	if lib, ok := n.Attribute("link"); ok {
		t.linkLibs = append(t.linkLibs, lib)
	}

	if rel, ok := n.Attribute("m"); ok {
		return t.importModule(n, rel)
	}
	if rel, ok := n.Attribute("ir"); ok {
		return t.importIR(n, rel)
	}
	if rel, ok := n.Attribute("c"); ok {
		return t.importC(n, rel)
	}
	return nil, t.errorf(n, "@import requires one of #m, #ir, #c")
}

// resolveImportPath resolves rel relative to the importing file's own
// directory, per §6 "Imports use filesystem paths relative to the
// importer's source file."
func (t *Translator) resolveImportPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(filepath.Dir(t.file), rel)
}

// importModule implements `@import#m:<path>`: parse the referenced source
// file (reusing the parser recursively) and translate its top-level
// function literal into the current module, returning its runtime value.
func (t *Translator) importModule(n *ast.PreVariable, rel string) (*Value, error) {
	path := t.resolveImportPath(rel)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, t.errorf(n, "@import#m:%s: %v", rel, err)
	}
	program, err := parser.Parse(path, string(data))
	if err != nil {
		return nil, err
	}

	sub := newTranslator(t.mod, path)
	sub.fn, sub.block = t.fn, t.block
	sub.thisScope = &Value{Symbols: make(map[string]*Value)}
	sub.gcUsed = t.gcUsed
	sub.structCache = t.structCache
	sub.intrinsics = t.intrinsics
	sub.loadedMap = t.loadedMap
	sub.irImports = t.irImports

	v, err := sub.Translate(program)
	t.block = sub.block
	t.gcUsed = sub.gcUsed
	t.linkLibs = append(t.linkLibs, sub.linkLibs...)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// irImportDecls memoizes the declarations and struct type materialized for
// one @import#ir:<path>, so a second import of the same path reuses them
// instead of re-declaring every function (§8 "Idempotent imports").
type irImportDecls struct {
	names      []string
	decls      []*ir.Func
	structType *types.StructType
}

// importIR implements `@import#ir:<path>`: parse the referenced IR text,
// enumerate its externally linkable functions (skipping `llvm.`-prefixed
// intrinsics), build an anonymous struct of function pointers, alloca an
// instance, and initialize it field-by-field (§4.4). Declaring the
// functions and interning the struct type happens once per path; a second
// import of the same path only allocates a fresh local instance from the
// cached declarations.
func (t *Translator) importIR(n *ast.PreVariable, rel string) (*Value, error) {
	path := t.resolveImportPath(rel)

	decls, ok := t.irImports[path]
	if !ok {
		irMod, ok := t.loadedMap[path]
		if !ok {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, t.errorf(n, "@import#ir:%s: %v", rel, err)
			}
			irMod, err = asm.ParseString(path, string(data))
			if err != nil {
				return nil, t.errorf(n, "@import#ir:%s: %v", rel, err)
			}
			t.loadedMap[path] = irMod
		}
		var err error
		decls, err = t.declareImportedFuncs(path, irMod)
		if err != nil {
			return nil, err
		}
		t.irImports[path] = decls
	}
	return t.instantiateImportStruct(decls), nil
}

// declareImportedFuncs redeclares every externally linkable function in
// irMod into the current module exactly once, and interns the
// function-pointer struct type that describes them.
func (t *Translator) declareImportedFuncs(path string, irMod *ir.Module) (*irImportDecls, error) {
	var names []string
	var memberTypes []types.Type
	var decls []*ir.Func
	for _, f := range irMod.Funcs {
		name := f.Name()
		if strings.HasPrefix(name, "llvm.") {
			continue
		}
		decl := t.mod.NewFunc(name, f.Sig.RetType, cloneParams(f.Params)...)
		decl.Sig.Variadic = f.Sig.Variadic
		names = append(names, name)
		memberTypes = append(memberTypes, types.NewPointer(decl.Sig))
		decls = append(decls, decl)
	}
	structType := t.internStructType("import.ir."+path, memberTypes)
	return &irImportDecls{names: names, decls: decls, structType: structType}, nil
}

// instantiateImportStruct builds one fresh local struct-of-funcs instance
// from already-declared functions (§4.4 @import#ir branch).
func (t *Translator) instantiateImportStruct(decls *irImportDecls) *Value {
	alloca := t.fn.Blocks[0].NewAlloca(decls.structType)
	result := &Value{IR: alloca, Type: types.NewPointer(decls.structType), Symbols: make(map[string]*Value), Fields: make(map[string]int)}

	zero := constant.NewInt(types.I32, 0)
	for i, name := range decls.names {
		fi := constant.NewInt(types.I32, int64(i))
		gep := t.block.NewGetElementPtr(decls.structType, alloca, zero, fi)
		t.block.NewStore(decls.decls[i], gep)
		result.Fields[name] = i
		result.Symbols[name] = &Value{IR: decls.decls[i], Type: types.NewPointer(decls.decls[i].Sig)}
	}
	return result
}

func cloneParams(params []*ir.Param) []*ir.Param {
	out := make([]*ir.Param, len(params))
	for i, p := range params {
		out[i] = ir.NewParam(paramName(i), p.Typ)
	}
	return out
}

// importC implements `@import#c:<path>`: shell out to a C-header→IR
// transformer, cache the result under HOME's h2ir cache directory (§6
// "Environment"), then recurse into the @import#ir branch.
func (t *Translator) importC(n *ast.PreVariable, rel string) (*Value, error) {
	path := t.resolveImportPath(rel)
	cacheDir := filepath.Join(os.Getenv("HOME"), ".cache", "h2ir")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, t.errorf(n, "@import#c:%s: %v", rel, err)
	}
	cachedIR := filepath.Join(cacheDir, sanitizeCacheKey(path)+".ll")

	if _, err := os.Stat(cachedIR); err != nil {
		cmd := exec.Command("h2ir", path, "-o", cachedIR)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return nil, t.errorf(n, "@import#c:%s: h2ir: %s", rel, stderr.String())
		}
	}

	irRel, err := filepath.Rel(filepath.Dir(t.file), cachedIR)
	if err != nil {
		irRel = cachedIR
	}
	return t.importIR(n, irRel)
}

func sanitizeCacheKey(path string) string {
	return strings.NewReplacer("/", "_", ":", "_").Replace(strings.TrimPrefix(path, string(filepath.Separator)))
}
