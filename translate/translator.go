package translate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/rubiojr/scopc/ast"
	"github.com/rubiojr/scopc/errs"
)

// Translator is the central IR-emitting visitor (§4.4). One Translator is
// created per Module.Create call and is not reused across modules; it
// bookmarks the current function/block and the current scope value the way
// the teacher's codeGen bookmarks strings.Builder + indent across recursive
// descent.
type Translator struct {
	mod *ir.Module

	// fn is the function currently being emitted into; block is the
	// insertion-point bookmark, restored on scope exit the same way the
	// teacher's codeGen restores g.indent.
	fn    *ir.Func
	block *ir.Block

	// thisScope is the runtime value whose Symbols map is the current
	// lexical namespace (§4.4 "thisScope_").
	thisScope *Value

	// loadedMap caches imported IR modules keyed by resolved path, the
	// import path joined with the importing file's directory (§4.4
	// "loaded_map_"; §8 "Idempotent imports").
	loadedMap map[string]*ir.Module

	// gcUsed is sticky once any heap allocation requests GC_malloc; it
	// triggers the GC_init prelude call in the synthetic entry (§4.5.3,
	// §E.3 "GC prelude idempotency").
	gcUsed bool

	// linkLibs collects -l<name> hints gathered from @import#link:<lib>
	// nodes, surfaced to the CLI's linker invocation (§6).
	linkLibs []string

	// structCache deduplicates named IR struct types by field-layout
	// identity (§4.4 "Structure literal").
	structCache map[string]*types.StructType
	structSeq   int

	// file is the path of the source this translator is translating, used
	// to resolve relative @import paths and for error locations.
	file string

	// intrinsics memoizes declared back-end intrinsic functions (powi,
	// memcpy) by name so a second use reuses the same declaration.
	intrinsics map[string]*ir.Func

	// gcMallocFn/gcInitFn memoize the GC prelude declarations (gc.go) so a
	// second heap allocation or prelude emission reuses them.
	gcMallocFn *ir.Func
	gcInitFn   *ir.Func

	// irImports memoizes the function declarations and struct-of-funcs type
	// materialized for each @import#ir:<path> (keyed by resolved path), so
	// importing the same path twice reuses the existing declare/define set
	// instead of emitting duplicates (§8 "Idempotent imports").
	irImports map[string]*irImportDecls
}

func newTranslator(mod *ir.Module, file string) *Translator {
	return &Translator{
		mod:         mod,
		loadedMap:   make(map[string]*ir.Module),
		structCache: make(map[string]*types.StructType),
		intrinsics:  make(map[string]*ir.Func),
		irImports:   make(map[string]*irImportDecls),
		file:        file,
	}
}

// Translate dispatches e to the appropriate leaf or operator handler,
// returning the runtime value it produces.
func (t *Translator) Translate(e ast.Expr) (*Value, error) {
	switch n := e.(type) {
	case *ast.Integer:
		return t.translateIntegerLiteral(n)
	case *ast.Decimal:
		return t.translateDecimalLiteral(n)
	case *ast.Boolean:
		return t.translateBooleanLiteral(n)
	case *ast.String:
		return t.translateStringLiteral(n)
	case *ast.RawString:
		return t.translateStringLiteral(&ast.String{Attr: n.Attr, Value: n.Value})
	case *ast.Variable:
		return t.translateVariable(n)
	case *ast.PreVariable:
		return t.translatePreVariable(n)
	case *ast.Array:
		return t.translateArray(n)
	case *ast.Structure:
		return t.translateStructure(n)
	case *ast.Function:
		return t.translateFunction(n)
	case *ast.Scope:
		return t.translateScope(n)
	case *ast.Operator:
		return t.translateOperator(n)
	default:
		return nil, t.bugf(e, "no translation rule for %T", e)
	}
}

func (t *Translator) pos(e ast.Expr) errs.Pos {
	w := e.Attrs().Where
	return errs.Pos{File: w.File, Line: w.Line, Col: w.Col}
}

func (t *Translator) errorf(e ast.Expr, format string, args ...any) error {
	return errs.Translatef(t.pos(e), format, args...)
}

func (t *Translator) bugf(e ast.Expr, format string, args ...any) error {
	return errs.Bugf(t.pos(e), format, args...)
}

func (t *Translator) rejectLvalOrToCall(e ast.Expr, what string) error {
	if e.Attrs().Lval {
		return t.errorf(e, "%s in l-value position", what)
	}
	if e.Attrs().ToCall {
		return t.errorf(e, "%s is not callable", what)
	}
	return nil
}

func (t *Translator) translateIntegerLiteral(n *ast.Integer) (*Value, error) {
	if err := t.rejectLvalOrToCall(n, "integer literal"); err != nil {
		return nil, err
	}
	c := constant.NewInt(types.I32, int64(n.Value))
	return &Value{IR: c, Type: types.I32}, nil
}

func (t *Translator) translateDecimalLiteral(n *ast.Decimal) (*Value, error) {
	if err := t.rejectLvalOrToCall(n, "decimal literal"); err != nil {
		return nil, err
	}
	c := constant.NewFloat(types.Double, n.Value)
	return &Value{IR: c, Type: types.Double}, nil
}

func (t *Translator) translateBooleanLiteral(n *ast.Boolean) (*Value, error) {
	if err := t.rejectLvalOrToCall(n, "boolean literal"); err != nil {
		return nil, err
	}
	i := int64(0)
	if n.Value {
		i = 1
	}
	c := constant.NewInt(types.I1, i)
	return &Value{IR: c, Type: types.I1}, nil
}

func (t *Translator) translateStringLiteral(n *ast.String) (*Value, error) {
	if err := t.rejectLvalOrToCall(n, "string literal"); err != nil {
		return nil, err
	}
	// Emit a private global holding the NUL-terminated bytes, then return
	// a pointer to its first element (a global-string-ptr in the
	// collaborator's primitive vocabulary, §1).
	data := constant.NewCharArrayFromString(n.Value + "\x00")
	g := t.mod.NewGlobalDef(t.nextGlobalName("str"), data)
	g.Immutable = true
	zero := constant.NewInt(types.I32, 0)
	gep := constant.NewGetElementPtr(data.Typ, g, zero, zero)
	return &Value{IR: gep, Type: types.I8Ptr}, nil
}

var globalSeq int

func (t *Translator) nextGlobalName(prefix string) string {
	globalSeq++
	return ".str." + prefix + "." + itoa(globalSeq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// translateVariable implements §4.4 "Variable".
func (t *Translator) translateVariable(n *ast.Variable) (*Value, error) {
	v, ok := t.thisScope.Symbols[n.Name]
	if !ok {
		if n.Attrs().Lval {
			fresh := &Value{Name: n.Name}
			t.thisScope.Symbols[n.Name] = fresh
			return fresh, nil
		}
		return nil, t.errorf(n, "%q has not declared in this scope", n.Name)
	}
	if v.IsFundamental() && !n.Attrs().Lval && !v.IsLazy {
		loaded := t.block.NewLoad(v.Type, v.IR)
		return v.CopyWithNewLLVMValue(loaded, v.Type), nil
	}
	return v.Copy(), nil
}

// translatePreVariable implements §4.4 "Pre-variable".
func (t *Translator) translatePreVariable(n *ast.PreVariable) (*Value, error) {
	switch n.Name {
	case "self":
		self, ok := t.thisScope.Symbols["__self"]
		if !ok {
			return nil, t.errorf(n, "@self used outside a method body")
		}
		return self.Copy(), nil
	case "import":
		return t.translateImport(n)
	default:
		return nil, t.errorf(n, "pre-defined variable %q is not defined", n.Name)
	}
}
