package translate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/scopc/parser"
	"github.com/rubiojr/scopc/translate"
)

// compileToIR parses and translates src (a complete top-level function
// literal, per §1) and returns its textual LLVM IR, the way
// compileToGo helped the teacher's codegen tests assert on generated text.
func compileToIR(t *testing.T, src string) string {
	t.Helper()
	program, err := parser.Parse("test.scopc", src)
	require.NoError(t, err, "parse error for %q", src)
	mod, err := translate.Create("test.scopc", program)
	require.NoError(t, err, "translate error for %q", src)
	return mod.Irgen()
}

func TestEndToEndIdentityReturn(t *testing.T) {
	ir := compileToIR(t, "(){ |> 1; }")
	assert.Contains(t, ir, "define i32 @main")
	assert.Contains(t, ir, "ret i32")
}

func TestEndToEndVariableArithmetic(t *testing.T) {
	ir := compileToIR(t, "(){ x = 1; y = 2; |> x + y; }")
	assert.Contains(t, ir, "add")
	assert.Contains(t, ir, "alloca i32")
}

func TestEndToEndArrayIndexing(t *testing.T) {
	ir := compileToIR(t, "(){ a = [1, 2, 3]; |> a[1]; }")
	assert.Contains(t, ir, "alloca [3 x i32]")
	assert.Contains(t, ir, "getelementptr")
}

func TestEndToEndConditionalValueBranches(t *testing.T) {
	ir := compileToIR(t, "(){ x = 1; |> x > 0 ? 1 : 0; }")
	assert.Contains(t, ir, "icmp sgt")
	assert.Contains(t, ir, "br i1")
	assert.Contains(t, ir, "cond.then")
	assert.Contains(t, ir, "cond.merge")
}

func TestEndToEndStructureFieldAccess(t *testing.T) {
	ir := compileToIR(t, "(){ p = [x: 1, y: 2]; |> p.x; }")
	assert.Contains(t, ir, "%struct.")
	assert.Contains(t, ir, "getelementptr")
}

func TestEndToEndDecimalArithmeticPromotesToFloat(t *testing.T) {
	ir := compileToIR(t, "(){ |> 1.5 + 2; }")
	assert.Contains(t, ir, "fadd")
	assert.Contains(t, ir, "sitofp")
}

func TestEndToEndScopeConditionalBranches(t *testing.T) {
	ir := compileToIR(t, "(){ x = 1; x > 0 ? { |> 1; } : { |> 0; }; }")
	assert.Contains(t, ir, "cond.then")
	assert.Contains(t, ir, "cond.else")
}

func TestEndToEndOdotAppendsReceiverAsTrailingArgument(t *testing.T) {
	ir := compileToIR(t, "(){ s = [add: (x,y){ |> x+y; }]; |> s.:add(3,4); }")
	assert.Contains(t, ir, "%struct.")
	assert.Contains(t, ir, "call i32")
}

func TestEndToEndAdotWritesCallResultBackIntoReceiver(t *testing.T) {
	ir := compileToIR(t, "(){ s = [val: 1, echo: (self){ |> self; }]; s.=echo(); |> s.val; }")
	assert.Contains(t, ir, "call")
	assert.Contains(t, ir, "store")
}

func TestEndToEndPowIntegerLinksLibmAndUsesPowi(t *testing.T) {
	ir := compileToIR(t, "(){ |> 2 ** 3; }")
	assert.Contains(t, ir, "llvm.powi.f64.i32")
	assert.Contains(t, ir, "sitofp")
	assert.Contains(t, ir, "fptosi")
}

func TestPowLinksLibm(t *testing.T) {
	program, err := parser.Parse("test.scopc", "(){ |> 2 ** 3; }")
	require.NoError(t, err)
	mod, err := translate.Create("test.scopc", program)
	require.NoError(t, err)
	assert.Contains(t, mod.LinkLibs, "m")
}

func TestEndToEndPowFloatUsesPow(t *testing.T) {
	ir := compileToIR(t, "(){ |> 2.0 ** 3.0; }")
	assert.Contains(t, ir, "llvm.pow.f64")
}

func TestEndToEndUnknownVariableIsTranslateError(t *testing.T) {
	program, err := parser.Parse("test.scopc", "(){ |> missing; }")
	require.NoError(t, err)
	_, err = translate.Create("test.scopc", program)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "has not declared in this scope"))
}
