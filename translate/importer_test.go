package translate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/scopc/parser"
	"github.com/rubiojr/scopc/translate"
)

// TestImportIRIsIdempotentAcrossRepeatedImports covers §8 "Idempotent
// imports: importing the same path twice through @import#ir:<path> links
// the library list without duplicating function declarations."
func TestImportIRIsIdempotentAcrossRepeatedImports(t *testing.T) {
	dir := t.TempDir()
	irPath := filepath.Join(dir, "lib.ll")
	require.NoError(t, os.WriteFile(irPath, []byte("declare i32 @foo(i32)\n"), 0o644))

	src := `(){ a = @import#ir:"` + irPath + `"; b = @import#ir:"` + irPath + `"; |> 0; }`
	program, err := parser.Parse("test.scopc", src)
	require.NoError(t, err)

	mod, err := translate.Create("test.scopc", program)
	require.NoError(t, err)

	irText := mod.Irgen()
	assert.Equal(t, 1, strings.Count(irText, "declare i32 @foo"),
		"importing the same path twice must not re-declare @foo")
}
