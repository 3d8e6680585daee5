package translate

import (
	"strings"

	"github.com/llir/llvm/ir/types"
)

// parseTypeAttr parses a #type/#rettype attribute's textual IR type name
// (§4.6 "Type checks") into a concrete types.Type. Pointer nesting is
// written with a trailing run of '*', the way the IR's own textual syntax
// spells pointee-of (e.g. "i32*", "i8**").
func parseTypeAttr(s string) types.Type {
	s = strings.TrimSpace(s)
	depth := 0
	for strings.HasSuffix(s, "*") {
		s = strings.TrimSuffix(s, "*")
		s = strings.TrimSpace(s)
		depth++
	}

	var base types.Type
	switch s {
	case "i1":
		base = types.I1
	case "i8":
		base = types.I8
	case "i16":
		base = types.I16
	case "i32":
		base = types.I32
	case "i64":
		base = types.I64
	case "float":
		base = types.Float
	case "double":
		base = types.Double
	case "void":
		base = types.Void
	case "ptr":
		base = types.I8
		if depth == 0 {
			depth = 1
		}
	default:
		base = types.I32
	}
	for ; depth > 0; depth-- {
		base = types.NewPointer(base)
	}
	return base
}
