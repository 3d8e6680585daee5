package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llir/llvm/ir/types"
)

func TestValueIsFundamental(t *testing.T) {
	tt := []struct {
		name string
		typ  types.Type
		want bool
	}{
		{"int", types.I32, true},
		{"float", types.Double, true},
		{"pointer", types.NewPointer(types.I8), true},
		{"array", types.NewArray(4, types.I32), false},
		{"struct", types.NewStruct(types.I32, types.I32), false},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			v := &Value{Type: tc.typ}
			assert.Equal(t, tc.want, v.IsFundamental())
		})
	}
}

func TestCloneValueMapIsIndependent(t *testing.T) {
	src := map[string]*Value{"x": {Name: "x"}}
	clone := cloneValueMap(src)
	clone["x"].Name = "mutated"
	assert.Equal(t, "mutated", src["x"].Name, "the clone copies the map, not the *Value entries it points to")

	clone["y"] = &Value{Name: "y"}
	_, ok := src["y"]
	assert.False(t, ok, "mutating the clone must not leak back into the source map")
}

func TestCloneIntMapIsIndependent(t *testing.T) {
	src := map[string]int{"a": 0}
	clone := cloneIntMap(src)
	clone["a"] = 1
	assert.Equal(t, 0, src["a"])
}

func TestParseTypeAttr(t *testing.T) {
	tt := []struct {
		name string
		in   string
		want types.Type
	}{
		{"i32", "i32", types.I32},
		{"i64", "i64", types.I64},
		{"double", "double", types.Double},
		{"void", "void", types.Void},
		{"ptr", "ptr", types.NewPointer(types.I8)},
		{"i32 pointer", "i32*", types.NewPointer(types.I32)},
		{"i32 double pointer", "i32**", types.NewPointer(types.NewPointer(types.I32))},
		{"unknown defaults to i32", "frobnicate", types.I32},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, types.Equal(tc.want, parseTypeAttr(tc.in)))
		})
	}
}
