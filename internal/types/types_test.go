package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		input string
		want  Type
	}{
		{"bool", Bool},
		{"object", Object},
		{"dynamic", Dynamic},
		{"C", NamedType{Name: "C"}},
		{"System.ITuple", NamedType{Package: "System", Name: "ITuple"}},
		{"*int", PointerType{Elem: Int}},
		{"bool?", NullableType{Elem: Bool}},
		{"()", TupleType{}},
		{"(int, int)", TupleType{Elems: []Type{Int, Int}}},
		{"(bool?, bool?)?", NullableType{Elem: TupleType{Elems: []Type{NullableType{Elem: Bool}, NullableType{Elem: Bool}}}}},
		{"((int, int)?, int)", TupleType{Elems: []Type{NullableType{Elem: TupleType{Elems: []Type{Int, Int}}}, Int}}},
		{"(int X, int Y)", TupleType{Elems: []Type{Int, Int}, Names: []string{"X", "Y"}}},
		{"Box[int]", GenericType{Base: NamedType{Name: "Box"}, Params: []Type{Int}}},
		{"void", VoidType{}},
		{"", NilType{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseType(tt.input))
		})
	}
}

func TestTypeStrings(t *testing.T) {
	assert.Equal(t, "(bool?, bool?)?", ParseType("(bool?, bool?)?").String())
	assert.Equal(t, "(int X, int Y)", ParseType("(int X, int Y)").String())
	assert.Equal(t, "*int", ParseType("*int").String())
	assert.Equal(t, "Box[int, string]", ParseType("Box[int, string]").String())
	assert.Equal(t, "()", TupleType{}.String())
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsDynamic(Dynamic))
	assert.False(t, IsDynamic(Object))
	assert.True(t, Object.IsAny())
	assert.True(t, IsVoid(nil))
	assert.True(t, IsVoid(VoidType{}))
	assert.False(t, IsVoid(Int))
	assert.Equal(t, Bool, Unwrap(NullableType{Elem: Bool}))
	assert.Equal(t, Int, Unwrap(Int))
	assert.True(t, Identical(ParseType("(int, int)"), TupleType{Elems: []Type{Int, Int}}))
	assert.False(t, Identical(Int, nil))
}

func TestMethodSignature(t *testing.T) {
	m := &Method{
		Name:   "Deconstruct",
		Owner:  NamedType{Name: "I1"},
		Outs:   []Type{Int, Int},
		Return: VoidType{},
	}
	require.Equal(t, 2, m.Arity())
	assert.Equal(t, "I1.Deconstruct(out int, out int)", m.Signature())

	ext := &Method{
		Name:      "Deconstruct",
		Owner:     NamedType{Name: "C"},
		Outs:      []Type{Char},
		Extension: true,
	}
	assert.Equal(t, "C.Deconstruct(this C, out char)", ext.Signature())
}
