package registry

import (
	"testing"

	"martianoff/galamatch/internal/eval"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deconstruct(outs ...types.Type) *types.Method {
	return &types.Method{Name: "Deconstruct", Outs: outs, Return: types.VoidType{}}
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	assert.NotNil(t, r)
	assert.False(t, r.FailureType().Present)
	assert.Equal(t, DefaultProtocolName, r.ProtocolName())
	assert.False(t, r.SatisfiesIndexableProtocol(types.Object))
}

func TestDeclareConflicts(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareType(TypeInfo{Name: "C"}))

	err := r.DeclareType(TypeInfo{Name: "C"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "type 'C' is already declared; choose a different name", err.Error())

	assert.Error(t, r.DeclareTypeParam("C"))
	require.NoError(t, r.DeclareTypeParam("T"))
	assert.Error(t, r.DeclareType(TypeInfo{Name: "T"}))

	require.NoError(t, r.DeclareConstant(Constant{Name: "_", Value: 0, Type: types.Int}))
	assert.Error(t, r.DeclareConstant(Constant{Name: "_", Value: 1, Type: types.Int}))

	assert.Error(t, r.DeclareExtension(&types.Method{Name: "Deconstruct"}))
}

func TestDeclareTypeAttachesOwner(t *testing.T) {
	r := NewRegistry()
	m := deconstruct(types.Int)
	require.NoError(t, r.DeclareType(TypeInfo{Name: "P", Methods: []*types.Method{m}}))
	assert.Equal(t, types.NamedType{Name: "P"}, m.Owner)
}

func TestLookups(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareType(TypeInfo{Name: "I", Kind: KindInterface}))
	require.NoError(t, r.DeclareTypeParam("T", "I"))
	require.NoError(t, r.DeclareConstant(Constant{Name: "Zero", Value: 0, Type: types.Int}))

	typ, ok := r.LookupType("T")
	require.True(t, ok)
	assert.Equal(t, types.TypeParam{Name: "T", Constraints: []types.Type{types.NamedType{Name: "I"}}}, typ)

	_, ok = r.LookupType("Missing")
	assert.False(t, ok)

	v, ok := r.LookupConstant("Zero")
	require.True(t, ok)
	assert.Equal(t, 0, v)

	assert.Equal(t, types.NullableType{Elem: types.TupleType{Elems: []types.Type{
		types.TypeParam{Name: "T", Constraints: []types.Type{types.NamedType{Name: "I"}}}, types.Int,
	}}}, r.ParseType("(T, int)?"))
}

func TestFindApplicableMethods(t *testing.T) {
	r := NewRegistry()
	two := deconstruct(types.Int, types.Int)
	require.NoError(t, r.DeclareType(TypeInfo{Name: "C", Methods: []*types.Method{
		two,
		{Name: "Deconstruct", Outs: []types.Type{types.Int}, Return: types.Int},
		{Name: "Deconstruct", Outs: []types.Type{types.Int, types.Int, types.Int}, Static: true},
	}}))
	ext := &types.Method{Name: "Deconstruct", Owner: types.NamedType{Name: "C"}, Outs: []types.Type{types.Char}}
	require.NoError(t, r.DeclareExtension(ext))

	c := types.NamedType{Name: "C"}
	assert.Equal(t, []*types.Method{two}, r.FindApplicableMethods(c, "Deconstruct", 2))
	assert.Equal(t, []*types.Method{two}, r.FindApplicableMethods(types.NullableType{Elem: c}, "Deconstruct", 2))
	// Non-void instance method is not applicable; the extension is.
	assert.Equal(t, []*types.Method{ext}, r.FindApplicableMethods(c, "Deconstruct", 1))
	// Static methods never apply.
	assert.Empty(t, r.FindApplicableMethods(c, "Deconstruct", 3))
	assert.Empty(t, r.FindApplicableMethods(types.Int, "Deconstruct", 2))
}

func TestFindApplicableMethodsAmbiguity(t *testing.T) {
	r := NewRegistry()
	m1 := deconstruct(types.Int, types.Int)
	m2 := deconstruct(types.Int, types.Int)
	require.NoError(t, r.DeclareType(TypeInfo{Name: "I1", Kind: KindInterface, Methods: []*types.Method{m1}}))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "I2", Kind: KindInterface, Methods: []*types.Method{m2}}))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "IA", Kind: KindInterface, Implements: []string{"I1", "I2"}}))

	found := r.FindApplicableMethods(types.NamedType{Name: "IA"}, "Deconstruct", 2)
	assert.ElementsMatch(t, []*types.Method{m1, m2}, found)
}

func TestFindApplicableMethodsSpecificity(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareProtocol(PreludeProtocol()))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "Pair", Implements: []string{"ITuple"}}))
	onProtocol := &types.Method{Name: "Deconstruct", Owner: types.NamedType{Name: "ITuple"}, Outs: []types.Type{types.Int, types.Int}}
	onPair := &types.Method{Name: "Deconstruct", Owner: types.NamedType{Name: "Pair"}, Outs: []types.Type{types.Int, types.Int}}
	require.NoError(t, r.DeclareExtension(onProtocol))
	require.NoError(t, r.DeclareExtension(onPair))

	assert.Equal(t, []*types.Method{onPair}, r.FindApplicableMethods(types.NamedType{Name: "Pair"}, "Deconstruct", 2))
	assert.Equal(t, []*types.Method{onProtocol}, r.FindApplicableMethods(types.NamedType{Name: "ITuple"}, "Deconstruct", 2))
	assert.Empty(t, r.FindApplicableMethods(types.Object, "Deconstruct", 2))
}

func TestFindApplicableMethodsTypeParam(t *testing.T) {
	r := NewRegistry()
	m := deconstruct(types.Int)
	require.NoError(t, r.DeclareType(TypeInfo{Name: "Base", Methods: []*types.Method{m}}))
	require.NoError(t, r.DeclareTypeParam("T", "Base"))

	assert.Equal(t, []*types.Method{m}, r.FindApplicableMethods(r.ParseType("T"), "Deconstruct", 1))
}

func TestSatisfiesIndexableProtocol(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareProtocol(PreludeProtocol()))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "Impl", Implements: []string{"ITuple"}}))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "Plain"}))
	require.NoError(t, r.DeclareTypeParam("T"))
	require.NoError(t, r.DeclareTypeParam("U", "ITuple"))

	tests := []struct {
		typ  string
		want bool
	}{
		{"object", true},
		{"dynamic", true},
		{"ITuple", true},
		{"ITuple?", true},
		{"Impl", true},
		{"Plain", false},
		{"int", false},
		{"(int, int)", false},
		{"T", false},
		{"U", true},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.want, r.SatisfiesIndexableProtocol(r.ParseType(tt.typ)))
		})
	}
}

func TestMalformedProtocol(t *testing.T) {
	tests := []struct {
		name string
		p    Protocol
	}{
		{"declared as class", Protocol{Kind: KindClass, HasLength: true, HasIndexer: true}},
		{"missing length", Protocol{Kind: KindInterface, HasIndexer: true}},
		{"missing indexer", Protocol{Kind: KindInterface, HasLength: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			require.NoError(t, r.DeclareProtocol(tt.p))
			assert.False(t, r.SatisfiesIndexableProtocol(types.Object))
			_, ok := r.AsIndexable(eval.Tuple{1, 2})
			assert.False(t, ok)
		})
	}
}

func TestProtocolAdvisory(t *testing.T) {
	r := NewRegistry()
	_, ok := r.ProtocolAdvisory()
	assert.False(t, ok)

	p := PreludeProtocol()
	p.Obsolete = "ITuple is obsolete"
	require.NoError(t, r.DeclareProtocol(p))
	msg, ok := r.ProtocolAdvisory()
	require.True(t, ok)
	assert.Equal(t, "ITuple is obsolete", msg)
	assert.True(t, r.SatisfiesIndexableProtocol(types.Object))
}

func TestTypeProperties(t *testing.T) {
	r := DefaultRegistry()
	require.NoError(t, r.DeclareType(TypeInfo{Name: "C", Kind: KindClass, Fields: map[string]types.Type{"X": types.Int}}))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "D", Implements: []string{"C"}}))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "S", Kind: KindStruct}))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "R", Kind: KindRefStruct}))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "Color", Kind: KindEnum, Members: []string{"Red", "Green"}}))

	absentable := map[string]bool{
		"C": true, "S": false, "S?": true, "int": false, "bool?": true,
		"string": true, "object": true, "*int": true, "(int, int)": false, "Color": false,
	}
	for typ, want := range absentable {
		assert.Equal(t, want, r.IsAbsentable(r.ParseType(typ)), typ)
	}

	boxable := map[string]bool{
		"C": true, "R": false, "*int": false, "(int, R)": false, "(int, int)": true, "S?": true,
	}
	for typ, want := range boxable {
		assert.Equal(t, want, r.IsBoxable(r.ParseType(typ)), typ)
	}

	members, ok := r.EnumMembers(types.NamedType{Name: "Color"})
	require.True(t, ok)
	assert.Equal(t, []string{"Red", "Green"}, members)
	_, ok = r.EnumMembers(types.NamedType{Name: "C"})
	assert.False(t, ok)

	mt, ok := r.MemberType(types.NamedType{Name: "D"}, "X")
	require.True(t, ok)
	assert.Equal(t, types.Int, mt)
	mt, ok = r.MemberType(r.ParseType("(int A, bool B)"), "B")
	require.True(t, ok)
	assert.Equal(t, types.Bool, mt)
	mt, ok = r.MemberType(r.ParseType("(int, bool)?"), "Item1")
	require.True(t, ok)
	assert.Equal(t, types.Int, mt)
	_, ok = r.MemberType(types.NamedType{Name: "C"}, "Y")
	assert.False(t, ok)

	assert.True(t, r.IsAssignable(types.NamedType{Name: "D"}, types.NamedType{Name: "C"}))
	assert.False(t, r.IsAssignable(types.NamedType{Name: "C"}, types.NamedType{Name: "D"}))
	assert.True(t, r.IsAssignable(r.ParseType("(D, int)"), r.ParseType("(C, int)")))
	assert.True(t, r.IsAssignable(types.Int, types.Object))
	assert.False(t, r.IsAssignable(r.ParseType("*int"), types.Object))

	shape := r.FailureType()
	assert.True(t, shape.Present)
	assert.Equal(t, DefaultFailureTypeName, shape.Name)
}

func TestRuntime(t *testing.T) {
	r := DefaultRegistry()
	require.NoError(t, r.DeclareType(TypeInfo{Name: "Triple", Implements: []string{"ITuple"}}))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "Point", Fields: map[string]types.Type{"X": types.Int}}))
	require.NoError(t, r.DeclareType(TypeInfo{Name: "Color", Kind: KindEnum, Members: []string{"Red"}}))

	triple := &eval.Object{Type: "Triple", Items: []any{3, 4, 5}}
	point := &eval.Object{Type: "Point", Fields: map[string]any{"X": 1}}

	assert.True(t, r.IsInstance(1, types.Int))
	assert.True(t, r.IsInstance(int64(1), types.Int))
	assert.False(t, r.IsInstance(nil, types.Object))
	assert.True(t, r.IsInstance("s", types.Object))
	assert.True(t, r.IsInstance(triple, types.NamedType{Name: "ITuple"}))
	assert.False(t, r.IsInstance(point, types.NamedType{Name: "ITuple"}))
	assert.True(t, r.IsInstance(eval.Tuple{1, nil}, r.ParseType("(int, bool?)")))
	assert.False(t, r.IsInstance(eval.Tuple{1, nil}, r.ParseType("(int, bool)")))
	assert.True(t, r.IsInstance(pattern.EnumValue{Type: "Color", Member: "Red"}, types.NamedType{Name: "Color"}))

	assert.True(t, r.Equal(3, int64(3)))
	assert.True(t, r.Equal(nil, nil))
	assert.False(t, r.Equal(nil, 0))
	assert.True(t, r.Equal(eval.Tuple{1, true}, []any{1, true}))
	assert.False(t, r.Equal(eval.Tuple{1, true}, []any{1}))
	assert.True(t, r.Equal(pattern.EnumValue{Type: "Color", Member: "Red"}, pattern.EnumValue{Type: "Color", Member: "Red"}))
	assert.False(t, r.Equal(true, 1))

	c, ok := r.Compare(3, 4)
	require.True(t, ok)
	assert.Equal(t, -1, c)
	c, ok = r.Compare("b", "a")
	require.True(t, ok)
	assert.Equal(t, 1, c)
	_, ok = r.Compare(true, 1)
	assert.False(t, ok)

	v, ok := r.Member(point, "X")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = r.Member(triple, "Length")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	v, ok = r.Member(eval.Tuple{7, 8}, "Item2")
	require.True(t, ok)
	assert.Equal(t, 8, v)

	ix, ok := r.AsIndexable(triple)
	require.True(t, ok)
	assert.Equal(t, 3, ix.Length())
	assert.Equal(t, 5, ix.Item(2))
	_, ok = r.AsIndexable(point)
	assert.False(t, ok)
	_, ok = r.AsIndexable(42)
	assert.False(t, ok)
}
