package coverage_test

import (
	"testing"

	"martianoff/galamatch/internal/binder"
	"martianoff/galamatch/internal/coverage"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/registry"
	"martianoff/galamatch/internal/resolver"
	"martianoff/galamatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.DefaultRegistry()
	require.NoError(t, r.DeclareType(registry.TypeInfo{
		Name:    "Point",
		Kind:    registry.KindClass,
		Methods: []*types.Method{{Name: "Deconstruct", Outs: []types.Type{types.Int, types.Int}}},
	}))
	require.NoError(t, r.DeclareType(registry.TypeInfo{
		Name:    "Flags",
		Kind:    registry.KindStruct,
		Methods: []*types.Method{{Name: "Deconstruct", Outs: []types.Type{types.Bool, types.Bool}}},
	}))
	require.NoError(t, r.DeclareType(registry.TypeInfo{
		Name:    "Switch",
		Kind:    registry.KindClass,
		Methods: []*types.Method{{Name: "Deconstruct", Outs: []types.Type{types.Bool, types.Int}}},
	}))
	require.NoError(t, r.DeclareType(registry.TypeInfo{
		Name:    "Color",
		Kind:    registry.KindEnum,
		Members: []string{"Red", "Green", "Blue"},
	}))
	return r
}

func analyse(t *testing.T, env *registry.Registry, input string, opts coverage.Options, arms ...pattern.Arm) *coverage.Verdict {
	t.Helper()
	typ := env.ParseType(input)
	b := binder.NewBinder(env, env, resolver.NewResolver(env, ""))
	for i, a := range arms {
		_, err := b.Bind(a.Pattern, typ, i)
		require.NoError(t, err)
	}
	return coverage.NewEngine(env, opts).CheckExhaustiveness(typ, arms)
}

func lit(v any) pattern.Pattern {
	if v == "_" {
		return &pattern.Discard{}
	}
	return &pattern.Constant{Value: v}
}

func pair(a, b any) pattern.Pattern {
	return pattern.Tuple(lit(a), lit(b))
}

func arm(p pattern.Pattern) pattern.Arm {
	return pattern.Arm{Pattern: p}
}

func guarded(p pattern.Pattern) pattern.Arm {
	return pattern.Arm{Pattern: p, Guard: func(pattern.Bindings) (bool, error) { return true, nil }}
}

func color(member string) pattern.EnumValue {
	return pattern.EnumValue{Type: "Color", Member: member}
}

func TestBooleanPairs(t *testing.T) {
	env := newEnv(t)
	four := []pattern.Arm{
		arm(pair(false, false)), arm(pair(false, true)),
		arm(pair(true, false)), arm(pair(true, true)),
	}

	v := analyse(t, env, "(bool, bool)", coverage.Options{}, four...)
	assert.True(t, v.Exhaustive)
	assert.Empty(t, v.Subsumed)
	assert.Empty(t, v.Missing)
	assert.False(t, v.Approximate)

	v = analyse(t, env, "(bool, bool)", coverage.Options{}, four[:3]...)
	assert.False(t, v.Exhaustive)
	assert.Equal(t, []string{"(true, true)"}, v.Missing)

	v = analyse(t, env, "(bool, bool)", coverage.Options{}, append(four, arm(&pattern.Discard{}))...)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{4}, v.Subsumed)
	assert.True(t, v.IsSubsumed(4))
	assert.False(t, v.IsSubsumed(3))
}

func TestWildcardPositions(t *testing.T) {
	env := newEnv(t)
	v := analyse(t, env, "(bool, bool)", coverage.Options{},
		arm(pair(true, "_")),
		arm(pair("_", true)),
		arm(pair(true, true)),
		arm(pair(false, false)),
	)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{2}, v.Subsumed)
}

func TestAbsentValuesIgnoredForExhaustiveness(t *testing.T) {
	env := newEnv(t)
	four := []pattern.Arm{
		arm(pair(false, false)), arm(pair(false, true)),
		arm(pair(true, false)), arm(pair(true, true)),
	}

	v := analyse(t, env, "(bool?, bool?)", coverage.Options{}, four...)
	assert.True(t, v.Exhaustive)
	assert.Empty(t, v.Missing)

	// Arms naming the absent value still reach the remaining absent points.
	v = analyse(t, env, "(bool?, bool?)", coverage.Options{},
		append(four, arm(pair(nil, "_")), arm(pair("_", nil)))...)
	assert.True(t, v.Exhaustive)
	assert.Empty(t, v.Subsumed)

	// A catch-all consumes the absent value, so a later null arm is subsumed.
	v = analyse(t, env, "(bool?, bool?)?", coverage.Options{},
		append(four, arm(&pattern.Binding{Name: "x"}), arm(&pattern.Constant{}))...)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{5}, v.Subsumed)

	// Without the catch-all, the null arm is reachable.
	v = analyse(t, env, "(bool?, bool?)?", coverage.Options{}, append(four, arm(&pattern.Constant{}))...)
	assert.True(t, v.Exhaustive)
	assert.Empty(t, v.Subsumed)
}

func TestGuardedArms(t *testing.T) {
	env := newEnv(t)
	v := analyse(t, env, "(bool, bool)", coverage.Options{},
		guarded(pair(true, "_")),
		arm(pair(true, "_")),
		guarded(pair(true, true)),
		arm(pair(false, "_")),
	)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{2}, v.Subsumed)

	v = analyse(t, env, "bool", coverage.Options{},
		guarded(&pattern.Discard{}),
	)
	assert.False(t, v.Exhaustive)
	assert.Equal(t, []string{"false", "true"}, v.Missing)
}

func TestOpenDomains(t *testing.T) {
	env := newEnv(t)

	v := analyse(t, env, "int", coverage.Options{}, arm(lit(1)), arm(lit(2)))
	assert.False(t, v.Exhaustive)
	assert.Equal(t, []string{"_"}, v.Missing)

	v = analyse(t, env, "int", coverage.Options{},
		arm(lit(1)), arm(&pattern.Binding{Name: "x"}), arm(lit(3)))
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{2}, v.Subsumed)

	v = analyse(t, env, "string", coverage.Options{}, arm(lit("a")), arm(&pattern.Constant{}))
	assert.False(t, v.Exhaustive)
	assert.Empty(t, v.Subsumed)

	v = analyse(t, env, "int", coverage.Options{},
		arm(&pattern.Relational{Op: pattern.OpLess, Value: 0}),
		arm(&pattern.Relational{Op: pattern.OpGreaterEq, Value: 0}))
	assert.False(t, v.Exhaustive)
}

func TestTypeTests(t *testing.T) {
	env := newEnv(t)

	v := analyse(t, env, "object", coverage.Options{},
		arm(&pattern.TypeTest{Type: types.String, Sub: &pattern.Binding{Name: "s"}}),
		arm(&pattern.TypeTest{Type: types.Int}))
	assert.False(t, v.Exhaustive)

	v = analyse(t, env, "object", coverage.Options{},
		arm(&pattern.Constant{}),
		arm(&pattern.TypeTest{Type: types.Object, Sub: &pattern.Binding{Name: "o"}}))
	assert.True(t, v.Exhaustive)

	v = analyse(t, env, "bool?", coverage.Options{}, arm(&pattern.TypeTest{Type: types.Bool}))
	assert.True(t, v.Exhaustive)

	v = analyse(t, env, "bool", coverage.Options{},
		arm(&pattern.FieldAccess{}), arm(lit(true)))
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{1}, v.Subsumed)
}

func TestCombinators(t *testing.T) {
	env := newEnv(t)

	v := analyse(t, env, "bool", coverage.Options{}, arm(&pattern.Or{L: lit(true), R: lit(false)}))
	assert.True(t, v.Exhaustive)

	v = analyse(t, env, "bool", coverage.Options{}, arm(&pattern.Not{P: lit(true)}), arm(lit(true)))
	assert.True(t, v.Exhaustive)
	assert.Empty(t, v.Subsumed)

	v = analyse(t, env, "bool?", coverage.Options{},
		arm(&pattern.Not{P: &pattern.Constant{}}), arm(lit(false)))
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{1}, v.Subsumed)

	v = analyse(t, env, "bool", coverage.Options{},
		arm(&pattern.And{L: lit(true), R: lit(false)}))
	assert.False(t, v.Exhaustive)
	assert.Equal(t, []int{0}, v.Subsumed)
}

func TestEnumDomains(t *testing.T) {
	env := newEnv(t)

	v := analyse(t, env, "Color", coverage.Options{}, arm(lit(color("Red"))), arm(lit(color("Green"))))
	assert.False(t, v.Exhaustive)
	assert.Equal(t, []string{"Color.Blue"}, v.Missing)

	v = analyse(t, env, "(Color, bool)", coverage.Options{},
		arm(pattern.Tuple(lit(color("Red")), &pattern.Discard{})),
		arm(pattern.Tuple(&pattern.Or{L: lit(color("Green")), R: lit(color("Blue"))}, lit(true))),
		arm(pattern.Tuple(&pattern.Not{P: lit(color("Red"))}, lit(false))),
		arm(&pattern.Discard{}),
	)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{3}, v.Subsumed)
}

func TestDecompositionStrategies(t *testing.T) {
	env := newEnv(t)

	v := analyse(t, env, "Point", coverage.Options{}, arm(pattern.NewVar(pattern.Names("x", "y")...)))
	assert.True(t, v.Exhaustive)

	v = analyse(t, env, "Point", coverage.Options{}, arm(pattern.Tuple(lit(0), &pattern.Discard{})))
	assert.False(t, v.Exhaustive)

	v = analyse(t, env, "object", coverage.Options{}, arm(pattern.Tuple(&pattern.Discard{}, &pattern.Discard{})))
	assert.False(t, v.Exhaustive)

	v = analyse(t, env, "(int, int)?", coverage.Options{}, arm(pattern.NewVar(pattern.Names("x", "y")...)))
	assert.True(t, v.Exhaustive)
}

func TestMethodDecompositionDomains(t *testing.T) {
	env := newEnv(t)
	four := []pattern.Arm{
		arm(pair(false, false)), arm(pair(false, true)),
		arm(pair(true, false)), arm(pair(true, true)),
	}

	v := analyse(t, env, "Flags", coverage.Options{}, four...)
	assert.True(t, v.Exhaustive)
	assert.Empty(t, v.Subsumed)
	assert.Empty(t, v.Missing)

	v = analyse(t, env, "Flags", coverage.Options{}, append(four, arm(&pattern.Discard{}))...)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{4}, v.Subsumed)

	v = analyse(t, env, "Flags", coverage.Options{}, four[:3]...)
	assert.False(t, v.Exhaustive)
	assert.Equal(t, []string{"(true, true)"}, v.Missing)

	v = analyse(t, env, "Flags", coverage.Options{},
		arm(pattern.Tuple(lit(true), &pattern.Discard{})),
		arm(&pattern.TypeTest{Type: env.ParseType("Flags")}),
		arm(pattern.Tuple(lit(false), lit(true))),
	)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{2}, v.Subsumed)

	// An open output still splits on the finite one; the null point stays.
	v = analyse(t, env, "Switch", coverage.Options{},
		arm(pattern.Tuple(lit(true), &pattern.Discard{})),
		arm(pattern.Tuple(lit(false), &pattern.Binding{Name: "n"})),
		arm(&pattern.Constant{}),
	)
	assert.True(t, v.Exhaustive)
	assert.Empty(t, v.Subsumed)

	v = analyse(t, env, "Flags", coverage.Options{MaxPoints: 3}, four...)
	assert.False(t, v.Approximate)
	assert.False(t, v.Exhaustive)
	assert.Equal(t, []string{"_"}, v.Missing)
}

func TestFieldAccessOnTuples(t *testing.T) {
	env := newEnv(t)

	v := analyse(t, env, "(bool, bool)", coverage.Options{},
		arm(&pattern.FieldAccess{Fields: map[string]pattern.Pattern{"Item1": lit(true)}}),
		arm(&pattern.FieldAccess{Fields: map[string]pattern.Pattern{"Item1": lit(false)}}),
		arm(&pattern.Discard{}),
	)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{2}, v.Subsumed)

	v = analyse(t, env, "(bool, bool)", coverage.Options{},
		arm(&pattern.FieldAccess{Fields: map[string]pattern.Pattern{"Item1": lit(true), "Item2": lit(true)}}),
		arm(pattern.Tuple(lit(true), &pattern.Discard{})),
	)
	assert.False(t, v.Exhaustive)
	assert.Equal(t, []string{"(false, false)", "(false, true)"}, v.Missing)
	assert.Empty(t, v.Subsumed)
}

func TestComplementaryOperands(t *testing.T) {
	env := newEnv(t)

	v := analyse(t, env, "int", coverage.Options{},
		arm(&pattern.Or{L: lit(1), R: &pattern.Not{P: lit(1)}}),
		arm(&pattern.Discard{}),
	)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{1}, v.Subsumed)

	v = analyse(t, env, "int", coverage.Options{},
		arm(&pattern.And{L: &pattern.Not{P: lit(1)}, R: lit(1)}),
		arm(&pattern.Discard{}),
	)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{0}, v.Subsumed)
}

func TestEnumerationCapFallsBack(t *testing.T) {
	env := newEnv(t)
	four := []pattern.Arm{
		arm(pair(false, false)), arm(pair(false, true)),
		arm(pair(true, false)), arm(pair(true, true)),
	}

	v := analyse(t, env, "(bool, bool)", coverage.Options{MaxPoints: 3}, four...)
	assert.True(t, v.Approximate)
	assert.False(t, v.Exhaustive)
	assert.Empty(t, v.Subsumed)
	assert.Equal(t, []string{"_"}, v.Missing)

	v = analyse(t, env, "(bool, bool)", coverage.Options{MaxPoints: 3}, append(four, arm(pair("_", "_")), arm(&pattern.Discard{}))...)
	assert.True(t, v.Exhaustive)
	assert.Equal(t, []int{5}, v.Subsumed)

	wide := "(bool, bool, bool, bool, bool, bool, bool, bool, bool, bool, bool, bool, bool)"
	v = analyse(t, env, wide, coverage.Options{}, arm(&pattern.Discard{}))
	assert.True(t, v.Approximate)
	assert.True(t, v.Exhaustive)
}

func TestCheckExhaustivenessDefaults(t *testing.T) {
	env := newEnv(t)
	v := coverage.CheckExhaustiveness(env, types.Bool, []pattern.Arm{arm(lit(true)), arm(lit(false))})
	assert.True(t, v.Exhaustive)
}
