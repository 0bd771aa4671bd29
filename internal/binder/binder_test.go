package binder_test

import (
	"errors"
	"testing"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/binder"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/registry"
	"martianoff/galamatch/internal/resolver"
	"martianoff/galamatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBinder(t *testing.T, declare func(r *registry.Registry)) (*binder.Binder, *registry.Registry) {
	t.Helper()
	r := registry.DefaultRegistry()
	if declare != nil {
		declare(r)
	}
	return binder.NewBinder(r, r, resolver.NewResolver(r, "")), r
}

func TestClassifyUnderscore(t *testing.T) {
	withConst := func(r *registry.Registry) {
		require.NoError(t, r.DeclareConstant(registry.Constant{Name: "_", Value: 0, Type: types.Int}))
	}
	withType := func(r *registry.Registry) {
		require.NoError(t, r.DeclareType(registry.TypeInfo{Name: "_"}))
	}

	tests := []struct {
		name     string
		declare  func(r *registry.Registry)
		p        pattern.Pattern
		ctx      binder.Context
		want     string
		wantCode string
	}{
		{"case label constant", withConst, &pattern.Ident{Name: "_"}, binder.CaseLabel, "0", galaerr.CodeConstantUnderscore},
		{"case label without constant", nil, &pattern.Ident{Name: "_"}, binder.CaseLabel, "_", ""},
		{"switch arm ignores constant", withConst, &pattern.Ident{Name: "_"}, binder.SwitchArm, "_", ""},
		{"escaped constant", withConst, &pattern.Ident{Name: "_", Escaped: true}, binder.SwitchArm, "0", ""},
		{"is type", withType, &pattern.Ident{Name: "_"}, binder.IsExpression, "_", galaerr.CodeTypeUnderscore},
		{"escaped type", withType, &pattern.Ident{Name: "_", Escaped: true}, binder.IsExpression, "_", ""},
		{"case label type stays discard", withType, &pattern.Ident{Name: "_"}, binder.CaseLabel, "_", ""},
		{"nested is always discard", withConst, pattern.Tuple(&pattern.Ident{Name: "_"}, &pattern.Ident{Name: "_"}), binder.CaseLabel, "(_, _)", ""},
		{"nested under type test", withConst, &pattern.TypeTest{Type: types.Int, Sub: &pattern.Ident{Name: "_"}}, binder.CaseLabel, "int _", ""},
		{"combinator keeps top level", withConst, &pattern.Or{L: &pattern.Ident{Name: "_"}, R: &pattern.Constant{Value: 1}}, binder.CaseLabel, "0 or 1", galaerr.CodeConstantUnderscore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBinder(t, tt.declare)
			out, diags, err := b.Classify(tt.p, tt.ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
			if tt.wantCode == "" {
				assert.Empty(t, diags)
			} else {
				require.Len(t, diags, 1)
				assert.Equal(t, tt.wantCode, diags[0].Code)
				assert.Equal(t, 0, diags[0].Arm)
			}
		})
	}
}

func TestClassifyKinds(t *testing.T) {
	b, _ := newBinder(t, func(r *registry.Registry) {
		require.NoError(t, r.DeclareConstant(registry.Constant{Name: "Max", Value: 9, Type: types.Int}))
		require.NoError(t, r.DeclareType(registry.TypeInfo{Name: "C"}))
	})

	out, _, err := b.Classify(&pattern.Ident{Name: "Max"}, binder.SwitchArm, 0)
	require.NoError(t, err)
	assert.Equal(t, &pattern.Constant{Value: 9}, out)

	out, _, err = b.Classify(&pattern.Ident{Name: "C"}, binder.SwitchArm, 0)
	require.NoError(t, err)
	assert.Equal(t, &pattern.TypeTest{Type: types.NamedType{Name: "C"}}, out)

	_, _, err = b.Classify(&pattern.Ident{Name: "_", Escaped: true}, binder.SwitchArm, 0)
	var semantic *galaerr.SemanticError
	require.ErrorAs(t, err, &semantic)

	_, _, err = b.Classify(pattern.Tuple(&pattern.Ident{Name: "a"}, &pattern.Ident{Name: "b"}), binder.SwitchArm, 0)
	var multi *galaerr.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)
}

func TestContextFor(t *testing.T) {
	assert.Equal(t, binder.CaseLabel, binder.ContextFor(pattern.FormStatement))
	assert.Equal(t, binder.IsExpression, binder.ContextFor(pattern.FormIs))
	assert.Equal(t, binder.SwitchArm, binder.ContextFor(pattern.FormExpression))
}

func TestBindResolvesNestedPositionals(t *testing.T) {
	b, r := newBinder(t, nil)
	inner := pattern.Tuple(&pattern.Binding{Name: "a"}, &pattern.Discard{})
	outer := pattern.Tuple(inner, &pattern.Constant{Value: true})

	diags, err := b.Bind(outer, r.ParseType("((int, int)?, bool)"), 0)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.NotNil(t, outer.Decomposition())
	require.NotNil(t, inner.Decomposition())
	assert.Equal(t, pattern.TupleShape, inner.Decomposition().Kind)
	assert.Equal(t, "(int, int)", inner.Decomposition().Input.String())
}

func TestBindNamingViolation(t *testing.T) {
	b, _ := newBinder(t, nil)
	p := pattern.NewPositional("",
		pattern.Element{Name: "X", Pattern: &pattern.Discard{}},
		pattern.Element{Pattern: &pattern.Discard{}},
		pattern.Element{Name: "Z", Pattern: &pattern.Discard{}})

	_, err := b.Bind(p, types.Object, 0)
	var multi *galaerr.MultiError
	require.ErrorAs(t, err, &multi)
	require.Len(t, multi.Errors, 2)
	var names []string
	for _, e := range multi.Errors {
		var naming *galaerr.NamingViolationError
		require.True(t, errors.As(e, &naming))
		assert.Equal(t, "ITuple", naming.Protocol)
		names = append(names, naming.Name)
	}
	assert.Equal(t, []string{"X", "Z"}, names)
}

func TestBindElementNames(t *testing.T) {
	b, r := newBinder(t, func(r *registry.Registry) {
		require.NoError(t, r.DeclareType(registry.TypeInfo{Name: "P", Methods: []*types.Method{{
			Name: "Deconstruct", OutNames: []string{"x", "y"}, Outs: []types.Type{types.Int, types.Int},
		}}}))
	})

	named := func(a, c string) *pattern.Positional {
		return pattern.NewPositional("",
			pattern.Element{Name: a, Pattern: &pattern.Discard{}},
			pattern.Element{Name: c, Pattern: &pattern.Discard{}})
	}

	_, err := b.Bind(named("x", "y"), types.NamedType{Name: "P"}, 0)
	assert.NoError(t, err)
	_, err = b.Bind(named("x", "z"), types.NamedType{Name: "P"}, 0)
	assert.Error(t, err)
	_, err = b.Bind(named("A", "B"), r.ParseType("(int A, int B)"), 0)
	assert.NoError(t, err)
	_, err = b.Bind(named("B", "A"), r.ParseType("(int A, int B)"), 0)
	assert.Error(t, err)
	_, err = b.Bind(named("Any", "Name"), r.ParseType("(int, int)"), 0)
	assert.NoError(t, err)
}

func TestBindPointerRestriction(t *testing.T) {
	ptr := types.PointerType{Elem: types.Int}
	tests := []struct {
		name string
		p    pattern.Pattern
		ok   bool
	}{
		{"binding", &pattern.Binding{Name: "x"}, true},
		{"discard", &pattern.Discard{}, true},
		{"null", &pattern.Constant{}, true},
		{"not null", &pattern.Not{P: &pattern.Constant{}}, true},
		{"empty property pattern", &pattern.FieldAccess{}, false},
		{"constant", &pattern.Constant{Value: 1}, false},
		{"var designation", pattern.NewVar(pattern.Names("x", "y")...), false},
		{"positional", pattern.Tuple(), false},
		{"mixed or", &pattern.Or{L: &pattern.Constant{}, R: &pattern.Constant{Value: 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBinder(t, nil)
			_, err := b.Bind(tt.p, ptr, 0)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var unsafe *galaerr.UnsafeStructuralPatternError
			require.ErrorAs(t, err, &unsafe)
			assert.Equal(t, "*int", unsafe.Input)
		})
	}
}

func TestBindFieldAccess(t *testing.T) {
	b, _ := newBinder(t, func(r *registry.Registry) {
		require.NoError(t, r.DeclareType(registry.TypeInfo{Name: "Box", Fields: map[string]types.Type{"Inner": r.ParseType("(int, int)")}}))
	})
	inner := pattern.Tuple(&pattern.Discard{}, &pattern.Discard{})
	p := &pattern.FieldAccess{Fields: map[string]pattern.Pattern{"Inner": inner}}

	_, err := b.Bind(p, types.NamedType{Name: "Box"}, 0)
	require.NoError(t, err)
	assert.Equal(t, pattern.TupleShape, inner.Decomposition().Kind)

	_, err = b.Bind(&pattern.FieldAccess{Fields: map[string]pattern.Pattern{"Missing": &pattern.Discard{}}}, types.NamedType{Name: "Box"}, 0)
	var semantic *galaerr.SemanticError
	assert.ErrorAs(t, err, &semantic)
}

func TestBindAdvisories(t *testing.T) {
	b, r := newBinder(t, nil)

	diags, err := b.Bind(pattern.Tuple(&pattern.Constant{}, &pattern.Discard{}), r.ParseType("(bool, bool?)"), 2)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, galaerr.CodeUnreachableNullTest, diags[0].Code)
	assert.Equal(t, 2, diags[0].Arm)

	obsolete := registry.NewRegistry()
	p := registry.PreludeProtocol()
	p.Obsolete = "'ITuple' is obsolete"
	require.NoError(t, obsolete.DeclareProtocol(p))
	ob := binder.NewBinder(obsolete, obsolete, resolver.NewResolver(obsolete, ""))

	twice := pattern.Tuple(pattern.Tuple(&pattern.Discard{}), pattern.Tuple(&pattern.Discard{}))
	diags, err = ob.Bind(twice, types.Object, 0)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, galaerr.CodeObsoleteProtocol, diags[0].Code)
}

func TestBindUnavailable(t *testing.T) {
	b, _ := newBinder(t, nil)
	_, err := b.Bind(pattern.Tuple(&pattern.Discard{}, &pattern.Discard{}), types.Int, 0)
	var unavailable *galaerr.UnavailableError
	assert.ErrorAs(t, err, &unavailable)

	_, err = b.Bind(&pattern.Ident{Name: "x"}, types.Int, 0)
	var semantic *galaerr.SemanticError
	assert.ErrorAs(t, err, &semantic)
}
