package fixture

import (
	"fmt"
	"slices"

	"martianoff/galamatch/internal/compiler"
	"martianoff/galamatch/internal/eval"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/registry"
	"martianoff/galamatch/internal/types"
)

// CompilerOptions returns the compiler options of the scenario.
func (f *Fixture) CompilerOptions() compiler.Options {
	return compiler.Options{MethodName: f.Options.Method, MaxPoints: f.Options.MaxPoints}
}

// BuildEnvironment declares the fixture's environment in a fresh registry.
func (f *Fixture) BuildEnvironment() (*registry.Registry, error) {
	env := f.Environment
	r := registry.NewRegistry()
	prelude := env.Prelude == nil || *env.Prelude

	for _, tp := range env.TypeParams {
		if err := r.DeclareTypeParam(tp.Name, tp.Constraints...); err != nil {
			return nil, fmt.Errorf("%s: %w", f.path, err)
		}
	}

	switch {
	case env.Protocol != nil:
		kind, _ := registry.ParseKind(env.Protocol.Kind)
		if env.Protocol.Kind == "" {
			kind = registry.KindInterface
		}
		p := registry.Protocol{
			Name:       env.Protocol.Name,
			Kind:       kind,
			HasLength:  env.Protocol.Length,
			HasIndexer: env.Protocol.Indexer,
			Obsolete:   env.Protocol.Obsolete,
		}
		if err := r.DeclareProtocol(p); err != nil {
			return nil, fmt.Errorf("%s: %w", f.path, err)
		}
	case prelude:
		if err := r.DeclareProtocol(registry.PreludeProtocol()); err != nil {
			return nil, fmt.Errorf("%s: %w", f.path, err)
		}
	}

	for _, ts := range env.Types {
		kind, _ := registry.ParseKind(ts.Kind)
		info := registry.TypeInfo{
			Name:       ts.Name,
			Kind:       kind,
			Implements: ts.Implements,
			Members:    ts.Members,
			Fields:     make(map[string]types.Type, len(ts.Fields)),
		}
		for name, t := range ts.Fields {
			info.Fields[name] = r.ParseType(t)
		}
		for _, ms := range ts.Methods {
			info.Methods = append(info.Methods, ms.method(r, nil))
		}
		if err := r.DeclareType(info); err != nil {
			return nil, fmt.Errorf("%s: %w", f.path, err)
		}
	}
	for _, ms := range env.Extensions {
		if err := r.DeclareExtension(ms.method(r, r.ParseType(ms.Owner))); err != nil {
			return nil, fmt.Errorf("%s: %w", f.path, err)
		}
	}

	for _, cs := range env.Constants {
		v, err := decodeValue(&cs.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: constant %s: %w", f.path, cs.Name, err)
		}
		c := registry.Constant{Name: cs.Name, Value: v, Type: r.ParseType(cs.Type)}
		if err := r.DeclareConstant(c); err != nil {
			return nil, fmt.Errorf("%s: %w", f.path, err)
		}
	}

	switch {
	case env.Failure != nil:
		if env.Failure.Name != "" {
			r.DeclareFailureType(types.FailureShape{
				Name:         env.Failure.Name,
				HasNoArgCtor: env.Failure.NoArgCtor,
				HasValueCtor: env.Failure.ValueCtor,
			})
		}
	case prelude:
		r.DeclareFailureType(registry.PreludeFailureType())
	}
	return r, nil
}

func (ms *MethodSpec) method(r *registry.Registry, owner types.Type) *types.Method {
	m := &types.Method{
		Name:     ms.Name,
		Owner:    owner,
		OutNames: ms.OutNames,
		Return:   r.ParseType(ms.Return),
		Static:   ms.Static,
		Private:  ms.Private,
	}
	for _, o := range ms.Outs {
		m.Outs = append(m.Outs, r.ParseType(o))
	}
	switch {
	case ms.Items:
		m.Body = func(v any) []any {
			if obj, ok := v.(*eval.Object); ok {
				return slices.Clone(obj.Items)
			}
			return nil
		}
	case len(ms.Reads) > 0 || len(ms.Outs) == 0:
		reads := ms.Reads
		m.Body = func(v any) []any {
			obj, ok := v.(*eval.Object)
			if !ok {
				return nil
			}
			out := make([]any, len(reads))
			for i, name := range reads {
				out[i] = obj.Fields[name]
			}
			return out
		}
	}
	return m
}

// BuildConstruct decodes the construct against env. Every call returns
// fresh pattern trees.
func (f *Fixture) BuildConstruct(env *registry.Registry) (*pattern.Construct, error) {
	form, _ := pattern.ParseForm(f.Construct.Form)
	c := &pattern.Construct{
		Input:        env.ParseType(f.Construct.Input),
		Form:         form,
		TupleLiteral: f.Construct.TupleLiteral,
		Arms:         make([]pattern.Arm, len(f.Construct.Arms)),
	}
	d := &decoder{parseType: env.ParseType}
	for i, as := range f.Construct.Arms {
		p, err := d.decodePattern(&as.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: construct.arms[%d]: %w", f.path, i, err)
		}
		c.Arms[i] = pattern.Arm{Pattern: p, Result: as.Result}
		if as.Guard != nil {
			g, err := as.Guard.guard(env)
			if err != nil {
				return nil, fmt.Errorf("%s: construct.arms[%d].guard: %w", f.path, i, err)
			}
			c.Arms[i].Guard = g
		}
	}
	return c, nil
}

func (gs *GuardSpec) guard(rt eval.Runtime) (pattern.Guard, error) {
	want, err := decodeValue(&gs.Value)
	if err != nil {
		return nil, err
	}
	name, op := gs.Var, gs.Op
	return func(b pattern.Bindings) (bool, error) {
		v, ok := b[name]
		if !ok {
			return false, fmt.Errorf("guard refers to unbound variable '%s'", name)
		}
		switch op {
		case "==":
			return rt.Equal(v, want), nil
		case "!=":
			return !rt.Equal(v, want), nil
		}
		c, ok := rt.Compare(v, want)
		if !ok {
			return false, nil
		}
		switch op {
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	}, nil
}

// Compile builds the environment and compiles the construct with the
// scenario's options.
func (f *Fixture) Compile() (*compiler.Compiled, *registry.Registry, error) {
	env, err := f.BuildEnvironment()
	if err != nil {
		return nil, nil, err
	}
	c, err := f.BuildConstruct(env)
	if err != nil {
		return nil, env, err
	}
	compiled, err := compiler.NewCompiler(env, f.CompilerOptions()).Compile(c)
	return compiled, env, err
}

// InputValues decodes the values of the scenario's inputs.
func (f *Fixture) InputValues() ([]any, error) {
	out := make([]any, len(f.Inputs))
	for i := range f.Inputs {
		v, err := decodeValue(&f.Inputs[i].Value)
		if err != nil {
			return nil, fmt.Errorf("%s: inputs[%d]: %w", f.path, i, err)
		}
		out[i] = v
	}
	return out, nil
}
