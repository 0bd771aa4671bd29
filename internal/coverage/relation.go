package coverage

import (
	"fmt"

	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"
)

// relation is how much of one atom a pattern matches.
type relation int

const (
	relNone relation = iota
	relPartial
	relCovers
)

func not(r relation) relation {
	switch r {
	case relNone:
		return relCovers
	case relCovers:
		return relNone
	}
	return relPartial
}

func and(l, r relation) relation {
	switch {
	case l == relNone || r == relNone:
		return relNone
	case l == relCovers && r == relCovers:
		return relCovers
	}
	return relPartial
}

func or(l, r relation) relation {
	switch {
	case l == relCovers || r == relCovers:
		return relCovers
	case l == relNone && r == relNone:
		return relNone
	}
	return relPartial
}

// rel computes the relation of p to atom a of static type t.
func (e *Engine) rel(p pattern.Pattern, a atom, t types.Type) relation {
	switch n := p.(type) {
	case *pattern.Discard, *pattern.Binding:
		return relCovers
	case *pattern.Constant:
		return constantRel(n.Value, a)
	case *pattern.TypeTest:
		if a.kind == atomNull {
			return relNone
		}
		if !e.query.IsAssignable(t, n.Type) {
			if a.open() {
				return relPartial
			}
			return relNone
		}
		if n.Sub == nil {
			return relCovers
		}
		return e.rel(n.Sub, a, n.Type)
	case *pattern.Relational:
		if a.kind == atomNull {
			return relNone
		}
		return relPartial
	case *pattern.Positional:
		return e.positionalRel(n, a)
	case *pattern.VarWithDesignation:
		return e.positionalRel(n.AsPositional(), a)
	case *pattern.FieldAccess:
		return e.fieldRel(n, a, t)
	case *pattern.Not:
		return not(e.rel(n.P, a, t))
	case *pattern.And:
		if complementary(n.L, n.R) {
			return relNone
		}
		return and(e.rel(n.L, a, t), e.rel(n.R, a, t))
	case *pattern.Or:
		if complementary(n.L, n.R) {
			return relCovers
		}
		return or(e.rel(n.L, a, t), e.rel(n.R, a, t))
	}
	return relPartial
}

func constantRel(v any, a atom) relation {
	switch a.kind {
	case atomNull:
		if v == nil {
			return relCovers
		}
		return relNone
	case atomFalse, atomTrue:
		if b, ok := v.(bool); ok && b == (a.kind == atomTrue) {
			return relCovers
		}
		return relNone
	case atomEnum:
		if ev, ok := v.(pattern.EnumValue); ok && ev == a.member {
			return relCovers
		}
		return relNone
	}
	if v == nil {
		return relNone
	}
	return relPartial
}

func (e *Engine) positionalRel(p *pattern.Positional, a atom) relation {
	if a.kind == atomNull {
		return relNone
	}
	d := p.Decomposition()
	if d == nil {
		return relPartial
	}
	tuple := a.kind == atomTuple && d.Kind == pattern.TupleShape
	parts := a.kind == atomParts && d.Kind == pattern.MethodCall && d.Method == a.via
	if (tuple || parts) && len(a.elems) == p.Arity() {
		r := relCovers
		for i, el := range p.Elements {
			r = and(r, e.rel(el.Pattern, a.elems[i], d.ElemTypes[i]))
			if r == relNone {
				return relNone
			}
		}
		return r
	}
	if d.Kind == pattern.DynamicProtocol {
		return relPartial
	}
	for i, el := range p.Elements {
		if !e.coversType(el.Pattern, d.ElemTypes[i]) {
			return relPartial
		}
	}
	return relCovers
}

// fieldRel relates a member pattern to a. Tuple elements named by ItemN or
// by their declared name are related to the atom's element; other members
// are judged over their whole type.
func (e *Engine) fieldRel(n *pattern.FieldAccess, a atom, t types.Type) relation {
	if a.kind == atomNull {
		return relNone
	}
	tt, isTuple := types.Unwrap(t).(types.TupleType)
	r := relCovers
	for _, name := range n.SortedNames() {
		sub := n.Fields[name]
		if i, ok := tupleIndex(tt, name); isTuple && ok && a.kind == atomTuple && i < len(a.elems) {
			r = and(r, e.rel(sub, a.elems[i], tt.Elems[i]))
		} else if mt, ok := e.query.MemberType(t, name); !ok || !e.coversType(sub, mt) {
			r = and(r, relPartial)
		}
		if r == relNone {
			return relNone
		}
	}
	return r
}

func tupleIndex(t types.TupleType, name string) (int, bool) {
	for i := range t.Elems {
		if (i < len(t.Names) && t.Names[i] == name) || fmt.Sprintf("Item%d", i+1) == name {
			return i, true
		}
	}
	return 0, false
}

// complementary reports whether one operand is the negation of the other.
func complementary(l, r pattern.Pattern) bool {
	if n, ok := l.(*pattern.Not); ok && n.P.String() == r.String() {
		return true
	}
	if n, ok := r.(*pattern.Not); ok && n.P.String() == l.String() {
		return true
	}
	return false
}

// coversType reports whether p matches every value of t.
func (e *Engine) coversType(p pattern.Pattern, t types.Type) bool {
	if pattern.IsIrrefutable(p) {
		return true
	}
	dom, ok := e.domain(t, e.opts.MaxPoints)
	if !ok {
		dom = []atom{anyAtom}
		if e.query.IsAbsentable(t) {
			dom = append(dom, nullAtom)
		}
	}
	for _, a := range dom {
		if e.rel(p, a, t) != relCovers {
			return false
		}
	}
	return true
}
