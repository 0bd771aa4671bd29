package coverage

import (
	"strings"

	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"
)

type atomKind int

const (
	atomFalse atomKind = iota
	atomTrue
	atomEnum
	atomNull
	atomAny
	atomTuple
	// atomParts is a non-tuple value seen through a decomposition method:
	// elems are the method's outputs.
	atomParts
)

// atom is one concrete input shape. A point of the coverage space is a
// single atom; tuple atoms nest.
type atom struct {
	kind   atomKind
	member pattern.EnumValue
	elems  []atom
	via    *types.Method
}

var (
	falseAtom = atom{kind: atomFalse}
	trueAtom  = atom{kind: atomTrue}
	nullAtom  = atom{kind: atomNull}
	anyAtom   = atom{kind: atomAny}
)

func (a atom) String() string {
	switch a.kind {
	case atomFalse:
		return "false"
	case atomTrue:
		return "true"
	case atomEnum:
		return a.member.String()
	case atomNull:
		return "null"
	case atomTuple, atomParts:
		parts := make([]string, len(a.elems))
		for i, e := range a.elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "_"
	}
}

// open reports whether a stands for values no type test can rule out.
func (a atom) open() bool {
	return a.kind == atomAny || a.kind == atomParts
}

// hasNull reports whether the absent value occurs anywhere in a.
func (a atom) hasNull() bool {
	if a.kind == atomNull {
		return true
	}
	for _, e := range a.elems {
		if e.hasNull() {
			return true
		}
	}
	return false
}

// domain enumerates the atoms of t, or reports false when the enumeration
// would exceed budget points.
func (e *Engine) domain(t types.Type, budget int) ([]atom, bool) {
	var out []atom
	switch x := types.Unwrap(t).(type) {
	case types.BasicType:
		if x.Name == "bool" {
			out = []atom{falseAtom, trueAtom}
		} else {
			out = []atom{anyAtom}
		}
	case types.TupleType:
		out = []atom{{kind: atomTuple}}
		for _, et := range x.Elems {
			ed, ok := e.domain(et, budget)
			if !ok || len(out)*len(ed) > budget {
				return nil, false
			}
			next := make([]atom, 0, len(out)*len(ed))
			for _, prefix := range out {
				for _, a := range ed {
					elems := append(append([]atom(nil), prefix.elems...), a)
					next = append(next, atom{kind: atomTuple, elems: elems})
				}
			}
			out = next
		}
	default:
		if members, ok := e.query.EnumMembers(x); ok && len(members) > 0 {
			for _, m := range members {
				out = append(out, atom{kind: atomEnum, member: pattern.EnumValue{Type: x.String(), Member: m}})
			}
		} else {
			out = []atom{anyAtom}
		}
	}
	if e.query.IsAbsentable(t) {
		out = append(out, nullAtom)
	}
	if len(out) > budget {
		return nil, false
	}
	return out, true
}

// split enumerates the outputs of a method decomposition as parts atoms. It
// reports false when an output domain is open everywhere or the product
// exceeds budget.
func (e *Engine) split(d *pattern.Decomposition, budget int) ([]atom, bool) {
	if d == nil || d.Kind != pattern.MethodCall {
		return nil, false
	}
	dom, ok := e.domain(types.TupleType{Elems: d.ElemTypes}, budget)
	if !ok || len(dom) < 2 {
		return nil, false
	}
	out := make([]atom, len(dom))
	for i, a := range dom {
		out[i] = atom{kind: atomParts, elems: a.elems, via: d.Method}
	}
	return out, true
}

// methodDecomposition finds the method decomposition an arm applies to its
// whole input, looking through combinators.
func methodDecomposition(p pattern.Pattern) *pattern.Decomposition {
	switch n := p.(type) {
	case *pattern.Positional:
		if d := n.Decomposition(); d != nil && d.Kind == pattern.MethodCall {
			return d
		}
	case *pattern.VarWithDesignation:
		return methodDecomposition(n.AsPositional())
	case *pattern.Not:
		return methodDecomposition(n.P)
	case *pattern.And:
		if d := methodDecomposition(n.L); d != nil {
			return d
		}
		return methodDecomposition(n.R)
	case *pattern.Or:
		if d := methodDecomposition(n.L); d != nil {
			return d
		}
		return methodDecomposition(n.R)
	}
	return nil
}
