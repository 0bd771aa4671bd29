// Package eval matches runtime values against bound pattern trees and runs
// multi-arm constructs, raising the match-failure signal when an expression
// runs out of arms.
package eval

import (
	"fmt"

	"martianoff/galamatch/internal/pattern"
)

// Evaluator matches values using a Runtime for value-level questions.
type Evaluator struct {
	rt Runtime
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(rt Runtime) *Evaluator {
	return &Evaluator{rt: rt}
}

// Evaluate matches v against p. Bindings are returned only on success.
// An error means the tree was not bound or a decomposition method failed.
func (ev *Evaluator) Evaluate(p pattern.Pattern, v any) (bool, pattern.Bindings, error) {
	b := pattern.Bindings{}
	ok, err := ev.match(p, v, b)
	if err != nil || !ok {
		return false, nil, err
	}
	return true, b, nil
}

func (ev *Evaluator) match(p pattern.Pattern, v any, b pattern.Bindings) (bool, error) {
	switch n := p.(type) {
	case *pattern.Discard:
		return true, nil
	case *pattern.Binding:
		b[n.Name] = v
		return true, nil
	case *pattern.Constant:
		return ev.rt.Equal(v, n.Value), nil
	case *pattern.TypeTest:
		if v == nil || !ev.rt.IsInstance(v, n.Type) {
			return false, nil
		}
		if n.Sub == nil {
			return true, nil
		}
		return ev.match(n.Sub, v, b)
	case *pattern.Relational:
		return ev.relational(n, v), nil
	case *pattern.Positional:
		return ev.positional(n, v, b)
	case *pattern.VarWithDesignation:
		return ev.positional(n.AsPositional(), v, b)
	case *pattern.FieldAccess:
		if v == nil {
			return false, nil
		}
		for _, name := range n.SortedNames() {
			mv, ok := ev.rt.Member(v, name)
			if !ok {
				return false, nil
			}
			if ok, err := ev.match(n.Fields[name], mv, b); err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case *pattern.Not:
		ok, err := ev.match(n.P, v, pattern.Bindings{})
		return !ok && err == nil, err
	case *pattern.And:
		ok, err := ev.match(n.L, v, b)
		if err != nil || !ok {
			return false, err
		}
		return ev.match(n.R, v, b)
	case *pattern.Or:
		left := b.Clone()
		ok, err := ev.match(n.L, v, left)
		if err != nil {
			return false, err
		}
		if ok {
			for k, lv := range left {
				b[k] = lv
			}
			return true, nil
		}
		return ev.match(n.R, v, b)
	case *pattern.Ident:
		return false, fmt.Errorf("identifier '%s' was not classified before evaluation", n)
	}
	return false, fmt.Errorf("unsupported pattern %T", p)
}

func (ev *Evaluator) relational(n *pattern.Relational, v any) bool {
	if v == nil {
		return false
	}
	c, ok := ev.rt.Compare(v, n.Value)
	if !ok {
		return false
	}
	switch n.Op {
	case pattern.OpLess:
		return c < 0
	case pattern.OpLessEq:
		return c <= 0
	case pattern.OpGreater:
		return c > 0
	case pattern.OpGreaterEq:
		return c >= 0
	}
	return false
}

func (ev *Evaluator) positional(n *pattern.Positional, v any, b pattern.Bindings) (bool, error) {
	parts, ok, err := ev.decompose(n, v)
	if err != nil || !ok {
		return false, err
	}
	for i, e := range n.Elements {
		if ok, err := ev.match(e.Pattern, parts[i], b); err != nil || !ok {
			return false, err
		}
	}
	if n.Designation != "" && n.Designation != "_" {
		b[n.Designation] = v
	}
	return true, nil
}

// decompose splits v into the node's arity according to its resolved
// strategy. ok is false when v does not have the required shape.
func (ev *Evaluator) decompose(n *pattern.Positional, v any) ([]any, bool, error) {
	d := n.Decomposition()
	if d == nil {
		return nil, false, fmt.Errorf("pattern '%s' has no decomposition; bind it before evaluation", n)
	}
	if v == nil {
		return nil, false, nil
	}
	switch d.Kind {
	case pattern.TupleShape:
		var parts []any
		switch t := v.(type) {
		case Tuple:
			parts = t
		case []any:
			parts = t
		default:
			return nil, false, nil
		}
		return parts, len(parts) == d.Arity, nil
	case pattern.MethodCall:
		if d.Method.Body == nil {
			return nil, false, fmt.Errorf("method '%s' has no runtime implementation", d.Method.Signature())
		}
		parts := d.Method.Body(v)
		if len(parts) != d.Arity {
			return nil, false, fmt.Errorf("method '%s' produced %d values, want %d", d.Method.Signature(), len(parts), d.Arity)
		}
		return parts, true, nil
	case pattern.DynamicProtocol:
		ix, ok := ev.rt.AsIndexable(v)
		if !ok || ix.Length() != d.Arity {
			return nil, false, nil
		}
		parts := make([]any, d.Arity)
		for i := range parts {
			parts[i] = ix.Item(i)
		}
		return parts, true, nil
	}
	return nil, false, fmt.Errorf("pattern '%s' cannot be decomposed", n)
}
