// Package binder prepares parsed pattern trees for analysis. Classify
// rewrites every identifier the parser left unclassified; Bind resolves
// every positional node against its input type and enforces the naming and
// pointer restrictions.
package binder

import (
	"fmt"
	"maps"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"
)

// Context is the syntactic position of a top-level pattern.
type Context int

const (
	// CaseLabel is a `case` label of a switch statement.
	CaseLabel Context = iota
	// IsExpression is the right-hand side of an `is` test.
	IsExpression
	// SwitchArm is an arm of a switch expression.
	SwitchArm
)

func (c Context) String() string {
	switch c {
	case CaseLabel:
		return "case"
	case IsExpression:
		return "is"
	default:
		return "arm"
	}
}

// ContextFor returns the context in which the arms of a construct of the
// given form are written.
func ContextFor(form pattern.Form) Context {
	switch form {
	case pattern.FormStatement:
		return CaseLabel
	case pattern.FormIs:
		return IsExpression
	default:
		return SwitchArm
	}
}

// Scope resolves names visible at the construct.
type Scope interface {
	LookupConstant(name string) (any, bool)
	LookupType(name string) (types.Type, bool)
}

// Classify replaces every Ident in p. The unescaped "_" is the discard
// everywhere except as a whole case label naming a constant, or as a whole
// `is` operand naming a type; those bind to the declaration and produce an
// advisory. Every other identifier, and "@_", binds to a constant or type in
// scope.
func (b *Binder) Classify(p pattern.Pattern, ctx Context, arm int) (pattern.Pattern, []galaerr.Diagnostic, error) {
	c := &classifier{scope: b.scope, ctx: ctx, arm: arm}
	out := c.rewrite(p, false)
	return out, c.diags, c.errs.ErrorOrNil()
}

type classifier struct {
	scope Scope
	ctx   Context
	arm   int
	diags []galaerr.Diagnostic
	errs  galaerr.MultiError
}

func (c *classifier) rewrite(p pattern.Pattern, nested bool) pattern.Pattern {
	switch n := p.(type) {
	case *pattern.Ident:
		return c.ident(n, nested)
	case *pattern.TypeTest:
		if n.Sub == nil {
			return n
		}
		return &pattern.TypeTest{Type: n.Type, Sub: c.rewrite(n.Sub, true)}
	case *pattern.Positional:
		elems := make([]pattern.Element, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = pattern.Element{Name: e.Name, Pattern: c.rewrite(e.Pattern, true)}
		}
		return pattern.NewPositional(n.Designation, elems...)
	case *pattern.FieldAccess:
		fields := maps.Clone(n.Fields)
		for name, sub := range fields {
			fields[name] = c.rewrite(sub, true)
		}
		return &pattern.FieldAccess{Fields: fields}
	case *pattern.Not:
		return &pattern.Not{P: c.rewrite(n.P, nested)}
	case *pattern.And:
		return &pattern.And{L: c.rewrite(n.L, nested), R: c.rewrite(n.R, nested)}
	case *pattern.Or:
		return &pattern.Or{L: c.rewrite(n.L, nested), R: c.rewrite(n.R, nested)}
	}
	return p
}

func (c *classifier) ident(n *pattern.Ident, nested bool) pattern.Pattern {
	if n.Name == "_" && !n.Escaped {
		switch {
		case nested || c.ctx == SwitchArm:
			return &pattern.Discard{}
		case c.ctx == CaseLabel:
			if v, ok := c.scope.LookupConstant("_"); ok {
				c.diags = append(c.diags, galaerr.NewWarning(galaerr.CodeConstantUnderscore, c.arm,
					"the name '_' refers to the constant '_', not the discard pattern; use 'var _' to discard"))
				return &pattern.Constant{Value: v}
			}
		case c.ctx == IsExpression:
			if t, ok := c.scope.LookupType("_"); ok {
				c.diags = append(c.diags, galaerr.NewWarning(galaerr.CodeTypeUnderscore, c.arm,
					"the name '_' refers to the type '_', not the discard pattern; use '@_' for the type"))
				return &pattern.TypeTest{Type: t}
			}
		}
		return &pattern.Discard{}
	}

	if v, ok := c.scope.LookupConstant(n.Name); ok {
		return &pattern.Constant{Value: v}
	}
	if t, ok := c.scope.LookupType(n.Name); ok {
		return &pattern.TypeTest{Type: t}
	}
	c.errs.Errors = append(c.errs.Errors, galaerr.NewSemanticError(
		fmt.Sprintf("the name '%s' does not exist in the current context", n.Name)))
	return n
}
