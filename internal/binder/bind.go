package binder

import (
	"fmt"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/resolver"
	"martianoff/galamatch/internal/types"
)

// Binder classifies and binds the patterns of one compilation.
type Binder struct {
	query    types.Query
	scope    Scope
	resolver *resolver.Resolver
}

// NewBinder creates a Binder. The resolver's cache is shared by every
// pattern bound through it.
func NewBinder(query types.Query, scope Scope, res *resolver.Resolver) *Binder {
	return &Binder{query: query, scope: scope, resolver: res}
}

// Bind resolves every positional node of p, innermost types narrowed from
// input, and checks the restrictions that depend on the chosen strategy.
// All errors found in p are reported together.
func (b *Binder) Bind(p pattern.Pattern, input types.Type, arm int) ([]galaerr.Diagnostic, error) {
	bc := &bindCtx{Binder: b, arm: arm, seen: make(map[string]bool)}
	bc.bind(p, input)
	return bc.diags, bc.errs.ErrorOrNil()
}

type bindCtx struct {
	*Binder
	arm   int
	diags []galaerr.Diagnostic
	errs  galaerr.MultiError
	seen  map[string]bool
}

func (bc *bindCtx) fail(err error) {
	bc.errs.Errors = append(bc.errs.Errors, err)
}

func (bc *bindCtx) warn(code, format string, args ...any) {
	d := galaerr.NewWarning(code, bc.arm, format, args...)
	if bc.seen[d.String()] {
		return
	}
	bc.seen[d.String()] = true
	bc.diags = append(bc.diags, d)
}

func (bc *bindCtx) bind(p pattern.Pattern, t types.Type) {
	if ptr, ok := t.(types.PointerType); ok && !pointerSafe(p) {
		bc.fail(galaerr.NewUnsafeStructuralPatternError(ptr.String(), p.String()))
		return
	}

	switch n := p.(type) {
	case *pattern.Discard, *pattern.Binding:
	case *pattern.Ident:
		bc.fail(galaerr.NewSemanticError(fmt.Sprintf("unclassified identifier '%s'", n)))
	case *pattern.Constant:
		if n.Value == nil && !bc.query.IsAbsentable(t) {
			bc.warn(galaerr.CodeUnreachableNullTest,
				"the input type '%s' is never null; the null pattern never matches", t)
		}
	case *pattern.TypeTest:
		if n.Sub != nil {
			bc.bind(n.Sub, n.Type)
		}
	case *pattern.Relational:
		if !n.Op.Valid() {
			bc.fail(galaerr.NewSemanticError(fmt.Sprintf("unknown relational operator '%s'", n.Op)))
		}
	case *pattern.Positional:
		bc.positional(n, t)
	case *pattern.VarWithDesignation:
		bc.positional(n.AsPositional(), t)
	case *pattern.FieldAccess:
		for _, name := range n.SortedNames() {
			mt, ok := bc.query.MemberType(t, name)
			if !ok {
				bc.fail(galaerr.NewSemanticError(fmt.Sprintf("'%s' does not contain a definition for '%s'", t, name)))
				continue
			}
			bc.bind(n.Fields[name], mt)
		}
	case *pattern.Not:
		bc.bind(n.P, t)
	case *pattern.And:
		bc.bind(n.L, t)
		bc.bind(n.R, t)
	case *pattern.Or:
		bc.bind(n.L, t)
		bc.bind(n.R, t)
	}
}

func (bc *bindCtx) positional(n *pattern.Positional, t types.Type) {
	d, err := bc.resolver.ResolveNode(n, t)
	if err != nil {
		bc.fail(err)
		return
	}
	for _, msg := range d.Advisories {
		bc.warn(galaerr.CodeObsoleteProtocol, "%s", msg)
	}

	for i, e := range n.Elements {
		if e.Name != "" {
			bc.checkName(d, i, e.Name)
		}
	}
	for i, e := range n.Elements {
		bc.bind(e.Pattern, d.ElemTypes[i])
	}
}

// checkName validates an element name against the strategy: the protocol
// is strictly positional, while tuples and methods require the name to
// match the declared element or parameter name when one exists.
func (bc *bindCtx) checkName(d *pattern.Decomposition, i int, name string) {
	switch d.Kind {
	case pattern.DynamicProtocol:
		bc.fail(galaerr.NewNamingViolationError(name, d.Protocol))
	case pattern.TupleShape:
		if tt, ok := d.Input.(types.TupleType); ok && i < len(tt.Names) && tt.Names[i] != "" && tt.Names[i] != name {
			bc.fail(galaerr.NewSemanticError(fmt.Sprintf(
				"the tuple element name '%s' is wrong; the element is named '%s'", name, tt.Names[i])))
		}
	case pattern.MethodCall:
		if outs := d.Method.OutNames; i < len(outs) && outs[i] != "" && outs[i] != name {
			bc.fail(galaerr.NewSemanticError(fmt.Sprintf(
				"the name '%s' does not match the corresponding '%s' parameter '%s'", name, d.Method.Name, outs[i])))
		}
	}
}

// pointerSafe reports whether p only tests identity or binds, which is all
// a pointer input permits.
func pointerSafe(p pattern.Pattern) bool {
	switch n := p.(type) {
	case *pattern.Discard, *pattern.Binding:
		return true
	case *pattern.Constant:
		return n.Value == nil
	case *pattern.Not:
		return pointerSafe(n.P)
	case *pattern.And:
		return pointerSafe(n.L) && pointerSafe(n.R)
	case *pattern.Or:
		return pointerSafe(n.L) && pointerSafe(n.R)
	}
	return false
}
