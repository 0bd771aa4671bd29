package pattern

// Walk visits p and its subpatterns in pre-order. Returning false from fn
// skips the children of the visited node. A VarWithDesignation is visited
// once, followed by the elements of its lowered form.
func Walk(p Pattern, fn func(Pattern) bool) {
	if p == nil || !fn(p) {
		return
	}
	switch n := p.(type) {
	case *TypeTest:
		Walk(n.Sub, fn)
	case *Positional:
		for _, e := range n.Elements {
			Walk(e.Pattern, fn)
		}
	case *FieldAccess:
		for _, name := range n.SortedNames() {
			Walk(n.Fields[name], fn)
		}
	case *Not:
		Walk(n.P, fn)
	case *And:
		Walk(n.L, fn)
		Walk(n.R, fn)
	case *Or:
		Walk(n.L, fn)
		Walk(n.R, fn)
	case *VarWithDesignation:
		for _, e := range n.AsPositional().Elements {
			Walk(e.Pattern, fn)
		}
	}
}

// IsIrrefutable reports whether p matches every value, absent included.
func IsIrrefutable(p Pattern) bool {
	switch n := p.(type) {
	case *Discard, *Binding:
		return true
	case *And:
		return IsIrrefutable(n.L) && IsIrrefutable(n.R)
	case *Or:
		return IsIrrefutable(n.L) || IsIrrefutable(n.R)
	}
	return false
}

// BoundNames returns the names p binds, in pre-order.
func BoundNames(p Pattern) []string {
	var names []string
	Walk(p, func(n Pattern) bool {
		switch b := n.(type) {
		case *Binding:
			names = append(names, b.Name)
		case *Positional:
			if b.Designation != "" && b.Designation != "_" {
				names = append(names, b.Designation)
			}
		}
		return true
	})
	return names
}

// Positionals returns every positional node of p in pre-order. Var patterns
// contribute their lowered form.
func Positionals(p Pattern) []*Positional {
	var out []*Positional
	Walk(p, func(n Pattern) bool {
		switch x := n.(type) {
		case *Positional:
			out = append(out, x)
		case *VarWithDesignation:
			out = append(out, x.AsPositional())
		}
		return true
	})
	return out
}
