package registry

import (
	"fmt"
	"slices"

	"martianoff/galamatch/internal/types"
)

var _ types.Query = (*Registry)(nil)

// FixedArity reports the arity of a tuple type.
func (r *Registry) FixedArity(t types.Type) (int, bool) {
	if tt, ok := t.(types.TupleType); ok {
		return len(tt.Elems), true
	}
	return 0, false
}

// ElementTypes returns the element types of a tuple type.
func (r *Registry) ElementTypes(t types.Type) []types.Type {
	if tt, ok := t.(types.TupleType); ok {
		return tt.Elems
	}
	return nil
}

// FindApplicableMethods searches instance methods level by level, nearest
// declaring type first, and falls back to extension methods whose receiver
// accepts t. Only the most specific candidates of the winning tier are
// returned.
func (r *Registry) FindApplicableMethods(t types.Type, name string, arity int) []*types.Method {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t = types.Unwrap(t)
	if found := r.instanceMethodsLocked(t, name, arity); len(found) > 0 {
		return r.mostSpecificLocked(found)
	}
	var found []*types.Method
	for _, m := range r.extensions {
		if m.Name == name && applicable(m, arity) && r.assignableLocked(t, m.Owner) {
			found = append(found, m)
		}
	}
	return r.mostSpecificLocked(found)
}

func applicable(m *types.Method, arity int) bool {
	return m.Arity() == arity && types.IsVoid(m.Return) && !m.Static && !m.Private
}

func (r *Registry) instanceMethodsLocked(t types.Type, name string, arity int) []*types.Method {
	var level []string
	switch x := t.(type) {
	case types.NamedType, types.GenericType:
		level = []string{x.BaseName()}
	case types.TypeParam:
		for _, c := range x.Constraints {
			level = append(level, c.BaseName())
		}
	default:
		return nil
	}

	seen := make(map[string]bool)
	for len(level) > 0 {
		var found []*types.Method
		var next []string
		for _, typeName := range level {
			if seen[typeName] {
				continue
			}
			seen[typeName] = true
			info := r.typeIndex[typeName]
			if info == nil {
				continue
			}
			for _, m := range info.Methods {
				if m.Name == name && applicable(m, arity) && !slices.Contains(found, m) {
					found = append(found, m)
				}
			}
			next = append(next, info.Implements...)
		}
		if len(found) > 0 {
			return found
		}
		level = next
	}
	return nil
}

// mostSpecificLocked drops every candidate whose receiver is strictly less
// specific than another candidate's.
func (r *Registry) mostSpecificLocked(ms []*types.Method) []*types.Method {
	if len(ms) < 2 {
		return ms
	}
	var out []*types.Method
	for _, c := range ms {
		dominated := false
		for _, o := range ms {
			if o == c {
				continue
			}
			if r.assignableLocked(o.Owner, c.Owner) && !r.assignableLocked(c.Owner, o.Owner) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, c)
		}
	}
	return out
}

// IsAssignable reports whether every non-absent value of from is an
// instance of to.
func (r *Registry) IsAssignable(from, to types.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assignableLocked(from, to)
}

func (r *Registry) assignableLocked(from, to types.Type) bool {
	if from == nil || to == nil {
		return false
	}
	from = types.Unwrap(from)
	to = types.Unwrap(to)
	if types.Identical(from, to) {
		return true
	}
	if _, ok := from.(types.PointerType); ok {
		return false
	}
	if to.IsAny() || types.IsDynamic(to) {
		return true
	}
	switch f := from.(type) {
	case types.NamedType, types.GenericType:
		return slices.Contains(r.supertypesLocked(f.BaseName()), to.BaseName())
	case types.TypeParam:
		for _, c := range f.Constraints {
			if r.assignableLocked(c, to) {
				return true
			}
		}
	case types.TupleType:
		tt, ok := to.(types.TupleType)
		if !ok || len(tt.Elems) != len(f.Elems) {
			return false
		}
		for i := range f.Elems {
			if !r.assignableLocked(f.Elems[i], tt.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// IsAbsentable reports whether values of t may be absent (null).
func (r *Registry) IsAbsentable(t types.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.absentableLocked(t)
}

func (r *Registry) absentableLocked(t types.Type) bool {
	switch x := t.(type) {
	case types.NullableType, types.PointerType:
		return true
	case types.BasicType:
		return x.IsAny() || types.IsDynamic(x) || x.Name == "string"
	case types.TupleType:
		return false
	case types.TypeParam:
		for _, c := range x.Constraints {
			if !r.absentableLocked(c) {
				return false
			}
		}
		return true
	case types.NamedType, types.GenericType:
		info := r.infoLocked(t)
		if info == nil {
			return true
		}
		return info.Kind == KindClass || info.Kind == KindInterface
	}
	return false
}

// EnumMembers returns the members of an enum type in declaration order.
func (r *Registry) EnumMembers(t types.Type) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := r.infoLocked(t)
	if info == nil || info.Kind != KindEnum {
		return nil, false
	}
	return info.Members, true
}

// MemberType returns the type of a field or property. Tuple elements are
// reachable by their declared names and by ItemN.
func (r *Registry) MemberType(t types.Type, name string) (types.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.memberTypeLocked(types.Unwrap(t), name)
}

func (r *Registry) memberTypeLocked(t types.Type, name string) (types.Type, bool) {
	switch x := t.(type) {
	case types.TupleType:
		for i, e := range x.Elems {
			if (i < len(x.Names) && x.Names[i] == name) || fmt.Sprintf("Item%d", i+1) == name {
				return e, true
			}
		}
	case types.TypeParam:
		for _, c := range x.Constraints {
			if mt, ok := r.memberTypeLocked(c, name); ok {
				return mt, true
			}
		}
	case types.NamedType, types.GenericType:
		owners := append([]string{t.BaseName()}, r.supertypesLocked(t.BaseName())...)
		for _, owner := range owners {
			if info := r.typeIndex[owner]; info != nil {
				if mt, ok := info.Fields[name]; ok {
					return r.resolveLocked(mt), true
				}
			}
		}
	}
	return nil, false
}

// IsBoxable reports whether values of t can be converted to object.
// Pointers and stack-only structs cannot.
func (r *Registry) IsBoxable(t types.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.boxableLocked(t)
}

func (r *Registry) boxableLocked(t types.Type) bool {
	switch x := t.(type) {
	case types.PointerType:
		return false
	case types.NullableType:
		return r.boxableLocked(x.Elem)
	case types.TupleType:
		for _, e := range x.Elems {
			if !r.boxableLocked(e) {
				return false
			}
		}
		return true
	case types.NamedType, types.GenericType:
		info := r.infoLocked(t)
		return info == nil || info.Kind != KindRefStruct
	}
	return true
}

// FailureType describes the registered match-failure type.
func (r *Registry) FailureType() types.FailureShape {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failure
}
