package registry

import (
	"cmp"
	"fmt"
	"strings"

	"martianoff/galamatch/internal/eval"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"
)

var _ eval.Runtime = (*Registry)(nil)

// IsInstance reports whether the non-absent value v is an instance of t.
func (r *Registry) IsInstance(v any, t types.Type) bool {
	if v == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instanceLocked(v, types.Unwrap(t))
}

func (r *Registry) instanceLocked(v any, t types.Type) bool {
	if t.IsAny() || types.IsDynamic(t) {
		return true
	}
	switch x := t.(type) {
	case types.BasicType:
		switch x.Name {
		case "bool":
			_, ok := v.(bool)
			return ok
		case "string":
			_, ok := v.(string)
			return ok
		case "char":
			_, ok := v.(rune)
			return ok
		default:
			_, ok := toInt(v)
			return ok
		}
	case types.TupleType:
		tv, ok := v.(eval.Tuple)
		if !ok || len(tv) != len(x.Elems) {
			return false
		}
		for i, e := range x.Elems {
			if tv[i] == nil {
				if !r.absentableLocked(e) {
					return false
				}
				continue
			}
			if !r.instanceLocked(tv[i], types.Unwrap(e)) {
				return false
			}
		}
		return true
	case types.TypeParam:
		for _, c := range x.Constraints {
			if !r.instanceLocked(v, types.Unwrap(c)) {
				return false
			}
		}
		return true
	}
	runtimeType := r.runtimeTypeLocked(v)
	if runtimeType == nil {
		return false
	}
	return r.assignableLocked(runtimeType, t)
}

// runtimeTypeLocked returns the declared type of an object or enum value.
func (r *Registry) runtimeTypeLocked(v any) types.Type {
	switch x := v.(type) {
	case *eval.Object:
		return types.ParseType(x.Type)
	case pattern.EnumValue:
		return types.ParseType(x.Type)
	}
	return nil
}

// Equal compares v with a constant structurally. Integers compare by value
// regardless of their Go width.
func (r *Registry) Equal(v, constant any) bool {
	if v == nil || constant == nil {
		return v == nil && constant == nil
	}
	if a, ok := toInt(v); ok {
		b, ok := toInt(constant)
		return ok && a == b
	}
	if a, ok := asTuple(v); ok {
		b, ok := asTuple(constant)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !r.Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	}
	if a, ok := v.(*eval.Object); ok {
		b, ok := constant.(*eval.Object)
		return ok && a == b
	}
	return v == constant
}

func asTuple(v any) (eval.Tuple, bool) {
	switch x := v.(type) {
	case eval.Tuple:
		return x, true
	case []any:
		return eval.Tuple(x), true
	}
	return nil, false
}

// Compare orders integers and strings.
func (r *Registry) Compare(v, constant any) (int, bool) {
	if a, ok := toInt(v); ok {
		if b, ok := toInt(constant); ok {
			return cmp.Compare(a, b), true
		}
		return 0, false
	}
	if a, ok := v.(string); ok {
		if b, ok := constant.(string); ok {
			return strings.Compare(a, b), true
		}
	}
	return 0, false
}

// Member reads a field of an object, a tuple element by ItemN, or the
// protocol's Length.
func (r *Registry) Member(v any, name string) (any, bool) {
	switch x := v.(type) {
	case *eval.Object:
		if fv, ok := x.Fields[name]; ok {
			return fv, true
		}
		if name == "Length" {
			if ix, ok := r.AsIndexable(x); ok {
				return ix.Length(), true
			}
		}
	case eval.Tuple:
		for i := range x {
			if fmt.Sprintf("Item%d", i+1) == name {
				return x[i], true
			}
		}
		if name == "Length" {
			return len(x), true
		}
	}
	return nil, false
}

// AsIndexable returns the protocol view of tuples and of objects whose
// runtime type implements the protocol.
func (r *Registry) AsIndexable(v any) (eval.Indexable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.protocol.WellFormed() {
		return nil, false
	}
	switch x := v.(type) {
	case eval.Tuple:
		return x, true
	case *eval.Object:
		if r.implementsProtocolLocked(x.Type) {
			return eval.Tuple(x.Items), true
		}
	}
	return nil, false
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	}
	return 0, false
}
