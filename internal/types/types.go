package types

import (
	"strings"
)

// Type represents a static type as seen by the match core.
type Type interface {
	String() string
	IsNil() bool
	IsAny() bool
	BaseName() string
	GetPackage() string // Returns the package of the type, or "" if none
}

// BasicType represents a builtin type like int, string, bool, object or dynamic.
type BasicType struct {
	Name string
}

func (t BasicType) String() string     { return t.Name }
func (t BasicType) IsNil() bool        { return false }
func (t BasicType) IsAny() bool        { return t.Name == "object" || t.Name == "any" }
func (t BasicType) BaseName() string   { return t.Name }
func (t BasicType) GetPackage() string { return "" }

// Common builtin types.
var (
	Bool    = BasicType{Name: "bool"}
	Int     = BasicType{Name: "int"}
	String  = BasicType{Name: "string"}
	Char    = BasicType{Name: "char"}
	Object  = BasicType{Name: "object"}
	Dynamic = BasicType{Name: "dynamic"}
)

// NamedType represents a declared type, potentially package-qualified.
// Its shape (class, struct, interface, enum) lives in the registry.
type NamedType struct {
	Package string
	Name    string
}

func (t NamedType) String() string {
	if t.Package != "" {
		return t.Package + "." + t.Name
	}
	return t.Name
}
func (t NamedType) IsNil() bool        { return false }
func (t NamedType) IsAny() bool        { return false }
func (t NamedType) BaseName() string   { return t.String() }
func (t NamedType) GetPackage() string { return t.Package }

// GenericType represents an instantiated generic type like Box[int].
type GenericType struct {
	Base   Type
	Params []Type
}

func (t GenericType) String() string {
	var sb strings.Builder
	sb.WriteString(t.Base.String())
	sb.WriteByte('[')
	for i, p := range t.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p != nil {
			sb.WriteString(p.String())
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
func (t GenericType) IsNil() bool        { return false }
func (t GenericType) IsAny() bool        { return false }
func (t GenericType) BaseName() string   { return t.Base.BaseName() }
func (t GenericType) GetPackage() string { return t.Base.GetPackage() }

// TupleType is a fixed-arity value aggregate. Names is either empty or has
// one (possibly empty) entry per element.
type TupleType struct {
	Elems []Type
	Names []string
}

func (t TupleType) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, e := range t.Elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
		if i < len(t.Names) && t.Names[i] != "" {
			sb.WriteByte(' ')
			sb.WriteString(t.Names[i])
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
func (t TupleType) IsNil() bool        { return false }
func (t TupleType) IsAny() bool        { return false }
func (t TupleType) BaseName() string   { return "tuple" }
func (t TupleType) GetPackage() string { return "" }

// NullableType wraps a value type whose values may also be absent.
type NullableType struct {
	Elem Type
}

func (t NullableType) String() string     { return t.Elem.String() + "?" }
func (t NullableType) IsNil() bool        { return false }
func (t NullableType) IsAny() bool        { return false }
func (t NullableType) BaseName() string   { return t.Elem.BaseName() }
func (t NullableType) GetPackage() string { return t.Elem.GetPackage() }

// PointerType represents a raw-memory pointer type.
type PointerType struct {
	Elem Type
}

func (t PointerType) String() string {
	return "*" + t.Elem.String()
}
func (t PointerType) IsNil() bool        { return false }
func (t PointerType) IsAny() bool        { return false }
func (t PointerType) BaseName() string   { return "*" + t.Elem.BaseName() }
func (t PointerType) GetPackage() string { return "" }

// TypeParam is a generic type parameter together with its declared
// constraints. An unconstrained parameter has no constraints.
type TypeParam struct {
	Name        string
	Constraints []Type
}

func (t TypeParam) String() string     { return t.Name }
func (t TypeParam) IsNil() bool        { return false }
func (t TypeParam) IsAny() bool        { return false }
func (t TypeParam) BaseName() string   { return t.Name }
func (t TypeParam) GetPackage() string { return "" }

// NilType represents an unknown type.
type NilType struct{}

func (t NilType) String() string     { return "" }
func (t NilType) IsNil() bool        { return true }
func (t NilType) IsAny() bool        { return false }
func (t NilType) BaseName() string   { return "" }
func (t NilType) GetPackage() string { return "" }

// VoidType is the return type of a method that produces no value.
type VoidType struct{}

func (t VoidType) String() string     { return "void" }
func (t VoidType) IsNil() bool        { return false }
func (t VoidType) IsAny() bool        { return false }
func (t VoidType) BaseName() string   { return "void" }
func (t VoidType) GetPackage() string { return "" }

// IsDynamic reports whether t is the dynamically-typed escape hatch.
func IsDynamic(t Type) bool {
	b, ok := t.(BasicType)
	return ok && b.Name == "dynamic"
}

// IsVoid reports whether t is absent or void.
func IsVoid(t Type) bool {
	if t == nil || t.IsNil() {
		return true
	}
	_, ok := t.(VoidType)
	return ok
}

// Unwrap strips a NullableType wrapper.
func Unwrap(t Type) Type {
	if n, ok := t.(NullableType); ok {
		return n.Elem
	}
	return t
}

// Identical compares two types by their rendered form.
func Identical(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// IsPrimitiveType checks if a type name is a builtin type.
func IsPrimitiveType(name string) bool {
	switch name {
	case "int", "long", "short", "byte", "char",
		"float", "double",
		"bool", "string",
		"object", "any", "dynamic":
		return true
	}
	return false
}

// ParseType converts a type written in the fixture notation into a Type:
// builtins, Name, pkg.Name, Name[T, U], (T1, T2), (T1 a, T2 b), T?, *T.
func ParseType(s string) Type {
	s = strings.TrimSpace(s)
	if s == "" {
		return NilType{}
	}
	if s == "void" {
		return VoidType{}
	}
	if strings.HasSuffix(s, "?") {
		return NullableType{Elem: ParseType(s[:len(s)-1])}
	}
	if strings.HasPrefix(s, "*") {
		return PointerType{Elem: ParseType(s[1:])}
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		tuple := TupleType{}
		if inner == "" {
			return tuple
		}
		hasNames := false
		for _, part := range splitTopLevel(inner) {
			part = strings.TrimSpace(part)
			name := ""
			if idx := lastTopLevelSpace(part); idx != -1 {
				name = strings.TrimSpace(part[idx+1:])
				part = strings.TrimSpace(part[:idx])
				hasNames = true
			}
			tuple.Elems = append(tuple.Elems, ParseType(part))
			tuple.Names = append(tuple.Names, name)
		}
		if !hasNames {
			tuple.Names = nil
		}
		return tuple
	}
	if strings.Contains(s, "[") && strings.HasSuffix(s, "]") {
		idx := strings.Index(s, "[")
		base := ParseType(s[:idx])
		var params []Type
		for _, p := range splitTopLevel(s[idx+1 : len(s)-1]) {
			params = append(params, ParseType(p))
		}
		return GenericType{Base: base, Params: params}
	}
	if IsPrimitiveType(s) {
		return BasicType{Name: s}
	}
	if idx := strings.LastIndex(s, "."); idx != -1 {
		return NamedType{Package: s[:idx], Name: s[idx+1:]}
	}
	return NamedType{Name: s}
}

// splitTopLevel splits by comma, respecting nested brackets and parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func lastTopLevelSpace(s string) int {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ']', ')':
			depth++
		case '[', '(':
			depth--
		case ' ':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
