// Package registry is the environment the match core is compiled against:
// declared types and their members, constants, type parameters, extension
// methods, the indexable protocol declaration and the match-failure type.
//
// A Registry answers both the static questions of types.Query and the
// value-level questions of eval.Runtime.
//
// Thread-safe: all methods can be called concurrently.
package registry

import (
	"fmt"
	"sync"

	"martianoff/galamatch/internal/types"
)

// TypeKind is the declaration kind of a named type.
type TypeKind int

const (
	KindClass TypeKind = iota
	KindStruct
	KindInterface
	KindEnum
	// KindRefStruct is a stack-only struct whose values cannot be boxed.
	KindRefStruct
)

var kindNames = map[TypeKind]string{
	KindClass:     "class",
	KindStruct:    "struct",
	KindInterface: "interface",
	KindEnum:      "enum",
	KindRefStruct: "ref struct",
}

func (k TypeKind) String() string {
	return kindNames[k]
}

// ParseKind maps a declaration keyword to a TypeKind.
func ParseKind(s string) (TypeKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	if s == "" {
		return KindClass, true
	}
	return KindClass, false
}

// TypeInfo describes a declared named type.
type TypeInfo struct {
	Name       string                // Fully qualified name: "C", "System.ITuple"
	Kind       TypeKind              // Declaration kind
	Implements []string              // Base class and implemented interfaces
	Fields     map[string]types.Type // Fields and properties
	Members    []string              // Enum members, in declaration order
	Methods    []*types.Method       // Decomposition candidates declared on the type
}

// Constant is a named compile-time constant.
type Constant struct {
	Name  string
	Value any
	Type  types.Type
}

// Registry manages declarations and provides lookup capabilities.
type Registry struct {
	mu sync.RWMutex

	// typeIndex maps type name to its declaration
	typeIndex map[string]*TypeInfo

	// constIndex maps constant name to its declaration
	constIndex map[string]*Constant

	// typeParams maps a type parameter name to its constraint names
	typeParams map[string][]string

	// extensions holds extension methods in declaration order
	extensions []*types.Method

	protocol *Protocol
	failure  types.FailureShape
}

// NewRegistry creates an empty registry with no protocol and no failure type.
// Use DefaultRegistry for the usual prelude.
func NewRegistry() *Registry {
	return &Registry{
		typeIndex:  make(map[string]*TypeInfo),
		constIndex: make(map[string]*Constant),
		typeParams: make(map[string][]string),
	}
}

// DeclareType adds a named type. Methods without an owner are attached to
// the declared type.
func (r *Registry) DeclareType(info TypeInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.declareTypeLocked(info)
}

func (r *Registry) declareTypeLocked(info TypeInfo) error {
	if _, ok := r.typeIndex[info.Name]; ok {
		return &ConflictError{Name: info.Name, Kind: "type"}
	}
	if _, ok := r.typeParams[info.Name]; ok {
		return &ConflictError{Name: info.Name, Kind: "type parameter"}
	}
	infoCopy := info
	owner := types.NamedType{Name: info.Name}
	if parsed, ok := types.ParseType(info.Name).(types.NamedType); ok {
		owner = parsed
	}
	for _, m := range infoCopy.Methods {
		if m.Owner == nil {
			m.Owner = owner
		}
	}
	r.typeIndex[info.Name] = &infoCopy
	return nil
}

// DeclareConstant adds a named constant.
func (r *Registry) DeclareConstant(c Constant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.constIndex[c.Name]; ok {
		return &ConflictError{Name: c.Name, Kind: "constant"}
	}
	cCopy := c
	r.constIndex[c.Name] = &cCopy
	return nil
}

// DeclareTypeParam adds a generic type parameter with its constraints.
func (r *Registry) DeclareTypeParam(name string, constraints ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.typeIndex[name]; ok {
		return &ConflictError{Name: name, Kind: "type"}
	}
	r.typeParams[name] = append([]string(nil), constraints...)
	return nil
}

// DeclareExtension adds an extension method. Owner is the receiver type.
func (r *Registry) DeclareExtension(m *types.Method) error {
	if m.Owner == nil {
		return fmt.Errorf("extension method '%s' has no receiver type", m.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m.Extension = true
	r.extensions = append(r.extensions, m)
	return nil
}

// DeclareFailureType registers the match-failure type.
func (r *Registry) DeclareFailureType(shape types.FailureShape) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shape.Present = true
	r.failure = shape
}

// LookupType resolves a type name in scope: declared types and type
// parameters.
func (r *Registry) LookupType(name string) (types.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.typeIndex[name]; ok {
		return r.resolveLocked(types.ParseType(name)), true
	}
	if _, ok := r.typeParams[name]; ok {
		return r.typeParamLocked(name), true
	}
	return nil, false
}

// LookupConstant resolves a constant name in scope.
func (r *Registry) LookupConstant(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.constIndex[name]
	if !ok {
		return nil, false
	}
	return c.Value, true
}

// TypeInfo returns the declaration of a named type.
func (r *Registry) TypeInfo(name string) (*TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.typeIndex[name]
	return info, ok
}

// ParseType parses a type and resolves declared type parameter names.
func (r *Registry) ParseType(s string) types.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(types.ParseType(s))
}

func (r *Registry) resolveLocked(t types.Type) types.Type {
	switch x := t.(type) {
	case types.NamedType:
		if x.Package == "" {
			if _, ok := r.typeParams[x.Name]; ok {
				return r.typeParamLocked(x.Name)
			}
		}
		return x
	case types.NullableType:
		return types.NullableType{Elem: r.resolveLocked(x.Elem)}
	case types.PointerType:
		return types.PointerType{Elem: r.resolveLocked(x.Elem)}
	case types.TupleType:
		elems := make([]types.Type, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = r.resolveLocked(e)
		}
		return types.TupleType{Elems: elems, Names: x.Names}
	case types.GenericType:
		params := make([]types.Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = r.resolveLocked(p)
		}
		return types.GenericType{Base: x.Base, Params: params}
	}
	return t
}

func (r *Registry) typeParamLocked(name string) types.TypeParam {
	tp := types.TypeParam{Name: name}
	for _, c := range r.typeParams[name] {
		tp.Constraints = append(tp.Constraints, r.resolveLocked(types.ParseType(c)))
	}
	return tp
}

// infoLocked returns the declaration behind a named or generic type.
func (r *Registry) infoLocked(t types.Type) *TypeInfo {
	switch x := t.(type) {
	case types.NamedType:
		return r.typeIndex[x.String()]
	case types.GenericType:
		return r.typeIndex[x.Base.String()]
	}
	return nil
}

// supertypesLocked returns every type name reachable through Implements,
// nearest first, without duplicates.
func (r *Registry) supertypesLocked(name string) []string {
	var out []string
	seen := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		info := r.typeIndex[queue[0]]
		queue = queue[1:]
		if info == nil {
			continue
		}
		for _, s := range info.Implements {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
				queue = append(queue, s)
			}
		}
	}
	return out
}

// ConflictError is returned when a name is declared twice.
type ConflictError struct {
	Name string // The conflicting name
	Kind string // "type", "type parameter" or "constant"
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s '%s' is already declared; choose a different name", e.Kind, e.Name)
}
