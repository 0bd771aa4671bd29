package registry

import (
	"slices"

	"martianoff/galamatch/internal/types"
)

// DefaultProtocolName is the name of the indexable tuple-shape protocol.
const DefaultProtocolName = "ITuple"

// Protocol declares the dynamic tuple-shape protocol: an interface exposing
// an integer Length and a positional Item(int) indexer. Obsolete carries the
// deprecation message, if any.
type Protocol struct {
	Name       string
	Kind       TypeKind
	HasLength  bool
	HasIndexer bool
	Obsolete   string
}

// WellFormed reports whether the declaration can be used for matching.
func (p *Protocol) WellFormed() bool {
	return p != nil && p.Kind == KindInterface && p.HasLength && p.HasIndexer
}

// DeclareProtocol registers the protocol and declares its type.
func (r *Registry) DeclareProtocol(p Protocol) error {
	if p.Name == "" {
		p.Name = DefaultProtocolName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info := TypeInfo{Name: p.Name, Kind: p.Kind, Fields: map[string]types.Type{}}
	if p.HasLength {
		info.Fields["Length"] = types.Int
	}
	if err := r.declareTypeLocked(info); err != nil {
		return err
	}
	r.protocol = &p
	return nil
}

// ProtocolName returns the protocol's display name.
func (r *Registry) ProtocolName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.protocol == nil {
		return DefaultProtocolName
	}
	return r.protocol.Name
}

// ProtocolAdvisory returns the obsolescence message of the protocol.
func (r *Registry) ProtocolAdvisory() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.protocol == nil || r.protocol.Obsolete == "" {
		return "", false
	}
	return r.protocol.Obsolete, true
}

// SatisfiesIndexableProtocol reports whether values of t can be matched
// through a well-formed protocol: the opaque object and dynamic types, the
// protocol itself, its implementers and type parameters constrained to any
// of those.
func (r *Registry) SatisfiesIndexableProtocol(t types.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.protocol.WellFormed() {
		return false
	}
	return r.reachesProtocolLocked(types.Unwrap(t))
}

func (r *Registry) reachesProtocolLocked(t types.Type) bool {
	switch x := t.(type) {
	case types.BasicType:
		return x.IsAny() || types.IsDynamic(x)
	case types.NamedType, types.GenericType:
		return r.implementsProtocolLocked(t.BaseName())
	case types.TypeParam:
		for _, c := range x.Constraints {
			if r.reachesProtocolLocked(c) {
				return true
			}
		}
	}
	return false
}

func (r *Registry) implementsProtocolLocked(typeName string) bool {
	if r.protocol == nil {
		return false
	}
	if typeName == r.protocol.Name {
		return true
	}
	return slices.Contains(r.supertypesLocked(typeName), r.protocol.Name)
}
