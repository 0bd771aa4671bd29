package types

import (
	"strings"
)

// Method is a decomposition method symbol. Outs are the output parameter
// types in declaration order. Extension methods carry their receiver type in
// Owner. Body is the runtime implementation used by the evaluator; it
// returns one value per output parameter.
type Method struct {
	Name      string
	Owner     Type
	OutNames  []string
	Outs      []Type
	Return    Type
	Extension bool
	Static    bool
	Private   bool
	Body      func(receiver any) []any
}

// Arity is the number of output parameters.
func (m *Method) Arity() int {
	return len(m.Outs)
}

// Signature renders the method the way diagnostics name it,
// e.g. "I1.Deconstruct(out int, out int)".
func (m *Method) Signature() string {
	var sb strings.Builder
	if m.Owner != nil {
		sb.WriteString(m.Owner.String())
		sb.WriteByte('.')
	}
	sb.WriteString(m.Name)
	sb.WriteByte('(')
	if m.Extension && m.Owner != nil {
		sb.WriteString("this ")
		sb.WriteString(m.Owner.String())
		if len(m.Outs) > 0 {
			sb.WriteString(", ")
		}
	}
	for i, o := range m.Outs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("out ")
		sb.WriteString(o.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// FailureShape describes the environment's dedicated match-failure type.
type FailureShape struct {
	Present      bool
	Name         string
	HasNoArgCtor bool
	HasValueCtor bool
}

// Query is the surface through which the match core consumes the
// surrounding type system.
type Query interface {
	// FixedArity reports the arity of a fixed-arity aggregate (tuple) type.
	FixedArity(t Type) (int, bool)
	// ElementTypes returns the element types of a fixed-arity aggregate.
	ElementTypes(t Type) []Type
	// FindApplicableMethods returns the best-ranked tier of accessible,
	// non-hidden decomposition methods named name with exactly arity output
	// parameters and a void return. More than one result is an ambiguity.
	FindApplicableMethods(t Type, name string, arity int) []*Method
	// SatisfiesIndexableProtocol reports whether t reaches a well-formed
	// indexable protocol (length accessor plus positional indexer).
	SatisfiesIndexableProtocol(t Type) bool
	// ProtocolName is the display name of the indexable protocol.
	ProtocolName() string
	// ProtocolAdvisory returns the obsolescence message of the protocol.
	ProtocolAdvisory() (string, bool)
	// IsAbsentable reports whether values of t may be absent.
	IsAbsentable(t Type) bool
	// EnumMembers returns the members of a finite enumerated type.
	EnumMembers(t Type) ([]string, bool)
	// MemberType returns the type of a named field or property.
	MemberType(t Type, name string) (Type, bool)
	// IsAssignable reports whether every non-absent value of from is an
	// instance of to.
	IsAssignable(from, to Type) bool
	// IsBoxable reports whether values of t can be converted to object.
	IsBoxable(t Type) bool
	// FailureType describes the registered match-failure type.
	FailureType() FailureShape
}
