package registry

import "martianoff/galamatch/internal/types"

// DefaultFailureTypeName is the name of the prelude match-failure type.
const DefaultFailureTypeName = "MatchFailureException"

// PreludeProtocol returns the well-formed indexable protocol declared by
// DefaultRegistry.
func PreludeProtocol() Protocol {
	return Protocol{
		Name:       DefaultProtocolName,
		Kind:       KindInterface,
		HasLength:  true,
		HasIndexer: true,
	}
}

// PreludeFailureType returns the match-failure type declared by
// DefaultRegistry. It has both a no-argument and a value constructor.
func PreludeFailureType() types.FailureShape {
	return types.FailureShape{
		Present:      true,
		Name:         DefaultFailureTypeName,
		HasNoArgCtor: true,
		HasValueCtor: true,
	}
}

// DefaultRegistry returns a registry pre-configured with the prelude: the
// indexable protocol and the match-failure type. This is the recommended way
// to get a registry instance.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	if err := r.DeclareProtocol(PreludeProtocol()); err != nil {
		panic(err)
	}
	r.DeclareFailureType(PreludeFailureType())
	return r
}
