package pattern

import (
	"fmt"
	"sync/atomic"

	"martianoff/galamatch/internal/types"
)

// StrategyKind identifies how a positional pattern decomposes its input.
type StrategyKind int

const (
	Unavailable StrategyKind = iota
	TupleShape
	MethodCall
	DynamicProtocol
)

func (k StrategyKind) String() string {
	switch k {
	case TupleShape:
		return "TupleShape"
	case MethodCall:
		return "MethodCall"
	case DynamicProtocol:
		return "DynamicProtocol"
	default:
		return "Unavailable"
	}
}

// Decomposition is the strategy chosen for one (static type, arity) pair.
// Method is set only for MethodCall. ElemTypes holds the static type of each
// sub-value. Advisories carries non-fatal notes such as protocol
// obsolescence.
type Decomposition struct {
	Kind       StrategyKind
	Input      types.Type
	Arity      int
	Method     *types.Method
	Protocol   string
	ElemTypes  []types.Type
	Advisories []string
}

func (d *Decomposition) String() string {
	switch d.Kind {
	case MethodCall:
		return fmt.Sprintf("%s %s", d.Kind, d.Method.Signature())
	case DynamicProtocol:
		return fmt.Sprintf("%s %s", d.Kind, d.Protocol)
	default:
		return fmt.Sprintf("%s %s/%d", d.Kind, d.Input, d.Arity)
	}
}

// sameStrategy reports whether two decompositions pick the same strategy.
func (d *Decomposition) sameStrategy(o *Decomposition) bool {
	return d.Kind == o.Kind && d.Arity == o.Arity && d.Method == o.Method &&
		types.Identical(d.Input, o.Input)
}

// Slot is the write-once decomposition cell of a positional node.
type Slot struct {
	p atomic.Pointer[Decomposition]
}

// Load returns the stored decomposition, or nil.
func (s *Slot) Load() *Decomposition {
	return s.p.Load()
}

// Store sets the decomposition. Storing the same strategy again is a no-op;
// storing a different one is rejected.
func (s *Slot) Store(d *Decomposition) error {
	if d == nil {
		return fmt.Errorf("cannot store a nil decomposition")
	}
	if s.p.CompareAndSwap(nil, d) {
		return nil
	}
	prev := s.p.Load()
	if prev.sameStrategy(d) {
		return nil
	}
	return fmt.Errorf("decomposition already set to %s, cannot change to %s", prev, d)
}
