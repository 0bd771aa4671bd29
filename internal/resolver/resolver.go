// Package resolver decides, for a static input type and a requested arity,
// how a positional pattern decomposes its input.
package resolver

import (
	"sync"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"
)

// DefaultMethodName is the name of the decomposition method.
const DefaultMethodName = "Deconstruct"

// Resolver picks the decomposition strategy for (type, arity) pairs and
// memoises the outcome for the lifetime of one compilation.
//
// Resolution order:
// 1. Tuple types of the same arity decompose by shape
// 2. A single applicable decomposition method is called; several are ambiguous
// 3. Types reaching the indexable protocol decompose dynamically
// 4. Anything else is unavailable
//
// Example usage:
//
//	r := NewResolver(reg, DefaultMethodName)
//	d, err := r.Resolve(types.ParseType("(int, int)?"), 2)
type Resolver struct {
	query      types.Query
	methodName string

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

type cacheKey struct {
	typ   string
	arity int
}

type cacheEntry struct {
	d   *pattern.Decomposition
	err error
}

// NewResolver creates a Resolver over the given type system. An empty
// methodName selects DefaultMethodName.
func NewResolver(query types.Query, methodName string) *Resolver {
	if methodName == "" {
		methodName = DefaultMethodName
	}
	return &Resolver{
		query:      query,
		methodName: methodName,
		cache:      make(map[cacheKey]cacheEntry),
	}
}

// MethodName returns the decomposition method name searched for.
func (r *Resolver) MethodName() string {
	return r.methodName
}

// Resolve returns the decomposition of staticType into arity parts. The
// error is a *galaerr.AmbiguityError or a *galaerr.UnavailableError.
func (r *Resolver) Resolve(staticType types.Type, arity int) (*pattern.Decomposition, error) {
	key := cacheKey{typ: staticType.String(), arity: arity}

	r.mu.Lock()
	if e, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return e.d, e.err
	}
	r.mu.Unlock()

	d, err := r.resolve(staticType, arity)

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.cache[key]; ok {
		return e.d, e.err
	}
	r.cache[key] = cacheEntry{d: d, err: err}
	return d, err
}

// ResolveNode resolves p against staticType and records the outcome in the
// node's slot.
func (r *Resolver) ResolveNode(p *pattern.Positional, staticType types.Type) (*pattern.Decomposition, error) {
	d, err := r.Resolve(staticType, p.Arity())
	if err != nil {
		return nil, err
	}
	if err := p.Slot().Store(d); err != nil {
		return nil, err
	}
	return p.Decomposition(), nil
}

func (r *Resolver) resolve(staticType types.Type, arity int) (*pattern.Decomposition, error) {
	t := types.Unwrap(staticType)

	// Rule 1: tuple shape
	tupleArity, isTuple := r.query.FixedArity(t)
	if isTuple && tupleArity == arity {
		return &pattern.Decomposition{
			Kind:      pattern.TupleShape,
			Input:     t,
			Arity:     arity,
			ElemTypes: r.query.ElementTypes(t),
		}, nil
	}

	// Rule 2: decomposition method
	if !isTuple {
		methods := r.query.FindApplicableMethods(t, r.methodName, arity)
		switch {
		case len(methods) == 1:
			m := methods[0]
			return &pattern.Decomposition{
				Kind:      pattern.MethodCall,
				Input:     t,
				Arity:     arity,
				Method:    m,
				ElemTypes: m.Outs,
			}, nil
		case len(methods) > 1:
			candidates := make([]string, len(methods))
			for i, m := range methods {
				candidates[i] = m.Signature()
			}
			return nil, galaerr.NewAmbiguityError(staticType.String(), arity, candidates)
		}
	}

	// Rule 3: dynamic indexable protocol
	if !isTuple && r.query.SatisfiesIndexableProtocol(t) {
		d := &pattern.Decomposition{
			Kind:      pattern.DynamicProtocol,
			Input:     t,
			Arity:     arity,
			Protocol:  r.query.ProtocolName(),
			ElemTypes: objects(arity),
		}
		if msg, ok := r.query.ProtocolAdvisory(); ok {
			d.Advisories = append(d.Advisories, msg)
		}
		return d, nil
	}

	// Rule 4: unavailable
	if isTuple {
		return nil, galaerr.NewTupleArityError(staticType.String(), arity, tupleArity)
	}
	return nil, galaerr.NewUnavailableError(staticType.String(), arity, r.methodName)
}

func objects(n int) []types.Type {
	out := make([]types.Type, n)
	for i := range out {
		out[i] = types.Object
	}
	return out
}
