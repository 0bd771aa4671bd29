// Package coverage decides whether the arms of a match construct handle
// every input and which arms can never be selected.
//
// The space of inputs is enumerated as points over finite domains (bool,
// enums, the absent value, and tuples of those), with a single "any" point
// standing for each open domain. The absent value is part of the space, so
// catch-all arms consume it and arms testing for it can be subsumed, but a
// remaining point that contains it never makes the construct non-exhaustive.
//
// An open point is split into the enumerated outputs of a decomposition
// method the first time an arm decomposes it that way, so method outputs over
// finite domains are tracked like tuple elements.
//
// Tests over open domains (literals, relational patterns) only ever match
// part of the "any" point. A pattern combined with its own negation is
// recognised; other unions of partial tests, such as "< 0 or >= 0", are
// reported as not exhaustive.
package coverage

import (
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"
)

// DefaultMaxPoints bounds the number of enumerated points.
const DefaultMaxPoints = 4096

// Options tunes the engine.
type Options struct {
	// MaxPoints caps enumeration; larger domains are tracked with two flags.
	MaxPoints int
}

// Verdict is the outcome of analysing one construct.
type Verdict struct {
	Exhaustive bool
	// Subsumed lists the zero-based indexes of arms no input can reach.
	Subsumed []int
	// Missing lists example inputs no arm handles.
	Missing []string
	// Approximate is set when the domain was too large to enumerate.
	Approximate bool
}

// IsSubsumed reports whether arm i was found unreachable.
func (v *Verdict) IsSubsumed(i int) bool {
	for _, s := range v.Subsumed {
		if s == i {
			return true
		}
	}
	return false
}

// Engine computes verdicts against a type system. Patterns must be bound
// before analysis so positional nodes carry their decomposition.
type Engine struct {
	query types.Query
	opts  Options
}

// NewEngine creates an Engine. Zero options select the defaults.
func NewEngine(query types.Query, opts Options) *Engine {
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = DefaultMaxPoints
	}
	return &Engine{query: query, opts: opts}
}

// CheckExhaustiveness walks the arms in order, narrowing the remaining input
// space. An arm that can match nothing remaining is subsumed. Only unguarded
// arms narrow the space.
func (e *Engine) CheckExhaustiveness(input types.Type, arms []pattern.Arm) *Verdict {
	space, approximate := e.newSpace(input)
	v := &Verdict{Approximate: approximate}
	for i, arm := range arms {
		if !space.apply(arm.Pattern, arm.Guarded()) {
			v.Subsumed = append(v.Subsumed, i)
		}
	}
	v.Exhaustive = space.exhaustive()
	v.Missing = space.missing()
	return v
}

func (e *Engine) newSpace(input types.Type) (Space, bool) {
	if dom, ok := e.domain(input, e.opts.MaxPoints); ok {
		return newEnumSpace(e, input, dom), false
	}
	return newFlagSpace(e, input), true
}

// CheckExhaustiveness analyses arms over input with default options.
func CheckExhaustiveness(query types.Query, input types.Type, arms []pattern.Arm) *Verdict {
	return NewEngine(query, Options{}).CheckExhaustiveness(input, arms)
}
