package pattern

import (
	"maps"

	"martianoff/galamatch/internal/types"
)

// Bindings maps bound names to the values captured by a successful match.
type Bindings map[string]any

// Clone returns an independent copy.
func (b Bindings) Clone() Bindings {
	if b == nil {
		return Bindings{}
	}
	return maps.Clone(b)
}

// Guard is an arm's boolean side condition, evaluated over the arm's
// bindings after the pattern matched.
type Guard func(Bindings) (bool, error)

// Arm is one case of a match construct.
type Arm struct {
	Pattern Pattern
	Guard   Guard
	Result  any
}

// Guarded reports whether the arm carries a side condition.
func (a Arm) Guarded() bool {
	return a.Guard != nil
}

// Form is the syntactic shape of a construct, which decides how falling off
// the last arm behaves.
type Form int

const (
	// FormExpression is a switch expression; it must produce a value.
	FormExpression Form = iota
	// FormStatement is a switch statement; unmatched input falls through.
	FormStatement
	// FormIs is a single `is` test; it evaluates to false on mismatch.
	FormIs
)

func (f Form) String() string {
	switch f {
	case FormStatement:
		return "statement"
	case FormIs:
		return "is"
	default:
		return "expression"
	}
}

// ParseForm maps a form name to a Form.
func ParseForm(s string) (Form, bool) {
	switch s {
	case "", "expression":
		return FormExpression, true
	case "statement":
		return FormStatement, true
	case "is":
		return FormIs, true
	}
	return FormExpression, false
}

// Construct is a multi-arm match over one input. Arm order is significant.
// TupleLiteral is set when the input is written as a tuple literal, whose
// value is never materialised as a single object.
type Construct struct {
	Input        types.Type
	Arms         []Arm
	Form         Form
	TupleLiteral bool
}
