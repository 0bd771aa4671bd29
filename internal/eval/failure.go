package eval

import (
	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"
)

// FailureKind is how an expression that ran out of arms fails.
type FailureKind int

const (
	// FailInvalidOperation raises the generic invalid-operation signal.
	FailInvalidOperation FailureKind = iota
	// FailWithValue raises the failure type carrying the unmatched input.
	FailWithValue
	// FailWithoutValue raises the failure type without the input.
	FailWithoutValue
)

func (k FailureKind) String() string {
	switch k {
	case FailWithValue:
		return "failure type with value"
	case FailWithoutValue:
		return "failure type without value"
	default:
		return "invalid operation"
	}
}

// FailurePlan is the failure signal chosen for one construct.
type FailurePlan struct {
	Kind     FailureKind
	TypeName string
}

// PlanFailure picks the failure signal for c. The value constructor is used
// only when the input is a materialised, boxable value.
func PlanFailure(q types.Query, c *pattern.Construct) FailurePlan {
	shape := q.FailureType()
	switch {
	case !shape.Present:
		return FailurePlan{Kind: FailInvalidOperation}
	case shape.HasValueCtor && !c.TupleLiteral && q.IsBoxable(c.Input):
		return FailurePlan{Kind: FailWithValue, TypeName: shape.Name}
	case shape.HasNoArgCtor || shape.HasValueCtor:
		return FailurePlan{Kind: FailWithoutValue, TypeName: shape.Name}
	default:
		return FailurePlan{Kind: FailInvalidOperation}
	}
}

// Raise builds the failure error for the unmatched value v.
func (p FailurePlan) Raise(v any) error {
	switch p.Kind {
	case FailWithValue:
		return galaerr.NewMatchFailureError(p.TypeName, v, true)
	case FailWithoutValue:
		return galaerr.NewMatchFailureError(p.TypeName, nil, false)
	default:
		return galaerr.NewInvalidOperationError()
	}
}

// Outcome is the result of running a construct. Arm is -1 when no arm
// matched.
type Outcome struct {
	Matched  bool
	Arm      int
	Result   any
	Bindings pattern.Bindings
}

// Run evaluates the arms of c in order against v and commits to the first
// whose pattern matches and whose guard holds. Bindings of rejected arms are
// discarded. An expression-form construct with no matching arm fails
// according to plan; the statement and `is` forms report no match.
//
// An arm Result of type func(pattern.Bindings) any is called with the
// winning bindings.
func (ev *Evaluator) Run(c *pattern.Construct, plan FailurePlan, v any) (Outcome, error) {
	for i, arm := range c.Arms {
		ok, b, err := ev.Evaluate(arm.Pattern, v)
		if err != nil {
			return Outcome{Arm: -1}, err
		}
		if !ok {
			continue
		}
		if arm.Guard != nil {
			pass, err := arm.Guard(b)
			if err != nil {
				return Outcome{Arm: -1}, err
			}
			if !pass {
				continue
			}
		}
		result := arm.Result
		if f, ok := result.(func(pattern.Bindings) any); ok {
			result = f(b)
		}
		return Outcome{Matched: true, Arm: i, Result: result, Bindings: b}, nil
	}
	if c.Form == pattern.FormExpression {
		return Outcome{Arm: -1}, plan.Raise(v)
	}
	return Outcome{Arm: -1}, nil
}
