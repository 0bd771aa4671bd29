package galaerr

import (
	"fmt"
	"strings"
)

// ErrorType defines the category of the error.
type ErrorType string

const (
	TypeSemantic        ErrorType = "SemanticError"
	TypeAmbiguity       ErrorType = "AmbiguityError"
	TypeUnavailable     ErrorType = "UnavailableError"
	TypeNaming          ErrorType = "NamingViolation"
	TypeUnsafePattern   ErrorType = "UnsafeStructuralPattern"
	TypeRuntimeMismatch ErrorType = "RuntimeMatchFailure"
)

// GalaError is the interface for all errors raised by the match core.
type GalaError interface {
	error
	Type() ErrorType
}

// BaseError provides common fields for match core errors.
type BaseError struct {
	Msg     string
	ErrType ErrorType
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

func (e *BaseError) Type() ErrorType {
	return e.ErrType
}

// SemanticError is reported for malformed patterns that fall outside the
// dedicated categories below (unknown names, unknown members, bad operators).
type SemanticError struct {
	BaseError
}

// NewSemanticError creates a new SemanticError.
func NewSemanticError(msg string) *SemanticError {
	return &SemanticError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeSemantic,
		},
	}
}

// AmbiguityError is raised when more than one decomposition method is
// equally applicable. It is terminal: resolution never falls back to the
// indexable protocol after it.
type AmbiguityError struct {
	BaseError
	Input      string
	Arity      int
	Candidates []string
}

// NewAmbiguityError creates an AmbiguityError naming every tied candidate.
func NewAmbiguityError(input string, arity int, candidates []string) *AmbiguityError {
	quoted := make([]string, len(candidates))
	for i, c := range candidates {
		quoted[i] = "'" + c + "'"
	}
	return &AmbiguityError{
		BaseError: BaseError{
			Msg: fmt.Sprintf("the call is ambiguous between the following methods: %s",
				strings.Join(quoted, " and ")),
			ErrType: TypeAmbiguity,
		},
		Input:      input,
		Arity:      arity,
		Candidates: candidates,
	}
}

// UnavailableError is raised when no decomposition strategy applies.
// TupleArity is non-zero when the input is a tuple of a different arity.
type UnavailableError struct {
	BaseError
	Input      string
	Arity      int
	TupleArity int
}

// NewUnavailableError creates the "no decomposition found" error.
func NewUnavailableError(input string, arity int, method string) *UnavailableError {
	return &UnavailableError{
		BaseError: BaseError{
			Msg: fmt.Sprintf("no suitable '%s' instance or extension method was found for type '%s', with %d out parameters and a void return type",
				method, input, arity),
			ErrType: TypeUnavailable,
		},
		Input: input,
		Arity: arity,
	}
}

// NewTupleArityError creates an UnavailableError for a tuple input matched
// with the wrong number of subpatterns.
func NewTupleArityError(input string, arity, tupleArity int) *UnavailableError {
	return &UnavailableError{
		BaseError: BaseError{
			Msg: fmt.Sprintf("matching the tuple type '%s' requires %d subpatterns, but %d subpatterns are present",
				input, tupleArity, arity),
			ErrType: TypeUnavailable,
		},
		Input:      input,
		Arity:      arity,
		TupleArity: tupleArity,
	}
}

// NamingViolationError is raised for a named subpattern matched through the
// strictly positional indexable protocol.
type NamingViolationError struct {
	BaseError
	Name     string
	Protocol string
}

// NewNamingViolationError creates a NamingViolationError.
func NewNamingViolationError(name, protocol string) *NamingViolationError {
	return &NamingViolationError{
		BaseError: BaseError{
			Msg:     fmt.Sprintf("element name '%s' is not permitted when pattern-matching via '%s'", name, protocol),
			ErrType: TypeNaming,
		},
		Name:     name,
		Protocol: protocol,
	}
}

// UnsafeStructuralPatternError is raised for structural patterns applied to
// pointer inputs.
type UnsafeStructuralPatternError struct {
	BaseError
	Input   string
	Pattern string
}

// NewUnsafeStructuralPatternError creates an UnsafeStructuralPatternError.
func NewUnsafeStructuralPatternError(input, pattern string) *UnsafeStructuralPatternError {
	return &UnsafeStructuralPatternError{
		BaseError: BaseError{
			Msg:     fmt.Sprintf("pattern '%s' is not permitted for pointer type '%s'", pattern, input),
			ErrType: TypeUnsafePattern,
		},
		Input:   input,
		Pattern: pattern,
	}
}

// MatchFailureError is raised at run time when an expression-form construct
// exhausts its arms and the environment declares a match-failure type.
type MatchFailureError struct {
	BaseError
	TypeName string
	Value    any
	HasValue bool
}

// NewMatchFailureError creates a MatchFailureError. The value is kept only
// when hasValue is set.
func NewMatchFailureError(typeName string, value any, hasValue bool) *MatchFailureError {
	msg := fmt.Sprintf("%s()", typeName)
	if hasValue {
		msg = fmt.Sprintf("%s(%s)", typeName, FormatValue(value))
	} else {
		value = nil
	}
	return &MatchFailureError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeRuntimeMismatch,
		},
		TypeName: typeName,
		Value:    value,
		HasValue: hasValue,
	}
}

// InvalidOperationError is the generic runtime failure raised when no
// dedicated match-failure type is registered.
type InvalidOperationError struct {
	BaseError
}

// NewInvalidOperationError creates an InvalidOperationError.
func NewInvalidOperationError() *InvalidOperationError {
	return &InvalidOperationError{
		BaseError: BaseError{
			Msg:     "InvalidOperationException: the match expression does not handle the input value",
			ErrType: TypeRuntimeMismatch,
		},
	}
}

// FormatValue renders a runtime value the way failure messages and
// diagnostics print it.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case fmt.Stringer:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// MultiError collects multiple errors.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) occurred:\n", len(m.Errors)))
	for _, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("- %v\n", err))
	}
	return sb.String()
}

func (m *MultiError) Type() ErrorType {
	if len(m.Errors) > 0 {
		if ge, ok := m.Errors[0].(GalaError); ok {
			return ge.Type()
		}
	}
	return "MultiError"
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// ErrorOrNil returns nil for an empty collection, the single error for a
// collection of one, and the MultiError otherwise.
func (m *MultiError) ErrorOrNil() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}
