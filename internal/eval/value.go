package eval

import (
	"fmt"
	"sort"
	"strings"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/types"
)

// Runtime values are plain Go values: nil is the absent value, bool, int and
// string are scalars, pattern.EnumValue is an enum member, Tuple is a
// fixed-arity aggregate and *Object is an instance of a declared type.

// Indexable is the runtime face of the dynamic tuple-shape protocol.
type Indexable interface {
	Length() int
	Item(i int) any
}

// Tuple is a fixed-arity aggregate value. It satisfies Indexable.
type Tuple []any

func (t Tuple) Length() int    { return len(t) }
func (t Tuple) Item(i int) any { return t[i] }

func (t Tuple) String() string {
	return galaerr.FormatValue([]any(t))
}

// Object is an instance of a declared class or struct. Items holds the
// positional elements exposed through the indexable protocol when the
// object's type implements it.
type Object struct {
	Type   string
	Fields map[string]any
	Items  []any
}

func (o *Object) String() string {
	if len(o.Fields) == 0 {
		return o.Type
	}
	names := make([]string, 0, len(o.Fields))
	for n := range o.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %s", n, galaerr.FormatValue(o.Fields[n]))
	}
	return o.Type + " { " + strings.Join(parts, ", ") + " }"
}

// Runtime answers the value-level questions a match asks. Equality and
// ordering are structural.
type Runtime interface {
	// IsInstance reports whether the non-absent value v is an instance of t.
	IsInstance(v any, t types.Type) bool
	// Equal compares v with a constant.
	Equal(v, constant any) bool
	// Compare orders v against a constant; ok is false for incomparable pairs.
	Compare(v, constant any) (cmp int, ok bool)
	// Member reads a named field or property.
	Member(v any, name string) (any, bool)
	// AsIndexable returns v's indexable view when its runtime type
	// implements the protocol.
	AsIndexable(v any) (Indexable, bool)
}
