// Package pattern holds the structured pattern trees handed over by the
// parser: the tagged union of pattern nodes, match arms and constructs, and
// the write-once decomposition slot attached to every positional node.
package pattern

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/types"
)

// Pattern is a node of a pattern tree. Nodes are immutable once built, with
// the single exception of the write-once decomposition slot.
type Pattern interface {
	fmt.Stringer
	patternNode()
}

// Discard matches anything and binds nothing.
type Discard struct{}

// Binding matches anything and binds the input to Name.
type Binding struct {
	Name string
}

// Constant matches when the input equals Value. A nil Value is the absent
// (null) test.
type Constant struct {
	Value any
}

// TypeTest matches a non-absent instance of Type and matches Sub, if any,
// against the narrowed input.
type TypeTest struct {
	Type types.Type
	Sub  Pattern
}

// RelOp is a relational operator.
type RelOp string

const (
	OpLess      RelOp = "<"
	OpLessEq    RelOp = "<="
	OpGreater   RelOp = ">"
	OpGreaterEq RelOp = ">="
)

// Valid reports whether op is one of the four relational operators.
func (op RelOp) Valid() bool {
	switch op {
	case OpLess, OpLessEq, OpGreater, OpGreaterEq:
		return true
	}
	return false
}

// Relational matches when the input compares to Value via Op.
type Relational struct {
	Op    RelOp
	Value any
}

// Element is one subpattern of a positional pattern. Name is the optional
// member name written before the subpattern ("X: 3").
type Element struct {
	Name    string
	Pattern Pattern
}

// Positional requires decomposition into exactly len(Elements) parts.
// Designation optionally binds the whole input.
type Positional struct {
	Elements    []Element
	Designation string

	slotOnce sync.Once
	slot     *Slot
}

// NewPositional creates a positional pattern with a fresh slot.
func NewPositional(designation string, elements ...Element) *Positional {
	return &Positional{
		Elements:    elements,
		Designation: designation,
		slot:        &Slot{},
	}
}

// Tuple is shorthand for an unnamed, undesignated positional pattern.
func Tuple(elements ...Pattern) *Positional {
	elems := make([]Element, len(elements))
	for i, e := range elements {
		elems[i] = Element{Pattern: e}
	}
	return NewPositional("", elems...)
}

// Arity is the number of requested sub-values.
func (p *Positional) Arity() int {
	return len(p.Elements)
}

// Slot returns the node's write-once decomposition slot. Nodes built
// without NewPositional get their slot on first use.
func (p *Positional) Slot() *Slot {
	p.slotOnce.Do(func() {
		if p.slot == nil {
			p.slot = &Slot{}
		}
	})
	return p.slot
}

// Decomposition returns the resolved strategy, or nil before binding.
func (p *Positional) Decomposition() *Decomposition {
	return p.Slot().Load()
}

// HasNames reports whether any element carries a member name.
func (p *Positional) HasNames() bool {
	for _, e := range p.Elements {
		if e.Name != "" {
			return true
		}
	}
	return false
}

// FieldAccess matches named members against subpatterns. An empty mapping
// is the non-absent test.
type FieldAccess struct {
	Fields map[string]Pattern
}

// SortedNames returns the member names in a stable order.
func (p *FieldAccess) SortedNames() []string {
	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Not inverts its operand.
type Not struct {
	P Pattern
}

// And matches when both operands match; R is only evaluated when L matched.
type And struct {
	L, R Pattern
}

// Or matches when either operand matches; R is only evaluated when L failed.
type Or struct {
	L, R Pattern
}

// Designation is one entry of a var designation list: a name, the discard
// "_", or a nested parenthesised list.
type Designation struct {
	Name   string
	Nested *VarWithDesignation
}

// VarWithDesignation is `var (a, b, ...)`. It resolves exactly like a
// positional pattern of the same arity and shares its slot with the
// lowered form.
type VarWithDesignation struct {
	Designations []Designation

	lowerOnce sync.Once
	lowered   *Positional
}

// NewVar creates a var pattern with a parenthesised designation list.
func NewVar(designations ...Designation) *VarWithDesignation {
	return &VarWithDesignation{Designations: designations, lowered: lower(designations)}
}

func lower(designations []Designation) *Positional {
	elems := make([]Element, len(designations))
	for i, d := range designations {
		switch {
		case d.Nested != nil:
			elems[i] = Element{Pattern: d.Nested.AsPositional()}
		case d.Name == "_" || d.Name == "":
			elems[i] = Element{Pattern: &Discard{}}
		default:
			elems[i] = Element{Pattern: &Binding{Name: d.Name}}
		}
	}
	return NewPositional("", elems...)
}

// Names builds designations from plain names.
func Names(names ...string) []Designation {
	ds := make([]Designation, len(names))
	for i, n := range names {
		ds[i] = Designation{Name: n}
	}
	return ds
}

// AsPositional returns the equivalent positional pattern. It shares the
// node's slot, so resolving either resolves both.
func (v *VarWithDesignation) AsPositional() *Positional {
	v.lowerOnce.Do(func() {
		if v.lowered == nil {
			v.lowered = lower(v.Designations)
		}
	})
	return v.lowered
}

// Arity is the number of designations.
func (v *VarWithDesignation) Arity() int {
	return len(v.Designations)
}

// Slot returns the shared decomposition slot.
func (v *VarWithDesignation) Slot() *Slot {
	return v.AsPositional().Slot()
}

// Ident is an identifier occurrence the parser could not classify. Escaped
// is set for the "@name" form. Classification replaces every Ident before
// binding.
type Ident struct {
	Name    string
	Escaped bool
}

// EnumValue is a member of a finite enumerated type.
type EnumValue struct {
	Type   string
	Member string
}

func (e EnumValue) String() string { return e.Type + "." + e.Member }

func (*Discard) patternNode()            {}
func (*Binding) patternNode()            {}
func (*Constant) patternNode()           {}
func (*TypeTest) patternNode()           {}
func (*Relational) patternNode()         {}
func (*Positional) patternNode()         {}
func (*FieldAccess) patternNode()        {}
func (*Not) patternNode()                {}
func (*And) patternNode()                {}
func (*Or) patternNode()                 {}
func (*VarWithDesignation) patternNode() {}
func (*Ident) patternNode()              {}

func (*Discard) String() string   { return "_" }
func (p *Binding) String() string { return "var " + p.Name }
func (p *Constant) String() string {
	return galaerr.FormatValue(p.Value)
}
func (p *TypeTest) String() string {
	if p.Sub == nil {
		return p.Type.String()
	}
	return p.Type.String() + " " + p.Sub.String()
}
func (p *Relational) String() string {
	return string(p.Op) + " " + galaerr.FormatValue(p.Value)
}
func (p *Positional) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, e := range p.Elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		if e.Name != "" {
			sb.WriteString(e.Name)
			sb.WriteString(": ")
		}
		sb.WriteString(e.Pattern.String())
	}
	sb.WriteByte(')')
	if p.Designation != "" {
		sb.WriteByte(' ')
		sb.WriteString(p.Designation)
	}
	return sb.String()
}
func (p *FieldAccess) String() string {
	if len(p.Fields) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(p.Fields))
	for _, name := range p.SortedNames() {
		parts = append(parts, name+": "+p.Fields[name].String())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
func (p *Not) String() string { return "not " + p.P.String() }
func (p *And) String() string { return p.L.String() + " and " + p.R.String() }
func (p *Or) String() string  { return p.L.String() + " or " + p.R.String() }
func (v *VarWithDesignation) String() string {
	return "var " + designationString(v.Designations)
}
func (p *Ident) String() string {
	if p.Escaped {
		return "@" + p.Name
	}
	return p.Name
}

func designationString(ds []Designation) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		if d.Nested != nil {
			parts[i] = designationString(d.Nested.Designations)
		} else {
			parts[i] = d.Name
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
