package fixture

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"martianoff/galamatch/internal/eval"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"
)

// decoder turns pattern and value nodes into their runtime form. Type names
// are resolved through parseType so declared type parameters are honoured.
type decoder struct {
	parseType func(string) types.Type
}

var relOps = []pattern.RelOp{pattern.OpLessEq, pattern.OpGreaterEq, pattern.OpLess, pattern.OpGreater}

// decodePattern builds a pattern from its YAML notation.
//
// Scalars:
//
//	_            the discard, or the constant/type "_" where one is in scope
//	@name        an escaped identifier
//	var x        a binding; "var _" discards
//	< 3          a relational test (<, <=, >, >=)
//	not p        negation of the scalar pattern p
//	Name         a constant or type in scope
//	1, true      a literal constant; null is the absent value
//
// Forms starting with a YAML indicator ("@_", "> 3") must be quoted; quoting
// does not change their meaning. String constants are written with const.
//
// A sequence is a positional pattern of its elements. Mappings select one
// form by key:
//
//	tuple: [p, ...]     names: [a, ...]   as: d
//	var: [x, [y, z]]
//	type: T             sub: p
//	fields: { X: p }
//	not: p   and: [p, q, ...]   or: [p, q, ...]
//	const: v            enum: Type.Member
func (d *decoder) decodePattern(n *yaml.Node) (pattern.Pattern, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return d.decodePattern(n.Alias)
	case yaml.ScalarNode:
		return d.scalarPattern(n)
	case yaml.SequenceNode:
		elems, err := d.patternList(n)
		if err != nil {
			return nil, err
		}
		return pattern.Tuple(elems...), nil
	case yaml.MappingNode:
		return d.mappingPattern(n)
	}
	return nil, fmt.Errorf("line %d: unsupported pattern node", n.Line)
}

func (d *decoder) scalarPattern(n *yaml.Node) (pattern.Pattern, error) {
	switch n.ShortTag() {
	case "!!null":
		return &pattern.Constant{}, nil
	case "!!int", "!!bool":
		v, err := scalarValue(n)
		if err != nil {
			return nil, err
		}
		return &pattern.Constant{Value: v}, nil
	case "!!str":
	default:
		return nil, fmt.Errorf("line %d: unsupported pattern literal %q", n.Line, n.Value)
	}
	s := strings.TrimSpace(n.Value)
	switch {
	case s == "_":
		return &pattern.Ident{Name: "_"}, nil
	case strings.HasPrefix(s, "@"):
		return &pattern.Ident{Name: s[1:], Escaped: true}, nil
	case strings.HasPrefix(s, "var "):
		name := strings.TrimSpace(s[len("var "):])
		if name == "_" {
			return &pattern.Discard{}, nil
		}
		return &pattern.Binding{Name: name}, nil
	case strings.HasPrefix(s, "not "):
		inner, err := parseScalar(s[len("not "):], n.Line)
		if err != nil {
			return nil, err
		}
		p, err := d.scalarPattern(inner)
		if err != nil {
			return nil, err
		}
		return &pattern.Not{P: p}, nil
	}
	for _, op := range relOps {
		if rest, ok := strings.CutPrefix(s, string(op)); ok {
			inner, err := parseScalar(rest, n.Line)
			if err != nil {
				return nil, err
			}
			v, err := scalarValue(inner)
			if err != nil {
				return nil, err
			}
			return &pattern.Relational{Op: op, Value: v}, nil
		}
	}
	return &pattern.Ident{Name: s}, nil
}

func (d *decoder) mappingPattern(n *yaml.Node) (pattern.Pattern, error) {
	m, err := mapping(n)
	if err != nil {
		return nil, err
	}
	switch {
	case m["tuple"] != nil:
		if err := onlyKeys(n, m, "tuple", "names", "as"); err != nil {
			return nil, err
		}
		return d.positional(m)
	case m["var"] != nil:
		if err := onlyKeys(n, m, "var"); err != nil {
			return nil, err
		}
		ds, err := designations(m["var"])
		if err != nil {
			return nil, err
		}
		return pattern.NewVar(ds...), nil
	case m["type"] != nil:
		if err := onlyKeys(n, m, "type", "sub"); err != nil {
			return nil, err
		}
		tt := &pattern.TypeTest{Type: d.parseType(m["type"].Value)}
		if sub := m["sub"]; sub != nil {
			if tt.Sub, err = d.decodePattern(sub); err != nil {
				return nil, err
			}
		}
		return tt, nil
	case m["fields"] != nil:
		if err := onlyKeys(n, m, "fields"); err != nil {
			return nil, err
		}
		return d.fieldAccess(m["fields"])
	case m["not"] != nil:
		if err := onlyKeys(n, m, "not"); err != nil {
			return nil, err
		}
		p, err := d.decodePattern(m["not"])
		if err != nil {
			return nil, err
		}
		return &pattern.Not{P: p}, nil
	case m["and"] != nil, m["or"] != nil:
		key := "and"
		if m["or"] != nil {
			key = "or"
		}
		if err := onlyKeys(n, m, key); err != nil {
			return nil, err
		}
		return d.combinator(key, m[key])
	case m["const"] != nil:
		if err := onlyKeys(n, m, "const"); err != nil {
			return nil, err
		}
		v, err := decodeValue(m["const"])
		if err != nil {
			return nil, err
		}
		return &pattern.Constant{Value: v}, nil
	case m["enum"] != nil:
		if err := onlyKeys(n, m, "enum"); err != nil {
			return nil, err
		}
		v, err := enumValue(m["enum"])
		if err != nil {
			return nil, err
		}
		return &pattern.Constant{Value: v}, nil
	}
	return nil, fmt.Errorf("line %d: pattern mapping has no recognised key", n.Line)
}

func (d *decoder) patternList(n *yaml.Node) ([]pattern.Pattern, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a sequence of patterns", n.Line)
	}
	out := make([]pattern.Pattern, len(n.Content))
	for i, c := range n.Content {
		p, err := d.decodePattern(c)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (d *decoder) positional(m map[string]*yaml.Node) (pattern.Pattern, error) {
	pats, err := d.patternList(m["tuple"])
	if err != nil {
		return nil, err
	}
	var names []string
	if nn := m["names"]; nn != nil {
		if err := nn.Decode(&names); err != nil {
			return nil, fmt.Errorf("line %d: names: %w", nn.Line, err)
		}
		if len(names) != len(pats) {
			return nil, fmt.Errorf("line %d: %d names for %d elements", nn.Line, len(names), len(pats))
		}
	}
	elems := make([]pattern.Element, len(pats))
	for i, p := range pats {
		elems[i] = pattern.Element{Pattern: p}
		if names != nil {
			elems[i].Name = names[i]
		}
	}
	designation := ""
	if as := m["as"]; as != nil {
		designation = as.Value
	}
	return pattern.NewPositional(designation, elems...), nil
}

func designations(n *yaml.Node) ([]pattern.Designation, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: var expects a sequence of names", n.Line)
	}
	out := make([]pattern.Designation, len(n.Content))
	for i, c := range n.Content {
		switch c.Kind {
		case yaml.ScalarNode:
			out[i] = pattern.Designation{Name: c.Value}
		case yaml.SequenceNode:
			nested, err := designations(c)
			if err != nil {
				return nil, err
			}
			out[i] = pattern.Designation{Nested: pattern.NewVar(nested...)}
		default:
			return nil, fmt.Errorf("line %d: unsupported designation", c.Line)
		}
	}
	return out, nil
}

func (d *decoder) fieldAccess(n *yaml.Node) (pattern.Pattern, error) {
	m, err := mapping(n)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]pattern.Pattern, len(m))
	for name, sub := range m {
		p, err := d.decodePattern(sub)
		if err != nil {
			return nil, err
		}
		fields[name] = p
	}
	return &pattern.FieldAccess{Fields: fields}, nil
}

func (d *decoder) combinator(key string, n *yaml.Node) (pattern.Pattern, error) {
	ps, err := d.patternList(n)
	if err != nil {
		return nil, err
	}
	if len(ps) < 2 {
		return nil, fmt.Errorf("line %d: %s needs at least two patterns", n.Line, key)
	}
	out := ps[0]
	for _, p := range ps[1:] {
		if key == "and" {
			out = &pattern.And{L: out, R: p}
		} else {
			out = &pattern.Or{L: out, R: p}
		}
	}
	return out, nil
}

// decodeValue builds a runtime value from its YAML notation: scalars decode
// to nil, bool, int or string; a sequence is an eval.Tuple; a mapping is
// either { enum: Type.Member } or an object
// { type: T, fields: { ... }, items: [ ... ] }.
func decodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.AliasNode:
		return decodeValue(n.Alias)
	case yaml.ScalarNode:
		return scalarValue(n)
	case yaml.SequenceNode:
		out := make(eval.Tuple, len(n.Content))
		for i, c := range n.Content {
			v, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.MappingNode:
		m, err := mapping(n)
		if err != nil {
			return nil, err
		}
		if e := m["enum"]; e != nil {
			if err := onlyKeys(n, m, "enum"); err != nil {
				return nil, err
			}
			return enumValue(e)
		}
		return object(n, m)
	}
	return nil, fmt.Errorf("line %d: unsupported value node", n.Line)
}

func object(n *yaml.Node, m map[string]*yaml.Node) (*eval.Object, error) {
	if err := onlyKeys(n, m, "type", "fields", "items"); err != nil {
		return nil, err
	}
	t := m["type"]
	if t == nil {
		return nil, fmt.Errorf("line %d: object value needs a type", n.Line)
	}
	obj := &eval.Object{Type: t.Value, Fields: map[string]any{}}
	if fn := m["fields"]; fn != nil {
		fields, err := mapping(fn)
		if err != nil {
			return nil, err
		}
		for name, fv := range fields {
			v, err := decodeValue(fv)
			if err != nil {
				return nil, err
			}
			obj.Fields[name] = v
		}
	}
	if in := m["items"]; in != nil {
		items, err := decodeValue(in)
		if err != nil {
			return nil, err
		}
		tuple, ok := items.(eval.Tuple)
		if !ok {
			return nil, fmt.Errorf("line %d: items must be a sequence", in.Line)
		}
		obj.Items = tuple
	}
	return obj, nil
}

func enumValue(n *yaml.Node) (pattern.EnumValue, error) {
	i := strings.LastIndex(n.Value, ".")
	if i <= 0 || i == len(n.Value)-1 {
		return pattern.EnumValue{}, fmt.Errorf("line %d: enum value %q is not of the form Type.Member", n.Line, n.Value)
	}
	return pattern.EnumValue{Type: n.Value[:i], Member: n.Value[i+1:]}, nil
}

func scalarValue(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

// parseScalar re-reads a fragment of a scalar so its tag is resolved again.
func parseScalar(s string, line int) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(strings.TrimSpace(s)), &doc); err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}
	if len(doc.Content) != 1 || doc.Content[0].Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: %q is not a scalar", line, s)
	}
	n := doc.Content[0]
	n.Line = line
	return n, nil
}

func mapping(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		m[n.Content[i].Value] = n.Content[i+1]
	}
	return m, nil
}

func onlyKeys(n *yaml.Node, m map[string]*yaml.Node, allowed ...string) error {
	for k := range m {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("line %d: unexpected key %q", n.Line, k)
		}
	}
	return nil
}

// ParseValue decodes a runtime value written in the value notation,
// e.g. "[1, true]" or "{type: Point, fields: {X: 1}}".
func ParseValue(src string) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, fmt.Errorf("parsing value %q: %w", src, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return decodeValue(doc.Content[0])
}
