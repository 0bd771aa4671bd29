// Package fixture loads match scenarios from YAML. A fixture declares the
// environment a construct is compiled against (types, methods, constants,
// the indexable protocol and the failure type), the construct itself, the
// inputs to run through it, and the analysis the construct is expected to
// produce.
//
// A minimal fixture:
//
//	construct:
//	  input: (bool, bool)
//	  arms:
//	    - pattern: [false, _]
//	    - pattern: [true, var y]
//	inputs:
//	  - value: [true, false]
//	    arm: 1
//	    bindings: { y: false }
//	expect:
//	  exhaustive: true
//
// The pattern and value notations are described on decodePattern and
// decodeValue.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/registry"
	"martianoff/galamatch/internal/resolver"
)

// Fixture is the top-level document of a scenario file.
type Fixture struct {
	// Name identifies the scenario in reports. Defaults to the file name.
	Name string `yaml:"name,omitempty"`

	// Options tune the compiler for this scenario.
	Options Options `yaml:"options,omitempty"`

	// Environment is what the construct is compiled against.
	Environment Environment `yaml:"environment,omitempty"`

	// Construct is the match under test.
	Construct Construct `yaml:"construct"`

	// Inputs are run through the compiled construct in order.
	Inputs []Input `yaml:"inputs,omitempty"`

	// Expect is the expected compile-time analysis. Omitted fields are not
	// checked.
	Expect Expect `yaml:"expect,omitempty"`

	path string
}

// Options mirror compiler.Options.
type Options struct {
	// MaxPoints caps coverage enumeration. Zero selects the default.
	MaxPoints int `yaml:"maxPoints,omitempty"`

	// Method is the decomposition method name. Defaults to "Deconstruct".
	Method string `yaml:"method,omitempty"`
}

// Environment declares the names visible to the construct.
type Environment struct {
	// Prelude declares the standard protocol and failure type unless they
	// are given explicitly. Defaults to true.
	Prelude *bool `yaml:"prelude,omitempty"`

	// Protocol overrides the prelude protocol declaration.
	Protocol *ProtocolSpec `yaml:"protocol,omitempty"`

	// Failure overrides the prelude failure type.
	Failure *FailureSpec `yaml:"failure,omitempty"`

	Types      []TypeSpec      `yaml:"types,omitempty"`
	Extensions []MethodSpec    `yaml:"extensions,omitempty"`
	Constants  []ConstantSpec  `yaml:"constants,omitempty"`
	TypeParams []TypeParamSpec `yaml:"typeParams,omitempty"`
}

// ProtocolSpec declares the indexable protocol.
type ProtocolSpec struct {
	Name     string `yaml:"name,omitempty"`
	Kind     string `yaml:"kind,omitempty"`
	Length   bool   `yaml:"length"`
	Indexer  bool   `yaml:"indexer"`
	Obsolete string `yaml:"obsolete,omitempty"`
}

// FailureSpec declares the match-failure type. An empty name declares none.
type FailureSpec struct {
	Name      string `yaml:"name,omitempty"`
	NoArgCtor bool   `yaml:"noArgCtor,omitempty"`
	ValueCtor bool   `yaml:"valueCtor,omitempty"`
}

// TypeSpec declares a named type.
type TypeSpec struct {
	Name       string            `yaml:"name"`
	Kind       string            `yaml:"kind,omitempty"`
	Implements []string          `yaml:"implements,omitempty"`
	Fields     map[string]string `yaml:"fields,omitempty"`
	Members    []string          `yaml:"members,omitempty"`
	Methods    []MethodSpec      `yaml:"methods,omitempty"`
}

// MethodSpec declares a decomposition candidate. Extensions carry an Owner.
//
// At run time the method reads the named fields of the receiver object in
// order, or its positional items when Items is set. A method with neither
// and with out-parameters has no runtime implementation.
type MethodSpec struct {
	Name     string   `yaml:"name,omitempty"`
	Owner    string   `yaml:"owner,omitempty"`
	Outs     []string `yaml:"outs,omitempty"`
	OutNames []string `yaml:"outNames,omitempty"`
	Return   string   `yaml:"return,omitempty"`
	Static   bool     `yaml:"static,omitempty"`
	Private  bool     `yaml:"private,omitempty"`
	Reads    []string `yaml:"reads,omitempty"`
	Items    bool     `yaml:"items,omitempty"`
}

// ConstantSpec declares a named constant. Value uses the value notation.
type ConstantSpec struct {
	Name  string    `yaml:"name"`
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// TypeParamSpec declares a type parameter and its constraints.
type TypeParamSpec struct {
	Name        string   `yaml:"name"`
	Constraints []string `yaml:"constraints,omitempty"`
}

// Construct describes the match construct.
type Construct struct {
	Input        string    `yaml:"input"`
	Form         string    `yaml:"form,omitempty"`
	TupleLiteral bool      `yaml:"tupleLiteral,omitempty"`
	Arms         []ArmSpec `yaml:"arms"`
}

// ArmSpec is one arm. Pattern uses the pattern notation; Result is returned
// verbatim when the arm is selected.
type ArmSpec struct {
	Pattern yaml.Node  `yaml:"pattern"`
	Guard   *GuardSpec `yaml:"guard,omitempty"`
	Result  any        `yaml:"result,omitempty"`
}

// GuardSpec compares a bound variable with a value. Op is one of
// "<", "<=", ">", ">=", "==" and "!=".
type GuardSpec struct {
	Var   string    `yaml:"var"`
	Op    string    `yaml:"op"`
	Value yaml.Node `yaml:"value"`
}

// Input is a value to run and its expected outcome. Arm is -1 for a
// statement or `is` construct that matches nothing. Error names the
// galaerr.ErrorType the run must fail with.
type Input struct {
	Value    yaml.Node            `yaml:"value"`
	Arm      *int                 `yaml:"arm,omitempty"`
	Result   any                  `yaml:"result,omitempty"`
	Bindings map[string]yaml.Node `yaml:"bindings,omitempty"`
	Error    string               `yaml:"error,omitempty"`
	Message  string               `yaml:"message,omitempty"`
}

// Expect is the expected analysis of the construct.
type Expect struct {
	Error       string   `yaml:"error,omitempty"`
	Exhaustive  *bool    `yaml:"exhaustive,omitempty"`
	Approximate *bool    `yaml:"approximate,omitempty"`
	Subsumed    []int    `yaml:"subsumed,omitempty"`
	Missing     []string `yaml:"missing,omitempty"`
	Warnings    []string `yaml:"warnings,omitempty"`
	Failure     string   `yaml:"failure,omitempty"`
	NeedsGuard  *bool    `yaml:"needsGuard,omitempty"`
}

// LoadFixture reads and parses a scenario file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	return ParseFixture(data, path)
}

// ParseFixture parses scenario content from bytes.
// The path argument is used only for error messages and the default name.
func ParseFixture(data []byte, path string) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.path = path
	if err := f.validate(); err != nil {
		return nil, err
	}
	f.setDefaults()
	return &f, nil
}

// FindFixtures returns the scenario files in dir, sorted by name.
func FindFixtures(dir string) ([]string, error) {
	var paths []string
	for _, pat := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, fmt.Errorf("listing fixtures in %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

var guardOps = []string{"<", "<=", ">", ">=", "==", "!="}

var failureKinds = []string{"invalid operation", "failure type with value", "failure type without value"}

// validate checks the fixture for semantic errors.
func (f *Fixture) validate() error {
	path := f.path
	if f.Construct.Input == "" {
		return fmt.Errorf("%s: construct: input is required", path)
	}
	if _, ok := pattern.ParseForm(f.Construct.Form); !ok {
		return fmt.Errorf("%s: construct: unknown form %q", path, f.Construct.Form)
	}
	if f.Options.MaxPoints < 0 {
		return fmt.Errorf("%s: options: maxPoints must not be negative", path)
	}
	for i, arm := range f.Construct.Arms {
		if arm.Pattern.Kind == 0 {
			return fmt.Errorf("%s: construct.arms[%d]: pattern is required", path, i)
		}
		if g := arm.Guard; g != nil {
			if g.Var == "" {
				return fmt.Errorf("%s: construct.arms[%d].guard: var is required", path, i)
			}
			if !slices.Contains(guardOps, g.Op) {
				return fmt.Errorf("%s: construct.arms[%d].guard: unknown operator %q", path, i, g.Op)
			}
		}
	}

	seen := make(map[string]bool)
	for i, t := range f.Environment.Types {
		if t.Name == "" {
			return fmt.Errorf("%s: environment.types[%d]: name is required", path, i)
		}
		if seen[t.Name] {
			return fmt.Errorf("%s: environment.types[%d]: type %q declared twice", path, i, t.Name)
		}
		seen[t.Name] = true
		if _, ok := registry.ParseKind(t.Kind); !ok {
			return fmt.Errorf("%s: environment.types[%d] (%s): unknown kind %q", path, i, t.Name, t.Kind)
		}
		for j, m := range t.Methods {
			if err := m.validate(); err != nil {
				return fmt.Errorf("%s: environment.types[%d].methods[%d] (%s): %w", path, i, j, t.Name, err)
			}
		}
	}
	for i, m := range f.Environment.Extensions {
		if m.Owner == "" {
			return fmt.Errorf("%s: environment.extensions[%d]: owner is required", path, i)
		}
		if err := m.validate(); err != nil {
			return fmt.Errorf("%s: environment.extensions[%d] (%s): %w", path, i, m.Owner, err)
		}
	}
	for i, c := range f.Environment.Constants {
		if c.Name == "" || c.Type == "" {
			return fmt.Errorf("%s: environment.constants[%d]: name and type are required", path, i)
		}
	}
	if p := f.Environment.Protocol; p != nil {
		if _, ok := registry.ParseKind(p.Kind); !ok {
			return fmt.Errorf("%s: environment.protocol: unknown kind %q", path, p.Kind)
		}
	}

	for i, in := range f.Inputs {
		if in.Value.Kind == 0 {
			return fmt.Errorf("%s: inputs[%d]: value is required", path, i)
		}
		if in.Error != "" && (in.Arm != nil || in.Bindings != nil) {
			return fmt.Errorf("%s: inputs[%d]: error and arm/bindings are mutually exclusive", path, i)
		}
	}
	if f.Expect.Failure != "" && !slices.Contains(failureKinds, f.Expect.Failure) {
		return fmt.Errorf("%s: expect: unknown failure kind %q", path, f.Expect.Failure)
	}
	if f.Expect.Error != "" && (len(f.Inputs) > 0 || f.Expect.Exhaustive != nil) {
		return fmt.Errorf("%s: expect: a construct that fails to compile has no inputs or verdict", path)
	}
	return nil
}

func (m *MethodSpec) validate() error {
	if m.Items && len(m.Reads) > 0 {
		return fmt.Errorf("method %s: reads and items are mutually exclusive", m.Name)
	}
	if len(m.Reads) > 0 && len(m.Reads) != len(m.Outs) {
		return fmt.Errorf("method %s: reads %d fields for %d out-parameters", m.Name, len(m.Reads), len(m.Outs))
	}
	if len(m.OutNames) > 0 && len(m.OutNames) != len(m.Outs) {
		return fmt.Errorf("method %s: %d out-parameter names for %d out-parameters", m.Name, len(m.OutNames), len(m.Outs))
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (f *Fixture) setDefaults() {
	if f.Name == "" {
		f.Name = filepath.Base(f.path)
	}
	if f.Options.Method == "" {
		f.Options.Method = resolver.DefaultMethodName
	}
	if f.Environment.Prelude == nil {
		prelude := true
		f.Environment.Prelude = &prelude
	}
	for i := range f.Environment.Types {
		for j := range f.Environment.Types[i].Methods {
			f.Environment.Types[i].Methods[j].setDefaults(f.Options.Method)
		}
	}
	for i := range f.Environment.Extensions {
		f.Environment.Extensions[i].setDefaults(f.Options.Method)
	}
}

func (m *MethodSpec) setDefaults(method string) {
	if m.Name == "" {
		m.Name = method
	}
	if m.Return == "" {
		m.Return = "void"
	}
}

// Path returns the file the fixture was parsed from.
func (f *Fixture) Path() string {
	return f.path
}

// ExpectsCompileError reports whether the construct must fail to compile.
func (f *Fixture) ExpectsCompileError() bool {
	return f.Expect.Error != ""
}

// errorTypes lists the galaerr types found anywhere in err's tree.
func errorTypes(err error) []galaerr.ErrorType {
	var out []galaerr.ErrorType
	switch x := err.(type) {
	case nil:
		return nil
	case *galaerr.MultiError:
		for _, e := range x.Errors {
			out = append(out, errorTypes(e)...)
		}
		return out
	case galaerr.GalaError:
		return []galaerr.ErrorType{x.Type()}
	case interface{ Unwrap() error }:
		return errorTypes(x.Unwrap())
	}
	return nil
}
