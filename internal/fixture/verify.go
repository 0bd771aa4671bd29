package fixture

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/compiler"
	"martianoff/galamatch/internal/eval"
	"martianoff/galamatch/internal/registry"
)

// Report is the outcome of verifying one scenario.
type Report struct {
	Name     string
	Compiled *compiler.Compiled // nil when compilation failed
	Err      error              // the compile error, if any
	Runs     []RunResult
	// Mismatches lists every expectation that did not hold.
	Mismatches []string
}

// RunResult is the outcome of running one input.
type RunResult struct {
	Value   any
	Outcome eval.Outcome
	Err     error
}

// OK reports whether every expectation held.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

func (r *Report) mismatch(format string, args ...any) {
	r.Mismatches = append(r.Mismatches, fmt.Sprintf(format, args...))
}

// Verify compiles the scenario, runs its inputs and compares both against
// the expectations. Errors in the fixture itself are returned; failed
// expectations are recorded in the report.
func Verify(f *Fixture) (*Report, error) {
	rep := &Report{Name: f.Name}
	compiled, env, err := f.Compile()
	if env == nil {
		return nil, err
	}
	if err != nil {
		if len(errorTypes(err)) == 0 {
			return nil, err
		}
		rep.Err = err
		switch {
		case f.Expect.Error == "":
			rep.mismatch("unexpected compile error: %v", err)
		case !slices.Contains(errorTypes(err), galaerr.ErrorType(f.Expect.Error)):
			rep.mismatch("compile error %v, want %s", err, f.Expect.Error)
		}
		return rep, nil
	}
	rep.Compiled = compiled
	if f.Expect.Error != "" {
		rep.mismatch("construct compiled, want %s", f.Expect.Error)
		return rep, nil
	}

	checkVerdict(rep, f.Expect, compiled)
	for i := range f.Inputs {
		if err := runInput(rep, env, compiled, i, &f.Inputs[i]); err != nil {
			return nil, fmt.Errorf("%s: inputs[%d]: %w", f.path, i, err)
		}
	}
	return rep, nil
}

func checkVerdict(rep *Report, want Expect, c *compiler.Compiled) {
	v := c.Verdict
	if want.Exhaustive != nil && *want.Exhaustive != v.Exhaustive {
		rep.mismatch("exhaustive = %v, want %v", v.Exhaustive, *want.Exhaustive)
	}
	if want.Approximate != nil && *want.Approximate != v.Approximate {
		rep.mismatch("approximate = %v, want %v", v.Approximate, *want.Approximate)
	}
	if want.Subsumed != nil && !slices.Equal(want.Subsumed, v.Subsumed) {
		rep.mismatch("subsumed arms = %v, want %v", v.Subsumed, want.Subsumed)
	}
	if want.Missing != nil && !slices.Equal(want.Missing, v.Missing) {
		rep.mismatch("missing = %v, want %v", v.Missing, want.Missing)
	}
	if want.Warnings != nil {
		var got []string
		for _, d := range c.Diagnostics {
			got = append(got, d.Code)
		}
		if !slices.Equal(want.Warnings, got) {
			rep.mismatch("warnings = %v, want %v", got, want.Warnings)
		}
	}
	if want.Failure != "" && want.Failure != c.Plan.Kind.String() {
		rep.mismatch("failure = %s, want %s", c.Plan.Kind, want.Failure)
	}
	if want.NeedsGuard != nil && *want.NeedsGuard != c.NeedsFailureGuard {
		rep.mismatch("needs failure guard = %v, want %v", c.NeedsFailureGuard, *want.NeedsGuard)
	}
}

func runInput(rep *Report, rt *registry.Registry, c *compiler.Compiled, i int, in *Input) error {
	v, err := decodeValue(&in.Value)
	if err != nil {
		return err
	}
	out, runErr := c.Run(v)
	rep.Runs = append(rep.Runs, RunResult{Value: v, Outcome: out, Err: runErr})
	label := fmt.Sprintf("input %d (%s)", i, galaerr.FormatValue(v))

	if in.Error != "" {
		switch {
		case runErr == nil:
			rep.mismatch("%s: matched arm %d, want %s", label, out.Arm, in.Error)
		case !slices.Contains(errorTypes(runErr), galaerr.ErrorType(in.Error)):
			rep.mismatch("%s: error %v, want %s", label, runErr, in.Error)
		case in.Message != "" && !strings.Contains(runErr.Error(), in.Message):
			rep.mismatch("%s: error %q does not contain %q", label, runErr.Error(), in.Message)
		}
		return nil
	}
	if runErr != nil {
		rep.mismatch("%s: unexpected error: %v", label, runErr)
		return nil
	}
	if in.Arm != nil && *in.Arm != out.Arm {
		rep.mismatch("%s: arm = %d, want %d", label, out.Arm, *in.Arm)
	}
	if in.Result != nil && !reflect.DeepEqual(in.Result, out.Result) {
		rep.mismatch("%s: result = %v, want %v", label, out.Result, in.Result)
	}
	for name, node := range in.Bindings {
		want, err := decodeValue(&node)
		if err != nil {
			return fmt.Errorf("bindings.%s: %w", name, err)
		}
		got, ok := out.Bindings[name]
		switch {
		case !ok:
			rep.mismatch("%s: '%s' is not bound", label, name)
		case !rt.Equal(got, want):
			rep.mismatch("%s: %s = %s, want %s", label, name, galaerr.FormatValue(got), galaerr.FormatValue(want))
		}
	}
	return nil
}
