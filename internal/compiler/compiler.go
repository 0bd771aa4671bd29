// Package compiler runs the match pipeline over one construct: classify
// identifiers, bind positional patterns, analyse coverage and choose the
// failure signal.
package compiler

import (
	"fmt"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/binder"
	"martianoff/galamatch/internal/coverage"
	"martianoff/galamatch/internal/eval"
	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/resolver"
	"martianoff/galamatch/internal/types"
)

// Environment is everything the pipeline asks of the surrounding program.
type Environment interface {
	types.Query
	binder.Scope
	eval.Runtime
}

// Options configures a Compiler.
type Options struct {
	MethodName string // Decomposition method name; DefaultMethodName when empty
	MaxPoints  int    // Coverage enumeration cap; DefaultMaxPoints when zero
}

// Compiler orchestrates the pipeline. Decompositions are memoised across
// every construct compiled by the same Compiler.
type Compiler struct {
	env      Environment
	resolver *resolver.Resolver
	binder   *binder.Binder
	coverage *coverage.Engine
}

// NewCompiler creates a new Compiler over env.
func NewCompiler(env Environment, opts Options) *Compiler {
	res := resolver.NewResolver(env, opts.MethodName)
	return &Compiler{
		env:      env,
		resolver: res,
		binder:   binder.NewBinder(env, env, res),
		coverage: coverage.NewEngine(env, coverage.Options{MaxPoints: opts.MaxPoints}),
	}
}

// Resolver exposes the compilation's decomposition resolver.
func (c *Compiler) Resolver() *resolver.Resolver {
	return c.resolver
}

// Compiled is a construct ready to run, together with its analysis.
type Compiled struct {
	Construct   *pattern.Construct
	Diagnostics []galaerr.Diagnostic
	Verdict     *coverage.Verdict
	Plan        eval.FailurePlan
	// NeedsFailureGuard is set when running off the last arm is possible
	// for an expression-form construct.
	NeedsFailureGuard bool

	evaluator *eval.Evaluator
}

// Compile classifies and binds every arm of in, then analyses coverage.
// Errors from all arms are reported together. The input construct is not
// modified; the returned one holds the rewritten patterns.
func (c *Compiler) Compile(in *pattern.Construct) (*Compiled, error) {
	if in.Input == nil {
		return nil, galaerr.NewSemanticError("the match construct has no input type")
	}
	ctx := binder.ContextFor(in.Form)
	out := &pattern.Construct{
		Input:        in.Input,
		Form:         in.Form,
		TupleLiteral: in.TupleLiteral,
		Arms:         make([]pattern.Arm, len(in.Arms)),
	}

	var diags []galaerr.Diagnostic
	var errs galaerr.MultiError
	for i, arm := range in.Arms {
		p, d, err := c.binder.Classify(arm.Pattern, ctx, i)
		diags = append(diags, d...)
		if err != nil {
			errs.Errors = append(errs.Errors, annotate(i, err)...)
			continue
		}
		d, err = c.binder.Bind(p, in.Input, i)
		diags = append(diags, d...)
		if err != nil {
			errs.Errors = append(errs.Errors, annotate(i, err)...)
		}
		out.Arms[i] = pattern.Arm{Pattern: p, Guard: arm.Guard, Result: arm.Result}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	verdict := c.coverage.CheckExhaustiveness(out.Input, out.Arms)
	if out.Form != pattern.FormIs {
		for _, i := range verdict.Subsumed {
			diags = append(diags, galaerr.NewWarning(galaerr.CodeSubsumedArm, i,
				"the pattern has already been handled by a previous arm"))
		}
	}
	if out.Form == pattern.FormExpression && !verdict.Exhaustive {
		msg := "the switch expression does not handle all possible values of its input type '%s'"
		args := []any{out.Input}
		if len(verdict.Missing) > 0 && !verdict.Approximate {
			msg += "; for example, the pattern '%s' is not covered"
			args = append(args, verdict.Missing[0])
		}
		diags = append(diags, galaerr.NewWarning(galaerr.CodeNotExhaustive, -1, msg, args...))
	}

	return &Compiled{
		Construct:         out,
		Diagnostics:       diags,
		Verdict:           verdict,
		Plan:              eval.PlanFailure(c.env, out),
		NeedsFailureGuard: out.Form == pattern.FormExpression && (!verdict.Exhaustive || c.env.IsAbsentable(out.Input)),
		evaluator:         eval.NewEvaluator(c.env),
	}, nil
}

// annotate flattens err and prefixes every entry with its arm.
func annotate(arm int, err error) []error {
	var list []error
	if multi, ok := err.(*galaerr.MultiError); ok {
		list = multi.Errors
	} else {
		list = []error{err}
	}
	out := make([]error, len(list))
	for i, e := range list {
		out[i] = &ArmError{Arm: arm, Err: e}
	}
	return out
}

// ArmError attaches an arm index to a compile error.
type ArmError struct {
	Arm int
	Err error
}

func (e *ArmError) Error() string {
	return fmt.Sprintf("arm %d: %v", e.Arm, e.Err)
}

func (e *ArmError) Unwrap() error {
	return e.Err
}

// Run evaluates the compiled construct against v.
func (c *Compiled) Run(v any) (eval.Outcome, error) {
	return c.evaluator.Run(c.Construct, c.Plan, v)
}

// Warnings returns the diagnostics with the given code.
func (c *Compiled) Warnings(code string) []galaerr.Diagnostic {
	var out []galaerr.Diagnostic
	for _, d := range c.Diagnostics {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}
