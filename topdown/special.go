// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/open-policy-agent/rdfexpr/ast"
)

// arity is the argument count contract of a functional form. It is checked
// once, when the expression is compiled.
type arity struct {
	fixed    []int
	variadic bool
	min      int
}

func fixedArity(n ...int) arity { return arity{fixed: n} }
func variadic(m int) arity      { return arity{variadic: true, min: m} }

func (a arity) accepts(n int) bool {
	if a.variadic {
		return n >= a.min
	}
	return slices.Contains(a.fixed, n)
}

func (a arity) String() string {
	if a.variadic {
		return fmt.Sprintf("at least %d", a.min)
	}
	parts := make([]string, len(a.fixed))
	for i, n := range a.fixed {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " or ")
}

// specialFunc evaluates a functional form. It receives the unevaluated
// arguments and decides itself which of them to evaluate, and in which
// order.
type specialFunc func(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) (ast.Term, error)

type specialForm struct {
	arity arity
	eval  specialFunc
}

// specialForms holds the functional forms by name. It is populated in init
// since the forms call back into the evaluator.
var specialForms = map[string]*specialForm{}

func registerSpecialForm(name string, a arity, fn specialFunc) {
	specialForms[name] = &specialForm{arity: a, eval: fn}
}

// evalBound inspects the binding directly. The compiler guarantees that
// the argument is a variable.
func evalBound(_ context.Context, _ *evaluator, args []ast.Expression, b ast.Binding) (ast.Term, error) {
	return ast.Bool(b.Has(args[0].(*ast.Variable).Name)), nil
}

func evalIf(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) (ast.Term, error) {
	cond, err := e.evalEBV(ctx, args[0], b)
	if err != nil {
		return nil, err
	}
	if cond {
		return e.eval(ctx, args[1], b)
	}
	return e.eval(ctx, args[2], b)
}

func evalCoalesce(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) (ast.Term, error) {
	var errs []error
	for _, arg := range args {
		t, err := e.eval(ctx, arg, b)
		if err == nil {
			return t, nil
		}
		errs = append(errs, err)
	}
	return nil, coalesceErr(errs)
}

// evalLogical implements && and ||. decisive is the left value that settles
// the result without evaluating the right operand: false for && and true
// for ||. A failing left operand is overridden by a decisive right operand.
func evalLogical(decisive bool) specialFunc {
	return func(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) (ast.Term, error) {
		left, lerr := e.evalEBV(ctx, args[0], b)
		if lerr == nil && left == decisive {
			return ast.Bool(decisive), nil
		}
		right, rerr := e.evalEBV(ctx, args[1], b)
		switch {
		case lerr != nil:
			if rerr == nil && right == decisive {
				return ast.Bool(decisive), nil
			}
			return nil, lerr
		case rerr != nil:
			return nil, rerr
		}
		return ast.Bool(right), nil
	}
}

// evalIn tests the first argument against the others with =. A match wins
// over failed comparisons; no match with at least one failure is an error.
func evalIn(negate bool) specialFunc {
	return func(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) (ast.Term, error) {
		needle, err := e.eval(ctx, args[0], b)
		if err != nil {
			return nil, err
		}
		var errs []error
		for _, arg := range args[1:] {
			candidate, err := e.eval(ctx, arg, b)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			r, err := applyOperator(e.bctx, ast.Equal, needle, candidate)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if eq, ok := r.(*ast.BooleanLiteral); ok && eq.Value {
				return ast.Bool(!negate), nil
			}
		}
		if len(errs) > 0 {
			return nil, inErr(errs)
		}
		return ast.Bool(negate), nil
	}
}

func evalSameTerm(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) (ast.Term, error) {
	terms, err := e.runner.evalAll(ctx, e, args, b)
	if err != nil {
		return nil, err
	}
	return ast.Bool(sameTerm(terms[0], terms[1])), nil
}

// evalConcat joins string arguments. The result carries a language tag
// only if every argument carries the same one.
func evalConcat(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) (ast.Term, error) {
	terms, err := e.runner.evalAll(ctx, e, args, b)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	lang, shared := "", true
	for i, t := range terms {
		l, ok := t.(ast.Literal)
		if !ok || ast.IsNonLexical(t) || !ast.IsStringly(l) {
			return nil, invalidArgumentTypesErr(ast.Concat, terms)
		}
		sb.WriteString(l.Str())
		switch {
		case i == 0:
			lang = l.Language()
		case !sameLanguage(lang, l.Language()):
			shared = false
		}
	}
	if shared && lang != "" {
		return ast.NewLangString(sb.String(), lang), nil
	}
	return ast.NewString(sb.String()), nil
}

func evalBNode(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) (ast.Term, error) {
	if len(args) == 0 {
		return ast.NewBlankNode(e.blankNodes.Next()), nil
	}
	seed, err := e.eval(ctx, args[0], b)
	if err != nil {
		return nil, err
	}
	s, ok := seed.(*ast.StringLiteral)
	if !ok {
		return nil, invalidArgumentTypesErr(ast.BNode, []ast.Term{seed})
	}
	return ast.NewBlankNode(e.blankNodes.Seeded(s.Value)), nil
}

func init() {
	registerSpecialForm(ast.Bound, fixedArity(1), evalBound)
	registerSpecialForm(ast.If, fixedArity(3), evalIf)
	registerSpecialForm(ast.Coalesce, variadic(0), evalCoalesce)
	registerSpecialForm(ast.And, fixedArity(2), evalLogical(false))
	registerSpecialForm(ast.Or, fixedArity(2), evalLogical(true))
	registerSpecialForm(ast.In, variadic(1), evalIn(false))
	registerSpecialForm(ast.NotIn, variadic(1), evalIn(true))
	registerSpecialForm(ast.SameTerm, fixedArity(2), evalSameTerm)
	registerSpecialForm(ast.Concat, variadic(0), evalConcat)
	registerSpecialForm(ast.BNode, fixedArity(0, 1), evalBNode)
}
