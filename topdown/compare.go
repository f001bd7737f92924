// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"cmp"
	"math"
	"strings"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/types"
)

func isEq(c int) bool { return c == 0 }
func isLt(c int) bool { return c < 0 }

// compareNumeric orders two numeric values. Values of the float families are
// compared in binary floating point, others exactly. The result is false
// when either value is NaN.
func compareNumeric(a, b ast.Numeric) (int, bool) {
	if isFloating(a) || isFloating(b) {
		x, y := a.Float64(), b.Float64()
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, false
		}
		return cmp.Compare(x, y), true
	}
	x, _ := a.Rat()
	y, _ := b.Rat()
	return x.Cmp(y), true
}

func isFloating(n ast.Numeric) bool {
	switch n.(type) {
	case *ast.FloatLiteral, *ast.DoubleLiteral:
		return true
	}
	return false
}

// compareStrings orders strings by Unicode code point.
func compareStrings(a, b string) int {
	return strings.Compare(a, b)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func compareInt64(a, b int64) int {
	return cmp.Compare(a, b)
}

func sameLanguage(a, b string) bool {
	return strings.EqualFold(a, b)
}

// sameTerm reports whether two terms are identical RDF terms: same kind,
// same lexical form, datatype and language for literals, and identical
// components for quads.
func sameTerm(a, b ast.Term) bool {
	if a.TermType() != b.TermType() {
		return false
	}
	switch x := a.(type) {
	case ast.Literal:
		y := b.(ast.Literal)
		return x.Str() == y.Str() && x.DataType() == y.DataType() && sameLanguage(x.Language(), y.Language())
	case *ast.Quad:
		y := b.(*ast.Quad)
		xs, ys := x.Components(), y.Components()
		for i := range xs {
			if !sameTerm(xs[i], ys[i]) {
				return false
			}
		}
		return true
	}
	return a.Str() == b.Str()
}

// rdfTermEqual is the fallback equality of terms without a value
// comparison. Distinct literals are not known to be unequal, so comparing
// them is a type error.
func rdfTermEqual(_ *BuiltinContext, a, b ast.Term) (ast.Term, error) {
	if sameTerm(a, b) {
		return ast.True, nil
	}
	_, al := a.(ast.Literal)
	_, bl := b.(ast.Literal)
	if al && bl {
		return nil, rdfEqualTypeErr(a, b)
	}
	return ast.False, nil
}

func equalQuads(bctx *BuiltinContext, a, b ast.Term) (ast.Term, error) {
	xs, ys := a.(*ast.Quad).Components(), b.(*ast.Quad).Components()
	for i := range xs {
		r, err := applyOperator(bctx, ast.Equal, xs[i], ys[i])
		if err != nil {
			return nil, err
		}
		if !r.(*ast.BooleanLiteral).Value {
			return ast.False, nil
		}
	}
	return ast.True, nil
}

// lessThanQuads orders quads by their first differing component.
func lessThanQuads(bctx *BuiltinContext, a, b ast.Term) (ast.Term, error) {
	xs, ys := a.(*ast.Quad).Components(), b.(*ast.Quad).Components()
	for i := range xs {
		if c := compareInternal(bctx, xs[i], ys[i]); c != 0 {
			return ast.Bool(c < 0), nil
		}
	}
	return ast.False, nil
}

func equalLangStrings(_ *BuiltinContext, a, b ast.Term) (ast.Term, error) {
	x, y := a.(ast.Literal), b.(ast.Literal)
	return ast.Bool(x.Str() == y.Str() && sameLanguage(x.Language(), y.Language())), nil
}

func equalDurations(_ *BuiltinContext, a, b ast.Term) (ast.Term, error) {
	return ast.Bool(durationValue(a) == durationValue(b)), nil
}

func alwaysFalse(*BuiltinContext, ast.Term, ast.Term) (ast.Term, error) {
	return ast.False, nil
}

// negation derives an operator returning the complement of primitive.
func negation(primitive string) builtinFunc {
	return func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
		r, err := applyOperator(bctx, primitive, args...)
		if err != nil {
			return nil, err
		}
		return ast.Bool(!r.(*ast.BooleanLiteral).Value), nil
	}
}

// swapped derives an operator applying primitive with its arguments swapped.
func swapped(primitive string) builtinFunc {
	return func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
		return applyOperator(bctx, primitive, args[1], args[0])
	}
}

// either derives an operator that holds when first or second holds. second
// is only applied when first does not hold.
func either(first, second string) builtinFunc {
	return func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
		r, err := applyOperator(bctx, first, args...)
		if err != nil {
			return nil, err
		}
		if r.(*ast.BooleanLiteral).Value {
			return r, nil
		}
		return applyOperator(bctx, second, args...)
	}
}

var terms2 = []string{types.Term, types.Term}

func init() {
	RegisterOperator(declare(ast.Equal).
		numericTest(isEq).
		stringTest(isEq).
		onBinary(types.RDFLangString, types.RDFLangString, equalLangStrings).
		onBinary(types.Stringly, types.Stringly, alwaysFalse).
		booleanTest(isEq).
		temporalTest(isEq).
		onBinary(types.XSDDuration, types.XSDDuration, equalDurations).
		onBinary(types.Quad, types.Quad, equalQuads).
		setLenient(terms2, func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
			return rdfTermEqual(bctx, args[0], args[1])
		}).
		collect())

	RegisterOperator(declare(ast.LessThan).
		numericTest(isLt).
		stringTest(isLt).
		booleanTest(isLt).
		temporalTest(isLt).
		durationTest(isLt).
		onBinary(types.Quad, types.Quad, lessThanQuads).
		collect())

	RegisterOperator(declare(ast.NotEqual).setLenient(terms2, negation(ast.Equal)).collect())
	RegisterOperator(declare(ast.GreaterThan).setLenient(terms2, swapped(ast.LessThan)).collect())
	RegisterOperator(declare(ast.LessThanEq).setLenient(terms2, either(ast.LessThan, ast.Equal)).collect())
	RegisterOperator(declare(ast.GreaterEq).setLenient(terms2, either(ast.GreaterThan, ast.Equal)).collect())
}
