// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"math/big"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/topdown/overload"
	"github.com/open-policy-agent/rdfexpr/types"
)

type (
	unaryFunc   func(bctx *BuiltinContext, a ast.Term) (ast.Term, error)
	binaryFunc  func(bctx *BuiltinContext, a, b ast.Term) (ast.Term, error)
	ternaryFunc func(bctx *BuiltinContext, a, b, c ast.Term) (ast.Term, error)
)

// builder declares the overloads of one operator. Operators are composed
// from its primitives so that promotion, substitution and lexical checks
// behave the same everywhere.
type builder struct {
	tree *builtinTree
}

func declare(id string) *builder {
	return &builder{tree: overload.New[*BuiltinContext](id)}
}

func (b *builder) collect() *builtinTree {
	return b.tree
}

// set registers fn. Literal arguments with an invalid lexical form are
// rejected with a type error before fn runs.
func (b *builder) set(argTypes []string, fn builtinFunc) *builder {
	b.tree.Add(argTypes, checkLexical(fn))
	return b
}

// setLenient registers fn without the lexical form check.
func (b *builder) setLenient(argTypes []string, fn builtinFunc) *builder {
	b.tree.Add(argTypes, fn)
	return b
}

func checkLexical(fn builtinFunc) builtinFunc {
	return func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
		for _, a := range args {
			if nl, ok := a.(*ast.NonLexicalLiteral); ok {
				return nil, invalidLexicalFormErr(nl)
			}
		}
		return fn(bctx, args)
	}
}

func (b *builder) onUnary(typ string, fn unaryFunc) *builder {
	return b.set([]string{typ}, func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
		return fn(bctx, args[0])
	})
}

func (b *builder) onBinary(t1, t2 string, fn binaryFunc) *builder {
	return b.set([]string{t1, t2}, func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
		return fn(bctx, args[0], args[1])
	})
}

func (b *builder) onTernary(t1, t2, t3 string, fn ternaryFunc) *builder {
	return b.set([]string{t1, t2, t3}, func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
		return fn(bctx, args[0], args[1], args[2])
	})
}

// onTerm1 accepts any term, including literals with invalid lexical forms.
func (b *builder) onTerm1(fn unaryFunc) *builder {
	return b.setLenient([]string{types.Term}, func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
		return fn(bctx, args[0])
	})
}

// onLiteral1 accepts any literal, including literals with invalid lexical
// forms.
func (b *builder) onLiteral1(fn func(*BuiltinContext, ast.Literal) (ast.Term, error)) *builder {
	return b.setLenient([]string{types.Literal}, func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
		return fn(bctx, args[0].(ast.Literal))
	})
}

func (b *builder) onBoolean1(fn func(*BuiltinContext, bool) (ast.Term, error)) *builder {
	return b.onUnary(types.XSDBoolean, func(bctx *BuiltinContext, a ast.Term) (ast.Term, error) {
		return fn(bctx, a.(*ast.BooleanLiteral).Value)
	})
}

// onString1 accepts xsd:string and, through promotion, xsd:anyURI.
func (b *builder) onString1(fn func(*BuiltinContext, string) (ast.Term, error)) *builder {
	return b.onUnary(types.XSDString, func(bctx *BuiltinContext, a ast.Term) (ast.Term, error) {
		return fn(bctx, a.(ast.Literal).Str())
	})
}

// onStringly1 accepts simple and language-tagged strings.
func (b *builder) onStringly1(fn func(*BuiltinContext, ast.Literal) (ast.Term, error)) *builder {
	wrapped := func(bctx *BuiltinContext, a ast.Term) (ast.Term, error) {
		return fn(bctx, a.(ast.Literal))
	}
	return b.onUnary(types.XSDString, wrapped).onUnary(types.RDFLangString, wrapped)
}

// onStringly2 accepts two string arguments that are argument compatible: two
// simple strings, two language-tagged strings with the same tag, or a
// language-tagged string followed by a simple string.
func (b *builder) onStringly2(fn func(bctx *BuiltinContext, a, c ast.Literal) (ast.Term, error)) *builder {
	wrapped := func(bctx *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		return fn(bctx, x.(ast.Literal), y.(ast.Literal))
	}
	return b.
		onBinary(types.XSDString, types.XSDString, wrapped).
		onBinary(types.RDFLangString, types.XSDString, wrapped).
		onBinary(types.RDFLangString, types.RDFLangString, func(bctx *BuiltinContext, x, y ast.Term) (ast.Term, error) {
			l, r := x.(ast.Literal), y.(ast.Literal)
			if !sameLanguage(l.Language(), r.Language()) {
				return nil, incompatibleLanguagesErr(b.tree.ID(), l, r)
			}
			return fn(bctx, l, r)
		})
}

func (b *builder) onNumeric1(fn func(*BuiltinContext, ast.Numeric) (ast.Term, error)) *builder {
	return b.onUnary(types.Numeric, func(bctx *BuiltinContext, a ast.Term) (ast.Term, error) {
		return fn(bctx, a.(ast.Numeric))
	})
}

// onDateTime1 accepts xsd:dateTime values and subtypes.
func (b *builder) onDateTime1(fn func(*BuiltinContext, ast.DateTime) (ast.Term, error)) *builder {
	return b.onUnary(types.XSDDateTime, func(bctx *BuiltinContext, a ast.Term) (ast.Term, error) {
		return fn(bctx, a.(*ast.DateTimeLiteral).Value)
	})
}

// onTemporal1 accepts dateTime, date and time values, calling fn with the
// decoded value.
func (b *builder) onTemporal1(fn func(*BuiltinContext, ast.DateTime) (ast.Term, error), dts ...string) *builder {
	for _, dt := range dts {
		b.onUnary(dt, func(bctx *BuiltinContext, a ast.Term) (ast.Term, error) {
			v, _ := temporalValue(a)
			return fn(bctx, v)
		})
	}
	return b
}

// arithmetic holds the per-family implementations of a numeric operator.
type arithmetic struct {
	integer func(a, b *big.Int) (ast.Term, error)
	decimal func(a, b *big.Rat) (ast.Term, error)
	float   func(a, b float64) float64
}

// arithmetic registers ops for every numeric family pair. Mixed pairs reach
// the more general family by substitution or promotion.
func (b *builder) arithmetic(ops arithmetic) *builder {
	b.onBinary(types.XSDInteger, types.XSDInteger, func(_ *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		return ops.integer(x.(*ast.IntegerLiteral).Value, y.(*ast.IntegerLiteral).Value)
	})
	b.onBinary(types.XSDDecimal, types.XSDDecimal, func(_ *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		l, _ := x.(ast.Numeric).Rat()
		r, _ := y.(ast.Numeric).Rat()
		return ops.decimal(l, r)
	})
	b.onBinary(types.XSDFloat, types.XSDFloat, func(_ *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		r := ops.float(x.(ast.Numeric).Float64(), y.(ast.Numeric).Float64())
		return ast.NewFloat(float64(float32(r))), nil
	})
	b.onBinary(types.XSDDouble, types.XSDDouble, func(_ *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		return ast.NewDouble(ops.float(x.(ast.Numeric).Float64(), y.(ast.Numeric).Float64())), nil
	})
	return b
}

// numericTest registers a comparison over every numeric family pair. cmp
// receives -1, 0 or 1; unordered pairs (NaN) are false.
func (b *builder) numericTest(test func(cmp int) bool) *builder {
	return b.onBinary(types.Numeric, types.Numeric, func(_ *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		c, ok := compareNumeric(x.(ast.Numeric), y.(ast.Numeric))
		if !ok {
			return ast.False, nil
		}
		return ast.Bool(test(c)), nil
	})
}

// stringTest registers a comparison over simple strings by code point.
func (b *builder) stringTest(test func(cmp int) bool) *builder {
	return b.onBinary(types.XSDString, types.XSDString, func(_ *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		return ast.Bool(test(compareStrings(x.(ast.Literal).Str(), y.(ast.Literal).Str()))), nil
	})
}

func (b *builder) booleanTest(test func(cmp int) bool) *builder {
	return b.onBinary(types.XSDBoolean, types.XSDBoolean, func(_ *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		return ast.Bool(test(compareBool(x.(*ast.BooleanLiteral).Value, y.(*ast.BooleanLiteral).Value))), nil
	})
}

// temporalTest registers a comparison of dateTime, date and time values
// against values of the same kind.
func (b *builder) temporalTest(test func(cmp int) bool) *builder {
	for _, dt := range []string{types.XSDDateTime, types.XSDDate, types.XSDTime} {
		b.onBinary(dt, dt, func(bctx *BuiltinContext, x, y ast.Term) (ast.Term, error) {
			l, _ := temporalValue(x)
			r, _ := temporalValue(y)
			return ast.Bool(test(l.Instant(bctx.TimeZone).Compare(r.Instant(bctx.TimeZone)))), nil
		})
	}
	return b
}

// durationTest registers an ordering of the totally ordered duration
// subtypes.
func (b *builder) durationTest(test func(cmp int) bool) *builder {
	b.onBinary(types.XSDYearMonthDuration, types.XSDYearMonthDuration, func(_ *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		return ast.Bool(test(compareInt64(durationValue(x).Months, durationValue(y).Months))), nil
	})
	b.onBinary(types.XSDDayTimeDuration, types.XSDDayTimeDuration, func(_ *BuiltinContext, x, y ast.Term) (ast.Term, error) {
		return ast.Bool(test(compareInt64(int64(durationValue(x).DayTime), int64(durationValue(y).DayTime)))), nil
	})
	return b
}

func temporalValue(t ast.Term) (ast.DateTime, bool) {
	switch t := t.(type) {
	case *ast.DateTimeLiteral:
		return t.Value, true
	case *ast.DateLiteral:
		return t.Value, true
	case *ast.TimeLiteral:
		return t.Value, true
	}
	return ast.DateTime{}, false
}

func durationValue(t ast.Term) ast.Duration {
	return t.(*ast.DurationLiteral).Value
}
