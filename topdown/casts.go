// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"math"
	"math/big"
	"strconv"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/types"
)

// castFunc converts a value to the target datatype. ok is false when the
// value has no representation in the target.
type castFunc func(bctx *BuiltinContext, a ast.Term) (result ast.Term, ok bool)

// cast registers a conversion from the source types to the datatype the
// tree is declared for. Literals with an invalid lexical form never cast.
func (b *builder) cast(fn castFunc, from ...string) *builder {
	target := b.tree.ID()
	for _, src := range from {
		b.setLenient([]string{src}, func(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
			if ast.IsNonLexical(args[0]) {
				return nil, castErr(args[0], target)
			}
			r, ok := fn(bctx, args[0])
			if !ok {
				return nil, castErr(args[0], target)
			}
			return r, nil
		})
	}
	return b
}

// canonical returns the canonical lexical form of a literal value.
func canonical(t ast.Term) string {
	switch t := t.(type) {
	case *ast.BooleanLiteral:
		return ast.NewBoolean(t.Value).Str()
	case *ast.IntegerLiteral:
		return ast.FormatInteger(t.Value)
	case *ast.DecimalLiteral:
		return ast.FormatDecimal(t.Value)
	case *ast.FloatLiteral:
		return ast.FormatFloat(t.Value)
	case *ast.DoubleLiteral:
		return ast.FormatDouble(t.Value)
	case *ast.DateTimeLiteral:
		return ast.FormatDateTime(t.Value)
	case *ast.DateLiteral:
		return ast.FormatDate(t.Value)
	case *ast.TimeLiteral:
		return ast.FormatTime(t.Value)
	case *ast.DurationLiteral:
		return ast.FormatDuration(t.Value, t.Kind)
	}
	return t.Str()
}

func toXSDString(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
	return ast.NewString(canonical(a)), true
}

// floatingValue returns the value of a numeric, boolean or string as a
// float64 parsed at the given precision.
func floatingValue(a ast.Term, bits int) (float64, bool) {
	switch a := a.(type) {
	case ast.Numeric:
		if r, ok := a.Rat(); ok && !isFloating(a) {
			f, _ := r.Float64()
			return f, true
		}
		return a.Float64(), true
	case *ast.BooleanLiteral:
		if a.Value {
			return 1, true
		}
		return 0, true
	case ast.Literal:
		if bits == 32 {
			return ast.ParseFloat(a.Str())
		}
		return ast.ParseDouble(a.Str())
	}
	return 0, false
}

func toXSDFloat(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
	f, ok := floatingValue(a, 32)
	if !ok {
		return nil, false
	}
	return ast.NewFloat(float64(float32(f))), true
}

func toXSDDouble(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
	f, ok := floatingValue(a, 64)
	if !ok {
		return nil, false
	}
	return ast.NewDouble(f), true
}

// ratValue returns the exact value of a numeric, boolean or decimal string.
// Floating point values convert through their shortest decimal rendering.
func ratValue(a ast.Term) (*big.Rat, bool) {
	switch a := a.(type) {
	case *ast.FloatLiteral:
		return floatingRat(a.Value, 32)
	case *ast.DoubleLiteral:
		return floatingRat(a.Value, 64)
	case ast.Numeric:
		return a.Rat()
	case *ast.BooleanLiteral:
		if a.Value {
			return big.NewRat(1, 1), true
		}
		return new(big.Rat), true
	case ast.Literal:
		return ast.ParseDecimal(a.Str())
	}
	return nil, false
}

func floatingRat(f float64, bits int) (*big.Rat, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return ast.ParseDecimal(strconv.FormatFloat(f, 'f', -1, bits))
}

func toXSDDecimal(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
	r, ok := ratValue(a)
	if !ok {
		return nil, false
	}
	return ast.NewDecimal(r), true
}

func toXSDInteger(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
	if _, ok := a.(*ast.StringLiteral); ok {
		i, ok := ast.ParseInteger(a.Str())
		if !ok {
			return nil, false
		}
		return ast.NewBigInteger(i), true
	}
	r, ok := ratValue(a)
	if !ok {
		return nil, false
	}
	return ast.NewBigInteger(new(big.Int).Quo(r.Num(), r.Denom())), true
}

func toXSDBoolean(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
	switch a := a.(type) {
	case *ast.BooleanLiteral:
		return ast.Bool(a.Value), true
	case ast.Numeric:
		f := a.Float64()
		return ast.Bool(f != 0 && !math.IsNaN(f)), true
	case ast.Literal:
		b, ok := ast.ParseBoolean(a.Str())
		if !ok {
			return nil, false
		}
		return ast.Bool(b), true
	}
	return nil, false
}

func toXSDDateTime(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
	if v, ok := temporalValue(a); ok {
		return ast.NewDateTime(v), true
	}
	v, ok := ast.ParseDateTime(a.Str())
	if !ok {
		return nil, false
	}
	return ast.NewDateTime(v), true
}

func toXSDDate(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
	if v, ok := temporalValue(a); ok {
		return ast.NewDate(v.Date()), true
	}
	v, ok := ast.ParseDate(a.Str())
	if !ok {
		return nil, false
	}
	return ast.NewDate(v), true
}

func toXSDTime(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
	if v, ok := temporalValue(a); ok {
		return ast.NewTime(v.TimeOfDay()), true
	}
	v, ok := ast.ParseTime(a.Str())
	if !ok {
		return nil, false
	}
	return ast.NewTime(v), true
}

// toDuration returns a cast to one of the duration datatypes. The
// constructor drops the components the target cannot hold.
func toDuration(construct func(ast.Duration) *ast.DurationLiteral, parse func(string) (ast.Duration, bool)) castFunc {
	return func(_ *BuiltinContext, a ast.Term) (ast.Term, bool) {
		if d, ok := a.(*ast.DurationLiteral); ok {
			return construct(d.Value), true
		}
		v, ok := parse(a.Str())
		if !ok {
			return nil, false
		}
		return construct(v), true
	}
}

func init() {
	str, boolean, numeric := types.XSDString, types.XSDBoolean, types.Numeric
	durations := []string{types.XSDDuration, str}

	RegisterNamedFunction(declare(types.XSDString).cast(toXSDString, types.NamedNode, types.Literal).collect())
	RegisterNamedFunction(declare(types.XSDFloat).cast(toXSDFloat, numeric, boolean, str).collect())
	RegisterNamedFunction(declare(types.XSDDouble).cast(toXSDDouble, numeric, boolean, str).collect())
	RegisterNamedFunction(declare(types.XSDDecimal).cast(toXSDDecimal, numeric, boolean, str).collect())
	RegisterNamedFunction(declare(types.XSDInteger).cast(toXSDInteger, numeric, boolean, str).collect())
	RegisterNamedFunction(declare(types.XSDBoolean).cast(toXSDBoolean, numeric, boolean, str).collect())

	RegisterNamedFunction(declare(types.XSDDateTime).cast(toXSDDateTime, types.XSDDateTime, types.XSDDate, str).collect())
	RegisterNamedFunction(declare(types.XSDDate).cast(toXSDDate, types.XSDDateTime, types.XSDDate, str).collect())
	RegisterNamedFunction(declare(types.XSDTime).cast(toXSDTime, types.XSDDateTime, types.XSDTime, str).collect())

	RegisterNamedFunction(declare(types.XSDDuration).cast(toDuration(ast.NewDuration, ast.ParseDuration), durations...).collect())
	RegisterNamedFunction(declare(types.XSDDayTimeDuration).cast(toDuration(ast.NewDayTimeDuration, ast.ParseDayTimeDuration), durations...).collect())
	RegisterNamedFunction(declare(types.XSDYearMonthDuration).cast(toDuration(ast.NewYearMonthDuration, ast.ParseYearMonthDuration), durations...).collect())
}
