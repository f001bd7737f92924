// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"math/big"
	"time"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/types"
)

func arithPlus() arithmetic {
	return arithmetic{
		integer: func(a, b *big.Int) (ast.Term, error) {
			return ast.NewBigInteger(new(big.Int).Add(a, b)), nil
		},
		decimal: func(a, b *big.Rat) (ast.Term, error) {
			return ast.NewDecimal(new(big.Rat).Add(a, b)), nil
		},
		float: func(a, b float64) float64 { return a + b },
	}
}

func arithMinus() arithmetic {
	return arithmetic{
		integer: func(a, b *big.Int) (ast.Term, error) {
			return ast.NewBigInteger(new(big.Int).Sub(a, b)), nil
		},
		decimal: func(a, b *big.Rat) (ast.Term, error) {
			return ast.NewDecimal(new(big.Rat).Sub(a, b)), nil
		},
		float: func(a, b float64) float64 { return a - b },
	}
}

func arithMultiply() arithmetic {
	return arithmetic{
		integer: func(a, b *big.Int) (ast.Term, error) {
			return ast.NewBigInteger(new(big.Int).Mul(a, b)), nil
		},
		decimal: func(a, b *big.Rat) (ast.Term, error) {
			return ast.NewDecimal(new(big.Rat).Mul(a, b)), nil
		},
		float: func(a, b float64) float64 { return a * b },
	}
}

// arithDivide divides integers and decimals exactly, yielding a decimal.
// Division by zero is an error for both; the float families follow IEEE 754.
func arithDivide() arithmetic {
	return arithmetic{
		integer: func(a, b *big.Int) (ast.Term, error) {
			if b.Sign() == 0 {
				return nil, expressionErr("Integer division by 0")
			}
			return ast.NewDecimal(new(big.Rat).SetFrac(a, b)), nil
		},
		decimal: func(a, b *big.Rat) (ast.Term, error) {
			if b.Sign() == 0 {
				return nil, expressionErr("Decimal division by 0")
			}
			return ast.NewDecimal(new(big.Rat).Quo(a, b)), nil
		},
		float: func(a, b float64) float64 { return a / b },
	}
}

func negate(_ *BuiltinContext, a ast.Term) (ast.Term, error) {
	switch n := a.(type) {
	case *ast.IntegerLiteral:
		return ast.NewBigInteger(new(big.Int).Neg(n.Value)), nil
	case *ast.DecimalLiteral:
		return ast.NewDecimal(new(big.Rat).Neg(n.Value)), nil
	case *ast.FloatLiteral:
		return ast.NewFloat(-n.Value), nil
	case *ast.DoubleLiteral:
		return ast.NewDouble(-n.Value), nil
	}
	return nil, invalidArgumentTypesErr(ast.UnaryMinus, []ast.Term{a})
}

func identity(_ *BuiltinContext, a ast.Term) (ast.Term, error) {
	return a, nil
}

// Date and time arithmetic. Values without a timezone are placed in the
// implicit timezone when two values are subtracted.

func subtractTemporal(bctx *BuiltinContext, a, b ast.Term) (ast.Term, error) {
	x, _ := temporalValue(a)
	y, _ := temporalValue(b)
	d := x.Instant(bctx.TimeZone).Sub(y.Instant(bctx.TimeZone))
	return ast.NewDayTimeDuration(ast.Duration{DayTime: d}), nil
}

// shiftTemporal returns a with d added, keeping the kind of a.
func shiftTemporal(a ast.Term, d ast.Duration) ast.Term {
	v, _ := temporalValue(a)
	v = v.AddMonths(d.Months).Add(d.DayTime)
	switch a.(type) {
	case *ast.DateLiteral:
		return ast.NewDate(v.Date())
	case *ast.TimeLiteral:
		return ast.NewTime(v.TimeOfDay())
	}
	return ast.NewDateTime(v)
}

func addTemporalDuration(_ *BuiltinContext, a, b ast.Term) (ast.Term, error) {
	return shiftTemporal(a, durationValue(b)), nil
}

func subtractTemporalDuration(_ *BuiltinContext, a, b ast.Term) (ast.Term, error) {
	return shiftTemporal(a, durationValue(b).Negate()), nil
}

func addDurations(sign int64) binaryFunc {
	return func(_ *BuiltinContext, a, b ast.Term) (ast.Term, error) {
		x, y := durationValue(a), durationValue(b)
		sum := ast.Duration{
			Months:  x.Months + sign*y.Months,
			DayTime: x.DayTime + time.Duration(sign)*y.DayTime,
		}
		if a.(*ast.DurationLiteral).MainType() == ast.MainYearMonthDuration {
			return ast.NewYearMonthDuration(sum), nil
		}
		return ast.NewDayTimeDuration(sum), nil
	}
}

// temporalArithmetic registers the date and time overloads of + and -.
func (b *builder) temporalArithmetic(subtract bool) *builder {
	shift := addTemporalDuration
	sign := int64(1)
	if subtract {
		shift = subtractTemporalDuration
		sign = -1
	}
	for _, dt := range []string{types.XSDDateTime, types.XSDDate} {
		b.onBinary(dt, types.XSDYearMonthDuration, shift)
		b.onBinary(dt, types.XSDDayTimeDuration, shift)
	}
	b.onBinary(types.XSDTime, types.XSDDayTimeDuration, shift)
	b.onBinary(types.XSDYearMonthDuration, types.XSDYearMonthDuration, addDurations(sign))
	b.onBinary(types.XSDDayTimeDuration, types.XSDDayTimeDuration, addDurations(sign))
	if subtract {
		for _, dt := range []string{types.XSDDateTime, types.XSDDate, types.XSDTime} {
			b.onBinary(dt, dt, subtractTemporal)
		}
	}
	return b
}

func init() {
	RegisterOperator(declare(ast.Add).arithmetic(arithPlus()).temporalArithmetic(false).collect())
	RegisterOperator(declare(ast.Subtract).arithmetic(arithMinus()).temporalArithmetic(true).collect())
	RegisterOperator(declare(ast.Multiply).arithmetic(arithMultiply()).collect())
	RegisterOperator(declare(ast.Divide).arithmetic(arithDivide()).collect())
	RegisterOperator(declare(ast.UnaryPlus).onUnary(types.Numeric, identity).collect())
	RegisterOperator(declare(ast.UnaryMinus).onUnary(types.Numeric, negate).collect())
}
