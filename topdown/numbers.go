// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"math"
	"math/big"
	"math/rand/v2"

	"github.com/open-policy-agent/rdfexpr/ast"
)

type arithArity1 struct {
	integer func(*big.Int) *big.Int
	decimal func(*big.Rat) *big.Rat
	float   func(float64) float64
}

// numeric1 registers a unary numeric function whose result has the type of
// its argument.
func (b *builder) numeric1(fn arithArity1) *builder {
	return b.onNumeric1(func(_ *BuiltinContext, n ast.Numeric) (ast.Term, error) {
		switch n := n.(type) {
		case *ast.IntegerLiteral:
			if fn.integer == nil {
				return n, nil
			}
			return ast.NewBigInteger(fn.integer(n.Value)), nil
		case *ast.DecimalLiteral:
			return ast.NewDecimal(fn.decimal(n.Value)), nil
		case *ast.FloatLiteral:
			return ast.NewFloat(fn.float(n.Value)), nil
		case *ast.DoubleLiteral:
			return ast.NewDouble(fn.float(n.Value)), nil
		}
		return nil, invalidArgumentTypesErr(b.tree.ID(), []ast.Term{n})
	})
}

func intAbs(i *big.Int) *big.Int { return new(big.Int).Abs(i) }
func ratAbs(r *big.Rat) *big.Rat { return new(big.Rat).Abs(r) }

func ratFloor(r *big.Rat) *big.Rat {
	q := new(big.Int).Div(r.Num(), r.Denom())
	return new(big.Rat).SetInt(q)
}

func ratCeil(r *big.Rat) *big.Rat {
	f := ratFloor(r)
	if f.Cmp(r) != 0 {
		f.Add(f, big.NewRat(1, 1))
	}
	return f
}

// ratRound rounds half towards positive infinity.
func ratRound(r *big.Rat) *big.Rat {
	return ratFloor(new(big.Rat).Add(r, big.NewRat(1, 2)))
}

func floatRound(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Floor(f + 0.5)
}

func isNumeric(_ *BuiltinContext, a ast.Term) (ast.Term, error) {
	_, ok := a.(ast.Numeric)
	return ast.Bool(ok), nil
}

func builtinRand(*BuiltinContext, []ast.Term) (ast.Term, error) {
	return ast.NewDouble(rand.Float64()), nil
}

func init() {
	RegisterOperator(declare(ast.Abs).numeric1(arithArity1{integer: intAbs, decimal: ratAbs, float: math.Abs}).collect())
	RegisterOperator(declare(ast.Round).numeric1(arithArity1{decimal: ratRound, float: floatRound}).collect())
	RegisterOperator(declare(ast.Ceil).numeric1(arithArity1{decimal: ratCeil, float: math.Ceil}).collect())
	RegisterOperator(declare(ast.Floor).numeric1(arithArity1{decimal: ratFloor, float: math.Floor}).collect())
	RegisterOperator(declare(ast.Rand).set(nil, builtinRand).collect())
	RegisterOperator(declare(ast.IsNumeric).onTerm1(isNumeric).collect())
}
