// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"math"

	"github.com/open-policy-agent/rdfexpr/ast"
)

// EffectiveBooleanValue coerces a term to a boolean. Booleans are their
// value, strings are true when non-empty and numbers when neither zero nor
// NaN. Numeric and boolean literals with an invalid lexical form are false.
// Every other term fails with an EBV coercion error.
func EffectiveBooleanValue(t ast.Term) (bool, error) {
	switch t := t.(type) {
	case *ast.BooleanLiteral:
		return t.Value, nil
	case *ast.StringLiteral:
		return t.Value != "", nil
	case *ast.LangStringLiteral:
		return t.Value != "", nil
	case *ast.IntegerLiteral:
		return t.Value.Sign() != 0, nil
	case *ast.DecimalLiteral:
		return t.Value.Sign() != 0, nil
	case *ast.FloatLiteral:
		return t.Value != 0 && !math.IsNaN(t.Value), nil
	case *ast.DoubleLiteral:
		return t.Value != 0 && !math.IsNaN(t.Value), nil
	case *ast.NonLexicalLiteral:
		if t.NumericOrBoolean {
			return false, nil
		}
	}
	return false, ebvCoercionErr(t)
}

func builtinNot(_ *BuiltinContext, a ast.Term) (ast.Term, error) {
	b, err := EffectiveBooleanValue(a)
	if err != nil {
		return nil, err
	}
	return ast.Bool(!b), nil
}

func init() {
	RegisterOperator(declare(ast.Not).onTerm1(builtinNot).collect())
}
