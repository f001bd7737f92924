// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"context"
	"strings"

	"github.com/open-policy-agent/rdfexpr/algebra"
	"github.com/open-policy-agent/rdfexpr/rdf"
)

// Variable references a binding by name, without the leading '?'.
type Variable struct {
	Name string
}

func (*Variable) ExpressionType() ExpressionType { return VariableExpr }
func (v *Variable) String() string               { return "?" + v.Name }

// Call applies a regular operator. All arguments are evaluated before the
// operator is resolved against their runtime types.
type Call struct {
	Operator string
	Args     []Expression
}

func (*Call) ExpressionType() ExpressionType { return OperatorExpr }
func (c *Call) String() string               { return c.Operator + "(" + exprList(c.Args) + ")" }

// SpecialCall applies a functional form. The evaluator hands it the
// unevaluated arguments.
type SpecialCall struct {
	Operator string
	Args     []Expression
}

func (*SpecialCall) ExpressionType() ExpressionType { return SpecialOperatorExpr }
func (c *SpecialCall) String() string               { return c.Operator + "(" + exprList(c.Args) + ")" }

// NamedCall applies a constructor function identified by IRI.
type NamedCall struct {
	IRI  string
	Args []Expression
}

func (*NamedCall) ExpressionType() ExpressionType { return NamedExpr }
func (c *NamedCall) String() string               { return "<" + c.IRI + ">(" + exprList(c.Args) + ")" }

// ExtensionFunc is a caller supplied function. It receives and returns plain
// RDF terms. Implementations that block must honour ctx.
type ExtensionFunc func(ctx context.Context, args []rdf.Term) (rdf.Term, error)

// ExtensionCall applies an extension function resolved at compile time.
type ExtensionCall struct {
	IRI  string
	Args []Expression
	Func ExtensionFunc
}

func (*ExtensionCall) ExpressionType() ExpressionType { return ExtensionExpr }
func (c *ExtensionCall) String() string               { return "<" + c.IRI + ">(" + exprList(c.Args) + ")" }

// Existence is EXISTS or NOT EXISTS. Its pattern is opaque to the evaluator.
type Existence struct {
	Expression *algebra.ExistenceExpression
}

func (*Existence) ExpressionType() ExpressionType { return ExistenceExpr }
func (e *Existence) String() string               { return e.Expression.String() }

// Aggregate references the result of an aggregate computed by the caller.
type Aggregate struct {
	Expression *algebra.AggregateExpression
}

func (*Aggregate) ExpressionType() ExpressionType { return AggregateExpr }
func (a *Aggregate) String() string               { return a.Expression.String() }

func exprList(args []Expression) string {
	parts := make([]string, len(args))
	for i := range args {
		parts[i] = args[i].String()
	}
	return strings.Join(parts, ", ")
}

// MayBlock reports whether evaluating e may call out to a caller supplied
// hook or function.
func MayBlock(e Expression) bool {
	switch e := e.(type) {
	case *ExtensionCall, *Existence, *Aggregate:
		return true
	case *Call:
		return anyMayBlock(e.Args)
	case *SpecialCall:
		return anyMayBlock(e.Args)
	case *NamedCall:
		return anyMayBlock(e.Args)
	}
	return false
}

func anyMayBlock(args []Expression) bool {
	for _, a := range args {
		if MayBlock(a) {
			return true
		}
	}
	return false
}
