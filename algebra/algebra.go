// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package algebra contains the uncompiled expression tree produced by a
// SPARQL algebra translator. The evaluator compiles it once per query.
package algebra

import (
	"fmt"
	"strings"

	"github.com/open-policy-agent/rdfexpr/rdf"
)

// Expression types.
const (
	TermType      = "term"
	OperatorType  = "operator"
	NamedType     = "named"
	ExistenceType = "existence"
	AggregateType = "aggregate"
	WildcardType  = "wildcard"
)

// Expression is an algebra expression node.
type Expression interface {
	ExpressionType() string
	String() string
}

// TermExpression is a constant term or a variable.
type TermExpression struct {
	Term rdf.Term
}

// OperatorExpression applies a built-in operator or function by name, for
// example "+", "strlen" or "notin".
type OperatorExpression struct {
	Operator string
	Args     []Expression
}

// NamedExpression applies a function identified by IRI: an XSD constructor
// or an extension function.
type NamedExpression struct {
	Name rdf.NamedNode
	Args []Expression
}

// ExistenceExpression is EXISTS or NOT EXISTS over an opaque graph pattern.
type ExistenceExpression struct {
	Not   bool
	Input any
}

// AggregateExpression is an aggregate such as SUM(DISTINCT ?x).
type AggregateExpression struct {
	Aggregator string
	Distinct   bool
	Separator  string
	Expression Expression
}

// WildcardExpression is the '*' of COUNT(*).
type WildcardExpression struct{}

func (*TermExpression) ExpressionType() string      { return TermType }
func (*OperatorExpression) ExpressionType() string  { return OperatorType }
func (*NamedExpression) ExpressionType() string     { return NamedType }
func (*ExistenceExpression) ExpressionType() string { return ExistenceType }
func (*AggregateExpression) ExpressionType() string { return AggregateType }
func (*WildcardExpression) ExpressionType() string  { return WildcardType }

func (e *TermExpression) String() string {
	return e.Term.String()
}

func (e *OperatorExpression) String() string {
	return e.Operator + "(" + argString(e.Args) + ")"
}

func (e *NamedExpression) String() string {
	return e.Name.String() + "(" + argString(e.Args) + ")"
}

func (e *ExistenceExpression) String() string {
	if e.Not {
		return "NOT EXISTS {...}"
	}
	return "EXISTS {...}"
}

func (e *AggregateExpression) String() string {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(e.Aggregator))
	sb.WriteByte('(')
	if e.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(e.Expression.String())
	if e.Separator != "" {
		fmt.Fprintf(&sb, "; SEPARATOR=%q", e.Separator)
	}
	sb.WriteByte(')')
	return sb.String()
}

func (*WildcardExpression) String() string {
	return "*"
}

func argString(args []Expression) string {
	parts := make([]string, len(args))
	for i := range args {
		parts[i] = args[i].String()
	}
	return strings.Join(parts, ", ")
}

// Term returns a constant or variable expression.
func Term(t rdf.Term) *TermExpression {
	return &TermExpression{Term: t}
}

// Var returns a variable expression.
func Var(name string) *TermExpression {
	return &TermExpression{Term: rdf.NewVariable(name)}
}

// Op returns an operator expression. The operator name is lower-cased.
func Op(op string, args ...Expression) *OperatorExpression {
	return &OperatorExpression{Operator: strings.ToLower(op), Args: args}
}

// Named returns a named function call expression.
func Named(iri string, args ...Expression) *NamedExpression {
	return &NamedExpression{Name: rdf.NewNamedNode(iri), Args: args}
}

// Exists returns an existence expression over input.
func Exists(not bool, input any) *ExistenceExpression {
	return &ExistenceExpression{Not: not, Input: input}
}

// Aggregate returns an aggregate expression.
func Aggregate(aggregator string, distinct bool, expr Expression) *AggregateExpression {
	return &AggregateExpression{Aggregator: strings.ToLower(aggregator), Distinct: distinct, Expression: expr}
}

// Wildcard returns the COUNT(*) argument.
func Wildcard() *WildcardExpression {
	return &WildcardExpression{}
}

// Walk calls f for e and every sub-expression in pre-order. Walk does not
// descend into the children of a node for which f returns false.
func Walk(e Expression, f func(Expression) bool) {
	if !f(e) {
		return
	}
	switch e := e.(type) {
	case *OperatorExpression:
		for _, a := range e.Args {
			Walk(a, f)
		}
	case *NamedExpression:
		for _, a := range e.Args {
			Walk(a, f)
		}
	case *AggregateExpression:
		Walk(e.Expression, f)
	}
}

// Variables returns the names of the variables referenced by e in the order
// of first appearance.
func Variables(e Expression) []string {
	var out []string
	seen := map[string]struct{}{}
	Walk(e, func(x Expression) bool {
		if t, ok := x.(*TermExpression); ok {
			if v, ok := t.Term.(rdf.Variable); ok {
				if _, ok := seen[v.Name]; !ok {
					seen[v.Name] = struct{}{}
					out = append(out, v.Name)
				}
			}
		}
		return true
	})
	return out
}
