// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package ast declares the compiled expression tree and the internal term
// model the evaluator computes with. Terms are immutable once constructed.
package ast

import (
	"github.com/open-policy-agent/rdfexpr/rdf"
	"github.com/open-policy-agent/rdfexpr/types"
)

// ExpressionType tags the variants of Expression.
type ExpressionType int

// Expression variants.
const (
	TermExpr ExpressionType = iota
	VariableExpr
	OperatorExpr
	SpecialOperatorExpr
	NamedExpr
	ExtensionExpr
	ExistenceExpr
	AggregateExpr
)

func (t ExpressionType) String() string {
	switch t {
	case TermExpr:
		return "term"
	case VariableExpr:
		return "variable"
	case OperatorExpr:
		return "operator"
	case SpecialOperatorExpr:
		return "special operator"
	case NamedExpr:
		return "named"
	case ExtensionExpr:
		return "extension"
	case ExistenceExpr:
		return "existence"
	case AggregateExpr:
		return "aggregate"
	}
	return "unknown"
}

// Expression is a node of a compiled expression tree.
type Expression interface {
	ExpressionType() ExpressionType
	String() string
}

// Term is an evaluated value.
type Term interface {
	Expression

	// TermType returns the term kind, one of types.NamedNode,
	// types.BlankNode, types.Literal, types.Quad or types.DefaultGraph.
	TermType() string

	// Str returns the string value of the term as used by STR().
	Str() string

	// ToRDF returns the plain RDF representation of the term.
	ToRDF() rdf.Term
}

// NamedNode is an IRI.
type NamedNode struct {
	IRI string
}

// NewNamedNode returns a NamedNode.
func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (*NamedNode) ExpressionType() ExpressionType { return TermExpr }
func (*NamedNode) TermType() string               { return types.NamedNode }
func (n *NamedNode) Str() string                  { return n.IRI }
func (n *NamedNode) ToRDF() rdf.Term              { return rdf.NewNamedNode(n.IRI) }
func (n *NamedNode) String() string               { return n.ToRDF().String() }

// BlankNode is a blank node.
type BlankNode struct {
	ID string
}

// NewBlankNode returns a BlankNode.
func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func (*BlankNode) ExpressionType() ExpressionType { return TermExpr }
func (*BlankNode) TermType() string               { return types.BlankNode }
func (b *BlankNode) Str() string                  { return b.ID }
func (b *BlankNode) ToRDF() rdf.Term              { return rdf.NewBlankNode(b.ID) }
func (b *BlankNode) String() string               { return b.ToRDF().String() }

// DefaultGraph is the graph of a quoted triple.
type DefaultGraph struct{}

func (*DefaultGraph) ExpressionType() ExpressionType { return TermExpr }
func (*DefaultGraph) TermType() string               { return types.DefaultGraph }
func (*DefaultGraph) Str() string                    { return "" }
func (*DefaultGraph) ToRDF() rdf.Term                { return rdf.DefaultGraph{} }
func (*DefaultGraph) String() string                 { return "DEFAULT" }

// Quad is a quoted triple.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// NewQuad returns a Quad. A nil graph is the default graph.
func NewQuad(s, p, o, g Term) *Quad {
	if g == nil {
		g = &DefaultGraph{}
	}
	return &Quad{Subject: s, Predicate: p, Object: o, Graph: g}
}

func (*Quad) ExpressionType() ExpressionType { return TermExpr }
func (*Quad) TermType() string               { return types.Quad }
func (q *Quad) Str() string                  { return q.ToRDF().String() }
func (q *Quad) String() string               { return q.Str() }

func (q *Quad) ToRDF() rdf.Term {
	return rdf.Quad{
		Subject:   q.Subject.ToRDF(),
		Predicate: q.Predicate.ToRDF(),
		Object:    q.Object.ToRDF(),
		Graph:     q.Graph.ToRDF(),
	}
}

// Components returns subject, predicate, object and graph.
func (q *Quad) Components() [4]Term {
	return [4]Term{q.Subject, q.Predicate, q.Object, q.Graph}
}
