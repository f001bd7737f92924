// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package rdf contains the plain RDF term representation exchanged with the
// evaluator: the values stored in bindings, passed to extension functions
// and returned as results.
package rdf

import (
	"strings"
)

// Term type names, as used by the RDF/JS data model.
const (
	NamedNodeType    = "NamedNode"
	BlankNodeType    = "BlankNode"
	LiteralType      = "Literal"
	VariableType     = "Variable"
	DefaultGraphType = "DefaultGraph"
	QuadType         = "Quad"
)

const (
	xsdString     = "http://www.w3.org/2001/XMLSchema#string"
	rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// Term is an RDF term. Terms are immutable values.
type Term interface {
	TermType() string
	Value() string
	Equal(other Term) bool
	String() string
}

// NamedNode is an IRI.
type NamedNode struct {
	IRI string
}

// NewNamedNode returns a NamedNode for iri.
func NewNamedNode(iri string) NamedNode {
	return NamedNode{IRI: iri}
}

func (NamedNode) TermType() string { return NamedNodeType }
func (n NamedNode) Value() string  { return n.IRI }

func (n NamedNode) Equal(other Term) bool {
	o, ok := other.(NamedNode)
	return ok && o.IRI == n.IRI
}

func (n NamedNode) String() string {
	return "<" + escapeIRI(n.IRI) + ">"
}

// BlankNode is a blank node label.
type BlankNode struct {
	ID string
}

// NewBlankNode returns a BlankNode labelled id.
func NewBlankNode(id string) BlankNode {
	return BlankNode{ID: id}
}

func (BlankNode) TermType() string { return BlankNodeType }
func (b BlankNode) Value() string  { return b.ID }

func (b BlankNode) Equal(other Term) bool {
	o, ok := other.(BlankNode)
	return ok && o.ID == b.ID
}

func (b BlankNode) String() string {
	return "_:" + b.ID
}

// Literal is a lexical form with a datatype and, for language-tagged
// strings, a language.
type Literal struct {
	Lexical  string
	Language string
	Datatype NamedNode
}

// NewLiteral returns a typed literal.
func NewLiteral(lexical, datatype string) Literal {
	return Literal{Lexical: lexical, Datatype: NamedNode{IRI: datatype}}
}

// NewStringLiteral returns a simple xsd:string literal.
func NewStringLiteral(lexical string) Literal {
	return NewLiteral(lexical, xsdString)
}

// NewLangLiteral returns a language-tagged string. The tag is lower-cased.
func NewLangLiteral(lexical, language string) Literal {
	return Literal{
		Lexical:  lexical,
		Language: strings.ToLower(language),
		Datatype: NamedNode{IRI: rdfLangString},
	}
}

func (Literal) TermType() string { return LiteralType }
func (l Literal) Value() string  { return l.Lexical }

func (l Literal) Equal(other Term) bool {
	o, ok := other.(Literal)
	return ok && o.Lexical == l.Lexical && o.Language == l.Language && o.Datatype.IRI == l.Datatype.IRI
}

func (l Literal) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	sb.WriteString(escapeString(l.Lexical))
	sb.WriteByte('"')
	switch {
	case l.Language != "":
		sb.WriteByte('@')
		sb.WriteString(l.Language)
	case l.Datatype.IRI != "" && l.Datatype.IRI != xsdString:
		sb.WriteString("^^")
		sb.WriteString(l.Datatype.String())
	}
	return sb.String()
}

// Variable is a query variable. Name excludes the leading '?'.
type Variable struct {
	Name string
}

// NewVariable returns a Variable. A leading '?' or '$' is stripped.
func NewVariable(name string) Variable {
	return Variable{Name: strings.TrimLeft(name, "?$")}
}

func (Variable) TermType() string { return VariableType }
func (v Variable) Value() string  { return v.Name }

func (v Variable) Equal(other Term) bool {
	o, ok := other.(Variable)
	return ok && o.Name == v.Name
}

func (v Variable) String() string {
	return "?" + v.Name
}

// DefaultGraph is the graph component of a triple.
type DefaultGraph struct{}

func (DefaultGraph) TermType() string { return DefaultGraphType }
func (DefaultGraph) Value() string    { return "" }

func (DefaultGraph) Equal(other Term) bool {
	_, ok := other.(DefaultGraph)
	return ok
}

func (DefaultGraph) String() string {
	return ""
}

// Quad is a quoted triple or quad.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// NewTriple returns a Quad in the default graph.
func NewTriple(s, p, o Term) Quad {
	return Quad{Subject: s, Predicate: p, Object: o, Graph: DefaultGraph{}}
}

func (Quad) TermType() string { return QuadType }
func (Quad) Value() string    { return "" }

func (q Quad) Equal(other Term) bool {
	o, ok := other.(Quad)
	return ok &&
		termEqual(q.Subject, o.Subject) &&
		termEqual(q.Predicate, o.Predicate) &&
		termEqual(q.Object, o.Object) &&
		termEqual(q.graph(), o.graph())
}

func (q Quad) graph() Term {
	if q.Graph == nil {
		return DefaultGraph{}
	}
	return q.Graph
}

func (q Quad) String() string {
	parts := []string{"<<", termString(q.Subject), termString(q.Predicate), termString(q.Object)}
	if _, ok := q.graph().(DefaultGraph); !ok {
		parts = append(parts, q.Graph.String())
	}
	parts = append(parts, ">>")
	return strings.Join(parts, " ")
}

func termEqual(a, b Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func termString(t Term) string {
	if t == nil {
		return "UNDEF"
	}
	return t.String()
}

func escapeIRI(s string) string {
	if !strings.ContainsAny(s, "<>\"{}|^`\\ ") {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '<', '>', '"', '{', '}', '|', '^', '`', '\\', ' ':
			sb.WriteString(`\u00`)
			sb.WriteString(strings.ToUpper(hex2(byte(r))))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func hex2(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0xf]})
}

func escapeString(s string) string {
	if !strings.ContainsAny(s, "\"\\\n\r\t") {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
