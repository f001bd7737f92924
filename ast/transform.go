// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"fmt"

	"github.com/open-policy-agent/rdfexpr/rdf"
	"github.com/open-policy-agent/rdfexpr/types"
)

// Transformer converts plain RDF terms into internal terms. Literals are
// decoded according to the ancestors of their datatype, so a datatype
// derived from xsd:integer through the discovery callback decodes as an
// integer.
type Transformer struct {
	provider *types.Provider
}

// NewTransformer returns a Transformer resolving datatypes with provider.
func NewTransformer(provider *types.Provider) *Transformer {
	if provider == nil {
		provider = types.NewProvider(nil, types.ProviderOpts{})
	}
	return &Transformer{provider: provider}
}

// Provider returns the type provider of t.
func (t *Transformer) Provider() *types.Provider {
	return t.provider
}

// Term converts an RDF term. Variables cannot be converted.
func (t *Transformer) Term(term rdf.Term) (Term, error) {
	switch x := term.(type) {
	case rdf.NamedNode:
		return NewNamedNode(x.IRI), nil
	case rdf.BlankNode:
		return NewBlankNode(x.ID), nil
	case rdf.DefaultGraph:
		return &DefaultGraph{}, nil
	case rdf.Literal:
		return t.Literal(x), nil
	case rdf.Quad:
		var parts [4]Term
		for i, c := range []rdf.Term{x.Subject, x.Predicate, x.Object, x.Graph} {
			if c == nil {
				if i == 3 {
					parts[i] = &DefaultGraph{}
					continue
				}
				return nil, fmt.Errorf("quoted triple is missing a component")
			}
			p, err := t.Term(c)
			if err != nil {
				return nil, err
			}
			parts[i] = p
		}
		return NewQuad(parts[0], parts[1], parts[2], parts[3]), nil
	case rdf.Variable:
		return nil, fmt.Errorf("cannot convert variable %v to a value", x)
	case nil:
		return nil, fmt.Errorf("cannot convert nil term")
	}
	return nil, fmt.Errorf("unsupported term type %T", term)
}

// Literal decodes an RDF literal. A lexical form that is invalid for the
// datatype yields a NonLexicalLiteral.
func (t *Transformer) Literal(lit rdf.Literal) Literal {
	dt := lit.Datatype.IRI
	lex := lit.Lexical

	if dt == "" || (dt == types.XSDString && lit.Language == "") {
		return &StringLiteral{Value: lex, Type: types.XSDString}
	}
	if dt == types.RDFLangString {
		if lit.Language == "" {
			return &NonLexicalLiteral{Lexical: lex, Type: dt}
		}
		return NewLangString(lex, lit.Language)
	}

	dict := t.provider.Ancestors(dt)
	nonLexical := func() Literal {
		return &NonLexicalLiteral{
			Lexical:          lex,
			Type:             dt,
			Lang:             lit.Language,
			NumericOrBoolean: dict.Contains(types.Numeric) || dict.Contains(types.XSDBoolean),
		}
	}

	switch {
	case dict.Contains(types.XSDString):
		return &StringLiteral{Value: lex, Type: dt}
	case dict.Contains(types.XSDBoolean):
		if b, ok := ParseBoolean(lex); ok {
			return &BooleanLiteral{Value: b, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDInteger):
		if i, ok := ParseInteger(lex); ok && InIntegerRange(i, dict) {
			return &IntegerLiteral{Value: i, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDDecimal):
		if r, ok := ParseDecimal(lex); ok {
			return &DecimalLiteral{Value: r, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDFloat):
		if f, ok := ParseFloat(lex); ok {
			return &FloatLiteral{Value: f, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDDouble):
		if f, ok := ParseDouble(lex); ok {
			return &DoubleLiteral{Value: f, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDDateTime):
		if d, ok := ParseDateTime(lex); ok && (dt != types.XSDDateTimeStamp || d.HasZone) {
			return &DateTimeLiteral{Value: d, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDDate):
		if d, ok := ParseDate(lex); ok {
			return &DateLiteral{Value: d, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDTime):
		if d, ok := ParseTime(lex); ok {
			return &TimeLiteral{Value: d, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDDayTimeDuration):
		if d, ok := ParseDayTimeDuration(lex); ok {
			return &DurationLiteral{Value: d, Kind: MainDayTimeDuration, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDYearMonthDuration):
		if d, ok := ParseYearMonthDuration(lex); ok {
			return &DurationLiteral{Value: d, Kind: MainYearMonthDuration, Type: dt, Lexical: lex}
		}
	case dict.Contains(types.XSDDuration):
		if d, ok := ParseDuration(lex); ok {
			return &DurationLiteral{Value: d, Kind: MainDuration, Type: dt, Lexical: lex}
		}
	default:
		return &OtherLiteral{Value: lex, Type: dt}
	}
	return nonLexical()
}
