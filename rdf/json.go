// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package rdf

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonTerm is the RDF/JS shaped JSON encoding of a term.
type jsonTerm struct {
	TermType  string          `json:"termType"`
	Value     string          `json:"value"`
	Language  string          `json:"language,omitempty"`
	Datatype  *jsonTerm       `json:"datatype,omitempty"`
	Subject   json.RawMessage `json:"subject,omitempty"`
	Predicate json.RawMessage `json:"predicate,omitempty"`
	Object    json.RawMessage `json:"object,omitempty"`
	Graph     json.RawMessage `json:"graph,omitempty"`
}

func (n NamedNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonTerm{TermType: NamedNodeType, Value: n.IRI})
}

func (b BlankNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonTerm{TermType: BlankNodeType, Value: b.ID})
}

func (l Literal) MarshalJSON() ([]byte, error) {
	dt := l.Datatype.IRI
	if dt == "" {
		dt = xsdString
	}
	return json.Marshal(jsonTerm{
		TermType: LiteralType,
		Value:    l.Lexical,
		Language: l.Language,
		Datatype: &jsonTerm{TermType: NamedNodeType, Value: dt},
	})
}

func (v Variable) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonTerm{TermType: VariableType, Value: v.Name})
}

func (DefaultGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonTerm{TermType: DefaultGraphType})
}

func (q Quad) MarshalJSON() ([]byte, error) {
	jt := jsonTerm{TermType: QuadType}
	var err error
	if jt.Subject, err = json.Marshal(q.Subject); err != nil {
		return nil, err
	}
	if jt.Predicate, err = json.Marshal(q.Predicate); err != nil {
		return nil, err
	}
	if jt.Object, err = json.Marshal(q.Object); err != nil {
		return nil, err
	}
	if jt.Graph, err = json.Marshal(q.graph()); err != nil {
		return nil, err
	}
	return json.Marshal(jt)
}

// UnmarshalTerm decodes a term from its RDF/JS JSON object or from a JSON
// string holding the term in the syntax accepted by ParseTerm. Bare numbers
// and booleans use their Turtle shorthand.
func UnmarshalTerm(bs []byte) (Term, error) {
	var s string
	if err := json.Unmarshal(bs, &s); err == nil {
		return ParseTerm(s)
	}
	var scalar any
	if err := json.Unmarshal(bs, &scalar); err == nil {
		switch scalar.(type) {
		case float64, bool:
			return ParseTerm(string(bytes.TrimSpace(bs)))
		}
	}
	var jt jsonTerm
	if err := json.Unmarshal(bs, &jt); err != nil {
		return nil, fmt.Errorf("invalid term: %w", err)
	}
	return jt.term()
}

func (jt *jsonTerm) term() (Term, error) {
	switch jt.TermType {
	case NamedNodeType:
		return NamedNode{IRI: jt.Value}, nil
	case BlankNodeType:
		return BlankNode{ID: jt.Value}, nil
	case VariableType:
		return Variable{Name: jt.Value}, nil
	case DefaultGraphType:
		return DefaultGraph{}, nil
	case LiteralType:
		if jt.Language != "" {
			return NewLangLiteral(jt.Value, jt.Language), nil
		}
		dt := xsdString
		if jt.Datatype != nil && jt.Datatype.Value != "" {
			dt = jt.Datatype.Value
		}
		return NewLiteral(jt.Value, dt), nil
	case QuadType:
		q := Quad{Graph: DefaultGraph{}}
		for _, c := range []struct {
			raw  json.RawMessage
			dst  *Term
			name string
		}{
			{jt.Subject, &q.Subject, "subject"},
			{jt.Predicate, &q.Predicate, "predicate"},
			{jt.Object, &q.Object, "object"},
			{jt.Graph, &q.Graph, "graph"},
		} {
			if len(c.raw) == 0 {
				if c.name == "graph" {
					continue
				}
				return nil, fmt.Errorf("quad is missing %v", c.name)
			}
			t, err := UnmarshalTerm(c.raw)
			if err != nil {
				return nil, fmt.Errorf("quad %v: %w", c.name, err)
			}
			*c.dst = t
		}
		return q, nil
	}
	return nil, fmt.Errorf("unknown term type %q", jt.TermType)
}

// Bindings maps variable names, without '?', to terms.
type Bindings map[string]Term

// UnmarshalJSON decodes an object whose values are terms.
func (b *Bindings) UnmarshalJSON(bs []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(bs, &raw); err != nil {
		return err
	}
	out := make(Bindings, len(raw))
	for k, v := range raw {
		t, err := UnmarshalTerm(v)
		if err != nil {
			return fmt.Errorf("binding %v: %w", k, err)
		}
		out[NewVariable(k).Name] = t
	}
	*b = out
	return nil
}
