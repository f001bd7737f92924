// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package algebra

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-policy-agent/rdfexpr/rdf"
	"github.com/open-policy-agent/rdfexpr/util"
)

type jsonExpr struct {
	Type           string            `json:"type,omitempty"`
	ExpressionType string            `json:"expressionType"`
	Term           json.RawMessage   `json:"term,omitempty"`
	Operator       string            `json:"operator,omitempty"`
	Name           json.RawMessage   `json:"name,omitempty"`
	Args           []json.RawMessage `json:"args,omitempty"`
	Not            *bool             `json:"not,omitempty"`
	Input          json.RawMessage   `json:"input,omitempty"`
	Aggregator     string            `json:"aggregator,omitempty"`
	Distinct       *bool             `json:"distinct,omitempty"`
	Separator      string            `json:"separator,omitempty"`
	Expression     json.RawMessage   `json:"expression,omitempty"`
}

const exprType = "expression"

func (e *TermExpression) MarshalJSON() ([]byte, error) {
	term, err := json.Marshal(e.Term)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonExpr{Type: exprType, ExpressionType: TermType, Term: term})
}

func (e *OperatorExpression) MarshalJSON() ([]byte, error) {
	args, err := marshalArgs(e.Args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonExpr{Type: exprType, ExpressionType: OperatorType, Operator: e.Operator, Args: args})
}

func (e *NamedExpression) MarshalJSON() ([]byte, error) {
	args, err := marshalArgs(e.Args)
	if err != nil {
		return nil, err
	}
	name, err := json.Marshal(e.Name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonExpr{Type: exprType, ExpressionType: NamedType, Name: name, Args: args})
}

func (e *ExistenceExpression) MarshalJSON() ([]byte, error) {
	input, err := json.Marshal(e.Input)
	if err != nil {
		return nil, err
	}
	not := e.Not
	return json.Marshal(jsonExpr{Type: exprType, ExpressionType: ExistenceType, Not: &not, Input: input})
}

func (e *AggregateExpression) MarshalJSON() ([]byte, error) {
	inner, err := json.Marshal(e.Expression)
	if err != nil {
		return nil, err
	}
	distinct := e.Distinct
	return json.Marshal(jsonExpr{
		Type:           exprType,
		ExpressionType: AggregateType,
		Aggregator:     e.Aggregator,
		Distinct:       &distinct,
		Separator:      e.Separator,
		Expression:     inner,
	})
}

func (*WildcardExpression) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonExpr{Type: exprType, ExpressionType: WildcardType})
}

func marshalArgs(args []Expression) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(args))
	for i := range args {
		bs, err := json.Marshal(args[i])
		if err != nil {
			return nil, err
		}
		out[i] = bs
	}
	return out, nil
}

// ParseExpression decodes an expression from JSON or YAML. Term positions
// accept either an RDF/JS term object or a string in the syntax of
// rdf.ParseTerm; a bare string in expression position is a term expression.
func ParseExpression(bs []byte) (Expression, error) {
	var raw json.RawMessage
	if err := util.Unmarshal(bs, &raw); err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}
	return decode(raw)
}

func decode(raw json.RawMessage) (Expression, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := rdf.ParseTerm(s)
		if err != nil {
			return nil, err
		}
		return Term(t), nil
	}
	// Bare JSON numbers and booleans use their Turtle shorthand.
	var scalar any
	if err := util.UnmarshalJSON(raw, &scalar); err == nil {
		switch scalar.(type) {
		case json.Number, bool:
			t, err := rdf.ParseTerm(string(raw))
			if err != nil {
				return nil, err
			}
			return Term(t), nil
		}
	}

	var je jsonExpr
	if err := json.Unmarshal(raw, &je); err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	switch je.ExpressionType {
	case TermType:
		if len(je.Term) == 0 {
			return nil, fmt.Errorf("term expression is missing term")
		}
		t, err := rdf.UnmarshalTerm(je.Term)
		if err != nil {
			return nil, err
		}
		return Term(t), nil
	case OperatorType:
		if je.Operator == "" {
			return nil, fmt.Errorf("operator expression is missing operator")
		}
		args, err := decodeArgs(je.Args)
		if err != nil {
			return nil, fmt.Errorf("operator %v: %w", je.Operator, err)
		}
		return &OperatorExpression{Operator: strings.ToLower(je.Operator), Args: args}, nil
	case NamedType:
		if len(je.Name) == 0 {
			return nil, fmt.Errorf("named expression is missing name")
		}
		t, err := rdf.UnmarshalTerm(je.Name)
		if err != nil {
			return nil, err
		}
		name, ok := t.(rdf.NamedNode)
		if !ok {
			return nil, fmt.Errorf("named expression name must be an IRI, got %v", t)
		}
		args, err := decodeArgs(je.Args)
		if err != nil {
			return nil, fmt.Errorf("function %v: %w", name, err)
		}
		return &NamedExpression{Name: name, Args: args}, nil
	case ExistenceType:
		var input any
		if len(je.Input) > 0 {
			if err := util.UnmarshalJSON(je.Input, &input); err != nil {
				return nil, err
			}
		}
		return &ExistenceExpression{Not: je.Not != nil && *je.Not, Input: input}, nil
	case AggregateType:
		if je.Aggregator == "" || len(je.Expression) == 0 {
			return nil, fmt.Errorf("aggregate expression needs aggregator and expression")
		}
		inner, err := decode(je.Expression)
		if err != nil {
			return nil, err
		}
		return &AggregateExpression{
			Aggregator: strings.ToLower(je.Aggregator),
			Distinct:   je.Distinct != nil && *je.Distinct,
			Separator:  je.Separator,
			Expression: inner,
		}, nil
	case WildcardType:
		return Wildcard(), nil
	}
	return nil, fmt.Errorf("unknown expression type %q", je.ExpressionType)
}

func decodeArgs(raws []json.RawMessage) ([]Expression, error) {
	args := make([]Expression, len(raws))
	for i := range raws {
		a, err := decode(raws[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = a
	}
	return args, nil
}
