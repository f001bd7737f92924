// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"fmt"
	"iter"
	"maps"
	"strings"

	"github.com/open-policy-agent/rdfexpr/algebra"
	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/internal/levenshtein"
	"github.com/open-policy-agent/rdfexpr/logging"
	"github.com/open-policy-agent/rdfexpr/rdf"
)

// compiler translates algebra expressions into evaluable expressions. It
// resolves operator names and function IRIs and checks the arity of
// functional forms, so that none of that happens per binding.
type compiler struct {
	transformer *ast.Transformer
	extensions  ExtensionFunctionResolver
	logger      logging.Logger
}

// Compile translates expr using the function registries and the extension
// function resolver of c.
func Compile(expr algebra.Expression, c Config) (ast.Expression, error) {
	c = c.withDefaults()
	return newCompiler(c).compile(expr)
}

func newCompiler(c Config) *compiler {
	return &compiler{
		transformer: ast.NewTransformer(c.Types),
		extensions:  c.ExtensionFunctions,
		logger:      c.Logger,
	}
}

func (c *compiler) compile(expr algebra.Expression) (ast.Expression, error) {
	switch x := expr.(type) {
	case *algebra.TermExpression:
		return c.compileTerm(x.Term)
	case *algebra.OperatorExpression:
		return c.compileOperator(x)
	case *algebra.NamedExpression:
		return c.compileNamed(x)
	case *algebra.ExistenceExpression:
		return &ast.Existence{Expression: x}, nil
	case *algebra.AggregateExpression:
		return &ast.Aggregate{Expression: x}, nil
	case *algebra.WildcardExpression:
		return nil, unsupportedErr("wildcard outside of an aggregate")
	case nil:
		return nil, fmt.Errorf("missing expression")
	}
	return nil, fmt.Errorf("unsupported expression type %T", expr)
}

func (c *compiler) compileArgs(args []algebra.Expression) ([]ast.Expression, error) {
	out := make([]ast.Expression, len(args))
	for i, a := range args {
		e, err := c.compile(a)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// compileTerm converts constants. A quoted triple containing variables
// becomes a call of TRIPLE over its compiled components.
func (c *compiler) compileTerm(t rdf.Term) (ast.Expression, error) {
	switch t := t.(type) {
	case rdf.Variable:
		return &ast.Variable{Name: t.Name}, nil
	case rdf.Quad:
		if !containsVariable(t) {
			break
		}
		args := make([]ast.Expression, 3)
		for i, part := range []rdf.Term{t.Subject, t.Predicate, t.Object} {
			e, err := c.compileTerm(part)
			if err != nil {
				return nil, err
			}
			args[i] = e
		}
		return &ast.Call{Operator: ast.Triple, Args: args}, nil
	}
	return c.transformer.Term(t)
}

func containsVariable(t rdf.Term) bool {
	switch t := t.(type) {
	case rdf.Variable:
		return true
	case rdf.Quad:
		return containsVariable(t.Subject) || containsVariable(t.Predicate) || containsVariable(t.Object)
	}
	return false
}

func (c *compiler) compileOperator(x *algebra.OperatorExpression) (ast.Expression, error) {
	name := strings.ToLower(x.Operator)
	args, err := c.compileArgs(x.Args)
	if err != nil {
		return nil, err
	}

	if form, ok := specialForms[name]; ok {
		if !form.arity.accepts(len(args)) {
			return nil, arityErr(name, len(args), form.arity.String())
		}
		if name == ast.Bound {
			if _, ok := args[0].(*ast.Variable); !ok {
				return nil, &Error{Code: TypeErr, Message: fmt.Sprintf("%v: argument must be a variable, got %v", name, args[0])}
			}
		}
		return &ast.SpecialCall{Operator: name, Args: args}, nil
	}

	if _, ok := operators[name]; ok {
		return &ast.Call{Operator: name, Args: args}, nil
	}
	return nil, unknownOperatorErr(name, suggestOperator(name))
}

func (c *compiler) compileNamed(x *algebra.NamedExpression) (ast.Expression, error) {
	iri := x.Name.IRI
	args, err := c.compileArgs(x.Args)
	if err != nil {
		return nil, err
	}
	if _, ok := namedFunctions[iri]; ok {
		return &ast.NamedCall{IRI: iri, Args: args}, nil
	}
	if c.extensions != nil {
		if fn := c.extensions(iri); fn != nil {
			return &ast.ExtensionCall{IRI: iri, Args: args, Func: fn}, nil
		}
	}
	c.logger.Debug("No function registered for %v.", iri)
	return nil, unknownOperatorErr(iri, suggest(iri, namedFunctions))
}

// suggestOperator proposes regular operators and functional forms close to
// name.
func suggestOperator(name string) []string {
	names := func(yield func(string) bool) {
		for _, seq := range []iter.Seq[string]{maps.Keys(operators), maps.Keys(specialForms)} {
			for n := range seq {
				if !yield(n) {
					return
				}
			}
		}
	}
	return levenshtein.ClosestStrings(maxDistanceForHint, name, names)
}
