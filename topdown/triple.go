// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/types"
)

func builtinTriple(_ *BuiltinContext, args []ast.Term) (ast.Term, error) {
	return ast.NewQuad(args[0], args[1], args[2], nil), nil
}

func quadComponent(i int) unaryFunc {
	return func(_ *BuiltinContext, a ast.Term) (ast.Term, error) {
		return a.(*ast.Quad).Components()[i], nil
	}
}

func init() {
	triple := declare(ast.Triple)
	for _, subject := range []string{types.NamedNode, types.BlankNode, types.Quad} {
		// The object may be any term, including a literal with an invalid
		// lexical form.
		triple.setLenient([]string{subject, types.NamedNode, types.Term}, builtinTriple)
	}
	RegisterOperator(triple.collect())

	RegisterOperator(declare(ast.Subject).onUnary(types.Quad, quadComponent(0)).collect())
	RegisterOperator(declare(ast.Predicate).onUnary(types.Quad, quadComponent(1)).collect())
	RegisterOperator(declare(ast.Object).onUnary(types.Quad, quadComponent(2)).collect())
	RegisterOperator(declare(ast.IsTriple).onTerm1(termKindTest(types.Quad)).collect())
}
