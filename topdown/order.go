// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/rdf"
)

var defaultBuiltinContext = sync.OnceValue(func() *BuiltinContext {
	return newBuiltinContext(Config{Now: time.Now().UTC()}.withDefaults())
})

// CompareTerms orders RDF terms the way ORDER BY does. nil stands for an
// unbound value and sorts first, followed by blank nodes, IRIs, literals
// and quoted triples. Literals are ordered by value when they are
// comparable, and otherwise by datatype, lexical form and language.
func CompareTerms(a, b rdf.Term) int {
	bctx := defaultBuiltinContext()
	var x, y ast.Term
	if a != nil {
		x, _ = bctx.Transformer.Term(a)
	}
	if b != nil {
		y, _ = bctx.Transformer.Term(b)
	}
	return compareInternal(bctx, x, y)
}

func orderRank(t ast.Term) int {
	if t == nil {
		return 0
	}
	switch t.(type) {
	case *ast.BlankNode:
		return 1
	case *ast.NamedNode:
		return 2
	case ast.Literal:
		return 3
	case *ast.Quad:
		return 4
	}
	return 5
}

func compareInternal(bctx *BuiltinContext, a, b ast.Term) int {
	ra, rb := orderRank(a), orderRank(b)
	if ra != rb {
		return compareInt64(int64(ra), int64(rb))
	}
	switch x := a.(type) {
	case nil:
		return 0
	case ast.Literal:
		return compareLiterals(bctx, x, b.(ast.Literal))
	case *ast.Quad:
		xs, ys := x.Components(), b.(*ast.Quad).Components()
		for i := range xs {
			if c := compareInternal(bctx, xs[i], ys[i]); c != 0 {
				return c
			}
		}
		return 0
	}
	return compareStrings(a.Str(), b.Str())
}

func compareLiterals(bctx *BuiltinContext, a, b ast.Literal) int {
	if holds(bctx, ast.Equal, a, b) {
		return 0
	}
	if holds(bctx, ast.LessThan, a, b) {
		return -1
	}
	if holds(bctx, ast.LessThan, b, a) {
		return 1
	}
	if c := strings.Compare(a.DataType(), b.DataType()); c != 0 {
		return c
	}
	if c := compareStrings(a.Str(), b.Str()); c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(a.Language()), strings.ToLower(b.Language()))
}

// holds reports whether the comparison op succeeds and is true.
func holds(bctx *BuiltinContext, op string, a, b ast.Term) bool {
	r, err := applyOperator(bctx, op, a, b)
	if err != nil {
		return false
	}
	bl, ok := r.(*ast.BooleanLiteral)
	return ok && bl.Value
}
