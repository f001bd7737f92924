// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"net/url"

	"golang.org/x/text/language"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/rdf"
	"github.com/open-policy-agent/rdfexpr/types"
)

func termKindTest(kind string) unaryFunc {
	return func(_ *BuiltinContext, a ast.Term) (ast.Term, error) {
		return ast.Bool(a.TermType() == kind), nil
	}
}

func builtinStr(_ *BuiltinContext, a ast.Term) (ast.Term, error) {
	switch a.(type) {
	case *ast.NamedNode, ast.Literal:
		return ast.NewString(a.Str()), nil
	}
	return nil, invalidArgumentTypesErr(ast.Str, []ast.Term{a})
}

func builtinLang(_ *BuiltinContext, l ast.Literal) (ast.Term, error) {
	return ast.NewString(l.Language()), nil
}

func builtinDatatype(_ *BuiltinContext, l ast.Literal) (ast.Term, error) {
	return ast.NewNamedNode(l.DataType()), nil
}

// resolveIRI resolves ref against the base IRI of the evaluation.
func resolveIRI(bctx *BuiltinContext, ref string) (ast.Term, error) {
	if bctx.BaseIRI == "" {
		return ast.NewNamedNode(ref), nil
	}
	base, err := url.Parse(bctx.BaseIRI)
	if err != nil {
		return nil, expressionErr("invalid base IRI %q: %v", bctx.BaseIRI, err).Wrap(err)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, expressionErr("invalid IRI %q: %v", ref, err).Wrap(err)
	}
	return ast.NewNamedNode(base.ResolveReference(u).String()), nil
}

func builtinIRI(bctx *BuiltinContext, a ast.Term) (ast.Term, error) {
	if n, ok := a.(*ast.NamedNode); ok {
		return n, nil
	}
	return resolveIRI(bctx, a.Str())
}

func builtinStrDT(bctx *BuiltinContext, lex, dt ast.Term) (ast.Term, error) {
	return bctx.Transformer.Literal(rdf.NewLiteral(lex.Str(), dt.Str())), nil
}

func builtinStrLang(_ *BuiltinContext, lex, tag ast.Term) (ast.Term, error) {
	if _, err := language.Parse(tag.Str()); err != nil || tag.Str() == "" {
		return nil, expressionErr("invalid language tag %q", tag.Str())
	}
	return ast.NewLangString(lex.Str(), tag.Str()), nil
}

func init() {
	RegisterOperator(declare(ast.IsIRI).onTerm1(termKindTest(types.NamedNode)).collect())
	RegisterOperator(declare(ast.IsURI).onTerm1(termKindTest(types.NamedNode)).collect())
	RegisterOperator(declare(ast.IsBlank).onTerm1(termKindTest(types.BlankNode)).collect())
	RegisterOperator(declare(ast.IsLiteral).onTerm1(termKindTest(types.Literal)).collect())

	RegisterOperator(declare(ast.Str).onTerm1(builtinStr).collect())
	RegisterOperator(declare(ast.Lang).onLiteral1(builtinLang).collect())
	RegisterOperator(declare(ast.Datatype).onLiteral1(builtinDatatype).collect())

	for _, name := range []string{ast.IRI, ast.URI} {
		RegisterOperator(declare(name).
			onUnary(types.NamedNode, builtinIRI).
			onUnary(types.XSDString, builtinIRI).
			collect())
	}

	RegisterOperator(declare(ast.StrDT).onBinary(types.XSDString, types.NamedNode, builtinStrDT).collect())
	RegisterOperator(declare(ast.StrLang).onBinary(types.XSDString, types.XSDString, builtinStrLang).collect())
}
