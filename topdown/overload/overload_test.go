// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package overload

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/types"
)

type nothing struct{}

// named returns an implementation reporting its name and the datatypes of
// the arguments it received.
func named(name string) Func[nothing] {
	return func(_ nothing, args []ast.Term) (ast.Term, error) {
		s := name
		for _, a := range args {
			if l, ok := a.(ast.Literal); ok {
				s += " " + l.DataType()
			} else {
				s += " " + a.TermType()
			}
		}
		return ast.NewString(s), nil
	}
}

func call(t *testing.T, impl Func[nothing], args ...ast.Term) string {
	t.Helper()
	if impl == nil {
		return "<none>"
	}
	out, err := impl(nothing{}, args)
	if err != nil {
		t.Fatal(err)
	}
	return out.Str()
}

func numericTree() *Tree[nothing] {
	tree := New[nothing]("+")
	tree.Add([]string{types.XSDInteger, types.XSDInteger}, named("integer"))
	tree.Add([]string{types.XSDDecimal, types.XSDDecimal}, named("decimal"))
	tree.Add([]string{types.XSDFloat, types.XSDFloat}, named("float"))
	tree.Add([]string{types.XSDDouble, types.XSDDouble}, named("double"))
	return tree
}

var (
	i1 = ast.NewInteger(1)
	d1 = ast.NewDecimal(big.NewRat(1, 1))
	f1 = ast.NewFloat(1)
	b1 = ast.NewDouble(1)
)

func TestSearchNumericPromotion(t *testing.T) {
	tests := []struct {
		note string
		args []ast.Term
		exp  string
	}{
		{note: "integer integer", args: []ast.Term{i1, i1}, exp: "integer " + types.XSDInteger + " " + types.XSDInteger},
		{note: "decimal decimal", args: []ast.Term{d1, d1}, exp: "decimal " + types.XSDDecimal + " " + types.XSDDecimal},
		{note: "integer decimal substitutes", args: []ast.Term{i1, d1}, exp: "decimal " + types.XSDInteger + " " + types.XSDDecimal},
		{note: "float decimal promotes once", args: []ast.Term{f1, d1}, exp: "float " + types.XSDFloat + " " + types.XSDFloat},
		{note: "decimal float promotes once", args: []ast.Term{d1, f1}, exp: "float " + types.XSDFloat + " " + types.XSDFloat},
		{note: "integer float", args: []ast.Term{i1, f1}, exp: "float " + types.XSDFloat + " " + types.XSDFloat},
		{note: "float double", args: []ast.Term{f1, b1}, exp: "double " + types.XSDDouble + " " + types.XSDDouble},
		{note: "integer double", args: []ast.Term{i1, b1}, exp: "double " + types.XSDDouble + " " + types.XSDDouble},
		{note: "byte int", args: []ast.Term{&ast.IntegerLiteral{Value: big.NewInt(1), Type: types.XSDByte}, i1}, exp: "integer " + types.XSDByte + " " + types.XSDInteger},
		{note: "string", args: []ast.Term{ast.NewString("a"), i1}, exp: "<none>"},
		{note: "too few", args: []ast.Term{i1}, exp: "<none>"},
		{note: "too many", args: []ast.Term{i1, i1, i1}, exp: "<none>"},
	}

	provider := types.NewProvider(nil, types.ProviderOpts{})
	for _, order := range []string{"forward", "reverse"} {
		tree := numericTree()
		if order == "reverse" {
			tree = New[nothing]("+")
			tree.Add([]string{types.XSDDouble, types.XSDDouble}, named("double"))
			tree.Add([]string{types.XSDFloat, types.XSDFloat}, named("float"))
			tree.Add([]string{types.XSDDecimal, types.XSDDecimal}, named("decimal"))
			tree.Add([]string{types.XSDInteger, types.XSDInteger}, named("integer"))
		}
		for _, tc := range tests {
			t.Run(order+"/"+tc.note, func(t *testing.T) {
				got := call(t, tree.Search(tc.args, provider, nil), tc.args...)
				if got != tc.exp {
					t.Fatalf("expected %q but got %q", tc.exp, got)
				}
			})
		}
	}
}

func TestSearchDecimalNeverPromoted(t *testing.T) {
	provider := types.NewProvider(nil, types.ProviderOpts{})
	tree := numericTree()
	for _, args := range [][]ast.Term{{d1, d1}, {i1, d1}, {d1, i1}} {
		got := call(t, tree.Search(args, provider, nil), args...)
		if got[:len("decimal")] != "decimal" {
			t.Fatalf("expected decimal overload for %v, got %q", args, got)
		}
	}
}

func TestSearchStringPromotion(t *testing.T) {
	provider := types.NewProvider(nil, types.ProviderOpts{})
	tree := New[nothing]("strlen")
	tree.Add([]string{types.XSDString}, named("string"))

	uri := ast.NewOther("http://example.org", types.XSDAnyURI)
	got := call(t, tree.Search([]ast.Term{uri}, provider, nil), uri)
	if exp := "string " + types.XSDString; got != exp {
		t.Fatalf("expected %q but got %q", exp, got)
	}

	tok := &ast.StringLiteral{Value: "a", Type: types.XSDToken}
	got = call(t, tree.Search([]ast.Term{tok}, provider, nil), tok)
	if exp := "string " + types.XSDToken; got != exp {
		t.Fatalf("expected subtype to be passed unchanged, got %q", got)
	}
}

func TestSearchPrefersClosestAncestor(t *testing.T) {
	provider := types.NewProvider(nil, types.ProviderOpts{})
	tree := New[nothing]("f")
	tree.Add([]string{types.Term}, named("term"))
	tree.Add([]string{types.Literal}, named("literal"))
	tree.Add([]string{types.Numeric}, named("numeric"))
	tree.Add([]string{types.XSDInteger}, named("integer"))

	tests := []struct {
		note string
		arg  ast.Term
		exp  string
	}{
		{note: "exact", arg: i1, exp: "integer"},
		{note: "subtype", arg: &ast.IntegerLiteral{Value: big.NewInt(1), Type: types.XSDShort}, exp: "integer"},
		{note: "alias", arg: b1, exp: "numeric"},
		{note: "term kind", arg: ast.NewString("x"), exp: "literal"},
		{note: "generic", arg: ast.NewNamedNode("http://ex"), exp: "term"},
	}
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			got := call(t, tree.Search([]ast.Term{tc.arg}, provider, nil), tc.arg)
			if got[:len(tc.exp)] != tc.exp {
				t.Fatalf("expected %q overload but got %q", tc.exp, got)
			}
		})
	}
}

func TestSearchBacktracks(t *testing.T) {
	provider := types.NewProvider(nil, types.ProviderOpts{})
	tree := New[nothing]("f")
	tree.Add([]string{types.XSDInteger, types.XSDInteger}, named("specific"))
	tree.Add([]string{types.Term, types.XSDString}, named("generic"))

	args := []ast.Term{i1, ast.NewString("x")}
	got := call(t, tree.Search(args, provider, nil), args...)
	if got[:len("generic")] != "generic" {
		t.Fatalf("expected search to backtrack to the generic edge, got %q", got)
	}
}

func TestSearchDiscoveredDatatype(t *testing.T) {
	provider := types.NewProvider(types.MapDiscoverer(map[string]string{
		"http://example.org/specialString": types.XSDString,
	}), types.ProviderOpts{})
	tree := New[nothing]("strlen")
	tree.Add([]string{types.XSDString}, named("string"))

	arg := &ast.StringLiteral{Value: "apple", Type: "http://example.org/specialString"}
	got := call(t, tree.Search([]ast.Term{arg}, provider, nil), arg)
	if got != "string http://example.org/specialString" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestCacheTransparency(t *testing.T) {
	provider := types.NewProvider(nil, types.ProviderOpts{})
	tree := numericTree()
	cache := NewCache[nothing](10)

	inputs := [][]ast.Term{{i1, i1}, {f1, d1}, {ast.NewString("a"), i1}, {b1, i1}}
	var cold, warm []string
	for _, args := range inputs {
		cold = append(cold, call(t, tree.Search(args, provider, cache), args...))
	}
	for _, args := range inputs {
		warm = append(warm, call(t, tree.Search(args, provider, cache), args...))
	}
	var uncached []string
	for _, args := range inputs {
		uncached = append(uncached, call(t, tree.Search(args, provider, nil), args...))
	}

	if diff := cmp.Diff(cold, warm); diff != "" {
		t.Fatalf("cold and warm results differ (-cold, +warm):\n%s", diff)
	}
	if diff := cmp.Diff(uncached, warm); diff != "" {
		t.Fatalf("cached results differ (-uncached, +cached):\n%s", diff)
	}
	if cache.Misses() != uint64(len(inputs)) || cache.Hits() != uint64(len(inputs)) {
		t.Fatalf("expected %d hits and misses, got %d hits and %d misses", len(inputs), cache.Hits(), cache.Misses())
	}
	if cache.Len() != len(inputs) {
		t.Fatalf("expected negative results to be cached, got %d entries", cache.Len())
	}
}

func TestCacheKeysIncludeOperator(t *testing.T) {
	provider := types.NewProvider(nil, types.ProviderOpts{})
	cache := NewCache[nothing](10)
	a := New[nothing]("a")
	a.Add([]string{types.XSDInteger}, named("a"))
	b := New[nothing]("b")
	b.Add([]string{types.XSDInteger}, named("b"))

	if got := call(t, a.Search([]ast.Term{i1}, provider, cache), i1); got[:1] != "a" {
		t.Fatalf("unexpected %q", got)
	}
	if got := call(t, b.Search([]ast.Term{i1}, provider, cache), i1); got[:1] != "b" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestArities(t *testing.T) {
	tree := New[nothing]("substr")
	tree.Add([]string{types.XSDString, types.XSDInteger, types.XSDInteger}, named("3"))
	tree.Add([]string{types.XSDString, types.XSDInteger}, named("2"))
	if diff := cmp.Diff([]int{2, 3}, tree.Arities()); diff != "" {
		t.Fatal(diff)
	}
}
