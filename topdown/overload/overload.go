// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package overload selects operator implementations from the runtime types
// of their arguments. Each operator owns a Tree built once at start-up; the
// trees are read-only afterwards and may be searched concurrently.
package overload

import (
	"slices"
	"strings"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/types"
)

// Func is an operator implementation. C is the evaluation context type of
// the caller.
type Func[C any] func(c C, args []ast.Term) (ast.Term, error)

// conversion adapts an argument reached through a promotion edge to the type
// the implementation was registered for.
type conversion func(ast.Term) ast.Term

type promotion struct {
	from    string
	convert conversion
}

// promotions lists, per registered datatype, the datatypes it also serves.
var promotions = map[string][]promotion{
	types.XSDString: {{from: types.XSDAnyURI, convert: toString}},
	types.XSDDouble: {{from: types.XSDFloat, convert: toDouble}, {from: types.XSDDecimal, convert: toDouble}},
	types.XSDFloat:  {{from: types.XSDDecimal, convert: toFloat}},
}

func toString(t ast.Term) ast.Term {
	if l, ok := t.(ast.Literal); ok && !ast.IsNonLexical(l) {
		return ast.NewString(l.Str())
	}
	return t
}

func toDouble(t ast.Term) ast.Term {
	if n, ok := t.(ast.Numeric); ok {
		return ast.NewDouble(n.Float64())
	}
	return t
}

func toFloat(t ast.Term) ast.Term {
	if n, ok := t.(ast.Numeric); ok {
		return ast.NewFloat(float64(float32(n.Float64())))
	}
	return t
}

type literalEdge[C any] struct {
	datatype string
	child    *Tree[C]
}

// Tree is a node of an overload resolution tree. Each level corresponds to
// one argument position. Edges are either term kinds (including the generic
// types.Term) or literal datatypes.
type Tree[C any] struct {
	id         string
	impl       Func[C]
	promotions int
	kinds      map[string]*Tree[C]
	literals   []literalEdge[C]
	arities    []int
}

// New returns an empty tree for the operator identified by id. The id keys
// the shared result cache and must be unique per operator.
func New[C any](id string) *Tree[C] {
	return &Tree[C]{id: id}
}

// ID returns the operator identifier of the tree.
func (t *Tree[C]) ID() string {
	return t.id
}

// Arities returns the distinct argument counts registered on the tree in
// ascending order.
func (t *Tree[C]) Arities() []int {
	return t.arities
}

// Add registers impl for the argument types in argTypes. Each type is a term
// kind or a datatype IRI. Registering for xsd:string also serves xsd:anyURI,
// registering for xsd:double also serves xsd:float and xsd:decimal, and
// registering for xsd:float also serves xsd:decimal; these derived paths
// never replace a registration reached with fewer promotions.
func (t *Tree[C]) Add(argTypes []string, impl Func[C]) {
	if !slices.Contains(t.arities, len(argTypes)) {
		t.arities = append(t.arities, len(argTypes))
		slices.Sort(t.arities)
	}
	t.add(argTypes, 0, impl, 0)
}

func (t *Tree[C]) add(argTypes []string, pos int, impl Func[C], promoted int) {
	if pos == len(argTypes) {
		if t.impl == nil || promoted <= t.promotions {
			t.impl = impl
			t.promotions = promoted
		}
		return
	}

	typ := argTypes[pos]
	t.edge(typ).add(argTypes, pos+1, impl, promoted)

	for _, p := range promotions[typ] {
		t.edge(p.from).add(argTypes, pos+1, convertAt(impl, pos, p.convert), promoted+1)
	}
}

func convertAt[C any](impl Func[C], pos int, convert conversion) Func[C] {
	return func(c C, args []ast.Term) (ast.Term, error) {
		cp := slices.Clone(args)
		cp[pos] = convert(cp[pos])
		return impl(c, cp)
	}
}

func (t *Tree[C]) edge(typ string) *Tree[C] {
	if types.IsTermKind(typ) {
		if t.kinds == nil {
			t.kinds = map[string]*Tree[C]{}
		}
		child, ok := t.kinds[typ]
		if !ok {
			child = &Tree[C]{id: t.id}
			t.kinds[typ] = child
		}
		return child
	}
	for _, e := range t.literals {
		if e.datatype == typ {
			return e.child
		}
	}
	child := &Tree[C]{id: t.id}
	t.literals = append(t.literals, literalEdge[C]{datatype: typ, child: child})
	return child
}

type frame[C any] struct {
	node *Tree[C]
	pos  int
}

// Search returns the implementation matching args or nil. A match requires a
// path consuming every argument that ends at a registered implementation.
// Results, including misses, are memoized in cache when it is not nil.
func (t *Tree[C]) Search(args []ast.Term, provider *types.Provider, cache *Cache[C]) Func[C] {
	var key string
	if cache != nil {
		key = cacheKey(t.id, args)
		if impl, ok := cache.get(key); ok {
			return impl
		}
	}

	impl := t.search(args, provider)

	if cache != nil {
		cache.put(key, impl)
	}
	return impl
}

func (t *Tree[C]) search(args []ast.Term, provider *types.Provider) Func[C] {
	stack := []frame[C]{{node: t, pos: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.pos == len(args) {
			if f.node.impl != nil {
				return f.node.impl
			}
			continue
		}
		stack = f.node.push(stack, args[f.pos], f.pos+1, provider)
	}
	return nil
}

// push appends the children of t reachable with arg so that the most
// specific one is popped first: literal edges by ascending distance, then
// the term kind edge, then the generic edge.
func (t *Tree[C]) push(stack []frame[C], arg ast.Term, pos int, provider *types.Provider) []frame[C] {
	if child, ok := t.kinds[types.Term]; ok {
		stack = append(stack, frame[C]{node: child, pos: pos})
	}
	if child, ok := t.kinds[arg.TermType()]; ok {
		stack = append(stack, frame[C]{node: child, pos: pos})
	}

	lit, ok := arg.(ast.Literal)
	if !ok || len(t.literals) == 0 {
		return stack
	}

	dict := provider.Ancestors(lit.DataType())
	type match struct {
		dist  int
		child *Tree[C]
	}
	var matches []match
	for _, e := range t.literals {
		if d, ok := dict.Distance(e.datatype); ok {
			matches = append(matches, match{dist: d, child: e.child})
		}
	}
	slices.SortStableFunc(matches, func(a, b match) int {
		return b.dist - a.dist
	})
	for _, m := range matches {
		stack = append(stack, frame[C]{node: m.child, pos: pos})
	}
	return stack
}

func cacheKey(id string, args []ast.Term) string {
	var sb strings.Builder
	sb.WriteString(id)
	for _, a := range args {
		sb.WriteByte(0)
		if l, ok := a.(ast.Literal); ok {
			sb.WriteString(l.DataType())
		} else {
			sb.WriteString(a.TermType())
		}
	}
	return sb.String()
}
