// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"maps"
	"slices"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/internal/levenshtein"
	"github.com/open-policy-agent/rdfexpr/topdown/overload"
)

// maxDistanceForHint is the edit distance up to which unknown operator
// errors suggest a registered name.
const maxDistanceForHint = 2

type builtinFunc = overload.Func[*BuiltinContext]

type builtinTree = overload.Tree[*BuiltinContext]

var (
	// operators holds the regular operators by name.
	operators = map[string]*builtinTree{}

	// namedFunctions holds the constructor functions by IRI.
	namedFunctions = map[string]*builtinTree{}
)

// RegisterOperator adds or replaces a regular operator. It must be called
// before any evaluator is created, typically from an init function.
func RegisterOperator(tree *overload.Tree[*BuiltinContext]) {
	operators[tree.ID()] = tree
}

// RegisterNamedFunction adds or replaces a constructor function identified by
// the IRI the tree was created with.
func RegisterNamedFunction(tree *overload.Tree[*BuiltinContext]) {
	namedFunctions[tree.ID()] = tree
}

func applyTree(bctx *BuiltinContext, tree *builtinTree, args []ast.Term) (ast.Term, error) {
	impl := tree.Search(args, bctx.Types, bctx.cache)
	if impl == nil {
		return nil, invalidArgumentTypesErr(tree.ID(), args)
	}
	return impl(bctx, args)
}

// applyOperator applies a registered regular operator by name.
func applyOperator(bctx *BuiltinContext, name string, args ...ast.Term) (ast.Term, error) {
	tree, ok := operators[name]
	if !ok {
		return nil, unknownOperatorErr(name, nil)
	}
	return applyTree(bctx, tree, args)
}

func suggest(name string, candidates map[string]*builtinTree) []string {
	return levenshtein.ClosestStrings(maxDistanceForHint, name, maps.Keys(candidates))
}

// Function kinds.
const (
	KindOperator = "operator"
	KindSpecial  = "special"
	KindNamed    = "named"
)

// FunctionInfo describes a registered function.
type FunctionInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Arities  []int  `json:"arities,omitempty"`
	Variadic bool   `json:"variadic,omitempty"`
	// MinArity is the minimum argument count of a variadic function.
	MinArity int `json:"min_arity,omitempty"`
}

// Functions lists the registered operators, functional forms and
// constructor functions, sorted by kind and name.
func Functions() []FunctionInfo {
	out := make([]FunctionInfo, 0, len(operators)+len(specialForms)+len(namedFunctions))
	for _, name := range slices.Sorted(maps.Keys(operators)) {
		out = append(out, FunctionInfo{Name: name, Kind: KindOperator, Arities: operators[name].Arities()})
	}
	for _, name := range slices.Sorted(maps.Keys(specialForms)) {
		a := specialForms[name].arity
		info := FunctionInfo{Name: name, Kind: KindSpecial}
		if a.variadic {
			info.Variadic = true
			info.MinArity = a.min
		} else {
			info.Arities = a.fixed
		}
		out = append(out, info)
	}
	for _, name := range slices.Sorted(maps.Keys(namedFunctions)) {
		out = append(out, FunctionInfo{Name: name, Kind: KindNamed, Arities: namedFunctions[name].Arities()})
	}
	return out
}
