// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"maps"
	"slices"
	"strings"

	"github.com/open-policy-agent/rdfexpr/rdf"
)

// Binding is an immutable mapping from variable names to terms. The zero
// value is the empty binding.
type Binding struct {
	m map[string]rdf.Term
}

// NewBinding returns a binding holding a copy of m. Names may carry a
// leading '?'.
func NewBinding(m map[string]rdf.Term) Binding {
	cp := make(map[string]rdf.Term, len(m))
	for k, v := range m {
		cp[strings.TrimLeft(k, "?$")] = v
	}
	return Binding{m: cp}
}

// Get returns the term bound to name.
func (b Binding) Get(name string) (rdf.Term, bool) {
	t, ok := b.m[name]
	return t, ok && t != nil
}

// Has reports whether name is bound.
func (b Binding) Has(name string) bool {
	_, ok := b.Get(name)
	return ok
}

// Set returns a copy of b with name bound to t.
func (b Binding) Set(name string, t rdf.Term) Binding {
	cp := make(map[string]rdf.Term, len(b.m)+1)
	maps.Copy(cp, b.m)
	cp[name] = t
	return Binding{m: cp}
}

// Len returns the number of bound names.
func (b Binding) Len() int {
	return len(b.m)
}

// Names returns the bound names in sorted order.
func (b Binding) Names() []string {
	return slices.Sorted(maps.Keys(b.m))
}

func (b Binding) String() string {
	parts := make([]string, 0, len(b.m))
	for _, k := range b.Names() {
		if t := b.m[k]; t != nil {
			parts = append(parts, "?"+k+"="+t.String())
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
