// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package types implements the datatype hierarchy used to select operator
// overloads. Every datatype resolves to a Dict listing its ancestors; the
// built-in XSD hierarchy is computed once at start-up and unknown datatypes
// are resolved lazily through a Provider.
package types

import (
	"sort"
	"strings"
)

// Dict maps a datatype and each of its ancestors to the distance from the
// datatype (0 is the datatype itself). Depth is the datatype's distance from
// its most specific built-in ancestor, so built-in datatypes have depth 0.
// A Dict is never modified after construction.
type Dict struct {
	distances map[string]int
	depth     int
}

// Distance returns the distance from the leaf to ancestor.
func (d *Dict) Distance(ancestor string) (int, bool) {
	n, ok := d.distances[ancestor]
	return n, ok
}

// Contains reports whether ancestor is the leaf or one of its ancestors.
func (d *Dict) Contains(ancestor string) bool {
	_, ok := d.distances[ancestor]
	return ok
}

// Depth returns the leaf's distance from its most specific built-in ancestor.
func (d *Dict) Depth() int {
	return d.depth
}

// Len returns the number of entries including the leaf.
func (d *Dict) Len() int {
	return len(d.distances)
}

// Ancestors returns the chain from the leaf to the root.
func (d *Dict) Ancestors() []string {
	out := make([]string, 0, len(d.distances))
	for k := range d.distances {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return d.distances[out[i]] < d.distances[out[j]]
	})
	return out
}

func (d *Dict) String() string {
	return strings.Join(d.Ancestors(), " < ")
}

func rootDict(leaf string) *Dict {
	return &Dict{distances: map[string]int{leaf: 0}}
}

// extend returns a copy of parent with leaf inserted at distance 0. Built-in
// leaves keep depth 0.
func (d *Dict) extend(leaf string, builtin bool) *Dict {
	out := &Dict{distances: make(map[string]int, len(d.distances)+1)}
	if !builtin {
		out.depth = d.depth + 1
	}
	for k, v := range d.distances {
		out.distances[k] = v + 1
	}
	out.distances[leaf] = 0
	return out
}

// parents is the built-in hierarchy. Every chain ends in Term.
var parents = map[string]string{
	XSDDateTimeStamp: XSDDateTime,
	XSDDateTime:      Term,
	XSDDate:          Term,
	XSDTime:          Term,
	XSDGYearMonth:    Term,
	XSDGYear:         Term,
	XSDGMonthDay:     Term,
	XSDGDay:          Term,
	XSDGMonth:        Term,

	XSDDayTimeDuration:   XSDDuration,
	XSDYearMonthDuration: XSDDuration,
	XSDDuration:          Term,

	Stringly:            Term,
	RDFLangString:       Stringly,
	XSDString:           Stringly,
	XSDNormalizedString: XSDString,
	XSDToken:            XSDNormalizedString,
	XSDLanguage:         XSDToken,
	XSDNMToken:          XSDToken,
	XSDName:             XSDToken,
	XSDNCName:           XSDName,
	XSDEntity:           XSDNCName,
	XSDID:               XSDNCName,
	XSDIDRef:            XSDNCName,

	XSDBoolean: Term,
	XSDAnyURI:  Term,

	Numeric:               Term,
	XSDDouble:             Numeric,
	XSDFloat:              Numeric,
	XSDDecimal:            Numeric,
	XSDInteger:            XSDDecimal,
	XSDNonPositiveInteger: XSDInteger,
	XSDNegativeInteger:    XSDNonPositiveInteger,
	XSDLong:               XSDInteger,
	XSDInt:                XSDLong,
	XSDShort:              XSDInt,
	XSDByte:               XSDShort,
	XSDNonNegativeInteger: XSDInteger,
	XSDPositiveInteger:    XSDNonNegativeInteger,
	XSDUnsignedLong:       XSDNonNegativeInteger,
	XSDUnsignedInt:        XSDUnsignedLong,
	XSDUnsignedShort:      XSDUnsignedInt,
	XSDUnsignedByte:       XSDUnsignedShort,

	XSDBase64Binary: Term,
	XSDHexBinary:    Term,
}

var builtins = buildTable()

func buildTable() map[string]*Dict {
	table := make(map[string]*Dict, len(parents))
	var resolve func(string) *Dict
	resolve = func(t string) *Dict {
		if d, ok := table[t]; ok {
			return d
		}
		var d *Dict
		if p := parents[t]; p == Term {
			d = rootDict(t)
		} else {
			d = resolve(p).extend(t, true)
		}
		table[t] = d
		return d
	}
	for t := range parents {
		resolve(t)
	}
	return table
}

// Builtin returns the static Dict of a datatype known to the evaluator.
func Builtin(datatype string) (*Dict, bool) {
	d, ok := builtins[datatype]
	return d, ok
}

// IsBuiltin reports whether the datatype is part of the static hierarchy.
func IsBuiltin(datatype string) bool {
	_, ok := builtins[datatype]
	return ok
}

// Parent returns the direct parent of a built-in datatype, or Term.
func Parent(datatype string) string {
	if p, ok := parents[datatype]; ok {
		return p
	}
	return Term
}
