// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package types

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuiltinAncestors(t *testing.T) {
	tests := []struct {
		note     string
		datatype string
		exp      []string
	}{
		{
			note:     "integer",
			datatype: XSDInteger,
			exp:      []string{XSDInteger, XSDDecimal, Numeric},
		},
		{
			note:     "byte",
			datatype: XSDByte,
			exp:      []string{XSDByte, XSDShort, XSDInt, XSDLong, XSDInteger, XSDDecimal, Numeric},
		},
		{
			note:     "double",
			datatype: XSDDouble,
			exp:      []string{XSDDouble, Numeric},
		},
		{
			note:     "lang string",
			datatype: RDFLangString,
			exp:      []string{RDFLangString, Stringly},
		},
		{
			note:     "token",
			datatype: XSDToken,
			exp:      []string{XSDToken, XSDNormalizedString, XSDString, Stringly},
		},
		{
			note:     "date time stamp",
			datatype: XSDDateTimeStamp,
			exp:      []string{XSDDateTimeStamp, XSDDateTime},
		},
		{
			note:     "boolean root",
			datatype: XSDBoolean,
			exp:      []string{XSDBoolean},
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			d, ok := Builtin(tc.datatype)
			if !ok {
				t.Fatalf("expected %v to be built-in", tc.datatype)
			}
			if diff := cmp.Diff(tc.exp, d.Ancestors()); diff != "" {
				t.Fatalf("unexpected ancestors (-want, +got):\n%s", diff)
			}
			if d.Depth() != 0 {
				t.Fatalf("expected built-in depth 0 but got %d", d.Depth())
			}
			for i, a := range tc.exp {
				if n, _ := d.Distance(a); n != i {
					t.Fatalf("expected distance %d to %v but got %d", i, a, n)
				}
			}
		})
	}
}

func TestBuiltinTableHasNoTerm(t *testing.T) {
	for dt, d := range builtins {
		if d.Contains(Term) {
			t.Fatalf("%v: term must not appear as an ancestor", dt)
		}
	}
}

func TestProviderDiscovery(t *testing.T) {
	calls := map[string]int{}
	var mu sync.Mutex
	parents := map[string]string{
		"http://example.org/specialString": XSDString,
		"http://example.org/verySpecial":   "http://example.org/specialString",
	}
	p := NewProvider(func(dt string) string {
		mu.Lock()
		calls[dt]++
		mu.Unlock()
		return MapDiscoverer(parents)(dt)
	}, ProviderOpts{})

	d := p.Ancestors("http://example.org/verySpecial")
	exp := []string{
		"http://example.org/verySpecial",
		"http://example.org/specialString",
		XSDString,
		Stringly,
	}
	if diff := cmp.Diff(exp, d.Ancestors()); diff != "" {
		t.Fatalf("unexpected ancestors (-want, +got):\n%s", diff)
	}
	if d.Depth() != 2 {
		t.Fatalf("expected depth 2 but got %d", d.Depth())
	}
	if n := p.Ancestors("http://example.org/specialString").Depth(); n != 1 {
		t.Fatalf("expected depth 1 but got %d", n)
	}

	p.Ancestors("http://example.org/verySpecial")
	p.Ancestors("http://example.org/specialString")

	if diff := cmp.Diff(map[string]int{
		"http://example.org/verySpecial":   1,
		"http://example.org/specialString": 1,
	}, calls); diff != "" {
		t.Fatalf("expected one discovery per datatype (-want, +got):\n%s", diff)
	}
	if p.Discoveries() != 2 {
		t.Fatalf("expected 2 discoveries but got %d", p.Discoveries())
	}
}

func TestProviderGenericDatatype(t *testing.T) {
	p := NewProvider(nil, ProviderOpts{})
	d := p.Ancestors("http://example.org/unknown")
	if diff := cmp.Diff([]string{"http://example.org/unknown"}, d.Ancestors()); diff != "" {
		t.Fatalf("unexpected ancestors (-want, +got):\n%s", diff)
	}
	if d.Depth() != 0 {
		t.Fatalf("expected depth 0 but got %d", d.Depth())
	}
}

func TestProviderCycle(t *testing.T) {
	p := NewProvider(MapDiscoverer(map[string]string{
		"http://example.org/a": "http://example.org/b",
		"http://example.org/b": "http://example.org/a",
	}), ProviderOpts{})

	d := p.Ancestors("http://example.org/a")
	exp := []string{"http://example.org/a", "http://example.org/b"}
	if diff := cmp.Diff(exp, d.Ancestors()); diff != "" {
		t.Fatalf("unexpected ancestors (-want, +got):\n%s", diff)
	}
}

func TestProviderConcurrentMisses(t *testing.T) {
	var mu sync.Mutex
	count := 0
	p := NewProvider(func(string) string {
		mu.Lock()
		count++
		mu.Unlock()
		return XSDInteger
	}, ProviderOpts{Size: 16})

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !p.IsSubtypeOf("http://example.org/myInt", Numeric) {
				t.Error("expected custom integer to be numeric")
			}
		}()
	}
	wg.Wait()

	if count != 1 {
		t.Fatalf("expected exactly one discovery but got %d", count)
	}
	if n := p.Ancestors("http://example.org/myInt").Depth(); n != 1 {
		t.Fatalf("expected depth 1 but got %d", n)
	}
}

func TestIsSubtypeOf(t *testing.T) {
	p := NewProvider(nil, ProviderOpts{})
	tests := []struct {
		note     string
		base     string
		ancestor string
		exp      bool
	}{
		{"self", XSDString, XSDString, true},
		{"integer numeric", XSDInteger, Numeric, true},
		{"float not decimal", XSDFloat, XSDDecimal, false},
		{"anyURI not string", XSDAnyURI, XSDString, false},
		{"term is never a subtype", Term, Term, false},
		{"nothing is below term", XSDString, Term, false},
	}
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			if got := p.IsSubtypeOf(tc.base, tc.ancestor); got != tc.exp {
				t.Fatalf("expected %v but got %v", tc.exp, got)
			}
		})
	}
}
