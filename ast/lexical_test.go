// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"math"
	"math/big"
	"testing"

	"github.com/open-policy-agent/rdfexpr/types"
)

func TestCanonicalNumbers(t *testing.T) {
	tests := []struct {
		note     string
		datatype string
		lexical  string
		exp      string
	}{
		{note: "integer leading zeros", datatype: types.XSDInteger, lexical: "007", exp: "7"},
		{note: "integer plus", datatype: types.XSDInteger, lexical: "+12", exp: "12"},
		{note: "integer negative zero", datatype: types.XSDInteger, lexical: "-0", exp: "0"},
		{note: "decimal trailing zeros", datatype: types.XSDDecimal, lexical: "1.500", exp: "1.5"},
		{note: "decimal integral", datatype: types.XSDDecimal, lexical: "2", exp: "2.0"},
		{note: "decimal trailing dot", datatype: types.XSDDecimal, lexical: "3.", exp: "3.0"},
		{note: "decimal leading dot", datatype: types.XSDDecimal, lexical: "-.25", exp: "-0.25"},
		{note: "double fraction", datatype: types.XSDDouble, lexical: "0.1", exp: "1.0E-1"},
		{note: "double hundred", datatype: types.XSDDouble, lexical: "100", exp: "1.0E2"},
		{note: "double zero", datatype: types.XSDDouble, lexical: "0", exp: "0.0E0"},
		{note: "double mantissa", datatype: types.XSDDouble, lexical: "1.5e0", exp: "1.5E0"},
		{note: "double negative", datatype: types.XSDDouble, lexical: "-12.5E+3", exp: "-1.25E4"},
		{note: "double inf", datatype: types.XSDDouble, lexical: "+INF", exp: "INF"},
		{note: "double nan", datatype: types.XSDDouble, lexical: "NaN", exp: "NaN"},
		{note: "float single precision", datatype: types.XSDFloat, lexical: "0.1", exp: "1.0E-1"},
		{note: "float negative inf", datatype: types.XSDFloat, lexical: "-INF", exp: "-INF"},
	}

	tr := NewTransformer(nil)
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			lit := tr.Literal(rdfLiteral(tc.lexical, tc.datatype))
			if IsNonLexical(lit) {
				t.Fatalf("expected %q to be valid %v", tc.lexical, tc.datatype)
			}
			if lit.Str() != tc.lexical {
				t.Fatalf("expected lexical form %q to be preserved, got %q", tc.lexical, lit.Str())
			}
			var got string
			switch l := lit.(type) {
			case *IntegerLiteral:
				got = FormatInteger(l.Value)
			case *DecimalLiteral:
				got = FormatDecimal(l.Value)
			case *DoubleLiteral:
				got = FormatDouble(l.Value)
			case *FloatLiteral:
				got = FormatFloat(l.Value)
			default:
				t.Fatalf("unexpected literal %T", lit)
			}
			if got != tc.exp {
				t.Fatalf("expected canonical %q but got %q", tc.exp, got)
			}
		})
	}
}

func TestComputedLiteralsAreCanonical(t *testing.T) {
	tests := []struct {
		note string
		lit  Literal
		exp  string
	}{
		{note: "integer", lit: NewInteger(-42), exp: "-42"},
		{note: "decimal", lit: NewDecimal(big.NewRat(3, 2)), exp: "1.5"},
		{note: "repeating decimal", lit: NewDecimal(big.NewRat(1, 3)), exp: "0.333333333333333333"},
		{note: "double", lit: NewDouble(0.1), exp: "1.0E-1"},
		{note: "float inf", lit: NewFloat(math.Inf(1)), exp: "INF"},
		{note: "boolean", lit: NewBoolean(true), exp: "true"},
	}
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			if tc.lit.Str() != tc.exp {
				t.Fatalf("expected %q but got %q", tc.exp, tc.lit.Str())
			}
		})
	}
}

func TestInvalidLexicalForms(t *testing.T) {
	tests := []struct {
		note     string
		datatype string
		lexical  string
		numOrEBV bool
	}{
		{note: "integer letters", datatype: types.XSDInteger, lexical: "abc", numOrEBV: true},
		{note: "integer decimal point", datatype: types.XSDInteger, lexical: "1.0", numOrEBV: true},
		{note: "decimal exponent", datatype: types.XSDDecimal, lexical: "1e3", numOrEBV: true},
		{note: "double empty", datatype: types.XSDDouble, lexical: "", numOrEBV: true},
		{note: "double inf lower", datatype: types.XSDDouble, lexical: "inf", numOrEBV: true},
		{note: "boolean yes", datatype: types.XSDBoolean, lexical: "yes", numOrEBV: true},
		{note: "byte out of range", datatype: types.XSDByte, lexical: "128", numOrEBV: true},
		{note: "unsigned negative", datatype: types.XSDUnsignedInt, lexical: "-1", numOrEBV: true},
		{note: "positive zero", datatype: types.XSDPositiveInteger, lexical: "0", numOrEBV: true},
		{note: "date invalid day", datatype: types.XSDDate, lexical: "2021-02-30"},
		{note: "datetime hour 25", datatype: types.XSDDateTime, lexical: "2021-01-01T25:00:00"},
		{note: "datetime stamp without zone", datatype: types.XSDDateTimeStamp, lexical: "2021-01-01T10:00:00"},
		{note: "daytime with months", datatype: types.XSDDayTimeDuration, lexical: "P1M"},
		{note: "yearmonth with days", datatype: types.XSDYearMonthDuration, lexical: "P1D"},
		{note: "empty duration", datatype: types.XSDDuration, lexical: "P"},
		{note: "lang string without tag", datatype: types.RDFLangString, lexical: "x"},
	}
	tr := NewTransformer(nil)
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			lit := tr.Literal(rdfLiteral(tc.lexical, tc.datatype))
			nl, ok := lit.(*NonLexicalLiteral)
			if !ok {
				t.Fatalf("expected non-lexical literal but got %T %v", lit, lit)
			}
			if nl.TypedValue() != Undefined {
				t.Fatal("expected undefined typed value")
			}
			if nl.DataType() != tc.datatype || nl.Str() != tc.lexical {
				t.Fatalf("expected declared datatype and lexical form to be kept: %v", nl)
			}
			if nl.NumericOrBoolean != tc.numOrEBV {
				t.Fatalf("expected numeric or boolean flag %v", tc.numOrEBV)
			}
		})
	}
}

func TestIntegerSubtypeRanges(t *testing.T) {
	tr := NewTransformer(nil)
	tests := []struct {
		datatype string
		lexical  string
	}{
		{types.XSDByte, "-128"},
		{types.XSDUnsignedByte, "255"},
		{types.XSDLong, "9223372036854775807"},
		{types.XSDUnsignedLong, "18446744073709551615"},
		{types.XSDNegativeInteger, "-1"},
		{types.XSDNonPositiveInteger, "0"},
	}
	for _, tc := range tests {
		t.Run(tc.datatype+" "+tc.lexical, func(t *testing.T) {
			lit, ok := tr.Literal(rdfLiteral(tc.lexical, tc.datatype)).(*IntegerLiteral)
			if !ok {
				t.Fatal("expected integer literal")
			}
			if lit.DataType() != tc.datatype {
				t.Fatalf("expected datatype %v but got %v", tc.datatype, lit.DataType())
			}
		})
	}
}
