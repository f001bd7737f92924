// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/open-policy-agent/rdfexpr/types"
)

var (
	integerRegexp = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalRegexp = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)
	doubleRegexp  = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([Ee][+-]?[0-9]+)?$`)
)

// DecimalScale is the number of fractional digits kept when a decimal result
// has no finite representation.
const DecimalScale = 18

// collapse applies the XSD whitespace facet of the numeric and temporal
// datatypes.
func collapse(s string) string {
	return strings.TrimSpace(s)
}

// ParseBoolean parses the xsd:boolean lexical space.
func ParseBoolean(s string) (bool, bool) {
	switch collapse(s) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// ParseInteger parses the xsd:integer lexical space.
func ParseInteger(s string) (*big.Int, bool) {
	s = collapse(s)
	if !integerRegexp.MatchString(s) {
		return nil, false
	}
	return new(big.Int).SetString(strings.TrimPrefix(s, "+"), 10)
}

// ParseDecimal parses the xsd:decimal lexical space.
func ParseDecimal(s string) (*big.Rat, bool) {
	s = collapse(s)
	if !decimalRegexp.MatchString(s) {
		return nil, false
	}
	s = strings.TrimPrefix(s, "+")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if rest, neg := strings.CutPrefix(s, "-"); neg && strings.HasPrefix(rest, ".") {
		s = "-0" + rest
	} else if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	return new(big.Rat).SetString(s)
}

// ParseDouble parses the xsd:double lexical space.
func ParseDouble(s string) (float64, bool) {
	return parseFloating(s, 64)
}

// ParseFloat parses the xsd:float lexical space. The result is rounded to
// single precision.
func ParseFloat(s string) (float64, bool) {
	return parseFloating(s, 32)
}

func parseFloating(s string, bits int) (float64, bool) {
	s = collapse(s)
	switch s {
	case "INF", "+INF":
		return math.Inf(1), true
	case "-INF":
		return math.Inf(-1), true
	case "NaN":
		return math.NaN(), true
	}
	if !doubleRegexp.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		// Out of range values round to infinity.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// FormatInteger renders the canonical form of an integer.
func FormatInteger(i *big.Int) string {
	return i.String()
}

// FormatDecimal renders the canonical form of a decimal: no leading '+', no
// superfluous zeros and at least one fractional digit.
func FormatDecimal(r *big.Rat) string {
	n, exact := r.FloatPrec()
	if !exact {
		n = DecimalScale
	}
	s := r.FloatString(n)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		if strings.HasSuffix(s, ".") {
			s += "0"
		}
	} else {
		s += ".0"
	}
	if s == "-0.0" {
		s = "0.0"
	}
	return s
}

// FormatDouble renders the canonical form of a double: a mantissa with a
// mandatory decimal point and an exponent without '+' or leading zeros, for
// example 1.0E-1.
func FormatDouble(f float64) string {
	return formatFloating(f, 64)
}

// FormatFloat renders the canonical form of a float at single precision.
func FormatFloat(f float64) string {
	return formatFloating(f, 32)
}

func formatFloating(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	s := strconv.FormatFloat(f, 'E', -1, bits)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(exp, "+-")
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	} else if neg {
		exp = "-" + exp
	}
	return mantissa + "E" + exp
}

// integerRanges bounds the derived integer datatypes. A nil bound is
// unbounded.
var integerRanges = map[string][2]*big.Int{
	types.XSDNonPositiveInteger: {nil, big.NewInt(0)},
	types.XSDNegativeInteger:    {nil, big.NewInt(-1)},
	types.XSDLong:               {big.NewInt(math.MinInt64), big.NewInt(math.MaxInt64)},
	types.XSDInt:                {big.NewInt(math.MinInt32), big.NewInt(math.MaxInt32)},
	types.XSDShort:              {big.NewInt(math.MinInt16), big.NewInt(math.MaxInt16)},
	types.XSDByte:               {big.NewInt(math.MinInt8), big.NewInt(math.MaxInt8)},
	types.XSDNonNegativeInteger: {big.NewInt(0), nil},
	types.XSDPositiveInteger:    {big.NewInt(1), nil},
	types.XSDUnsignedLong:       {big.NewInt(0), new(big.Int).SetUint64(math.MaxUint64)},
	types.XSDUnsignedInt:        {big.NewInt(0), big.NewInt(math.MaxUint32)},
	types.XSDUnsignedShort:      {big.NewInt(0), big.NewInt(math.MaxUint16)},
	types.XSDUnsignedByte:       {big.NewInt(0), big.NewInt(math.MaxUint8)},
}

// InIntegerRange reports whether i is a valid value of every built-in
// integer datatype in dict.
func InIntegerRange(i *big.Int, dict *types.Dict) bool {
	for dt, bounds := range integerRanges {
		if !dict.Contains(dt) {
			continue
		}
		if bounds[0] != nil && i.Cmp(bounds[0]) < 0 {
			return false
		}
		if bounds[1] != nil && i.Cmp(bounds[1]) > 0 {
			return false
		}
	}
	return true
}
