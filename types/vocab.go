// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package types

// Namespaces.
const (
	XSD = "http://www.w3.org/2001/XMLSchema#"
	RDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// Datatype IRIs known to the evaluator.
const (
	XSDString           = XSD + "string"
	XSDNormalizedString = XSD + "normalizedString"
	XSDToken            = XSD + "token"
	XSDLanguage         = XSD + "language"
	XSDNMToken          = XSD + "NMTOKEN"
	XSDName             = XSD + "Name"
	XSDNCName           = XSD + "NCName"
	XSDEntity           = XSD + "ENTITY"
	XSDID               = XSD + "ID"
	XSDIDRef            = XSD + "IDREF"
	XSDAnyURI           = XSD + "anyURI"

	XSDBoolean = XSD + "boolean"

	XSDDecimal            = XSD + "decimal"
	XSDInteger            = XSD + "integer"
	XSDNonPositiveInteger = XSD + "nonPositiveInteger"
	XSDNegativeInteger    = XSD + "negativeInteger"
	XSDLong               = XSD + "long"
	XSDInt                = XSD + "int"
	XSDShort              = XSD + "short"
	XSDByte               = XSD + "byte"
	XSDNonNegativeInteger = XSD + "nonNegativeInteger"
	XSDPositiveInteger    = XSD + "positiveInteger"
	XSDUnsignedLong       = XSD + "unsignedLong"
	XSDUnsignedInt        = XSD + "unsignedInt"
	XSDUnsignedShort      = XSD + "unsignedShort"
	XSDUnsignedByte       = XSD + "unsignedByte"
	XSDFloat              = XSD + "float"
	XSDDouble             = XSD + "double"

	XSDDateTime          = XSD + "dateTime"
	XSDDateTimeStamp     = XSD + "dateTimeStamp"
	XSDDate              = XSD + "date"
	XSDTime              = XSD + "time"
	XSDGYearMonth        = XSD + "gYearMonth"
	XSDGYear             = XSD + "gYear"
	XSDGMonthDay         = XSD + "gMonthDay"
	XSDGDay              = XSD + "gDay"
	XSDGMonth            = XSD + "gMonth"
	XSDDuration          = XSD + "duration"
	XSDDayTimeDuration   = XSD + "dayTimeDuration"
	XSDYearMonthDuration = XSD + "yearMonthDuration"

	XSDBase64Binary = XSD + "base64Binary"
	XSDHexBinary    = XSD + "hexBinary"

	RDFLangString = RDF + "langString"
)

// Term kinds used as argument types during overload resolution. Term is the
// fully generic type; it is never a subtype of anything concrete.
const (
	Term         = "term"
	NamedNode    = "namedNode"
	BlankNode    = "blankNode"
	Literal      = "literal"
	Quad         = "quad"
	DefaultGraph = "defaultGraph"
)

// Type aliases grouping families of datatypes. They take part in the
// hierarchy like ordinary datatypes but never appear on a literal.
const (
	Numeric  = "SPARQL_NUMERIC"
	Stringly = "SPARQL_STRINGLY"
)

// IsTermKind reports whether t names a term kind rather than a datatype.
func IsTermKind(t string) bool {
	switch t {
	case Term, NamedNode, BlankNode, Literal, Quad, DefaultGraph:
		return true
	}
	return false
}
