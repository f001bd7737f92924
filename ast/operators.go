// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

// Regular operator names as they appear in algebra expressions.
const (
	Not         = "!"
	UnaryPlus   = "uplus"
	UnaryMinus  = "uminus"
	Multiply    = "*"
	Divide      = "/"
	Add         = "+"
	Subtract    = "-"
	Equal       = "="
	NotEqual    = "!="
	LessThan    = "<"
	GreaterThan = ">"
	LessThanEq  = "<="
	GreaterEq   = ">="

	IsIRI       = "isiri"
	IsURI       = "isuri"
	IsBlank     = "isblank"
	IsLiteral   = "isliteral"
	IsNumeric   = "isnumeric"
	Str         = "str"
	Lang        = "lang"
	Datatype    = "datatype"
	IRI         = "iri"
	URI         = "uri"
	StrDT       = "strdt"
	StrLang     = "strlang"
	UUID        = "uuid"
	StrUUID     = "struuid"
	StrLen      = "strlen"
	SubStr      = "substr"
	UCase       = "ucase"
	LCase       = "lcase"
	StrStarts   = "strstarts"
	StrEnds     = "strends"
	Contains    = "contains"
	StrBefore   = "strbefore"
	StrAfter    = "strafter"
	EncodeURI   = "encode_for_uri"
	LangMatches = "langmatches"
	Regex       = "regex"
	Replace     = "replace"
	Abs         = "abs"
	Round       = "round"
	Ceil        = "ceil"
	Floor       = "floor"
	Rand        = "rand"
	Now         = "now"
	Year        = "year"
	Month       = "month"
	Day         = "day"
	Hours       = "hours"
	Minutes     = "minutes"
	Seconds     = "seconds"
	Timezone    = "timezone"
	TZ          = "tz"
	MD5         = "md5"
	SHA1        = "sha1"
	SHA256      = "sha256"
	SHA384      = "sha384"
	SHA512      = "sha512"
	Triple      = "triple"
	Subject     = "subject"
	Predicate   = "predicate"
	Object      = "object"
	IsTriple    = "istriple"
	Adjust      = "adjust"
)

// Functional form names.
const (
	Bound    = "bound"
	If       = "if"
	Coalesce = "coalesce"
	And      = "&&"
	Or       = "||"
	In       = "in"
	NotIn    = "notin"
	SameTerm = "sameterm"
	Concat   = "concat"
	BNode    = "bnode"
)
