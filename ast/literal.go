// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"math"
	"math/big"

	"github.com/open-policy-agent/rdfexpr/rdf"
	"github.com/open-policy-agent/rdfexpr/types"
)

// MainType is the decoded value family of a literal.
type MainType string

// Main types.
const (
	MainString            MainType = "string"
	MainLangString        MainType = "langString"
	MainBoolean           MainType = "boolean"
	MainInteger           MainType = "integer"
	MainDecimal           MainType = "decimal"
	MainFloat             MainType = "float"
	MainDouble            MainType = "double"
	MainDateTime          MainType = "dateTime"
	MainDate              MainType = "date"
	MainTime              MainType = "time"
	MainDuration          MainType = "duration"
	MainDayTimeDuration   MainType = "dayTimeDuration"
	MainYearMonthDuration MainType = "yearMonthDuration"
	MainOther             MainType = "other"
	MainNonLexical        MainType = "nonlexical"
)

// Literal is a term with a datatype and a decoded value. Language is set if
// and only if the datatype is rdf:langString.
type Literal interface {
	Term
	DataType() string
	Language() string
	MainType() MainType
	TypedValue() any
}

// Numeric is a literal of one of the four numeric families.
type Numeric interface {
	Literal
	Float64() float64
	// Rat returns the exact value. It fails for NaN and infinities.
	Rat() (*big.Rat, bool)
}

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the typed value of every NonLexicalLiteral.
var Undefined = undefined{}

func literalToRDF(l Literal) rdf.Term {
	if lang := l.Language(); lang != "" {
		return rdf.NewLangLiteral(l.Str(), lang)
	}
	return rdf.NewLiteral(l.Str(), l.DataType())
}

func literalString(l Literal) string {
	return literalToRDF(l).String()
}

func orDefault(dt, def string) string {
	if dt == "" {
		return def
	}
	return dt
}

// StringLiteral is an xsd:string or a datatype derived from it.
type StringLiteral struct {
	Value string
	Type  string
}

// NewString returns an xsd:string literal.
func NewString(s string) *StringLiteral {
	return &StringLiteral{Value: s, Type: types.XSDString}
}

func (*StringLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*StringLiteral) TermType() string               { return types.Literal }
func (l *StringLiteral) DataType() string             { return orDefault(l.Type, types.XSDString) }
func (*StringLiteral) Language() string               { return "" }
func (*StringLiteral) MainType() MainType             { return MainString }
func (l *StringLiteral) TypedValue() any              { return l.Value }
func (l *StringLiteral) Str() string                  { return l.Value }
func (l *StringLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *StringLiteral) String() string               { return literalString(l) }

// LangStringLiteral is an rdf:langString.
type LangStringLiteral struct {
	Value string
	Lang  string
}

// NewLangString returns a language-tagged string.
func NewLangString(s, lang string) *LangStringLiteral {
	return &LangStringLiteral{Value: s, Lang: lang}
}

func (*LangStringLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*LangStringLiteral) TermType() string               { return types.Literal }
func (*LangStringLiteral) DataType() string               { return types.RDFLangString }
func (l *LangStringLiteral) Language() string             { return l.Lang }
func (*LangStringLiteral) MainType() MainType             { return MainLangString }
func (l *LangStringLiteral) TypedValue() any              { return l.Value }
func (l *LangStringLiteral) Str() string                  { return l.Value }
func (l *LangStringLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *LangStringLiteral) String() string               { return literalString(l) }

// BooleanLiteral is an xsd:boolean.
type BooleanLiteral struct {
	Value   bool
	Type    string
	Lexical string
}

// NewBoolean returns an xsd:boolean literal.
func NewBoolean(b bool) *BooleanLiteral {
	return &BooleanLiteral{Value: b}
}

var (
	// True is the boolean literal true.
	True = NewBoolean(true)
	// False is the boolean literal false.
	False = NewBoolean(false)
)

// Bool returns True or False.
func Bool(b bool) *BooleanLiteral {
	if b {
		return True
	}
	return False
}

func (*BooleanLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*BooleanLiteral) TermType() string               { return types.Literal }
func (l *BooleanLiteral) DataType() string             { return orDefault(l.Type, types.XSDBoolean) }
func (*BooleanLiteral) Language() string               { return "" }
func (*BooleanLiteral) MainType() MainType             { return MainBoolean }
func (l *BooleanLiteral) TypedValue() any              { return l.Value }
func (l *BooleanLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *BooleanLiteral) String() string               { return literalString(l) }

func (l *BooleanLiteral) Str() string {
	if l.Lexical != "" {
		return l.Lexical
	}
	if l.Value {
		return "true"
	}
	return "false"
}

// IntegerLiteral is an xsd:integer or a datatype derived from it.
type IntegerLiteral struct {
	Value   *big.Int
	Type    string
	Lexical string
}

// NewInteger returns an xsd:integer literal.
func NewInteger(i int64) *IntegerLiteral {
	return &IntegerLiteral{Value: big.NewInt(i), Type: types.XSDInteger}
}

// NewBigInteger returns an xsd:integer literal.
func NewBigInteger(i *big.Int) *IntegerLiteral {
	return &IntegerLiteral{Value: i, Type: types.XSDInteger}
}

func (*IntegerLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*IntegerLiteral) TermType() string               { return types.Literal }
func (l *IntegerLiteral) DataType() string             { return orDefault(l.Type, types.XSDInteger) }
func (*IntegerLiteral) Language() string               { return "" }
func (*IntegerLiteral) MainType() MainType             { return MainInteger }
func (l *IntegerLiteral) TypedValue() any              { return l.Value }
func (l *IntegerLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *IntegerLiteral) String() string               { return literalString(l) }
func (l *IntegerLiteral) Rat() (*big.Rat, bool)        { return new(big.Rat).SetInt(l.Value), true }

func (l *IntegerLiteral) Str() string {
	if l.Lexical != "" {
		return l.Lexical
	}
	return FormatInteger(l.Value)
}

func (l *IntegerLiteral) Float64() float64 {
	f, _ := new(big.Float).SetInt(l.Value).Float64()
	return f
}

// DecimalLiteral is an xsd:decimal.
type DecimalLiteral struct {
	Value   *big.Rat
	Type    string
	Lexical string
}

// NewDecimal returns an xsd:decimal literal.
func NewDecimal(r *big.Rat) *DecimalLiteral {
	return &DecimalLiteral{Value: r}
}

func (*DecimalLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*DecimalLiteral) TermType() string               { return types.Literal }
func (l *DecimalLiteral) DataType() string             { return orDefault(l.Type, types.XSDDecimal) }
func (*DecimalLiteral) Language() string               { return "" }
func (*DecimalLiteral) MainType() MainType             { return MainDecimal }
func (l *DecimalLiteral) TypedValue() any              { return l.Value }
func (l *DecimalLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *DecimalLiteral) String() string               { return literalString(l) }
func (l *DecimalLiteral) Rat() (*big.Rat, bool)        { return l.Value, true }

func (l *DecimalLiteral) Str() string {
	if l.Lexical != "" {
		return l.Lexical
	}
	return FormatDecimal(l.Value)
}

func (l *DecimalLiteral) Float64() float64 {
	f, _ := l.Value.Float64()
	return f
}

// FloatLiteral is an xsd:float. Value is always representable as float32.
type FloatLiteral struct {
	Value   float64
	Type    string
	Lexical string
}

// NewFloat returns an xsd:float literal rounded to single precision.
func NewFloat(f float64) *FloatLiteral {
	return &FloatLiteral{Value: float64(float32(f))}
}

func (*FloatLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*FloatLiteral) TermType() string               { return types.Literal }
func (l *FloatLiteral) DataType() string             { return orDefault(l.Type, types.XSDFloat) }
func (*FloatLiteral) Language() string               { return "" }
func (*FloatLiteral) MainType() MainType             { return MainFloat }
func (l *FloatLiteral) TypedValue() any              { return l.Value }
func (l *FloatLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *FloatLiteral) String() string               { return literalString(l) }
func (l *FloatLiteral) Float64() float64             { return l.Value }
func (l *FloatLiteral) Rat() (*big.Rat, bool)        { return floatRat(l.Value) }

func (l *FloatLiteral) Str() string {
	if l.Lexical != "" {
		return l.Lexical
	}
	return FormatFloat(l.Value)
}

// DoubleLiteral is an xsd:double.
type DoubleLiteral struct {
	Value   float64
	Type    string
	Lexical string
}

// NewDouble returns an xsd:double literal.
func NewDouble(f float64) *DoubleLiteral {
	return &DoubleLiteral{Value: f}
}

func (*DoubleLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*DoubleLiteral) TermType() string               { return types.Literal }
func (l *DoubleLiteral) DataType() string             { return orDefault(l.Type, types.XSDDouble) }
func (*DoubleLiteral) Language() string               { return "" }
func (*DoubleLiteral) MainType() MainType             { return MainDouble }
func (l *DoubleLiteral) TypedValue() any              { return l.Value }
func (l *DoubleLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *DoubleLiteral) String() string               { return literalString(l) }
func (l *DoubleLiteral) Float64() float64             { return l.Value }
func (l *DoubleLiteral) Rat() (*big.Rat, bool)        { return floatRat(l.Value) }

func (l *DoubleLiteral) Str() string {
	if l.Lexical != "" {
		return l.Lexical
	}
	return FormatDouble(l.Value)
}

func floatRat(f float64) (*big.Rat, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return new(big.Rat).SetFloat64(f), true
}

// DateTimeLiteral is an xsd:dateTime or xsd:dateTimeStamp.
type DateTimeLiteral struct {
	Value   DateTime
	Type    string
	Lexical string
}

// NewDateTime returns an xsd:dateTime literal.
func NewDateTime(v DateTime) *DateTimeLiteral {
	return &DateTimeLiteral{Value: v, Type: types.XSDDateTime}
}

func (*DateTimeLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*DateTimeLiteral) TermType() string               { return types.Literal }
func (l *DateTimeLiteral) DataType() string             { return orDefault(l.Type, types.XSDDateTime) }
func (*DateTimeLiteral) Language() string               { return "" }
func (*DateTimeLiteral) MainType() MainType             { return MainDateTime }
func (l *DateTimeLiteral) TypedValue() any              { return l.Value }
func (l *DateTimeLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *DateTimeLiteral) String() string               { return literalString(l) }

func (l *DateTimeLiteral) Str() string {
	if l.Lexical != "" {
		return l.Lexical
	}
	return FormatDateTime(l.Value)
}

// DateLiteral is an xsd:date.
type DateLiteral struct {
	Value   DateTime
	Type    string
	Lexical string
}

// NewDate returns an xsd:date literal. The time of day of v is ignored.
func NewDate(v DateTime) *DateLiteral {
	return &DateLiteral{Value: v.Date()}
}

func (*DateLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*DateLiteral) TermType() string               { return types.Literal }
func (l *DateLiteral) DataType() string             { return orDefault(l.Type, types.XSDDate) }
func (*DateLiteral) Language() string               { return "" }
func (*DateLiteral) MainType() MainType             { return MainDate }
func (l *DateLiteral) TypedValue() any              { return l.Value }
func (l *DateLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *DateLiteral) String() string               { return literalString(l) }

func (l *DateLiteral) Str() string {
	if l.Lexical != "" {
		return l.Lexical
	}
	return FormatDate(l.Value)
}

// TimeLiteral is an xsd:time. Its date is the reference date 1972-12-31.
type TimeLiteral struct {
	Value   DateTime
	Type    string
	Lexical string
}

// NewTime returns an xsd:time literal. The date of v is replaced by the
// reference date.
func NewTime(v DateTime) *TimeLiteral {
	return &TimeLiteral{Value: v.TimeOfDay()}
}

func (*TimeLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*TimeLiteral) TermType() string               { return types.Literal }
func (l *TimeLiteral) DataType() string             { return orDefault(l.Type, types.XSDTime) }
func (*TimeLiteral) Language() string               { return "" }
func (*TimeLiteral) MainType() MainType             { return MainTime }
func (l *TimeLiteral) TypedValue() any              { return l.Value }
func (l *TimeLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *TimeLiteral) String() string               { return literalString(l) }

func (l *TimeLiteral) Str() string {
	if l.Lexical != "" {
		return l.Lexical
	}
	return FormatTime(l.Value)
}

// DurationLiteral is an xsd:duration, xsd:dayTimeDuration or
// xsd:yearMonthDuration.
type DurationLiteral struct {
	Value   Duration
	Kind    MainType
	Type    string
	Lexical string
}

// NewDuration returns an xsd:duration literal.
func NewDuration(d Duration) *DurationLiteral {
	return &DurationLiteral{Value: d, Kind: MainDuration}
}

// NewDayTimeDuration returns an xsd:dayTimeDuration literal. The month
// component of d is dropped.
func NewDayTimeDuration(d Duration) *DurationLiteral {
	return &DurationLiteral{Value: Duration{DayTime: d.DayTime}, Kind: MainDayTimeDuration}
}

// NewYearMonthDuration returns an xsd:yearMonthDuration literal. The
// day-time component of d is dropped.
func NewYearMonthDuration(d Duration) *DurationLiteral {
	return &DurationLiteral{Value: Duration{Months: d.Months}, Kind: MainYearMonthDuration}
}

func (*DurationLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*DurationLiteral) TermType() string               { return types.Literal }
func (*DurationLiteral) Language() string               { return "" }
func (l *DurationLiteral) MainType() MainType           { return l.Kind }
func (l *DurationLiteral) TypedValue() any              { return l.Value }
func (l *DurationLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *DurationLiteral) String() string               { return literalString(l) }

func (l *DurationLiteral) DataType() string {
	if l.Type != "" {
		return l.Type
	}
	switch l.Kind {
	case MainDayTimeDuration:
		return types.XSDDayTimeDuration
	case MainYearMonthDuration:
		return types.XSDYearMonthDuration
	}
	return types.XSDDuration
}

func (l *DurationLiteral) Str() string {
	if l.Lexical != "" {
		return l.Lexical
	}
	return FormatDuration(l.Value, l.Kind)
}

// OtherLiteral is a literal of a datatype without a decoded representation.
// Its value is the lexical form.
type OtherLiteral struct {
	Value string
	Type  string
}

// NewOther returns a literal of an arbitrary datatype.
func NewOther(lexical, datatype string) *OtherLiteral {
	return &OtherLiteral{Value: lexical, Type: datatype}
}

func (*OtherLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*OtherLiteral) TermType() string               { return types.Literal }
func (l *OtherLiteral) DataType() string             { return l.Type }
func (*OtherLiteral) Language() string               { return "" }
func (*OtherLiteral) MainType() MainType             { return MainOther }
func (l *OtherLiteral) TypedValue() any              { return l.Value }
func (l *OtherLiteral) Str() string                  { return l.Value }
func (l *OtherLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *OtherLiteral) String() string               { return literalString(l) }

// NonLexicalLiteral is a literal whose lexical form is invalid for its
// datatype, for example "abc"^^xsd:integer. Operators reject it; only the
// effective boolean value and identity comparisons accept it.
type NonLexicalLiteral struct {
	Lexical string
	Type    string
	Lang    string
	// NumericOrBoolean is set when the datatype is numeric or boolean; the
	// effective boolean value of such a literal is false.
	NumericOrBoolean bool
}

// NewNonLexical returns a non-lexical literal.
func NewNonLexical(lexical, datatype string, numericOrBoolean bool) *NonLexicalLiteral {
	return &NonLexicalLiteral{Lexical: lexical, Type: datatype, NumericOrBoolean: numericOrBoolean}
}

func (*NonLexicalLiteral) ExpressionType() ExpressionType { return TermExpr }
func (*NonLexicalLiteral) TermType() string               { return types.Literal }
func (l *NonLexicalLiteral) DataType() string             { return l.Type }
func (l *NonLexicalLiteral) Language() string             { return l.Lang }
func (*NonLexicalLiteral) MainType() MainType             { return MainNonLexical }
func (*NonLexicalLiteral) TypedValue() any                { return Undefined }
func (l *NonLexicalLiteral) Str() string                  { return l.Lexical }
func (l *NonLexicalLiteral) ToRDF() rdf.Term              { return literalToRDF(l) }
func (l *NonLexicalLiteral) String() string               { return literalString(l) }

// IsNonLexical reports whether t is a NonLexicalLiteral.
func IsNonLexical(t Term) bool {
	_, ok := t.(*NonLexicalLiteral)
	return ok
}

// IsStringly reports whether l is a simple or language-tagged string.
func IsStringly(l Literal) bool {
	switch l.(type) {
	case *StringLiteral, *LangStringLiteral:
		return true
	}
	return false
}
