// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"math/big"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/types"
)

// withLanguage returns s as a string carrying the language tag of src, if
// any.
func withLanguage(src ast.Literal, s string) ast.Term {
	if lang := src.Language(); lang != "" {
		return ast.NewLangString(s, lang)
	}
	return ast.NewString(s)
}

func builtinStrLen(_ *BuiltinContext, l ast.Literal) (ast.Term, error) {
	return ast.NewInteger(int64(utf8.RuneCountInString(l.Str()))), nil
}

// builtinSubstr returns the characters at 1-based positions p with
// start <= p < start+length.
func builtinSubstr(_ *BuiltinContext, args []ast.Term) (ast.Term, error) {
	src := args[0].(ast.Literal)
	runes := []rune(src.Str())

	start := args[1].(*ast.IntegerLiteral).Value
	from := clampIndex(start, len(runes))
	to := len(runes)
	if len(args) == 3 {
		end := new(big.Int).Add(start, args[2].(*ast.IntegerLiteral).Value)
		to = clampIndex(end, len(runes))
	}
	if to < from {
		to = from
	}
	return withLanguage(src, string(runes[from:to])), nil
}

// clampIndex converts a 1-based position to a slice index within [0, n].
func clampIndex(pos *big.Int, n int) int {
	switch {
	case pos.Cmp(big.NewInt(1)) < 0:
		return 0
	case pos.Cmp(big.NewInt(int64(n)+1)) > 0:
		return n
	}
	return int(pos.Int64()) - 1
}

func caser(upper bool, lang string) cases.Caser {
	tag := language.Und
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			tag = t
		}
	}
	if upper {
		return cases.Upper(tag)
	}
	return cases.Lower(tag)
}

func changeCase(upper bool) func(*BuiltinContext, ast.Literal) (ast.Term, error) {
	return func(_ *BuiltinContext, l ast.Literal) (ast.Term, error) {
		return withLanguage(l, caser(upper, l.Language()).String(l.Str())), nil
	}
}

func stringTest(test func(s, sub string) bool) func(*BuiltinContext, ast.Literal, ast.Literal) (ast.Term, error) {
	return func(_ *BuiltinContext, a, b ast.Literal) (ast.Term, error) {
		return ast.Bool(test(a.Str(), b.Str())), nil
	}
}

// builtinStrBefore returns the part of a before the first occurrence of b.
// A match keeps the language tag of a; no match is the empty simple string.
func builtinStrBefore(_ *BuiltinContext, a, b ast.Literal) (ast.Term, error) {
	before, _, found := strings.Cut(a.Str(), b.Str())
	if !found {
		return ast.NewString(""), nil
	}
	return withLanguage(a, before), nil
}

// builtinStrAfter returns the part of a after the first occurrence of b.
func builtinStrAfter(_ *BuiltinContext, a, b ast.Literal) (ast.Term, error) {
	_, after, found := strings.Cut(a.Str(), b.Str())
	if !found {
		return ast.NewString(""), nil
	}
	return withLanguage(a, after), nil
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '_' || c == '.' || c == '~'
}

func builtinEncodeForURI(_ *BuiltinContext, l ast.Literal) (ast.Term, error) {
	const hex = "0123456789ABCDEF"
	s := l.Str()
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0xf])
	}
	return ast.NewString(sb.String()), nil
}

// langMatches implements RFC 4647 basic filtering. The range "*" matches
// every non-empty tag.
func langMatches(tag, rng string) bool {
	if rng == "*" {
		return tag != ""
	}
	if rng == "" {
		return tag == ""
	}
	tag, rng = strings.ToLower(tag), strings.ToLower(rng)
	return tag == rng || strings.HasPrefix(tag, rng+"-")
}

func builtinLangMatches(_ *BuiltinContext, a, b ast.Term) (ast.Term, error) {
	return ast.Bool(langMatches(a.Str(), b.Str())), nil
}

func init() {
	RegisterOperator(declare(ast.StrLen).onStringly1(builtinStrLen).collect())

	substr := declare(ast.SubStr)
	for _, dt := range []string{types.XSDString, types.RDFLangString} {
		substr.set([]string{dt, types.XSDInteger}, builtinSubstr)
		substr.set([]string{dt, types.XSDInteger, types.XSDInteger}, builtinSubstr)
	}
	RegisterOperator(substr.collect())

	RegisterOperator(declare(ast.UCase).onStringly1(changeCase(true)).collect())
	RegisterOperator(declare(ast.LCase).onStringly1(changeCase(false)).collect())

	RegisterOperator(declare(ast.StrStarts).onStringly2(stringTest(strings.HasPrefix)).collect())
	RegisterOperator(declare(ast.StrEnds).onStringly2(stringTest(strings.HasSuffix)).collect())
	RegisterOperator(declare(ast.Contains).onStringly2(stringTest(strings.Contains)).collect())
	RegisterOperator(declare(ast.StrBefore).onStringly2(builtinStrBefore).collect())
	RegisterOperator(declare(ast.StrAfter).onStringly2(builtinStrAfter).collect())

	RegisterOperator(declare(ast.EncodeURI).onStringly1(builtinEncodeForURI).collect())
	RegisterOperator(declare(ast.LangMatches).onBinary(types.XSDString, types.XSDString, builtinLangMatches).collect())
}
