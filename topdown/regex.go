// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/types"
)

// DefaultRegexCacheSize is the number of compiled patterns kept per
// evaluator when no size is configured.
const DefaultRegexCacheSize = 100

type regexCache struct {
	lru *lru.Cache[string, *regexp.Regexp]
}

func newRegexCache(size int) *regexCache {
	if size <= 0 {
		size = DefaultRegexCacheSize
	}
	c, _ := lru.New[string, *regexp.Regexp](size)
	return &regexCache{lru: c}
}

// compile returns the compiled form of pattern with the given XPath flags.
func (c *regexCache) compile(pattern, flags string) (*regexp.Regexp, error) {
	key := flags + "/" + pattern
	if re, ok := c.lru.Get(key); ok {
		return re, nil
	}
	expr, err := translatePattern(pattern, flags)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, expressionErr("invalid regular expression %q: %v", pattern, err).Wrap(err)
	}
	c.lru.Add(key, re)
	return re, nil
}

// translatePattern rewrites an XPath pattern and its flags into RE2 syntax.
// The i, m and s flags map onto RE2 flags, x strips whitespace outside
// character classes and q matches the pattern literally.
func translatePattern(pattern, flags string) (string, error) {
	var re2 strings.Builder
	quote, extended := false, false
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(re2.String(), f) {
				re2.WriteRune(f)
			}
		case 'x':
			extended = true
		case 'q':
			quote = true
		default:
			return "", expressionErr("invalid regular expression flag %q", string(f))
		}
	}
	switch {
	case quote:
		pattern = regexp.QuoteMeta(pattern)
	case extended:
		pattern = stripWhitespace(pattern)
	}
	if re2.Len() > 0 {
		return "(?" + re2.String() + ")" + pattern, nil
	}
	return pattern, nil
}

func stripWhitespace(pattern string) string {
	var sb strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			sb.WriteByte(c)
			sb.WriteByte(pattern[i+1])
			i++
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case !inClass && (c == ' ' || c == '\t' || c == '\n' || c == '\r'):
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// translateReplacement rewrites an XPath replacement string. "$N" refers to
// a group, "\$" and "\\" escape a dollar sign and a backslash.
func translateReplacement(s string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 == len(s) || (s[i+1] != '\\' && s[i+1] != '$') {
				return "", expressionErr("invalid replacement string %q", s)
			}
			i++
			if s[i] == '$' {
				sb.WriteString("$$")
			} else {
				sb.WriteByte('\\')
			}
		case '$':
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			if j == i+1 {
				return "", expressionErr("invalid replacement string %q", s)
			}
			sb.WriteString("${" + s[i+1:j] + "}")
			i = j - 1
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

func builtinRegex(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
	var flags string
	if len(args) == 3 {
		flags = args[2].Str()
	}
	re, err := bctx.regex.compile(args[1].Str(), flags)
	if err != nil {
		return nil, err
	}
	return ast.Bool(re.MatchString(args[0].Str())), nil
}

func builtinReplace(bctx *BuiltinContext, args []ast.Term) (ast.Term, error) {
	var flags string
	if len(args) == 4 {
		flags = args[3].Str()
	}
	re, err := bctx.regex.compile(args[1].Str(), flags)
	if err != nil {
		return nil, err
	}
	repl := args[2].Str()
	if !strings.Contains(flags, "q") {
		if repl, err = translateReplacement(repl); err != nil {
			return nil, err
		}
		return withLanguage(args[0].(ast.Literal), re.ReplaceAllString(args[0].Str(), repl)), nil
	}
	return withLanguage(args[0].(ast.Literal), re.ReplaceAllLiteralString(args[0].Str(), repl)), nil
}

func init() {
	str := types.XSDString

	regex := declare(ast.Regex)
	replace := declare(ast.Replace)
	for _, dt := range []string{types.XSDString, types.RDFLangString} {
		regex.set([]string{dt, str}, builtinRegex)
		regex.set([]string{dt, str, str}, builtinRegex)
		replace.set([]string{dt, str, str}, builtinReplace)
		replace.set([]string{dt, str, str, str}, builtinReplace)
	}
	RegisterOperator(regex.collect())
	RegisterOperator(replace.collect())
}
