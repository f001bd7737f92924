// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultPrefixes are the prefixes ParseTerm understands without
// declaration.
var DefaultPrefixes = map[string]string{
	"xsd":  "http://www.w3.org/2001/XMLSchema#",
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
}

// ParseTerm parses a single term in N-Triples syntax extended with the
// Turtle shorthands for numbers, booleans and prefixed names, SPARQL
// variables and RDF-star quoted triples.
func ParseTerm(s string) (Term, error) {
	return ParseTermWithPrefixes(s, DefaultPrefixes)
}

// ParseTermWithPrefixes is like ParseTerm but resolves prefixed names
// against prefixes.
func ParseTermWithPrefixes(s string, prefixes map[string]string) (Term, error) {
	p := &parser{input: s, prefixes: prefixes}
	p.skipSpace()
	t, err := p.term()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected trailing input")
	}
	return t, nil
}

// MustParseTerm is like ParseTerm but panics on error. Intended for tests.
func MustParseTerm(s string) Term {
	t, err := ParseTerm(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseError is returned for malformed terms.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rdf parse error at offset %d in %q: %s", e.Offset, e.Input, e.Msg)
}

type parser struct {
	input    string
	pos      int
	prefixes map[string]string
}

func (p *parser) errorf(f string, a ...any) error {
	return &ParseError{Input: p.input, Offset: p.pos, Msg: fmt.Sprintf(f, a...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && strings.IndexByte(" \t\r\n", p.input[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) term() (Term, error) {
	if p.eof() {
		return nil, p.errorf("expected term")
	}
	switch c := p.peek(); {
	case strings.HasPrefix(p.input[p.pos:], "<<"):
		return p.quotedTriple()
	case c == '<':
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		return NamedNode{IRI: iri}, nil
	case c == '_':
		return p.blankNode()
	case c == '?' || c == '$':
		p.pos++
		name := p.name()
		if name == "" {
			return nil, p.errorf("expected variable name")
		}
		return Variable{Name: name}, nil
	case c == '"' || c == '\'':
		return p.literal()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.word()
	}
}

func (p *parser) quotedTriple() (Term, error) {
	p.pos += 2
	parts := make([]Term, 0, 4)
	for {
		p.skipSpace()
		if strings.HasPrefix(p.input[p.pos:], ">>") {
			p.pos += 2
			break
		}
		if len(parts) == 4 {
			return nil, p.errorf("expected '>>'")
		}
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
	}
	if len(parts) < 3 {
		return nil, p.errorf("quoted triple needs subject, predicate and object")
	}
	q := NewTriple(parts[0], parts[1], parts[2])
	if len(parts) == 4 {
		q.Graph = parts[3]
	}
	return q, nil
}

func (p *parser) iri() (string, error) {
	p.pos++ // '<'
	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated IRI")
		}
		c := p.input[p.pos]
		switch c {
		case '>':
			p.pos++
			return sb.String(), nil
		case '\\':
			r, err := p.escape(false)
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
		case ' ', '\n', '\t':
			return "", p.errorf("whitespace in IRI")
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) blankNode() (Term, error) {
	if !strings.HasPrefix(p.input[p.pos:], "_:") {
		return nil, p.errorf("expected '_:'")
	}
	p.pos += 2
	label := p.name()
	if label == "" {
		return nil, p.errorf("expected blank node label")
	}
	return BlankNode{ID: label}, nil
}

func (p *parser) name() string {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.') {
			break
		}
		p.pos += size
	}
	// A name never ends in '.'.
	for p.pos > start && p.input[p.pos-1] == '.' {
		p.pos--
	}
	return p.input[start:p.pos]
}

func (p *parser) literal() (Term, error) {
	quote := p.input[p.pos]
	p.pos++
	var sb strings.Builder
	for {
		if p.eof() {
			return nil, p.errorf("unterminated string")
		}
		c := p.input[p.pos]
		if c == quote {
			p.pos++
			break
		}
		if c == '\\' {
			r, err := p.escape(true)
			if err != nil {
				return nil, err
			}
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
	lexical := sb.String()

	switch {
	case p.peek() == '@':
		p.pos++
		start := p.pos
		for !p.eof() {
			c := p.input[p.pos]
			if !(c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
				break
			}
			p.pos++
		}
		if p.pos == start {
			return nil, p.errorf("expected language tag")
		}
		return NewLangLiteral(lexical, p.input[start:p.pos]), nil
	case strings.HasPrefix(p.input[p.pos:], "^^"):
		p.pos += 2
		var dt string
		if p.peek() == '<' {
			iri, err := p.iri()
			if err != nil {
				return nil, err
			}
			dt = iri
		} else {
			t, err := p.word()
			if err != nil {
				return nil, err
			}
			n, ok := t.(NamedNode)
			if !ok {
				return nil, p.errorf("expected datatype IRI")
			}
			dt = n.IRI
		}
		return NewLiteral(lexical, dt), nil
	}
	return NewStringLiteral(lexical), nil
}

func (p *parser) escape(inString bool) (rune, error) {
	p.pos++ // '\\'
	if p.eof() {
		return 0, p.errorf("unterminated escape")
	}
	c := p.input[p.pos]
	p.pos++
	switch c {
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		if p.pos+n > len(p.input) {
			return 0, p.errorf("short unicode escape")
		}
		v, err := strconv.ParseUint(p.input[p.pos:p.pos+n], 16, 32)
		if err != nil {
			return 0, p.errorf("invalid unicode escape")
		}
		p.pos += n
		return rune(v), nil
	}
	if !inString {
		return 0, p.errorf("invalid escape in IRI")
	}
	switch c {
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case '"', '\'', '\\':
		return rune(c), nil
	}
	return 0, p.errorf("invalid escape '\\%c'", c)
}

func (p *parser) number() (Term, error) {
	start := p.pos
	if c := p.peek(); c == '+' || c == '-' {
		p.pos++
	}
	digits := func() int {
		n := 0
		for !p.eof() && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
			n++
		}
		return n
	}
	intDigits := digits()
	fracDigits := 0
	dot := false
	if p.peek() == '.' && p.pos+1 < len(p.input) && p.input[p.pos+1] >= '0' && p.input[p.pos+1] <= '9' {
		dot = true
		p.pos++
		fracDigits = digits()
	}
	if intDigits+fracDigits == 0 {
		return nil, p.errorf("expected number")
	}
	datatype := "integer"
	if dot {
		datatype = "decimal"
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		if digits() == 0 {
			return nil, p.errorf("expected exponent")
		}
		datatype = "double"
	}
	return NewLiteral(p.input[start:p.pos], DefaultPrefixes["xsd"]+datatype), nil
}

func (p *parser) word() (Term, error) {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if unicode.IsSpace(r) || r == '>' || r == '<' || r == '"' {
			break
		}
		p.pos += size
	}
	w := p.input[start:p.pos]
	switch w {
	case "true", "false":
		return NewLiteral(w, DefaultPrefixes["xsd"]+"boolean"), nil
	case "a":
		return NamedNode{IRI: DefaultPrefixes["rdf"] + "type"}, nil
	}
	prefix, local, ok := strings.Cut(w, ":")
	if !ok {
		p.pos = start
		return nil, p.errorf("unexpected %q", w)
	}
	ns, ok := p.prefixes[prefix]
	if !ok {
		p.pos = start
		return nil, p.errorf("unknown prefix %q", prefix)
	}
	return NamedNode{IRI: ns + local}, nil
}
