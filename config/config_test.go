// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/open-policy-agent/rdfexpr/algebra"
	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/logging"
	"github.com/open-policy-agent/rdfexpr/rdf"
	"github.com/open-policy-agent/rdfexpr/topdown"
	"github.com/open-policy-agent/rdfexpr/topdown/overload"
	"github.com/open-policy-agent/rdfexpr/types"
	"github.com/open-policy-agent/rdfexpr/util/test"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		note    string
		raw     string
		want    Config
		wantErr string
	}{
		{
			note: "empty",
			want: Config{
				Mode:    ModeSync,
				Caches:  Caches{FunctionArguments: overload.DefaultCacheSize, SuperTypes: types.DefaultCacheSize, Regex: topdown.DefaultRegexCacheSize},
				Logging: Logging{Format: "text"},
			},
		},
		{
			note: "yaml",
			raw: `
base_iri: http://example.org/
default_timezone: "+02:00"
mode: async
caches:
  function_arguments: 10
  regex: 5
datatypes:
  http://example.org/specialString: http://www.w3.org/2001/XMLSchema#string
logging:
  level: debug
  format: json
`,
			want: Config{
				BaseIRI:         "http://example.org/",
				DefaultTimezone: "+02:00",
				Mode:            ModeAsync,
				Caches:          Caches{FunctionArguments: 10, SuperTypes: types.DefaultCacheSize, Regex: 5},
				Datatypes:       map[string]string{"http://example.org/specialString": types.XSDString},
				Logging:         Logging{Level: "debug", Format: "json"},
			},
		},
		{
			note: "json",
			raw:  `{"mode": "sync", "default_timezone": "Z"}`,
			want: Config{
				DefaultTimezone: "Z",
				Mode:            ModeSync,
				Caches:          Caches{FunctionArguments: overload.DefaultCacheSize, SuperTypes: types.DefaultCacheSize, Regex: topdown.DefaultRegexCacheSize},
				Logging:         Logging{Format: "text"},
			},
		},
		{note: "invalid mode", raw: `mode: parallel`, wantErr: "invalid mode"},
		{note: "negative cache", raw: `caches: {regex: -1}`, wantErr: "caches.regex"},
		{note: "invalid timezone", raw: `default_timezone: Mars/Olympus`, wantErr: "invalid timezone"},
		{note: "self parent", raw: `datatypes: {"http://a": "http://a"}`, wantErr: "own parent"},
		{note: "invalid level", raw: `logging: {level: loud}`, wantErr: "invalid log level"},
		{note: "invalid format", raw: `logging: {format: xml}`, wantErr: "invalid log format"},
		{note: "malformed", raw: `mode: [`, wantErr: "config:"},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			got, err := ParseConfig([]byte(tc.raw))
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, *got, cmpopts.IgnoreUnexported(Config{})); diff != "" {
				t.Fatalf("unexpected config (-want +got):\n%v", diff)
			}
		})
	}
}

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		note   string
		zone   string
		offset int
	}{
		{note: "utc", zone: "Z", offset: 0},
		{note: "offset", zone: "-05:30", offset: -(5*3600 + 1800)},
		{note: "iana", zone: "UTC", offset: 0},
	}

	ref := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			loc, err := ParseTimezone(tc.zone)
			if err != nil {
				t.Fatal(err)
			}
			if _, offset := ref.In(loc).Zone(); offset != tc.offset {
				test.FatalMismatch(t, offset, tc.offset)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	c, err := ParseConfig([]byte(`logging: {level: debug, format: json}`))
	if err != nil {
		t.Fatal(err)
	}
	logger, err := c.NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	if logger.GetLevel() != logging.Debug {
		t.Fatalf("expected debug level, got %v", logger.GetLevel())
	}
}

func TestEvalConfig(t *testing.T) {
	c, err := ParseConfig([]byte(`
base_iri: http://example.org/base/
default_timezone: "-05:00"
datatypes:
  http://example.org/specialString: http://www.w3.org/2001/XMLSchema#string
`))
	if err != nil {
		t.Fatal(err)
	}
	cfg := c.EvalConfig(nil, nil)
	cfg.Now = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		note string
		expr algebra.Expression
		want string
	}{
		{
			note: "discovered datatype",
			expr: algebra.Op("strlen", algebra.Term(rdf.NewLiteral("apple", "http://example.org/specialString"))),
			want: "5",
		},
		{
			note: "base iri",
			expr: algebra.Op("iri", algebra.Term(rdf.NewStringLiteral("x"))),
			want: "<http://example.org/base/x>",
		},
		{
			note: "default timezone",
			expr: algebra.Op("tz", algebra.Op("adjust", algebra.Term(rdf.NewLiteral("2020-01-01T00:00:00", types.XSDDateTime)))),
			want: `"-05:00"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			e, err := topdown.NewAsyncEvaluator(tc.expr, cfg)
			if err != nil {
				t.Fatal(err)
			}
			got, err := e.Evaluate(context.Background(), ast.Binding{})
			if err != nil {
				t.Fatal(err)
			}
			if want := rdf.MustParseTerm(tc.want); !want.Equal(got) {
				t.Fatalf("expected %v but got %v", want, got)
			}
		})
	}
}
