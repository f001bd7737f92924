// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/open-policy-agent/rdfexpr/algebra"
	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/logging"
	testlog "github.com/open-policy-agent/rdfexpr/logging/test"
	"github.com/open-policy-agent/rdfexpr/metrics"
	"github.com/open-policy-agent/rdfexpr/rdf"
	"github.com/open-policy-agent/rdfexpr/types"
)

const exampleNS = "http://example.org/"

// term returns a constant or variable expression written in Turtle
// shorthand.
func term(s string) *algebra.TermExpression {
	return algebra.Term(rdf.MustParseTerm(s))
}

func op(name string, args ...algebra.Expression) *algebra.OperatorExpression {
	return algebra.Op(name, args...)
}

func bindingOf(m map[string]string) ast.Binding {
	terms := make(map[string]rdf.Term, len(m))
	for k, v := range m {
		terms[k] = rdf.MustParseTerm(v)
	}
	return ast.NewBinding(terms)
}

type evalCase struct {
	note    string
	expr    algebra.Expression
	binding map[string]string
	want    string
	wantErr func(error) bool
}

// runEvalCases evaluates every case with the synchronous and the
// asynchronous evaluator.
func runEvalCases(t *testing.T, cfg Config, cases []evalCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			b := bindingOf(tc.binding)

			syncResult, syncErr := func() (rdf.Term, error) {
				e, err := NewSyncEvaluator(tc.expr, cfg)
				if err != nil {
					return nil, err
				}
				return e.Evaluate(b)
			}()
			asyncResult, asyncErr := func() (rdf.Term, error) {
				e, err := NewAsyncEvaluator(tc.expr, cfg)
				if err != nil {
					return nil, err
				}
				return e.Evaluate(context.Background(), b)
			}()

			for mode, r := range map[string]struct {
				term rdf.Term
				err  error
			}{"sync": {syncResult, syncErr}, "async": {asyncResult, asyncErr}} {
				if tc.wantErr != nil {
					if r.err == nil || !tc.wantErr(r.err) {
						t.Fatalf("%v: expected error, got result %v and error %v", mode, r.term, r.err)
					}
					continue
				}
				if r.err != nil {
					t.Fatalf("%v: unexpected error: %v", mode, r.err)
				}
				if want := rdf.MustParseTerm(tc.want); !want.Equal(r.term) {
					t.Fatalf("%v: expected %v but got %v", mode, want, r.term)
				}
			}
		})
	}
}

func hasMessage(check func(error) bool, msg string) func(error) bool {
	return func(err error) bool {
		return check(err) && strings.Contains(err.Error(), msg)
	}
}

func TestEvalScenarios(t *testing.T) {
	cfg := Config{
		TypeDiscovery: types.MapDiscoverer(map[string]string{
			exampleNS + "specialString": types.XSDString,
		}),
	}

	runEvalCases(t, cfg, []evalCase{
		{
			note:    "integer division by zero",
			expr:    op("/", term("3"), term("0")),
			wantErr: hasMessage(IsExpressionError, "Integer division by 0"),
		},
		{
			note: "float division by zero",
			expr: op("/", term(`"3.0"^^xsd:float`), term(`"0.0"^^xsd:float`)),
			want: `"INF"^^xsd:float`,
		},
		{
			note: "strbefore keeps language",
			expr: op("strbefore", term(`"abc"@en`), term(`"bc"`)),
			want: `"a"@en`,
		},
		{
			note:    "bound present",
			expr:    op("bound", term("?s")),
			binding: map[string]string{"s": "<http://example.org/s>"},
			want:    "true",
		},
		{
			note: "bound absent",
			expr: op("bound", term("?s")),
			want: "false",
		},
		{
			note:    "bound non-variable",
			expr:    op("bound", term("<http://example.org/s>")),
			wantErr: IsTypeError,
		},
		{
			note: "in with numeric promotion",
			expr: op("in", term("1"), term("2"), term("1.0"), term("3")),
			want: "true",
		},
		{
			note: "coalesce all failing",
			expr: op("coalesce", term("?a"), op("/", term("1"), term("0"))),
			wantErr: func(err error) bool {
				var e *Error
				return IsCoalesceError(err) && errors.As(err, &e) && len(e.Errors) == 2
			},
		},
		{
			note: "coalesce first success",
			expr: op("coalesce", term("?a"), term(`"x"`)),
			want: `"x"`,
		},
		{
			note: "discovered string subtype",
			expr: op("strlen", term(`"apple"^^<http://example.org/specialString>`)),
			want: "5",
		},
	})
}

func TestEvalOperators(t *testing.T) {
	runEvalCases(t, Config{}, []evalCase{
		{note: "integer addition", expr: op("+", term("1"), term("2")), want: "3"},
		{note: "integer and decimal", expr: op("+", term("1"), term("2.5")), want: "3.5"},
		{note: "integer and double", expr: op("*", term("2"), term("1.5e0")), want: `"3.0E0"^^xsd:double`},
		{note: "integer division", expr: op("/", term("1"), term("2")), want: "0.5"},
		{note: "decimal division by zero", expr: op("/", term("1.0"), term("0.0")), wantErr: IsExpressionError},
		{note: "unary minus", expr: op("uminus", term("5")), want: "-5"},
		{note: "add string", expr: op("+", term("1"), term(`"1"`)), wantErr: IsTypeError},
		{note: "equal across families", expr: op("=", term("1"), term("1.0")), want: "true"},
		{note: "string less than", expr: op("<", term(`"a"`), term(`"b"`)), want: "true"},
		{note: "greater than", expr: op(">", term("2"), term("1")), want: "true"},
		{note: "less or equal", expr: op("<=", term("1"), term("1")), want: "true"},
		{note: "greater or equal", expr: op(">=", term("1"), term("2")), want: "false"},
		{note: "iri inequality", expr: op("!=", term("<http://a>"), term("<http://b>")), want: "true"},
		{
			note:    "unknown literals are not comparable",
			expr:    op("=", term(`"a"^^<http://example.org/t>`), term(`"b"^^<http://example.org/t>`)),
			wantErr: IsTypeError,
		},
		{note: "identical unknown literals", expr: op("=", term(`"a"^^<http://example.org/t>`), term(`"a"^^<http://example.org/t>`)), want: "true"},
		{note: "not", expr: op("!", term(`""`)), want: "true"},
		{note: "not of iri", expr: op("!", term("<http://a>")), wantErr: IsEBVCoercionError},
		{note: "invalid lexical form", expr: op("+", term(`"abc"^^xsd:integer`), term("1")), wantErr: IsTypeError},
		{note: "dateTime ordering", expr: op("<", term(`"2020-01-01T00:00:00Z"^^xsd:dateTime`), term(`"2020-01-01T01:00:00+02:00"^^xsd:dateTime`)), want: "false"},
		{note: "dateTime difference", expr: op("-", term(`"2020-01-02T00:00:00Z"^^xsd:dateTime`), term(`"2020-01-01T00:00:00Z"^^xsd:dateTime`)), want: `"P1D"^^xsd:dayTimeDuration`},
		{note: "date plus months", expr: op("+", term(`"2020-01-31"^^xsd:date`), term(`"P1M"^^xsd:yearMonthDuration`)), want: `"2020-02-29"^^xsd:date`},
		{note: "quoted triples equal", expr: op("=", term("<< <http://s> <http://p> 1 >>"), term("<< <http://s> <http://p> 1.0 >>")), want: "true"},
	})
}

func TestEvalSpecialForms(t *testing.T) {
	runEvalCases(t, Config{}, []evalCase{
		{note: "if true", expr: op("if", term("true"), term("1"), term("?unbound")), want: "1"},
		{note: "if false", expr: op("if", term(`""`), term("?unbound"), term("2")), want: "2"},
		{note: "if error", expr: op("if", term("?unbound"), term("1"), term("2")), wantErr: IsUnboundVariableError},
		{note: "and left error right false", expr: op("&&", term("?unbound"), term("false")), want: "false"},
		{note: "and left error right true", expr: op("&&", term("?unbound"), term("true")), wantErr: IsUnboundVariableError},
		{note: "and short circuit", expr: op("&&", term("false"), term("?unbound")), want: "false"},
		{note: "and both true", expr: op("&&", term("true"), term("1")), want: "true"},
		{note: "or left error right true", expr: op("||", term("?unbound"), term("true")), want: "true"},
		{note: "or left error right false", expr: op("||", term("?unbound"), term("false")), wantErr: IsUnboundVariableError},
		{note: "or right error", expr: op("||", term("false"), term("?unbound")), wantErr: IsUnboundVariableError},
		{note: "or false", expr: op("||", term("false"), term("0")), want: "false"},
		{note: "in no match", expr: op("in", term("1"), term("2"), term("3")), want: "false"},
		{note: "in empty", expr: op("in", term("1")), want: "false"},
		{note: "in failed comparison", expr: op("in", term("1"), term("?unbound")), wantErr: IsInError},
		{note: "in match after failure", expr: op("in", term("1"), term("?unbound"), term("1")), want: "true"},
		{note: "not in", expr: op("notin", term("1"), term("2"), term("3")), want: "true"},
		{note: "not in match", expr: op("notin", term("1"), term("1.0")), want: "false"},
		{note: "sameterm", expr: op("sameterm", term("1"), term("1.0")), want: "false"},
		{note: "sameterm identical", expr: op("sameterm", term("<http://a>"), term("<http://a>")), want: "true"},
		{note: "concat shared language", expr: op("concat", term(`"foo"@en`), term(`"bar"@en`)), want: `"foobar"@en`},
		{note: "concat mixed", expr: op("concat", term(`"foo"@en`), term(`"bar"`)), want: `"foobar"`},
		{note: "concat empty", expr: op("concat"), want: `""`},
		{note: "concat number", expr: op("concat", term(`"foo"`), term("1")), wantErr: IsTypeError},
		{note: "if arity", expr: op("if", term("true")), wantErr: IsArityError},
		{note: "unknown operator", expr: op("strlenn", term(`"a"`)), wantErr: hasMessage(IsUnknownOperatorError, "did you mean strlen?")},
	})
}

func TestEvalUnboundVariable(t *testing.T) {
	e, err := NewSyncEvaluator(term("?x"), Config{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.Evaluate(ast.Binding{})
	if !IsUnboundVariableError(err) {
		t.Fatalf("expected unbound variable error, got %v", err)
	}
}

func TestEvaluateAsEBV(t *testing.T) {
	tests := []struct {
		note    string
		term    string
		want    bool
		wantErr bool
	}{
		{note: "empty string", term: `""`, want: false},
		{note: "string", term: `"x"`, want: true},
		{note: "zero", term: "0", want: false},
		{note: "NaN", term: `"NaN"^^xsd:double`, want: false},
		{note: "decimal", term: "0.5", want: true},
		{note: "invalid integer", term: `"abc"^^xsd:integer`, want: false},
		{note: "iri", term: "<http://a>", wantErr: true},
		{note: "unknown datatype", term: `"x"^^<http://example.org/t>`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			e, err := NewSyncEvaluator(term(tc.term), Config{})
			if err != nil {
				t.Fatal(err)
			}
			got, err := e.EvaluateAsEBV(ast.Binding{})
			if tc.wantErr {
				if !IsEBVCoercionError(err) {
					t.Fatalf("expected coercion error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("expected %v but got %v", tc.want, got)
			}
		})
	}
}

func TestBlankNodes(t *testing.T) {
	cfg := Config{BlankNodes: NewBlankNodeCounter("t")}

	evaluate := func(expr algebra.Expression) rdf.Term {
		t.Helper()
		e, err := NewSyncEvaluator(expr, cfg)
		if err != nil {
			t.Fatal(err)
		}
		r, err := e.Evaluate(ast.Binding{})
		if err != nil {
			t.Fatal(err)
		}
		return r
	}

	tests := []struct {
		note string
		expr algebra.Expression
		want string
	}{
		{note: "fresh", expr: op("bnode"), want: "t0"},
		{note: "seeded", expr: op("bnode", term(`"a"`)), want: "t1"},
		{note: "same seed", expr: op("bnode", term(`"a"`)), want: "t1"},
		{note: "other seed", expr: op("bnode", term(`"b"`)), want: "t2"},
		{note: "fresh again", expr: op("bnode"), want: "t3"},
	}

	for _, tc := range tests {
		if got := evaluate(tc.expr); !rdf.NewBlankNode(tc.want).Equal(got) {
			t.Fatalf("%v: expected _:%v but got %v", tc.note, tc.want, got)
		}
	}

	e, err := NewSyncEvaluator(op("bnode", term("1")), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Evaluate(ast.Binding{}); !IsTypeError(err) {
		t.Fatalf("expected type error for non-string seed, got %v", err)
	}
}

func TestNow(t *testing.T) {
	now := time.Date(2025, time.March, 4, 5, 6, 7, 0, time.UTC)
	runEvalCases(t, Config{Now: now}, []evalCase{
		{note: "now", expr: op("now"), want: `"2025-03-04T05:06:07Z"^^xsd:dateTime`},
		{note: "year of now", expr: op("year", op("now")), want: "2025"},
	})
}

func extensions(calls *atomic.Int64) ExtensionFunctionResolver {
	return func(iri string) ast.ExtensionFunc {
		switch iri {
		case exampleNS + "upper":
			return func(_ context.Context, args []rdf.Term) (rdf.Term, error) {
				calls.Add(1)
				return rdf.NewStringLiteral(strings.ToUpper(args[0].Value())), nil
			}
		case exampleNS + "fail":
			return func(context.Context, []rdf.Term) (rdf.Term, error) {
				calls.Add(1)
				return nil, fmt.Errorf("boom")
			}
		case exampleNS + "wait":
			return func(ctx context.Context, _ []rdf.Term) (rdf.Term, error) {
				calls.Add(1)
				<-ctx.Done()
				return nil, ctx.Err()
			}
		}
		return nil
	}
}

func TestExtensionFunctions(t *testing.T) {
	var calls atomic.Int64
	cfg := Config{ExtensionFunctions: extensions(&calls)}

	runEvalCases(t, cfg, []evalCase{
		{
			note: "call",
			expr: algebra.Named(exampleNS+"upper", term(`"abc"`)),
			want: `"ABC"`,
		},
		{
			note: "argument fan-out",
			expr: op("concat",
				algebra.Named(exampleNS+"upper", term(`"a"`)),
				algebra.Named(exampleNS+"upper", term(`"b"`))),
			want: `"AB"`,
		},
		{
			note: "failure",
			expr: algebra.Named(exampleNS+"fail"),
			wantErr: func(err error) bool {
				var e *Error
				return IsExtensionFunctionError(err) && errors.As(err, &e) && e.IRI == exampleNS+"fail"
			},
		},
		{
			note:    "unknown",
			expr:    algebra.Named(exampleNS + "missing"),
			wantErr: IsUnknownOperatorError,
		},
		{
			note: "constructor",
			expr: algebra.Named(types.XSDInteger, term(`"42"`)),
			want: "42",
		},
	})

	if calls.Load() == 0 {
		t.Fatal("expected extension functions to be called")
	}
}

func TestExtensionFunctionCancellation(t *testing.T) {
	var calls atomic.Int64
	e, err := NewAsyncEvaluator(algebra.Named(exampleNS+"wait"), Config{ExtensionFunctions: extensions(&calls)})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = e.Evaluate(ctx, ast.Binding{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestExtensionFunctionSiblingCancellation(t *testing.T) {
	var calls atomic.Int64
	expr := op("+", algebra.Named(exampleNS+"wait"), algebra.Named(exampleNS+"fail"))
	e, err := NewAsyncEvaluator(expr, Config{ExtensionFunctions: extensions(&calls)})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := e.Evaluate(context.Background(), ast.Binding{})
		done <- err
	}()

	select {
	case err := <-done:
		var evalErr *Error
		if !errors.As(err, &evalErr) || evalErr.Code != ExtensionFunctionErr || evalErr.IRI != exampleNS+"fail" {
			t.Fatalf("expected failure of %vfail, got %v", exampleNS, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("blocked sibling was not cancelled")
	}
}

func TestExtensionFunctionTracingAndLogging(t *testing.T) {
	var calls atomic.Int64
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	logger := testlog.New()
	m := metrics.New()

	e, err := NewSyncEvaluator(
		op("coalesce", algebra.Named(exampleNS+"fail"), algebra.Named(exampleNS+"upper", term(`"x"`))),
		Config{
			ExtensionFunctions: extensions(&calls),
			Tracer:             tp.Tracer("test"),
			Logger:             logger,
			Metrics:            m,
		})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Evaluate(ast.Binding{}); err != nil {
		t.Fatal(err)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.Name() != "extension" {
			t.Errorf("unexpected span name %q", s.Name())
		}
		found := false
		for _, attr := range s.Attributes() {
			if attr.Key == IRIAttribute && strings.HasPrefix(attr.Value.AsString(), exampleNS) {
				found = true
			}
		}
		if !found {
			t.Errorf("span %q lacks the %v attribute", s.Name(), IRIAttribute)
		}
	}

	entries := logger.EntriesAt(logging.Debug)
	if len(entries) != 1 || len(logger.Entries()) != 1 || entries[0].Fields["iri"] != exampleNS+"fail" {
		t.Fatalf("unexpected log entries: %+v", entries)
	}

	if got := m.Counter(metrics.ExtensionCalls).Value(); got != uint64(2) {
		t.Fatalf("expected 2 extension calls, got %v", got)
	}
	if got := m.Counter(metrics.EvalCount).Value(); got != uint64(1) {
		t.Fatalf("expected 1 evaluation, got %v", got)
	}
	if _, ok := m.All()["histogram_"+metrics.EvalLatency]; !ok {
		t.Fatalf("expected eval latency histogram in %v", m.All())
	}
}

func TestHooks(t *testing.T) {
	exists := func(_ context.Context, expr *algebra.ExistenceExpression, b ast.Binding) (bool, error) {
		return expr.Input == "pattern" && b.Has("x"), nil
	}
	aggregate := func(_ context.Context, expr *algebra.AggregateExpression) (rdf.Term, error) {
		if expr.Aggregator != AggregateCount {
			return nil, fmt.Errorf("not computed")
		}
		return rdf.NewLiteral("7", types.XSDInteger), nil
	}
	cfg := Config{Exists: exists, Aggregate: aggregate}

	runEvalCases(t, cfg, []evalCase{
		{note: "exists", expr: algebra.Exists(false, "pattern"), binding: map[string]string{"x": "1"}, want: "true"},
		{note: "not exists", expr: algebra.Exists(true, "pattern"), binding: map[string]string{"x": "1"}, want: "false"},
		{note: "exists without match", expr: algebra.Exists(false, "pattern"), want: "false"},
		{note: "aggregate", expr: op("+", algebra.Aggregate(AggregateCount, false, term("?x")), term("1")), want: "8"},
		{note: "aggregate failure", expr: algebra.Aggregate(AggregateSum, false, term("?x")), wantErr: func(err error) bool { return err != nil }},
	})

	runEvalCases(t, Config{}, []evalCase{
		{note: "missing exists hook", expr: algebra.Exists(false, "pattern"), wantErr: func(err error) bool { return hasCode(err, UnsupportedErr) }},
		{note: "missing aggregate hook", expr: algebra.Aggregate(AggregateCount, false, term("?x")), wantErr: func(err error) bool { return hasCode(err, UnsupportedErr) }},
	})
}
