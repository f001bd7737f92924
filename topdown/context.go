// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/open-policy-agent/rdfexpr/algebra"
	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/logging"
	"github.com/open-policy-agent/rdfexpr/metrics"
	"github.com/open-policy-agent/rdfexpr/rdf"
	"github.com/open-policy-agent/rdfexpr/topdown/overload"
	"github.com/open-policy-agent/rdfexpr/types"
)

// ExtensionFunctionResolver returns the function registered for iri, or nil.
// It is consulted once per call site when an expression is compiled.
type ExtensionFunctionResolver func(iri string) ast.ExtensionFunc

// ExistenceHook decides EXISTS and NOT EXISTS patterns for a binding. The
// result is the raw existence of a solution; negation is applied by the
// evaluator.
type ExistenceHook func(ctx context.Context, expr *algebra.ExistenceExpression, binding ast.Binding) (bool, error)

// AggregateHook returns the value already computed for an aggregate in the
// current group.
type AggregateHook func(ctx context.Context, expr *algebra.AggregateExpression) (rdf.Term, error)

// Config holds the evaluation context shared by every binding evaluated
// with an evaluator. The zero value is usable.
type Config struct {
	// Now is the value of NOW(). It defaults to the time the evaluator is
	// created.
	Now time.Time

	// BaseIRI resolves relative IRIs passed to IRI() and URI().
	BaseIRI string

	// DefaultTimeZone is the implicit timezone of date and time values
	// without one. It defaults to the location of Now.
	DefaultTimeZone *time.Location

	ExtensionFunctions ExtensionFunctionResolver
	Exists             ExistenceHook
	Aggregate          AggregateHook

	// BlankNodes generates the identifiers returned by BNODE(). It defaults
	// to a counter scoped to the evaluator.
	BlankNodes BlankNodeGenerator

	// TypeDiscovery returns the parent of datatypes that are not built in.
	// It is ignored when Types is set.
	TypeDiscovery types.Discoverer

	// Types resolves datatype hierarchies. Evaluators of the same query
	// should share one Provider.
	Types *types.Provider

	// OverloadCache memoizes overload resolution. Evaluators of the same
	// query should share one cache.
	OverloadCache *overload.Cache[*BuiltinContext]

	FunctionArgumentsCacheSize int
	SuperTypeCacheSize         int
	RegexCacheSize             int

	Logger  logging.Logger
	Metrics metrics.Metrics
	Tracer  trace.Tracer
}

// withDefaults returns a copy of c with every unset field defaulted.
func (c Config) withDefaults() Config {
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	if c.DefaultTimeZone == nil {
		c.DefaultTimeZone = c.Now.Location()
	}
	if c.Logger == nil {
		c.Logger = logging.NewNoOpLogger()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NoOp()
	}
	if c.Tracer == nil {
		c.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if c.Types == nil {
		c.Types = types.NewProvider(c.TypeDiscovery, types.ProviderOpts{
			Size:   c.SuperTypeCacheSize,
			Logger: c.Logger,
		})
	}
	if c.OverloadCache == nil {
		c.OverloadCache = overload.NewCache[*BuiltinContext](c.FunctionArgumentsCacheSize)
	}
	if c.BlankNodes == nil {
		c.BlankNodes = NewBlankNodeCounter("")
	}
	return c
}

// BuiltinContext is the state available to operator implementations. It is
// created once per evaluator and never modified.
type BuiltinContext struct {
	Now         time.Time
	BaseIRI     string
	TimeZone    *time.Location
	Types       *types.Provider
	Transformer *ast.Transformer
	Logger      logging.Logger

	cache *overload.Cache[*BuiltinContext]
	regex *regexCache
}

func newBuiltinContext(c Config) *BuiltinContext {
	return &BuiltinContext{
		Now:         c.Now,
		BaseIRI:     c.BaseIRI,
		TimeZone:    c.DefaultTimeZone,
		Types:       c.Types,
		Transformer: ast.NewTransformer(c.Types),
		Logger:      c.Logger,
		cache:       c.OverloadCache,
		regex:       newRegexCache(c.RegexCacheSize),
	}
}

// implicitOffset returns the offset of the implicit timezone at Now.
func (bctx *BuiltinContext) implicitOffset() time.Duration {
	_, offset := bctx.Now.In(bctx.TimeZone).Zone()
	return time.Duration(offset) * time.Second
}
