// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/open-policy-agent/rdfexpr/algebra"
	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/logging"
	"github.com/open-policy-agent/rdfexpr/metrics"
	"github.com/open-policy-agent/rdfexpr/rdf"
)

// IRIAttribute is the span attribute holding the IRI of an extension
// function.
const IRIAttribute = attribute.Key("rdfexpr.iri")

// runner evaluates the arguments of operators that need all of them.
type runner interface {
	evalAll(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) ([]ast.Term, error)
}

// sequential evaluates arguments in order, stopping at the first failure.
type sequential struct{}

func (sequential) evalAll(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) ([]ast.Term, error) {
	out := make([]ast.Term, len(args))
	for i, a := range args {
		t, err := e.eval(ctx, a, b)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// concurrent evaluates sibling arguments in parallel when at least one of
// them may call out to a hook or an extension function. The first failure
// cancels the remaining siblings. The error of the leftmost argument that
// failed on its own is returned.
type concurrent struct{}

func (concurrent) evalAll(ctx context.Context, e *evaluator, args []ast.Expression, b ast.Binding) ([]ast.Term, error) {
	if len(args) < 2 || !anyMayBlock(args) {
		return sequential{}.evalAll(ctx, e, args, b)
	}
	out := make([]ast.Term, len(args))
	errs := make([]error, len(args))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range args {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			out[i], errs[i] = e.eval(gctx, a, b)
			return errs[i]
		})
	}
	first := g.Wait()
	if first == nil {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
	}
	return nil, first
}

func anyMayBlock(args []ast.Expression) bool {
	for _, a := range args {
		if ast.MayBlock(a) {
			return true
		}
	}
	return false
}

// evaluator is shared by the synchronous and the asynchronous entry points.
// They differ only in the runner.
type evaluator struct {
	expr       ast.Expression
	bctx       *BuiltinContext
	runner     runner
	exists     ExistenceHook
	aggregate  AggregateHook
	blankNodes BlankNodeGenerator
	logger     logging.Logger
	metrics    metrics.Metrics
	tracer     trace.Tracer
}

func newEvaluator(expr algebra.Expression, c Config, r runner) (*evaluator, error) {
	c = c.withDefaults()

	t := c.Metrics.Timer(metrics.CompileExpression)
	t.Start()
	compiled, err := newCompiler(c).compile(expr)
	t.Stop()
	if err != nil {
		return nil, err
	}

	return &evaluator{
		expr:       compiled,
		bctx:       newBuiltinContext(c),
		runner:     r,
		exists:     c.Exists,
		aggregate:  c.Aggregate,
		blankNodes: c.BlankNodes,
		logger:     c.Logger,
		metrics:    c.Metrics,
		tracer:     c.Tracer,
	}, nil
}

// evalRoot evaluates the compiled expression for one binding and records
// evaluation metrics.
func (e *evaluator) evalRoot(ctx context.Context, b ast.Binding) (ast.Term, error) {
	t := e.metrics.Timer(metrics.EvalExpression)
	t.Start()
	defer func() {
		e.metrics.Histogram(metrics.EvalLatency).Update(t.Stop())
	}()
	e.metrics.Counter(metrics.EvalCount).Incr()

	r, err := e.eval(ctx, e.expr, b)
	if err != nil {
		e.metrics.Counter(metrics.EvalErrors).Incr()
		return nil, err
	}
	return r, nil
}

func (e *evaluator) eval(ctx context.Context, expr ast.Expression, b ast.Binding) (ast.Term, error) {
	switch x := expr.(type) {
	case ast.Term:
		return x, nil
	case *ast.Variable:
		return e.evalVariable(x, b)
	case *ast.Call:
		args, err := e.runner.evalAll(ctx, e, x.Args, b)
		if err != nil {
			return nil, err
		}
		return applyOperator(e.bctx, x.Operator, args...)
	case *ast.SpecialCall:
		form, ok := specialForms[x.Operator]
		if !ok {
			return nil, unknownOperatorErr(x.Operator, nil)
		}
		return form.eval(ctx, e, x.Args, b)
	case *ast.NamedCall:
		tree, ok := namedFunctions[x.IRI]
		if !ok {
			return nil, unknownOperatorErr(x.IRI, nil)
		}
		args, err := e.runner.evalAll(ctx, e, x.Args, b)
		if err != nil {
			return nil, err
		}
		return applyTree(e.bctx, tree, args)
	case *ast.ExtensionCall:
		return e.evalExtension(ctx, x, b)
	case *ast.Existence:
		return e.evalExistence(ctx, x, b)
	case *ast.Aggregate:
		return e.evalAggregate(ctx, x)
	}
	return nil, fmt.Errorf("unsupported expression type %T", expr)
}

func (e *evaluator) evalEBV(ctx context.Context, expr ast.Expression, b ast.Binding) (bool, error) {
	t, err := e.eval(ctx, expr, b)
	if err != nil {
		return false, err
	}
	return EffectiveBooleanValue(t)
}

func (e *evaluator) evalVariable(v *ast.Variable, b ast.Binding) (ast.Term, error) {
	t, ok := b.Get(v.Name)
	if !ok {
		return nil, unboundVariableErr(v.Name)
	}
	return e.bctx.Transformer.Term(t)
}

func (e *evaluator) evalExtension(ctx context.Context, x *ast.ExtensionCall, b ast.Binding) (ast.Term, error) {
	args, err := e.runner.evalAll(ctx, e, x.Args, b)
	if err != nil {
		return nil, err
	}
	raw := make([]rdf.Term, len(args))
	for i, a := range args {
		raw[i] = a.ToRDF()
	}

	ctx, span := e.tracer.Start(ctx, "extension", trace.WithAttributes(IRIAttribute.String(x.IRI)))
	defer span.End()
	e.metrics.Counter(metrics.ExtensionCalls).Incr()

	r, err := x.Func(ctx, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.WithFields(map[string]any{"iri": x.IRI}).Debug("Extension function failed: %v", err)
		return nil, extensionFunctionErr(x.IRI, err)
	}
	t, err := e.bctx.Transformer.Term(r)
	if err != nil {
		return nil, extensionFunctionErr(x.IRI, err)
	}
	return t, nil
}

func (e *evaluator) evalExistence(ctx context.Context, x *ast.Existence, b ast.Binding) (ast.Term, error) {
	if e.exists == nil {
		return nil, unsupportedErr("no existence hook configured for %v", x)
	}
	ctx, span := e.tracer.Start(ctx, "exists")
	defer span.End()

	found, err := e.exists(ctx, x.Expression, b)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return ast.Bool(found != x.Expression.Not), nil
}

func (e *evaluator) evalAggregate(ctx context.Context, x *ast.Aggregate) (ast.Term, error) {
	if e.aggregate == nil {
		return nil, unsupportedErr("no aggregate hook configured for %v", x)
	}
	ctx, span := e.tracer.Start(ctx, "aggregate")
	defer span.End()

	r, err := e.aggregate(ctx, x.Expression)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return e.bctx.Transformer.Term(r)
}

// SyncEvaluator evaluates an expression without suspending: functional
// forms and operator arguments are evaluated one after another. Hooks and
// extension functions receive a background context.
type SyncEvaluator struct {
	e *evaluator
}

// NewSyncEvaluator compiles expr and returns an evaluator for it.
func NewSyncEvaluator(expr algebra.Expression, c Config) (*SyncEvaluator, error) {
	e, err := newEvaluator(expr, c, sequential{})
	if err != nil {
		return nil, err
	}
	return &SyncEvaluator{e: e}, nil
}

// Evaluate returns the value of the expression for b.
func (s *SyncEvaluator) Evaluate(b ast.Binding) (rdf.Term, error) {
	t, err := s.EvaluateAsInternal(b)
	if err != nil {
		return nil, err
	}
	return t.ToRDF(), nil
}

// EvaluateAsEBV returns the effective boolean value of the expression for b.
func (s *SyncEvaluator) EvaluateAsEBV(b ast.Binding) (bool, error) {
	t, err := s.EvaluateAsInternal(b)
	if err != nil {
		return false, err
	}
	return EffectiveBooleanValue(t)
}

// EvaluateAsInternal returns the value of the expression for b as an
// internal term.
func (s *SyncEvaluator) EvaluateAsInternal(b ast.Binding) (ast.Term, error) {
	return s.e.evalRoot(context.Background(), b)
}

// Expression returns the compiled expression.
func (s *SyncEvaluator) Expression() ast.Expression {
	return s.e.expr
}

// AsyncEvaluator evaluates an expression whose hooks or extension functions
// may block. Independent operator arguments that may block are evaluated
// concurrently; functional forms keep their evaluation order. Cancelling
// ctx aborts pending argument evaluation and is passed on to hooks and
// extension functions.
type AsyncEvaluator struct {
	e *evaluator
}

// NewAsyncEvaluator compiles expr and returns an evaluator for it.
func NewAsyncEvaluator(expr algebra.Expression, c Config) (*AsyncEvaluator, error) {
	e, err := newEvaluator(expr, c, concurrent{})
	if err != nil {
		return nil, err
	}
	return &AsyncEvaluator{e: e}, nil
}

// Evaluate returns the value of the expression for b.
func (a *AsyncEvaluator) Evaluate(ctx context.Context, b ast.Binding) (rdf.Term, error) {
	t, err := a.EvaluateAsInternal(ctx, b)
	if err != nil {
		return nil, err
	}
	return t.ToRDF(), nil
}

// EvaluateAsEBV returns the effective boolean value of the expression for b.
func (a *AsyncEvaluator) EvaluateAsEBV(ctx context.Context, b ast.Binding) (bool, error) {
	t, err := a.EvaluateAsInternal(ctx, b)
	if err != nil {
		return false, err
	}
	return EffectiveBooleanValue(t)
}

// EvaluateAsInternal returns the value of the expression for b as an
// internal term.
func (a *AsyncEvaluator) EvaluateAsInternal(ctx context.Context, b ast.Binding) (ast.Term, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.e.evalRoot(ctx, b)
}

// Expression returns the compiled expression.
func (a *AsyncEvaluator) Expression() ast.Expression {
	return a.e.expr
}
