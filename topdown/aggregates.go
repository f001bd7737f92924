// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/open-policy-agent/rdfexpr/algebra"
	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/metrics"
	"github.com/open-policy-agent/rdfexpr/rdf"
)

// Aggregator names.
const (
	AggregateCount       = "count"
	AggregateSum         = "sum"
	AggregateMin         = "min"
	AggregateMax         = "max"
	AggregateAvg         = "avg"
	AggregateSample      = "sample"
	AggregateGroupConcat = "group_concat"
)

// accumulator is the state of one aggregate over one group. init receives
// the first term and put every later one.
type accumulator interface {
	init(bctx *BuiltinContext, t ast.Term) error
	put(bctx *BuiltinContext, t ast.Term) error
	result(bctx *BuiltinContext) (ast.Term, error)
}

type aggregator struct {
	new func(expr *algebra.AggregateExpression) accumulator
	// empty is the result over zero rows. nil means no value.
	empty func(expr *algebra.AggregateExpression) ast.Term
}

var aggregators = map[string]aggregator{
	AggregateCount:       {new: func(*algebra.AggregateExpression) accumulator { return &countAcc{} }, empty: emptyTerm(ast.NewInteger(0))},
	AggregateSum:         {new: func(*algebra.AggregateExpression) accumulator { return &sumAcc{} }},
	AggregateMin:         {new: func(*algebra.AggregateExpression) accumulator { return &extremeAcc{want: -1} }},
	AggregateMax:         {new: func(*algebra.AggregateExpression) accumulator { return &extremeAcc{want: 1} }},
	AggregateAvg:         {new: func(*algebra.AggregateExpression) accumulator { return &avgAcc{} }, empty: emptyTerm(ast.NewInteger(0))},
	AggregateSample:      {new: func(*algebra.AggregateExpression) accumulator { return &sampleAcc{} }},
	AggregateGroupConcat: {new: newGroupConcat, empty: emptyTerm(ast.NewString(""))},
}

func emptyTerm(t ast.Term) func(*algebra.AggregateExpression) ast.Term {
	return func(*algebra.AggregateExpression) ast.Term { return t }
}

type countAcc struct {
	n int64
}

func (c *countAcc) init(*BuiltinContext, ast.Term) error {
	c.n = 1
	return nil
}

func (c *countAcc) put(*BuiltinContext, ast.Term) error {
	c.n++
	return nil
}

func (c *countAcc) result(*BuiltinContext) (ast.Term, error) {
	return ast.NewInteger(c.n), nil
}

func requireNumeric(op string, t ast.Term) error {
	if _, ok := t.(ast.Numeric); !ok {
		return invalidArgumentTypesErr(op, []ast.Term{t})
	}
	return nil
}

type sumAcc struct {
	sum ast.Term
}

func (s *sumAcc) init(_ *BuiltinContext, t ast.Term) error {
	if err := requireNumeric(AggregateSum, t); err != nil {
		return err
	}
	s.sum = t
	return nil
}

func (s *sumAcc) put(bctx *BuiltinContext, t ast.Term) error {
	if err := requireNumeric(AggregateSum, t); err != nil {
		return err
	}
	r, err := applyOperator(bctx, ast.Add, s.sum, t)
	if err != nil {
		return err
	}
	s.sum = r
	return nil
}

func (s *sumAcc) result(*BuiltinContext) (ast.Term, error) {
	return s.sum, nil
}

type avgAcc struct {
	sumAcc
	n int64
}

func (a *avgAcc) init(bctx *BuiltinContext, t ast.Term) error {
	a.n = 1
	return a.sumAcc.init(bctx, t)
}

func (a *avgAcc) put(bctx *BuiltinContext, t ast.Term) error {
	a.n++
	return a.sumAcc.put(bctx, t)
}

func (a *avgAcc) result(bctx *BuiltinContext) (ast.Term, error) {
	return applyOperator(bctx, ast.Divide, a.sum, ast.NewInteger(a.n))
}

// extremeAcc keeps the smallest (want -1) or largest (want 1) term in
// ORDER BY order.
type extremeAcc struct {
	want int
	cur  ast.Term
}

func (x *extremeAcc) init(_ *BuiltinContext, t ast.Term) error {
	x.cur = t
	return nil
}

func (x *extremeAcc) put(bctx *BuiltinContext, t ast.Term) error {
	if compareInternal(bctx, t, x.cur) == x.want {
		x.cur = t
	}
	return nil
}

func (x *extremeAcc) result(*BuiltinContext) (ast.Term, error) {
	return x.cur, nil
}

type sampleAcc struct {
	first ast.Term
}

func (s *sampleAcc) init(_ *BuiltinContext, t ast.Term) error {
	s.first = t
	return nil
}

func (*sampleAcc) put(*BuiltinContext, ast.Term) error { return nil }

func (s *sampleAcc) result(*BuiltinContext) (ast.Term, error) {
	return s.first, nil
}

// groupConcatAcc joins the string values of its terms. The result keeps a
// language tag shared by every term.
type groupConcatAcc struct {
	separator string
	sb        strings.Builder
	lang      string
	shared    bool
}

func newGroupConcat(expr *algebra.AggregateExpression) accumulator {
	sep := expr.Separator
	if sep == "" {
		sep = " "
	}
	return &groupConcatAcc{separator: sep}
}

func (g *groupConcatAcc) init(_ *BuiltinContext, t ast.Term) error {
	g.sb.WriteString(t.Str())
	if l, ok := t.(ast.Literal); ok {
		g.lang = l.Language()
	}
	g.shared = g.lang != ""
	return nil
}

func (g *groupConcatAcc) put(_ *BuiltinContext, t ast.Term) error {
	g.sb.WriteString(g.separator)
	g.sb.WriteString(t.Str())
	if l, ok := t.(ast.Literal); !ok || !sameLanguage(l.Language(), g.lang) {
		g.shared = false
	}
	return nil
}

func (g *groupConcatAcc) result(*BuiltinContext) (ast.Term, error) {
	if g.shared {
		return ast.NewLangString(g.sb.String(), g.lang), nil
	}
	return ast.NewString(g.sb.String()), nil
}

// seenSet records the canonical encodings of the terms already aggregated.
type seenSet struct {
	m map[uint64][]string
}

// add reports whether key was not yet in the set.
func (s *seenSet) add(key string) bool {
	h := xxhash.Sum64String(key)
	if slices.Contains(s.m[h], key) {
		return false
	}
	s.m[h] = append(s.m[h], key)
	return true
}

// AggregateOptions configures an AggregateEvaluator.
type AggregateOptions struct {
	// PropagateErrors makes Put return evaluation errors. By default an
	// error marks the group as errored and its result is unbound.
	PropagateErrors bool
}

// AggregateEvaluator computes one aggregate expression over the bindings
// of a group. It is safe for concurrent use.
type AggregateEvaluator struct {
	expr    *algebra.AggregateExpression
	agg     aggregator
	inner   *evaluator
	bctx    *BuiltinContext
	metrics metrics.Metrics
	opts    AggregateOptions

	mtx     sync.Mutex
	acc     accumulator
	seen    *seenSet
	errored bool
}

// NewSyncAggregateEvaluator returns an aggregate evaluator that evaluates
// the aggregated expression sequentially.
func NewSyncAggregateEvaluator(expr *algebra.AggregateExpression, c Config, opts AggregateOptions) (*AggregateEvaluator, error) {
	return newAggregateEvaluator(expr, c, opts, sequential{})
}

// NewAsyncAggregateEvaluator returns an aggregate evaluator whose
// aggregated expression may call blocking hooks or extension functions.
func NewAsyncAggregateEvaluator(expr *algebra.AggregateExpression, c Config, opts AggregateOptions) (*AggregateEvaluator, error) {
	return newAggregateEvaluator(expr, c, opts, concurrent{})
}

func newAggregateEvaluator(expr *algebra.AggregateExpression, c Config, opts AggregateOptions, r runner) (*AggregateEvaluator, error) {
	name := strings.ToLower(expr.Aggregator)
	agg, ok := aggregators[name]
	if !ok {
		return nil, unknownOperatorErr(name, suggestAggregator(name))
	}
	c = c.withDefaults()

	a := &AggregateEvaluator{
		expr:    expr,
		agg:     agg,
		metrics: c.Metrics,
		opts:    opts,
	}
	if _, wildcard := expr.Expression.(*algebra.WildcardExpression); wildcard {
		a.bctx = newBuiltinContext(c)
	} else {
		inner, err := newEvaluator(expr.Expression, c, r)
		if err != nil {
			return nil, err
		}
		a.inner = inner
		a.bctx = inner.bctx
	}
	a.Reset()
	return a, nil
}

func suggestAggregator(name string) []string {
	candidates := make(map[string]*builtinTree, len(aggregators))
	for n := range aggregators {
		candidates[n] = nil
	}
	return suggest(name, candidates)
}

// Reset discards the state so that the evaluator can be reused for
// another group.
func (a *AggregateEvaluator) Reset() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.acc = nil
	a.errored = false
	if a.expr.Distinct {
		a.seen = &seenSet{m: map[uint64][]string{}}
	}
}

// Put adds the value of the aggregated expression for b to the group.
func (a *AggregateEvaluator) Put(ctx context.Context, b ast.Binding) error {
	a.mtx.Lock()
	errored := a.errored
	a.mtx.Unlock()
	if errored {
		return nil
	}

	var t ast.Term
	var key string
	if a.inner == nil {
		// COUNT(*) counts solutions, so DISTINCT compares whole bindings.
		t, key = ast.True, b.String()
	} else {
		var err error
		if t, err = a.inner.evalRoot(ctx, b); err != nil {
			return a.fail(err)
		}
		key = t.ToRDF().String()
	}

	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.errored || (a.seen != nil && !a.seen.add(key)) {
		return nil
	}
	a.metrics.Counter(metrics.AggregatePut).Incr()

	var err error
	if a.acc == nil {
		a.acc = a.agg.new(a.expr)
		err = a.acc.init(a.bctx, t)
	} else {
		err = a.acc.put(a.bctx, t)
	}
	if err != nil {
		a.errored = true
		if a.opts.PropagateErrors {
			return err
		}
	}
	return nil
}

func (a *AggregateEvaluator) fail(err error) error {
	if a.opts.PropagateErrors {
		return err
	}
	a.mtx.Lock()
	a.errored = true
	a.mtx.Unlock()
	return nil
}

// Result returns the aggregate of the group. A nil term without error means
// the result is unbound: the group errored, or it is empty and the
// aggregate has no value over zero rows.
func (a *AggregateEvaluator) Result() (rdf.Term, error) {
	t, err := a.ResultAsInternal()
	if t == nil || err != nil {
		return nil, err
	}
	return t.ToRDF(), nil
}

// ResultAsInternal is Result returning an internal term.
func (a *AggregateEvaluator) ResultAsInternal() (ast.Term, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	switch {
	case a.errored:
		return nil, nil
	case a.acc == nil:
		if a.agg.empty == nil {
			return nil, nil
		}
		return a.agg.empty(a.expr), nil
	}
	t, err := a.acc.result(a.bctx)
	if err != nil {
		if a.opts.PropagateErrors {
			return nil, err
		}
		return nil, nil
	}
	return t, nil
}
