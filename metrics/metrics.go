// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package metrics contains helpers for performance metric management inside the evaluator.
package metrics

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	go_metrics "github.com/rcrowley/go-metrics"
)

// Well-known metric names.
const (
	EvalExpression      = "eval_expression"
	EvalLatency         = "eval_latency_ns"
	EvalCount           = "eval_count"
	EvalErrors          = "eval_errors"
	ExtensionCalls      = "extension_calls"
	OverloadCacheHits   = "overload_cache_hits"
	OverloadCacheMisses = "overload_cache_misses"
	AggregatePut        = "aggregate_put"
	CompileExpression   = "compile_expression"
)

// Info contains attributes describing the underlying metrics provider.
type Info struct {
	Name string `json:"name"` // name is a unique human-readable identifier for the provider.
}

// Metrics defines the interface for a collection of performance metrics in the
// evaluator. Metrics are created on first use and safe for concurrent use.
type Metrics interface {
	Info() Info
	Timer(name string) Timer
	Histogram(name string) Histogram
	Counter(name string) Counter
	All() map[string]any
	Clear()
	json.Marshaler
}

// family holds the metrics of one kind, keyed by name.
type family[T any] struct {
	mtx     sync.Mutex
	entries map[string]T
	create  func() T
	prefix  string
	suffix  string
}

func newFamily[T any](prefix, suffix string, create func() T) *family[T] {
	return &family[T]{entries: map[string]T{}, create: create, prefix: prefix, suffix: suffix}
}

func (f *family[T]) get(name string) T {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	e, ok := f.entries[name]
	if !ok {
		e = f.create()
		f.entries[name] = e
	}
	return e
}

func (f *family[T]) snapshot() map[string]T {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return maps.Clone(f.entries)
}

func (f *family[T]) reset() {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	clear(f.entries)
}

func (f *family[T]) key(name string) string {
	return f.prefix + name + f.suffix
}

type metrics struct {
	timers     *family[*timer]
	histograms *family[*histogram]
	counters   *family[*counter]
}

// New returns a new Metrics object.
func New() Metrics {
	return &metrics{
		timers:     newFamily("timer_", "_ns", func() *timer { return &timer{} }),
		histograms: newFamily("histogram_", "", newHistogram),
		counters:   newFamily("counter_", "", func() *counter { return &counter{} }),
	}
}

// NoOp returns a Metrics implementation that does nothing and costs nothing.
// Used when metrics are expected, but not of interest.
func NoOp() Metrics {
	return noOpMetricsInstance
}

func (*metrics) Info() Info {
	return Info{
		Name: "<built-in>",
	}
}

// String renders the metrics as space separated key:value pairs sorted by key.
func (m *metrics) String() string {
	all := m.All()
	buf := make([]string, 0, len(all))
	for _, key := range slices.Sorted(maps.Keys(all)) {
		buf = append(buf, fmt.Sprintf("%v:%v", key, all[key]))
	}
	return strings.Join(buf, " ")
}

func (m *metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.All())
}

func (m *metrics) Timer(name string) Timer {
	return m.timers.get(name)
}

func (m *metrics) Histogram(name string) Histogram {
	return m.histograms.get(name)
}

func (m *metrics) Counter(name string) Counter {
	return m.counters.get(name)
}

// All returns the current values keyed by kind prefixed names, for example
// counter_eval_count and timer_eval_expression_ns.
func (m *metrics) All() map[string]any {
	result := map[string]any{}
	for name, t := range m.timers.snapshot() {
		result[m.timers.key(name)] = t.Value()
	}
	for name, h := range m.histograms.snapshot() {
		result[m.histograms.key(name)] = h.Value()
	}
	for name, c := range m.counters.snapshot() {
		result[m.counters.key(name)] = c.Value()
	}
	return result
}

func (m *metrics) Clear() {
	m.timers.reset()
	m.histograms.reset()
	m.counters.reset()
}

// Timer defines the interface for a restartable timer that accumulates elapsed
// time.
type Timer interface {
	Value() any
	Int64() int64
	// Start or resume a timer's time tracking.
	Start()
	// Stop a timer, and accumulate the delta (in nanoseconds) since it was last
	// started.
	Stop() int64
}

type timer struct {
	mtx     sync.Mutex
	started time.Time
	total   atomic.Int64
}

func (t *timer) Start() {
	t.mtx.Lock()
	t.started = time.Now()
	t.mtx.Unlock()
}

func (t *timer) Stop() int64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.started.IsZero() {
		return 0
	}
	delta := time.Since(t.started).Nanoseconds()
	t.started = time.Time{}
	t.total.Add(delta)
	return delta
}

func (t *timer) Value() any {
	return t.Int64()
}

func (t *timer) Int64() int64 {
	return t.total.Load()
}

// Histogram defines the interface for a histogram with hardcoded percentiles.
type Histogram interface {
	Value() any
	Update(int64)
}

// quantiles maps the reported percentile keys to their quantile.
var quantiles = []struct {
	key string
	q   float64
}{
	{"median", 0.5},
	{"90%", 0.9},
	{"99%", 0.99},
	{"99.9%", 0.999},
}

type histogram struct {
	hist go_metrics.Histogram // is thread-safe because of the underlying ExpDecaySample
}

func newHistogram() *histogram {
	return &histogram{go_metrics.NewHistogram(go_metrics.NewExpDecaySample(1028, 0.015))}
}

func (h *histogram) Update(v int64) {
	h.hist.Update(v)
}

// summary returns the sample count, sum and quantile values.
func (h *histogram) summary() (uint64, float64, map[float64]float64) {
	snap := h.hist.Snapshot()
	qs := make([]float64, len(quantiles))
	for i := range quantiles {
		qs[i] = quantiles[i].q
	}
	ps := snap.Percentiles(qs)
	out := make(map[float64]float64, len(qs))
	for i, q := range qs {
		out[q] = ps[i]
	}
	return uint64(snap.Count()), float64(snap.Sum()), out
}

func (h *histogram) Value() any {
	snap := h.hist.Snapshot()
	values := map[string]any{
		"count": snap.Count(),
		"min":   snap.Min(),
		"max":   snap.Max(),
		"mean":  snap.Mean(),
	}
	for _, q := range quantiles {
		values[q.key] = snap.Percentile(q.q)
	}
	return values
}

// Counter defines the interface for a monotonic increasing counter.
type Counter interface {
	Value() any
	Int64() int64
	Incr()
	Add(n uint64)
}

type counter struct {
	n atomic.Uint64
}

func (c *counter) Incr() {
	c.n.Add(1)
}

func (c *counter) Add(n uint64) {
	c.n.Add(n)
}

func (c *counter) Value() any {
	return c.n.Load()
}

func (c *counter) Int64() int64 {
	return int64(c.n.Load())
}

type noOpMetrics struct{}
type noOpTimer struct{}
type noOpHistogram struct{}
type noOpCounter struct{}

var (
	noOpMetricsInstance   = &noOpMetrics{}
	noOpTimerInstance     = &noOpTimer{}
	noOpHistogramInstance = &noOpHistogram{}
	noOpCounterInstance   = &noOpCounter{}
)

func (*noOpMetrics) Info() Info                 { return Info{Name: "<built-in no-op>"} }
func (*noOpMetrics) Timer(string) Timer         { return noOpTimerInstance }
func (*noOpMetrics) Histogram(string) Histogram { return noOpHistogramInstance }
func (*noOpMetrics) Counter(string) Counter     { return noOpCounterInstance }
func (*noOpMetrics) All() map[string]any        { return nil }
func (*noOpMetrics) Clear()                     {}
func (*noOpMetrics) MarshalJSON() ([]byte, error) {
	return []byte(`{"name": "<built-in no-op>"}`), nil
}

func (*noOpTimer) Start()       {}
func (*noOpTimer) Stop() int64  { return 0 }
func (*noOpTimer) Value() any   { return 0 }
func (*noOpTimer) Int64() int64 { return 0 }

func (*noOpHistogram) Update(int64) {}
func (*noOpHistogram) Value() any   { return nil }

func (*noOpCounter) Incr()        {}
func (*noOpCounter) Add(uint64)   {}
func (*noOpCounter) Value() any   { return 0 }
func (*noOpCounter) Int64() int64 { return 0 }
