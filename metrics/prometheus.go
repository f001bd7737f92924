// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rdfexpr"

// Collector exports a Metrics collection to Prometheus. Counters become
// counters, timers become counters of accumulated seconds and histograms
// become summaries. Metrics are created lazily so the collector is unchecked.
type Collector struct {
	m *metrics
}

// NewCollector returns a Prometheus collector over m. Metrics not created by
// New (for example NoOp) export nothing.
func NewCollector(m Metrics) *Collector {
	impl, _ := m.(*metrics)
	return &Collector{m: impl}
}

// Describe implements prometheus.Collector.
func (*Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.m == nil {
		return
	}
	for name, t := range c.m.timers.snapshot() {
		desc := prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name+"_seconds_total"),
			"Accumulated time spent in "+name+".", nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(t.Int64())/1e9)
	}
	for name, h := range c.m.histograms.snapshot() {
		count, sum, qs := h.summary()
		desc := prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name),
			"Distribution of "+name+".", nil, nil)
		ch <- prometheus.MustNewConstSummary(desc, count, sum, qs)
	}
	for name, cntr := range c.m.counters.snapshot() {
		desc := prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name+"_total"),
			"Number of "+name+".", nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(cntr.Int64()))
	}
}
