// Package observability provides the in-process adapters behind the
// metrics and tracing ports: an in-memory collector suitable for tests
// and single-process CLI runs, and a tracer that renders spans as
// structured log entries.
package observability

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tcmigrate/core/internal/ports"
)

// Collector is a thread-safe, in-memory ports.MetricsCollector. Values
// are keyed by metric name plus sorted labels so callers can assert on
// exact series in tests or dump them at the end of a CLI run.
type Collector struct {
	mu         sync.Mutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// IncCounter increments the counter series identified by name and labels.
func (c *Collector) IncCounter(_ context.Context, name string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[seriesKey(name, labels)]++
}

// SetGauge sets the gauge series to value.
func (c *Collector) SetGauge(_ context.Context, name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[seriesKey(name, labels)] = value
}

// ObserveHistogram appends one observation to the histogram series.
func (c *Collector) ObserveHistogram(_ context.Context, name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := seriesKey(name, labels)
	c.histograms[key] = append(c.histograms[key], value)
}

// CounterValue returns the current value of one counter series.
func (c *Collector) CounterValue(name string, labels map[string]string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[seriesKey(name, labels)]
}

// GaugeValue returns the current value of one gauge series.
func (c *Collector) GaugeValue(name string, labels map[string]string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gauges[seriesKey(name, labels)]
}

// HistogramCount returns how many observations one histogram series holds.
func (c *Collector) HistogramCount(name string, labels map[string]string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.histograms[seriesKey(name, labels)])
}

// seriesKey renders a stable identity for a metric series: the name
// followed by its labels in sorted key order.
func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteString("{")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
		b.WriteString("}")
	}
	return b.String()
}

var _ ports.MetricsCollector = (*Collector)(nil)
