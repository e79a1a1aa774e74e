// Package observability provides in-process metrics for the healing and
// detection pipelines, exposed as a JSON snapshot over HTTP.
package observability

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds all performance metrics for the testmend engine.
type Metrics struct {
	// Healing metrics
	healAttempts *CounterVec
	healLatency  *Histogram

	// Detection metrics
	runsRecorded    *CounterVec
	classifications *CounterVec

	// Quarantine metrics
	quarantineActive *AtomicGauge
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics() *Metrics {
	return &Metrics{
		healAttempts:     NewCounterVec(),
		healLatency:      NewHistogram(),
		runsRecorded:     NewCounterVec(),
		classifications:  NewCounterVec(),
		quarantineActive: NewAtomicGauge(),
	}
}

// HealAttempts counts healing attempts by result status.
func (m *Metrics) HealAttempts() *CounterVec { return m.healAttempts }

// HealLatency tracks healing attempt duration in milliseconds.
func (m *Metrics) HealLatency() *Histogram { return m.healLatency }

// RunsRecorded counts run history writes by outcome.
func (m *Metrics) RunsRecorded() *CounterVec { return m.runsRecorded }

// Classifications counts classification results by status.
func (m *Metrics) Classifications() *CounterVec { return m.classifications }

// QuarantineActive tracks the number of currently quarantined tests.
func (m *Metrics) QuarantineActive() *AtomicGauge { return m.quarantineActive }

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		HealAttempts:     m.healAttempts.Snapshot(),
		HealLatency:      m.healLatency.Snapshot(),
		RunsRecorded:     m.runsRecorded.Snapshot(),
		Classifications:  m.classifications.Snapshot(),
		QuarantineActive: m.quarantineActive.Get(),
	}
}

// MetricsSnapshot holds a point-in-time snapshot of all metrics.
type MetricsSnapshot struct {
	HealAttempts     map[string]int64  `json:"heal_attempts"`
	HealLatency      HistogramSnapshot `json:"heal_latency_ms"`
	RunsRecorded     map[string]int64  `json:"runs_recorded"`
	Classifications  map[string]int64  `json:"classifications"`
	QuarantineActive int64             `json:"quarantine_active"`
}

// ServeHTTP exposes the snapshot as JSON for the debug endpoint.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Histogram tracks the distribution of measurements.
// Thread-safe for concurrent observations.
type Histogram struct {
	mu     sync.RWMutex
	values []float64
}

// NewHistogram creates a new histogram.
func NewHistogram() *Histogram {
	return &Histogram{
		values: make([]float64, 0, 1000),
	}
}

// Observe records a measurement.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	h.values = append(h.values, v)
	h.mu.Unlock()
}

// ObserveDuration records a duration measurement in milliseconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(float64(d.Microseconds()) / 1000)
}

// Snapshot returns a point-in-time snapshot with percentiles calculated.
func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.values) == 0 {
		return HistogramSnapshot{}
	}

	// Copy and sort for percentile calculation
	sorted := make([]float64, len(h.values))
	copy(sorted, h.values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return HistogramSnapshot{
		Count: len(sorted),
		Mean:  sum / float64(len(sorted)),
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
		P99:   percentile(sorted, 0.99),
		Max:   sorted[len(sorted)-1],
	}
}

// HistogramSnapshot holds calculated statistics for a histogram.
type HistogramSnapshot struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Max   float64 `json:"max"`
}

// percentile calculates the p-th percentile from sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	// Linear interpolation
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// CounterVec is a collection of monotonically increasing counters keyed by
// label.
type CounterVec struct {
	mu       sync.RWMutex
	counters map[string]*int64
}

// NewCounterVec creates a new counter vector.
func NewCounterVec() *CounterVec {
	return &CounterVec{
		counters: make(map[string]*int64),
	}
}

// Inc increments the counter for the given label.
func (cv *CounterVec) Inc(label string) {
	cv.Add(label, 1)
}

// Add adds delta to the counter for the given label.
func (cv *CounterVec) Add(label string, delta int64) {
	cv.mu.RLock()
	c, ok := cv.counters[label]
	cv.mu.RUnlock()

	if !ok {
		cv.mu.Lock()
		// Double-check after acquiring write lock
		if c, ok = cv.counters[label]; !ok {
			c = new(int64)
			cv.counters[label] = c
		}
		cv.mu.Unlock()
	}
	atomic.AddInt64(c, delta)
}

// Get returns the current value for the given label.
func (cv *CounterVec) Get(label string) int64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	if c, ok := cv.counters[label]; ok {
		return atomic.LoadInt64(c)
	}
	return 0
}

// Snapshot returns the current values of all counters.
func (cv *CounterVec) Snapshot() map[string]int64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	snapshot := make(map[string]int64, len(cv.counters))
	for label, c := range cv.counters {
		snapshot[label] = atomic.LoadInt64(c)
	}
	return snapshot
}

// AtomicGauge is a gauge backed by an atomic integer.
type AtomicGauge struct {
	value int64
}

// NewAtomicGauge creates a new gauge.
func NewAtomicGauge() *AtomicGauge {
	return &AtomicGauge{}
}

// Add adds delta to the gauge.
func (g *AtomicGauge) Add(delta int64) {
	atomic.AddInt64(&g.value, delta)
}

// Set sets the gauge to a value.
func (g *AtomicGauge) Set(v int64) {
	atomic.StoreInt64(&g.value, v)
}

// Get returns the current value.
func (g *AtomicGauge) Get() int64 {
	return atomic.LoadInt64(&g.value)
}
