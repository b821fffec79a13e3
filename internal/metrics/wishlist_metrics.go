package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// WishlistMetrics tracks latency and volume of wishlist operations.
type WishlistMetrics struct {
	// Latency histograms (milliseconds)
	ParseLatency       *Histogram
	SerializeLatency   *Histogram
	ConsolidateLatency *Histogram
	ImportLatency      *Histogram

	// Counters
	ItemsParsed      atomic.Uint64
	LinesMalformed   atomic.Uint64
	Imports          atomic.Uint64
	ImportsUnchanged atomic.Uint64
	ImportErrors     atomic.Uint64
	APIRequests      atomic.Uint64
	APIErrors        atomic.Uint64

	startTime time.Time
	mu        sync.RWMutex
}

// NewWishlistMetrics creates a new metrics collector.
func NewWishlistMetrics() *WishlistMetrics {
	return &WishlistMetrics{
		ParseLatency:       NewHistogram(defaultHistogramSize),
		SerializeLatency:   NewHistogram(defaultHistogramSize),
		ConsolidateLatency: NewHistogram(defaultHistogramSize),
		ImportLatency:      NewHistogram(defaultHistogramSize),
		startTime:          time.Now(),
	}
}

// RecordParse records one parse and the item and malformed-line counts it
// produced.
func (m *WishlistMetrics) RecordParse(d time.Duration, items, malformed int) {
	m.ParseLatency.Record(d)
	m.ItemsParsed.Add(uint64(items))
	m.LinesMalformed.Add(uint64(malformed))
}

// RecordSerialize records one serialization.
func (m *WishlistMetrics) RecordSerialize(d time.Duration) {
	m.SerializeLatency.Record(d)
}

// RecordConsolidate records one consolidation run.
func (m *WishlistMetrics) RecordConsolidate(d time.Duration) {
	m.ConsolidateLatency.Record(d)
}

// RecordImport records an import. unchanged marks an import skipped
// because the stored digest matched.
func (m *WishlistMetrics) RecordImport(d time.Duration, unchanged bool, err error) {
	m.ImportLatency.Record(d)
	switch {
	case err != nil:
		m.ImportErrors.Add(1)
	case unchanged:
		m.ImportsUnchanged.Add(1)
	default:
		m.Imports.Add(1)
	}
}

// RecordRequest counts an API request; failed marks a 4xx/5xx response.
func (m *WishlistMetrics) RecordRequest(failed bool) {
	m.APIRequests.Add(1)
	if failed {
		m.APIErrors.Add(1)
	}
}

// Stats is a point-in-time view of WishlistMetrics.
type Stats struct {
	ParseLatency       LatencyStats `json:"parse_latency"`
	SerializeLatency   LatencyStats `json:"serialize_latency"`
	ConsolidateLatency LatencyStats `json:"consolidate_latency"`
	ImportLatency      LatencyStats `json:"import_latency"`

	ItemsParsed      uint64  `json:"items_parsed"`
	LinesMalformed   uint64  `json:"lines_malformed"`
	Imports          uint64  `json:"imports"`
	ImportsUnchanged uint64  `json:"imports_unchanged"`
	ImportErrors     uint64  `json:"import_errors"`
	APIRequests      uint64  `json:"api_requests"`
	APIErrors        uint64  `json:"api_errors"`
	APISuccessRate   float64 `json:"api_success_rate"` // percentage

	Uptime string `json:"uptime"`
}

// LatencyStats summarizes a histogram.
type LatencyStats struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// GetStats returns a snapshot of the current statistics.
func (m *WishlistMetrics) GetStats() *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	requests := m.APIRequests.Load()
	apiErrors := m.APIErrors.Load()
	successRate := 0.0
	if requests > 0 {
		successRate = float64(requests-apiErrors) / float64(requests) * 100
	}

	return &Stats{
		ParseLatency:       m.ParseLatency.Snapshot(),
		SerializeLatency:   m.SerializeLatency.Snapshot(),
		ConsolidateLatency: m.ConsolidateLatency.Snapshot(),
		ImportLatency:      m.ImportLatency.Snapshot(),
		ItemsParsed:        m.ItemsParsed.Load(),
		LinesMalformed:     m.LinesMalformed.Load(),
		Imports:            m.Imports.Load(),
		ImportsUnchanged:   m.ImportsUnchanged.Load(),
		ImportErrors:       m.ImportErrors.Load(),
		APIRequests:        requests,
		APIErrors:          apiErrors,
		APISuccessRate:     successRate,
		Uptime:             time.Since(m.startTime).Round(time.Second).String(),
	}
}

// Reset clears all metrics.
func (m *WishlistMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ParseLatency.Reset()
	m.SerializeLatency.Reset()
	m.ConsolidateLatency.Reset()
	m.ImportLatency.Reset()

	m.ItemsParsed.Store(0)
	m.LinesMalformed.Store(0)
	m.Imports.Store(0)
	m.ImportsUnchanged.Store(0)
	m.ImportErrors.Store(0)
	m.APIRequests.Store(0)
	m.APIErrors.Store(0)

	m.startTime = time.Now()
}
