// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for capture operations:
//   - captured:       Total records appended to history
//   - parse_failures: Payloads that degraded to an empty body
//   - clears:         Explicit history clears
//
// For production, export these to Prometheus or similar.
package monitoring

import "sync/atomic"

// CaptureMetrics collects capture counters.
type CaptureMetrics struct {
	captured      atomic.Int64
	parseFailures atomic.Int64
	clears        atomic.Int64
}

// NewCaptureMetrics creates a new metrics collector.
func NewCaptureMetrics() *CaptureMetrics {
	return &CaptureMetrics{}
}

// RecordCapture records one captured request.
func (cm *CaptureMetrics) RecordCapture(parsed bool) {
	cm.captured.Add(1)
	if !parsed {
		cm.parseFailures.Add(1)
	}
}

// RecordClear records a history clear.
func (cm *CaptureMetrics) RecordClear() {
	cm.clears.Add(1)
}

// Stats is a point-in-time snapshot of the counters.
type Stats struct {
	Captured      int64 `json:"captured"`
	ParseFailures int64 `json:"parse_failures"`
	Clears        int64 `json:"clears"`
}

// Snapshot returns the current counter values.
func (cm *CaptureMetrics) Snapshot() Stats {
	return Stats{
		Captured:      cm.captured.Load(),
		ParseFailures: cm.parseFailures.Load(),
		Clears:        cm.clears.Load(),
	}
}
