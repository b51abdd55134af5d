// Package metrics exposes Prometheus collectors for node requests and record
// scans. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aleo_client"

// Metrics holds the client's collectors.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	blocksScanned   prometheus.Counter
	recordsFound    prometheus.Counter
	recordsSkipped  *prometheus.CounterVec
	scans           *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Node API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Node API request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		blocksScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_blocks_total",
			Help:      "Blocks processed by record scans.",
		}),
		recordsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_records_found_total",
			Help:      "Unspent records returned by scans.",
		}),
		recordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_records_skipped_total",
			Help:      "Record outputs skipped by scans, by reason.",
		}, []string{"reason"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed scans by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.requestDuration, m.blocksScanned, m.recordsFound, m.recordsSkipped, m.scans)
	}
	return m
}

// ObserveRequest records one node request.
func (m *Metrics) ObserveRequest(endpoint string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// BlockScanned counts a processed block.
func (m *Metrics) BlockScanned() {
	if m == nil {
		return
	}
	m.blocksScanned.Inc()
}

// RecordFound counts a record returned to the caller.
func (m *Metrics) RecordFound() {
	if m == nil {
		return
	}
	m.recordsFound.Inc()
}

// RecordSkipped counts a record output dropped for reason.
func (m *Metrics) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.recordsSkipped.WithLabelValues(reason).Inc()
}

// ScanFinished counts a finished scan; err == nil counts as success.
func (m *Metrics) ScanFinished(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.scans.WithLabelValues(result).Inc()
}
