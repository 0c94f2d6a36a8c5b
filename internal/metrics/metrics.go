// Package metrics holds the Prometheus collectors for the advice pipeline.
// They are always collected; only the web server exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Advice pipeline metrics
	AdviceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setupqa_advice_requests_total",
			Help: "Total number of setup advice requests",
		},
		[]string{"status"},
	)

	AdviceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "setupqa_advice_duration_seconds",
			Help:    "End-to-end advice latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2min
		},
	)

	RetrievedDocuments = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "setupqa_retrieved_documents",
			Help:    "Number of documents retrieved per request",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)

	TelemetryResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setupqa_telemetry_results_total",
			Help: "Telemetry summaries by outcome (none, summary, failed)",
		},
		[]string{"status"},
	)

	// Web metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setupqa_http_requests_total",
			Help: "Total number of HTTP requests served by the web form",
		},
		[]string{"method", "route", "code"},
	)

	// Index metrics
	IndexDocumentsBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "setupqa_index_documents_built_total",
			Help: "Total number of documents written by index rebuilds",
		},
	)
)

// Request status labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
