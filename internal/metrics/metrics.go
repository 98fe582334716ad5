package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for vatwatch
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Ingestion Metrics
	CycleDuration         prometheus.Histogram
	CyclesTotal           prometheus.CounterVec
	FilterRejectionsTotal prometheus.Counter
	RecordsFlushed        prometheus.CounterVec
	RecordsDropped        prometheus.CounterVec
	FeedFetchDuration     prometheus.HistogramVec

	// Detection Metrics
	LandingsDetectedTotal  prometheus.Counter
	FlightsCompletedTotal  prometheus.CounterVec
	MatchesEmittedTotal    prometheus.Counter
	MatcherDuration        prometheus.Histogram
	DetectorErrorsTotal    prometheus.CounterVec
	SummariesWrittenTotal  prometheus.CounterVec

	// Buffer Metrics
	BufferSize prometheus.GaugeVec
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vatwatch_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vatwatch_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		CycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vatwatch_cycle_duration_seconds",
				Help:    "Full ingestion cycle execution time in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		CyclesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_cycles_total",
				Help: "Ingestion cycles by outcome",
			},
			[]string{"outcome"},
		),
		FilterRejectionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vatwatch_filter_rejections_total",
				Help: "Pilot observations dropped by the boundary filter",
			},
		),
		RecordsFlushed: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_records_flushed_total",
				Help: "Records written per flush by table",
			},
			[]string{"table"},
		),
		RecordsDropped: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_records_dropped_total",
				Help: "Records dropped before batch submission by reason",
			},
			[]string{"reason"},
		),
		FeedFetchDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vatwatch_feed_fetch_duration_seconds",
				Help:    "Upstream feed fetch time in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"document"},
		),

		LandingsDetectedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vatwatch_landings_detected_total",
				Help: "Landing events emitted by the landing detector",
			},
		),
		FlightsCompletedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_flights_completed_total",
				Help: "Flights transitioned to completed by method",
			},
			[]string{"method"},
		),
		MatchesEmittedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vatwatch_matches_emitted_total",
				Help: "Frequency matches written by the matcher",
			},
		),
		MatcherDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vatwatch_matcher_duration_seconds",
				Help:    "ATC-flight matcher run time in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		DetectorErrorsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_detector_errors_total",
				Help: "Detector failures by detector name",
			},
			[]string{"detector"},
		),
		SummariesWrittenTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_summaries_written_total",
				Help: "Summary records written by kind",
			},
			[]string{"kind"},
		),

		BufferSize: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vatwatch_buffer_size",
				Help: "Entries currently held in the in-memory buffers",
			},
			[]string{"buffer"},
		),
	}
}
