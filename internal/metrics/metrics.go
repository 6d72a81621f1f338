// Package metrics defines the Prometheus metrics exported by the programs board.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. Its recorders are no-ops on a nil
// receiver, so components may run without telemetry.
type Metrics struct {
	// Data source metrics
	SourceFetchTotal           *prometheus.CounterVec
	SourceFetchDurationSeconds *prometheus.HistogramVec

	// Working set metrics
	WorkingSetSize prometheus.Gauge
	BoardState     prometheus.Gauge

	// Render metrics
	RendersTotal   *prometheus.CounterVec
	CardsPerRender prometheus.Histogram

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDroppedTotal prometheus.Counter
	RateLimiterClients      prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		SourceFetchTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "programs_source_fetch_total",
				Help: "Total number of data source retrievals by source kind and status",
			},
			[]string{"source", "status"}, // status: success, empty, error
		),

		SourceFetchDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "programs_source_fetch_duration_seconds",
				Help:    "Data source retrieval duration in seconds by source kind",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}, // Matches 30s fetch timeout
			},
			[]string{"source"}, // source: file, http, r2
		),

		WorkingSetSize: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "programs_working_set_size",
				Help: "Number of programs held in memory after load",
			},
		),

		BoardState: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "programs_board_state",
				Help: "Board lifecycle state (0=idle, 1=loading, 2=loaded, 3=failed)",
			},
		),

		RendersTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "programs_renders_total",
				Help: "Total number of grid renders by trigger",
			},
			[]string{"trigger"}, // trigger: initial, change, reset, request
		),

		CardsPerRender: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "programs_cards_per_render",
				Help:    "Number of cards produced by a render after filtering",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "programs_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: not_ready, not_found, server_error, rate_limited
		),

		RateLimiterDroppedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "programs_rate_limiter_dropped_total",
				Help: "Total requests rejected by the per-client rate limiter",
			},
		),

		RateLimiterClients: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "programs_rate_limiter_clients",
				Help: "Number of clients currently tracked by the rate limiter",
			},
		),
	}
}

// RecordFetch records one data source retrieval.
func (m *Metrics) RecordFetch(source, status string, duration float64) {
	if m == nil {
		return
	}
	m.SourceFetchTotal.WithLabelValues(source, status).Inc()
	m.SourceFetchDurationSeconds.WithLabelValues(source).Observe(duration)
}

// SetWorkingSetSize records how many programs were loaded.
func (m *Metrics) SetWorkingSetSize(n int) {
	if m == nil {
		return
	}
	m.WorkingSetSize.Set(float64(n))
}

// SetBoardState records the numeric board state.
func (m *Metrics) SetBoardState(state int) {
	if m == nil {
		return
	}
	m.BoardState.Set(float64(state))
}

// RecordRender records a render pass and how many cards it produced.
func (m *Metrics) RecordRender(trigger string, cards int) {
	if m == nil {
		return
	}
	m.RendersTotal.WithLabelValues(trigger).Inc()
	m.CardsPerRender.Observe(float64(cards))
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimitDrop records a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimitDrop() {
	if m == nil {
		return
	}
	m.RateLimiterDroppedTotal.Inc()
}

// SetRateLimiterClients records how many clients the rate limiter tracks.
func (m *Metrics) SetRateLimiterClients(n int) {
	if m == nil {
		return
	}
	m.RateLimiterClients.Set(float64(n))
}

// RegisterLogDrops exports the count of log records the remote sink missed.
func RegisterLogDrops(registry *prometheus.Registry, dropped func() uint64) {
	promauto.With(registry).NewCounterFunc(
		prometheus.CounterOpts{
			Name: "programs_log_records_dropped_total",
			Help: "Total number of log records dropped before reaching the remote sink",
		},
		func() float64 { return float64(dropped()) },
	)
}
