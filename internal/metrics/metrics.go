// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PassTotal counts render passes by operation and result.
	PassTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varianti_pass_total",
		Help: "Render passes by operation and result",
	}, []string{"operation", "result"})

	// PassDuration tracks render pass latency.
	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "varianti_pass_duration_seconds",
		Help:    "Render pass duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	}, []string{"operation"})

	// CacheLookups counts render cache hits and misses.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varianti_cache_lookups_total",
		Help: "Render cache lookups by result",
	}, []string{"result"})

	// Warnings counts diagnostics by kind.
	Warnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varianti_warnings_total",
		Help: "Edition diagnostics by kind",
	}, []string{"kind"})

	// ReloadTotal counts edition reloads by result.
	ReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varianti_reload_total",
		Help: "Edition reloads by result",
	}, []string{"result"})

	// Generation is the generation of the loaded edition.
	Generation = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "varianti_edition_generation",
		Help: "Generation number of the loaded edition",
	})

	// EnabledWitnesses is the number of selectable witnesses.
	EnabledWitnesses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "varianti_enabled_witnesses",
		Help: "Selectable witnesses in the loaded edition",
	})

	// HTTPRequests counts API requests by route pattern and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varianti_http_requests_total",
		Help: "HTTP requests by route and status class",
	}, []string{"route", "status"})

	// AuthRejections counts requests refused by the API key check.
	AuthRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varianti_auth_rejections_total",
		Help: "Requests refused by the API key check, by reason",
	}, []string{"reason"})

	// DiffSegments tracks the number of segments per comparison.
	DiffSegments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "varianti_diff_segments",
		Help:    "Segments per witness comparison",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})
)

// ObservePass records one finished pass.
func ObservePass(operation string, start time.Time, err error) {
	PassTotal.WithLabelValues(operation, Result(err)).Inc()
	PassDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
