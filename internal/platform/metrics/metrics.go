// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Classifier
	ClassificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_classification_duration_seconds",
			Help:    "Time spent classifying a single text",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_predictions_total",
			Help: "Classifications by resulting label",
		},
		[]string{"label"},
	)

	ClassificationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_classification_errors_total",
			Help: "Failed classifications",
		},
		[]string{"backend"},
	)

	// Cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_cache_hits_total",
			Help: "Review list cache hits",
		},
		[]string{"namespace"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_cache_misses_total",
			Help: "Review list cache misses",
		},
		[]string{"namespace"},
	)

	// Realtime
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_realtime_connections",
			Help: "Open realtime prediction connections",
		},
	)
)

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// ObserveClassification records one classifier call.
func ObserveClassification(backend, label string, elapsed time.Duration, err error) {
	ClassificationDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
	if err != nil {
		ClassificationErrors.WithLabelValues(backend).Inc()
		return
	}
	PredictionsTotal.WithLabelValues(label).Inc()
}
