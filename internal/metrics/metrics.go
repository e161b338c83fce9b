// Package metrics exposes Prometheus collectors for the sync service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncRunsTotal              *prometheus.CounterVec
	syncDurationSeconds        prometheus.Histogram
	vehiclesTotal              *prometheus.CounterVec
	vinDecodeFailuresTotal     prometheus.Counter
	photosRehostedTotal        prometheus.Counter
	photoFallbacksTotal        prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		syncRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_sync_runs_total",
				Help: "Total dealer sync runs, labeled by outcome.",
			},
			[]string{"status"},
		)

		syncDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inventory_sync_duration_seconds",
				Help:    "Histogram of full dealer sync run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

		vehiclesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_vehicles_total",
				Help: "Total reconciliation outcomes per vehicle, labeled by action.",
			},
			[]string{"action"},
		)

		vinDecodeFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_vin_decode_failures_total",
				Help: "Total VIN decode calls that failed or returned incomplete data.",
			},
		)

		photosRehostedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_photos_rehosted_total",
				Help: "Total photos uploaded to owned storage.",
			},
		)

		photoFallbacksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_photo_fallbacks_total",
				Help: "Total photos kept at their source URL after a rehost failure.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSyncRun records one finished dealer sync.
func ObserveSyncRun(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failed"
	}
	syncRunsTotal.WithLabelValues(status).Inc()
	syncDurationSeconds.Observe(duration.Seconds())
}

// ObserveVehicle increments the per-vehicle outcome counter. Action is
// one of added, updated, marked_sold, failed, unchanged.
func ObserveVehicle(action string) {
	vehiclesTotal.WithLabelValues(action).Inc()
}

// ObserveVinDecodeFailure increments the decode failure counter.
func ObserveVinDecodeFailure() {
	vinDecodeFailuresTotal.Inc()
}

// ObservePhotoRehosted increments the rehosted photo counter.
func ObservePhotoRehosted() {
	photosRehostedTotal.Inc()
}

// ObservePhotoFallback increments the source-URL fallback counter.
func ObservePhotoFallback() {
	photoFallbacksTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
