package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReadingsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battery_readings_recorded_total",
		Help: "Readings accepted by the status endpoint.",
	})

	ReadingsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battery_readings_loaded_total",
		Help: "Readings appended from the battery data file.",
	})

	ReadingLogLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "battery_reading_log_length",
		Help: "Number of readings in the log after the last append.",
	})

	OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "battery_operation_errors_total",
		Help: "Failed service operations by operation and error kind.",
	}, []string{"operation", "kind"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "battery_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "battery_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
