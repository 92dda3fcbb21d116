package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of HTTP requests being served",
		},
	)

	intakeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_intake_requests_total",
			Help: "Public intake submissions by outcome",
		},
		[]string{"result"},
	)

	leadStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_lead_status_changes_total",
			Help: "Pipeline status changes by target status and outcome",
		},
		[]string{"status", "result"},
	)
)

// Metrics must wrap the ServeMux directly: the mux fills r.Pattern on the
// request it receives, and the pattern is the path label.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeRequests.Inc()
		defer activeRequests.Dec()

		rw := wrap(w)
		next.ServeHTTP(rw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordIntake counts a public intake request; result is "created", "rejected" or "rate_limited".
func RecordIntake(result string) {
	intakeRequests.WithLabelValues(result).Inc()
}

func RecordStatusChange(status string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	leadStatusChanges.WithLabelValues(status, result).Inc()
}
