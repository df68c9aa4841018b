// Package metrics defines the Prometheus instrumentation for the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BillsCreated counts created bills by split method.
	BillsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitbill_bills_created_total",
		Help: "Bills created, labeled by split method.",
	}, []string{"split_method"})

	// Settlements counts settlement attempts by outcome.
	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitbill_settlements_total",
		Help: "Settlement attempts, labeled by outcome.",
	}, []string{"outcome"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitbill_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// Handler exposes the default registry for scraping at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps an http.Handler, recording request latency.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		httpDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
