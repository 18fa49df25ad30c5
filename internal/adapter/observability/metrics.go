// Package observability provides logging, metrics, and tracing.
//
// It exposes Prometheus instrumentation for the HTTP surface, the AI client,
// and the interview session lifecycle.
package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "operation"},
	)

	SessionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_sessions_started_total",
			Help: "Total number of interview sessions started",
		},
	)
	TurnsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_turns_processed_total",
			Help: "Total number of processed turns by stage",
		},
		[]string{"stage"},
	)
	QuestionFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_question_fallbacks_total",
			Help: "Total number of canned fallback questions substituted for failed generations",
		},
		[]string{"stage"},
	)
	StageTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_stage_transitions_total",
			Help: "Total number of stage transitions",
		},
		[]string{"from", "to"},
	)
	RateLimitedTurnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_rate_limited_turns_total",
			Help: "Total number of turns rejected by the session rate limiter",
		},
	)
)

// InitMetrics registers all collectors with the default registry. Call once
// per process.
func InitMetrics() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AIRequestsTotal,
		AIRequestDuration,
		SessionsStartedTotal,
		TurnsProcessedTotal,
		QuestionFallbacksTotal,
		StageTransitionsTotal,
		RateLimitedTurnsTotal,
	)
}

// HTTPMetricsMiddleware records request counters and latency per route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := http.StatusText(ww.Status())
		HTTPRequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
