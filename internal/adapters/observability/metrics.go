package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peer_review", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "peer_review", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	StoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peer_review", Name: "store_operations_total", Help: "Review store operations."},
		[]string{"backend", "op", "result"}, // result: ok|error
	)
	StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "peer_review", Name: "store_operation_duration_seconds",
			Help:    "Review store operation duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
	SurveyEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peer_review", Name: "survey_events_total", Help: "Submissions, throttle rejections and auth failures."},
		[]string{"event"}, // event: submitted|throttled|auth_ok|auth_failed
	)
	SessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peer_review", Name: "session_token_events_total", Help: "Session tokens issued/reused."},
		[]string{"backend", "event"}, // event: issued|reused
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peer_review", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "status"},
	)
)

// Serve exposes reg on a separate listener when addr is set.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := serveMux(reg)

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func serveMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))
	return mux
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, StoreOps, StoreLatency, SurveyEvents, SessionEvents, ExternalRequests)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveStore(backend, op string, err error, dur time.Duration) {
	StoreOps.WithLabelValues(backend, op, result(err)).Inc()
	StoreLatency.WithLabelValues(backend, op).Observe(dur.Seconds())
}

func ObserveSurvey(event string) { SurveyEvents.WithLabelValues(event).Inc() }

func ObserveSession(backend, event string) { SessionEvents.WithLabelValues(backend, event).Inc() }

func ObserveExternal(service string, status int) {
	ExternalRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
