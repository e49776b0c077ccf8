// Package metrics owns the Prometheus registry for the service.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "collabhub",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collabhub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "collabhub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	engagementOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collabhub",
			Subsystem: "engagement",
			Name:      "operations_total",
			Help:      "Engagement and team operations by kind, action and outcome.",
		},
		[]string{"kind", "action", "outcome"},
	)

	feedBuilds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "collabhub",
			Subsystem: "feed",
			Name:      "build_duration_seconds",
			Help:      "Time to assemble and enrich the feed.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"viewer"},
	)

	identityMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "collabhub",
			Subsystem: "identity",
			Name:      "fallbacks_total",
			Help:      "References resolved to the placeholder identity.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		engagementOps,
		feedBuilds,
		identityMisses,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request count, latency and in-flight gauge. The
// route label is the chi route pattern so ids do not explode cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordEngagement counts one engagement operation. outcome is "ok" or an
// error kind.
func RecordEngagement(kind, action, outcome string) {
	engagementOps.WithLabelValues(kind, action, outcome).Inc()
}

// ObserveFeedBuild records how long a feed build took.
func ObserveFeedBuild(withViewer bool, d time.Duration) {
	label := "anonymous"
	if withViewer {
		label = "member"
	}
	feedBuilds.WithLabelValues(label).Observe(d.Seconds())
}

// AddIdentityFallbacks counts references that fell back to the placeholder.
func AddIdentityFallbacks(n int) {
	if n > 0 {
		identityMisses.Add(float64(n))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
