package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	// Registry holds the storefront's collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redreport",
			Name:      "requests_total",
			Help:      "Outbound calls to the RedReport backend.",
		},
		[]string{"method", "status"},
	)

	memoLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redreport",
			Name:      "memo_lookups_total",
			Help:      "Memoized fetch lookups by result (hit, miss).",
		},
		[]string{"result"},
	)

	gateRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "unauthenticated_total",
			Help:      "Data access calls short-circuited for lack of a session.",
		},
		[]string{"action"},
	)

	tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_refresh_total",
			Help:      "Access token refresh attempts by result.",
		},
		[]string{"provider", "result"},
	)

	signIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "signin_total",
			Help:      "Sign-in attempts by provider and result.",
		},
		[]string{"provider", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		backendRequests,
		memoLookups,
		gateRejections,
		tokenRefreshes,
		signIns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveBackendRequest(method string, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	backendRequests.WithLabelValues(method, label).Inc()
}

func ObserveMemo(hit bool) {
	if hit {
		memoLookups.WithLabelValues("hit").Inc()
		return
	}
	memoLookups.WithLabelValues("miss").Inc()
}

func ObserveGateRejection(action string) {
	gateRejections.WithLabelValues(action).Inc()
}

func ObserveTokenRefresh(provider string, err error) {
	tokenRefreshes.WithLabelValues(provider, result(err)).Inc()
}

func ObserveSignIn(provider string, err error) {
	signIns.WithLabelValues(provider, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// InstrumentHandler records request counts and latency labelled by the matched route pattern.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := routeLabel(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel keeps label cardinality bounded: ServeMux sets Pattern on the request it routes.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
