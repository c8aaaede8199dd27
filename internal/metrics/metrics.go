package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skywatch_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	qualifyRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_qualify_runs_total",
			Help: "Qualification runs by stop reason.",
		},
		[]string{"stop"},
	)

	qualifyRunSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skywatch_qualify_run_duration_seconds",
			Help:    "Wall time of a qualification run.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	qualifyIterationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skywatch_qualify_iterations_total",
			Help: "Catalog batches drawn by qualification runs.",
		},
	)

	qualifyObjectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_qualify_objects_total",
			Help: "Objects evaluated by qualification runs, by outcome.",
		},
		[]string{"outcome"},
	)

	catalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skywatch_catalog_size",
			Help: "Eligible catalog entries seen at the start of the last qualification run.",
		},
	)

	catalogImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_catalog_imports_total",
			Help: "Catalog imports by source and result.",
		},
		[]string{"source", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		qualifyRunsTotal,
		qualifyRunSeconds,
		qualifyIterationsTotal,
		qualifyObjectsTotal,
		catalogSize,
		catalogImportsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// QualifyRun records a finished run.
func QualifyRun(stop string, d time.Duration) {
	qualifyRunsTotal.WithLabelValues(stop).Inc()
	qualifyRunSeconds.Observe(d.Seconds())
}

// QualifyIteration counts one drawn batch.
func QualifyIteration() {
	qualifyIterationsTotal.Inc()
}

// QualifyObjects counts n objects that ended with outcome.
func QualifyObjects(outcome string, n int) {
	if n > 0 {
		qualifyObjectsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// CatalogSize sets the catalog size gauge.
func CatalogSize(n int) {
	catalogSize.Set(float64(n))
}

// CatalogImport counts an import attempt.
func CatalogImport(source string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	catalogImportsTotal.WithLabelValues(source, result).Inc()
}

var knownRoutes = map[string]struct{}{
	"/":                 {},
	"/healthz":          {},
	"/readyz":           {},
	"/metrics":          {},
	"/api/v1/calculate": {},
	"/api/v1/qualify":   {},
	"/api/v1/search":    {},
}

// normalizeRoute maps a request path to a bounded label set.
func normalizeRoute(path string) string {
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := normalizeRoute(r.URL.Path)
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
