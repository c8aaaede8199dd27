package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/calculate", "/api/v1/calculate"},
		{"/api/v1/qualify", "/api/v1/qualify"},
		{"/api/v1/search", "/api/v1/search"},

		// Unknown/bot paths collapse to "other".
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/api/v1/search/25544", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 unique unknown paths produce
// exactly 1 distinct path label, not 100.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		label := normalizeRoute("/api/v1/search/" + string(rune('0'+i%10)) + string(rune('0'+i/10)))
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/qualify", "POST", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/qualify", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/qualify", "POST", "418"))

	if after-before != 1 {
		t.Errorf("request counter moved by %v, want 1", after-before)
	}
}

func TestQualifyCounters(t *testing.T) {
	before := testutil.ToFloat64(qualifyObjectsTotal.WithLabelValues("visible"))
	QualifyObjects("visible", 3)
	QualifyObjects("visible", 0)
	if got := testutil.ToFloat64(qualifyObjectsTotal.WithLabelValues("visible")) - before; got != 3 {
		t.Errorf("visible objects moved by %v, want 3", got)
	}

	QualifyRun("target_reached", 2*time.Second)
	if got := testutil.ToFloat64(qualifyRunsTotal.WithLabelValues("target_reached")); got < 1 {
		t.Errorf("run counter = %v, want >= 1", got)
	}

	CatalogSize(1234)
	if got := testutil.ToFloat64(catalogSize); got != 1234 {
		t.Errorf("catalog size = %v, want 1234", got)
	}

	CatalogImport("cache", errors.New("stale"))
	if got := testutil.ToFloat64(catalogImportsTotal.WithLabelValues("cache", "error")); got < 1 {
		t.Errorf("import error counter = %v, want >= 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	QualifyIteration()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "skywatch_qualify_iterations_total") {
		t.Error("metrics output is missing skywatch_qualify_iterations_total")
	}
}
