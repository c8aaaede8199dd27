// Package api serves the visibility engine over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/skywatch/internal/auth"
	"github.com/star/skywatch/internal/catalog"
	"github.com/star/skywatch/internal/health"
	"github.com/star/skywatch/internal/httputil"
	"github.com/star/skywatch/internal/metrics"
)

// Config holds HTTP surface settings.
type Config struct {
	Auth                 auth.Config
	TrustProxy           bool
	MaxQualifyPerIP      int
	MaxQualifyConcurrent int
	// RequestTimeout bounds calculate and qualify work.
	RequestTimeout time.Duration
}

// DefaultConfig allows two concurrent qualify runs per client.
func DefaultConfig() Config {
	return Config{
		MaxQualifyPerIP:      2,
		MaxQualifyConcurrent: 32,
		RequestTimeout:       2 * time.Minute,
	}
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server. cat may be nil, in which case
// search is unavailable and readiness does not depend on a catalog.
func NewServer(addr string, logger *slog.Logger, cfg Config, engine *Engine, cat catalog.Catalog) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(logger, cfg, engine, cat),
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler builds the routed middleware chain.
func NewHandler(logger *slog.Logger, cfg Config, engine *Engine, cat catalog.Catalog) http.Handler {
	h := &handlers{
		engine:  engine,
		catalog: cat,
		timeout: cfg.RequestTimeout,
		logger:  logger.With("component", "api"),
	}
	limiter := httputil.NewLimiter(cfg.MaxQualifyPerIP, cfg.MaxQualifyConcurrent)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(cat, logger))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /{$}", index)
	mux.HandleFunc("POST /api/v1/calculate", h.calculate)
	mux.Handle("POST /api/v1/qualify", limiter.Limit(cfg.TrustProxy, http.HandlerFunc(h.qualify)))
	mux.HandleFunc("GET /api/v1/search", h.search)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)
	return handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "skywatch",
		"endpoints": []string{
			"POST /api/v1/calculate",
			"POST /api/v1/qualify",
			"GET /api/v1/search?name=|norad_id=",
		},
	})
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
