package main

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/star/skywatch/internal/api"
	"github.com/star/skywatch/internal/auth"
	"github.com/star/skywatch/internal/calculate"
	"github.com/star/skywatch/internal/qualify"
	"github.com/star/skywatch/internal/report"
	"github.com/star/skywatch/internal/visibility"
)

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envInt reads a positive integer, warning and keeping def on bad input.
func envInt(logger *slog.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", def)
		return def
	}
	return n
}

// envFloat reads a float within [min, max], warning and keeping def on bad input.
func envFloat(logger *slog.Logger, key string, def, lo, hi float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < lo || f > hi {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", def)
		return def
	}
	return f
}

func envBool(logger *slog.Logger, key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", def)
		return def
	}
	return b
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("SKYWATCH_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("SKYWATCH_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Tokens = auth.ParseTokens(os.Getenv("SKYWATCH_AUTH_TOKEN"))
		if len(cfg.Tokens) == 0 {
			return cfg, errors.New("SKYWATCH_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled", "tokens", len(cfg.Tokens))
	}

	return cfg, nil
}

func loadAPIConfig(logger *slog.Logger) (api.Config, error) {
	cfg := api.DefaultConfig()

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		return cfg, err
	}
	cfg.Auth = authCfg
	cfg.TrustProxy = envBool(logger, "SKYWATCH_TRUST_PROXY", false)
	cfg.MaxQualifyPerIP = envInt(logger, "SKYWATCH_QUALIFY_MAX_CONCURRENT_PER_IP", cfg.MaxQualifyPerIP)
	if n := envInt(logger, "SKYWATCH_REQUEST_TIMEOUT", 0); n > 0 {
		cfg.RequestTimeout = time.Duration(n) * time.Second
	}

	logger.Info("api config",
		"trust_proxy", cfg.TrustProxy,
		"max_qualify_per_ip", cfg.MaxQualifyPerIP,
		"request_timeout_seconds", cfg.RequestTimeout.Seconds(),
	)
	return cfg, nil
}

func loadCriteria(logger *slog.Logger) visibility.Criteria {
	c := visibility.DefaultCriteria()
	c.MinElevation = envFloat(logger, "SKYWATCH_MIN_ELEVATION", c.MinElevation, -90, 90)
	c.DarknessThreshold = envFloat(logger, "SKYWATCH_DARKNESS_THRESHOLD", c.DarknessThreshold, -90, 0)
	return c
}

func loadResolution(logger *slog.Logger, def time.Duration) time.Duration {
	n := envInt(logger, "SKYWATCH_RESOLUTION_MINUTES", int(def/time.Minute))
	return time.Duration(n) * time.Minute
}

// loadQualifySettings reads the qualification engine settings. Sampling
// defaults to five minutes.
func loadQualifySettings(logger *slog.Logger) report.Settings {
	q := qualify.DefaultConfig()
	q.BatchSize = envInt(logger, "SKYWATCH_QUALIFY_BATCH_SIZE", q.BatchSize)
	q.TargetCount = envInt(logger, "SKYWATCH_QUALIFY_TARGET", q.TargetCount)
	q.MaxIterations = envInt(logger, "SKYWATCH_QUALIFY_MAX_ITERATIONS", q.MaxIterations)
	q.ChunkSize = envInt(logger, "SKYWATCH_QUALIFY_CHUNK_SIZE", q.ChunkSize)
	q.Workers = envInt(logger, "SKYWATCH_QUALIFY_WORKERS", q.Workers)

	s := report.Settings{
		Criteria:   loadCriteria(logger),
		Resolution: loadResolution(logger, 5*time.Minute),
		Qualify:    q,
	}

	logger.Info("qualify config",
		"batch_size", q.BatchSize,
		"target_count", q.TargetCount,
		"max_iterations", q.MaxIterations,
		"chunk_size", q.ChunkSize,
		"workers", q.Workers,
		"resolution_minutes", s.Resolution.Minutes(),
		"min_elevation", s.Criteria.MinElevation,
		"darkness_threshold", s.Criteria.DarknessThreshold,
	)
	return s
}

// loadCalculateConfig reads calculate mode settings. Sampling defaults to
// one minute.
func loadCalculateConfig(logger *slog.Logger) calculate.Config {
	cfg := calculate.DefaultConfig()
	cfg.Criteria = loadCriteria(logger)
	cfg.Resolution = loadResolution(logger, cfg.Resolution)
	return cfg
}

type catalogConfig struct {
	Path string
}

func loadCatalogConfig(logger *slog.Logger) catalogConfig {
	cfg := catalogConfig{Path: "/tmp/skywatch/catalog.db"}
	if v := os.Getenv("SKYWATCH_CATALOG_PATH"); v != "" {
		cfg.Path = v
	}
	logger.Debug("catalog config", "path", cfg.Path)
	return cfg
}

type tleConfig struct {
	SourceURL string
	ExtraURLs []string
	CacheDir  string
	MaxFiles  int
	// Refresh is a cron schedule for catalog refresh; empty disables it.
	Refresh string
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		CacheDir: "/tmp/skywatch/tle",
		MaxFiles: 5,
		Refresh:  "@every 6h",
	}

	if v := os.Getenv("SKYWATCH_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("SKYWATCH_TLE_EXTRA_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				urls = append(urls, u)
			}
		}
		cfg.ExtraURLs = urls
	}

	if v := os.Getenv("SKYWATCH_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	cfg.MaxFiles = envInt(logger, "SKYWATCH_TLE_CACHE_MAX_FILES", cfg.MaxFiles)

	if v, ok := os.LookupEnv("SKYWATCH_CATALOG_REFRESH"); ok {
		cfg.Refresh = strings.TrimSpace(v)
	}

	logger.Info("TLE config",
		"source_url", cfg.SourceURL,
		"extra_urls", cfg.ExtraURLs,
		"cache_dir", cfg.CacheDir,
		"refresh", cfg.Refresh,
	)
	return cfg
}
