package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/star/skywatch/internal/api"
	"github.com/star/skywatch/internal/calculate"
	"github.com/star/skywatch/internal/catalog"
	"github.com/star/skywatch/internal/ephemeris"
	"github.com/star/skywatch/internal/metrics"
	"github.com/star/skywatch/internal/observability"
	"github.com/star/skywatch/internal/report"
	"github.com/star/skywatch/internal/request"
	"github.com/star/skywatch/internal/scheduler"
	"github.com/star/skywatch/internal/tle"
)

func emit(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "skywatch: write output: %v\n", err)
		return 1
	}
	return 0
}

// fail reports a request that could not be computed: a failure document on
// stdout, a diagnostic on stderr and a non-zero status.
func fail(stdout, stderr io.Writer, err error, mode string) int {
	fmt.Fprintf(stderr, "skywatch: %v\n", err)
	emit(stdout, stderr, report.NewFailure(err, api.FailureMessage(mode)))
	return 1
}

func modeName(p request.Params) string {
	if p.Mode == nil {
		return ""
	}
	return p.Mode.Name()
}

func runCalculate(logger *slog.Logger, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := request.Decode(stdin)
	if err != nil {
		return fail(stdout, stderr, err, "")
	}

	engine := api.NewEngine(nil, ephemeris.NewSGP4Oracle(), report.Settings{}, loadCalculateConfig(logger), logger)
	res, err := engine.Calculate(ctx, p)
	if err != nil {
		return fail(stdout, stderr, err, modeName(p))
	}
	return emit(stdout, stderr, res)
}

func runQualify(logger *slog.Logger, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := request.Decode(stdin)
	if err != nil {
		return fail(stdout, stderr, err, "")
	}
	settings := loadQualifySettings(logger)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), logger)
	if err != nil {
		logger.Warn("tracing unavailable", "error", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	store, err := catalog.OpenSQLite(ctx, loadCatalogConfig(logger).Path)
	if err != nil {
		return unavailable(logger, stdout, stderr, err, p)
	}
	defer store.Close()

	engine := api.NewEngine(store, ephemeris.NewSGP4Oracle(), settings, calculate.DefaultConfig(), logger)
	res, err := engine.Qualify(ctx, p)
	if err != nil {
		if errors.Is(err, catalog.ErrUnavailable) {
			return unavailable(logger, stdout, stderr, err, p)
		}
		return fail(stdout, stderr, err, modeName(p))
	}
	return emit(stdout, stderr, res)
}

// unavailable reports an unreachable catalog as a normal failure document.
func unavailable(logger *slog.Logger, stdout, stderr io.Writer, err error, p request.Params) int {
	logger.Error("catalog unavailable", "error", err)
	return emit(stdout, stderr, report.NewFailure(err, api.FailureMessage(modeName(p))))
}

func runImport(logger *slog.Logger, args []string, stderr io.Writer) int {
	fset := flag.NewFlagSet("import", flag.ContinueOnError)
	fset.SetOutput(stderr)
	file := fset.String("file", "", "read 3-line element sets from this file instead of fetching")
	url := fset.String("url", "", "fetch from this URL instead of SKYWATCH_TLE_SOURCE_URL")
	if err := fset.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := catalog.OpenSQLite(ctx, loadCatalogConfig(logger).Path)
	if err != nil {
		logger.Error("open catalog", "error", err)
		return 1
	}
	defer store.Close()

	importer := newImporter(logger, store, loadTLEConfig(logger), *url)

	var res catalog.ImportResult
	if *file != "" {
		res, err = importer.ImportFile(ctx, *file)
	} else {
		res, err = importer.Import(ctx)
	}
	if err != nil {
		logger.Error("import failed", "error", err)
		return 1
	}

	n, err := store.Count(ctx)
	if err != nil {
		logger.Error("count catalog", "error", err)
		return 1
	}
	logger.Info("catalog ready", "source", res.Source, "written", res.Written, "catalog_size", n, "path", store.Path())
	return 0
}

func newImporter(logger *slog.Logger, store catalog.Writer, cfg tleConfig, sourceURL string) *catalog.Importer {
	if sourceURL == "" {
		sourceURL = cfg.SourceURL
	}
	return catalog.NewImporter(
		store,
		tle.NewFetcher(sourceURL, logger, cfg.ExtraURLs...),
		tle.NewCache(cfg.CacheDir, cfg.MaxFiles),
		logger,
	)
}

func runServe(logger *slog.Logger) int {
	addr := os.Getenv("SKYWATCH_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	apiCfg, err := loadAPIConfig(logger)
	if err != nil {
		logger.Error("invalid api configuration", "error", err)
		return 1
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), logger)
	if err != nil {
		logger.Warn("tracing unavailable", "error", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	store, err := catalog.OpenSQLite(ctx, loadCatalogConfig(logger).Path)
	if err != nil {
		logger.Error("open catalog", "error", err)
		return 1
	}
	defer store.Close()

	tleCfg := loadTLEConfig(logger)
	importer := newImporter(logger, store, tleCfg, "")
	sched := scheduler.New(logger, 10*time.Minute)
	if tleCfg.Refresh != "" {
		if err := sched.AddJob(tleCfg.Refresh, importer); err != nil {
			logger.Error("invalid SKYWATCH_CATALOG_REFRESH schedule", "value", tleCfg.Refresh, "error", err)
			return 1
		}
	}
	sched.Start(ctx)
	defer sched.Stop()

	n, err := store.Count(ctx)
	if err != nil {
		logger.Warn("catalog count failed", "error", err)
	} else {
		metrics.CatalogSize(n)
	}
	if err == nil && n == 0 {
		logger.Info("catalog is empty, importing now")
		go func() {
			if err := sched.RunNow(ctx, importer); err != nil {
				logger.Error("initial catalog import failed", "error", err)
			}
		}()
	}

	engine := api.NewEngine(store, ephemeris.NewSGP4Oracle(), loadQualifySettings(logger), loadCalculateConfig(logger), logger)
	srv := api.NewServer(addr, logger, apiCfg, engine, store)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", apiCfg.Auth.Enabled, "catalog", store.Path())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server listen error", "error", err)
		return 1
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return 1
	}

	logger.Info("server stopped")
	return 0
}
