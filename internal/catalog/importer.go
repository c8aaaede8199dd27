package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/star/skywatch/internal/metrics"
	"github.com/star/skywatch/internal/tle"
)

// Writer accepts parsed entries.
type Writer interface {
	Upsert(ctx context.Context, entries []tle.TLEEntry) (int, error)
}

// ImportResult describes one import.
type ImportResult struct {
	Source   string // "fetch", "cache" or "file"
	Parsed   int
	Rejected int
	Written  int
	Snapshot time.Time
}

// Importer loads 3-line element-set text into the catalog. Fetched text is
// cached on disk; when the source cannot be reached the newest cached
// snapshot is imported instead.
type Importer struct {
	store   Writer
	fetcher *tle.Fetcher
	cache   *tle.Cache
	logger  *slog.Logger
}

// NewImporter creates an Importer. cache may be nil.
func NewImporter(store Writer, fetcher *tle.Fetcher, cache *tle.Cache, logger *slog.Logger) *Importer {
	return &Importer{
		store:   store,
		fetcher: fetcher,
		cache:   cache,
		logger:  logger.With("component", "catalog_import"),
	}
}

// Name identifies the importer as a scheduled job.
func (im *Importer) Name() string {
	return "catalog_refresh"
}

// Run fetches and imports, for use as a scheduled job.
func (im *Importer) Run(ctx context.Context) error {
	_, err := im.Import(ctx)
	return err
}

// Import fetches from the configured source, falling back to the cache.
func (im *Importer) Import(ctx context.Context) (ImportResult, error) {
	now := time.Now().UTC()
	data, err := im.fetcher.Fetch(ctx)
	if err == nil {
		if im.cache != nil {
			if werr := im.cache.Write(data, now); werr != nil {
				im.logger.Warn("caching TLE snapshot failed", "error", werr)
			}
		}
		res, err := im.load(ctx, data, "fetch", now)
		metrics.CatalogImport("fetch", err)
		return res, err
	}

	metrics.CatalogImport("fetch", err)
	im.logger.Warn("TLE fetch failed", "url", im.fetcher.SourceURL(), "error", err)
	if im.cache == nil {
		return ImportResult{}, fmt.Errorf("fetch TLE data: %w", err)
	}

	cached, ts, cerr := im.cache.LoadLatest()
	if cerr != nil {
		return ImportResult{}, errors.Join(fmt.Errorf("fetch TLE data: %w", err), cerr)
	}
	im.logger.Info("importing cached TLE snapshot", "snapshot", ts.Format(time.RFC3339))
	res, err := im.load(ctx, cached, "cache", ts)
	metrics.CatalogImport("cache", err)
	return res, err
}

// ImportFile imports a local 3-line element-set file.
func (im *Importer) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	res, err := im.load(ctx, data, "file", time.Now().UTC())
	metrics.CatalogImport("file", err)
	return res, err
}

func (im *Importer) load(ctx context.Context, data []byte, source string, ts time.Time) (ImportResult, error) {
	entries, err := tle.Parse(bytes.NewReader(data), im.logger)
	if err != nil {
		return ImportResult{}, err
	}
	valid, rejected := tle.FilterValid(entries)

	n, err := im.store.Upsert(ctx, valid)
	res := ImportResult{
		Source:   source,
		Parsed:   len(entries),
		Rejected: len(rejected),
		Written:  n,
		Snapshot: ts,
	}
	if err != nil {
		return res, fmt.Errorf("store entries: %w", err)
	}

	im.logger.Info("catalog import complete",
		"source", source,
		"parsed", res.Parsed,
		"rejected", res.Rejected,
		"written", res.Written,
	)
	return res, nil
}
