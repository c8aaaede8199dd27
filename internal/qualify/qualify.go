// Package qualify searches a catalog for objects visible to an observer. It
// draws random batches, evaluates each batch concurrently against a shared
// timeline, and keeps a ranked shortlist until it has enough results or runs
// out of catalog or iterations.
package qualify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/star/skywatch/internal/catalog"
	"github.com/star/skywatch/internal/ephemeris"
	"github.com/star/skywatch/internal/metrics"
	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/timeline"
	"github.com/star/skywatch/internal/tle"
	"github.com/star/skywatch/internal/transform"
	"github.com/star/skywatch/internal/visibility"
)

const tracerName = "github.com/star/skywatch/internal/qualify"

// Config bounds a qualification run.
type Config struct {
	BatchSize     int
	TargetCount   int
	MaxIterations int
	ChunkSize     int
	Workers       int
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		TargetCount:   5,
		MaxIterations: 10,
		ChunkSize:     25,
		Workers:       4,
	}
}

// normalized replaces non-positive fields with defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.TargetCount <= 0 {
		c.TargetCount = d.TargetCount
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	return c
}

// StopReason says why the loop ended.
type StopReason string

const (
	StopTargetReached    StopReason = "target_reached"
	StopMaxIterations    StopReason = "max_iterations"
	StopCatalogExhausted StopReason = "catalog_exhausted"
	StopEmptyBatch       StopReason = "empty_batch"
	StopDrawFailed       StopReason = "draw_failed"
	StopNoWindow         StopReason = "no_window"
)

// Request is one qualification query. The timeline is built once by the
// caller and only read here.
type Request struct {
	Observer transform.ObserverPosition
	Timeline *timeline.Timeline
	Criteria visibility.Criteria
}

// Stats describes how a run went.
type Stats struct {
	RunID       string
	CatalogSize int
	Iterations  int
	Excluded    int
	Found       int
	Skipped     map[visibility.SkipReason]int
	Stop        StopReason
	Duration    time.Duration
}

// Report is the outcome of a run: the ranked, truncated shortlist.
type Report struct {
	Results []*passes.Result
	Stats   Stats
}

// Qualifier runs qualification against a catalog and oracle.
type Qualifier struct {
	store  catalog.Store
	oracle ephemeris.Oracle
	cfg    Config
	pool   *Pool
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a Qualifier.
func New(store catalog.Store, oracle ephemeris.Oracle, cfg Config, logger *slog.Logger) *Qualifier {
	cfg = cfg.normalized()
	logger = logger.With("component", "qualify")
	return &Qualifier{
		store:  store,
		oracle: oracle,
		cfg:    cfg,
		pool:   NewPool(cfg.Workers, logger),
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// Config returns the effective limits.
func (q *Qualifier) Config() Config {
	return q.cfg
}

// state is owned by Run's goroutine; workers only return values that Run folds in.
type state struct {
	excluded map[string]struct{}
	results  []*passes.Result
	skipped  map[visibility.SkipReason]int
	iter     int
}

// Run executes the loop. A catalog that cannot be counted is returned as an
// error wrapping catalog.ErrUnavailable; every other condition ends the loop
// with whatever was found so far.
func (q *Qualifier) Run(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := q.logger.With("run_id", runID)

	ctx, span := q.tracer.Start(ctx, "qualify.Run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("batch_size", q.cfg.BatchSize),
		attribute.Int("target_count", q.cfg.TargetCount),
	))
	defer span.End()

	total, err := q.store.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count catalog")
		metrics.QualifyRun("unavailable", time.Since(start))
		return nil, fmt.Errorf("count catalog: %w", err)
	}
	metrics.CatalogSize(total)

	st := &state{
		excluded: make(map[string]struct{}),
		skipped:  make(map[visibility.SkipReason]int),
	}

	var stop StopReason
	if req.Timeline == nil || !req.Timeline.HasWindow() {
		stop = StopNoWindow
	} else {
		cl := visibility.NewClassifier(q.oracle, req.Observer, req.Timeline, req.Criteria)
		stop, err = q.loop(ctx, logger, cl, total, st)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "qualification aborted")
			metrics.QualifyRun("cancelled", time.Since(start))
			return nil, err
		}
	}

	found := len(st.results)
	Rank(st.results)
	if len(st.results) > q.cfg.TargetCount {
		st.results = st.results[:q.cfg.TargetCount]
	}

	stats := Stats{
		RunID:       runID,
		CatalogSize: total,
		Iterations:  st.iter,
		Excluded:    len(st.excluded),
		Found:       found,
		Skipped:     st.skipped,
		Stop:        stop,
		Duration:    time.Since(start),
	}
	metrics.QualifyRun(string(stop), stats.Duration)
	span.SetAttributes(
		attribute.String("stop", string(stop)),
		attribute.Int("iterations", stats.Iterations),
		attribute.Int("found", found),
	)
	logger.Info("qualification finished",
		"stop", stop,
		"catalog_size", total,
		"iterations", stats.Iterations,
		"excluded", stats.Excluded,
		"found", found,
		"returned", len(st.results),
		"duration", stats.Duration,
	)

	return &Report{Results: st.results, Stats: stats}, nil
}

func (q *Qualifier) loop(ctx context.Context, logger *slog.Logger, cl *visibility.Classifier, total int, st *state) (StopReason, error) {
	for {
		switch {
		case len(st.results) >= q.cfg.TargetCount:
			return StopTargetReached, nil
		case st.iter >= q.cfg.MaxIterations:
			return StopMaxIterations, nil
		case len(st.excluded) >= total:
			return StopCatalogExhausted, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		st.iter++
		metrics.QualifyIteration()

		batch, err := q.store.RandomSample(ctx, st.excluded, q.cfg.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logger.Warn("catalog draw failed", "iteration", st.iter, "error", err)
			return StopDrawFailed, nil
		}
		if len(batch) == 0 {
			return StopEmptyBatch, nil
		}

		found, err := q.iteration(ctx, logger, cl, batch, st)
		if err != nil {
			return "", err
		}
		logger.Debug("iteration complete",
			"iteration", st.iter,
			"drawn", len(batch),
			"visible", found,
			"accumulated", len(st.results),
			"excluded", len(st.excluded),
		)
	}
}

// iteration evaluates one batch and folds its results into st.
func (q *Qualifier) iteration(ctx context.Context, logger *slog.Logger, cl *visibility.Classifier, batch []tle.TLEEntry, st *state) (int, error) {
	ctx, span := q.tracer.Start(ctx, "qualify.iteration", trace.WithAttributes(
		attribute.Int("iteration", st.iter),
		attribute.Int("drawn", len(batch)),
	))
	defer span.End()

	// Every drawn id is excluded before validation so it is never drawn again.
	for _, obj := range batch {
		st.excluded[obj.ID] = struct{}{}
	}

	cands := make([]visibility.Candidate, 0, len(batch))
	for _, obj := range batch {
		cand, out, ok := visibility.Prepare(q.oracle, obj)
		if !ok {
			q.skip(logger, st, out)
			continue
		}
		cands = append(cands, cand)
	}

	chunks := Chunk(cands, q.cfg.ChunkSize)
	span.SetAttributes(attribute.Int("candidates", len(cands)), attribute.Int("chunks", len(chunks)))

	found := 0
	for _, outs := range q.pool.Run(ctx, cl, chunks) {
		for _, out := range outs {
			if out.OK() {
				st.results = append(st.results, out.Result)
				found++
				continue
			}
			q.skip(logger, st, out)
		}
	}
	metrics.QualifyObjects("visible", found)

	return found, ctx.Err()
}

func (q *Qualifier) skip(logger *slog.Logger, st *state, out visibility.Outcome) {
	st.skipped[out.Skip]++
	metrics.QualifyObjects(string(out.Skip), 1)

	switch out.Skip {
	case visibility.SkipNotVisible, visibility.SkipUnevaluated:
		return
	}
	logger.Warn("object skipped",
		"id", out.Object.ID,
		"name", out.Object.Name,
		"reason", out.Skip,
		"error", out.Err,
	)
}

// Rank orders results by pass count, then best elevation, both descending.
// Equal keys keep their relative order.
func Rank(results []*passes.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.PassCount() != b.PassCount() {
			return a.PassCount() > b.PassCount()
		}
		return a.BestElevation() > b.BestElevation()
	})
}
