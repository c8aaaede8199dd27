package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/star/skywatch/internal/calculate"
	"github.com/star/skywatch/internal/catalog"
	"github.com/star/skywatch/internal/ephemeris"
	"github.com/star/skywatch/internal/qualify"
	"github.com/star/skywatch/internal/report"
	"github.com/star/skywatch/internal/request"
	"github.com/star/skywatch/internal/timeline"
)

// ErrNoCatalog is returned by Qualify when the engine has no catalog.
var ErrNoCatalog = errors.New("no catalog configured")

// Engine answers calculate and qualify requests. It is shared by the HTTP
// server and the command line.
type Engine struct {
	oracle     ephemeris.Oracle
	qualifier  *qualify.Qualifier
	calculator *calculate.Calculator
	settings   report.Settings
	now        func() time.Time
}

// NewEngine wires an engine. store may be nil when only calculate is served.
func NewEngine(store catalog.Store, oracle ephemeris.Oracle, s report.Settings, calc calculate.Config, logger *slog.Logger) *Engine {
	if s.Resolution <= 0 {
		s.Resolution = timeline.DefaultConfig().Resolution
	}
	e := &Engine{
		oracle:     oracle,
		calculator: calculate.New(oracle, calc, logger),
		settings:   s,
		now:        time.Now,
	}
	if store != nil {
		e.qualifier = qualify.New(store, oracle, s.Qualify, logger)
		e.settings.Qualify = e.qualifier.Config()
	}
	return e
}

// Calculate runs calculate mode for the request's own satellites.
func (e *Engine) Calculate(ctx context.Context, p request.Params) (*report.Calculation, error) {
	return e.calculator.Run(ctx, p)
}

// Qualify searches the catalog for the best visible objects.
func (e *Engine) Qualify(ctx context.Context, p request.Params) (*report.Qualification, error) {
	if e.qualifier == nil {
		return nil, ErrNoCatalog
	}
	obs := p.Observer()
	tl, err := timeline.Build(ctx, e.oracle, obs, p.Date, p.Location, p.Mode, timeline.Config{
		Resolution:        e.settings.Resolution,
		DarknessThreshold: e.settings.Criteria.DarknessThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("build timeline: %w", err)
	}

	rep, err := e.qualifier.Run(ctx, qualify.Request{
		Observer: obs,
		Timeline: tl,
		Criteria: e.settings.Criteria,
	})
	if err != nil {
		return nil, err
	}
	q := report.NewQualification(p, tl.Method, e.settings, rep, e.now())
	return &q, nil
}

// FailureMessage is the human-readable message attached to failed requests.
func FailureMessage(mode string) string {
	if mode == "" {
		mode = timeline.Auto{}.Name()
	}
	return fmt.Sprintf("Error occurred during satellite visibility calculation (mode: %s)", mode)
}
