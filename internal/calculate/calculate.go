// Package calculate produces the single-shot report for caller-supplied
// element sets: orbit summaries and tracks, a per-step visibility table,
// pass segmentation, and where each object is right now.
package calculate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/star/skywatch/internal/ephemeris"
	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/report"
	"github.com/star/skywatch/internal/request"
	"github.com/star/skywatch/internal/timeline"
	"github.com/star/skywatch/internal/tle"
	"github.com/star/skywatch/internal/visibility"
)

const (
	meanEarthRadiusKm = 6371.0
	trackTolerance    = 30 * time.Second
)

// Config controls sampling and visibility.
type Config struct {
	Resolution time.Duration
	Criteria   visibility.Criteria
}

// DefaultConfig samples every minute with the default criteria.
func DefaultConfig() Config {
	return Config{Resolution: time.Minute, Criteria: visibility.DefaultCriteria()}
}

// Calculator builds calculation reports.
type Calculator struct {
	oracle ephemeris.Oracle
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Calculator.
func New(oracle ephemeris.Oracle, cfg Config, logger *slog.Logger) *Calculator {
	if cfg.Resolution <= 0 {
		cfg.Resolution = DefaultConfig().Resolution
	}
	return &Calculator{
		oracle: oracle,
		cfg:    cfg,
		logger: logger.With("component", "calculate"),
		now:    time.Now,
	}
}

// evaluated is one satellite that survived validation.
type evaluated struct {
	cand   visibility.Candidate
	points map[int64]passes.Point
	out    visibility.Outcome
}

// Run computes the report. Missing satellites and a failing solar oracle are
// errors; satellites with unusable element sets are skipped.
func (c *Calculator) Run(ctx context.Context, p request.Params) (*report.Calculation, error) {
	if err := p.RequireSatellites(); err != nil {
		return nil, err
	}

	obs := p.Observer()
	tl, err := timeline.Build(ctx, c.oracle, obs, p.Date, p.Location, p.Mode, timeline.Config{
		Resolution:        c.cfg.Resolution,
		DarknessThreshold: c.cfg.Criteria.DarknessThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("build timeline: %w", err)
	}

	cl := visibility.NewClassifier(c.oracle, obs, tl, c.cfg.Criteria)
	var sats []evaluated
	for _, obj := range p.Satellites {
		cand, out, ok := visibility.Prepare(c.oracle, obj)
		if !ok {
			c.logger.Warn("skipping satellite", "name", obj.Name, "reason", out.Skip, "error", out.Err)
			continue
		}
		pts, dropped := cl.Classify(cand.Propagator)
		e := evaluated{cand: cand, points: make(map[int64]passes.Point, len(pts))}
		for _, pt := range pts {
			if pt.Failed {
				continue
			}
			e.points[pt.Time.UnixNano()] = pt
		}
		e.out = visibility.Outcome{Object: obj, Dropped: dropped, Result: passes.NewResult(obj, pts)}
		if e.out.Result == nil {
			e.out.Skip = visibility.SkipNotVisible
		}
		sats = append(sats, e)
	}

	now := c.now()
	start, end := p.CustomTimes()
	rep := &report.Calculation{
		Latitude:    p.Lat,
		Longitude:   p.Lon,
		Timezone:    p.Timezone,
		GeneratedAt: report.FormatUTC(now),
		CalculationInfo: report.CalculationInfo{
			TimeMode:            p.Mode.Name(),
			CalculationMethod:   tl.Method,
			TotalTimeSteps:      len(tl.Samples),
			ObservationStartUTC: "N/A",
			ObservationEndUTC:   "N/A",
		},
		CalculationTime: report.CalculationTime{
			UTC:       report.FormatUTC(now),
			Local:     report.FormatLocal(now, p.Location),
			Timestamp: float64(now.UnixNano()) / 1e9,
		},
		OrbitInfo:        []report.OrbitInfo{},
		Visibility:       []report.ObjectVisibility{},
		MinuteResults:    []report.MinuteResult{},
		CurrentPositions: []report.CurrentPosition{},
	}
	if start != "" {
		rep.CalculationInfo.CustomStartTime, rep.CalculationInfo.CustomEndTime = &start, &end
	}
	if n := len(tl.Samples); n > 0 {
		rep.CalculationInfo.ObservationStartUTC = report.FormatUTC(tl.Samples[0].Time)
		rep.CalculationInfo.ObservationEndUTC = report.FormatUTC(tl.Samples[n-1].Time)
	}

	velocity := make(map[string]float64)
	for _, s := range sats {
		info, err := c.orbitInfo(ctx, s.cand, tl, p, now)
		if err != nil {
			c.logger.Warn("orbit summary unavailable", "name", s.cand.Object.Name, "error", err)
			continue
		}
		velocity[s.cand.Object.ID] = info.AverageVelocityKmS
		rep.OrbitInfo = append(rep.OrbitInfo, info)
	}

	for _, s := range sats {
		rep.Visibility = append(rep.Visibility, objectVisibility(s.out, p))
	}

	for _, sample := range tl.Samples {
		mr := report.MinuteResult{
			LocalTime:  report.FormatLocal(sample.Time, p.Location),
			UTCTime:    report.FormatUTC(sample.Time),
			Satellites: []report.MinuteSatellite{},
		}
		for _, s := range sats {
			pt, ok := s.points[sample.Time.UnixNano()]
			if !ok {
				continue
			}
			mr.Satellites = append(mr.Satellites, report.MinuteSatellite{
				Name:       s.cand.Object.Name,
				Altitude:   report.Round(pt.ElevationDeg, 6),
				Azimuth:    report.Round(pt.AzimuthDeg, 6),
				DistanceKm: report.Round(pt.RangeKm, 3),
				IsSunlit:   pt.Sunlit,
				IsVisible:  pt.Visible,
				SunAlt:     report.Round(pt.SunElevationDeg, 2),
			})
		}
		rep.MinuteResults = append(rep.MinuteResults, mr)
	}

	for _, s := range sats {
		cp, err := c.currentPosition(s.cand, p, now, velocity)
		if err != nil {
			c.logger.Warn("current position unavailable", "name", s.cand.Object.Name, "error", err)
			continue
		}
		rep.CurrentPositions = append(rep.CurrentPositions, cp)
	}

	c.logger.Info("calculation finished",
		"satellites", len(p.Satellites),
		"evaluated", len(sats),
		"method", tl.Method,
		"time_steps", len(tl.Samples),
	)
	return rep, nil
}

func objectVisibility(out visibility.Outcome, p request.Params) report.ObjectVisibility {
	ov := report.ObjectVisibility{
		Name:    out.Object.Name,
		NORADID: out.Object.NORADID,
		Passes:  []report.PassSummary{},
		Skip:    string(out.Skip),
	}
	if r := out.Result; r != nil {
		ov.TotalPasses = r.PassCount()
		for _, ps := range r.Passes {
			ov.Passes = append(ov.Passes, report.NewPassSummary(ps, p.Location))
		}
		bp := report.NewPassSummary(r.BestPass, p.Location)
		pt := report.NewPointSummary(r.BestPoint, p.Location)
		ov.BestPass, ov.BestPoint = &bp, &pt
	}
	return ov
}

// trackStep picks the orbit-track spacing from the period: at least two
// points per orbit, at most one per minute for low orbits or one per five
// minutes for higher ones.
func trackStep(periodSec float64) time.Duration {
	fMin := 2 / periodSec
	fMax := 1.0 / 300
	if periodSec < 6000 {
		fMax = 1.0 / 60
	}
	freq := math.Max(fMin, math.Min(0.1, fMax))
	points := int(freq * periodSec)
	if points < 1 {
		points = 1
	}
	return time.Duration(periodSec / float64(points) * float64(time.Second))
}

func (c *Calculator) orbitInfo(ctx context.Context, cand visibility.Candidate, tl *timeline.Timeline, p request.Params, now time.Time) (report.OrbitInfo, error) {
	obj := cand.Object
	el, err := tle.ParseElements(obj.Line1, obj.Line2)
	if err != nil {
		return report.OrbitInfo{}, err
	}
	if el.MeanMotionRevDay <= 0 {
		return report.OrbitInfo{}, fmt.Errorf("non-positive mean motion %v", el.MeanMotionRevDay)
	}

	periodMin := el.PeriodMinutes()
	periodSec := periodMin * 60
	sub, teme, err := ephemeris.Subpoint(cand.Propagator, now)
	if err != nil {
		return report.OrbitInfo{}, fmt.Errorf("subpoint at %s: %w", report.FormatUTC(now), err)
	}
	radiusKm := meanEarthRadiusKm + sub.AltM/1000
	velocity := 2 * math.Pi * radiusKm / periodSec
	step := trackStep(periodSec)

	info := report.OrbitInfo{
		Name:                 obj.Name,
		OrbitalPeriodMinutes: report.Round(periodMin, 2),
		OMM: report.OMM{
			ObjectName:      obj.Name,
			ObjectID:        obj.NORADID,
			Epoch:           el.Epoch.UTC().Format("2006-01-02T15:04:05Z"),
			MeanMotion:      el.MeanMotionRevDay,
			Eccentricity:    el.Eccentricity,
			Inclination:     report.Round(el.InclinationDeg, 4),
			RAOfAscNode:     report.Round(el.RAANDeg, 4),
			ArgOfPericenter: report.Round(el.ArgPerigeeDeg, 4),
			MeanAnomaly:     report.Round(el.MeanAnomalyDeg, 4),
			BStar:           el.BStar,
			MeanMotionDot:   el.MeanMotionDot,
			MeanMotionDDot:  el.MeanMotionDDot,
		},
		TimeStepMinutes:    report.Round(step.Minutes(), 2),
		AverageVelocityKmS: report.Round(velocity, 3),
		InstantVelocityKmS: report.Round(teme.Speed(), 3),
		DistancePerStepKm:  report.Round(velocity*step.Seconds(), 2),
		RadiusKm:           report.Round(radiusKm, 2),
		OrbitalDistanceKm:  report.Round(2*math.Pi*radiusKm, 2),
		ObservationPeriod: report.ObservationPeriod{
			StartLocal:        "N/A",
			EndLocal:          "N/A",
			CalculationMethod: tl.Method,
		},
		Positions: []report.TrackPoint{},
	}

	n := len(tl.Samples)
	if n == 0 {
		return info, nil
	}
	first, last := tl.Samples[0].Time, tl.Samples[n-1].Time
	info.ObservationPeriod.StartLocal = report.FormatLocal(first, p.Location)
	info.ObservationPeriod.EndLocal = report.FormatLocal(last, p.Location)
	info.ObservationPeriod.DurationMinutes = report.Round(last.Sub(first).Minutes(), 2)

	obs := p.Observer()
	for t := first; !t.After(last); t = t.Add(step) {
		if err := ctx.Err(); err != nil {
			return report.OrbitInfo{}, err
		}
		if !nearSample(tl.Samples, t) {
			continue
		}
		gp, _, err := ephemeris.Subpoint(cand.Propagator, t)
		if err != nil {
			continue
		}
		sun, err := c.oracle.SolarElevation(obs, t)
		if err != nil {
			continue
		}
		info.Positions = append(info.Positions, report.TrackPoint{
			DatetimeLocal: t.In(p.Location).Format(time.DateTime),
			DatetimeUTC:   report.FormatUTC(t),
			Latitude:      report.Round(gp.LatDeg, 6),
			Longitude:     report.Round(gp.LonDeg, 6),
			ElevationKm:   report.Round(gp.AltM/1000, 2),
			SunAlt:        report.Round(sun, 2),
		})
	}
	return info, nil
}

// nearSample reports whether t is within the track tolerance of a sampled
// instant. Samples are time-ordered.
func nearSample(samples []timeline.Sample, t time.Time) bool {
	i := sort.Search(len(samples), func(i int) bool { return !samples[i].Time.Before(t) })
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(samples) {
			continue
		}
		d := samples[j].Time.Sub(t)
		if d < 0 {
			d = -d
		}
		if d < trackTolerance {
			return true
		}
	}
	return false
}

func (c *Calculator) currentPosition(cand visibility.Candidate, p request.Params, now time.Time, velocity map[string]float64) (report.CurrentPosition, error) {
	obs := p.Observer()
	gp, _, err := ephemeris.Subpoint(cand.Propagator, now)
	if err != nil {
		return report.CurrentPosition{}, err
	}
	o, err := c.oracle.Observe(cand.Propagator, obs, now)
	if err != nil {
		return report.CurrentPosition{}, err
	}
	sun, err := c.oracle.SolarElevation(obs, now)
	if err != nil {
		return report.CurrentPosition{}, err
	}

	// A single instant has no pre-filtered darkness, so the Sun is checked
	// as for a custom span.
	pt := passes.Point{Time: now, ElevationDeg: o.ElevationDeg, Sunlit: o.Sunlit, SunElevationDeg: sun}
	visible := visibility.PredicateFor(timeline.Custom{}, c.cfg.Criteria)(pt)

	cp := report.CurrentPosition{
		Name:                   cand.Object.Name,
		CurrentTimeUTC:         report.FormatUTC(now),
		CurrentTimeLocal:       report.FormatLocal(now, p.Location),
		Latitude:               report.Round(gp.LatDeg, 6),
		Longitude:              report.Round(gp.LonDeg, 6),
		ElevationKm:            report.Round(gp.AltM/1000, 2),
		AltitudeFromObserver:   report.Round(o.ElevationDeg, 6),
		AzimuthFromObserver:    report.Round(o.AzimuthDeg, 6),
		DistanceFromObserverKm: report.Round(o.RangeKm, 3),
		IsSunlit:               o.Sunlit,
		IsVisible:              visible,
		SunAltitude:            report.Round(sun, 2),
	}
	if v, ok := velocity[cand.Object.ID]; ok {
		cp.OrbitalVelocityKmS = &v
	}
	return cp, nil
}
