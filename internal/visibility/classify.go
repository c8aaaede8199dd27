// Package visibility decides, sample by sample, whether an object can be seen
// by a ground observer, and turns that into a per-object outcome.
package visibility

import (
	"github.com/star/skywatch/internal/ephemeris"
	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/timeline"
	"github.com/star/skywatch/internal/transform"
)

// Criteria are the visibility thresholds in degrees.
type Criteria struct {
	MinElevation      float64
	DarknessThreshold float64
}

// DefaultCriteria: above the horizon, Sun at or below -12 degrees.
func DefaultCriteria() Criteria {
	return Criteria{MinElevation: 0, DarknessThreshold: -12}
}

// Predicate decides whether a classified point is visible.
type Predicate func(p passes.Point) bool

// PredicateFor resolves the mode once. Auto timelines contain only dark
// samples already, so only custom mode re-checks the Sun.
func PredicateFor(mode timeline.Mode, c Criteria) Predicate {
	switch mode.(type) {
	case timeline.Custom:
		return func(p passes.Point) bool {
			return p.ElevationDeg >= c.MinElevation && p.Sunlit && p.SunElevationDeg <= c.DarknessThreshold
		}
	default:
		return func(p passes.Point) bool {
			return p.ElevationDeg >= c.MinElevation && p.Sunlit
		}
	}
}

// Classifier observes one object over a shared timeline.
type Classifier struct {
	Oracle    ephemeris.Oracle
	Observer  transform.ObserverPosition
	Samples   []timeline.Sample
	IsVisible Predicate
}

// NewClassifier binds an oracle and observer to a built timeline.
func NewClassifier(oracle ephemeris.Oracle, obs transform.ObserverPosition, tl *timeline.Timeline, c Criteria) *Classifier {
	return &Classifier{
		Oracle:    oracle,
		Observer:  obs,
		Samples:   tl.Samples,
		IsVisible: PredicateFor(tl.Mode, c),
	}
}

// Classify observes p at every sample. A sample the oracle fails on yields a
// Failed, invisible point so that it still breaks a pass; the number of such
// samples is returned alongside the points.
func (c *Classifier) Classify(p ephemeris.Propagator) ([]passes.Point, int) {
	points := make([]passes.Point, 0, len(c.Samples))
	dropped := 0

	for _, s := range c.Samples {
		o, err := c.Oracle.Observe(p, c.Observer, s.Time)
		if err != nil {
			dropped++
			points = append(points, passes.Point{Time: s.Time, SunElevationDeg: s.SunElevation, Failed: true})
			continue
		}
		pt := passes.Point{
			Time:            s.Time,
			ElevationDeg:    o.ElevationDeg,
			AzimuthDeg:      o.AzimuthDeg,
			RangeKm:         o.RangeKm,
			SunElevationDeg: s.SunElevation,
			Sunlit:          o.Sunlit,
		}
		pt.Visible = c.IsVisible(pt)
		points = append(points, pt)
	}

	return points, dropped
}
