// Package passes groups an object's classified observation points into passes
// and picks the best pass and point.
package passes

import (
	"time"

	"github.com/star/skywatch/internal/tle"
)

// Point is one object seen from the observer at one instant.
type Point struct {
	Time            time.Time
	ElevationDeg    float64
	AzimuthDeg      float64
	RangeKm         float64
	SunElevationDeg float64
	Sunlit          bool
	Visible         bool
	Failed          bool // the oracle could not observe this instant
}

// Pass is a maximal run of consecutive visible points. It is never empty.
type Pass struct {
	Points []Point
}

// Start is the first visible instant.
func (p Pass) Start() time.Time { return p.Points[0].Time }

// End is the last visible instant.
func (p Pass) End() time.Time { return p.Points[len(p.Points)-1].Time }

// Duration is the time between the first and last visible samples.
func (p Pass) Duration() time.Duration { return p.End().Sub(p.Start()) }

// Peak returns the index of the highest point, preferring the earliest on ties.
func (p Pass) Peak() int {
	best := 0
	for i := 1; i < len(p.Points); i++ {
		if p.Points[i].ElevationDeg > p.Points[best].ElevationDeg {
			best = i
		}
	}
	return best
}

// MaxElevation is the elevation of the peak point.
func (p Pass) MaxElevation() float64 {
	return p.Points[p.Peak()].ElevationDeg
}

// Segment splits time-ordered points into passes. A pass opens on the first
// visible point and closes at the next invisible point or the end of input.
// The returned passes share backing storage with points.
func Segment(points []Point) []Pass {
	var out []Pass
	open := -1

	for i, pt := range points {
		if pt.Visible {
			if open < 0 {
				open = i
			}
			continue
		}
		if open >= 0 {
			out = append(out, Pass{Points: points[open:i:i]})
			open = -1
		}
	}
	if open >= 0 {
		out = append(out, Pass{Points: points[open:len(points):len(points)]})
	}

	return out
}

// Best returns the index of the pass with the highest peak, preferring the
// earliest on ties, or -1 when there are no passes.
func Best(passes []Pass) int {
	best := -1
	bestEl := 0.0
	for i, p := range passes {
		el := p.MaxElevation()
		if best < 0 || el > bestEl {
			best, bestEl = i, el
		}
	}
	return best
}

// Result is the evaluation of one object that has at least one pass.
type Result struct {
	Object    tle.TLEEntry
	Passes    []Pass
	BestPass  Pass
	BestPoint Point
}

// PassCount is the number of passes found.
func (r *Result) PassCount() int { return len(r.Passes) }

// BestElevation is the elevation of the best point.
func (r *Result) BestElevation() float64 { return r.BestPoint.ElevationDeg }

// NewResult segments points and selects the best pass and point. It returns
// nil when the object was never visible.
func NewResult(obj tle.TLEEntry, points []Point) *Result {
	ps := Segment(points)
	i := Best(ps)
	if i < 0 {
		return nil
	}
	best := ps[i]
	return &Result{
		Object:    obj,
		Passes:    ps,
		BestPass:  best,
		BestPoint: best.Points[best.Peak()],
	}
}
