package report

import (
	"time"

	"github.com/star/skywatch/internal/passes"
)

// NewPassSummary summarizes a pass.
func NewPassSummary(p passes.Pass, loc *time.Location) PassSummary {
	return PassSummary{
		StartUTC:       FormatUTC(p.Start()),
		EndUTC:         FormatUTC(p.End()),
		StartLocal:     FormatLocal(p.Start(), loc),
		EndLocal:       FormatLocal(p.End(), loc),
		DurationPoints: len(p.Points),
		MaxElevation:   Round(p.MaxElevation(), 2),
	}
}

// NewPointSummary summarizes an observation point.
func NewPointSummary(pt passes.Point, loc *time.Location) PointSummary {
	return PointSummary{
		TimeUTC:      FormatUTC(pt.Time),
		TimeLocal:    FormatLocal(pt.Time, loc),
		Elevation:    Round(pt.ElevationDeg, 2),
		Azimuth:      Round(pt.AzimuthDeg, 2),
		RangeKm:      Round(pt.RangeKm, 3),
		SunElevation: Round(pt.SunElevationDeg, 2),
	}
}
