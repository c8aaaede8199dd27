package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/qualify"
	"github.com/star/skywatch/internal/request"
	"github.com/star/skywatch/internal/visibility"
)

// QualifiedSatellite is one shortlisted object.
type QualifiedSatellite struct {
	Name                     string  `json:"name"`
	TLE1                     string  `json:"tle1"`
	TLE2                     string  `json:"tle2"`
	NORADID                  int     `json:"norad_id"`
	ObjectType               string  `json:"object_type"`
	CountryCode              string  `json:"country_code"`
	SunElevation             float64 `json:"sun_elevation"`
	BestSatelliteElevation   float64 `json:"best_satellite_elevation"`
	BestAzimuth              float64 `json:"best_azimuth"`
	BestRangeKm              float64 `json:"best_range_km"`
	IsSunlit                 bool    `json:"is_sunlit"`
	TotalPasses              int     `json:"total_passes"`
	BestPassDurationPoints   int     `json:"best_pass_duration_points"`
	BestObservationTimeLocal string  `json:"best_observation_time_local"`
	BestObservationTimeUTC   string  `json:"best_observation_time_utc"`
}

// VisibilityConditions describes the predicate applied in each mode.
type VisibilityConditions struct {
	AutoMode   string `json:"auto_mode"`
	CustomMode string `json:"custom_mode"`
}

// CalculationParameters echoes the inputs and limits of a qualification run.
type CalculationParameters struct {
	Latitude              float64              `json:"latitude"`
	Longitude             float64              `json:"longitude"`
	TargetDate            string               `json:"target_date"`
	Timezone              string               `json:"timezone"`
	TimeMode              string               `json:"time_mode"`
	CustomStartTime       *string              `json:"custom_start_time"`
	CustomEndTime         *string              `json:"custom_end_time"`
	CalculationMethod     string               `json:"calculation_method"`
	VisibilityConditions  VisibilityConditions `json:"visibility_conditions"`
	MinElevationAngle     float64              `json:"min_elevation_angle"`
	MaxSunElevation       float64              `json:"max_sun_elevation"`
	TimeResolutionMinutes float64              `json:"time_resolution_minutes"`
	BatchSize             int                  `json:"batch_size"`
	TargetCount           int                  `json:"target_count"`
	MaxIterations         int                  `json:"max_iterations"`
}

// RunInfo summarizes how the qualification loop ended.
type RunInfo struct {
	RunID       string         `json:"run_id"`
	CatalogSize int            `json:"catalog_size"`
	Iterations  int            `json:"iterations"`
	Excluded    int            `json:"excluded"`
	Found       int            `json:"found"`
	Stop        string         `json:"stop"`
	Skipped     map[string]int `json:"skipped,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
}

// Qualification is the ranked shortlist document.
type Qualification struct {
	Success               bool                  `json:"success"`
	Count                 int                   `json:"count"`
	Satellites            []QualifiedSatellite  `json:"satellites"`
	CalculationParameters CalculationParameters `json:"calculation_parameters"`
	Run                   RunInfo               `json:"run"`
	GeneratedAt           string                `json:"generated_at"`
	Message               string                `json:"message"`
}

// Settings are the engine settings echoed in calculation_parameters.
type Settings struct {
	Criteria   visibility.Criteria
	Resolution time.Duration
	Qualify    qualify.Config
}

// NewQualification shapes a finished run.
func NewQualification(p request.Params, method string, s Settings, rep *qualify.Report, now time.Time) Qualification {
	sats := make([]QualifiedSatellite, 0, len(rep.Results))
	for _, r := range rep.Results {
		sats = append(sats, qualifiedSatellite(r, p.Location))
	}

	q := Qualification{
		Success:               true,
		Count:                 len(sats),
		Satellites:            sats,
		CalculationParameters: calculationParameters(p, method, s),
		Run:                   runInfo(rep.Stats),
		GeneratedAt:           FormatUTC(now),
	}
	q.Message = fmt.Sprintf("Found %d satellites using %s method", q.Count, strings.ToLower(method))
	return q
}

func qualifiedSatellite(r *passes.Result, loc *time.Location) QualifiedSatellite {
	bp := r.BestPoint
	return QualifiedSatellite{
		Name:                     r.Object.Name,
		TLE1:                     r.Object.Line1,
		TLE2:                     r.Object.Line2,
		NORADID:                  r.Object.NORADID,
		ObjectType:               r.Object.ObjectType,
		CountryCode:              r.Object.CountryCode,
		SunElevation:             Round(bp.SunElevationDeg, 2),
		BestSatelliteElevation:   Round(bp.ElevationDeg, 2),
		BestAzimuth:              Round(bp.AzimuthDeg, 2),
		BestRangeKm:              Round(bp.RangeKm, 3),
		IsSunlit:                 bp.Sunlit,
		TotalPasses:              r.PassCount(),
		BestPassDurationPoints:   len(r.BestPass.Points),
		BestObservationTimeLocal: FormatLocal(bp.Time, loc),
		BestObservationTimeUTC:   FormatUTC(bp.Time),
	}
}

func calculationParameters(p request.Params, method string, s Settings) CalculationParameters {
	cp := CalculationParameters{
		Latitude:          p.Lat,
		Longitude:         p.Lon,
		TargetDate:        p.Date.String(),
		Timezone:          p.Timezone,
		TimeMode:          p.Mode.Name(),
		CalculationMethod: method,
		VisibilityConditions: VisibilityConditions{
			AutoMode:   fmt.Sprintf("Satellite elevation >= %g°, Satellite is sunlit (Sun <= %g° pre-filtered)", s.Criteria.MinElevation, s.Criteria.DarknessThreshold),
			CustomMode: fmt.Sprintf("Satellite elevation >= %g°, Satellite is sunlit, Sun elevation <= %g°", s.Criteria.MinElevation, s.Criteria.DarknessThreshold),
		},
		MinElevationAngle:     s.Criteria.MinElevation,
		MaxSunElevation:       s.Criteria.DarknessThreshold,
		TimeResolutionMinutes: s.Resolution.Minutes(),
		BatchSize:             s.Qualify.BatchSize,
		TargetCount:           s.Qualify.TargetCount,
		MaxIterations:         s.Qualify.MaxIterations,
	}
	if start, end := p.CustomTimes(); start != "" {
		cp.CustomStartTime, cp.CustomEndTime = &start, &end
	}
	return cp
}

func runInfo(st qualify.Stats) RunInfo {
	ri := RunInfo{
		RunID:       st.RunID,
		CatalogSize: st.CatalogSize,
		Iterations:  st.Iterations,
		Excluded:    st.Excluded,
		Found:       st.Found,
		Stop:        string(st.Stop),
		DurationMS:  st.Duration.Milliseconds(),
	}
	if len(st.Skipped) > 0 {
		ri.Skipped = make(map[string]int, len(st.Skipped))
		for reason, n := range st.Skipped {
			ri.Skipped[string(reason)] = n
		}
	}
	return ri
}
