package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/skywatch/internal/catalog"
	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/qualify"
	"github.com/star/skywatch/internal/request"
	"github.com/star/skywatch/internal/timeline"
	"github.com/star/skywatch/internal/tle"
	"github.com/star/skywatch/internal/visibility"
)

func bangkokParams(t *testing.T, body string) request.Params {
	t.Helper()
	p, err := request.Decode(strings.NewReader(body))
	require.NoError(t, err)
	return p
}

func sampleResult() *passes.Result {
	base := time.Date(2025, 2, 14, 13, 0, 0, 0, time.UTC)
	pts := []passes.Point{
		{Time: base, ElevationDeg: 12.3456, AzimuthDeg: 200.111, RangeKm: 1500.12345, SunElevationDeg: -20.555, Sunlit: true, Visible: true},
		{Time: base.Add(5 * time.Minute), ElevationDeg: 45.6789, AzimuthDeg: 180.987, RangeKm: 600.98765, SunElevationDeg: -21.004, Sunlit: true, Visible: true},
	}
	return passes.NewResult(tle.TLEEntry{
		ID: "25544", NORADID: 25544, Name: "ISS (ZARYA)",
		Line1: "l1", Line2: "l2", ObjectType: "PAYLOAD", CountryCode: "ISS",
	}, pts)
}

func TestNewQualification(t *testing.T) {
	p := bangkokParams(t, `{"lat": 13.75, "lon": 100.5, "date": "2025-02-14", "timezone": "Asia/Bangkok",
		"time_mode": "custom", "start_time": "19:00", "end_time": "23:00"}`)
	settings := Settings{
		Criteria:   visibility.DefaultCriteria(),
		Resolution: 5 * time.Minute,
		Qualify:    qualify.DefaultConfig(),
	}
	rep := &qualify.Report{
		Results: []*passes.Result{sampleResult()},
		Stats: qualify.Stats{
			RunID: "run-1", CatalogSize: 10, Iterations: 1, Excluded: 10, Found: 1,
			Stop:     qualify.StopCatalogExhausted,
			Skipped:  map[visibility.SkipReason]int{visibility.SkipNotVisible: 9},
			Duration: 1500 * time.Millisecond,
		},
	}
	now := time.Date(2025, 2, 14, 1, 2, 3, 0, time.UTC)

	q := NewQualification(p, timeline.MethodCustom, settings, rep, now)
	assert.True(t, q.Success)
	assert.Equal(t, 1, q.Count)
	assert.Equal(t, "2025-02-14 01:02:03 UTC", q.GeneratedAt)
	assert.Equal(t, "Found 1 satellites using custom time range method", q.Message)

	s := q.Satellites[0]
	assert.Equal(t, 45.68, s.BestSatelliteElevation)
	assert.Equal(t, 180.99, s.BestAzimuth)
	assert.Equal(t, 600.988, s.BestRangeKm)
	assert.Equal(t, -21.0, s.SunElevation)
	assert.Equal(t, 1, s.TotalPasses)
	assert.Equal(t, 2, s.BestPassDurationPoints)
	assert.Equal(t, "2025-02-14 20:05:00 +07", s.BestObservationTimeLocal)
	assert.Equal(t, "2025-02-14 13:05:00 UTC", s.BestObservationTimeUTC)

	cp := q.CalculationParameters
	assert.Equal(t, "custom", cp.TimeMode)
	require.NotNil(t, cp.CustomStartTime)
	assert.Equal(t, "19:00", *cp.CustomStartTime)
	assert.Equal(t, 5.0, cp.TimeResolutionMinutes)
	assert.Equal(t, 100, cp.BatchSize)
	assert.Equal(t, -12.0, cp.MaxSunElevation)

	assert.Equal(t, "catalog_exhausted", q.Run.Stop)
	assert.Equal(t, 9, q.Run.Skipped["not_visible"])
	assert.Equal(t, int64(1500), q.Run.DurationMS)

	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"best_satellite_elevation":45.68`)
	assert.Contains(t, string(b), `"calculation_parameters"`)
}

func TestAutoModeHasNullCustomTimes(t *testing.T) {
	p := bangkokParams(t, `{"lat": 13.75, "lon": 100.5, "date": "2025-02-14"}`)
	rep := &qualify.Report{}

	q := NewQualification(p, timeline.MethodAuto, Settings{Qualify: qualify.DefaultConfig()}, rep, time.Now())
	assert.Equal(t, 0, q.Count)
	assert.NotNil(t, q.Satellites, "empty list, not null")

	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"custom_start_time":null`)
	assert.Contains(t, string(b), `"satellites":[]`)
}

func TestFailure(t *testing.T) {
	f := NewFailure(errors.New("catalog unavailable: dial"), "")
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": false, "error": "catalog unavailable: dial"}`, string(b))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.2345, 2))
	assert.Equal(t, 600.988, Round(600.98765, 3))
}

func TestNewSearch(t *testing.T) {
	iss := tle.TLEEntry{
		ID: "25544", NORADID: 25544, Name: "ISS (ZARYA)",
		Epoch: time.Date(2025, 2, 14, 4, 19, 40, 0, time.UTC),
	}

	s := NewSearch(catalog.Query{Name: "iss"}, []tle.TLEEntry{iss})
	assert.True(t, s.Success)
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, "iss", s.Query)
	assert.Equal(t, "Name", s.SearchType)
	assert.Equal(t, "2025-02-14 04:19:40 UTC", s.Satellites[0].Epoch)

	s = NewSearch(catalog.Query{NORADID: 99999}, nil)
	assert.Equal(t, "99999", s.Query)
	assert.Equal(t, "NORAD ID", s.SearchType)
	assert.NotNil(t, s.Satellites)
	assert.Zero(t, s.Total)
}
