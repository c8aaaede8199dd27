package request

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/skywatch/internal/timeline"
)

func TestDecodeDefaults(t *testing.T) {
	p, err := Decode(strings.NewReader(`{"lat": 13.75, "lon": "100.50", "date": "2025-02-14"}`))
	require.NoError(t, err)

	assert.Equal(t, 13.75, p.Lat)
	assert.Equal(t, 100.50, p.Lon)
	assert.Equal(t, timeline.Date{Year: 2025, Month: 2, Day: 14}, p.Date)
	assert.Equal(t, "UTC", p.Timezone)
	assert.Equal(t, "UTC", p.Location.String())
	assert.Equal(t, timeline.Auto{}, p.Mode)
	assert.Empty(t, p.Satellites)

	s, e := p.CustomTimes()
	assert.Empty(t, s)
	assert.Empty(t, e)
	assert.Equal(t, 13.75, p.Observer().LatDeg)
}

func TestDecodeCustom(t *testing.T) {
	p, err := Decode(strings.NewReader(`{
		"lat": 13.75, "lon": 100.5, "date": "2025-02-14",
		"timezone": "Asia/Bangkok", "time_mode": "custom",
		"start_time": "23:00", "end_time": "01:00",
		"satellites": [{"name": "ISS (ZARYA)",
			"tle1": "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993",
			"tle2": "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058"}]
	}`))
	require.NoError(t, err)

	want := timeline.Custom{Start: timeline.Clock{Hour: 23}, End: timeline.Clock{Hour: 1}}
	assert.Equal(t, want, p.Mode)
	assert.Equal(t, "Asia/Bangkok", p.Location.String())
	require.Len(t, p.Satellites, 1)
	assert.Equal(t, 25544, p.Satellites[0].NORADID)
	assert.NoError(t, p.RequireSatellites())

	s, e := p.CustomTimes()
	assert.Equal(t, "23:00", s)
	assert.Equal(t, "01:00", e)
}

func TestCustomWithoutTimesFallsBackToAuto(t *testing.T) {
	p, err := Decode(strings.NewReader(`{"lat": 0, "lon": 0, "date": "2025-02-14", "time_mode": "custom", "start_time": "20:00"}`))
	require.NoError(t, err)
	assert.Equal(t, timeline.Auto{}, p.Mode)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `lat=1`},
		{"missing lat", `{"lon": 1, "date": "2025-02-14"}`},
		{"missing lon", `{"lat": 1, "date": "2025-02-14"}`},
		{"lat not numeric", `{"lat": "north", "lon": 1, "date": "2025-02-14"}`},
		{"lat out of range", `{"lat": 91, "lon": 1, "date": "2025-02-14"}`},
		{"lon out of range", `{"lat": 1, "lon": -181, "date": "2025-02-14"}`},
		{"lat NaN", `{"lat": "NaN", "lon": "100.5", "date": "2024-01-15"}`},
		{"lon infinite", `{"lat": 13.75, "lon": "+Inf", "date": "2024-01-15"}`},
		{"missing date", `{"lat": 1, "lon": 1}`},
		{"bad date", `{"lat": 1, "lon": 1, "date": "14/02/2025"}`},
		{"bad timezone", `{"lat": 1, "lon": 1, "date": "2025-02-14", "timezone": "Mars/Olympus"}`},
		{"bad mode", `{"lat": 1, "lon": 1, "date": "2025-02-14", "time_mode": "sometimes"}`},
		{"bad start", `{"lat": 1, "lon": 1, "date": "2025-02-14", "time_mode": "custom", "start_time": "8pm", "end_time": "23:00"}`},
		{"bad end", `{"lat": 1, "lon": 1, "date": "2025-02-14", "time_mode": "custom", "start_time": "20:00", "end_time": "24:30"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestValidateRejectsNonFinite(t *testing.T) {
	nan, lon := Coordinate(math.NaN()), Coordinate(100.5)
	_, err := Raw{Lat: &nan, Lon: &lon, Date: "2024-01-15"}.Validate()
	assert.ErrorIs(t, err, ErrInvalid)

	lat, inf := Coordinate(13.75), Coordinate(math.Inf(-1))
	_, err = Raw{Lat: &lat, Lon: &inf, Date: "2024-01-15"}.Validate()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRequireSatellites(t *testing.T) {
	p, err := Decode(strings.NewReader(`{"lat": 1, "lon": 1, "date": "2025-02-14"}`))
	require.NoError(t, err)
	assert.ErrorIs(t, p.RequireSatellites(), ErrInvalid)
}
