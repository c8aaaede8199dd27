package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/skywatch/internal/ephemeris"
	"github.com/star/skywatch/internal/qualify"
	"github.com/star/skywatch/internal/timeline"
	"github.com/star/skywatch/internal/tle"
	"github.com/star/skywatch/internal/transform"
)

type stillPropagator struct{}

func (stillPropagator) Propagate(time.Time) (transform.PositionTEME, error) {
	return transform.PositionTEME{}, nil
}

// overhead sees every object high and sunlit under a dark sky.
type overhead struct{}

func (overhead) NewPropagator(_, _, _ string) (ephemeris.Propagator, error) {
	return stillPropagator{}, nil
}

func (overhead) SolarElevation(transform.ObserverPosition, time.Time) (float64, error) {
	return -30, nil
}

func (overhead) Observe(ephemeris.Propagator, transform.ObserverPosition, time.Time) (ephemeris.Observation, error) {
	return ephemeris.Observation{ElevationDeg: 55, AzimuthDeg: 120, RangeKm: 600, Sunlit: true}, nil
}

func TestRunQualifyFromFile(t *testing.T) {
	t0 := time.Date(2025, 2, 14, 19, 0, 0, 0, time.UTC)
	samples := []timeline.Sample{
		{Time: t0, SunElevation: -30},
		{Time: t0.Add(5 * time.Minute), SunElevation: -30},
		{Time: t0.Add(10 * time.Minute), SunElevation: -30},
	}
	tl := &timeline.Timeline{
		Mode:    timeline.Auto{},
		Samples: samples,
		Windows: []timeline.Window{{Start: t0, End: samples[2].Time, First: 0, Last: 3}},
	}

	iss := tle.TLEEntry{
		ID:      "25544",
		NORADID: 25544,
		Name:    "ISS (ZARYA)",
		Line1:   "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993",
		Line2:   "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058",
	}
	broken := iss
	broken.ID, broken.Name = "99999", "BROKEN"
	broken.Line2 = broken.Line2[:40]

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	obs := transform.NewObserverPosition(40.7128, -74.006, 10)

	rep, err := runQualify(context.Background(), &out, overhead{}, obs, tl, []tle.TLEEntry{iss, broken}, 7, 3, time.UTC, logger)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Stats.CatalogSize)
	assert.Equal(t, qualify.StopCatalogExhausted, rep.Stats.Stop)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, "ISS (ZARYA)", rep.Results[0].Object.Name)
	assert.Equal(t, 1, rep.Results[0].PassCount())

	assert.Contains(t, out.String(), "Catalog: 1 valid, 1 rejected")
	assert.Contains(t, out.String(), "ISS (ZARYA)")
	assert.Contains(t, out.String(), "stop=catalog_exhausted")
}
