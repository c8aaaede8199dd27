package ephemeris

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/skywatch/internal/tle"
	"github.com/star/skywatch/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go, explicit TEME output. Propagate() takes Satellite by value so SGP4
// error codes are not visible to the caller; propagation failures are detected
// by checking the output for NaN/Inf and unreasonable position magnitudes.

// SGP4Propagator wraps the go-satellite library for a single object.
// It is read-only after construction and safe for concurrent use.
type SGP4Propagator struct {
	sat satellite.Satellite
	id  string
}

// NewSGP4Propagator creates an SGP4 propagator from element-set lines.
// The lines are validated first because go-satellite calls log.Fatal on
// malformed input.
func NewSGP4Propagator(line1, line2, id string) (*SGP4Propagator, error) {
	if err := tle.ValidateLines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for %s: %w", id, err)
	}

	sat := satellite.TLEToSat(strings.TrimSpace(line1), strings.TrimSpace(line2), satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for %s: code=%d %s", id, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, id: id}, nil
}

// Propagate returns position and velocity in the TEME frame (km, km/s) at t.
func (p *SGP4Propagator) Propagate(t time.Time) (transform.PositionTEME, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for %s: output is NaN/Inf", p.id)
	}

	teme := transform.PositionTEME{X: pos.X, Y: pos.Y, Z: pos.Z, VX: vel.X, VY: vel.Y, VZ: vel.Z}
	if mag := teme.Radius(); mag < 6200.0 || mag > 50000.0 {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for %s: unreasonable position magnitude %.1f km", p.id, mag)
	}
	return teme, nil
}
