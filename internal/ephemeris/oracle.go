// Package ephemeris is the astrodynamics oracle consumed by the visibility
// engine: it builds propagation handles from element sets, reports the Sun's
// elevation for an observer, and reports where an object appears in an
// observer's sky together with whether it is illuminated.
package ephemeris

import (
	"fmt"
	"time"

	"github.com/star/skywatch/internal/transform"
)

// Observation is what an observer sees of one object at one instant.
type Observation struct {
	ElevationDeg float64
	AzimuthDeg   float64
	RangeKm      float64
	Sunlit       bool
}

// Propagator yields an object's inertial state at an instant.
type Propagator interface {
	Propagate(t time.Time) (transform.PositionTEME, error)
}

// Oracle is the boundary to the ephemeris service. Implementations must be
// safe for concurrent use.
type Oracle interface {
	NewPropagator(line1, line2, id string) (Propagator, error)
	SolarElevation(obs transform.ObserverPosition, t time.Time) (float64, error)
	Observe(p Propagator, obs transform.ObserverPosition, t time.Time) (Observation, error)
}

// SGP4Oracle implements Oracle with SGP4 propagation and a low-precision
// analytic Sun. It holds no state.
type SGP4Oracle struct{}

// NewSGP4Oracle returns the default Oracle.
func NewSGP4Oracle() SGP4Oracle {
	return SGP4Oracle{}
}

// NewPropagator builds an SGP4 handle, failing on malformed element sets.
func (SGP4Oracle) NewPropagator(line1, line2, id string) (Propagator, error) {
	sp, err := NewSGP4Propagator(line1, line2, id)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// SolarElevation returns the Sun's elevation above the observer's horizon in degrees.
func (SGP4Oracle) SolarElevation(obs transform.ObserverPosition, t time.Time) (float64, error) {
	return transform.SunLookAngles(obs, t).ElevationDeg, nil
}

// Observe propagates p to t and returns its look angles from obs and whether
// it is outside the Earth's shadow.
func (SGP4Oracle) Observe(p Propagator, obs transform.ObserverPosition, t time.Time) (Observation, error) {
	teme, err := p.Propagate(t)
	if err != nil {
		return Observation{}, err
	}

	gmst := transform.GMST(t)
	ecef := transform.TEMEToECEFWithGMST(teme, gmst)
	if !transform.ValidateECEF(ecef) {
		return Observation{}, fmt.Errorf("implausible ECEF position at %s", t.UTC().Format(time.RFC3339))
	}
	la := obs.LookAt(ecef)

	return Observation{
		ElevationDeg: la.ElevationDeg,
		AzimuthDeg:   la.AzimuthDeg,
		RangeKm:      la.RangeKm,
		Sunlit:       Sunlit(teme, transform.SunTEME(t)),
	}, nil
}

// Subpoint returns the geodetic point directly beneath the object at t.
func Subpoint(p Propagator, t time.Time) (transform.GeodeticPoint, transform.PositionTEME, error) {
	teme, err := p.Propagate(t)
	if err != nil {
		return transform.GeodeticPoint{}, transform.PositionTEME{}, err
	}
	ecef := transform.TEMEToECEF(teme, t)
	return transform.ToGeodetic(ecef), teme, nil
}
