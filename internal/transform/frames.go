// Package transform provides the coordinate frame math behind the ephemeris
// oracle: sidereal time, TEME to ECEF rotation, topocentric look angles and a
// low-precision solar position.
//
// TEME to ECEF uses a GMST-only rotation (TEME -> PEF ≈ ECEF). Polar motion and
// the equation of the equinoxes are ignored, which is well below the
// resolution needed to decide whether an object is above an observer's horizon.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3-4.
package transform

import (
	"math"
	"time"
)

// PositionTEME is a position and velocity in the TEME frame.
type PositionTEME struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// Radius returns the geocentric distance in km.
func (p PositionTEME) Radius() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Speed returns the inertial speed in km/s.
func (p PositionTEME) Speed() float64 {
	return math.Sqrt(p.VX*p.VX + p.VY*p.VY + p.VZ*p.VZ)
}

// PositionECEF is a position in the ECEF frame, in meters.
type PositionECEF struct {
	X, Y, Z float64
}

// TEMEToECEF rotates a TEME position (km) into ECEF (m) at the given UTC time.
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST applies r_ECEF = R3(θ) * r_TEME for a precomputed GMST
// angle θ in radians. Useful when many objects share one instant.
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	return PositionECEF{
		X: (teme.X*cosG + teme.Y*sinG) * 1000.0,
		Y: (-teme.X*sinG + teme.Y*cosG) * 1000.0,
		Z: teme.Z * 1000.0,
	}
}

// ValidateECEF reports whether an ECEF position is plausible for an
// Earth-orbiting object: finite, and between 6200 km and 50000 km from the
// geocenter.
func ValidateECEF(pos PositionECEF) bool {
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) {
		return false
	}
	if math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return false
	}

	const minRadius = 6200.0 * 1000.0
	const maxRadius = 50000.0 * 1000.0

	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	return mag >= minRadius && mag <= maxRadius
}
