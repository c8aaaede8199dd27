package transform

import (
	"math"
	"time"
)

// AstronomicalUnitKm is the length of one astronomical unit in km.
const AstronomicalUnitKm = 149597870.7

const deg = math.Pi / 180.0

// SunTEME returns the geocentric position of the Sun in km, expressed in the
// mean equator and equinox of date. That frame differs from TEME only by
// nutation, which is negligible at the accuracy of this model.
//
// Low-precision formulae from the Astronomical Almanac (section C5), good to
// about 0.01° between 1950 and 2050.
func SunTEME(t time.Time) PositionTEME {
	n := DaysSinceJ2000(t)

	meanLon := math.Mod(280.460+0.9856474*n, 360.0)
	meanAnom := math.Mod(357.528+0.9856003*n, 360.0) * deg

	eclLon := (meanLon + 1.915*math.Sin(meanAnom) + 0.020*math.Sin(2*meanAnom)) * deg
	obliquity := (23.439 - 0.0000004*n) * deg
	distAU := 1.00014 - 0.01671*math.Cos(meanAnom) - 0.00014*math.Cos(2*meanAnom)

	r := distAU * AstronomicalUnitKm
	return PositionTEME{
		X: r * math.Cos(eclLon),
		Y: r * math.Cos(obliquity) * math.Sin(eclLon),
		Z: r * math.Sin(obliquity) * math.Sin(eclLon),
	}
}

// SunLookAngles returns the Sun's azimuth and elevation for an observer.
// Atmospheric refraction is not applied.
func SunLookAngles(obs ObserverPosition, t time.Time) LookAngles {
	ecef := TEMEToECEF(SunTEME(t), t)
	return obs.LookAt(ecef)
}
