package transform

import "math"

// WGS-84 ellipsoid.
const (
	wgs84A  = 6378137.0             // semi-major axis (m)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// ObserverPosition is a ground observer. Everything needed to turn an ECEF
// position into look angles is computed once in NewObserverPosition, so a
// single value is shared read-only by every worker of a request.
type ObserverPosition struct {
	LatDeg, LonDeg float64 // geodetic, as supplied
	AltM           float64 // above the ellipsoid
	ECEF           PositionECEF

	sinLat, cosLat float64
	sinLon, cosLon float64
}

// LookAngles is where an object appears in an observer's sky.
type LookAngles struct {
	AzimuthDeg   float64 // clockwise from north
	ElevationDeg float64 // above the horizon
	RangeKm      float64
}

// GeodeticPoint is a WGS-84 geodetic position.
type GeodeticPoint struct {
	LatDeg, LonDeg, AltM float64
}

// NewObserverPosition places an observer at geodetic latitude and longitude
// in degrees and altitude in metres.
func NewObserverPosition(latDeg, lonDeg, altM float64) ObserverPosition {
	o := ObserverPosition{LatDeg: latDeg, LonDeg: lonDeg, AltM: altM}
	o.sinLat, o.cosLat = math.Sincos(latDeg * deg)
	o.sinLon, o.cosLon = math.Sincos(lonDeg * deg)

	n := primeVerticalRadius(o.sinLat)
	o.ECEF = PositionECEF{
		X: (n + altM) * o.cosLat * o.cosLon,
		Y: (n + altM) * o.cosLat * o.sinLon,
		Z: (n*(1-wgs84E2) + altM) * o.sinLat,
	}
	return o
}

func primeVerticalRadius(sinLat float64) float64 {
	return wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
}

// LookAt returns the look angles of an ECEF position (m) from o, rotating the
// line of sight into the local south-east-zenith frame (Vallado 4.4).
func (o ObserverPosition) LookAt(p PositionECEF) LookAngles {
	dx := p.X - o.ECEF.X
	dy := p.Y - o.ECEF.Y
	dz := p.Z - o.ECEF.Z

	s := o.sinLat*o.cosLon*dx + o.sinLat*o.sinLon*dy - o.cosLat*dz
	e := -o.sinLon*dx + o.cosLon*dy
	z := o.cosLat*o.cosLon*dx + o.cosLat*o.sinLon*dy + o.sinLat*dz
	r := math.Sqrt(s*s + e*e + z*z)
	if r == 0 {
		return LookAngles{ElevationDeg: 90}
	}

	// North is -S.
	az := math.Atan2(e, -s)
	if az < 0 {
		az += 2 * math.Pi
	}
	return LookAngles{
		AzimuthDeg:   az / deg,
		ElevationDeg: math.Asin(z/r) / deg,
		RangeKm:      r / 1000,
	}
}

// ToGeodetic converts an ECEF position (m) to geodetic coordinates. Latitude
// is refined by fixed-point iteration from Bowring's starting value, which
// settles within a few rounds for anything near the Earth.
func ToGeodetic(p PositionECEF) GeodeticPoint {
	rho := math.Hypot(p.X, p.Y)
	lat := math.Atan2(p.Z, rho*(1-wgs84E2))
	for range 5 {
		sin := math.Sin(lat)
		lat = math.Atan2(p.Z+wgs84E2*primeVerticalRadius(sin)*sin, rho)
	}

	sinLat, cosLat := math.Sincos(lat)
	n := primeVerticalRadius(sinLat)
	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = rho/cosLat - n
	} else {
		alt = math.Abs(p.Z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat / deg,
		LonDeg: math.Atan2(p.Y, p.X) / deg,
		AltM:   alt,
	}
}
