package ephemeris

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/star/skywatch/internal/transform"
)

// earthRadiusKm is the WGS-84 equatorial radius.
const earthRadiusKm = 6378.137

// Sunlit reports whether an object at objTEME has an unobstructed line of
// sight to the Sun at sunTEME, treating the Earth as a sphere. Both positions
// are geocentric, in km, in the same inertial frame.
func Sunlit(objTEME, sunTEME transform.PositionTEME) bool {
	obj := r3.Vec{X: objTEME.X, Y: objTEME.Y, Z: objTEME.Z}
	sun := r3.Vec{X: sunTEME.X, Y: sunTEME.Y, Z: sunTEME.Z}

	dir := r3.Unit(r3.Sub(sun, obj))

	// Distance along the ray to the point closest to the geocenter.
	along := -r3.Dot(obj, dir)
	if along <= 0 {
		// The Sun lies on the far side of the object from the Earth.
		return true
	}

	closest := r3.Add(obj, r3.Scale(along, dir))
	return r3.Norm(closest) > earthRadiusKm
}
