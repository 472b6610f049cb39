package core

import (
	"math"

	"github.com/signalsfoundry/skygrid/model"
)

// Vec3 is a Cartesian vector. Positions used by the phase metric are in
// light-seconds.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Scale returns s*v.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// skyUnitVector returns the unit vector towards (alpha, delta) together with its
// partial derivatives with respect to alpha and delta.
func skyUnitVector(alpha, delta float64) (n, dAlpha, dDelta Vec3) {
	sa, ca := math.Sincos(alpha)
	sd, cd := math.Sincos(delta)
	n = Vec3{X: cd * ca, Y: cd * sa, Z: sd}
	dAlpha = Vec3{X: -cd * sa, Y: cd * ca, Z: 0}
	dDelta = Vec3{X: -sd * ca, Y: -sd * sa, Z: cd}
	return n, dAlpha, dDelta
}

// NormalizeSkyPosition maps a position into longitude in [0, 2pi) and latitude
// in [-pi/2, pi/2]. Latitudes past a pole are reflected back and the longitude
// moves to the other side of the sphere.
func NormalizeSkyPosition(p model.SkyPosition) model.SkyPosition {
	lon, lat := p.Longitude, p.Latitude

	lat = math.Mod(lat, 2*math.Pi)
	if lat > math.Pi {
		lat -= 2 * math.Pi
	} else if lat < -math.Pi {
		lat += 2 * math.Pi
	}
	if lat > math.Pi/2 {
		lat = math.Pi - lat
		lon += math.Pi
	} else if lat < -math.Pi/2 {
		lat = -math.Pi - lat
		lon += math.Pi
	}

	lon = math.Mod(lon, 2*math.Pi)
	if lon < 0 {
		lon += 2 * math.Pi
	}
	if lon >= 2*math.Pi {
		lon = 0
	}

	return model.SkyPosition{Longitude: lon, Latitude: lat, System: p.System}
}

// PointInPolygon reports whether p lies inside the polygon region.
//
// A horizontal ray is cast from p and the edge crossings strictly to the right
// and strictly to the left are counted separately. The point is inside if either
// count is odd, so points on the boundary are counted as inside even when
// rounding puts the crossing exactly on p.
//
// The half-open straddle test cannot see a vertex at the top of the polygon, so
// a point that fails the ray test is also checked against every edge directly.
//
// Regions with fewer than 3 vertices contain nothing.
func PointInPolygon(p model.SkyPosition, region *model.SkyRegion) bool {
	if region == nil || len(region.Vertices) < 3 {
		return false
	}

	vertices := region.Vertices
	n := len(vertices)
	px, py := p.Longitude, p.Latitude

	var right, left int
	for i := 0; i < n; i++ {
		v1 := vertices[i]
		v2 := vertices[(i+1)%n]

		// Half-open straddle test; horizontal edges never cross the ray.
		if py < math.Min(v1.Latitude, v2.Latitude) || py >= math.Max(v1.Latitude, v2.Latitude) || v1.Latitude == v2.Latitude {
			continue
		}

		xinter := v1.Longitude + (py-v1.Latitude)*(v2.Longitude-v1.Longitude)/(v2.Latitude-v1.Latitude)
		if xinter > px {
			right++
		}
		if xinter < px {
			left++
		}
	}

	if right%2 == 1 || left%2 == 1 {
		return true
	}
	for i := 0; i < n; i++ {
		if onSegment(px, py, vertices[i], vertices[(i+1)%n]) {
			return true
		}
	}
	return false
}

// boundaryTol is the relative distance within which a point counts as lying on
// a polygon edge.
const boundaryTol = 1e-12

func onSegment(px, py float64, a, b model.SkyPosition) bool {
	dx := b.Longitude - a.Longitude
	dy := b.Latitude - a.Latitude
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return px == a.Longitude && py == a.Latitude
	}
	t := ((px-a.Longitude)*dx + (py-a.Latitude)*dy) / l2
	if t < -boundaryTol || t > 1+boundaryTol {
		return false
	}
	ex := px - (a.Longitude + t*dx)
	ey := py - (a.Latitude + t*dy)
	return ex*ex+ey*ey <= boundaryTol*boundaryTol*l2
}
