package model

// CoordinateSystem tags the frame a SkyPosition is expressed in.
type CoordinateSystem int

const (
	CoordinateSystemEquatorial CoordinateSystem = iota
	CoordinateSystemEcliptic
	CoordinateSystemGalactic
)

// SkyPosition is a point on the celestial sphere in radians.
type SkyPosition struct {
	Longitude float64
	Latitude  float64
	System    CoordinateSystem
}

// SkyRegion is a polygon on the (longitude, latitude) plane. The polygon is not
// closed explicitly: the last vertex connects back to the first.
//
// LowerLeft and UpperRight bound all vertices.
type SkyRegion struct {
	Vertices   []SkyPosition
	LowerLeft  SkyPosition
	UpperRight SkyPosition
}

// NumVertices returns the number of polygon vertices.
func (r *SkyRegion) NumVertices() int {
	if r == nil {
		return 0
	}
	return len(r.Vertices)
}
