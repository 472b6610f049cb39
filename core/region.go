package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/signalsfoundry/skygrid/model"
)

// AllSkyRegion is the polygon substituted for the "allsky" region string. It
// stays about 1e-2 away from the poles and from longitude 0/2pi so that grid
// points never sit on a boundary where roundoff could flip them.
const AllSkyRegion = "(1.0e-2, -1.56),(6.27, -1.56),(6.27, 1.56),(1.0e-2, 1.56)"

// ParseSkyRegion parses a region string of the form
//
//	"(lon1, lat1), (lon2, lat2), ..., (lonN, latN)"
//
// or the case-insensitive token "allsky". Whitespace is ignored. A single
// vertex is a point region; two vertices are rejected.
func ParseSkyRegion(input string) (*model.SkyRegion, error) {
	src := strings.TrimSpace(input)
	if strings.EqualFold(src, "allsky") {
		src = AllSkyRegion
	}

	n := strings.Count(src, "(")
	if n == 0 {
		return nil, fmt.Errorf("ParseSkyRegion: no vertices in %q: %w", input, ErrInvalidSkyRegion)
	}
	if n == 2 {
		return nil, fmt.Errorf("ParseSkyRegion: %q: %w", input, ErrTwoVertexRegion)
	}

	region := &model.SkyRegion{Vertices: make([]model.SkyPosition, 0, n)}
	rest := src
	for i := 0; i < n; i++ {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open < 0 || closing < open {
			return nil, fmt.Errorf("ParseSkyRegion: vertex %d of %q: %w", i+1, input, ErrInvalidSkyRegion)
		}
		v, err := parseVertex(rest[open+1 : closing])
		if err != nil {
			return nil, fmt.Errorf("ParseSkyRegion: vertex %d of %q: %w", i+1, input, err)
		}
		region.Vertices = append(region.Vertices, v)
		rest = rest[closing+1:]
	}

	updateBoundingBox(region)
	return region, nil
}

func parseVertex(s string) (model.SkyPosition, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.SkyPosition{}, ErrInvalidSkyRegion
	}
	lon, err := parseCoordinate(strings.TrimSpace(parts[0]))
	if err != nil {
		return model.SkyPosition{}, ErrInvalidSkyRegion
	}
	lat, err := parseCoordinate(strings.TrimSpace(parts[1]))
	if err != nil {
		return model.SkyPosition{}, ErrInvalidSkyRegion
	}
	return model.SkyPosition{Longitude: lon, Latitude: lat, System: model.CoordinateSystemEquatorial}, nil
}

// parseCoordinate parses an angle in radians. Infinities and NaN are
// rejected: a non-finite bounding box never terminates the grid loops.
func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite coordinate %q", s)
	}
	return v, nil
}

// updateBoundingBox recomputes the lower-left and upper-right corners.
func updateBoundingBox(region *model.SkyRegion) {
	if len(region.Vertices) == 0 {
		return
	}
	ll := region.Vertices[0]
	ur := region.Vertices[0]
	for _, v := range region.Vertices[1:] {
		ll.Longitude = math.Min(ll.Longitude, v.Longitude)
		ll.Latitude = math.Min(ll.Latitude, v.Latitude)
		ur.Longitude = math.Max(ur.Longitude, v.Longitude)
		ur.Latitude = math.Max(ur.Latitude, v.Latitude)
	}
	ll.System = model.CoordinateSystemEquatorial
	ur.System = model.CoordinateSystemEquatorial
	region.LowerLeft = ll
	region.UpperRight = ur
}

// SkySquareToString converts a classical sky square (corner plus bands) into a
// region string. Both bands zero gives a single point; both non-zero gives a
// rectangle. Anything else is rejected.
func SkySquareToString(alpha, delta, alphaBand, deltaBand float64) (string, error) {
	onePoint := alphaBand == 0 && deltaBand == 0
	region2D := alphaBand != 0 && deltaBand != 0
	if !onePoint && !region2D {
		return "", fmt.Errorf("SkySquareToString: bands (%g, %g): %w", alphaBand, deltaBand, ErrInvalidSkySquare)
	}
	if onePoint {
		return fmt.Sprintf("(%.16g, %.16g)", alpha, delta), nil
	}
	return fmt.Sprintf("(%.16g, %.16g), (%.16g, %.16g), (%.16g, %.16g), (%.16g, %.16g)",
		alpha, delta,
		alpha+alphaBand, delta,
		alpha+alphaBand, delta+deltaBand,
		alpha, delta+deltaBand,
	), nil
}
