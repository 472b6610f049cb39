package core

import (
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/skygrid/model"
)

// SkyGrid is an ordered list of sky points. The grid owns its backing array.
type SkyGrid []model.SkyPosition

// Len returns the number of points in the grid.
func (g SkyGrid) Len() int { return len(g) }

// GridMetrics receives grid construction and scanning statistics.
// A nil GridMetrics disables recording.
type GridMetrics interface {
	ObserveGridBuild(gridType, outcome string, points int, elapsed time.Duration)
	AddPolygonDiscards(n int)
	AddScanPoints(n int)
}

// minCosDelta bounds |cos(delta)| from below in the isotropic grid so the
// longitude step stays finite at the poles.
const minCosDelta = 1e-6

// checkBoundingBox rejects regions whose bounding box is not finite, which
// would keep the stepping loops from terminating.
func checkBoundingBox(region *model.SkyRegion) error {
	for _, v := range []float64{
		region.LowerLeft.Longitude, region.LowerLeft.Latitude,
		region.UpperRight.Longitude, region.UpperRight.Latitude,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bounding box %+v/%+v: %w", region.LowerLeft, region.UpperRight, ErrInvalidSkyRegion)
		}
	}
	return nil
}

// BuildFlatSkyGrid steps from the lower-left corner of region in fixed
// increments: latitude in the inner loop, longitude in the outer loop. Only
// points inside the polygon are kept, so the result may be empty.
func BuildFlatSkyGrid(region *model.SkyRegion, dAlpha, dDelta float64) (SkyGrid, error) {
	if region == nil {
		return nil, fmt.Errorf("BuildFlatSkyGrid: %w", ErrNoSkyRegion)
	}
	if !(dAlpha > 0) || !(dDelta > 0) {
		return nil, fmt.Errorf("BuildFlatSkyGrid: steps (%g, %g): %w", dAlpha, dDelta, ErrInvalidStep)
	}
	if err := checkBoundingBox(region); err != nil {
		return nil, fmt.Errorf("BuildFlatSkyGrid: %w", err)
	}

	ll, ur := region.LowerLeft, region.UpperRight
	var grid SkyGrid
	for j := 0; ; j++ {
		lon := ll.Longitude + float64(j)*dAlpha
		if lon >= ur.Longitude+dAlpha {
			break
		}
		for i := 0; ; i++ {
			lat := ll.Latitude + float64(i)*dDelta
			if lat > ur.Latitude {
				break
			}
			p := model.SkyPosition{Longitude: lon, Latitude: lat, System: model.CoordinateSystemEquatorial}
			if PointInPolygon(p, region) {
				grid = append(grid, p)
			}
		}
	}
	return grid, nil
}

// BuildIsotropicSkyGrid builds a grid whose cells cover roughly the same solid
// angle dAlpha*dDelta: within each latitude row the longitude step is
// dAlpha/|cos(delta)|.
func BuildIsotropicSkyGrid(region *model.SkyRegion, dAlpha, dDelta float64) (SkyGrid, error) {
	if region == nil {
		return nil, fmt.Errorf("BuildIsotropicSkyGrid: %w", ErrNoSkyRegion)
	}
	if !(dAlpha > 0) || !(dDelta > 0) {
		return nil, fmt.Errorf("BuildIsotropicSkyGrid: steps (%g, %g): %w", dAlpha, dDelta, ErrInvalidStep)
	}
	if err := checkBoundingBox(region); err != nil {
		return nil, fmt.Errorf("BuildIsotropicSkyGrid: %w", err)
	}

	ll, ur := region.LowerLeft, region.UpperRight
	var grid SkyGrid
	for i := 0; ; i++ {
		lat := ll.Latitude + float64(i)*dDelta
		if lat > ur.Latitude {
			break
		}
		stepAlpha := dAlpha / math.Max(math.Abs(math.Cos(lat)), minCosDelta)

		for j := 0; ; j++ {
			lon := ll.Longitude + float64(j)*stepAlpha
			if lon > ur.Longitude {
				break
			}
			p := model.SkyPosition{Longitude: lon, Latitude: lat, System: model.CoordinateSystemEquatorial}
			if PointInPolygon(p, region) {
				grid = append(grid, p)
			}
		}
	}
	return grid, nil
}
