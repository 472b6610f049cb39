package core

import (
	"context"
	"testing"

	"github.com/signalsfoundry/skygrid/model"
)

var testRegions = []string{
	"(0,0),(1,0),(1,1),(0,1)",
	"(0.1,0.1),(0.9,0.2),(0.5,0.8)",
	"(1,-0.5),(2,-0.4),(2.5,0.3),(1.5,0.6),(0.8,0.1)",
	"(0,0),(2,0),(2,2),(1,1),(0,2)", // concave
}

func TestPointInPolygonBoundaryInclusive(t *testing.T) {
	for _, s := range testRegions {
		r, err := ParseSkyRegion(s)
		if err != nil {
			t.Fatalf("ParseSkyRegion(%q): %v", s, err)
		}
		n := len(r.Vertices)
		for i, v := range r.Vertices {
			if !PointInPolygon(v, r) {
				t.Errorf("%s: vertex %d %+v classified outside", s, i, v)
			}
			w := r.Vertices[(i+1)%n]
			mid := eqPos(0.5*(v.Longitude+w.Longitude), 0.5*(v.Latitude+w.Latitude))
			if !PointInPolygon(mid, r) {
				t.Errorf("%s: midpoint of edge %d %+v classified outside", s, i, mid)
			}
		}
	}
}

func TestPointInPolygonOutsideBoundingBox(t *testing.T) {
	for _, s := range testRegions {
		r, err := ParseSkyRegion(s)
		if err != nil {
			t.Fatalf("ParseSkyRegion(%q): %v", s, err)
		}
		ll, ur := r.LowerLeft, r.UpperRight
		outside := []model.SkyPosition{
			eqPos(ll.Longitude-0.01, ll.Latitude),
			eqPos(ur.Longitude+0.01, ur.Latitude),
			eqPos(ll.Longitude, ll.Latitude-0.01),
			eqPos(ur.Longitude, ur.Latitude+0.01),
			eqPos(ur.Longitude+1, ll.Latitude-1),
		}
		for _, p := range outside {
			if PointInPolygon(p, r) {
				t.Errorf("%s: point %+v outside the bounding box classified inside", s, p)
			}
		}
	}
}

func TestFlatGridWithinBoundingBox(t *testing.T) {
	for _, s := range testRegions {
		r, err := ParseSkyRegion(s)
		if err != nil {
			t.Fatalf("ParseSkyRegion(%q): %v", s, err)
		}
		grid, err := BuildFlatSkyGrid(r, 0.07, 0.05)
		if err != nil {
			t.Fatalf("BuildFlatSkyGrid: %v", err)
		}
		for _, p := range grid {
			if p.Longitude < r.LowerLeft.Longitude || p.Longitude > r.UpperRight.Longitude ||
				p.Latitude < r.LowerLeft.Latitude || p.Latitude > r.UpperRight.Latitude {
				t.Errorf("%s: point %+v outside bounding box", s, p)
			}
			if !PointInPolygon(p, r) {
				t.Errorf("%s: point %+v outside polygon", s, p)
			}
		}
	}
}

func TestAllSkyEveryGridType(t *testing.T) {
	configs := map[string]SkyScanConfig{
		"flat":      {GridType: model.GridFlat, DAlpha: 0.2, DDelta: 0.2},
		"isotropic": {GridType: model.GridIsotropic, DAlpha: 0.2, DDelta: 0.2},
		"metric": {
			GridType:   model.GridMetric,
			MetricType: model.MetricPtoleNumeric,
			Mismatch:   0.02,
			Evaluator:  constEvaluator(1, 1, 1, 1),
			Freq:       100,
		},
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			cfg.SkyRegion = "allsky"
			first, err := InitSkyScan(context.Background(), cfg)
			if err != nil {
				t.Fatalf("InitSkyScan: %v", err)
			}
			if first.NumPoints() < 1 {
				t.Fatal("all-sky grid is empty")
			}

			second, err := InitSkyScan(context.Background(), cfg)
			if err != nil {
				t.Fatalf("InitSkyScan: %v", err)
			}
			if first.NumPoints() != second.NumPoints() {
				t.Fatalf("rebuild gave %d points, want %d", second.NumPoints(), first.NumPoints())
			}
			for i := range first.Grid() {
				if first.Grid()[i] != second.Grid()[i] {
					t.Fatalf("rebuild differs at point %d", i)
				}
			}
		})
	}
}
