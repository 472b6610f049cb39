package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/skygrid/internal/logging"
	"github.com/signalsfoundry/skygrid/mesh"
	"github.com/signalsfoundry/skygrid/model"
)

// MeshOrder selects which sky coordinate the mesh uses as its column axis.
type MeshOrder int

const (
	// OrderDeltaAlpha builds columns in latitude and stacks nodes in longitude.
	OrderDeltaAlpha MeshOrder = iota
	// OrderAlphaDelta builds columns in longitude and stacks nodes in latitude.
	OrderAlphaDelta
)

func (o MeshOrder) String() string {
	if o == OrderAlphaDelta {
		return "alpha-delta"
	}
	return "delta-alpha"
}

// meshEps pushes the mesh rectangle inside the region's bounding box so that
// boundary nodes are not clipped by roundoff.
const meshEps = 1e-6

// MaxMeshNodes caps the size of a metric mesh.
const MaxMeshNodes = 100000000

// BuildMetricSkyGrid covers the bounding box of region with the 2-D metric
// mesh and keeps the nodes that fall inside the polygon. The sky metric is
// evaluated with zero spin-downs; cfg.ProjectMetric removes the frequency
// dimension first.
func BuildMetricSkyGrid(ctx context.Context, region *model.SkyRegion, cfg SkyScanConfig) (SkyGrid, error) {
	if region == nil {
		return nil, fmt.Errorf("BuildMetricSkyGrid: %w", ErrNoSkyRegion)
	}
	if !cfg.MetricType.Valid() {
		return nil, fmt.Errorf("BuildMetricSkyGrid: metric type %v: %w", cfg.MetricType, ErrInvalidMetricType)
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("BuildMetricSkyGrid: %w", ErrNoMetricEvaluator)
	}
	if err := checkBoundingBox(region); err != nil {
		return nil, fmt.Errorf("BuildMetricSkyGrid: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}

	ll, ur := region.LowerLeft, region.UpperRight
	xlo, xhi := ll.Latitude, ur.Latitude
	ylo, yhi := ll.Longitude, ur.Longitude
	if cfg.MeshOrder == OrderAlphaDelta {
		xlo, xhi, ylo, yhi = ylo, yhi, xlo, xhi
	}

	if xhi-xlo <= 2*meshEps || yhi-ylo <= 2*meshEps {
		// Nothing to mesh: a point region or a sliver thinner than the margin.
		return nil, nil
	}

	maxNodes := cfg.MaxMeshNodes
	if maxNodes <= 0 {
		maxNodes = MaxMeshNodes
	}

	nodes, err := mesh.Build(mesh.Params{
		Domain: [2]float64{xlo + meshEps, xhi - meshEps},
		Range: func(float64) (float64, float64) {
			return ylo + meshEps, yhi - meshEps
		},
		Metric: func(x, y float64) (float64, float64, float64, error) {
			return skyMetricAt(ctx, cfg, log, x, y)
		},
		Mismatch: cfg.Mismatch,
		MaxNodes: maxNodes,
	})
	if errors.Is(err, mesh.ErrNonPositiveMetric) && !errors.Is(err, ErrNonPositiveMetric) {
		return nil, fmt.Errorf("BuildMetricSkyGrid: %w: %w", ErrNonPositiveMetric, err)
	}
	if err != nil {
		return nil, fmt.Errorf("BuildMetricSkyGrid: %w", err)
	}

	grid := make(SkyGrid, 0, len(nodes))
	discarded := 0
	for _, n := range nodes {
		p := model.SkyPosition{Longitude: n.Y, Latitude: n.X, System: model.CoordinateSystemEquatorial}
		if cfg.MeshOrder == OrderAlphaDelta {
			p.Longitude, p.Latitude = n.X, n.Y
		}
		if !PointInPolygon(p, region) {
			discarded++
			log.Debug(ctx, "mesh point discarded by polygon clipping",
				logging.Float64("alpha", p.Longitude),
				logging.Float64("delta", p.Latitude),
			)
			continue
		}
		grid = append(grid, p)
	}
	if cfg.Metrics != nil && discarded > 0 {
		cfg.Metrics.AddPolygonDiscards(discarded)
	}
	return grid, nil
}

// skyMetricAt returns the {alpha, delta} block of the phase metric at mesh
// coordinates (x, y), permuted into mesh order.
func skyMetricAt(ctx context.Context, cfg SkyScanConfig, log logging.Logger, x, y float64) (gxx, gyy, gxy float64, err error) {
	pos := model.SkyPosition{Longitude: y, Latitude: x, System: model.CoordinateSystemEquatorial}
	if cfg.MeshOrder == OrderAlphaDelta {
		pos.Longitude, pos.Latitude = x, y
	}
	pos = NormalizeSkyPosition(pos)

	g, err := cfg.Evaluator.Evaluate(MetricParams{
		Position:   pos,
		Epoch:      cfg.Epoch,
		Duration:   cfg.Duration,
		Detector:   cfg.Detector,
		MaxFreq:    cfg.Freq,
		MetricType: cfg.MetricType,
	})
	if err != nil {
		return 0, 0, 0, err
	}
	if cfg.ProjectMetric {
		if g, err = ProjectMetric(g, ParamFreq); err != nil {
			return 0, 0, 0, err
		}
	}
	if len(g) < MetricLength(ParamDelta+1) {
		return 0, 0, 0, fmt.Errorf("sky metric with %d components: %w", len(g), ErrMetricTooShort)
	}

	gaa := g.At(ParamAlpha, ParamAlpha)
	gdd := g.At(ParamDelta, ParamDelta)
	gad := g.At(ParamAlpha, ParamDelta)
	if !skyBlockPositive(gaa, gdd, gad) {
		log.Error(ctx, "negative sky metric",
			logging.Float64("alpha", pos.Longitude),
			logging.Float64("delta", pos.Latitude),
			logging.Float64("g_aa", gaa),
			logging.Float64("g_dd", gdd),
			logging.Float64("g_ad", gad),
			logging.Float64("det", gaa*gdd-gad*gad),
		)
		return 0, 0, 0, fmt.Errorf("sky metric at (%g, %g): %w", pos.Longitude, pos.Latitude, ErrNonPositiveMetric)
	}

	if cfg.MeshOrder == OrderAlphaDelta {
		return gaa, gdd, gad, nil
	}
	return gdd, gaa, gad, nil
}
