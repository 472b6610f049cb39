package core

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/skygrid/internal/logging"
	"github.com/signalsfoundry/skygrid/model"
)

// SkyScanConfig describes how to build a sky grid and the observation that the
// phase metric refers to.
type SkyScanConfig struct {
	GridType    model.GridType
	SkyRegion   string // region string or "allsky"; unused for file grids
	SkyGridFile string // used by GridFile and GridMetricSkyFile

	// Fixed steps for the flat and isotropic grids, in radians.
	DAlpha float64
	DDelta float64

	MetricType    model.MetricType
	Mismatch      float64
	ProjectMetric bool
	Evaluator     MetricEvaluator
	MeshOrder     MeshOrder
	MaxMeshNodes  int

	Epoch    time.Time
	Duration time.Duration
	Detector model.Detector
	// Freq is the frequency the metric is evaluated at, usually the top of the
	// searched band.
	Freq float64

	Logger  logging.Logger
	Metrics GridMetrics
}

// SkyScan iterates over the points of a sky grid.
type SkyScan struct {
	state  model.ScanState
	region model.SkyRegion
	grid   SkyGrid
	cursor int

	// Theoretical frequency and spin-down spacings at the first grid point.
	DFreq  float64
	DF1dot float64

	log     logging.Logger
	metrics GridMetrics
}

// InitSkyScan builds the sky grid described by cfg and returns a scan in the
// ready state. Without cfg.Logger it logs to the context logger, if any. A
// grid that comes out empty is replaced by the first vertex of the region, so
// a successful scan always has at least one point.
func InitSkyScan(ctx context.Context, cfg SkyScanConfig) (_ *SkyScan, err error) {
	log := cfg.Logger
	if log == nil {
		log = logging.LoggerFromContext(ctx)
	}
	if log == nil {
		log = logging.Noop()
	}
	cfg.Logger = log

	if !cfg.GridType.Valid() {
		return nil, fmt.Errorf("InitSkyScan: grid type %d: %w", int(cfg.GridType), ErrUnknownGridType)
	}
	if !cfg.GridType.UsesFile() && cfg.SkyRegion == "" {
		log.Error(ctx, "no sky region specified")
		return nil, fmt.Errorf("InitSkyScan: %w", ErrNoSkyRegion)
	}
	if cfg.GridType.UsesFile() && cfg.SkyGridFile == "" {
		log.Error(ctx, "no sky-grid file specified")
		return nil, fmt.Errorf("InitSkyScan: %w", ErrNoGridFile)
	}

	ctx, span := startSpan(ctx, "skygrid.BuildSkyGrid", cfg.GridType.String())
	defer func() { endSpan(span, err) }()

	start := time.Now()
	scan := &SkyScan{log: log, metrics: cfg.Metrics}

	if !cfg.GridType.UsesFile() {
		region, err := ParseSkyRegion(cfg.SkyRegion)
		if err != nil {
			scan.observe(cfg.GridType, "error", 0, start)
			return nil, fmt.Errorf("InitSkyScan: %w", err)
		}
		scan.region = *region
	}

	grid, err := buildSkyGrid(ctx, &scan.region, cfg)
	if err != nil {
		scan.observe(cfg.GridType, "error", 0, start)
		return nil, fmt.Errorf("InitSkyScan: %w", err)
	}

	if len(grid) == 0 {
		if len(scan.region.Vertices) == 0 {
			scan.observe(cfg.GridType, "error", 0, start)
			return nil, fmt.Errorf("InitSkyScan: empty sky grid and no region to fall back on: %w", ErrGridFileFormat)
		}
		v := scan.region.Vertices[0]
		log.Info(ctx, "no grid points inside sky region; using first region vertex",
			logging.Float64("alpha", v.Longitude),
			logging.Float64("delta", v.Latitude),
		)
		grid = SkyGrid{{Longitude: v.Longitude, Latitude: v.Latitude, System: model.CoordinateSystemEquatorial}}
	}
	scan.grid = grid

	first := model.DopplerParams{Alpha: grid[0].Longitude, Delta: grid[0].Latitude}
	first.Fkdot[0] = cfg.Freq
	spacings, err := GridSpacings(first, cfg)
	if err != nil {
		scan.observe(cfg.GridType, "error", len(grid), start)
		return nil, fmt.Errorf("InitSkyScan: %w", err)
	}
	log.Debug(ctx, "theoretical spacings in frequency and spin-down",
		logging.Float64("dfreq", spacings.Fkdot[0]),
		logging.Float64("df1dot", spacings.Fkdot[1]),
		logging.Float64("df2dot", spacings.Fkdot[2]),
		logging.Float64("df3dot", spacings.Fkdot[3]),
	)
	scan.DFreq = spacings.Fkdot[0]
	scan.DF1dot = spacings.Fkdot[1]

	scan.state = model.StateReady
	scan.observe(cfg.GridType, "ok", len(grid), start)
	log.Info(ctx, "sky grid built",
		logging.String("grid_type", cfg.GridType.String()),
		logging.Int("points", len(grid)),
	)
	return scan, nil
}

func buildSkyGrid(ctx context.Context, region *model.SkyRegion, cfg SkyScanConfig) (SkyGrid, error) {
	switch cfg.GridType {
	case model.GridFlat:
		return BuildFlatSkyGrid(region, cfg.DAlpha, cfg.DDelta)
	case model.GridIsotropic:
		return BuildIsotropicSkyGrid(region, cfg.DAlpha, cfg.DDelta)
	case model.GridMetric:
		return BuildMetricSkyGrid(ctx, region, cfg)
	case model.GridFile, model.GridMetricSkyFile:
		return LoadSkyGridFile(cfg.SkyGridFile)
	default:
		return nil, fmt.Errorf("grid type %d: %w", int(cfg.GridType), ErrUnknownGridType)
	}
}

func (s *SkyScan) observe(gridType model.GridType, outcome string, points int, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveGridBuild(gridType.String(), outcome, points, time.Since(start))
}

// Next returns the next sky point. Once the grid is exhausted the scan moves
// to the finished state and Next returns false. Calling Next on a scan that is
// not ready returns ErrScanNotReady.
func (s *SkyScan) Next() (model.DopplerParams, bool, error) {
	if s == nil || s.state != model.StateReady {
		return model.DopplerParams{}, false, fmt.Errorf("SkyScan.Next: %w", ErrScanNotReady)
	}
	if s.cursor >= len(s.grid) {
		s.state = model.StateFinished
		return model.DopplerParams{}, false, nil
	}
	p := s.grid[s.cursor]
	s.cursor++
	if s.metrics != nil {
		s.metrics.AddScanPoints(1)
	}
	return model.DopplerParams{Alpha: p.Longitude, Delta: p.Latitude}, true, nil
}

// Close releases the grid and returns the scan to the idle state.
func (s *SkyScan) Close(ctx context.Context) error {
	if s == nil || s.state == model.StateIdle {
		return fmt.Errorf("SkyScan.Close: %w", ErrScanNotReady)
	}
	if s.state == model.StateReady {
		s.log.Warn(ctx, "closing unfinished sky scan",
			logging.Int("remaining", len(s.grid)-s.cursor),
		)
	}
	s.grid = nil
	s.cursor = 0
	s.region = model.SkyRegion{}
	s.state = model.StateIdle
	return nil
}

// State reports where the scan is in its lifecycle.
func (s *SkyScan) State() model.ScanState { return s.state }

// Grid returns the sky grid. The slice is owned by the scan.
func (s *SkyScan) Grid() SkyGrid { return s.grid }

// NumPoints returns the number of points in the grid.
func (s *SkyScan) NumPoints() int { return len(s.grid) }

// Region returns the parsed sky region. It is empty for file grids.
func (s *SkyScan) Region() model.SkyRegion { return s.region }
