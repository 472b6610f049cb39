package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/skygrid/internal/logging"
	"github.com/signalsfoundry/skygrid/model"
)

// FullScanConfig describes a scan over sky, frequency and spin-downs.
type FullScanConfig struct {
	GridType     model.GridType
	MetricType   model.MetricType
	Mismatch     float64
	Evaluator    MetricEvaluator
	MeshOrder    MeshOrder
	MaxMeshNodes int
	SkyGridFile  string

	// SearchRegion holds the sky region and the spin intervals to cover.
	SearchRegion model.DopplerRegion
	// Spacings supplies the flat/isotropic sky steps in Alpha and Delta. A
	// non-zero Fkdot[k] overrides the computed step for spin order k.
	Spacings model.DopplerParams

	Epoch    time.Time // start of the observation
	Duration time.Duration
	Detector model.Detector

	Logger  logging.Logger
	Metrics GridMetrics
}

// FullScan steps through the product of a sky grid and fixed-step counters
// over frequency and spin-downs. The sky is the slowest-changing dimension and
// the highest spin-down order the fastest.
type FullScan struct {
	state     model.ScanState
	sky       *SkyScan
	spinRange model.SpinRange
	steps     model.PulsarSpins
	counters  [model.MaxSpins]int
	skyPos    model.SkyPosition
	started   bool

	log logging.Logger
}

// InitFullScan builds the sky grid with the frequency dimension projected out
// of the metric and sets the spin steps: the sky scan's theoretical spacings
// for f0 and f1dot, replaced by any non-zero user spacing.
func InitFullScan(ctx context.Context, cfg FullScanConfig) (_ *FullScan, err error) {
	ctx, log := logging.WithScanLogger(ctx, cfg.Logger)

	ctx, span := startSpan(ctx, "skygrid.InitFullScan", cfg.GridType.String(),
		attribute.String("scan_id", logging.ScanIDFromContext(ctx)),
	)
	defer func() { endSpan(span, err) }()

	region := cfg.SearchRegion
	log.Debug(ctx, "setting up template sky grid")
	sky, err := InitSkyScan(ctx, SkyScanConfig{
		GridType:      cfg.GridType,
		SkyRegion:     region.SkyRegionString,
		SkyGridFile:   cfg.SkyGridFile,
		DAlpha:        cfg.Spacings.Alpha,
		DDelta:        cfg.Spacings.Delta,
		MetricType:    cfg.MetricType,
		Mismatch:      cfg.Mismatch,
		ProjectMetric: true,
		Evaluator:     cfg.Evaluator,
		MeshOrder:     cfg.MeshOrder,
		MaxMeshNodes:  cfg.MaxMeshNodes,
		Epoch:         cfg.Epoch,
		Duration:      cfg.Duration,
		Detector:      cfg.Detector,
		Freq:          region.Fkdot[0] + region.FkdotBand[0],
		Logger:        log,
		Metrics:       cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("InitFullScan: %w", err)
	}

	scan := &FullScan{
		sky: sky,
		spinRange: model.SpinRange{
			Epoch:     region.Epoch,
			Fkdot:     region.Fkdot,
			FkdotBand: region.FkdotBand,
		},
		log: log,
	}
	scan.steps[0] = sky.DFreq
	scan.steps[1] = sky.DF1dot
	for k, v := range cfg.Spacings.Fkdot {
		if v != 0 {
			scan.steps[k] = v
		}
	}
	log.Debug(ctx, "spin steps",
		logging.Float64("dfreq", scan.steps[0]),
		logging.Float64("df1dot", scan.steps[1]),
		logging.Float64("df2dot", scan.steps[2]),
		logging.Float64("df3dot", scan.steps[3]),
	)

	scan.state = model.StateReady
	return scan, nil
}

// active reports whether spin order k has more than one value to visit.
func (s *FullScan) active(k int) bool {
	return s.steps[k] > 0 && s.spinRange.FkdotBand[k] > 0
}

// carry advances the counter vector by one. Counters are visited from the
// highest spin-down order down to the frequency; a counter whose offset
// passes its band is reset and carries into the next one. It returns true
// when the carry runs off the frequency counter and the sky has to advance.
// The test is n*step <= band in floating point, so a band that is a whole
// number of steps only in decimal can lose its last value.
func (s *FullScan) carry() bool {
	for k := model.MaxSpins - 1; k >= 0; k-- {
		if !s.active(k) {
			continue
		}
		s.counters[k]++
		if float64(s.counters[k])*s.steps[k] <= s.spinRange.FkdotBand[k] {
			return false
		}
		s.counters[k] = 0
	}
	return true
}

// advanceSky moves to the next sky point. It returns false when the sky grid
// is exhausted.
func (s *FullScan) advanceSky() (bool, error) {
	p, ok, err := s.sky.Next()
	if err != nil {
		s.log.Error(context.Background(), "sky stepping failed", logging.Err(err))
		return false, err
	}
	if !ok {
		return false, nil
	}
	s.skyPos = NormalizeSkyPosition(model.SkyPosition{
		Longitude: p.Alpha,
		Latitude:  p.Delta,
		System:    model.CoordinateSystemEquatorial,
	})
	return true, nil
}

// Next returns the next point of the full grid, or false once every sky
// point has been combined with every spin value. Calling Next on a scan that
// is not ready returns ErrScanNotReady.
func (s *FullScan) Next() (model.DopplerParams, bool, error) {
	if s == nil || s.state != model.StateReady {
		return model.DopplerParams{}, false, fmt.Errorf("FullScan.Next: %w", ErrScanNotReady)
	}

	needSky := !s.started
	if s.started {
		needSky = s.carry()
	}
	if needSky {
		ok, err := s.advanceSky()
		if err != nil {
			return model.DopplerParams{}, false, fmt.Errorf("FullScan.Next: %w", err)
		}
		if !ok {
			s.state = model.StateFinished
			return model.DopplerParams{}, false, nil
		}
		s.started = true
	}

	pos := model.DopplerParams{Alpha: s.skyPos.Longitude, Delta: s.skyPos.Latitude}
	for k := range pos.Fkdot {
		pos.Fkdot[k] = s.spinRange.Fkdot[k] + float64(s.counters[k])*s.steps[k]
	}
	return pos, true, nil
}

// Close releases the sky grid and returns the scan to the idle state.
func (s *FullScan) Close(ctx context.Context) error {
	if s == nil || s.state == model.StateIdle {
		return fmt.Errorf("FullScan.Close: %w", ErrScanNotReady)
	}
	if s.state == model.StateReady {
		s.log.Warn(ctx, "closing unfinished full scan")
	}
	if s.sky != nil && s.sky.State() != model.StateIdle {
		if err := s.sky.Close(ctx); err != nil {
			return fmt.Errorf("FullScan.Close: %w", err)
		}
	}
	s.counters = [model.MaxSpins]int{}
	s.started = false
	s.state = model.StateIdle
	return nil
}

// State reports where the scan is in its lifecycle.
func (s *FullScan) State() model.ScanState { return s.state }

// Steps returns the step size used for each spin order.
func (s *FullScan) Steps() model.PulsarSpins { return s.steps }

// SpinRange returns the searched spin intervals.
func (s *FullScan) SpinRange() model.SpinRange { return s.spinRange }

// SkyScan returns the underlying sky iterator.
func (s *FullScan) SkyScan() *SkyScan { return s.sky }
