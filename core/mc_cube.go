package core

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/signalsfoundry/skygrid/model"
)

// orbitalBeta is v_orb/c for the Earth's orbit.
const orbitalBeta = 1e-4

// MCDopplerCube returns a small search region around signal holding roughly
// pointsPerDim grid points per unprojected dimension, for Monte-Carlo tests of
// the grid.
//
// The cube is shifted by a random fraction of one cell in every dimension so
// that the signal does not sit at a fixed place in the grid. With a projected
// metric the frequency band is widened to the Doppler window
// 2*f*1e-4*smajor of the sky ellipse, if that is larger. pointsPerDim == 0
// gives the signal location itself with no randomization.
//
// A nil rng draws from the global source.
func MCDopplerCube(signal model.DopplerParams, pointsPerDim int, cfg SkyScanConfig, rng *rand.Rand) (model.DopplerRegion, error) {
	if pointsPerDim < 0 {
		return model.DopplerRegion{}, fmt.Errorf("MCDopplerCube: %d points per dimension", pointsPerDim)
	}

	sp, err := GridSpacings(signal, cfg)
	if err != nil {
		return model.DopplerRegion{}, fmt.Errorf("MCDopplerCube: %w", err)
	}
	dAlpha, dDelta, dFreq, df1dot := sp.Alpha, sp.Delta, sp.Fkdot[0], sp.Fkdot[1]

	numSteps := float64(pointsPerDim)
	if pointsPerDim > 0 {
		// Keeps the band just short of an extra grid point.
		numSteps -= 1e-4
	}

	alphaBand := dAlpha * numSteps
	deltaBand := dDelta * numSteps
	f1dotBand := df1dot * numSteps
	freqBand := dFreq * numSteps

	if pointsPerDim > 0 && cfg.ProjectMetric && cfg.GridType.UsesMetric() {
		window, err := dopplerWindow(signal, cfg)
		if err != nil {
			return model.DopplerRegion{}, fmt.Errorf("MCDopplerCube: %w", err)
		}
		freqBand = math.Max(freqBand, window)
	}

	alpha := signal.Alpha - 0.5*alphaBand
	delta := signal.Delta - 0.5*deltaBand
	freq := signal.Fkdot[0] - 0.5*freqBand
	f1dot := signal.Fkdot[1] - 0.5*f1dotBand

	if pointsPerDim > 0 {
		shift := rand.Float64
		if rng != nil {
			shift = rng.Float64
		}
		alpha += dAlpha * shift()
		delta += dDelta * shift()
		freq += dFreq * shift()
		f1dot += df1dot * shift()
	}

	sky, err := SkySquareToString(alpha, delta, alphaBand, deltaBand)
	if err != nil {
		return model.DopplerRegion{}, fmt.Errorf("MCDopplerCube: %w", err)
	}

	cube := model.DopplerRegion{SkyRegionString: sky, Epoch: cfg.Epoch}
	cube.Fkdot[0] = freq
	cube.FkdotBand[0] = freqBand
	cube.Fkdot[1] = f1dot
	cube.FkdotBand[1] = f1dotBand
	return cube, nil
}

// dopplerWindow bounds the frequency shift a signal can show between sky
// positions one projected-metric ellipse apart.
func dopplerWindow(signal model.DopplerParams, cfg SkyScanConfig) (float64, error) {
	freq := signal.Fkdot[0]
	if !(freq > 0) {
		return 0, fmt.Errorf("frequency %g: %w", freq, ErrInvalidFrequency)
	}
	g, err := cfg.Evaluator.Evaluate(MetricParams{
		Position: model.SkyPosition{
			Longitude: signal.Alpha,
			Latitude:  signal.Delta,
			System:    model.CoordinateSystemEquatorial,
		},
		Epoch:      cfg.Epoch,
		Duration:   cfg.Duration,
		Detector:   cfg.Detector,
		MaxFreq:    freq,
		Spindown:   []float64{signal.Fkdot[1] / freq},
		MetricType: cfg.MetricType,
	})
	if err != nil {
		return 0, err
	}
	if g, err = ProjectMetric(g, ParamFreq); err != nil {
		return 0, err
	}
	ellipse, err := MetricEllipseAt(g, ParamAlpha, cfg.Mismatch)
	if err != nil {
		return 0, err
	}
	return 2 * freq * orbitalBeta * ellipse.SemiMajor, nil
}
