package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/skygrid/model"
)

// GridSpacings estimates the grid steps at point.
//
// Metric grid types use the phase metric: the frequency step comes from the
// unprojected metric, the spin-down and sky steps from the (optionally)
// projected one. Each step is 2*sqrt(mismatch/g) for the matching diagonal
// component. Other grid types fall back to 1/(2T) and 1/(2T^2) for frequency and
// spin-down, with the sky steps copied from cfg.
func GridSpacings(point model.DopplerParams, cfg SkyScanConfig) (model.DopplerParams, error) {
	var out model.DopplerParams

	if !cfg.GridType.UsesMetric() {
		t := cfg.Duration.Seconds()
		out.Alpha = cfg.DAlpha
		out.Delta = cfg.DDelta
		if t > 0 {
			out.Fkdot[0] = 1 / (2 * t)
			out.Fkdot[1] = 1 / (2 * t * t)
		}
		return out, nil
	}

	if cfg.Evaluator == nil {
		return out, fmt.Errorf("GridSpacings: %w", ErrNoMetricEvaluator)
	}
	if !cfg.MetricType.Valid() {
		return out, fmt.Errorf("GridSpacings: metric type %v: %w", cfg.MetricType, ErrInvalidMetricType)
	}
	freq := point.Fkdot[0]
	if !(freq > 0) {
		return out, fmt.Errorf("GridSpacings: frequency %g: %w", freq, ErrInvalidFrequency)
	}

	pos := NormalizeSkyPosition(model.SkyPosition{
		Longitude: point.Alpha,
		Latitude:  point.Delta,
		System:    model.CoordinateSystemEquatorial,
	})
	g, err := cfg.Evaluator.Evaluate(MetricParams{
		Position:   pos,
		Epoch:      cfg.Epoch,
		Duration:   cfg.Duration,
		Detector:   cfg.Detector,
		MaxFreq:    freq,
		Spindown:   []float64{point.Fkdot[1] / freq},
		MetricType: cfg.MetricType,
	})
	if err != nil {
		return out, fmt.Errorf("GridSpacings: %w", err)
	}
	if len(g) < MetricLength(ParamF1+1) {
		return out, fmt.Errorf("GridSpacings: metric with %d components: %w", len(g), ErrMetricTooShort)
	}

	m := cfg.Mismatch
	dFreq, err := stepFromMetric(m, g.At(ParamFreq, ParamFreq), "f0")
	if err != nil {
		return out, err
	}
	out.Fkdot[0] = dFreq

	if cfg.ProjectMetric {
		if g, err = ProjectMetric(g, ParamFreq); err != nil {
			return out, fmt.Errorf("GridSpacings: %w", err)
		}
	}

	df1, err := stepFromMetric(m, g.At(ParamF1, ParamF1), "f1")
	if err != nil {
		return out, err
	}
	out.Fkdot[1] = freq * df1

	if out.Alpha, err = stepFromMetric(m, g.At(ParamAlpha, ParamAlpha), "alpha"); err != nil {
		return out, err
	}
	if out.Delta, err = stepFromMetric(m, g.At(ParamDelta, ParamDelta), "delta"); err != nil {
		return out, err
	}
	return out, nil
}

func stepFromMetric(mismatch, gii float64, name string) (float64, error) {
	if !(gii > 0) {
		return 0, fmt.Errorf("GridSpacings: g_%s = %g: %w", name, gii, ErrNonPositiveMetric)
	}
	return 2 * math.Sqrt(mismatch/gii), nil
}
