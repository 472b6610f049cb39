package core

import (
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/skygrid/model"
)

// Metric is a symmetric tensor over the ordered parameters
// {f, alpha, delta, f1, f2, ...}, stored as its upper triangle.
// Component (i, j) with i <= j lives at MetricIndex(i, j).
type Metric []float64

// Parameter indices in a Metric.
const (
	ParamFreq  = 0
	ParamAlpha = 1
	ParamDelta = 2
	ParamF1    = 3
)

// MetricIndex returns the storage index of component (i, j).
func MetricIndex(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i + j*(j+1)/2
}

// MetricLength returns the storage size for a dim-dimensional metric.
func MetricLength(dim int) int {
	return dim * (dim + 1) / 2
}

// Dim returns the number of parameters the metric covers.
func (g Metric) Dim() int {
	d := 0
	for MetricLength(d+1) <= len(g) {
		d++
	}
	return d
}

// At returns component (i, j).
func (g Metric) At(i, j int) float64 {
	return g[MetricIndex(i, j)]
}

// MetricParams are the inputs of a phase-metric evaluation.
type MetricParams struct {
	Position model.SkyPosition
	Epoch    time.Time
	Duration time.Duration
	Detector model.Detector
	MaxFreq  float64
	// Spindown holds the normalized spin-downs f_k = fkdot / freq. A nil slice
	// yields the 3-dimensional {f, alpha, delta} metric.
	Spindown   []float64
	MetricType model.MetricType
}

// MetricEvaluator computes the phase metric at a point in parameter space.
// Implementations are expected to be side-effect free.
type MetricEvaluator interface {
	Evaluate(p MetricParams) (Metric, error)
}

// MetricEvaluatorFunc adapts a plain function to MetricEvaluator.
type MetricEvaluatorFunc func(p MetricParams) (Metric, error)

// Evaluate calls f(p).
func (f MetricEvaluatorFunc) Evaluate(p MetricParams) (Metric, error) { return f(p) }

// ProjectMetric eliminates parameter dim from g:
//
//	g'_ij = g_ij - g_i,dim * g_j,dim / g_dim,dim
//
// Row and column dim of the result are zero. g is not modified.
func ProjectMetric(g Metric, dim int) (Metric, error) {
	n := g.Dim()
	if dim < 0 || dim >= n {
		return nil, fmt.Errorf("ProjectMetric: dimension %d outside %d-dimensional metric: %w", dim, n, ErrMetricTooShort)
	}
	gdd := g.At(dim, dim)
	if !(gdd > 0) {
		return nil, fmt.Errorf("ProjectMetric: g[%d][%d] = %g: %w", dim, dim, gdd, ErrNonPositiveMetric)
	}

	out := make(Metric, len(g))
	for j := 0; j < n; j++ {
		for i := 0; i <= j; i++ {
			if i == dim || j == dim {
				continue
			}
			out[MetricIndex(i, j)] = g.At(i, j) - g.At(i, dim)*g.At(j, dim)/gdd
		}
	}
	return out, nil
}

// MetricEllipseAt returns the iso-mismatch ellipse of the 2x2 block of g that
// starts at parameter dim0.
func MetricEllipseAt(g Metric, dim0 int, mismatch float64) (model.MetricEllipse, error) {
	dim := dim0 + 2
	if dim0 < 0 || len(g) < MetricLength(dim) {
		return model.MetricEllipse{}, fmt.Errorf("MetricEllipseAt: need %d components for block at %d, have %d: %w",
			MetricLength(dim), dim0, len(g), ErrMetricTooShort)
	}

	gaa := g.At(dim0, dim0)
	gad := g.At(dim0, dim0+1)
	gdd := g.At(dim0+1, dim0+1)

	root := math.Sqrt((gaa-gdd)*(gaa-gdd) + 4*gad*gad)
	large := gaa + gdd + root
	small := gaa + gdd - root
	if !(small > 0) || !(large > 0) {
		return model.MetricEllipse{}, fmt.Errorf("MetricEllipseAt: eigenvalues (%g, %g): %w", small, large, ErrNonPositiveMetric)
	}

	smin := math.Sqrt(2 * mismatch / large)
	smaj := math.Sqrt(2 * mismatch / small)

	angle := math.Atan2(gad, mismatch/smaj/smaj-gdd)
	if gad == 0 && gaa > gdd {
		// Diagonal block stretched along delta: the atan2 arguments are both zero.
		angle = math.Pi / 2
	}
	if angle <= -math.Pi/2 {
		angle += math.Pi
	}
	if angle > math.Pi/2 {
		angle -= math.Pi
	}

	return model.MetricEllipse{SemiMajor: smaj, SemiMinor: smin, Angle: angle}, nil
}

// skyBlockPositive reports whether the {alpha, delta} block of g is positive
// definite.
func skyBlockPositive(gaa, gdd, gad float64) bool {
	return gaa > 0 && gdd > 0 && gaa*gdd-gad*gad > 0
}
