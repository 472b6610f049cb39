// Package mesh lays a non-adaptive 2-D mesh over a region of the plane so
// that every point lies within a given metric mismatch of some node.
//
// The domain [x0, x1] is cut into columns. Each column's width is chosen from
// the metric at its centre to maximise the area of the parallelogram inscribed
// in the mismatch ellipse; nodes are then stacked along y, each one covering a
// parallelogram of that width whose height follows the local metric.
package mesh

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidParams     = errors.New("mesh: invalid parameters")
	ErrNonPositiveMetric = errors.New("mesh: metric is not positive definite")
	ErrTooManyNodes      = errors.New("mesh: node limit exceeded")
)

// Node is one mesh point. DX is the half-width of its column and DY the height
// of the cell it covers.
type Node struct {
	X, Y   float64
	DX, DY float64
}

// RangeFunc returns the y-interval to cover at a given x.
type RangeFunc func(x float64) (lo, hi float64)

// MetricFunc returns the metric components g_xx, g_yy and g_xy at (x, y).
type MetricFunc func(x, y float64) (gxx, gyy, gxy float64, err error)

// Params configures Build.
type Params struct {
	Domain   [2]float64
	Range    RangeFunc
	Metric   MetricFunc
	Mismatch float64
	MaxNodes int
}

// Build covers the region described by p and returns the nodes in column
// order, each column from low to high y.
func Build(p Params) ([]Node, error) {
	if p.Range == nil || p.Metric == nil {
		return nil, fmt.Errorf("Build: range and metric functions are required: %w", ErrInvalidParams)
	}
	if !(p.Mismatch > 0) {
		return nil, fmt.Errorf("Build: mismatch %g: %w", p.Mismatch, ErrInvalidParams)
	}
	if p.Domain[0] > p.Domain[1] {
		return nil, fmt.Errorf("Build: domain [%g, %g]: %w", p.Domain[0], p.Domain[1], ErrInvalidParams)
	}
	if p.MaxNodes <= 0 {
		return nil, fmt.Errorf("Build: max nodes %d: %w", p.MaxNodes, ErrInvalidParams)
	}

	var nodes []Node
	x := p.Domain[0]
	for {
		w, err := columnHalfWidth(p, x)
		if err != nil {
			return nil, err
		}

		xc := x + w
		if p.Domain[1]-x < 2*w {
			xc = 0.5 * (x + p.Domain[1])
		}

		nodes, err = buildColumn(p, nodes, xc, w)
		if err != nil {
			return nil, err
		}

		x += 2 * w
		if x >= p.Domain[1] {
			break
		}
	}
	return nodes, nil
}

// columnHalfWidth picks the half-width of the column starting at x from the
// metric at the middle of the column's y-range.
func columnHalfWidth(p Params, x float64) (float64, error) {
	lo, hi := p.Range(x)
	gxx, gyy, gxy, err := evalMetric(p, x, 0.5*(lo+hi))
	if err != nil {
		return 0, err
	}
	det := gxx*gyy - gxy*gxy
	w := math.Sqrt(gyy * p.Mismatch / (2 * det))
	if !(w > 0) || math.IsInf(w, 0) {
		return 0, fmt.Errorf("Build: column width %g at x=%g: %w", w, x, ErrNonPositiveMetric)
	}
	return w, nil
}

func buildColumn(p Params, nodes []Node, xc, w float64) ([]Node, error) {
	lo, hi := p.Range(xc)
	if lo > hi {
		lo, hi = hi, lo
	}

	y := lo
	for {
		dy, err := cellHeight(p, xc, y, w)
		if err != nil {
			return nil, err
		}
		yn := math.Min(y+0.5*dy, hi)

		if len(nodes) >= p.MaxNodes {
			return nil, fmt.Errorf("Build: more than %d nodes: %w", p.MaxNodes, ErrTooManyNodes)
		}
		nodes = append(nodes, Node{X: xc, Y: yn, DX: w, DY: dy})

		y += dy
		if y >= hi {
			return nodes, nil
		}
	}
}

// cellHeight is the height of the parallelogram of half-width w inscribed in
// the mismatch ellipse at (x, y).
func cellHeight(p Params, x, y, w float64) (float64, error) {
	gxx, gyy, gxy, err := evalMetric(p, x, y)
	if err != nil {
		return 0, err
	}
	det := gxx*gyy - gxy*gxy
	arg := gyy*p.Mismatch - w*w*det
	if arg <= 0 {
		// The metric changed enough along the column that the ellipse no longer
		// spans the column; use the height at the locally optimal width.
		arg = 0.5 * gyy * p.Mismatch
	}
	dy := 2 * math.Sqrt(arg) / gyy
	if !(dy > 0) || math.IsInf(dy, 0) {
		return 0, fmt.Errorf("Build: cell height %g at (%g, %g): %w", dy, x, y, ErrNonPositiveMetric)
	}
	return dy, nil
}

func evalMetric(p Params, x, y float64) (gxx, gyy, gxy float64, err error) {
	gxx, gyy, gxy, err = p.Metric(x, y)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("Build: metric at (%g, %g): %w", x, y, err)
	}
	if !(gxx > 0) || !(gyy > 0) || !(gxx*gyy-gxy*gxy > 0) {
		return 0, 0, 0, fmt.Errorf("Build: metric (%g, %g, %g) at (%g, %g): %w", gxx, gyy, gxy, x, y, ErrNonPositiveMetric)
	}
	return gxx, gyy, gxy, nil
}
