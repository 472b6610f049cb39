package core

import "errors"

// Input errors.
var (
	ErrInvalidSkyRegion  = errors.New("core: malformed sky-region string")
	ErrTwoVertexRegion   = errors.New("core: sky region with 2 vertices is not a polygon")
	ErrNoSkyRegion       = errors.New("core: no sky region specified")
	ErrNoGridFile        = errors.New("core: no sky-grid file specified")
	ErrGridFileFormat    = errors.New("core: malformed sky-grid file")
	ErrInvalidStep       = errors.New("core: grid step must be positive")
	ErrUnknownGridType   = errors.New("core: unknown grid type")
	ErrInvalidMetricType = errors.New("core: invalid metric type")
	ErrInvalidSkySquare  = errors.New("core: sky square must be a point or a 2-D region")
	ErrNoMetricEvaluator = errors.New("core: metric grid requested without a metric evaluator")
	ErrInvalidFrequency  = errors.New("core: metric frequency must be positive")
	ErrInvalidDuration   = errors.New("core: observation duration must be positive")
)

// Numerical errors.
var (
	ErrNonPositiveMetric = errors.New("core: metric is not positive definite")
	ErrMetricTooShort    = errors.New("core: metric has too few components")
)

// ErrScanNotReady is returned when a scan is stepped or released in the wrong state.
// It signals a programming error rather than bad input data.
var ErrScanNotReady = errors.New("core: scan is not in ready state")
