package config

import "errors"

// Configuration validation errors returned by Config.Validate. Callers match
// them with errors.Is.
var (
	// ErrInvalidGridType is returned for a grid type other than flat,
	// isotropic, metric, file or metric-skyfile.
	ErrInvalidGridType = errors.New("invalid grid type")

	// ErrNoSkyRegion is returned when a region-based grid has no sky region.
	ErrNoSkyRegion = errors.New("no sky region specified")

	// ErrNoSkyGridFile is returned when a file-based grid has no grid file.
	ErrNoSkyGridFile = errors.New("no sky-grid file specified")

	// ErrInvalidSkyStep is returned when a flat or isotropic grid has a
	// non-positive sky step.
	ErrInvalidSkyStep = errors.New("invalid sky step: must be positive")

	// ErrInvalidMetricType is returned for an unknown metric type name.
	ErrInvalidMetricType = errors.New("invalid metric type")

	// ErrMetricRequired is returned when a metric grid type is configured
	// with metric type "none".
	ErrMetricRequired = errors.New("metric grid types need a metric type")

	// ErrInvalidMismatch is returned when a metric grid has a non-positive
	// mismatch.
	ErrInvalidMismatch = errors.New("invalid mismatch: must be positive")

	// ErrInvalidMeshOrder is returned for a mesh order other than
	// alpha-delta or delta-alpha.
	ErrInvalidMeshOrder = errors.New("invalid mesh order")

	// ErrUnknownDetector is returned for a detector name with no known site.
	ErrUnknownDetector = errors.New("unknown detector")

	// ErrInvalidDuration is returned when the observation span is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")

	// ErrNegativeLimit is returned for a negative mesh-node or sample limit.
	ErrNegativeLimit = errors.New("invalid limit: must be non-negative")

	// ErrTooManySpins is returned when more spin orders are given than are
	// tracked.
	ErrTooManySpins = errors.New("too many spin orders")

	// ErrNegativeBand is returned for a negative spin band.
	ErrNegativeBand = errors.New("invalid spin band: must be non-negative")

	// ErrNegativeStep is returned for a negative spin step.
	ErrNegativeStep = errors.New("invalid spin step: must be non-negative")
)
