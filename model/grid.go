package model

import (
	"fmt"
	"strings"
)

// GridType selects how the sky grid is generated.
type GridType int

const (
	// GridFlat uses fixed steps in longitude and latitude.
	GridFlat GridType = iota
	// GridIsotropic scales the longitude step by 1/cos(latitude).
	GridIsotropic
	// GridMetric covers the region with the 2-D metric mesh.
	GridMetric
	// GridFile reads the sky points from a file.
	GridFile
	// GridMetricSkyFile reads the sky points from a file but derives the
	// frequency/spin-down steps from the metric.
	GridMetricSkyFile
	gridLast
)

var gridTypeNames = [...]string{
	GridFlat:          "flat",
	GridIsotropic:     "isotropic",
	GridMetric:        "metric",
	GridFile:          "file",
	GridMetricSkyFile: "metric-skyfile",
}

func (g GridType) String() string {
	if g < 0 || g >= gridLast {
		return fmt.Sprintf("GridType(%d)", int(g))
	}
	return gridTypeNames[g]
}

// Valid reports whether g is a known grid type.
func (g GridType) Valid() bool { return g >= 0 && g < gridLast }

// UsesMetric reports whether step sizes are derived from the phase metric.
func (g GridType) UsesMetric() bool { return g == GridMetric || g == GridMetricSkyFile }

// UsesFile reports whether sky points come from a grid file.
func (g GridType) UsesFile() bool { return g == GridFile || g == GridMetricSkyFile }

// ParseGridType maps a name such as "flat" or "metric-skyfile" to a GridType.
func ParseGridType(s string) (GridType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range gridTypeNames {
		if n == name {
			return GridType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown grid type %q", s)
}

// MetricType selects the phase-metric approximation.
type MetricType int

const (
	MetricNone MetricType = iota
	// MetricPtoleNumeric is the Ptolemaic orbit + spin model averaged numerically.
	MetricPtoleNumeric
	metricLast
)

// Valid reports whether m names an actual metric.
func (m MetricType) Valid() bool { return m > MetricNone && m < metricLast }

func (m MetricType) String() string {
	switch m {
	case MetricNone:
		return "none"
	case MetricPtoleNumeric:
		return "ptole-numeric"
	default:
		return fmt.Sprintf("MetricType(%d)", int(m))
	}
}

// ParseMetricType maps "none" or "ptole-numeric" to a MetricType.
func ParseMetricType(s string) (MetricType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return MetricNone, nil
	case "ptole", "ptole-numeric":
		return MetricPtoleNumeric, nil
	default:
		return MetricNone, fmt.Errorf("unknown metric type %q", s)
	}
}

// ScanState is the lifecycle of a grid scan.
type ScanState int

const (
	StateIdle ScanState = iota
	StateReady
	StateFinished
)

func (s ScanState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("ScanState(%d)", int(s))
	}
}

// MetricEllipse is the iso-mismatch contour of a 2-D metric block.
// Angle is the orientation of the semi-major axis in (-pi/2, pi/2].
type MetricEllipse struct {
	SemiMajor float64
	SemiMinor float64
	Angle     float64
}
