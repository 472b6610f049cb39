package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/signalsfoundry/skygrid/core"
	"github.com/signalsfoundry/skygrid/internal/observability"
	"github.com/signalsfoundry/skygrid/model"
)

// Default configuration values.
const (
	// DefaultGridType is the fixed-step grid; it needs no metric.
	DefaultGridType = "flat"

	// DefaultDAlpha and DefaultDDelta are the flat/isotropic sky steps in radians.
	DefaultDAlpha = 0.01
	DefaultDDelta = 0.01

	// DefaultMismatch is the maximal metric mismatch between a signal and its
	// nearest grid point.
	DefaultMismatch = 0.02

	// DefaultMetricType is used by the metric grid types.
	DefaultMetricType = "ptole-numeric"

	// DefaultMeshOrder builds metric-mesh columns in latitude.
	DefaultMeshOrder = "delta-alpha"

	// DefaultDetector is the observing site for the metric.
	DefaultDetector = "LHO"

	// DefaultDuration is the observation span the metric refers to.
	DefaultDuration = 10 * time.Hour

	// AppName is the application name used for XDG directory paths.
	AppName = "skygrid"
)

// Config holds a scan description. It is loaded from YAML and overridden by
// CLI flags, then converted into core configuration.
type Config struct {
	GridType    string  `yaml:"grid_type"`
	SkyRegion   string  `yaml:"sky_region"`
	SkyGridFile string  `yaml:"sky_grid_file"`
	DAlpha      float64 `yaml:"d_alpha"`
	DDelta      float64 `yaml:"d_delta"`

	MetricType    string  `yaml:"metric_type"`
	Mismatch      float64 `yaml:"mismatch"`
	MeshOrder     string  `yaml:"mesh_order"`
	MaxMeshNodes  int     `yaml:"max_mesh_nodes"`
	MetricSamples int     `yaml:"metric_samples"`

	Detector string        `yaml:"detector"`
	Epoch    time.Time     `yaml:"epoch"`
	Duration time.Duration `yaml:"duration"`

	// Fkdot and FkdotBand give the searched interval per spin order,
	// starting with the frequency. FkdotSteps overrides the computed steps
	// where non-zero.
	Fkdot      []float64 `yaml:"fkdot"`
	FkdotBand  []float64 `yaml:"fkdot_band"`
	FkdotSteps []float64 `yaml:"fkdot_steps"`

	// Tracing is overridden by the SKYGRID_TRACING_* environment variables.
	Tracing observability.TracingConfig `yaml:"tracing"`
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		GridType:   DefaultGridType,
		DAlpha:     DefaultDAlpha,
		DDelta:     DefaultDDelta,
		MetricType: DefaultMetricType,
		Mismatch:   DefaultMismatch,
		MeshOrder:  DefaultMeshOrder,
		Detector:   DefaultDetector,
		Duration:   DefaultDuration,
		Tracing:    observability.DefaultTracingConfig(),
	}
}

// XDGConfigDir returns the XDG config directory for skygrid.
// On Linux: ~/.config/skygrid
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	gridType, err := model.ParseGridType(c.GridType)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidGridType, c.GridType)
	}
	if gridType.UsesFile() {
		if c.SkyGridFile == "" {
			return ErrNoSkyGridFile
		}
	} else if strings.TrimSpace(c.SkyRegion) == "" {
		return ErrNoSkyRegion
	}
	if (gridType == model.GridFlat || gridType == model.GridIsotropic) && (c.DAlpha <= 0 || c.DDelta <= 0) {
		return ErrInvalidSkyStep
	}

	metricType, err := model.ParseMetricType(c.MetricType)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMetricType, c.MetricType)
	}
	if gridType.UsesMetric() {
		if !metricType.Valid() {
			return ErrMetricRequired
		}
		if c.Mismatch <= 0 {
			return ErrInvalidMismatch
		}
	}
	if _, err := parseMeshOrder(c.MeshOrder); err != nil {
		return err
	}
	if _, ok := model.DetectorByName(c.Detector); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDetector, c.Detector)
	}
	if c.Duration <= 0 {
		return ErrInvalidDuration
	}
	if c.MaxMeshNodes < 0 || c.MetricSamples < 0 {
		return ErrNegativeLimit
	}

	for _, list := range [][]float64{c.Fkdot, c.FkdotBand, c.FkdotSteps} {
		if len(list) > model.MaxSpins {
			return ErrTooManySpins
		}
	}
	for _, v := range c.FkdotBand {
		if v < 0 {
			return ErrNegativeBand
		}
	}
	for _, v := range c.FkdotSteps {
		if v < 0 {
			return ErrNegativeStep
		}
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// TracingConfig returns the tracing section with the environment applied.
func (c *Config) TracingConfig() observability.TracingConfig {
	return c.Tracing.WithEnv()
}

// ToSkyScanConfig converts the configuration into a sky-scan description
// evaluated at the top of the frequency band. Logger and metrics are left for
// the caller to set.
func (c *Config) ToSkyScanConfig() (core.SkyScanConfig, error) {
	if err := c.Validate(); err != nil {
		return core.SkyScanConfig{}, err
	}
	full, err := c.ToFullScanConfig()
	if err != nil {
		return core.SkyScanConfig{}, err
	}
	region := full.SearchRegion
	return core.SkyScanConfig{
		GridType:      full.GridType,
		SkyRegion:     region.SkyRegionString,
		SkyGridFile:   full.SkyGridFile,
		DAlpha:        full.Spacings.Alpha,
		DDelta:        full.Spacings.Delta,
		MetricType:    full.MetricType,
		Mismatch:      full.Mismatch,
		ProjectMetric: true,
		Evaluator:     full.Evaluator,
		MeshOrder:     full.MeshOrder,
		MaxMeshNodes:  full.MaxMeshNodes,
		Epoch:         full.Epoch,
		Duration:      full.Duration,
		Detector:      full.Detector,
		Freq:          region.Fkdot[0] + region.FkdotBand[0],
	}, nil
}

// ToFullScanConfig converts the configuration into a full-scan description.
// Logger and metrics are left for the caller to set.
func (c *Config) ToFullScanConfig() (core.FullScanConfig, error) {
	if err := c.Validate(); err != nil {
		return core.FullScanConfig{}, err
	}
	gridType, _ := model.ParseGridType(c.GridType)
	metricType, _ := model.ParseMetricType(c.MetricType)
	order, _ := parseMeshOrder(c.MeshOrder)
	det, _ := model.DetectorByName(c.Detector)

	region := model.DopplerRegion{SkyRegionString: c.SkyRegion, Epoch: c.Epoch}
	copy(region.Fkdot[:], c.Fkdot)
	copy(region.FkdotBand[:], c.FkdotBand)

	spacings := model.DopplerParams{Alpha: c.DAlpha, Delta: c.DDelta}
	copy(spacings.Fkdot[:], c.FkdotSteps)

	return core.FullScanConfig{
		GridType:     gridType,
		MetricType:   metricType,
		Mismatch:     c.Mismatch,
		Evaluator:    core.PtoleMetric{Samples: c.MetricSamples},
		MeshOrder:    order,
		MaxMeshNodes: c.MaxMeshNodes,
		SkyGridFile:  c.SkyGridFile,
		SearchRegion: region,
		Spacings:     spacings,
		Epoch:        c.Epoch,
		Duration:     c.Duration,
		Detector:     det,
	}, nil
}

func parseMeshOrder(s string) (core.MeshOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "delta-alpha":
		return core.OrderDeltaAlpha, nil
	case "alpha-delta":
		return core.OrderAlphaDelta, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMeshOrder, s)
	}
}
