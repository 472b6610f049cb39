package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GridCollector bundles Prometheus metrics for sky-grid construction and
// scanning. It satisfies core.GridMetrics.
type GridCollector struct {
	gatherer prometheus.Gatherer

	Builds          *prometheus.CounterVec
	BuildDurations  *prometheus.HistogramVec
	GridPoints      prometheus.Gauge
	PolygonDiscards prometheus.Counter
	ScanPoints      prometheus.Counter
}

// NewGridCollector registers grid metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewGridCollector(reg prometheus.Registerer) (*GridCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	builds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skygrid_builds_total",
		Help: "Total number of sky-grid builds, labeled by grid type and outcome.",
	}, []string{"grid_type", "outcome"})
	builds, err := registerCounterVec(reg, builds, "skygrid_builds_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skygrid_build_duration_seconds",
		Help:    "Sky-grid build time in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"grid_type"})
	durations, err = registerHistogramVec(reg, durations, "skygrid_build_duration_seconds")
	if err != nil {
		return nil, err
	}

	points, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skygrid_points",
		Help: "Number of points in the most recently built sky grid.",
	}), "skygrid_points")
	if err != nil {
		return nil, err
	}
	discards, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skygrid_polygon_discards_total",
		Help: "Metric-mesh nodes dropped because they fell outside the sky region.",
	}), "skygrid_polygon_discards_total")
	if err != nil {
		return nil, err
	}
	scanned, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skygrid_scan_points_total",
		Help: "Sky points handed out by sky scans.",
	}), "skygrid_scan_points_total")
	if err != nil {
		return nil, err
	}

	return &GridCollector{
		gatherer:        gatherer,
		Builds:          builds,
		BuildDurations:  durations,
		GridPoints:      points,
		PolygonDiscards: discards,
		ScanPoints:      scanned,
	}, nil
}

// ObserveGridBuild records one grid build. The point gauge is only updated for
// successful builds.
func (c *GridCollector) ObserveGridBuild(gridType, outcome string, points int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Builds != nil {
		c.Builds.WithLabelValues(gridType, outcome).Inc()
	}
	if c.BuildDurations != nil {
		c.BuildDurations.WithLabelValues(gridType).Observe(elapsed.Seconds())
	}
	if outcome == "ok" && c.GridPoints != nil {
		c.GridPoints.Set(float64(points))
	}
}

// AddPolygonDiscards counts mesh nodes removed by polygon clipping.
func (c *GridCollector) AddPolygonDiscards(n int) {
	if c == nil || c.PolygonDiscards == nil || n <= 0 {
		return
	}
	c.PolygonDiscards.Add(float64(n))
}

// AddScanPoints counts sky points returned by a scan.
func (c *GridCollector) AddScanPoints(n int) {
	if c == nil || c.ScanPoints == nil || n <= 0 {
		return
	}
	c.ScanPoints.Add(float64(n))
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *GridCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GridCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the collected metrics in the text exposition format, for
// pickup by the node-exporter textfile collector after a batch run.
func (c *GridCollector) WriteTextfile(path string) error {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
