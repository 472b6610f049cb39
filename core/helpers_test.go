package core

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/signalsfoundry/skygrid/internal/logging"
	"github.com/signalsfoundry/skygrid/model"
)

// diagMetric returns a diagonal metric with the given diagonal.
func diagMetric(diag ...float64) Metric {
	g := make(Metric, MetricLength(len(diag)))
	for i, v := range diag {
		g[MetricIndex(i, i)] = v
	}
	return g
}

// constEvaluator returns a diagonal metric over {f, alpha, delta, f1, ...}
// that does not depend on the sky position. Spin-down entries repeat g11.
func constEvaluator(gff, gaa, gdd, g11 float64) MetricEvaluator {
	return MetricEvaluatorFunc(func(p MetricParams) (Metric, error) {
		diag := []float64{gff, gaa, gdd}
		for range p.Spindown {
			diag = append(diag, g11)
		}
		return diagMetric(diag...), nil
	})
}

type recordingMetrics struct {
	mu       sync.Mutex
	builds   []string
	points   []int
	discards int
	scanned  int
}

func (r *recordingMetrics) ObserveGridBuild(gridType, outcome string, points int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds = append(r.builds, gridType+"/"+outcome)
	r.points = append(r.points, points)
}

func (r *recordingMetrics) AddPolygonDiscards(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discards += n
}

func (r *recordingMetrics) AddScanPoints(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanned += n
}

// countingLogger counts messages per level.
type countingLogger struct {
	mu     sync.Mutex
	counts map[string]int
	msgs   []string
}

func newCountingLogger() *countingLogger {
	return &countingLogger{counts: map[string]int{}}
}

func (c *countingLogger) record(level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[level]++
	c.msgs = append(c.msgs, msg)
}

func (c *countingLogger) Debug(_ context.Context, msg string, _ ...logging.Field) { c.record("debug", msg) }
func (c *countingLogger) Info(_ context.Context, msg string, _ ...logging.Field)  { c.record("info", msg) }
func (c *countingLogger) Warn(_ context.Context, msg string, _ ...logging.Field)  { c.record("warn", msg) }
func (c *countingLogger) Error(_ context.Context, msg string, _ ...logging.Field) { c.record("error", msg) }
func (c *countingLogger) With(...logging.Field) logging.Logger                  { return c }

func (c *countingLogger) count(level string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[level]
}

func (c *countingLogger) logged(msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.msgs {
		if m == msg {
			return true
		}
	}
	return false
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func eqPos(lon, lat float64) model.SkyPosition {
	return model.SkyPosition{Longitude: lon, Latitude: lat, System: model.CoordinateSystemEquatorial}
}
