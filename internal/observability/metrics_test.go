package observability

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveGridBuildRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGridCollector(reg)
	if err != nil {
		t.Fatalf("NewGridCollector: %v", err)
	}

	collector.ObserveGridBuild("flat", "ok", 42, 15*time.Millisecond)

	if got := testutil.ToFloat64(collector.Builds.WithLabelValues("flat", "ok")); got != 1 {
		t.Fatalf("skygrid_builds_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.GridPoints); got != 42 {
		t.Fatalf("skygrid_points = %v, want 42", got)
	}
	if count := histogramSampleCount(t, reg, "skygrid_build_duration_seconds", map[string]string{
		"grid_type": "flat",
	}); count != 1 {
		t.Fatalf("skygrid_build_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestObserveGridBuildErrorKeepsPointGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGridCollector(reg)
	if err != nil {
		t.Fatalf("NewGridCollector: %v", err)
	}

	collector.ObserveGridBuild("metric", "ok", 7, time.Millisecond)
	collector.ObserveGridBuild("metric", "error", 0, time.Millisecond)

	if got := testutil.ToFloat64(collector.Builds.WithLabelValues("metric", "error")); got != 1 {
		t.Fatalf("skygrid_builds_total error label = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.GridPoints); got != 7 {
		t.Fatalf("skygrid_points = %v, want 7", got)
	}
}

func TestCountersIgnoreNonPositive(t *testing.T) {
	collector, err := NewGridCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewGridCollector: %v", err)
	}
	collector.AddPolygonDiscards(3)
	collector.AddPolygonDiscards(0)
	collector.AddScanPoints(5)
	collector.AddScanPoints(-1)

	if got := testutil.ToFloat64(collector.PolygonDiscards); got != 3 {
		t.Fatalf("skygrid_polygon_discards_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.ScanPoints); got != 5 {
		t.Fatalf("skygrid_scan_points_total = %v, want 5", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *GridCollector
	c.ObserveGridBuild("flat", "ok", 1, time.Second)
	c.AddPolygonDiscards(1)
	c.AddScanPoints(1)
	if c.Gatherer() != nil {
		t.Fatalf("nil collector Gatherer() should be nil")
	}
}

func TestNewGridCollectorReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewGridCollector(reg)
	if err != nil {
		t.Fatalf("NewGridCollector: %v", err)
	}
	second, err := NewGridCollector(reg)
	if err != nil {
		t.Fatalf("second NewGridCollector: %v", err)
	}

	first.AddScanPoints(2)
	second.AddScanPoints(3)
	if got := testutil.ToFloat64(first.ScanPoints); got != 5 {
		t.Fatalf("shared skygrid_scan_points_total = %v, want 5", got)
	}
}

func TestMetricsHandlerExposesGridMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGridCollector(reg)
	if err != nil {
		t.Fatalf("NewGridCollector: %v", err)
	}
	collector.ObserveGridBuild("isotropic", "ok", 12, time.Millisecond)
	collector.AddPolygonDiscards(1)
	collector.AddScanPoints(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"skygrid_builds_total",
		"skygrid_build_duration_seconds",
		"skygrid_points 12",
		"skygrid_polygon_discards_total",
		"skygrid_scan_points_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGridCollector(reg)
	if err != nil {
		t.Fatalf("NewGridCollector: %v", err)
	}
	collector.ObserveGridBuild("file", "ok", 3, time.Millisecond)

	path := filepath.Join(t.TempDir(), "skygrid.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `skygrid_builds_total{grid_type="file",outcome="ok"} 1`) {
		t.Fatalf("textfile missing build counter:\n%s", data)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
