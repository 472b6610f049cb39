package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalsfoundry/skygrid/internal/logging"
	"github.com/signalsfoundry/skygrid/model"
)

func flatScanConfig(region string) SkyScanConfig {
	return SkyScanConfig{
		GridType:  model.GridFlat,
		SkyRegion: region,
		DAlpha:    0.5,
		DDelta:    0.5,
		Duration:  10 * time.Second,
	}
}

func TestSkyScanLifecycle(t *testing.T) {
	ctx := context.Background()
	rec := &recordingMetrics{}
	cfg := flatScanConfig("(0,0),(1,0),(1,1),(0,1)")
	cfg.Metrics = rec

	scan, err := InitSkyScan(ctx, cfg)
	if err != nil {
		t.Fatalf("InitSkyScan: %v", err)
	}
	if scan.State() != model.StateReady {
		t.Fatalf("state = %v, want ready", scan.State())
	}
	if scan.NumPoints() != 9 {
		t.Fatalf("NumPoints = %d, want 9", scan.NumPoints())
	}
	if scan.DFreq != 0.05 || scan.DF1dot != 0.005 {
		t.Errorf("spacings = (%v, %v), want (0.05, 0.005)", scan.DFreq, scan.DF1dot)
	}

	n := 0
	for {
		p, ok, err := scan.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		if p.Alpha != scan.Grid()[n].Longitude || p.Delta != scan.Grid()[n].Latitude {
			t.Errorf("point %d = %+v, want %+v", n, p, scan.Grid()[n])
		}
		n++
	}
	if n != 9 {
		t.Errorf("stepped %d points, want 9", n)
	}
	if scan.State() != model.StateFinished {
		t.Errorf("state = %v, want finished", scan.State())
	}
	if _, _, err := scan.Next(); !errors.Is(err, ErrScanNotReady) {
		t.Errorf("Next after finish error = %v, want ErrScanNotReady", err)
	}

	if err := scan.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if scan.State() != model.StateIdle || scan.NumPoints() != 0 {
		t.Errorf("after Close: state %v, %d points", scan.State(), scan.NumPoints())
	}
	if err := scan.Close(ctx); !errors.Is(err, ErrScanNotReady) {
		t.Errorf("second Close error = %v, want ErrScanNotReady", err)
	}

	if len(rec.builds) != 1 || rec.builds[0] != "flat/ok" || rec.points[0] != 9 {
		t.Errorf("recorded builds = %v %v", rec.builds, rec.points)
	}
	if rec.scanned != 9 {
		t.Errorf("recorded scan points = %d, want 9", rec.scanned)
	}
}

func TestSkyScanEmptyGridFallsBackToVertex(t *testing.T) {
	// The lattice starts at the lower-left corner of the bounding box, which
	// lies outside this triangle, and the next lattice point is past the box.
	cfg := flatScanConfig("(0.1,0.2),(0.4,0.1),(0.4,0.2)")
	log := newCountingLogger()
	cfg.Logger = log

	scan, err := InitSkyScan(context.Background(), cfg)
	if err != nil {
		t.Fatalf("InitSkyScan: %v", err)
	}
	if scan.NumPoints() != 1 {
		t.Fatalf("NumPoints = %d, want 1", scan.NumPoints())
	}
	if got := scan.Grid()[0]; got != eqPos(0.1, 0.2) {
		t.Errorf("fallback point = %+v, want first vertex", got)
	}
	if !log.logged("no grid points inside sky region; using first region vertex") {
		t.Error("expected fallback to be logged")
	}
}

func TestSkyScanCloseUnfinishedWarns(t *testing.T) {
	ctx := context.Background()
	log := newCountingLogger()
	cfg := flatScanConfig("allsky")
	cfg.DAlpha, cfg.DDelta = 0.5, 0.5

	scan, err := InitSkyScan(logging.ContextWithLogger(ctx, log), cfg)
	if err != nil {
		t.Fatalf("InitSkyScan: %v", err)
	}
	if _, _, err := scan.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := scan.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if log.count("warn") != 1 {
		t.Errorf("warnings = %d, want 1", log.count("warn"))
	}
}

func TestSkyScanFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.dat")
	if err := os.WriteFile(path, []byte("0.5 0.1\n1.5 -0.2\n"), 0o600); err != nil {
		t.Fatalf("write grid: %v", err)
	}

	scan, err := InitSkyScan(context.Background(), SkyScanConfig{GridType: model.GridFile, SkyGridFile: path})
	if err != nil {
		t.Fatalf("InitSkyScan: %v", err)
	}
	if scan.NumPoints() != 2 || scan.Grid()[1] != eqPos(1.5, -0.2) {
		t.Errorf("grid = %v", scan.Grid())
	}
	if len(scan.Region().Vertices) != 0 {
		t.Errorf("file grid has region %+v", scan.Region())
	}
}

func TestSkyScanEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dat")
	if err := os.WriteFile(path, []byte("# nothing\n"), 0o600); err != nil {
		t.Fatalf("write grid: %v", err)
	}
	rec := &recordingMetrics{}
	_, err := InitSkyScan(context.Background(), SkyScanConfig{GridType: model.GridFile, SkyGridFile: path, Metrics: rec})
	if !errors.Is(err, ErrGridFileFormat) {
		t.Errorf("error = %v, want ErrGridFileFormat", err)
	}
	if len(rec.builds) != 1 || rec.builds[0] != "file/error" {
		t.Errorf("recorded builds = %v", rec.builds)
	}
}

func TestSkyScanMetricGridSpacings(t *testing.T) {
	cfg := metricScanConfig(constEvaluator(4, 1, 1, 16))
	cfg.SkyRegion = "(0.1,0.1),(0.9,0.1),(0.9,0.9),(0.1,0.9)"
	cfg.Mismatch = 0.04

	scan, err := InitSkyScan(context.Background(), cfg)
	if err != nil {
		t.Fatalf("InitSkyScan: %v", err)
	}
	if !almostEqual(scan.DFreq, 0.2, 1e-12) {
		t.Errorf("DFreq = %v, want 0.2", scan.DFreq)
	}
	if !almostEqual(scan.DF1dot, 100*0.1, 1e-9) {
		t.Errorf("DF1dot = %v, want 10", scan.DF1dot)
	}
}

func TestInitSkyScanErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  SkyScanConfig
		want error
	}{
		{"unknown grid type", SkyScanConfig{GridType: model.GridType(42), SkyRegion: "allsky"}, ErrUnknownGridType},
		{"no region", SkyScanConfig{GridType: model.GridFlat, DAlpha: 0.1, DDelta: 0.1}, ErrNoSkyRegion},
		{"no grid file", SkyScanConfig{GridType: model.GridMetricSkyFile}, ErrNoGridFile},
		{"bad region", flatScanConfig("(0.1, 0.2), (0.3, 0.4)"), ErrTwoVertexRegion},
		{"zero step", SkyScanConfig{GridType: model.GridIsotropic, SkyRegion: "allsky"}, ErrInvalidStep},
		{"metric without frequency", func() SkyScanConfig {
			c := metricScanConfig(constEvaluator(1, 1, 1, 1))
			c.SkyRegion = "(1.0, 0.5)"
			c.Freq = 0
			return c
		}(), ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := InitSkyScan(context.Background(), tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNilSkyScan(t *testing.T) {
	var s *SkyScan
	if _, _, err := s.Next(); !errors.Is(err, ErrScanNotReady) {
		t.Errorf("Next on nil scan error = %v", err)
	}
	if err := s.Close(context.Background()); !errors.Is(err, ErrScanNotReady) {
		t.Errorf("Close on nil scan error = %v", err)
	}
}
