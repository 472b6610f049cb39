package core

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/skygrid/model"
)

func unitSquare(t *testing.T) *model.SkyRegion {
	t.Helper()
	r, err := ParseSkyRegion("(0,0),(1,0),(1,1),(0,1)")
	if err != nil {
		t.Fatalf("ParseSkyRegion: %v", err)
	}
	return r
}

func TestBuildFlatSkyGrid(t *testing.T) {
	grid, err := BuildFlatSkyGrid(unitSquare(t), 0.5, 0.5)
	if err != nil {
		t.Fatalf("BuildFlatSkyGrid: %v", err)
	}
	if grid.Len() != 9 {
		t.Fatalf("got %d points, want 9: %v", grid.Len(), grid)
	}
	// Latitude runs fastest.
	want := []model.SkyPosition{eqPos(0, 0), eqPos(0, 0.5), eqPos(0, 1), eqPos(0.5, 0)}
	for i, w := range want {
		if grid[i] != w {
			t.Errorf("grid[%d] = %+v, want %+v", i, grid[i], w)
		}
	}
}

func TestBuildFlatSkyGridClipsToPolygon(t *testing.T) {
	r, err := ParseSkyRegion("(0,0),(1,0),(0,1)")
	if err != nil {
		t.Fatalf("ParseSkyRegion: %v", err)
	}
	grid, err := BuildFlatSkyGrid(r, 0.25, 0.25)
	if err != nil {
		t.Fatalf("BuildFlatSkyGrid: %v", err)
	}
	// Points with lon + lat <= 1 on a 5x5 lattice.
	if grid.Len() != 15 {
		t.Fatalf("got %d points, want 15", grid.Len())
	}
	for _, p := range grid {
		if !PointInPolygon(p, r) {
			t.Errorf("point %+v outside region", p)
		}
	}
}

func TestBuildIsotropicSkyGrid(t *testing.T) {
	grid, err := BuildIsotropicSkyGrid(unitSquare(t), 0.5, 0.5)
	if err != nil {
		t.Fatalf("BuildIsotropicSkyGrid: %v", err)
	}
	// Rows at delta = 0, 0.5, 1 hold 3, 2 and 2 points.
	rows := map[float64]int{}
	for _, p := range grid {
		rows[p.Latitude]++
	}
	if rows[0] != 3 || rows[0.5] != 2 || rows[1] != 2 {
		t.Errorf("row counts = %v, want map[0:3 0.5:2 1:2]", rows)
	}
}

func TestBuildIsotropicSkyGridPolarCap(t *testing.T) {
	r, err := ParseSkyRegion("(0,1.5),(6,1.5),(6,1.5707963267948966),(0,1.5707963267948966)")
	if err != nil {
		t.Fatalf("ParseSkyRegion: %v", err)
	}
	// 1.5 + (pi/2 - 1.5) is exactly pi/2, so the second row sits on the pole.
	grid, err := BuildIsotropicSkyGrid(r, 0.05, math.Pi/2-1.5)
	if err != nil {
		t.Fatalf("BuildIsotropicSkyGrid: %v", err)
	}

	rows := map[float64]int{}
	for _, p := range grid {
		if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || math.IsNaN(p.Latitude) {
			t.Fatalf("non-finite point %+v", p)
		}
		rows[p.Latitude]++
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %v", len(rows), rows)
	}
	if rows[math.Pi/2] != 1 {
		t.Errorf("pole row holds %d points, want 1", rows[math.Pi/2])
	}
	if rows[1.5] < 2 {
		t.Errorf("bottom row holds %d points, want several", rows[1.5])
	}
}

func TestBuildGridNonFiniteBoundingBox(t *testing.T) {
	r := unitSquare(t)
	r.UpperRight.Longitude = math.Inf(1)
	if _, err := BuildFlatSkyGrid(r, 0.5, 0.5); !errors.Is(err, ErrInvalidSkyRegion) {
		t.Errorf("flat error = %v, want ErrInvalidSkyRegion", err)
	}
	r.UpperRight.Longitude = 1
	r.LowerLeft.Latitude = math.NaN()
	if _, err := BuildIsotropicSkyGrid(r, 0.5, 0.5); !errors.Is(err, ErrInvalidSkyRegion) {
		t.Errorf("isotropic error = %v, want ErrInvalidSkyRegion", err)
	}
}

func TestBuildGridInvalidSteps(t *testing.T) {
	r := unitSquare(t)
	if _, err := BuildFlatSkyGrid(r, 0, 0.1); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("flat zero step error = %v, want ErrInvalidStep", err)
	}
	if _, err := BuildIsotropicSkyGrid(r, 0.1, -1); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("isotropic negative step error = %v, want ErrInvalidStep", err)
	}
	if _, err := BuildFlatSkyGrid(nil, 0.1, 0.1); !errors.Is(err, ErrNoSkyRegion) {
		t.Errorf("nil region error = %v, want ErrNoSkyRegion", err)
	}
}

func TestSkyGridFileRoundTrip(t *testing.T) {
	grid := SkyGrid{eqPos(0.1, -0.3), eqPos(1.0/3, 2.0/3), eqPos(6.2, 1.5)}
	path := filepath.Join(t.TempDir(), "grid.dat")

	if err := WriteSkyGridFile(path, grid); err != nil {
		t.Fatalf("WriteSkyGridFile: %v", err)
	}
	got, err := LoadSkyGridFile(path)
	if err != nil {
		t.Fatalf("LoadSkyGridFile: %v", err)
	}
	if got.Len() != grid.Len() {
		t.Fatalf("read %d points, want %d", got.Len(), grid.Len())
	}
	for i := range grid {
		if got[i] != grid[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], grid[i])
		}
	}
}

func TestReadSkyGridSkipsComments(t *testing.T) {
	in := "# alpha delta\n\n0.5 0.25 % first\n  1   -1\n"
	grid, err := ReadSkyGrid(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadSkyGrid: %v", err)
	}
	if grid.Len() != 2 || grid[0] != eqPos(0.5, 0.25) || grid[1] != eqPos(1, -1) {
		t.Errorf("ReadSkyGrid = %v", grid)
	}
}

func TestReadSkyGridErrors(t *testing.T) {
	for _, in := range []string{"0.5\n", "0.5 0.1 0.2\n", "0.5 abc\n", "0.5 NaN\n", "+Inf 0.1\n"} {
		if _, err := ReadSkyGrid(strings.NewReader(in)); !errors.Is(err, ErrGridFileFormat) {
			t.Errorf("ReadSkyGrid(%q) error = %v, want ErrGridFileFormat", in, err)
		}
	}
}

func TestLoadSkyGridFileMissing(t *testing.T) {
	if _, err := LoadSkyGridFile(""); !errors.Is(err, ErrNoGridFile) {
		t.Errorf("empty path error = %v, want ErrNoGridFile", err)
	}
	_, err := LoadSkyGridFile(filepath.Join(t.TempDir(), "absent.dat"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want not-exist", err)
	}
}

func TestWriteSkyGrid(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSkyGrid(&buf, SkyGrid{eqPos(1, 0.5), eqPos(0.25, -2)}); err != nil {
		t.Fatalf("WriteSkyGrid: %v", err)
	}
	if got := buf.String(); got != "1 0.5\n0.25 -2\n" {
		t.Errorf("WriteSkyGrid = %q", got)
	}
}
