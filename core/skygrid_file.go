package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/signalsfoundry/skygrid/model"
)

// LoadSkyGridFile reads a sky grid from path. See ReadSkyGrid for the format.
func LoadSkyGridFile(path string) (SkyGrid, error) {
	if path == "" {
		return nil, fmt.Errorf("LoadSkyGridFile: %w", ErrNoGridFile)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadSkyGridFile: %w", err)
	}
	defer f.Close()

	grid, err := ReadSkyGrid(f)
	if err != nil {
		return nil, fmt.Errorf("LoadSkyGridFile %q: %w", path, err)
	}
	return grid, nil
}

// ReadSkyGrid parses one "longitude latitude" pair per line, in order. Empty
// lines and comments starting with '#' or '%' are skipped. Points are taken as
// they are: no clipping or normalization. A malformed line fails the whole read.
func ReadSkyGrid(r io.Reader) (SkyGrid, error) {
	var grid SkyGrid
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexAny(line, "#%"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("ReadSkyGrid: line %d: expected 2 values, got %d: %w", lineNo, len(fields), ErrGridFileFormat)
		}
		lon, err := parseCoordinate(fields[0])
		if err != nil {
			return nil, fmt.Errorf("ReadSkyGrid: line %d: %v: %w", lineNo, err, ErrGridFileFormat)
		}
		lat, err := parseCoordinate(fields[1])
		if err != nil {
			return nil, fmt.Errorf("ReadSkyGrid: line %d: %v: %w", lineNo, err, ErrGridFileFormat)
		}
		grid = append(grid, model.SkyPosition{Longitude: lon, Latitude: lat, System: model.CoordinateSystemEquatorial})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ReadSkyGrid: %w", err)
	}
	return grid, nil
}

// WriteSkyGrid writes one "longitude latitude" line per point using the
// shortest representation that reads back to the same float64.
func WriteSkyGrid(w io.Writer, grid SkyGrid) error {
	bw := bufio.NewWriter(w)
	for _, p := range grid {
		bw.WriteString(strconv.FormatFloat(p.Longitude, 'g', -1, 64))
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(p.Latitude, 'g', -1, 64))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteSkyGridFile writes grid to path, replacing any existing file.
func WriteSkyGridFile(path string, grid SkyGrid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("WriteSkyGridFile: %w", err)
	}
	if err := WriteSkyGrid(f, grid); err != nil {
		f.Close()
		return fmt.Errorf("WriteSkyGridFile %q: %w", path, err)
	}
	return f.Close()
}
