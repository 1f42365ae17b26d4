package dataset

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/shuttle/core/model"
)

// stopRow is one line of the header-less stop file: name, lat, lon.
type stopRow struct {
	Name string `csv:"name"`
	Lat  string `csv:"lat"`
	Lon  string `csv:"lon"`
}

// LoadStops reads the stop coordinate file at path.
func LoadStops(path string) ([]model.Stop, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadStops(f)
}

// ReadStops parses header-less "name,lat,lon" rows. A stop with an empty
// coordinate is kept without coordinates.
func ReadStops(r io.Reader) ([]model.Stop, error) {
	var rows []stopRow
	if err := unmarshal(r, &rows, false); err != nil {
		return nil, fmt.Errorf("read stops: %w", err)
	}
	out := make([]model.Stop, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			return nil, model.Configf("dataset.stops", "line %d: empty stop name", i+1)
		}
		if seen[name] {
			return nil, model.Configf("dataset.stops", "line %d: duplicate stop %q", i+1, name)
		}
		seen[name] = true
		s := model.Stop{Name: name}
		lat, latOK, err := parseCoord(row.Lat)
		if err != nil {
			return nil, model.Configf("dataset.stops", "line %d: lat: %v", i+1, err)
		}
		lon, lonOK, err := parseCoord(row.Lon)
		if err != nil {
			return nil, model.Configf("dataset.stops", "line %d: lon: %v", i+1, err)
		}
		if latOK && lonOK {
			s.Lat, s.Lon, s.HasCoords = lat, lon, true
		}
		out = append(out, s)
	}
	return out, nil
}

func parseCoord(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
