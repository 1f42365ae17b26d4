package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/shuttle/core/model"
)

// BandSpec is the file representation of a Band.
type BandSpec struct {
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	Headway string `json:"headway" yaml:"headway"`
}

// BandSet maps route ids to their ordered frequency bands.
type BandSet struct {
	Routes map[string][]BandSpec `json:"routes" yaml:"routes"`
}

// LoadBands loads a BandSet from a JSON or YAML file.
func LoadBands(path string) (BandSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return BandSet{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var set BandSet
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &set)
	case ".json":
		err = json.Unmarshal(b, &set)
	default:
		return BandSet{}, fmt.Errorf("unsupported band file format: %s", ext)
	}
	return set, err
}

// DecodeBands reads a BandSet from r.
func DecodeBands(r io.Reader, format string) (BandSet, error) {
	var set BandSet
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&set); err != nil {
			return set, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&set); err != nil {
			return set, err
		}
	default:
		return set, fmt.Errorf("unsupported format: %s", format)
	}
	return set, nil
}

// Bands parses every route's specs.
func (s BandSet) Bands() (map[string][]Band, error) {
	out := make(map[string][]Band, len(s.Routes))
	for route, specs := range s.Routes {
		bands := make([]Band, 0, len(specs))
		for i, sp := range specs {
			b, err := sp.Band()
			if err != nil {
				return nil, fmt.Errorf("route %s band %d: %w", route, i, err)
			}
			bands = append(bands, b)
		}
		out[route] = bands
	}
	return out, nil
}

// Band parses the start and end times of s.
func (s BandSpec) Band() (Band, error) {
	start, err := model.ParseTimeOfDay(s.Start)
	if err != nil {
		return Band{}, err
	}
	end, err := model.ParseTimeOfDay(s.End)
	if err != nil {
		return Band{}, err
	}
	h, err := ParseHeadway(s.Headway)
	if err != nil {
		return Band{}, err
	}
	return Band{Start: start, End: end, Headway: h}, nil
}

// ParseHeadway accepts Go durations ("9m") and minute counts ("9min", "9").
func ParseHeadway(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	num := strings.TrimSuffix(s, "min")
	if n, err := strconv.Atoi(num); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, model.Configf("headway", "invalid headway %q", s)
	}
	return d, nil
}
