package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/shuttle/core/network"
)

// RouteSpec is the file representation of a route.
type RouteSpec struct {
	ID        string   `json:"id" yaml:"id"`
	Stops     []string `json:"stops" yaml:"stops"`
	Auxiliary bool     `json:"auxiliary" yaml:"auxiliary"`
}

// RouteFile lists routes in registry order.
type RouteFile struct {
	Routes []RouteSpec `json:"routes" yaml:"routes"`
}

// LoadRoutes reads a YAML or JSON route file.
func LoadRoutes(path string) ([]network.RouteDef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeRoutes(f, strings.TrimPrefix(filepath.Ext(path), "."))
}

// DecodeRoutes reads routes from r in the given format.
func DecodeRoutes(r io.Reader, format string) ([]network.RouteDef, error) {
	var file RouteFile
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&file); err != nil {
			return nil, fmt.Errorf("decode routes: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&file); err != nil {
			return nil, fmt.Errorf("decode routes: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported route file format: %s", format)
	}
	defs := make([]network.RouteDef, len(file.Routes))
	for i, s := range file.Routes {
		defs[i] = network.RouteDef{ID: s.ID, Stops: s.Stops, Auxiliary: s.Auxiliary}
	}
	return defs, nil
}
