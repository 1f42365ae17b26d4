// Package routing defines the travel-time collaborator used to time route
// segments.
package routing

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoRoute is returned when the provider has no route between two points.
var ErrNoRoute = errors.New("no route between coordinates")

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key is a stable textual form used for caching.
func (c Coordinate) Key() string { return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon) }

// Leg is the travel data between two coordinates.
type Leg struct {
	DurationSeconds float64 `json:"duration_seconds"`
	DistanceMeters  float64 `json:"distance_meters"`
	// Geometry is the road polyline as [lon, lat] pairs.
	Geometry [][2]float64 `json:"geometry,omitempty"`
}

// Provider returns the travel leg between two coordinates.
type Provider interface {
	Leg(ctx context.Context, from, to Coordinate) (Leg, error)
}
