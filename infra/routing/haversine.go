package routing

import (
	"context"
	"math"

	corerouting "github.com/kilianp07/shuttle/core/routing"
)

const earthRadiusMeters = 6371000.0

// DefaultSpeedKMH is the average bus speed assumed by HaversineProvider.
const DefaultSpeedKMH = 20.0

// HaversineProvider estimates legs from great-circle distance and a fixed
// average speed. It needs no network access.
type HaversineProvider struct {
	SpeedKMH float64
	// Detour scales the straight-line distance to approximate road length.
	// Zero means 1.3.
	Detour float64
}

// Distance returns the great-circle distance in meters.
func Distance(a, b corerouting.Coordinate) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

func (p HaversineProvider) Leg(ctx context.Context, from, to corerouting.Coordinate) (corerouting.Leg, error) {
	if err := ctx.Err(); err != nil {
		return corerouting.Leg{}, err
	}
	speed := p.SpeedKMH
	if speed <= 0 {
		speed = DefaultSpeedKMH
	}
	detour := p.Detour
	if detour <= 0 {
		detour = 1.3
	}
	meters := Distance(from, to) * detour
	return corerouting.Leg{
		DurationSeconds: meters / (speed * 1000 / 3600),
		DistanceMeters:  meters,
		Geometry:        [][2]float64{{from.Lon, from.Lat}, {to.Lon, to.Lat}},
	}, nil
}
