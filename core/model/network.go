package model

import "math"

// Stop is a named boarding point. Coordinates may be missing.
type Stop struct {
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	HasCoords bool    `json:"has_coords"`
}

// Segment is the leg between two consecutive stops of a route.
type Segment struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Seconds is the raw travel duration reported by the routing provider.
	Seconds float64 `json:"seconds"`
	// Known is false when no travel data was available for the leg.
	Known    bool         `json:"known"`
	Geometry [][2]float64 `json:"geometry,omitempty"`
}

// Minutes is the scheduled travel time of the segment: the provider duration
// rounded up to a whole minute plus one minute of dwell. Unknown legs take 0.
func (s Segment) Minutes() int {
	if !s.Known {
		return 0
	}
	return int(math.Ceil(s.Seconds/60)) + 1
}

// Route is an ordered list of stops served by one bus service.
type Route struct {
	ID        string    `json:"id"`
	Stops     []string  `json:"stops"`
	Segments  []Segment `json:"segments"`
	Auxiliary bool      `json:"auxiliary"`
}

// IsLoop reports whether the route ends where it starts.
func (r *Route) IsLoop() bool {
	return len(r.Stops) > 1 && r.Stops[0] == r.Stops[len(r.Stops)-1]
}

// Serves reports whether stop appears on the route.
func (r *Route) Serves(stop string) bool {
	return r.StopIndex(stop) >= 0
}

// StopIndex returns the first position of stop, or -1.
func (r *Route) StopIndex(stop string) int {
	for i, s := range r.Stops {
		if s == stop {
			return i
		}
	}
	return -1
}

// OffsetTo returns the scheduled minutes from the departure terminal to the
// first occurrence of stop. ok is false if the route does not serve stop.
func (r *Route) OffsetTo(stop string) (minutes int, ok bool) {
	idx := r.StopIndex(stop)
	if idx < 0 {
		return 0, false
	}
	for i := 0; i < idx && i < len(r.Segments); i++ {
		minutes += r.Segments[i].Minutes()
	}
	return minutes, true
}

// TravelMinutes is the scheduled duration of a full trip.
func (r *Route) TravelMinutes() int {
	total := 0
	for _, s := range r.Segments {
		total += s.Minutes()
	}
	return total
}

// Turnaround is the raw routing duration of one full trip in minutes. It is
// NaN when the route has no segments or any leg is unknown.
func (r *Route) Turnaround() float64 {
	if len(r.Segments) == 0 {
		return math.NaN()
	}
	sec := 0.0
	for _, s := range r.Segments {
		if !s.Known {
			return math.NaN()
		}
		sec += s.Seconds
	}
	return sec / 60
}
