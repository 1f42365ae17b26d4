package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/shuttle/core/model"
)

// RouteDef is a route with fixed leg durations.
type RouteDef struct {
	ID    string   `yaml:"id"`
	Stops []string `yaml:"stops"`
	// LegSeconds are the provider durations between consecutive stops. A
	// negative value marks a leg without travel data.
	LegSeconds []float64 `yaml:"leg_seconds"`
}

// ToModel builds the route with its segments.
func (r RouteDef) ToModel() *model.Route {
	route := &model.Route{ID: r.ID, Stops: r.Stops}
	for i := 0; i < len(r.Stops)-1; i++ {
		seg := model.Segment{From: r.Stops[i], To: r.Stops[i+1]}
		if i < len(r.LegSeconds) && r.LegSeconds[i] >= 0 {
			seg.Seconds = r.LegSeconds[i]
			seg.Known = true
		}
		route.Segments = append(route.Segments, seg)
	}
	return route
}

// FleetSizing checks the fleet formula for one route and interval.
type FleetSizing struct {
	Peak       float64 `yaml:"peak"`
	Capacity   int     `yaml:"capacity"`
	Interval   float64 `yaml:"interval"`
	Turnaround float64 `yaml:"turnaround"`
	Expected   float64 `yaml:"expected_buses"`
}

type Expected struct {
	Missed     int      `yaml:"missed"`
	Dispatched int      `yaml:"dispatched"`
	Completed  int      `yaml:"completed"`
	Contains   []string `yaml:"log_contains,omitempty"`
}

type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Route       RouteDef     `yaml:"route"`
	Departures  []string     `yaml:"departures"`
	Fleet       int          `yaml:"fleet"`
	Capacity    int          `yaml:"capacity,omitempty"`
	Queue       int          `yaml:"queue"`
	Alight      []int        `yaml:"alight,omitempty"`
	FleetSizing *FleetSizing `yaml:"fleet_sizing,omitempty"`
	Expected    Expected     `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Timetable parses the scenario departures.
func (sc *Scenario) Timetable() (model.Timetable, error) {
	out := make(model.Timetable, len(sc.Departures))
	for i, d := range sc.Departures {
		t, err := model.ParseTimeOfDay(d)
		if err != nil {
			return nil, err
		}
		out[i] = model.TimetableEntry{Route: sc.Route.ID, Departure: t}
	}
	return out, nil
}
