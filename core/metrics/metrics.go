package metrics

import "time"

// SimulationEvent summarizes one dispatcher run.
type SimulationEvent struct {
	RunID            string
	Route            string
	FleetSize        int
	TotalTrips       int
	Dispatched       int
	Missed           int
	Completed        int
	PassengersServed int
	Time             time.Time
}

// MetricsSink records simulation outcomes for observability purposes.
type MetricsSink interface {
	RecordSimulation(ev SimulationEvent) error
}

// TripEvent is a completed trip.
type TripEvent struct {
	RunID   string
	Route   string
	BusID   int
	Minutes float64
	Time    time.Time
}

// TripRecorder records trip durations.
type TripRecorder interface {
	RecordTrip(ev TripEvent) error
}

// RouteFleet is the minimum fleet of one route. Buses is NaN when the
// route's turnaround is unknown.
type RouteFleet struct {
	Route string
	Buses float64
}

// PlanEvent describes a fleet allocation plan.
type PlanEvent struct {
	Day          string
	Routes       []RouteFleet
	Total        float64
	Baseline     float64
	Express      bool
	ExpressRatio float64
	Time         time.Time
}

// PlanRecorder records allocation plans.
type PlanRecorder interface {
	RecordPlan(ev PlanEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSimulation(SimulationEvent) error { return nil }
func (NopSink) RecordTrip(TripEvent) error             { return nil }
func (NopSink) RecordPlan(PlanEvent) error             { return nil }
