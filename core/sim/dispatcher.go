package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/shuttle/core/fleet"
	"github.com/kilianp07/shuttle/core/logger"
	"github.com/kilianp07/shuttle/core/model"
)

// DefaultCapacity is the number of passengers a bus can carry.
const DefaultCapacity = 88

// MaxFleetSize bounds the fleet configured for a single route.
const MaxFleetSize = 10

// Config describes one simulation run.
type Config struct {
	Route     *model.Route
	Timetable model.Timetable
	FleetSize int
	Capacity  int
	// Random drives alighting and the default boarding queue.
	Random RandomSource
	// Queue overrides the default uniform boarding queue.
	Queue     QueueFeed
	Observers []Observer
	Logger    logger.Logger
}

func (c *Config) normalize() error {
	if c.Route == nil || len(c.Route.Stops) == 0 {
		return model.Configf("route", "route has no stops")
	}
	if len(c.Route.Segments) != len(c.Route.Stops)-1 {
		return model.Configf("route", "route %s has %d stops but %d segments", c.Route.ID, len(c.Route.Stops), len(c.Route.Segments))
	}
	if c.FleetSize < 1 || c.FleetSize > MaxFleetSize {
		return model.Configf("fleet.size", "must be between 1 and %d, got %d", MaxFleetSize, c.FleetSize)
	}
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.Capacity < 0 {
		return model.Configf("fleet.capacity", "must be positive, got %d", c.Capacity)
	}
	if !c.Timetable.Sorted() {
		return model.Configf("timetable", "departures of route %s are not in order", c.Route.ID)
	}
	if c.Random == nil {
		c.Random = NewRandomSource(0)
	}
	if c.Queue == nil {
		c.Queue = UniformQueue{Source: c.Random, Max: DefaultMaxQueue}
	}
	c.Logger = logger.OrNop(c.Logger)
	return nil
}

// Result summarises a simulation run.
type Result struct {
	RunID            string      `json:"run_id"`
	Route            string      `json:"route"`
	Log              []LogEntry  `json:"log"`
	Missed           int         `json:"missed"`
	TotalTrips       int         `json:"total_trips"`
	Dispatched       int         `json:"dispatched"`
	Completed        int         `json:"completed"`
	PassengersServed int         `json:"passengers_served"`
	TripsPerBus      map[int]int `json:"trips_per_bus"`
	// Horizon is the simulated span in minutes, from the first departure to 23:59.
	Horizon float64 `json:"horizon"`
}

// Lines renders the log as text.
func (r *Result) Lines() []string {
	out := make([]string, len(r.Log))
	for i, e := range r.Log {
		out[i] = e.String()
	}
	return out
}

// dispatcher releases a bus at each scheduled departure.
type dispatcher struct {
	s       *Session
	engine  *Engine
	entries model.Timetable
	next    int
	started bool
}

func (d *dispatcher) Step(now float64) (float64, bool) {
	if d.started {
		d.depart(now)
		d.next++
	}
	d.started = true
	if d.next >= len(d.entries) {
		return 0, true
	}
	prev := 0.0
	if d.next > 0 {
		prev = d.offset(d.next - 1)
	}
	return d.offset(d.next) - prev, false
}

func (d *dispatcher) offset(i int) float64 {
	return d.entries[i].Departure.Sub(d.s.Start)
}

func (d *dispatcher) depart(now float64) {
	bus, err := d.s.pool.Acquire()
	if errors.Is(err, fleet.ErrUnavailable) {
		d.s.missed++
		d.s.emit(now, LogEntry{Kind: EventMissed})
		d.s.log.Warnf("route %s: no bus available for departure at %s", d.s.Route.ID, d.s.Clock(now))
		return
	}
	d.s.dispatched++
	d.s.emit(now, LogEntry{Kind: EventDepart, BusID: bus})
	d.engine.Start(newTrip(d.s, bus, now))
}

// Run simulates one service day of cfg.Route. The clock starts at the first
// departure and stops at 23:59; trips still running then are abandoned.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	res := &Result{Route: cfg.Route.ID, TotalTrips: len(cfg.Timetable), TripsPerBus: map[int]int{}}
	if len(cfg.Timetable) == 0 {
		return res, nil
	}
	pool, err := fleet.NewPool(cfg.FleetSize)
	if err != nil {
		return nil, model.Configf("fleet.size", "%v", err)
	}
	start := cfg.Timetable[0].Departure
	s := newSession(cfg, pool, start)
	engine := NewEngine()
	engine.Start(&dispatcher{s: s, engine: engine, entries: cfg.Timetable})

	horizon := model.EndOfDay.Sub(start)
	if err := engine.Run(ctx, horizon); err != nil {
		return nil, fmt.Errorf("simulate route %s: %w", cfg.Route.ID, err)
	}
	cfg.Logger.Infof("route %s: %d departures, %d dispatched, %d missed, %d completed",
		cfg.Route.ID, len(cfg.Timetable), s.dispatched, s.missed, s.completed)

	res.RunID = s.RunID
	res.Log = s.entries
	res.Missed = s.missed
	res.Dispatched = s.dispatched
	res.Completed = s.completed
	res.PassengersServed = s.passengersServed
	res.TripsPerBus = s.tripsPerBus
	res.Horizon = horizon
	return res, nil
}
