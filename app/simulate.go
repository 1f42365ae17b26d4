package app

import (
	"context"
	"fmt"
	"time"

	coremetrics "github.com/kilianp07/shuttle/core/metrics"
	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/sim"
	"github.com/kilianp07/shuttle/infra/logger"
)

// SimulateOptions override the configured simulation for one run.
type SimulateOptions struct {
	// Route defaults to simulation.route.
	Route string
	// FleetSize defaults to fleet.size.
	FleetSize int
	// Seed defaults to simulation.seed.
	Seed uint64
}

// Simulate replays one day of a route's timetable with the configured fleet.
// Every log entry is delivered to the bus subscribers and appended to the
// store.
func (s *Service) Simulate(ctx context.Context, opts SimulateOptions) (*sim.Result, error) {
	routeID := opts.Route
	if routeID == "" {
		routeID = s.cfg.Simulation.Route
	}
	fleetSize := opts.FleetSize
	if fleetSize == 0 {
		fleetSize = s.cfg.Fleet.Size
	}
	seed := opts.Seed
	if seed == 0 {
		seed = s.cfg.Simulation.Seed
	}

	route, err := s.net.Route(routeID)
	if err != nil {
		return nil, err
	}
	tt, ok := s.timetables[routeID]
	if !ok {
		return nil, model.Configf("simulation.route", "route %s has no frequency bands", routeID)
	}

	cfg := sim.Config{
		Route:     route,
		Timetable: tt,
		FleetSize: fleetSize,
		Capacity:  s.cfg.Fleet.Capacity,
		Random:    sim.NewRandomSource(seed),
		Observers: []sim.Observer{s.forward(ctx)},
		Logger:    logger.New("simulation"),
	}
	if s.cfg.Simulation.Queue == "demand" {
		day, err := model.ParseWeekday(s.cfg.Simulation.Day)
		if err != nil {
			return nil, model.Configf("simulation.day", "%v", err)
		}
		cfg.Queue = sim.NewDemandQueue(s.data.Demand, day, int(s.cfg.Optimization.Interval))
	}

	res, err := sim.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, res.Log...); err != nil {
		return nil, fmt.Errorf("store simulation log: %w", err)
	}
	if err := s.sink.RecordSimulation(coremetrics.SimulationEvent{
		RunID:            res.RunID,
		Route:            res.Route,
		FleetSize:        fleetSize,
		TotalTrips:       res.TotalTrips,
		Dispatched:       res.Dispatched,
		Missed:           res.Missed,
		Completed:        res.Completed,
		PassengersServed: res.PassengersServed,
		Time:             time.Now(),
	}); err != nil {
		s.log.Warnf("record simulation: %v", err)
	}
	return res, nil
}

// forward hands each entry to the bus, waiting for slow subscribers so that
// trip metrics and the MQTT feed see the whole run.
func (s *Service) forward(ctx context.Context) sim.Observer {
	return func(e sim.LogEntry) {
		if err := s.bus.PublishWait(ctx, e); err != nil {
			s.log.Debugf("entry %d of run %s not delivered: %v", e.Seq, e.RunID, err)
		}
	}
}
