// Package scoring measures unmet demand at stops and ranks them as express
// route candidates.
package scoring

import (
	"sort"
	"time"

	"github.com/kilianp07/shuttle/core/demand"
	"github.com/kilianp07/shuttle/core/logger"
	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/network"
)

type routeStop struct{ route, stop string }

type recordKey struct {
	route, stop string
	day         time.Weekday
}

// Options configure a Scorer.
type Options struct {
	// CoreRoutes are the routes counted in priority scores. Empty means every
	// route not flagged auxiliary.
	CoreRoutes []string
	// Concurrency bounds the number of stops scored in parallel. Zero means 4.
	Concurrency int
	Logger      logger.Logger
}

// Scorer evaluates waiting cost and demand density against a network's
// timetables.
type Scorer struct {
	net      *network.Registry
	index    *demand.Index
	records  map[recordKey][]model.DemandRecord
	arrivals map[routeStop][]model.TimeOfDay
	stopSets map[routeStop]map[model.TimeOfDay]bool
	core     map[string]bool
	workers  int
	log      logger.Logger
}

// NewScorer prepares arrival schedules for every stop of every route that has
// a timetable.
func NewScorer(net *network.Registry, timetables map[string]model.Timetable, records []model.DemandRecord, opts Options) (*Scorer, error) {
	s := &Scorer{
		net:      net,
		index:    demand.NewIndex(records),
		records:  make(map[recordKey][]model.DemandRecord),
		arrivals: make(map[routeStop][]model.TimeOfDay),
		stopSets: make(map[routeStop]map[model.TimeOfDay]bool),
		core:     make(map[string]bool),
		workers:  opts.Concurrency,
		log:      logger.OrNop(opts.Logger),
	}
	if s.workers <= 0 {
		s.workers = 4
	}
	core := opts.CoreRoutes
	if len(core) == 0 {
		core = net.CoreRoutes()
	}
	for _, id := range core {
		if _, err := net.Route(id); err != nil {
			return nil, err
		}
		s.core[id] = true
	}
	for id := range timetables {
		if _, err := net.Route(id); err != nil {
			return nil, err
		}
	}
	for _, r := range records {
		k := recordKey{route: r.Route, stop: r.Stop, day: r.Day}
		s.records[k] = append(s.records[k], r)
	}
	for _, route := range net.Routes() {
		deps := timetables[route.ID].Departures()
		for _, stop := range route.Stops {
			k := routeStop{route.ID, stop}
			if _, done := s.arrivals[k]; done {
				continue
			}
			offset, _ := route.OffsetTo(stop)
			times := make([]model.TimeOfDay, len(deps))
			set := make(map[model.TimeOfDay]bool, len(deps))
			for i, d := range deps {
				times[i] = d + model.TimeOfDay(offset)
				set[times[i]] = true
			}
			s.arrivals[k] = times
			s.stopSets[k] = set
		}
	}
	return s, nil
}

// Arrivals returns the scheduled arrival times of route at stop.
func (s *Scorer) Arrivals(route, stop string) []model.TimeOfDay {
	return s.arrivals[routeStop{route, stop}]
}

// NextArrival returns the earliest scheduled arrival of route at stop at or
// after t.
func (s *Scorer) NextArrival(route, stop string, t model.TimeOfDay) (model.TimeOfDay, bool) {
	times := s.arrivals[routeStop{route, stop}]
	i := sort.Search(len(times), func(i int) bool { return times[i] >= t })
	if i == len(times) {
		return 0, false
	}
	return times[i], true
}

// IsCore reports whether route counts towards priority scores.
func (s *Scorer) IsCore(route string) bool { return s.core[route] }
