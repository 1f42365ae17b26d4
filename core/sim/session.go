package sim

import (
	"github.com/google/uuid"

	"github.com/kilianp07/shuttle/core/fleet"
	"github.com/kilianp07/shuttle/core/logger"
	"github.com/kilianp07/shuttle/core/model"
)

// Session holds the mutable state of one simulation run: the fleet pool, the
// event log and the running counters. It is created by Run and never shared
// between runs.
type Session struct {
	RunID    string
	Route    *model.Route
	Start    model.TimeOfDay
	Capacity int

	pool      *fleet.Pool
	random    RandomSource
	queue     QueueFeed
	observers []Observer
	log       logger.Logger

	entries          []LogEntry
	dispatched       int
	missed           int
	completed        int
	passengersServed int
	tripsPerBus      map[int]int
}

func newSession(cfg Config, pool *fleet.Pool, start model.TimeOfDay) *Session {
	return &Session{
		RunID:       uuid.NewString(),
		Route:       cfg.Route,
		Start:       start,
		Capacity:    cfg.Capacity,
		pool:        pool,
		random:      cfg.Random,
		queue:       cfg.Queue,
		observers:   cfg.Observers,
		log:         cfg.Logger,
		tripsPerBus: make(map[int]int),
	}
}

// Clock converts simulated minutes into a wall-clock time.
func (s *Session) Clock(now float64) model.TimeOfDay { return s.Start.Add(now) }

func (s *Session) emit(now float64, e LogEntry) {
	e.RunID = s.RunID
	e.Seq = len(s.entries)
	e.At = now
	e.Clock = s.Clock(now).String()
	e.Route = s.Route.ID
	s.entries = append(s.entries, e)
	for _, o := range s.observers {
		o(e)
	}
}

// Pool exposes the fleet pool for inspection.
func (s *Session) Pool() *fleet.Pool { return s.pool }

// Entries returns the log recorded so far.
func (s *Session) Entries() []LogEntry { return s.entries }
