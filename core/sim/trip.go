package sim

// trip is the process of one bus running its route from the terminal back
// to the terminal.
type trip struct {
	s         *Session
	bus       int
	idx       int
	onboard   int
	departed  float64
	returning bool
}

func newTrip(s *Session, bus int, now float64) *trip {
	return &trip{s: s, bus: bus, departed: now}
}

// Step visits stops until a timed transit is needed. Unknown segments are
// crossed instantly. After the last stop the trip waits zero minutes before
// returning the bus to the pool.
func (t *trip) Step(now float64) (float64, bool) {
	if t.returning {
		t.finish(now)
		return 0, true
	}
	stops := t.s.Route.Stops
	for t.idx < len(stops) {
		stop := stops[t.idx]
		last := t.idx == len(stops)-1
		if t.idx != 0 {
			t.s.emit(now, LogEntry{Kind: EventArrive, BusID: t.bus, Stop: stop, Onboard: t.onboard})
		}
		t.alight(now, stop, last)
		t.board(now, stop, last)

		if !last {
			seg := t.s.Route.Segments[t.idx]
			t.idx++
			if seg.Known {
				return float64(seg.Minutes()), false
			}
			t.s.emit(now, LogEntry{Kind: EventUnknown, BusID: t.bus, Stop: seg.From, Next: seg.To, Onboard: t.onboard})
			t.s.log.Debugw("segment without travel time", map[string]any{
				"route": t.s.Route.ID, "from": seg.From, "to": seg.To, "bus": t.bus,
			})
			continue
		}
		t.idx++
	}
	t.returning = true
	return 0, false
}

func (t *trip) alight(now float64, stop string, last bool) {
	var n int
	if last {
		n = t.onboard
	} else {
		n = t.s.random.Between(0, t.onboard)
	}
	t.onboard -= n
	t.s.emit(now, LogEntry{Kind: EventAlight, BusID: t.bus, Stop: stop, Count: n, Onboard: t.onboard})
}

func (t *trip) board(now float64, stop string, last bool) {
	n := 0
	if !last {
		at := t.s.Clock(now)
		queue := t.s.queue.Queue(t.s.Route.ID, stop, at)
		n = max(min(queue, t.s.Capacity-t.onboard), 0)
		t.onboard += n
		t.s.passengersServed += n
		if feed, ok := t.s.queue.(BoardingFeed); ok && n > 0 {
			feed.Boarded(t.s.Route.ID, stop, at, n)
		}
	}
	t.s.emit(now, LogEntry{Kind: EventBoard, BusID: t.bus, Stop: stop, Count: n, Onboard: t.onboard})
}

func (t *trip) finish(now float64) {
	t.s.emit(now, LogEntry{Kind: EventReturn, BusID: t.bus, Elapsed: now - t.departed})
	if err := t.s.pool.Release(t.bus); err != nil {
		t.s.log.Errorf("release bus %d: %v", t.bus, err)
	}
	t.s.completed++
	t.s.tripsPerBus[t.bus]++
}
