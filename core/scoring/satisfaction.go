package scoring

import (
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kilianp07/shuttle/core/model"
)

// Satisfaction maps stop -> route -> waiting cost in passenger-minutes.
type Satisfaction map[string]map[string]float64

// Entry computes the waiting cost of riders of route at stop whose demand
// bucket lies in w on day: each record weighs its count by the minutes until
// the next scheduled bus. No matching records yields zero.
func (s *Scorer) Entry(stop, route string, day time.Weekday, w model.Window) (float64, error) {
	if _, err := s.net.Stop(stop); err != nil {
		return 0, err
	}
	if _, err := s.net.Route(route); err != nil {
		return 0, err
	}
	total := 0.0
	for _, r := range s.records[recordKey{route: route, stop: stop, day: day}] {
		t := r.Time()
		if !w.Contains(t) {
			continue
		}
		next, ok := s.NextArrival(route, stop, t)
		if !ok {
			return 0, &NoUpcomingDepartureError{Stop: stop, Route: route, At: t}
		}
		total += r.Count * next.Sub(t)
	}
	return total, nil
}

type stopSatisfaction struct {
	stop    string
	byRoute map[string]float64
}

// Satisfaction computes Entry for every stop and each route serving it.
func (s *Scorer) Satisfaction(day time.Weekday, w model.Window) (Satisfaction, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	p := pool.NewWithResults[stopSatisfaction]().WithErrors().WithMaxGoroutines(s.workers)
	for _, st := range s.net.Stops() {
		p.Go(func() (stopSatisfaction, error) {
			out := stopSatisfaction{stop: st.Name, byRoute: make(map[string]float64)}
			for _, route := range s.net.ServedBy(st.Name) {
				v, err := s.Entry(st.Name, route, day, w)
				if err != nil {
					return out, err
				}
				out.byRoute[route] = v
			}
			return out, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sat := make(Satisfaction, len(results))
	for _, r := range results {
		sat[r.stop] = r.byRoute
	}
	return sat, nil
}
