package scoring

import (
	"time"

	"github.com/kilianp07/shuttle/core/model"
)

// DensityMultiplier weighs a minute's accumulated demand by severity tier.
func DensityMultiplier(total float64) float64 {
	switch {
	case total <= 20:
		return 1
	case total <= 40:
		return 2
	case total <= 60:
		return 3
	case total <= 80:
		return 4
	case total <= 100:
		return 5
	default:
		return 6
	}
}

// DensitySeries returns, for each minute of w, the demand accumulated at stop
// since the last scheduled arrival, summed over core routes.
func (s *Scorer) DensitySeries(stop string, day time.Weekday, w model.Window) ([]float64, error) {
	if _, err := s.net.Stop(stop); err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	n := int(w.End-w.Start) + 1
	totals := make([]float64, n)
	for _, route := range s.net.ServedBy(stop) {
		if !s.core[route] {
			continue
		}
		arrivals := s.stopSets[routeStop{route, stop}]
		cum := 0.0
		for i := 0; i < n; i++ {
			t := w.Start + model.TimeOfDay(i)
			cum += s.index.At(route, stop, day, t)
			if arrivals[t] {
				cum = 0
			}
			totals[i] += cum
		}
	}
	return totals, nil
}

// Density is the tier-weighted sum of DensitySeries over w.
func (s *Scorer) Density(stop string, day time.Weekday, w model.Window) (float64, error) {
	series, err := s.DensitySeries(stop, day, w)
	if err != nil {
		return 0, err
	}
	score := 0.0
	for _, total := range series {
		score += total * DensityMultiplier(total)
	}
	return score, nil
}
