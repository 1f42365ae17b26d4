package scheduler

import (
	"time"

	"github.com/kilianp07/shuttle/core/model"
)

// Band is a span of the day served at a fixed headway. Both bounds are
// inclusive: a departure is generated at End when it falls on the headway grid.
type Band struct {
	Start   model.TimeOfDay
	End     model.TimeOfDay
	Headway time.Duration
}

// Generate expands bands into the timetable of route.
func Generate(route string, bands []Band) (model.Timetable, error) {
	if len(bands) == 0 {
		return nil, model.Configf("bands", "route %s has no frequency bands", route)
	}
	var out model.Timetable
	for i, b := range bands {
		if err := validateBand(route, i, b); err != nil {
			return nil, err
		}
		if i > 0 && b.Start != bands[i-1].End {
			return nil, model.Configf("bands", "route %s band %d starts at %s, previous band ends at %s",
				route, i, b.Start, bands[i-1].End)
		}
		step := model.TimeOfDay(b.Headway / time.Minute)
		for t := b.Start; t <= b.End; t += step {
			if len(out) > 0 && out[len(out)-1].Departure == t {
				continue
			}
			out = append(out, model.TimetableEntry{Route: route, Departure: t})
		}
	}
	return out, nil
}

func validateBand(route string, i int, b Band) error {
	if b.Headway <= 0 {
		return model.Configf("headway", "route %s band %d has non-positive headway %s", route, i, b.Headway)
	}
	if b.Headway%time.Minute != 0 {
		return model.Configf("headway", "route %s band %d headway %s is not a whole number of minutes", route, i, b.Headway)
	}
	if b.Start >= b.End {
		return model.Configf("bands", "route %s band %d start %s is not before end %s", route, i, b.Start, b.End)
	}
	return nil
}

// GenerateAll builds a timetable for every route in the band set.
func GenerateAll(set BandSet) (map[string]model.Timetable, error) {
	bands, err := set.Bands()
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Timetable, len(bands))
	for route, bs := range bands {
		tt, err := Generate(route, bs)
		if err != nil {
			return nil, err
		}
		out[route] = tt
	}
	return out, nil
}
