// Package demand groups predicted passenger counts into interval series.
package demand

import (
	"cmp"
	"slices"
	"time"

	"github.com/kilianp07/shuttle/core/model"
)

// IntervalKey identifies a route's demand bucket on a weekday.
type IntervalKey struct {
	Route  string       `json:"route"`
	Day    time.Weekday `json:"day"`
	Hour   int          `json:"hour"`
	Minute int          `json:"minute"`
}

// IntervalDemand is the summed demand of one bucket.
type IntervalDemand struct {
	IntervalKey
	Count float64 `json:"count"`
}

// PeakKey identifies a route's bucket regardless of day.
type PeakKey struct {
	Route  string `json:"route"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

// PeakDemand is the largest single record observed in a bucket.
type PeakDemand struct {
	PeakKey
	Peak float64 `json:"peak"`
}

// SumByInterval sums counts by (route, day, hour, minute). The result is
// ordered by route, day, hour and minute.
func SumByInterval(records []model.DemandRecord) []IntervalDemand {
	sums := make(map[IntervalKey]float64)
	for _, r := range records {
		sums[IntervalKey{Route: r.Route, Day: r.Day, Hour: r.Hour, Minute: r.Minute}] += r.Count
	}
	out := make([]IntervalDemand, 0, len(sums))
	for k, v := range sums {
		out = append(out, IntervalDemand{IntervalKey: k, Count: v})
	}
	slices.SortFunc(out, func(a, b IntervalDemand) int {
		return cmp.Or(
			cmp.Compare(a.Route, b.Route),
			cmp.Compare(a.Day, b.Day),
			cmp.Compare(a.Hour, b.Hour),
			cmp.Compare(a.Minute, b.Minute),
		)
	})
	return out
}

// PeakByInterval takes the maximum count by (route, hour, minute) across
// days and stops. The result is ordered by route, hour and minute.
func PeakByInterval(records []model.DemandRecord) []PeakDemand {
	peaks := make(map[PeakKey]float64)
	for _, r := range records {
		k := PeakKey{Route: r.Route, Hour: r.Hour, Minute: r.Minute}
		if v, ok := peaks[k]; !ok || r.Count > v {
			peaks[k] = r.Count
		}
	}
	out := make([]PeakDemand, 0, len(peaks))
	for k, v := range peaks {
		out = append(out, PeakDemand{PeakKey: k, Peak: v})
	}
	slices.SortFunc(out, func(a, b PeakDemand) int {
		return cmp.Or(
			cmp.Compare(a.Route, b.Route),
			cmp.Compare(a.Hour, b.Hour),
			cmp.Compare(a.Minute, b.Minute),
		)
	})
	return out
}

// FilterDay returns a copy of the records of day.
func FilterDay(records []model.DemandRecord, day time.Weekday) []model.DemandRecord {
	out := make([]model.DemandRecord, 0, len(records))
	for _, r := range records {
		if r.Day == day {
			out = append(out, r)
		}
	}
	return out
}

// FilterWindow returns a copy of the records whose bucket lies in w.
func FilterWindow(records []model.DemandRecord, w model.Window) []model.DemandRecord {
	out := make([]model.DemandRecord, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Time()) {
			out = append(out, r)
		}
	}
	return out
}

// Intervals lists bucket starts from w.Start every step minutes, stopping
// before w.End.
func Intervals(w model.Window, step int) []model.TimeOfDay {
	if step <= 0 {
		return nil
	}
	var out []model.TimeOfDay
	for t := w.Start; t < w.End; t += model.TimeOfDay(step) {
		out = append(out, t)
	}
	return out
}

type seriesKey struct {
	route, stop string
	day         time.Weekday
	t           model.TimeOfDay
}

// Index answers point lookups of summed demand by route, stop, day and time.
type Index struct {
	counts map[seriesKey]float64
}

// NewIndex builds an Index over records.
func NewIndex(records []model.DemandRecord) *Index {
	idx := &Index{counts: make(map[seriesKey]float64, len(records))}
	for _, r := range records {
		idx.counts[seriesKey{route: r.Route, stop: r.Stop, day: r.Day, t: r.Time()}] += r.Count
	}
	return idx
}

// At returns the demand at (route, stop, day, t), zero when no record exists.
func (i *Index) At(route, stop string, day time.Weekday, t model.TimeOfDay) float64 {
	return i.counts[seriesKey{route: route, stop: stop, day: day, t: t}]
}
