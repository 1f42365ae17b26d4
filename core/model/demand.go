package model

import (
	"sort"
	"time"
)

// DemandRecord is a predicted passenger count for one route and boarding stop
// in a time bucket of a weekday.
type DemandRecord struct {
	Route  string       `json:"route" csv:"route"`
	Stop   string       `json:"stop" csv:"stop"`
	Day    time.Weekday `json:"day" csv:"-"`
	Hour   int          `json:"hour" csv:"hour"`
	Minute int          `json:"minute" csv:"minute"`
	Count  float64      `json:"count" csv:"count"`
}

// Time returns the record's bucket as a time of day.
func (d DemandRecord) Time() TimeOfDay { return At(d.Hour, d.Minute) }

// TimetableEntry is a scheduled departure of a route from its terminal.
type TimetableEntry struct {
	Route     string    `json:"route"`
	Departure TimeOfDay `json:"departure"`
}

// Timetable is a non-decreasing sequence of departures.
type Timetable []TimetableEntry

// Sorted reports whether departures are in non-decreasing order.
func (t Timetable) Sorted() bool {
	return sort.SliceIsSorted(t, func(i, j int) bool { return t[i].Departure < t[j].Departure })
}

// Departures returns the departure times in order.
func (t Timetable) Departures() []TimeOfDay {
	out := make([]TimeOfDay, len(t))
	for i, e := range t {
		out[i] = e.Departure
	}
	return out
}
