package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the number of minutes in a service day.
const MinutesPerDay = 24 * 60

// EndOfDay is the last simulated minute of a service day (23:59).
const EndOfDay TimeOfDay = 23*60 + 59

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

// At builds a TimeOfDay from an hour and a minute.
func At(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Seconds are truncated.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, &ConfigurationError{Field: "time", Reason: fmt.Sprintf("invalid time of day %q", s)}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, &ConfigurationError{Field: "time", Reason: fmt.Sprintf("invalid hour in %q", s)}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, &ConfigurationError{Field: "time", Reason: fmt.Sprintf("invalid minute in %q", s)}
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, &ConfigurationError{Field: "time", Reason: fmt.Sprintf("invalid second in %q", s)}
		}
	}
	return At(h, m), nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on error.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Hour returns the hour component, wrapping past midnight.
func (t TimeOfDay) Hour() int { return t.wrapped() / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return t.wrapped() % 60 }

// Add returns t shifted by minutes, truncating fractions.
func (t TimeOfDay) Add(minutes float64) TimeOfDay { return t + TimeOfDay(minutes) }

// Sub returns t-u in minutes.
func (t TimeOfDay) Sub(u TimeOfDay) float64 { return float64(t - u) }

// String formats the time as HH:MM. Times past midnight roll over.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) wrapped() int {
	m := int(t) % MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return m
}

// Window is an inclusive time-of-day range.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// ParseWindow parses a start and end time and checks their order.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{Start: s, End: e}
	return w, w.Validate()
}

// Validate reports whether the window is ordered.
func (w Window) Validate() error {
	if w.End < w.Start {
		return &ConfigurationError{Field: "window", Reason: fmt.Sprintf("end %s before start %s", w.End, w.Start)}
	}
	return nil
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t TimeOfDay) bool { return t >= w.Start && t <= w.End }

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses an English day name, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, &ConfigurationError{Field: "day", Reason: fmt.Sprintf("unknown day of week %q", s)}
	}
	return d, nil
}
