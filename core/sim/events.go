package sim

import "fmt"

// EventKind classifies simulation log entries.
type EventKind string

const (
	EventDepart  EventKind = "depart"
	EventArrive  EventKind = "arrive"
	EventAlight  EventKind = "alight"
	EventBoard   EventKind = "board"
	EventReturn  EventKind = "return"
	EventMissed  EventKind = "missed"
	EventUnknown EventKind = "unknown_segment"
)

// LogEntry is one record of the simulation log.
type LogEntry struct {
	RunID string    `json:"run_id"`
	Seq   int       `json:"seq"`
	Kind  EventKind `json:"kind"`
	// At is the simulated time in minutes since the first departure.
	At      float64 `json:"at"`
	Clock   string  `json:"clock"`
	Route   string  `json:"route"`
	BusID   int     `json:"bus_id,omitempty"`
	Stop    string  `json:"stop,omitempty"`
	Next    string  `json:"next,omitempty"`
	Count   int     `json:"count"`
	Onboard int     `json:"onboard"`
	// Elapsed is set on return entries to the trip duration in minutes.
	Elapsed float64 `json:"elapsed,omitempty"`
}

// String renders the entry as a human-readable log line.
func (e LogEntry) String() string {
	switch e.Kind {
	case EventDepart:
		return fmt.Sprintf("Bus %d departs at %s", e.BusID, e.Clock)
	case EventArrive:
		return fmt.Sprintf("Bus %d reaches %s at %s", e.BusID, e.Stop, e.Clock)
	case EventAlight:
		return fmt.Sprintf("Bus %d at %s: %d alight, %d onboard", e.BusID, e.Stop, e.Count, e.Onboard)
	case EventBoard:
		return fmt.Sprintf("Bus %d at %s: %d board, %d onboard", e.BusID, e.Stop, e.Count, e.Onboard)
	case EventReturn:
		return fmt.Sprintf("Bus %d returns to the terminal at %s", e.BusID, e.Clock)
	case EventMissed:
		return fmt.Sprintf("No bus available for scheduled departure at %s", e.Clock)
	case EventUnknown:
		return fmt.Sprintf("Bus %d: no travel time from %s to %s, transit not timed", e.BusID, e.Stop, e.Next)
	default:
		return fmt.Sprintf("%s at %s", e.Kind, e.Clock)
	}
}

// Observer receives every log entry as it is appended.
type Observer func(LogEntry)
