package scoring

import (
	"errors"
	"fmt"

	"github.com/kilianp07/shuttle/core/model"
)

// ErrNoUpcomingDeparture is matched by NoUpcomingDepartureError.
var ErrNoUpcomingDeparture = errors.New("no upcoming departure")

// NoUpcomingDepartureError reports demand at a stop that no later bus of the
// route serves on that day.
type NoUpcomingDepartureError struct {
	Stop  string
	Route string
	At    model.TimeOfDay
}

func (e *NoUpcomingDepartureError) Error() string {
	return fmt.Sprintf("no departure of route %s reaches %s at or after %s", e.Route, e.Stop, e.At)
}

// Is makes errors.Is(err, ErrNoUpcomingDeparture) succeed.
func (e *NoUpcomingDepartureError) Is(target error) bool { return target == ErrNoUpcomingDeparture }
