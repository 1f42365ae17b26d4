package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shuttle/core/model"
)

func route(id string, stops []string, minutes ...float64) *model.Route {
	r := &model.Route{ID: id, Stops: stops}
	for i := 0; i < len(stops)-1; i++ {
		seg := model.Segment{From: stops[i], To: stops[i+1]}
		if i < len(minutes) && minutes[i] >= 0 {
			// Minutes() adds one minute of dwell to the rounded duration.
			seg.Seconds = (minutes[i] - 1) * 60
			seg.Known = true
		}
		r.Segments = append(r.Segments, seg)
	}
	return r
}

func departures(id string, times ...string) model.Timetable {
	tt := make(model.Timetable, len(times))
	for i, s := range times {
		tt[i] = model.TimetableEntry{Route: id, Departure: model.MustParseTimeOfDay(s)}
	}
	return tt
}

func TestRunLogLines(t *testing.T) {
	res, err := Run(context.Background(), Config{
		Route:     route("A1", []string{"T", "X", "T"}, 5, 5),
		Timetable: departures("A1", "08:00"),
		FleetSize: 1,
		Random:    &SequenceSource{Values: []int{0, 10, 4, 20}},
	})
	require.NoError(t, err)
	want := []string{
		"Bus 1 departs at 08:00",
		"Bus 1 at T: 0 alight, 0 onboard",
		"Bus 1 at T: 10 board, 10 onboard",
		"Bus 1 reaches X at 08:05",
		"Bus 1 at X: 4 alight, 6 onboard",
		"Bus 1 at X: 20 board, 26 onboard",
		"Bus 1 reaches T at 08:10",
		"Bus 1 at T: 26 alight, 0 onboard",
		"Bus 1 at T: 0 board, 0 onboard",
		"Bus 1 returns to the terminal at 08:10",
	}
	assert.Equal(t, want, res.Lines())
	assert.Equal(t, 0, res.Missed)
	assert.Equal(t, 1, res.TotalTrips)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 30, res.PassengersServed)
	assert.Equal(t, float64(model.EndOfDay-model.At(8, 0)), res.Horizon)
	assert.NotEmpty(t, res.RunID)
	for i, e := range res.Log {
		assert.Equal(t, i, e.Seq)
		assert.Equal(t, res.RunID, e.RunID)
	}
}

func TestRunSingleBusMissesSecondHour(t *testing.T) {
	cases := []struct {
		name    string
		minutes []float64
		missed  int
	}{
		{"bus back in time", []float64{20, 20}, 0},
		{"bus returns exactly at next departure", []float64{30, 30}, 1},
		{"bus still out", []float64{40, 40}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res, err := Run(context.Background(), Config{
				Route:     route("A1", []string{"T", "X", "Y"}, c.minutes...),
				Timetable: departures("A1", "08:00", "09:00"),
				FleetSize: 1,
				Random:    &SequenceSource{},
			})
			require.NoError(t, err)
			assert.Equal(t, c.missed, res.Missed)
			assert.Equal(t, 2, res.TotalTrips)
			missedLines := 0
			for _, l := range res.Lines() {
				if l == "No bus available for scheduled departure at 09:00" {
					missedLines++
				}
			}
			assert.Equal(t, c.missed, missedLines)
			assert.Zero(t, res.PassengersServed)
		})
	}
}

func TestRunUnknownSegmentIsInstant(t *testing.T) {
	res, err := Run(context.Background(), Config{
		Route:     route("D1", []string{"C", "X", "Y", "C"}, 4, -1, 6),
		Timetable: departures("D1", "10:00"),
		FleetSize: 2,
		Random:    &SequenceSource{},
	})
	require.NoError(t, err)
	lines := res.Lines()
	assert.Contains(t, lines, "Bus 1 reaches X at 10:04")
	assert.Contains(t, lines, "Bus 1 reaches Y at 10:04")
	assert.Contains(t, lines, "Bus 1 reaches C at 10:10")
	assert.Contains(t, lines, "Bus 1: no travel time from X to Y, transit not timed")

	last := res.Log[len(res.Log)-1]
	require.Equal(t, EventReturn, last.Kind)
	assert.Equal(t, 10.0, last.Elapsed)
}

func TestRunInvariants(t *testing.T) {
	r := route("A2", []string{"T", "A", "B", "C", "T"}, 7, 9, 6, 8)
	tt := departures("A2", "07:00", "07:05", "07:10", "07:15", "07:20", "07:25", "07:30", "07:45", "08:00")
	capacity := 30
	active := 0
	res, err := Run(context.Background(), Config{
		Route:     r,
		Timetable: tt,
		FleetSize: 3,
		Capacity:  capacity,
		Random:    NewRandomSource(42),
		Observers: []Observer{func(e LogEntry) {
			switch e.Kind {
			case EventDepart:
				active++
			case EventReturn:
				active--
			}
			if active < 0 || active > 3 {
				t.Errorf("active trips out of range: %d", active)
			}
			if e.Onboard < 0 || e.Onboard > capacity {
				t.Errorf("onboard %d outside [0, %d]", e.Onboard, capacity)
			}
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, res.Dispatched+res.Missed, res.TotalTrips)
	assert.Equal(t, res.Dispatched, res.Completed)
	assert.Positive(t, res.Missed)

	// Each completed trip takes exactly the scheduled route time.
	for _, e := range res.Log {
		if e.Kind == EventReturn {
			assert.Equal(t, float64(r.TravelMinutes()), e.Elapsed)
		}
	}
	total := 0
	for _, n := range res.TripsPerBus {
		total += n
	}
	assert.Equal(t, res.Completed, total)
}

func TestRunAbandonsTripsAtHorizon(t *testing.T) {
	res, err := Run(context.Background(), Config{
		Route:     route("K", []string{"T", "X", "T"}, 10, 10),
		Timetable: departures("K", "23:00", "23:50"),
		FleetSize: 1,
		Random:    &SequenceSource{},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Dispatched)
	assert.Equal(t, 1, res.Completed)
	last := res.Log[len(res.Log)-1]
	assert.Equal(t, "Bus 1 at T: 0 board, 0 onboard", last.String())
	assert.Equal(t, "23:50", last.Clock)
}

func TestRunDemandQueue(t *testing.T) {
	records := []model.DemandRecord{
		{Route: "E", Stop: "T", Day: time.Monday, Hour: 8, Minute: 0, Count: 12.2},
		{Route: "E", Stop: "X", Day: time.Monday, Hour: 8, Minute: 0, Count: 100},
		{Route: "E", Stop: "X", Day: time.Tuesday, Hour: 8, Minute: 0, Count: 7},
	}
	res, err := Run(context.Background(), Config{
		Route:     route("E", []string{"T", "X", "Y"}, 3, 3),
		Timetable: departures("E", "08:00"),
		FleetSize: 1,
		Capacity:  50,
		Random:    &SequenceSource{},
		Queue:     NewDemandQueue(records, time.Monday, 15),
	})
	require.NoError(t, err)
	lines := res.Lines()
	assert.Contains(t, lines, "Bus 1 at T: 13 board, 13 onboard")
	assert.Contains(t, lines, "Bus 1 at X: 37 board, 50 onboard")
	assert.Equal(t, 50, res.PassengersServed)
}

func TestRunDemandQueueDrainsSharedBucket(t *testing.T) {
	records := []model.DemandRecord{
		{Route: "E", Stop: "X", Day: time.Monday, Hour: 8, Minute: 0, Count: 40},
	}
	res, err := Run(context.Background(), Config{
		Route:     route("E", []string{"T", "X", "T"}, 1, 1),
		Timetable: departures("E", "08:00", "08:05", "08:10"),
		FleetSize: 1,
		Capacity:  88,
		Random:    &SequenceSource{},
		Queue:     NewDemandQueue(records, time.Monday, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Completed)
	assert.Equal(t, 40, res.PassengersServed)

	var boards []string
	for _, e := range res.Log {
		if e.Kind == EventBoard && e.Stop == "X" {
			boards = append(boards, e.String())
		}
	}
	assert.Equal(t, []string{
		"Bus 1 at X: 40 board, 40 onboard",
		"Bus 1 at X: 0 board, 0 onboard",
		"Bus 1 at X: 0 board, 0 onboard",
	}, boards)
}

func TestDemandQueueCapacityLeavesRemainder(t *testing.T) {
	q := NewDemandQueue([]model.DemandRecord{
		{Route: "E", Stop: "X", Day: time.Monday, Hour: 8, Minute: 0, Count: 100},
	}, time.Monday, 15)
	at := model.At(8, 3)
	assert.Equal(t, 100, q.Queue("E", "X", at))
	q.Boarded("E", "X", at, 88)
	assert.Equal(t, 12, q.Queue("E", "X", model.At(8, 14)))
	q.Boarded("E", "X", at, 50)
	assert.Zero(t, q.Queue("E", "X", at))
	assert.Equal(t, 0, q.Queue("E", "X", model.At(8, 15)))

	q.Boarded("E", "Y", at, 5)
	assert.Zero(t, q.Queue("E", "Y", at))
}

func TestRunConfigErrors(t *testing.T) {
	base := func() Config {
		return Config{
			Route:     route("A1", []string{"T", "X", "T"}, 5, 5),
			Timetable: departures("A1", "08:00", "08:30"),
			FleetSize: 1,
		}
	}
	cases := map[string]func(*Config){
		"no route":       func(c *Config) { c.Route = nil },
		"zero fleet":     func(c *Config) { c.FleetSize = 0 },
		"oversize fleet": func(c *Config) { c.FleetSize = MaxFleetSize + 1 },
		"capacity":       func(c *Config) { c.Capacity = -1 },
		"unsorted":       func(c *Config) { c.Timetable = departures("A1", "09:00", "08:00") },
		"segments":       func(c *Config) { c.Route.Segments = c.Route.Segments[:1] },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(&cfg)
			_, err := Run(context.Background(), cfg)
			assert.ErrorIs(t, err, model.ErrConfiguration)
		})
	}

	res, err := Run(context.Background(), Config{Route: route("A1", []string{"T", "X"}, 5), FleetSize: 1})
	require.NoError(t, err)
	assert.Zero(t, res.TotalTrips)
	assert.Empty(t, res.Log)
}

func TestSequenceSourceClamps(t *testing.T) {
	s := &SequenceSource{Values: []int{-3, 99, 5}}
	assert.Equal(t, 0, s.Between(0, 10))
	assert.Equal(t, 10, s.Between(0, 10))
	assert.Equal(t, 5, s.Between(0, 10))
	assert.Equal(t, 0, s.Between(0, 10))
	assert.Equal(t, 2, (&SequenceSource{}).Between(2, 4))
}

func TestRandomSourceRange(t *testing.T) {
	r := NewRandomSource(7)
	for i := 0; i < 200; i++ {
		v := r.Between(3, 9)
		if v < 3 || v > 9 {
			t.Fatalf("value %d outside range", v)
		}
	}
	assert.Equal(t, 4, r.Between(4, 4))
}
