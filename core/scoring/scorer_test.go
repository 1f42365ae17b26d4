package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/network"
	"github.com/kilianp07/shuttle/core/routing"
)

type flatProvider struct{ seconds float64 }

func (p flatProvider) Leg(context.Context, routing.Coordinate, routing.Coordinate) (routing.Leg, error) {
	return routing.Leg{DurationSeconds: p.seconds}, nil
}

// Route A runs T -> X -> T with five scheduled minutes per leg.
func testNetwork(t *testing.T) *network.Registry {
	t.Helper()
	stops := []model.Stop{
		{Name: "T", Lat: 1, Lon: 1, HasCoords: true},
		{Name: "X", Lat: 1, Lon: 2, HasCoords: true},
	}
	defs := []network.RouteDef{
		{ID: "A", Stops: []string{"T", "X", "T"}},
		{ID: "K", Stops: []string{"X", "T"}, Auxiliary: true},
	}
	reg, err := network.Build(context.Background(), stops, defs, flatProvider{seconds: 240}, network.Options{})
	require.NoError(t, err)
	return reg
}

func timetable(route string, times ...string) model.Timetable {
	out := make(model.Timetable, len(times))
	for i, s := range times {
		out[i] = model.TimetableEntry{Route: route, Departure: model.MustParseTimeOfDay(s)}
	}
	return out
}

func record(route, stop, at string, count float64) model.DemandRecord {
	t := model.MustParseTimeOfDay(at)
	return model.DemandRecord{Route: route, Stop: stop, Day: time.Monday, Hour: t.Hour(), Minute: t.Minute(), Count: count}
}

func window(t *testing.T, start, end string) model.Window {
	t.Helper()
	w, err := model.ParseWindow(start, end)
	require.NoError(t, err)
	return w
}

func newTestScorer(t *testing.T, records ...model.DemandRecord) *Scorer {
	t.Helper()
	s, err := NewScorer(testNetwork(t), map[string]model.Timetable{
		"A": timetable("A", "08:00", "08:30"),
	}, records, Options{})
	require.NoError(t, err)
	return s
}

func TestArrivals(t *testing.T) {
	s := newTestScorer(t)
	assert.Equal(t, []model.TimeOfDay{model.At(8, 5), model.At(8, 35)}, s.Arrivals("A", "X"))
	assert.Equal(t, []model.TimeOfDay{model.At(8, 0), model.At(8, 30)}, s.Arrivals("A", "T"))

	next, ok := s.NextArrival("A", "X", model.At(8, 5))
	require.True(t, ok)
	assert.Equal(t, model.At(8, 5), next)
	_, ok = s.NextArrival("A", "X", model.At(8, 36))
	assert.False(t, ok)
	assert.True(t, s.IsCore("A"))
	assert.False(t, s.IsCore("K"))
}

func TestSatisfactionEntry(t *testing.T) {
	s := newTestScorer(t,
		record("A", "X", "08:00", 10),
		record("A", "X", "08:20", 2),
		record("A", "X", "09:00", 7),
	)
	v, err := s.Entry("X", "A", time.Monday, window(t, "08:00", "08:30"))
	require.NoError(t, err)
	assert.InDelta(t, 10*5+2*15, v, 1e-9)

	v, err = s.Entry("X", "A", time.Tuesday, window(t, "08:00", "08:30"))
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestSatisfactionMonotoneInCount(t *testing.T) {
	w := window(t, "08:00", "08:30")
	low, err := newTestScorer(t, record("A", "X", "08:10", 3)).Entry("X", "A", time.Monday, w)
	require.NoError(t, err)
	high, err := newTestScorer(t, record("A", "X", "08:10", 4)).Entry("X", "A", time.Monday, w)
	require.NoError(t, err)
	assert.Greater(t, high, low)
}

func TestSatisfactionNoUpcomingDeparture(t *testing.T) {
	s := newTestScorer(t, record("A", "X", "08:40", 1))
	_, err := s.Entry("X", "A", time.Monday, window(t, "08:00", "09:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoUpcomingDeparture))
	var nu *NoUpcomingDepartureError
	require.ErrorAs(t, err, &nu)
	assert.Equal(t, "X", nu.Stop)
	assert.Equal(t, model.At(8, 40), nu.At)

	_, err = s.Satisfaction(time.Monday, window(t, "08:00", "09:00"))
	assert.ErrorIs(t, err, ErrNoUpcomingDeparture)
}

func TestSatisfactionUnknownStop(t *testing.T) {
	s := newTestScorer(t)
	_, err := s.Entry("nowhere", "A", time.Monday, window(t, "08:00", "09:00"))
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestSatisfactionAllStops(t *testing.T) {
	s := newTestScorer(t, record("A", "X", "08:00", 10))
	sat, err := s.Satisfaction(time.Monday, window(t, "08:00", "08:30"))
	require.NoError(t, err)
	assert.InDelta(t, 50.0, sat["X"]["A"], 1e-9)
	assert.Zero(t, sat["X"]["K"])
	assert.Contains(t, sat["T"], "A")
	assert.Zero(t, sat["T"]["A"])
}

func TestDensityMultiplier(t *testing.T) {
	cases := []struct {
		total float64
		want  float64
	}{
		{0, 1}, {20, 1}, {20.5, 2}, {40, 2}, {41, 3}, {60, 3}, {61, 4}, {80, 4}, {100, 5}, {100.1, 6}, {500, 6},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DensityMultiplier(c.total), "total %v", c.total)
	}
}

func TestDensityResetsOnArrival(t *testing.T) {
	s := newTestScorer(t,
		record("A", "X", "08:00", 10),
		record("K", "X", "08:01", 100),
	)
	series, err := s.DensitySeries("X", time.Monday, window(t, "08:00", "08:06"))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 10, 10, 10, 0, 0}, series)

	d, err := s.Density("X", time.Monday, window(t, "08:00", "08:06"))
	require.NoError(t, err)
	assert.InDelta(t, 50.0, d, 1e-9)
}

func TestDensityTierWeighting(t *testing.T) {
	s := newTestScorer(t, record("A", "X", "08:00", 30))
	d, err := s.Density("X", time.Monday, window(t, "08:00", "08:01"))
	require.NoError(t, err)
	assert.InDelta(t, 2*30*2, d, 1e-9)
}

func TestRank(t *testing.T) {
	s := newTestScorer(t,
		record("A", "X", "08:00", 10),
		record("A", "X", "08:20", 2),
	)
	ranking, err := s.Rank(time.Monday, window(t, "08:00", "08:30"))
	require.NoError(t, err)
	require.Len(t, ranking, 2)

	assert.Equal(t, "X", ranking[0].Stop)
	assert.InDelta(t, 80.0, ranking[0].Satisfaction, 1e-9)
	assert.InDelta(t, 72.0, ranking[0].Density, 1e-9)
	assert.InDelta(t, 152.0, ranking[0].Score, 1e-9)
	assert.Equal(t, "T", ranking[1].Stop)
	assert.Zero(t, ranking[1].Score)

	assert.Equal(t, []string{"X"}, TopK(ranking, 1))
	assert.Equal(t, []string{"X", "T"}, TopK(ranking, 0))
}

func TestRankTiesKeepRegistryOrder(t *testing.T) {
	s := newTestScorer(t)
	ranking, err := s.Rank(time.Monday, window(t, "08:00", "08:30"))
	require.NoError(t, err)
	assert.Equal(t, []string{"T", "X"}, TopK(ranking, 2))
}

func TestNewScorerRejectsUnknownRoutes(t *testing.T) {
	_, err := NewScorer(testNetwork(t), map[string]model.Timetable{"Z": nil}, nil, Options{})
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = NewScorer(testNetwork(t), nil, nil, Options{CoreRoutes: []string{"Z"}})
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
