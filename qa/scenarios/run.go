package scenarios

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/shuttle/core/metrics"
	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/optimizer"
	"github.com/kilianp07/shuttle/core/sim"
	"github.com/kilianp07/shuttle/infra/logger"
	"github.com/kilianp07/shuttle/infra/metrics"
)

// fixedQueue presents the same number of waiting passengers at every stop.
type fixedQueue int

func (q fixedQueue) Queue(string, string, model.TimeOfDay) int { return int(q) }

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	tt, err := sc.Timetable()
	if err != nil {
		t.Fatalf("timetable: %v", err)
	}
	res, err := sim.Run(context.Background(), sim.Config{
		Route:     sc.Route.ToModel(),
		Timetable: tt,
		FleetSize: sc.Fleet,
		Capacity:  sc.Capacity,
		Random:    &sim.SequenceSource{Values: sc.Alight},
		Queue:     fixedQueue(sc.Queue),
		Logger:    logger.NopLogger{},
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if err := sink.RecordSimulation(coremetrics.SimulationEvent{
		RunID:      res.RunID,
		Route:      res.Route,
		FleetSize:  sc.Fleet,
		TotalTrips: res.TotalTrips,
		Dispatched: res.Dispatched,
		Missed:     res.Missed,
		Completed:  res.Completed,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if res.Missed != sc.Expected.Missed {
		t.Errorf("scenario %s expected %d missed, got %d", sc.Name, sc.Expected.Missed, res.Missed)
	}
	if res.Dispatched != sc.Expected.Dispatched {
		t.Errorf("scenario %s expected %d dispatched, got %d", sc.Name, sc.Expected.Dispatched, res.Dispatched)
	}
	if res.Completed != sc.Expected.Completed {
		t.Errorf("scenario %s expected %d completed, got %d", sc.Name, sc.Expected.Completed, res.Completed)
	}
	missed := testutil.ToFloat64(sink.Departures().WithLabelValues(sc.Route.ID, "missed"))
	if int(missed) != sc.Expected.Missed {
		t.Errorf("scenario %s expected missed metric %d, got %v", sc.Name, sc.Expected.Missed, missed)
	}
	log := strings.Join(res.Lines(), "\n")
	for _, want := range sc.Expected.Contains {
		if !strings.Contains(log, want) {
			t.Errorf("scenario %s log lacks %q", sc.Name, want)
		}
	}

	if fs := sc.FleetSizing; fs != nil {
		got := optimizer.BusesNeeded(fs.Peak, fs.Capacity, fs.Interval, fs.Turnaround)
		if got != fs.Expected && !(math.IsNaN(got) && fs.Expected < 0) {
			t.Errorf("scenario %s expected %v buses, got %v", sc.Name, fs.Expected, got)
		}
	}
}
