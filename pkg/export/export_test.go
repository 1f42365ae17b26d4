package export

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/optimizer"
	"github.com/kilianp07/shuttle/core/sim"
)

func samplePlan() optimizer.AllocationPlan {
	return optimizer.AllocationPlan{
		Intervals: []optimizer.IntervalFleet{{Hour: 8, Minute: 0, Buses: 4}, {Hour: 8, Minute: 15, Buses: 2}},
		Routes:    []optimizer.RouteFleet{{Route: "A1", Buses: 4}, {Route: "K", Buses: math.NaN()}},
		Total:     4,
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)
	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestWritePlanCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlan(&buf, CSV, samplePlan()))
	want := "time,hour,minute,buses\n08:00,8,0,4\n08:15,8,15,2\n\nroute,buses\nA1,4\nK,\n"
	assert.Equal(t, want, buf.String())
}

func TestWritePlanJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlan(&buf, JSON, samplePlan()))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	routes := got["routes"].([]any)
	assert.Nil(t, routes[1].(map[string]any)["buses"])
	assert.Equal(t, 4.0, got["total"])
}

func TestWriteLogCSV(t *testing.T) {
	entries := []sim.LogEntry{
		{RunID: "r", Seq: 0, Kind: sim.EventDepart, Clock: "08:00", Route: "A1", BusID: 1},
		{RunID: "r", Seq: 1, Kind: sim.EventMissed, Clock: "08:05", Route: "A1"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteLog(&buf, CSV, entries))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "run_id,seq,clock,kind,route,bus_id,stop,count,onboard,message", lines[0])
	assert.Equal(t, "r,0,08:00,depart,A1,1,,0,0,Bus 1 departs at 08:00", lines[1])
	assert.Contains(t, lines[2], "No bus available for scheduled departure at 08:05")
}

func TestWriteTimetables(t *testing.T) {
	tt := map[string]model.Timetable{
		"D1": {{Route: "D1", Departure: model.At(7, 15)}},
		"A1": {{Route: "A1", Departure: model.At(7, 15)}, {Route: "A1", Departure: model.At(7, 24)}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTimetables(&buf, CSV, tt))
	assert.Equal(t, "route,departure\nA1,07:15\nA1,07:24\nD1,07:15\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteTimetables(&buf, JSON, tt))
	assert.JSONEq(t, `{"A1":["07:15","07:24"],"D1":["07:15"]}`, buf.String())
}
