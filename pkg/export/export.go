// Package export writes allocation plans, timetables and simulation logs as
// JSON or CSV.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/optimizer"
	"github.com/kilianp07/shuttle/core/sim"
)

// Format is an output encoding.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat accepts "json" or "csv", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, CSV:
		return f, nil
	}
	return "", model.Configf("format", "unsupported export format %q", s)
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type intervalRow struct {
	Time   string `csv:"time"`
	Hour   int    `csv:"hour"`
	Minute int    `csv:"minute"`
	Buses  string `csv:"buses"`
}

type routeRow struct {
	Route string `csv:"route"`
	Buses string `csv:"buses"`
}

type logRow struct {
	RunID   string `csv:"run_id"`
	Seq     int    `csv:"seq"`
	Clock   string `csv:"clock"`
	Kind    string `csv:"kind"`
	Route   string `csv:"route"`
	BusID   int    `csv:"bus_id"`
	Stop    string `csv:"stop"`
	Count   int    `csv:"count"`
	Onboard int    `csv:"onboard"`
	Message string `csv:"message"`
}

type departureRow struct {
	Route     string `csv:"route"`
	Departure string `csv:"departure"`
}

// buses renders an undefined fleet size as an empty cell.
func buses(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteIntervalsCSV writes the per-interval fleet table.
func WriteIntervalsCSV(w io.Writer, intervals []optimizer.IntervalFleet) error {
	rows := make([]intervalRow, len(intervals))
	for i, iv := range intervals {
		rows[i] = intervalRow{
			Time:   model.At(iv.Hour, iv.Minute).String(),
			Hour:   iv.Hour,
			Minute: iv.Minute,
			Buses:  buses(iv.Buses),
		}
	}
	return gocsv.Marshal(rows, w)
}

// WriteRoutesCSV writes the per-route fleet table.
func WriteRoutesCSV(w io.Writer, routes []optimizer.RouteFleet) error {
	rows := make([]routeRow, len(routes))
	for i, r := range routes {
		rows[i] = routeRow{Route: r.Route, Buses: buses(r.Buses)}
	}
	return gocsv.Marshal(rows, w)
}

// WritePlan writes plan in format. CSV output holds the interval table, a
// blank line, then the route table.
func WritePlan(w io.Writer, format Format, plan optimizer.AllocationPlan) error {
	switch format {
	case JSON:
		return WriteJSON(w, plan)
	case CSV:
		if err := WriteIntervalsCSV(w, plan.Intervals); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		return WriteRoutesCSV(w, plan.Routes)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteLog writes simulation log entries in format.
func WriteLog(w io.Writer, format Format, entries []sim.LogEntry) error {
	switch format {
	case JSON:
		return WriteJSON(w, entries)
	case CSV:
		rows := make([]logRow, len(entries))
		for i, e := range entries {
			rows[i] = logRow{
				RunID:   e.RunID,
				Seq:     e.Seq,
				Clock:   e.Clock,
				Kind:    string(e.Kind),
				Route:   e.Route,
				BusID:   e.BusID,
				Stop:    e.Stop,
				Count:   e.Count,
				Onboard: e.Onboard,
				Message: e.String(),
			}
		}
		return gocsv.Marshal(rows, w)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteTimetables writes every route's departures, routes in name order.
func WriteTimetables(w io.Writer, format Format, timetables map[string]model.Timetable) error {
	ids := slices.Sorted(maps.Keys(timetables))
	switch format {
	case JSON:
		out := make(map[string][]string, len(ids))
		for _, id := range ids {
			deps := timetables[id].Departures()
			times := make([]string, len(deps))
			for i, d := range deps {
				times[i] = d.String()
			}
			out[id] = times
		}
		return WriteJSON(w, out)
	case CSV:
		var rows []departureRow
		for _, id := range ids {
			for _, d := range timetables[id].Departures() {
				rows = append(rows, departureRow{Route: id, Departure: d.String()})
			}
		}
		return gocsv.Marshal(rows, w)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
