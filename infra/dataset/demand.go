package dataset

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/shuttle/core/model"
)

// DefaultAliases maps service names found in prediction files to route ids.
var DefaultAliases = map[string]string{
	"BTC (Bukit Timah Campus)": "BTC",
}

// demandRow mirrors the columns of the prediction file. Either time_start or
// hour and minute locate the bucket.
type demandRow struct {
	Service   string `csv:"ISB_Service"`
	Stop      string `csv:"bus_stop_board"`
	Day       string `csv:"day_of_the_week"`
	TimeStart string `csv:"time_start"`
	Hour      string `csv:"hour"`
	Minute    string `csv:"minute"`
	Count     string `csv:"predicted_count"`
}

// DemandOptions tunes demand parsing.
type DemandOptions struct {
	// Aliases renames services. Nil means DefaultAliases.
	Aliases map[string]string
}

// LoadDemand reads the prediction file at path.
func LoadDemand(path string, opts DemandOptions) ([]model.DemandRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDemand(f, opts)
}

// ReadDemand parses prediction rows. Counts are rounded up to whole
// passengers and service aliases are resolved.
func ReadDemand(r io.Reader, opts DemandOptions) ([]model.DemandRecord, error) {
	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultAliases
	}
	var rows []demandRow
	if err := unmarshal(r, &rows, true); err != nil {
		return nil, fmt.Errorf("read demand: %w", err)
	}
	out := make([]model.DemandRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := row.record(aliases)
		if err != nil {
			// Line 1 is the header.
			return nil, model.Configf("dataset.demand", "line %d: %v", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r demandRow) record(aliases map[string]string) (model.DemandRecord, error) {
	route := strings.TrimSpace(r.Service)
	if alias, ok := aliases[route]; ok {
		route = alias
	}
	stop := strings.TrimSpace(r.Stop)
	if route == "" || stop == "" {
		return model.DemandRecord{}, fmt.Errorf("missing service or stop")
	}
	day, err := model.ParseWeekday(r.Day)
	if err != nil {
		return model.DemandRecord{}, err
	}
	t, err := r.bucket()
	if err != nil {
		return model.DemandRecord{}, err
	}
	count, err := strconv.ParseFloat(strings.TrimSpace(r.Count), 64)
	if err != nil || count < 0 || math.IsNaN(count) {
		return model.DemandRecord{}, fmt.Errorf("invalid predicted_count %q", r.Count)
	}
	return model.DemandRecord{
		Route:  route,
		Stop:   stop,
		Day:    day,
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Count:  math.Ceil(count),
	}, nil
}

func (r demandRow) bucket() (model.TimeOfDay, error) {
	if ts := strings.TrimSpace(r.TimeStart); ts != "" {
		return model.ParseTimeOfDay(ts)
	}
	h, err := strconv.Atoi(strings.TrimSpace(r.Hour))
	if err != nil {
		return 0, fmt.Errorf("invalid hour %q", r.Hour)
	}
	m, err := strconv.Atoi(strings.TrimSpace(r.Minute))
	if err != nil {
		return 0, fmt.Errorf("invalid minute %q", r.Minute)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("bucket %02d:%02d out of range", h, m)
	}
	return model.At(h, m), nil
}
