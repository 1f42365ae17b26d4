package optimizer

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kilianp07/shuttle/core/demand"
	"github.com/kilianp07/shuttle/core/logger"
	"github.com/kilianp07/shuttle/core/model"
)

// Search defaults.
const (
	DefaultExpressRoute = "EX"
	DefaultRatioStart   = 0.2
	DefaultRatioStep    = 0.1
)

const ratioEpsilon = 1e-9

// ErrInvalidRatio reports a ratio search that cannot produce any ratio.
var ErrInvalidRatio = errors.New("invalid express ratio")

// Ratios lists start, start+step, ... up to 1.0 inclusive.
func Ratios(start, step float64) ([]float64, error) {
	if math.IsNaN(start) || start <= 0 || start > 1+ratioEpsilon {
		return nil, fmt.Errorf("%w: start %v outside (0, 1]", ErrInvalidRatio, start)
	}
	if math.IsNaN(step) || step <= 0 {
		return nil, fmt.Errorf("%w: step %v must be positive", ErrInvalidRatio, step)
	}
	var out []float64
	for i := 0; ; i++ {
		r := start + float64(i)*step
		if r > 1+ratioEpsilon {
			break
		}
		out = append(out, math.Min(r, 1))
	}
	return out, nil
}

// Split diverts ratio of the demand boarding at each express stop, in each
// interval of w, to route. The returned slice holds every record of day with
// the diverted share removed, followed by one express record per stop and
// interval. records is never modified.
func Split(records []model.DemandRecord, day time.Weekday, w model.Window, stops []string, route string, ratio float64, interval int) []model.DemandRecord {
	base := demand.FilterDay(records, day)
	type bucket struct {
		t    model.TimeOfDay
		stop string
	}
	rows := make(map[bucket][]int)
	for i, r := range base {
		k := bucket{r.Time(), r.Stop}
		rows[k] = append(rows[k], i)
	}

	out := slices.Clone(base)
	for _, t := range demand.Intervals(w, interval) {
		for _, stop := range uniqueStops(stops) {
			total := 0.0
			for _, i := range rows[bucket{t, stop}] {
				total += base[i].Count
				out[i].Count = base[i].Count * (1 - ratio)
			}
			out = append(out, model.DemandRecord{
				Route:  route,
				Stop:   stop,
				Day:    day,
				Hour:   t.Hour(),
				Minute: t.Minute(),
				Count:  ratio * total,
			})
		}
	}
	return out
}

func uniqueStops(stops []string) []string {
	seen := make(map[string]bool, len(stops))
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// ExpressSearch evaluates diversion ratios for a candidate express route.
type ExpressSearch struct {
	Planner Planner
	Records []model.DemandRecord
	Day     time.Weekday
	Window  model.Window
	// Stops are the express stops in visiting order.
	Stops []string
	// Turnaround is the express loop time in minutes; NaN if unknown.
	Turnaround float64
	// Route names the express service. Empty means DefaultExpressRoute.
	Route       string
	RatioStart  float64
	RatioStep   float64
	Concurrency int
	Logger      logger.Logger
}

// ExpressResult is the outcome of a ratio search.
type ExpressResult struct {
	Plan      AllocationPlan `json:"plan"`
	Ratio     float64        `json:"ratio"`
	Total     float64        `json:"total"`
	Baseline  float64        `json:"baseline"`
	Evaluated int            `json:"evaluated"`
	// Beneficial is false when every ratio needs more buses than no
	// diversion at all.
	Beneficial bool `json:"beneficial"`
}

type evaluation struct {
	index int
	ratio float64
	plan  AllocationPlan
}

// Run evaluates every ratio and returns the plan with the fewest buses. Ties
// keep the lowest ratio.
func (s ExpressSearch) Run(ctx context.Context) (*ExpressResult, error) {
	start, step := s.RatioStart, s.RatioStep
	if start == 0 {
		start = DefaultRatioStart
	}
	if step == 0 {
		step = DefaultRatioStep
	}
	ratios, err := Ratios(start, step)
	if err != nil {
		return nil, err
	}
	if err := s.Planner.Validate(); err != nil {
		return nil, err
	}
	if err := s.Window.Validate(); err != nil {
		return nil, err
	}
	if len(s.Stops) == 0 {
		return nil, model.Configf("optimization.express_stops", "no express stops")
	}
	route := s.Route
	if route == "" {
		route = DefaultExpressRoute
	}
	if _, clash := s.Planner.Turnaround[route]; clash {
		return nil, model.Configf("optimization.express_route", "route %q already exists", route)
	}
	log := logger.OrNop(s.Logger)

	planner := s.Planner
	planner.Turnaround = maps.Clone(s.Planner.Turnaround)
	if planner.Turnaround == nil {
		planner.Turnaround = make(map[string]float64, 1)
	}
	planner.Turnaround[route] = s.Turnaround
	interval := int(planner.interval())

	baseline, err := planner.Plan(Split(s.Records, s.Day, s.Window, s.Stops, route, 0, interval))
	if err != nil {
		return nil, err
	}

	workers := s.Concurrency
	if workers <= 0 {
		workers = 4
	}
	p := pool.NewWithResults[evaluation]().WithContext(ctx).WithMaxGoroutines(workers)
	for i, r := range ratios {
		p.Go(func(ctx context.Context) (evaluation, error) {
			if err := ctx.Err(); err != nil {
				return evaluation{}, err
			}
			plan, err := planner.Plan(Split(s.Records, s.Day, s.Window, s.Stops, route, r, interval))
			return evaluation{index: i, ratio: r, plan: plan}, err
		})
	}
	evals, err := p.Wait()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(evals, func(a, b evaluation) int { return a.index - b.index })

	best := evals[0]
	for _, e := range evals[1:] {
		log.Debugf("express ratio %.2f needs %.0f buses", e.ratio, e.plan.Total)
		if e.plan.Total < best.plan.Total {
			best = e
		}
	}

	plan := best.plan
	plan.Express = true
	plan.ExpressRoute = route
	plan.ExpressStops = slices.Clone(s.Stops)
	plan.ExpressRatio = best.ratio
	plan.BaselineTotal = baseline.Total

	res := &ExpressResult{
		Plan:       plan,
		Ratio:      best.ratio,
		Total:      plan.Total,
		Baseline:   baseline.Total,
		Evaluated:  len(evals),
		Beneficial: plan.Total <= baseline.Total,
	}
	log.Infof("express ratio %.2f needs %.0f buses (baseline %.0f)", res.Ratio, res.Total, res.Baseline)
	return res, nil
}
