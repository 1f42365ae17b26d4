// Package optimizer sizes the fleet from peak demand and searches the share
// of demand worth diverting to an express route.
package optimizer

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/shuttle/core/demand"
	"github.com/kilianp07/shuttle/core/model"
)

// DefaultInterval is the scheduling granularity in minutes.
const DefaultInterval = 15.0

// BusesNeeded returns the buses required to move peak passengers within one
// interval on a route whose loop takes turnaround minutes. It is NaN when
// the turnaround is unknown or not positive.
func BusesNeeded(peak float64, capacity int, interval, turnaround float64) float64 {
	if math.IsNaN(turnaround) || turnaround <= 0 || capacity <= 0 || interval <= 0 {
		return math.NaN()
	}
	tripsPerInterval := interval / turnaround
	return math.Ceil(math.Ceil(peak/float64(capacity)) / tripsPerInterval)
}

// Need is the fleet requirement of one route in one interval.
type Need struct {
	Route  string  `json:"route"`
	Hour   int     `json:"hour"`
	Minute int     `json:"minute"`
	Peak   float64 `json:"peak"`
	Buses  float64 `json:"buses"`
}

// MarshalJSON encodes an undefined bus count as null.
func (n Need) MarshalJSON() ([]byte, error) {
	type alias Need
	return json.Marshal(struct {
		alias
		Buses *float64 `json:"buses"`
	}{alias(n), defined(n.Buses)})
}

// IntervalFleet is the fleet needed across all routes in one interval.
type IntervalFleet struct {
	Hour   int     `json:"hour"`
	Minute int     `json:"minute"`
	Buses  float64 `json:"buses"`
}

// RouteFleet is the minimum fleet of a route: its busiest interval.
type RouteFleet struct {
	Route string  `json:"route"`
	Buses float64 `json:"buses"`
}

// MarshalJSON encodes an undefined bus count as null.
func (r RouteFleet) MarshalJSON() ([]byte, error) {
	type alias RouteFleet
	return json.Marshal(struct {
		alias
		Buses *float64 `json:"buses"`
	}{alias(r), defined(r.Buses)})
}

// Defined reports whether the route's turnaround was known.
func (r RouteFleet) Defined() bool { return !math.IsNaN(r.Buses) }

// AllocationPlan is the fleet sizing of a demand set.
type AllocationPlan struct {
	Needs     []Need          `json:"needs"`
	Intervals []IntervalFleet `json:"intervals"`
	Routes    []RouteFleet    `json:"routes"`
	Total     float64         `json:"total"`

	Express       bool     `json:"express"`
	ExpressRoute  string   `json:"express_route,omitempty"`
	ExpressStops  []string `json:"express_stops,omitempty"`
	ExpressRatio  float64  `json:"express_ratio,omitempty"`
	BaselineTotal float64  `json:"baseline_total,omitempty"`
}

// Route returns the fleet entry of id.
func (p AllocationPlan) Route(id string) (RouteFleet, bool) {
	for _, r := range p.Routes {
		if r.Route == id {
			return r, true
		}
	}
	return RouteFleet{}, false
}

// Planner sizes fleets for a fixed capacity, interval and set of route
// turnaround times.
type Planner struct {
	Capacity int
	// Interval is the bucket length in minutes. Zero means DefaultInterval.
	Interval float64
	// Turnaround maps a route to its loop time in minutes.
	Turnaround map[string]float64
}

func (p Planner) interval() float64 {
	if p.Interval <= 0 {
		return DefaultInterval
	}
	return p.Interval
}

// Validate checks the planner parameters.
func (p Planner) Validate() error {
	if p.Capacity <= 0 {
		return model.Configf("fleet.capacity", "must be positive, got %d", p.Capacity)
	}
	if p.Interval < 0 {
		return model.Configf("optimization.interval", "must not be negative, got %v", p.Interval)
	}
	return nil
}

// turnaround looks a route up, treating a missing entry as unknown.
func (p Planner) turnaround(route string) float64 {
	t, ok := p.Turnaround[route]
	if !ok {
		return math.NaN()
	}
	return t
}

// Plan computes the per-interval and per-route fleet for records. The peak of
// an interval is the largest single record of the route in it. Undefined
// needs are left out of every sum and maximum.
func (p Planner) Plan(records []model.DemandRecord) (AllocationPlan, error) {
	if err := p.Validate(); err != nil {
		return AllocationPlan{}, err
	}
	peaks := demand.PeakByInterval(records)
	plan := AllocationPlan{Needs: make([]Need, 0, len(peaks))}

	type slot struct{ hour, minute int }
	byInterval := make(map[slot][]float64)
	byRoute := make(map[string][]float64)
	for _, pk := range peaks {
		n := Need{
			Route:  pk.Route,
			Hour:   pk.Hour,
			Minute: pk.Minute,
			Peak:   pk.Peak,
			Buses:  BusesNeeded(pk.Peak, p.Capacity, p.interval(), p.turnaround(pk.Route)),
		}
		plan.Needs = append(plan.Needs, n)
		k := slot{pk.Hour, pk.Minute}
		byInterval[k] = append(byInterval[k], n.Buses)
		byRoute[pk.Route] = append(byRoute[pk.Route], n.Buses)
	}

	for k, v := range byInterval {
		plan.Intervals = append(plan.Intervals, IntervalFleet{Hour: k.hour, Minute: k.minute, Buses: sumDefined(v)})
	}
	slices.SortFunc(plan.Intervals, func(a, b IntervalFleet) int {
		return cmp.Or(cmp.Compare(a.Hour, b.Hour), cmp.Compare(a.Minute, b.Minute))
	})

	for route, v := range byRoute {
		plan.Routes = append(plan.Routes, RouteFleet{Route: route, Buses: maxDefined(v)})
	}
	slices.SortFunc(plan.Routes, func(a, b RouteFleet) int { return cmp.Compare(a.Route, b.Route) })

	totals := make([]float64, len(plan.Routes))
	for i, r := range plan.Routes {
		totals[i] = r.Buses
	}
	plan.Total = sumDefined(totals)
	return plan, nil
}

func definedOnly(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func sumDefined(xs []float64) float64 {
	return floats.Sum(definedOnly(xs))
}

func maxDefined(xs []float64) float64 {
	d := definedOnly(xs)
	if len(d) == 0 {
		return math.NaN()
	}
	return floats.Max(d)
}

func defined(x float64) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	return &x
}
