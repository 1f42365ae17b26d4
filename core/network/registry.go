// Package network resolves route definitions against the stop list and the
// routing provider once per session.
package network

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sourcegraph/conc/pool"

	"github.com/kilianp07/shuttle/core/logger"
	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/routing"
)

// RouteDef is the dataset form of a route.
type RouteDef struct {
	ID        string   `json:"id" yaml:"id"`
	Stops     []string `json:"stops" yaml:"stops"`
	Auxiliary bool     `json:"auxiliary" yaml:"auxiliary"`
}

// Registry holds the resolved stops and timed routes of a network.
type Registry struct {
	stops      []model.Stop
	stopIndex  map[string]int
	routes     []*model.Route
	routeIndex map[string]int
	servedBy   map[string][]string
	provider   routing.Provider
	log        logger.Logger
}

// Options tune Build.
type Options struct {
	// Concurrency bounds parallel provider requests. Zero means 4.
	Concurrency int
	Logger      logger.Logger
}

type pair struct{ from, to string }

// Build registers stops, then routes. Stops named by a route but absent
// from stops are registered without coordinates. Every distinct segment is
// timed once through provider; legs without data are marked unknown.
func Build(ctx context.Context, stops []model.Stop, defs []RouteDef, provider routing.Provider, opts Options) (*Registry, error) {
	r := &Registry{
		stopIndex:  make(map[string]int),
		routeIndex: make(map[string]int),
		servedBy:   make(map[string][]string),
		provider:   provider,
		log:        logger.OrNop(opts.Logger),
	}
	for _, s := range stops {
		if s.Name == "" {
			return nil, model.Configf("stops", "stop with empty name")
		}
		if _, dup := r.stopIndex[s.Name]; dup {
			return nil, model.Configf("stops", "duplicate stop %q", s.Name)
		}
		r.addStop(s)
	}
	for _, d := range defs {
		if d.ID == "" {
			return nil, model.Configf("routes", "route with empty id")
		}
		if _, dup := r.routeIndex[d.ID]; dup {
			return nil, model.Configf("routes", "duplicate route %q", d.ID)
		}
		if len(d.Stops) < 2 {
			return nil, model.Configf("routes", "route %s needs at least two stops", d.ID)
		}
		for _, name := range d.Stops {
			if _, ok := r.stopIndex[name]; !ok {
				r.addStop(model.Stop{Name: name})
				r.log.Warnf("stop %q of route %s has no coordinates", name, d.ID)
			}
		}
		route := &model.Route{ID: d.ID, Stops: append([]string(nil), d.Stops...), Auxiliary: d.Auxiliary}
		r.routeIndex[d.ID] = len(r.routes)
		r.routes = append(r.routes, route)
	}
	for _, s := range r.stops {
		for _, route := range r.routes {
			if route.Serves(s.Name) {
				r.servedBy[s.Name] = append(r.servedBy[s.Name], route.ID)
			}
		}
	}

	var wanted []pair
	for _, route := range r.routes {
		for i := 0; i < len(route.Stops)-1; i++ {
			wanted = append(wanted, pair{route.Stops[i], route.Stops[i+1]})
		}
	}
	legs, err := r.timeLegs(ctx, wanted, opts.Concurrency)
	if err != nil {
		return nil, err
	}
	for _, route := range r.routes {
		route.Segments = make([]model.Segment, 0, len(route.Stops)-1)
		for i := 0; i < len(route.Stops)-1; i++ {
			route.Segments = append(route.Segments, legs.segment(route.Stops[i], route.Stops[i+1]))
		}
	}
	return r, nil
}

func (r *Registry) addStop(s model.Stop) {
	r.stopIndex[s.Name] = len(r.stops)
	r.stops = append(r.stops, s)
}

type legTable map[pair]*routing.Leg

func (t legTable) segment(from, to string) model.Segment {
	seg := model.Segment{From: from, To: to}
	if leg := t[pair{from, to}]; leg != nil {
		seg.Known = true
		seg.Seconds = leg.DurationSeconds
		seg.Geometry = leg.Geometry
	}
	return seg
}

type legResult struct {
	p   pair
	leg *routing.Leg
}

// timeLegs queries the provider for every distinct pair whose stops both
// have coordinates.
func (r *Registry) timeLegs(ctx context.Context, wanted []pair, concurrency int) (legTable, error) {
	if concurrency <= 0 {
		concurrency = 4
	}
	table := make(legTable)
	seen := make(map[pair]bool)
	p := pool.NewWithResults[legResult]().WithContext(ctx).WithMaxGoroutines(concurrency)
	for _, pr := range wanted {
		if seen[pr] {
			continue
		}
		seen[pr] = true
		from, to := r.stops[r.stopIndex[pr.from]], r.stops[r.stopIndex[pr.to]]
		if !from.HasCoords || !to.HasCoords || r.provider == nil {
			continue
		}
		p.Go(func(ctx context.Context) (legResult, error) {
			leg, err := r.provider.Leg(ctx,
				routing.Coordinate{Lat: from.Lat, Lon: from.Lon},
				routing.Coordinate{Lat: to.Lat, Lon: to.Lon})
			if errors.Is(err, routing.ErrNoRoute) {
				r.log.Warnf("no travel time from %s to %s", pr.from, pr.to)
				return legResult{p: pr}, nil
			}
			if err != nil {
				return legResult{}, fmt.Errorf("time segment %s -> %s: %w", pr.from, pr.to, err)
			}
			return legResult{p: pr, leg: &leg}, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.leg != nil {
			table[res.p] = res.leg
		}
	}
	return table, nil
}

// Stops returns the registered stops in registration order.
func (r *Registry) Stops() []model.Stop { return r.stops }

// Stop resolves a stop by name.
func (r *Registry) Stop(name string) (model.Stop, error) {
	i, ok := r.stopIndex[name]
	if !ok {
		return model.Stop{}, model.Configf("stop", "unknown stop %q", name)
	}
	return r.stops[i], nil
}

// Routes returns the routes in definition order.
func (r *Registry) Routes() []*model.Route { return r.routes }

// Route resolves a route by id.
func (r *Registry) Route(id string) (*model.Route, error) {
	i, ok := r.routeIndex[id]
	if !ok {
		return nil, model.Configf("route", "unknown route %q", id)
	}
	return r.routes[i], nil
}

// ServedBy lists the routes serving stop, in route definition order.
func (r *Registry) ServedBy(stop string) []string { return r.servedBy[stop] }

// CoreRoutes returns the routes not flagged auxiliary.
func (r *Registry) CoreRoutes() []string {
	var out []string
	for _, route := range r.routes {
		if !route.Auxiliary {
			out = append(out, route.ID)
		}
	}
	return out
}

// Turnarounds maps every route id to its turnaround time in minutes. Routes
// with unknown legs map to NaN.
func (r *Registry) Turnarounds() map[string]float64 {
	out := make(map[string]float64, len(r.routes))
	for _, route := range r.routes {
		out[route.ID] = route.Turnaround()
	}
	return out
}

// PathTurnaround times an ad-hoc path through stops, in the given order, and
// returns its duration in minutes. It is NaN when any leg has no data.
func (r *Registry) PathTurnaround(ctx context.Context, stops []string) (float64, error) {
	if len(stops) < 2 {
		return math.NaN(), nil
	}
	var wanted []pair
	for i := 0; i < len(stops)-1; i++ {
		for _, s := range stops[i : i+2] {
			if _, err := r.Stop(s); err != nil {
				return 0, err
			}
		}
		wanted = append(wanted, pair{stops[i], stops[i+1]})
	}
	legs, err := r.timeLegs(ctx, wanted, 0)
	if err != nil {
		return 0, err
	}
	path := &model.Route{ID: "path", Stops: stops}
	for _, pr := range wanted {
		path.Segments = append(path.Segments, legs.segment(pr.from, pr.to))
	}
	return path.Turnaround(), nil
}
