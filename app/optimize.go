package app

import (
	"context"
	"fmt"
	"math"
	"time"

	coremetrics "github.com/kilianp07/shuttle/core/metrics"
	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/optimizer"
	"github.com/kilianp07/shuttle/core/scoring"
	"github.com/kilianp07/shuttle/infra/logger"
)

// OptimizeOptions override the configured optimization for one run.
type OptimizeOptions struct {
	Day   string
	Start string
	End   string
	TopK  int
}

// Optimization is the outcome of stop ranking and the express ratio search.
type Optimization struct {
	Day        string             `json:"day"`
	Window     [2]string          `json:"window"`
	Ranking    []scoring.Priority `json:"ranking"`
	Candidates []string           `json:"candidates"`
	// ExpressTurnaround is the run time of the candidate express route in
	// minutes. It is null in JSON when a leg has no travel data.
	ExpressTurnaround *float64                `json:"express_turnaround"`
	Express           *optimizer.ExpressResult `json:"express"`
}

// Plan is the allocation plan at the chosen ratio.
func (o *Optimization) Plan() optimizer.AllocationPlan { return o.Express.Plan }

// Optimize ranks stops by unmet demand, builds an express route through the
// top candidates and searches the diversion ratio that minimizes the fleet.
func (s *Service) Optimize(ctx context.Context, opts OptimizeOptions) (*Optimization, error) {
	oc := s.cfg.Optimization
	if opts.Day != "" {
		oc.Day = opts.Day
	}
	if opts.Start != "" {
		oc.Start = opts.Start
	}
	if opts.End != "" {
		oc.End = opts.End
	}
	if opts.TopK > 0 {
		oc.TopK = opts.TopK
	}
	day, err := model.ParseWeekday(oc.Day)
	if err != nil {
		return nil, model.Configf("optimization.day", "%v", err)
	}
	w, err := oc.Window()
	if err != nil {
		return nil, err
	}

	scorer, err := scoring.NewScorer(s.net, s.timetables, s.data.Demand, scoring.Options{
		CoreRoutes:  oc.CoreRoutes,
		Concurrency: oc.Concurrency,
		Logger:      logger.New("scoring"),
	})
	if err != nil {
		return nil, err
	}
	ranking, err := scorer.Rank(day, w)
	if err != nil {
		return nil, fmt.Errorf("rank stops: %w", err)
	}
	candidates := scoring.TopK(ranking, oc.TopK)

	// The express run visits the candidates in ranking order, first to last.
	turnaround, err := s.net.PathTurnaround(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("express turnaround: %w", err)
	}

	search := optimizer.ExpressSearch{
		Planner: optimizer.Planner{
			Capacity:   s.cfg.Fleet.Capacity,
			Interval:   oc.Interval,
			Turnaround: s.net.Turnarounds(),
		},
		Records:     s.data.Demand,
		Day:         day,
		Window:      w,
		Stops:       candidates,
		Turnaround:  turnaround,
		Route:       oc.ExpressRoute,
		RatioStart:  oc.RatioStart,
		RatioStep:   oc.RatioStep,
		Concurrency: oc.Concurrency,
		Logger:      logger.New("optimizer"),
	}
	res, err := search.Run(ctx)
	if err != nil {
		return nil, err
	}

	out := &Optimization{
		Day:        day.String(),
		Window:     [2]string{w.Start.String(), w.End.String()},
		Ranking:    ranking,
		Candidates: candidates,
		Express:    res,
	}
	if !math.IsNaN(turnaround) {
		out.ExpressTurnaround = &turnaround
	}
	s.recordPlan(planEvent(out))
	if s.pub != nil {
		if err := s.pub.PublishPlan(out); err != nil {
			s.log.Warnf("publish plan: %v", err)
		}
	}
	return out, nil
}

func planEvent(o *Optimization) coremetrics.PlanEvent {
	plan := o.Plan()
	ev := coremetrics.PlanEvent{
		Day:          o.Day,
		Total:        plan.Total,
		Baseline:     plan.BaselineTotal,
		Express:      plan.Express,
		ExpressRatio: plan.ExpressRatio,
		Time:         time.Now(),
	}
	for _, r := range plan.Routes {
		ev.Routes = append(ev.Routes, coremetrics.RouteFleet{Route: r.Route, Buses: r.Buses})
	}
	return ev
}
