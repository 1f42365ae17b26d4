package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/shuttle/core/metrics"
)

// PromSink records simulation and planning outcomes in Prometheus metrics.
type PromSink struct {
	departures *prometheus.CounterVec
	passengers *prometheus.CounterVec
	trips      *prometheus.HistogramVec
	fleet      *prometheus.GaugeVec
	total      prometheus.Gauge
	ratio      prometheus.Gauge
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		departures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_departures_total",
			Help: "Scheduled departures by outcome",
		}, []string{"route", "outcome"}),
		passengers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_passengers_served_total",
			Help: "Passengers boarded during simulation",
		}, []string{"route"}),
		trips: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shuttle_trip_duration_minutes",
			Help:    "Simulated duration of completed trips",
			Buckets: prometheus.LinearBuckets(10, 10, 8),
		}, []string{"route"}),
		fleet: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "shuttle_fleet_required",
			Help: "Minimum buses needed per route in the last plan",
		}, []string{"route"}),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_fleet_required_total",
			Help: "Minimum buses needed across routes in the last plan",
		}),
		ratio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_express_ratio",
			Help: "Share of demand diverted to the express route in the last plan",
		}),
	}
	var err error
	if s.departures, err = register(reg, s.departures); err != nil {
		return nil, err
	}
	if s.passengers, err = register(reg, s.passengers); err != nil {
		return nil, err
	}
	if s.trips, err = register(reg, s.trips); err != nil {
		return nil, err
	}
	if s.fleet, err = register(reg, s.fleet); err != nil {
		return nil, err
	}
	if s.total, err = register(reg, s.total); err != nil {
		return nil, err
	}
	if s.ratio, err = register(reg, s.ratio); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an identical collector that is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSimulation counts the run's departures and passengers.
func (s *PromSink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	s.departures.WithLabelValues(ev.Route, "dispatched").Add(float64(ev.Dispatched))
	s.departures.WithLabelValues(ev.Route, "missed").Add(float64(ev.Missed))
	s.passengers.WithLabelValues(ev.Route).Add(float64(ev.PassengersServed))
	return nil
}

// RecordTrip observes the trip duration.
func (s *PromSink) RecordTrip(ev coremetrics.TripEvent) error {
	s.trips.WithLabelValues(ev.Route).Observe(ev.Minutes)
	return nil
}

// RecordPlan sets the fleet gauges. Routes without a defined fleet are
// removed from the gauge.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	for _, r := range ev.Routes {
		if math.IsNaN(r.Buses) {
			s.fleet.DeleteLabelValues(r.Route)
			continue
		}
		s.fleet.WithLabelValues(r.Route).Set(r.Buses)
	}
	s.total.Set(ev.Total)
	if ev.Express {
		s.ratio.Set(ev.ExpressRatio)
	}
	return nil
}

// Departures exposes the departure counter, labeled by route and outcome.
func (s *PromSink) Departures() *prometheus.CounterVec { return s.departures }
