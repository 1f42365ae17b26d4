// Package app wires the dataset, routing, simulation and optimization
// components behind the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/kilianp07/shuttle/config"
	coremetrics "github.com/kilianp07/shuttle/core/metrics"
	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/network"
	"github.com/kilianp07/shuttle/core/scheduler"
	"github.com/kilianp07/shuttle/core/simlog"
	"github.com/kilianp07/shuttle/core/sim"
	"github.com/kilianp07/shuttle/infra/dataset"
	"github.com/kilianp07/shuttle/infra/logger"
	"github.com/kilianp07/shuttle/infra/metrics"
	"github.com/kilianp07/shuttle/infra/mqtt"
	"github.com/kilianp07/shuttle/infra/routing"
	"github.com/kilianp07/shuttle/internal/eventbus"
)

// TokenEnv holds the routing access token when the config leaves it empty.
const TokenEnv = "MAPBOX_ACCESS_TOKEN"

// Service owns the loaded network and every output channel of a run.
type Service struct {
	cfg        *config.Config
	data       *dataset.Dataset
	net        *network.Registry
	timetables map[string]model.Timetable

	sink  coremetrics.MetricsSink
	store simlog.Store
	bus   *eventbus.TypedBus[sim.LogEntry]
	pub   *mqtt.Publisher

	cancel  context.CancelFunc
	done    []<-chan struct{}
	closers []func() error
	log     logger.Logger
}

// Option customizes New.
type Option func(*Service)

// WithDataset skips loading the configured dataset files.
func WithDataset(d *dataset.Dataset) Option {
	return func(s *Service) { s.data = d }
}

// WithSink replaces the configured metrics sinks.
func WithSink(sink coremetrics.MetricsSink) Option {
	return func(s *Service) { s.sink = sink }
}

// New loads the dataset, times the network and opens the configured outputs.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, log: logger.New("service")}
	for _, o := range opts {
		o(s)
	}
	if err := s.init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(ctx context.Context) error {
	var err error
	if s.data == nil {
		if s.data, err = dataset.Load(s.cfg.Dataset); err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
	}

	providerCfg := s.cfg.Routing.Provider
	if providerCfg.Type == "mapbox" {
		providerCfg.Conf = withToken(providerCfg.Conf)
	}
	provider, closeCache, err := routing.NewProvider(providerCfg, s.cfg.Routing.Cache)
	if err != nil {
		return fmt.Errorf("routing provider: %w", err)
	}
	s.closers = append(s.closers, closeCache)

	s.net, err = network.Build(ctx, s.data.Stops, s.data.Routes, provider, network.Options{
		Concurrency: s.cfg.Routing.Concurrency,
		Logger:      logger.New("network"),
	})
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}

	all, err := scheduler.GenerateAll(s.data.Bands)
	if err != nil {
		return fmt.Errorf("timetables: %w", err)
	}
	s.timetables = make(map[string]model.Timetable, len(all))
	for id, tt := range all {
		if _, err := s.net.Route(id); err != nil {
			s.log.Warnf("frequencies for unknown route %s ignored", id)
			continue
		}
		s.timetables[id] = tt
	}

	if s.sink == nil {
		if s.sink, err = s.cfg.Metrics.Build(); err != nil {
			return fmt.Errorf("metrics sink: %w", err)
		}
	}
	if s.store, err = simlog.Open(s.cfg.Logging.Store); err != nil {
		return fmt.Errorf("simulation log: %w", err)
	}

	s.bus = eventbus.NewTyped[sim.LogEntry](eventbus.WithBuffer(1024))
	bg, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = append(s.done, metrics.StartEventCollector(bg, s.bus, s.sink))
	if s.cfg.MQTT.Broker != "" {
		if s.pub, err = mqtt.NewPublisher(s.cfg.MQTT); err != nil {
			return fmt.Errorf("mqtt publisher: %w", err)
		}
		s.done = append(s.done, s.pub.Forward(bg, s.bus))
	}
	return nil
}

func withToken(conf map[string]any) map[string]any {
	out := make(map[string]any, len(conf)+1)
	for k, v := range conf {
		out[k] = v
	}
	if tok, _ := out["token"].(string); tok == "" {
		if env := os.Getenv(TokenEnv); env != "" {
			out["token"] = env
		}
	}
	return out
}

// Network returns the timed route registry.
func (s *Service) Network() *network.Registry { return s.net }

// Demand returns the loaded demand predictions.
func (s *Service) Demand() []model.DemandRecord { return s.data.Demand }

// Timetables returns the generated departures of every known route.
func (s *Service) Timetables() map[string]model.Timetable { return s.timetables }

// RouteIDs lists the routes that have a timetable, in registry order.
func (s *Service) RouteIDs() []string {
	var out []string
	for _, r := range s.net.Routes() {
		if _, ok := s.timetables[r.ID]; ok {
			out = append(out, r.ID)
		}
	}
	return out
}

// Store returns the simulation log store.
func (s *Service) Store() simlog.Store { return s.store }

// ServeMetrics exposes Prometheus metrics until ctx is canceled. It returns
// immediately when no listen address is configured.
func (s *Service) ServeMetrics(ctx context.Context) error {
	if s.cfg.Metrics.Listen == "" {
		return nil
	}
	s.log.Infof("serving metrics on %s", s.cfg.Metrics.Listen)
	return metrics.StartPromServer(ctx, s.cfg.Metrics.Listen)
}

func (s *Service) recordPlan(ev coremetrics.PlanEvent) {
	if err := coremetrics.RecordPlanTo(s.sink, ev); err != nil {
		s.log.Warnf("record plan: %v", err)
	}
}

// Close flushes the event consumers and releases every resource.
func (s *Service) Close() error {
	if s.bus != nil {
		s.bus.Close()
	}
	for _, d := range s.done {
		select {
		case <-d:
		case <-time.After(5 * time.Second):
			s.log.Warnf("event consumer did not stop in time")
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.pub != nil {
		s.pub.Disconnect()
	}
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	for _, c := range slices.Backward(s.closers) {
		errs = append(errs, c())
	}
	if closer, ok := s.sink.(interface{ Close() }); ok {
		closer.Close()
	}
	return errors.Join(errs...)
}
