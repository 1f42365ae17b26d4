package config

import (
	"time"

	"github.com/kilianp07/shuttle/core/factory"
	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/optimizer"
	"github.com/kilianp07/shuttle/core/scoring"
	"github.com/kilianp07/shuttle/core/sim"
)

// FleetConfig sizes the simulated fleet.
type FleetConfig struct {
	Size     int `json:"size" validate:"gte=1,lte=10"`
	Capacity int `json:"capacity" validate:"gt=0"`
}

func (c *FleetConfig) SetDefaults() {
	if c.Size == 0 {
		c.Size = 1
	}
	if c.Capacity == 0 {
		c.Capacity = sim.DefaultCapacity
	}
}

// SimulationConfig selects what a simulation run replays.
type SimulationConfig struct {
	// Route is the simulated service id.
	Route string `json:"route" validate:"required"`
	// Seed makes runs reproducible. Zero draws a fresh seed.
	Seed uint64 `json:"seed"`
	// Queue is "uniform" or "demand".
	Queue string `json:"queue" validate:"oneof=uniform demand"`
	// Day picks the demand series replayed by the demand queue.
	Day string `json:"day"`
}

func (c *SimulationConfig) SetDefaults() {
	if c.Route == "" {
		c.Route = "A1"
	}
	if c.Queue == "" {
		c.Queue = "uniform"
	}
	if c.Day == "" {
		c.Day = time.Monday.String()
	}
}

// OptimizationConfig drives stop ranking and the express ratio search.
type OptimizationConfig struct {
	Day          string  `json:"day"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Interval     float64 `json:"interval" validate:"gt=0"`
	TopK         int     `json:"top_k" validate:"gte=1"`
	RatioStart   float64 `json:"ratio_start" validate:"gt=0,lte=1"`
	RatioStep    float64 `json:"ratio_step" validate:"gt=0"`
	ExpressRoute string  `json:"express_route"`
	// CoreRoutes overrides the routes whose arrivals count toward waiting
	// cost and density. Empty means every non-auxiliary route.
	CoreRoutes  []string `json:"core_routes"`
	Concurrency int      `json:"concurrency" validate:"gte=0"`
}

func (c *OptimizationConfig) SetDefaults() {
	if c.Day == "" {
		c.Day = time.Monday.String()
	}
	if c.Start == "" {
		c.Start = "08:00"
	}
	if c.End == "" {
		c.End = "10:00"
	}
	if c.Interval == 0 {
		c.Interval = optimizer.DefaultInterval
	}
	if c.TopK == 0 {
		c.TopK = scoring.DefaultTopK
	}
	if c.RatioStart == 0 {
		c.RatioStart = optimizer.DefaultRatioStart
	}
	if c.RatioStep == 0 {
		c.RatioStep = optimizer.DefaultRatioStep
	}
	if c.ExpressRoute == "" {
		c.ExpressRoute = optimizer.DefaultExpressRoute
	}
}

// Validate checks the day and window.
func (c OptimizationConfig) Validate() error {
	if _, err := model.ParseWeekday(c.Day); err != nil {
		return model.Configf("optimization.day", "%v", err)
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	return nil
}

// Window parses the optimization window.
func (c OptimizationConfig) Window() (model.Window, error) {
	return model.ParseWindow(c.Start, c.End)
}

// RoutingConfig selects the travel time provider and its cache.
type RoutingConfig struct {
	Provider    factory.ModuleConfig `json:"provider"`
	Cache       factory.ModuleConfig `json:"cache"`
	Concurrency int                  `json:"concurrency" validate:"gte=0"`
}

func (c *RoutingConfig) SetDefaults() {
	if c.Provider.Type == "" {
		c.Provider.Type = "haversine"
	}
}
