package dataset

import (
	"fmt"

	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/network"
	"github.com/kilianp07/shuttle/core/scheduler"
)

// Config locates the dataset files.
type Config struct {
	Stops       string            `json:"stops" koanf:"stops" validate:"required"`
	Demand      string            `json:"demand" koanf:"demand"`
	Routes      string            `json:"routes" koanf:"routes" validate:"required"`
	Frequencies string            `json:"frequencies" koanf:"frequencies" validate:"required"`
	Aliases     map[string]string `json:"aliases" koanf:"aliases"`
}

// Dataset is everything needed to build the network and its timetables.
type Dataset struct {
	Stops  []model.Stop
	Routes []network.RouteDef
	Bands  scheduler.BandSet
	Demand []model.DemandRecord
}

// Load reads every configured file. Demand is optional.
func Load(cfg Config) (*Dataset, error) {
	var (
		d   Dataset
		err error
	)
	if d.Stops, err = LoadStops(cfg.Stops); err != nil {
		return nil, fmt.Errorf("stops: %w", err)
	}
	if d.Routes, err = LoadRoutes(cfg.Routes); err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}
	if d.Bands, err = scheduler.LoadBands(cfg.Frequencies); err != nil {
		return nil, fmt.Errorf("frequencies: %w", err)
	}
	if cfg.Demand != "" {
		if d.Demand, err = LoadDemand(cfg.Demand, DemandOptions{Aliases: cfg.Aliases}); err != nil {
			return nil, fmt.Errorf("demand: %w", err)
		}
	}
	return &d, nil
}
