package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shuttle/core/model"
)

const sample = `fleet:
  size: 3
  capacity: 60
simulation:
  route: D1
  seed: 42
  queue: demand
optimization:
  day: Tuesday
  start: "07:30"
  end: "09:30"
  top_k: 3
dataset:
  stops: data/bus_stop_coords.csv
  routes: data/routes.yaml
  frequencies: data/frequencies.yaml
  demand: data/demand.csv
routing:
  provider:
    type: mapbox
    conf:
      profile: driving
  cache:
    type: sqlite
    conf:
      path: legs.db
logging:
  level: debug
  store:
    backend: sqlite
metrics:
  sinks:
    - type: prometheus
mqtt:
  broker: "tcp://localhost:1883"
  topic_prefix: campus
  qos: 1
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sample))
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"fleet.size", cfg.Fleet.Size, 3},
		{"fleet.capacity", cfg.Fleet.Capacity, 60},
		{"simulation.route", cfg.Simulation.Route, "D1"},
		{"simulation.seed", cfg.Simulation.Seed, uint64(42)},
		{"simulation.queue", cfg.Simulation.Queue, "demand"},
		{"optimization.day", cfg.Optimization.Day, "Tuesday"},
		{"optimization.top_k", cfg.Optimization.TopK, 3},
		{"optimization.interval", cfg.Optimization.Interval, 15.0},
		{"optimization.ratio_start", cfg.Optimization.RatioStart, 0.2},
		{"optimization.express_route", cfg.Optimization.ExpressRoute, "EX"},
		{"dataset.routes", cfg.Dataset.Routes, "data/routes.yaml"},
		{"routing.provider", cfg.Routing.Provider.Type, "mapbox"},
		{"routing.cache.path", cfg.Routing.Cache.Conf["path"], "legs.db"},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.store.path", cfg.Logging.Store.Path, "simulation.db"},
		{"metrics.sinks", cfg.Metrics.Sinks[0].Type, "prometheus"},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.qos", cfg.MQTT.QoS, byte(1)},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}

	w, err := cfg.Optimization.Window()
	require.NoError(t, err)
	assert.Equal(t, model.At(7, 30), w.Start)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.json",
		`{"dataset":{"stops":"s.csv","routes":"r.yaml","frequencies":"f.yaml"}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Fleet.Size)
	assert.Equal(t, 88, cfg.Fleet.Capacity)
	assert.Equal(t, "A1", cfg.Simulation.Route)
	assert.Equal(t, "uniform", cfg.Simulation.Queue)
	assert.Equal(t, "haversine", cfg.Routing.Provider.Type)
	assert.Equal(t, "memory", cfg.Logging.Store.Backend)
	assert.Equal(t, 5, cfg.Optimization.TopK)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SHUTTLE_FLEET__SIZE", "7")
	t.Setenv("SHUTTLE_OPTIMIZATION__TOP_K", "2")
	cfg, err := Load(writeConfig(t, "config.yaml", sample))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Fleet.Size)
	assert.Equal(t, 2, cfg.Optimization.TopK)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"fleet.size":              "SHUTTLE_FLEET__SIZE",
		"optimization.ratio_step": "SHUTTLE_OPTIMIZATION__RATIO_STEP",
	}
	values := map[string]string{
		"SHUTTLE_FLEET__SIZE":              "11",
		"SHUTTLE_OPTIMIZATION__RATIO_STEP": "-0.1",
	}
	for field, key := range cases {
		t.Run(field, func(t *testing.T) {
			t.Setenv(key, values[key])
			_, err := Load(writeConfig(t, "config.yaml", sample))
			require.Error(t, err)
			var ce *model.ConfigurationError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, field, ce.Field)
		})
	}
}

func TestLoadRejectsBadWindow(t *testing.T) {
	t.Setenv("SHUTTLE_OPTIMIZATION__END", "07:00")
	_, err := Load(writeConfig(t, "config.yaml", sample))
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestLoadMissingDataset(t *testing.T) {
	_, err := Load(writeConfig(t, "config.yaml", "fleet:\n  size: 2\n"))
	var ce *model.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "dataset.stops", ce.Field)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.Error(t, err)
}
