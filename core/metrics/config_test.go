package metrics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/shuttle/core/factory"
	metrics "github.com/kilianp07/shuttle/core/metrics"
	"github.com/kilianp07/shuttle/core/model"
	_ "github.com/kilianp07/shuttle/infra/metrics"
)

type countingSink struct{ runs int }

func (c *countingSink) RecordSimulation(metrics.SimulationEvent) error {
	c.runs++
	return nil
}

func init() {
	_ = metrics.RegisterSink("counting", func(map[string]any) (metrics.MetricsSink, error) {
		return &countingSink{}, nil
	})
}

func build(t *testing.T, types ...string) metrics.MetricsSink {
	t.Helper()
	cfg := metrics.Config{}
	for _, typ := range types {
		cfg.Sinks = append(cfg.Sinks, factory.ModuleConfig{Type: typ})
	}
	s, err := cfg.Build()
	require.NoError(t, err)
	return s
}

func TestBuildBuiltinTypes(t *testing.T) {
	assert.Subset(t, metrics.SinkTypes(), []string{"influx", "nop", "prometheus"})
}

func TestBuildShapes(t *testing.T) {
	assert.IsType(t, metrics.NopSink{}, build(t))
	assert.IsType(t, metrics.NopSink{}, build(t, "nop", "nop"))
	assert.IsType(t, &countingSink{}, build(t, "nop", "counting"))

	multi, ok := build(t, "counting", "nop", "counting").(*metrics.MultiSink)
	require.True(t, ok)
	assert.Len(t, multi.Sinks, 2)
}

func TestBuildUnknownTypeNamesEntry(t *testing.T) {
	_, err := metrics.Config{Sinks: []factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}}}.Build()
	require.ErrorIs(t, err, model.ErrConfiguration)
	var ce *model.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "metrics.sinks[1]", ce.Field)
}

func TestConfigDecodeYAML(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte("sinks:\n  - type: counting\n  - type: counting\nlisten: \":9100\"\n"), &cfg))
	assert.Equal(t, ":9100", cfg.Listen)
	s, err := cfg.Build()
	require.NoError(t, err)
	assert.IsType(t, &metrics.MultiSink{}, s)
}

func TestConfigDecodeJSONUnknownType(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"missing"}]}`), &cfg))
	_, err := cfg.Build()
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
