package metrics

import (
	"fmt"

	"github.com/kilianp07/shuttle/core/factory"
	"github.com/kilianp07/shuttle/core/model"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks" koanf:"sinks"`
	// Listen is the address of the Prometheus endpoint served by
	// long-running commands. Empty disables it.
	Listen string `json:"listen" yaml:"listen" koanf:"listen"`
}

var sinks = factory.NewRegistry[MetricsSink]()

// RegisterSink makes a sink type available to Config.Build.
func RegisterSink(name string, f factory.Factory[MetricsSink]) error {
	return sinks.Register(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinks.Types() }

// Build instantiates the configured sinks. NopSink entries are skipped; no
// sink at all yields a NopSink and several are combined in a MultiSink.
func (c Config) Build() (MetricsSink, error) {
	var built []MetricsSink
	for i, mc := range c.Sinks {
		s, err := sinks.Create(mc)
		if err != nil {
			return nil, model.Configf(fmt.Sprintf("metrics.sinks[%d]", i), "%v", err)
		}
		if _, nop := s.(NopSink); !nop {
			built = append(built, s)
		}
	}
	switch len(built) {
	case 0:
		return NopSink{}, nil
	case 1:
		return built[0], nil
	default:
		return NewMultiSink(built...), nil
	}
}
