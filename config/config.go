// Package config loads the application configuration from a YAML or JSON file
// with SHUTTLE_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/shuttle/core/metrics"
	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/infra/dataset"
	"github.com/kilianp07/shuttle/infra/mqtt"
)

// EnvPrefix marks environment variables that override file values. Nested
// keys are separated by a double underscore: SHUTTLE_FLEET__SIZE.
const EnvPrefix = "SHUTTLE_"

type Config struct {
	Fleet        FleetConfig        `json:"fleet"`
	Simulation   SimulationConfig   `json:"simulation"`
	Optimization OptimizationConfig `json:"optimization"`
	Dataset      dataset.Config     `json:"dataset"`
	Routing      RoutingConfig      `json:"routing"`
	Logging      LoggingConfig      `json:"logging"`
	Metrics      metrics.Config     `json:"metrics"`
	MQTT         mqtt.Config        `json:"mqtt"`
}

// Load reads path, applies environment overrides and defaults, then
// validates the result. Validation failures are configuration errors.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults fills every unset section value.
func (c *Config) SetDefaults() {
	c.Fleet.SetDefaults()
	c.Simulation.SetDefaults()
	c.Optimization.SetDefaults()
	c.Routing.SetDefaults()
	c.Logging.SetDefaults()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct constraints first, then the cross-field rules of
// each section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return validationError(err)
	}
	if err := c.Optimization.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return model.Configf(field, "value %v violates %s", fe.Value(), rule)
}
