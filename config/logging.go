package config

import "github.com/kilianp07/shuttle/core/simlog"

// LoggingConfig defines the application log and the simulation log store.
type LoggingConfig struct {
	// Level is a zerolog level name.
	Level string `json:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	// Format is "json" or "console". Empty follows APP_ENV.
	Format string        `json:"format" validate:"omitempty,oneof=json console"`
	Store  simlog.Config `json:"store"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	c.Store.SetDefaults()
}

// Validate checks the store settings.
func (c LoggingConfig) Validate() error {
	return c.Store.Validate()
}
