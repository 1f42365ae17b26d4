// Package simlog persists simulation log entries and queries them back.
package simlog

import (
	"context"

	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/sim"
)

// Query defines filters for retrieving entries. Zero fields match everything.
type Query struct {
	RunID string
	Route string
	BusID int
	Kind  sim.EventKind
}

// Match reports whether e passes every filter of q.
func (q Query) Match(e sim.LogEntry) bool {
	if q.RunID != "" && e.RunID != q.RunID {
		return false
	}
	if q.Route != "" && e.Route != q.Route {
		return false
	}
	if q.BusID != 0 && e.BusID != q.BusID {
		return false
	}
	if q.Kind != "" && e.Kind != q.Kind {
		return false
	}
	return true
}

// Store persists log entries and supports querying.
type Store interface {
	Append(ctx context.Context, entries ...sim.LogEntry) error
	Query(ctx context.Context, q Query) ([]sim.LogEntry, error)
	Close() error
}

// Config selects and tunes a Store.
type Config struct {
	// Backend is "jsonl", "rotating", "sqlite" or "memory".
	Backend string `json:"backend" yaml:"backend" koanf:"backend"`
	// Path is the file location of the store.
	Path string `json:"path" yaml:"path" koanf:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb" koanf:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups" yaml:"max_backups" koanf:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days" koanf:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "simulation.db"
		case "jsonl", "rotating":
			c.Path = "simulation.jsonl"
		}
	}
	if c.Backend == "rotating" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "jsonl", "rotating", "sqlite":
		if c.Path == "" {
			return model.Configf("logging.store.path", "path is required for backend %s", c.Backend)
		}
		return nil
	default:
		return model.Configf("logging.store.backend", "unknown backend %q", c.Backend)
	}
}

// Open creates the Store selected by cfg.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "rotating":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return NewMemoryStore(), nil
	}
}
