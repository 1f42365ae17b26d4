package routing

import (
	"context"

	"github.com/kilianp07/shuttle/core/factory"
	corerouting "github.com/kilianp07/shuttle/core/routing"
	"github.com/kilianp07/shuttle/infra/logger"
)

var (
	providers = factory.NewRegistry[corerouting.Provider]()
	caches    = factory.NewRegistry[Cache]()
)

func init() {
	_ = providers.Register("mapbox", func(conf map[string]any) (corerouting.Provider, error) {
		var c MapboxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMapboxProvider(c, logger.New("mapbox"))
	})
	_ = providers.Register("haversine", func(conf map[string]any) (corerouting.Provider, error) {
		var c struct {
			SpeedKMH float64 `json:"speed_kmh"`
			Detour   float64 `json:"detour"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return HaversineProvider{SpeedKMH: c.SpeedKMH, Detour: c.Detour}, nil
	})

	_ = caches.Register("memory", func(map[string]any) (Cache, error) {
		return NewMemoryCache(), nil
	})
	_ = caches.Register("sqlite", func(conf map[string]any) (Cache, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "legs.db"
		}
		return NewSQLiteCache(c.Path)
	})
	_ = caches.Register("redis", func(conf map[string]any) (Cache, error) {
		var c RedisConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRedisCache(context.Background(), c)
	})
}

// NewProvider builds the provider described by cfg, wrapped in the cache
// described by cacheCfg when its type is set. The returned close function
// releases the cache.
func NewProvider(cfg, cacheCfg factory.ModuleConfig) (corerouting.Provider, func() error, error) {
	p, err := providers.Create(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cacheCfg.Type == "" {
		return p, func() error { return nil }, nil
	}
	c, err := caches.Create(cacheCfg)
	if err != nil {
		return nil, nil, err
	}
	return CachedProvider{Provider: p, Cache: c, Logger: logger.New("leg-cache")}, c.Close, nil
}
