package routing

import (
	"context"
	"sync"

	"github.com/kilianp07/shuttle/core/logger"
	corerouting "github.com/kilianp07/shuttle/core/routing"
)

// Cache stores legs keyed by origin and destination.
type Cache interface {
	Get(ctx context.Context, from, to corerouting.Coordinate) (corerouting.Leg, bool, error)
	Put(ctx context.Context, from, to corerouting.Coordinate, leg corerouting.Leg) error
	Close() error
}

// CachedProvider answers from Cache and falls back to Provider on a miss.
// Cache failures are logged and never fail a lookup.
type CachedProvider struct {
	Provider corerouting.Provider
	Cache    Cache
	Logger   logger.Logger
}

func (c CachedProvider) Leg(ctx context.Context, from, to corerouting.Coordinate) (corerouting.Leg, error) {
	log := logger.OrNop(c.Logger)
	leg, ok, err := c.Cache.Get(ctx, from, to)
	if err != nil {
		log.Warnf("leg cache read %s -> %s: %v", from.Key(), to.Key(), err)
	}
	if ok {
		return leg, nil
	}
	leg, err = c.Provider.Leg(ctx, from, to)
	if err != nil {
		return leg, err
	}
	if err := c.Cache.Put(ctx, from, to, leg); err != nil {
		log.Warnf("leg cache write %s -> %s: %v", from.Key(), to.Key(), err)
	}
	return leg, nil
}

// MemoryCache keeps legs for the lifetime of the process.
type MemoryCache struct {
	mu   sync.RWMutex
	legs map[string]corerouting.Leg
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{legs: make(map[string]corerouting.Leg)}
}

func pairKey(from, to corerouting.Coordinate) string { return from.Key() + "|" + to.Key() }

func (m *MemoryCache) Get(_ context.Context, from, to corerouting.Coordinate) (corerouting.Leg, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	leg, ok := m.legs[pairKey(from, to)]
	return leg, ok, nil
}

func (m *MemoryCache) Put(_ context.Context, from, to corerouting.Coordinate, leg corerouting.Leg) error {
	m.mu.Lock()
	m.legs[pairKey(from, to)] = leg
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Close() error { return nil }
