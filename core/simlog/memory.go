package simlog

import (
	"context"
	"sync"

	"github.com/kilianp07/shuttle/core/sim"
)

// MemoryStore keeps entries in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []sim.LogEntry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, entries ...sim.LogEntry) error {
	s.mu.Lock()
	s.entries = append(s.entries, entries...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]sim.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []sim.LogEntry
	for _, e := range s.entries {
		if q.Match(e) {
			res = append(res, e)
		}
	}
	return res, nil
}

func (s *MemoryStore) Close() error { return nil }
