package planstore

import (
	"sync"
	"time"

	"github.com/kilianp07/solarflex/core/model"
)

// Snapshot bundles the inputs and output of one scheduling invocation.
// Its shape is the stable handoff consumed by the API and the dashboard.
type Snapshot struct {
	PlanID     string         `json:"plan_id"`
	ComputedAt time.Time      `json:"computed_at"`
	Forecast   model.Series   `json:"forecast"`
	Schedule   model.Schedule `json:"schedule"`
}

// Store keeps the latest planning result.
type Store interface {
	Set(Snapshot)
	Latest() (Snapshot, bool)
}

// MemoryStore is a concurrency-safe in-memory Store.
type MemoryStore struct {
	mu     sync.RWMutex
	latest *Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Set(sn Snapshot) {
	s.mu.Lock()
	s.latest = &sn
	s.mu.Unlock()
}

func (s *MemoryStore) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Snapshot{}, false
	}
	return *s.latest, true
}
