package mqtt

import (
	"fmt"
	"sync"

	"github.com/kilianp07/solarflex/core/model"
)

// MockAnnouncer is a simple announcer used in tests.
type MockAnnouncer struct {
	mu        sync.Mutex
	Plans     map[string]model.Schedule
	Fail      bool
	CloseCnt  int
	Announces int
}

// NewMockAnnouncer creates a new MockAnnouncer.
func NewMockAnnouncer() *MockAnnouncer {
	return &MockAnnouncer{Plans: make(map[string]model.Schedule)}
}

// AnnounceSchedule records the schedule or returns an error if configured
// to fail.
func (m *MockAnnouncer) AnnounceSchedule(planID string, sched model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("announce failed")
	}
	m.Plans[planID] = sched
	m.Announces++
	return nil
}

// Close counts the calls.
func (m *MockAnnouncer) Close() {
	m.mu.Lock()
	m.CloseCnt++
	m.mu.Unlock()
}

// Last returns the most recently announced schedule for the plan id.
func (m *MockAnnouncer) Last(planID string) (model.Schedule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Plans[planID]
	return s, ok
}
