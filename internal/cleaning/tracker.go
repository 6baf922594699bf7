package cleaning

import (
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

// Tracker keeps the last cleaning time per device for the process lifetime.
type Tracker struct {
	mu   sync.RWMutex
	last map[string]time.Time
}

func NewTracker() *Tracker {
	return &Tracker{last: make(map[string]time.Time)}
}

// GetLastCleaned returns the last recorded cleaning for deviceID.
func (t *Tracker) GetLastCleaned(deviceID string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	at, ok := t.last[deviceID]
	return at, ok
}

// RecordCleaning overwrites the last cleaning time for deviceID.
func (t *Tracker) RecordCleaning(deviceID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[deviceID] = at
}

func (t *Tracker) State(deviceID string) domain.CleaningState {
	st := domain.CleaningState{DeviceID: deviceID}
	if at, ok := t.GetLastCleaned(deviceID); ok {
		st.LastCleanedAt = &at
	}
	return st
}
