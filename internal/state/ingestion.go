package state

import (
	"sync"
	"time"
)

// IngestionState holds the capture timestamp of the last successfully
// archived frame. One cell is created at startup and injected by reference
// into the ingestion callback, the staleness derivation and health reporting.
// It resets implicitly on process restart; no history is persisted.
type IngestionState struct {
	mu          sync.RWMutex
	lastIngest  time.Time
	hasIngested bool
}

func NewIngestionState() *IngestionState {
	return &IngestionState{}
}

// MarkIngested records a successful archive at the given capture timestamp.
func (s *IngestionState) MarkIngested(timestamp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastIngest = timestamp
	s.hasIngested = true
}

// Last returns the last capture timestamp and whether any ingestion has
// happened since process start.
func (s *IngestionState) Last() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastIngest, s.hasIngested
}

// SecondsSince returns the age of the last ingestion relative to now, or
// false when nothing was ingested yet.
func (s *IngestionState) SecondsSince(now time.Time) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasIngested {
		return 0, false
	}
	return now.Sub(s.lastIngest).Seconds(), true
}
