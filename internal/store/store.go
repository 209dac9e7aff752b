// Package store holds the most recent processed snapshot for HTTP serving.
package store

import (
	"sync"

	"github.com/quakescope/globe-data-service/internal/domain"
)

// SnapshotStore is a concurrency-safe holder for the latest snapshot.
// Readers always see a complete snapshot or none at all.
type SnapshotStore struct {
	mu       sync.RWMutex
	snapshot *domain.Snapshot
}

func New() *SnapshotStore {
	return &SnapshotStore{}
}

// Replace swaps in a new snapshot atomically.
func (s *SnapshotStore) Replace(snap *domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// Current returns the latest snapshot, or nil before the first refresh.
func (s *SnapshotStore) Current() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
