package cache

import (
	"context"
	"sync"

	"redline/api/internal/compare"
)

// MemoryStore is a process-local snapshot store, used when Redis is not
// configured and as a test double.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*compare.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*compare.Snapshot)}
}

func (s *MemoryStore) Get(_ context.Context, baselineHash, revisedHash string) (*compare.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[baselineHash+":"+revisedHash]
	return snap, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, snap *compare.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.BaselineHash+":"+snap.RevisedHash] = snap
	return nil
}

// Len reports the number of stored snapshots.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}
