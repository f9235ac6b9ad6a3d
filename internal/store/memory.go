package store

import (
	"context"
	"sync"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[model.Category]model.Snapshot
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[model.Category]model.Snapshot)}
}

func (s *MemoryStore) Load(_ context.Context, category model.Category) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[category]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSnapshot(snap), nil
}

func (s *MemoryStore) Save(_ context.Context, category model.Category, snap model.Snapshot) error {
	if err := checkSave(category, snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[category] = *cloneSnapshot(snap)
	s.saves++
	return nil
}

// Saves returns the number of successful Save calls.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
