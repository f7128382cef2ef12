package store

import (
	"context"
	"errors"
	"sync"

	"github.com/luxfi/ids"

	"github.com/luxfi/pet"
)

var errModelNotFound = errors.New("store: global model not found")

// MemoryModelStorage is an in-memory ModelStorage, used by tests and by
// any deployment that accepts losing finalized models on restart.
type MemoryModelStorage struct {
	mu        sync.RWMutex
	models    map[ids.ID][]float64
	latestID  ids.ID
	hasLatest bool
}

// NewMemoryModelStorage returns an empty MemoryModelStorage.
func NewMemoryModelStorage() *MemoryModelStorage {
	return &MemoryModelStorage{models: make(map[ids.ID][]float64)}
}

// SetGlobalModel implements ModelStorage.
func (s *MemoryModelStorage) SetGlobalModel(_ context.Context, roundID pet.RoundID, seed pet.RoundSeed, model []float64) (ids.ID, error) {
	id := modelID(roundID, seed)

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]float64(nil), model...)
	s.models[id] = cp
	s.latestID = id
	s.hasLatest = true
	return id, nil
}

// GlobalModel implements ModelStorage.
func (s *MemoryModelStorage) GlobalModel(_ context.Context, id ids.ID) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	model, ok := s.models[id]
	if !ok {
		return nil, errModelNotFound
	}
	return append([]float64(nil), model...), nil
}

// LatestGlobalModelID implements ModelStorage.
func (s *MemoryModelStorage) LatestGlobalModelID(_ context.Context) (ids.ID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestID, s.hasLatest, nil
}
