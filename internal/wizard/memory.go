package wizard

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewMemoryStore constructs an in-memory Store implementation for tests and development.
func NewMemoryStore() Store {
	return &memoryStore{states: make(map[int64]State)}
}

func (m *memoryStore) Get(_ context.Context, adminID int64) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[adminID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *memoryStore) Put(_ context.Context, adminID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[adminID] = st
	return nil
}

func (m *memoryStore) Delete(_ context.Context, adminID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, adminID)
	return nil
}
