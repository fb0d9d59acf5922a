package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"pennywise/internal/core"
)

// MemoryStore keeps user state in process memory. Used for local development
// and tests. States are deep-copied on the way in and out so callers never
// share slices with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, userID string) (*core.UserState, error) {
	m.mu.RLock()
	raw, ok := m.states[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var state core.UserState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode user state: %w", err)
	}
	return &state, nil
}

func (m *MemoryStore) Save(ctx context.Context, state *core.UserState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode user state: %w", err)
	}

	m.mu.Lock()
	m.states[state.UserID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
