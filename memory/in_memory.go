// Package memory contains concrete conversation Store implementations. The
// Store contract lives in the core package; select a backend at wiring time.
// InMemoryStore is the default; SQLiteStore survives process restarts.
package memory

import (
	"context"
	"sync"

	"github.com/hupe1980/taskmesh/core"
)

// InMemoryStore is a process-local conversation store. States are cloned on
// Load and Save so callers never share slices or maps with the store.
//
// Concurrency: protected by RWMutex. Records live for the process lifetime;
// there is no eviction.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]core.ConversationState
}

var _ core.Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]core.ConversationState)}
}

// Load implements core.Store. Unknown ids yield a fresh empty state.
func (s *InMemoryStore) Load(_ context.Context, conversationID string) (core.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[conversationID]
	if !ok {
		return core.NewConversationState(), nil
	}
	return state.Clone(), nil
}

// Save implements core.Store.
func (s *InMemoryStore) Save(_ context.Context, conversationID string, state core.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[conversationID] = state.Clone()
	return nil
}

// Reset implements core.Store. Resetting an unknown id is a no-op.
func (s *InMemoryStore) Reset(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, conversationID)
	return nil
}

// Len reports the number of stored conversations, for tests and status.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
