package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/debrief/pkg/domain"
)

// Store keeps session states in process memory. Sessions are lost on exit.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.State
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{sessions: map[string]*domain.State{}}
}

// Save stores a copy of state; later changes by the caller are not seen.
func (s *Store) Save(_ context.Context, sessionID string, state *domain.State) error {
	snapshot := state.Clone()

	s.mu.Lock()
	s.sessions[sessionID] = snapshot
	s.mu.Unlock()
	return nil
}

// Load returns a copy of the stored state.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.State, error) {
	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Delete forgets a session. Unknown IDs are ignored.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns the session IDs in lexical order.
func (s *Store) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.sessions)), nil
}
