// internal/store/memory.go
//
// Storage for in-progress games, as held by the HTTP layer.
// The engine never stores anything itself: the server reads the current
// State, applies an engine operation and saves the returned State here.
//
// Characteristics of the memory implementation:
//   - Stores game.State values keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Values are copied in and out, so a caller can never alter held state
//     through a value it got back.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/game"
)

// ErrNotFound is returned by Get for unknown game IDs.
var ErrNotFound = errors.New("game not found")

// Store defines the persistence interface for game sessions.
// Implementations may be backed by memory (this file), Redis, SQL, etc.
type Store interface {
	// Save persists or replaces a game state.
	Save(ctx context.Context, s game.State) error

	// Get retrieves a game by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (game.State, error)

	// Delete removes a game. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex          // guards games map
	games map[string]game.State // keyed by State.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]game.State)}
}

// Save adds or updates the game in the map.
func (m *memory) Save(ctx context.Context, s game.State) error {
	if s.ID == "" {
		return errors.New("game has no ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[s.ID] = s
	return nil
}

// Get looks up a game by ID.
func (m *memory) Get(ctx context.Context, id string) (game.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.games[id]; ok {
		return s, nil
	}
	return game.State{}, ErrNotFound
}

// Delete drops a game from the map.
func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
	return nil
}
