// internal/store/memory.go
//
// In-memory implementation of session.Store.
//
// Characteristics:
//   - Sessions keyed by ID, with a secondary (player, date) index.
//   - Concurrency-safe via RWMutex.
//   - Values are copied in and out; the guess history is never shared.
//   - State is lost when the process restarts. Finished games survive in
//     the daily_results table, which is what gates replays.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/robalobadob/cowsbulls/internal/session"
)

type memory struct {
	mu       sync.RWMutex
	sessions map[string]session.Session // keyed by Session.ID
	byPlayer map[string]string          // player|date -> Session.ID
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore() session.Store {
	return &memory{
		sessions: make(map[string]session.Session),
		byPlayer: make(map[string]string),
	}
}

func playerKey(playerID, date string) string { return playerID + "|" + date }

func clone(s session.Session) session.Session {
	s.State.Guesses = s.State.History()
	return s
}

func (m *memory) Save(_ context.Context, s session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = clone(s)
	m.byPlayer[playerKey(s.PlayerID, s.Date)] = s.ID
	return nil
}

func (m *memory) Get(_ context.Context, id string) (session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return clone(s), nil
}

func (m *memory) FindByPlayerDate(_ context.Context, playerID, date string) (session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPlayer[playerKey(playerID, date)]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	s, ok := m.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return clone(s), nil
}

// Sweep drops sessions whose LastAccess is before cutoff.
func (m *memory) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastAccess.Before(cutoff) {
			delete(m.sessions, id)
			k := playerKey(s.PlayerID, s.Date)
			if m.byPlayer[k] == id {
				delete(m.byPlayer, k)
			}
			n++
		}
	}
	return n, nil
}

func (m *memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}
