// internal/session/session.go
//
// Daily play sessions.
//
// A session binds one player to one day key and carries that game's state.
// The Manager is the only writer: it derives the day's target, runs guesses
// through the game engine, saves the new state, and only then notifies the
// results sink. A sink failure is logged and counted but never rolls back
// the saved state.

package session

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/cowsbulls/internal/game"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrAlreadyPlayed = errors.New("already played today")
)

// Session is one player's game for one day key.
type Session struct {
	ID         string     `json:"sessionId"`
	PlayerID   string     `json:"playerId"`
	Date       string     `json:"date"`
	State      game.State `json:"state"`
	LastAccess time.Time  `json:"-"`
}

// Store persists sessions. Implementations return copies; callers never
// share a *Session with the store.
type Store interface {
	// Save inserts or replaces s.
	Save(ctx context.Context, s Session) error

	// Get returns the session with id, or ErrNotFound.
	Get(ctx context.Context, id string) (Session, error)

	// FindByPlayerDate returns the player's session for date, or ErrNotFound.
	FindByPlayerDate(ctx context.Context, playerID, date string) (Session, error)

	// Sweep removes sessions not accessed since cutoff and reports how many.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)

	// Count reports the number of live sessions.
	Count(ctx context.Context) (int, error)
}
