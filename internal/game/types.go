// internal/game/types.go
//
// Core type definitions for the Cows and Bulls game engine.
// Defines:
//   - Guess / GuessResult: one scored submission.
//   - State: value snapshot of a single game (target, history, win flag).
//   - Status: coarse progression (not_started → in_progress → won, or lost
//     under an attempt cap).
//   - Clock: injectable time source.

package game

import "time"

// Guess is a validated three-digit value with distinct digits (0..999,
// compared and decomposed zero-padded).
type Guess int

// Score is the cows/bulls feedback for one guess.
type Score struct {
	Cows  int `json:"cows"`
	Bulls int `json:"bulls"`
}

// Correct reports whether every digit is a bull.
func (s Score) Correct() bool { return s.Bulls == Width }

// GuessResult is an immutable record of one accepted guess.
type GuessResult struct {
	Guess     Guess     `json:"guess"`
	Cows      int       `json:"cows"`
	Bulls     int       `json:"bulls"`
	IsCorrect bool      `json:"isCorrect"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is the progression of a game.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"

	// StatusLost is only reported by Capped; State.Status never returns it.
	StatusLost Status = "lost"
)

// State is the full state of one game. Values are replaced, never mutated:
// Submit returns a new State with its own copy of the history.
type State struct {
	Target    int           `json:"-"`
	Guesses   []GuessResult `json:"guesses"`
	Attempts  int           `json:"attempts"`
	IsWon     bool          `json:"isWon"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime,omitzero"`
}

// Status reports the coarse progression of s.
func (s State) Status() Status {
	switch {
	case s.IsWon:
		return StatusWon
	case s.Attempts > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// History returns a copy of the guess history in submission order.
func (s State) History() []GuessResult {
	out := make([]GuessResult, len(s.Guesses))
	copy(out, s.Guesses)
	return out
}

// Last returns the most recent guess, if any.
func (s State) Last() (GuessResult, bool) {
	if len(s.Guesses) == 0 {
		return GuessResult{}, false
	}
	return s.Guesses[len(s.Guesses)-1], true
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads time.Now.
var SystemClock Clock = ClockFunc(time.Now)
