// internal/game/engine.go
//
// Core state machine for a single Cows and Bulls game.
// Responsibilities:
//   - Create new games for a given target.
//   - Score validated guesses and append them to the history.
//   - Track transitions: not_started → in_progress → won (terminal).
//
// Notes:
//   - There is no loss state; attempt caps live in Capped (policy.go).
//   - Every transition returns a new State. The input State is never
//     modified, so a caller holding the old value never sees a partial
//     update.
//   - The clock is passed in; the engine never reads time.Now directly.
package game

import "errors"

// ErrGameAlreadyWon is returned when a guess is submitted to a won game.
var ErrGameAlreadyWon = errors.New("game already won")

// New constructs a fresh game for target, started at clock.Now().
func New(target int, clock Clock) State {
	return State{
		Target:    target,
		Guesses:   []GuessResult{},
		StartTime: clock.Now(),
	}
}

// Submit scores guess against s.Target and returns the next state.
//
// On a won state it returns s unchanged together with ErrGameAlreadyWon.
// The win transition (bulls == Width) sets IsWon and stamps EndTime once.
func Submit(s State, guess Guess, clock Clock) (State, GuessResult, error) {
	if s.IsWon {
		return s, GuessResult{}, ErrGameAlreadyWon
	}

	sc := ScoreGuess(guess, s.Target)
	res := GuessResult{
		Guess:     guess,
		Cows:      sc.Cows,
		Bulls:     sc.Bulls,
		IsCorrect: sc.Correct(),
		Timestamp: clock.Now(),
	}

	next := s
	next.Guesses = make([]GuessResult, len(s.Guesses), len(s.Guesses)+1)
	copy(next.Guesses, s.Guesses)
	next.Guesses = append(next.Guesses, res)
	next.Attempts = s.Attempts + 1

	if res.IsCorrect {
		next.IsWon = true
		next.EndTime = res.Timestamp
	}
	return next, res, nil
}

// SubmitRaw validates raw input and submits it. A won game rejects any
// input, well-formed or not, with ErrGameAlreadyWon.
func SubmitRaw(s State, raw string, clock Clock) (State, GuessResult, error) {
	if s.IsWon {
		return s, GuessResult{}, ErrGameAlreadyWon
	}
	g, err := Validate(raw)
	if err != nil {
		return s, GuessResult{}, err
	}
	return Submit(s, g, clock)
}

// Reset starts a fresh game against the same target.
func Reset(s State, clock Clock) State {
	return New(s.Target, clock)
}
