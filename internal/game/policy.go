package game

import "errors"

// ErrAttemptsExhausted is returned by Capped once the attempt cap is reached.
var ErrAttemptsExhausted = errors.New("no attempts left")

// IsOver reports whether s is finished: won, or out of attempts when
// maxAttempts > 0.
func IsOver(s State, maxAttempts int) bool {
	if s.IsWon {
		return true
	}
	return maxAttempts > 0 && s.Attempts >= maxAttempts
}

// Capped layers a maximum-attempts rule over the engine. The engine itself
// has no loss state; a zero Max means uncapped.
type Capped struct {
	Max int
}

// Remaining returns the attempts left, or -1 when uncapped.
func (c Capped) Remaining(s State) int {
	if c.Max <= 0 {
		return -1
	}
	if r := c.Max - s.Attempts; r > 0 {
		return r
	}
	return 0
}

// Status is s.Status, except that an unwon game out of attempts is lost.
func (c Capped) Status(s State) Status {
	if !s.IsWon && IsOver(s, c.Max) {
		return StatusLost
	}
	return s.Status()
}

// SubmitRaw behaves like the package-level SubmitRaw but refuses guesses
// once the cap is reached.
func (c Capped) SubmitRaw(s State, raw string, clock Clock) (State, GuessResult, error) {
	if !s.IsWon && c.Max > 0 && s.Attempts >= c.Max {
		return s, GuessResult{}, ErrAttemptsExhausted
	}
	return SubmitRaw(s, raw, clock)
}
