package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Stats summarizes a game for display and persistence.
type Stats struct {
	Attempts        int        `json:"attempts"`
	IsWon           bool       `json:"isWon"`
	DurationSeconds int        `json:"durationSeconds"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
}

// Summarize reports s's stats. Duration runs to EndTime once won, otherwise
// to now.
func Summarize(s State, now time.Time) Stats {
	end := now
	st := Stats{Attempts: s.Attempts, IsWon: s.IsWon, StartTime: s.StartTime}
	if s.IsWon {
		end = s.EndTime
		st.EndTime = &end
	}
	st.DurationSeconds = int(end.Sub(s.StartTime) / time.Second)
	if st.DurationSeconds < 0 {
		st.DurationSeconds = 0
	}
	return st
}

// Elapsed is the time from start to win, or zero for an unfinished game.
func Elapsed(s State) time.Duration {
	if !s.IsWon {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// FeedbackMessage renders a score as short English text.
func FeedbackMessage(cows, bulls int) string {
	if bulls == Width {
		return "Congratulations! You've found the number!"
	}
	var parts []string
	if bulls > 0 {
		parts = append(parts, fmt.Sprintf("%d Bull%s", bulls, plural(bulls)))
	}
	if cows > 0 {
		parts = append(parts, fmt.Sprintf("%d Cow%s", cows, plural(cows)))
	}
	if len(parts) == 0 {
		return "No matches found. Try again!"
	}
	return strings.Join(parts, ", ")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// FormatGuess renders g zero-padded to Width digits.
func FormatGuess(g Guess) string {
	return fmt.Sprintf("%0*d", Width, int(g))
}

// GuessStrings returns the history as zero-padded strings.
func GuessStrings(s State) []string {
	return lo.Map(s.Guesses, func(r GuessResult, _ int) string {
		return FormatGuess(r.Guess)
	})
}

// BestScore returns the result with the most bulls (then cows) so far.
func BestScore(s State) (GuessResult, bool) {
	if len(s.Guesses) == 0 {
		return GuessResult{}, false
	}
	return lo.MaxBy(s.Guesses, func(a, b GuessResult) bool {
		if a.Bulls != b.Bulls {
			return a.Bulls > b.Bulls
		}
		return a.Cows > b.Cows
	}), true
}
