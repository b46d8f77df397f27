package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robalobadob/cowsbulls/internal/daily"
	"github.com/robalobadob/cowsbulls/internal/game"
)

func newPlayCmd() *cobra.Command {
	var date string
	var maxAttempts int
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play today's game in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := daily.DateKey(time.Now())
			if date != "" {
				k, _, err := daily.ParseDateKey(date)
				if err != nil {
					return err
				}
				key = k
			}
			return play(cmd.InOrStdin(), cmd.OutOrStdout(), key, daily.NumberFor(key), maxAttempts, game.SystemClock)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "play another day's number (YYYY-MM-DD)")
	cmd.Flags().IntVar(&maxAttempts, "max", 0, "maximum attempts (0 = unlimited)")
	return cmd
}

// play runs an interactive game reading one guess per line from in.
func play(in io.Reader, out io.Writer, key string, target, maxAttempts int, clock game.Clock) error {
	policy := game.Capped{Max: maxAttempts}
	st := game.New(target, clock)

	fmt.Fprintf(out, "Cows and Bulls for %s. Guess the %d-digit number; all digits differ.\n", key, game.Width)
	if maxAttempts > 0 {
		fmt.Fprintf(out, "You have %d attempts.\n", maxAttempts)
	}

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		// Scanner drops "\n" but keeps the "\r" of CRLF input.
		next, res, err := policy.SubmitRaw(st, strings.TrimSuffix(sc.Text(), "\r"), clock)
		var ve *game.ValidationError
		switch {
		case errors.As(err, &ve):
			fmt.Fprintln(out, ve.Error())
			continue
		case err != nil:
			return err
		}
		st = next
		fmt.Fprintln(out, game.FeedbackMessage(res.Cows, res.Bulls))

		if st.IsWon {
			sum := game.Summarize(st, clock.Now())
			fmt.Fprintf(out, "Solved in %d attempts (%ds).\n", sum.Attempts, sum.DurationSeconds)
			return nil
		}
		if policy.Status(st) == game.StatusLost {
			fmt.Fprintf(out, "Out of attempts. The number was %s.\n", daily.Format(target))
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nBye. %d attempts so far: %s\n", st.Attempts, strings.Join(game.GuessStrings(st), " "))
	return nil
}
