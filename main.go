// main.go
//
// Entrypoint for the cowsbulls binary.
// Subcommands:
//   - serve : run the HTTP API (daily game, auth, leaderboard, metrics).
//   - today : print today's day key and target (operator tool).
//   - play  : play today's game in the terminal.
//
// A .env file in the working directory is loaded first when present.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/cowsbulls/internal/config"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "cowsbulls",
		Short:         "Daily Cows and Bulls",
		Long:          "A daily three-digit Cows and Bulls puzzle: one shared number per day, the same for every player.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			if logLevel == "" {
				logLevel = cfg.LogLevel
			}
			setupLogging(logLevel, cfg.Production)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); default LOG_LEVEL")

	root.AddCommand(newServeCmd(), newTodayCmd(), newPlayCmd())
	return root
}

// setupLogging configures the global zerolog logger: JSON in production,
// a console writer otherwise.
func setupLogging(level string, production bool) {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if !production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
