package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robalobadob/cowsbulls/internal/daily"
)

func newTodayCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the day key and target number",
		Long: `Print the day key and the number every player is guessing.

Examples:
  cowsbulls today                    # today's number
  cowsbulls today --date 2024-01-03  # any other day`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := daily.DateKey(time.Now())
			if date != "" {
				k, _, err := daily.ParseDateKey(date)
				if err != nil {
					return err
				}
				key = k
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", key, daily.Format(daily.NumberFor(key)))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day key (YYYY-MM-DD) instead of today")
	return cmd
}
