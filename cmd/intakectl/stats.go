// cmd/intakectl/stats.go
package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard summary and breakdowns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			board, _, closeStore, err := c.board(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := board.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Total applications\t%d\n", stats.Summary.Total)
			fmt.Fprintf(tw, "Last 7 days\t%d\n", stats.Summary.LastSevenDays)
			fmt.Fprintf(tw, "Average rating\t%s\n", stats.Summary.AverageRating)
			fmt.Fprintf(tw, "Top role\t%s\n", stats.Summary.TopRole)
			fmt.Fprintf(tw, "Pending screening\t%d\n", stats.Summary.PendingScreening)
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "Role\tApplications")
			for _, rc := range stats.ByRole {
				fmt.Fprintf(tw, "%s\t%d\n", rc.Key, rc.Count)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full stats as JSON")
	return cmd
}
