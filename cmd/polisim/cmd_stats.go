package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the simulation log",
		Long: `Show how many logged simulations passed and failed, the average turnout,
and the most recent runs. Runs are logged with 'polisim simulate --log'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := e.store.Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to compute stats: %w", err)
			}

			if e.jsonOut {
				return e.printJSON(stats)
			}

			fmt.Fprintln(e.out, "Simulation log")
			fmt.Fprintf(e.out, "  Total:           %d\n", stats.TotalSimulations)
			fmt.Fprintf(e.out, "  Passed:          %d\n", stats.Passed)
			fmt.Fprintf(e.out, "  Failed:          %d\n", stats.Failed)
			fmt.Fprintf(e.out, "  Average turnout: %.1f%%\n", stats.AverageTurnout)

			if len(stats.Recent) == 0 {
				return nil
			}
			fmt.Fprintln(e.out, "\nRecent:")
			for _, l := range stats.Recent {
				outcome := "failed"
				if l.Passed {
					outcome = "passed"
				}
				fmt.Fprintf(e.out, "  %s  %-30s %4d yes %4d no %4d abstain  %5.1f%%  %s\n",
					l.CreatedAt.Local().Format("2006-01-02 15:04"), l.PolicyTitle,
					l.Ayes, l.Nays, l.Abstentions, l.TurnoutPercentage, outcome)
			}
			return nil
		},
	}
}
