package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/rng"
	"github.com/nvandessel/polisim/internal/simulation"
	"github.com/nvandessel/polisim/internal/store"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a vote on a policy",
		Long: `Run one simulation pass: each citizen turns out with a probability that
grows with how strongly they feel about the policy, then votes for it with a
probability that falls with their ideological distance from it.

The electorate is a JSON/YAML file or the ID of a stored electorate. The
policy file holds a title, a description, a vector and an optional
universal_appeal.

Examples:
  polisim simulate --electorate town.yaml --policy carbon-tax.yaml --seed 42
  polisim simulate --electorate 5f0c... --policy ubi.json --appeal 0.2 --log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, _ := cmd.Flags().GetString("electorate")
			policyPath, _ := cmd.Flags().GetString("policy")
			seedFlag, _ := cmd.Flags().GetUint64("seed")
			trials, _ := cmd.Flags().GetInt("trials")
			logRun, _ := cmd.Flags().GetBool("log")
			showVotes, _ := cmd.Flags().GetBool("votes")

			if policyPath == "" {
				return fmt.Errorf("--policy is required")
			}
			if trials < 0 {
				return fmt.Errorf("--trials must be non-negative, got %d", trials)
			}
			policy, err := store.ReadPolicyFile(policyPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("appeal") {
				appeal, _ := cmd.Flags().GetFloat64("appeal")
				policy, err = ideology.NewPolicy(policy.Title, policy.Description, policy.Vector, appeal)
				if err != nil {
					return err
				}
			}

			ctx := context.Background()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			el, stored, err := e.loadElectorate(ctx, ref)
			if err != nil {
				return err
			}

			seedUsed := seedFlag
			if seedUsed == 0 {
				seedUsed = rng.RandomSeed()
			}
			src := rng.New(seedUsed)
			runner := simulation.NewRunner(e.settings.Simulation)
			res := runner.Run(el.Citizens, policy, src)
			expected := runner.Expect(el.Citizens, policy)

			var summary *simulation.TrialSummary
			if trials > 0 {
				s := runner.Trials(el.Citizens, policy, src, trials)
				summary = &s
			}

			var logID string
			if logRun {
				electorateID := ""
				if stored {
					electorateID = el.ID
				}
				entry := store.NewSimulationLog(electorateID, res)
				if err := e.store.LogSimulation(ctx, &entry); err != nil {
					return fmt.Errorf("failed to log simulation: %w", err)
				}
				logID = entry.ID
			}

			fields := map[string]any{
				"source":       "cli",
				"electorate":   el.Name,
				"policy":       policy.Title,
				"seed":         seedUsed,
				"support":      res.SupportCount,
				"oppose":       res.OpposeCount,
				"abstentions":  res.Abstentions,
				"passed":       res.Passed,
				"polarization": res.PolarizationIndex,
			}
			if e.runLogger.Trace() {
				fields["votes"] = res.Votes
			}
			e.runLogger.Log("simulation", fields)
			e.logger.Debug("simulation complete", "electorate", el.Name, "size", el.Size, "seed", seedUsed, "passed", res.Passed)

			if e.jsonOut {
				if !showVotes {
					res.Votes = nil
				}
				return e.printJSON(map[string]any{
					"seed":     seedUsed,
					"result":   res,
					"expected": expected,
					"trials":   summary,
					"log_id":   logID,
				})
			}

			printResult(e, el, res, expected, summary, seedUsed)
			if showVotes {
				fmt.Fprintln(e.out, "\nVotes:")
				for _, v := range res.Votes {
					fmt.Fprintf(e.out, "  %-36s  d=%.3f  p(support)=%.2f  p(turnout)=%.2f  %s\n",
						v.CitizenID, v.DistanceToPolicy, v.SupportProbability, v.TurnoutProbability, voteLabel(v))
				}
			}
			if logID != "" {
				fmt.Fprintf(e.out, "\nLogged as %s\n", logID)
			}
			return nil
		},
	}

	cmd.Flags().String("electorate", "", "Electorate file or stored electorate ID (required)")
	cmd.Flags().String("policy", "", "Policy file, JSON or YAML (required)")
	cmd.Flags().Float64("appeal", 0, "Override the policy's universal appeal, in [-1, 1]")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	cmd.Flags().Int("trials", 0, "Additional repeated runs to estimate the pass rate")
	cmd.Flags().Bool("log", false, "Record the run in the simulation log")
	cmd.Flags().Bool("votes", false, "Show per-citizen votes")

	return cmd
}

func printResult(e *env, el *store.Electorate, res simulation.Result, expected simulation.Expectation, summary *simulation.TrialSummary, seedUsed uint64) {
	outcome := "FAILED"
	if res.Passed {
		outcome = "PASSED"
	}

	fmt.Fprintf(e.out, "%s: %s\n", res.Policy.Title, outcome)
	fmt.Fprintf(e.out, "Electorate: %s (%d citizens), seed %d\n\n", el.Name, el.Size, seedUsed)
	fmt.Fprintf(e.out, "  Support:      %d\n", res.SupportCount)
	fmt.Fprintf(e.out, "  Oppose:       %d\n", res.OpposeCount)
	fmt.Fprintf(e.out, "  Abstain:      %d\n", res.Abstentions)
	fmt.Fprintf(e.out, "  Turnout:      %.1f%%\n", res.TurnoutRate*100)
	fmt.Fprintf(e.out, "  Margin:       %+d\n", res.MarginOfVictory)
	fmt.Fprintf(e.out, "  Polarization: %.3f\n", res.PolarizationIndex)
	fmt.Fprintf(e.out, "\nExpected: support %.1f, oppose %.1f, turnout %.1f%%\n",
		expected.ExpectedSupport, expected.ExpectedOppose, expected.ExpectedTurnout*100)
	if summary != nil {
		fmt.Fprintf(e.out, "Trials:   passed %d of %d (%.1f%%)\n", summary.Passed, summary.Trials, summary.PassRate*100)
	}
}

func voteLabel(v simulation.VoteRecord) string {
	switch {
	case !v.DidVote:
		return "abstained"
	case v.Vote:
		return "yes"
	default:
		return "no"
	}
}
