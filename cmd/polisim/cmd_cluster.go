package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/polisim/internal/cluster"
	"github.com/nvandessel/polisim/internal/faction"
	"github.com/nvandessel/polisim/internal/rng"
)

func newClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Discover ideological factions with k-means++",
		Long: `Partition an electorate into k factions. When --k is omitted it is
derived from the electorate size. --save stores the factions on a stored
electorate, replacing any previous ones.

Examples:
  polisim cluster --electorate town.yaml --k 4 --seed 1
  polisim cluster --electorate 5f0c... --save
  polisim cluster --electorate town.yaml --members`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, _ := cmd.Flags().GetString("electorate")
			k, _ := cmd.Flags().GetInt("k")
			seedFlag, _ := cmd.Flags().GetUint64("seed")
			save, _ := cmd.Flags().GetBool("save")
			showMembers, _ := cmd.Flags().GetBool("members")

			if k < 0 {
				return fmt.Errorf("--k must be non-negative, got %d", k)
			}

			ctx, cancel := commandContext(context.Background())
			defer cancel()

			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			el, stored, err := e.loadElectorate(ctx, ref)
			if err != nil {
				return err
			}
			if save && !stored {
				return fmt.Errorf("--save needs a stored electorate ID; import the file first with 'polisim electorate import'")
			}
			if err := faction.CheckSize(len(el.Citizens)); err != nil {
				return err
			}

			seedUsed := seedFlag
			if seedUsed == 0 {
				seedUsed = rng.RandomSeed()
			}
			part, err := faction.Discover(ctx, cluster.NewKMeans(e.settings.Clustering), el.Citizens, k, seedUsed)
			if err != nil {
				return fmt.Errorf("clustering failed: %w", err)
			}

			if save {
				if err := e.store.SaveFactions(ctx, el.ID, part.Factions); err != nil {
					return fmt.Errorf("failed to save factions: %w", err)
				}
			}

			e.runLogger.Log("cluster", map[string]any{
				"source":     "cli",
				"electorate": el.Name,
				"k":          part.K,
				"seed":       seedUsed,
				"iterations": part.Iterations,
				"converged":  part.Converged,
				"inertia":    part.Inertia,
			})
			e.logger.Debug("clustering complete", "k", part.K, "iterations", part.Iterations, "converged", part.Converged)

			if e.jsonOut {
				out := map[string]any{
					"seed":      seedUsed,
					"partition": part,
					"saved":     save,
				}
				if showMembers {
					members := make([][]string, part.K)
					for j := range members {
						members[j] = part.Members(j)
					}
					out["members"] = members
				}
				return e.printJSON(out)
			}

			names := make(map[string]string, len(el.Citizens))
			for _, c := range el.Citizens {
				names[c.ID] = valueOrDefault(c.Name, c.ID)
			}

			fmt.Fprintf(e.out, "%s: %d factions (seed %d, %d iterations", el.Name, part.K, seedUsed, part.Iterations)
			if !part.Converged {
				fmt.Fprint(e.out, ", not converged")
			}
			fmt.Fprintf(e.out, ", inertia %.3f)\n\n", part.Inertia)
			for _, f := range part.Factions {
				fmt.Fprint(e.out, faction.Describe(f))
				fmt.Fprintf(e.out, "- Polarization: %.3f\n", f.Polarization)
				if showMembers {
					ids := part.Members(f.ClusterIndex)
					labels := make([]string, len(ids))
					for i, id := range ids {
						labels[i] = names[id]
					}
					fmt.Fprintf(e.out, "- Members: %s\n", strings.Join(labels, ", "))
				}
				fmt.Fprintln(e.out)
			}
			if save {
				fmt.Fprintf(e.out, "Saved factions to %s\n", el.ID)
			}
			return nil
		},
	}

	cmd.Flags().String("electorate", "", "Electorate file or stored electorate ID (required)")
	cmd.Flags().Int("k", 0, "Number of factions (0 derives it from electorate size)")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	cmd.Flags().Bool("save", false, "Store the factions on the electorate")
	cmd.Flags().Bool("members", false, "List the citizens in each faction")

	return cmd
}
