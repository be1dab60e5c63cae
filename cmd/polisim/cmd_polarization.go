package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/simulation"
)

func newPolarizationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polarization",
		Short: "Measure how spread out an electorate is",
		Long: `Compute the polarization index: the mean Euclidean distance of each
citizen's ideology from the electorate's centroid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, _ := cmd.Flags().GetString("electorate")

			ctx := context.Background()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			el, _, err := e.loadElectorate(ctx, ref)
			if err != nil {
				return err
			}

			vectors := ideology.Vectors(el.Citizens)
			index := simulation.PolarizationIndex(vectors)
			centroid := ideology.Centroid(vectors)

			if e.jsonOut {
				return e.printJSON(map[string]any{
					"electorate":         el.Name,
					"size":               el.Size,
					"polarization_index": index,
					"centroid":           centroid,
				})
			}

			fmt.Fprintf(e.out, "%s (%d citizens)\n", el.Name, el.Size)
			fmt.Fprintf(e.out, "Polarization index: %.4f\n", index)
			fmt.Fprintln(e.out, "Centroid:")
			for _, info := range ideology.Axes() {
				fmt.Fprintf(e.out, "  %-22s %6.3f\n", info.Key, centroid.At(info.Axis))
			}
			return nil
		},
	}

	cmd.Flags().String("electorate", "", "Electorate file or stored electorate ID (required)")

	return cmd
}
