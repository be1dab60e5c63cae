package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/polisim/internal/pathutil"
	"github.com/nvandessel/polisim/internal/store"
)

func newElectorateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "electorate",
		Short: "Manage stored electorates",
		Long: `List, inspect, import, export and delete electorates in the store.

Examples:
  polisim electorate list
  polisim electorate import town.yaml --name "Springfield"
  polisim electorate show 5f0c...
  polisim electorate export 5f0c... -o springfield.json
  polisim electorate delete 5f0c...`,
	}

	cmd.AddCommand(
		newElectorateListCmd(),
		newElectorateShowCmd(),
		newElectorateImportCmd(),
		newElectorateExportCmd(),
		newElectorateDeleteCmd(),
	)

	return cmd
}

func newElectorateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored electorates, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := e.store.ListElectorates(ctx)
			if err != nil {
				return fmt.Errorf("failed to list electorates: %w", err)
			}

			if e.jsonOut {
				return e.printJSON(map[string]any{
					"electorates": list,
					"count":       len(list),
				})
			}

			if len(list) == 0 {
				fmt.Fprintln(e.out, "No stored electorates.")
				return nil
			}
			for _, el := range list {
				fmt.Fprintf(e.out, "%s  %-30s %6d citizens  %d factions  %s\n",
					el.ID, el.Name, el.Size, len(el.Factions), el.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newElectorateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored electorate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			el, err := getElectorate(ctx, e, args[0])
			if err != nil {
				return err
			}

			if e.jsonOut {
				return e.printJSON(el)
			}

			fmt.Fprintf(e.out, "%s\n", el.Name)
			fmt.Fprintf(e.out, "  id:          %s\n", el.ID)
			fmt.Fprintf(e.out, "  description: %s\n", valueOrDefault(el.Description, "(none)"))
			fmt.Fprintf(e.out, "  created:     %s\n", el.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(e.out, "  citizens:    %d\n", el.Size)
			for _, c := range el.Citizens {
				fmt.Fprintf(e.out, "    %-24s %s\n", valueOrDefault(c.Name, c.ID), c.Ideology)
			}
			if len(el.Factions) > 0 {
				fmt.Fprintf(e.out, "  factions:    %d\n", len(el.Factions))
				for _, f := range el.Factions {
					fmt.Fprintf(e.out, "    [%d] %-20s %4d members  %s\n",
						f.ClusterIndex, valueOrDefault(f.Name, "(unnamed)"), f.Size, f.Centroid)
				}
			}
			return nil
		},
	}
}

func newElectorateImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Save an electorate file to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			description, _ := cmd.Flags().GetString("description")

			el, err := store.ReadElectorateFile(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				el.Name = name
			}
			if description != "" {
				el.Description = description
			}
			// Always store under a fresh ID.
			el.ID = ""

			ctx := context.Background()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.SaveElectorate(ctx, el); err != nil {
				return fmt.Errorf("failed to save electorate: %w", err)
			}

			if e.jsonOut {
				return e.printJSON(map[string]any{"id": el.ID, "name": el.Name, "size": el.Size})
			}
			fmt.Fprintf(e.out, "Imported %s (%d citizens) as %s\n", el.Name, el.Size, el.ID)
			return nil
		},
	}

	cmd.Flags().String("name", "", "Override the electorate name")
	cmd.Flags().String("description", "", "Override the electorate description")

	return cmd
}

func newElectorateExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored electorate to a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("output")
			if outPath == "" {
				return fmt.Errorf("--output is required")
			}

			ctx := context.Background()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			roots, err := pathutil.AllowedOutputDirs(e.settings.Store.Dir)
			if err != nil {
				return err
			}
			if err := pathutil.CheckOutputPath(outPath, roots); err != nil {
				return fmt.Errorf("output path rejected: %w", err)
			}

			el, err := getElectorate(ctx, e, args[0])
			if err != nil {
				return err
			}
			if err := store.WriteElectorateFile(outPath, el); err != nil {
				return err
			}

			if e.jsonOut {
				return e.printJSON(map[string]any{"id": el.ID, "output": outPath})
			}
			fmt.Fprintf(e.out, "Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Destination file (.json, .yaml or .yml)")

	return cmd
}

func newElectorateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored electorate and its factions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			err = e.store.DeleteElectorate(ctx, args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("electorate %q not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to delete electorate: %w", err)
			}

			if e.jsonOut {
				return e.printJSON(map[string]string{"status": "deleted", "id": args[0]})
			}
			fmt.Fprintf(e.out, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func getElectorate(ctx context.Context, e *env, id string) (*store.Electorate, error) {
	el, err := e.store.GetElectorate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("electorate %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load electorate: %w", err)
	}
	return el, nil
}
