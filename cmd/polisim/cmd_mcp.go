package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/polisim/internal/logging"
	"github.com/nvandessel/polisim/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Serve the simulator as Model Context Protocol tools over stdin/stdout.

Tools: polisim_simulate, polisim_polarization, polisim_cluster,
polisim_generate, polisim_electorate_save, polisim_electorate_list,
polisim_electorate_get, polisim_stats.

Every call is rate limited and recorded in <data dir>/audit.jsonl.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			// stdout carries the protocol; logs go to stderr only.
			logger := logging.NewLogger(settings.Logging.Level, cmd.ErrOrStderr())

			ctx := context.Background()
			server, err := mcp.NewServer(ctx, &mcp.Config{
				Name:     "polisim",
				Version:  version,
				Settings: settings,
				Logger:   logger,
			})
			if err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}

			logger.Info("mcp server starting", "store", settings.Store.String())
			return server.Run(ctx)
		},
	}
}
