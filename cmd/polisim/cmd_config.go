package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect polisim configuration",
		Long: `View the effective configuration after defaults, the config file and
POLISIM_* environment overrides are applied.

Configuration is read from ~/.polisim/config.yaml unless --config is given.

Examples:
  polisim config show
  POLISIM_STORE_BACKEND=memory polisim config show --json`,
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			// Redact the DSN before printing to prevent password leakage.
			redacted := *cfg
			redacted.Store.DSN = cfg.Store.RedactedDSN()

			e := &env{out: cmd.OutOrStdout()}
			if jsonOut {
				return e.printJSON(redacted)
			}

			data, err := yaml.Marshal(&redacted)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
