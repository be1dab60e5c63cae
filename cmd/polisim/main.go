package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/polisim/internal/config"
	"github.com/nvandessel/polisim/internal/logging"
	"github.com/nvandessel/polisim/internal/store"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "polisim",
		Short: "Policy voting simulator over a six-axis ideology space",
		Long: `polisim simulates how an electorate of citizens, each placed in a
six-dimensional ideology space, turns out and votes on a policy.

It measures electorate polarization, discovers ideological factions with
k-means++, and keeps electorates and a simulation log in a local store.`,
		SilenceUsage: true,
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newSimulateCmd(),
		newPolarizationCmd(),
		newClusterCmd(),
		newElectorateCmd(),
		newStatsCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	cmd.PersistentFlags().String("config", "", "Config file (default ~/.polisim/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace")
}

// loadSettings resolves configuration for a command: --config file or the
// default locations, then --log-level, then validation.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// env bundles what most commands need: settings, an open store, and loggers.
type env struct {
	settings  *config.Config
	store     store.Store
	logger    *slog.Logger
	runLogger *logging.RunLogger
	jsonOut   bool
	out       io.Writer
}

// openEnv loads settings and opens the configured store. Callers must Close.
func openEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, settings.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	return &env{
		settings:  settings,
		store:     st,
		logger:    logging.NewLogger(settings.Logging.Level, cmd.ErrOrStderr()),
		runLogger: logging.NewRunLogger(settings.Store.Dir, settings.Logging.Level),
		jsonOut:   jsonOut,
		out:       cmd.OutOrStdout(),
	}, nil
}

func (e *env) Close() error {
	e.runLogger.Close()
	return e.store.Close()
}

// printJSON writes v as indented JSON.
func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadElectorate resolves ref as a file path when one exists, and as a stored
// electorate ID otherwise. stored reports which it was.
func (e *env) loadElectorate(ctx context.Context, ref string) (el *store.Electorate, stored bool, err error) {
	if ref == "" {
		return nil, false, errors.New("--electorate is required")
	}
	if _, statErr := os.Stat(ref); statErr == nil {
		el, err = store.ReadElectorateFile(ref)
		return el, false, err
	}

	el, err = e.store.GetElectorate(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("electorate %q is neither a file nor a stored electorate", ref)
	}
	if err != nil {
		return nil, false, err
	}
	return el, true, nil
}

// commandContext returns a context cancelled on SIGINT/SIGTERM.
func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func valueOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
