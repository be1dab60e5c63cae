// Package config provides unified configuration loading for polisim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/polisim/internal/cluster"
	"github.com/nvandessel/polisim/internal/simulation"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config contains all polisim configuration settings.
type Config struct {
	// Simulation tunes the support and turnout model.
	Simulation simulation.Config `json:"simulation" yaml:"simulation"`

	// Clustering tunes faction discovery.
	Clustering cluster.KMeansConfig `json:"clustering" yaml:"clustering"`

	// Store selects and configures the persistence backend.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and run logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LoggingConfig configures polisim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables run logging to <store dir>/runs.jsonl.
	Level string `json:"level" yaml:"level"`
}

// StoreConfig configures electorate and simulation-log persistence.
type StoreConfig struct {
	// Backend is "sqlite" (default), "postgres", or "memory".
	Backend string `json:"backend" yaml:"backend"`

	// DSN is the Postgres connection string. Supports ${VAR} syntax.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// Dir holds the SQLite database and the JSONL logs. Default: ~/.polisim.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// RedactedDSN returns the DSN with any password masked.
func (c StoreConfig) RedactedDSN() string {
	if c.DSN == "" {
		return ""
	}
	u, err := url.Parse(c.DSN)
	if err != nil || u.User == nil {
		if strings.Contains(c.DSN, "password=") {
			return "(set)"
		}
		return c.DSN
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// String implements fmt.Stringer to prevent accidental DSN password logging.
func (c StoreConfig) String() string {
	return fmt.Sprintf("StoreConfig{Backend:%s, Dir:%s, DSN:%s}", c.Backend, c.Dir, c.RedactedDSN())
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Simulation: simulation.DefaultConfig(),
		Clustering: cluster.DefaultKMeansConfig(),
		Store: StoreConfig{
			Backend: BackendSQLite,
			Dir:     DefaultDir(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultDir returns ~/.polisim, or .polisim if the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".polisim"
	}
	return filepath.Join(home, ".polisim")
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.polisim/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	configPath := filepath.Join(DefaultDir(), "config.yaml")
	if _, statErr := os.Stat(configPath); statErr == nil {
		fileConfig, loadErr := LoadFromFile(configPath)
		if loadErr != nil {
			return nil, fmt.Errorf("loading config file: %w", loadErr)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Fields the
// file omits keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.DSN = expandEnvVars(config.Store.DSN)
	config.Store.Dir = expandHome(expandEnvVars(config.Store.Dir))

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	s := c.Simulation
	if s.Alpha <= 0 {
		return fmt.Errorf("simulation.alpha must be positive, got %f", s.Alpha)
	}
	if s.Inflection <= 0 {
		return fmt.Errorf("simulation.inflection must be positive, got %f", s.Inflection)
	}
	if s.TurnoutFloor < 0 || s.TurnoutSpan < 0 || s.TurnoutFloor+s.TurnoutSpan > 1 {
		return fmt.Errorf("simulation turnout_floor + turnout_span must lie in [0, 1], got %f + %f", s.TurnoutFloor, s.TurnoutSpan)
	}
	if s.MotivationSaturation <= 0 {
		return fmt.Errorf("simulation.motivation_saturation must be positive, got %f", s.MotivationSaturation)
	}
	if s.AppealTurnoutWeight < 0 {
		return fmt.Errorf("simulation.appeal_turnout_weight must be non-negative, got %f", s.AppealTurnoutWeight)
	}
	if s.Workers < 0 {
		return fmt.Errorf("simulation.workers must be non-negative, got %d", s.Workers)
	}

	if c.Clustering.MaxIterations < 1 {
		return fmt.Errorf("clustering.max_iterations must be at least 1, got %d", c.Clustering.MaxIterations)
	}
	if c.Clustering.Tolerance < 0 {
		return fmt.Errorf("clustering.tolerance must be non-negative, got %g", c.Clustering.Tolerance)
	}
	if c.Clustering.Workers < 0 {
		return fmt.Errorf("clustering.workers must be non-negative, got %d", c.Clustering.Workers)
	}

	switch c.Store.Backend {
	case BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (valid: sqlite, postgres, memory)", c.Store.Backend)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Unparseable numeric values are ignored.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("POLISIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("POLISIM_STORE_BACKEND"); v != "" {
		config.Store.Backend = v
	}
	if v := os.Getenv("POLISIM_STORE_DSN"); v != "" {
		config.Store.DSN = v
	}
	if v := os.Getenv("POLISIM_STORE_DIR"); v != "" {
		config.Store.Dir = expandHome(v)
	}

	if v := os.Getenv("POLISIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Workers = n
			config.Clustering.Workers = n
		}
	}
	if v := os.Getenv("POLISIM_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.Alpha = f
		}
	}
	if v := os.Getenv("POLISIM_INFLECTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.Inflection = f
		}
	}
	if v := os.Getenv("POLISIM_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Clustering.MaxIterations = n
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
