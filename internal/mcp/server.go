// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the polisim engine and electorate store as tools.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/polisim/internal/cluster"
	"github.com/nvandessel/polisim/internal/config"
	"github.com/nvandessel/polisim/internal/logging"
	"github.com/nvandessel/polisim/internal/ratelimit"
	"github.com/nvandessel/polisim/internal/simulation"
	"github.com/nvandessel/polisim/internal/store"
)

// Server wraps the MCP SDK server with the polisim engine and store.
type Server struct {
	server       *sdk.Server
	store        store.Store
	ownsStore    bool
	settings     *config.Config
	runner       *simulation.Runner
	clusterer    cluster.Clusterer
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	runLogger    *logging.RunLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "polisim")
	Version string // Server version

	// Settings is the loaded polisim configuration. Defaults apply when nil.
	Settings *config.Config

	// Store overrides the store selected by Settings.Store. The caller keeps
	// ownership and must close it.
	Store store.Store

	// Logger receives operational logs. Discarded when nil.
	Logger *slog.Logger
}

// NewServer creates a new MCP server with polisim tools.
func NewServer(ctx context.Context, cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	st, ownsStore := cfg.Store, false
	if st == nil {
		var err error
		st, err = store.Open(ctx, settings.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		ownsStore = true
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		store:        st,
		ownsStore:    ownsStore,
		settings:     settings,
		runner:       simulation.NewRunner(settings.Simulation),
		clusterer:    cluster.NewKMeans(settings.Clustering),
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  NewAuditLogger(settings.Store.Dir),
		runLogger:    logging.NewRunLogger(settings.Store.Dir, settings.Logging.Level),
		logger:       logger,
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			s.logger.Info("shutting down mcp server")
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if closeErr := s.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Close releases the store (if owned) and the log files.
func (s *Server) Close() error {
	s.runLogger.Close()
	auditErr := s.auditLogger.Close()
	if s.ownsStore && s.store != nil {
		err := s.store.Close()
		s.store = nil
		if err != nil {
			return err
		}
	}
	return auditErr
}
