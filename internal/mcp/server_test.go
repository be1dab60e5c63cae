package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/polisim/internal/config"
	"github.com/nvandessel/polisim/internal/ratelimit"
	"github.com/nvandessel/polisim/internal/store"
)

// setupTestServer returns a server backed by an in-memory store and a
// temporary data directory.
func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()

	settings := config.Default()
	settings.Store.Dir = dir

	server, err := NewServer(context.Background(), &Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		Settings: settings,
		Store:    store.NewInMemoryStore(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	return server, dir
}

func TestNewServer(t *testing.T) {
	server, dir := setupTestServer(t)

	if server.server == nil {
		t.Error("Server.server is nil")
	}
	if server.store == nil {
		t.Error("Server.store is nil")
	}
	if server.ownsStore {
		t.Error("server should not own a caller-provided store")
	}
	if server.runLogger != nil {
		t.Error("run logger should be disabled at info level")
	}
	if _, err := os.Stat(filepath.Join(dir, AuditFile)); err != nil {
		t.Errorf("audit log not created: %v", err)
	}
}

func TestNewServer_OpensConfiguredStore(t *testing.T) {
	dir := t.TempDir()
	settings := config.Default()
	settings.Store.Dir = dir

	server, err := NewServer(context.Background(), &Config{Name: "test", Version: "dev", Settings: settings})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if !server.ownsStore {
		t.Error("server should own the store it opened")
	}
	if _, err := os.Stat(filepath.Join(dir, store.DBFile)); err != nil {
		t.Errorf("database not created: %v", err)
	}

	if err := server.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if server.store != nil {
		t.Error("store should be released after Close")
	}
	// Second close is a no-op.
	if err := server.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestNewServer_TraceEnablesRunLog(t *testing.T) {
	dir := t.TempDir()
	settings := config.Default()
	settings.Store.Dir = dir
	settings.Logging.Level = "trace"

	server, err := NewServer(context.Background(), &Config{
		Name:     "test",
		Version:  "dev",
		Settings: settings,
		Store:    store.NewInMemoryStore(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.runLogger == nil {
		t.Fatal("run logger should be enabled at trace level")
	}
}

func TestToolLimitersCoverAllTools(t *testing.T) {
	limiters := ratelimit.NewToolLimiters()
	tools := []string{
		ToolSimulate, ToolPolarization, ToolCluster, ToolGenerate,
		ToolElectorateSave, ToolElectorateList, ToolElectorateGet, ToolStats,
	}
	for _, name := range tools {
		if _, ok := limiters[name]; !ok {
			t.Errorf("no rate limiter configured for %s", name)
		}
	}
	if len(limiters) != len(tools) {
		t.Errorf("got %d limiters, want %d", len(limiters), len(tools))
	}
}
