package store

import (
	"context"
	"testing"

	"github.com/nvandessel/polisim/internal/config"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		want    string
		wantErr bool
	}{
		{"memory", config.StoreConfig{Backend: config.BackendMemory}, "*store.InMemoryStore", false},
		{"sqlite", config.StoreConfig{Backend: config.BackendSQLite, Dir: t.TempDir()}, "*store.SQLiteStore", false},
		{"unknown", config.StoreConfig{Backend: "mongo"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer s.Close()
			switch s.(type) {
			case *InMemoryStore:
				if tt.want != "*store.InMemoryStore" {
					t.Errorf("Open() returned InMemoryStore, want %s", tt.want)
				}
			case *SQLiteStore:
				if tt.want != "*store.SQLiteStore" {
					t.Errorf("Open() returned SQLiteStore, want %s", tt.want)
				}
			default:
				t.Errorf("Open() returned %T", s)
			}
		})
	}
}
