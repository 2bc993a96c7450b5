package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close() //nolint:errcheck // test helper
	return port
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies the sqlite settings backend needs a database.
func TestRun_MissingDatabasePath(t *testing.T) {
	path := writeConfig(t, `
site:
  id: test-site
database:
  path: ""
settings:
  backend: sqlite
`)
	t.Setenv("GRAYLOGIC_CONFIG", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("GRAYLOGIC_CONFIG", "")
		if got := getConfigPath(); got != defaultConfigPath {
			t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
		}
	})
	t.Run("env override", func(t *testing.T) {
		t.Setenv("GRAYLOGIC_CONFIG", "/custom/path/config.yaml")
		if got := getConfigPath(); got != "/custom/path/config.yaml" {
			t.Errorf("getConfigPath() = %q", got)
		}
	})
}

func TestSettingsBackend(t *testing.T) {
	db, err := database.Open(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{backend: "sqlite", want: "*settings.SQLiteBackend"},
		{backend: "file", want: "*settings.FileBackend"},
		{backend: "memory", want: "*settings.MemoryBackend"},
		{backend: "eeprom", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.Config{Settings: config.SettingsConfig{Backend: tt.backend, Path: filepath.Join(t.TempDir(), "s.bin")}}
			b, err := settingsBackend(cfg, db)
			if tt.wantErr {
				if err == nil {
					t.Error("settingsBackend() error = nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("settingsBackend() error = %v", err)
			}
			if got := fmt.Sprintf("%T", b); got != tt.want {
				t.Errorf("backend = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestRun_StartupAndShutdown boots the hub on the fake GPIO backend and
// stops it by cancelling the context.
func TestRun_StartupAndShutdown(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf(`
site:
  id: test-site
database:
  path: %q
  wal_mode: true
  busy_timeout: 5
settings:
  backend: sqlite
hardware:
  backend: fake
mqtt:
  enabled: false
influxdb:
  enabled: false
mdns:
  enabled: false
console:
  enabled: false
logging:
  level: error
  format: text
  output: stdout
api:
  host: "127.0.0.1"
  port: %d
`, filepath.Join(dir, "hub.db"), freePort(t)))
	t.Setenv("GRAYLOGIC_CONFIG", path)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	// The settings record was written on first boot.
	db, err := database.Open(database.Config{Path: filepath.Join(dir, "hub.db")})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup
	if _, err := settings.NewSQLiteBackend(db.DB).Read(context.Background()); err != nil {
		t.Errorf("settings record not persisted: %v", err)
	}
}

func TestRunHub_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close() //nolint:errcheck // test cleanup

	db, err := database.Open(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	cfg := &config.Config{
		Hardware: config.HardwareConfig{Backend: "fake"},
		API: config.APIConfig{
			Host: "127.0.0.1",
			Port: ln.Addr().(*net.TCPAddr).Port,
		},
		RemoteLog: config.RemoteLogConfig{Timeout: 1},
	}
	env := &environment{
		cfg:     cfg,
		db:      db,
		backend: settings.NewMemoryBackend(nil),
		log:     logging.Discard(),
	}

	if _, err := runHub(context.Background(), env); err == nil {
		t.Fatal("runHub() error = nil with the API port taken")
	}
}

func TestStartPruner(t *testing.T) {
	db, err := database.Open(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	t.Run("disabled", func(t *testing.T) {
		cfg := &config.Config{}
		p, err := startPruner(cfg, db, logging.Discard())
		if err != nil {
			t.Fatalf("startPruner() error = %v", err)
		}
		if p.cron != nil {
			t.Error("cron scheduled with retention disabled")
		}
		p.Stop()
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := &config.Config{Database: config.DatabaseConfig{HistoryRetentionDays: 7}}
		p, err := startPruner(cfg, db, logging.Discard())
		if err != nil {
			t.Fatalf("startPruner() error = %v", err)
		}
		if p.cron == nil || len(p.cron.Entries()) != 1 {
			t.Error("expected one scheduled prune")
		}
		p.Stop()
	})
}
