// Gray Logic Hub - single-board home automation controller
//
// The hub drives relays, a dimmable LED and a motor from GPIO, samples
// climate, light and motion sensors, and evaluates threshold rules. Its
// state is served to the dashboard over a websocket and mirrored to MQTT.
//
// A configuration change that needs a restart rebuilds every component
// from the persisted settings inside this process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-hub/migrations"

	"github.com/nerrad567/gray-logic-hub/internal/console"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "graylogic-hub: %v\n", err)
		os.Exit(1)
	}
}

// run owns the resources that outlive a restart (database, InfluxDB,
// pruning, console input) and runs hub generations until ctx ends.
func run(ctx context.Context) error {
	boot := logging.Default()
	boot.Info("Gray Logic Hub starting", "version", version, "commit", commit, "build_date", date)

	path := getConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", path, "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLogged(log, "database", db.Close)

	backend, err := settingsBackend(cfg, db)
	if err != nil {
		return err
	}

	influx := openInflux(cfg, log)
	if influx != nil {
		defer closeLogged(log, "influxdb", influx.Close)
	}

	pruner, err := startPruner(cfg, db, log.Component("maintenance"))
	if err != nil {
		return err
	}
	defer pruner.Stop()

	env := &environment{cfg: cfg, db: db, backend: backend, influx: influx, log: log}
	if cfg.Console.Enabled {
		env.consoleLines = console.Lines(os.Stdin)
	}

	for gen := 1; ; gen++ {
		log.Info("hub generation starting", "generation", gen)
		source, err := runHub(ctx, env)
		switch {
		case err != nil:
			return err
		case ctx.Err() != nil:
			log.Info("Gray Logic Hub stopped")
			return nil
		}
		log.Info("restart requested", "source", source)
	}
}

// openDatabase opens and migrates the SQLite file.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// openInflux returns nil when telemetry is disabled or the server cannot
// be reached; the hub runs fine without it.
func openInflux(cfg *config.Config, log *logging.Logger) *influxdb.Client {
	if !cfg.InfluxDB.Enabled {
		return nil
	}
	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
	if err != nil {
		log.Warn("InfluxDB unavailable, telemetry disabled", "error", err)
		return nil
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write failed", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	return client
}

func closeLogged(log *logging.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error("close failed", "resource", what, "error", err)
	}
}

// getConfigPath honours GRAYLOGIC_CONFIG.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// settingsBackend selects where the device record lives.
func settingsBackend(cfg *config.Config, db *database.DB) (settings.Backend, error) {
	switch cfg.Settings.Backend {
	case "sqlite":
		return settings.NewSQLiteBackend(db.DB), nil
	case "file":
		return settings.NewFileBackend(cfg.Settings.Path), nil
	case "memory":
		return settings.NewMemoryBackend(nil), nil
	default:
		return nil, fmt.Errorf("unknown settings backend %q", cfg.Settings.Backend)
	}
}
