package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-hub/internal/api"
	"github.com/nerrad567/gray-logic-hub/internal/audit"
	"github.com/nerrad567/gray-logic-hub/internal/automation"
	bridgemqtt "github.com/nerrad567/gray-logic-hub/internal/bridges/mqtt"
	"github.com/nerrad567/gray-logic-hub/internal/console"
	"github.com/nerrad567/gray-logic-hub/internal/controller"
	"github.com/nerrad567/gray-logic-hub/internal/device"
	"github.com/nerrad567/gray-logic-hub/internal/hardware"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/mdns"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-hub/internal/remotelog"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
)

var _ controller.Telemetry = (*influxdb.Client)(nil)

// environment holds what outlives a single hub generation.
type environment struct {
	cfg     *config.Config
	db      *database.DB
	backend settings.Backend
	influx  *influxdb.Client
	log     *logging.Logger

	// consoleLines is nil when the console is disabled.
	consoleLines <-chan string
}

// runHub builds every component from the persisted settings and runs them
// until a restart is requested or ctx is cancelled. It returns the source
// of the restart request.
func runHub(ctx context.Context, env *environment) (string, error) {
	cfg := env.cfg
	log := env.log

	store := settings.NewStore(env.backend)
	store.SetLogger(log.Component("settings"))
	current, err := store.Load(ctx)
	if err != nil {
		log.Warn("default settings not persisted", "error", err)
	}

	port, err := hardware.Open(cfg.Hardware.Backend, cfg.Hardware.Chip)
	if err != nil {
		return "", fmt.Errorf("opening GPIO: %w", err)
	}
	defer func() {
		if closeErr := port.Close(); closeErr != nil {
			log.Error("error closing GPIO", "error", closeErr)
		}
	}()

	history := device.NewSQLiteStateHistoryRepository(env.db.DB)
	registry := device.NewRegistry(port)
	registry.SetLogger(log.Component("device"))
	registry.SetStateHistory(history)
	registry.SetReadTimeout(cfg.GetHardwareReadTimeout())
	if initErr := registry.Initialize(current); initErr != nil {
		// Devices on failed pins stay listed; the hub keeps running.
		log.Error("device initialisation incomplete", "error", initErr)
	}

	engine := automation.NewEngine(0)
	engine.SetLogger(log.Component("automation"))

	auditRepo := audit.NewSQLiteRepository(env.db.DB)
	recorder := audit.NewRecorder(auditRepo)
	recorder.SetLogger(log.Component("audit"))

	deps := controller.Deps{
		Store:    store,
		Registry: registry,
		Engine:   engine,
		Rules:    automation.NewSQLiteRepository(env.db.DB),
		Audit:    recorder,
		Logger:   log.Component("controller"),

		RedactSecrets: cfg.API.RedactSecrets,
	}
	if env.influx != nil {
		deps.Telemetry = env.influx
	}
	ctrl := controller.New(deps)
	if loadErr := ctrl.LoadRules(ctx); loadErr != nil {
		log.Warn("stored rules not restored", "error", loadErr)
	}

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(genCtx)

	var mqttClient atomic.Pointer[mqtt.Client]
	health := map[string]api.HealthCheck{
		"database": env.db.HealthCheck,
	}
	if cfg.MQTT.Enabled {
		health["mqtt"] = func(ctx context.Context) error {
			c := mqttClient.Load()
			if c == nil {
				return mqtt.ErrNotConnected
			}
			return c.HealthCheck(ctx)
		}
	}
	if env.influx != nil {
		health["influxdb"] = env.influx.HealthCheck
	}

	srv, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log.Component("api"),
		Controller: ctrl,
		History:    history,
		Audit:      auditRepo,
		Health:     health,
		Version:    version,
	})
	if err != nil {
		return "", fmt.Errorf("creating API server: %w", err)
	}
	ctrl.AddObserver(srv.Hub())
	if startErr := srv.Start(gctx); startErr != nil {
		return "", fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	g.Go(func() error {
		recorder.Run(gctx)
		return nil
	})

	if cfg.MQTT.Enabled {
		g.Go(func() error {
			runMQTT(gctx, cfg.MQTT, current.DeviceName, ctrl, &mqttClient, log.Component("mqtt"))
			return nil
		})
	} else {
		log.Info("MQTT disabled")
	}

	uploader := remotelog.New(ctrl, cfg.GetRemoteLogTimeout())
	uploader.SetLogger(log.Component("remotelog"))
	if startErr := uploader.Start(); startErr != nil {
		log.Warn("remote logging not started", "error", startErr)
	}
	defer uploader.Stop()

	if cfg.MDNS.Enabled {
		announcer := mdns.NewAnnouncer()
		announcer.SetLogger(log.Component("mdns"))
		if startErr := announcer.Start(current.DeviceName); startErr != nil {
			log.Warn("mDNS announcement not started", "error", startErr)
		} else {
			defer announcer.Close() //nolint:errcheck // best effort on shutdown
			log.Info("mDNS announced", "host", announcer.Host())
		}
	}

	if env.consoleLines != nil {
		shell := console.New(ctrl, os.Stdout)
		shell.SetLogger(log.Component("console"))
		g.Go(func() error {
			return shell.Serve(gctx, env.consoleLines)
		})
	}

	g.Go(func() error {
		return ctrl.Run(gctx)
	})

	var source string
	select {
	case source = <-ctrl.Restarts():
	case <-gctx.Done():
	}

	cancel()
	if waitErr := g.Wait(); waitErr != nil {
		return "", waitErr
	}
	return source, nil
}

// runMQTT connects in the background so a missing broker never delays the
// rest of the hub, then bridges until ctx is cancelled.
func runMQTT(ctx context.Context, cfg config.MQTTConfig, deviceName string, ctrl *controller.Controller, slot *atomic.Pointer[mqtt.Client], log *logging.Logger) {
	client, err := mqtt.Connect(cfg, deviceName)
	if err != nil {
		log.Warn("MQTT unavailable", "broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port), "error", err)
		return
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	slot.Store(client)
	defer slot.Store(nil)

	bridge := bridgemqtt.New(client, client.Topics(), ctrl, client.DefaultQoS())
	bridge.SetLogger(log)
	if startErr := bridge.Start(ctx); startErr != nil {
		log.Error("MQTT bridge not started", "error", startErr)
		return
	}
	ctrl.AddObserver(bridge)
	log.Info("MQTT bridge started", "control_topic", client.Topics().Control())

	bridge.Run(ctx)
}
