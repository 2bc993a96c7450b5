package controller

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/audit"
	"github.com/nerrad567/gray-logic-hub/internal/automation"
	"github.com/nerrad567/gray-logic-hub/internal/device"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
	"github.com/nerrad567/gray-logic-hub/internal/syncproto"
)

// DefaultRestartDelay leaves time for the acknowledgement to reach the
// client before the stack is torn down.
const DefaultRestartDelay = 500 * time.Millisecond

// persistTimeout bounds writes to the rule repository.
const persistTimeout = 2 * time.Second

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer receives every outbound push. msgType is the syncproto type
// discriminator of data.
type Observer interface {
	Publish(msgType string, data []byte)
}

// AuditRecorder records lifecycle actions. Implemented by *audit.Recorder.
type AuditRecorder interface {
	Record(action, entityType, entityID, source string, details map[string]any)
}

// Telemetry receives every sampled snapshot.
type Telemetry interface {
	WriteSnapshot(at time.Time, snap device.Snapshot)
}

// Deps holds the collaborators of a Controller.
type Deps struct {
	Store    *settings.Store
	Registry *device.Registry
	Engine   *automation.Engine

	// Optional.
	Rules        automation.Repository
	Audit        AuditRecorder
	Telemetry    Telemetry
	Network      NetworkInfo
	RestartDelay time.Duration
	Logger       Logger

	// RedactSecrets masks passwords in get_config replies.
	RedactSecrets bool
}

// Controller is the single owner of hub state. All methods are safe for
// concurrent use.
type Controller struct {
	mu       sync.Mutex
	store    *settings.Store
	registry *device.Registry
	engine   *automation.Engine
	rules    automation.Repository

	audit     AuditRecorder
	telemetry Telemetry
	network   NetworkInfo
	logger    Logger
	redact    bool

	obsMu     sync.RWMutex
	observers []Observer

	started      time.Time
	now          func() time.Time
	restartDelay time.Duration
	restarts     chan string
	restartOnce  sync.Once
}

// New creates a controller. Store must already be loaded and Registry
// initialised from it.
func New(deps Deps) *Controller {
	c := &Controller{
		store:        deps.Store,
		registry:     deps.Registry,
		engine:       deps.Engine,
		rules:        deps.Rules,
		audit:        deps.Audit,
		telemetry:    deps.Telemetry,
		network:      deps.Network,
		logger:       deps.Logger,
		redact:       deps.RedactSecrets,
		now:          time.Now,
		restartDelay: deps.RestartDelay,
		restarts:     make(chan string, 1),
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	if c.network == nil {
		c.network = HostNetwork{}
	}
	if c.restartDelay <= 0 {
		c.restartDelay = DefaultRestartDelay
	}
	c.started = c.now()
	return c
}

// AddObserver registers o for every push.
func (c *Controller) AddObserver(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

// LoadRules restores the engine from the rule repository.
func (c *Controller) LoadRules(ctx context.Context) error {
	if c.rules == nil {
		return nil
	}
	stored, err := c.rules.List(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	n := c.engine.Restore(stored)
	c.mu.Unlock()

	c.logger.Info("automation rules restored", "count", n)
	return nil
}

// Run samples on the configured interval until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	interval := c.store.Current().SensorInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("sampling started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick(ctx)
			if next := c.store.Current().SensorInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
				c.logger.Info("sampling interval changed", "interval", interval.String())
			}
		}
	}
}

// Tick runs one sample-evaluate-publish cycle.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	c.registry.ReadSensors(ctx)
	c.engine.Evaluate(automationTarget{c.registry})
	snap := c.registry.Snapshot()
	state := c.stateLocked(snap)
	c.mu.Unlock()

	at := c.now()
	if c.telemetry != nil {
		c.telemetry.WriteSnapshot(at, snap)
	}
	c.publish(syncproto.TypeSensorData, syncproto.NewSensorData(at, snap))
	c.publish(syncproto.TypeState, state)
}

// Control drives an actuator and pushes the new state. Unknown or
// disabled ids are ignored. Only hardware failures are returned.
func (c *Controller) Control(id device.ID, on bool, value int, source string) error {
	c.mu.Lock()
	err := c.registry.SetStateWithSource(id, on, value, source)
	state := c.stateLocked(c.registry.Snapshot())
	c.mu.Unlock()

	c.publish(syncproto.TypeState, state)
	return err
}

// PushState publishes the current state to every observer.
func (c *Controller) PushState() {
	c.publish(syncproto.TypeState, c.State())
}

// State returns the current state message.
func (c *Controller) State() syncproto.StateMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(c.registry.Snapshot())
}

// Snapshot returns the registry snapshot.
func (c *Controller) Snapshot() device.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Snapshot()
}

func (c *Controller) stateLocked(snap device.Snapshot) syncproto.StateMessage {
	cfg := c.store.Current()
	net := c.network.Status(cfg)
	return syncproto.NewState(syncproto.Status{
		DeviceName:    cfg.DeviceName,
		WiFiConnected: net.Connected,
		APMode:        net.APMode,
		Uptime:        c.Uptime(),
		IP:            net.IP,
	}, snap)
}

// Uptime returns the time since the controller was created.
func (c *Controller) Uptime() time.Duration {
	return c.now().Sub(c.started)
}

// Config returns the current persisted configuration.
func (c *Controller) Config() settings.Configuration {
	return c.store.Current()
}

// ConfigView returns the flat configuration view.
func (c *Controller) ConfigView(redact bool) settings.FlatConfig {
	return c.store.Current().Flat(redact)
}

// UpdateConfig merges u into the persisted configuration. It does not
// restart; callers decide whether to follow with RequestRestart.
func (c *Controller) UpdateConfig(ctx context.Context, u settings.Update, source string) (settings.Configuration, bool, error) {
	c.mu.Lock()
	cfg, restart, err := c.store.ApplyUpdate(ctx, u)
	c.mu.Unlock()
	if err != nil {
		return cfg, false, err
	}

	c.record(audit.ActionConfigUpdate, audit.EntityConfig, "", source, map[string]any{"restart_required": restart})
	return cfg, restart, nil
}

// AddRule appends a rule and persists it. Persistence failures are logged;
// the rule stays active until the next restart.
func (c *Controller) AddRule(ctx context.Context, r automation.Rule, source string) (int, error) {
	c.mu.Lock()
	n, err := c.engine.AddRule(r)
	var stored automation.Rule
	if err == nil {
		stored = c.engine.Rules()[n-1]
	}
	c.mu.Unlock()
	if err != nil {
		return n, err
	}

	if c.rules != nil {
		pctx, cancel := context.WithTimeout(ctx, persistTimeout)
		if perr := c.rules.Append(pctx, n-1, stored); perr != nil {
			c.logger.Warn("failed to persist rule", "position", n-1, "error", perr)
		}
		cancel()
	}

	c.record(audit.ActionRuleAdded, audit.EntityRule, strconv.Itoa(n-1), source, map[string]any{
		"trigger":   string(r.TriggerDeviceID),
		"condition": string(r.Comparator),
		"value":     r.Threshold,
		"action":    string(r.ActionDeviceID),
	})
	return n, nil
}

// Rules returns a copy of the rule list.
func (c *Controller) Rules() []automation.Rule {
	return c.engine.Rules()
}

// RequestRestart schedules a restart signal after the restart delay. Only
// the first request in a controller's lifetime has effect.
func (c *Controller) RequestRestart(source string) {
	c.restartOnce.Do(func() {
		c.record(audit.ActionRestart, audit.EntityDevice, "", source, nil)
		c.logger.Info("restart scheduled", "source", source, "delay", c.restartDelay.String())
		time.AfterFunc(c.restartDelay, func() {
			c.restarts <- source
		})
	})
}

// RequestReset restores factory settings, clears stored rules and
// schedules a restart. A failed write is returned but the restart still
// happens; the in-memory defaults apply either way.
func (c *Controller) RequestReset(ctx context.Context, source string) error {
	c.mu.Lock()
	_, err := c.store.Reset(ctx)
	c.engine.Restore(nil)
	c.mu.Unlock()

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	if c.rules != nil {
		if cerr := c.rules.Clear(ctx); cerr != nil {
			errs = append(errs, cerr)
		}
	}

	c.record(audit.ActionReset, audit.EntityDevice, "", source, nil)
	c.RequestRestart(source)
	return errors.Join(errs...)
}

// Restarts delivers the source of the restart request.
func (c *Controller) Restarts() <-chan string {
	return c.restarts
}

func (c *Controller) record(action, entityType, entityID, source string, details map[string]any) {
	if c.audit == nil {
		return
	}
	c.audit.Record(action, entityType, entityID, source, details)
}

func (c *Controller) publish(msgType string, msg any) {
	data, err := syncproto.Encode(msg)
	if err != nil {
		c.logger.Error("encoding outbound message", "type", msgType, "error", err)
		return
	}

	c.obsMu.RLock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()

	for _, o := range observers {
		o.Publish(msgType, data)
	}
}

// automationTarget tags rule actions with the automation source.
type automationTarget struct {
	reg *device.Registry
}

func (t automationTarget) SensorValue(id device.ID) (float64, bool) {
	return t.reg.SensorValue(id)
}

func (t automationTarget) SetState(id device.ID, on bool, value int) error {
	return t.reg.SetStateWithSource(id, on, value, device.StateHistorySourceAutomation)
}
