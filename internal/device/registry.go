package device

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/board"
	"github.com/nerrad567/gray-logic-hub/internal/hardware"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
)

// DefaultReadTimeout bounds one climate sensor transaction.
const DefaultReadTimeout = 2 * time.Second

// historyTimeout bounds one state history insert.
const historyTimeout = 2 * time.Second

// Logger defines the logging interface used by the Registry.
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

// Registry owns the state of every enabled device and drives the pins.
//
// All public methods are thread-safe. Snapshot and Get return copies.
type Registry struct {
	mu      sync.RWMutex
	port    hardware.Port
	records map[ID]*Record
	dhtKind board.DHTKind

	readTimeout time.Duration
	history     StateHistoryRepository
	logger      Logger
}

// NewRegistry creates an empty registry that drives port.
func NewRegistry(port hardware.Port) *Registry {
	return &Registry{
		port:        port,
		records:     make(map[ID]*Record),
		readTimeout: DefaultReadTimeout,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetStateHistory enables recording of actuator changes.
func (r *Registry) SetStateHistory(repo StateHistoryRepository) {
	r.history = repo
}

// SetReadTimeout overrides DefaultReadTimeout.
func (r *Registry) SetReadTimeout(d time.Duration) {
	if d > 0 {
		r.readTimeout = d
	}
}

// Initialize creates a record for every role whose feature flag is set and
// configures its pin. Actuators start off. A pin that fails to configure
// still gets a record; the failures are joined into the returned error.
func (r *Registry) Initialize(cfg settings.Configuration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := cfg.Profile
	f := cfg.Features
	r.records = make(map[ID]*Record)
	r.dhtKind = p.DHTKind

	var errs []error
	add := func(id ID, pin board.Pin, configure func(board.Pin) error) {
		kind := kinds[id]
		rec := &Record{ID: id, Kind: kind, Pin: pin, Enabled: true}
		switch id {
		case LED1:
			rec.Level = DefaultLEDLevel
		case Motor1:
			rec.Level = DefaultMotorLevel
		}
		if configure != nil {
			if err := configure(pin); err != nil {
				errs = append(errs, fmt.Errorf("configuring %s on pin %d: %w", id, pin, err))
			}
		}
		r.records[id] = rec
	}

	relays := [4]ID{Relay1, Relay2, Relay3, Relay4}
	for i, id := range relays {
		if f.Relay[i] {
			add(id, p.RelayPins[i], r.port.ConfigureOutput)
		}
	}
	if f.LED {
		add(LED1, p.LEDPin, r.port.ConfigurePWM)
	}
	if f.Motor {
		add(Motor1, p.MotorPin, r.port.ConfigurePWM)
	}
	if f.DHT {
		// Both climate records share one pin; configure it once.
		add(Temp1, p.DHTPin, r.port.ConfigureInput)
		add(Hum1, p.DHTPin, nil)
	}
	if f.Light {
		add(Light1, p.LightPin, r.port.ConfigureInput)
	}
	if f.Motion {
		add(Motion1, p.MotionPin, r.port.ConfigureInput)
	}

	r.logger.Info("device registry initialised", "count", len(r.records), "board", cfg.Board.String())
	return errors.Join(errs...)
}

// SetState drives an actuator with source "command".
func (r *Registry) SetState(id ID, on bool, value int) error {
	return r.SetStateWithSource(id, on, value, StateHistorySourceCommand)
}

// SetStateWithSource drives an actuator. For LED and motor a value >= 0
// sets the level (clamped to 0..100); a negative value keeps the stored
// level. Unknown, disabled, or sensor ids are ignored and return nil.
//
// The pin is written before the record changes. On a write failure the
// record is left as it was and an error wrapping ErrHardware is returned.
func (r *Registry) SetStateWithSource(id ID, on bool, value int, source string) error {
	r.mu.Lock()

	rec, ok := r.records[id]
	if !ok || !rec.Enabled || !rec.Kind.IsActuator() {
		r.mu.Unlock()
		r.logger.Debug("ignoring state change", "device_id", id, "known", ok)
		return nil
	}

	level := rec.Level
	if rec.Kind.IsPWM() && value >= 0 {
		level = clampPercent(value)
	}

	var err error
	if rec.Kind.IsPWM() {
		var duty uint8
		if on {
			duty = hardware.DutyFromPercent(level)
		}
		err = r.port.WritePWM(rec.Pin, duty)
	} else {
		err = r.port.WriteDigital(rec.Pin, on)
	}
	if err != nil {
		r.mu.Unlock()
		r.logger.Error("actuator write failed", "device_id", id, "pin", rec.Pin, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrHardware, id, err)
	}

	changed := rec.On != on || rec.Level != level
	rec.On = on
	rec.Level = level
	state := State{On: on}
	if rec.Kind.IsPWM() {
		state.Level = &level
	}
	r.mu.Unlock()

	if changed {
		r.logger.Debug("actuator updated", "device_id", id, "on", on, "level", level, "source", source)
		r.recordHistory(id, state, source)
	}
	return nil
}

func (r *Registry) recordHistory(id ID, state State, source string) {
	if r.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := r.history.RecordStateChange(ctx, string(id), state, source); err != nil {
		r.logger.Warn("failed to record state history", "device_id", id, "error", err)
	}
}

// ReadSensors samples every enabled sensor and updates its last value.
// A failed or NaN reading keeps the previous value.
func (r *Registry) ReadSensors(ctx context.Context) {
	r.mu.RLock()
	temp, hasClimate := r.records[Temp1]
	var climatePin, lightPin, motionPin board.Pin
	if hasClimate {
		climatePin = temp.Pin
	}
	light, hasLight := r.records[Light1]
	if hasLight {
		lightPin = light.Pin
	}
	motion, hasMotion := r.records[Motion1]
	if hasMotion {
		motionPin = motion.Pin
	}
	kind := r.dhtKind
	r.mu.RUnlock()

	// Hardware reads happen without the lock; DHT transactions are slow.
	var (
		climate   hardware.Climate
		climateOK bool
		lightVal  float64
		lightOK   bool
		motionVal float64
		motionOK  bool
	)

	if hasClimate {
		readCtx, cancel := context.WithTimeout(ctx, r.readTimeout)
		c, err := r.port.ReadClimate(readCtx, climatePin, kind)
		cancel()
		if err != nil {
			r.logger.Warn("climate read failed", "pin", climatePin, "error", err)
		} else {
			climate, climateOK = c, true
		}
	}

	if hasLight {
		raw, err := r.port.ReadAnalog(lightPin)
		if err != nil {
			r.logger.Warn("light read failed", "pin", lightPin, "error", err)
		} else {
			lightVal, lightOK = lightPercent(raw), true
		}
	}

	if hasMotion {
		high, err := r.port.ReadDigital(motionPin)
		if err != nil {
			r.logger.Warn("motion read failed", "pin", motionPin, "error", err)
		} else {
			motionOK = true
			if high {
				motionVal = 1
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if climateOK {
		r.storeReading(Temp1, climate.Temperature)
		r.storeReading(Hum1, climate.Humidity)
	}
	if lightOK {
		r.storeReading(Light1, lightVal)
	}
	if motionOK {
		r.storeReading(Motion1, motionVal)
	}
}

// storeReading must be called with mu held.
func (r *Registry) storeReading(id ID, v float64) {
	rec, ok := r.records[id]
	if !ok {
		return
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.logger.Debug("discarding invalid reading", "device_id", id)
		return
	}
	rec.LastValue = v
}

// Snapshot returns every enabled device in canonical order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var snap Snapshot
	for _, id := range order {
		rec, ok := r.records[id]
		if !ok || !rec.Enabled {
			continue
		}
		if rec.Kind.IsActuator() {
			snap.Actuators = append(snap.Actuators, ActuatorView{
				ID:    rec.ID,
				Kind:  rec.Kind,
				Pin:   rec.Pin,
				On:    rec.On,
				Level: rec.Level,
			})
			continue
		}
		snap.Sensors = append(snap.Sensors, SensorView{
			ID:    rec.ID,
			Kind:  rec.Kind,
			Pin:   rec.Pin,
			Value: rec.LastValue,
			Unit:  rec.Kind.Unit(),
		})
	}
	return snap
}

// SensorValue returns the last value of an enabled sensor.
func (r *Registry) SensorValue(id ID) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok || !rec.Enabled || rec.Kind.IsActuator() {
		return 0, false
	}
	return rec.LastValue, true
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id ID) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownDevice, id)
	}
	return *rec, nil
}

// Count returns the number of enabled devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// lightPercent rescales a raw ADC value onto 0..100.
func lightPercent(raw int) float64 {
	switch {
	case raw < 0:
		raw = 0
	case raw > hardware.AnalogMax:
		raw = hardware.AnalogMax
	}
	return float64(raw) * 100 / hardware.AnalogMax
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
