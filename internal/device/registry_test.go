package device

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-hub/internal/board"
	"github.com/nerrad567/gray-logic-hub/internal/hardware"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
)

// mockHistory records calls for assertions.
type mockHistory struct {
	mu      sync.Mutex
	entries []StateHistoryEntry
	err     error
}

func (m *mockHistory) RecordStateChange(_ context.Context, deviceID string, state State, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, StateHistoryEntry{DeviceID: deviceID, State: state, Source: source})
	return nil
}

func (m *mockHistory) GetHistory(context.Context, string, int) ([]StateHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StateHistoryEntry(nil), m.entries...), nil
}

func newTestRegistry(t *testing.T, mutate func(*settings.Configuration)) (*Registry, *hardware.FakePort, settings.Configuration) {
	t.Helper()
	cfg := settings.Defaults()
	if mutate != nil {
		mutate(&cfg)
	}
	port := hardware.NewFakePort()
	reg := NewRegistry(port)
	if err := reg.Initialize(cfg); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return reg, port, cfg
}

func TestInitialize_CanonicalOrder(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	snap := reg.Snapshot()
	var gotActuators []ID
	for _, a := range snap.Actuators {
		gotActuators = append(gotActuators, a.ID)
	}
	var gotSensors []ID
	for _, s := range snap.Sensors {
		gotSensors = append(gotSensors, s.ID)
	}

	wantActuators := []ID{Relay1, Relay2, Relay3, Relay4, LED1, Motor1}
	wantSensors := []ID{Temp1, Hum1, Light1, Motion1}

	if len(gotActuators) != len(wantActuators) {
		t.Fatalf("actuators = %v, want %v", gotActuators, wantActuators)
	}
	for i := range wantActuators {
		if gotActuators[i] != wantActuators[i] {
			t.Errorf("actuator[%d] = %s, want %s", i, gotActuators[i], wantActuators[i])
		}
	}
	if len(gotSensors) != len(wantSensors) {
		t.Fatalf("sensors = %v, want %v", gotSensors, wantSensors)
	}
	for i := range wantSensors {
		if gotSensors[i] != wantSensors[i] {
			t.Errorf("sensor[%d] = %s, want %s", i, gotSensors[i], wantSensors[i])
		}
	}
	if reg.Count() != 10 {
		t.Errorf("Count() = %d, want 10", reg.Count())
	}
}

func TestInitialize_ConfiguresPins(t *testing.T) {
	_, port, cfg := newTestRegistry(t, nil)
	p := cfg.Profile

	tests := []struct {
		name string
		pin  board.Pin
		want hardware.PinMode
	}{
		{"relay1", p.RelayPins[0], hardware.ModeOutput},
		{"relay4", p.RelayPins[3], hardware.ModeOutput},
		{"led", p.LEDPin, hardware.ModePWM},
		{"motor", p.MotorPin, hardware.ModePWM},
		{"dht", p.DHTPin, hardware.ModeInput},
		{"light", p.LightPin, hardware.ModeInput},
		{"motion", p.MotionPin, hardware.ModeInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := port.Mode(tt.pin); got != tt.want {
				t.Errorf("Mode(%d) = %v, want %v", tt.pin, got, tt.want)
			}
		})
	}
}

func TestInitialize_DisabledFeaturesExcluded(t *testing.T) {
	reg, port, cfg := newTestRegistry(t, func(c *settings.Configuration) {
		c.Features.Relay[1] = false
		c.Features.Motor = false
		c.Features.DHT = false
	})

	snap := reg.Snapshot()
	for _, id := range []ID{Relay2, Motor1} {
		if _, ok := snap.Actuator(id); ok {
			t.Errorf("snapshot contains disabled actuator %s", id)
		}
	}
	for _, id := range []ID{Temp1, Hum1} {
		if _, ok := snap.Sensor(id); ok {
			t.Errorf("snapshot contains disabled sensor %s", id)
		}
	}
	if port.Mode(cfg.Profile.RelayPins[1]) != hardware.ModeUnset {
		t.Error("disabled relay pin was configured")
	}

	// Commands to a disabled role are ignored.
	if err := reg.SetState(Relay2, true, NoValue); err != nil {
		t.Errorf("SetState(disabled) error = %v, want nil", err)
	}
	if port.Writes() != 0 {
		t.Errorf("Writes() = %d, want 0", port.Writes())
	}
}

func TestInitialize_ConfigureFailureStillCreatesRecords(t *testing.T) {
	port := hardware.NewFakePort()
	port.ConfigureErr = errors.New("line busy")
	reg := NewRegistry(port)

	err := reg.Initialize(settings.Defaults())
	if err == nil {
		t.Fatal("Initialize() error = nil, want joined configure errors")
	}
	if reg.Count() != 10 {
		t.Errorf("Count() = %d, want 10", reg.Count())
	}
}

func TestInitialize_DefaultLevels(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)
	snap := reg.Snapshot()

	led, _ := snap.Actuator(LED1)
	if led.Level != DefaultLEDLevel || led.On {
		t.Errorf("led = %+v, want off at %d", led, DefaultLEDLevel)
	}
	motor, _ := snap.Actuator(Motor1)
	if motor.Level != DefaultMotorLevel || motor.On {
		t.Errorf("motor = %+v, want off at %d", motor, DefaultMotorLevel)
	}
}

func TestSetState_Relay(t *testing.T) {
	reg, port, cfg := newTestRegistry(t, nil)

	if err := reg.SetState(Relay1, true, NoValue); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if !port.Digital(cfg.Profile.RelayPins[0]) {
		t.Error("relay1 pin not driven high")
	}
	a, _ := reg.Snapshot().Actuator(Relay1)
	if !a.On {
		t.Error("snapshot relay1 on = false, want true")
	}

	if err := reg.SetState(Relay1, false, NoValue); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if port.Digital(cfg.Profile.RelayPins[0]) {
		t.Error("relay1 pin not driven low")
	}
}

func TestSetState_PWM(t *testing.T) {
	tests := []struct {
		name      string
		on        bool
		value     int
		wantLevel int
		wantDuty  uint8
	}{
		{"on with default level", true, NoValue, DefaultLEDLevel, 255},
		{"on at 50", true, 50, 50, 127},
		{"off keeps level", false, 40, 40, 0},
		{"value clamped high", true, 150, 100, 255},
		{"zero level", true, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, port, cfg := newTestRegistry(t, nil)
			if err := reg.SetState(LED1, tt.on, tt.value); err != nil {
				t.Fatalf("SetState() error = %v", err)
			}
			a, _ := reg.Snapshot().Actuator(LED1)
			if a.On != tt.on || a.Level != tt.wantLevel {
				t.Errorf("led = %+v, want on=%v level=%d", a, tt.on, tt.wantLevel)
			}
			if got := port.Duty(cfg.Profile.LEDPin); got != tt.wantDuty {
				t.Errorf("Duty() = %d, want %d", got, tt.wantDuty)
			}
		})
	}
}

func TestSetState_LevelRememberedAcrossOff(t *testing.T) {
	reg, port, cfg := newTestRegistry(t, nil)

	_ = reg.SetState(Motor1, true, 80)
	_ = reg.SetState(Motor1, false, NoValue)
	if port.Duty(cfg.Profile.MotorPin) != 0 {
		t.Error("motor duty not zero when off")
	}
	_ = reg.SetState(Motor1, true, NoValue)

	a, _ := reg.Snapshot().Actuator(Motor1)
	if a.Level != 80 {
		t.Errorf("level = %d, want 80", a.Level)
	}
	if got := port.Duty(cfg.Profile.MotorPin); got != hardware.DutyFromPercent(80) {
		t.Errorf("Duty() = %d, want %d", got, hardware.DutyFromPercent(80))
	}
}

func TestSetState_IgnoredIDs(t *testing.T) {
	reg, port, _ := newTestRegistry(t, nil)
	before := reg.Snapshot()

	for _, id := range []ID{"relay9", "", Temp1, Motion1} {
		if err := reg.SetState(id, true, 10); err != nil {
			t.Errorf("SetState(%q) error = %v, want nil", id, err)
		}
	}

	after := reg.Snapshot()
	if len(before.Actuators) != len(after.Actuators) {
		t.Fatal("snapshot length changed")
	}
	for i := range before.Actuators {
		if before.Actuators[i] != after.Actuators[i] {
			t.Errorf("actuator %s changed: %+v -> %+v", before.Actuators[i].ID, before.Actuators[i], after.Actuators[i])
		}
	}
	if port.Writes() != 0 {
		t.Errorf("Writes() = %d, want 0", port.Writes())
	}
}

func TestSetState_HardwareFailureLeavesState(t *testing.T) {
	reg, port, _ := newTestRegistry(t, nil)
	port.WriteErr = errors.New("bus fault")

	err := reg.SetState(Relay3, true, NoValue)
	if !errors.Is(err, ErrHardware) {
		t.Fatalf("SetState() error = %v, want ErrHardware", err)
	}
	a, _ := reg.Snapshot().Actuator(Relay3)
	if a.On {
		t.Error("relay3 recorded on after failed write")
	}
}

func TestSetState_RecordsHistory(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)
	hist := &mockHistory{}
	reg.SetStateHistory(hist)

	_ = reg.SetStateWithSource(LED1, true, 30, StateHistorySourceAutomation)
	// Same state again is not a change.
	_ = reg.SetStateWithSource(LED1, true, 30, StateHistorySourceAutomation)
	_ = reg.SetState(Relay1, true, NoValue)

	entries, _ := hist.GetHistory(context.Background(), "", 0)
	if len(entries) != 2 {
		t.Fatalf("history entries = %d, want 2", len(entries))
	}
	if entries[0].DeviceID != "led1" || entries[0].Source != StateHistorySourceAutomation {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[0].State.Level == nil || *entries[0].State.Level != 30 {
		t.Errorf("entry[0] level = %v, want 30", entries[0].State.Level)
	}
	if entries[1].State.Level != nil {
		t.Error("relay history entry carries a level")
	}
}

func TestSetState_HistoryFailureIgnored(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)
	reg.SetStateHistory(&mockHistory{err: errors.New("disk full")})

	if err := reg.SetState(Relay1, true, NoValue); err != nil {
		t.Errorf("SetState() error = %v, want nil", err)
	}
}

func TestReadSensors(t *testing.T) {
	reg, port, cfg := newTestRegistry(t, nil)
	p := cfg.Profile

	port.QueueClimate(p.DHTPin, hardware.ClimateSample{Climate: hardware.Climate{Temperature: 21.5, Humidity: 40}})
	port.SetAnalogInput(p.LightPin, hardware.AnalogMax)
	port.SetDigitalInput(p.MotionPin, true)

	reg.ReadSensors(context.Background())

	tests := []struct {
		id   ID
		want float64
		unit string
	}{
		{Temp1, 21.5, "°C"},
		{Hum1, 40, "%"},
		{Light1, 100, "%"},
		{Motion1, 1, ""},
	}
	snap := reg.Snapshot()
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			s, ok := snap.Sensor(tt.id)
			if !ok {
				t.Fatalf("sensor %s missing", tt.id)
			}
			if math.Abs(s.Value-tt.want) > 1e-9 {
				t.Errorf("value = %v, want %v", s.Value, tt.want)
			}
			if s.Unit != tt.unit {
				t.Errorf("unit = %q, want %q", s.Unit, tt.unit)
			}
		})
	}
}

func TestReadSensors_KeepsLastGoodValue(t *testing.T) {
	reg, port, cfg := newTestRegistry(t, nil)
	pin := cfg.Profile.DHTPin

	port.QueueClimate(pin,
		hardware.ClimateSample{Climate: hardware.Climate{Temperature: 20, Humidity: 50}},
		hardware.ClimateSample{Err: hardware.ErrChecksum},
		hardware.ClimateSample{Climate: hardware.Climate{Temperature: math.NaN(), Humidity: 55}},
	)

	reg.ReadSensors(context.Background())
	reg.ReadSensors(context.Background())

	if v, _ := reg.SensorValue(Temp1); v != 20 {
		t.Errorf("temp after failed read = %v, want 20", v)
	}

	reg.ReadSensors(context.Background())
	if v, _ := reg.SensorValue(Temp1); v != 20 {
		t.Errorf("temp after NaN read = %v, want 20", v)
	}
	if v, _ := reg.SensorValue(Hum1); v != 55 {
		t.Errorf("humidity = %v, want 55", v)
	}
}

func TestLightPercent(t *testing.T) {
	tests := []struct {
		raw  int
		want float64
	}{
		{0, 0},
		{-5, 0},
		{hardware.AnalogMax, 100},
		{hardware.AnalogMax * 2, 100},
		{2048, 2048.0 * 100 / 4095},
	}
	for _, tt := range tests {
		if got := lightPercent(tt.raw); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("lightPercent(%d) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSensorValue_Unknown(t *testing.T) {
	reg, _, _ := newTestRegistry(t, func(c *settings.Configuration) { c.Features.Light = false })

	if _, ok := reg.SensorValue(Light1); ok {
		t.Error("SensorValue(disabled) ok = true")
	}
	if _, ok := reg.SensorValue(Relay1); ok {
		t.Error("SensorValue(actuator) ok = true")
	}
	if _, err := reg.Get("nope"); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownDevice", err)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg, port, cfg := newTestRegistry(t, nil)
	port.QueueClimate(cfg.Profile.DHTPin, hardware.ClimateSample{Climate: hardware.Climate{Temperature: 20}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			_ = reg.SetState(LED1, i%2 == 0, i*10)
		}(i)
		go func() {
			defer wg.Done()
			reg.ReadSensors(context.Background())
		}()
		go func() {
			defer wg.Done()
			_ = reg.Snapshot()
		}()
	}
	wg.Wait()
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("motor1"); err != nil || id != Motor1 {
		t.Errorf("ParseID(motor1) = %v, %v", id, err)
	}
	if _, err := ParseID("motor2"); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("ParseID(motor2) error = %v, want ErrUnknownDevice", err)
	}
}
