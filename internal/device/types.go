package device

import (
	"fmt"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

// ID is the stable identifier of a device role.
type ID string

// Device identifiers.
const (
	Relay1  ID = "relay1"
	Relay2  ID = "relay2"
	Relay3  ID = "relay3"
	Relay4  ID = "relay4"
	LED1    ID = "led1"
	Motor1  ID = "motor1"
	Temp1   ID = "temp1"
	Hum1    ID = "hum1"
	Light1  ID = "light1"
	Motion1 ID = "motion1"
)

// NoValue marks an absent PWM level in SetState.
const NoValue = -1

// Default PWM levels before any command sets one.
const (
	DefaultLEDLevel   = 100
	DefaultMotorLevel = 50
)

// Kind classifies a device.
type Kind string

// Device kinds.
const (
	KindRelay       Kind = "relay"
	KindLED         Kind = "led"
	KindMotor       Kind = "motor"
	KindTemperature Kind = "temperature"
	KindHumidity    Kind = "humidity"
	KindLight       Kind = "light"
	KindMotion      Kind = "motion"
)

// IsActuator reports whether the kind accepts SetState.
func (k Kind) IsActuator() bool {
	return k == KindRelay || k == KindLED || k == KindMotor
}

// IsPWM reports whether the kind has a 0..100 level.
func (k Kind) IsPWM() bool {
	return k == KindLED || k == KindMotor
}

// Unit is the display unit for a sensor kind.
func (k Kind) Unit() string {
	switch k {
	case KindTemperature:
		return "°C"
	case KindHumidity, KindLight:
		return "%"
	default:
		return ""
	}
}

// order is the canonical order: relays, LED, motor, then sensors.
var order = []ID{Relay1, Relay2, Relay3, Relay4, LED1, Motor1, Temp1, Hum1, Light1, Motion1}

var kinds = map[ID]Kind{
	Relay1: KindRelay, Relay2: KindRelay, Relay3: KindRelay, Relay4: KindRelay,
	LED1: KindLED, Motor1: KindMotor,
	Temp1: KindTemperature, Hum1: KindHumidity, Light1: KindLight, Motion1: KindMotion,
}

// All returns every known id in canonical order.
func All() []ID {
	out := make([]ID, len(order))
	copy(out, order)
	return out
}

// KindOf returns the kind of a known id.
func KindOf(id ID) (Kind, bool) {
	k, ok := kinds[id]
	return k, ok
}

// ParseID validates s as a known id.
func ParseID(s string) (ID, error) {
	id := ID(s)
	if _, ok := kinds[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDevice, s)
	}
	return id, nil
}

// Record is the state of one device.
type Record struct {
	ID      ID        `json:"id"`
	Kind    Kind      `json:"type"`
	Pin     board.Pin `json:"pin"`
	Enabled bool      `json:"enabled"`

	// On and Level apply to actuators. Level is kept across off/on.
	On    bool `json:"on"`
	Level int  `json:"level"`

	// LastValue applies to sensors. Motion is 1 or 0.
	LastValue float64 `json:"lastValue"`
}

// ActuatorView is the snapshot form of an actuator.
type ActuatorView struct {
	ID    ID
	Kind  Kind
	Pin   board.Pin
	On    bool
	Level int // meaningful for PWM kinds only
}

// SensorView is the snapshot form of a sensor.
type SensorView struct {
	ID    ID
	Kind  Kind
	Pin   board.Pin
	Value float64
	Unit  string
}

// Snapshot is a read-only view of every enabled device.
type Snapshot struct {
	Actuators []ActuatorView
	Sensors   []SensorView
}

// Sensor returns the view for id.
func (s Snapshot) Sensor(id ID) (SensorView, bool) {
	for _, v := range s.Sensors {
		if v.ID == id {
			return v, true
		}
	}
	return SensorView{}, false
}

// Actuator returns the view for id.
func (s Snapshot) Actuator(id ID) (ActuatorView, bool) {
	for _, v := range s.Actuators {
		if v.ID == id {
			return v, true
		}
	}
	return ActuatorView{}, false
}
