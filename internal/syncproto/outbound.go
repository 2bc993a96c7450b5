package syncproto

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/device"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
)

// Message type discriminators.
const (
	TypeState        = "state"
	TypeSensorData   = "sensor_data"
	TypeConfig       = "config"
	TypeRuleAdded    = "rule_added"
	TypeRuleRejected = "rule_rejected"
	TypePong         = "pong"
	TypeAck          = "ack"

	TypeControl   = "control"
	TypeGetState  = "get_state"
	TypeGetConfig = "get_config"
	TypeAddRule   = "add_rule"
	TypePing      = "ping"
)

// Status is the connectivity part of a state message.
type Status struct {
	DeviceName    string
	WiFiConnected bool
	APMode        bool
	Uptime        time.Duration
	IP            string
}

// StateMessage is the full snapshot pushed on every tick and control event.
type StateMessage struct {
	Type          string        `json:"type"`
	DeviceName    string        `json:"deviceName"`
	WiFiConnected bool          `json:"wifiConnected"`
	APMode        bool          `json:"apMode"`
	Uptime        int64         `json:"uptime"` // seconds
	IP            string        `json:"ip"`
	Sensors       SensorValues  `json:"sensors"`
	Devices       []DeviceState `json:"devices"`
}

// SensorValues carries the raw sensor readings. Disabled sensors read 0.
type SensorValues struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Light       float64 `json:"light"`
	Motion      bool    `json:"motion"`
}

// DeviceState is one actuator in a state message.
type DeviceState struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	State      bool   `json:"state"`
	Brightness *int   `json:"brightness,omitempty"`
	Speed      *int   `json:"speed,omitempty"`
	Pin        int    `json:"pin"`
}

// NewState builds a state message from a registry snapshot.
func NewState(status Status, snap device.Snapshot) StateMessage {
	msg := StateMessage{
		Type:          TypeState,
		DeviceName:    status.DeviceName,
		WiFiConnected: status.WiFiConnected,
		APMode:        status.APMode,
		Uptime:        int64(status.Uptime / time.Second),
		IP:            status.IP,
		Devices:       make([]DeviceState, 0, len(snap.Actuators)),
	}

	for _, s := range snap.Sensors {
		switch s.Kind {
		case device.KindTemperature:
			msg.Sensors.Temperature = s.Value
		case device.KindHumidity:
			msg.Sensors.Humidity = s.Value
		case device.KindLight:
			msg.Sensors.Light = s.Value
		case device.KindMotion:
			msg.Sensors.Motion = s.Value != 0
		}
	}

	for _, a := range snap.Actuators {
		d := DeviceState{
			ID:    string(a.ID),
			Type:  string(a.Kind),
			State: a.On,
			Pin:   int(a.Pin),
		}
		level := a.Level
		switch a.Kind {
		case device.KindLED:
			d.Brightness = &level
		case device.KindMotor:
			d.Speed = &level
		}
		msg.Devices = append(msg.Devices, d)
	}
	return msg
}

// SensorDataMessage is pushed once per sampling tick.
type SensorDataMessage struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
	Sensors   []SensorReading `json:"sensors"`
}

// SensorReading is one enabled sensor in a sensor_data message.
type SensorReading struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// NewSensorData builds a sensor_data message for the enabled sensors.
func NewSensorData(at time.Time, snap device.Snapshot) SensorDataMessage {
	msg := SensorDataMessage{
		Type:      TypeSensorData,
		Timestamp: at.UnixMilli(),
		Sensors:   make([]SensorReading, 0, len(snap.Sensors)),
	}
	for _, s := range snap.Sensors {
		msg.Sensors = append(msg.Sensors, SensorReading{
			ID:    string(s.ID),
			Type:  string(s.Kind),
			Value: s.Value,
			Unit:  s.Unit,
		})
	}
	return msg
}

// ConfigMessage answers get_config.
type ConfigMessage struct {
	Type   string              `json:"type"`
	Config settings.FlatConfig `json:"config"`
}

// NewConfig wraps a flat configuration view.
func NewConfig(flat settings.FlatConfig) ConfigMessage {
	return ConfigMessage{Type: TypeConfig, Config: flat}
}

// RuleAddedMessage confirms add_rule.
type RuleAddedMessage struct {
	Type      string `json:"type"`
	RuleCount int    `json:"ruleCount"`
}

// NewRuleAdded returns a rule_added reply.
func NewRuleAdded(count int) RuleAddedMessage {
	return RuleAddedMessage{Type: TypeRuleAdded, RuleCount: count}
}

// RuleRejectedMessage reports why add_rule failed.
type RuleRejectedMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// NewRuleRejected returns a rule_rejected reply.
func NewRuleRejected(reason string) RuleRejectedMessage {
	return RuleRejectedMessage{Type: TypeRuleRejected, Reason: reason}
}

// PongMessage answers ping.
type PongMessage struct {
	Type string `json:"type"`
}

// NewPong returns a pong reply.
func NewPong() PongMessage { return PongMessage{Type: TypePong} }

// AckMessage acknowledges a lifecycle action before it happens.
type AckMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

// NewAck returns an ack for action.
func NewAck(action string) AckMessage { return AckMessage{Type: TypeAck, Action: action} }

// Encode serialises an outbound message.
func Encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}
