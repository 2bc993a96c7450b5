package syncproto

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/automation"
	"github.com/nerrad567/gray-logic-hub/internal/device"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
)

func sampleSnapshot() device.Snapshot {
	return device.Snapshot{
		Actuators: []device.ActuatorView{
			{ID: device.Relay1, Kind: device.KindRelay, Pin: 26, On: true},
			{ID: device.LED1, Kind: device.KindLED, Pin: 25, On: false, Level: 70},
			{ID: device.Motor1, Kind: device.KindMotor, Pin: 33, On: true, Level: 50},
		},
		Sensors: []device.SensorView{
			{ID: device.Temp1, Kind: device.KindTemperature, Pin: 32, Value: 22.5, Unit: "°C"},
			{ID: device.Light1, Kind: device.KindLight, Pin: 34, Value: 40, Unit: "%"},
			{ID: device.Motion1, Kind: device.KindMotion, Pin: 35, Value: 1, Unit: ""},
		},
	}
}

func TestNewState(t *testing.T) {
	msg := NewState(Status{
		DeviceName:    "hub",
		WiFiConnected: true,
		Uptime:        90*time.Second + 500*time.Millisecond,
		IP:            "192.168.1.20",
	}, sampleSnapshot())

	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got["type"] != "state" || got["deviceName"] != "hub" || got["ip"] != "192.168.1.20" {
		t.Errorf("header fields = %v", got)
	}
	if got["uptime"] != float64(90) {
		t.Errorf("uptime = %v, want 90", got["uptime"])
	}
	sensors := got["sensors"].(map[string]any)
	if sensors["temperature"] != 22.5 || sensors["motion"] != true || sensors["humidity"] != float64(0) {
		t.Errorf("sensors = %v", sensors)
	}

	devices := got["devices"].([]any)
	if len(devices) != 3 {
		t.Fatalf("devices = %d, want 3", len(devices))
	}
	relay := devices[0].(map[string]any)
	if relay["id"] != "relay1" || relay["state"] != true || relay["pin"] != float64(26) {
		t.Errorf("relay = %v", relay)
	}
	if _, ok := relay["brightness"]; ok {
		t.Error("relay carries brightness")
	}
	led := devices[1].(map[string]any)
	if led["brightness"] != float64(70) {
		t.Errorf("led brightness = %v, want 70", led["brightness"])
	}
	motor := devices[2].(map[string]any)
	if motor["speed"] != float64(50) {
		t.Errorf("motor speed = %v, want 50", motor["speed"])
	}
}

func TestNewSensorData(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	msg := NewSensorData(at, sampleSnapshot())

	if msg.Type != TypeSensorData || msg.Timestamp != 1_700_000_000_123 {
		t.Errorf("header = %+v", msg)
	}
	if len(msg.Sensors) != 3 {
		t.Fatalf("sensors = %d, want 3", len(msg.Sensors))
	}
	want := []SensorReading{
		{ID: "temp1", Type: "temperature", Value: 22.5, Unit: "°C"},
		{ID: "light1", Type: "light", Value: 40, Unit: "%"},
		{ID: "motion1", Type: "motion", Value: 1, Unit: ""},
	}
	for i := range want {
		if msg.Sensors[i] != want[i] {
			t.Errorf("sensor[%d] = %+v, want %+v", i, msg.Sensors[i], want[i])
		}
	}
}

func TestReplies(t *testing.T) {
	tests := []struct {
		name string
		msg  any
		want string
	}{
		{"rule added", NewRuleAdded(3), `{"type":"rule_added","ruleCount":3}`},
		{"rule rejected", NewRuleRejected("full"), `{"type":"rule_rejected","reason":"full"}`},
		{"pong", NewPong(), `{"type":"pong"}`},
		{"ack", NewAck("restart"), `{"type":"ack","action":"restart"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Encode() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	msg := NewConfig(settings.Defaults().Flat(false))
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(data), `"type":"config"`) || !strings.Contains(string(data), `"deviceName":"ESP32-IoT-Hub"`) {
		t.Errorf("Encode() = %s", data)
	}
}

func TestDecode_Control(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Control
	}{
		{"no value", `{"type":"control","id":"relay1","state":true}`, Control{ID: device.Relay1, On: true, Value: device.NoValue}},
		{"value", `{"type":"control","id":"led1","state":true,"value":40}`, Control{ID: device.LED1, On: true, Value: 40}},
		{"brightness alias", `{"type":"control","id":"led1","state":true,"brightness":60}`, Control{ID: device.LED1, On: true, Value: 60}},
		{"speed alias", `{"type":"control","id":"motor1","state":false,"speed":20}`, Control{ID: device.Motor1, On: false, Value: 20}},
		{"negative value is absent", `{"type":"control","id":"led1","state":true,"value":-1}`, Control{ID: device.LED1, On: true, Value: device.NoValue}},
		{"missing state is off", `{"type":"control","id":"relay2"}`, Control{ID: device.Relay2, Value: device.NoValue}},
		{"unknown id passes through", `{"type":"control","id":"ledX","state":true}`, Control{ID: "ledX", On: true, Value: device.NoValue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			c, ok := got.(Control)
			if !ok {
				t.Fatalf("Decode() = %T, want Control", got)
			}
			if c != tt.want {
				t.Errorf("Decode() = %+v, want %+v", c, tt.want)
			}
		})
	}
}

func TestDecode_AddRule(t *testing.T) {
	got, err := Decode([]byte(`{"type":"add_rule","trigger":"temp1","condition":">","value":30.5,"action":"relay1","actionState":true}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ar, ok := got.(AddRule)
	if !ok {
		t.Fatalf("Decode() = %T, want AddRule", got)
	}
	want := automation.Rule{
		TriggerDeviceID: device.Temp1,
		Comparator:      automation.Greater,
		Threshold:       30.5,
		ActionDeviceID:  device.Relay1,
		ActionOn:        true,
		ActionValue:     device.NoValue,
	}
	if ar.Rule != want {
		t.Errorf("rule = %+v, want %+v", ar.Rule, want)
	}

	got, err = Decode([]byte(`{"type":"add_rule","trigger":"light1","condition":"<","value":10,"action":"led1","actionState":true,"actionValue":80}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v := got.(AddRule).Rule.ActionValue; v != 80 {
		t.Errorf("ActionValue = %d, want 80", v)
	}
}

func TestDecode_Simple(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"type":"get_state"}`, TypeGetState},
		{`{"type":"get_config"}`, TypeGetConfig},
		{`{"type":"ping"}`, TypePing},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.MessageType() != tt.want {
				t.Errorf("MessageType() = %q, want %q", got.MessageType(), tt.want)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"not json", `{type: control`, ErrMalformed},
		{"empty", ``, ErrMalformed},
		{"array", `[1,2,3]`, ErrMalformed},
		{"null", `null`, ErrMalformed},
		{"missing type", `{"id":"relay1"}`, ErrMalformed},
		{"numeric type", `{"type":5}`, ErrMalformed},
		{"control without id", `{"type":"control","state":true}`, ErrMalformed},
		{"control bad state", `{"type":"control","id":"relay1","state":"yes"}`, ErrMalformed},
		{"rule bad value", `{"type":"add_rule","value":"high"}`, ErrMalformed},
		{"unknown type", `{"type":"reboot"}`, ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}
