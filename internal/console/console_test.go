package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/automation"
	"github.com/nerrad567/gray-logic-hub/internal/board"
	"github.com/nerrad567/gray-logic-hub/internal/controller"
	"github.com/nerrad567/gray-logic-hub/internal/device"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
	"github.com/nerrad567/gray-logic-hub/internal/syncproto"
)

type controlCall struct {
	id     device.ID
	on     bool
	value  int
	source string
}

type mockController struct {
	cfg       settings.Configuration
	updates   []settings.Update
	updateErr error
	restart   bool
	controls  []controlCall
	restarts  int
	resets    int
	rules     []automation.Rule
}

func (m *mockController) Config() settings.Configuration { return m.cfg }

func (m *mockController) State() syncproto.StateMessage {
	level := 40
	return syncproto.StateMessage{
		DeviceName: "hub",
		APMode:     true,
		Uptime:     12,
		Sensors:    syncproto.SensorValues{Temperature: 21.5, Humidity: 40},
		Devices: []syncproto.DeviceState{
			{ID: "relay1", Type: "relay", State: true, Pin: 16},
			{ID: "led1", Type: "led", State: true, Brightness: &level, Pin: 2},
		},
	}
}

func (m *mockController) UpdateConfig(_ context.Context, u settings.Update, source string) (settings.Configuration, bool, error) {
	if source != controller.SourceConsole {
		return m.cfg, false, errors.New("wrong source " + source)
	}
	if m.updateErr != nil {
		return m.cfg, false, m.updateErr
	}
	m.updates = append(m.updates, u)
	return m.cfg, m.restart, nil
}

func (m *mockController) Control(id device.ID, on bool, value int, source string) error {
	m.controls = append(m.controls, controlCall{id, on, value, source})
	return nil
}

func (m *mockController) Rules() []automation.Rule { return m.rules }

func (m *mockController) RequestRestart(string) { m.restarts++ }

func (m *mockController) RequestReset(context.Context, string) error {
	m.resets++
	return nil
}

func newConsole() (*Console, *mockController, *bytes.Buffer) {
	ctrl := &mockController{cfg: settings.Defaults()}
	var out bytes.Buffer
	return New(ctrl, &out), ctrl, &out
}

func TestExec_Credentials(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantSSID string
		wantPass string
		ap       bool
	}{
		{"wifi with password", "wifi HomeNet s3cret", "HomeNet", "s3cret", false},
		{"wifi open network", "wifi Cafe", "Cafe", "", false},
		{"ap", "ap HubSetup pass1234", "HubSetup", "pass1234", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ctrl, out := newConsole()
			c.Exec(context.Background(), tt.line)
			if len(ctrl.updates) != 1 {
				t.Fatalf("updates = %d, output %q", len(ctrl.updates), out.String())
			}
			u := ctrl.updates[0]
			ssid, pass := u.WiFiSSID, u.WiFiPassword
			if tt.ap {
				ssid, pass = u.APSSID, u.APPassword
			}
			if ssid == nil || *ssid != tt.wantSSID || pass == nil || *pass != tt.wantPass {
				t.Errorf("update = %+v", u)
			}
			if !strings.Contains(out.String(), "saved") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestExec_NameBoardPin(t *testing.T) {
	c, ctrl, out := newConsole()
	ctrl.restart = true

	c.Exec(context.Background(), "name Kitchen Hub")
	c.Exec(context.Background(), "board s2mini")
	c.Exec(context.Background(), "pin relay2 18")

	if len(ctrl.updates) != 3 {
		t.Fatalf("updates = %d", len(ctrl.updates))
	}
	if got := *ctrl.updates[0].DeviceName; got != "Kitchen Hub" {
		t.Errorf("name = %q", got)
	}
	if got := *ctrl.updates[1].BoardType; got != int(board.S2Mini) {
		t.Errorf("board = %d", got)
	}
	if got := ctrl.updates[2].Relay2Pin; got == nil || *got != 18 {
		t.Errorf("relay2Pin = %v", got)
	}
	if !strings.Contains(out.String(), "restart to apply") {
		t.Errorf("output = %q", out.String())
	}
}

func TestExec_Errors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"frobnicate", "unknown command"},
		{"wifi", "usage: wifi"},
		{"board 9", "error:"},
		{"pin heater 4", "error:"},
		{"pin relay1 x", "usage: pin"},
		{"relay1 maybe", "usage: relay1"},
		{"led 150", "usage: led"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c, ctrl, out := newConsole()
			c.Exec(context.Background(), tt.line)
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
			if len(ctrl.updates) != 0 || len(ctrl.controls) != 0 {
				t.Error("failed command changed state")
			}
		})
	}

	c, ctrl, out := newConsole()
	ctrl.updateErr = settings.ErrFieldTooLong
	c.Exec(context.Background(), "name x")
	if !strings.Contains(out.String(), "too long") {
		t.Errorf("output = %q", out.String())
	}
}

func TestExec_Actuators(t *testing.T) {
	tests := []struct {
		line string
		want controlCall
	}{
		{"relay1 on", controlCall{device.Relay1, true, device.NoValue, controller.SourceConsole}},
		{"RELAY4 off", controlCall{device.Relay4, false, device.NoValue, controller.SourceConsole}},
		{"led 75", controlCall{device.LED1, true, 75, controller.SourceConsole}},
		{"led 0", controlCall{device.LED1, false, 0, controller.SourceConsole}},
		{"led off", controlCall{device.LED1, false, device.NoValue, controller.SourceConsole}},
		{"motor on", controlCall{device.Motor1, true, device.NoValue, controller.SourceConsole}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c, ctrl, _ := newConsole()
			c.Exec(context.Background(), tt.line)
			if len(ctrl.controls) != 1 || ctrl.controls[0] != tt.want {
				t.Errorf("controls = %+v, want %+v", ctrl.controls, tt.want)
			}
		})
	}
}

func TestExec_Views(t *testing.T) {
	c, ctrl, out := newConsole()
	ctrl.rules = []automation.Rule{{TriggerDeviceID: device.Temp1, Comparator: automation.Greater, Threshold: 28, ActionDeviceID: device.Motor1, ActionOn: true, ActionValue: 80}}

	c.Exec(context.Background(), "status")
	c.Exec(context.Background(), "rules")
	c.Exec(context.Background(), "config")
	c.Exec(context.Background(), "help")

	got := out.String()
	for _, want := range []string{
		"access point",
		"temperature 21.5",
		"led1    pin 2  on 40%",
		"if temp1 > 28 then motor1 on 80%",
		"pin relay1",
		"restart the hub",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, settings.Defaults().AP.Password) && settings.Defaults().AP.Password != "" {
		t.Error("config printed a password")
	}
}

func TestExec_Lifecycle(t *testing.T) {
	c, ctrl, _ := newConsole()
	c.Exec(context.Background(), "restart")
	c.Exec(context.Background(), "reset")
	if ctrl.restarts != 1 || ctrl.resets != 1 {
		t.Errorf("restarts = %d resets = %d", ctrl.restarts, ctrl.resets)
	}
}

func TestRun_ReadsUntilEOF(t *testing.T) {
	c, ctrl, _ := newConsole()
	in := strings.NewReader("relay1 on\n\n  relay2 on  \n")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Run(ctx, in); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ctrl.controls) != 2 {
		t.Errorf("controls = %d, want 2", len(ctrl.controls))
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	c, _, _ := newConsole()
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, r) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
