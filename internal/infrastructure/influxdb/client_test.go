package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/board"
	"github.com/nerrad567/gray-logic-hub/internal/device"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/influxdb"
)

// fakeInflux answers /ping and records line protocol posted to /api/v2/write.
type fakeInflux struct {
	mu     sync.Mutex
	lines  []string
	reject bool
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/ping"):
		w.WriteHeader(http.StatusNoContent)
	case strings.HasSuffix(r.URL.Path, "/api/v2/write"):
		if f.reject {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lines = append(f.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeInflux) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "graylogic",
		Bucket:        "hub",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	client, err := influxdb.Connect(cfg, "site-a")
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() returned client when disabled")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := influxdb.Connect(testConfig("http://127.0.0.1:1"), "site-a")
	if !errors.Is(err, influxdb.ErrUnreachable) {
		t.Errorf("Connect() error = %v, want ErrUnreachable", err)
	}
}

func testSnapshot() device.Snapshot {
	return device.Snapshot{
		Sensors: []device.SensorView{
			{ID: device.Temp1, Kind: device.KindTemperature, Pin: board.Pin(4), Value: 21.5, Unit: "C"},
		},
		Actuators: []device.ActuatorView{
			{ID: device.Relay1, Kind: device.KindRelay, Pin: board.Pin(16), On: true},
			{ID: device.LED1, Kind: device.KindLED, Pin: board.Pin(2), On: true, Level: 40},
		},
	}
}

func TestWriteSnapshot(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := influxdb.Connect(testConfig(srv.URL), "site-a")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client.WriteSnapshot(time.Unix(1_700_000_000, 0), testSnapshot())
	client.Flush()

	lines := fake.written()
	if len(lines) != 3 {
		t.Fatalf("written lines = %v, want 3", lines)
	}
	if !strings.HasPrefix(lines[0], "sensor_readings,device_id=temp1,site=site-a,type=temperature value=21.5") {
		t.Errorf("sensor line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "actuator_state,device_id=relay1,site=site-a,type=relay on=true") || strings.Contains(lines[1], "level=") {
		t.Errorf("relay line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "type=led") || !strings.Contains(lines[2], "level=40i") {
		t.Errorf("led line = %q", lines[2])
	}
}

func TestWriteSnapshot_FailuresCounted(t *testing.T) {
	fake := &fakeInflux{reject: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := influxdb.Connect(testConfig(srv.URL), "")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	got := make(chan error, 4)
	client.SetOnError(func(err error) { got <- err })

	client.WriteSnapshot(time.Now(), testSnapshot())
	client.Flush()

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("error callback not called")
	}
	if client.Failures() < 1 {
		t.Errorf("Failures() = %d, want >= 1", client.Failures())
	}
}

func TestClose(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := influxdb.Connect(testConfig(srv.URL), "site-a")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrClosed) {
		t.Errorf("HealthCheck() error = %v, want ErrClosed", err)
	}
	client.WriteSnapshot(time.Now(), testSnapshot())
	client.Flush()
	if n := len(fake.written()); n != 0 {
		t.Errorf("%d lines written after Close", n)
	}
}

func TestNilClient(t *testing.T) {
	var client *influxdb.Client
	client.WriteSnapshot(time.Now(), testSnapshot())
	client.Flush()
	if client.Failures() != 0 {
		t.Error("nil client reports failures")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
