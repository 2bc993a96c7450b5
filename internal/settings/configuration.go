package settings

import (
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

// Record header values. Bump SchemaVersion whenever the encoded layout
// changes; older records then reset to defaults.
const (
	SchemaMagic   uint16 = 0x4748 // "GH"
	SchemaVersion uint8  = 1
)

// Factory defaults.
const (
	DefaultAPSSID         = "ESP32_IoT_Hub"
	DefaultAPPassword     = "iot12345"
	DefaultDeviceName     = "ESP32-IoT-Hub"
	DefaultSensorInterval = 2
	DefaultLogInterval    = 60
)

// Credentials is an SSID and passphrase pair.
type Credentials struct {
	SSID     string
	Password string
}

// Features gates which device roles are instantiated at start-up.
type Features struct {
	DHT     bool
	Light   bool
	Motion  bool
	Relay   [4]bool
	LED     bool
	Motor   bool
	Logging bool
}

// Configuration is the complete persisted device record.
//
// It is a comparable value type: two configurations are equal when every
// field is equal.
type Configuration struct {
	Magic   uint16
	Version uint8

	Board           board.Type
	WiFi            Credentials
	AP              Credentials
	DeviceName      string
	LoggingEndpoint string
	Profile         board.Profile
	Features        Features

	SensorIntervalSeconds uint16
	LogIntervalSeconds    uint16
}

// Defaults returns the factory configuration.
func Defaults() Configuration {
	return Configuration{
		Magic:      SchemaMagic,
		Version:    SchemaVersion,
		Board:      board.DevKit,
		AP:         Credentials{SSID: DefaultAPSSID, Password: DefaultAPPassword},
		DeviceName: DefaultDeviceName,
		Profile:    board.Resolve(board.DevKit),
		Features: Features{
			DHT:    true,
			Light:  true,
			Motion: true,
			Relay:  [4]bool{true, true, true, true},
			LED:    true,
			Motor:  true,
		},
		SensorIntervalSeconds: DefaultSensorInterval,
		LogIntervalSeconds:    DefaultLogInterval,
	}
}

// SensorInterval returns the sampling period.
func (c Configuration) SensorInterval() time.Duration {
	return time.Duration(c.SensorIntervalSeconds) * time.Second
}

// LogInterval returns the remote logging period.
func (c Configuration) LogInterval() time.Duration {
	return time.Duration(c.LogIntervalSeconds) * time.Second
}

// LoggingActive reports whether remote logging should run.
func (c Configuration) LoggingActive() bool {
	return c.Features.Logging && c.LoggingEndpoint != ""
}

// HasWiFi reports whether station credentials are configured.
func (c Configuration) HasWiFi() bool {
	return c.WiFi.SSID != ""
}
