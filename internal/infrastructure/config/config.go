package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root process configuration for the hub.
//
// It covers how the process runs (storage, hardware backend, network
// surfaces). The device-level settings that the hub persists itself
// (pins, feature flags, credentials) live in the settings package.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	Settings  SettingsConfig  `yaml:"settings"`
	Hardware  HardwareConfig  `yaml:"hardware"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	RemoteLog RemoteLogConfig `yaml:"remote_log"`
	MDNS      MDNSConfig      `yaml:"mdns"`
	Console   ConsoleConfig   `yaml:"console"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig identifies the installation.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
	// HistoryRetentionDays prunes older state history rows once a day.
	// Zero keeps everything.
	HistoryRetentionDays int `yaml:"history_retention_days"`
}

// SettingsConfig selects where the persisted device record is kept.
type SettingsConfig struct {
	// Backend is one of "sqlite", "file" or "memory".
	Backend string `yaml:"backend"`
	// Path is used by the file backend.
	Path string `yaml:"path"`
}

// HardwareConfig selects the GPIO backend.
type HardwareConfig struct {
	// Backend is one of "fake", "gpiocdev" or "rpio".
	Backend string `yaml:"backend"`
	// Chip is the gpiochip device name for the gpiocdev backend.
	Chip string `yaml:"chip"`
	// ReadTimeout bounds a single climate sensor read (milliseconds).
	ReadTimeout int `yaml:"read_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
	// PanelDir serves the dashboard from disk instead of the embedded copy.
	PanelDir string `yaml:"panel_dir"`
	// RedactSecrets masks passwords in GET /config and get_config replies.
	// Off by default: panels written against the device expect them.
	RedactSecrets bool `yaml:"redact_secrets"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// RemoteLogConfig tunes the periodic HTTP log upload.
type RemoteLogConfig struct {
	// Timeout caps one upload, in seconds.
	Timeout int `yaml:"timeout"`
}

// MDNSConfig controls the <name>.local announcement.
type MDNSConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ConsoleConfig controls the line-based configuration shell on stdin.
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load builds the config from defaults, then the YAML file at path (if
// any), then a .env file in the working directory, then GRAYLOGIC_HUB_*
// environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	godotenv.Load() //nolint:errcheck // deployed devices have no .env
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig is what a hub runs with when the file is silent.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "hub-001",
			Name: "Gray Logic Hub",
		},
		Database: DatabaseConfig{
			Path:        "./data/hub.db",
			WALMode:     true,
			BusyTimeout: 5,

			HistoryRetentionDays: 30,
		},
		Settings: SettingsConfig{
			Backend: "sqlite",
			Path:    "./data/settings.bin",
		},
		Hardware: HardwareConfig{
			Backend:     "fake",
			Chip:        "gpiochip0",
			ReadTimeout: 250,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-hub",
			},
			QoS:         1,
			TopicPrefix: "graylogic/hub",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "hub",
			BatchSize:     100,
			FlushInterval: 10,
		},
		RemoteLog: RemoteLogConfig{
			Timeout: 5,
		},
		MDNS: MDNSConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// envPrefix namespaces every override, e.g. GRAYLOGIC_HUB_API_PORT.
const envPrefix = "GRAYLOGIC_HUB_"

// envOverrides maps variable suffixes onto config fields. Values that do
// not parse are ignored.
var envOverrides = map[string]func(*Config, string){
	"DATABASE_PATH":    func(c *Config, v string) { c.Database.Path = v },
	"SETTINGS_BACKEND": func(c *Config, v string) { c.Settings.Backend = v },
	"SETTINGS_PATH":    func(c *Config, v string) { c.Settings.Path = v },
	"HARDWARE_BACKEND": func(c *Config, v string) { c.Hardware.Backend = v },
	"HARDWARE_CHIP":    func(c *Config, v string) { c.Hardware.Chip = v },
	"MQTT_HOST":        func(c *Config, v string) { c.MQTT.Broker.Host = v },
	"MQTT_USERNAME":    func(c *Config, v string) { c.MQTT.Auth.Username = v },
	"MQTT_PASSWORD":    func(c *Config, v string) { c.MQTT.Auth.Password = v },
	"API_HOST":         func(c *Config, v string) { c.API.Host = v },
	"API_PORT": func(c *Config, v string) {
		if port, err := strconv.Atoi(v); err == nil {
			c.API.Port = port
		}
	},
	"INFLUXDB_TOKEN": func(c *Config, v string) { c.InfluxDB.Token = v },
}

func applyEnvOverrides(cfg *Config) {
	for key, set := range envOverrides {
		if v := os.Getenv(envPrefix + key); v != "" {
			set(cfg, v)
		}
	}
}

// Validate reports every problem in one error so an operator can fix the
// file in a single pass.
func (c *Config) Validate() error {
	var problems []string
	check := func(bad bool, format string, args ...any) {
		if bad {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Site.ID == "", "site.id is required")

	switch c.Settings.Backend {
	case "sqlite":
		check(c.Database.Path == "", "database.path is required by the sqlite settings backend")
	case "file":
		check(c.Settings.Path == "", "settings.path is required by the file settings backend")
	case "memory":
	default:
		check(true, "settings.backend %q is not one of sqlite, file, memory", c.Settings.Backend)
	}

	switch c.Hardware.Backend {
	case "fake", "gpiocdev", "rpio":
	default:
		check(true, "hardware.backend %q is not one of fake, gpiocdev, rpio", c.Hardware.Backend)
	}

	check(c.MQTT.QoS < 0 || c.MQTT.QoS > 2, "mqtt.qos %d is outside 0..2", c.MQTT.QoS)
	check(c.API.Port < 1 || c.API.Port > 65535, "api.port %d is outside 1..65535", c.API.Port)
	check(c.InfluxDB.Enabled && c.InfluxDB.URL == "", "influxdb.url is required when influxdb is enabled")
	check(c.RemoteLog.Timeout < 1, "remote_log.timeout must be at least 1 second")
	check(c.Database.HistoryRetentionDays < 0, "database.history_retention_days must not be negative")

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetRemoteLogTimeout returns the remote log upload timeout as a Duration.
func (c *Config) GetRemoteLogTimeout() time.Duration {
	return time.Duration(c.RemoteLog.Timeout) * time.Second
}

// GetHardwareReadTimeout returns the climate sensor read bound as a Duration.
func (c *Config) GetHardwareReadTimeout() time.Duration {
	return time.Duration(c.Hardware.ReadTimeout) * time.Millisecond
}

// GetHistoryRetention returns the state history retention window. Zero
// disables pruning.
func (c *Config) GetHistoryRetention() time.Duration {
	return time.Duration(c.Database.HistoryRetentionDays) * 24 * time.Hour
}
