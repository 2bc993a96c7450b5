package settings

// redactedValue replaces a secret in redacted views.
const redactedValue = "********"

// FlatConfig is the flat JSON view served by GET /config and get_config.
// Its field names match Update so a client can post back what it read.
type FlatConfig struct {
	WiFiSSID     string `json:"wifiSSID"`
	WiFiPassword string `json:"wifiPassword"`
	APSSID       string `json:"apSSID"`
	APPassword   string `json:"apPassword"`
	DeviceName   string `json:"deviceName"`
	LoggingURL   string `json:"loggingURL"`
	BoardType    int    `json:"boardType"`
	BoardName    string `json:"boardName"`

	Relay1Pin int    `json:"relay1Pin"`
	Relay2Pin int    `json:"relay2Pin"`
	Relay3Pin int    `json:"relay3Pin"`
	Relay4Pin int    `json:"relay4Pin"`
	LEDPin    int    `json:"ledPin"`
	MotorPin  int    `json:"motorPin"`
	DHTPin    int    `json:"dhtPin"`
	DHTType   string `json:"dhtType"`
	LightPin  int    `json:"lightPin"`
	MotionPin int    `json:"motionPin"`

	EnableDHT     bool `json:"enableDHT"`
	EnableLight   bool `json:"enableLight"`
	EnableMotion  bool `json:"enableMotion"`
	EnableRelay1  bool `json:"enableRelay1"`
	EnableRelay2  bool `json:"enableRelay2"`
	EnableRelay3  bool `json:"enableRelay3"`
	EnableRelay4  bool `json:"enableRelay4"`
	EnableLED     bool `json:"enableLED"`
	EnableMotor   bool `json:"enableMotor"`
	EnableLogging bool `json:"enableLogging"`

	SensorInterval int `json:"sensorInterval"`
	LogInterval    int `json:"logInterval"`
}

// Flat returns the flat view. Passwords are returned verbatim unless
// redact is set.
func (c Configuration) Flat(redact bool) FlatConfig {
	p := c.Profile
	f := FlatConfig{
		WiFiSSID:     c.WiFi.SSID,
		WiFiPassword: c.WiFi.Password,
		APSSID:       c.AP.SSID,
		APPassword:   c.AP.Password,
		DeviceName:   c.DeviceName,
		LoggingURL:   c.LoggingEndpoint,
		BoardType:    int(c.Board),
		BoardName:    c.Board.String(),

		Relay1Pin: int(p.RelayPins[0]),
		Relay2Pin: int(p.RelayPins[1]),
		Relay3Pin: int(p.RelayPins[2]),
		Relay4Pin: int(p.RelayPins[3]),
		LEDPin:    int(p.LEDPin),
		MotorPin:  int(p.MotorPin),
		DHTPin:    int(p.DHTPin),
		DHTType:   p.DHTKind.String(),
		LightPin:  int(p.LightPin),
		MotionPin: int(p.MotionPin),

		EnableDHT:     c.Features.DHT,
		EnableLight:   c.Features.Light,
		EnableMotion:  c.Features.Motion,
		EnableRelay1:  c.Features.Relay[0],
		EnableRelay2:  c.Features.Relay[1],
		EnableRelay3:  c.Features.Relay[2],
		EnableRelay4:  c.Features.Relay[3],
		EnableLED:     c.Features.LED,
		EnableMotor:   c.Features.Motor,
		EnableLogging: c.Features.Logging,

		SensorInterval: int(c.SensorIntervalSeconds),
		LogInterval:    int(c.LogIntervalSeconds),
	}

	if redact {
		if f.WiFiPassword != "" {
			f.WiFiPassword = redactedValue
		}
		if f.APPassword != "" {
			f.APPassword = redactedValue
		}
	}
	return f
}
