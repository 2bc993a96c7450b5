package settings

import (
	"fmt"
	"math"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

// Update is a partial configuration change. A nil field keeps the current
// value. JSON field names match FlatConfig; unknown names are ignored by
// the decoder.
type Update struct {
	WiFiSSID     *string `json:"wifiSSID,omitempty"`
	WiFiPassword *string `json:"wifiPassword,omitempty"`
	APSSID       *string `json:"apSSID,omitempty"`
	APPassword   *string `json:"apPassword,omitempty"`
	DeviceName   *string `json:"deviceName,omitempty"`
	LoggingURL   *string `json:"loggingURL,omitempty"`
	BoardType    *int    `json:"boardType,omitempty"`

	Relay1Pin *int `json:"relay1Pin,omitempty"`
	Relay2Pin *int `json:"relay2Pin,omitempty"`
	Relay3Pin *int `json:"relay3Pin,omitempty"`
	Relay4Pin *int `json:"relay4Pin,omitempty"`
	LEDPin    *int `json:"ledPin,omitempty"`
	MotorPin  *int `json:"motorPin,omitempty"`
	DHTPin    *int `json:"dhtPin,omitempty"`
	LightPin  *int `json:"lightPin,omitempty"`
	MotionPin *int `json:"motionPin,omitempty"`

	EnableDHT     *bool `json:"enableDHT,omitempty"`
	EnableLight   *bool `json:"enableLight,omitempty"`
	EnableMotion  *bool `json:"enableMotion,omitempty"`
	EnableRelay1  *bool `json:"enableRelay1,omitempty"`
	EnableRelay2  *bool `json:"enableRelay2,omitempty"`
	EnableRelay3  *bool `json:"enableRelay3,omitempty"`
	EnableRelay4  *bool `json:"enableRelay4,omitempty"`
	EnableLED     *bool `json:"enableLED,omitempty"`
	EnableMotor   *bool `json:"enableMotor,omitempty"`
	EnableLogging *bool `json:"enableLogging,omitempty"`

	SensorInterval *int `json:"sensorInterval,omitempty"`
	LogInterval    *int `json:"logInterval,omitempty"`
}

// SetPin sets the pin field for role.
func (u *Update) SetPin(role board.Role, pin int) {
	p := &pin
	switch role {
	case board.RoleRelay1:
		u.Relay1Pin = p
	case board.RoleRelay2:
		u.Relay2Pin = p
	case board.RoleRelay3:
		u.Relay3Pin = p
	case board.RoleRelay4:
		u.Relay4Pin = p
	case board.RoleLED:
		u.LEDPin = p
	case board.RoleMotor:
		u.MotorPin = p
	case board.RoleDHT:
		u.DHTPin = p
	case board.RoleLight:
		u.LightPin = p
	case board.RoleMotion:
		u.MotionPin = p
	}
}

func (u Update) pinFields() []struct {
	role board.Role
	pin  *int
} {
	return []struct {
		role board.Role
		pin  *int
	}{
		{board.RoleRelay1, u.Relay1Pin},
		{board.RoleRelay2, u.Relay2Pin},
		{board.RoleRelay3, u.Relay3Pin},
		{board.RoleRelay4, u.Relay4Pin},
		{board.RoleLED, u.LEDPin},
		{board.RoleMotor, u.MotorPin},
		{board.RoleDHT, u.DHTPin},
		{board.RoleLight, u.LightPin},
		{board.RoleMotion, u.MotionPin},
	}
}

// merge applies u on top of c and validates the result.
//
// A board change resolves that board's default layout first, so explicit
// pin fields in the same update land on top of it.
func merge(c Configuration, u Update) (Configuration, error) {
	next := c

	if err := setString(&next.WiFi.SSID, u.WiFiSSID, ssidWidth, "wifiSSID"); err != nil {
		return c, err
	}
	if err := setString(&next.WiFi.Password, u.WiFiPassword, passwordWidth, "wifiPassword"); err != nil {
		return c, err
	}
	if err := setString(&next.AP.SSID, u.APSSID, ssidWidth, "apSSID"); err != nil {
		return c, err
	}
	if err := setString(&next.AP.Password, u.APPassword, passwordWidth, "apPassword"); err != nil {
		return c, err
	}
	if err := setString(&next.DeviceName, u.DeviceName, nameWidth, "deviceName"); err != nil {
		return c, err
	}
	if err := setString(&next.LoggingEndpoint, u.LoggingURL, endpointWidth, "loggingURL"); err != nil {
		return c, err
	}

	if u.BoardType != nil {
		if *u.BoardType < 0 || *u.BoardType > int(board.Custom) {
			return c, fmt.Errorf("%w: %d", ErrInvalidBoard, *u.BoardType)
		}
		bt := board.Type(*u.BoardType)
		if bt != next.Board {
			next.Board = bt
			next.Profile = board.Resolve(bt)
		}
	}

	rng := board.RangeFor(next.Board)
	for _, f := range u.pinFields() {
		if f.pin == nil {
			continue
		}
		if *f.pin < 0 || *f.pin > math.MaxUint8 || !rng.Contains(board.Pin(*f.pin)) {
			return c, fmt.Errorf("%w: %s=%d (allowed %d..%d on %s)",
				ErrInvalidPin, f.role, *f.pin, rng.Min, rng.Max, next.Board)
		}
		next.Profile = next.Profile.With(f.role, board.Pin(*f.pin))
	}
	if err := next.Profile.Validate(); err != nil {
		return c, err
	}

	setBool(&next.Features.DHT, u.EnableDHT)
	setBool(&next.Features.Light, u.EnableLight)
	setBool(&next.Features.Motion, u.EnableMotion)
	setBool(&next.Features.Relay[0], u.EnableRelay1)
	setBool(&next.Features.Relay[1], u.EnableRelay2)
	setBool(&next.Features.Relay[2], u.EnableRelay3)
	setBool(&next.Features.Relay[3], u.EnableRelay4)
	setBool(&next.Features.LED, u.EnableLED)
	setBool(&next.Features.Motor, u.EnableMotor)
	setBool(&next.Features.Logging, u.EnableLogging)

	if err := setInterval(&next.SensorIntervalSeconds, u.SensorInterval, "sensorInterval"); err != nil {
		return c, err
	}
	if err := setInterval(&next.LogIntervalSeconds, u.LogInterval, "logInterval"); err != nil {
		return c, err
	}

	return next, nil
}

func setString(dst *string, v *string, width int, field string) error {
	if v == nil {
		return nil
	}
	if len(*v) > width {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrFieldTooLong, field, width)
	}
	*dst = *v
	return nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInterval(dst *uint16, v *int, field string) error {
	if v == nil {
		return nil
	}
	if *v < 1 || *v > math.MaxUint16 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidInterval, field, *v)
	}
	*dst = uint16(*v) //nolint:gosec // range checked
	return nil
}

// needsRestart reports whether moving from old to next changes anything
// bound at start-up.
func needsRestart(old, next Configuration) bool {
	return old.Board != next.Board || old.Profile != next.Profile || old.Features != next.Features
}
