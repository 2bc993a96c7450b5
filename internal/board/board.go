package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Pin is a GPIO line number.
type Pin uint8

// Type identifies a supported board.
type Type uint8

// Supported board types. The numeric values are persisted and typed by
// users at the configuration shell, so they must not change.
const (
	DevKit Type = 0
	S2Mini Type = 1
	Custom Type = 2
)

// String returns the board's display name.
func (t Type) String() string {
	switch t {
	case DevKit:
		return "ESP32 DevKit"
	case S2Mini:
		return "ESP32-S2 Mini"
	case Custom:
		return "Custom"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	return t <= Custom
}

// Parse accepts a numeric id ("0".."2") or a name ("devkit", "s2mini", "custom").
func Parse(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "devkit", "esp32":
		return DevKit, nil
	case "s2mini", "s2", "esp32-s2":
		return S2Mini, nil
	case "custom":
		return Custom, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > int(Custom) {
		return DevKit, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return Type(n), nil
}

// DHTKind selects the climate sensor protocol variant.
type DHTKind uint8

// Climate sensor variants.
const (
	DHT11 DHTKind = 11
	DHT22 DHTKind = 22
)

// String returns "DHT11" or "DHT22".
func (k DHTKind) String() string {
	return "DHT" + strconv.Itoa(int(k))
}

// Profile is the physical pin layout for every device role.
type Profile struct {
	RelayPins [4]Pin  `json:"relayPins"`
	LEDPin    Pin     `json:"ledPin"`
	MotorPin  Pin     `json:"motorPin"`
	DHTPin    Pin     `json:"dhtPin"`
	DHTKind   DHTKind `json:"dhtKind"`
	LightPin  Pin     `json:"lightPin"`
	MotionPin Pin     `json:"motionPin"`
}

var devKit = Profile{
	RelayPins: [4]Pin{26, 27, 14, 12},
	LEDPin:    25,
	MotorPin:  33,
	DHTPin:    32,
	DHTKind:   DHT22,
	LightPin:  34,
	MotionPin: 35,
}

var s2Mini = Profile{
	RelayPins: [4]Pin{16, 17, 18, 21},
	LEDPin:    15,
	MotorPin:  33,
	DHTPin:    35,
	DHTKind:   DHT22,
	LightPin:  3,
	MotionPin: 37,
}

// Resolve returns the default layout for t.
func Resolve(t Type) Profile {
	switch t {
	case S2Mini:
		return s2Mini
	case DevKit, Custom:
		return devKit
	default:
		return devKit
	}
}

// Pins returns every pin in role order: relay1..4, LED, motor, DHT,
// light, motion.
func (p Profile) Pins() []Pin {
	return []Pin{
		p.RelayPins[0], p.RelayPins[1], p.RelayPins[2], p.RelayPins[3],
		p.LEDPin, p.MotorPin, p.DHTPin, p.LightPin, p.MotionPin,
	}
}

// Validate rejects a profile in which two roles share a pin.
func (p Profile) Validate() error {
	seen := make(map[Pin]Role, len(roles))
	for _, r := range roles {
		pin := p.Get(r)
		if other, dup := seen[pin]; dup {
			return fmt.Errorf("%w: %d used by %s and %s", ErrDuplicatePin, pin, other, r)
		}
		seen[pin] = r
	}
	return nil
}

// Range is the addressable GPIO window of a board.
type Range struct {
	Min, Max Pin
}

// RangeFor returns the pin window for t. Custom boards get the widest
// window of the ESP32 family.
func RangeFor(t Type) Range {
	switch t {
	case S2Mini:
		return Range{Min: 0, Max: 46}
	case Custom:
		return Range{Min: 0, Max: 48}
	default:
		return Range{Min: 0, Max: 39}
	}
}

// Contains reports whether p lies inside the window.
func (r Range) Contains(p Pin) bool {
	return p >= r.Min && p <= r.Max
}
