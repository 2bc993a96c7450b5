package board

import (
	"fmt"
	"strings"
)

// Role names one pin slot of a Profile.
type Role string

// Pin roles, in the order Profile.Pins reports them.
const (
	RoleRelay1 Role = "relay1"
	RoleRelay2 Role = "relay2"
	RoleRelay3 Role = "relay3"
	RoleRelay4 Role = "relay4"
	RoleLED    Role = "led"
	RoleMotor  Role = "motor"
	RoleDHT    Role = "dht"
	RoleLight  Role = "light"
	RoleMotion Role = "motion"
)

var roles = []Role{
	RoleRelay1, RoleRelay2, RoleRelay3, RoleRelay4,
	RoleLED, RoleMotor, RoleDHT, RoleLight, RoleMotion,
}

// Roles returns every role in profile order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// ParseRole accepts a role name as typed at the shell.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Get returns the pin assigned to r.
func (p Profile) Get(r Role) Pin {
	switch r {
	case RoleRelay1:
		return p.RelayPins[0]
	case RoleRelay2:
		return p.RelayPins[1]
	case RoleRelay3:
		return p.RelayPins[2]
	case RoleRelay4:
		return p.RelayPins[3]
	case RoleLED:
		return p.LEDPin
	case RoleMotor:
		return p.MotorPin
	case RoleDHT:
		return p.DHTPin
	case RoleLight:
		return p.LightPin
	case RoleMotion:
		return p.MotionPin
	}
	return 0
}

// With returns a copy of p with r moved to pin.
func (p Profile) With(r Role, pin Pin) Profile {
	switch r {
	case RoleRelay1:
		p.RelayPins[0] = pin
	case RoleRelay2:
		p.RelayPins[1] = pin
	case RoleRelay3:
		p.RelayPins[2] = pin
	case RoleRelay4:
		p.RelayPins[3] = pin
	case RoleLED:
		p.LEDPin = pin
	case RoleMotor:
		p.MotorPin = pin
	case RoleDHT:
		p.DHTPin = pin
	case RoleLight:
		p.LightPin = pin
	case RoleMotion:
		p.MotionPin = pin
	}
	return p
}
