package syncproto

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-hub/internal/automation"
	"github.com/nerrad567/gray-logic-hub/internal/device"
)

// Inbound is a decoded client request.
type Inbound interface {
	// MessageType returns the type discriminator.
	MessageType() string
}

// Control sets an actuator. Value is device.NoValue when absent.
type Control struct {
	ID    device.ID
	On    bool
	Value int
}

// MessageType implements Inbound.
func (Control) MessageType() string { return TypeControl }

// GetState requests a state push.
type GetState struct{}

// MessageType implements Inbound.
func (GetState) MessageType() string { return TypeGetState }

// GetConfig requests the flat configuration.
type GetConfig struct{}

// MessageType implements Inbound.
func (GetConfig) MessageType() string { return TypeGetConfig }

// Ping requests a pong.
type Ping struct{}

// MessageType implements Inbound.
func (Ping) MessageType() string { return TypePing }

// AddRule authors an automation rule. The rule is not validated here.
type AddRule struct {
	Rule automation.Rule
}

// MessageType implements Inbound.
func (AddRule) MessageType() string { return TypeAddRule }

type envelope struct {
	Type string `json:"type"`
}

type controlFrame struct {
	ID         string `json:"id"`
	State      bool   `json:"state"`
	Value      *int   `json:"value"`
	Brightness *int   `json:"brightness"`
	Speed      *int   `json:"speed"`
}

type addRuleFrame struct {
	Trigger     string  `json:"trigger"`
	Condition   string  `json:"condition"`
	Value       float64 `json:"value"`
	Action      string  `json:"action"`
	ActionState bool    `json:"actionState"`
	ActionValue *int    `json:"actionValue"`
}

// Decode parses one inbound frame.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	switch env.Type {
	case TypeControl:
		var f controlFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if f.ID == "" {
			return nil, fmt.Errorf("%w: control without id", ErrMalformed)
		}
		return Control{ID: device.ID(f.ID), On: f.State, Value: controlValue(f)}, nil

	case TypeAddRule:
		var f addRuleFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		value := device.NoValue
		if f.ActionValue != nil {
			value = *f.ActionValue
		}
		return AddRule{Rule: automation.Rule{
			TriggerDeviceID: device.ID(f.Trigger),
			Comparator:      automation.Comparator(f.Condition),
			Threshold:       f.Value,
			ActionDeviceID:  device.ID(f.Action),
			ActionOn:        f.ActionState,
			ActionValue:     value,
		}}, nil

	case TypeGetState:
		return GetState{}, nil
	case TypeGetConfig:
		return GetConfig{}, nil
	case TypePing:
		return Ping{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// controlValue picks value, then the legacy brightness and speed aliases.
func controlValue(f controlFrame) int {
	for _, v := range []*int{f.Value, f.Brightness, f.Speed} {
		if v != nil && *v >= 0 {
			return *v
		}
	}
	return device.NoValue
}
