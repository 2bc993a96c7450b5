package hardware

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

// Signal ranges.
const (
	// AnalogMax is the full-scale raw value of ReadAnalog (12-bit ADC).
	AnalogMax = 4095

	// PWMMax is the full-scale duty value of WritePWM.
	PWMMax = 255
)

// Climate is one temperature/humidity sample.
type Climate struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
}

// Port is the set of pin primitives the hub needs.
type Port interface {
	// ConfigureOutput prepares pin as a digital output driven low.
	ConfigureOutput(pin board.Pin) error

	// ConfigurePWM prepares pin for WritePWM with duty 0.
	ConfigurePWM(pin board.Pin) error

	// ConfigureInput prepares pin as a digital or analog input.
	ConfigureInput(pin board.Pin) error

	// WriteDigital drives an output pin.
	WriteDigital(pin board.Pin, high bool) error

	// WritePWM sets duty in 0..PWMMax.
	WritePWM(pin board.Pin, duty uint8) error

	// ReadDigital samples an input pin.
	ReadDigital(pin board.Pin) (bool, error)

	// ReadAnalog returns a raw value in 0..AnalogMax.
	ReadAnalog(pin board.Pin) (int, error)

	// ReadClimate performs one DHT transaction on pin. It honours ctx.
	ReadClimate(ctx context.Context, pin board.Pin, kind board.DHTKind) (Climate, error)

	// Close releases every line held by the port.
	Close() error
}

// Open returns the port for a backend name from the process config:
// "fake", "gpiocdev" or "rpio". chip names the gpiochip device for the
// gpiocdev backend.
func Open(backend, chip string) (Port, error) {
	switch backend {
	case "fake", "":
		return NewFakePort(), nil
	case "gpiocdev":
		port, err := NewGPIOCDevPort(chip)
		if err != nil {
			return nil, err
		}
		return port, nil
	case "rpio":
		port, err := NewRPIOPort()
		if err != nil {
			return nil, err
		}
		return port, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// DutyFromPercent maps 0..100 onto 0..PWMMax, clamping out-of-range input.
func DutyFromPercent(percent int) uint8 {
	switch {
	case percent <= 0:
		return 0
	case percent >= 100:
		return PWMMax
	default:
		return uint8(percent * PWMMax / 100) //nolint:gosec // bounded above
	}
}
