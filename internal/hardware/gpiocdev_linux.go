//go:build linux

package hardware

import (
	"context"
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

// GPIOCDevPort drives pins through the Linux GPIO character device.
//
// The character device has no PWM or ADC, so WritePWM switches the line
// fully on for any non-zero duty and ReadAnalog reports ErrUnsupported.
type GPIOCDevPort struct {
	chip  *gpiocdev.Chip
	lines map[board.Pin]*gpiocdev.Line
}

// NewGPIOCDevPort opens the named chip, e.g. "gpiochip0".
func NewGPIOCDevPort(chipName string) (*GPIOCDevPort, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	return &GPIOCDevPort{chip: chip, lines: make(map[board.Pin]*gpiocdev.Line)}, nil
}

// ConfigureOutput implements Port.
func (p *GPIOCDevPort) ConfigureOutput(pin board.Pin) error {
	if line, ok := p.lines[pin]; ok {
		return line.Reconfigure(gpiocdev.AsOutput(0))
	}
	line, err := p.chip.RequestLine(int(pin), gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request output pin %d: %w", pin, err)
	}
	p.lines[pin] = line
	return nil
}

// ConfigurePWM implements Port.
func (p *GPIOCDevPort) ConfigurePWM(pin board.Pin) error {
	return p.ConfigureOutput(pin)
}

// ConfigureInput implements Port. Inputs get a pull-down so an
// unconnected sensor reads inactive.
func (p *GPIOCDevPort) ConfigureInput(pin board.Pin) error {
	if line, ok := p.lines[pin]; ok {
		return line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown)
	}
	line, err := p.chip.RequestLine(int(pin), gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		return fmt.Errorf("request input pin %d: %w", pin, err)
	}
	p.lines[pin] = line
	return nil
}

func (p *GPIOCDevPort) line(pin board.Pin) (*gpiocdev.Line, error) {
	line, ok := p.lines[pin]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	return line, nil
}

// WriteDigital implements Port.
func (p *GPIOCDevPort) WriteDigital(pin board.Pin, high bool) error {
	line, err := p.line(pin)
	if err != nil {
		return err
	}
	v := 0
	if high {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// WritePWM implements Port as on/off.
func (p *GPIOCDevPort) WritePWM(pin board.Pin, duty uint8) error {
	return p.WriteDigital(pin, duty > 0)
}

// ReadDigital implements Port.
func (p *GPIOCDevPort) ReadDigital(pin board.Pin) (bool, error) {
	line, err := p.line(pin)
	if err != nil {
		return false, err
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v == 1, nil
}

// ReadAnalog implements Port.
func (p *GPIOCDevPort) ReadAnalog(board.Pin) (int, error) {
	return 0, ErrUnsupported
}

// ReadClimate implements Port. Bit-banging a DHT through ioctl round
// trips is too slow to meet its timing.
func (p *GPIOCDevPort) ReadClimate(context.Context, board.Pin, board.DHTKind) (Climate, error) {
	return Climate{}, ErrUnsupported
}

// Close releases all lines and the chip.
func (p *GPIOCDevPort) Close() error {
	var errs []error
	for pin, line := range p.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	p.lines = map[board.Pin]*gpiocdev.Line{}
	if err := p.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	return errors.Join(errs...)
}
