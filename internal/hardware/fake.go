package hardware

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

// PinMode records how a FakePort pin was configured.
type PinMode int

// Fake pin modes.
const (
	ModeUnset PinMode = iota
	ModeOutput
	ModePWM
	ModeInput
)

// FakePort is a test double. Inputs are scripted per pin; outputs are
// recorded so tests can assert what was driven.
type FakePort struct {
	mu sync.Mutex

	modes   map[board.Pin]PinMode
	digital map[board.Pin]bool
	duty    map[board.Pin]uint8
	writes  int

	inputs  map[board.Pin]bool
	analog  map[board.Pin]int
	climate map[board.Pin][]ClimateSample

	// WriteErr, if set, is returned by every write.
	WriteErr error

	// ConfigureErr, if set, is returned by every Configure call.
	ConfigureErr error

	// Closed tracks if Close was called.
	Closed bool
}

// ClimateSample is one scripted ReadClimate result.
type ClimateSample struct {
	Climate Climate
	Err     error
}

// NewFakePort returns an empty fake. Unscripted inputs read low / zero.
func NewFakePort() *FakePort {
	return &FakePort{
		modes:   make(map[board.Pin]PinMode),
		digital: make(map[board.Pin]bool),
		duty:    make(map[board.Pin]uint8),
		inputs:  make(map[board.Pin]bool),
		analog:  make(map[board.Pin]int),
		climate: make(map[board.Pin][]ClimateSample),
	}
}

// SetDigitalInput scripts the value ReadDigital returns for pin.
func (f *FakePort) SetDigitalInput(pin board.Pin, high bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs[pin] = high
}

// SetAnalogInput scripts the value ReadAnalog returns for pin.
func (f *FakePort) SetAnalogInput(pin board.Pin, raw int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analog[pin] = raw
}

// QueueClimate appends samples for pin. Each ReadClimate consumes one; the
// last is repeated once the queue is down to it.
func (f *FakePort) QueueClimate(pin board.Pin, samples ...ClimateSample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.climate[pin] = append(f.climate[pin], samples...)
}

// Mode returns how pin was configured.
func (f *FakePort) Mode(pin board.Pin) PinMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modes[pin]
}

// Digital returns the last level written to pin.
func (f *FakePort) Digital(pin board.Pin) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.digital[pin]
}

// Duty returns the last duty written to pin.
func (f *FakePort) Duty(pin board.Pin) uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duty[pin]
}

// Writes returns how many writes succeeded.
func (f *FakePort) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FakePort) configure(pin board.Pin, mode PinMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConfigureErr != nil {
		return f.ConfigureErr
	}
	f.modes[pin] = mode
	return nil
}

// ConfigureOutput implements Port.
func (f *FakePort) ConfigureOutput(pin board.Pin) error { return f.configure(pin, ModeOutput) }

// ConfigurePWM implements Port.
func (f *FakePort) ConfigurePWM(pin board.Pin) error { return f.configure(pin, ModePWM) }

// ConfigureInput implements Port.
func (f *FakePort) ConfigureInput(pin board.Pin) error { return f.configure(pin, ModeInput) }

// WriteDigital implements Port.
func (f *FakePort) WriteDigital(pin board.Pin, high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	if f.modes[pin] != ModeOutput {
		return fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	f.digital[pin] = high
	f.writes++
	return nil
}

// WritePWM implements Port.
func (f *FakePort) WritePWM(pin board.Pin, duty uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	if f.modes[pin] != ModePWM {
		return fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	f.duty[pin] = duty
	f.writes++
	return nil
}

// ReadDigital implements Port.
func (f *FakePort) ReadDigital(pin board.Pin) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modes[pin] != ModeInput {
		return false, fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	return f.inputs[pin], nil
}

// ReadAnalog implements Port.
func (f *FakePort) ReadAnalog(pin board.Pin) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modes[pin] != ModeInput {
		return 0, fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	return f.analog[pin], nil
}

// ReadClimate implements Port.
func (f *FakePort) ReadClimate(ctx context.Context, pin board.Pin, _ board.DHTKind) (Climate, error) {
	if err := ctx.Err(); err != nil {
		return Climate{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.modes[pin] != ModeInput {
		return Climate{}, fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	queue := f.climate[pin]
	if len(queue) == 0 {
		return Climate{}, errors.New("hardware: no climate samples scripted")
	}

	sample := queue[0]
	if len(queue) > 1 {
		f.climate[pin] = queue[1:]
	}
	return sample.Climate, sample.Err
}

// Close marks the port closed.
func (f *FakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
