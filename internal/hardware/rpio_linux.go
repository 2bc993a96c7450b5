//go:build linux

package hardware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/stianeikeland/go-rpio"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

const (
	// pwmFrequency is the PWM clock; with a 255-step cycle this gives
	// roughly 5 kHz.
	pwmFrequency = 255 * 5000

	dhtAttempts = 3

	// dhtSpinLimit bounds each pulse measurement loop.
	dhtSpinLimit = 20000
)

// RPIOPort drives pins through /dev/gpiomem register access on a
// Raspberry Pi. It has no ADC, so ReadAnalog reports ErrUnsupported.
type RPIOPort struct {
	configured map[board.Pin]bool
}

// NewRPIOPort maps the GPIO registers.
func NewRPIOPort() (*RPIOPort, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open rpio: %w", err)
	}
	return &RPIOPort{configured: make(map[board.Pin]bool)}, nil
}

// ConfigureOutput implements Port.
func (p *RPIOPort) ConfigureOutput(pin board.Pin) error {
	rp := rpio.Pin(pin)
	rp.Output()
	rp.Low()
	p.configured[pin] = true
	return nil
}

// ConfigurePWM implements Port. Only the Pi's PWM-capable pins
// (12, 13, 18, 19) produce a waveform.
func (p *RPIOPort) ConfigurePWM(pin board.Pin) error {
	rp := rpio.Pin(pin)
	rp.Mode(rpio.Pwm)
	rp.Freq(pwmFrequency)
	rp.DutyCycle(0, PWMMax)
	p.configured[pin] = true
	return nil
}

// ConfigureInput implements Port.
func (p *RPIOPort) ConfigureInput(pin board.Pin) error {
	rp := rpio.Pin(pin)
	rp.Input()
	rp.PullDown()
	p.configured[pin] = true
	return nil
}

func (p *RPIOPort) check(pin board.Pin) error {
	if !p.configured[pin] {
		return fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	return nil
}

// WriteDigital implements Port.
func (p *RPIOPort) WriteDigital(pin board.Pin, high bool) error {
	if err := p.check(pin); err != nil {
		return err
	}
	if high {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
	return nil
}

// WritePWM implements Port.
func (p *RPIOPort) WritePWM(pin board.Pin, duty uint8) error {
	if err := p.check(pin); err != nil {
		return err
	}
	rpio.Pin(pin).DutyCycle(uint32(duty), PWMMax)
	return nil
}

// ReadDigital implements Port.
func (p *RPIOPort) ReadDigital(pin board.Pin) (bool, error) {
	if err := p.check(pin); err != nil {
		return false, err
	}
	return rpio.Pin(pin).Read() == rpio.High, nil
}

// ReadAnalog implements Port.
func (p *RPIOPort) ReadAnalog(board.Pin) (int, error) {
	return 0, ErrUnsupported
}

// ReadClimate bit-bangs one DHT transaction, retrying on checksum
// failures. GC is paused during capture so a collection cannot stretch a
// pulse.
func (p *RPIOPort) ReadClimate(ctx context.Context, pin board.Pin, kind board.DHTKind) (Climate, error) {
	if err := p.check(pin); err != nil {
		return Climate{}, err
	}

	var lastErr error
	for attempt := 0; attempt < dhtAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Climate{}, err
		}

		prev := debug.SetGCPercent(-1)
		lows, highs, err := captureDHT(rpio.Pin(pin))
		debug.SetGCPercent(prev)

		if err == nil {
			var frame [5]byte
			if frame, err = frameFromPulses(lows, highs); err == nil {
				var c Climate
				if c, err = decodeFrame(frame, kind); err == nil {
					return c, nil
				}
			}
		}
		lastErr = err

		// The sensor needs a rest between transactions.
		select {
		case <-ctx.Done():
			return Climate{}, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return Climate{}, lastErr
}

// captureDHT sends the start signal and counts loop iterations for each
// low and high pulse of the 40 data bits.
func captureDHT(pin rpio.Pin) (lows, highs []int64, err error) {
	lows = make([]int64, 0, dhtBits)
	highs = make([]int64, 0, dhtBits)

	pin.Output()
	pin.Low()
	time.Sleep(20 * time.Millisecond)
	pin.High()
	pin.Input()
	pin.PullUp()
	defer pin.PullOff()

	// Response preamble: low ~80us, high ~80us.
	for _, level := range []rpio.State{rpio.High, rpio.Low, rpio.High} {
		if spin(pin, level) >= dhtSpinLimit {
			return nil, nil, ErrNoResponse
		}
	}

	for i := 0; i < dhtBits; i++ {
		low := spin(pin, rpio.Low)
		high := spin(pin, rpio.High)
		if low >= dhtSpinLimit || high >= dhtSpinLimit {
			return lows, highs, fmt.Errorf("%w: bit %d", ErrNoResponse, i)
		}
		lows = append(lows, low)
		highs = append(highs, high)
	}
	return lows, highs, nil
}

// spin counts iterations while pin stays at level.
func spin(pin rpio.Pin, level rpio.State) int64 {
	var n int64
	for pin.Read() == level && n < dhtSpinLimit {
		n++
	}
	return n
}

// Close unmaps the registers.
func (p *RPIOPort) Close() error {
	return rpio.Close()
}
