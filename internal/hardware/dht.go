package hardware

import (
	"fmt"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

// dhtBits is the number of data bits in one DHT transaction.
const dhtBits = 40

// frameFromPulses rebuilds the five data bytes from measured pulse
// lengths. Each bit is a low pulse of fixed length followed by a high
// pulse that is short for 0 and long for 1, so the mean low length is a
// good threshold. Units are whatever the caller counted in.
func frameFromPulses(lows, highs []int64) ([5]byte, error) {
	var frame [5]byte
	if len(lows) != dhtBits || len(highs) != dhtBits {
		return frame, fmt.Errorf("%w: captured %d/%d pulses", ErrNoResponse, len(lows), len(highs))
	}

	var threshold int64
	for _, l := range lows {
		threshold += l
	}
	threshold /= dhtBits

	for i, h := range highs {
		frame[i/8] <<= 1
		if h > threshold {
			frame[i/8] |= 1
		}
	}
	return frame, nil
}

// decodeFrame converts a checked DHT frame into a Climate sample.
func decodeFrame(frame [5]byte, kind board.DHTKind) (Climate, error) {
	var sum byte
	for _, b := range frame[:4] {
		sum += b
	}
	if sum != frame[4] {
		return Climate{}, ErrChecksum
	}

	var c Climate
	switch kind {
	case board.DHT11:
		c.Humidity = float64(frame[0]) + float64(frame[1])/10
		c.Temperature = float64(frame[2]&0x7F) + float64(frame[3])/10
	default:
		c.Humidity = float64(uint16(frame[0])<<8|uint16(frame[1])) / 10
		c.Temperature = float64(uint16(frame[2]&0x7F)<<8|uint16(frame[3])) / 10
	}
	if frame[2]&0x80 != 0 {
		c.Temperature = -c.Temperature
	}
	return c, nil
}
