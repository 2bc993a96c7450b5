// Package hardware is the GPIO port the device registry drives.
//
// Three implementations satisfy Port:
//
//	FakePort      scripted inputs, recorded outputs; tests and desktop runs
//	gpiocdev      Linux GPIO character device (go-gpiocdev); digital I/O,
//	              PWM degraded to on/off, no analog, no climate sensor
//	rpio          Raspberry Pi register access (go-rpio); digital I/O,
//	              hardware PWM and a bit-banged DHT reader
//
// The hardware backends are linux-only; on other platforms Open returns
// ErrUnsupported for them and only the fake is available.
//
// Ports are not safe for concurrent use. The controller serialises every
// call behind its own lock.
package hardware
