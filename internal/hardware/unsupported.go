//go:build !linux

package hardware

// NewGPIOCDevPort is only available on Linux.
func NewGPIOCDevPort(string) (Port, error) {
	return nil, ErrUnsupported
}

// NewRPIOPort is only available on Linux.
func NewRPIOPort() (Port, error) {
	return nil, ErrUnsupported
}
