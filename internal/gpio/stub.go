//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealInputs is not available on non-Linux platforms.
type RealInputs struct{}

// NewRealInputs returns an error on non-Linux platforms.
func NewRealInputs(pins Pins) (*RealInputs, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealInputs) Read() (Levels, error) {
	return Levels{}, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealInputs) Close() error {
	return nil
}

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// NewRealOutputs returns an error on non-Linux platforms.
func NewRealOutputs(pins Pins) (*RealOutputs, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (o *RealOutputs) Set(name Output, on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (o *RealOutputs) Close() error {
	return nil
}
