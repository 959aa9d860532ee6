//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealEdgeSource is not available on non-Linux platforms.
type RealEdgeSource struct{}

// NewRealEdgeSource returns a source whose Start always fails.
func NewRealEdgeSource(chipName string, pin int) *RealEdgeSource {
	return &RealEdgeSource{}
}

// Start returns an error on non-Linux platforms.
func (s *RealEdgeSource) Start(handler func()) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *RealEdgeSource) Close() error {
	return nil
}

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an error on non-Linux platforms.
func NewRealOutput(chipName string, pins []int) (*RealOutput, error) {
	return nil, errUnsupported
}

// Drive is not implemented on non-Linux platforms.
func (o *RealOutput) Drive(pattern uint8) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (o *RealOutput) Close() error {
	return nil
}
