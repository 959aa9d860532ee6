package gpio

import "errors"

// FakeEdgeSource is a test double whose edges are fired by the test.
type FakeEdgeSource struct {
	handler func()

	// Started tracks if Start was called successfully
	Started bool

	// Closed tracks if Close was called
	Closed bool

	// StartError, if set, will be returned by Start()
	StartError error
}

// NewFakeEdgeSource creates an idle FakeEdgeSource.
func NewFakeEdgeSource() *FakeEdgeSource {
	return &FakeEdgeSource{}
}

// Start records the handler.
func (f *FakeEdgeSource) Start(handler func()) error {
	if f.StartError != nil {
		return f.StartError
	}
	f.handler = handler
	f.Started = true
	return nil
}

// Fire delivers one falling edge. It returns an error if the source has not
// been started or has been closed.
func (f *FakeEdgeSource) Fire() error {
	if !f.Started || f.handler == nil {
		return errors.New("edge source not started")
	}
	if f.Closed {
		return errors.New("edge source closed")
	}
	f.handler()
	return nil
}

// Close marks the source as closed.
func (f *FakeEdgeSource) Close() error {
	f.Closed = true
	return nil
}

// FakeOutput records driven patterns for test assertions.
type FakeOutput struct {
	// Patterns contains every pattern passed to Drive, in order.
	Patterns []uint8

	// DriveError, if set, will be returned by Drive()
	DriveError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Drive records the pattern.
func (f *FakeOutput) Drive(pattern uint8) error {
	if f.DriveError != nil {
		return f.DriveError
	}
	f.Patterns = append(f.Patterns, pattern)
	return nil
}

// Last returns the most recent pattern, or OffPattern if none was driven.
func (f *FakeOutput) Last() uint8 {
	if len(f.Patterns) == 0 {
		return OffPattern
	}
	return f.Patterns[len(f.Patterns)-1]
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded patterns.
func (f *FakeOutput) Reset() {
	f.Patterns = nil
	f.Closed = false
	f.DriveError = nil
}
