//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "ir-remote"

// RealEdgeSource watches the IR receiver line for falling edges using the
// Linux GPIO character device. The kernel timestamps edges and gpiocdev
// delivers them from a single watcher goroutine.
type RealEdgeSource struct {
	chipName string
	pin      int
	chip     *gpiocdev.Chip
	line     *gpiocdev.Line
}

// NewRealEdgeSource creates an edge source for the given chip and BCM pin.
// No hardware is touched until Start.
func NewRealEdgeSource(chipName string, pin int) *RealEdgeSource {
	return &RealEdgeSource{chipName: chipName, pin: pin}
}

// Start requests the line with falling-edge detection. The receiver output
// idles high, so the line is biased with a pull-up.
func (s *RealEdgeSource) Start(handler func()) error {
	chip, err := gpiocdev.NewChip(s.chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(s.pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type == gpiocdev.LineEventFallingEdge {
				handler()
			}
		}))
	if err != nil {
		chip.Close()
		return fmt.Errorf("request IR pin %d: %w", s.pin, err)
	}

	s.chip = chip
	s.line = line
	return nil
}

// Close stops edge detection and releases the line.
func (s *RealEdgeSource) Close() error {
	var errs []error
	if s.line != nil {
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close IR pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput drives the LED lines using the Linux GPIO character device.
type RealOutput struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	n     int
}

// NewRealOutput requests the LED pins as outputs, all LEDs off.
func NewRealOutput(chipName string, pins []int) (*RealOutput, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	lines, err := chip.RequestLines(pins, gpiocdev.AsOutput(patternValues(OffPattern, len(pins))...))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED pins %v: %w", pins, err)
	}

	return &RealOutput{
		chip:  chip,
		lines: lines,
		n:     len(pins),
	}, nil
}

// Drive sets line n to bit n of pattern.
func (o *RealOutput) Drive(pattern uint8) error {
	if err := o.lines.SetValues(patternValues(pattern, o.n)); err != nil {
		return fmt.Errorf("set LED pins: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing, so LEDs are not left lit across a restart.
func (o *RealOutput) Close() error {
	var errs []error

	if o.lines != nil {
		if err := o.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure LED pins: %w", err))
		}
		if err := o.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED pins: %w", err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
