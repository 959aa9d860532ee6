// Package gpio provides IR receiver edge events and direction LED output
// with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// EdgeSource delivers falling edges from the IR receiver line.
type EdgeSource interface {
	// Start begins calling handler once per falling edge. Calls are made
	// serially from a single goroutine, never concurrently.
	Start(handler func()) error

	// Close stops edge delivery and releases GPIO resources.
	Close() error
}

// Output drives the four direction LED lines.
type Output interface {
	// Drive sets line n to bit n of pattern. Lines are active-low:
	// a cleared bit lights the LED.
	Drive(pattern uint8) error

	// Close releases GPIO resources.
	Close() error
}

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Pin definitions (BCM numbering)
const (
	DefaultPinIR = 17 // IR receiver output (idles high)
)

// DefaultPinsLED are the UP, LEFT, RIGHT and DOWN LED lines, in that order.
var DefaultPinsLED = [4]int{5, 6, 13, 19}

// OffPattern leaves every active-low LED dark.
const OffPattern uint8 = 0xFF

func patternValues(pattern uint8, n int) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = int(pattern>>i) & 1
	}
	return values
}
