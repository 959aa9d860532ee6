// Package tick provides the free-running elapsed-time counter shared between
// the periodic tick source and the IR edge handler.
package tick

import "sync/atomic"

// DefaultCeiling is the saturation value used by the NEC profile (50 ticks of 1ms).
const DefaultCeiling = 50

// Counter counts ticks since the last edge, saturating at a ceiling.
//
// Tick and SampleAndReset may be called from different goroutines. Both are
// lock-free: Tick uses compare-and-swap, SampleAndReset uses an atomic swap,
// so a tick racing a reset is counted exactly once, either in the sample
// returned or in the next one.
type Counter struct {
	value   atomic.Uint32
	ceiling uint32
}

// NewCounter creates a counter that saturates at ceiling.
func NewCounter(ceiling uint32) *Counter {
	return &Counter{ceiling: ceiling}
}

// Tick advances the counter by one unless it has reached the ceiling.
func (c *Counter) Tick() {
	for {
		v := c.value.Load()
		if v >= c.ceiling {
			return
		}
		if c.value.CompareAndSwap(v, v+1) {
			return
		}
	}
}

// SampleAndReset returns the current count and resets it to zero in a single
// atomic step.
func (c *Counter) SampleAndReset() uint32 {
	return c.value.Swap(0)
}

// Value returns the current count without resetting it.
func (c *Counter) Value() uint32 {
	return c.value.Load()
}

// Ceiling returns the saturation value.
func (c *Counter) Ceiling() uint32 {
	return c.ceiling
}
