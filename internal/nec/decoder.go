package nec

// Sampler yields the ticks elapsed since the previous call and restarts the
// count. It must be safe against a concurrent tick source.
type Sampler interface {
	SampleAndReset() uint32
}

// Dispatcher receives each completed frame. Dispatch runs inside the edge
// handler and must not block.
type Dispatcher interface {
	Dispatch(cmd Command)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(cmd Command)

// Dispatch calls f(cmd).
func (f DispatcherFunc) Dispatch(cmd Command) {
	f(cmd)
}

// headerPulses is how many edges a start marker is worth before data begins:
// the marker itself and the edge that ends the leader space.
const headerPulses = 2

// Decoder reconstructs NEC frames from falling edges.
//
// A Decoder is owned by a single edge handler. None of its methods are safe
// for concurrent use; only the Sampler is shared with the tick source.
type Decoder struct {
	clock      Sampler
	dispatcher Dispatcher
	bitTicks   uint32
	startTicks uint32

	pulse  int
	bits   [4]byte
	synced bool
	stats  Stats
}

// NewDecoder creates a decoder for a validated profile. Elapsed time is read
// from clock on every edge and completed frames go to dispatcher.
func NewDecoder(profile Profile, clock Sampler, dispatcher Dispatcher) *Decoder {
	return &Decoder{
		clock:      clock,
		dispatcher: dispatcher,
		bitTicks:   profile.BitTicks(),
		startTicks: profile.FrameStartTicks(),
	}
}

// HandleEdge is the falling-edge entry point. It samples and resets the
// elapsed-time counter, then advances the state machine.
func (d *Decoder) HandleEdge() {
	d.Edge(d.clock.SampleAndReset())
}

// Edge advances the state machine by one falling edge that arrived elapsed
// ticks after the previous one.
//
// The pulse index advances before any check, so the start marker leaves it
// at -2, the next edge (end of the leader) moves it to -1, the following 32
// edges carry bits 0..31, and the edge after that completes the frame.
func (d *Decoder) Edge(elapsed uint32) {
	d.stats.Edges++
	d.pulse++

	switch {
	case elapsed >= d.startTicks:
		// An oversized gap always resynchronizes, whatever the current state.
		d.pulse = -headerPulses
		d.bits = [4]byte{}
		d.synced = true
		d.stats.Resyncs++

	case d.pulse >= 0 && d.pulse < FrameBits:
		if elapsed >= d.bitTicks {
			d.bits[d.pulse>>3] |= 1 << (7 - uint(d.pulse&7))
		}

	case d.pulse >= FrameBits:
		cmd := Command(d.bits)
		d.pulse = 0
		d.synced = false
		d.stats.Frames++
		if d.dispatcher != nil {
			d.dispatcher.Dispatch(cmd)
		}
	}
}

// PulseIndex returns the current pulse index.
func (d *Decoder) PulseIndex() int {
	return d.pulse
}

// Accumulator returns a copy of the bits collected so far.
func (d *Decoder) Accumulator() [4]byte {
	return d.bits
}

// Phase reports where the decoder is within a frame.
func (d *Decoder) Phase() Phase {
	switch {
	case !d.synced:
		return PhaseSeeking
	case d.pulse < 0:
		return PhaseHeader
	case d.pulse < FrameBits-1:
		return PhaseCollecting
	default:
		return PhaseClosing
	}
}

// Stats returns activity counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}
