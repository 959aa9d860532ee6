// Package nec decodes NEC infrared remote frames from falling-edge timing.
// This package has NO external dependencies (no GPIO, MQTT, OS, or clocks).
// Elapsed time arrives as tick counts through the Sampler interface.
package nec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// FrameBits is the number of data bits in an NEC frame.
const FrameBits = 32

// ErrInvalidProfile is wrapped by Profile.Validate failures.
var ErrInvalidProfile = errors.New("invalid timing profile")

// Profile holds the three timing constants that define the decoder.
type Profile struct {
	// Tick is the period of the elapsed-time counter.
	Tick time.Duration
	// BitOne is the shortest gap classified as logic 1.
	BitOne time.Duration
	// FrameStart is the shortest gap treated as a new frame's start marker.
	FrameStart time.Duration
}

// DefaultProfile is the timing used by common NEC remotes with a 1ms tick.
var DefaultProfile = Profile{
	Tick:       time.Millisecond,
	BitOne:     2 * time.Millisecond,
	FrameStart: 50 * time.Millisecond,
}

// Validate checks the profile is usable with a tick counter.
func (p Profile) Validate() error {
	if p.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %v", ErrInvalidProfile, p.Tick)
	}
	if p.BitOne < p.Tick {
		return fmt.Errorf("%w: bit threshold %v is shorter than one tick (%v)", ErrInvalidProfile, p.BitOne, p.Tick)
	}
	if p.FrameStart <= p.BitOne {
		return fmt.Errorf("%w: frame start %v must exceed bit threshold %v", ErrInvalidProfile, p.FrameStart, p.BitOne)
	}
	if ceilTicks(p.FrameStart, p.Tick) > math.MaxUint32 {
		return fmt.Errorf("%w: frame start %v is too many ticks of %v", ErrInvalidProfile, p.FrameStart, p.Tick)
	}
	if p.FrameStartTicks() <= p.BitTicks() {
		return fmt.Errorf("%w: frame start and bit threshold round to the same tick count", ErrInvalidProfile)
	}
	return nil
}

// BitTicks returns the bit threshold in ticks, rounded up so that no gap
// shorter than BitOne reads as logic 1.
func (p Profile) BitTicks() uint32 {
	return uint32(ceilTicks(p.BitOne, p.Tick))
}

// FrameStartTicks returns the frame-start threshold in ticks, rounded up. It
// is also the saturation ceiling of the tick counter.
func (p Profile) FrameStartTicks() uint32 {
	return uint32(ceilTicks(p.FrameStart, p.Tick))
}

func ceilTicks(d, tick time.Duration) time.Duration {
	return (d + tick - 1) / tick
}

// Command is the 32-bit frame as received, byte 0 first, MSB first within
// each byte.
type Command [4]byte

// Key identifies a command by bytes 1..3. Byte 0 is never matched.
type Key [3]byte

// CommandFromUint32 splits v into a Command, most significant byte first.
func CommandFromUint32(v uint32) Command {
	return Command{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// ParseCommand parses 8 hex digits, with or without a 0x prefix.
func ParseCommand(s string) (Command, error) {
	var c Command
	if err := parseHex(s, c[:]); err != nil {
		return c, fmt.Errorf("parse command %q: %w", s, err)
	}
	return c, nil
}

// Key returns bytes 1..3.
func (c Command) Key() Key {
	return Key{c[1], c[2], c[3]}
}

// Uint32 returns the frame as a big-endian 32-bit value.
func (c Command) Uint32() uint32 {
	return uint32(c[0])<<24 | uint32(c[1])<<16 | uint32(c[2])<<8 | uint32(c[3])
}

func (c Command) String() string {
	return fmt.Sprintf("%08X", c.Uint32())
}

// Conforms reports whether the frame passes the usual NEC complement checks
// (byte 0 inverts byte 1, byte 2 inverts byte 3). The decoder never rejects
// a frame on this basis; it is informational only.
func (c Command) Conforms() bool {
	return c[0] == ^c[1] && c[2] == ^c[3]
}

// ParseKey parses 6 hex digits, with or without a 0x prefix.
func ParseKey(s string) (Key, error) {
	var k Key
	if err := parseHex(s, k[:]); err != nil {
		return k, fmt.Errorf("parse key %q: %w", s, err)
	}
	return k, nil
}

func (k Key) String() string {
	return fmt.Sprintf("%02X%02X%02X", k[0], k[1], k[2])
}

func parseHex(s string, dst []byte) error {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s) != 2*len(dst) {
		return fmt.Errorf("want %d hex digits, got %d", 2*len(dst), len(s))
	}
	_, err := hex.Decode(dst, []byte(s))
	return err
}

// Phase is the decoder's position within a frame.
type Phase string

const (
	PhaseSeeking    Phase = "SEEKING"
	PhaseHeader     Phase = "HEADER"
	PhaseCollecting Phase = "COLLECTING"
	PhaseClosing    Phase = "CLOSING"
)

// Stats counts decoder activity since creation.
type Stats struct {
	Edges   uint64
	Resyncs uint64
	Frames  uint64
}
