package nec

import "time"

// NEC protocol references
// https://www.sbprojects.net/knowledge/ir/nec.php
const (
	necUnit       = 562_500 * time.Nanosecond // 562.5 us
	necLeader     = necUnit * 24              // 9 ms mark + 4.5 ms space
	necBitZero    = necUnit * 2               // 1.125 ms mark-to-mark
	necBitOne     = necUnit * 4               // 2.25 ms mark-to-mark
	necRepeatTail = necUnit * 72              // trailing mark to next leader, approx.
)

// Encode returns the elapsed tick counts a decoder using profile p observes
// while cmd is transmitted: the start marker, the leader, 32 data gaps and
// the closing edge that completes the frame.
//
// Gaps follow NEC timing, adjusted where needed so they classify correctly
// under a non-default profile.
func Encode(cmd Command, p Profile) []uint32 {
	start := p.FrameStartTicks()
	bit := p.BitTicks()

	one := max(ticks(necBitOne, p), bit)
	zero := ticks(necBitZero, p)
	if zero >= bit {
		zero = bit - 1
	}
	leader := min(ticks(necLeader, p), start-1)
	tail := min(ticks(necRepeatTail, p), start-1)
	one = min(one, start-1)

	gaps := make([]uint32, 0, headerPulses+FrameBits+1)
	gaps = append(gaps, start, leader)
	for i := 0; i < FrameBits; i++ {
		if cmd[i>>3]&(1<<(7-uint(i&7))) != 0 {
			gaps = append(gaps, one)
		} else {
			gaps = append(gaps, zero)
		}
	}
	return append(gaps, tail)
}

func ticks(d time.Duration, p Profile) uint32 {
	return uint32(d / p.Tick)
}
