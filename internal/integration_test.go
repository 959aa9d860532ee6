package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/ir-remote/internal/action"
	"github.com/sweeney/ir-remote/internal/gpio"
	"github.com/sweeney/ir-remote/internal/mqtt"
	"github.com/sweeney/ir-remote/internal/nec"
	"github.com/sweeney/ir-remote/internal/status"
	"github.com/sweeney/ir-remote/internal/tick"
)

// pipeline wires the daemon's components together with fakes.
type pipeline struct {
	counter   *tick.Counter
	decoder   *nec.Decoder
	edges     *gpio.FakeEdgeSource
	output    *gpio.FakeOutput
	publisher *mqtt.FakePublisher
	tracker   *status.Tracker
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	p := &pipeline{
		counter:   tick.NewCounter(nec.DefaultProfile.FrameStartTicks()),
		edges:     gpio.NewFakeEdgeSource(),
		output:    gpio.NewFakeOutput(),
		publisher: mqtt.NewFakePublisher(),
		tracker:   status.NewTracker(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), status.Config{}),
	}
	dispatcher := action.NewDispatcher(action.DefaultTable(), p.output,
		p.tracker,
		mqtt.Observer(p.publisher, zap.NewNop().Sugar()),
	)
	p.decoder = nec.NewDecoder(nec.DefaultProfile, p.counter, dispatcher)
	if err := p.edges.Start(p.decoder.HandleEdge); err != nil {
		t.Fatalf("start edges: %v", err)
	}
	return p
}

// transmit advances the tick counter by each gap and fires an edge after it.
func (p *pipeline) transmit(t *testing.T, gaps []uint32) {
	t.Helper()
	for i, g := range gaps {
		for j := uint32(0); j < g; j++ {
			p.counter.Tick()
		}
		if err := p.edges.Fire(); err != nil {
			t.Fatalf("gap %d: fire: %v", i, err)
		}
	}
}

// TestIntegrationFullFlow tests the complete flow from edges to LEDs and MQTT.
func TestIntegrationFullFlow(t *testing.T) {
	p := newPipeline(t)

	for _, code := range []uint32{0x00FF18E7, 0x00FF10EF, 0x00FF5AA5, 0x00FF4AB5} {
		p.transmit(t, nec.Encode(nec.CommandFromUint32(code), nec.DefaultProfile))
	}

	want := []uint8{0xFE, 0xFD, 0xFB, 0xF7}
	if len(p.output.Patterns) != len(want) {
		t.Fatalf("expected %d patterns, got %v", len(want), p.output.Patterns)
	}
	for i, pat := range want {
		if p.output.Patterns[i] != pat {
			t.Errorf("pattern %d: got %08b, want %08b", i, p.output.Patterns[i], pat)
		}
	}

	if len(p.publisher.Events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(p.publisher.Events))
	}
	for i, a := range action.All {
		if p.publisher.Events[i].Action != a {
			t.Errorf("event %d: got %s, want %s", i, p.publisher.Events[i].Action, a)
		}
	}

	// Payloads are valid JSON carrying the action
	var payload mqtt.Payload
	if err := json.Unmarshal(p.publisher.Payloads[1], &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload.Remote.Action != "LEFT" || payload.Remote.Command != "00FF10EF" {
		t.Errorf("payload: got %+v", payload.Remote)
	}

	snap := p.tracker.Snapshot()
	if snap.Counts != (status.ActionCounts{Up: 1, Left: 1, Right: 1, Down: 1}) {
		t.Errorf("counts: got %+v", snap.Counts)
	}
	if snap.LastAction != action.ActionDown {
		t.Errorf("last action: got %s, want DOWN", snap.LastAction)
	}
}

// TestIntegrationLeftTwiceThenCorrupted sends LEFT twice, then once with a
// single corrupted gap: exactly two LEFT actions result.
func TestIntegrationLeftTwiceThenCorrupted(t *testing.T) {
	p := newPipeline(t)
	left := nec.Encode(nec.CommandFromUint32(0x00FF10EF), nec.DefaultProfile)

	p.transmit(t, left)
	p.transmit(t, left)

	corrupted := append([]uint32(nil), left...)
	corrupted[2+16] = 2 // bit 16: first bit of 0x10 is 0; force it to 1
	p.transmit(t, corrupted)

	if len(p.output.Patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %v", p.output.Patterns)
	}
	if p.publisher.EventCount() != 2 {
		t.Errorf("expected 2 published actions, got %d", p.publisher.EventCount())
	}

	snap := p.tracker.Snapshot()
	if snap.Counts.Left != 2 {
		t.Errorf("left count: got %d, want 2", snap.Counts.Left)
	}
	if snap.Counts.Unmatched != 1 {
		t.Errorf("unmatched count: got %d, want 1", snap.Counts.Unmatched)
	}
}

// TestIntegrationNoiseThenFrame checks that arbitrary edges before a start
// marker do not prevent the next frame from decoding.
func TestIntegrationNoiseThenFrame(t *testing.T) {
	p := newPipeline(t)

	p.transmit(t, []uint32{3, 1, 7, 2, 2, 9, 1})
	p.transmit(t, nec.Encode(nec.CommandFromUint32(0x00FF4AB5), nec.DefaultProfile))

	if got := p.output.Last(); got != action.ActionDown.Pattern() {
		t.Errorf("last pattern: got %08b, want %08b", got, action.ActionDown.Pattern())
	}
	if p.publisher.EventCount() != 1 {
		t.Errorf("expected 1 published action, got %d", p.publisher.EventCount())
	}
}

// TestIntegrationLongSilenceSaturates checks that a silence longer than the
// counter ceiling is still read as a start marker.
func TestIntegrationLongSilenceSaturates(t *testing.T) {
	p := newPipeline(t)
	gaps := nec.Encode(nec.CommandFromUint32(0x00FF18E7), nec.DefaultProfile)
	gaps[0] = 5000

	p.transmit(t, gaps)

	if p.publisher.EventCount() != 1 {
		t.Fatalf("expected 1 published action, got %d", p.publisher.EventCount())
	}
	if p.publisher.Events[0].Action != action.ActionUp {
		t.Errorf("got %s, want UP", p.publisher.Events[0].Action)
	}
}

// TestIntegrationOutputError verifies that an LED failure still reaches
// MQTT and the tracker.
func TestIntegrationOutputError(t *testing.T) {
	p := newPipeline(t)
	p.output.DriveError = errors.New("line busy")

	p.transmit(t, nec.Encode(nec.CommandFromUint32(0x00FF5AA5), nec.DefaultProfile))

	if p.publisher.EventCount() != 1 {
		t.Errorf("expected 1 published action, got %d", p.publisher.EventCount())
	}
	snap := p.tracker.Snapshot()
	if snap.OutputErrors != 1 {
		t.Errorf("output errors: got %d, want 1", snap.OutputErrors)
	}
	if snap.Counts.Right != 1 {
		t.Errorf("right count: got %d, want 1", snap.Counts.Right)
	}
}

// TestIntegrationPublishErrorContinues verifies publish failures do not stop
// decoding or LED output.
func TestIntegrationPublishErrorContinues(t *testing.T) {
	p := newPipeline(t)
	p.publisher.PublishError = errors.New("broker unavailable")

	up := nec.Encode(nec.CommandFromUint32(0x00FF18E7), nec.DefaultProfile)
	p.transmit(t, up)
	p.transmit(t, up)

	if len(p.output.Patterns) != 2 {
		t.Errorf("expected 2 patterns despite publish errors, got %v", p.output.Patterns)
	}
	if p.publisher.EventCount() != 0 {
		t.Errorf("expected no recorded events, got %d", p.publisher.EventCount())
	}
	if p.tracker.Snapshot().Counts.Up != 2 {
		t.Errorf("up count: got %d, want 2", p.tracker.Snapshot().Counts.Up)
	}
}
