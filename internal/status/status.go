// Package status provides a thread-safe status tracker for the ir-remote daemon.
// It is read by HTTP handlers and lifecycle events, and written by the
// dispatcher from the edge handler.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ir-remote/internal/action"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickUs       int64
	BitUs        int64
	FrameStartUs int64
	HeartbeatMs  int64
	PinIR        int
	PinsLED      []int
	Broker       string
	HTTPAddr     string
	WSBroker     string // Websocket broker URL for browser MQTT (empty = disabled)
}

// ActionCounts tracks completed frames since startup.
type ActionCounts struct {
	Up        int
	Left      int
	Right     int
	Down      int
	Unmatched int
}

// Total returns the number of completed frames.
func (c ActionCounts) Total() int {
	return c.Up + c.Left + c.Right + c.Down + c.Unmatched
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Ready         bool
	LastAction    action.Action
	LastCommand   string
	LastActionAt  time.Time
	Counts        ActionCounts
	OutputErrors  int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	snap          Snapshot
	lastHeartbeat time.Time
}

var _ action.Observer = (*Tracker)(nil)

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		lastHeartbeat: startTime,
	}
}

// Observe records a completed frame. Called from the edge handler.
func (t *Tracker) Observe(e action.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Action {
	case action.ActionUp:
		t.snap.Counts.Up++
	case action.ActionLeft:
		t.snap.Counts.Left++
	case action.ActionRight:
		t.snap.Counts.Right++
	case action.ActionDown:
		t.snap.Counts.Down++
	default:
		t.snap.Counts.Unmatched++
		return
	}

	if e.Err != nil {
		t.snap.OutputErrors++
	}
	t.snap.LastAction = e.Action
	t.snap.LastCommand = e.Command.String()
	t.snap.LastActionAt = e.Timestamp
}

// SetReady marks whether the IR receiver is being watched.
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	t.snap.Ready = ready
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// CheckHeartbeat reports whether interval has elapsed since the last
// heartbeat (or startup), and if so restarts the interval at now.
// An interval <= 0 disables heartbeats.
func (t *Tracker) CheckHeartbeat(now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastHeartbeat) < interval {
		return false
	}
	t.lastHeartbeat = now
	return true
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
