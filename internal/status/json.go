package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Ready         bool         `json:"ready"`
	LastAction    string       `json:"last_action"`
	LastCommand   string       `json:"last_command,omitempty"`
	LastActionAt  string       `json:"last_action_at,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"action_counts"`
	OutputErrors  int          `json:"output_errors"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of action counts.
type CountsJSON struct {
	Up        int `json:"up"`
	Left      int `json:"left"`
	Right     int `json:"right"`
	Down      int `json:"down"`
	Unmatched int `json:"unmatched"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickUs       int64  `json:"tick_us"`
	BitUs        int64  `json:"bit_threshold_us"`
	FrameStartUs int64  `json:"frame_start_us"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	PinIR        int    `json:"pin_ir"`
	PinsLED      []int  `json:"pins_led"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
	WSBroker     string `json:"ws_broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	last := string(snap.LastAction)
	if last == "" {
		last = "NONE"
	}
	var lastAt string
	if !snap.LastActionAt.IsZero() {
		lastAt = snap.LastActionAt.UTC().Format(time.RFC3339)
	}

	return StatusInner{
		Ready:         snap.Ready,
		LastAction:    last,
		LastCommand:   snap.LastCommand,
		LastActionAt:  lastAt,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Up:        snap.Counts.Up,
			Left:      snap.Counts.Left,
			Right:     snap.Counts.Right,
			Down:      snap.Counts.Down,
			Unmatched: snap.Counts.Unmatched,
		},
		OutputErrors: snap.OutputErrors,
		Config: ConfigJSON{
			TickUs:       snap.Config.TickUs,
			BitUs:        snap.Config.BitUs,
			FrameStartUs: snap.Config.FrameStartUs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			PinIR:        snap.Config.PinIR,
			PinsLED:      snap.Config.PinsLED,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
			WSBroker:     snap.Config.WSBroker,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
