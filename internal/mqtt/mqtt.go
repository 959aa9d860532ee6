// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/sweeney/ir-remote/internal/action"
)

// Topic is the MQTT topic for recognized remote actions.
const Topic = "home/ir-remote/actions"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/ir-remote/system"

// Encoding selects the wire format of action payloads.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding accepts "json" or "msgpack"; empty means json.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(s)); e {
	case "":
		return EncodingJSON, nil
	case EncodingJSON, EncodingMsgpack:
		return e, nil
	default:
		return "", fmt.Errorf("unknown payload encoding %q", s)
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a remote action to the broker. It is called from the
	// edge handler and must not wait for the broker.
	Publish(event action.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Remote RemotePayload `json:"remote" msgpack:"remote"`
}

// RemotePayload contains the action details.
type RemotePayload struct {
	ID        string `json:"id" msgpack:"id"`
	Timestamp string `json:"timestamp" msgpack:"timestamp"`
	Action    string `json:"action" msgpack:"action"`
	Command   string `json:"command" msgpack:"command"`
	Conforms  bool   `json:"conforms" msgpack:"conforms"`
}

// FormatPayload creates the payload for a remote action in the given encoding.
func FormatPayload(event action.Event, enc Encoding) ([]byte, error) {
	payload := Payload{
		Remote: RemotePayload{
			ID:        event.ID,
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Action:    string(event.Action),
			Command:   event.Command.String(),
			Conforms:  event.Command.Conforms(),
		},
	}
	if enc == EncodingMsgpack {
		return msgpack.Marshal(payload)
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Observer adapts a Publisher to receive dispatcher events. Unmatched frames
// are not published. Publish errors are logged and dropped.
func Observer(p Publisher, logger *zap.SugaredLogger) action.Observer {
	return action.ObserverFunc(func(event action.Event) {
		if !event.Matched() {
			return
		}
		if err := p.Publish(event); err != nil {
			logger.Warnf("publish error: %v", err)
		}
	})
}
