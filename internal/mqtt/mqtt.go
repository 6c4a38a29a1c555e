// Package mqtt mirrors bridge events to an MQTT broker, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/midi-bridge/internal/logic"
)

// Topic is the MQTT topic for bridge events.
const Topic = "midi/bridge/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "midi/bridge/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a bridge event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

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
	Bridge BridgePayload `json:"bridge"`
}

// BridgePayload contains the bridge event details.
type BridgePayload struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Channel   int            `json:"channel"`
	Mode      string         `json:"mode"`
	Edge      string         `json:"edge,omitempty"`
	Active    *bool          `json:"active,omitempty"`
	Message   MessagePayload `json:"message"`
}

// MessagePayload is the MIDI message carried by an event.
type MessagePayload struct {
	Kind        string `json:"kind"`
	MIDIChannel uint8  `json:"midi_channel"`
	Note        *uint8 `json:"note,omitempty"`
	Velocity    *uint8 `json:"velocity,omitempty"`
	Program     *uint8 `json:"program,omitempty"`
}

// FormatPayload creates the JSON payload for a bridge event.
func FormatPayload(event logic.Event) ([]byte, error) {
	msg := event.Message
	mp := MessagePayload{
		Kind:        string(msg.Kind),
		MIDIChannel: msg.Channel,
	}
	if msg.Kind == logic.MsgProgramChange {
		mp.Program = &msg.Program
	} else {
		mp.Note = &msg.Note
		mp.Velocity = &msg.Velocity
	}

	bp := BridgePayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Event:     string(event.Type),
		Channel:   event.Index,
		Mode:      string(event.Mode),
		Edge:      string(event.Edge),
		Message:   mp,
	}
	if event.Type == logic.EventReceived {
		active := event.Active
		bp.Active = &active
	}
	return json.Marshal(Payload{Bridge: bp})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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
