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
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Mode          string        `json:"mode"`
	Ready         bool          `json:"ready"`
	Channels      []ChannelJSON `json:"channels"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Config        ConfigJSON    `json:"config"`
}

// ChannelJSON is one input/output pair.
type ChannelJSON struct {
	Index     int    `json:"index"`
	InputPin  int    `json:"input_pin"`
	OutputPin int    `json:"output_pin"`
	Note      uint8  `json:"note"`
	Program   uint8  `json:"program"`
	Input     string `json:"input"`
	Output    string `json:"output"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Activated   int `json:"activated"`
	Deactivated int `json:"deactivated"`
	Sent        int `json:"sent"`
	Received    int `json:"received"`
	Ignored     int `json:"ignored"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs        int64    `json:"poll_ms"`
	DebounceMs    int64    `json:"debounce_ms"`
	HeartbeatMs   int64    `json:"heartbeat_ms"`
	MIDIChannel   uint8    `json:"midi_channel"`
	OnVelocity    uint8    `json:"on_velocity"`
	StrictChannel bool     `json:"strict_channel"`
	Transports    []string `json:"transports"`
	Broker        string   `json:"broker"`
	HTTPAddr      string   `json:"http_addr"`
}

func onOff(active bool) string {
	if active {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}

	channels := make([]ChannelJSON, len(snap.Config.Channels))
	for i, ch := range snap.Config.Channels {
		channels[i] = ChannelJSON{
			Index:     i,
			InputPin:  ch.InputPin,
			OutputPin: ch.OutputPin,
			Note:      ch.Note,
			Program:   ch.Program,
			Input:     onOff(snap.Inputs[i]),
			Output:    onOff(snap.Outputs[i]),
		}
	}

	transports := snap.Config.Transports
	if transports == nil {
		transports = []string{}
	}

	return StatusInner{
		Mode:          mode,
		Ready:         snap.Ready,
		Channels:      channels,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Activated:   snap.Counts.Activated,
			Deactivated: snap.Counts.Deactivated,
			Sent:        snap.Counts.Sent,
			Received:    snap.Counts.Received,
			Ignored:     snap.Counts.Ignored,
		},
		Config: ConfigJSON{
			PollMs:        snap.Config.PollMs,
			DebounceMs:    snap.Config.DebounceMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			MIDIChannel:   snap.Config.MIDIChannel,
			OnVelocity:    snap.Config.OnVelocity,
			StrictChannel: snap.Config.StrictChannel,
			Transports:    transports,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
