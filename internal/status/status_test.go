package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/midi-bridge/internal/logic"
)

func testConfig() Config {
	return Config{
		PollMs:      1,
		DebounceMs:  10,
		HeartbeatMs: 900000,
		MIDIChannel: 1,
		OnVelocity:  110,
		Transports:  []string{"usb", "serial"},
		Broker:      "tcp://localhost:1883",
		HTTPAddr:    ":8080",
		Channels:    logic.DefaultChannels,
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.DebounceMs != 10 {
		t.Errorf("Config.DebounceMs: got %d, want 10", snap.Config.DebounceMs)
	}
	if snap.Ready {
		t.Error("expected Ready=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())

	tr.Update(logic.ModeNote, [4]bool{true, false, false, true}, [4]bool{false, true, false, false}, logic.EventCounts{Sent: 3, Received: 1})
	tr.SetReady(true)

	snap := tr.Snapshot()
	if snap.Mode != logic.ModeNote {
		t.Errorf("Mode: got %q, want NOTE", snap.Mode)
	}
	if !snap.Inputs[0] || !snap.Inputs[3] || snap.Inputs[1] {
		t.Errorf("Inputs: got %v", snap.Inputs)
	}
	if !snap.Outputs[1] {
		t.Errorf("Outputs: got %v", snap.Outputs)
	}
	if !snap.Ready {
		t.Error("expected Ready=true")
	}
	if snap.Counts.Sent != 3 || snap.Counts.Received != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())

	snap := tr.Snapshot()
	snap.Config.Transports[0] = "changed"
	snap.Inputs[0] = true

	again := tr.Snapshot()
	if again.Config.Transports[0] != "usb" {
		t.Error("snapshot transports alias tracker state")
	}
	if again.Inputs[0] {
		t.Error("snapshot inputs alias tracker state")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	tr := NewTracker(start, Config{})

	if up := tr.Snapshot().Uptime(); up < 90*time.Second {
		t.Errorf("Uptime: got %v, want >= 90s", up)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())
	tr.Update(logic.ModeProgramChange, [4]bool{false, true, false, false}, [4]bool{true, false, false, false}, logic.EventCounts{Activated: 2, Ignored: 4})
	tr.SetReady(true)
	tr.SetMQTTConnected(true)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Mode != "PROGRAM_CHANGE" {
		t.Errorf("Mode: got %q", s.Mode)
	}
	if !s.Ready || !s.MQTT.Connected {
		t.Error("expected ready and connected")
	}
	if len(s.Channels) != 4 {
		t.Fatalf("Channels: got %d, want 4", len(s.Channels))
	}
	if s.Channels[1].Input != "ON" || s.Channels[0].Input != "OFF" {
		t.Errorf("inputs: got %q/%q", s.Channels[0].Input, s.Channels[1].Input)
	}
	if s.Channels[0].Output != "ON" || s.Channels[0].OutputPin != 14 || s.Channels[0].Note != 60 {
		t.Errorf("channel 0: got %+v", s.Channels[0])
	}
	if s.Counts.Activated != 2 || s.Counts.Ignored != 4 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Config.OnVelocity != 110 || len(s.Config.Transports) != 2 {
		t.Errorf("Config: got %+v", s.Config)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("StartTime: got %q", s.StartTime)
	}
	if s.Event != "" {
		t.Errorf("web JSON should have no event, got %q", s.Event)
	}
}

func TestFormatJSONUnknownMode(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed)
	if parsed.Status.Mode != "UNKNOWN" {
		t.Errorf("Mode: got %q, want UNKNOWN", parsed.Status.Mode)
	}
	if parsed.Status.Config.Transports == nil {
		t.Error("transports should encode as an empty list")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())

	var parsed map[string]map[string]interface{}
	json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "STARTUP", ""), &parsed)
	if _, exists := parsed["status"]["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.ModeNote, [4]bool{i%2 == 0}, [4]bool{}, logic.EventCounts{Sent: i})
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
