// Package logic contains the pure bridge logic: debouncing, mode selection and
// the pin<->MIDI mappings.
// This package has NO external dependencies (no GPIO, MIDI drivers, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// Pin levels. true = HIGH.
const (
	High = true
	Low  = false
)

// NumChannels is the number of input/output channel pairs.
const NumChannels = 4

// Mode selects how input activations are translated to MIDI.
type Mode string

const (
	ModeNote          Mode = "NOTE"
	ModeProgramChange Mode = "PROGRAM_CHANGE"
)

// ModeFromPin derives the mode from the mode-select pin level.
// The pin is pulled up, so an unwired pin (HIGH) selects program change mode.
func ModeFromPin(level bool) Mode {
	if level == High {
		return ModeProgramChange
	}
	return ModeNote
}

// Edge is the direction of a confirmed input transition.
type Edge string

const (
	EdgeActivated   Edge = "ACTIVATED"
	EdgeDeactivated Edge = "DEACTIVATED"
)

// Channel is one static input/output slot.
type Channel struct {
	InputPin  int
	OutputPin int
	Note      uint8
	Program   uint8
}

// DefaultChannels is the fixed mapping table.
var DefaultChannels = [NumChannels]Channel{
	{InputPin: 2, OutputPin: 14, Note: 60, Program: 0},
	{InputPin: 3, OutputPin: 15, Note: 61, Program: 1},
	{InputPin: 4, OutputPin: 16, Note: 62, Program: 2},
	{InputPin: 5, OutputPin: 17, Note: 63, Program: 3},
}

// MessageKind is the type of a MIDI message handled by the bridge.
type MessageKind string

const (
	MsgNoteOn        MessageKind = "NOTE_ON"
	MsgNoteOff       MessageKind = "NOTE_OFF"
	MsgProgramChange MessageKind = "PROGRAM_CHANGE"
)

// Message is a transport-agnostic MIDI message.
type Message struct {
	Kind     MessageKind
	Channel  uint8 // 1..16
	Note     uint8
	Velocity uint8
	Program  uint8
}

func (m Message) String() string {
	if m.Kind == MsgProgramChange {
		return fmt.Sprintf("%s ch=%d program=%d", m.Kind, m.Channel, m.Program)
	}
	return fmt.Sprintf("%s ch=%d note=%d vel=%d", m.Kind, m.Channel, m.Note, m.Velocity)
}

// InputState tracks debounce state for a single input.
type InputState struct {
	// Last instantaneous level read
	RawLastRead bool
	// Debounced confirmed level
	StableLevel bool
	// Time of the last raw transition
	LastChange time.Time
}

// Command drives one output pin.
type Command struct {
	Index  int  // channel index
	Pin    int  // output pin
	Active bool // logical state (relay energised)
	Level  bool // physical level to write
}

// EventType classifies a bridge event.
type EventType string

const (
	EventSent     EventType = "MIDI_OUT"
	EventReceived EventType = "MIDI_IN"
	EventIgnored  EventType = "MIDI_IGNORED"
)

// Event records one thing the bridge did, for diagnostics and telemetry.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Index     int // channel index, -1 when no channel matched
	Mode      Mode
	Edge      Edge // EventSent only
	Message   Message
	Active    bool // EventReceived only: resulting output state
}

// EventCounts tracks the number of each event kind since startup.
type EventCounts struct {
	Activated   int
	Deactivated int
	Sent        int
	Received    int
	Ignored     int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
