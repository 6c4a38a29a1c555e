// Package transport moves MIDI messages between the bridge and the outside
// world. Every transport is a Sink for outbound messages and a Source of
// inbound ones; inbound messages are captured asynchronously and handed out
// by a non-blocking Poll.
package transport

import (
	"fmt"

	"github.com/sweeney/midi-bridge/internal/logic"
)

// DefaultQueueSize is the inbound queue capacity per transport.
const DefaultQueueSize = 256

// Sink accepts outbound messages. Channels are 1..16.
type Sink interface {
	SendNoteOn(channel, note, velocity uint8) error
	SendNoteOff(channel, note, velocity uint8) error
	SendProgramChange(channel, program uint8) error
}

// Source hands out inbound messages that are already buffered.
type Source interface {
	// Poll returns every queued message, oldest first, and never blocks.
	Poll() []logic.Message
}

// Transport is a named bidirectional MIDI transport.
type Transport interface {
	Sink
	Source
	Name() string
	Close() error
}

// Send dispatches msg to the Sink method for its kind.
func Send(s Sink, msg logic.Message) error {
	switch msg.Kind {
	case logic.MsgNoteOn:
		return s.SendNoteOn(msg.Channel, msg.Note, msg.Velocity)
	case logic.MsgNoteOff:
		return s.SendNoteOff(msg.Channel, msg.Note, msg.Velocity)
	case logic.MsgProgramChange:
		return s.SendProgramChange(msg.Channel, msg.Program)
	}
	return fmt.Errorf("unsupported message kind %q", msg.Kind)
}
