package transport

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/sweeney/midi-bridge/internal/logic"
)

func checkChannel(channel uint8) error {
	if channel < 1 || channel > 16 {
		return fmt.Errorf("midi channel %d out of range 1..16", channel)
	}
	return nil
}

// encode converts msg to wire bytes. gomidi channels are zero based.
func encode(msg logic.Message) (midi.Message, error) {
	if err := checkChannel(msg.Channel); err != nil {
		return nil, err
	}
	ch := msg.Channel - 1

	switch msg.Kind {
	case logic.MsgNoteOn:
		return midi.NoteOn(ch, msg.Note&0x7f, msg.Velocity&0x7f), nil
	case logic.MsgNoteOff:
		return midi.NoteOffVelocity(ch, msg.Note&0x7f, msg.Velocity&0x7f), nil
	case logic.MsgProgramChange:
		return midi.ProgramChange(ch, msg.Program&0x7f), nil
	}
	return nil, fmt.Errorf("unsupported message kind %q", msg.Kind)
}

// decode extracts a note message from a complete MIDI message. Everything
// else is reported as not ok. A Note On with velocity 0 stays a Note On here;
// the output mapper treats it as a Note Off.
func decode(msg midi.Message) (logic.Message, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		return logic.Message{Kind: logic.MsgNoteOn, Channel: ch + 1, Note: key, Velocity: vel}, true
	case msg.GetNoteOff(&ch, &key, &vel):
		return logic.Message{Kind: logic.MsgNoteOff, Channel: ch + 1, Note: key, Velocity: vel}, true
	}
	return logic.Message{}, false
}
