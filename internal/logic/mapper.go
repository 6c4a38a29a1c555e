package logic

// MapInput translates a confirmed edge on channel index into an outbound
// message. Deactivation in program change mode has no message.
func MapInput(cfg Config, index int, edge Edge, mode Mode) (Message, bool) {
	ch := cfg.Channels[index]

	switch {
	case edge == EdgeActivated && mode == ModeNote:
		return Message{Kind: MsgNoteOn, Channel: cfg.MIDIChannel, Note: ch.Note, Velocity: cfg.OnVelocity}, true
	case edge == EdgeActivated && mode == ModeProgramChange:
		return Message{Kind: MsgProgramChange, Channel: cfg.MIDIChannel, Program: ch.Program}, true
	case edge == EdgeDeactivated && mode == ModeNote:
		return Message{Kind: MsgNoteOff, Channel: cfg.MIDIChannel, Note: ch.Note}, true
	}
	return Message{}, false
}

// MapOutput translates an inbound note message into an output command.
// Messages that are not notes, or match no channel, are ignored. A Note On
// with velocity 0 is a Note Off.
func MapOutput(cfg Config, msg Message) (Command, bool) {
	if msg.Kind != MsgNoteOn && msg.Kind != MsgNoteOff {
		return Command{}, false
	}
	if cfg.StrictChannel && msg.Channel != cfg.MIDIChannel {
		return Command{}, false
	}

	for i, ch := range cfg.Channels {
		if ch.Note != msg.Note {
			continue
		}
		active := msg.Kind == MsgNoteOn && msg.Velocity > 0
		return Command{
			Index:  i,
			Pin:    ch.OutputPin,
			Active: active,
			Level:  cfg.OutputLevel(active),
		}, true
	}
	return Command{}, false
}
