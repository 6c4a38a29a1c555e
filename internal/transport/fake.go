package transport

import "github.com/sweeney/midi-bridge/internal/logic"

// Journal records sends across several fakes in global order.
type Journal struct {
	Entries []JournalEntry
}

// JournalEntry is one recorded send.
type JournalEntry struct {
	Transport string
	Message   logic.Message
}

// Fake is a test double that records sent messages and returns queued
// inbound messages from Poll.
type Fake struct {
	name string

	// Sent contains every message sent successfully.
	Sent []logic.Message

	// Journal, if set, also receives every successful send.
	Journal *Journal

	// SendError, if set, is returned by every send and nothing is recorded.
	SendError error

	// PollCalls counts calls to Poll.
	PollCalls int

	// Closed tracks if Close was called.
	Closed bool

	inbound []logic.Message
}

// NewFake creates a Fake with the given name.
func NewFake(name string) *Fake {
	return &Fake{name: name}
}

// Queue adds inbound messages to be returned by the next Poll.
func (f *Fake) Queue(msgs ...logic.Message) {
	f.inbound = append(f.inbound, msgs...)
}

// Name returns the fake's name.
func (f *Fake) Name() string { return f.name }

// Poll returns and clears every queued inbound message.
func (f *Fake) Poll() []logic.Message {
	f.PollCalls++
	msgs := f.inbound
	f.inbound = nil
	return msgs
}

func (f *Fake) record(msg logic.Message) error {
	if f.SendError != nil {
		return f.SendError
	}
	f.Sent = append(f.Sent, msg)
	if f.Journal != nil {
		f.Journal.Entries = append(f.Journal.Entries, JournalEntry{Transport: f.name, Message: msg})
	}
	return nil
}

// SendNoteOn records a Note On.
func (f *Fake) SendNoteOn(channel, note, velocity uint8) error {
	return f.record(logic.Message{Kind: logic.MsgNoteOn, Channel: channel, Note: note, Velocity: velocity})
}

// SendNoteOff records a Note Off.
func (f *Fake) SendNoteOff(channel, note, velocity uint8) error {
	return f.record(logic.Message{Kind: logic.MsgNoteOff, Channel: channel, Note: note, Velocity: velocity})
}

// SendProgramChange records a Program Change.
func (f *Fake) SendProgramChange(channel, program uint8) error {
	return f.record(logic.Message{Kind: logic.MsgProgramChange, Channel: channel, Program: program})
}

// Close marks the fake as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded state.
func (f *Fake) Reset() {
	f.Sent = nil
	f.SendError = nil
	f.PollCalls = 0
	f.Closed = false
	f.inbound = nil
}
