package transport

import "gitlab.com/gomidi/midi/v2"

// Parser splits a raw MIDI byte stream into complete channel messages.
// It honours running status, ignores real-time bytes wherever they appear,
// and skips SysEx and system common messages.
type Parser struct {
	status byte
	data   [2]byte
	n      int
	sysex  bool
}

// Feed consumes one byte and returns a message when one is complete.
func (p *Parser) Feed(b byte) (midi.Message, bool) {
	switch {
	case b >= 0xf8:
		// Real-time: may interleave with anything, never affects state.
		return nil, false
	case b == 0xf0:
		p.sysex = true
		p.status = 0
		return nil, false
	case b == 0xf7:
		p.sysex = false
		return nil, false
	case b >= 0xf1:
		// System common cancels running status.
		p.sysex = false
		p.status = 0
		p.n = 0
		return nil, false
	case b&0x80 != 0:
		p.sysex = false
		p.status = b
		p.n = 0
		return nil, false
	}

	if p.sysex || p.status == 0 {
		return nil, false
	}

	p.data[p.n] = b
	p.n++
	if p.n < dataLen(p.status) {
		return nil, false
	}

	msg := make(midi.Message, 1+p.n)
	msg[0] = p.status
	copy(msg[1:], p.data[:p.n])
	p.n = 0
	return msg, true
}

// dataLen is the number of data bytes that follow a channel status byte.
func dataLen(status byte) int {
	switch midi.Message([]byte{status, 0, 0}).Type() {
	case midi.ProgramChangeMsg, midi.AfterTouchMsg:
		return 1
	}
	return 2
}
