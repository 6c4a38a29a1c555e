package transport

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sweeney/midi-bridge/internal/logic"
	"github.com/sweeney/midi-bridge/internal/queue"
)

// inbox buffers inbound messages between a listener goroutine and Poll.
type inbox struct {
	mu   sync.Mutex
	ring *queue.Ring[logic.Message]
	name string
	log  *zap.SugaredLogger
}

func newInbox(name string, capacity int, log *zap.SugaredLogger) *inbox {
	return &inbox{
		ring: queue.NewRing[logic.Message](capacity),
		name: name,
		log:  log,
	}
}

func (b *inbox) push(msg logic.Message) {
	b.mu.Lock()
	first := b.ring.Push(msg)
	b.mu.Unlock()
	if first {
		b.log.Warnw("inbound queue full, dropping oldest", "transport", b.name)
	}
}

func (b *inbox) drain() []logic.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.DrainAll()
}

// wire implements Sink and Source on top of a raw message writer and an inbox.
type wire struct {
	name  string
	write func(raw []byte) error
	in    *inbox
}

func (w *wire) Name() string { return w.name }

func (w *wire) Poll() []logic.Message { return w.in.drain() }

func (w *wire) send(msg logic.Message) error {
	raw, err := encode(msg)
	if err != nil {
		return err
	}
	return w.write(raw)
}

func (w *wire) SendNoteOn(channel, note, velocity uint8) error {
	return w.send(logic.Message{Kind: logic.MsgNoteOn, Channel: channel, Note: note, Velocity: velocity})
}

func (w *wire) SendNoteOff(channel, note, velocity uint8) error {
	return w.send(logic.Message{Kind: logic.MsgNoteOff, Channel: channel, Note: note, Velocity: velocity})
}

func (w *wire) SendProgramChange(channel, program uint8) error {
	return w.send(logic.Message{Kind: logic.MsgProgramChange, Channel: channel, Program: program})
}
