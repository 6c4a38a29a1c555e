package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// MIDIBaud is the DIN MIDI line rate.
const MIDIBaud = 31250

// Serial is DIN MIDI over a UART.
type Serial struct {
	wire
	port io.ReadWriteCloser
	log  *zap.SugaredLogger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// OpenSerial opens device at the MIDI baud rate and starts reading.
func OpenSerial(device string, queueSize int, log *zap.SugaredLogger) (*Serial, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: MIDIBaud})
	if err != nil {
		return nil, fmt.Errorf("open serial midi %s: %w", device, err)
	}
	log.Infow("serial midi opened", "device", device, "baud", MIDIBaud)
	return newSerial(port, queueSize, log), nil
}

func newSerial(port io.ReadWriteCloser, queueSize int, log *zap.SugaredLogger) *Serial {
	s := &Serial{
		port: port,
		log:  log,
		done: make(chan struct{}),
	}
	s.wire = wire{
		name: "serial",
		in:   newInbox("serial", queueSize, log),
		write: func(raw []byte) error {
			_, err := port.Write(raw)
			return err
		},
	}
	go s.readLoop()
	return s
}

func (s *Serial) readLoop() {
	defer close(s.done)

	var p Parser
	buf := make([]byte, 64)
	for {
		n, err := s.port.Read(buf)
		for _, b := range buf[:n] {
			raw, ok := p.Feed(b)
			if !ok {
				continue
			}
			if msg, ok := decode(raw); ok {
				s.in.push(msg)
			}
		}
		if err != nil {
			if !s.isClosed() && !errors.Is(err, io.EOF) {
				s.log.Warnw("serial midi read failed", "err", err)
			}
			return
		}
	}
}

func (s *Serial) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close closes the port and waits for the reader to exit.
func (s *Serial) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.port.Close()
	<-s.done
	return err
}
