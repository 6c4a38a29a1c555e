package transport

import (
	"io"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sweeney/midi-bridge/internal/logic"
)

// pollUntil polls s until n messages arrived or a second passed.
func pollUntil(t *testing.T, s Source, n int) []logic.Message {
	t.Helper()
	var got []logic.Message
	deadline := time.Now().Add(time.Second)
	for len(got) < n && time.Now().Before(deadline) {
		got = append(got, s.Poll()...)
		time.Sleep(time.Millisecond)
	}
	return got
}

func TestSerialReceivesNotes(t *testing.T) {
	local, remote := net.Pipe()
	s := newSerial(local, DefaultQueueSize, zap.NewNop().Sugar())
	defer s.Close()

	go remote.Write([]byte{0x90, 61, 100, 61, 0, 0xc0, 2, 0x80, 62, 0})

	got := pollUntil(t, s, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	want := []logic.Message{
		{Kind: logic.MsgNoteOn, Channel: 1, Note: 61, Velocity: 100},
		{Kind: logic.MsgNoteOn, Channel: 1, Note: 61, Velocity: 0},
		{Kind: logic.MsgNoteOff, Channel: 1, Note: 62, Velocity: 0},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	if extra := s.Poll(); len(extra) != 0 {
		t.Errorf("expected empty poll after drain, got %d", len(extra))
	}
}

func TestSerialSends(t *testing.T) {
	local, remote := net.Pipe()
	s := newSerial(local, DefaultQueueSize, zap.NewNop().Sugar())
	defer s.Close()

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 8)
		n, _ := io.ReadFull(remote, buf)
		got <- buf[:n]
	}()

	if err := s.SendNoteOn(1, 60, 110); err != nil {
		t.Fatalf("SendNoteOn: %v", err)
	}
	if err := s.SendNoteOff(1, 60, 0); err != nil {
		t.Fatalf("SendNoteOff: %v", err)
	}
	if err := s.SendProgramChange(1, 3); err != nil {
		t.Fatalf("SendProgramChange: %v", err)
	}

	want := []byte{0x90, 60, 110, 0x80, 60, 0, 0xc0, 3}
	select {
	case b := <-got:
		if string(b) != string(want) {
			t.Errorf("wire bytes: got % x, want % x", b, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out reading wire bytes")
	}
}

func TestSerialSendBadChannel(t *testing.T) {
	local, _ := net.Pipe()
	s := newSerial(local, DefaultQueueSize, zap.NewNop().Sugar())
	defer s.Close()

	if err := s.SendNoteOn(0, 60, 1); err == nil {
		t.Error("expected error for channel 0")
	}
}

func TestSerialCloseIdempotent(t *testing.T) {
	local, _ := net.Pipe()
	s := newSerial(local, DefaultQueueSize, zap.NewNop().Sugar())

	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if s.Name() != "serial" {
		t.Errorf("name: got %q", s.Name())
	}
}

func TestInboxOverflowWarnsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	in := newInbox("test", 2, zap.New(core).Sugar())

	for i := 0; i < 5; i++ {
		in.push(logic.Message{Kind: logic.MsgNoteOn, Channel: 1, Note: uint8(60 + i), Velocity: 1})
	}

	if n := logs.FilterMessage("inbound queue full, dropping oldest").Len(); n != 1 {
		t.Errorf("expected 1 overflow warning, got %d", n)
	}

	got := in.drain()
	if len(got) != 2 || got[0].Note != 63 || got[1].Note != 64 {
		t.Errorf("expected notes 63,64, got %+v", got)
	}
}
