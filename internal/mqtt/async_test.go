package mqtt

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sweeney/midi-bridge/internal/logic"
)

func sentEvent(index int) logic.Event {
	return logic.Event{
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:      logic.EventSent,
		Index:     index,
		Message:   logic.Message{Kind: logic.MsgNoteOn, Channel: 1, Note: uint8(60 + index), Velocity: 110},
	}
}

func TestAsyncPublishDoesNotWaitForBroker(t *testing.T) {
	f := NewFakePublisher()
	f.Gate = make(chan struct{})
	a := NewAsync(f, DefaultAsyncQueueSize, zap.NewNop().Sugar())

	start := time.Now()
	for i := 0; i < 4; i++ {
		if err := a.Publish(sentEvent(i % 4)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Publish blocked for %v with a stalled broker", elapsed)
	}
	if n := f.EventCount(); n != 0 {
		t.Errorf("expected nothing published while gated, got %d", n)
	}

	close(f.Gate)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(f.Events) != 4 {
		t.Fatalf("expected 4 events after Close, got %d", len(f.Events))
	}
	for i, e := range f.Events {
		if e.Index != i {
			t.Errorf("event %d: index %d, want publish order kept", i, e.Index)
		}
	}
}

func TestAsyncCloseFlushesSystemEvents(t *testing.T) {
	f := NewFakePublisher()
	a := NewAsync(f, DefaultAsyncQueueSize, zap.NewNop().Sugar())

	a.Publish(sentEvent(0))
	a.PublishSystem(SystemEvent{Event: "SHUTDOWN", Reason: "SIGTERM", Retained: true})
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(f.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(f.Events))
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN flushed on Close, got %+v", f.SystemEvents)
	}
	if !f.Closed {
		t.Error("expected inner publisher closed")
	}
}

func TestAsyncDropsOldestWhenFull(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := NewFakePublisher()
	f.Gate = make(chan struct{})
	a := NewAsync(f, 2, zap.New(core).Sugar())

	// Let the worker take the first event and stall on the gate.
	a.Publish(sentEvent(0))
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		a.mu.Lock()
		n := a.pending.Len()
		a.mu.Unlock()
		if n == 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	for i := 1; i < 4; i++ {
		a.Publish(sentEvent(i))
	}

	close(f.Gate)
	a.Close()

	var got []int
	for _, e := range f.Events {
		got = append(got, e.Index)
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 3 {
		t.Errorf("published indexes: got %v, want [0 2 3]", got)
	}
	if logs.FilterMessage("telemetry queue full, dropping oldest").Len() != 1 {
		t.Errorf("expected one overflow warning, got %d log lines", logs.Len())
	}
}

func TestAsyncLogsPublishErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := NewFakePublisher()
	f.PublishError = errors.New("broker unavailable")
	a := NewAsync(f, DefaultAsyncQueueSize, zap.New(core).Sugar())

	if err := a.Publish(sentEvent(0)); err != nil {
		t.Errorf("Publish should not surface broker errors, got %v", err)
	}
	a.Close()

	if logs.FilterMessage("publish error").Len() != 1 {
		t.Error("expected publish error to be logged")
	}
}

func TestAsyncIsConnected(t *testing.T) {
	f := NewFakePublisher()
	a := NewAsync(f, DefaultAsyncQueueSize, zap.NewNop().Sugar())
	defer a.Close()

	if a.IsConnected() {
		t.Error("expected disconnected")
	}
	f.Connected = true
	if !a.IsConnected() {
		t.Error("expected connected")
	}
}

func TestAsyncCloseTwice(t *testing.T) {
	f := NewFakePublisher()
	a := NewAsync(f, DefaultAsyncQueueSize, zap.NewNop().Sugar())

	if err := a.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
