package mqtt

import (
	"sync"

	"github.com/sweeney/midi-bridge/internal/logic"
)

// FakePublisher records published events for test assertions. Recording is
// locked so a worker goroutine may publish while a test polls EventCount;
// the exported slices are only read once publishing has stopped.
type FakePublisher struct {
	mu sync.Mutex

	// Events and Payloads hold published bridge events and their JSON.
	Events   []logic.Event
	Payloads [][]byte

	// SystemEvents and SystemPayloads hold published system events and their JSON.
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError and PublishSystemError fail the matching call; nothing
	// is recorded.
	PublishError       error
	PublishSystemError error

	// Gate, if set, makes Publish wait for a receive or close before
	// recording, simulating a stalled broker.
	Gate chan struct{}

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the bridge event.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.Gate != nil {
		<-f.Gate
	}
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	f.mu.Unlock()
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	f.mu.Unlock()
	return nil
}

// EventCount returns how many bridge events were recorded so far.
func (f *FakePublisher) EventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Events)
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events and flags.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events, f.Payloads = nil, nil
	f.SystemEvents, f.SystemPayloads = nil, nil
	f.PublishError, f.PublishSystemError = nil, nil
	f.Gate = nil
	f.Closed, f.Connected = false, false
}
