package mqtt

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sweeney/midi-bridge/internal/logic"
	"github.com/sweeney/midi-bridge/internal/queue"
)

// DefaultAsyncQueueSize is how many events Async holds for its worker.
const DefaultAsyncQueueSize = 256

// asyncItem is one queued publish; exactly one field is set.
type asyncItem struct {
	event  *logic.Event
	system *SystemEvent
}

// Async hands events to a single worker goroutine so a slow broker never
// delays the caller. Events are published in the order they were queued.
// When the queue is full the oldest event is dropped.
type Async struct {
	inner Publisher
	log   *zap.SugaredLogger

	mu      sync.Mutex
	pending *queue.Ring[asyncItem]

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewAsync starts a worker publishing to inner.
func NewAsync(inner Publisher, capacity int, log *zap.SugaredLogger) *Async {
	a := &Async{
		inner:   inner,
		log:     log,
		pending: queue.NewRing[asyncItem](capacity),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish queues a bridge event. It never blocks on the broker.
func (a *Async) Publish(event logic.Event) error {
	a.enqueue(asyncItem{event: &event})
	return nil
}

// PublishSystem queues a system event. It never blocks on the broker.
func (a *Async) PublishSystem(event SystemEvent) error {
	a.enqueue(asyncItem{system: &event})
	return nil
}

func (a *Async) enqueue(item asyncItem) {
	a.mu.Lock()
	first := a.pending.Push(item)
	a.mu.Unlock()
	if first {
		a.log.Warnw("telemetry queue full, dropping oldest")
	}

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Async) run() {
	defer close(a.done)
	for {
		select {
		case <-a.wake:
			a.drain()
		case <-a.quit:
			a.drain()
			return
		}
	}
}

func (a *Async) drain() {
	a.mu.Lock()
	items := a.pending.DrainAll()
	a.mu.Unlock()

	for _, item := range items {
		var err error
		if item.event != nil {
			err = a.inner.Publish(*item.event)
		} else {
			err = a.inner.PublishSystem(*item.system)
		}
		if err != nil {
			a.log.Warnw("publish error", "err", err)
		}
	}
}

// IsConnected reports the inner publisher's connection state, or false if
// it cannot tell.
func (a *Async) IsConnected() bool {
	if cs, ok := a.inner.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Close publishes everything still queued, stops the worker and closes the
// inner publisher. Later calls return the first result.
func (a *Async) Close() error {
	a.closeOnce.Do(func() {
		close(a.quit)
		<-a.done
		a.closeErr = a.inner.Close()
	})
	return a.closeErr
}
