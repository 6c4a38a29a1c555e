// Package status provides a thread-safe status tracker for the midi-bridge daemon.
// It is written by the main loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/midi-bridge/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs        int64
	DebounceMs    int64
	HeartbeatMs   int64
	MIDIChannel   uint8
	OnVelocity    uint8
	StrictChannel bool
	Transports    []string
	Broker        string
	HTTPAddr      string
	Channels      [logic.NumChannels]logic.Channel
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mode          logic.Mode
	Inputs        [logic.NumChannels]bool
	Outputs       [logic.NumChannels]bool
	Ready         bool
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets mode, channel states and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(mode logic.Mode, inputs, outputs [logic.NumChannels]bool, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Mode = mode
	t.snap.Inputs = inputs
	t.snap.Outputs = outputs
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetReady records whether the bridge finished initialisation.
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	t.snap.Ready = ready
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Config.Transports = append([]string(nil), s.Config.Transports...)
	s.Now = time.Now()
	return s
}
