package logic

import "time"

// Debounce advances one input's state with a new raw sample.
// It returns true when the stable level changed on this call. Every raw
// change restarts the window, so an input that keeps bouncing never commits.
func Debounce(s *InputState, raw bool, now time.Time, interval time.Duration) bool {
	if raw != s.RawLastRead {
		s.LastChange = now
		s.RawLastRead = raw
	}

	if now.Sub(s.LastChange) >= interval && s.RawLastRead != s.StableLevel {
		s.StableLevel = s.RawLastRead
		return true
	}
	return false
}

// Debouncer owns the per-channel input state and classifies committed
// changes as edges according to the input polarity.
type Debouncer struct {
	interval    time.Duration
	activeLevel bool
	inputs      [NumChannels]InputState
}

// NewDebouncer creates a debouncer with every input at its inactive level.
func NewDebouncer(interval time.Duration, activeLevel bool) *Debouncer {
	d := &Debouncer{
		interval:    interval,
		activeLevel: activeLevel,
	}
	for i := range d.inputs {
		d.inputs[i].RawLastRead = !activeLevel
		d.inputs[i].StableLevel = !activeLevel
	}
	return d
}

// Process feeds one raw sample for channel index and returns the confirmed
// edge, if any. At most one edge per channel per call.
func (d *Debouncer) Process(index int, raw bool, now time.Time) (Edge, bool) {
	s := &d.inputs[index]
	if !Debounce(s, raw, now, d.interval) {
		return "", false
	}
	if s.StableLevel == d.activeLevel {
		return EdgeActivated, true
	}
	return EdgeDeactivated, true
}

// State returns a copy of the state for channel index.
func (d *Debouncer) State(index int) InputState {
	return d.inputs[index]
}

// Active reports whether channel index is currently debounced as active.
func (d *Debouncer) Active(index int) bool {
	return d.inputs[index].StableLevel == d.activeLevel
}
