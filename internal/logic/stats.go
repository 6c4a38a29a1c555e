package logic

import "time"

// Stats counts bridge events and schedules heartbeats.
type Stats struct {
	startTime     time.Time
	lastHeartbeat time.Time
	counts        EventCounts
}

// NewStats creates a Stats. The startTime is used for uptime in heartbeats.
func NewStats(startTime time.Time) *Stats {
	return &Stats{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Record counts one event.
func (s *Stats) Record(e Event) {
	switch e.Type {
	case EventSent:
		s.counts.Sent++
		if e.Edge == EdgeActivated {
			s.counts.Activated++
		} else {
			s.counts.Deactivated++
		}
	case EventReceived:
		s.counts.Received++
	case EventIgnored:
		s.counts.Ignored++
	}
}

// RecordEdge counts an edge that produced no message (deactivation in
// program change mode).
func (s *Stats) RecordEdge(edge Edge) {
	if edge == EdgeActivated {
		s.counts.Activated++
	} else {
		s.counts.Deactivated++
	}
}

// Counts returns a copy of the counters.
func (s *Stats) Counts() EventCounts {
	return s.counts
}

// StartTime returns the time passed to NewStats.
func (s *Stats) StartTime() time.Time {
	return s.startTime
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (s *Stats) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(s.lastHeartbeat) < interval {
		return nil
	}

	s.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(s.startTime),
		Counts:    s.counts,
	}
}
