// Package dwell maintains per-track dwell sessions for a counting region and
// derives live occupancy statistics from them.
package dwell

import "time"

// Session is the dwell history of one track ID. A session holds at most one
// open interval; completed intervals accumulate in closed order.
type Session struct {
	startTime time.Time
	active    bool
	closed    []time.Duration
}

// Active reports whether the track is currently inside the region.
func (s *Session) Active() bool {
	return s.active
}

// StartTime returns the start of the open interval. Only meaningful while
// the session is active.
func (s *Session) StartTime() time.Time {
	return s.startTime
}

// Closed returns the completed inside-intervals, oldest first.
func (s *Session) Closed() []time.Duration {
	out := make([]time.Duration, len(s.closed))
	copy(out, s.closed)
	return out
}

// open starts a new interval at now. Opening an already-active session is a
// no-op: the existing interval continues.
func (s *Session) open(now time.Time) {
	if s.active {
		return
	}
	s.active = true
	s.startTime = now
}

// close ends the open interval at now, appending its duration to the closed
// history. Closing an inactive session is a no-op.
func (s *Session) close(now time.Time) {
	if !s.active {
		return
	}
	s.closed = append(s.closed, now.Sub(s.startTime))
	s.active = false
}

// elapsed returns the in-progress duration at now. Zero for inactive sessions.
func (s *Session) elapsed(now time.Time) time.Duration {
	if !s.active {
		return 0
	}
	return now.Sub(s.startTime)
}
