package dwell

import (
	"sync"
	"time"

	"github.com/yaJ17/FootTraffic-Analyzer/internal/log"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/detect"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/region"
)

// Snapshot is a point-in-time view of the occupancy statistics.
type Snapshot struct {
	// PeopleCount is the number of tracks currently inside the region.
	PeopleCount int

	// AvgDwellSeconds averages all completed intervals plus the in-progress
	// interval of every active session. Forced to zero whenever PeopleCount
	// is zero, so the live average reflects present occupancy rather than
	// history.
	AvgDwellSeconds float64

	// PeakDwellSeconds is the longest dwell interval observed over the
	// tracker's lifetime. Unlike the average it is retained when the region
	// empties, and never decreases until Reset.
	PeakDwellSeconds float64

	// Timestamp is the "now" the snapshot was computed against.
	Timestamp time.Time
}

// Tracker owns the per-track session table for one stream. All methods are
// safe for concurrent use; Update, Snapshot and Reset are serialized by a
// single mutex so no caller can observe a half-applied transition.
type Tracker struct {
	mu       sync.Mutex
	zone     region.Region
	sessions map[int]*Session
	peak     time.Duration
}

// NewTracker creates a dwell tracker for the given counting region.
func NewTracker(zone region.Region) *Tracker {
	return &Tracker{
		zone:     zone,
		sessions: make(map[int]*Session),
	}
}

// SetRegion replaces the counting region, e.g. when a reconnect changes the
// frame dimensions. Session history is kept.
func (t *Tracker) SetRegion(zone region.Region) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.zone = zone
}

// Region returns the current counting region.
func (t *Tracker) Region() region.Region {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zone
}

// Update applies one processed frame's detections at time now.
//
// Tracks whose center lies inside the region get a session opened (first
// sighting), reopened (re-entry after an exit) or continued. Active sessions
// whose track is absent from the inside set are closed, completing the
// interval. Detections without a usable track ID are skipped, never an error.
// Sessions are kept for the lifetime of the tracker; only Reset drops them.
func (t *Tracker) Update(dets []detect.Detection, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inside := make(map[int]bool, len(dets))
	for _, d := range dets {
		if d.TrackID <= 0 {
			log.Debug("skipping detection without track id",
				"x", d.CenterX, "y", d.CenterY, "confidence", d.Confidence)
			continue
		}
		if t.zone.Contains(d.CenterX, d.CenterY) {
			inside[d.TrackID] = true
		}
	}

	for id := range inside {
		s, ok := t.sessions[id]
		if !ok {
			s = &Session{}
			t.sessions[id] = s
		}
		s.open(now)
	}

	for id, s := range t.sessions {
		if s.active && !inside[id] {
			s.close(now)
			if d := s.closed[len(s.closed)-1]; d > t.peak {
				t.peak = d
			}
		}
	}
}

// Snapshot derives the live statistics at time now.
func (t *Tracker) Snapshot(now time.Time) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	var total time.Duration
	samples := 0

	for _, s := range t.sessions {
		for _, d := range s.closed {
			total += d
			samples++
		}
		if s.active {
			count++
			d := s.elapsed(now)
			total += d
			samples++
			if d > t.peak {
				t.peak = d
			}
		}
	}

	avg := 0.0
	// The average is zeroed when nobody is present; the peak is not. The
	// asymmetry is deliberate: the average answers "how long are people
	// staying right now", the peak answers "what is the longest stay seen".
	if count > 0 && samples > 0 {
		avg = (total / time.Duration(samples)).Seconds()
	}

	return Snapshot{
		PeopleCount:      count,
		AvgDwellSeconds:  avg,
		PeakDwellSeconds: t.peak.Seconds(),
		Timestamp:        now,
	}
}

// SessionCount returns the total number of tracked sessions, active or not.
func (t *Tracker) SessionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Session returns a copy of the session for a track ID. The second return
// value is false if the track has never been seen inside the region.
func (t *Tracker) Session(trackID int) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[trackID]
	if !ok {
		return Session{}, false
	}
	out := Session{startTime: s.startTime, active: s.active}
	out.closed = append(out.closed, s.closed...)
	return out, true
}

// Reset discards all sessions and the lifetime peak. Atomic with respect to
// concurrent Update and Snapshot calls.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions = make(map[int]*Session)
	t.peak = 0
}
