// Package export rate-limits and delivers occupancy statistics to
// downstream sinks, decoupled from the detection frame rate.
package export

import (
	"context"
	"sync"
	"time"

	"github.com/yaJ17/FootTraffic-Analyzer/pkg/dwell"
)

// Stats is one exported statistics record. Immutable once constructed.
type Stats struct {
	StreamID         string    `json:"stream_id"`
	Location         string    `json:"location"`
	PeopleCount      int       `json:"people_count"`
	AvgDwellSeconds  float64   `json:"avg_dwell_time"`
	PeakDwellSeconds float64   `json:"highest_dwell_time"`
	Timestamp        time.Time `json:"timestamp"`

	// Display fields kept for dashboard and report consumers.
	Date string `json:"date"` // MM/DD/YYYY
	Day  string `json:"day"`  // Weekday name
	Time string `json:"time"` // HH:MM:SS
}

// NewStats builds a record from an occupancy snapshot.
func NewStats(streamID, location string, snap dwell.Snapshot) Stats {
	s := Stats{
		StreamID:         streamID,
		Location:         location,
		PeopleCount:      snap.PeopleCount,
		AvgDwellSeconds:  snap.AvgDwellSeconds,
		PeakDwellSeconds: snap.PeakDwellSeconds,
		Timestamp:        snap.Timestamp,
	}
	if !snap.Timestamp.IsZero() {
		s.Date = snap.Timestamp.Format("01/02/2006")
		s.Day = snap.Timestamp.Format("Monday")
		s.Time = snap.Timestamp.Format("15:04:05")
	}
	return s
}

// Sink receives exported statistics. Write failures are best-effort: the
// caller logs them and moves on, they never stop the pipeline.
type Sink interface {
	Write(ctx context.Context, s Stats) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, s Stats) error

// Write implements Sink.
func (f SinkFunc) Write(ctx context.Context, s Stats) error {
	return f(ctx, s)
}

// Scheduler is a monotonic cooldown gate between the frame loop and the
// sinks. ShouldExport returns true at most once per interval window,
// regardless of how often it is called.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewScheduler creates a scheduler with the given export interval.
// The first ShouldExport call after construction returns true.
func NewScheduler(interval time.Duration) *Scheduler {
	return &Scheduler{interval: interval}
}

// ShouldExport reports whether an export is due at time now.
func (s *Scheduler) ShouldExport(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.last) >= s.interval
}

// MarkExported records that an export happened at time now.
func (s *Scheduler) MarkExported(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = now
}
