package detect

import (
	"math"
	"time"
)

// track is the internal per-identity state of the centroid tracker.
type track struct {
	id       int
	centerX  float64
	centerY  float64
	lastSeen time.Time
}

// CentroidTracker assigns stable track IDs to detections by nearest-centroid
// matching between consecutive frames. IDs are unique within one tracker
// instance and are never reused.
type CentroidTracker struct {
	tracks      map[int]*track
	nextID      int
	maxDistance float64       // Max centroid distance to consider the same person
	timeout     time.Duration // Drop tracks not seen for this long
}

// NewCentroidTracker creates a tracker with the given matching distance in
// pixels and per-track timeout.
func NewCentroidTracker(maxDistance float64, timeout time.Duration) *CentroidTracker {
	return &CentroidTracker{
		tracks:      make(map[int]*track),
		maxDistance: maxDistance,
		timeout:     timeout,
	}
}

// DefaultCentroidTracker returns a tracker tuned for 640x480 pedestrian
// footage: 50px matching radius, 1s timeout.
func DefaultCentroidTracker() *CentroidTracker {
	return NewCentroidTracker(50, time.Second)
}

// Assign matches boxes against the known tracks and returns one Detection per
// box, each carrying a track ID. Unmatched boxes open new tracks. Tracks not
// seen for longer than the timeout are dropped first, so their IDs cannot be
// claimed by a newly appearing person.
func (c *CentroidTracker) Assign(boxes []Box, now time.Time) []Detection {
	c.evict(now)

	// Tracks matched in this frame; a track can claim at most one box.
	claimed := make(map[int]bool, len(c.tracks))
	dets := make([]Detection, 0, len(boxes))

	for _, box := range boxes {
		cx, cy := box.Center()

		bestID := 0
		bestDist := c.maxDistance
		for id, tr := range c.tracks {
			if claimed[id] {
				continue
			}
			dist := math.Hypot(cx-tr.centerX, cy-tr.centerY)
			if dist < bestDist {
				bestDist = dist
				bestID = id
			}
		}

		if bestID != 0 {
			tr := c.tracks[bestID]
			tr.centerX = cx
			tr.centerY = cy
			tr.lastSeen = now
			claimed[bestID] = true
		} else {
			c.nextID++
			bestID = c.nextID
			c.tracks[bestID] = &track{id: bestID, centerX: cx, centerY: cy, lastSeen: now}
			claimed[bestID] = true
		}

		dets = append(dets, Detection{
			TrackID:    bestID,
			CenterX:    cx,
			CenterY:    cy,
			Confidence: box.Confidence,
			Timestamp:  now,
		})
	}

	return dets
}

// ActiveTracks returns the number of tracks currently held.
func (c *CentroidTracker) ActiveTracks() int {
	return len(c.tracks)
}

// Reset drops all tracks. The ID counter is not reset, preserving ID
// uniqueness across resets within one tracker instance.
func (c *CentroidTracker) Reset() {
	c.tracks = make(map[int]*track)
}

func (c *CentroidTracker) evict(now time.Time) {
	for id, tr := range c.tracks {
		if now.Sub(tr.lastSeen) > c.timeout {
			delete(c.tracks, id)
		}
	}
}
