package detect

import (
	"testing"
	"time"
)

func TestCentroidTracker_StableIDs(t *testing.T) {
	tr := NewCentroidTracker(50, time.Second)
	t0 := time.Now()

	// One person at (100, 100)
	dets := tr.Assign([]Box{{X: 90, Y: 90, W: 20, H: 20, Confidence: 0.9}}, t0)
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1", len(dets))
	}
	id := dets[0].TrackID
	if id <= 0 {
		t.Fatalf("track ID = %d, want > 0", id)
	}

	// Same person moved slightly: same ID
	dets = tr.Assign([]Box{{X: 100, Y: 95, W: 20, H: 20, Confidence: 0.9}}, t0.Add(100*time.Millisecond))
	if dets[0].TrackID != id {
		t.Errorf("moved person got ID %d, want %d", dets[0].TrackID, id)
	}

	// A second person far away: new ID
	dets = tr.Assign([]Box{
		{X: 100, Y: 95, W: 20, H: 20, Confidence: 0.9},
		{X: 400, Y: 400, W: 20, H: 20, Confidence: 0.8},
	}, t0.Add(200*time.Millisecond))
	if len(dets) != 2 {
		t.Fatalf("got %d detections, want 2", len(dets))
	}
	if dets[0].TrackID != id {
		t.Errorf("first person got ID %d, want %d", dets[0].TrackID, id)
	}
	if dets[1].TrackID == id {
		t.Error("second person reused the first person's ID")
	}
}

func TestCentroidTracker_OneBoxPerTrack(t *testing.T) {
	tr := NewCentroidTracker(50, time.Second)
	t0 := time.Now()

	tr.Assign([]Box{{X: 90, Y: 90, W: 20, H: 20}}, t0)

	// Two boxes both near the existing track: only one may claim it.
	dets := tr.Assign([]Box{
		{X: 92, Y: 90, W: 20, H: 20},
		{X: 95, Y: 95, W: 20, H: 20},
	}, t0.Add(50*time.Millisecond))

	if dets[0].TrackID == dets[1].TrackID {
		t.Errorf("both boxes got ID %d; a track may be claimed once per frame", dets[0].TrackID)
	}
}

func TestCentroidTracker_Timeout(t *testing.T) {
	tr := NewCentroidTracker(50, time.Second)
	t0 := time.Now()

	dets := tr.Assign([]Box{{X: 90, Y: 90, W: 20, H: 20}}, t0)
	id := dets[0].TrackID

	// Reappearing at the same spot after the timeout is a new identity:
	// the tracker cannot know it is the same person.
	dets = tr.Assign([]Box{{X: 90, Y: 90, W: 20, H: 20}}, t0.Add(2*time.Second))
	if dets[0].TrackID == id {
		t.Errorf("track ID %d survived past the timeout", id)
	}
	if tr.ActiveTracks() != 1 {
		t.Errorf("ActiveTracks = %d, want 1", tr.ActiveTracks())
	}
}

func TestCentroidTracker_Reset(t *testing.T) {
	tr := NewCentroidTracker(50, time.Second)
	t0 := time.Now()

	dets := tr.Assign([]Box{{X: 90, Y: 90, W: 20, H: 20}}, t0)
	first := dets[0].TrackID

	tr.Reset()
	if tr.ActiveTracks() != 0 {
		t.Errorf("ActiveTracks after Reset = %d, want 0", tr.ActiveTracks())
	}

	// IDs do not restart after a reset.
	dets = tr.Assign([]Box{{X: 90, Y: 90, W: 20, H: 20}}, t0.Add(time.Millisecond))
	if dets[0].TrackID <= first {
		t.Errorf("post-reset ID %d not greater than pre-reset ID %d", dets[0].TrackID, first)
	}
}

func TestBoxCenter(t *testing.T) {
	b := Box{X: 10, Y: 20, W: 30, H: 40}
	x, y := b.Center()
	if x != 25 || y != 40 {
		t.Errorf("Center() = (%v, %v), want (25, 40)", x, y)
	}
	if b.Area() != 1200 {
		t.Errorf("Area() = %v, want 1200", b.Area())
	}
}
