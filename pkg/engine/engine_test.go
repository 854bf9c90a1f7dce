package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/yaJ17/FootTraffic-Analyzer/pkg/detect"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/export"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/stream"
)

// fakeSource emits pre-built frames with fixed timestamps, then fails.
type fakeSource struct {
	frames []stream.Frame
	pos    int
}

func (s *fakeSource) Open(context.Context) error { return nil }

func (s *fakeSource) Info() stream.SourceInfo {
	return stream.SourceInfo{FPS: 15, Width: 640, Height: 480}
}

func (s *fakeSource) Read() (stream.Frame, error) {
	if s.pos >= len(s.frames) {
		return stream.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *fakeSource) Release() error { return nil }

// fakeDetector returns scripted detections keyed by frame timestamp.
type fakeDetector struct {
	mu     sync.Mutex
	byTime map[time.Time][]detect.Detection
	errAt  map[time.Time]error
	calls  int
	closed bool
}

func (d *fakeDetector) DetectAndTrack(_ []byte, now time.Time) ([]detect.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if err := d.errAt[now]; err != nil {
		return nil, err
	}
	return d.byTime[now], nil
}

func (d *fakeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// memorySink records writes.
type memorySink struct {
	mu      sync.Mutex
	records []export.Stats
}

func (m *memorySink) Write(_ context.Context, s export.Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, s)
	return nil
}

func (m *memorySink) all() []export.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]export.Stats, len(m.records))
	copy(out, m.records)
	return out
}

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.ReconnectDelay = time.Millisecond
	cfg.MaxReconnectAttempts = 0
	cfg.MaxConsecutiveFailures = 0
	cfg.ExportInterval = 3 * time.Second
	return cfg
}

// frameAt builds a 640x480 frame with a fixed timestamp.
func frameAt(ts time.Time) stream.Frame {
	return stream.Frame{JPEG: []byte{0xff, 0xd8}, Width: 640, Height: 480, Timestamp: ts}
}

// inside returns a detection in the center of a 640x480 frame (region with
// margin 0.2 spans 128..512 x 96..384).
func inside(id int, ts time.Time) detect.Detection {
	return detect.Detection{TrackID: id, CenterX: 320, CenterY: 240, Confidence: 0.9, Timestamp: ts}
}

func TestEngine_EndToEnd(t *testing.T) {
	t0 := time.Unix(5000, 0)
	times := []time.Time{
		t0,
		t0.Add(2 * time.Second),
		t0.Add(4 * time.Second),
		t0.Add(7 * time.Second),
	}

	frames := make([]stream.Frame, 0, len(times))
	for _, ts := range times {
		frames = append(frames, frameAt(ts))
	}

	det := &fakeDetector{byTime: map[time.Time][]detect.Detection{
		times[0]: {inside(1, times[0])},
		times[1]: {inside(1, times[1])},
		times[2]: {inside(1, times[2])},
		times[3]: {}, // track 1 left
	}}

	sink := &memorySink{}
	eng := New("s1", "Divisoria", &fakeSource{frames: frames}, det, []export.Sink{sink}, testEngineConfig())

	err := eng.Run(context.Background())
	var exhausted *stream.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Run = %v, want ExhaustedError once the source dies", err)
	}

	// Give the dispatcher a moment to drain.
	deadline := time.Now().Add(time.Second)
	for len(sink.all()) < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// Exports land at t0, t0+4 and t0+7 (3s interval); t0+2 is inside
	// the cooldown window.
	records := sink.all()
	if len(records) != 3 {
		t.Fatalf("got %d exports, want 3", len(records))
	}
	first := records[0]
	if first.PeopleCount != 1 || first.Location != "Divisoria" || first.StreamID != "s1" {
		t.Errorf("first export = %+v", first)
	}

	// After the exit at t0+7 the track dwelled 7s: average is zeroed with
	// the region empty, the peak is retained.
	last := records[len(records)-1]
	if last.PeopleCount != 0 {
		t.Errorf("last export count = %d, want 0", last.PeopleCount)
	}
	if last.AvgDwellSeconds != 0 {
		t.Errorf("last export avg = %v, want 0", last.AvgDwellSeconds)
	}
	if last.PeakDwellSeconds != 7 {
		t.Errorf("last export peak = %v, want 7", last.PeakDwellSeconds)
	}

	// Terminal state is visible with the error reason.
	stats := eng.CurrentStats()
	if stats.Status != StatusTerminated {
		t.Errorf("status = %q, want terminated", stats.Status)
	}
	if stats.Error == "" {
		t.Error("terminated stream reports no error reason")
	}
	if !det.closed {
		t.Error("detector not closed on shutdown")
	}
}

func TestEngine_DetectorFailureDoesNotCloseSessions(t *testing.T) {
	t0 := time.Unix(5000, 0)
	times := []time.Time{t0, t0.Add(time.Second), t0.Add(2 * time.Second)}

	frames := make([]stream.Frame, 0, len(times))
	for _, ts := range times {
		frames = append(frames, frameAt(ts))
	}

	det := &fakeDetector{
		byTime: map[time.Time][]detect.Detection{
			times[0]: {inside(9, times[0])},
			times[2]: {inside(9, times[2])},
		},
		errAt: map[time.Time]error{
			times[1]: errors.New("model hiccup"),
		},
	}

	eng := New("s1", "Divisoria", &fakeSource{frames: frames}, det, nil, testEngineConfig())
	eng.Run(context.Background())

	// The glitch frame must not have produced a false exit: the session
	// stayed open from t0 through t0+2.
	stats := eng.CurrentStats()
	if stats.PeopleCount != 1 {
		t.Errorf("PeopleCount = %d, want 1 (session survived the detector glitch)", stats.PeopleCount)
	}
	if stats.AvgDwellSeconds != 2 {
		t.Errorf("AvgDwellSeconds = %v, want 2", stats.AvgDwellSeconds)
	}
}

func TestEngine_SkippedFramesNeverReachDetector(t *testing.T) {
	t0 := time.Unix(5000, 0)

	// 30fps source, 15fps target: frames f1..f4, only f2 and f4 processed.
	src := &fakeSource{}
	for i := 0; i < 4; i++ {
		src.frames = append(src.frames, frameAt(t0.Add(time.Duration(i)*33*time.Millisecond)))
	}
	fps30 := &fps30Source{fakeSource: src}

	det := &fakeDetector{}
	cfg := testEngineConfig()
	eng := New("s1", "Divisoria", fps30, det, nil, cfg)
	eng.Run(context.Background())

	if det.calls != 2 {
		t.Errorf("detector calls = %d, want 2 (skip stride 2)", det.calls)
	}
}

// fps30Source overrides the reported FPS to exercise frame skip.
type fps30Source struct {
	*fakeSource
}

func (s *fps30Source) Info() stream.SourceInfo {
	return stream.SourceInfo{FPS: 30, Width: 640, Height: 480}
}

func TestEngine_OnFrameSeesEveryFrame(t *testing.T) {
	t0 := time.Unix(5000, 0)
	src := &fakeSource{}
	for i := 0; i < 4; i++ {
		src.frames = append(src.frames, frameAt(t0.Add(time.Duration(i)*time.Second)))
	}

	var mu sync.Mutex
	seen := 0
	eng := New("s1", "Divisoria", src, &fakeDetector{}, nil, testEngineConfig())
	eng.SetOnFrame(func(stream.Frame) {
		mu.Lock()
		seen++
		mu.Unlock()
	})
	eng.Run(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if seen != 4 {
		t.Errorf("OnFrame saw %d frames, want 4", seen)
	}
}
