// Package engine wires one video stream's resilience controller, detector
// and dwell tracker into a running pipeline, and manages the set of running
// pipelines.
package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/yaJ17/FootTraffic-Analyzer/internal/log"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/detect"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/dwell"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/export"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/region"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/stream"
)

// DetectorTracker produces per-frame tracked detections. Implementations
// may fail per frame; a failure never unwinds the pipeline.
type DetectorTracker interface {
	DetectAndTrack(jpeg []byte, now time.Time) ([]detect.Detection, error)
}

// Status is the lifecycle state of an engine.
type Status string

const (
	// StatusRunning means the pipeline is processing frames (including
	// while the controller is reconnecting).
	StatusRunning Status = "running"

	// StatusStopped means the pipeline was stopped by request.
	StatusStopped Status = "stopped"

	// StatusTerminated means the stream died after exhausting reconnects.
	StatusTerminated Status = "terminated"
)

// StreamStats is the externally visible state of one stream: the latest
// occupancy statistics plus lifecycle status.
type StreamStats struct {
	export.Stats
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Engine runs one stream's pipeline: controller frames in, detections
// through the dwell tracker, statistics out on the export cadence.
//
// All frame processing happens on the single Run goroutine, preserving
// arrival order; the dwell tracker's own mutex makes CurrentStats safe to
// call concurrently.
type Engine struct {
	id       string
	location string
	cfg      Config

	controller *stream.Controller
	detector   DetectorTracker
	tracker    *dwell.Tracker
	scheduler  *export.Scheduler
	dispatcher *export.Dispatcher

	mu       sync.Mutex
	onFrame  func(stream.Frame)
	status   Status
	lastErr  error
	lastSnap dwell.Snapshot
	frameW   int
	frameH   int
}

// New creates an engine for one stream. The source is owned by the engine
// from this point on.
func New(id, location string, source stream.Source, detector DetectorTracker, sinks []export.Sink, cfg Config) *Engine {
	return &Engine{
		id:         id,
		location:   location,
		cfg:        cfg,
		controller: stream.NewController(source, cfg.controllerConfig()),
		detector:   detector,
		tracker:    dwell.NewTracker(region.Region{}),
		scheduler:  export.NewScheduler(cfg.ExportInterval),
		dispatcher: export.NewDispatcher(sinks, cfg.ExportQueue),
		status:     StatusRunning,
	}
}

// Run drives the pipeline until ctx is cancelled or the stream terminates.
// It returns the terminal stream error, or nil when stopped by request.
func (e *Engine) Run(ctx context.Context) error {
	log.Info("engine starting", "stream", e.id, "location", e.location)

	go e.dispatcher.Run(ctx)

	ctrlDone := make(chan error, 1)
	go func() { ctrlDone <- e.controller.Run(ctx) }()

	for frame := range e.controller.Frames() {
		e.handleFrame(frame)
	}

	err := <-ctrlDone
	if closer, ok := e.detector.(io.Closer); ok {
		closer.Close()
	}

	if err != nil {
		e.setStatus(StatusTerminated, err)
		log.Error("engine terminated", "stream", e.id, "error", err)
		return err
	}
	e.setStatus(StatusStopped, nil)
	log.Info("engine stopped", "stream", e.id)
	return nil
}

// handleFrame processes one delivered frame. Skipped and repeated frames
// are display-only: they never touch dwell state, so frame skip provably
// cannot bias the duration math.
func (e *Engine) handleFrame(frame stream.Frame) {
	e.mu.Lock()
	onFrame := e.onFrame
	e.mu.Unlock()
	if onFrame != nil {
		onFrame(frame)
	}
	if !frame.Process {
		return
	}

	e.ensureRegion(frame)

	now := frame.Timestamp
	dets, err := e.detector.DetectAndTrack(frame.JPEG, now)
	if err != nil {
		// A detector failure is one lost frame, not an exit event:
		// updating with no detections would close every active session.
		log.Warn("detection failed, frame dropped", "stream", e.id, "seq", frame.Seq, "error", err)
		return
	}

	e.tracker.Update(dets, now)
	snap := e.tracker.Snapshot(now)

	e.mu.Lock()
	e.lastSnap = snap
	e.mu.Unlock()

	if e.scheduler.ShouldExport(now) {
		e.dispatcher.Enqueue(export.NewStats(e.id, e.location, snap))
		e.scheduler.MarkExported(now)
	}
}

// ensureRegion computes the counting region from the frame dimensions,
// once per connection and again if a reconnect changes the geometry.
func (e *Engine) ensureRegion(frame stream.Frame) {
	e.mu.Lock()
	changed := frame.Width != e.frameW || frame.Height != e.frameH
	if changed {
		e.frameW = frame.Width
		e.frameH = frame.Height
	}
	e.mu.Unlock()

	if changed {
		zone := region.FromFrame(frame.Width, frame.Height, e.cfg.RegionMargin)
		e.tracker.SetRegion(zone)
		log.Info("counting region set", "stream", e.id,
			"x1", zone.X1, "y1", zone.Y1, "x2", zone.X2, "y2", zone.Y2)
	}
}

// CurrentStats returns a point-in-time view of the stream. Safe to call
// concurrently with the processing loop.
func (e *Engine) CurrentStats() StreamStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := StreamStats{
		Stats:  export.NewStats(e.id, e.location, e.lastSnap),
		Status: e.status,
	}
	if e.lastErr != nil {
		s.Error = e.lastErr.Error()
	}
	return s
}

// SetOnFrame installs a callback that receives every delivered frame,
// including skipped and repeated ones, for display purposes. Safe to call
// while the engine is running.
func (e *Engine) SetOnFrame(fn func(stream.Frame)) {
	e.mu.Lock()
	e.onFrame = fn
	e.mu.Unlock()
}

// StreamState returns the underlying connection state.
func (e *Engine) StreamState() stream.State {
	return e.controller.State()
}

func (e *Engine) setStatus(status Status, err error) {
	e.mu.Lock()
	e.status = status
	e.lastErr = err
	e.mu.Unlock()
}
