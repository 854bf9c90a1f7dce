package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yaJ17/FootTraffic-Analyzer/pkg/export"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/stream"
)

// Registry errors.
var (
	// ErrUnknownStream is returned for operations on a stream ID that
	// was never started or has been stopped and removed.
	ErrUnknownStream = errors.New("engine: unknown stream")

	// ErrStreamExists is returned when starting a stream ID that is
	// already running.
	ErrStreamExists = errors.New("engine: stream already running")
)

// SourceFactory builds a frame source for a source identifier (file path,
// device index or URL).
type SourceFactory func(identifier string) stream.Source

// DetectorFactory builds a fresh detector/tracker for a new stream. Each
// stream gets its own instance: track identities must never be shared
// across streams.
type DetectorFactory func() (DetectorTracker, error)

// Registry owns the running engines, keyed by stream ID. There is no other
// shared state between streams.
type Registry struct {
	newSource   SourceFactory
	newDetector DetectorFactory

	mu      sync.Mutex
	sinks   []export.Sink
	streams map[string]*runningStream
}

type runningStream struct {
	engine *Engine
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates a registry using the given factories and export sinks.
func NewRegistry(newSource SourceFactory, newDetector DetectorFactory, sinks []export.Sink) *Registry {
	return &Registry{
		newSource:   newSource,
		newDetector: newDetector,
		sinks:       sinks,
		streams:     make(map[string]*runningStream),
	}
}

// AddSink registers an additional sink for streams started after this call.
func (r *Registry) AddSink(s export.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Start launches a new stream pipeline and returns its ID. An empty id gets
// a generated UUID. Starting an ID that is already running is an error; a
// stopped or terminated stream with the same ID is replaced.
func (r *Registry) Start(id, identifier, location string, cfg Config) (string, error) {
	if problems := cfg.Validate(); len(problems) > 0 {
		return "", fmt.Errorf("engine: invalid config: %v", problems)
	}
	if id == "" {
		id = uuid.NewString()
	}

	detector, err := r.newDetector()
	if err != nil {
		return "", fmt.Errorf("engine: create detector: %w", err)
	}

	r.mu.Lock()
	if rs, ok := r.streams[id]; ok {
		if rs.engine.CurrentStats().Status == StatusRunning {
			r.mu.Unlock()
			return "", fmt.Errorf("%w: %s", ErrStreamExists, id)
		}
		// Replace a dead stream: make sure the old pipeline is gone.
		rs.cancel()
		<-rs.done
	}

	eng := New(id, location, r.newSource(identifier), detector, r.sinks, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	rs := &runningStream{engine: eng, cancel: cancel, done: make(chan struct{})}
	r.streams[id] = rs
	r.mu.Unlock()

	go func() {
		defer close(rs.done)
		eng.Run(ctx)
	}()

	return id, nil
}

// Stop halts a stream and discards its engine state. Stopping an unknown or
// already-stopped stream is a no-op, so Stop is idempotent.
func (r *Registry) Stop(id string) error {
	r.mu.Lock()
	rs, ok := r.streams[id]
	if ok {
		delete(r.streams, id)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	rs.cancel()
	<-rs.done
	return nil
}

// Stats returns the current statistics for a stream.
func (r *Registry) Stats(id string) (StreamStats, error) {
	r.mu.Lock()
	rs, ok := r.streams[id]
	r.mu.Unlock()

	if !ok {
		return StreamStats{}, fmt.Errorf("%w: %s", ErrUnknownStream, id)
	}
	return rs.engine.CurrentStats(), nil
}

// Engine returns the running engine for a stream, for wiring display
// callbacks before frames start flowing.
func (r *Registry) Engine(id string) (*Engine, error) {
	r.mu.Lock()
	rs, ok := r.streams[id]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStream, id)
	}
	return rs.engine, nil
}

// List returns the stats of all known streams, ordered by stream ID.
func (r *Registry) List() []StreamStats {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.streams))
	for _, rs := range r.streams {
		engines = append(engines, rs.engine)
	}
	r.mu.Unlock()

	out := make([]StreamStats, 0, len(engines))
	for _, e := range engines {
		out = append(out, e.CurrentStats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StreamID < out[j].StreamID })
	return out
}

// StopAll stops every stream, for shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	streams := r.streams
	r.streams = make(map[string]*runningStream)
	r.mu.Unlock()

	for _, rs := range streams {
		rs.cancel()
		<-rs.done
	}
}
