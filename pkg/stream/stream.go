// Package stream pulls frames from an unreliable video source and presents
// a best-effort steady sequence of them to the detection stage.
package stream

import (
	"context"
	"time"
)

// Frame is one video frame as delivered to the pipeline.
type Frame struct {
	// JPEG is the encoded frame data.
	JPEG []byte

	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int

	// Seq is the controller-assigned sequence number. Re-emitted fallback
	// frames keep the sequence number of the original read.
	Seq uint64

	// Timestamp is the capture time of the frame.
	Timestamp time.Time

	// Process marks frames selected by the frame-skip policy for
	// detection. Frames with Process false may still be displayed but
	// must never reach the dwell tracker.
	Process bool

	// Repeated marks a last-known-good frame re-emitted to mask a read
	// failure. Repeated frames are never marked Process.
	Repeated bool
}

// SourceInfo describes an opened source.
type SourceInfo struct {
	FPS    float64
	Width  int
	Height int
}

// Source is a frame supplier: a video file, capture device or remote
// stream. Implementations need not be safe for concurrent use; the
// controller is the only caller.
type Source interface {
	// Open establishes the connection. It may be called again after
	// Release to reconnect.
	Open(ctx context.Context) error

	// Info reports source properties. Valid only after a successful Open.
	Info() SourceInfo

	// Read returns the next frame. Timestamp and Seq are assigned by the
	// controller; sources that know the true capture time may set
	// Timestamp themselves.
	Read() (Frame, error)

	// Release frees the source handle. Safe to call more than once.
	Release() error
}

// frameSkip computes the keep-every-Nth stride from the source frame rate
// and the target processing rate.
func frameSkip(sourceFPS float64, targetFPS int) uint64 {
	if sourceFPS <= 0 || targetFPS <= 0 {
		return 1
	}
	n := uint64(sourceFPS) / uint64(targetFPS)
	if n < 1 {
		return 1
	}
	return n
}
