// Package detect provides person detection and short-horizon track identity
// assignment for the dwell engine.
package detect

import "time"

// Box is a raw person detection in frame pixel space, before any track
// identity has been assigned.
type Box struct {
	X, Y       float64 // Top-left corner
	W, H       float64 // Width and height
	Confidence float64 // Detection confidence (0-1)
}

// Center returns the center point of the bounding box.
func (b Box) Center() (x, y float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Area returns the area of the bounding box.
func (b Box) Area() float64 {
	return b.W * b.H
}

// Detection is one tracked person observation for a single frame.
// TrackID is stable only within one continuous tracking run; values <= 0
// mean the observation could not be attributed to a track.
type Detection struct {
	TrackID    int
	CenterX    float64
	CenterY    float64
	Confidence float64
	Timestamp  time.Time
}

// Detector finds people in an encoded frame.
type Detector interface {
	// Detect finds person bounding boxes in the JPEG image.
	Detect(jpeg []byte) ([]Box, error)

	// Close releases resources.
	Close() error
}
