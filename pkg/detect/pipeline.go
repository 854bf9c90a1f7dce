package detect

import "time"

// Pipeline combines a person detector with the centroid tracker, producing
// per-frame detections with stable track IDs.
type Pipeline struct {
	detector Detector
	tracker  *CentroidTracker
}

// NewPipeline creates a detection pipeline from a detector and tracker.
func NewPipeline(detector Detector, tracker *CentroidTracker) *Pipeline {
	return &Pipeline{
		detector: detector,
		tracker:  tracker,
	}
}

// NewYOLOPipeline builds the standard pipeline: YOLO person detection with
// centroid identity assignment.
func NewYOLOPipeline(cfg YOLOConfig) (*Pipeline, error) {
	detector, err := NewPersonDetector(cfg)
	if err != nil {
		return nil, err
	}
	return NewPipeline(detector, DefaultCentroidTracker()), nil
}

// DetectAndTrack finds people in the frame and assigns track IDs.
// A detector error is per-frame: the tracker state is left untouched so a
// transient glitch cannot break identities.
func (p *Pipeline) DetectAndTrack(jpeg []byte, now time.Time) ([]Detection, error) {
	boxes, err := p.detector.Detect(jpeg)
	if err != nil {
		return nil, err
	}
	return p.tracker.Assign(boxes, now), nil
}

// Reset drops all track identities, e.g. on a stream restart.
func (p *Pipeline) Reset() {
	p.tracker.Reset()
}

// Close releases detector resources.
func (p *Pipeline) Close() error {
	return p.detector.Close()
}
