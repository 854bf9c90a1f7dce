package stream

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"
)

// CaptureSource reads frames from a video file, capture device index or
// stream URL via OpenCV.
type CaptureSource struct {
	identifier string
	cap        *gocv.VideoCapture
	img        gocv.Mat
	info       SourceInfo
}

// NewCaptureSource creates a source for the given identifier. The identifier
// is passed to OpenCV as-is: a file path, an RTSP/HTTP URL, or a numeric
// device string such as "0".
func NewCaptureSource(identifier string) *CaptureSource {
	return &CaptureSource{identifier: identifier}
}

// Open implements Source.
func (s *CaptureSource) Open(_ context.Context) error {
	cap, err := gocv.OpenVideoCapture(s.identifier)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceOpen, s.identifier, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("%w: %s", ErrSourceOpen, s.identifier)
	}

	s.cap = cap
	s.img = gocv.NewMat()
	s.info = SourceInfo{
		FPS:    cap.Get(gocv.VideoCaptureFPS),
		Width:  int(cap.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(cap.Get(gocv.VideoCaptureFrameHeight)),
	}
	return nil
}

// Info implements Source.
func (s *CaptureSource) Info() SourceInfo {
	return s.info
}

// Read implements Source. The frame is JPEG-encoded before delivery so the
// rest of the pipeline never handles raw Mats.
func (s *CaptureSource) Read() (Frame, error) {
	if s.cap == nil {
		return Frame{}, ErrNotOpen
	}
	if ok := s.cap.Read(&s.img); !ok || s.img.Empty() {
		return Frame{}, fmt.Errorf("%w: %s", ErrFrameRead, s.identifier)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.img)
	if err != nil {
		return Frame{}, fmt.Errorf("stream: encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	return Frame{
		JPEG:   data,
		Width:  s.img.Cols(),
		Height: s.img.Rows(),
	}, nil
}

// Release implements Source.
func (s *CaptureSource) Release() error {
	if s.cap == nil {
		return nil
	}
	s.img.Close()
	err := s.cap.Close()
	s.cap = nil
	return err
}
