package stream

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoding for dimension probing
	"time"

	"github.com/gorilla/websocket"
)

// SocketSource pulls JPEG frames pushed by a remote camera over a
// websocket. Each binary message is one encoded frame.
type SocketSource struct {
	url  string
	ws   *websocket.Conn
	info SourceInfo

	readTimeout time.Duration
}

// NewSocketSource creates a source for a ws:// or wss:// frame feed.
func NewSocketSource(url string) *SocketSource {
	return &SocketSource{
		url:         url,
		readTimeout: 10 * time.Second,
	}
}

// Open implements Source. Dimensions are probed from the first frame; the
// frame rate is unknown for pushed feeds, so frame-skip falls back to
// processing every frame.
func (s *SocketSource) Open(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	ws, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceOpen, s.url, err)
	}
	s.ws = ws

	frame, err := s.Read()
	if err != nil {
		ws.Close()
		s.ws = nil
		return fmt.Errorf("%w: %s: no initial frame: %v", ErrSourceOpen, s.url, err)
	}
	s.info = SourceInfo{Width: frame.Width, Height: frame.Height}
	return nil
}

// Info implements Source.
func (s *SocketSource) Info() SourceInfo {
	return s.info
}

// Read implements Source.
func (s *SocketSource) Read() (Frame, error) {
	if s.ws == nil {
		return Frame{}, ErrNotOpen
	}

	s.ws.SetReadDeadline(time.Now().Add(s.readTimeout))
	msgType, data, err := s.ws.ReadMessage()
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrFrameRead, err)
	}
	if msgType != websocket.BinaryMessage || len(data) == 0 {
		return Frame{}, fmt.Errorf("%w: unexpected message type %d", ErrFrameRead, msgType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: bad frame payload: %v", ErrFrameRead, err)
	}

	return Frame{
		JPEG:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Release implements Source.
func (s *SocketSource) Release() error {
	if s.ws == nil {
		return nil
	}
	err := s.ws.Close()
	s.ws = nil
	return err
}
