package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yaJ17/FootTraffic-Analyzer/internal/log"
)

// State is the connection state of a Controller.
type State int

const (
	StateConnecting State = iota
	StateStreaming
	StateReconnecting
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ControllerConfig holds the resilience parameters.
type ControllerConfig struct {
	// TargetFPS is the desired detection rate; the controller marks every
	// Nth frame for processing where N = max(1, sourceFPS/TargetFPS).
	TargetFPS int

	// MaxConsecutiveFailures is how many consecutive read failures are
	// masked by re-emitting the last good frame before reconnecting.
	MaxConsecutiveFailures int

	// ReconnectDelay is the fixed wait between reconnect attempts.
	ReconnectDelay time.Duration

	// MaxReconnectAttempts bounds the retries after a connection is lost
	// or fails to open. Exceeding it terminates the stream.
	MaxReconnectAttempts int

	// Buffer is the frame channel capacity.
	Buffer int
}

// DefaultControllerConfig returns the production resilience defaults.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		TargetFPS:              15,
		MaxConsecutiveFailures: 3,
		ReconnectDelay:         2 * time.Second,
		MaxReconnectAttempts:   5,
		Buffer:                 8,
	}
}

// Controller wraps a Source with reconnect, failure masking and frame-skip,
// delivering frames on a bounded channel. One Controller serves one stream;
// after termination a new Controller must be created.
type Controller struct {
	source Source
	cfg    ControllerConfig
	frames chan Frame

	mu       sync.Mutex
	state    State
	lastErr  error
	lastGood *Frame

	failures int
	seq      uint64
}

// NewController creates a controller over the given source.
func NewController(source Source, cfg ControllerConfig) *Controller {
	if cfg.Buffer < 1 {
		cfg.Buffer = 1
	}
	return &Controller{
		source: source,
		cfg:    cfg,
		frames: make(chan Frame, cfg.Buffer),
		state:  StateConnecting,
	}
}

// Frames returns the channel of delivered frames. It is closed when Run
// returns, whether by cancellation or termination.
func (c *Controller) Frames() <-chan Frame {
	return c.frames
}

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the terminal error, or nil while the stream is healthy or was
// stopped by cancellation.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Run drives the connection state machine until ctx is cancelled or the
// reconnect budget is exhausted. It returns nil on cancellation and the
// terminal *ExhaustedError otherwise.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.frames)

	attempts := 0
	var lastErr error

	for {
		c.setState(StateConnecting)
		err := c.source.Open(ctx)
		if err == nil {
			info := c.source.Info()
			skip := frameSkip(info.FPS, c.cfg.TargetFPS)
			log.Info("stream connected",
				"fps", info.FPS, "width", info.Width, "height", info.Height, "skip", skip)

			attempts = 0
			c.failures = 0
			c.setState(StateStreaming)

			err = c.streamLoop(ctx, skip)
			c.source.Release()

			if ctx.Err() != nil {
				c.setState(StateTerminated)
				return nil
			}
			lastErr = err
			log.Warn("stream lost", "error", err)
		} else {
			lastErr = fmt.Errorf("%w: %v", ErrSourceOpen, err)
			log.Warn("stream open failed", "error", err)
		}

		attempts++
		if attempts > c.cfg.MaxReconnectAttempts {
			term := &ExhaustedError{Attempts: attempts, LastErr: lastErr}
			c.terminate(term)
			return term
		}

		c.setState(StateReconnecting)
		log.Info("reconnecting", "attempt", attempts, "max", c.cfg.MaxReconnectAttempts,
			"delay", c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			c.setState(StateTerminated)
			return nil
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

// streamLoop reads frames until cancellation or until consecutive failures
// force a reconnect.
func (c *Controller) streamLoop(ctx context.Context, skip uint64) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		frame, err := c.source.Read()
		if err != nil {
			c.failures++
			if c.failures > c.cfg.MaxConsecutiveFailures {
				return fmt.Errorf("%w after %d consecutive failures: %v",
					ErrFrameRead, c.failures, err)
			}

			// Mask the failure by repeating the last good frame, if any.
			// Repeated frames never reach the detector, so a read glitch
			// cannot fabricate dwell time.
			if last := c.lastGoodFrame(); last != nil {
				repeat := *last
				repeat.Repeated = true
				repeat.Process = false
				repeat.Timestamp = time.Now()
				if !c.emit(ctx, repeat) {
					return ctx.Err()
				}
				continue
			}
			return fmt.Errorf("%w with no fallback frame: %v", ErrFrameRead, err)
		}

		c.failures = 0
		c.seq++
		frame.Seq = c.seq
		if frame.Timestamp.IsZero() {
			frame.Timestamp = time.Now()
		}
		frame.Process = skip <= 1 || c.seq%skip == 0
		c.setLastGood(frame)

		if !c.emit(ctx, frame) {
			return ctx.Err()
		}
	}
}

func (c *Controller) emit(ctx context.Context, f Frame) bool {
	select {
	case c.frames <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) terminate(err error) {
	c.mu.Lock()
	c.state = StateTerminated
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Controller) setLastGood(f Frame) {
	c.mu.Lock()
	c.lastGood = &f
	c.mu.Unlock()
}

func (c *Controller) lastGoodFrame() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastGood
}
