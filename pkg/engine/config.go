package engine

import (
	"time"

	"github.com/yaJ17/FootTraffic-Analyzer/pkg/stream"
)

// Config holds the per-stream tunable parameters. A Config is fixed for the
// lifetime of one engine instance.
type Config struct {
	// RegionMargin is the fraction of the frame trimmed from every edge
	// to form the counting region. 0.2 leaves the central 60%.
	RegionMargin float64

	// ExportInterval is the minimum time between exported statistics.
	ExportInterval time.Duration

	// TargetProcessingFPS is the desired detection rate; source frames
	// beyond it are skipped for detection but still displayed.
	TargetProcessingFPS int

	// MaxConsecutiveFailures is how many consecutive read failures are
	// masked before reconnecting.
	MaxConsecutiveFailures int

	// ReconnectDelay is the wait between reconnect attempts.
	ReconnectDelay time.Duration

	// MaxReconnectAttempts bounds reconnects before the stream terminates.
	MaxReconnectAttempts int

	// FrameBuffer is the controller's frame channel capacity.
	FrameBuffer int

	// ExportQueue is the export dispatcher's queue capacity.
	ExportQueue int
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		RegionMargin:           0.2,
		ExportInterval:         3 * time.Second,
		TargetProcessingFPS:    15,
		MaxConsecutiveFailures: 3,
		ReconnectDelay:         2 * time.Second,
		MaxReconnectAttempts:   5,
		FrameBuffer:            8,
		ExportQueue:            16,
	}
}

// Validate checks that the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.RegionMargin < 0 || c.RegionMargin >= 0.5 {
		errors = append(errors, "region_margin must be in [0, 0.5)")
	}
	if c.ExportInterval <= 0 {
		errors = append(errors, "export_interval must be positive")
	}
	if c.TargetProcessingFPS < 1 || c.TargetProcessingFPS > 120 {
		errors = append(errors, "target_processing_fps must be between 1 and 120")
	}
	if c.MaxConsecutiveFailures < 0 {
		errors = append(errors, "max_consecutive_failures must not be negative")
	}
	if c.ReconnectDelay < 0 {
		errors = append(errors, "reconnect_delay must not be negative")
	}
	if c.MaxReconnectAttempts < 0 {
		errors = append(errors, "max_reconnect_attempts must not be negative")
	}

	return errors
}

// controllerConfig maps the engine config onto the stream controller.
func (c *Config) controllerConfig() stream.ControllerConfig {
	return stream.ControllerConfig{
		TargetFPS:              c.TargetProcessingFPS,
		MaxConsecutiveFailures: c.MaxConsecutiveFailures,
		ReconnectDelay:         c.ReconnectDelay,
		MaxReconnectAttempts:   c.MaxReconnectAttempts,
		Buffer:                 c.FrameBuffer,
	}
}
