package stream

import (
	"errors"
	"fmt"
)

// Sentinel errors for common stream failure conditions.
var (
	// ErrSourceOpen is returned when the source could not be opened.
	ErrSourceOpen = errors.New("stream: source open failed")

	// ErrFrameRead is returned for a transient per-frame read failure.
	ErrFrameRead = errors.New("stream: frame read failed")

	// ErrNotOpen is returned when reading from a source that is not open.
	ErrNotOpen = errors.New("stream: source not open")
)

// ExhaustedError is the terminal error of a stream: every reconnect attempt
// failed. A new controller must be created to resume.
type ExhaustedError struct {
	// Attempts is how many reconnect attempts were made.
	Attempts int

	// LastErr is the error from the final attempt.
	LastErr error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("stream: reconnect exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

// Unwrap exposes the final attempt's error to errors.Is/As.
func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}
