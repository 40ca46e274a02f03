// pkg/extract/errors.go
package extract

import "errors"

var (
	// ErrInvalidTarget is returned when the session root is missing or not a directory
	ErrInvalidTarget = errors.New("invalid target directory")

	// ErrMaxDepthExceeded is recorded when the round cap stops the loop with work left
	ErrMaxDepthExceeded = errors.New("maximum extraction rounds exceeded")

	// ErrInterrupted wraps the context error when a session is cancelled
	ErrInterrupted = errors.New("session interrupted")
)
