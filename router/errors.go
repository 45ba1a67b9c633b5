package router

import "errors"

var (
	// ErrNoWorkersAvailable is returned at construction time when the
	// configured worker count is zero. Routing never observes it: an
	// invalid pool is rejected before a router exists.
	ErrNoWorkersAvailable = errors.New("no workers available")

	// ErrInvalidTokenSequence is returned when a caller passes malformed
	// input (negative token IDs or a negative estimated output length).
	// It indicates a caller contract violation and is not retryable.
	ErrInvalidTokenSequence = errors.New("invalid token sequence")

	// ErrUnknownWorker is returned when a completion or release names a
	// worker ID outside the pool. Worker IDs are fixed at construction,
	// so this is always a caller bug.
	ErrUnknownWorker = errors.New("unknown worker")
)
