package service

import "errors"

var (
	// ErrInvalidEvent rejects a structurally invalid event. The event is
	// dropped, never queued or retried.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidRange rejects a malformed reporting window.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrUpstreamUnavailable wraps failures talking to the durable log or
	// the realtime store; callers may retry with backoff.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrPersistenceFailure wraps a failed insight write after successful
	// derivation. Re-deriving is cheap, so it is not retried automatically.
	ErrPersistenceFailure = errors.New("insight persistence failure")

	// ErrQueueFull rejects an insight generation request when the worker
	// queue is saturated.
	ErrQueueFull = errors.New("insight generation queue full")
)
