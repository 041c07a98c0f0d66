package bridge

import "errors"

var (
	// ErrBridgeClosed is returned for submissions after Close, and for
	// operations that were still queued when the bridge shut down.
	ErrBridgeClosed = errors.New("bridge closed")

	// ErrBridgeUnavailable is returned when a worker could not obtain a storage
	// connection for the operation. The bridge never retries; retry policy
	// belongs to the caller.
	ErrBridgeUnavailable = errors.New("bridge unavailable")

	// ErrQueueFull is returned by TrySubmit when the bounded queue is full.
	// This is the backpressure signal.
	ErrQueueFull = errors.New("bridge queue full")

	// ErrOutcomeUnknown is returned when the caller's context ended while the
	// operation was already enqueued or executing. The operation is NOT
	// cancelled: it runs to completion against storage, so its outcome is
	// unknown to the caller, not failed.
	ErrOutcomeUnknown = errors.New("operation outcome unknown")
)
