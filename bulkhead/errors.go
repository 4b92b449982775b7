package bulkhead

import "errors"

// Sentinel errors for bulkhead operations.
var (
	// ErrBulkheadFull is returned when no permit or queue slot is available
	// within the allowed wait.
	ErrBulkheadFull = errors.New("bulkhead: full")

	// ErrBulkheadClosed is returned by submissions to a shut down thread
	// pool bulkhead.
	ErrBulkheadClosed = errors.New("bulkhead: closed")
)
