package timelimiter

import "errors"

// ErrTimeout is returned when a call does not finish within the configured
// timeout.
var ErrTimeout = errors.New("timelimiter: timeout")
