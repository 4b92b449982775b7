package ratelimiter

import "errors"

// ErrRequestNotPermitted is returned when a permission cannot be acquired
// within the configured timeout.
var ErrRequestNotPermitted = errors.New("ratelimiter: request not permitted")
