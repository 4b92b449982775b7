package retry

import "errors"

// ErrMaxRetriesExceeded is returned when the final attempt fails. The last
// attempt's error is wrapped alongside it.
var ErrMaxRetriesExceeded = errors.New("retry: max retries exceeded")
