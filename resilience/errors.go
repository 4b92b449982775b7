package resilience

import (
	"errors"

	"github.com/jonwraymond/shield/bulkhead"
	"github.com/jonwraymond/shield/circuitbreaker"
	"github.com/jonwraymond/shield/ratelimiter"
)

// IsRejection reports whether err is a refusal issued before the operation
// ran: an open breaker, a full bulkhead, or an exhausted rate limit.
func IsRejection(err error) bool {
	return errors.Is(err, circuitbreaker.ErrCallNotPermitted) ||
		errors.Is(err, bulkhead.ErrBulkheadFull) ||
		errors.Is(err, ratelimiter.ErrRequestNotPermitted)
}
