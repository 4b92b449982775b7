package circuitbreaker

import "errors"

// Sentinel errors for circuit breaker operations.
var (
	// ErrCallNotPermitted is returned when the breaker denies a permission.
	ErrCallNotPermitted = errors.New("circuitbreaker: call not permitted")

	// ErrIllegalStateTransition is returned by manual transitions that are
	// not allowed from the current state.
	ErrIllegalStateTransition = errors.New("circuitbreaker: illegal state transition")
)
