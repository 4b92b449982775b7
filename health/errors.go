package health

import "errors"

var (
	// ErrCheckFailed marks a check whose inspection found a hard fault.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a check that overran the sweep deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
