// Package circuitbreaker implements a concurrent circuit breaker over a
// sliding window of call outcomes.
//
// A breaker is a state machine with five states: closed, open, half-open,
// disabled and forced-open. Callers follow the permission protocol: acquire a
// permission, invoke the guarded operation, then report the outcome with
// OnSuccess or OnError together with the elapsed duration. Outcomes feed a
// sliding window (count-based or time-based); when the window holds enough
// calls and the failure rate or slow-call rate reaches its threshold the
// breaker opens and denies further permissions until the open wait elapses.
//
// All timing uses the monotonic clock reading carried by time.Time, so wall
// clock adjustments do not distort the open wait or window bucketing.
//
// The Execute and Do helpers wrap the protocol for the common case.
package circuitbreaker
