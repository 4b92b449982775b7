// Package events provides the lifecycle-event plumbing shared by all shield
// primitives.
//
// Each primitive instance owns a Publisher. Interested parties subscribe a
// consumer function, optionally filtered to specific event kinds. Every
// subscription owns an independent bounded ring buffer drained by its own
// goroutine: a slow consumer never blocks the caller that produced the event,
// it only loses its own oldest events. Dropped events are counted and visible
// through Publisher.Metrics.
//
// Consumers that panic are recovered and logged; they cannot poison the
// producer or other subscriptions.
package events
