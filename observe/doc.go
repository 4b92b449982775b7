// Package observe provides observability primitives for resilience
// instrumentation.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into an executor or
// subscribe it to primitive event streams.
package observe
