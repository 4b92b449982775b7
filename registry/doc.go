// Package registry provides the concurrent name-to-instance store shared by
// all shield primitives.
//
// A Registry maps instance names to entries and configuration names to
// configs. Entry creation through ComputeIfAbsent is atomic: for any name the
// factory runs at most once, and it runs without registry locks held, so a
// factory may itself call back into the registry. Every mutation publishes a
// lifecycle event (added, removed, replaced).
//
// The configuration store reserves the name "default" for the config the
// registry was built with; it cannot be replaced through AddConfiguration.
package registry
