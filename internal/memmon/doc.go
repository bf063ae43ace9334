// Package memmon watches process heap usage and relieves memory pressure.
//
// A Monitor samples heap usage on a fixed interval. When usage crosses the
// configured threshold it first asks the runtime to compact and return
// memory, then resamples, and only if pressure persists does it tell each
// registered Shrinker to release a fraction of its entries. Checks never
// return errors and never block the caller beyond the work of the check
// itself, so the monitor is safe to consult from hot paths such as queue
// dispatch.
package memmon
