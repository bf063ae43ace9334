// Package bench provides lightweight rolling-window timing instrumentation
// for hot paths. Recorders keep only the most recent samples per named
// operation, so averages reflect current behavior and memory stays bounded
// no matter how long the process runs.
package bench
