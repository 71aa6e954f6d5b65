// Package daemon coordinates the long-running Pixly process.
//
// It wires the store, the folder watcher, the pipeline workers, and the
// dashboard API into a single lifecycle with flock-based locking so only one
// instance watches a library at a time. Individual processing steps live in
// their own packages; the daemon owns startup, shutdown order, and the
// read-only HTTP surface.
package daemon
