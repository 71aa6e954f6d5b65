// Package pipeline sequences the processing of a single screenshot and runs
// the worker pool that drains the watcher queue.
//
// Each file moves through received, extracted, classified, placed, persisted
// and deduplicated before it is done. OCR and classification never fail;
// placement and persistence failures end the file in the errored state with
// the error attached to its Outcome, and the workers move on. Once a file has
// been moved, shutdown no longer interrupts it so the store always matches
// the library on disk.
package pipeline
