// Package watcher turns filesystem events into a stream of screenshots that
// are ready to process.
//
// fsnotify signals for image files are debounced per path, then the file is
// polled until its size and modification time stop changing. Ready files go
// into a bounded FIFO queue; when the queue is full the oldest waiting entry
// is dropped with a warning. Pipeline workers consume the queue.
package watcher
