package watcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pixly/internal/logging"
)

// DefaultQueueCapacity bounds the number of files waiting for processing.
const DefaultQueueCapacity = 100

// ErrQueueClosed is returned by Dequeue once the queue is closed and drained.
var ErrQueueClosed = errors.New("watcher queue closed")

// Event is a stabilized file waiting to be processed.
type Event struct {
	Path     string
	Observed time.Time
}

// Queue is a bounded FIFO of pending files. When full, the oldest entry that
// no consumer has taken yet is evicted to admit the new one.
type Queue struct {
	logger *slog.Logger

	mu      sync.Mutex
	buf     []Event
	head    int
	size    int
	closed  bool
	dropped uint64
	ready   chan struct{}
}

// NewQueue constructs a queue. A non-positive capacity selects DefaultQueueCapacity.
func NewQueue(capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		logger: logging.NewComponentLogger(logger, "watcher-queue"),
		buf:    make([]Event, capacity),
		ready:  make(chan struct{}, 1),
	}
}

// Enqueue appends ev, evicting the oldest pending entry when the queue is
// full. It reports whether an entry was evicted and which one.
func (q *Queue) Enqueue(ev Event) (Event, bool) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return Event{}, false
	}
	var (
		evicted  Event
		didEvict bool
	)
	if q.size == len(q.buf) {
		evicted = q.buf[q.head]
		q.buf[q.head] = Event{}
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		q.dropped++
		didEvict = true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = ev
	q.size++
	capacity := len(q.buf)
	q.mu.Unlock()

	q.signal()
	if didEvict {
		logging.WarnWithContext(q.logger, "processing queue full; dropped oldest pending screenshot", "queue_overflow",
			logging.String("evicted_path", evicted.Path),
			logging.String(logging.FieldPath, ev.Path),
			logging.Int("capacity", capacity),
			logging.String(logging.FieldErrorHint, "run pixly scan on the folder later to pick up dropped files"),
			logging.String(logging.FieldImpact, "the evicted screenshot stays in place unprocessed"),
		)
	}
	return evicted, didEvict
}

// Dequeue blocks until an event is available, the context ends, or the
// queue is closed and empty.
func (q *Queue) Dequeue(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if q.size > 0 {
			ev := q.buf[q.head]
			q.buf[q.head] = Event{}
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			more := q.size > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return ev, nil
		}
		if q.closed {
			q.mu.Unlock()
			q.signal()
			return Event{}, ErrQueueClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// Close wakes every waiting consumer. Remaining events can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Capacity returns the maximum number of pending events.
func (q *Queue) Capacity() int {
	return len(q.buf)
}

// Dropped returns how many events were evicted on overflow.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Pending returns a snapshot of queued paths in FIFO order.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, q.size)
	for i := 0; i < q.size; i++ {
		out = append(out, q.buf[(q.head+i)%len(q.buf)].Path)
	}
	return out
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
