package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"pixly/internal/imageinfo"
	"pixly/internal/logging"
)

// Detector defaults.
const (
	DefaultDebounce          = 500 * time.Millisecond
	DefaultStabilityInterval = 100 * time.Millisecond
	DefaultStabilityChecks   = 2
	DefaultStabilityTimeout  = 10 * time.Second
)

// FileCreatedHandler receives raw file-creation signals from an OS watcher.
type FileCreatedHandler interface {
	OnFileCreated(path string)
}

// DetectorOptions tunes debounce and stability polling.
type DetectorOptions struct {
	Debounce          time.Duration
	StabilityInterval time.Duration
	StabilityChecks   int
	StabilityTimeout  time.Duration
	Logger            *slog.Logger
}

type pendingFile struct {
	gen   uint64
	timer *time.Timer
}

// Detector debounces creation signals per path, waits for the file to stop
// changing, and then enqueues it exactly once per quiet period.
type Detector struct {
	queue  *Queue
	opts   DetectorOptions
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingFile
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewDetector constructs a detector feeding queue.
func NewDetector(queue *Queue, opts DetectorOptions) *Detector {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.StabilityInterval <= 0 {
		opts.StabilityInterval = DefaultStabilityInterval
	}
	if opts.StabilityChecks <= 0 {
		opts.StabilityChecks = DefaultStabilityChecks
	}
	if opts.StabilityTimeout <= 0 {
		opts.StabilityTimeout = DefaultStabilityTimeout
	}
	return &Detector{
		queue:   queue,
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "watcher"),
		now:     time.Now,
		pending: make(map[string]*pendingFile),
		quit:    make(chan struct{}),
	}
}

// OnFileCreated registers a signal for path. Non-image, hidden and temporary
// files are ignored. Repeated signals restart the debounce window.
func (d *Detector) OnFileCreated(path string) {
	if !imageinfo.IsCandidate(path) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[path]
	if !ok {
		p = &pendingFile{}
		d.pending[path] = p
	}
	p.gen++
	gen := p.gen
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(d.opts.Debounce, func() { d.fire(path, gen) })
}

// PendingCount returns how many paths are debouncing or being checked.
func (d *Detector) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels pending timers and waits for in-progress stability checks.
// The detector accepts new signals afterwards.
func (d *Detector) Stop() {
	d.mu.Lock()
	for _, p := range d.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
	}
	d.pending = make(map[string]*pendingFile)
	close(d.quit)
	d.quit = make(chan struct{})
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Detector) fire(path string, gen uint64) {
	d.mu.Lock()
	if !d.currentLocked(path, gen) {
		d.mu.Unlock()
		return
	}
	d.pending[path].timer = nil
	quit := d.quit
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	d.awaitStable(path, gen, quit)
}

func (d *Detector) currentLocked(path string, gen uint64) bool {
	p, ok := d.pending[path]
	return ok && p.gen == gen
}

func (d *Detector) current(path string, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentLocked(path, gen)
}

// forget drops path if gen still owns it.
func (d *Detector) forget(path string, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.currentLocked(path, gen) {
		return false
	}
	delete(d.pending, path)
	return true
}

func (d *Detector) awaitStable(path string, gen uint64, quit <-chan struct{}) {
	deadline := d.now().Add(d.opts.StabilityTimeout)
	var (
		lastSize int64 = -1
		lastMod  time.Time
		matches  int
	)
	for {
		if !d.current(path, gen) {
			return
		}
		info, err := os.Stat(path)
		if err != nil {
			if d.forget(path, gen) {
				level := slog.LevelWarn
				if errors.Is(err, fs.ErrNotExist) {
					level = slog.LevelDebug
				}
				d.logger.Log(context.Background(), level, "screenshot vanished before it stabilized",
					logging.String(logging.FieldEventType, "watch_file_vanished"),
					logging.String(logging.FieldPath, path),
					logging.Error(err),
				)
			}
			return
		}

		size, mod := info.Size(), info.ModTime()
		switch {
		case size <= 0:
			matches = 0
		case size == lastSize && mod.Equal(lastMod):
			matches++
		default:
			matches = 1
		}
		lastSize, lastMod = size, mod

		if matches >= d.opts.StabilityChecks {
			if d.forget(path, gen) {
				d.logger.Debug("screenshot stable; queued for processing",
					logging.String(logging.FieldEventType, "watch_file_ready"),
					logging.String(logging.FieldPath, path),
					logging.Int64("size", size),
				)
				d.queue.Enqueue(Event{Path: path, Observed: d.now()})
			}
			return
		}
		if !d.now().Before(deadline) {
			if d.forget(path, gen) {
				logging.WarnWithContext(d.logger, "screenshot never stabilized; skipping", "watch_file_unstable",
					logging.String(logging.FieldPath, path),
					logging.Duration("timeout", d.opts.StabilityTimeout),
					logging.String(logging.FieldErrorHint, "run pixly scan once the file is complete"),
					logging.String(logging.FieldImpact, "file left unprocessed"),
				)
			}
			return
		}

		timer := time.NewTimer(d.opts.StabilityInterval)
		select {
		case <-quit:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
