package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"pixly/internal/logging"
)

// Watcher forwards fsnotify create and write events from the monitored
// directories to a FileCreatedHandler. It can be restarted after Stop.
type Watcher struct {
	dirs    []string
	handler FileCreatedHandler
	logger  *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	watched []string
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWatcher constructs a watcher for dirs.
func NewWatcher(dirs []string, handler FileCreatedHandler, logger *slog.Logger) *Watcher {
	return &Watcher{
		dirs:    append([]string(nil), dirs...),
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watcher"),
	}
}

// Start adds watches for every existing monitored directory and begins
// delivering events. Missing directories are skipped with a warning.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	watched := make([]string, 0, len(w.dirs))
	for _, dir := range w.dirs {
		info, err := os.Stat(dir)
		if err == nil && !info.IsDir() {
			err = errors.New("not a directory")
		}
		if err == nil {
			err = fsw.Add(dir)
		}
		if err != nil {
			logging.WarnWithContext(w.logger, "monitored directory unavailable; skipping", "watch_dir_skipped",
				logging.String(logging.FieldPath, dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "create the directory or remove it with pixly config remove-dir"),
				logging.String(logging.FieldImpact, "new screenshots in this directory are not detected"),
			)
			continue
		}
		watched = append(watched, dir)
	}
	if len(watched) == 0 {
		logging.WarnWithContext(w.logger, "no monitored directories are being watched", "watch_none",
			logging.String(logging.FieldErrorHint, "add a directory with pixly config add-dir"),
			logging.String(logging.FieldImpact, "screenshots are only processed by pixly scan"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.watched = watched
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.loop(runCtx, fsw)

	w.logger.Info("watcher started",
		logging.String(logging.FieldEventType, "watcher_started"),
		logging.Int("directories", len(watched)),
	)
	return nil
}

// Stop closes the fsnotify watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	fsw := w.fsw
	w.running = false
	w.cancel = nil
	w.fsw = nil
	w.watched = nil
	w.mu.Unlock()

	cancel()
	_ = fsw.Close()
	w.wg.Wait()

	w.logger.Info("watcher stopped", logging.String(logging.FieldEventType, "watcher_stopped"))
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Watched returns the directories currently being watched.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.watched...)
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.handler.OnFileCreated(ev.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "filesystem watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check inotify limits (fs.inotify.max_user_watches)"),
				logging.String(logging.FieldImpact, "some screenshots may not be detected"),
			)
		}
	}
}
