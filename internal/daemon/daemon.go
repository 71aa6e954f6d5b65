package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"pixly/internal/api"
	"pixly/internal/config"
	"pixly/internal/logging"
	"pixly/internal/pipeline"
	"pixly/internal/stage"
	"pixly/internal/store"
	"pixly/internal/watcher"
)

// LockFileName is the single-instance lock created under paths.log_dir.
const LockFileName = "pixly.lock"

// Daemon coordinates background processing and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	watcher  *watcher.Service
	pipeline *pipeline.Manager
	metrics  *pipeline.Metrics
	library  *api.LibraryService
	checkers []stage.Checker
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon around an open store and a configured processor.
// Extra checkers are included in status health reports.
func New(cfg *config.Config, st *store.Store, processor *pipeline.Processor, metrics *pipeline.Metrics, logger *slog.Logger, checkers ...stage.Checker) (*Daemon, error) {
	if cfg == nil || st == nil || processor == nil {
		return nil, errors.New("daemon requires config, store, and processor")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	svc := watcher.NewService(cfg, logger)
	metrics.RegisterQueue(svc.Queue)

	lockPath := filepath.Join(cfg.Paths.LogDir, LockFileName)
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		watcher:  svc,
		pipeline: pipeline.NewManager(processor, svc.Queue, cfg.Pipeline.Workers, logger),
		metrics:  metrics,
		library:  api.NewLibraryService(st),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.checkers = append([]stage.Checker{
		stage.CheckerFunc(d.storeHealth),
		stage.CheckerFunc(d.watcherHealth),
		stage.CheckerFunc(d.pipelineHealth),
	}, checkers...)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the pipeline workers, the
// watcher, and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another pixly daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	rollback := func() {
		cancel()
		_ = d.lock.Unlock()
	}

	if err := d.pipeline.Start(runCtx); err != nil {
		rollback()
		return fmt.Errorf("start pipeline: %w", err)
	}
	if err := d.watcher.Start(runCtx); err != nil {
		d.pipeline.Stop()
		rollback()
		return fmt.Errorf("start watcher: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.watcher.Stop()
		d.pipeline.Stop()
		rollback()
		return fmt.Errorf("start api: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("pixly daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Any("watched", d.watcher.Watcher.Watched()),
		logging.String("api", d.APIAddress()),
	)
	return nil
}

// Stop halts the watcher first so no new files arrive, then lets in-flight
// files finish before releasing the lock. Files still queued stay on disk
// where they were and are picked up by the next scan.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.watcher.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
			logging.String(logging.FieldImpact, "next start may report another instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("pixly daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"),
		logging.Int("abandoned_queued", d.watcher.Queue.Len()),
	)
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.watcher.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon has been started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddress returns the bound dashboard address, or "" when the API is
// disabled or not yet listening.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// LockPath returns the single-instance lock path.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	q := d.watcher.Queue
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
		Watched:      d.watcher.Watcher.Watched(),
		Pipeline:     api.FromStatusSummary(d.pipeline.Status()),
		Queue: api.QueueStatus{
			Length:   q.Len(),
			Capacity: q.Capacity(),
			Dropped:  q.Dropped(),
			Pending:  q.Pending(),
		},
		Health: api.FromHealth(stage.Collect(ctx, d.checkers...)),
	}
}

func (d *Daemon) storeHealth(ctx context.Context) stage.Health {
	const name = "store"
	health, err := d.store.CheckHealth(ctx)
	if err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	if !health.IntegrityCheck {
		return stage.Unhealthy(name, "integrity check failed")
	}
	return stage.Healthy(name)
}

func (d *Daemon) watcherHealth(context.Context) stage.Health {
	const name = "watcher"
	if !d.watcher.Watcher.Running() {
		return stage.Unhealthy(name, "not running")
	}
	if len(d.watcher.Watcher.Watched()) == 0 {
		return stage.Unhealthy(name, "no monitored directory is available")
	}
	return stage.Healthy(name)
}

func (d *Daemon) pipelineHealth(context.Context) stage.Health {
	const name = "pipeline"
	status := d.pipeline.Status()
	if !status.Running {
		return stage.Unhealthy(name, "workers stopped")
	}
	return stage.Healthy(name)
}
