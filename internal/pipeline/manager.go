package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pixly/internal/logging"
	"pixly/internal/watcher"
)

// DefaultWorkers is the number of concurrent processing goroutines.
const DefaultWorkers = 2

// EventSource supplies stabilized files to process.
type EventSource interface {
	Dequeue(ctx context.Context) (watcher.Event, error)
}

// Manager drains an EventSource with a pool of workers.
type Manager struct {
	processor *Processor
	source    EventSource
	workers   int
	logger    *slog.Logger

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	processed   int
	failed      int
	lastErr     error
	lastOutcome *Outcome
	startedAt   time.Time
}

// StatusSummary represents lightweight pipeline diagnostics.
type StatusSummary struct {
	Running   bool      `json:"running"`
	Workers   int       `json:"workers"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	LastError string    `json:"last_error,omitempty"`
	LastPath  string    `json:"last_path,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// NewManager constructs a manager. A non-positive workers selects DefaultWorkers.
func NewManager(processor *Processor, source EventSource, workers int, logger *slog.Logger) *Manager {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Manager{
		processor: processor,
		source:    source,
		workers:   workers,
		logger:    logging.NewComponentLogger(logger, "pipeline-manager"),
	}
}

// Start launches the workers.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("pipeline already running")
	}
	if m.processor == nil || m.source == nil {
		m.mu.Unlock()
		return errors.New("pipeline not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.startedAt = time.Now()
	m.wg.Add(m.workers)
	m.mu.Unlock()

	for i := 0; i < m.workers; i++ {
		go m.runWorker(runCtx, i)
	}
	m.logger.Info("pipeline workers started",
		logging.String(logging.FieldEventType, "pipeline_started"),
		logging.Int("workers", m.workers),
	)
	return nil
}

// Stop stops dequeuing and waits for in-flight files to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("pipeline workers stopped", logging.String(logging.FieldEventType, "pipeline_stopped"))
}

// Status returns counters and the latest error.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	summary := StatusSummary{
		Running:   m.running,
		Workers:   m.workers,
		Processed: m.processed,
		Failed:    m.failed,
		StartedAt: m.startedAt,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastOutcome != nil {
		summary.LastPath = m.lastOutcome.Path
	}
	return summary
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", id))
	for {
		ev, err := m.source.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, watcher.ErrQueueClosed) {
				return
			}
			logger.Error("failed to fetch next screenshot",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check watcher logs"),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		outcome := m.processor.Process(ctx, ev.Path)
		m.record(outcome)
	}
}

func (m *Manager) record(outcome Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case outcome.State == StateDone:
		m.processed++
	case errors.Is(outcome.Err, context.Canceled):
	default:
		m.failed++
		m.lastErr = outcome.Err
	}
	m.lastOutcome = &outcome
}
