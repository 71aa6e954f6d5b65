package watcher

import (
	"context"
	"log/slog"

	"pixly/internal/config"
)

// Service bundles the OS watcher, the debounce detector and the queue that
// feeds the pipeline.
type Service struct {
	Queue    *Queue
	Detector *Detector
	Watcher  *Watcher
}

// NewService wires a watcher for the configured monitored directories.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	queue := NewQueue(cfg.Watcher.QueueCapacity, logger)
	detector := NewDetector(queue, DetectorOptions{
		Debounce:          cfg.DebounceWindow(),
		StabilityInterval: cfg.StabilityInterval(),
		StabilityChecks:   cfg.Watcher.StabilityChecks,
		StabilityTimeout:  cfg.StabilityTimeout(),
		Logger:            logger,
	})
	return &Service{
		Queue:    queue,
		Detector: detector,
		Watcher:  NewWatcher(cfg.Paths.MonitoredDirs, detector, logger),
	}
}

// Start begins watching.
func (s *Service) Start(ctx context.Context) error {
	return s.Watcher.Start(ctx)
}

// Stop halts watching and drops files still debouncing. Queued events stay
// in the queue.
func (s *Service) Stop() {
	s.Watcher.Stop()
	s.Detector.Stop()
}

// Close stops the service and closes the queue.
func (s *Service) Close() {
	s.Stop()
	s.Queue.Close()
}
