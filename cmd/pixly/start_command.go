package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pixly/internal/config"
	"pixly/internal/daemon"
	"pixly/internal/logging"
	"pixly/internal/pipeline"
	"pixly/internal/preflight"
	"pixly/internal/stage"
	"pixly/internal/store"
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	var scanExisting bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the watcher daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx, scanExisting)
		},
	}
	cmd.Flags().BoolVar(&scanExisting, "scan-existing", false, "Process screenshots already present in monitored folders")
	return cmd
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext, scanExisting bool) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	archived, rotateErr := logging.RotateLog(cfg.Paths.LogDir, time.Now())
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if rotateErr != nil {
		logging.WarnWithContext(logger, "log rotation failed; appending to existing log", "log_rotation_failed",
			logging.Error(rotateErr),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
		)
	} else if archived != "" {
		logger.Debug("previous log archived", logging.String(logging.FieldPath, archived))
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)

	if err := runPreflight(signalCtx, cfg, logger); err != nil {
		return err
	}

	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open database", "store_open_failed", logging.Error(err))
		return err
	}

	metrics := pipeline.NewMetrics()
	processor, err := pipeline.NewFromConfig(signalCtx, cfg, st, metrics, logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("configure pipeline: %w", err)
	}

	d, err := daemon.New(cfg, st, processor, metrics, logger, tesseractChecker(cfg))
	if err != nil {
		st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	var scans sync.WaitGroup
	if scanExisting {
		for _, dir := range d.Status(signalCtx).Watched {
			scans.Go(func() {
				if _, err := processor.Scan(signalCtx, dir); err != nil && signalCtx.Err() == nil {
					logging.WarnWithContext(logger, "startup scan failed", "startup_scan_failed",
						logging.String("dir", dir),
						logging.Error(err),
						logging.String(logging.FieldImpact, "existing screenshots in this folder were not processed"),
					)
				}
			})
		}
	}

	<-signalCtx.Done()
	logger.Info("pixly daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	scans.Wait()
	return nil
}

// runPreflight logs every failed check and returns an error only for
// configuration-fatal results.
func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.Bool("fatal", r.Fatal),
		)
	}
	if err := preflight.FatalError(results); err != nil {
		return fmt.Errorf("preflight failed:\n%w", err)
	}
	return nil
}

func tesseractChecker(cfg *config.Config) stage.Checker {
	return stage.CheckerFunc(func(ctx context.Context) stage.Health {
		r := preflight.CheckTesseract(ctx, cfg.OCR.TesseractPath)
		if !r.Passed {
			return stage.Unhealthy("ocr", r.Detail)
		}
		return stage.Health{Name: "ocr", Ready: true, Detail: r.Detail}
	})
}

