package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"pixly/internal/imageinfo"
	"pixly/internal/logging"
	"pixly/internal/services"
)

// ScanSummary counts what a directory scan did.
type ScanSummary struct {
	Dir       string `json:"dir"`
	Seen      int    `json:"seen"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// Scan processes the existing screenshots directly inside dir, in name
// order. Files already recorded in the store are skipped.
func (p *Processor) Scan(ctx context.Context, dir string) (ScanSummary, error) {
	summary := ScanSummary{Dir: dir}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return summary, services.Wrap(services.ErrNotFound, "scan", "read directory", dir, err)
		}
		return summary, services.Wrap(services.ErrValidation, "scan", "read directory", dir, err)
	}
	logger := logging.WithContext(ctx, p.logger)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !entry.Type().IsRegular() || !imageinfo.IsCandidate(entry.Name()) {
			continue
		}
		summary.Seen++
		path := filepath.Join(dir, entry.Name())

		if p.deps.Store != nil {
			known, err := p.deps.Store.HasPath(ctx, path)
			if err != nil {
				logger.Warn("could not check store for existing record; processing anyway",
					logging.String(logging.FieldEventType, "scan_lookup_failed"),
					logging.String(logging.FieldPath, path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check database access"),
					logging.String(logging.FieldImpact, "file may be recorded twice"),
				)
			} else if known {
				summary.Skipped++
				continue
			}
		}

		outcome := p.Process(ctx, path)
		if outcome.State == StateDone {
			summary.Processed++
		} else {
			summary.Failed++
		}
	}

	logger.Info("scan complete",
		logging.String(logging.FieldEventType, "scan_complete"),
		logging.String("dir", dir),
		logging.Int("seen", summary.Seen),
		logging.Int("processed", summary.Processed),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}
