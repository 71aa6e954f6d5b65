package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const archiveTimestampLayout = "20060102T150405"

// RotateLog renames a non-empty <logDir>/pixly.log to pixly-<timestamp>.log so
// each daemon run starts a fresh file. It returns the archived path, or "" when
// there was nothing to rotate.
func RotateLog(logDir string, now time.Time) (string, error) {
	dir := strings.TrimSpace(logDir)
	if dir == "" {
		return "", nil
	}
	current := filepath.Join(dir, LogFileName)
	info, err := os.Stat(current)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() == 0 {
		return "", nil
	}
	base := strings.TrimSuffix(LogFileName, filepath.Ext(LogFileName))
	archived := filepath.Join(dir, fmt.Sprintf("%s-%s.log", base, now.Format(archiveTimestampLayout)))
	if err := os.Rename(current, archived); err != nil {
		return "", fmt.Errorf("archive log file: %w", err)
	}
	return archived, nil
}

// CleanupOldLogs removes archived daemon logs in logDir older than
// retentionDays. A retentionDays value of 0 disables pruning. The active log
// file is never removed.
func CleanupOldLogs(logger *slog.Logger, logDir string, retentionDays int) int {
	dir := strings.TrimSpace(logDir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	pattern := strings.TrimSuffix(LogFileName, filepath.Ext(LogFileName)) + "-*.log"

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == LogFileName {
			continue
		}
		if matched, err := filepath.Match(pattern, entry.Name()); err != nil || !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		fullPath := filepath.Join(dir, entry.Name())
		if err := os.Remove(fullPath); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String(FieldPath, fullPath),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned",
				String(FieldPath, fullPath),
				String(FieldEventType, "log_pruned"),
			)
		}
	}
	return removed
}
