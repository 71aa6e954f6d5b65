package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pixly/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Fatal  bool   `json:"fatal,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// RunAll executes the local checks for the given config. No network calls
// are made.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, dir := range cfg.Paths.MonitoredDirs {
		results = append(results, CheckMonitoredDir(dir))
	}
	results = append(results, CheckWritableDir("Screenshots directory", cfg.Paths.ScreenshotsDir))
	results = append(results, CheckFreeSpace("Screenshots free space", cfg.Paths.ScreenshotsDir, MinFreeBytes))
	results = append(results, CheckTesseract(ctx, cfg.OCR.TesseractPath))
	results = append(results, CheckAICredentials(cfg))
	return results
}

// FatalError joins the details of every failed fatal result, or returns nil
// when processing may start.
func FatalError(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Fatal && !r.Passed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
		}
	}
	return errors.Join(errs...)
}

// Summary renders a single-line description of failed checks.
func Summary(results []Result) string {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name)
		}
	}
	if len(failed) == 0 {
		return "all checks passed"
	}
	return "failed: " + strings.Join(failed, ", ")
}
