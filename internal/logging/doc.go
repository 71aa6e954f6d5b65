// Package logging assembles structured slog loggers and formatting helpers used
// across Pixly.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context-aware helpers so pipeline code tags log lines with the screenshot
// path, stage, record ID, and correlation ID. NewNop provides a silent logger
// for tests and wiring code that cannot fail.
package logging
